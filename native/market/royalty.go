package market

import "math"

const (
	// feeDenominator expresses royalty fees in parts per thousand.
	feeDenominator = 1000
	// roundHalf is the remainder threshold above which the fee rounds up.
	// The exact tie rounds down.
	roundHalf = 500
)

// ComputeRoyaltyFee returns the royalty owed on amount at the per-mille rate.
// The intermediate product amount*feePerMille must fit in 64 bits; a violation
// returns errRoyaltyOverflow and callers surface it as an arithmetic
// rejection rather than saturating.
//
// A zero rate, or a product too small to reach one part per thousand, owes
// nothing. Rates at or above 1000 cap the fee at the full amount.
func ComputeRoyaltyFee(amount, feePerMille uint64) (uint64, error) {
	if amount == 0 {
		return 0, errZeroAmount
	}
	if feePerMille > math.MaxUint64/amount {
		return 0, errRoyaltyOverflow
	}
	product := amount * feePerMille
	quotient := product / feeDenominator
	remainder := product % feeDenominator
	switch {
	case feePerMille == 0 || quotient == 0:
		return 0, nil
	case feePerMille >= feeDenominator:
		return amount, nil
	case remainder > roundHalf:
		return quotient + 1, nil
	default:
		return quotient, nil
	}
}
