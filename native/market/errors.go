package market

import (
	"errors"
	"fmt"
)

// RejectKind classifies why an invocation was refused. Every rejection is
// terminal for its invocation and leaves no observable state change; the
// caller corrects and resubmits.
type RejectKind uint8

const (
	RejectValidation RejectKind = iota + 1
	RejectAuthorization
	RejectOverflow
	RejectState
)

// String returns the canonical name of the rejection class.
func (k RejectKind) String() string {
	switch k {
	case RejectValidation:
		return "validation"
	case RejectAuthorization:
		return "authorization"
	case RejectOverflow:
		return "overflow"
	case RejectState:
		return "state"
	default:
		return "unknown"
	}
}

// RejectError wraps a handler failure with its rejection class.
type RejectError struct {
	Kind RejectKind
	Err  error
}

func (e *RejectError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("market: %s reject: %v", e.Kind, e.Err)
}

func (e *RejectError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Kind extracts the rejection class from an error chain.
func Kind(err error) (RejectKind, bool) {
	var reject *RejectError
	if errors.As(err, &reject) {
		return reject.Kind, true
	}
	return 0, false
}

func reject(kind RejectKind, err error) error {
	return &RejectError{Kind: kind, Err: err}
}

var (
	errNilState        = errors.New("market engine: state not configured")
	errNilContractAddr = errors.New("market engine: contract address not configured")
	errNilCall         = errors.New("market engine: nil application call")

	errAlreadyInitialized = errors.New("market: contract already initialized")
	errNotInitialized     = errors.New("market: contract not initialized")
	errCreationOnly       = errors.New("market: init valid only on contract creation")
	errWrongArgCount      = errors.New("market: wrong argument count")
	errWrongGroupSize     = errors.New("market: wrong group size")
	errMissingCommand     = errors.New("market: missing command tag")
	errUnknownCommand     = errors.New("market: unknown command")
	errBadArgument        = errors.New("market: malformed argument")
	errMissingPayment     = errors.New("market: second group leg must be a payment")

	errRekeyTarget      = errors.New("market: rekey target must be the zero address")
	errCloseTarget      = errors.New("market: close-remainder target must be the zero address")
	errAssetCloseTarget = errors.New("market: asset-close target must be the zero address")
	errFeeAboveMinimum  = errors.New("market: call fee exceeds the network minimum")

	errRoyaltyRange  = errors.New("market: royalty fee must be between 1 and 1000 per mille")
	errAssetUnknown  = errors.New("market: asset not registered")
	errAssetDecimals = errors.New("market: asset must have zero decimals")
	errAssetClawback = errors.New("market: asset clawback authority must be the contract")
	errAssetMismatch = errors.New("market: asset handle does not match the managed asset")
	errAssetNotHeld  = errors.New("market: seller does not hold exactly one asset unit")
	errNotOptedIn    = errors.New("market: receiver has not opted into the asset")

	errPriceZero        = errors.New("market: price must be positive")
	errPriceBelowCost   = errors.New("market: price must exceed the service cost")
	errSaleNotListed    = errors.New("market: no sale listed for the seller")
	errSaleEscrowed     = errors.New("market: sale already escrowed")
	errSaleNotEscrowed  = errors.New("market: sale payment not escrowed")
	errBuyerNotApproved = errors.New("market: buyer approval missing and waiting time not elapsed")
	errBuyerIsSeller    = errors.New("market: buyer and seller must differ")
	errPaymentAmount    = errors.New("market: payment amount does not match the listed price")
	errPaymentReceiver  = errors.New("market: payment receiver must be the contract account")

	errServiceCostUnderflow = errors.New("market: price does not cover the service cost")
	errZeroAmount           = errors.New("market: royalty amount must be positive")
	errRoyaltyOverflow      = errors.New("market: royalty product overflows 64 bits")
	errPayoutOverflow       = errors.New("market: payout arithmetic overflows 64 bits")
	errCollectedOverflow    = errors.New("market: collected fees accumulator would overflow")
	errProceedsNotPositive  = errors.New("market: seller proceeds must be strictly positive")
	errRefundUnderflow      = errors.New("market: escrowed amount does not cover the refund fee")

	errNotCreator       = errors.New("market: caller is not the creator")
	errNoCollectedFees  = errors.New("market: no fees collected")
	errInsufficientBank = errors.New("market: contract account cannot cover the payment")
)
