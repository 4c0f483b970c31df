package market

import (
	"errors"
	"math"
	"testing"
)

func TestComputeRoyaltyFee(t *testing.T) {
	tests := []struct {
		name        string
		amount      uint64
		feePerMille uint64
		want        uint64
	}{
		{"zero rate charges nothing", 1_000_000, 0, 0},
		{"full rate takes everything", 1_000_000, 1000, 1_000_000},
		{"half of a thousand", 1000, 500, 500},
		{"product below denominator rounds to zero", 7, 100, 0},
		{"exact division", 10_000, 33, 330},
		{"remainder above half rounds up", 1501, 1, 2},
		{"remainder exactly half rounds down", 1500, 1, 1},
		{"remainder below half rounds down", 1499, 1, 1},
		{"reference sale", 998_000, 50, 49_900},
		{"one unit at one per mille", 1, 1, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ComputeRoyaltyFee(tc.amount, tc.feePerMille)
			if err != nil {
				t.Fatalf("ComputeRoyaltyFee(%d, %d) error: %v", tc.amount, tc.feePerMille, err)
			}
			if got != tc.want {
				t.Fatalf("ComputeRoyaltyFee(%d, %d) = %d, want %d", tc.amount, tc.feePerMille, got, tc.want)
			}
		})
	}
}

func TestComputeRoyaltyFeeNeverExceedsAmount(t *testing.T) {
	amounts := []uint64{1, 2, 999, 1000, 1001, 123_456_789}
	rates := []uint64{0, 1, 499, 500, 501, 999, 1000}
	for _, amount := range amounts {
		for _, rate := range rates {
			fee, err := ComputeRoyaltyFee(amount, rate)
			if err != nil {
				t.Fatalf("ComputeRoyaltyFee(%d, %d) error: %v", amount, rate, err)
			}
			if fee > amount {
				t.Fatalf("ComputeRoyaltyFee(%d, %d) = %d exceeds the amount", amount, rate, fee)
			}
		}
	}
}

func TestComputeRoyaltyFeeRejectsOverflow(t *testing.T) {
	_, err := ComputeRoyaltyFee(math.MaxUint64, 2)
	if !errors.Is(err, errRoyaltyOverflow) {
		t.Fatalf("expected overflow rejection, got %v", err)
	}
	// the largest amount whose product with 2 still fits must pass
	if _, err := ComputeRoyaltyFee(math.MaxUint64/2, 2); err != nil {
		t.Fatalf("boundary amount rejected: %v", err)
	}
}

func TestComputeRoyaltyFeeRejectsZeroAmount(t *testing.T) {
	_, err := ComputeRoyaltyFee(0, 50)
	if !errors.Is(err, errZeroAmount) {
		t.Fatalf("expected zero-amount rejection, got %v", err)
	}
}
