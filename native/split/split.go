// Package split implements the stateless companion of the marketplace: a
// sale price divided among a configurable ordered list of collaborators in a
// single atomic group of payments. Unlike the market engine it accumulates
// nothing; it only allocates amounts and verifies proposed payment groups.
package split

import (
	"errors"
	"fmt"
	"math"

	"royaltymarket/core/types"
)

const shareDenominator = 1000

var (
	ErrNoPayouts        = errors.New("split: at least one payout required")
	ErrZeroShare        = errors.New("split: payout share must be positive")
	ErrZeroAddress      = errors.New("split: payout address must not be zero")
	ErrDuplicateAddress = errors.New("split: duplicate payout address")
	ErrShareSum         = errors.New("split: payout shares must sum to 1000 per mille")
	ErrZeroTotal        = errors.New("split: total must be positive")
	ErrTotalOverflow    = errors.New("split: allocation product overflows 64 bits")
	ErrGroupShape       = errors.New("split: payment group does not match the plan")
)

// Payout names one collaborator and their share of every sale, in parts per
// thousand.
type Payout struct {
	Address    [20]byte `json:"address"`
	ShareMille uint64   `json:"shareMille"`
}

// Plan is an ordered payout schedule validated at construction to cover the
// whole sale price.
type Plan struct {
	payouts []Payout
}

// NewPlan validates the ordered payout list: every share positive, addresses
// unique and non-zero, shares summing to exactly the whole.
func NewPlan(payouts []Payout) (*Plan, error) {
	if len(payouts) == 0 {
		return nil, ErrNoPayouts
	}
	var zero [20]byte
	seen := make(map[[20]byte]struct{}, len(payouts))
	var sum uint64
	for _, p := range payouts {
		if p.ShareMille == 0 {
			return nil, ErrZeroShare
		}
		if p.Address == zero {
			return nil, ErrZeroAddress
		}
		if _, dup := seen[p.Address]; dup {
			return nil, ErrDuplicateAddress
		}
		seen[p.Address] = struct{}{}
		sum += p.ShareMille
		if sum > shareDenominator {
			return nil, ErrShareSum
		}
	}
	if sum != shareDenominator {
		return nil, ErrShareSum
	}
	plan := &Plan{payouts: make([]Payout, len(payouts))}
	copy(plan.payouts, payouts)
	return plan, nil
}

// Payouts returns a copy of the ordered payout schedule.
func (p *Plan) Payouts() []Payout {
	out := make([]Payout, len(p.payouts))
	copy(out, p.payouts)
	return out
}

// Allocate splits total across the schedule. Each payee receives the floor of
// their per-mille share; the rounding remainder goes to the first payee so
// the amounts always sum to exactly total.
func (p *Plan) Allocate(total uint64) ([]uint64, error) {
	if total == 0 {
		return nil, ErrZeroTotal
	}
	amounts := make([]uint64, len(p.payouts))
	var allocated uint64
	for i, payout := range p.payouts {
		if payout.ShareMille > math.MaxUint64/total {
			return nil, ErrTotalOverflow
		}
		amounts[i] = total * payout.ShareMille / shareDenominator
		allocated += amounts[i]
	}
	amounts[0] += total - allocated
	return amounts, nil
}

// VerifyGroup checks that a proposed atomic payment group matches the plan
// for the given total: same order, matching receivers and amounts, and no
// leftover-balance redirection on any leg.
func (p *Plan) VerifyGroup(total uint64, payments []*types.Payment) error {
	amounts, err := p.Allocate(total)
	if err != nil {
		return err
	}
	if len(payments) != len(p.payouts) {
		return fmt.Errorf("%w: expected %d legs, got %d", ErrGroupShape, len(p.payouts), len(payments))
	}
	var zero [20]byte
	for i, payment := range payments {
		if payment == nil {
			return fmt.Errorf("%w: leg %d missing", ErrGroupShape, i)
		}
		if payment.Receiver != p.payouts[i].Address {
			return fmt.Errorf("%w: leg %d pays the wrong address", ErrGroupShape, i)
		}
		if payment.Amount != amounts[i] {
			return fmt.Errorf("%w: leg %d pays %d, expected %d", ErrGroupShape, i, payment.Amount, amounts[i])
		}
		if payment.CloseRemainderTo != zero {
			return fmt.Errorf("%w: leg %d redirects leftover balance", ErrGroupShape, i)
		}
	}
	return nil
}
