package market

import "fmt"

// SlotStatus tags the lifecycle position of a seller slot. The tag replaces
// field-value inference so illegal transitions are rejected by construction.
type SlotStatus uint8

const (
	// SlotIdle marks a slot with no pending sale.
	SlotIdle SlotStatus = iota
	// SlotListed marks a slot whose owner has posted an ask price.
	SlotListed
	// SlotEscrowed marks a slot whose sale price has been paid into the
	// contract account and awaits settlement or refund.
	SlotEscrowed
)

// Valid reports whether the status value is within the supported range.
func (s SlotStatus) Valid() bool {
	switch s {
	case SlotIdle, SlotListed, SlotEscrowed:
		return true
	default:
		return false
	}
}

// String returns the canonical lowercase name of the status.
func (s SlotStatus) String() string {
	switch s {
	case SlotIdle:
		return "idle"
	case SlotListed:
		return "listed"
	case SlotEscrowed:
		return "escrowed"
	default:
		return fmt.Sprintf("slotstatus(%d)", uint8(s))
	}
}

// MarketState is the contract-wide record persisted once per instance.
// Creator and AssetID are immutable after initialization; CollectedFees only
// grows until the creator claims it back to zero.
type MarketState struct {
	Creator       [20]byte `json:"creator"`
	AssetID       uint64   `json:"assetId"`
	RoyaltyFee    uint64   `json:"royaltyFee"`
	WaitingTime   uint64   `json:"waitingTime"`
	CollectedFees uint64   `json:"collectedFees"`
}

// Clone returns a copy of the global record.
func (m *MarketState) Clone() *MarketState {
	if m == nil {
		return nil
	}
	clone := *m
	return &clone
}

// SanitizeMarketState validates the global record ahead of persistence.
func SanitizeMarketState(m *MarketState) (*MarketState, error) {
	if m == nil {
		return nil, fmt.Errorf("nil market state")
	}
	if m.RoyaltyFee < 1 || m.RoyaltyFee > feeDenominator {
		return nil, errRoyaltyRange
	}
	return m.Clone(), nil
}

// Slot is the per-account local record. An account acting as seller uses
// Status, AmountPayment, Buyer and RoundSaleBegan; an account acting as buyer
// only ever carries the transient ApproveTransfer flag for the duration of
// one sale. Both roles share the slot so a single record per address suffices.
type Slot struct {
	Status          SlotStatus `json:"status"`
	AmountPayment   uint64     `json:"amountPayment"`
	Buyer           [20]byte   `json:"buyer"`
	RoundSaleBegan  uint64     `json:"roundSaleBegan"`
	ApproveTransfer bool       `json:"approveTransfer"`
}

// Clone returns a copy of the slot.
func (s *Slot) Clone() *Slot {
	if s == nil {
		return nil
	}
	clone := *s
	return &clone
}

// Zero reports whether the slot carries no information in either role and can
// be deleted from the store.
func (s *Slot) Zero() bool {
	if s == nil {
		return true
	}
	return s.Status == SlotIdle && !s.ApproveTransfer
}

// clearSale resets the seller-role fields, leaving any buyer-role flag intact.
func (s *Slot) clearSale() {
	s.Status = SlotIdle
	s.AmountPayment = 0
	s.Buyer = [20]byte{}
	s.RoundSaleBegan = 0
}

// SanitizeSlot validates a slot record ahead of persistence.
func SanitizeSlot(s *Slot) (*Slot, error) {
	if s == nil {
		return nil, fmt.Errorf("nil slot")
	}
	if !s.Status.Valid() {
		return nil, fmt.Errorf("invalid slot status: %d", s.Status)
	}
	if s.Status != SlotIdle && s.AmountPayment == 0 {
		return nil, fmt.Errorf("listed slot requires a positive price")
	}
	if s.Status == SlotIdle && s.AmountPayment != 0 {
		return nil, fmt.Errorf("idle slot cannot carry a price")
	}
	return s.Clone(), nil
}
