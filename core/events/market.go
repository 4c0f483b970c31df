package events

import (
	"encoding/hex"
	"strconv"

	"royaltymarket/core/types"
)

const (
	TypeMarketInitialized = "market.initialized"
	TypeSaleListed        = "market.sale.listed"
	TypeSaleEscrowed      = "market.sale.escrowed"
	TypeSaleSettled       = "market.sale.settled"
	TypeSaleRefunded      = "market.sale.refunded"
	TypeFeesClaimed       = "market.fees.claimed"
)

// MarketInitialized is emitted once when the contract global record is
// persisted at creation.
type MarketInitialized struct {
	Creator     [20]byte
	AssetID     uint64
	RoyaltyFee  uint64
	WaitingTime uint64
}

func (MarketInitialized) EventType() string { return TypeMarketInitialized }

func (e MarketInitialized) Event() *types.Event {
	return &types.Event{
		Type: TypeMarketInitialized,
		Attributes: map[string]string{
			"creator":     hexAddr(e.Creator),
			"assetId":     uintToString(e.AssetID),
			"royaltyFee":  uintToString(e.RoyaltyFee),
			"waitingTime": uintToString(e.WaitingTime),
		},
	}
}

// SaleListed is emitted when a seller posts an ask price.
type SaleListed struct {
	Seller [20]byte
	Price  uint64
}

func (SaleListed) EventType() string { return TypeSaleListed }

func (e SaleListed) Event() *types.Event {
	return &types.Event{
		Type: TypeSaleListed,
		Attributes: map[string]string{
			"seller": hexAddr(e.Seller),
			"price":  uintToString(e.Price),
		},
	}
}

// SaleEscrowed is emitted when a buyer's payment is escrowed against a listing.
type SaleEscrowed struct {
	Seller [20]byte
	Buyer  [20]byte
	Price  uint64
	Round  uint64
}

func (SaleEscrowed) EventType() string { return TypeSaleEscrowed }

func (e SaleEscrowed) Event() *types.Event {
	return &types.Event{
		Type: TypeSaleEscrowed,
		Attributes: map[string]string{
			"seller": hexAddr(e.Seller),
			"buyer":  hexAddr(e.Buyer),
			"price":  uintToString(e.Price),
			"round":  uintToString(e.Round),
		},
	}
}

// SaleSettled is emitted when a settlement transfers the asset and pays the
// seller their proceeds net of the royalty fee and service cost.
type SaleSettled struct {
	Seller   [20]byte
	Receiver [20]byte
	Price    uint64
	Fee      uint64
	Proceeds uint64
	Forced   bool
}

func (SaleSettled) EventType() string { return TypeSaleSettled }

func (e SaleSettled) Event() *types.Event {
	return &types.Event{
		Type: TypeSaleSettled,
		Attributes: map[string]string{
			"seller":   hexAddr(e.Seller),
			"receiver": hexAddr(e.Receiver),
			"price":    uintToString(e.Price),
			"fee":      uintToString(e.Fee),
			"proceeds": uintToString(e.Proceeds),
			"forced":   strconv.FormatBool(e.Forced),
		},
	}
}

// SaleRefunded is emitted when the escrowed payment is returned to the buyer.
type SaleRefunded struct {
	Seller [20]byte
	Buyer  [20]byte
	Amount uint64
}

func (SaleRefunded) EventType() string { return TypeSaleRefunded }

func (e SaleRefunded) Event() *types.Event {
	return &types.Event{
		Type: TypeSaleRefunded,
		Attributes: map[string]string{
			"seller": hexAddr(e.Seller),
			"buyer":  hexAddr(e.Buyer),
			"amount": uintToString(e.Amount),
		},
	}
}

// FeesClaimed is emitted when the creator withdraws the accumulated royalties.
type FeesClaimed struct {
	Creator [20]byte
	Amount  uint64
}

func (FeesClaimed) EventType() string { return TypeFeesClaimed }

func (e FeesClaimed) Event() *types.Event {
	return &types.Event{
		Type: TypeFeesClaimed,
		Attributes: map[string]string{
			"creator": hexAddr(e.Creator),
			"amount":  uintToString(e.Amount),
		},
	}
}

func hexAddr(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}

func uintToString(v uint64) string {
	return strconv.FormatUint(v, 10)
}
