package types

import "math/big"

// Account is the ledger-side record for one address: a spendable balance plus
// the units held of any asset the account has opted into. Presence of an asset
// id in Assets marks the opt-in even when the held amount is zero.
type Account struct {
	Nonce   uint64            `json:"nonce"`
	Balance *big.Int          `json:"balance"`
	Assets  map[uint64]uint64 `json:"assets,omitempty"`
}

// Clone returns a deep copy of the account so callers can safely mutate the
// copy without affecting the stored instance.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	clone := &Account{Nonce: a.Nonce, Balance: big.NewInt(0)}
	if a.Balance != nil {
		clone.Balance = new(big.Int).Set(a.Balance)
	}
	if a.Assets != nil {
		clone.Assets = make(map[uint64]uint64, len(a.Assets))
		for id, amt := range a.Assets {
			clone.Assets[id] = amt
		}
	}
	return clone
}

// Holding reports the units of the asset held by the account and whether the
// account has opted into the asset at all.
func (a *Account) Holding(assetID uint64) (uint64, bool) {
	if a == nil || a.Assets == nil {
		return 0, false
	}
	amt, ok := a.Assets[assetID]
	return amt, ok
}
