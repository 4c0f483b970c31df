package types

// AssetParams describes an asset registered with the ledger. Decimals must be
// zero for the single-unit assets the marketplace manages; Clawback is the
// address authorised to move units on behalf of their holder.
type AssetParams struct {
	Creator  [20]byte `json:"creator"`
	Total    uint64   `json:"total"`
	Decimals uint32   `json:"decimals"`
	Clawback [20]byte `json:"clawback"`
}
