package market

// Effect is one outgoing action issued by an accepted invocation. Effects are
// applied together with the handler's state mutation as a single atomic unit;
// the host never observes a partially settled invocation.
type Effect interface {
	effect()
}

// PayEffect moves native currency out of the contract account.
type PayEffect struct {
	Receiver [20]byte
	Amount   uint64
}

func (PayEffect) effect() {}

// AssetTransferEffect moves asset units between accounts under the contract's
// clawback authority.
type AssetTransferEffect struct {
	AssetID uint64
	From    [20]byte
	To      [20]byte
	Amount  uint64
}

func (AssetTransferEffect) effect() {}

// Outcome reports an accepted invocation back to the host: the command that
// ran and the ordered effects it issued.
type Outcome struct {
	GroupID [32]byte
	Command string
	Effects []Effect
}
