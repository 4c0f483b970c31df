package types

import (
	"encoding/binary"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// AppCall is one application invocation directed at the marketplace contract.
// Args carries the ordered byte-string arguments beginning with the command
// tag. Seller names the slot a settlement-side command operates on; it is an
// explicit parameter rather than a positional account reference so handlers
// never index into an auxiliary array.
type AppCall struct {
	Sender           [20]byte `json:"sender"`
	Args             [][]byte `json:"args"`
	Seller           [20]byte `json:"seller"`
	Fee              uint64   `json:"fee"`
	Creation         bool     `json:"creation"`
	RekeyTo          [20]byte `json:"rekeyTo"`
	CloseRemainderTo [20]byte `json:"closeRemainderTo"`
	AssetCloseTo     [20]byte `json:"assetCloseTo"`
}

// Payment is a plain transfer of the native currency between two accounts.
type Payment struct {
	Sender           [20]byte `json:"sender"`
	Receiver         [20]byte `json:"receiver"`
	Amount           uint64   `json:"amount"`
	Fee              uint64   `json:"fee"`
	CloseRemainderTo [20]byte `json:"closeRemainderTo"`
}

// GroupTxn is one leg of an atomically committed group.
type GroupTxn interface {
	groupTxn()
}

func (*AppCall) groupTxn() {}
func (*Payment) groupTxn() {}

// Group bundles the legs that commit or abort together.
type Group struct {
	Txns []GroupTxn
}

// NewCallGroup wraps a single application call into a group of one.
func NewCallGroup(call *AppCall) *Group {
	return &Group{Txns: []GroupTxn{call}}
}

// NewBuyGroup pairs an application call with the escrow payment leg.
func NewBuyGroup(call *AppCall, payment *Payment) *Group {
	return &Group{Txns: []GroupTxn{call, payment}}
}

// Size returns the number of legs in the group.
func (g *Group) Size() int {
	if g == nil {
		return 0
	}
	return len(g.Txns)
}

// Call returns the leading application call when the group starts with one.
func (g *Group) Call() (*AppCall, bool) {
	if g == nil || len(g.Txns) == 0 {
		return nil, false
	}
	call, ok := g.Txns[0].(*AppCall)
	return call, ok
}

// ID derives the deterministic group identifier from the keccak256 hash of the
// canonical leg encoding.
func (g *Group) ID() [32]byte {
	return ethcrypto.Keccak256Hash(g.encode())
}

func (g *Group) encode() []byte {
	if g == nil {
		return nil
	}
	buf := make([]byte, 0, 128)
	for _, txn := range g.Txns {
		switch leg := txn.(type) {
		case *AppCall:
			buf = append(buf, 0x01)
			buf = append(buf, leg.Sender[:]...)
			buf = append(buf, leg.Seller[:]...)
			buf = appendUint64(buf, leg.Fee)
			if leg.Creation {
				buf = append(buf, 0x01)
			} else {
				buf = append(buf, 0x00)
			}
			buf = appendUint64(buf, uint64(len(leg.Args)))
			for _, arg := range leg.Args {
				buf = appendUint64(buf, uint64(len(arg)))
				buf = append(buf, arg...)
			}
		case *Payment:
			buf = append(buf, 0x02)
			buf = append(buf, leg.Sender[:]...)
			buf = append(buf, leg.Receiver[:]...)
			buf = appendUint64(buf, leg.Amount)
			buf = appendUint64(buf, leg.Fee)
		}
	}
	return buf
}

func appendUint64(buf []byte, v uint64) []byte {
	var scratch [8]byte
	binary.BigEndian.PutUint64(scratch[:], v)
	return append(buf, scratch[:]...)
}
