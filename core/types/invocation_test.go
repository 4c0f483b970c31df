package types

import (
	"math/big"
	"testing"
)

func addr(fill byte) [20]byte {
	var a [20]byte
	for i := range a {
		a[i] = fill
	}
	return a
}

func TestGroupIDDeterministic(t *testing.T) {
	build := func() *Group {
		return NewBuyGroup(
			&AppCall{Sender: addr(0x01), Seller: addr(0x02), Args: [][]byte{[]byte("buy"), {0x07}}},
			&Payment{Sender: addr(0x01), Receiver: addr(0xCC), Amount: 1_000_000},
		)
	}
	if build().ID() != build().ID() {
		t.Fatalf("identical groups must share an id")
	}

	other := NewBuyGroup(
		&AppCall{Sender: addr(0x01), Seller: addr(0x02), Args: [][]byte{[]byte("buy"), {0x07}}},
		&Payment{Sender: addr(0x01), Receiver: addr(0xCC), Amount: 999_999},
	)
	if build().ID() == other.ID() {
		t.Fatalf("differing groups must not collide")
	}
}

func TestGroupIDArgBoundariesMatter(t *testing.T) {
	// ["ab", "c"] and ["a", "bc"] must encode differently
	a := NewCallGroup(&AppCall{Args: [][]byte{[]byte("ab"), []byte("c")}})
	b := NewCallGroup(&AppCall{Args: [][]byte{[]byte("a"), []byte("bc")}})
	if a.ID() == b.ID() {
		t.Fatalf("argument boundaries must be length-prefixed")
	}
}

func TestGroupCall(t *testing.T) {
	call := &AppCall{Sender: addr(0x01)}
	group := NewCallGroup(call)
	got, ok := group.Call()
	if !ok || got != call {
		t.Fatalf("Call() did not return the leading leg")
	}

	paymentFirst := &Group{Txns: []GroupTxn{&Payment{}, call}}
	if _, ok := paymentFirst.Call(); ok {
		t.Fatalf("a group led by a payment has no call")
	}
}

func TestAccountCloneIsDeep(t *testing.T) {
	acc := &Account{
		Nonce:   3,
		Balance: big.NewInt(500),
		Assets:  map[uint64]uint64{7: 1},
	}
	clone := acc.Clone()
	clone.Balance.SetInt64(9)
	clone.Assets[7] = 0

	if acc.Balance.Int64() != 500 || acc.Assets[7] != 1 {
		t.Fatalf("clone mutation leaked into the original")
	}
}

func TestAccountHoldingDistinguishesOptIn(t *testing.T) {
	acc := &Account{Balance: big.NewInt(0), Assets: map[uint64]uint64{7: 0}}
	held, ok := acc.Holding(7)
	if !ok || held != 0 {
		t.Fatalf("zero holding with opt-in expected, got %d, %v", held, ok)
	}
	if _, ok := acc.Holding(8); ok {
		t.Fatalf("asset 8 was never opted into")
	}
	var nilAcc *Account
	if _, ok := nilAcc.Holding(7); ok {
		t.Fatalf("nil account holds nothing")
	}
}
