package storage

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"royaltymarket/core/types"
	"royaltymarket/native/market"
)

func testAddr(fill byte) [20]byte {
	var addr [20]byte
	for i := range addr {
		addr[i] = fill
	}
	return addr
}

func TestStoreMarketRoundTrip(t *testing.T) {
	store := NewStore(NewMemDB())

	_, ok, err := store.MarketGet()
	require.NoError(t, err)
	require.False(t, ok)

	want := &market.MarketState{
		Creator:       testAddr(0x01),
		AssetID:       7,
		RoyaltyFee:    50,
		WaitingTime:   15,
		CollectedFees: 123,
	}
	require.NoError(t, store.MarketPut(want))

	got, ok, err := store.MarketGet()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, want, got)
}

func TestStoreMarketPutRejectsBadRoyalty(t *testing.T) {
	store := NewStore(NewMemDB())
	err := store.MarketPut(&market.MarketState{RoyaltyFee: 0})
	require.Error(t, err)
	err = store.MarketPut(&market.MarketState{RoyaltyFee: 1001})
	require.Error(t, err)
}

func TestStoreSlotRoundTrip(t *testing.T) {
	store := NewStore(NewMemDB())
	seller := testAddr(0x02)

	_, ok, err := store.SlotGet(seller)
	require.NoError(t, err)
	require.False(t, ok)

	want := &market.Slot{
		Status:         market.SlotEscrowed,
		AmountPayment:  1_000_000,
		Buyer:          testAddr(0x03),
		RoundSaleBegan: 42,
	}
	require.NoError(t, store.SlotPut(seller, want))

	got, ok, err := store.SlotGet(seller)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, want, got)

	require.NoError(t, store.SlotDelete(seller))
	_, ok, err = store.SlotGet(seller)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStoreSlotPutRejectsInconsistentRecords(t *testing.T) {
	store := NewStore(NewMemDB())
	err := store.SlotPut(testAddr(0x02), &market.Slot{Status: market.SlotListed})
	require.Error(t, err, "listed slot without a price must be rejected")
	err = store.SlotPut(testAddr(0x02), &market.Slot{AmountPayment: 5})
	require.Error(t, err, "idle slot with a price must be rejected")
}

func TestStoreAccountDefaultsToEmpty(t *testing.T) {
	store := NewStore(NewMemDB())
	acc, err := store.GetAccount(testAddr(0x04))
	require.NoError(t, err)
	require.NotNil(t, acc.Balance)
	require.Zero(t, acc.Balance.Sign())

	acc.Balance = big.NewInt(500)
	acc.Assets = map[uint64]uint64{7: 1}
	require.NoError(t, store.PutAccount(testAddr(0x04), acc))

	got, err := store.GetAccount(testAddr(0x04))
	require.NoError(t, err)
	require.Equal(t, int64(500), got.Balance.Int64())
	held, ok := got.Holding(7)
	require.True(t, ok)
	require.Equal(t, uint64(1), held)
}

func TestStoreAssetParamsRoundTrip(t *testing.T) {
	store := NewStore(NewMemDB())

	_, ok, err := store.AssetParams(7)
	require.NoError(t, err)
	require.False(t, ok)

	want := &types.AssetParams{
		Creator:  testAddr(0x01),
		Total:    1,
		Decimals: 0,
		Clawback: testAddr(0xCC),
	}
	require.NoError(t, store.PutAssetParams(7, want))

	got, ok, err := store.AssetParams(7)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, want, got)
}

func TestStoreRoundCounter(t *testing.T) {
	store := NewStore(NewMemDB())
	round, err := store.Round()
	require.NoError(t, err)
	require.Zero(t, round)

	require.NoError(t, store.SetRound(99))
	round, err = store.Round()
	require.NoError(t, err)
	require.Equal(t, uint64(99), round)
}

func TestOverlayCommitFlushesToBacking(t *testing.T) {
	backing := NewMemDB()
	require.NoError(t, backing.Put([]byte("keep"), []byte("old")))

	overlay := NewOverlay(backing)
	require.NoError(t, overlay.Put([]byte("fresh"), []byte("value")))
	require.NoError(t, overlay.Delete([]byte("keep")))

	// the backing store is untouched until commit
	_, err := backing.Get([]byte("fresh"))
	require.ErrorIs(t, err, ErrKeyNotFound)
	got, err := backing.Get([]byte("keep"))
	require.NoError(t, err)
	require.Equal(t, []byte("old"), got)

	// the overlay already serves its own view
	got, err = overlay.Get([]byte("fresh"))
	require.NoError(t, err)
	require.Equal(t, []byte("value"), got)
	_, err = overlay.Get([]byte("keep"))
	require.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, overlay.Commit())
	got, err = backing.Get([]byte("fresh"))
	require.NoError(t, err)
	require.Equal(t, []byte("value"), got)
	_, err = backing.Get([]byte("keep"))
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func TestOverlayDiscardDropsBufferedMutations(t *testing.T) {
	backing := NewMemDB()
	require.NoError(t, backing.Put([]byte("keep"), []byte("old")))

	overlay := NewOverlay(backing)
	require.NoError(t, overlay.Put([]byte("fresh"), []byte("value")))
	require.NoError(t, overlay.Delete([]byte("keep")))
	overlay.Discard()

	_, err := overlay.Get([]byte("fresh"))
	require.ErrorIs(t, err, ErrKeyNotFound)
	got, err := overlay.Get([]byte("keep"))
	require.NoError(t, err)
	require.Equal(t, []byte("old"), got)

	require.NoError(t, overlay.Commit())
	_, err = backing.Get([]byte("fresh"))
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func TestOverlayPutAfterDeleteResurrectsKey(t *testing.T) {
	backing := NewMemDB()
	require.NoError(t, backing.Put([]byte("k"), []byte("v1")))

	overlay := NewOverlay(backing)
	require.NoError(t, overlay.Delete([]byte("k")))
	require.NoError(t, overlay.Put([]byte("k"), []byte("v2")))

	got, err := overlay.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("v2"), got)

	require.NoError(t, overlay.Commit())
	got, err = backing.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("v2"), got)
}
