package storage

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"royaltymarket/core/types"
	"royaltymarket/native/market"
)

// Key prefixes for the persisted record families.
var (
	keyMarketGlobal = []byte("market/global")
	keyRound        = []byte("ledger/round")
	prefixSlot      = []byte("market/slot/")
	prefixAccount   = []byte("account/")
	prefixAsset     = []byte("asset/")
)

// Store persists the marketplace global record, per-account slots, ledger
// accounts and the asset registry as JSON values in a key-value database. It
// implements the market engine's state interface.
type Store struct {
	db Database
}

// NewStore wraps a database in a typed state store.
func NewStore(db Database) *Store {
	return &Store{db: db}
}

// Database exposes the underlying key-value store, mainly so the ledger can
// wrap it in an overlay.
func (s *Store) Database() Database { return s.db }

func slotKey(addr [20]byte) []byte {
	return append(append([]byte(nil), prefixSlot...), addr[:]...)
}

func accountKey(addr [20]byte) []byte {
	return append(append([]byte(nil), prefixAccount...), addr[:]...)
}

func assetKey(id uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], id)
	return append(append([]byte(nil), prefixAsset...), buf[:]...)
}

func (s *Store) getJSON(key []byte, out any) (bool, error) {
	raw, err := s.db.Get(key)
	if errors.Is(err, ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("storage: decode %q: %w", key, err)
	}
	return true, nil
}

func (s *Store) putJSON(key []byte, in any) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("storage: encode %q: %w", key, err)
	}
	return s.db.Put(key, raw)
}

// MarketGet loads the contract-wide record.
func (s *Store) MarketGet() (*market.MarketState, bool, error) {
	st := new(market.MarketState)
	ok, err := s.getJSON(keyMarketGlobal, st)
	if err != nil || !ok {
		return nil, false, err
	}
	return st, true, nil
}

// MarketPut persists the contract-wide record.
func (s *Store) MarketPut(st *market.MarketState) error {
	sanitized, err := market.SanitizeMarketState(st)
	if err != nil {
		return err
	}
	return s.putJSON(keyMarketGlobal, sanitized)
}

// SlotGet loads the local record for an address.
func (s *Store) SlotGet(addr [20]byte) (*market.Slot, bool, error) {
	slot := new(market.Slot)
	ok, err := s.getJSON(slotKey(addr), slot)
	if err != nil || !ok {
		return nil, false, err
	}
	return slot, true, nil
}

// SlotPut persists the local record for an address.
func (s *Store) SlotPut(addr [20]byte, slot *market.Slot) error {
	sanitized, err := market.SanitizeSlot(slot)
	if err != nil {
		return err
	}
	return s.putJSON(slotKey(addr), sanitized)
}

// SlotDelete removes the local record for an address.
func (s *Store) SlotDelete(addr [20]byte) error {
	return s.db.Delete(slotKey(addr))
}

// GetAccount loads the ledger account for an address. Missing accounts read
// as empty accounts with a zero balance.
func (s *Store) GetAccount(addr [20]byte) (*types.Account, error) {
	acc := new(types.Account)
	ok, err := s.getJSON(accountKey(addr), acc)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &types.Account{Balance: big.NewInt(0)}, nil
	}
	if acc.Balance == nil {
		acc.Balance = big.NewInt(0)
	}
	return acc, nil
}

// PutAccount persists the ledger account for an address.
func (s *Store) PutAccount(addr [20]byte, acc *types.Account) error {
	if acc == nil {
		return fmt.Errorf("storage: nil account")
	}
	return s.putJSON(accountKey(addr), acc)
}

// AssetParams loads the registry entry for an asset.
func (s *Store) AssetParams(id uint64) (*types.AssetParams, bool, error) {
	params := new(types.AssetParams)
	ok, err := s.getJSON(assetKey(id), params)
	if err != nil || !ok {
		return nil, false, err
	}
	return params, true, nil
}

// PutAssetParams registers an asset. Assets are created outside the contract;
// the store only records what the engine needs to validate against.
func (s *Store) PutAssetParams(id uint64, params *types.AssetParams) error {
	if params == nil {
		return fmt.Errorf("storage: nil asset params")
	}
	return s.putJSON(assetKey(id), params)
}

// Round loads the persisted round counter, zero when never advanced.
func (s *Store) Round() (uint64, error) {
	raw, err := s.db.Get(keyRound)
	if errors.Is(err, ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if len(raw) != 8 {
		return 0, fmt.Errorf("storage: malformed round counter")
	}
	return binary.BigEndian.Uint64(raw), nil
}

// SetRound persists the round counter.
func (s *Store) SetRound(round uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], round)
	return s.db.Put(keyRound, buf[:])
}
