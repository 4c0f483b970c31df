// Package ledger is the in-process stand-in for the hosting executor: it
// serializes invocation groups, applies their raw payment legs, dispatches
// the application call, and commits or discards the whole group as one unit.
// It owns the round counter the settlement timeout compares against.
package ledger

import (
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"royaltymarket/core/events"
	"royaltymarket/core/types"
	"royaltymarket/native/market"
	"royaltymarket/storage"
)

var errNilGroup = errors.New("ledger: nil group")

// Config carries the host parameters the executor runs under.
type Config struct {
	ContractAddress [20]byte
	FeeSink         [20]byte
	MinimumFee      uint64
}

// Ledger executes invocation groups one at a time over a persistent store.
type Ledger struct {
	db      storage.Database
	cfg     Config
	logger  *slog.Logger
	emitter events.Emitter
	round   uint64
}

// New opens a ledger over the database and restores the round counter.
func New(db storage.Database, cfg Config, logger *slog.Logger) (*Ledger, error) {
	if logger == nil {
		logger = slog.Default()
	}
	round, err := storage.NewStore(db).Round()
	if err != nil {
		return nil, err
	}
	return &Ledger{
		db:      db,
		cfg:     cfg,
		logger:  logger,
		emitter: events.NoopEmitter{},
		round:   round,
	}, nil
}

// SetEmitter configures where engine events are forwarded. Passing nil resets
// to a no-op emitter.
func (l *Ledger) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		l.emitter = events.NoopEmitter{}
		return
	}
	l.emitter = emitter
}

// CurrentRound returns the round invocations currently execute in.
func (l *Ledger) CurrentRound() uint64 { return l.round }

// AdvanceRound moves the ledger forward the given number of rounds and
// persists the counter.
func (l *Ledger) AdvanceRound(delta uint64) error {
	l.round += delta
	return storage.NewStore(l.db).SetRound(l.round)
}

func (l *Ledger) engine(store *storage.Store, recorder *events.Recorder) *market.Engine {
	engine := market.NewEngine()
	engine.SetState(store)
	engine.SetContractAddress(l.cfg.ContractAddress)
	engine.SetFeeSink(l.cfg.FeeSink)
	engine.SetMinimumFee(l.cfg.MinimumFee)
	round := l.round
	engine.SetRoundFunc(func() uint64 { return round })
	engine.SetEmitter(recorder)
	return engine
}

// Submit executes one atomic group. Either every leg, state mutation and
// effect commits together, or the invocation is rejected and the store is
// untouched.
func (l *Ledger) Submit(group *types.Group) (*market.Outcome, error) {
	if group == nil || group.Size() == 0 {
		return nil, errNilGroup
	}
	overlay := storage.NewOverlay(l.db)
	store := storage.NewStore(overlay)
	recorder := &events.Recorder{}
	engine := l.engine(store, recorder)

	if err := l.applyLegFees(store, group); err != nil {
		overlay.Discard()
		return nil, err
	}
	for _, txn := range group.Txns {
		payment, ok := txn.(*types.Payment)
		if !ok {
			continue
		}
		if err := l.applyPayment(store, payment); err != nil {
			overlay.Discard()
			return nil, err
		}
	}

	outcome, err := engine.Dispatch(group)
	if err != nil {
		overlay.Discard()
		l.logger.Info("group rejected", "round", l.round, "error", err)
		return nil, err
	}
	if err := overlay.Commit(); err != nil {
		return nil, err
	}
	for _, evt := range recorder.Events() {
		l.emitter.Emit(evt)
	}
	l.logger.Info("group committed",
		"round", l.round,
		"command", outcome.Command,
		"groupId", fmt.Sprintf("%x", outcome.GroupID),
		"effects", len(outcome.Effects),
	)
	return outcome, nil
}

// applyLegFees charges every leg's declared fee from its sender to the fee
// sink before the group logic runs.
func (l *Ledger) applyLegFees(store *storage.Store, group *types.Group) error {
	for _, txn := range group.Txns {
		var sender [20]byte
		var fee uint64
		switch leg := txn.(type) {
		case *types.AppCall:
			sender, fee = leg.Sender, leg.Fee
		case *types.Payment:
			sender, fee = leg.Sender, leg.Fee
		default:
			return fmt.Errorf("ledger: unsupported group leg %T", txn)
		}
		if fee == 0 {
			continue
		}
		if err := move(store, sender, l.cfg.FeeSink, new(big.Int).SetUint64(fee)); err != nil {
			return err
		}
	}
	return nil
}

// applyPayment moves a raw payment leg's funds. Legs that redirect leftover
// balance are refused outright.
func (l *Ledger) applyPayment(store *storage.Store, payment *types.Payment) error {
	var zero [20]byte
	if payment.CloseRemainderTo != zero {
		return fmt.Errorf("ledger: payment leg must not redirect leftover balance")
	}
	if payment.Amount == 0 {
		return nil
	}
	return move(store, payment.Sender, payment.Receiver, new(big.Int).SetUint64(payment.Amount))
}

func move(store *storage.Store, from, to [20]byte, amount *big.Int) error {
	fromAcc, err := store.GetAccount(from)
	if err != nil {
		return err
	}
	if fromAcc.Balance.Cmp(amount) < 0 {
		return fmt.Errorf("ledger: insufficient balance")
	}
	fromAcc.Balance = new(big.Int).Sub(fromAcc.Balance, amount)
	if err := store.PutAccount(from, fromAcc); err != nil {
		return err
	}
	toAcc, err := store.GetAccount(to)
	if err != nil {
		return err
	}
	toAcc.Balance = new(big.Int).Add(toAcc.Balance, amount)
	return store.PutAccount(to, toAcc)
}

// Market returns the contract global record.
func (l *Ledger) Market() (*market.MarketState, error) {
	st, ok, err := storage.NewStore(l.db).MarketGet()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("ledger: contract not initialized")
	}
	return st, nil
}

// SlotOf returns the local record for an address, a zero slot when absent.
func (l *Ledger) SlotOf(addr [20]byte) (*market.Slot, error) {
	slot, ok, err := storage.NewStore(l.db).SlotGet(addr)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &market.Slot{}, nil
	}
	return slot, nil
}

// AccountOf returns the ledger account for an address.
func (l *Ledger) AccountOf(addr [20]byte) (*types.Account, error) {
	return storage.NewStore(l.db).GetAccount(addr)
}

// RegisterAsset seeds the asset registry. Asset creation happens outside the
// contract; the host records the parameters the engine validates against.
func (l *Ledger) RegisterAsset(id uint64, params *types.AssetParams) error {
	return storage.NewStore(l.db).PutAssetParams(id, params)
}

// SeedAccount credits a balance and optional asset holdings directly, the
// host-side equivalent of genesis funding.
func (l *Ledger) SeedAccount(addr [20]byte, balance uint64, assets map[uint64]uint64) error {
	store := storage.NewStore(l.db)
	acc, err := store.GetAccount(addr)
	if err != nil {
		return err
	}
	acc.Balance = new(big.Int).Add(acc.Balance, new(big.Int).SetUint64(balance))
	if len(assets) > 0 && acc.Assets == nil {
		acc.Assets = make(map[uint64]uint64, len(assets))
	}
	for id, amt := range assets {
		acc.Assets[id] += amt
	}
	return store.PutAccount(addr, acc)
}
