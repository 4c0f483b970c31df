package market

import (
	"math"
	"math/big"

	"royaltymarket/core/events"
	"royaltymarket/core/types"
	nativecommon "royaltymarket/native/common"
)

const moduleName = "market"

// serviceCostEffects is the number of settlement-time effects (one asset
// transfer, one payment) whose network fee the contract account covers.
const serviceCostEffects = 2

type engineState interface {
	MarketGet() (*MarketState, bool, error)
	MarketPut(*MarketState) error
	SlotGet(addr [20]byte) (*Slot, bool, error)
	SlotPut(addr [20]byte, slot *Slot) error
	SlotDelete(addr [20]byte) error
	GetAccount(addr [20]byte) (*types.Account, error)
	PutAccount(addr [20]byte, account *types.Account) error
	AssetParams(assetID uint64) (*types.AssetParams, bool, error)
}

// Engine wires the marketplace state machine with external state and event
// emitters. Handlers validate every precondition before the first mutation so
// a rejection leaves no observable state change; the hosting executor
// serializes invocations, so no handler ever observes a concurrent write.
type Engine struct {
	state        engineState
	emitter      events.Emitter
	contractAddr [20]byte
	feeSink      [20]byte
	minFee       uint64
	roundFn      func() uint64
	pauses       nativecommon.PauseView
}

// NewEngine creates a market engine with a no-op emitter. Callers can
// override the emitter via SetEmitter.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		roundFn: func() uint64 { return 0 },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetContractAddress configures the account the contract escrows payments in.
func (e *Engine) SetContractAddress(addr [20]byte) { e.contractAddr = addr }

// SetFeeSink configures the address that receives the network fee charged on
// every outgoing effect.
func (e *Engine) SetFeeSink(addr [20]byte) { e.feeSink = addr }

// SetMinimumFee configures the network minimum fee. The service cost deducted
// at settlement is serviceCostEffects times this value.
func (e *Engine) SetMinimumFee(fee uint64) { e.minFee = fee }

// SetRoundFunc overrides the round source used by the timeout path. Primarily
// intended for tests and hosts with their own round counter.
func (e *Engine) SetRoundFunc(round func() uint64) {
	if round == nil {
		e.roundFn = func() uint64 { return 0 }
		return
	}
	e.roundFn = round
}

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetPauses configures the module pause switches consulted by every handler.
func (e *Engine) SetPauses(p nativecommon.PauseView) { e.pauses = p }

func (e *Engine) emit(evt events.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(evt)
}

func (e *Engine) round() uint64 {
	if e == nil || e.roundFn == nil {
		return 0
	}
	return e.roundFn()
}

func (e *Engine) serviceCost() uint64 {
	return serviceCostEffects * e.minFee
}

func ensureAccount(acc *types.Account) *types.Account {
	if acc == nil {
		return &types.Account{Balance: big.NewInt(0)}
	}
	if acc.Balance == nil {
		acc.Balance = big.NewInt(0)
	}
	return acc
}

func (e *Engine) loadMarket() (*MarketState, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	st, ok, err := e.state.MarketGet()
	if err != nil {
		return nil, err
	}
	if !ok || st == nil {
		return nil, reject(RejectState, errNotInitialized)
	}
	return st, nil
}

func (e *Engine) loadSlot(addr [20]byte) (*Slot, error) {
	slot, ok, err := e.state.SlotGet(addr)
	if err != nil {
		return nil, err
	}
	if !ok || slot == nil {
		return &Slot{}, nil
	}
	return slot, nil
}

func (e *Engine) storeSlot(addr [20]byte, slot *Slot) error {
	if slot.Zero() {
		return e.state.SlotDelete(addr)
	}
	return e.state.SlotPut(addr, slot)
}

func (e *Engine) credit(addr [20]byte, amount *big.Int) error {
	acc, err := e.state.GetAccount(addr)
	if err != nil {
		return err
	}
	acc = ensureAccount(acc)
	acc.Balance = new(big.Int).Add(acc.Balance, amount)
	return e.state.PutAccount(addr, acc)
}

func (e *Engine) debit(addr [20]byte, amount *big.Int) error {
	acc, err := e.state.GetAccount(addr)
	if err != nil {
		return err
	}
	acc = ensureAccount(acc)
	if acc.Balance.Cmp(amount) < 0 {
		return reject(RejectState, errInsufficientBank)
	}
	acc.Balance = new(big.Int).Sub(acc.Balance, amount)
	return e.state.PutAccount(addr, acc)
}

// pay moves amount from the contract account to receiver and charges the
// network minimum fee for the effect to the fee sink.
func (e *Engine) pay(receiver [20]byte, amount uint64) error {
	total := new(big.Int).SetUint64(amount)
	total.Add(total, new(big.Int).SetUint64(e.minFee))
	if err := e.debit(e.contractAddr, total); err != nil {
		return err
	}
	if err := e.credit(receiver, new(big.Int).SetUint64(amount)); err != nil {
		return err
	}
	return e.credit(e.feeSink, new(big.Int).SetUint64(e.minFee))
}

// chargeEffectFee bills the contract account for one effect that is not a
// payment (the clawback asset transfer at settlement).
func (e *Engine) chargeEffectFee() error {
	if err := e.debit(e.contractAddr, new(big.Int).SetUint64(e.minFee)); err != nil {
		return err
	}
	return e.credit(e.feeSink, new(big.Int).SetUint64(e.minFee))
}

// contractCovers verifies the contract account can fund amount plus the fees
// of the given number of outgoing effects before any mutation happens.
func (e *Engine) contractCovers(amount uint64, effects uint64) error {
	need := new(big.Int).SetUint64(amount)
	need.Add(need, new(big.Int).Mul(new(big.Int).SetUint64(effects), new(big.Int).SetUint64(e.minFee)))
	acc, err := e.state.GetAccount(e.contractAddr)
	if err != nil {
		return err
	}
	acc = ensureAccount(acc)
	if acc.Balance.Cmp(need) < 0 {
		return reject(RejectState, errInsufficientBank)
	}
	return nil
}

// holdsAssetUnit verifies the address holds exactly one unit of the asset.
func (e *Engine) holdsAssetUnit(addr [20]byte, assetID uint64) error {
	acc, err := e.state.GetAccount(addr)
	if err != nil {
		return err
	}
	held, optedIn := acc.Holding(assetID)
	if !optedIn || held != 1 {
		return reject(RejectState, errAssetNotHeld)
	}
	return nil
}

// optedIn verifies the address can receive units of the asset.
func (e *Engine) optedIn(addr [20]byte, assetID uint64) error {
	acc, err := e.state.GetAccount(addr)
	if err != nil {
		return err
	}
	if _, ok := acc.Holding(assetID); !ok {
		return reject(RejectState, errNotOptedIn)
	}
	return nil
}

// moveAssetUnit moves one unit of the asset under the contract's clawback
// authority. Callers must have verified the holder and receiver beforehand.
func (e *Engine) moveAssetUnit(assetID uint64, from, to [20]byte) error {
	fromAcc, err := e.state.GetAccount(from)
	if err != nil {
		return err
	}
	held, ok := fromAcc.Holding(assetID)
	if !ok || held < 1 {
		return reject(RejectState, errAssetNotHeld)
	}
	fromAcc.Assets[assetID] = held - 1
	if err := e.state.PutAccount(from, fromAcc); err != nil {
		return err
	}
	toAcc, err := e.state.GetAccount(to)
	if err != nil {
		return err
	}
	current, ok := toAcc.Holding(assetID)
	if !ok {
		return reject(RejectState, errNotOptedIn)
	}
	toAcc.Assets[assetID] = current + 1
	return e.state.PutAccount(to, toAcc)
}

// Initialize persists the contract-wide record. It is valid only on the
// creation invocation and never re-runs.
func (e *Engine) Initialize(call *types.AppCall) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if call == nil {
		return reject(RejectValidation, errNilCall)
	}
	if !call.Creation {
		return reject(RejectValidation, errCreationOnly)
	}
	if _, ok, err := e.state.MarketGet(); err != nil {
		return err
	} else if ok {
		return reject(RejectValidation, errAlreadyInitialized)
	}
	if len(call.Args) != 4 {
		return reject(RejectValidation, errWrongArgCount)
	}
	if err := e.checkCall(call); err != nil {
		return err
	}
	creator, err := parseAddress(call.Args[0])
	if err != nil {
		return reject(RejectValidation, err)
	}
	assetID, err := parseUint(call.Args[1])
	if err != nil {
		return reject(RejectValidation, err)
	}
	royaltyFee, err := parseUint(call.Args[2])
	if err != nil {
		return reject(RejectValidation, err)
	}
	waitingTime, err := parseUint(call.Args[3])
	if err != nil {
		return reject(RejectValidation, err)
	}
	if royaltyFee < 1 || royaltyFee > feeDenominator {
		return reject(RejectValidation, errRoyaltyRange)
	}
	params, ok, err := e.state.AssetParams(assetID)
	if err != nil {
		return err
	}
	if !ok || params == nil {
		return reject(RejectValidation, errAssetUnknown)
	}
	if params.Decimals != 0 {
		return reject(RejectValidation, errAssetDecimals)
	}
	st, err := SanitizeMarketState(&MarketState{
		Creator:     creator,
		AssetID:     assetID,
		RoyaltyFee:  royaltyFee,
		WaitingTime: waitingTime,
	})
	if err != nil {
		return reject(RejectValidation, err)
	}
	if err := e.state.MarketPut(st); err != nil {
		return err
	}
	e.emit(events.MarketInitialized{
		Creator:     st.Creator,
		AssetID:     st.AssetID,
		RoyaltyFee:  st.RoyaltyFee,
		WaitingTime: st.WaitingTime,
	})
	return nil
}

// SetupSale posts the seller's ask price. Re-listing over an existing listing
// or an escrowed sale is allowed and overwrites the slot; this preserves the
// contract's historical behaviour and is covered by explicit tests.
func (e *Engine) SetupSale(seller [20]byte, price uint64) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	st, err := e.loadMarket()
	if err != nil {
		return err
	}
	if price == 0 {
		return reject(RejectValidation, errPriceZero)
	}
	if price <= e.serviceCost() {
		return reject(RejectValidation, errPriceBelowCost)
	}
	params, ok, err := e.state.AssetParams(st.AssetID)
	if err != nil {
		return err
	}
	if !ok || params == nil {
		return reject(RejectState, errAssetUnknown)
	}
	if params.Clawback != e.contractAddr {
		return reject(RejectState, errAssetClawback)
	}
	if err := e.holdsAssetUnit(seller, st.AssetID); err != nil {
		return err
	}
	slot, err := e.loadSlot(seller)
	if err != nil {
		return err
	}
	slot.Status = SlotListed
	slot.AmountPayment = price
	slot.Buyer = [20]byte{}
	slot.RoundSaleBegan = 0
	if err := e.storeSlot(seller, slot); err != nil {
		return err
	}
	e.emit(events.SaleListed{Seller: seller, Price: price})
	return nil
}

// Buy escrows the buyer's payment against the seller's listing. The payment
// leg has already been validated for shape by the dispatcher; its fund
// movement belongs to the surrounding group and commits with it.
func (e *Engine) Buy(buyer, seller [20]byte, assetID uint64, payment *types.Payment) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	st, err := e.loadMarket()
	if err != nil {
		return err
	}
	if payment == nil {
		return reject(RejectValidation, errMissingPayment)
	}
	if assetID != st.AssetID {
		return reject(RejectValidation, errAssetMismatch)
	}
	slot, ok, err := e.state.SlotGet(seller)
	if err != nil {
		return err
	}
	if !ok || slot == nil || slot.Status == SlotIdle {
		return reject(RejectState, errSaleNotListed)
	}
	if slot.Status == SlotEscrowed {
		return reject(RejectState, errSaleEscrowed)
	}
	if payment.Amount != slot.AmountPayment {
		return reject(RejectState, errPaymentAmount)
	}
	if payment.Receiver != e.contractAddr {
		return reject(RejectValidation, errPaymentReceiver)
	}
	if err := e.holdsAssetUnit(seller, st.AssetID); err != nil {
		return err
	}
	if buyer == seller {
		return reject(RejectState, errBuyerIsSeller)
	}
	round := e.round()
	slot.Status = SlotEscrowed
	slot.Buyer = buyer
	slot.RoundSaleBegan = round
	if err := e.storeSlot(seller, slot); err != nil {
		return err
	}
	buyerSlot, err := e.loadSlot(buyer)
	if err != nil {
		return err
	}
	buyerSlot.ApproveTransfer = true
	if err := e.storeSlot(buyer, buyerSlot); err != nil {
		return err
	}
	e.emit(events.SaleEscrowed{Seller: seller, Buyer: buyer, Price: slot.AmountPayment, Round: round})
	return nil
}

// ExecuteTransfer settles an escrowed sale: the asset unit moves to the
// caller, the seller is paid the price net of service cost and royalty, and
// the royalty accrues to the collected-fees accumulator. Settlement is
// permissionless: the caller either carries the buyer-side approval, or the
// waiting time has elapsed and the seller forces settlement (reclaiming the
// unit while keeping the escrowed payment net of fees).
func (e *Engine) ExecuteTransfer(caller, seller [20]byte) ([]Effect, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	st, err := e.loadMarket()
	if err != nil {
		return nil, err
	}
	sellerSlot, ok, err := e.state.SlotGet(seller)
	if err != nil {
		return nil, err
	}
	if !ok || sellerSlot == nil || sellerSlot.Status != SlotEscrowed {
		return nil, reject(RejectState, errSaleNotEscrowed)
	}
	callerSlot, err := e.loadSlot(caller)
	if err != nil {
		return nil, err
	}
	approved := caller != seller && callerSlot.ApproveTransfer
	// A deadline past the 64-bit ceiling can never be reached; the sum must
	// not wrap or a huge waiting time would open the timeout path instead of
	// closing it.
	timedOut := sellerSlot.RoundSaleBegan <= math.MaxUint64-st.WaitingTime &&
		e.round() > st.WaitingTime+sellerSlot.RoundSaleBegan
	if !approved && !timedOut {
		return nil, reject(RejectState, errBuyerNotApproved)
	}
	amount := sellerSlot.AmountPayment
	cost := e.serviceCost()
	if cost >= amount {
		return nil, reject(RejectOverflow, errServiceCostUnderflow)
	}
	if err := e.holdsAssetUnit(seller, st.AssetID); err != nil {
		return nil, err
	}
	if err := e.optedIn(caller, st.AssetID); err != nil {
		return nil, err
	}
	net := amount - cost
	var fee uint64
	if seller != st.Creator {
		fee, err = ComputeRoyaltyFee(net, st.RoyaltyFee)
		if err != nil {
			return nil, reject(RejectOverflow, err)
		}
	}
	if math.MaxUint64-fee < net {
		return nil, reject(RejectOverflow, errPayoutOverflow)
	}
	if st.CollectedFees > math.MaxUint64-fee {
		return nil, reject(RejectOverflow, errCollectedOverflow)
	}
	if net <= fee {
		return nil, reject(RejectOverflow, errProceedsNotPositive)
	}
	proceeds := net - fee
	if err := e.contractCovers(proceeds, serviceCostEffects); err != nil {
		return nil, err
	}

	if err := e.moveAssetUnit(st.AssetID, seller, caller); err != nil {
		return nil, err
	}
	if err := e.chargeEffectFee(); err != nil {
		return nil, err
	}
	if err := e.pay(seller, proceeds); err != nil {
		return nil, err
	}
	st.CollectedFees += fee
	if err := e.state.MarketPut(st); err != nil {
		return nil, err
	}
	if caller == seller {
		sellerSlot.clearSale()
		sellerSlot.ApproveTransfer = false
		if err := e.storeSlot(seller, sellerSlot); err != nil {
			return nil, err
		}
	} else {
		sellerSlot.clearSale()
		if err := e.storeSlot(seller, sellerSlot); err != nil {
			return nil, err
		}
		callerSlot.ApproveTransfer = false
		if err := e.storeSlot(caller, callerSlot); err != nil {
			return nil, err
		}
	}
	e.emit(events.SaleSettled{
		Seller:   seller,
		Receiver: caller,
		Price:    amount,
		Fee:      fee,
		Proceeds: proceeds,
		Forced:   !approved,
	})
	return []Effect{
		AssetTransferEffect{AssetID: st.AssetID, From: seller, To: caller, Amount: 1},
		PayEffect{Receiver: seller, Amount: proceeds},
	}, nil
}

// Refund returns the escrowed payment to the buyer, minus one network fee for
// the refund effect. The seller's slot drops back to Listed with the price
// still posted, so the sale can await a new buyer. Refund and ExecuteTransfer
// are mutually exclusive: whichever commits first clears the approval flags
// the other's preconditions depend on.
func (e *Engine) Refund(caller, seller [20]byte) ([]Effect, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if _, err := e.loadMarket(); err != nil {
		return nil, err
	}
	if caller == seller {
		return nil, reject(RejectState, errBuyerIsSeller)
	}
	sellerSlot, ok, err := e.state.SlotGet(seller)
	if err != nil {
		return nil, err
	}
	if !ok || sellerSlot == nil || sellerSlot.Status != SlotEscrowed {
		return nil, reject(RejectState, errSaleNotEscrowed)
	}
	callerSlot, err := e.loadSlot(caller)
	if err != nil {
		return nil, err
	}
	if !callerSlot.ApproveTransfer {
		return nil, reject(RejectState, errSaleNotEscrowed)
	}
	amount := sellerSlot.AmountPayment
	if amount <= e.minFee {
		return nil, reject(RejectOverflow, errRefundUnderflow)
	}
	refund := amount - e.minFee
	if err := e.contractCovers(refund, 1); err != nil {
		return nil, err
	}

	if err := e.pay(caller, refund); err != nil {
		return nil, err
	}
	sellerSlot.Status = SlotListed
	sellerSlot.Buyer = [20]byte{}
	sellerSlot.RoundSaleBegan = 0
	if err := e.storeSlot(seller, sellerSlot); err != nil {
		return nil, err
	}
	callerSlot.ApproveTransfer = false
	if err := e.storeSlot(caller, callerSlot); err != nil {
		return nil, err
	}
	e.emit(events.SaleRefunded{Seller: seller, Buyer: caller, Amount: refund})
	return []Effect{PayEffect{Receiver: caller, Amount: refund}}, nil
}

// ClaimFees pays the creator the entire collected-fees accumulator and resets
// it to zero. The payout happens before the counter clears so there is no
// window where the counter is zero but nothing was paid. The claim can fail
// when the contract account cannot also cover the payment's network fee; the
// creator funds the account and resubmits.
func (e *Engine) ClaimFees(caller [20]byte) ([]Effect, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	st, err := e.loadMarket()
	if err != nil {
		return nil, err
	}
	if caller != st.Creator {
		return nil, reject(RejectAuthorization, errNotCreator)
	}
	if st.CollectedFees == 0 {
		return nil, reject(RejectState, errNoCollectedFees)
	}
	amount := st.CollectedFees
	if err := e.pay(st.Creator, amount); err != nil {
		return nil, err
	}
	st.CollectedFees = 0
	if err := e.state.MarketPut(st); err != nil {
		return nil, err
	}
	e.emit(events.FeesClaimed{Creator: st.Creator, Amount: amount})
	return []Effect{PayEffect{Receiver: st.Creator, Amount: amount}}, nil
}

// Market returns the global record without mutating state.
func (e *Engine) Market() (*MarketState, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	st, ok, err := e.state.MarketGet()
	if err != nil {
		return nil, err
	}
	if !ok || st == nil {
		return nil, reject(RejectState, errNotInitialized)
	}
	return st.Clone(), nil
}

// SlotOf returns the slot for an address, or a zero slot when none is stored.
func (e *Engine) SlotOf(addr [20]byte) (*Slot, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	slot, err := e.loadSlot(addr)
	if err != nil {
		return nil, err
	}
	return slot.Clone(), nil
}
