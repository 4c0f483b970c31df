package market

import (
	"encoding/binary"
	"fmt"

	"royaltymarket/core/types"
)

// Command tags carried as the leading argument of every post-creation call.
const (
	CommandSetupSale       = "setup_sale"
	CommandBuy             = "buy"
	CommandExecuteTransfer = "execute_transfer"
	CommandRefund          = "refund"
	CommandClaimFees       = "claim_fees"
)

// Dispatch validates the group shape and routes the invocation to its
// handler. The creation invocation carries no command tag and runs
// initialization; every other call is routed on its leading argument.
// Rejections carry a RejectError classifying the failure; accepted
// invocations return the outcome with the ordered effects they issued.
func (e *Engine) Dispatch(group *types.Group) (*Outcome, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if e.contractAddr == ([20]byte{}) {
		return nil, errNilContractAddr
	}
	call, ok := group.Call()
	if !ok {
		return nil, reject(RejectValidation, errNilCall)
	}
	outcome := &Outcome{GroupID: group.ID()}

	if call.Creation {
		if group.Size() != 1 {
			return nil, reject(RejectValidation, errWrongGroupSize)
		}
		if err := e.Initialize(call); err != nil {
			return nil, err
		}
		outcome.Command = "init"
		return outcome, nil
	}

	if len(call.Args) == 0 {
		return nil, reject(RejectValidation, errMissingCommand)
	}
	command := string(call.Args[0])
	outcome.Command = command

	switch command {
	case CommandSetupSale:
		if group.Size() != 1 {
			return nil, reject(RejectValidation, errWrongGroupSize)
		}
		if len(call.Args) != 2 {
			return nil, reject(RejectValidation, errWrongArgCount)
		}
		if err := e.checkCall(call); err != nil {
			return nil, err
		}
		price, err := parseUint(call.Args[1])
		if err != nil {
			return nil, reject(RejectValidation, err)
		}
		if err := e.SetupSale(call.Sender, price); err != nil {
			return nil, err
		}
		return outcome, nil

	case CommandBuy:
		if group.Size() != 2 {
			return nil, reject(RejectValidation, errWrongGroupSize)
		}
		payment, ok := group.Txns[1].(*types.Payment)
		if !ok {
			return nil, reject(RejectValidation, errMissingPayment)
		}
		if len(call.Args) != 2 {
			return nil, reject(RejectValidation, errWrongArgCount)
		}
		if err := e.checkCall(call); err != nil {
			return nil, err
		}
		assetID, err := parseUint(call.Args[1])
		if err != nil {
			return nil, reject(RejectValidation, err)
		}
		if err := e.Buy(call.Sender, call.Seller, assetID, payment); err != nil {
			return nil, err
		}
		return outcome, nil

	case CommandExecuteTransfer:
		if group.Size() != 1 {
			return nil, reject(RejectValidation, errWrongGroupSize)
		}
		if len(call.Args) != 1 {
			return nil, reject(RejectValidation, errWrongArgCount)
		}
		if err := e.checkCall(call); err != nil {
			return nil, err
		}
		effects, err := e.ExecuteTransfer(call.Sender, call.Seller)
		if err != nil {
			return nil, err
		}
		outcome.Effects = effects
		return outcome, nil

	case CommandRefund:
		if group.Size() != 1 {
			return nil, reject(RejectValidation, errWrongGroupSize)
		}
		if len(call.Args) != 1 {
			return nil, reject(RejectValidation, errWrongArgCount)
		}
		if err := e.checkCall(call); err != nil {
			return nil, err
		}
		effects, err := e.Refund(call.Sender, call.Seller)
		if err != nil {
			return nil, err
		}
		outcome.Effects = effects
		return outcome, nil

	case CommandClaimFees:
		if group.Size() != 1 {
			return nil, reject(RejectValidation, errWrongGroupSize)
		}
		if len(call.Args) != 1 {
			return nil, reject(RejectValidation, errWrongArgCount)
		}
		if err := e.checkCall(call); err != nil {
			return nil, err
		}
		effects, err := e.ClaimFees(call.Sender)
		if err != nil {
			return nil, err
		}
		outcome.Effects = effects
		return outcome, nil

	default:
		return nil, reject(RejectValidation, errUnknownCommand)
	}
}

// parseUint decodes a big-endian unsigned integer argument of one to eight
// bytes.
func parseUint(arg []byte) (uint64, error) {
	if len(arg) == 0 || len(arg) > 8 {
		return 0, fmt.Errorf("%w: uint argument must be 1 to 8 bytes", errBadArgument)
	}
	var buf [8]byte
	copy(buf[8-len(arg):], arg)
	return binary.BigEndian.Uint64(buf[:]), nil
}

// parseAddress decodes a 20-byte address argument.
func parseAddress(arg []byte) ([20]byte, error) {
	var addr [20]byte
	if len(arg) != len(addr) {
		return addr, fmt.Errorf("%w: address argument must be 20 bytes", errBadArgument)
	}
	copy(addr[:], arg)
	return addr, nil
}

// EncodeUint renders an unsigned integer as the canonical 8-byte big-endian
// argument form.
func EncodeUint(v uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return buf[:]
}
