package market

import "royaltymarket/core/types"

// checkCall applies the invocation-level guards required on the primary call
// of every state-mutating command: the authority-rekey target, the
// leftover-balance redirection target and the asset-redirection-on-close
// target must all be the zero address, and the call fee must not exceed the
// network minimum. The guards block a caller from hijacking contract
// authority or siphoning residual balance as a side effect of an otherwise
// valid call.
func (e *Engine) checkCall(call *types.AppCall) error {
	if call == nil {
		return reject(RejectValidation, errNilCall)
	}
	var zero [20]byte
	if call.RekeyTo != zero {
		return reject(RejectAuthorization, errRekeyTarget)
	}
	if call.CloseRemainderTo != zero {
		return reject(RejectAuthorization, errCloseTarget)
	}
	if call.AssetCloseTo != zero {
		return reject(RejectAuthorization, errAssetCloseTarget)
	}
	if call.Fee > e.minFee {
		return reject(RejectValidation, errFeeAboveMinimum)
	}
	return nil
}
