package orchestrator

import (
	"context"
	"math/big"

	"github.com/pkg/errors"
	"github.com/veilpay/wallet-core/src/model"
	"go.uber.org/zap"
)

// Shield moves funds from the public account into the privacy pool:
// allowance check (erc20 only) -> approve -> submit through the crypto
// client -> ledger bookkeeping. Confirmation arrives later through
// HandleConfirmed.
func (o *Orchestrator) Shield(ctx context.Context, token model.Token, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return errors.New("shield amount must be positive")
	}
	opsStarted.WithLabelValues(string(model.TxTypeDeposit)).Inc()

	if !token.IsNative() {
		if err := o.ensureAllowance(ctx, token, amount); err != nil {
			opsFailed.WithLabelValues(string(model.TxTypeDeposit)).Inc()
			// no ledger record exists yet: the failure happened before a
			// localId was minted
			return err
		}
	}

	recorder := o.newSubmitRecorder(model.TxTypeDeposit, token, amount, "", nil)
	if err := o.sdk.Shield(ctx, token, amount, recorder.Submit, o.account); err != nil {
		opsFailed.WithLabelValues(string(model.TxTypeDeposit)).Inc()
		// gas may have been spent on failure, unless the signer never
		// submitted anything
		if !signerNeverSubmitted(err) {
			o.balances.InvalidateNative(ctx, o.account, o.chain)
		}
		o.notifyFailureOnce(err, recorder.localId)
		return errors.Wrap(err, "shield submission failed")
	}
	return nil
}

// ensureAllowance grants the pool contract an allowance when the current
// one does not cover the amount. Policy (applied uniformly): the approval
// blocks on its on-chain receipt before the shield proceeds, so the
// shield can never race an unmined approval.
func (o *Orchestrator) ensureAllowance(ctx context.Context, token model.Token, amount *big.Int) error {
	spender := o.sdk.SpenderAddress(o.chain)
	if spender == "" {
		return &PreconditionError{Missing: "pool contract address"}
	}
	allowance, err := o.chainReader.Allowance(ctx, o.account, token.Address, spender)
	if err != nil {
		o.classifyAndNotify(err, "")
		return markReported(errors.Wrap(err, "failed reading allowance"))
	}
	if allowance != nil && allowance.Cmp(amount) >= 0 {
		return nil
	}

	req, err := approveRequest(token.Address, spender, amount)
	if err != nil {
		return errors.Wrap(err, "failed building approval")
	}
	txHash, err := o.signer.Submit(ctx, req)
	if err != nil {
		// nothing was submitted, so no gas moved and no balance cache
		// needs invalidating
		o.classifyAndNotify(err, "")
		return markReported(errors.Wrap(err, "approval declined"))
	}

	if err := o.chainReader.WaitForReceipt(ctx, txHash); err != nil {
		// the approval was submitted; gas is spent whether it reverted
		// or timed out
		o.balances.InvalidateNative(ctx, o.account, o.chain)
		o.classifyAndNotify(err, "")
		return markReported(errors.Wrap(err, "approval not confirmed"))
	}
	o.logger.Info("allowance granted", zap.String("token", token.Address), zap.String("txHash", txHash))
	return nil
}
