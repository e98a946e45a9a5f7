package orchestrator

import (
	"context"
	"math/big"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/veilpay/wallet-core/src/model"
	"go.uber.org/zap"
)

type WithdrawMode int

const (
	// WithdrawRelayed has the crypto client compute and forward the
	// withdrawal through a relayer; fees are deducted automatically.
	WithdrawRelayed WithdrawMode = iota
	// WithdrawDirect submits a pre-built transaction through the wallet
	// signing provider.
	WithdrawDirect
)

// Withdraw moves funds from the privacy pool to a public address.
// Structurally the shield machine minus the allowance branch, plus a
// destination and a relayer-fee quote fetched before submission. Ledger
// bookkeeping is identical in both modes.
func (o *Orchestrator) Withdraw(ctx context.Context, token model.Token, amount *big.Int, to string, mode WithdrawMode, pocketMoney *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return errors.New("withdraw amount must be positive")
	}
	if !ValidDestination(to) {
		return errors.Errorf("invalid destination address %q", to)
	}
	opsStarted.WithLabelValues(string(model.TxTypeWithdraw)).Inc()

	fees, err := o.fees.WithdrawFees(ctx, token, amount)
	if err != nil {
		opsFailed.WithLabelValues(string(model.TxTypeWithdraw)).Inc()
		o.classifyAndNotify(err, "")
		return errors.Wrap(err, "failed fetching withdraw fees")
	}

	switch mode {
	case WithdrawDirect:
		return o.withdrawDirect(ctx, token, amount, to, fees)
	default:
		return o.withdrawRelayed(ctx, token, amount, to, fees, pocketMoney)
	}
}

func (o *Orchestrator) withdrawDirect(ctx context.Context, token model.Token, amount *big.Int, to string, fees FeeBreakdown) error {
	recorder := o.newSubmitRecorder(model.TxTypeWithdraw, token, amount, to, fees.RelayerFee)
	if err := o.sdk.WithdrawManual(ctx, token, amount, to, recorder.Submit, o.account); err != nil {
		opsFailed.WithLabelValues(string(model.TxTypeWithdraw)).Inc()
		if !signerNeverSubmitted(err) {
			o.balances.InvalidateNative(ctx, o.account, o.chain)
		}
		o.notifyFailureOnce(err, recorder.localId)
		return errors.Wrap(err, "withdraw submission failed")
	}
	return nil
}

func (o *Orchestrator) withdrawRelayed(ctx context.Context, token model.Token, amount *big.Int, to string, fees FeeBreakdown, pocketMoney *big.Int) error {
	localId := uuid.NewString()
	if _, err := o.ledger.Upsert(ctx, o.account, o.chain, model.TransactionRecord{
		Type:            model.TxTypeWithdraw,
		Amount:          amount,
		Token:           token,
		To:              to,
		RelayerFee:      fees.RelayerFee,
		PocketMoney:     pocketMoney,
		LocalId:         localId,
		Status:          model.TxStatusPending,
		SubmitTimestamp: nowMillis(o.now),
	}); err != nil {
		return errors.Wrap(err, "failed recording pending withdraw")
	}
	note := o.notifier.Show(NotificationSpec{
		Title:   operationTitle(model.TxTypeWithdraw),
		LocalId: localId,
		Sticky:  true,
	})
	defer note.Dismiss()

	txHash, err := o.sdk.Withdraw(ctx, token, amount, fees, to, pocketMoney)
	if err != nil {
		opsFailed.WithLabelValues(string(model.TxTypeWithdraw)).Inc()
		if _, uerr := o.ledger.Upsert(ctx, o.account, o.chain, model.TransactionRecord{
			LocalId:            localId,
			Status:             model.TxStatusFailed,
			CompletedTimestamp: nowMillis(o.now),
		}); uerr != nil {
			o.logger.Warn("failed marking withdraw failed", zap.Error(uerr))
		}
		o.balances.InvalidateNative(ctx, o.account, o.chain)
		o.classifyAndNotify(err, localId)
		return errors.Wrap(err, "relayed withdraw failed")
	}

	if _, err := o.ledger.Upsert(ctx, o.account, o.chain, model.TransactionRecord{
		LocalId: localId,
		TxHash:  txHash,
	}); err != nil {
		o.logger.Warn("failed linking txHash to pending withdraw", zap.Error(err))
	}
	o.logger.Info("withdraw forwarded to relayer",
		zap.String("localId", localId), zap.String("txHash", txHash))
	return nil
}
