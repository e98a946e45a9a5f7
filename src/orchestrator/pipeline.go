package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/veilpay/wallet-core/src/model"
	"go.uber.org/zap"
)

// StartReconciler periodically re-checks pending ledger rows against the
// chain, closing out confirmations missed while the app was not running.
func (o *Orchestrator) StartReconciler(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	logger := o.logger.Named("reconciler")
	for {
		select {
		case <-ctx.Done():
			logger.Info("stopping reconciler, context cancelled")
			return
		case <-ticker.C:
			if err := o.ReconcileOnce(ctx); err != nil {
				logger.Error("reconcile pass failed", zap.Error(err))
			}
		}
	}
}

// ReconcileOnce walks pending records that already carry a txHash and
// resolves them against transaction receipts. Records still awaiting a
// signature (local-only) are left alone; the live flow owns those.
func (o *Orchestrator) ReconcileOnce(ctx context.Context) error {
	records := o.ledger.GetRecords(ctx, o.account, o.chain)
	resolved := 0
	for _, r := range records {
		if r.Status != model.TxStatusPending || !r.HasTxHash() {
			continue
		}
		status, err := o.chainReader.TransactionStatus(ctx, r.TxHash)
		if err != nil {
			return errors.Wrapf(err, "failed fetching receipt for %s", r.TxHash)
		}
		switch status {
		case ReceiptConfirmed:
			// recorded silently; these are by definition stale, the
			// fresh path goes through HandleConfirmed
			if _, err := o.ledger.Upsert(ctx, o.account, o.chain, model.TransactionRecord{
				TxHash:             r.TxHash,
				Status:             model.TxStatusCompleted,
				CompletedTimestamp: nowMillis(o.now),
			}); err != nil {
				return errors.Wrap(err, "failed completing reconciled record")
			}
			if !r.Token.IsZero() {
				o.balances.InvalidateToken(ctx, o.account, o.chain, r.Token)
			}
			o.balances.InvalidateNative(ctx, o.account, o.chain)
			resolved++
		case ReceiptFailed:
			if _, err := o.ledger.Upsert(ctx, o.account, o.chain, model.TransactionRecord{
				TxHash:             r.TxHash,
				Status:             model.TxStatusFailed,
				CompletedTimestamp: nowMillis(o.now),
			}); err != nil {
				return errors.Wrap(err, "failed failing reconciled record")
			}
			o.balances.InvalidateNative(ctx, o.account, o.chain)
			resolved++
		}
	}
	if resolved > 0 {
		o.logger.Info(fmt.Sprintf("reconciled %d pending records", resolved))
	}
	return nil
}
