package orchestrator

import (
	"context"
	"time"

	"github.com/veilpay/wallet-core/src/model"
	"go.uber.org/zap"
)

// HandleConfirmed processes an on-chain-confirmed transaction reported by
// the crypto client's chain scan. The upsert links by txHash, unifying
// the chain observation with the optimistic localId record when one
// exists. Confirmations older than the freshness window (cold resync) are
// recorded silently and not re-announced.
func (o *Orchestrator) HandleConfirmed(ctx context.Context, tx ConfirmedTransaction) {
	if tx.TxHash == "" {
		return
	}

	observedAt := nowMillis(o.now)
	completedAt := observedAt
	if tx.Block != nil {
		// best effort; a failed fetch just leaves the observation time
		if ts, err := o.chainReader.BlockTimestamp(ctx, tx.Block); err == nil && ts > 0 {
			completedAt = ts
		} else if err != nil {
			o.logger.Debug("block timestamp fetch failed", zap.Error(err))
		}
	}

	if _, err := o.ledger.Upsert(ctx, o.account, o.chain, model.TransactionRecord{
		Type:               tx.Type,
		Token:              tx.Token,
		Amount:             tx.Amount,
		TxHash:             tx.TxHash,
		Block:              tx.Block,
		Status:             model.TxStatusCompleted,
		CompletedTimestamp: completedAt,
	}); err != nil {
		o.logger.Warn("failed recording confirmation", zap.Error(err))
	}

	if !tx.Token.IsZero() {
		o.balances.InvalidateToken(ctx, o.account, o.chain, tx.Token)
	}
	// gas was spent regardless of which token moved
	o.balances.InvalidateNative(ctx, o.account, o.chain)
	opsCompleted.WithLabelValues(string(tx.Type)).Inc()

	if time.Duration(observedAt-completedAt)*time.Millisecond <= o.freshnessWindow {
		o.notifier.Show(NotificationSpec{
			Title:  "Transaction confirmed",
			TxHash: tx.TxHash,
		})
	}
}

// HandleCalldataGenerated records proof-generation progress reported by
// the crypto client. Observability only; ledger state moves on
// submission and confirmation, not on proof assembly.
func (o *Orchestrator) HandleCalldataGenerated(meta ProofMeta) {
	proofsGenerated.Inc()
	o.logger.Debug("proof calldata generated",
		zap.String("localId", meta.LocalId),
		zap.String("commitment", meta.Commitment),
		zap.Duration("took", meta.Duration))
}
