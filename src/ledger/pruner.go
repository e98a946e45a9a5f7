package ledger

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/veilpay/wallet-core/src/model"
	"go.uber.org/zap"
)

// StartPruner periodically drops failed records past the retention
// window; nothing reconstructs those from the chain, they are just noise
// in the activity view after a while.
func StartPruner(ctx context.Context, l *Ledger, retention time.Duration, delay time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(delay)
	logger = logger.Named("pruner")
	for {
		select {
		case <-ctx.Done():
			logger.Info("stopping pruner, context cancelled")
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-retention).UnixMilli()
			if err := l.PruneAllFailed(ctx, cutoff); err != nil {
				logger.Error(err.Error())
			}
		}
	}
}

// Chains lists the chain ids an account has history for.
func (l *Ledger) Chains(ctx context.Context, account model.AccountAddr) []model.ChainId {
	blob := l.loadAccount(ctx, account)
	chains := make([]model.ChainId, 0, len(blob))
	for chain := range blob {
		chains = append(chains, model.ChainId(chain))
	}
	return chains
}

// PruneAllFailed walks every stored (account, chain) pair.
func (l *Ledger) PruneAllFailed(ctx context.Context, cutoffMillis int64) error {
	for _, account := range l.Accounts(ctx) {
		for _, chain := range l.Chains(ctx, account) {
			if err := l.PruneFailed(ctx, account, chain, cutoffMillis); err != nil {
				return errors.Wrapf(err, "failed pruning %s/%s", account, chain)
			}
		}
	}
	return nil
}
