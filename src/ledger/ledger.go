package ledger

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/veilpay/wallet-core/src/model"
	"github.com/veilpay/wallet-core/src/storage"
	"go.uber.org/zap"
)

// Ledger is the per-(account, chain) activity history. It is owned for
// writes by the orchestrator and mutated exclusively through Upsert so
// the one-row-per-operation invariant survives out-of-order reporting
// from the UI, the signer and the chain scan.
type Ledger struct {
	store  *storage.Store
	logger *zap.Logger
}

func New(store *storage.Store, logger *zap.Logger) *Ledger {
	return &Ledger{
		store:  store,
		logger: logger.With(zap.String("component", "ledger")),
	}
}

// account value layout: chain id -> serialized record list
type accountBlob map[string]json.RawMessage

func (l *Ledger) loadAccount(ctx context.Context, account model.AccountAddr) accountBlob {
	raw, found, err := l.store.Get(ctx, storage.StoreLedgers, string(account))
	if err != nil {
		l.logger.Warn("ledger read degraded to empty", zap.Error(err))
		return accountBlob{}
	}
	if !found {
		return accountBlob{}
	}
	blob := accountBlob{}
	if err := json.Unmarshal([]byte(raw), &blob); err != nil {
		l.logger.Warn("discarding unparsable ledger blob", zap.String("account", string(account)), zap.Error(err))
		return accountBlob{}
	}
	return blob
}

// GetRecords returns the full record list for the pair. Absent data and
// storage failures both read as an empty history, never an error.
func (l *Ledger) GetRecords(ctx context.Context, account model.AccountAddr, chain model.ChainId) []model.TransactionRecord {
	blob := l.loadAccount(ctx, account)
	raw, ok := blob[string(chain)]
	if !ok {
		return nil
	}
	return model.UnmarshalRecordList(raw)
}

// ResolveUpsert is the identity-resolution and merge step, pure so it can
// be reasoned about (and tested) without the store. It partitions the
// existing list into identity matches and rest, picks at most one
// local-only and at most one with-txHash match, merges them under the
// partial (partial wins, then withTxHash, then localOnly) and returns the
// replacement list with the merged record appended to the unmatched rest.
func ResolveUpsert(existing []model.TransactionRecord, partial model.TransactionRecord) ([]model.TransactionRecord, model.TransactionRecord) {
	var localOnly, withTxHash *model.TransactionRecord
	rest := make([]model.TransactionRecord, 0, len(existing))
	for i := range existing {
		r := existing[i]
		if !model.SameOperation(&r, &partial) {
			rest = append(rest, r)
			continue
		}
		if r.IsLocalOnly() && localOnly == nil {
			localOnly = &existing[i]
		} else if r.HasTxHash() && withTxHash == nil {
			withTxHash = &existing[i]
		}
		// further duplicate matches are folded away by omission
	}

	merged := model.MergeRecords(localOnly, withTxHash, &partial)
	return append(rest, merged), merged
}

// Upsert applies a partial record to the (account, chain) history and
// returns the merged result. Re-applying the same partial is a no-op.
// Storage failures degrade to the in-memory merge: the caller still gets
// a coherent record, the durable copy just lags reality.
func (l *Ledger) Upsert(ctx context.Context, account model.AccountAddr, chain model.ChainId, partial model.TransactionRecord) (model.TransactionRecord, error) {
	if !partial.IsValid() {
		return model.TransactionRecord{}, errors.New("upsert requires a localId or txHash")
	}

	blob := l.loadAccount(ctx, account)
	var existing []model.TransactionRecord
	if raw, ok := blob[string(chain)]; ok {
		existing = model.UnmarshalRecordList(raw)
	}

	replacement, merged := ResolveUpsert(existing, partial)

	encoded, err := model.MarshalRecordList(replacement)
	if err != nil {
		return merged, errors.Wrap(err, "failed encoding ledger records")
	}
	blob[string(chain)] = encoded
	value, err := json.Marshal(blob)
	if err != nil {
		return merged, errors.Wrap(err, "failed encoding ledger blob")
	}
	if err := l.store.Put(ctx, storage.StoreLedgers, string(account), string(value)); err != nil {
		l.logger.Warn("ledger write degraded, record kept in memory only", zap.Error(err))
	}
	return merged, nil
}

// Accounts lists every account with a stored history.
func (l *Ledger) Accounts(ctx context.Context) []model.AccountAddr {
	keys, err := l.store.Keys(ctx, storage.StoreLedgers)
	if err != nil {
		l.logger.Warn("account listing degraded to empty", zap.Error(err))
		return nil
	}
	accounts := make([]model.AccountAddr, 0, len(keys))
	for _, k := range keys {
		accounts = append(accounts, model.AccountAddr(k))
	}
	return accounts
}

// Clear wipes the whole ledger store, used on logout/reset.
func (l *Ledger) Clear(ctx context.Context) error {
	return l.store.Clear(ctx, storage.StoreLedgers)
}

// PruneFailed drops failed records completed before the cutoff. Lives
// here rather than in the maintenance daemon so record-list rewrites stay
// owned by this package.
func (l *Ledger) PruneFailed(ctx context.Context, account model.AccountAddr, chain model.ChainId, cutoffMillis int64) error {
	blob := l.loadAccount(ctx, account)
	raw, ok := blob[string(chain)]
	if !ok {
		return nil
	}
	existing := model.UnmarshalRecordList(raw)
	kept := make([]model.TransactionRecord, 0, len(existing))
	for _, r := range existing {
		if r.Status == model.TxStatusFailed && r.CompletedTimestamp != 0 && r.CompletedTimestamp < cutoffMillis {
			continue
		}
		kept = append(kept, r)
	}
	if len(kept) == len(existing) {
		return nil
	}
	encoded, err := model.MarshalRecordList(kept)
	if err != nil {
		return errors.Wrap(err, "failed encoding pruned records")
	}
	blob[string(chain)] = encoded
	value, err := json.Marshal(blob)
	if err != nil {
		return errors.Wrap(err, "failed encoding pruned blob")
	}
	return l.store.Put(ctx, storage.StoreLedgers, string(account), string(value))
}
