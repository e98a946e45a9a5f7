package orchestrator

import (
	"context"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/veilpay/wallet-core/src/model"
	"go.uber.org/zap"
)

// submitRecorder is the orchestrator's side of the SubmitFunc boundary.
// The crypto client calls Submit exactly once per attempt; all ledger
// bookkeeping happens in here, in order: optimistic pending record before
// the signature request, txHash link on success, failed mark on
// rejection.
type submitRecorder struct {
	o          *Orchestrator
	opType     model.TxType
	token      model.Token
	amount     *big.Int
	to         string
	relayerFee *big.Int

	// minted when the recorder is created, before any on-chain identity
	// exists
	localId string
}

func (o *Orchestrator) newSubmitRecorder(opType model.TxType, token model.Token, amount *big.Int, to string, relayerFee *big.Int) *submitRecorder {
	return &submitRecorder{
		o:          o,
		opType:     opType,
		token:      token,
		amount:     amount,
		to:         to,
		relayerFee: relayerFee,
		localId:    uuid.NewString(),
	}
}

func (r *submitRecorder) pendingSpec(subtitle string) NotificationSpec {
	return NotificationSpec{
		Title:    operationTitle(r.opType),
		Subtitle: subtitle,
		LocalId:  r.localId,
		Sticky:   true,
	}
}

func (r *submitRecorder) Submit(ctx context.Context, req TxRequest) (string, error) {
	o := r.o

	_, err := o.ledger.Upsert(ctx, o.account, o.chain, model.TransactionRecord{
		Type:            r.opType,
		Amount:          r.amount,
		Token:           r.token,
		To:              r.to,
		RelayerFee:      r.relayerFee,
		LocalId:         r.localId,
		Status:          model.TxStatusPending,
		SubmitTimestamp: nowMillis(o.now),
	})
	if err != nil {
		return "", errors.Wrap(err, "failed recording pending operation")
	}

	note := o.notifier.Show(r.pendingSpec(""))
	defer note.Dismiss()

	// pure UX nudge while the signature request sits in the wallet; it
	// never touches ledger state and is stopped on every exit path
	watchdog := time.AfterFunc(o.watchdogDelay, func() {
		note.Update(r.pendingSpec("Check your wallet to continue"))
	})
	defer watchdog.Stop()

	txHash, err := o.signer.Submit(ctx, req)
	if err != nil {
		if _, uerr := o.ledger.Upsert(ctx, o.account, o.chain, model.TransactionRecord{
			LocalId:            r.localId,
			Status:             model.TxStatusFailed,
			CompletedTimestamp: nowMillis(o.now),
		}); uerr != nil {
			o.logger.Warn("failed marking record failed", zap.Error(uerr))
		}
		o.classifyAndNotify(err, r.localId)
		return "", markReported(errors.Wrap(err, "signer declined submission"))
	}

	if _, err := o.ledger.Upsert(ctx, o.account, o.chain, model.TransactionRecord{
		LocalId: r.localId,
		TxHash:  txHash,
	}); err != nil {
		o.logger.Warn("failed linking txHash to pending record", zap.Error(err))
	}
	o.logger.Info("operation submitted",
		zap.String("localId", r.localId), zap.String("txHash", txHash))
	return txHash, nil
}
