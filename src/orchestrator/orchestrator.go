package orchestrator

import (
	"time"

	"github.com/veilpay/wallet-core/src/model"
	"go.uber.org/zap"
)

const (
	defaultWatchdogDelay   = 15 * time.Second
	defaultFreshnessWindow = 5 * time.Minute
)

type Config struct {
	Account model.AccountAddr
	Chain   model.ChainId

	Ledger      ActivityLedger
	Signer      WalletSigner
	ChainReader ChainReader
	SDK         PrivacySDK
	Fees        FeeOracle
	Notifier    Notifier
	Balances    BalanceInvalidator
	Logger      *zap.Logger

	// zero means default
	WatchdogDelay   time.Duration
	FreshnessWindow time.Duration
}

// Orchestrator drives the shield and withdraw state machines for one
// (account, chain) pair. It owns every write to the activity ledger and
// every balance-cache invalidation; collaborators are injected and never
// reached around.
type Orchestrator struct {
	account model.AccountAddr
	chain   model.ChainId

	ledger      ActivityLedger
	signer      WalletSigner
	chainReader ChainReader
	sdk         PrivacySDK
	fees        FeeOracle
	notifier    Notifier
	balances    BalanceInvalidator
	logger      *zap.Logger

	watchdogDelay   time.Duration
	freshnessWindow time.Duration
	now             func() time.Time
}

// New validates that every collaborator is present before any state can
// transition; a missing dependency surfaces as PreconditionError here and
// nowhere later.
func New(cfg Config) (*Orchestrator, error) {
	switch {
	case cfg.Account == "":
		return nil, &PreconditionError{Missing: "account"}
	case cfg.Chain == "":
		return nil, &PreconditionError{Missing: "chain"}
	case cfg.Ledger == nil:
		return nil, &PreconditionError{Missing: "activity ledger"}
	case cfg.Signer == nil:
		return nil, &PreconditionError{Missing: "wallet signer"}
	case cfg.ChainReader == nil:
		return nil, &PreconditionError{Missing: "chain reader"}
	case cfg.SDK == nil:
		return nil, &PreconditionError{Missing: "crypto client"}
	case cfg.Fees == nil:
		return nil, &PreconditionError{Missing: "fee oracle"}
	case cfg.Notifier == nil:
		return nil, &PreconditionError{Missing: "notification sink"}
	case cfg.Balances == nil:
		return nil, &PreconditionError{Missing: "balance cache"}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	watchdog := cfg.WatchdogDelay
	if watchdog == 0 {
		watchdog = defaultWatchdogDelay
	}
	freshness := cfg.FreshnessWindow
	if freshness == 0 {
		freshness = defaultFreshnessWindow
	}
	return &Orchestrator{
		account:         cfg.Account,
		chain:           cfg.Chain,
		ledger:          cfg.Ledger,
		signer:          cfg.Signer,
		chainReader:     cfg.ChainReader,
		sdk:             cfg.SDK,
		fees:            cfg.Fees,
		notifier:        cfg.Notifier,
		balances:        cfg.Balances,
		logger:          logger.With(zap.String("component", "orchestrator"), zap.String("chain", string(cfg.Chain))),
		watchdogDelay:   watchdog,
		freshnessWindow: freshness,
		now:             time.Now,
	}, nil
}

// classifyAndNotify translates a failure into exactly one user-visible
// notification. Callers wrap the error with markReported afterwards so no
// outer layer raises a second, generic one.
func (o *Orchestrator) classifyAndNotify(err error, localId string) {
	switch {
	case IsSignerRejected(err):
		signerRejections.Inc()
		o.notifier.Show(NotificationSpec{
			Title:   "Transaction rejected",
			LocalId: localId,
		})
	case IsSignerUnauthorized(err):
		o.notifier.Show(NotificationSpec{
			Title:   "Transaction not initiated, unlock your wallet",
			LocalId: localId,
		})
	default:
		o.notifier.Show(NotificationSpec{
			Title:   "Transaction failed",
			LocalId: localId,
		})
	}
}

func (o *Orchestrator) notifyFailureOnce(err error, localId string) {
	if isReported(err) {
		return
	}
	o.classifyAndNotify(err, localId)
}

func operationTitle(opType model.TxType) string {
	if opType == model.TxTypeWithdraw {
		return "Withdrawing funds"
	}
	return "Shielding funds"
}

func nowMillis(now func() time.Time) int64 {
	return now().UnixMilli()
}
