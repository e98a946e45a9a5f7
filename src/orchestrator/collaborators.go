package orchestrator

import (
	"context"
	"math/big"
	"time"

	"github.com/veilpay/wallet-core/src/model"
)

// TxRequest is an assembled transaction handed to the wallet signing
// provider.
type TxRequest struct {
	To       string
	Data     []byte
	Value    *big.Int
	GasLimit uint64
}

// SubmitFunc is the explicit continuation the orchestrator hands to the
// crypto client: the client calls it exactly once per attempt with the
// assembled transfer transaction. Keeping this an explicit interface (and
// not an inferred closure) keeps ownership of ledger and notification
// side effects in one auditable place.
type SubmitFunc func(ctx context.Context, req TxRequest) (string, error)

// WalletSigner submits a transaction for signing; it may reject with a
// classifiable error (see errors.go).
type WalletSigner interface {
	Submit(ctx context.Context, req TxRequest) (string, error)
}

type ReceiptStatus int

const (
	ReceiptUnknown ReceiptStatus = iota
	ReceiptConfirmed
	ReceiptFailed
)

// ChainReader is the read-only view of the chain the orchestrator needs.
type ChainReader interface {
	Allowance(ctx context.Context, owner model.AccountAddr, token string, spender string) (*big.Int, error)
	WaitForReceipt(ctx context.Context, txHash string) error
	TransactionStatus(ctx context.Context, txHash string) (ReceiptStatus, error)
	// BlockTimestamp returns the block's wall-clock unix millis.
	BlockTimestamp(ctx context.Context, block *big.Int) (int64, error)
}

// ConfirmedTransaction is what the crypto client's background chain scan
// reports once a transfer lands on chain. The scan knows nothing about
// localIds; linking happens in the ledger merge by txHash.
type ConfirmedTransaction struct {
	TxHash string
	Block  *big.Int
	Type   model.TxType
	Token  model.Token
	Amount *big.Int
}

// ProofMeta describes a generated zero-knowledge proof. Reported by the
// crypto client once calldata assembly finishes, before submission.
type ProofMeta struct {
	LocalId    string
	Commitment string
	Duration   time.Duration
}

type FeeBreakdown struct {
	RelayerFee  *big.Int
	GasEstimate *big.Int
}

type FeeOracle interface {
	WithdrawFees(ctx context.Context, token model.Token, amount *big.Int) (FeeBreakdown, error)
}

// PrivacySDK is the proof-generating crypto client, a black box that
// assembles transfer transactions. Shield and WithdrawManual drive the
// SubmitFunc continuation; Withdraw (relayed) submits autonomously and
// returns the tx hash.
type PrivacySDK interface {
	Shield(ctx context.Context, token model.Token, amount *big.Int, submit SubmitFunc, account model.AccountAddr) error
	Withdraw(ctx context.Context, token model.Token, amount *big.Int, fees FeeBreakdown, to string, pocketMoney *big.Int) (string, error)
	WithdrawManual(ctx context.Context, token model.Token, amount *big.Int, to string, submit SubmitFunc, account model.AccountAddr) error
	// SpenderAddress is the pool contract that must be allowed to move
	// erc20 tokens before a shield.
	SpenderAddress(chain model.ChainId) string
}

type NotificationSpec struct {
	Title    string
	Subtitle string
	// cross references so the UI can resolve a notification to its
	// activity row: LocalId before confirmation, TxHash after
	LocalId string
	TxHash  string
	Sticky  bool
}

type Notification interface {
	Update(spec NotificationSpec)
	Dismiss()
}

type Notifier interface {
	Show(spec NotificationSpec) Notification
}

// BalanceInvalidator is the write side of the downstream balance caches.
// The orchestrator owns invalidation; reads go through the cache's own
// read-through path.
type BalanceInvalidator interface {
	InvalidateToken(ctx context.Context, account model.AccountAddr, chain model.ChainId, token model.Token)
	InvalidateNative(ctx context.Context, account model.AccountAddr, chain model.ChainId)
}

// ActivityLedger is the slice of the ledger the orchestrator writes
// through.
type ActivityLedger interface {
	GetRecords(ctx context.Context, account model.AccountAddr, chain model.ChainId) []model.TransactionRecord
	Upsert(ctx context.Context, account model.AccountAddr, chain model.ChainId, partial model.TransactionRecord) (model.TransactionRecord, error)
}
