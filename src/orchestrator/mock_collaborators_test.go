package orchestrator

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/veilpay/wallet-core/src/ledger"
	"github.com/veilpay/wallet-core/src/model"
)

// in-memory ActivityLedger reusing the real merge algorithm
type memLedger struct {
	mu      sync.Mutex
	records map[string][]model.TransactionRecord
}

func newMemLedger() *memLedger {
	return &memLedger{records: map[string][]model.TransactionRecord{}}
}

func memKey(account model.AccountAddr, chain model.ChainId) string {
	return fmt.Sprintf("%s/%s", account, chain)
}

func (m *memLedger) GetRecords(ctx context.Context, account model.AccountAddr, chain model.ChainId) []model.TransactionRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.TransactionRecord(nil), m.records[memKey(account, chain)]...)
}

func (m *memLedger) Upsert(ctx context.Context, account model.AccountAddr, chain model.ChainId, partial model.TransactionRecord) (model.TransactionRecord, error) {
	if !partial.IsValid() {
		return model.TransactionRecord{}, errors.New("upsert requires a localId or txHash")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := memKey(account, chain)
	replacement, merged := ledger.ResolveUpsert(m.records[key], partial)
	m.records[key] = replacement
	return merged, nil
}

type mockSigner struct {
	mu     sync.Mutex
	delay  time.Duration
	txs    []string
	errs   []error
	calls  int
	reqs   []TxRequest
}

func (s *mockSigner) Submit(ctx context.Context, req TxRequest) (string, error) {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	s.calls++
	s.reqs = append(s.reqs, req)
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	if err != nil {
		return "", err
	}
	if i < len(s.txs) {
		return s.txs[i], nil
	}
	return fmt.Sprintf("0xtx%d", i), nil
}

type mockChain struct {
	allowance      *big.Int
	allowanceErr   error
	allowanceCalls int

	receiptErr   error
	receiptCalls int

	status    ReceiptStatus
	statusErr error

	blockTs int64
	tsErr   error
}

func (c *mockChain) Allowance(ctx context.Context, owner model.AccountAddr, token string, spender string) (*big.Int, error) {
	c.allowanceCalls++
	return c.allowance, c.allowanceErr
}

func (c *mockChain) WaitForReceipt(ctx context.Context, txHash string) error {
	c.receiptCalls++
	return c.receiptErr
}

func (c *mockChain) TransactionStatus(ctx context.Context, txHash string) (ReceiptStatus, error) {
	return c.status, c.statusErr
}

func (c *mockChain) BlockTimestamp(ctx context.Context, block *big.Int) (int64, error) {
	return c.blockTs, c.tsErr
}

// mockSDK assembles a canned transfer transaction and drives the submit
// continuation the way the real crypto client does, re-raising its error.
type mockSDK struct {
	spender     string
	shieldErr   error
	withdrawTx  string
	withdrawErr error
}

func (s *mockSDK) Shield(ctx context.Context, token model.Token, amount *big.Int, submit SubmitFunc, account model.AccountAddr) error {
	if s.shieldErr != nil {
		return s.shieldErr
	}
	_, err := submit(ctx, TxRequest{To: s.spender, Value: amount})
	return err
}

func (s *mockSDK) Withdraw(ctx context.Context, token model.Token, amount *big.Int, fees FeeBreakdown, to string, pocketMoney *big.Int) (string, error) {
	return s.withdrawTx, s.withdrawErr
}

func (s *mockSDK) WithdrawManual(ctx context.Context, token model.Token, amount *big.Int, to string, submit SubmitFunc, account model.AccountAddr) error {
	_, err := submit(ctx, TxRequest{To: s.spender})
	return err
}

func (s *mockSDK) SpenderAddress(chain model.ChainId) string {
	return s.spender
}

type mockOracle struct {
	fees  FeeBreakdown
	err   error
	calls int
}

func (o *mockOracle) WithdrawFees(ctx context.Context, token model.Token, amount *big.Int) (FeeBreakdown, error) {
	o.calls++
	return o.fees, o.err
}

type mockNote struct {
	mu        sync.Mutex
	spec      NotificationSpec
	updates   []NotificationSpec
	dismissed bool
}

func (n *mockNote) Update(spec NotificationSpec) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.updates = append(n.updates, spec)
}

func (n *mockNote) Dismiss() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.dismissed = true
}

type mockNotifier struct {
	mu    sync.Mutex
	notes []*mockNote
}

func (m *mockNotifier) Show(spec NotificationSpec) Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	note := &mockNote{spec: spec}
	m.notes = append(m.notes, note)
	return note
}

func (m *mockNotifier) titles() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.notes))
	for _, n := range m.notes {
		out = append(out, n.spec.Title)
	}
	return out
}

type mockBalances struct {
	mu          sync.Mutex
	tokenDrops  int
	nativeDrops int
	lastToken   model.Token
}

func (b *mockBalances) InvalidateToken(ctx context.Context, account model.AccountAddr, chain model.ChainId, token model.Token) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokenDrops++
	b.lastToken = token
}

func (b *mockBalances) InvalidateNative(ctx context.Context, account model.AccountAddr, chain model.ChainId) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nativeDrops++
}

type fixture struct {
	o        *Orchestrator
	ledger   *memLedger
	signer   *mockSigner
	chain    *mockChain
	sdk      *mockSDK
	oracle   *mockOracle
	notifier *mockNotifier
	balances *mockBalances
}

func newFixture() *fixture {
	f := &fixture{
		ledger:   newMemLedger(),
		signer:   &mockSigner{},
		chain:    &mockChain{},
		sdk:      &mockSDK{spender: "0x00000000000000000000000000000000deadbeef"},
		oracle:   &mockOracle{fees: FeeBreakdown{RelayerFee: big.NewInt(3)}},
		notifier: &mockNotifier{},
		balances: &mockBalances{},
	}
	o, err := New(Config{
		Account:     "0xacc",
		Chain:       "1",
		Ledger:      f.ledger,
		Signer:      f.signer,
		ChainReader: f.chain,
		SDK:         f.sdk,
		Fees:        f.oracle,
		Notifier:    f.notifier,
		Balances:    f.balances,
	})
	if err != nil {
		panic(err)
	}
	f.o = o
	return f
}

func (f *fixture) singleRecord() (model.TransactionRecord, bool) {
	records := f.ledger.GetRecords(context.Background(), "0xacc", "1")
	if len(records) != 1 {
		return model.TransactionRecord{}, false
	}
	return records[0], true
}
