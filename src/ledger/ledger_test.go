package ledger

import (
	"math/big"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/veilpay/wallet-core/src/model"
)

var bigIntCmp = cmp.Comparer(func(a, b *big.Int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Cmp(b) == 0
})

func applyAll(partials ...model.TransactionRecord) []model.TransactionRecord {
	var records []model.TransactionRecord
	for _, p := range partials {
		records, _ = ResolveUpsert(records, p)
	}
	return records
}

func TestUpsertLinksOptimisticRecord(t *testing.T) {
	records := applyAll(
		model.TransactionRecord{LocalId: "L", Status: model.TxStatusPending},
		model.TransactionRecord{LocalId: "L", TxHash: "H"},
	)
	if len(records) != 1 {
		t.Fatalf("expected exactly one record after linking, got %d", len(records))
	}
	expected := model.TransactionRecord{LocalId: "L", TxHash: "H", Status: model.TxStatusPending}
	if d := cmp.Diff(expected, records[0], bigIntCmp); d != "" {
		t.Fatalf("wrong linked record: %s", d)
	}
}

func TestUpsertIdempotence(t *testing.T) {
	link := model.TransactionRecord{LocalId: "L", TxHash: "H", Status: model.TxStatusCompleted}
	once := applyAll(
		model.TransactionRecord{LocalId: "L", Status: model.TxStatusPending},
		link,
	)
	twice := applyAll(
		model.TransactionRecord{LocalId: "L", Status: model.TxStatusPending},
		link,
		link,
	)
	if d := cmp.Diff(once, twice, bigIntCmp); d != "" {
		t.Fatalf("re-applying the same partial changed the ledger: %s", d)
	}
}

func TestChainFirstArrival(t *testing.T) {
	// the chain scan reports a txHash before any local record exists
	records := applyAll(
		model.TransactionRecord{TxHash: "H", Amount: big.NewInt(5)},
		model.TransactionRecord{LocalId: "L", TxHash: "H", Status: model.TxStatusPending},
	)
	if len(records) != 1 {
		t.Fatalf("expected merge by shared txHash to keep one record, got %d", len(records))
	}
	r := records[0]
	if r.LocalId != "L" || r.TxHash != "H" || r.Amount.Cmp(big.NewInt(5)) != 0 {
		t.Fatalf("wrong merged record: %+v", r)
	}
}

func TestTwoMatchSteadyState(t *testing.T) {
	// an optimistic local-only record and an independently observed chain
	// record both exist; the linking partial must unify them into one row
	localOnly := model.TransactionRecord{
		LocalId: "L", Status: model.TxStatusPending, Amount: big.NewInt(100),
	}
	chainObserved := model.TransactionRecord{
		TxHash: "H", Block: big.NewInt(7), Status: model.TxStatusCompleted,
	}
	var records []model.TransactionRecord
	records, _ = ResolveUpsert(records, localOnly)
	records, _ = ResolveUpsert(records, chainObserved)
	if len(records) != 2 {
		t.Fatalf("expected two unlinked records, got %d", len(records))
	}

	records, merged := ResolveUpsert(records, model.TransactionRecord{LocalId: "L", TxHash: "H"})
	if len(records) != 1 {
		t.Fatalf("expected linking to collapse to one record, got %d", len(records))
	}
	// chain observation wins over the optimistic record, partial over both
	if merged.Status != model.TxStatusCompleted || merged.Block.Cmp(big.NewInt(7)) != 0 {
		t.Fatalf("chain-observed fields must win over local-only: %+v", merged)
	}
	if merged.Amount.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("local-only fields absent from the others must survive: %+v", merged)
	}
}

func TestUnrelatedRecordsUntouched(t *testing.T) {
	records := applyAll(
		model.TransactionRecord{LocalId: "a", Status: model.TxStatusPending},
		model.TransactionRecord{LocalId: "b", Status: model.TxStatusPending},
		model.TransactionRecord{LocalId: "a", TxHash: "0x1"},
	)
	if len(records) != 2 {
		t.Fatalf("expected the unrelated record to survive, got %d records", len(records))
	}
	mapped := model.RecordArrayToMap(records)
	if _, ok := mapped["b"]; !ok {
		t.Fatal("unrelated record lost by upsert")
	}
	if _, ok := mapped["0x1"]; !ok {
		t.Fatal("matched record not replaced in place")
	}
}

func TestShieldHappyPathSequence(t *testing.T) {
	records := applyAll(
		model.TransactionRecord{
			Type: model.TxTypeDeposit, Token: model.NativeToken(),
			Amount: big.NewInt(100), LocalId: "a", Status: model.TxStatusPending,
		},
		model.TransactionRecord{LocalId: "a", TxHash: "0x1"},
		model.TransactionRecord{
			TxHash: "0x1", Status: model.TxStatusCompleted, CompletedTimestamp: 5000,
		},
	)
	if len(records) != 1 {
		t.Fatalf("expected one ledger row, got %d", len(records))
	}
	expected := model.TransactionRecord{
		Type:               model.TxTypeDeposit,
		Token:              model.NativeToken(),
		Amount:             big.NewInt(100),
		LocalId:            "a",
		TxHash:             "0x1",
		Status:             model.TxStatusCompleted,
		CompletedTimestamp: 5000,
	}
	if d := cmp.Diff(expected, records[0], bigIntCmp); d != "" {
		t.Fatalf("wrong final record: %s", d)
	}
}

func TestFailedBeforeTxHashSequence(t *testing.T) {
	records := applyAll(
		model.TransactionRecord{
			Type: model.TxTypeWithdraw, LocalId: "b",
			Amount: big.NewInt(10), Status: model.TxStatusPending,
		},
		model.TransactionRecord{
			LocalId: "b", Status: model.TxStatusFailed, CompletedTimestamp: 9000,
		},
	)
	if len(records) != 1 {
		t.Fatalf("expected one ledger row, got %d", len(records))
	}
	r := records[0]
	if r.Status != model.TxStatusFailed || r.TxHash != "" || r.CompletedTimestamp != 9000 {
		t.Fatalf("wrong failed record: %+v", r)
	}
}
