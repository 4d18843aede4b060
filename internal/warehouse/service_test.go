package warehouse

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/ledger"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type memoryRepo struct {
	receipts map[int64]GoodsReceipt
	issues   map[int64]GoodsIssue
	nextID   int64
	failNext bool
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{receipts: map[int64]GoodsReceipt{}, issues: map[int64]GoodsIssue{}}
}

func (m *memoryRepo) ListReceipts(ctx context.Context) ([]GoodsReceipt, error) {
	out := []GoodsReceipt{}
	for _, d := range m.receipts {
		out = append(out, d)
	}
	return out, nil
}

func (m *memoryRepo) GetReceipt(ctx context.Context, id int64) (GoodsReceipt, error) {
	d, ok := m.receipts[id]
	if !ok {
		return GoodsReceipt{}, shared.ErrNotFound
	}
	return d, nil
}

func (m *memoryRepo) CreateReceipt(ctx context.Context, doc GoodsReceipt) (int64, error) {
	m.nextID++
	doc.ID = m.nextID
	m.receipts[doc.ID] = doc
	return doc.ID, nil
}

func (m *memoryRepo) DeleteReceipt(ctx context.Context, id int64) error {
	delete(m.receipts, id)
	return nil
}

func (m *memoryRepo) ListIssues(ctx context.Context) ([]GoodsIssue, error) {
	out := []GoodsIssue{}
	for _, d := range m.issues {
		out = append(out, d)
	}
	return out, nil
}

func (m *memoryRepo) GetIssue(ctx context.Context, id int64) (GoodsIssue, error) {
	d, ok := m.issues[id]
	if !ok {
		return GoodsIssue{}, shared.ErrNotFound
	}
	return d, nil
}

func (m *memoryRepo) CreateIssue(ctx context.Context, doc GoodsIssue) (int64, error) {
	m.nextID++
	doc.ID = m.nextID
	m.issues[doc.ID] = doc
	return doc.ID, nil
}

func (m *memoryRepo) DeleteIssue(ctx context.Context, id int64) error {
	delete(m.issues, id)
	return nil
}

type fakeLedger struct {
	receiptCalls int
	issueErr     error
	issueCalls   int
	shortages    []ledger.Shortage
}

func (f *fakeLedger) CreateBatches(ctx context.Context, docDate time.Time, lines []ledger.ReceiptLine) ([]int64, error) {
	f.receiptCalls++
	ids := make([]int64, len(lines))
	return ids, nil
}

func (f *fakeLedger) PostIssue(ctx context.Context, lines []ledger.IssueLine) error {
	f.issueCalls++
	return f.issueErr
}

func (f *fakeLedger) Validate(ctx context.Context, lines []ledger.IssueLine) ([]ledger.Shortage, error) {
	return f.shortages, nil
}

type memoryKeys struct {
	keys map[string]string
}

func newMemoryKeys() *memoryKeys {
	return &memoryKeys{keys: map[string]string{}}
}

func (m *memoryKeys) CheckAndInsert(ctx context.Context, key, module string) error {
	if _, ok := m.keys[key]; ok {
		return shared.ErrIdempotencyConflict
	}
	m.keys[key] = module
	return nil
}

func (m *memoryKeys) Delete(ctx context.Context, key string) error {
	delete(m.keys, key)
	return nil
}

func sampleReceipt() GoodsReceipt {
	return GoodsReceipt{
		DocumentHeader: DocumentHeader{
			Number:         "GR-0042",
			Date:           time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			CounterpartyID: 1,
			Warehouse:      "main",
		},
		Items: []DocumentItem{{ProductID: 1, Quantity: 100, Price: 10}},
	}
}

func sampleIssue() GoodsIssue {
	return GoodsIssue{
		DocumentHeader: DocumentHeader{
			Number:         "GI-0007",
			Date:           time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
			CounterpartyID: 2,
			Warehouse:      "main",
		},
		Items: []DocumentItem{{ProductID: 1, Quantity: 30, Price: 14}},
	}
}

func newTestService(repo *memoryRepo, lg *fakeLedger, keys *memoryKeys) *Service {
	return NewService(slog.Default(), repo, lg, keys, nil)
}

func TestPostReceiptFeedsLedger(t *testing.T) {
	repo := newMemoryRepo()
	lg := &fakeLedger{}
	svc := newTestService(repo, lg, newMemoryKeys())

	created, err := svc.PostReceipt(context.Background(), sampleReceipt(), "")
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.Equal(t, 1, lg.receiptCalls)
	require.Len(t, repo.receipts, 1)
}

func TestPostReceiptRequiresNumber(t *testing.T) {
	svc := newTestService(newMemoryRepo(), &fakeLedger{}, newMemoryKeys())

	doc := sampleReceipt()
	doc.Number = " "
	_, err := svc.PostReceipt(context.Background(), doc, "")
	require.ErrorIs(t, err, ErrMissingNumber)
}

func TestPostReceiptIdempotent(t *testing.T) {
	repo := newMemoryRepo()
	lg := &fakeLedger{}
	svc := newTestService(repo, lg, newMemoryKeys())
	ctx := context.Background()

	_, err := svc.PostReceipt(ctx, sampleReceipt(), "")
	require.NoError(t, err)

	_, err = svc.PostReceipt(ctx, sampleReceipt(), "")
	require.ErrorIs(t, err, shared.ErrIdempotencyConflict)
	require.Equal(t, 1, lg.receiptCalls)
	require.Len(t, repo.receipts, 1)
}

func TestPostIssueShortageRemovesDocument(t *testing.T) {
	repo := newMemoryRepo()
	keys := newMemoryKeys()
	lg := &fakeLedger{issueErr: &ledger.InsufficientStockError{
		Shortages: []ledger.Shortage{{ProductID: 1, Required: 30, Available: 10, Shortage: 20}},
	}}
	svc := newTestService(repo, lg, keys)

	_, err := svc.PostIssue(context.Background(), sampleIssue(), "")
	require.ErrorIs(t, err, ledger.ErrInsufficientStock)

	var insufficient *ledger.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.Len(t, insufficient.Shortages, 1)

	// Rejected document leaves no trace: the doc is gone and the key is
	// free for a retry after restocking.
	require.Empty(t, repo.issues)
	require.Empty(t, keys.keys)
}

func TestPostIssueSuccess(t *testing.T) {
	repo := newMemoryRepo()
	lg := &fakeLedger{}
	svc := newTestService(repo, lg, newMemoryKeys())

	created, err := svc.PostIssue(context.Background(), sampleIssue(), "client-key-1")
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.Equal(t, 1, lg.issueCalls)
}

func TestValidatePassesThroughShortages(t *testing.T) {
	lg := &fakeLedger{shortages: []ledger.Shortage{{ProductID: 7, Required: 5, Available: 2, Shortage: 3}}}
	svc := newTestService(newMemoryRepo(), lg, newMemoryKeys())

	shortages, err := svc.Validate(context.Background(), []ItemForm{{ProductID: 7, Quantity: 5}})
	require.NoError(t, err)
	require.Len(t, shortages, 1)
	require.InDelta(t, 3.0, shortages[0].Shortage, 1e-9)
}

func TestPostingKeyDerivation(t *testing.T) {
	require.Equal(t, "client-key", postingKey("client-key", moduleReceipt, "GR-1"))

	derived := postingKey("", moduleReceipt, "GR-1")
	require.Equal(t, derived, postingKey("", moduleReceipt, "GR-1"))
	require.NotEqual(t, derived, postingKey("", moduleIssue, "GR-1"))
}
