package ledger

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type memoryStore struct {
	mu        sync.Mutex
	batches   []*StockBatch
	nextID    int64
	conflicts int
}

type memoryTx struct {
	store    *memoryStore
	staged   map[int64]float64
	inserted []*StockBatch
}

func newMemoryStore() *memoryStore {
	return &memoryStore{}
}

func (m *memoryStore) WithTx(ctx context.Context, fn func(context.Context, TxStore) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conflicts > 0 {
		m.conflicts--
		return ErrConflict
	}
	tx := &memoryTx{store: m, staged: map[int64]float64{}}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	for _, b := range m.batches {
		if qty, ok := tx.staged[b.ID]; ok {
			b.Quantity = qty
		}
	}
	m.batches = append(m.batches, tx.inserted...)
	return nil
}

func (m *memoryStore) active(productID int64) []StockBatch {
	out := []StockBatch{}
	for _, b := range m.batches {
		if b.ProductID == productID && b.Quantity > 0 {
			out = append(out, *b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].ReceivedDate.Equal(out[j].ReceivedDate) {
			return out[i].ReceivedDate.Before(out[j].ReceivedDate)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m *memoryStore) ActiveBatches(ctx context.Context, productID int64) ([]StockBatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active(productID), nil
}

func (m *memoryStore) CurrentAvailable(ctx context.Context, productID int64) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0.0
	for _, b := range m.active(productID) {
		total += b.Quantity
	}
	return total, nil
}

func (m *memoryStore) batch(id int64) StockBatch {
	for _, b := range m.batches {
		if b.ID == id {
			return *b
		}
	}
	return StockBatch{}
}

func (tx *memoryTx) ActiveBatchesForUpdate(ctx context.Context, productID int64) ([]StockBatch, error) {
	return tx.store.active(productID), nil
}

func (tx *memoryTx) InsertBatch(ctx context.Context, batch StockBatch) (int64, error) {
	tx.store.nextID++
	batch.ID = tx.store.nextID
	tx.inserted = append(tx.inserted, &batch)
	return batch.ID, nil
}

func (tx *memoryTx) UpdateBatchQuantity(ctx context.Context, batchID int64, quantity float64) error {
	tx.staged[batchID] = quantity
	return nil
}

func day(d int) time.Time {
	return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC)
}

func receive(t *testing.T, svc *Service, productID int64, qty, price float64, docDate time.Time) int64 {
	t.Helper()
	ids, err := svc.CreateBatches(context.Background(), docDate, []ReceiptLine{{ProductID: productID, Quantity: qty, Price: price}})
	require.NoError(t, err)
	require.Len(t, ids, 1)
	return ids[0]
}

func TestCreateBatchesRejectsNonPositiveQuantity(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	_, err := svc.CreateBatches(ctx, day(1), []ReceiptLine{
		{ProductID: 1, Quantity: 10, Price: 5},
		{ProductID: 2, Quantity: 0, Price: 5},
	})
	require.ErrorIs(t, err, ErrInvalidQuantity)
	require.Empty(t, store.batches)
}

func TestConsumeConservation(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	receive(t, svc, 1, 40, 10, day(1))
	receive(t, svc, 1, 60, 11, day(2))

	result, err := svc.Consume(ctx, 1, 55)
	require.NoError(t, err)
	require.True(t, result.Fulfilled)

	available, err := store.CurrentAvailable(ctx, 1)
	require.NoError(t, err)
	require.InDelta(t, 45.0, available, 1e-9)
}

func TestConsumeFIFOOrder(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	b1 := receive(t, svc, 1, 5, 10, day(1))
	b2 := receive(t, svc, 1, 5, 12, day(2))

	result, err := svc.Consume(ctx, 1, 7)
	require.NoError(t, err)
	require.True(t, result.Fulfilled)

	require.InDelta(t, 0.0, store.batch(b1).Quantity, 1e-9)
	require.InDelta(t, 3.0, store.batch(b2).Quantity, 1e-9)
}

func TestConsumeSameDateTieBreakByID(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	b1 := receive(t, svc, 1, 4, 10, day(3))
	b2 := receive(t, svc, 1, 4, 10, day(3))

	result, err := svc.Consume(ctx, 1, 5)
	require.NoError(t, err)
	require.True(t, result.Fulfilled)

	require.InDelta(t, 0.0, store.batch(b1).Quantity, 1e-9)
	require.InDelta(t, 3.0, store.batch(b2).Quantity, 1e-9)
}

func TestConsumeShortfallRollsBack(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	b1 := receive(t, svc, 1, 5, 10, day(1))
	b2 := receive(t, svc, 1, 5, 12, day(2))

	result, err := svc.Consume(ctx, 1, 12)
	require.NoError(t, err)
	require.False(t, result.Fulfilled)
	require.InDelta(t, 2.0, result.Shortfall, 1e-9)

	require.InDelta(t, 5.0, store.batch(b1).Quantity, 1e-9)
	require.InDelta(t, 5.0, store.batch(b2).Quantity, 1e-9)
}

func TestConsumeNonPositiveIsNoop(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)

	result, err := svc.Consume(context.Background(), 1, 0)
	require.NoError(t, err)
	require.True(t, result.Fulfilled)
	require.Zero(t, result.Shortfall)
}

func TestConsumeScenarioTwoBatches(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	b1 := receive(t, svc, 7, 100, 10, day(1))
	b2 := receive(t, svc, 7, 50, 12, day(5))

	result, err := svc.Consume(ctx, 7, 120)
	require.NoError(t, err)
	require.True(t, result.Fulfilled)

	require.InDelta(t, 0.0, store.batch(b1).Quantity, 1e-9)
	require.InDelta(t, 30.0, store.batch(b2).Quantity, 1e-9)

	available, err := store.CurrentAvailable(ctx, 7)
	require.NoError(t, err)
	require.InDelta(t, 30.0, available, 1e-9)
}

func TestConsumeRetriesOnConflict(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	receive(t, svc, 1, 10, 10, day(1))

	store.conflicts = 2
	result, err := svc.Consume(ctx, 1, 6)
	require.NoError(t, err)
	require.True(t, result.Fulfilled)

	store.conflicts = maxConsumeAttempts
	_, err = svc.Consume(ctx, 1, 1)
	require.ErrorIs(t, err, ErrConflict)
}

func TestValidateReportsShortages(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	receive(t, svc, 1, 6, 10, day(1))

	shortages, err := svc.Validate(ctx, []IssueLine{{ProductID: 1, Quantity: 10}})
	require.NoError(t, err)
	require.Len(t, shortages, 1)
	require.Equal(t, int64(1), shortages[0].ProductID)
	require.InDelta(t, 10.0, shortages[0].Required, 1e-9)
	require.InDelta(t, 6.0, shortages[0].Available, 1e-9)
	require.InDelta(t, 4.0, shortages[0].Shortage, 1e-9)

	// No intervening consumption: a second validation is identical.
	again, err := svc.Validate(ctx, []IssueLine{{ProductID: 1, Quantity: 10}})
	require.NoError(t, err)
	require.Equal(t, shortages, again)

	covered, err := svc.Validate(ctx, []IssueLine{{ProductID: 1, Quantity: 6}})
	require.NoError(t, err)
	require.Empty(t, covered)
}

func TestValidateUnknownProduct(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	available, err := store.CurrentAvailable(ctx, 99)
	require.NoError(t, err)
	require.Zero(t, available)

	shortages, err := svc.Validate(ctx, []IssueLine{{ProductID: 99, Quantity: 1}})
	require.NoError(t, err)
	require.Len(t, shortages, 1)
	require.InDelta(t, 1.0, shortages[0].Required, 1e-9)
	require.InDelta(t, 0.0, shortages[0].Available, 1e-9)
	require.InDelta(t, 1.0, shortages[0].Shortage, 1e-9)
}

func TestPostIssueConsumesAllLines(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	receive(t, svc, 1, 10, 10, day(1))
	receive(t, svc, 2, 20, 15, day(1))

	err := svc.PostIssue(ctx, []IssueLine{
		{ProductID: 1, Quantity: 4},
		{ProductID: 2, Quantity: 20},
	})
	require.NoError(t, err)

	available, err := store.CurrentAvailable(ctx, 1)
	require.NoError(t, err)
	require.InDelta(t, 6.0, available, 1e-9)

	available, err = store.CurrentAvailable(ctx, 2)
	require.NoError(t, err)
	require.Zero(t, available)
}

func TestPostIssueRejectsWholeDocumentOnShortage(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	receive(t, svc, 1, 10, 10, day(1))
	receive(t, svc, 2, 3, 15, day(1))

	err := svc.PostIssue(ctx, []IssueLine{
		{ProductID: 1, Quantity: 4},
		{ProductID: 2, Quantity: 5},
	})
	require.ErrorIs(t, err, ErrInsufficientStock)

	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.Len(t, insufficient.Shortages, 1)
	require.Equal(t, int64(2), insufficient.Shortages[0].ProductID)
	require.InDelta(t, 2.0, insufficient.Shortages[0].Shortage, 1e-9)

	// Nothing consumed, including the coverable line.
	available, err := store.CurrentAvailable(ctx, 1)
	require.NoError(t, err)
	require.InDelta(t, 10.0, available, 1e-9)
}

func TestPostIssueSequentialLinesSameProduct(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	receive(t, svc, 1, 10, 10, day(1))

	// Second line sees what the first left behind, not the original stock.
	err := svc.PostIssue(ctx, []IssueLine{
		{ProductID: 1, Quantity: 6},
		{ProductID: 1, Quantity: 6},
	})
	require.ErrorIs(t, err, ErrInsufficientStock)

	available, err := store.CurrentAvailable(ctx, 1)
	require.NoError(t, err)
	require.InDelta(t, 10.0, available, 1e-9)
}

func TestConcurrentConsumeNeverOversells(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	receive(t, svc, 1, 100, 10, day(1))

	results := make([]Consumed, 2)
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.Consume(ctx, 1, 60)
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	fulfilled := 0
	for _, r := range results {
		if r.Fulfilled {
			fulfilled++
		} else {
			require.InDelta(t, 20.0, r.Shortfall, 1e-9)
		}
	}
	require.Equal(t, 1, fulfilled)

	available, err := store.CurrentAvailable(ctx, 1)
	require.NoError(t, err)
	require.InDelta(t, 40.0, available, 1e-9)
}

func TestValidateRejectsNonPositiveQuantity(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	receive(t, svc, 1, 10, 5, day(1))

	_, err := svc.Validate(ctx, []IssueLine{
		{ProductID: 1, Quantity: 4},
		{ProductID: 2, Quantity: -1},
	})
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestPostIssueRejectsNonPositiveQuantity(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	id := receive(t, svc, 1, 10, 5, day(1))

	err := svc.PostIssue(ctx, []IssueLine{
		{ProductID: 1, Quantity: 4},
		{ProductID: 1, Quantity: 0},
	})
	require.ErrorIs(t, err, ErrInvalidQuantity)
	require.InDelta(t, 10.0, store.batch(id).Quantity, 1e-9)
}

type recordingAudit struct {
	logs []shared.AuditLog
}

func (r *recordingAudit) Record(ctx context.Context, log shared.AuditLog) error {
	r.logs = append(r.logs, log)
	return nil
}

func TestPostingsRecordAuditEntries(t *testing.T) {
	store := newMemoryStore()
	audit := &recordingAudit{}
	svc := NewService(store, audit)
	ctx := context.Background()

	_, err := svc.CreateBatches(ctx, day(1), []ReceiptLine{
		{ProductID: 1, Quantity: 10, Price: 5},
		{ProductID: 2, Quantity: 20, Price: 7},
	})
	require.NoError(t, err)

	err = svc.PostIssue(ctx, []IssueLine{{ProductID: 1, Quantity: 4}})
	require.NoError(t, err)

	require.Len(t, audit.logs, 2)
	require.Equal(t, "ledger:receipt", audit.logs[0].Action)
	require.Equal(t, "stock_batch", audit.logs[0].Entity)
	require.Equal(t, "2 batches", audit.logs[0].EntityID)
	require.Equal(t, "ledger:issue", audit.logs[1].Action)
	require.Equal(t, "1 lines", audit.logs[1].EntityID)
}
