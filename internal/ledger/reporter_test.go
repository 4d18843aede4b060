package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type docLine struct {
	productID int64
	quantity  float64
	docDate   time.Time
}

type memoryReportStore struct {
	batches  []StockBatch
	receipts []docLine
	issues   []docLine
}

func (m *memoryReportStore) ActiveBatches(ctx context.Context, productID int64) ([]StockBatch, error) {
	out := []StockBatch{}
	for _, b := range m.batches {
		if b.ProductID == productID && b.Quantity > 0 {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memoryReportStore) CurrentAvailable(ctx context.Context, productID int64) (float64, error) {
	total := 0.0
	for _, b := range m.batches {
		if b.ProductID == productID && b.Quantity > 0 {
			total += b.Quantity
		}
	}
	return total, nil
}

func (m *memoryReportStore) ListAvailable(ctx context.Context) ([]ProductStock, error) {
	totals := map[int64]float64{}
	order := []int64{}
	for _, b := range m.batches {
		if b.Quantity <= 0 {
			continue
		}
		if _, ok := totals[b.ProductID]; !ok {
			order = append(order, b.ProductID)
		}
		totals[b.ProductID] += b.Quantity
	}
	out := make([]ProductStock, 0, len(order))
	for _, id := range order {
		out = append(out, ProductStock{ProductID: id, Available: totals[id]})
	}
	return out, nil
}

func sumAsOf(lines []docLine, productID int64, date time.Time) float64 {
	total := 0.0
	for _, l := range lines {
		if l.productID == productID && !l.docDate.After(date) {
			total += l.quantity
		}
	}
	return total
}

func (m *memoryReportStore) ReceiptTotalAsOf(ctx context.Context, productID int64, date time.Time) (float64, error) {
	return sumAsOf(m.receipts, productID, date), nil
}

func (m *memoryReportStore) IssueTotalAsOf(ctx context.Context, productID int64, date time.Time) (float64, error) {
	return sumAsOf(m.issues, productID, date), nil
}

func TestReporterBatches(t *testing.T) {
	store := &memoryReportStore{batches: []StockBatch{
		{ID: 1, ProductID: 1, Quantity: 5, ReceivedDate: day(1), Cost: 10},
		{ID: 2, ProductID: 1, Quantity: 0, ReceivedDate: day(2), Cost: 11},
		{ID: 3, ProductID: 1, Quantity: 7, ReceivedDate: day(3), Cost: 12},
		{ID: 4, ProductID: 2, Quantity: 9, ReceivedDate: day(1), Cost: 4},
	}}
	rep := NewReporter(store)

	total, batches, err := rep.Batches(context.Background(), 1)
	require.NoError(t, err)
	require.InDelta(t, 12.0, total, 1e-9)
	require.Len(t, batches, 2)
	require.Equal(t, int64(1), batches[0].ID)
	require.Equal(t, int64(3), batches[1].ID)
}

func TestReporterListAvailable(t *testing.T) {
	store := &memoryReportStore{batches: []StockBatch{
		{ID: 1, ProductID: 1, Quantity: 5, ReceivedDate: day(1)},
		{ID: 2, ProductID: 2, Quantity: 3, ReceivedDate: day(1)},
		{ID: 3, ProductID: 1, Quantity: 2, ReceivedDate: day(2)},
		{ID: 4, ProductID: 3, Quantity: 0, ReceivedDate: day(2)},
	}}
	rep := NewReporter(store)

	list, err := rep.ListAvailable(context.Background())
	require.NoError(t, err)
	require.Equal(t, []ProductStock{
		{ProductID: 1, Available: 7},
		{ProductID: 2, Available: 3},
	}, list)
}

func TestReporterAvailableAsOf(t *testing.T) {
	store := &memoryReportStore{
		receipts: []docLine{
			{productID: 1, quantity: 100, docDate: day(1)},
			{productID: 1, quantity: 50, docDate: day(5)},
		},
		issues: []docLine{
			{productID: 1, quantity: 30, docDate: day(3)},
		},
	}
	rep := NewReporter(store)
	ctx := context.Background()

	got, err := rep.AvailableAsOf(ctx, 1, day(1))
	require.NoError(t, err)
	require.InDelta(t, 100.0, got, 1e-9)

	got, err = rep.AvailableAsOf(ctx, 1, day(4))
	require.NoError(t, err)
	require.InDelta(t, 70.0, got, 1e-9)

	got, err = rep.AvailableAsOf(ctx, 1, day(5))
	require.NoError(t, err)
	require.InDelta(t, 120.0, got, 1e-9)

	// Before any document the history is empty.
	got, err = rep.AvailableAsOf(ctx, 2, day(9))
	require.NoError(t, err)
	require.Zero(t, got)
}

func TestReporterAvailableAsOfFloorsAtZero(t *testing.T) {
	store := &memoryReportStore{
		receipts: []docLine{{productID: 1, quantity: 10, docDate: day(1)}},
		issues:   []docLine{{productID: 1, quantity: 25, docDate: day(2)}},
	}
	rep := NewReporter(store)

	got, err := rep.AvailableAsOf(context.Background(), 1, day(2))
	require.NoError(t, err)
	require.Zero(t, got)
}

func TestParseReportDate(t *testing.T) {
	date, err := ParseReportDate("2024-03-05")
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC), date)

	_, err = ParseReportDate("")
	require.ErrorIs(t, err, ErrInvalidDate)

	_, err = ParseReportDate("05.03.2024")
	require.ErrorIs(t, err, ErrInvalidDate)
}
