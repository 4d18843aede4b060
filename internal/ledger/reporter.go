package ledger

import (
	"context"
	"fmt"
	"time"
)

// ReportStore exposes the read queries the reporter needs.
type ReportStore interface {
	ActiveBatches(ctx context.Context, productID int64) ([]StockBatch, error)
	CurrentAvailable(ctx context.Context, productID int64) (float64, error)
	ListAvailable(ctx context.Context) ([]ProductStock, error)
	ReceiptTotalAsOf(ctx context.Context, productID int64, date time.Time) (float64, error)
	IssueTotalAsOf(ctx context.Context, productID int64, date time.Time) (float64, error)
}

// Reporter answers availability queries. Current availability reads the
// batch ledger; as-of-date availability replays receipt and issue document
// totals instead, so the two can disagree when batches were adjusted
// outside the receipt/issue flow.
type Reporter struct {
	store ReportStore
}

// NewReporter builds Reporter.
func NewReporter(store ReportStore) *Reporter {
	return &Reporter{store: store}
}

// CurrentAvailable returns the sum of active batch quantities for a product.
func (r *Reporter) CurrentAvailable(ctx context.Context, productID int64) (float64, error) {
	return r.store.CurrentAvailable(ctx, productID)
}

// Batches returns the product's active batches in FIFO order, alongside the
// summed availability.
func (r *Reporter) Batches(ctx context.Context, productID int64) (float64, []StockBatch, error) {
	batches, err := r.store.ActiveBatches(ctx, productID)
	if err != nil {
		return 0, nil, err
	}
	total := 0.0
	for _, b := range batches {
		total += b.Quantity
	}
	return total, batches, nil
}

// ListAvailable returns current availability for every stocked product.
func (r *Reporter) ListAvailable(ctx context.Context) ([]ProductStock, error) {
	return r.store.ListAvailable(ctx)
}

// AvailableAsOf reconstructs availability on a calendar day from document
// history: receipts dated on or before the day, minus issues dated on or
// before it, floored at zero.
func (r *Reporter) AvailableAsOf(ctx context.Context, productID int64, date time.Time) (float64, error) {
	received, err := r.store.ReceiptTotalAsOf(ctx, productID, date)
	if err != nil {
		return 0, err
	}
	issued, err := r.store.IssueTotalAsOf(ctx, productID, date)
	if err != nil {
		return 0, err
	}
	available := received - issued
	if available < 0 {
		available = 0
	}
	return available, nil
}

// ParseReportDate parses a day-granularity report date.
func ParseReportDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: date required", ErrInvalidDate)
	}
	date, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return date, nil
}
