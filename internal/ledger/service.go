package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// StorePort abstracts batch storage for the service.
type StorePort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxStore) error) error
	ActiveBatches(ctx context.Context, productID int64) ([]StockBatch, error)
	CurrentAvailable(ctx context.Context, productID int64) (float64, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// maxConsumeAttempts bounds transparent retries after transaction conflicts.
const maxConsumeAttempts = 3

// Service coordinates the inventory ledger: batch creation from receipts,
// FIFO consumption for issues, and pre-issue stock validation.
type Service struct {
	store StorePort
	audit AuditPort
}

// NewService builds Service.
func NewService(store StorePort, audit AuditPort) *Service {
	return &Service{store: store, audit: audit}
}

// CreateBatches turns the lines of a committed goods receipt into stock
// batches, one per line, dated with the document's business date. Any line
// with non-positive quantity rejects the whole call before a single insert.
func (s *Service) CreateBatches(ctx context.Context, docDate time.Time, lines []ReceiptLine) ([]int64, error) {
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("%w: product %d", ErrInvalidQuantity, line.ProductID)
		}
	}
	ids := make([]int64, 0, len(lines))
	err := s.store.WithTx(ctx, func(ctx context.Context, tx TxStore) error {
		for _, line := range lines {
			id, err := tx.InsertBatch(ctx, StockBatch{
				ProductID:    line.ProductID,
				Quantity:     line.Quantity,
				ReceivedDate: docDate,
				Cost:         line.Price,
			})
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			Action:   "ledger:receipt",
			Entity:   "stock_batch",
			EntityID: fmt.Sprintf("%d batches", len(ids)),
			Meta:     map[string]any{"doc_date": docDate.Format("2006-01-02"), "lines": len(lines)},
		})
	}
	return ids, nil
}

// Validate pre-checks a prospective issue document against current stock.
// Read-only: each line is compared against the sum of active batch
// quantities for its product, and every uncovered line yields a Shortage.
func (s *Service) Validate(ctx context.Context, lines []IssueLine) ([]Shortage, error) {
	shortages := []Shortage{}
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("%w: product %d", ErrInvalidQuantity, line.ProductID)
		}
		available, err := s.store.CurrentAvailable(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		if available+qtyEpsilon < line.Quantity {
			shortages = append(shortages, Shortage{
				ProductID: line.ProductID,
				Required:  line.Quantity,
				Available: available,
				Shortage:  line.Quantity - available,
			})
		}
	}
	return shortages, nil
}

// errShortfall aborts a consuming transaction so the partial decrements
// roll back; it never escapes the service.
var errShortfall = errors.New("ledger: shortfall, rolling back")

// Consume satisfies a required quantity by depleting the product's oldest
// batches first. Either the full requirement is consumed and committed, or
// nothing is: an uncoverable requirement rolls back and reports the
// shortfall. Conflicting concurrent updates retry from a fresh read.
func (s *Service) Consume(ctx context.Context, productID int64, required float64) (Consumed, error) {
	if required <= 0 {
		return Consumed{Fulfilled: true}, nil
	}
	var result Consumed
	err := s.withRetry(ctx, func(ctx context.Context, tx TxStore) error {
		batches, err := tx.ActiveBatchesForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		remaining, decrements := walkFIFO(batches, required)
		if remaining > qtyEpsilon {
			result = Consumed{Fulfilled: false, Shortfall: remaining}
			return errShortfall
		}
		for _, d := range decrements {
			if err := tx.UpdateBatchQuantity(ctx, d.batchID, d.quantity); err != nil {
				return err
			}
		}
		result = Consumed{Fulfilled: true}
		return nil
	})
	if errors.Is(err, errShortfall) {
		return result, nil
	}
	if err != nil {
		return Consumed{}, err
	}
	return result, nil
}

// PostIssue validates and consumes every line of an issue document inside
// one transaction. Re-validation happens against the same locked reads the
// decrements are computed from, closing the check-then-act gap: two
// documents competing for the same stock serialize, and the loser sees the
// leftovers. Any shortage rejects the whole document and rolls back.
func (s *Service) PostIssue(ctx context.Context, lines []IssueLine) error {
	for _, line := range lines {
		if line.Quantity <= 0 {
			return fmt.Errorf("%w: product %d", ErrInvalidQuantity, line.ProductID)
		}
	}
	var insufficient *InsufficientStockError
	err := s.withRetry(ctx, func(ctx context.Context, tx TxStore) error {
		insufficient = nil
		loaded := map[int64][]StockBatch{}
		dirty := map[int64]float64{}
		shortages := []Shortage{}
		for _, line := range lines {
			batches, ok := loaded[line.ProductID]
			if !ok {
				var err error
				batches, err = tx.ActiveBatchesForUpdate(ctx, line.ProductID)
				if err != nil {
					return err
				}
			}
			available := 0.0
			for _, b := range batches {
				available += b.Quantity
			}
			if available+qtyEpsilon < line.Quantity {
				shortages = append(shortages, Shortage{
					ProductID: line.ProductID,
					Required:  line.Quantity,
					Available: available,
					Shortage:  line.Quantity - available,
				})
				loaded[line.ProductID] = batches
				continue
			}
			remaining := line.Quantity
			for i := range batches {
				if remaining <= qtyEpsilon {
					break
				}
				take := batches[i].Quantity
				if take > remaining {
					take = remaining
				}
				if take <= 0 {
					continue
				}
				batches[i].Quantity -= take
				if batches[i].Quantity < qtyEpsilon {
					batches[i].Quantity = 0
				}
				remaining -= take
				dirty[batches[i].ID] = batches[i].Quantity
			}
			loaded[line.ProductID] = batches
		}
		if len(shortages) > 0 {
			insufficient = &InsufficientStockError{Shortages: shortages}
			return errShortfall
		}
		for id, qty := range dirty {
			if err := tx.UpdateBatchQuantity(ctx, id, qty); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, errShortfall) {
		return insufficient
	}
	if err != nil {
		return err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			Action:   "ledger:issue",
			Entity:   "stock_batch",
			EntityID: fmt.Sprintf("%d lines", len(lines)),
			Meta:     map[string]any{"lines": len(lines)},
		})
	}
	return nil
}

type decrement struct {
	batchID  int64
	quantity float64
}

// walkFIFO subtracts required from the ordered batches, driving each batch
// to zero before touching the next. Returns the unmet remainder and the new
// quantities of every touched batch.
func walkFIFO(batches []StockBatch, required float64) (float64, []decrement) {
	remaining := required
	decrements := []decrement{}
	for _, batch := range batches {
		if remaining <= qtyEpsilon {
			break
		}
		take := batch.Quantity
		if take > remaining {
			take = remaining
		}
		if take <= 0 {
			continue
		}
		newQty := batch.Quantity - take
		if newQty < qtyEpsilon {
			newQty = 0
		}
		remaining -= take
		decrements = append(decrements, decrement{batchID: batch.ID, quantity: newQty})
	}
	if remaining < qtyEpsilon {
		remaining = 0
	}
	return remaining, decrements
}

func (s *Service) withRetry(ctx context.Context, fn func(context.Context, TxStore) error) error {
	var err error
	for attempt := 1; attempt <= maxConsumeAttempts; attempt++ {
		err = s.store.WithTx(ctx, fn)
		if err == nil || !errors.Is(err, ErrConflict) {
			return err
		}
	}
	return err
}
