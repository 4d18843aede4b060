package ledger

import (
	"errors"
	"fmt"
	"time"
)

// StockBatch is one lot of product received at one moment, at one unit cost.
// Quantity only ever decreases; a batch with zero quantity is exhausted and
// is skipped by consumption, never deleted.
type StockBatch struct {
	ID           int64
	ProductID    int64
	Quantity     float64
	ReceivedDate time.Time
	Cost         float64
}

// Exhausted reports whether the batch has no remaining quantity.
func (b StockBatch) Exhausted() bool {
	return b.Quantity <= qtyEpsilon
}

// ReceiptLine is one line of an incoming-goods document. Each valid line
// produces exactly one StockBatch.
type ReceiptLine struct {
	ProductID int64
	Quantity  float64
	Price     float64
}

// IssueLine is one line of an outgoing-goods document.
type IssueLine struct {
	ProductID int64
	Quantity  float64
}

// Shortage reports a line whose requested quantity exceeds available stock.
type Shortage struct {
	ProductID int64   `json:"product_id"`
	Required  float64 `json:"required"`
	Available float64 `json:"available"`
	Shortage  float64 `json:"shortage"`
}

// Consumed is the outcome of a FIFO consumption attempt.
type Consumed struct {
	Fulfilled bool
	Shortfall float64
}

// ProductStock summarises current availability for one product.
type ProductStock struct {
	ProductID int64   `json:"product_id"`
	Available float64 `json:"available_quantity"`
}

// qtyEpsilon guards float comparisons on quantities.
const qtyEpsilon = 1e-9

// ErrInvalidQuantity indicates a receipt or issue line with quantity <= 0.
var ErrInvalidQuantity = errors.New("ledger: quantity must be positive")

// ErrConflict indicates a concurrent-update conflict that survived retries.
var ErrConflict = errors.New("ledger: concurrent stock update conflict")

// ErrInvalidDate indicates an unparsable as-of date.
var ErrInvalidDate = errors.New("ledger: invalid date")

// ErrInsufficientStock is matched by InsufficientStockError via errors.Is.
var ErrInsufficientStock = errors.New("ledger: insufficient stock")

// InsufficientStockError rejects an entire issue document and carries the
// per-line shortage report.
type InsufficientStockError struct {
	Shortages []Shortage
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("ledger: insufficient stock for %d line(s)", len(e.Shortages))
}

// Is makes the error match ErrInsufficientStock.
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
