package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists stock batches in PostgreSQL. It is the only component
// allowed to touch batch rows; every mutation goes through WithTx.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxStore exposes transactional batch operations used by the service.
type TxStore interface {
	// ActiveBatchesForUpdate locks and returns the product's unexhausted
	// batches in FIFO order: received date ascending, id as tie-break.
	ActiveBatchesForUpdate(ctx context.Context, productID int64) ([]StockBatch, error)
	InsertBatch(ctx context.Context, batch StockBatch) (int64, error)
	UpdateBatchQuantity(ctx context.Context, batchID int64, quantity float64) error
}

type txStore struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
// Serialization failures surface as ErrConflict so callers can retry the
// whole operation from a fresh read.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxStore) error) error {
	if r == nil {
		return errors.New("ledger: repository not initialised")
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	wrapper := &txStore{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return translateConflict(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return translateConflict(err)
	}
	return nil
}

// translateConflict maps PostgreSQL serialization and deadlock failures to
// ErrConflict, leaving other errors untouched.
func translateConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "40001" || pgErr.Code == "40P01" {
			return fmt.Errorf("%w: %s", ErrConflict, pgErr.Code)
		}
	}
	return err
}

const batchColumns = `id, product_id, quantity, received_date, cost`

func (s *txStore) ActiveBatchesForUpdate(ctx context.Context, productID int64) ([]StockBatch, error) {
	rows, err := s.tx.Query(ctx, `SELECT `+batchColumns+`
FROM stock_batches
WHERE product_id=$1 AND quantity > 0
ORDER BY received_date ASC, id ASC
FOR UPDATE`, productID)
	if err != nil {
		return nil, err
	}
	return scanBatches(rows)
}

func (s *txStore) InsertBatch(ctx context.Context, batch StockBatch) (int64, error) {
	var id int64
	err := s.tx.QueryRow(ctx, `INSERT INTO stock_batches (product_id, quantity, received_date, cost)
VALUES ($1, $2, $3, $4)
RETURNING id`, batch.ProductID, batch.Quantity, batch.ReceivedDate, batch.Cost).Scan(&id)
	return id, err
}

func (s *txStore) UpdateBatchQuantity(ctx context.Context, batchID int64, quantity float64) error {
	_, err := s.tx.Exec(ctx, `UPDATE stock_batches SET quantity=$2 WHERE id=$1`, batchID, quantity)
	return err
}

// ActiveBatches returns unexhausted batches in FIFO order without locking.
// Used for read paths: validation previews and stock detail endpoints.
func (r *Repository) ActiveBatches(ctx context.Context, productID int64) ([]StockBatch, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+batchColumns+`
FROM stock_batches
WHERE product_id=$1 AND quantity > 0
ORDER BY received_date ASC, id ASC`, productID)
	if err != nil {
		return nil, err
	}
	return scanBatches(rows)
}

// CurrentAvailable sums active batch quantities for a product.
func (r *Repository) CurrentAvailable(ctx context.Context, productID int64) (float64, error) {
	var total float64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(quantity), 0)
FROM stock_batches
WHERE product_id=$1 AND quantity > 0`, productID).Scan(&total)
	return total, err
}

// ListAvailable sums active batch quantities for every stocked product.
func (r *Repository) ListAvailable(ctx context.Context) ([]ProductStock, error) {
	rows, err := r.pool.Query(ctx, `SELECT product_id, SUM(quantity)
FROM stock_batches
WHERE quantity > 0
GROUP BY product_id
ORDER BY product_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	stocks := []ProductStock{}
	for rows.Next() {
		var s ProductStock
		if err := rows.Scan(&s.ProductID, &s.Available); err != nil {
			return nil, err
		}
		stocks = append(stocks, s)
	}
	return stocks, rows.Err()
}

// ReceiptTotalAsOf sums receipt-line quantities for a product across goods
// receipt documents dated on or before the given day.
func (r *Repository) ReceiptTotalAsOf(ctx context.Context, productID int64, date time.Time) (float64, error) {
	var total float64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(i.quantity), 0)
FROM goods_receipt_items i
JOIN goods_receipts d ON d.id = i.receipt_id
WHERE i.product_id=$1 AND d.date <= $2`, productID, date).Scan(&total)
	return total, err
}

// IssueTotalAsOf sums issue-line quantities for a product across goods issue
// documents dated on or before the given day.
func (r *Repository) IssueTotalAsOf(ctx context.Context, productID int64, date time.Time) (float64, error) {
	var total float64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(i.quantity), 0)
FROM goods_issue_items i
JOIN goods_issues d ON d.id = i.issue_id
WHERE i.product_id=$1 AND d.date <= $2`, productID, date).Scan(&total)
	return total, err
}

func scanBatches(rows pgx.Rows) ([]StockBatch, error) {
	defer rows.Close()
	batches := []StockBatch{}
	for rows.Next() {
		var b StockBatch
		if err := rows.Scan(&b.ID, &b.ProductID, &b.Quantity, &b.ReceivedDate, &b.Cost); err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}
