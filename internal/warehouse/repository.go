package warehouse

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type Repository interface {
	ListReceipts(ctx context.Context) ([]GoodsReceipt, error)
	GetReceipt(ctx context.Context, id int64) (GoodsReceipt, error)
	CreateReceipt(ctx context.Context, doc GoodsReceipt) (int64, error)
	DeleteReceipt(ctx context.Context, id int64) error

	ListIssues(ctx context.Context) ([]GoodsIssue, error)
	GetIssue(ctx context.Context, id int64) (GoodsIssue, error)
	CreateIssue(ctx context.Context, doc GoodsIssue) (int64, error)
	DeleteIssue(ctx context.Context, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const headerColumns = `d.id, d.number, d.date, d.counterparty_id, c.name, d.contract, d.warehouse, d.organization, d.operation_type, d.responsible, d.comment, d.pricing_note, d.created_at`

func (r *repository) ListReceipts(ctx context.Context) ([]GoodsReceipt, error) {
	headers, err := r.listHeaders(ctx, "goods_receipts")
	if err != nil {
		return nil, err
	}
	docs := make([]GoodsReceipt, 0, len(headers))
	for _, h := range headers {
		items, err := r.listItems(ctx, "goods_receipt_items", "receipt_id", h.ID)
		if err != nil {
			return nil, err
		}
		docs = append(docs, GoodsReceipt{DocumentHeader: h, Items: items})
	}
	return docs, nil
}

func (r *repository) GetReceipt(ctx context.Context, id int64) (GoodsReceipt, error) {
	h, err := r.getHeader(ctx, "goods_receipts", id)
	if err != nil {
		return GoodsReceipt{}, err
	}
	items, err := r.listItems(ctx, "goods_receipt_items", "receipt_id", id)
	if err != nil {
		return GoodsReceipt{}, err
	}
	return GoodsReceipt{DocumentHeader: h, Items: items}, nil
}

func (r *repository) CreateReceipt(ctx context.Context, doc GoodsReceipt) (int64, error) {
	return r.createDocument(ctx, "goods_receipts", "goods_receipt_items", "receipt_id", doc.DocumentHeader, doc.Items)
}

func (r *repository) DeleteReceipt(ctx context.Context, id int64) error {
	return r.deleteDocument(ctx, "goods_receipts", "goods_receipt_items", "receipt_id", id)
}

func (r *repository) ListIssues(ctx context.Context) ([]GoodsIssue, error) {
	headers, err := r.listHeaders(ctx, "goods_issues")
	if err != nil {
		return nil, err
	}
	docs := make([]GoodsIssue, 0, len(headers))
	for _, h := range headers {
		items, err := r.listItems(ctx, "goods_issue_items", "issue_id", h.ID)
		if err != nil {
			return nil, err
		}
		docs = append(docs, GoodsIssue{DocumentHeader: h, Items: items})
	}
	return docs, nil
}

func (r *repository) GetIssue(ctx context.Context, id int64) (GoodsIssue, error) {
	h, err := r.getHeader(ctx, "goods_issues", id)
	if err != nil {
		return GoodsIssue{}, err
	}
	items, err := r.listItems(ctx, "goods_issue_items", "issue_id", id)
	if err != nil {
		return GoodsIssue{}, err
	}
	return GoodsIssue{DocumentHeader: h, Items: items}, nil
}

func (r *repository) CreateIssue(ctx context.Context, doc GoodsIssue) (int64, error) {
	return r.createDocument(ctx, "goods_issues", "goods_issue_items", "issue_id", doc.DocumentHeader, doc.Items)
}

func (r *repository) DeleteIssue(ctx context.Context, id int64) error {
	return r.deleteDocument(ctx, "goods_issues", "goods_issue_items", "issue_id", id)
}

func (r *repository) listHeaders(ctx context.Context, table string) ([]DocumentHeader, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+headerColumns+` FROM `+table+` d JOIN customers c ON c.id = d.counterparty_id ORDER BY d.date DESC, d.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var headers []DocumentHeader
	for rows.Next() {
		h, err := scanHeader(rows)
		if err != nil {
			return nil, err
		}
		headers = append(headers, h)
	}
	return headers, rows.Err()
}

func (r *repository) getHeader(ctx context.Context, table string, id int64) (DocumentHeader, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+headerColumns+` FROM `+table+` d JOIN customers c ON c.id = d.counterparty_id WHERE d.id = $1`, id)
	h, err := scanHeader(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return DocumentHeader{}, shared.ErrNotFound
	}
	return h, err
}

func (r *repository) listItems(ctx context.Context, table, fk string, docID int64) ([]DocumentItem, error) {
	rows, err := r.db.Query(ctx,
		`SELECT i.id, i.product_id, p.name, i.quantity, i.price FROM `+table+` i JOIN products p ON p.id = i.product_id WHERE i.`+fk+` = $1 ORDER BY i.id`, docID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []DocumentItem{}
	for rows.Next() {
		var item DocumentItem
		if err := rows.Scan(&item.ID, &item.ProductID, &item.Product, &item.Quantity, &item.Price); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *repository) createDocument(ctx context.Context, table, itemTable, fk string, h DocumentHeader, items []DocumentItem) (int64, error) {
	var docID int64
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx,
			`INSERT INTO `+table+` (number, date, counterparty_id, contract, warehouse, organization, operation_type, responsible, comment, pricing_note, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW()) RETURNING id`,
			h.Number, h.Date, h.CounterpartyID, h.Contract, h.Warehouse, h.Organization,
			h.OperationType, h.Responsible, h.Comment, h.PricingNote,
		).Scan(&docID); err != nil {
			return err
		}
		for _, item := range items {
			if _, err := tx.Exec(ctx,
				`INSERT INTO `+itemTable+` (`+fk+`, product_id, quantity, price) VALUES ($1, $2, $3, $4)`,
				docID, item.ProductID, item.Quantity, item.Price,
			); err != nil {
				return err
			}
		}
		return nil
	})
	return docID, err
}

func (r *repository) deleteDocument(ctx context.Context, table, itemTable, fk string, id int64) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM `+itemTable+` WHERE `+fk+` = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

func scanHeader(row pgx.Row) (DocumentHeader, error) {
	var h DocumentHeader
	err := row.Scan(&h.ID, &h.Number, &h.Date, &h.CounterpartyID, &h.Counterparty, &h.Contract, &h.Warehouse,
		&h.Organization, &h.OperationType, &h.Responsible, &h.Comment, &h.PricingNote, &h.CreatedAt)
	return h, err
}
