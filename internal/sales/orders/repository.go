package orders

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type Repository interface {
	ListOrders(ctx context.Context) ([]Order, error)
	GetOrder(ctx context.Context, id int64) (Order, error)
	CreateOrder(ctx context.Context, order Order) (int64, error)
	UpdateOrderStatus(ctx context.Context, id int64, status string) error
	DeleteOrder(ctx context.Context, id int64) error

	ListInvoices(ctx context.Context) ([]Invoice, error)
	GetInvoice(ctx context.Context, id int64) (Invoice, error)
	CreateInvoice(ctx context.Context, invoice Invoice) (int64, error)
	DeleteInvoice(ctx context.Context, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

func (r *repository) ListOrders(ctx context.Context) ([]Order, error) {
	rows, err := r.db.Query(ctx,
		`SELECT o.id, o.date, o.customer_id, c.name, o.status, o.created_at, o.updated_at
		   FROM orders o
		   JOIN customers c ON c.id = o.customer_id
		  ORDER BY o.date DESC, o.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	index := map[int64]int{}
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.Date, &o.CustomerID, &o.CustomerName, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		o.Items = []OrderItem{}
		index[o.ID] = len(orders)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	itemRows, err := r.db.Query(ctx,
		`SELECT i.id, i.order_id, i.product_id, p.name, i.quantity, i.price
		   FROM order_items i
		   JOIN products p ON p.id = i.product_id
		  WHERE i.order_id = ANY($1)
		  ORDER BY i.id`, ids)
	if err != nil {
		return nil, err
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var item OrderItem
		if err := itemRows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.Quantity, &item.Price); err != nil {
			return nil, err
		}
		if idx, ok := index[item.OrderID]; ok {
			orders[idx].Items = append(orders[idx].Items, item)
		}
	}
	return orders, itemRows.Err()
}

func (r *repository) GetOrder(ctx context.Context, id int64) (Order, error) {
	var o Order
	err := r.db.QueryRow(ctx,
		`SELECT o.id, o.date, o.customer_id, c.name, o.status, o.created_at, o.updated_at
		   FROM orders o
		   JOIN customers c ON c.id = o.customer_id
		  WHERE o.id = $1`, id).
		Scan(&o.ID, &o.Date, &o.CustomerID, &o.CustomerName, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, shared.ErrNotFound
	}
	if err != nil {
		return Order{}, err
	}

	rows, err := r.db.Query(ctx,
		`SELECT i.id, i.order_id, i.product_id, p.name, i.quantity, i.price
		   FROM order_items i
		   JOIN products p ON p.id = i.product_id
		  WHERE i.order_id = $1
		  ORDER BY i.id`, id)
	if err != nil {
		return Order{}, err
	}
	defer rows.Close()

	o.Items = []OrderItem{}
	for rows.Next() {
		var item OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.Quantity, &item.Price); err != nil {
			return Order{}, err
		}
		o.Items = append(o.Items, item)
	}
	return o, rows.Err()
}

func (r *repository) CreateOrder(ctx context.Context, order Order) (int64, error) {
	var orderID int64
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		now := time.Now()
		if err := tx.QueryRow(ctx,
			`INSERT INTO orders (date, customer_id, status, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $4) RETURNING id`,
			order.Date, order.CustomerID, order.Status, now,
		).Scan(&orderID); err != nil {
			return err
		}
		for _, item := range order.Items {
			if _, err := tx.Exec(ctx,
				`INSERT INTO order_items (order_id, product_id, quantity, price) VALUES ($1, $2, $3, $4)`,
				orderID, item.ProductID, item.Quantity, item.Price,
			); err != nil {
				return err
			}
		}
		return nil
	})
	return orderID, err
}

func (r *repository) UpdateOrderStatus(ctx context.Context, id int64, status string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`, status, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) DeleteOrder(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

func (r *repository) ListInvoices(ctx context.Context) ([]Invoice, error) {
	rows, err := r.db.Query(ctx,
		`SELECT i.id, i.order_id, o.status, i.date, i.total, i.created_at
		   FROM invoices i
		   JOIN orders o ON o.id = i.order_id
		  ORDER BY i.date DESC, i.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []Invoice
	for rows.Next() {
		var inv Invoice
		if err := rows.Scan(&inv.ID, &inv.OrderID, &inv.OrderStatus, &inv.Date, &inv.Total, &inv.CreatedAt); err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

func (r *repository) GetInvoice(ctx context.Context, id int64) (Invoice, error) {
	var inv Invoice
	err := r.db.QueryRow(ctx,
		`SELECT i.id, i.order_id, o.status, i.date, i.total, i.created_at
		   FROM invoices i
		   JOIN orders o ON o.id = i.order_id
		  WHERE i.id = $1`, id).
		Scan(&inv.ID, &inv.OrderID, &inv.OrderStatus, &inv.Date, &inv.Total, &inv.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Invoice{}, shared.ErrNotFound
	}
	return inv, err
}

func (r *repository) CreateInvoice(ctx context.Context, invoice Invoice) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO invoices (order_id, date, total, created_at) VALUES ($1, $2, $3, $4) RETURNING id`,
		invoice.OrderID, invoice.Date, invoice.Total, time.Now(),
	).Scan(&id)
	return id, err
}

func (r *repository) DeleteInvoice(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
