package customers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/masterdata/shared"
)

const customerColumns = `id, name, type, edrpou, ipn, address, city, phone, email, contact_person, bank_name, bank_account, mfo, discount, credit_limit, payment_terms, vat_payer, vat_certificate, notes, is_active, created_at, updated_at`

type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Customer, int, error)
	Get(ctx context.Context, id int64) (Customer, error)
	Create(ctx context.Context, customer Customer) (Customer, error)
	Update(ctx context.Context, id int64, customer Customer) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Customer, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	if filters.Search != "" {
		argCount++
		p := `$` + strconv.Itoa(argCount)
		where += ` AND (name ILIKE ` + p + ` OR edrpou ILIKE ` + p + `)`
		args = append(args, "%"+filters.Search+"%")
	}
	if filters.Type != nil {
		argCount++
		where += ` AND (type = $` + strconv.Itoa(argCount) + ` OR type = 'both')`
		args = append(args, *filters.Type)
	}
	if filters.IsActive != nil {
		argCount++
		where += ` AND is_active = $` + strconv.Itoa(argCount)
		args = append(args, *filters.IsActive)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM customers`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + customerColumns + ` FROM customers` + where + ` ORDER BY name ASC`

	argCount++
	query += ` LIMIT $` + strconv.Itoa(argCount)
	args = append(args, filters.Limit)
	argCount++
	query += ` OFFSET $` + strconv.Itoa(argCount)
	args = append(args, filters.Offset())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, err
		}
		customers = append(customers, c)
	}
	return customers, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Customer, error) {
	row := r.db.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id)
	c, err := scanCustomer(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Customer{}, shared.ErrNotFound
	}
	return c, err
}

func (r *repository) Create(ctx context.Context, customer Customer) (Customer, error) {
	now := time.Now()
	err := r.db.QueryRow(ctx,
		`INSERT INTO customers (name, type, edrpou, ipn, address, city, phone, email, contact_person, bank_name, bank_account, mfo, discount, credit_limit, payment_terms, vat_payer, vat_certificate, notes, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $20) RETURNING id`,
		customer.Name, customer.Type, customer.EDRPOU, customer.IPN, customer.Address, customer.City,
		customer.Phone, customer.Email, customer.ContactPerson, customer.BankName, customer.BankAccount,
		customer.MFO, customer.Discount, customer.CreditLimit, customer.PaymentTerms, customer.VATPayer,
		customer.VATCertificate, customer.Notes, customer.IsActive, now,
	).Scan(&customer.ID)
	if err != nil {
		return Customer{}, translateErr(err)
	}
	customer.CreatedAt = now
	customer.UpdatedAt = now
	return customer, nil
}

func (r *repository) Update(ctx context.Context, id int64, customer Customer) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE customers SET name = $1, type = $2, edrpou = $3, ipn = $4, address = $5, city = $6, phone = $7, email = $8, contact_person = $9, bank_name = $10, bank_account = $11, mfo = $12, discount = $13, credit_limit = $14, payment_terms = $15, vat_payer = $16, vat_certificate = $17, notes = $18, is_active = $19, updated_at = $20 WHERE id = $21`,
		customer.Name, customer.Type, customer.EDRPOU, customer.IPN, customer.Address, customer.City,
		customer.Phone, customer.Email, customer.ContactPerson, customer.BankName, customer.BankAccount,
		customer.MFO, customer.Discount, customer.CreditLimit, customer.PaymentTerms, customer.VATPayer,
		customer.VATCertificate, customer.Notes, customer.IsActive, time.Now(), id,
	)
	if err != nil {
		return translateErr(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return translateErr(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanCustomer(row pgx.Row) (Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.Name, &c.Type, &c.EDRPOU, &c.IPN, &c.Address, &c.City, &c.Phone, &c.Email,
		&c.ContactPerson, &c.BankName, &c.BankAccount, &c.MFO, &c.Discount, &c.CreditLimit, &c.PaymentTerms,
		&c.VATPayer, &c.VATCertificate, &c.Notes, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func translateErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return shared.ErrDuplicate
		case "23503":
			return shared.ErrInUse
		}
	}
	return err
}
