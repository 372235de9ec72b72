package customers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerline/ledgerline/internal/shared"
)

const customerColumns = `id, business_id, name, phone, email, address, gstin, total_purchases, total_outstanding, payment_status, is_blocked, created_at, updated_at`

// Repository provides customer persistence.
type Repository interface {
	List(ctx context.Context, businessID int64, filters ListFilters) ([]Customer, int, error)
	Get(ctx context.Context, businessID, id int64) (*Customer, error)
	Create(ctx context.Context, customer Customer) (*Customer, error)
	Update(ctx context.Context, businessID, id int64, updates map[string]interface{}) error
	SetBlocked(ctx context.Context, businessID, id int64, blocked bool) error
	Delete(ctx context.Context, businessID, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a pgx-backed Repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context, businessID int64, filters ListFilters) ([]Customer, int, error) {
	where := ` WHERE business_id = $1`
	args := []interface{}{businessID}
	argCount := 1

	if filters.Search != "" {
		argCount++
		where += ` AND (name ILIKE $` + strconv.Itoa(argCount) + ` OR phone ILIKE $` + strconv.Itoa(argCount) + `)`
		args = append(args, "%"+filters.Search+"%")
	}
	if filters.Status != "" {
		argCount++
		where += ` AND payment_status = $` + strconv.Itoa(argCount)
		args = append(args, filters.Status)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM customers`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + customerColumns + ` FROM customers` + where + ` ORDER BY name ASC, id ASC`
	if filters.Limit > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, filters.Limit)
		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		args = append(args, filters.Offset)
	}

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

func (r *repository) Get(ctx context.Context, businessID, id int64) (*Customer, error) {
	row := r.db.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE business_id = $1 AND id = $2`, businessID, id)
	c, err := scanCustomer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: customer %d", shared.ErrNotFound, id)
		}
		return nil, err
	}
	return &c, nil
}

func (r *repository) Create(ctx context.Context, customer Customer) (*Customer, error) {
	now := time.Now()
	err := r.db.QueryRow(ctx, `INSERT INTO customers (business_id, name, phone, email, address, gstin, total_purchases, total_outstanding, payment_status, is_blocked, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11) RETURNING id`,
		customer.BusinessID, customer.Name, customer.Phone, customer.Email, customer.Address, customer.GSTIN,
		customer.TotalPurchases, customer.TotalOutstanding, customer.PaymentStatus, customer.IsBlocked, now,
	).Scan(&customer.ID)
	if err != nil {
		return nil, err
	}
	customer.CreatedAt = now
	customer.UpdatedAt = now
	return &customer, nil
}

func (r *repository) Update(ctx context.Context, businessID, id int64, updates map[string]interface{}) error {
	// Derived billing fields are written by reconciliation only.
	query := `UPDATE customers SET updated_at = NOW()`
	args := []interface{}{}
	argCount := 0
	for _, col := range []string{"name", "phone", "email", "address", "gstin"} {
		if v, ok := updates[col]; ok {
			argCount++
			query += `, ` + col + ` = $` + strconv.Itoa(argCount)
			args = append(args, v)
		}
	}
	argCount++
	query += ` WHERE business_id = $` + strconv.Itoa(argCount)
	args = append(args, businessID)
	argCount++
	query += ` AND id = $` + strconv.Itoa(argCount)
	args = append(args, id)

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: customer %d", shared.ErrNotFound, id)
	}
	return nil
}

func (r *repository) SetBlocked(ctx context.Context, businessID, id int64, blocked bool) error {
	tag, err := r.db.Exec(ctx, `UPDATE customers SET is_blocked = $1, updated_at = NOW() WHERE business_id = $2 AND id = $3`, blocked, businessID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: customer %d", shared.ErrNotFound, id)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, businessID, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM customers WHERE business_id = $1 AND id = $2`, businessID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: customer %d", shared.ErrNotFound, id)
	}
	return nil
}

func scanCustomer(row pgx.Row) (Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.BusinessID, &c.Name, &c.Phone, &c.Email, &c.Address, &c.GSTIN,
		&c.TotalPurchases, &c.TotalOutstanding, &c.PaymentStatus, &c.IsBlocked, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}
