package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerline/ledgerline/internal/shared"
)

// Repository persists stock events in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the transactional operations used by the service.
type TxRepository interface {
	GetProductForUpdate(ctx context.Context, businessID, productID int64) (ProductStock, error)
	UpdateProductStock(ctx context.Context, productID, newStock int64) error
	InsertEvent(ctx context.Context, event Event) (int64, error)
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, &txRepo{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// History lists the trail entries for a product, newest first.
func (r *Repository) History(ctx context.Context, businessID, productID int64, limit int) ([]Event, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
SELECT e.id, e.product_id, e.quantity_change, e.previous_stock, e.new_stock, e.reason, e.note, e.created_at
FROM stock_events e
JOIN products p ON p.id = e.product_id
WHERE p.business_id = $1 AND e.product_id = $2
ORDER BY e.id DESC
LIMIT $3`, businessID, productID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.ProductID, &e.QuantityChange, &e.PreviousStock, &e.NewStock, &e.Reason, &e.Note, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// LowStock lists active products at or below their minimum level.
func (r *Repository) LowStock(ctx context.Context, businessID int64) ([]ProductStock, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id, business_id, name, current_stock, min_stock_level
FROM products
WHERE business_id = $1 AND is_active AND current_stock <= min_stock_level
ORDER BY current_stock ASC`, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []ProductStock
	for rows.Next() {
		var p ProductStock
		if err := rows.Scan(&p.ID, &p.BusinessID, &p.Name, &p.CurrentStock, &p.MinStockLevel); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *txRepo) GetProductForUpdate(ctx context.Context, businessID, productID int64) (ProductStock, error) {
	var p ProductStock
	err := r.tx.QueryRow(ctx, `
SELECT id, business_id, name, current_stock, min_stock_level
FROM products
WHERE business_id = $1 AND id = $2
FOR UPDATE`, businessID, productID).Scan(&p.ID, &p.BusinessID, &p.Name, &p.CurrentStock, &p.MinStockLevel)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ProductStock{}, fmt.Errorf("%w: product %d", shared.ErrNotFound, productID)
		}
		return ProductStock{}, err
	}
	return p, nil
}

func (r *txRepo) UpdateProductStock(ctx context.Context, productID, newStock int64) error {
	_, err := r.tx.Exec(ctx, `UPDATE products SET current_stock = $1, updated_at = NOW() WHERE id = $2`, newStock, productID)
	return err
}

func (r *txRepo) InsertEvent(ctx context.Context, event Event) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `
INSERT INTO stock_events (product_id, quantity_change, previous_stock, new_stock, reason, note, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`,
		event.ProductID, event.QuantityChange, event.PreviousStock, event.NewStock,
		event.Reason, event.Note, event.CreatedAt,
	).Scan(&id)
	return id, err
}
