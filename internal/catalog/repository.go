package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerline/ledgerline/internal/shared"
)

const productColumns = `id, business_id, name, sku, category, unit, buying_price, selling_price, tax_percent, current_stock, min_stock_level, description, is_active, created_at, updated_at`

// Repository provides product persistence.
type Repository interface {
	List(ctx context.Context, businessID int64, filters ListFilters) ([]Product, int, error)
	Get(ctx context.Context, businessID, id int64) (*Product, error)
	GetBySKU(ctx context.Context, businessID int64, sku string) (*Product, error)
	Create(ctx context.Context, product Product) (*Product, error)
	Update(ctx context.Context, businessID, id int64, updates map[string]interface{}) error
	Delete(ctx context.Context, businessID, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a pgx-backed Repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context, businessID int64, filters ListFilters) ([]Product, int, error) {
	where := ` WHERE business_id = $1`
	args := []interface{}{businessID}
	argCount := 1

	if filters.Search != "" {
		argCount++
		where += ` AND (name ILIKE $` + strconv.Itoa(argCount) + ` OR sku ILIKE $` + strconv.Itoa(argCount) + `)`
		args = append(args, "%"+filters.Search+"%")
	}
	if filters.Category != "" {
		argCount++
		where += ` AND category = $` + strconv.Itoa(argCount)
		args = append(args, filters.Category)
	}
	if filters.MinPrice != nil {
		argCount++
		where += ` AND selling_price >= $` + strconv.Itoa(argCount)
		args = append(args, *filters.MinPrice)
	}
	if filters.MaxPrice != nil {
		argCount++
		where += ` AND selling_price <= $` + strconv.Itoa(argCount)
		args = append(args, *filters.MaxPrice)
	}
	if filters.LowStock {
		where += ` AND current_stock <= min_stock_level`
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + productColumns + ` FROM products` + where + ` ORDER BY created_at DESC, id DESC`
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

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, p)
	}
	return products, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, businessID, id int64) (*Product, error) {
	row := r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE business_id = $1 AND id = $2`, businessID, id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: product %d", shared.ErrNotFound, id)
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) GetBySKU(ctx context.Context, businessID int64, sku string) (*Product, error) {
	row := r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE business_id = $1 AND sku = $2`, businessID, sku)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: sku %s", shared.ErrNotFound, sku)
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) Create(ctx context.Context, product Product) (*Product, error) {
	now := time.Now()
	err := r.db.QueryRow(ctx, `INSERT INTO products (business_id, name, sku, category, unit, buying_price, selling_price, tax_percent, current_stock, min_stock_level, description, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13) RETURNING id`,
		product.BusinessID, product.Name, product.SKU, product.Category, product.Unit,
		product.BuyingPrice, product.SellingPrice, product.TaxPercent,
		product.CurrentStock, product.MinStockLevel, product.Description, product.IsActive, now,
	).Scan(&product.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, fmt.Errorf("%w: sku %s", shared.ErrDuplicate, product.SKU)
		}
		return nil, err
	}
	product.CreatedAt = now
	product.UpdatedAt = now
	return &product, nil
}

func (r *repository) Update(ctx context.Context, businessID, id int64, updates map[string]interface{}) error {
	// current_stock is deliberately not updatable here; the stock ledger owns it.
	query := `UPDATE products SET updated_at = NOW()`
	args := []interface{}{}
	argCount := 0
	for _, col := range []string{"name", "category", "unit", "buying_price", "selling_price", "tax_percent", "min_stock_level", "description", "is_active"} {
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
		return fmt.Errorf("%w: product %d", shared.ErrNotFound, id)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, businessID, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE business_id = $1 AND id = $2`, businessID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: product %d", shared.ErrNotFound, id)
	}
	return nil
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.BusinessID, &p.Name, &p.SKU, &p.Category, &p.Unit,
		&p.BuyingPrice, &p.SellingPrice, &p.TaxPercent, &p.CurrentStock,
		&p.MinStockLevel, &p.Description, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}
