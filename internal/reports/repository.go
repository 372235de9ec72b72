package reports

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repository runs the read-only aggregate queries. It never mutates
// core state.
type Repository interface {
	SalesSummary(ctx context.Context, businessID int64, from, to time.Time) (SalesSummary, error)
	InventoryValue(ctx context.Context, businessID int64) (InventoryValue, error)
	Bestsellers(ctx context.Context, businessID int64, from, to time.Time, limit int) ([]Bestseller, error)
	TopCustomers(ctx context.Context, businessID int64, limit int) ([]TopCustomer, error)
	Outstanding(ctx context.Context, businessID int64, limit int) (OutstandingSummary, error)
	TaxRates(ctx context.Context, businessID int64) (cgst, sgst decimal.Decimal, err error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a pgx-backed Repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) SalesSummary(ctx context.Context, businessID int64, from, to time.Time) (SalesSummary, error) {
	summary := SalesSummary{From: from, To: to}
	err := r.db.QueryRow(ctx, `
SELECT COUNT(*), COALESCE(SUM(grand_total), 0), COALESCE(SUM(tax_amount), 0), COALESCE(SUM(discount_amount), 0)
FROM invoices
WHERE business_id = $1 AND created_at >= $2 AND created_at < $3`,
		businessID, from, to,
	).Scan(&summary.InvoiceCount, &summary.Revenue, &summary.Tax, &summary.Discount)
	return summary, err
}

func (r *repository) InventoryValue(ctx context.Context, businessID int64) (InventoryValue, error) {
	var v InventoryValue
	err := r.db.QueryRow(ctx, `
SELECT COUNT(*),
       COALESCE(SUM(current_stock), 0),
       COALESCE(SUM(current_stock * buying_price), 0),
       COALESCE(SUM(current_stock * selling_price), 0),
       COUNT(*) FILTER (WHERE current_stock <= min_stock_level)
FROM products
WHERE business_id = $1 AND is_active`, businessID,
	).Scan(&v.ProductCount, &v.TotalUnits, &v.CostValue, &v.RetailValue, &v.LowStockCount)
	return v, err
}

func (r *repository) Bestsellers(ctx context.Context, businessID int64, from, to time.Time, limit int) ([]Bestseller, error) {
	rows, err := r.db.Query(ctx, `
SELECT l.product_id, l.product_name, SUM(l.quantity), SUM(l.total_amount)
FROM invoice_lines l
JOIN invoices i ON i.id = l.invoice_id
WHERE i.business_id = $1 AND i.created_at >= $2 AND i.created_at < $3
GROUP BY l.product_id, l.product_name
ORDER BY SUM(l.quantity) DESC
LIMIT $4`, businessID, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Bestseller
	for rows.Next() {
		var b Bestseller
		if err := rows.Scan(&b.ProductID, &b.ProductName, &b.QuantitySold, &b.Revenue); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *repository) TopCustomers(ctx context.Context, businessID int64, limit int) ([]TopCustomer, error) {
	return r.customerRows(ctx, `
SELECT id, name, total_purchases, total_outstanding
FROM customers
WHERE business_id = $1
ORDER BY total_purchases DESC
LIMIT $2`, businessID, limit)
}

func (r *repository) Outstanding(ctx context.Context, businessID int64, limit int) (OutstandingSummary, error) {
	var summary OutstandingSummary
	err := r.db.QueryRow(ctx, `
SELECT COALESCE(SUM(total_outstanding), 0) FROM customers WHERE business_id = $1 AND total_outstanding > 0`,
		businessID).Scan(&summary.TotalOutstanding)
	if err != nil {
		return OutstandingSummary{}, err
	}
	summary.Debtors, err = r.customerRows(ctx, `
SELECT id, name, total_purchases, total_outstanding
FROM customers
WHERE business_id = $1 AND total_outstanding > 0
ORDER BY total_outstanding DESC
LIMIT $2`, businessID, limit)
	return summary, err
}

func (r *repository) TaxRates(ctx context.Context, businessID int64) (decimal.Decimal, decimal.Decimal, error) {
	var cgst, sgst decimal.Decimal
	err := r.db.QueryRow(ctx, `SELECT cgst_rate, sgst_rate FROM businesses WHERE id = $1`, businessID).Scan(&cgst, &sgst)
	return cgst, sgst, err
}

func (r *repository) customerRows(ctx context.Context, query string, args ...any) ([]TopCustomer, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TopCustomer
	for rows.Next() {
		var c TopCustomer
		if err := rows.Scan(&c.CustomerID, &c.Name, &c.TotalPurchases, &c.TotalOutstanding); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
