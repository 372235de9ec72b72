package billing

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/ledgerline/ledgerline/internal/customers"
	"github.com/ledgerline/ledgerline/internal/shared"
	"github.com/ledgerline/ledgerline/internal/stock"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const invoiceColumns = `id, business_id, customer_id, invoice_number, subtotal, tax_amount, discount_amount, grand_total, payment_method, payment_status, notes, created_at`

func scanInvoice(row pgx.Row) (Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.BusinessID, &inv.CustomerID, &inv.InvoiceNumber,
		&inv.Subtotal, &inv.TaxAmount, &inv.DiscountAmount, &inv.GrandTotal,
		&inv.PaymentMethod, &inv.PaymentStatus, &inv.Notes, &inv.CreatedAt)
	return inv, err
}

func getInvoice(ctx context.Context, q querier, businessID, invoiceID int64) (*Invoice, error) {
	row := q.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE business_id = $1 AND id = $2`, businessID, invoiceID)
	inv, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: invoice %d", shared.ErrNotFound, invoiceID)
		}
		return nil, err
	}
	lines, err := listLines(ctx, q, invoiceID)
	if err != nil {
		return nil, err
	}
	inv.Lines = lines
	return &inv, nil
}

func listLines(ctx context.Context, q querier, invoiceID int64) ([]InvoiceLine, error) {
	rows, err := q.Query(ctx, `
SELECT id, invoice_id, product_id, product_name, quantity, unit_price, tax_percent, tax_amount, total_amount
FROM invoice_lines
WHERE invoice_id = $1
ORDER BY id ASC`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []InvoiceLine
	for rows.Next() {
		var l InvoiceLine
		if err := rows.Scan(&l.ID, &l.InvoiceID, &l.ProductID, &l.ProductName,
			&l.Quantity, &l.UnitPrice, &l.TaxPercent, &l.TaxAmount, &l.TotalAmount); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func listInvoices(ctx context.Context, q querier, businessID int64, filters ListFilters) ([]Invoice, int, error) {
	where := ` WHERE business_id = $1`
	args := []interface{}{businessID}
	argCount := 1

	if filters.Status != "" {
		argCount++
		where += ` AND payment_status = $` + strconv.Itoa(argCount)
		args = append(args, filters.Status)
	}
	if filters.CustomerID != 0 {
		argCount++
		where += ` AND customer_id = $` + strconv.Itoa(argCount)
		args = append(args, filters.CustomerID)
	}
	if !filters.From.IsZero() {
		argCount++
		where += ` AND created_at >= $` + strconv.Itoa(argCount)
		args = append(args, filters.From)
	}
	if !filters.To.IsZero() {
		argCount++
		where += ` AND created_at < $` + strconv.Itoa(argCount)
		args = append(args, filters.To)
	}

	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM invoices`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + invoiceColumns + ` FROM invoices` + where + ` ORDER BY id DESC`
	if filters.Limit > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, filters.Limit)
		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		args = append(args, filters.Offset)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var invoices []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, total, rows.Err()
}

func listPayments(ctx context.Context, q querier, businessID, invoiceID int64) ([]Payment, error) {
	rows, err := q.Query(ctx, `
SELECT p.id, p.invoice_id, p.amount, p.method, p.reference, p.notes, p.created_at
FROM payments p
JOIN invoices i ON i.id = p.invoice_id
WHERE i.business_id = $1 AND p.invoice_id = $2
ORDER BY p.id ASC`, businessID, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.InvoiceID, &p.Amount, &p.Method, &p.Reference, &p.Notes, &p.CreatedAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (r *txRepo) GetProductForUpdate(ctx context.Context, businessID, productID int64) (Product, error) {
	var p Product
	err := r.tx.QueryRow(ctx, `
SELECT id, business_id, name, current_stock, min_stock_level, selling_price, tax_percent
FROM products
WHERE business_id = $1 AND id = $2
FOR UPDATE`, businessID, productID).Scan(&p.ID, &p.BusinessID, &p.Name, &p.CurrentStock, &p.MinStockLevel, &p.SellingPrice, &p.TaxPercent)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, fmt.Errorf("%w: product %d", shared.ErrNotFound, productID)
		}
		return Product{}, err
	}
	return p, nil
}

func (r *txRepo) UpdateProductStock(ctx context.Context, productID, newStock int64) error {
	_, err := r.tx.Exec(ctx, `UPDATE products SET current_stock = $1, updated_at = NOW() WHERE id = $2`, newStock, productID)
	return err
}

func (r *txRepo) InsertStockEvent(ctx context.Context, event stock.Event) (int64, error) {
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

// NextInvoiceSeq bumps the per-business counter row under a row lock so
// concurrent commits never allocate the same number.
func (r *txRepo) NextInvoiceSeq(ctx context.Context, businessID int64) (int64, error) {
	var seq int64
	err := r.tx.QueryRow(ctx, `
INSERT INTO invoice_sequences (business_id, last_seq)
VALUES ($1, 1)
ON CONFLICT (business_id) DO UPDATE SET last_seq = invoice_sequences.last_seq + 1
RETURNING last_seq`, businessID).Scan(&seq)
	return seq, err
}

func (r *txRepo) InsertInvoice(ctx context.Context, invoice Invoice) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `
INSERT INTO invoices (business_id, customer_id, invoice_number, subtotal, tax_amount, discount_amount, grand_total, payment_method, payment_status, notes, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING id`,
		invoice.BusinessID, invoice.CustomerID, invoice.InvoiceNumber,
		invoice.Subtotal, invoice.TaxAmount, invoice.DiscountAmount, invoice.GrandTotal,
		invoice.PaymentMethod, invoice.PaymentStatus, invoice.Notes, invoice.CreatedAt,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, fmt.Errorf("%w: invoice number %s", shared.ErrDuplicate, invoice.InvoiceNumber)
		}
		return 0, err
	}
	return id, nil
}

func (r *txRepo) InsertInvoiceLines(ctx context.Context, invoiceID int64, lines []InvoiceLine) error {
	for _, line := range lines {
		_, err := r.tx.Exec(ctx, `
INSERT INTO invoice_lines (invoice_id, product_id, product_name, quantity, unit_price, tax_percent, tax_amount, total_amount)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			invoiceID, line.ProductID, line.ProductName, line.Quantity,
			line.UnitPrice, line.TaxPercent, line.TaxAmount, line.TotalAmount)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepo) GetInvoiceForUpdate(ctx context.Context, businessID, invoiceID int64) (Invoice, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE business_id = $1 AND id = $2 FOR UPDATE`, businessID, invoiceID)
	inv, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Invoice{}, fmt.Errorf("%w: invoice %d", shared.ErrNotFound, invoiceID)
		}
		return Invoice{}, err
	}
	return inv, nil
}

func (r *txRepo) ListInvoiceLines(ctx context.Context, invoiceID int64) ([]InvoiceLine, error) {
	return listLines(ctx, r.tx, invoiceID)
}

func (r *txRepo) UpdateInvoiceStatus(ctx context.Context, invoiceID int64, status shared.PaymentStatus) error {
	_, err := r.tx.Exec(ctx, `UPDATE invoices SET payment_status = $1 WHERE id = $2`, status, invoiceID)
	return err
}

func (r *txRepo) DeleteInvoice(ctx context.Context, invoiceID int64) error {
	if _, err := r.tx.Exec(ctx, `DELETE FROM payments WHERE invoice_id = $1`, invoiceID); err != nil {
		return err
	}
	if _, err := r.tx.Exec(ctx, `DELETE FROM invoice_lines WHERE invoice_id = $1`, invoiceID); err != nil {
		return err
	}
	_, err := r.tx.Exec(ctx, `DELETE FROM invoices WHERE id = $1`, invoiceID)
	return err
}

func (r *txRepo) InsertPayment(ctx context.Context, payment Payment) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `
INSERT INTO payments (invoice_id, amount, method, reference, notes, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`,
		payment.InvoiceID, payment.Amount, payment.Method, payment.Reference, payment.Notes, payment.CreatedAt,
	).Scan(&id)
	return id, err
}

func (r *txRepo) SumPayments(ctx context.Context, invoiceID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.tx.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0) FROM payments WHERE invoice_id = $1`, invoiceID).Scan(&total)
	return total, err
}

func (r *txRepo) CreateWalkInCustomer(ctx context.Context, businessID int64) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `
INSERT INTO customers (business_id, name, total_purchases, total_outstanding, payment_status, is_blocked, created_at, updated_at)
VALUES ($1, $2, 0, 0, $3, FALSE, NOW(), NOW())
RETURNING id`, businessID, customers.WalkInName, shared.PaymentStatusUnpaid).Scan(&id)
	return id, err
}

func (r *txRepo) GetCustomerForUpdate(ctx context.Context, businessID, customerID int64) (customers.Customer, error) {
	var c customers.Customer
	err := r.tx.QueryRow(ctx, `
SELECT id, business_id, name, total_purchases, total_outstanding, payment_status, is_blocked
FROM customers
WHERE business_id = $1 AND id = $2
FOR UPDATE`, businessID, customerID).Scan(&c.ID, &c.BusinessID, &c.Name,
		&c.TotalPurchases, &c.TotalOutstanding, &c.PaymentStatus, &c.IsBlocked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return customers.Customer{}, fmt.Errorf("%w: customer %d", shared.ErrNotFound, customerID)
		}
		return customers.Customer{}, err
	}
	return c, nil
}

func (r *txRepo) UpdateCustomerAggregates(ctx context.Context, customerID int64, totalPurchases, totalOutstanding decimal.Decimal, status shared.PaymentStatus) error {
	_, err := r.tx.Exec(ctx, `
UPDATE customers
SET total_purchases = $1, total_outstanding = $2, payment_status = $3, updated_at = NOW()
WHERE id = $4`, totalPurchases, totalOutstanding, status, customerID)
	return err
}

// SumCustomerOutstanding totals what the customer still owes: grand
// total minus recorded payments over every invoice not marked paid.
// Invoices marked paid carry no balance regardless of payment rows, so
// cash sales committed as paid never count.
func (r *txRepo) SumCustomerOutstanding(ctx context.Context, customerID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.tx.QueryRow(ctx, `
SELECT COALESCE(SUM(i.grand_total - COALESCE(p.paid, 0)), 0)
FROM invoices i
LEFT JOIN (
    SELECT invoice_id, SUM(amount) AS paid FROM payments GROUP BY invoice_id
) p ON p.invoice_id = i.id
WHERE i.customer_id = $1 AND i.payment_status <> $2`,
		customerID, shared.PaymentStatusPaid).Scan(&total)
	return total, err
}

func (r *txRepo) ListCustomerInvoiceStatuses(ctx context.Context, customerID int64) ([]shared.PaymentStatus, error) {
	rows, err := r.tx.Query(ctx, `SELECT payment_status FROM invoices WHERE customer_id = $1`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var statuses []shared.PaymentStatus
	for rows.Next() {
		var s shared.PaymentStatus
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		statuses = append(statuses, s)
	}
	return statuses, rows.Err()
}
