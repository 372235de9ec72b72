package billing

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ledgerline/ledgerline/internal/customers"
	"github.com/ledgerline/ledgerline/internal/platform/db"
	"github.com/ledgerline/ledgerline/internal/shared"
	"github.com/ledgerline/ledgerline/internal/stock"
)

// Repository persists invoices, lines and payments in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository spans every table an invoice commit or payment touches so
// the whole operation stays one transaction.
type TxRepository interface {
	GetProductForUpdate(ctx context.Context, businessID, productID int64) (Product, error)
	UpdateProductStock(ctx context.Context, productID, newStock int64) error
	InsertStockEvent(ctx context.Context, event stock.Event) (int64, error)

	NextInvoiceSeq(ctx context.Context, businessID int64) (int64, error)
	InsertInvoice(ctx context.Context, invoice Invoice) (int64, error)
	InsertInvoiceLines(ctx context.Context, invoiceID int64, lines []InvoiceLine) error
	GetInvoiceForUpdate(ctx context.Context, businessID, invoiceID int64) (Invoice, error)
	ListInvoiceLines(ctx context.Context, invoiceID int64) ([]InvoiceLine, error)
	UpdateInvoiceStatus(ctx context.Context, invoiceID int64, status shared.PaymentStatus) error
	DeleteInvoice(ctx context.Context, invoiceID int64) error

	InsertPayment(ctx context.Context, payment Payment) (int64, error)
	SumPayments(ctx context.Context, invoiceID int64) (decimal.Decimal, error)

	CreateWalkInCustomer(ctx context.Context, businessID int64) (int64, error)
	GetCustomerForUpdate(ctx context.Context, businessID, customerID int64) (customers.Customer, error)
	UpdateCustomerAggregates(ctx context.Context, customerID int64, totalPurchases, totalOutstanding decimal.Decimal, status shared.PaymentStatus) error
	ListCustomerInvoiceStatuses(ctx context.Context, customerID int64) ([]shared.PaymentStatus, error)
	SumCustomerOutstanding(ctx context.Context, customerID int64) (decimal.Decimal, error)
}

// WithTx runs fn inside a repeatable-read transaction, retrying a
// bounded number of times on serialization conflicts. fn must be safe
// to re-run from scratch.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTxRetry(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

// GetInvoice loads an invoice with its lines.
func (r *Repository) GetInvoice(ctx context.Context, businessID, invoiceID int64) (*Invoice, error) {
	return getInvoice(ctx, r.pool, businessID, invoiceID)
}

// ListInvoices lists invoices for a business, newest first.
func (r *Repository) ListInvoices(ctx context.Context, businessID int64, filters ListFilters) ([]Invoice, int, error) {
	return listInvoices(ctx, r.pool, businessID, filters)
}

// ListPayments lists payments for an invoice in insertion order.
func (r *Repository) ListPayments(ctx context.Context, businessID, invoiceID int64) ([]Payment, error) {
	return listPayments(ctx, r.pool, businessID, invoiceID)
}

type txRepo struct {
	tx pgx.Tx
}
