package billing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgerline/ledgerline/internal/shared"
	"github.com/ledgerline/ledgerline/internal/stock"
)

// PaymentMethod enumerates accepted payment channels.
type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodUPI    PaymentMethod = "upi"
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodCredit PaymentMethod = "credit"
)

// Valid reports whether the method is a known value.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodUPI, PaymentMethodCard, PaymentMethodCredit:
		return true
	}
	return false
}

// InvoiceNumber renders the per-business invoice number for a sequence
// value, zero-padded to six digits.
func InvoiceNumber(businessID, seq int64) string {
	return fmt.Sprintf("INV-%d-%06d", businessID, seq)
}

// Invoice is a committed sale. GrandTotal is fixed at commit time and
// never recomputed from lines afterwards.
type Invoice struct {
	ID             int64                `json:"id"`
	BusinessID     int64                `json:"business_id"`
	CustomerID     *int64               `json:"customer_id,omitempty"`
	InvoiceNumber  string               `json:"invoice_number"`
	Subtotal       decimal.Decimal      `json:"subtotal"`
	TaxAmount      decimal.Decimal      `json:"tax_amount"`
	DiscountAmount decimal.Decimal      `json:"discount_amount"`
	GrandTotal     decimal.Decimal      `json:"grand_total"`
	PaymentMethod  PaymentMethod        `json:"payment_method"`
	PaymentStatus  shared.PaymentStatus `json:"payment_status"`
	Notes          string               `json:"notes,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
	Lines          []InvoiceLine        `json:"lines,omitempty"`
}

// InvoiceLine is immutable after commit.
type InvoiceLine struct {
	ID          int64           `json:"id"`
	InvoiceID   int64           `json:"invoice_id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxPercent  decimal.Decimal `json:"tax_percent"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// Payment is one append-only receipt against an invoice.
type Payment struct {
	ID        int64           `json:"id"`
	InvoiceID int64           `json:"invoice_id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    PaymentMethod   `json:"method"`
	Reference string          `json:"reference,omitempty"`
	Notes     string          `json:"notes,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Product is the slice of a product a commit needs: the stock fields
// plus the default price and tax rate for lines that omit them.
type Product struct {
	stock.ProductStock
	SellingPrice decimal.Decimal
	TaxPercent   decimal.Decimal
}

// ListFilters narrows invoice listings.
type ListFilters struct {
	Status     shared.PaymentStatus
	CustomerID int64
	From       time.Time
	To         time.Time
	Limit      int
	Offset     int
}
