package billing

import "github.com/shopspring/decimal"

// CommitLineRequest is one line of a commit request. UnitPrice and
// TaxPercent fall back to the product's values when omitted.
type CommitLineRequest struct {
	ProductID  int64            `json:"product_id" validate:"required,gt=0"`
	Quantity   int64            `json:"quantity" validate:"required,gt=0"`
	UnitPrice  *decimal.Decimal `json:"unit_price"`
	TaxPercent *decimal.Decimal `json:"tax_percent"`
}

// CommitInvoiceRequest is the payload for committing an invoice.
type CommitInvoiceRequest struct {
	CustomerID    *int64              `json:"customer_id" validate:"omitempty,gt=0"`
	Lines         []CommitLineRequest `json:"lines" validate:"required,min=1,dive"`
	Discount      decimal.Decimal     `json:"discount"`
	PaymentMethod string              `json:"payment_method" validate:"required"`
	PaymentStatus string              `json:"payment_status" validate:"omitempty"`
	Notes         string              `json:"notes" validate:"omitempty,max=1000"`
}

// PaymentRequest is the payload for recording a payment.
type PaymentRequest struct {
	Amount    decimal.Decimal `json:"amount" validate:"required"`
	Method    string          `json:"method" validate:"required"`
	Reference string          `json:"reference" validate:"omitempty,max=100"`
	Notes     string          `json:"notes" validate:"omitempty,max=500"`
}

// StatusRequest is the payload for a manual status override.
type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}
