package customers

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgerline/ledgerline/internal/shared"
)

// WalkInName is the name given to customers materialized for walk-in sales.
const WalkInName = "Walk-in"

// Customer is a buyer scoped to one business. TotalPurchases,
// TotalOutstanding and PaymentStatus are derived fields owned by the
// billing reconciliation path; nothing else may write them.
type Customer struct {
	ID               int64                `json:"id"`
	BusinessID       int64                `json:"business_id"`
	Name             string               `json:"name"`
	Phone            *string              `json:"phone,omitempty"`
	Email            *string              `json:"email,omitempty"`
	Address          *string              `json:"address,omitempty"`
	GSTIN            *string              `json:"gstin,omitempty"`
	TotalPurchases   decimal.Decimal      `json:"total_purchases"`
	TotalOutstanding decimal.Decimal      `json:"total_outstanding"`
	PaymentStatus    shared.PaymentStatus `json:"payment_status"`
	IsBlocked        bool                 `json:"is_blocked"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

// ListFilters narrows customer listings.
type ListFilters struct {
	Search string
	Status shared.PaymentStatus
	Limit  int
	Offset int
}
