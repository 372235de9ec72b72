package business

import (
	"time"

	"github.com/shopspring/decimal"
)

// Business is one tenant. All products, customers and invoices are
// scoped to exactly one business. CGSTRate and SGSTRate feed the tax
// split report; their sum normally equals GSTRate.
type Business struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	OwnerName string          `json:"owner_name"`
	Phone     *string         `json:"phone,omitempty"`
	Email     *string         `json:"email,omitempty"`
	Address   *string         `json:"address,omitempty"`
	GSTIN     *string         `json:"gstin,omitempty"`
	GSTRate   decimal.Decimal `json:"gst_rate"`
	CGSTRate  decimal.Decimal `json:"cgst_rate"`
	SGSTRate  decimal.Decimal `json:"sgst_rate"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
