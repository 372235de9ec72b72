package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a sellable item owned by one business. CurrentStock is
// written only through the stock ledger; no other path may mutate it.
type Product struct {
	ID            int64           `json:"id"`
	BusinessID    int64           `json:"business_id"`
	Name          string          `json:"name"`
	SKU           string          `json:"sku"`
	Category      string          `json:"category,omitempty"`
	Unit          string          `json:"unit,omitempty"`
	BuyingPrice   decimal.Decimal `json:"buying_price"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	TaxPercent    decimal.Decimal `json:"tax_percent"`
	CurrentStock  int64           `json:"current_stock"`
	MinStockLevel int64           `json:"min_stock_level"`
	Description   string          `json:"description,omitempty"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ListFilters narrows product listings.
type ListFilters struct {
	Search   string
	Category string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	LowStock bool
	Limit    int
	Offset   int
}
