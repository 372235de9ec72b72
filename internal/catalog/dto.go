package catalog

import "github.com/shopspring/decimal"

type CreateProductRequest struct {
	Name          string          `json:"name" validate:"required,max=255"`
	SKU           string          `json:"sku" validate:"required,max=100"`
	Category      string          `json:"category" validate:"omitempty,max=100"`
	Unit          string          `json:"unit" validate:"omitempty,max=50"`
	BuyingPrice   decimal.Decimal `json:"buying_price"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	TaxPercent    decimal.Decimal `json:"tax_percent"`
	CurrentStock  int64           `json:"current_stock" validate:"gte=0"`
	MinStockLevel int64           `json:"min_stock_level" validate:"gte=0"`
	Description   string          `json:"description"`
}

type UpdateProductRequest struct {
	Name          *string          `json:"name,omitempty" validate:"omitempty,max=255"`
	Category      *string          `json:"category,omitempty" validate:"omitempty,max=100"`
	Unit          *string          `json:"unit,omitempty" validate:"omitempty,max=50"`
	BuyingPrice   *decimal.Decimal `json:"buying_price,omitempty"`
	SellingPrice  *decimal.Decimal `json:"selling_price,omitempty"`
	TaxPercent    *decimal.Decimal `json:"tax_percent,omitempty"`
	MinStockLevel *int64           `json:"min_stock_level,omitempty" validate:"omitempty,gte=0"`
	Description   *string          `json:"description,omitempty"`
	IsActive      *bool            `json:"is_active,omitempty"`
}
