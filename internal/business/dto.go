package business

import "github.com/shopspring/decimal"

// CreateBusinessRequest registers a new tenant.
type CreateBusinessRequest struct {
	Name      string           `json:"name" validate:"required,min=1,max=200"`
	OwnerName string           `json:"owner_name" validate:"required,min=1,max=200"`
	Phone     *string          `json:"phone" validate:"omitempty,max=20"`
	Email     *string          `json:"email" validate:"omitempty,email"`
	Address   *string          `json:"address" validate:"omitempty,max=500"`
	GSTIN     *string          `json:"gstin" validate:"omitempty,len=15"`
	GSTRate   *decimal.Decimal `json:"gst_rate"`
	CGSTRate  *decimal.Decimal `json:"cgst_rate"`
	SGSTRate  *decimal.Decimal `json:"sgst_rate"`
}

// UpdateBusinessRequest is the payload for partial tenant updates.
type UpdateBusinessRequest struct {
	Name      *string          `json:"name" validate:"omitempty,min=1,max=200"`
	OwnerName *string          `json:"owner_name" validate:"omitempty,min=1,max=200"`
	Phone     *string          `json:"phone" validate:"omitempty,max=20"`
	Email     *string          `json:"email" validate:"omitempty,email"`
	Address   *string          `json:"address" validate:"omitempty,max=500"`
	GSTIN     *string          `json:"gstin" validate:"omitempty,len=15"`
	GSTRate   *decimal.Decimal `json:"gst_rate"`
	CGSTRate  *decimal.Decimal `json:"cgst_rate"`
	SGSTRate  *decimal.Decimal `json:"sgst_rate"`
}
