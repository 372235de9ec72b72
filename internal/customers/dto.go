package customers

// CreateCustomerRequest is the payload for creating a customer.
type CreateCustomerRequest struct {
	Name    string  `json:"name" validate:"required,min=1,max=200"`
	Phone   *string `json:"phone" validate:"omitempty,max=20"`
	Email   *string `json:"email" validate:"omitempty,email"`
	Address *string `json:"address" validate:"omitempty,max=500"`
	GSTIN   *string `json:"gstin" validate:"omitempty,len=15"`
}

// UpdateCustomerRequest is the payload for partial customer updates.
// Derived billing fields are not updatable here.
type UpdateCustomerRequest struct {
	Name    *string `json:"name" validate:"omitempty,min=1,max=200"`
	Phone   *string `json:"phone" validate:"omitempty,max=20"`
	Email   *string `json:"email" validate:"omitempty,email"`
	Address *string `json:"address" validate:"omitempty,max=500"`
	GSTIN   *string `json:"gstin" validate:"omitempty,len=15"`
}
