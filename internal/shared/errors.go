package shared

import "errors"

var (
	// ErrNotFound indicates a product, customer, invoice or business is absent.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate indicates a SKU or invoice-number collision.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrInsufficientStock indicates a sale quantity exceeds available stock.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInvalidInvoice indicates a non-positive quantity or negative discount/total.
	ErrInvalidInvoice = errors.New("invalid invoice")
	// ErrInvalidPayment indicates a non-positive payment amount.
	ErrInvalidPayment = errors.New("invalid payment")
	// ErrValidation indicates malformed request input.
	ErrValidation = errors.New("validation failed")
)
