package shared

// PaymentStatus tracks how much of an invoice, or a customer's invoice
// set, has been settled.
type PaymentStatus string

const (
	// PaymentStatusPaid means fully settled.
	PaymentStatusPaid PaymentStatus = "paid"
	// PaymentStatusUnpaid means nothing received yet.
	PaymentStatusUnpaid PaymentStatus = "unpaid"
	// PaymentStatusPartial means some amount received but not all.
	PaymentStatusPartial PaymentStatus = "partial"
)

// Valid reports whether the status is a known value.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPaid, PaymentStatusUnpaid, PaymentStatusPartial:
		return true
	}
	return false
}
