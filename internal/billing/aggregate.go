package billing

import "github.com/ledgerline/ledgerline/internal/shared"

// DeriveCustomerStatus folds a customer's invoice statuses into one
// overall status: paid when every invoice is paid, partial when any
// invoice is partial, unpaid otherwise. A customer with no invoices is
// unpaid.
func DeriveCustomerStatus(statuses []shared.PaymentStatus) shared.PaymentStatus {
	if len(statuses) == 0 {
		return shared.PaymentStatusUnpaid
	}
	allPaid := true
	anyPartial := false
	for _, s := range statuses {
		if s != shared.PaymentStatusPaid {
			allPaid = false
		}
		if s == shared.PaymentStatusPartial {
			anyPartial = true
		}
	}
	switch {
	case allPaid:
		return shared.PaymentStatusPaid
	case anyPartial:
		return shared.PaymentStatusPartial
	default:
		return shared.PaymentStatusUnpaid
	}
}
