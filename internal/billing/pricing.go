package billing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ledgerline/ledgerline/internal/shared"
)

var hundred = decimal.NewFromInt(100)

// LineInput is one priced line request.
type LineInput struct {
	ProductID  int64
	Quantity   int64
	UnitPrice  decimal.Decimal
	TaxPercent decimal.Decimal
}

// PricedLine carries the computed amounts for a line.
type PricedLine struct {
	LineInput
	TaxAmount   decimal.Decimal
	TotalAmount decimal.Decimal
}

// Totals carries the invoice-level amounts.
type Totals struct {
	Subtotal       decimal.Decimal
	TaxAmount      decimal.Decimal
	DiscountAmount decimal.Decimal
	GrandTotal     decimal.Decimal
}

// PriceLines computes per-line tax and totals plus the invoice totals.
// Discount applies once at the invoice level. All persisted amounts are
// rounded to two decimal places.
func PriceLines(lines []LineInput, discount decimal.Decimal) ([]PricedLine, Totals, error) {
	if len(lines) == 0 {
		return nil, Totals{}, fmt.Errorf("%w: at least one line required", shared.ErrInvalidInvoice)
	}
	if discount.IsNegative() {
		return nil, Totals{}, fmt.Errorf("%w: discount must not be negative", shared.ErrInvalidInvoice)
	}

	priced := make([]PricedLine, 0, len(lines))
	subtotal := decimal.Zero
	taxTotal := decimal.Zero
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, Totals{}, fmt.Errorf("%w: quantity must be positive for product %d", shared.ErrInvalidInvoice, line.ProductID)
		}
		if line.UnitPrice.IsNegative() {
			return nil, Totals{}, fmt.Errorf("%w: unit price must not be negative for product %d", shared.ErrInvalidInvoice, line.ProductID)
		}
		qty := decimal.NewFromInt(line.Quantity)
		base := qty.Mul(line.UnitPrice)
		tax := base.Mul(line.TaxPercent).Div(hundred).Round(2)
		priced = append(priced, PricedLine{
			LineInput:   line,
			TaxAmount:   tax,
			TotalAmount: base.Add(tax).Round(2),
		})
		subtotal = subtotal.Add(base)
		taxTotal = taxTotal.Add(tax)
	}

	totals := Totals{
		Subtotal:       subtotal.Round(2),
		TaxAmount:      taxTotal.Round(2),
		DiscountAmount: discount.Round(2),
	}
	totals.GrandTotal = totals.Subtotal.Add(totals.TaxAmount).Sub(totals.DiscountAmount).Round(2)
	if totals.GrandTotal.IsNegative() {
		return nil, Totals{}, fmt.Errorf("%w: discount exceeds invoice total", shared.ErrInvalidInvoice)
	}
	return priced, totals, nil
}
