package billing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/ledgerline/internal/shared"
)

func TestPriceLinesSingleLine(t *testing.T) {
	lines := []LineInput{{
		ProductID:  1,
		Quantity:   3,
		UnitPrice:  decimal.NewFromInt(100),
		TaxPercent: decimal.NewFromInt(10),
	}}

	priced, totals, err := PriceLines(lines, decimal.Zero)
	require.NoError(t, err)
	require.Len(t, priced, 1)
	require.True(t, priced[0].TaxAmount.Equal(decimal.NewFromInt(30)), "tax = %s", priced[0].TaxAmount)
	require.True(t, priced[0].TotalAmount.Equal(decimal.NewFromInt(330)))
	require.True(t, totals.Subtotal.Equal(decimal.NewFromInt(300)))
	require.True(t, totals.TaxAmount.Equal(decimal.NewFromInt(30)))
	require.True(t, totals.GrandTotal.Equal(decimal.NewFromInt(330)))
}

func TestPriceLinesInvoiceLevelDiscount(t *testing.T) {
	lines := []LineInput{
		{ProductID: 1, Quantity: 2, UnitPrice: decimal.NewFromInt(50), TaxPercent: decimal.NewFromInt(18)},
		{ProductID: 2, Quantity: 1, UnitPrice: decimal.NewFromInt(200), TaxPercent: decimal.NewFromInt(5)},
	}

	_, totals, err := PriceLines(lines, decimal.NewFromInt(25))
	require.NoError(t, err)
	// 100 + 200 = 300 subtotal; tax = 18 + 10 = 28; grand = 300 + 28 - 25
	require.True(t, totals.Subtotal.Equal(decimal.NewFromInt(300)))
	require.True(t, totals.TaxAmount.Equal(decimal.NewFromInt(28)))
	require.True(t, totals.GrandTotal.Equal(decimal.NewFromInt(303)))
}

func TestPriceLinesRoundsToCurrencyPrecision(t *testing.T) {
	lines := []LineInput{{
		ProductID:  1,
		Quantity:   3,
		UnitPrice:  decimal.RequireFromString("33.33"),
		TaxPercent: decimal.RequireFromString("17.5"),
	}}

	priced, totals, err := PriceLines(lines, decimal.Zero)
	require.NoError(t, err)
	// 99.99 * 17.5% = 17.49825 -> 17.50
	require.True(t, priced[0].TaxAmount.Equal(decimal.RequireFromString("17.50")), "tax = %s", priced[0].TaxAmount)
	require.True(t, totals.GrandTotal.Equal(decimal.RequireFromString("117.49")))
}

func TestPriceLinesNoPennyDrift(t *testing.T) {
	// 0.1 + 0.2 style amounts that break float arithmetic.
	lines := []LineInput{
		{ProductID: 1, Quantity: 1, UnitPrice: decimal.RequireFromString("0.10"), TaxPercent: decimal.Zero},
		{ProductID: 2, Quantity: 1, UnitPrice: decimal.RequireFromString("0.20"), TaxPercent: decimal.Zero},
	}

	_, totals, err := PriceLines(lines, decimal.Zero)
	require.NoError(t, err)
	require.True(t, totals.GrandTotal.Equal(decimal.RequireFromString("0.30")))
}

func TestPriceLinesRejectsEmpty(t *testing.T) {
	_, _, err := PriceLines(nil, decimal.Zero)
	require.ErrorIs(t, err, shared.ErrInvalidInvoice)
}

func TestPriceLinesRejectsNonPositiveQuantity(t *testing.T) {
	lines := []LineInput{{ProductID: 1, Quantity: 0, UnitPrice: decimal.NewFromInt(10)}}
	_, _, err := PriceLines(lines, decimal.Zero)
	require.ErrorIs(t, err, shared.ErrInvalidInvoice)
}

func TestPriceLinesRejectsNegativeDiscount(t *testing.T) {
	lines := []LineInput{{ProductID: 1, Quantity: 1, UnitPrice: decimal.NewFromInt(10)}}
	_, _, err := PriceLines(lines, decimal.NewFromInt(-5))
	require.ErrorIs(t, err, shared.ErrInvalidInvoice)
}

func TestPriceLinesRejectsDiscountExceedingTotal(t *testing.T) {
	lines := []LineInput{{ProductID: 1, Quantity: 1, UnitPrice: decimal.NewFromInt(10)}}
	_, _, err := PriceLines(lines, decimal.NewFromInt(100))
	require.ErrorIs(t, err, shared.ErrInvalidInvoice)
}

func TestInvoiceNumberFormat(t *testing.T) {
	require.Equal(t, "INV-7-000001", InvoiceNumber(7, 1))
	require.Equal(t, "INV-7-000123", InvoiceNumber(7, 123))
	require.Equal(t, "INV-7-1234567", InvoiceNumber(7, 1234567))
}
