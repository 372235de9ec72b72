package reports

import (
	"time"

	"github.com/shopspring/decimal"
)

// SalesSummary aggregates committed invoices over a period.
type SalesSummary struct {
	From         time.Time       `json:"from"`
	To           time.Time       `json:"to"`
	InvoiceCount int64           `json:"invoice_count"`
	Revenue      decimal.Decimal `json:"revenue"`
	Tax          decimal.Decimal `json:"tax"`
	Discount     decimal.Decimal `json:"discount"`
}

// InventoryValue snapshots the stock on hand.
type InventoryValue struct {
	ProductCount  int64           `json:"product_count"`
	TotalUnits    int64           `json:"total_units"`
	CostValue     decimal.Decimal `json:"cost_value"`
	RetailValue   decimal.Decimal `json:"retail_value"`
	LowStockCount int64           `json:"low_stock_count"`
}

// Bestseller is one row of the bestsellers report.
type Bestseller struct {
	ProductID    int64           `json:"product_id"`
	ProductName  string          `json:"product_name"`
	QuantitySold int64           `json:"quantity_sold"`
	Revenue      decimal.Decimal `json:"revenue"`
}

// TopCustomer is one row of the top-customers and outstanding reports.
type TopCustomer struct {
	CustomerID       int64           `json:"customer_id"`
	Name             string          `json:"name"`
	TotalPurchases   decimal.Decimal `json:"total_purchases"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
}

// OutstandingSummary totals unsettled balances.
type OutstandingSummary struct {
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
	Debtors          []TopCustomer   `json:"debtors"`
}

// TaxReport splits collected tax into CGST and SGST using the
// business's configured rates.
type TaxReport struct {
	From     time.Time       `json:"from"`
	To       time.Time       `json:"to"`
	TotalTax decimal.Decimal `json:"total_tax"`
	CGST     decimal.Decimal `json:"cgst"`
	SGST     decimal.Decimal `json:"sgst"`
}

// Dashboard is the fan-in view served on the home screen.
type Dashboard struct {
	TodayRevenue     decimal.Decimal `json:"today_revenue"`
	TodayInvoices    int64           `json:"today_invoices"`
	MonthRevenue     decimal.Decimal `json:"month_revenue"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
	LowStockCount    int64           `json:"low_stock_count"`
}
