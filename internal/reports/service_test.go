package reports

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/ledgerline/internal/shared"
)

type fakeRepo struct {
	salesCalls int
	sales      SalesSummary
	inventory  InventoryValue
	cgst       decimal.Decimal
	sgst       decimal.Decimal
}

func (f *fakeRepo) SalesSummary(ctx context.Context, businessID int64, from, to time.Time) (SalesSummary, error) {
	f.salesCalls++
	s := f.sales
	s.From = from
	s.To = to
	return s, nil
}

func (f *fakeRepo) InventoryValue(ctx context.Context, businessID int64) (InventoryValue, error) {
	return f.inventory, nil
}

func (f *fakeRepo) Bestsellers(ctx context.Context, businessID int64, from, to time.Time, limit int) ([]Bestseller, error) {
	return []Bestseller{{ProductID: 1, ProductName: "Steel Rod 12mm", QuantitySold: 40, Revenue: decimal.NewFromInt(4000)}}, nil
}

func (f *fakeRepo) TopCustomers(ctx context.Context, businessID int64, limit int) ([]TopCustomer, error) {
	return []TopCustomer{{CustomerID: 7, Name: "Asha Traders", TotalPurchases: decimal.NewFromInt(9000)}}, nil
}

func (f *fakeRepo) Outstanding(ctx context.Context, businessID int64, limit int) (OutstandingSummary, error) {
	return OutstandingSummary{TotalOutstanding: decimal.NewFromInt(1200)}, nil
}

func (f *fakeRepo) TaxRates(ctx context.Context, businessID int64) (decimal.Decimal, decimal.Decimal, error) {
	return f.cgst, f.sgst, nil
}

func newTestService(t *testing.T, repo Repository) (*Service, *Cache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewCache(client, time.Minute)
	return NewService(repo, cache), cache
}

func TestSalesSummaryCachesResult(t *testing.T) {
	repo := &fakeRepo{sales: SalesSummary{InvoiceCount: 3, Revenue: decimal.NewFromInt(990)}}
	svc, _ := newTestService(t, repo)

	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	first, err := svc.SalesSummary(context.Background(), 1, from, to)
	require.NoError(t, err)
	second, err := svc.SalesSummary(context.Background(), 1, from, to)
	require.NoError(t, err)

	require.Equal(t, 1, repo.salesCalls)
	require.Equal(t, first.InvoiceCount, second.InvoiceCount)
	require.True(t, second.Revenue.Equal(decimal.NewFromInt(990)))
}

func TestInvalidateForcesReload(t *testing.T) {
	repo := &fakeRepo{sales: SalesSummary{InvoiceCount: 3}}
	svc, cache := newTestService(t, repo)

	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.SalesSummary(context.Background(), 1, from, to)
	require.NoError(t, err)
	require.NoError(t, cache.Invalidate(context.Background(), 1))
	_, err = svc.SalesSummary(context.Background(), 1, from, to)
	require.NoError(t, err)

	require.Equal(t, 2, repo.salesCalls)
}

func TestCacheScopedPerBusiness(t *testing.T) {
	repo := &fakeRepo{}
	svc, _ := newTestService(t, repo)

	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.SalesSummary(context.Background(), 1, from, to)
	require.NoError(t, err)
	_, err = svc.SalesSummary(context.Background(), 2, from, to)
	require.NoError(t, err)

	require.Equal(t, 2, repo.salesCalls)
}

func TestSalesSummaryRejectsInvertedPeriod(t *testing.T) {
	svc, _ := newTestService(t, &fakeRepo{})

	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.SalesSummary(context.Background(), 1, from, to)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestTaxReportSplitsByRates(t *testing.T) {
	repo := &fakeRepo{
		sales: SalesSummary{Tax: decimal.NewFromInt(100)},
		cgst:  decimal.NewFromInt(9),
		sgst:  decimal.NewFromInt(9),
	}
	svc, _ := newTestService(t, repo)

	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	report, err := svc.TaxReport(context.Background(), 1, from, to)
	require.NoError(t, err)
	require.True(t, report.CGST.Equal(decimal.NewFromInt(50)), "cgst = %s", report.CGST)
	require.True(t, report.SGST.Equal(decimal.NewFromInt(50)))
	require.True(t, report.CGST.Add(report.SGST).Equal(report.TotalTax))
}

func TestTaxReportUnevenSplitStillSums(t *testing.T) {
	repo := &fakeRepo{
		sales: SalesSummary{Tax: decimal.RequireFromString("100.01")},
		cgst:  decimal.NewFromInt(12),
		sgst:  decimal.NewFromInt(6),
	}
	svc, _ := newTestService(t, repo)

	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	report, err := svc.TaxReport(context.Background(), 1, from, to)
	require.NoError(t, err)
	require.True(t, report.CGST.Add(report.SGST).Equal(report.TotalTax))
}

func TestDashboard(t *testing.T) {
	repo := &fakeRepo{
		sales:     SalesSummary{InvoiceCount: 5, Revenue: decimal.NewFromInt(1500)},
		inventory: InventoryValue{LowStockCount: 2},
	}
	svc, _ := newTestService(t, repo)

	dashboard, err := svc.Dashboard(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, int64(5), dashboard.TodayInvoices)
	require.True(t, dashboard.TodayRevenue.Equal(decimal.NewFromInt(1500)))
	require.True(t, dashboard.TotalOutstanding.Equal(decimal.NewFromInt(1200)))
	require.Equal(t, int64(2), dashboard.LowStockCount)
}
