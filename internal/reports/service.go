package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/ledgerline/ledgerline/internal/shared"
)

// Service serves cached report aggregates. Concurrent identical
// requests share one database round trip.
type Service struct {
	repo  Repository
	cache *Cache
	group singleflight.Group
}

// NewService builds Service. cache may be nil.
func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

func (s *Service) SalesSummary(ctx context.Context, businessID int64, from, to time.Time) (SalesSummary, error) {
	from, to, err := normalizePeriod(from, to)
	if err != nil {
		return SalesSummary{}, err
	}
	var out SalesSummary
	err = s.fetch(ctx, businessID, &out,
		[]string{"sales", from.Format("2006-01-02"), to.Format("2006-01-02")},
		func(ctx context.Context) (interface{}, error) {
			return s.repo.SalesSummary(ctx, businessID, from, to)
		})
	return out, err
}

func (s *Service) InventoryValue(ctx context.Context, businessID int64) (InventoryValue, error) {
	var out InventoryValue
	err := s.fetch(ctx, businessID, &out, []string{"inventory"},
		func(ctx context.Context) (interface{}, error) {
			return s.repo.InventoryValue(ctx, businessID)
		})
	return out, err
}

func (s *Service) Bestsellers(ctx context.Context, businessID int64, from, to time.Time, limit int) ([]Bestseller, error) {
	from, to, err := normalizePeriod(from, to)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	var out []Bestseller
	err = s.fetch(ctx, businessID, &out,
		[]string{"bestsellers", from.Format("2006-01-02"), to.Format("2006-01-02"), fmt.Sprint(limit)},
		func(ctx context.Context) (interface{}, error) {
			return s.repo.Bestsellers(ctx, businessID, from, to, limit)
		})
	return out, err
}

func (s *Service) TopCustomers(ctx context.Context, businessID int64, limit int) ([]TopCustomer, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	var out []TopCustomer
	err := s.fetch(ctx, businessID, &out, []string{"top_customers", fmt.Sprint(limit)},
		func(ctx context.Context) (interface{}, error) {
			return s.repo.TopCustomers(ctx, businessID, limit)
		})
	return out, err
}

func (s *Service) Outstanding(ctx context.Context, businessID int64, limit int) (OutstandingSummary, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	var out OutstandingSummary
	err := s.fetch(ctx, businessID, &out, []string{"outstanding", fmt.Sprint(limit)},
		func(ctx context.Context) (interface{}, error) {
			return s.repo.Outstanding(ctx, businessID, limit)
		})
	return out, err
}

// TaxReport splits the period's collected tax into CGST and SGST in
// proportion to the business's configured rates.
func (s *Service) TaxReport(ctx context.Context, businessID int64, from, to time.Time) (TaxReport, error) {
	from, to, err := normalizePeriod(from, to)
	if err != nil {
		return TaxReport{}, err
	}
	var out TaxReport
	err = s.fetch(ctx, businessID, &out,
		[]string{"tax", from.Format("2006-01-02"), to.Format("2006-01-02")},
		func(ctx context.Context) (interface{}, error) {
			summary, err := s.repo.SalesSummary(ctx, businessID, from, to)
			if err != nil {
				return nil, err
			}
			cgst, sgst, err := s.repo.TaxRates(ctx, businessID)
			if err != nil {
				return nil, err
			}
			report := TaxReport{From: from, To: to, TotalTax: summary.Tax}
			combined := cgst.Add(sgst)
			if combined.IsPositive() {
				report.CGST = summary.Tax.Mul(cgst).Div(combined).Round(2)
				report.SGST = summary.Tax.Sub(report.CGST)
			}
			return report, nil
		})
	return out, err
}

func (s *Service) fetch(ctx context.Context, businessID int64, dest interface{}, keyParts []string, loader func(context.Context) (interface{}, error)) error {
	key, err := s.cache.BuildKey(ctx, businessID, keyParts...)
	if err != nil {
		return err
	}
	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		var raw json.RawMessage
		if err := s.cache.FetchJSON(ctx, key, &raw, loader); err != nil {
			return nil, err
		}
		return raw, nil
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(v.(json.RawMessage), dest)
}

func normalizePeriod(from, to time.Time) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	if to.IsZero() {
		to = now
	}
	if from.IsZero() {
		from = to.AddDate(0, -1, 0)
	}
	if !from.Before(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: period start must precede end", shared.ErrValidation)
	}
	return from, to, nil
}

// Dashboard fans the headline aggregates out concurrently.
func (s *Service) Dashboard(ctx context.Context, businessID int64) (Dashboard, error) {
	now := time.Now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	var (
		today     SalesSummary
		month     SalesSummary
		out       OutstandingSummary
		inventory InventoryValue
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		today, err = s.SalesSummary(gctx, businessID, dayStart, now)
		return err
	})
	g.Go(func() error {
		var err error
		month, err = s.SalesSummary(gctx, businessID, monthStart, now)
		return err
	})
	g.Go(func() error {
		var err error
		out, err = s.Outstanding(gctx, businessID, 1)
		return err
	})
	g.Go(func() error {
		var err error
		inventory, err = s.InventoryValue(gctx, businessID)
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	return Dashboard{
		TodayRevenue:     today.Revenue,
		TodayInvoices:    today.InvoiceCount,
		MonthRevenue:     month.Revenue,
		TotalOutstanding: out.TotalOutstanding,
		LowStockCount:    inventory.LowStockCount,
	}, nil
}
