package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ledgerline/ledgerline/internal/shared"
)

// Service handles product business logic.
type Service struct {
	repo Repository
}

// NewService builds Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, businessID int64, req CreateProductRequest) (*Product, error) {
	if req.BuyingPrice.IsNegative() || req.SellingPrice.IsNegative() {
		return nil, fmt.Errorf("%w: prices must not be negative", shared.ErrValidation)
	}
	if req.TaxPercent.IsNegative() || req.TaxPercent.GreaterThan(decimal.NewFromInt(100)) {
		return nil, fmt.Errorf("%w: tax percent must be between 0 and 100", shared.ErrValidation)
	}

	existing, err := s.repo.GetBySKU(ctx, businessID, req.SKU)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("check existing sku: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: sku %s", shared.ErrDuplicate, req.SKU)
	}

	product := Product{
		BusinessID:    businessID,
		Name:          req.Name,
		SKU:           req.SKU,
		Category:      req.Category,
		Unit:          req.Unit,
		BuyingPrice:   req.BuyingPrice.Round(2),
		SellingPrice:  req.SellingPrice.Round(2),
		TaxPercent:    req.TaxPercent,
		CurrentStock:  req.CurrentStock,
		MinStockLevel: req.MinStockLevel,
		Description:   req.Description,
		IsActive:      true,
	}
	return s.repo.Create(ctx, product)
}

func (s *Service) Get(ctx context.Context, businessID, id int64) (*Product, error) {
	return s.repo.Get(ctx, businessID, id)
}

func (s *Service) List(ctx context.Context, businessID int64, filters ListFilters) ([]Product, int, error) {
	if filters.Limit <= 0 || filters.Limit > 100 {
		filters.Limit = 50
	}
	return s.repo.List(ctx, businessID, filters)
}

func (s *Service) Update(ctx context.Context, businessID, id int64, req UpdateProductRequest) (*Product, error) {
	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.Unit != nil {
		updates["unit"] = *req.Unit
	}
	if req.BuyingPrice != nil {
		if req.BuyingPrice.IsNegative() {
			return nil, fmt.Errorf("%w: buying price must not be negative", shared.ErrValidation)
		}
		updates["buying_price"] = req.BuyingPrice.Round(2)
	}
	if req.SellingPrice != nil {
		if req.SellingPrice.IsNegative() {
			return nil, fmt.Errorf("%w: selling price must not be negative", shared.ErrValidation)
		}
		updates["selling_price"] = req.SellingPrice.Round(2)
	}
	if req.TaxPercent != nil {
		updates["tax_percent"] = *req.TaxPercent
	}
	if req.MinStockLevel != nil {
		updates["min_stock_level"] = *req.MinStockLevel
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		if err := s.repo.Update(ctx, businessID, id, updates); err != nil {
			return nil, fmt.Errorf("update product: %w", err)
		}
	}
	return s.repo.Get(ctx, businessID, id)
}

func (s *Service) Delete(ctx context.Context, businessID, id int64) error {
	return s.repo.Delete(ctx, businessID, id)
}
