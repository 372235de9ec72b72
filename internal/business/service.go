package business

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ledgerline/ledgerline/internal/shared"
)

// Service handles tenant business logic.
type Service struct {
	repo Repository
}

// NewService builds Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, req CreateBusinessRequest) (*Business, error) {
	b := Business{
		Name:      req.Name,
		OwnerName: req.OwnerName,
		Phone:     req.Phone,
		Email:     req.Email,
		Address:   req.Address,
		GSTIN:     req.GSTIN,
		GSTRate:   decimal.NewFromInt(18),
		CGSTRate:  decimal.NewFromInt(9),
		SGSTRate:  decimal.NewFromInt(9),
	}
	if req.GSTRate != nil {
		b.GSTRate = *req.GSTRate
	}
	if req.CGSTRate != nil {
		b.CGSTRate = *req.CGSTRate
	}
	if req.SGSTRate != nil {
		b.SGSTRate = *req.SGSTRate
	}
	if err := validateRates(b.GSTRate, b.CGSTRate, b.SGSTRate); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, b)
}

func (s *Service) Get(ctx context.Context, id int64) (*Business, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateBusinessRequest) (*Business, error) {
	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.OwnerName != nil {
		updates["owner_name"] = *req.OwnerName
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if req.GSTIN != nil {
		updates["gstin"] = *req.GSTIN
	}
	if req.GSTRate != nil || req.CGSTRate != nil || req.SGSTRate != nil {
		current, err := s.repo.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		gst, cgst, sgst := current.GSTRate, current.CGSTRate, current.SGSTRate
		if req.GSTRate != nil {
			gst = *req.GSTRate
		}
		if req.CGSTRate != nil {
			cgst = *req.CGSTRate
		}
		if req.SGSTRate != nil {
			sgst = *req.SGSTRate
		}
		if err := validateRates(gst, cgst, sgst); err != nil {
			return nil, err
		}
		updates["gst_rate"] = gst
		updates["cgst_rate"] = cgst
		updates["sgst_rate"] = sgst
	}

	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			return nil, fmt.Errorf("update business: %w", err)
		}
	}
	return s.repo.Get(ctx, id)
}

func validateRates(gst, cgst, sgst decimal.Decimal) error {
	hundred := decimal.NewFromInt(100)
	for _, rate := range []decimal.Decimal{gst, cgst, sgst} {
		if rate.IsNegative() || rate.GreaterThan(hundred) {
			return fmt.Errorf("%w: tax rates must be between 0 and 100", shared.ErrValidation)
		}
	}
	return nil
}
