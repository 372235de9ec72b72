package customers

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ledgerline/ledgerline/internal/shared"
)

// Service handles customer business logic.
type Service struct {
	repo Repository
}

// NewService builds Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, businessID int64, req CreateCustomerRequest) (*Customer, error) {
	customer := Customer{
		BusinessID:       businessID,
		Name:             req.Name,
		Phone:            req.Phone,
		Email:            req.Email,
		Address:          req.Address,
		GSTIN:            req.GSTIN,
		TotalPurchases:   decimal.Zero,
		TotalOutstanding: decimal.Zero,
		PaymentStatus:    shared.PaymentStatusUnpaid,
	}
	return s.repo.Create(ctx, customer)
}

func (s *Service) Get(ctx context.Context, businessID, id int64) (*Customer, error) {
	return s.repo.Get(ctx, businessID, id)
}

func (s *Service) List(ctx context.Context, businessID int64, filters ListFilters) ([]Customer, int, error) {
	if filters.Limit <= 0 || filters.Limit > 100 {
		filters.Limit = 50
	}
	if filters.Status != "" && !filters.Status.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown payment status %q", shared.ErrValidation, filters.Status)
	}
	return s.repo.List(ctx, businessID, filters)
}

func (s *Service) Update(ctx context.Context, businessID, id int64, req UpdateCustomerRequest) (*Customer, error) {
	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
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

	if len(updates) > 0 {
		if err := s.repo.Update(ctx, businessID, id, updates); err != nil {
			return nil, fmt.Errorf("update customer: %w", err)
		}
	}
	return s.repo.Get(ctx, businessID, id)
}

// Block stops a customer from being referenced by new invoices.
func (s *Service) Block(ctx context.Context, businessID, id int64) error {
	return s.repo.SetBlocked(ctx, businessID, id, true)
}

// Unblock re-enables a blocked customer.
func (s *Service) Unblock(ctx context.Context, businessID, id int64) error {
	return s.repo.SetBlocked(ctx, businessID, id, false)
}

func (s *Service) Delete(ctx context.Context, businessID, id int64) error {
	customer, err := s.repo.Get(ctx, businessID, id)
	if err != nil {
		return err
	}
	if !customer.TotalOutstanding.IsZero() {
		return fmt.Errorf("%w: customer %d has outstanding balance", shared.ErrValidation, id)
	}
	return s.repo.Delete(ctx, businessID, id)
}
