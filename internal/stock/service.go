package stock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ledgerline/ledgerline/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	History(ctx context.Context, businessID, productID int64, limit int) ([]Event, error)
	LowStock(ctx context.Context, businessID int64) ([]ProductStock, error)
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates stock adjustments outside of invoicing.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// AdjustInput describes a manual stock movement.
type AdjustInput struct {
	ProductID int64
	Delta     int64
	Reason    Reason
	Note      string
	ActorID   int64
}

// Adjust applies one movement to a product and appends its trail entry.
// Sales are committed through invoicing, not here.
func (s *Service) Adjust(ctx context.Context, businessID int64, input AdjustInput) (Event, error) {
	if input.ProductID == 0 {
		return Event{}, fmt.Errorf("%w: product required", shared.ErrValidation)
	}
	if input.Delta == 0 {
		return Event{}, fmt.Errorf("%w: quantity change must be non zero", shared.ErrValidation)
	}
	if !input.Reason.Valid() {
		return Event{}, fmt.Errorf("%w: unknown reason %q", shared.ErrValidation, input.Reason)
	}
	if input.Reason == ReasonSale {
		return Event{}, fmt.Errorf("%w: sale movements are created by invoice commit", shared.ErrValidation)
	}

	var event Event
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		product, err := tx.GetProductForUpdate(ctx, businessID, input.ProductID)
		if err != nil {
			return err
		}
		newStock, err := Apply(product, input.Delta, input.Reason)
		if err != nil {
			return err
		}
		event = BuildEvent(product, input.Delta, newStock, input.Reason, input.Note, time.Now().UTC())
		if event.ID, err = tx.InsertEvent(ctx, event); err != nil {
			return err
		}
		return tx.UpdateProductStock(ctx, product.ID, newStock)
	})
	if err != nil {
		return Event{}, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  input.ActorID,
			Action:   fmt.Sprintf("stock:%s", input.Reason),
			Entity:   "stock_event",
			EntityID: fmt.Sprintf("%d", event.ID),
			Meta: map[string]any{
				"product_id": input.ProductID,
				"delta":      input.Delta,
				"note":       input.Note,
			},
		})
	}
	return event, nil
}

// History lists a product's trail, verifying business scope.
func (s *Service) History(ctx context.Context, businessID, productID int64, limit int) ([]Event, error) {
	if productID == 0 {
		return nil, fmt.Errorf("%w: product required", shared.ErrValidation)
	}
	events, err := s.repo.History(ctx, businessID, productID, limit)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	return events, nil
}

// LowStock lists products at or below their minimum level.
func (s *Service) LowStock(ctx context.Context, businessID int64) ([]ProductStock, error) {
	return s.repo.LowStock(ctx, businessID)
}
