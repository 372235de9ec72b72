package billing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledgerline/ledgerline/internal/shared"
	"github.com/ledgerline/ledgerline/internal/stock"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetInvoice(ctx context.Context, businessID, invoiceID int64) (*Invoice, error)
	ListInvoices(ctx context.Context, businessID int64, filters ListFilters) ([]Invoice, int, error)
	ListPayments(ctx context.Context, businessID, invoiceID int64) ([]Payment, error)
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// MetricsPort counts commit and payment outcomes.
type MetricsPort interface {
	ObserveCommit(outcome string)
	ObservePayment()
}

// CachePort invalidates cached report aggregates after a write.
type CachePort interface {
	Invalidate(ctx context.Context, businessID int64) error
}

// Service orchestrates invoice commits and payment reconciliation.
type Service struct {
	repo        RepositoryPort
	audit       AuditPort
	metrics     MetricsPort
	cache       CachePort
	idempotency *shared.IdempotencyStore
}

// NewService builds Service. audit, metrics, cache and idempotency are
// optional.
func NewService(repo RepositoryPort, audit AuditPort, metrics MetricsPort, cache CachePort, idem *shared.IdempotencyStore) *Service {
	return &Service{repo: repo, audit: audit, metrics: metrics, cache: cache, idempotency: idem}
}

// CommitLine is one requested invoice line. UnitPrice and TaxPercent
// default to the product's selling price and tax rate when nil.
type CommitLine struct {
	ProductID  int64
	Quantity   int64
	UnitPrice  *decimal.Decimal
	TaxPercent *decimal.Decimal
}

// CommitInvoiceInput describes an invoice commit request.
type CommitInvoiceInput struct {
	CustomerID     *int64
	Lines          []CommitLine
	Discount       decimal.Decimal
	PaymentMethod  PaymentMethod
	InitialStatus  shared.PaymentStatus
	Notes          string
	ActorID        int64
	IdempotencyKey string
}

// CommitInvoice runs the whole sale as one transaction: lock and check
// stock for every line, price the invoice, debit stock with a trail
// entry per line, resolve the customer (materializing a walk-in row
// when absent), allocate the business's next invoice number, persist
// the invoice and lines, then update the customer's aggregates. Any
// failure rolls the whole thing back.
func (s *Service) CommitInvoice(ctx context.Context, businessID int64, input CommitInvoiceInput) (*Invoice, error) {
	if len(input.Lines) == 0 {
		return nil, fmt.Errorf("%w: at least one line required", shared.ErrInvalidInvoice)
	}
	if !input.PaymentMethod.Valid() {
		return nil, fmt.Errorf("%w: unknown payment method %q", shared.ErrValidation, input.PaymentMethod)
	}
	if input.InitialStatus == "" {
		input.InitialStatus = shared.PaymentStatusUnpaid
	}
	if !input.InitialStatus.Valid() {
		return nil, fmt.Errorf("%w: unknown payment status %q", shared.ErrValidation, input.InitialStatus)
	}
	if input.Discount.IsNegative() {
		return nil, fmt.Errorf("%w: discount must not be negative", shared.ErrInvalidInvoice)
	}

	insertedKey := false
	if s.idempotency != nil && input.IdempotencyKey != "" {
		if err := s.idempotency.CheckAndInsert(ctx, input.IdempotencyKey, "billing"); err != nil {
			return nil, err
		}
		insertedKey = true
	}

	var committed *Invoice
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		committed = nil

		// Lock products in id order so concurrent commits over the
		// same set cannot deadlock.
		ordered := make([]CommitLine, len(input.Lines))
		copy(ordered, input.Lines)
		sort.Slice(ordered, func(i, j int) bool { return ordered[i].ProductID < ordered[j].ProductID })

		products := make(map[int64]Product, len(ordered))
		for _, line := range ordered {
			if _, ok := products[line.ProductID]; ok {
				continue
			}
			product, err := tx.GetProductForUpdate(ctx, businessID, line.ProductID)
			if err != nil {
				return err
			}
			products[line.ProductID] = product
		}

		// Aggregate quantities per product before the stock check so
		// two lines of the same product cannot slip past it together.
		required := make(map[int64]int64)
		priceInputs := make([]LineInput, 0, len(input.Lines))
		for _, line := range input.Lines {
			if line.Quantity <= 0 {
				return fmt.Errorf("%w: quantity must be positive for product %d", shared.ErrInvalidInvoice, line.ProductID)
			}
			required[line.ProductID] += line.Quantity
			product := products[line.ProductID]
			unitPrice := product.SellingPrice
			if line.UnitPrice != nil {
				unitPrice = *line.UnitPrice
			}
			taxPercent := product.TaxPercent
			if line.TaxPercent != nil {
				taxPercent = *line.TaxPercent
			}
			priceInputs = append(priceInputs, LineInput{
				ProductID:  line.ProductID,
				Quantity:   line.Quantity,
				UnitPrice:  unitPrice,
				TaxPercent: taxPercent,
			})
		}
		for productID, qty := range required {
			product := products[productID]
			if qty > product.CurrentStock {
				return fmt.Errorf("%w: product %q has %d in stock, need %d",
					shared.ErrInsufficientStock, product.Name, product.CurrentStock, qty)
			}
		}

		priced, totals, err := PriceLines(priceInputs, input.Discount)
		if err != nil {
			return err
		}

		customerID, err := s.resolveCustomer(ctx, tx, businessID, input.CustomerID)
		if err != nil {
			return err
		}

		seq, err := tx.NextInvoiceSeq(ctx, businessID)
		if err != nil {
			return err
		}
		number := InvoiceNumber(businessID, seq)
		now := time.Now().UTC()

		for productID, qty := range required {
			product := products[productID]
			newStock, err := stock.Apply(product.ProductStock, -qty, stock.ReasonSale)
			if err != nil {
				return err
			}
			event := stock.BuildEvent(product.ProductStock, -qty, newStock, stock.ReasonSale, "invoice "+number, now)
			if _, err := tx.InsertStockEvent(ctx, event); err != nil {
				return err
			}
			if err := tx.UpdateProductStock(ctx, productID, newStock); err != nil {
				return err
			}
		}

		invoice := Invoice{
			BusinessID:     businessID,
			CustomerID:     &customerID,
			InvoiceNumber:  number,
			Subtotal:       totals.Subtotal,
			TaxAmount:      totals.TaxAmount,
			DiscountAmount: totals.DiscountAmount,
			GrandTotal:     totals.GrandTotal,
			PaymentMethod:  input.PaymentMethod,
			PaymentStatus:  input.InitialStatus,
			Notes:          input.Notes,
			CreatedAt:      now,
		}
		invoiceID, err := tx.InsertInvoice(ctx, invoice)
		if err != nil {
			return err
		}
		invoice.ID = invoiceID

		lines := make([]InvoiceLine, 0, len(priced))
		for _, p := range priced {
			lines = append(lines, InvoiceLine{
				InvoiceID:   invoiceID,
				ProductID:   p.ProductID,
				ProductName: products[p.ProductID].Name,
				Quantity:    p.Quantity,
				UnitPrice:   p.UnitPrice.Round(2),
				TaxPercent:  p.TaxPercent,
				TaxAmount:   p.TaxAmount,
				TotalAmount: p.TotalAmount,
			})
		}
		if err := tx.InsertInvoiceLines(ctx, invoiceID, lines); err != nil {
			return err
		}
		invoice.Lines = lines

		if err := s.reconcileCustomer(ctx, tx, businessID, customerID, totals.GrandTotal); err != nil {
			return err
		}

		committed = &invoice
		return nil
	})
	if err != nil {
		if insertedKey {
			_ = s.idempotency.Delete(ctx, input.IdempotencyKey)
		}
		s.observeCommit(err)
		return nil, err
	}
	s.observeCommit(nil)

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  input.ActorID,
			Action:   "billing:commit",
			Entity:   "invoice",
			EntityID: committed.InvoiceNumber,
			Meta: map[string]any{
				"business_id": businessID,
				"grand_total": committed.GrandTotal.String(),
				"lines":       len(committed.Lines),
			},
		})
	}
	s.invalidate(ctx, businessID)
	return committed, nil
}

// RecordPayment persists one payment and reconciles the invoice and its
// customer from the cumulative paid total.
func (s *Service) RecordPayment(ctx context.Context, businessID, invoiceID int64, amount decimal.Decimal, method PaymentMethod, reference, notes string, actorID int64) (*Payment, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", shared.ErrInvalidPayment)
	}
	if !method.Valid() {
		return nil, fmt.Errorf("%w: unknown payment method %q", shared.ErrValidation, method)
	}
	if reference == "" {
		reference = uuid.NewString()
	}

	var recorded *Payment
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		recorded = nil

		invoice, err := tx.GetInvoiceForUpdate(ctx, businessID, invoiceID)
		if err != nil {
			return err
		}

		payment := Payment{
			InvoiceID: invoiceID,
			Amount:    amount.Round(2),
			Method:    method,
			Reference: reference,
			Notes:     notes,
			CreatedAt: time.Now().UTC(),
		}
		if payment.ID, err = tx.InsertPayment(ctx, payment); err != nil {
			return err
		}

		totalPaid, err := tx.SumPayments(ctx, invoiceID)
		if err != nil {
			return err
		}
		newStatus := invoice.PaymentStatus
		switch {
		case totalPaid.GreaterThanOrEqual(invoice.GrandTotal):
			newStatus = shared.PaymentStatusPaid
		case totalPaid.IsPositive():
			newStatus = shared.PaymentStatusPartial
		}
		if newStatus != invoice.PaymentStatus {
			if err := tx.UpdateInvoiceStatus(ctx, invoiceID, newStatus); err != nil {
				return err
			}
		}

		if invoice.CustomerID != nil {
			if err := s.reconcileCustomer(ctx, tx, businessID, *invoice.CustomerID, decimal.Zero); err != nil {
				return err
			}
		}

		recorded = &payment
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ObservePayment()
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "billing:payment",
			Entity:   "payment",
			EntityID: fmt.Sprintf("%d", recorded.ID),
			Meta: map[string]any{
				"invoice_id": invoiceID,
				"amount":     recorded.Amount.String(),
				"method":     string(method),
			},
		})
	}
	s.invalidate(ctx, businessID)
	return recorded, nil
}

// UpdateInvoiceStatus overrides an invoice's payment status and
// re-derives the customer's overall status.
func (s *Service) UpdateInvoiceStatus(ctx context.Context, businessID, invoiceID int64, status shared.PaymentStatus, actorID int64) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown payment status %q", shared.ErrValidation, status)
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		invoice, err := tx.GetInvoiceForUpdate(ctx, businessID, invoiceID)
		if err != nil {
			return err
		}
		if invoice.PaymentStatus == status {
			return nil
		}
		if err := tx.UpdateInvoiceStatus(ctx, invoiceID, status); err != nil {
			return err
		}
		if invoice.CustomerID != nil {
			return s.reconcileCustomer(ctx, tx, businessID, *invoice.CustomerID, decimal.Zero)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "billing:status",
			Entity:   "invoice",
			EntityID: fmt.Sprintf("%d", invoiceID),
			Meta:     map[string]any{"status": string(status)},
		})
	}
	s.invalidate(ctx, businessID)
	return nil
}

// DeleteInvoice removes an invoice, restoring the stock it sold and
// unwinding the customer's aggregates.
func (s *Service) DeleteInvoice(ctx context.Context, businessID, invoiceID int64, actorID int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		invoice, err := tx.GetInvoiceForUpdate(ctx, businessID, invoiceID)
		if err != nil {
			return err
		}
		lines, err := tx.ListInvoiceLines(ctx, invoiceID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		for _, line := range lines {
			product, err := tx.GetProductForUpdate(ctx, businessID, line.ProductID)
			if err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					continue
				}
				return err
			}
			newStock, err := stock.Apply(product.ProductStock, line.Quantity, stock.ReasonReturn)
			if err != nil {
				return err
			}
			event := stock.BuildEvent(product.ProductStock, line.Quantity, newStock, stock.ReasonReturn, "invoice "+invoice.InvoiceNumber+" deleted", now)
			if _, err := tx.InsertStockEvent(ctx, event); err != nil {
				return err
			}
			if err := tx.UpdateProductStock(ctx, line.ProductID, newStock); err != nil {
				return err
			}
		}

		if err := tx.DeleteInvoice(ctx, invoiceID); err != nil {
			return err
		}

		if invoice.CustomerID != nil {
			if err := s.reconcileCustomer(ctx, tx, businessID, *invoice.CustomerID, invoice.GrandTotal.Neg()); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "billing:delete",
			Entity:   "invoice",
			EntityID: fmt.Sprintf("%d", invoiceID),
			Meta:     map[string]any{"business_id": businessID},
		})
	}
	s.invalidate(ctx, businessID)
	return nil
}

// GetInvoice loads an invoice with its lines.
func (s *Service) GetInvoice(ctx context.Context, businessID, invoiceID int64) (*Invoice, error) {
	return s.repo.GetInvoice(ctx, businessID, invoiceID)
}

// ListInvoices lists a business's invoices.
func (s *Service) ListInvoices(ctx context.Context, businessID int64, filters ListFilters) ([]Invoice, int, error) {
	if filters.Limit <= 0 || filters.Limit > 100 {
		filters.Limit = 50
	}
	if filters.Status != "" && !filters.Status.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown payment status %q", shared.ErrValidation, filters.Status)
	}
	return s.repo.ListInvoices(ctx, businessID, filters)
}

// ListPayments lists an invoice's payments.
func (s *Service) ListPayments(ctx context.Context, businessID, invoiceID int64) ([]Payment, error) {
	return s.repo.ListPayments(ctx, businessID, invoiceID)
}

// reconcileCustomer rebuilds the customer's derived fields from the
// invoice set: purchases shift by delta (floored at zero), outstanding
// is recomputed as the unpaid balance over every invoice not marked
// paid, and the status comes from the aggregator. Every write path
// funnels through here so the stored aggregates always agree with the
// invoices they summarize.
func (s *Service) reconcileCustomer(ctx context.Context, tx TxRepository, businessID, customerID int64, purchasesDelta decimal.Decimal) error {
	customer, err := tx.GetCustomerForUpdate(ctx, businessID, customerID)
	if err != nil {
		return err
	}
	purchases := customer.TotalPurchases.Add(purchasesDelta)
	if purchases.IsNegative() {
		purchases = decimal.Zero
	}
	outstanding, err := tx.SumCustomerOutstanding(ctx, customerID)
	if err != nil {
		return err
	}
	statuses, err := tx.ListCustomerInvoiceStatuses(ctx, customerID)
	if err != nil {
		return err
	}
	return tx.UpdateCustomerAggregates(ctx, customerID, purchases, outstanding, DeriveCustomerStatus(statuses))
}

func (s *Service) resolveCustomer(ctx context.Context, tx TxRepository, businessID int64, customerID *int64) (int64, error) {
	if customerID != nil {
		customer, err := tx.GetCustomerForUpdate(ctx, businessID, *customerID)
		if err != nil {
			return 0, err
		}
		if customer.IsBlocked {
			return 0, fmt.Errorf("%w: customer %d is blocked", shared.ErrValidation, customer.ID)
		}
		return customer.ID, nil
	}
	return tx.CreateWalkInCustomer(ctx, businessID)
}

func (s *Service) observeCommit(err error) {
	if s.metrics == nil {
		return
	}
	switch {
	case err == nil:
		s.metrics.ObserveCommit("committed")
	case errors.Is(err, shared.ErrInsufficientStock):
		s.metrics.ObserveCommit("insufficient_stock")
	case errors.Is(err, shared.ErrInvalidInvoice):
		s.metrics.ObserveCommit("invalid")
	default:
		s.metrics.ObserveCommit("error")
	}
}

func (s *Service) invalidate(ctx context.Context, businessID int64) {
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, businessID)
	}
}
