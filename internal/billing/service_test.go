package billing

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/ledgerline/internal/customers"
	"github.com/ledgerline/ledgerline/internal/shared"
	"github.com/ledgerline/ledgerline/internal/stock"
)

// memoryState is the whole dataset; WithTx snapshots it so a failing
// callback rolls everything back, matching the real transaction.
type memoryState struct {
	products  map[int64]Product
	events    []stock.Event
	invoices  map[int64]Invoice
	lines     map[int64][]InvoiceLine
	payments  map[int64][]Payment
	customers map[int64]customers.Customer
	sequences map[int64]int64
	nextID    int64
}

func (s *memoryState) clone() *memoryState {
	c := &memoryState{
		products:  make(map[int64]Product, len(s.products)),
		events:    append([]stock.Event(nil), s.events...),
		invoices:  make(map[int64]Invoice, len(s.invoices)),
		lines:     make(map[int64][]InvoiceLine, len(s.lines)),
		payments:  make(map[int64][]Payment, len(s.payments)),
		customers: make(map[int64]customers.Customer, len(s.customers)),
		sequences: make(map[int64]int64, len(s.sequences)),
		nextID:    s.nextID,
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.invoices {
		c.invoices[k] = v
	}
	for k, v := range s.lines {
		c.lines[k] = append([]InvoiceLine(nil), v...)
	}
	for k, v := range s.payments {
		c.payments[k] = append([]Payment(nil), v...)
	}
	for k, v := range s.customers {
		c.customers[k] = v
	}
	for k, v := range s.sequences {
		c.sequences[k] = v
	}
	return c
}

type memoryRepo struct {
	mu    sync.Mutex
	state *memoryState
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{state: &memoryState{
		products:  make(map[int64]Product),
		invoices:  make(map[int64]Invoice),
		lines:     make(map[int64][]InvoiceLine),
		payments:  make(map[int64][]Payment),
		customers: make(map[int64]customers.Customer),
		sequences: make(map[int64]int64),
	}}
}

// WithTx serializes callers the way the database serializes the
// row-locked transactions, so tests can drive it from many goroutines.
func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	snapshot := r.state.clone()
	if err := fn(ctx, &memoryTx{state: r.state}); err != nil {
		r.state = snapshot
		return err
	}
	return nil
}

func (r *memoryRepo) GetInvoice(ctx context.Context, businessID, invoiceID int64) (*Invoice, error) {
	inv, ok := r.state.invoices[invoiceID]
	if !ok || inv.BusinessID != businessID {
		return nil, fmt.Errorf("%w: invoice %d", shared.ErrNotFound, invoiceID)
	}
	inv.Lines = append([]InvoiceLine(nil), r.state.lines[invoiceID]...)
	return &inv, nil
}

func (r *memoryRepo) ListInvoices(ctx context.Context, businessID int64, filters ListFilters) ([]Invoice, int, error) {
	var out []Invoice
	for _, inv := range r.state.invoices {
		if inv.BusinessID != businessID {
			continue
		}
		if filters.Status != "" && inv.PaymentStatus != filters.Status {
			continue
		}
		out = append(out, inv)
	}
	return out, len(out), nil
}

func (r *memoryRepo) ListPayments(ctx context.Context, businessID, invoiceID int64) ([]Payment, error) {
	return append([]Payment(nil), r.state.payments[invoiceID]...), nil
}

type memoryTx struct {
	state *memoryState
}

func (t *memoryTx) GetProductForUpdate(ctx context.Context, businessID, productID int64) (Product, error) {
	p, ok := t.state.products[productID]
	if !ok || p.BusinessID != businessID {
		return Product{}, fmt.Errorf("%w: product %d", shared.ErrNotFound, productID)
	}
	return p, nil
}

func (t *memoryTx) UpdateProductStock(ctx context.Context, productID, newStock int64) error {
	p := t.state.products[productID]
	p.CurrentStock = newStock
	t.state.products[productID] = p
	return nil
}

func (t *memoryTx) InsertStockEvent(ctx context.Context, event stock.Event) (int64, error) {
	t.state.nextID++
	event.ID = t.state.nextID
	t.state.events = append(t.state.events, event)
	return event.ID, nil
}

func (t *memoryTx) NextInvoiceSeq(ctx context.Context, businessID int64) (int64, error) {
	t.state.sequences[businessID]++
	return t.state.sequences[businessID], nil
}

func (t *memoryTx) InsertInvoice(ctx context.Context, invoice Invoice) (int64, error) {
	for _, existing := range t.state.invoices {
		if existing.BusinessID == invoice.BusinessID && existing.InvoiceNumber == invoice.InvoiceNumber {
			return 0, fmt.Errorf("%w: invoice number %s", shared.ErrDuplicate, invoice.InvoiceNumber)
		}
	}
	t.state.nextID++
	invoice.ID = t.state.nextID
	invoice.Lines = nil
	t.state.invoices[invoice.ID] = invoice
	return invoice.ID, nil
}

func (t *memoryTx) InsertInvoiceLines(ctx context.Context, invoiceID int64, lines []InvoiceLine) error {
	for _, line := range lines {
		t.state.nextID++
		line.ID = t.state.nextID
		line.InvoiceID = invoiceID
		t.state.lines[invoiceID] = append(t.state.lines[invoiceID], line)
	}
	return nil
}

func (t *memoryTx) GetInvoiceForUpdate(ctx context.Context, businessID, invoiceID int64) (Invoice, error) {
	inv, ok := t.state.invoices[invoiceID]
	if !ok || inv.BusinessID != businessID {
		return Invoice{}, fmt.Errorf("%w: invoice %d", shared.ErrNotFound, invoiceID)
	}
	return inv, nil
}

func (t *memoryTx) ListInvoiceLines(ctx context.Context, invoiceID int64) ([]InvoiceLine, error) {
	return append([]InvoiceLine(nil), t.state.lines[invoiceID]...), nil
}

func (t *memoryTx) UpdateInvoiceStatus(ctx context.Context, invoiceID int64, status shared.PaymentStatus) error {
	inv := t.state.invoices[invoiceID]
	inv.PaymentStatus = status
	t.state.invoices[invoiceID] = inv
	return nil
}

func (t *memoryTx) DeleteInvoice(ctx context.Context, invoiceID int64) error {
	delete(t.state.invoices, invoiceID)
	delete(t.state.lines, invoiceID)
	delete(t.state.payments, invoiceID)
	return nil
}

func (t *memoryTx) InsertPayment(ctx context.Context, payment Payment) (int64, error) {
	t.state.nextID++
	payment.ID = t.state.nextID
	t.state.payments[payment.InvoiceID] = append(t.state.payments[payment.InvoiceID], payment)
	return payment.ID, nil
}

func (t *memoryTx) SumPayments(ctx context.Context, invoiceID int64) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, p := range t.state.payments[invoiceID] {
		total = total.Add(p.Amount)
	}
	return total, nil
}

func (t *memoryTx) CreateWalkInCustomer(ctx context.Context, businessID int64) (int64, error) {
	t.state.nextID++
	t.state.customers[t.state.nextID] = customers.Customer{
		ID:               t.state.nextID,
		BusinessID:       businessID,
		Name:             customers.WalkInName,
		TotalPurchases:   decimal.Zero,
		TotalOutstanding: decimal.Zero,
		PaymentStatus:    shared.PaymentStatusUnpaid,
	}
	return t.state.nextID, nil
}

func (t *memoryTx) GetCustomerForUpdate(ctx context.Context, businessID, customerID int64) (customers.Customer, error) {
	c, ok := t.state.customers[customerID]
	if !ok || c.BusinessID != businessID {
		return customers.Customer{}, fmt.Errorf("%w: customer %d", shared.ErrNotFound, customerID)
	}
	return c, nil
}

func (t *memoryTx) UpdateCustomerAggregates(ctx context.Context, customerID int64, totalPurchases, totalOutstanding decimal.Decimal, status shared.PaymentStatus) error {
	c := t.state.customers[customerID]
	c.TotalPurchases = totalPurchases
	c.TotalOutstanding = totalOutstanding
	c.PaymentStatus = status
	t.state.customers[customerID] = c
	return nil
}

func (t *memoryTx) SumCustomerOutstanding(ctx context.Context, customerID int64) (decimal.Decimal, error) {
	total := decimal.Zero
	for id, inv := range t.state.invoices {
		if inv.CustomerID == nil || *inv.CustomerID != customerID {
			continue
		}
		if inv.PaymentStatus == shared.PaymentStatusPaid {
			continue
		}
		paid := decimal.Zero
		for _, p := range t.state.payments[id] {
			paid = paid.Add(p.Amount)
		}
		total = total.Add(inv.GrandTotal.Sub(paid))
	}
	return total, nil
}

func (t *memoryTx) ListCustomerInvoiceStatuses(ctx context.Context, customerID int64) ([]shared.PaymentStatus, error) {
	var statuses []shared.PaymentStatus
	for _, inv := range t.state.invoices {
		if inv.CustomerID != nil && *inv.CustomerID == customerID {
			statuses = append(statuses, inv.PaymentStatus)
		}
	}
	return statuses, nil
}

func seedProduct(repo *memoryRepo, id, stockQty int64) {
	repo.state.products[id] = Product{
		ProductStock: stock.ProductStock{
			ID:           id,
			BusinessID:   1,
			Name:         fmt.Sprintf("Product %d", id),
			CurrentStock: stockQty,
		},
		SellingPrice: decimal.NewFromInt(100),
		TaxPercent:   decimal.NewFromInt(10),
	}
}

func seedCustomer(repo *memoryRepo, id int64) {
	repo.state.customers[id] = customers.Customer{
		ID:               id,
		BusinessID:       1,
		Name:             "Asha Traders",
		TotalPurchases:   decimal.Zero,
		TotalOutstanding: decimal.Zero,
		PaymentStatus:    shared.PaymentStatusUnpaid,
	}
}

func commitInput(customerID *int64, lines ...CommitLine) CommitInvoiceInput {
	return CommitInvoiceInput{
		CustomerID:    customerID,
		Lines:         lines,
		PaymentMethod: PaymentMethodCash,
		InitialStatus: shared.PaymentStatusUnpaid,
	}
}

func price(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func TestCommitInvoice(t *testing.T) {
	repo := newMemoryRepo()
	seedProduct(repo, 1, 10)
	seedCustomer(repo, 7)
	svc := NewService(repo, nil, nil, nil, nil)

	customerID := int64(7)
	tax := decimal.NewFromInt(10)
	invoice, err := svc.CommitInvoice(context.Background(), 1, commitInput(&customerID, CommitLine{
		ProductID:  1,
		Quantity:   3,
		UnitPrice:  price("100"),
		TaxPercent: &tax,
	}))
	require.NoError(t, err)

	require.Equal(t, "INV-1-000001", invoice.InvoiceNumber)
	require.True(t, invoice.Subtotal.Equal(decimal.NewFromInt(300)))
	require.True(t, invoice.TaxAmount.Equal(decimal.NewFromInt(30)))
	require.True(t, invoice.GrandTotal.Equal(decimal.NewFromInt(330)))
	require.Len(t, invoice.Lines, 1)

	require.Equal(t, int64(7), repo.state.products[1].CurrentStock)
	require.Len(t, repo.state.events, 1)
	event := repo.state.events[0]
	require.Equal(t, stock.ReasonSale, event.Reason)
	require.Equal(t, int64(10), event.PreviousStock)
	require.Equal(t, int64(7), event.NewStock)
	require.Equal(t, int64(-3), event.QuantityChange)

	customer := repo.state.customers[7]
	require.True(t, customer.TotalPurchases.Equal(decimal.NewFromInt(330)))
	require.True(t, customer.TotalOutstanding.Equal(decimal.NewFromInt(330)))
	require.Equal(t, shared.PaymentStatusUnpaid, customer.PaymentStatus)
}

func TestCommitInvoiceWalkIn(t *testing.T) {
	repo := newMemoryRepo()
	seedProduct(repo, 1, 10)
	svc := NewService(repo, nil, nil, nil, nil)

	invoice, err := svc.CommitInvoice(context.Background(), 1, commitInput(nil, CommitLine{ProductID: 1, Quantity: 1}))
	require.NoError(t, err)
	require.NotNil(t, invoice.CustomerID)

	walkIn := repo.state.customers[*invoice.CustomerID]
	require.Equal(t, customers.WalkInName, walkIn.Name)
	require.True(t, walkIn.TotalPurchases.Equal(decimal.NewFromInt(110)))
}

func TestCommitInvoiceDefaultsPriceFromProduct(t *testing.T) {
	repo := newMemoryRepo()
	seedProduct(repo, 1, 10)
	seedCustomer(repo, 7)
	svc := NewService(repo, nil, nil, nil, nil)

	customerID := int64(7)
	invoice, err := svc.CommitInvoice(context.Background(), 1, commitInput(&customerID, CommitLine{ProductID: 1, Quantity: 2}))
	require.NoError(t, err)
	// selling price 100 at 10% tax
	require.True(t, invoice.GrandTotal.Equal(decimal.NewFromInt(220)))
}

func TestCommitInvoiceInsufficientStockRollsBack(t *testing.T) {
	repo := newMemoryRepo()
	seedProduct(repo, 1, 10)
	seedProduct(repo, 2, 1)
	seedCustomer(repo, 7)
	svc := NewService(repo, nil, nil, nil, nil)

	customerID := int64(7)
	_, err := svc.CommitInvoice(context.Background(), 1, commitInput(&customerID,
		CommitLine{ProductID: 1, Quantity: 3},
		CommitLine{ProductID: 2, Quantity: 5},
	))
	require.ErrorIs(t, err, shared.ErrInsufficientStock)

	require.Equal(t, int64(10), repo.state.products[1].CurrentStock)
	require.Equal(t, int64(1), repo.state.products[2].CurrentStock)
	require.Empty(t, repo.state.events)
	require.Empty(t, repo.state.invoices)
	customer := repo.state.customers[7]
	require.True(t, customer.TotalPurchases.IsZero())
}

func TestCommitInvoiceAggregatesSameProductLines(t *testing.T) {
	repo := newMemoryRepo()
	seedProduct(repo, 1, 10)
	svc := NewService(repo, nil, nil, nil, nil)

	_, err := svc.CommitInvoice(context.Background(), 1, commitInput(nil,
		CommitLine{ProductID: 1, Quantity: 6},
		CommitLine{ProductID: 1, Quantity: 5},
	))
	require.ErrorIs(t, err, shared.ErrInsufficientStock)
	require.Equal(t, int64(10), repo.state.products[1].CurrentStock)
}

func TestCommitInvoiceSequencePerBusiness(t *testing.T) {
	repo := newMemoryRepo()
	seedProduct(repo, 1, 100)
	repo.state.products[2] = Product{
		ProductStock: stock.ProductStock{ID: 2, BusinessID: 2, Name: "Other", CurrentStock: 100},
		SellingPrice: decimal.NewFromInt(50),
	}
	svc := NewService(repo, nil, nil, nil, nil)

	first, err := svc.CommitInvoice(context.Background(), 1, commitInput(nil, CommitLine{ProductID: 1, Quantity: 1}))
	require.NoError(t, err)
	second, err := svc.CommitInvoice(context.Background(), 1, commitInput(nil, CommitLine{ProductID: 1, Quantity: 1}))
	require.NoError(t, err)
	other, err := svc.CommitInvoice(context.Background(), 2, commitInput(nil, CommitLine{ProductID: 2, Quantity: 1}))
	require.NoError(t, err)

	require.Equal(t, "INV-1-000001", first.InvoiceNumber)
	require.Equal(t, "INV-1-000002", second.InvoiceNumber)
	require.Equal(t, "INV-2-000001", other.InvoiceNumber)
}

func TestCommitInvoiceBlockedCustomer(t *testing.T) {
	repo := newMemoryRepo()
	seedProduct(repo, 1, 10)
	seedCustomer(repo, 7)
	c := repo.state.customers[7]
	c.IsBlocked = true
	repo.state.customers[7] = c
	svc := NewService(repo, nil, nil, nil, nil)

	customerID := int64(7)
	_, err := svc.CommitInvoice(context.Background(), 1, commitInput(&customerID, CommitLine{ProductID: 1, Quantity: 1}))
	require.ErrorIs(t, err, shared.ErrValidation)
	require.Equal(t, int64(10), repo.state.products[1].CurrentStock)
}

func TestCommitInvoiceRejectsEmptyLines(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil, nil, nil)
	_, err := svc.CommitInvoice(context.Background(), 1, commitInput(nil))
	require.ErrorIs(t, err, shared.ErrInvalidInvoice)
}

func TestCommitInvoiceRejectsUnknownMethod(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil, nil, nil)
	input := commitInput(nil, CommitLine{ProductID: 1, Quantity: 1})
	input.PaymentMethod = "barter"
	_, err := svc.CommitInvoice(context.Background(), 1, input)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func commitOne(t *testing.T, svc *Service, customerID int64) *Invoice {
	t.Helper()
	tax := decimal.NewFromInt(10)
	invoice, err := svc.CommitInvoice(context.Background(), 1, commitInput(&customerID, CommitLine{
		ProductID:  1,
		Quantity:   3,
		UnitPrice:  price("100"),
		TaxPercent: &tax,
	}))
	require.NoError(t, err)
	return invoice
}

func TestRecordPaymentPartialThenPaid(t *testing.T) {
	repo := newMemoryRepo()
	seedProduct(repo, 1, 10)
	seedCustomer(repo, 7)
	svc := NewService(repo, nil, nil, nil, nil)
	invoice := commitOne(t, svc, 7)

	_, err := svc.RecordPayment(context.Background(), 1, invoice.ID, decimal.NewFromInt(200), PaymentMethodUPI, "", "", 0)
	require.NoError(t, err)
	require.Equal(t, shared.PaymentStatusPartial, repo.state.invoices[invoice.ID].PaymentStatus)
	customer := repo.state.customers[7]
	require.True(t, customer.TotalOutstanding.Equal(decimal.NewFromInt(130)))
	require.Equal(t, shared.PaymentStatusPartial, customer.PaymentStatus)

	_, err = svc.RecordPayment(context.Background(), 1, invoice.ID, decimal.NewFromInt(130), PaymentMethodCash, "", "", 0)
	require.NoError(t, err)
	require.Equal(t, shared.PaymentStatusPaid, repo.state.invoices[invoice.ID].PaymentStatus)
	customer = repo.state.customers[7]
	require.True(t, customer.TotalOutstanding.IsZero())
	require.Equal(t, shared.PaymentStatusPaid, customer.PaymentStatus)
}

func TestRecordPaymentGeneratesReference(t *testing.T) {
	repo := newMemoryRepo()
	seedProduct(repo, 1, 10)
	seedCustomer(repo, 7)
	svc := NewService(repo, nil, nil, nil, nil)
	invoice := commitOne(t, svc, 7)

	payment, err := svc.RecordPayment(context.Background(), 1, invoice.ID, decimal.NewFromInt(50), PaymentMethodCash, "", "", 0)
	require.NoError(t, err)
	require.NotEmpty(t, payment.Reference)

	payment, err = svc.RecordPayment(context.Background(), 1, invoice.ID, decimal.NewFromInt(50), PaymentMethodUPI, "txn-991", "", 0)
	require.NoError(t, err)
	require.Equal(t, "txn-991", payment.Reference)
}

func TestRecordPaymentOverpaymentIsPaid(t *testing.T) {
	repo := newMemoryRepo()
	seedProduct(repo, 1, 10)
	seedCustomer(repo, 7)
	svc := NewService(repo, nil, nil, nil, nil)
	invoice := commitOne(t, svc, 7)

	_, err := svc.RecordPayment(context.Background(), 1, invoice.ID, decimal.NewFromInt(400), PaymentMethodCard, "", "", 0)
	require.NoError(t, err)
	require.Equal(t, shared.PaymentStatusPaid, repo.state.invoices[invoice.ID].PaymentStatus)
}

func TestRecordPaymentRejectsNonPositiveAmount(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil, nil, nil)

	_, err := svc.RecordPayment(context.Background(), 1, 1, decimal.Zero, PaymentMethodCash, "", "", 0)
	require.ErrorIs(t, err, shared.ErrInvalidPayment)

	_, err = svc.RecordPayment(context.Background(), 1, 1, decimal.NewFromInt(-5), PaymentMethodCash, "", "", 0)
	require.ErrorIs(t, err, shared.ErrInvalidPayment)
}

func TestRecordPaymentUnknownInvoice(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil, nil, nil)
	_, err := svc.RecordPayment(context.Background(), 1, 42, decimal.NewFromInt(10), PaymentMethodCash, "", "", 0)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCustomerStatusAcrossInvoices(t *testing.T) {
	repo := newMemoryRepo()
	seedProduct(repo, 1, 100)
	seedCustomer(repo, 7)
	svc := NewService(repo, nil, nil, nil, nil)

	first := commitOne(t, svc, 7)
	second := commitOne(t, svc, 7)

	// Settle the first invoice fully; the second stays unpaid so the
	// customer stays unpaid overall.
	_, err := svc.RecordPayment(context.Background(), 1, first.ID, decimal.NewFromInt(330), PaymentMethodCash, "", "", 0)
	require.NoError(t, err)
	require.Equal(t, shared.PaymentStatusUnpaid, repo.state.customers[7].PaymentStatus)

	// A partial payment on the second tips the customer to partial.
	_, err = svc.RecordPayment(context.Background(), 1, second.ID, decimal.NewFromInt(100), PaymentMethodCash, "", "", 0)
	require.NoError(t, err)
	require.Equal(t, shared.PaymentStatusPartial, repo.state.customers[7].PaymentStatus)

	// Settling everything makes the customer paid.
	_, err = svc.RecordPayment(context.Background(), 1, second.ID, decimal.NewFromInt(230), PaymentMethodCash, "", "", 0)
	require.NoError(t, err)
	require.Equal(t, shared.PaymentStatusPaid, repo.state.customers[7].PaymentStatus)
}

func TestUpdateInvoiceStatusRecomputesCustomer(t *testing.T) {
	repo := newMemoryRepo()
	seedProduct(repo, 1, 10)
	seedCustomer(repo, 7)
	svc := NewService(repo, nil, nil, nil, nil)
	invoice := commitOne(t, svc, 7)

	err := svc.UpdateInvoiceStatus(context.Background(), 1, invoice.ID, shared.PaymentStatusPaid, 0)
	require.NoError(t, err)
	require.Equal(t, shared.PaymentStatusPaid, repo.state.invoices[invoice.ID].PaymentStatus)
	require.Equal(t, shared.PaymentStatusPaid, repo.state.customers[7].PaymentStatus)
}

func TestDeleteInvoiceRestoresStock(t *testing.T) {
	repo := newMemoryRepo()
	seedProduct(repo, 1, 10)
	seedCustomer(repo, 7)
	svc := NewService(repo, nil, nil, nil, nil)
	invoice := commitOne(t, svc, 7)
	require.Equal(t, int64(7), repo.state.products[1].CurrentStock)

	err := svc.DeleteInvoice(context.Background(), 1, invoice.ID, 0)
	require.NoError(t, err)

	require.Equal(t, int64(10), repo.state.products[1].CurrentStock)
	require.Empty(t, repo.state.invoices)
	require.Len(t, repo.state.events, 2)
	restore := repo.state.events[1]
	require.Equal(t, stock.ReasonReturn, restore.Reason)
	require.Equal(t, int64(3), restore.QuantityChange)

	customer := repo.state.customers[7]
	require.True(t, customer.TotalPurchases.IsZero())
	require.True(t, customer.TotalOutstanding.IsZero())
	require.Equal(t, shared.PaymentStatusUnpaid, customer.PaymentStatus)
}

func TestCommitInvoiceTimestampsUTC(t *testing.T) {
	repo := newMemoryRepo()
	seedProduct(repo, 1, 10)
	svc := NewService(repo, nil, nil, nil, nil)

	invoice, err := svc.CommitInvoice(context.Background(), 1, commitInput(nil, CommitLine{ProductID: 1, Quantity: 1}))
	require.NoError(t, err)
	require.Equal(t, time.UTC, invoice.CreatedAt.Location())
}

func TestDeleteInvoicePaidCashSaleKeepsOutstandingZero(t *testing.T) {
	repo := newMemoryRepo()
	seedProduct(repo, 1, 10)
	seedCustomer(repo, 7)
	svc := NewService(repo, nil, nil, nil, nil)

	customerID := int64(7)
	input := commitInput(&customerID, CommitLine{ProductID: 1, Quantity: 3})
	input.InitialStatus = shared.PaymentStatusPaid
	invoice, err := svc.CommitInvoice(context.Background(), 1, input)
	require.NoError(t, err)

	// A cash sale committed as paid never owes anything.
	customer := repo.state.customers[7]
	require.True(t, customer.TotalOutstanding.IsZero())
	require.True(t, customer.TotalPurchases.Equal(decimal.NewFromInt(330)))
	require.Equal(t, shared.PaymentStatusPaid, customer.PaymentStatus)

	err = svc.DeleteInvoice(context.Background(), 1, invoice.ID, 0)
	require.NoError(t, err)

	customer = repo.state.customers[7]
	require.True(t, customer.TotalOutstanding.IsZero())
	require.True(t, customer.TotalPurchases.IsZero())
	require.Equal(t, shared.PaymentStatusUnpaid, customer.PaymentStatus)
}

func TestUpdateInvoiceStatusPaidClearsOutstanding(t *testing.T) {
	repo := newMemoryRepo()
	seedProduct(repo, 1, 10)
	seedCustomer(repo, 7)
	svc := NewService(repo, nil, nil, nil, nil)
	invoice := commitOne(t, svc, 7)
	require.True(t, repo.state.customers[7].TotalOutstanding.Equal(decimal.NewFromInt(330)))

	err := svc.UpdateInvoiceStatus(context.Background(), 1, invoice.ID, shared.PaymentStatusPaid, 0)
	require.NoError(t, err)
	require.True(t, repo.state.customers[7].TotalOutstanding.IsZero())

	err = svc.UpdateInvoiceStatus(context.Background(), 1, invoice.ID, shared.PaymentStatusUnpaid, 0)
	require.NoError(t, err)
	require.True(t, repo.state.customers[7].TotalOutstanding.Equal(decimal.NewFromInt(330)))
}

func TestCommitInvoiceConcurrentSequentialNumbers(t *testing.T) {
	repo := newMemoryRepo()
	seedProduct(repo, 1, 100)
	svc := NewService(repo, nil, nil, nil, nil)

	const workers = 8
	numbers := make(chan string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			invoice, err := svc.CommitInvoice(context.Background(), 1, commitInput(nil, CommitLine{ProductID: 1, Quantity: 1}))
			if err == nil {
				numbers <- invoice.InvoiceNumber
			}
		}()
	}
	wg.Wait()
	close(numbers)

	seen := make(map[string]bool)
	for number := range numbers {
		seen[number] = true
	}
	require.Len(t, seen, workers)
	for seq := int64(1); seq <= workers; seq++ {
		require.Contains(t, seen, InvoiceNumber(1, seq))
	}
	require.Equal(t, int64(100-workers), repo.state.products[1].CurrentStock)
}

func TestCommitInvoiceConcurrentStockFloor(t *testing.T) {
	repo := newMemoryRepo()
	seedProduct(repo, 1, 3)
	svc := NewService(repo, nil, nil, nil, nil)

	const attempts = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	committed := 0
	var failures []error
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CommitInvoice(context.Background(), 1, commitInput(nil, CommitLine{ProductID: 1, Quantity: 1}))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, err)
				return
			}
			committed++
		}()
	}
	wg.Wait()

	// Exactly as many unit sales succeed as there was stock.
	require.Equal(t, 3, committed)
	require.Len(t, failures, attempts-3)
	for _, err := range failures {
		require.ErrorIs(t, err, shared.ErrInsufficientStock)
	}
	require.Equal(t, int64(0), repo.state.products[1].CurrentStock)
	require.Len(t, repo.state.invoices, 3)
}
