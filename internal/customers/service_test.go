package customers

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/ledgerline/internal/shared"
)

type memoryRepo struct {
	customers map[int64]Customer
	nextID    int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{customers: make(map[int64]Customer)}
}

func (r *memoryRepo) List(ctx context.Context, businessID int64, filters ListFilters) ([]Customer, int, error) {
	var out []Customer
	for _, c := range r.customers {
		if c.BusinessID != businessID {
			continue
		}
		if filters.Status != "" && c.PaymentStatus != filters.Status {
			continue
		}
		out = append(out, c)
	}
	return out, len(out), nil
}

func (r *memoryRepo) Get(ctx context.Context, businessID, id int64) (*Customer, error) {
	c, ok := r.customers[id]
	if !ok || c.BusinessID != businessID {
		return nil, fmt.Errorf("%w: customer %d", shared.ErrNotFound, id)
	}
	return &c, nil
}

func (r *memoryRepo) Create(ctx context.Context, customer Customer) (*Customer, error) {
	r.nextID++
	customer.ID = r.nextID
	r.customers[customer.ID] = customer
	return &customer, nil
}

func (r *memoryRepo) Update(ctx context.Context, businessID, id int64, updates map[string]interface{}) error {
	c, ok := r.customers[id]
	if !ok || c.BusinessID != businessID {
		return fmt.Errorf("%w: customer %d", shared.ErrNotFound, id)
	}
	if v, ok := updates["name"]; ok {
		c.Name = v.(string)
	}
	if v, ok := updates["phone"]; ok {
		phone := v.(string)
		c.Phone = &phone
	}
	r.customers[id] = c
	return nil
}

func (r *memoryRepo) SetBlocked(ctx context.Context, businessID, id int64, blocked bool) error {
	c, ok := r.customers[id]
	if !ok || c.BusinessID != businessID {
		return fmt.Errorf("%w: customer %d", shared.ErrNotFound, id)
	}
	c.IsBlocked = blocked
	r.customers[id] = c
	return nil
}

func (r *memoryRepo) Delete(ctx context.Context, businessID, id int64) error {
	c, ok := r.customers[id]
	if !ok || c.BusinessID != businessID {
		return fmt.Errorf("%w: customer %d", shared.ErrNotFound, id)
	}
	delete(r.customers, id)
	return nil
}

func TestCreateCustomerDefaults(t *testing.T) {
	svc := NewService(newMemoryRepo())

	c, err := svc.Create(context.Background(), 1, CreateCustomerRequest{Name: "Asha Traders"})
	require.NoError(t, err)
	require.Equal(t, shared.PaymentStatusUnpaid, c.PaymentStatus)
	require.True(t, c.TotalPurchases.IsZero())
	require.True(t, c.TotalOutstanding.IsZero())
	require.False(t, c.IsBlocked)
}

func TestUpdateCustomer(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), 1, CreateCustomerRequest{Name: "Asha Traders"})
	require.NoError(t, err)

	name := "Asha Trading Co"
	updated, err := svc.Update(context.Background(), 1, created.ID, UpdateCustomerRequest{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "Asha Trading Co", updated.Name)
}

func TestListRejectsUnknownStatus(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, _, err := svc.List(context.Background(), 1, ListFilters{Status: "overdue"})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestBlockUnblock(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), 1, CreateCustomerRequest{Name: "Asha Traders"})
	require.NoError(t, err)

	require.NoError(t, svc.Block(context.Background(), 1, created.ID))
	require.True(t, repo.customers[created.ID].IsBlocked)

	require.NoError(t, svc.Unblock(context.Background(), 1, created.ID))
	require.False(t, repo.customers[created.ID].IsBlocked)
}

func TestDeleteCustomerWithOutstanding(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), 1, CreateCustomerRequest{Name: "Asha Traders"})
	require.NoError(t, err)

	c := repo.customers[created.ID]
	c.TotalOutstanding = decimal.NewFromInt(500)
	repo.customers[created.ID] = c

	err = svc.Delete(context.Background(), 1, created.ID)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestDeleteSettledCustomer(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), 1, CreateCustomerRequest{Name: "Asha Traders"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), 1, created.ID))
	_, err = svc.Get(context.Background(), 1, created.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}
