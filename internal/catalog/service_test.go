package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/ledgerline/internal/shared"
)

type memoryRepo struct {
	products map[int64]Product
	nextID   int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{products: make(map[int64]Product)}
}

func (r *memoryRepo) List(ctx context.Context, businessID int64, filters ListFilters) ([]Product, int, error) {
	var out []Product
	for _, p := range r.products {
		if p.BusinessID != businessID {
			continue
		}
		if filters.Category != "" && p.Category != filters.Category {
			continue
		}
		if filters.LowStock && p.CurrentStock > p.MinStockLevel {
			continue
		}
		out = append(out, p)
	}
	return out, len(out), nil
}

func (r *memoryRepo) Get(ctx context.Context, businessID, id int64) (*Product, error) {
	p, ok := r.products[id]
	if !ok || p.BusinessID != businessID {
		return nil, fmt.Errorf("%w: product %d", shared.ErrNotFound, id)
	}
	return &p, nil
}

func (r *memoryRepo) GetBySKU(ctx context.Context, businessID int64, sku string) (*Product, error) {
	for _, p := range r.products {
		if p.BusinessID == businessID && p.SKU == sku {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("%w: sku %s", shared.ErrNotFound, sku)
}

func (r *memoryRepo) Create(ctx context.Context, product Product) (*Product, error) {
	r.nextID++
	product.ID = r.nextID
	r.products[product.ID] = product
	return &product, nil
}

func (r *memoryRepo) Update(ctx context.Context, businessID, id int64, updates map[string]interface{}) error {
	p, ok := r.products[id]
	if !ok || p.BusinessID != businessID {
		return fmt.Errorf("%w: product %d", shared.ErrNotFound, id)
	}
	if v, ok := updates["name"]; ok {
		p.Name = v.(string)
	}
	if v, ok := updates["selling_price"]; ok {
		p.SellingPrice = v.(decimal.Decimal)
	}
	if v, ok := updates["min_stock_level"]; ok {
		p.MinStockLevel = v.(int64)
	}
	if v, ok := updates["is_active"]; ok {
		p.IsActive = v.(bool)
	}
	r.products[id] = p
	return nil
}

func (r *memoryRepo) Delete(ctx context.Context, businessID, id int64) error {
	p, ok := r.products[id]
	if !ok || p.BusinessID != businessID {
		return fmt.Errorf("%w: product %d", shared.ErrNotFound, id)
	}
	delete(r.products, id)
	return nil
}

func validCreateRequest() CreateProductRequest {
	return CreateProductRequest{
		Name:          "Steel Rod 12mm",
		SKU:           "ROD-12",
		Category:      "raw-material",
		Unit:          "pcs",
		BuyingPrice:   decimal.NewFromFloat(80),
		SellingPrice:  decimal.NewFromFloat(100),
		TaxPercent:    decimal.NewFromInt(18),
		CurrentStock:  10,
		MinStockLevel: 5,
	}
}

func TestCreateProduct(t *testing.T) {
	svc := NewService(newMemoryRepo())

	p, err := svc.Create(context.Background(), 1, validCreateRequest())
	require.NoError(t, err)
	require.Equal(t, int64(1), p.ID)
	require.True(t, p.IsActive)
	require.True(t, p.SellingPrice.Equal(decimal.NewFromInt(100)))
}

func TestCreateProductDuplicateSKU(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.Create(context.Background(), 1, validCreateRequest())
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), 1, validCreateRequest())
	require.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestCreateProductSameSKUOtherBusiness(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.Create(context.Background(), 1, validCreateRequest())
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), 2, validCreateRequest())
	require.NoError(t, err)
}

func TestCreateProductRejectsNegativePrice(t *testing.T) {
	svc := NewService(newMemoryRepo())

	req := validCreateRequest()
	req.SellingPrice = decimal.NewFromInt(-1)
	_, err := svc.Create(context.Background(), 1, req)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateProductRejectsTaxAbove100(t *testing.T) {
	svc := NewService(newMemoryRepo())

	req := validCreateRequest()
	req.TaxPercent = decimal.NewFromInt(120)
	_, err := svc.Create(context.Background(), 1, req)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestUpdateProduct(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), 1, validCreateRequest())
	require.NoError(t, err)

	name := "Steel Rod 16mm"
	price := decimal.NewFromFloat(120.505)
	updated, err := svc.Update(context.Background(), 1, created.ID, UpdateProductRequest{
		Name:         &name,
		SellingPrice: &price,
	})
	require.NoError(t, err)
	require.Equal(t, "Steel Rod 16mm", updated.Name)
	require.True(t, updated.SellingPrice.Equal(decimal.NewFromFloat(120.51)))
}

func TestUpdateProductNotFound(t *testing.T) {
	svc := NewService(newMemoryRepo())

	name := "ghost"
	_, err := svc.Update(context.Background(), 1, 42, UpdateProductRequest{Name: &name})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGetProductScopedToBusiness(t *testing.T) {
	svc := NewService(newMemoryRepo())

	created, err := svc.Create(context.Background(), 1, validCreateRequest())
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), 2, created.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDeleteProduct(t *testing.T) {
	svc := NewService(newMemoryRepo())

	created, err := svc.Create(context.Background(), 1, validCreateRequest())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), 1, created.ID))
	require.ErrorIs(t, svc.Delete(context.Background(), 1, created.ID), shared.ErrNotFound)
}
