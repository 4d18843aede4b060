package products

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/masterdata/shared"
)

type memoryRepo struct {
	items  map[int64]Product
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: map[int64]Product{}}
}

func (m *memoryRepo) List(ctx context.Context, filters shared.ListFilters) ([]Product, int, error) {
	out := []Product{}
	for _, p := range m.items {
		if filters.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filters.Search)) {
			continue
		}
		if filters.Type != nil && p.Type != *filters.Type {
			continue
		}
		out = append(out, p)
	}
	return out, len(out), nil
}

func (m *memoryRepo) Get(ctx context.Context, id int64) (Product, error) {
	p, ok := m.items[id]
	if !ok {
		return Product{}, shared.ErrNotFound
	}
	return p, nil
}

func (m *memoryRepo) Create(ctx context.Context, product Product) (Product, error) {
	for _, existing := range m.items {
		if product.Barcode != "" && existing.Barcode == product.Barcode {
			return Product{}, shared.ErrDuplicate
		}
	}
	m.nextID++
	product.ID = m.nextID
	m.items[product.ID] = product
	return product, nil
}

func (m *memoryRepo) Update(ctx context.Context, id int64, product Product) error {
	if _, ok := m.items[id]; !ok {
		return shared.ErrNotFound
	}
	product.ID = id
	m.items[id] = product
	return nil
}

func (m *memoryRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.items[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func validProduct() Product {
	return Product{Name: "Flour wholesale 50kg", Type: TypeGoods, Unit: "kg", Price: 18.5, IsActive: true}
}

func TestCreateValidatesRequiredFields(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	p := validProduct()
	p.Name = "  "
	_, err := svc.Create(ctx, p)
	require.ErrorIs(t, err, shared.ErrRequiredField)

	p = validProduct()
	p.Type = "bundle"
	_, err = svc.Create(ctx, p)
	require.ErrorIs(t, err, shared.ErrValidation)

	p = validProduct()
	p.MinStock = 10
	p.MaxStock = 5
	_, err = svc.Create(ctx, p)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateAndGet(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	created, err := svc.Create(ctx, validProduct())
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.Name, got.Name)

	_, err = svc.Get(ctx, 999)
	require.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.Get(ctx, 0)
	require.ErrorIs(t, err, shared.ErrInvalidID)
}

func TestCreateDuplicateBarcode(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	p := validProduct()
	p.Barcode = "4820000000017"
	_, err := svc.Create(ctx, p)
	require.NoError(t, err)

	p2 := validProduct()
	p2.Name = "Other"
	p2.Barcode = "4820000000017"
	_, err = svc.Create(ctx, p2)
	require.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestUpdateAndDelete(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, validProduct())
	require.NoError(t, err)

	updated := validProduct()
	updated.Price = 21.0
	require.NoError(t, svc.Update(ctx, created.ID, updated))

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.InDelta(t, 21.0, got.Price, 1e-9)

	require.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.Get(ctx, created.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestListFiltersByType(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	goods := validProduct()
	_, err := svc.Create(ctx, goods)
	require.NoError(t, err)

	service := validProduct()
	service.Name = "Delivery"
	service.Type = TypeService
	_, err = svc.Create(ctx, service)
	require.NoError(t, err)

	typ := TypeService
	items, total, err := svc.List(ctx, shared.ListFilters{Type: &typ})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, "Delivery", items[0].Name)
}
