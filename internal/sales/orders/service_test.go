package orders

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type memoryRepo struct {
	orders   map[int64]Order
	invoices map[int64]Invoice
	nextID   int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{orders: map[int64]Order{}, invoices: map[int64]Invoice{}}
}

func (m *memoryRepo) ListOrders(ctx context.Context) ([]Order, error) {
	out := []Order{}
	for _, o := range m.orders {
		out = append(out, o)
	}
	return out, nil
}

func (m *memoryRepo) GetOrder(ctx context.Context, id int64) (Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return Order{}, shared.ErrNotFound
	}
	return o, nil
}

func (m *memoryRepo) CreateOrder(ctx context.Context, order Order) (int64, error) {
	m.nextID++
	order.ID = m.nextID
	m.orders[order.ID] = order
	return order.ID, nil
}

func (m *memoryRepo) UpdateOrderStatus(ctx context.Context, id int64, status string) error {
	o, ok := m.orders[id]
	if !ok {
		return shared.ErrNotFound
	}
	o.Status = status
	m.orders[id] = o
	return nil
}

func (m *memoryRepo) DeleteOrder(ctx context.Context, id int64) error {
	if _, ok := m.orders[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.orders, id)
	return nil
}

func (m *memoryRepo) ListInvoices(ctx context.Context) ([]Invoice, error) {
	out := []Invoice{}
	for _, inv := range m.invoices {
		out = append(out, inv)
	}
	return out, nil
}

func (m *memoryRepo) GetInvoice(ctx context.Context, id int64) (Invoice, error) {
	inv, ok := m.invoices[id]
	if !ok {
		return Invoice{}, shared.ErrNotFound
	}
	return inv, nil
}

func (m *memoryRepo) CreateInvoice(ctx context.Context, invoice Invoice) (int64, error) {
	m.nextID++
	invoice.ID = m.nextID
	m.invoices[invoice.ID] = invoice
	return invoice.ID, nil
}

func (m *memoryRepo) DeleteInvoice(ctx context.Context, id int64) error {
	if _, ok := m.invoices[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.invoices, id)
	return nil
}

func sampleOrder() Order {
	return Order{
		CustomerID: 1,
		Items: []OrderItem{
			{ProductID: 1, Quantity: 10, Price: 25},
			{ProductID: 2, Quantity: 4, Price: 12.5},
		},
	}
}

func TestCreateOrderDefaults(t *testing.T) {
	svc := NewService(newMemoryRepo())

	created, err := svc.Create(context.Background(), sampleOrder())
	require.NoError(t, err)
	require.Equal(t, StatusDraft, created.Status)
	require.False(t, created.Date.IsZero())
	require.InDelta(t, 300.0, created.Total(), 1e-9)
}

func TestCreateOrderValidation(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	empty := sampleOrder()
	empty.Items = nil
	_, err := svc.Create(ctx, empty)
	require.ErrorIs(t, err, ErrEmptyOrder)

	bad := sampleOrder()
	bad.Status = "pending"
	_, err = svc.Create(ctx, bad)
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestUpdateStatus(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	created, err := svc.Create(ctx, sampleOrder())
	require.NoError(t, err)

	require.NoError(t, svc.UpdateStatus(ctx, created.ID, StatusConfirmed))
	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, StatusConfirmed, got.Status)

	require.ErrorIs(t, svc.UpdateStatus(ctx, created.ID, "done"), ErrInvalidStatus)
	require.ErrorIs(t, svc.UpdateStatus(ctx, 999, StatusShipped), shared.ErrNotFound)
}

func TestCreateInvoiceComputesTotalFromOrder(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	order, err := svc.Create(ctx, sampleOrder())
	require.NoError(t, err)

	invoice, err := svc.CreateInvoice(ctx, order.ID, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), nil)
	require.NoError(t, err)
	require.Equal(t, order.ID, invoice.OrderID)
	require.InDelta(t, 300.0, invoice.Total, 1e-9)

	// Explicit total wins over the computed one.
	total := 275.0
	invoice, err = svc.CreateInvoice(ctx, order.ID, time.Time{}, &total)
	require.NoError(t, err)
	require.InDelta(t, 275.0, invoice.Total, 1e-9)
	require.False(t, invoice.Date.IsZero())
}

func TestCreateInvoiceUnknownOrder(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.CreateInvoice(context.Background(), 42, time.Time{}, nil)
	require.ErrorIs(t, err, shared.ErrNotFound)
}
