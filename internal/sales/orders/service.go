package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

var (
	ErrInvalidStatus = errors.New("orders: invalid status")
	ErrEmptyOrder    = errors.New("orders: order needs at least one item")
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]Order, error) {
	return s.repo.ListOrders(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (Order, error) {
	return s.repo.GetOrder(ctx, id)
}

func (s *Service) Create(ctx context.Context, order Order) (Order, error) {
	if len(order.Items) == 0 {
		return Order{}, ErrEmptyOrder
	}
	if order.Status == "" {
		order.Status = StatusDraft
	}
	if !validStatus(order.Status) {
		return Order{}, fmt.Errorf("%w: %q", ErrInvalidStatus, order.Status)
	}
	if order.Date.IsZero() {
		order.Date = time.Now()
	}

	id, err := s.repo.CreateOrder(ctx, order)
	if err != nil {
		return Order{}, fmt.Errorf("create order: %w", err)
	}
	return s.repo.GetOrder(ctx, id)
}

func (s *Service) UpdateStatus(ctx context.Context, id int64, status string) error {
	if !validStatus(status) {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	return s.repo.UpdateOrderStatus(ctx, id, status)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.DeleteOrder(ctx, id)
}

func (s *Service) ListInvoices(ctx context.Context) ([]Invoice, error) {
	return s.repo.ListInvoices(ctx)
}

func (s *Service) GetInvoice(ctx context.Context, id int64) (Invoice, error) {
	return s.repo.GetInvoice(ctx, id)
}

// CreateInvoice bills an order. When no explicit total is given the order
// total at issue time is used.
func (s *Service) CreateInvoice(ctx context.Context, orderID int64, date time.Time, total *float64) (Invoice, error) {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Invoice{}, fmt.Errorf("%w: order %d", shared.ErrNotFound, orderID)
		}
		return Invoice{}, err
	}

	invoice := Invoice{OrderID: order.ID, Date: date}
	if invoice.Date.IsZero() {
		invoice.Date = time.Now()
	}
	if total != nil {
		invoice.Total = *total
	} else {
		invoice.Total = order.Total()
	}

	id, err := s.repo.CreateInvoice(ctx, invoice)
	if err != nil {
		return Invoice{}, fmt.Errorf("create invoice: %w", err)
	}
	return s.repo.GetInvoice(ctx, id)
}

func (s *Service) DeleteInvoice(ctx context.Context, id int64) error {
	return s.repo.DeleteInvoice(ctx, id)
}

func validStatus(status string) bool {
	switch status {
	case StatusDraft, StatusConfirmed, StatusShipped, StatusCancelled:
		return true
	}
	return false
}
