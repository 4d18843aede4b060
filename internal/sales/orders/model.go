package orders

import "time"

// Order statuses mirror the document lifecycle: drafts can be edited,
// confirmed orders feed invoices, shipped orders have a goods issue behind them.
const (
	StatusDraft     = "draft"
	StatusConfirmed = "confirmed"
	StatusShipped   = "shipped"
	StatusCancelled = "cancelled"
)

type Order struct {
	ID           int64       `json:"id"`
	Date         time.Time   `json:"date"`
	CustomerID   int64       `json:"customer_id"`
	CustomerName string      `json:"customer_name,omitempty"`
	Status       string      `json:"status"`
	Items        []OrderItem `json:"items"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

type OrderItem struct {
	ID          int64   `json:"id"`
	OrderID     int64   `json:"-"`
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name,omitempty"`
	Quantity    float64 `json:"quantity"`
	Price       float64 `json:"price"`
}

// Total sums quantity*price across items.
func (o Order) Total() float64 {
	total := 0.0
	for _, item := range o.Items {
		total += item.Quantity * item.Price
	}
	return total
}

// Invoice bills a confirmed order. Total defaults to the order total at
// issue time and is frozen afterwards.
type Invoice struct {
	ID          int64     `json:"id"`
	OrderID     int64     `json:"order_id"`
	OrderStatus string    `json:"order_status,omitempty"`
	Date        time.Time `json:"date"`
	Total       float64   `json:"total"`
	CreatedAt   time.Time `json:"created_at"`
}
