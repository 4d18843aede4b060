package orders

type OrderItemForm struct {
	ProductID int64   `json:"product_id" validate:"required,gt=0"`
	Quantity  float64 `json:"quantity" validate:"required,gt=0"`
	Price     float64 `json:"price" validate:"gte=0"`
}

type OrderForm struct {
	Date       string          `json:"date"`
	CustomerID int64           `json:"customer_id" validate:"required,gt=0"`
	Status     string          `json:"status" validate:"omitempty,oneof=draft confirmed shipped cancelled"`
	Items      []OrderItemForm `json:"items" validate:"required,min=1,dive"`
}

type StatusForm struct {
	Status string `json:"status" validate:"required,oneof=draft confirmed shipped cancelled"`
}

type InvoiceForm struct {
	OrderID int64    `json:"order_id" validate:"required,gt=0"`
	Date    string   `json:"date"`
	Total   *float64 `json:"total" validate:"omitempty,gte=0"`
}

type OrderListResponse struct {
	Items []Order `json:"items"`
	Total int     `json:"total"`
}

type InvoiceListResponse struct {
	Items []Invoice `json:"items"`
	Total int       `json:"total"`
}
