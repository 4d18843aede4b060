package products

import (
	"time"
)

// Product represents a catalog entry. Type distinguishes stocked goods
// from services; only goods participate in the batch ledger.
type Product struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Type          string    `json:"type"`
	Unit          string    `json:"unit"`
	Price         float64   `json:"price"`
	Description   string    `json:"description"`
	Barcode       string    `json:"barcode"`
	VATRate       int       `json:"vat_rate"`
	MinStock      float64   `json:"min_stock"`
	MaxStock      float64   `json:"max_stock"`
	SupplierPrice float64   `json:"supplier_price"`
	Notes         string    `json:"notes"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

const (
	TypeGoods   = "product"
	TypeService = "service"
)
