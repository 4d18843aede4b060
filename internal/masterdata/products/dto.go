package products

import "github.com/meridian-erp/meridian-erp/internal/shared"

type ProductForm struct {
	Name          string  `json:"name" validate:"required"`
	Type          string  `json:"type" validate:"required,oneof=product service"`
	Unit          string  `json:"unit"`
	Price         float64 `json:"price" validate:"gte=0"`
	Description   string  `json:"description"`
	Barcode       string  `json:"barcode"`
	VATRate       int     `json:"vat_rate" validate:"gte=0,lte=100"`
	MinStock      float64 `json:"min_stock" validate:"gte=0"`
	MaxStock      float64 `json:"max_stock" validate:"gte=0"`
	SupplierPrice float64 `json:"supplier_price" validate:"gte=0"`
	Notes         string  `json:"notes"`
	IsActive      *bool   `json:"is_active"`
}

func (f ProductForm) toModel() Product {
	active := true
	if f.IsActive != nil {
		active = *f.IsActive
	}
	return Product{
		Name:          f.Name,
		Type:          f.Type,
		Unit:          f.Unit,
		Price:         f.Price,
		Description:   f.Description,
		Barcode:       f.Barcode,
		VATRate:       f.VATRate,
		MinStock:      f.MinStock,
		MaxStock:      f.MaxStock,
		SupplierPrice: f.SupplierPrice,
		Notes:         f.Notes,
		IsActive:      active,
	}
}

type ListResponse struct {
	Items      []Product         `json:"items"`
	Pagination shared.Pagination `json:"pagination"`
}
