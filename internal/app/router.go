package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-erp/meridian-erp/internal/masterdata/customers"
	"github.com/meridian-erp/meridian-erp/internal/masterdata/products"
	"github.com/meridian-erp/meridian-erp/internal/observability"
	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/reports"
	"github.com/meridian-erp/meridian-erp/internal/sales/orders"
	"github.com/meridian-erp/meridian-erp/internal/warehouse"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	Metrics          *observability.Metrics
	ProductsHandler  *products.Handler
	CustomersHandler *customers.Handler
	OrdersHandler    *orders.Handler
	WarehouseHandler *warehouse.Handler
	ReportsHandler   *reports.Handler
}

// NewRouter assembles the HTTP routing tree.
func NewRouter(p RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{Logger: p.Logger, Config: p.Config, Metrics: p.Metrics}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if p.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", p.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/products", p.ProductsHandler.MountRoutes)
		r.Route("/customers", p.CustomersHandler.MountRoutes)
		r.Route("/orders", p.OrdersHandler.MountOrderRoutes)
		r.Route("/invoices", p.OrdersHandler.MountInvoiceRoutes)
		r.Route("/goods-receipts", p.WarehouseHandler.MountReceiptRoutes)
		r.Route("/goods-issues", p.WarehouseHandler.MountIssueRoutes)
		r.Route("/stock", p.ReportsHandler.MountRoutes)
	})

	return r
}
