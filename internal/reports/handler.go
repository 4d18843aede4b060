package reports

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-erp/meridian-erp/internal/ledger"
	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers /api/stock routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.stockList)
	r.Route("/{productID}", func(r chi.Router) {
		r.Get("/", h.productStock)
		r.Get("/as-of", h.availableAsOf)
	})
}

func (h *Handler) stockList(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.StockList(r.Context())
	if err != nil {
		h.logger.Error("stock list report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": list})
}

func (h *Handler) productStock(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseProductID(w, r)
	if !ok {
		return
	}

	detail, err := h.service.ProductStock(r.Context(), productID)
	if err != nil {
		h.logger.Error("product stock report", slog.Any("error", err), "product_id", productID)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, detail)
}

func (h *Handler) availableAsOf(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseProductID(w, r)
	if !ok {
		return
	}

	date, err := ledger.ParseReportDate(r.URL.Query().Get("date"))
	if err != nil {
		if errors.Is(err, ledger.ErrInvalidDate) {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid date, expected YYYY-MM-DD")
			return
		}
		httpx.RespondError(w, err)
		return
	}

	report, err := h.service.AvailableAsOf(r.Context(), productID, date)
	if err != nil {
		h.logger.Error("as-of report", slog.Any("error", err), "product_id", productID)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func parseProductID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid product ID")
		return 0, false
	}
	return id, true
}
