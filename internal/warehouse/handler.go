package warehouse

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-erp/meridian-erp/internal/ledger"
	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
	}
}

// MountReceiptRoutes registers /api/goods-receipts routes.
func (h *Handler) MountReceiptRoutes(r chi.Router) {
	r.Get("/", h.listReceipts)
	r.Post("/", h.postReceipt)
	r.Get("/{id}", h.showReceipt)
}

// MountIssueRoutes registers /api/goods-issues routes.
func (h *Handler) MountIssueRoutes(r chi.Router) {
	r.Get("/", h.listIssues)
	r.Post("/", h.postIssue)
	r.Post("/validate", h.validate)
	r.Get("/{id}", h.showIssue)
}

func (h *Handler) listReceipts(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListReceipts(r.Context())
	if err != nil {
		h.logger.Error("list receipts", slog.Any("error", err))
		h.respondErr(w, err)
		return
	}
	if items == nil {
		items = []GoodsReceipt{}
	}
	httpx.JSON(w, http.StatusOK, ReceiptListResponse{Items: items, Total: len(items)})
}

func (h *Handler) showReceipt(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	doc, err := h.service.GetReceipt(r.Context(), id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, doc)
}

func (h *Handler) postReceipt(w http.ResponseWriter, r *http.Request) {
	form, date, ok := h.decodeDocument(w, r)
	if !ok {
		return
	}

	doc := GoodsReceipt{DocumentHeader: headerFromForm(form, date), Items: itemsFromForm(form.Items)}
	created, err := h.service.PostReceipt(r.Context(), doc, r.Header.Get("Idempotency-Key"))
	if err != nil {
		h.logger.Error("post goods receipt", slog.Any("error", err), "number", form.Number)
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) listIssues(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListIssues(r.Context())
	if err != nil {
		h.logger.Error("list issues", slog.Any("error", err))
		h.respondErr(w, err)
		return
	}
	if items == nil {
		items = []GoodsIssue{}
	}
	httpx.JSON(w, http.StatusOK, IssueListResponse{Items: items, Total: len(items)})
}

func (h *Handler) showIssue(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	doc, err := h.service.GetIssue(r.Context(), id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, doc)
}

func (h *Handler) postIssue(w http.ResponseWriter, r *http.Request) {
	form, date, ok := h.decodeDocument(w, r)
	if !ok {
		return
	}

	doc := GoodsIssue{DocumentHeader: headerFromForm(form, date), Items: itemsFromForm(form.Items)}
	created, err := h.service.PostIssue(r.Context(), doc, r.Header.Get("Idempotency-Key"))
	if err != nil {
		h.logger.Warn("post goods issue rejected", slog.Any("error", err), "number", form.Number)
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

type validateForm struct {
	Items []ItemForm `json:"items" validate:"required,min=1,dive"`
}

func (h *Handler) validate(w http.ResponseWriter, r *http.Request) {
	var form validateForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.ProblemWithErrors(w, http.StatusBadRequest, "Validation Failed", "invalid payload", fieldErrors(err))
		return
	}

	shortages, err := h.service.Validate(r.Context(), form.Items)
	if err != nil {
		h.logger.Error("validate issue", slog.Any("error", err))
		h.respondErr(w, err)
		return
	}
	if shortages == nil {
		shortages = []ledger.Shortage{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"ok":        len(shortages) == 0,
		"shortages": shortages,
	})
}

func (h *Handler) decodeDocument(w http.ResponseWriter, r *http.Request) (DocumentForm, time.Time, bool) {
	var form DocumentForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return form, time.Time{}, false
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.ProblemWithErrors(w, http.StatusBadRequest, "Validation Failed", "invalid document payload", fieldErrors(err))
		return form, time.Time{}, false
	}
	date, err := time.Parse("2006-01-02", form.Date)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid date, expected YYYY-MM-DD")
		return form, time.Time{}, false
	}
	return form, date, true
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	var insufficient *ledger.InsufficientStockError
	switch {
	case errors.As(err, &insufficient):
		httpx.ProblemWithErrors(w, http.StatusConflict, "Insufficient Stock",
			"one or more lines exceed available stock", insufficient.Shortages)
	case errors.Is(err, shared.ErrIdempotencyConflict):
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrDuplicate, shared.UserSafeMessage(err)))
	case errors.Is(err, shared.ErrNotFound):
		httpx.RespondError(w, fmt.Errorf("%w: document", httpx.ErrNotFound))
	case errors.Is(err, ledger.ErrConflict):
		httpx.RespondError(w, fmt.Errorf("%w: concurrent stock update, retry", httpx.ErrConflict))
	case errors.Is(err, ledger.ErrInvalidQuantity), errors.Is(err, ErrMissingNumber):
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
	default:
		httpx.RespondError(w, err)
	}
}

func headerFromForm(form DocumentForm, date time.Time) DocumentHeader {
	return DocumentHeader{
		Number:         form.Number,
		Date:           date,
		CounterpartyID: form.CounterpartyID,
		Contract:       form.Contract,
		Warehouse:      form.Warehouse,
		Organization:   form.Organization,
		OperationType:  form.OperationType,
		Responsible:    form.Responsible,
		Comment:        form.Comment,
		PricingNote:    form.PricingNote,
	}
}

func itemsFromForm(items []ItemForm) []DocumentItem {
	out := make([]DocumentItem, 0, len(items))
	for _, item := range items {
		out = append(out, DocumentItem{ProductID: item.ProductID, Quantity: item.Quantity, Price: item.Price})
	}
	return out
}

func fieldErrors(err error) map[string]string {
	fields := map[string]string{}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fieldErr := range verrs {
			fields[fieldErr.Field()] = fieldErr.Tag()
		}
	}
	return fields
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid document ID")
		return 0, false
	}
	return id, true
}
