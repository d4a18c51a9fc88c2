package invoices

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/ledgerline/ledgerline/internal/platform/httpx"
)

// Handler manages invoice endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers invoice routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{invoiceID}", h.get)
}

type createInvoiceRequest struct {
	AccountID   int64  `json:"account_id" validate:"required,gt=0"`
	Number      string `json:"number" validate:"required,max=64"`
	InvoiceDate string `json:"invoice_date" validate:"omitempty,datetime=2006-01-02"`
	DueDate     string `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	Total       string `json:"total" validate:"required"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createInvoiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "malformed JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	total, err := decimal.NewFromString(req.Total)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "total must be a decimal amount")
		return
	}

	input := CreateInvoiceInput{
		AccountID: req.AccountID,
		Number:    req.Number,
		Total:     total,
	}
	if req.InvoiceDate != "" {
		d, _ := time.Parse("2006-01-02", req.InvoiceDate)
		input.InvoiceDate = &d
	}
	if req.DueDate != "" {
		d, _ := time.Parse("2006-01-02", req.DueDate)
		input.DueDate = &d
	}

	inv, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.logger.Error("create invoice", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "invoiceID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "invoice id must be numeric")
		return
	}
	inv, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "invoice not found")
			return
		}
		h.logger.Error("get invoice", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	req := ListInvoicesRequest{Status: PaymentStatus(r.URL.Query().Get("status"))}
	if v := r.URL.Query().Get("account_id"); v != "" {
		req.AccountID, _ = strconv.ParseInt(v, 10, 64)
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		req.Limit, _ = strconv.Atoi(v)
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		req.Offset, _ = strconv.Atoi(v)
	}
	if req.Status != "" && !req.Status.Valid() {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown payment status")
		return
	}

	invs, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list invoices", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"invoices": invs})
}
