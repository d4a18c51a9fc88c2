package ledger

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/ledgerline/ledgerline/internal/platform/httpx"
)

// Handler exposes the reconciliation endpoints.
type Handler struct {
	service  *Service
	logger   *slog.Logger
	validate *validator.Validate
}

// NewHandler constructs the ledger handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		service:  service,
		logger:   logger,
		validate: validator.New(),
	}
}

// MountAccountRoutes registers the statement endpoints on the accounts subrouter.
func (h *Handler) MountAccountRoutes(r chi.Router) {
	r.Get("/{accountID}/ledger", h.getLedger)
	r.Get("/{accountID}/ledger/summary", h.getSummary)
	r.Get("/{accountID}/ledger/export.csv", h.exportCSV)
}

// MountInvoiceRoutes registers the payment endpoint on the invoices subrouter.
func (h *Handler) MountInvoiceRoutes(r chi.Router) {
	r.Post("/{invoiceID}/payments", h.recordPayment)
}

func (h *Handler) getLedger(w http.ResponseWriter, r *http.Request) {
	accountID, err := strconv.ParseInt(chi.URLParam(r, "accountID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Account", "account id must be an integer")
		return
	}

	entries, err := h.service.BuildLedger(r.Context(), accountID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h *Handler) getSummary(w http.ResponseWriter, r *http.Request) {
	accountID, err := strconv.ParseInt(chi.URLParam(r, "accountID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Account", "account id must be an integer")
		return
	}

	// Midnight UTC so the default agrees with an explicit as_of of today.
	asOf := time.Now().UTC().Truncate(24 * time.Hour)
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Date", "as_of must be YYYY-MM-DD")
			return
		}
		asOf = parsed
	}

	summary, err := h.service.SummarizeLedger(r.Context(), accountID, asOf)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) exportCSV(w http.ResponseWriter, r *http.Request) {
	accountID, err := strconv.ParseInt(chi.URLParam(r, "accountID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Account", "account id must be an integer")
		return
	}

	entries, err := h.service.BuildLedger(r.Context(), accountID)
	if err != nil {
		h.respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=ledger-%d.csv", accountID))
	if err := WriteLedgerCSV(w, entries); err != nil {
		h.logger.Error("ledger csv export failed", slog.Int64("account_id", accountID), slog.Any("error", err))
	}
}

type recordPaymentRequest struct {
	Amount    string `json:"amount" validate:"required"`
	PaidAt    string `json:"payment_date" validate:"omitempty,datetime=2006-01-02"`
	Mode      string `json:"payment_mode" validate:"required"`
	Reference string `json:"reference_number" validate:"omitempty,max=120"`
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	invoiceID, err := strconv.ParseInt(chi.URLParam(r, "invoiceID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Invoice", "invoice id must be an integer")
		return
	}

	var req recordPaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "request body must be valid JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Amount", "amount must be a decimal number")
		return
	}

	input := RecordPaymentInput{
		InvoiceID: invoiceID,
		Amount:    amount,
		Mode:      PaymentMode(req.Mode),
		Reference: req.Reference,
	}
	if req.PaidAt != "" {
		paidAt, _ := time.Parse("2006-01-02", req.PaidAt)
		input.PaidAt = paidAt
	}

	payment, err := h.service.RecordPayment(r.Context(), input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, payment)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidAccount):
		httpx.Problem(w, http.StatusNotFound, "Account Not Found", err.Error())
	case errors.Is(err, ErrInvoiceNotFound):
		httpx.Problem(w, http.StatusNotFound, "Invoice Not Found", err.Error())
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrInvalidMode):
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payment", err.Error())
	case errors.Is(err, ErrDataIntegrity):
		httpx.Problem(w, http.StatusConflict, "Data Integrity", err.Error())
	default:
		h.logger.Error("ledger request failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
