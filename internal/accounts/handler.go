package accounts

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/ledgerline/ledgerline/internal/platform/httpx"
)

// Handler manages account endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers account routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{accountID}", h.get)
}

type createAccountRequest struct {
	Code string `json:"code" validate:"required,max=32"`
	Name string `json:"name" validate:"required,max=255"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "malformed JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	acc, err := h.service.Create(r.Context(), CreateAccountInput{Code: req.Code, Name: req.Name})
	if err != nil {
		if errors.Is(err, ErrDuplicateCode) {
			httpx.Problem(w, http.StatusConflict, "Duplicate", "account code already exists")
			return
		}
		h.logger.Error("create account", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	httpx.JSON(w, http.StatusCreated, acc)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "accountID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "account id must be numeric")
		return
	}
	acc, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "account not found")
			return
		}
		h.logger.Error("get account", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, acc)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	req := ListAccountsRequest{Search: r.URL.Query().Get("q")}
	if v := r.URL.Query().Get("active"); v != "" {
		active := v == "true" || v == "1"
		req.IsActive = &active
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		req.Limit, _ = strconv.Atoi(v)
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		req.Offset, _ = strconv.Atoi(v)
	}

	accounts, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list accounts", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"accounts": accounts, "total": total})
}
