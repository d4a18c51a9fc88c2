package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/ledgerline/ledgerline/internal/accounts"
	"github.com/ledgerline/ledgerline/internal/invoices"
	"github.com/ledgerline/ledgerline/internal/ledger"
	"github.com/ledgerline/ledgerline/internal/observability"
	"github.com/ledgerline/ledgerline/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	AccountsHandler *accounts.Handler
	InvoicesHandler *invoices.Handler
	LedgerHandler   *ledger.Handler
	JobHandler      *jobs.Handler
	Metrics         *observability.Metrics
}

// NewRouter constructs the chi.Router with Ledgerline defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/accounts", func(r chi.Router) {
		if params.AccountsHandler != nil {
			params.AccountsHandler.MountRoutes(r)
		}
		if params.LedgerHandler != nil {
			params.LedgerHandler.MountAccountRoutes(r)
		}
	})
	r.Route("/invoices", func(r chi.Router) {
		if params.InvoicesHandler != nil {
			params.InvoicesHandler.MountRoutes(r)
		}
		if params.LedgerHandler != nil {
			params.LedgerHandler.MountInvoiceRoutes(r)
		}
	})
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
