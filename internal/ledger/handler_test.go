package ledger

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func newTestRouter(repo RepositoryPort) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(repo, NewCache(nil, 0), logger)
	handler := NewHandler(logger, svc)

	r := chi.NewRouter()
	r.Route("/accounts", handler.MountAccountRoutes)
	r.Route("/invoices", handler.MountInvoiceRoutes)
	return r
}

func TestHandlerGetLedger(t *testing.T) {
	repo := newMemoryLedgerRepo()
	repo.addInvoice(testInvoice(1, "INV-001", datePtr(2026, 1, 10), "1000.00"))
	router := newTestRouter(repo)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/accounts/1/ledger", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Entries []Entry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Entries, 1)
	require.Equal(t, "INV-001", body.Entries[0].InvoiceNumber)
}

func TestHandlerGetLedgerUnknownAccount(t *testing.T) {
	router := newTestRouter(newMemoryLedgerRepo())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/accounts/42/ledger", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerGetSummaryWithAsOf(t *testing.T) {
	repo := newMemoryLedgerRepo()
	inv := testInvoice(1, "INV-001", datePtr(2026, 1, 10), "1000.00")
	inv.DueDate = datePtr(2026, 1, 31)
	repo.addInvoice(inv)
	router := newTestRouter(repo)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/accounts/1/ledger/summary?as_of=2026-03-01", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var summary Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	require.Equal(t, 1, summary.OverdueCount)
	require.True(t, summary.OverdueAmount.Equal(dec("1000.00")))
}

func TestHandlerGetSummaryDefaultAsOf(t *testing.T) {
	today := time.Now().UTC().Truncate(24 * time.Hour)

	repo := newMemoryLedgerRepo()
	inv := testInvoice(1, "INV-001", datePtr(2026, 1, 10), "1000.00")
	inv.DueDate = &today
	repo.addInvoice(inv)
	router := newTestRouter(repo)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/accounts/1/ledger/summary", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var summary Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	// Due today means not yet overdue, with or without an explicit as_of.
	require.Equal(t, 0, summary.OverdueCount)
	require.True(t, summary.OverdueAmount.IsZero())
}

func TestHandlerGetSummaryBadAsOf(t *testing.T) {
	repo := newMemoryLedgerRepo()
	repo.addInvoice(testInvoice(1, "INV-001", datePtr(2026, 1, 10), "1000.00"))
	router := newTestRouter(repo)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/accounts/1/ledger/summary?as_of=March", nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerExportCSV(t *testing.T) {
	repo := newMemoryLedgerRepo()
	repo.addInvoice(testInvoice(1, "INV-001", datePtr(2026, 1, 10), "1000.00"))
	router := newTestRouter(repo)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/accounts/1/ledger/export.csv", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Body.String(), "Running Balance")
	require.Contains(t, rec.Body.String(), "INV-001")
	require.Contains(t, rec.Body.String(), "Totals")
}

func TestHandlerRecordPayment(t *testing.T) {
	repo := newMemoryLedgerRepo()
	repo.addInvoice(testInvoice(1, "INV-001", datePtr(2026, 1, 10), "1000.00"))
	router := newTestRouter(repo)

	body := `{"amount":"400.00","payment_date":"2026-01-20","payment_mode":"UPI","reference_number":"TXN-7"}`
	req := httptest.NewRequest(http.MethodPost, "/invoices/1/payments", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var payment Payment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payment))
	require.True(t, payment.Amount.Equal(dec("400.00")))
	require.Equal(t, ModeUPI, payment.Mode)
	require.Len(t, repo.payments, 1)
}

func TestHandlerRecordPaymentValidation(t *testing.T) {
	repo := newMemoryLedgerRepo()
	repo.addInvoice(testInvoice(1, "INV-001", datePtr(2026, 1, 10), "1000.00"))
	router := newTestRouter(repo)

	cases := []struct {
		name string
		body string
		want int
	}{
		{"missing amount", `{"payment_mode":"CASH"}`, http.StatusBadRequest},
		{"bad amount", `{"amount":"ten","payment_mode":"CASH"}`, http.StatusBadRequest},
		{"negative amount", `{"amount":"-5.00","payment_mode":"CASH"}`, http.StatusBadRequest},
		{"sub-cent amount", `{"amount":"10.005","payment_mode":"CASH"}`, http.StatusBadRequest},
		{"bad mode", `{"amount":"10.00","payment_mode":"BARTER"}`, http.StatusBadRequest},
		{"not json", `amount=10`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/invoices/1/payments", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			require.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestHandlerRecordPaymentUnknownInvoice(t *testing.T) {
	router := newTestRouter(newMemoryLedgerRepo())

	body := `{"amount":"10.00","payment_mode":"CASH"}`
	req := httptest.NewRequest(http.MethodPost, "/invoices/99/payments", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}
