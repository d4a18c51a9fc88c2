package ledger

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/ledgerline/internal/invoices"
)

type memoryLedgerRepo struct {
	accounts      map[int64]bool
	invoices      map[int64]*invoices.Invoice
	payments      []Payment
	nextPaymentID int64
}

func newMemoryLedgerRepo() *memoryLedgerRepo {
	return &memoryLedgerRepo{
		accounts: make(map[int64]bool),
		invoices: make(map[int64]*invoices.Invoice),
	}
}

func (r *memoryLedgerRepo) addInvoice(inv invoices.Invoice) {
	r.accounts[inv.AccountID] = true
	copied := inv
	r.invoices[inv.ID] = &copied
}

func (r *memoryLedgerRepo) AccountExists(ctx context.Context, accountID int64) (bool, error) {
	return r.accounts[accountID], nil
}

func (r *memoryLedgerRepo) InvoicesByAccount(ctx context.Context, accountID int64) ([]invoices.Invoice, error) {
	var out []invoices.Invoice
	for _, inv := range r.invoices {
		if inv.AccountID == accountID {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (r *memoryLedgerRepo) PaymentsByAccount(ctx context.Context, accountID int64) ([]Payment, error) {
	var out []Payment
	for _, p := range r.payments {
		inv, ok := r.invoices[p.InvoiceID]
		if ok && inv.AccountID == accountID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memoryLedgerRepo) GetInvoice(ctx context.Context, invoiceID int64) (*invoices.Invoice, error) {
	inv, ok := r.invoices[invoiceID]
	if !ok {
		return nil, ErrInvoiceNotFound
	}
	copied := *inv
	return &copied, nil
}

func (r *memoryLedgerRepo) CreatePayment(ctx context.Context, input RecordPaymentInput) (*Payment, error) {
	r.nextPaymentID++
	p := Payment{
		ID:        r.nextPaymentID,
		PublicID:  input.PublicID,
		InvoiceID: input.InvoiceID,
		Amount:    input.Amount,
		PaidAt:    input.PaidAt,
		Mode:      input.Mode,
		Reference: input.Reference,
		CreatedAt: time.Now(),
	}
	r.payments = append(r.payments, p)

	inv := r.invoices[input.InvoiceID]
	paid := decimal.Zero
	for _, pay := range r.payments {
		if pay.InvoiceID == input.InvoiceID {
			paid = paid.Add(pay.Amount)
		}
	}
	switch {
	case paid.GreaterThanOrEqual(inv.Total) && inv.Total.IsPositive():
		inv.Status = invoices.StatusPaid
	case paid.IsPositive():
		inv.Status = invoices.StatusPartial
	}
	return &p, nil
}

func newTestService(repo RepositoryPort) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(repo, NewCache(nil, 0), logger)
}

func TestServiceBuildLedgerUnknownAccount(t *testing.T) {
	svc := newTestService(newMemoryLedgerRepo())

	_, err := svc.BuildLedger(context.Background(), 42)
	require.ErrorIs(t, err, ErrInvalidAccount)

	_, err = svc.BuildLedger(context.Background(), 0)
	require.ErrorIs(t, err, ErrInvalidAccount)
}

func TestServiceBuildLedger(t *testing.T) {
	repo := newMemoryLedgerRepo()
	repo.addInvoice(testInvoice(1, "INV-001", datePtr(2026, 1, 10), "1000.00"))
	svc := newTestService(repo)

	entries, err := svc.BuildLedger(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.True(t, entries[0].Balance.Equal(dec("1000.00")))
}

func TestServiceRecordPaymentInvoiceNotFound(t *testing.T) {
	svc := newTestService(newMemoryLedgerRepo())

	_, err := svc.RecordPayment(context.Background(), RecordPaymentInput{
		InvoiceID: 99,
		Amount:    dec("50.00"),
		Mode:      ModeCash,
	})
	require.ErrorIs(t, err, ErrInvoiceNotFound)
}

func TestServiceRecordPaymentInvalidAmount(t *testing.T) {
	repo := newMemoryLedgerRepo()
	repo.addInvoice(testInvoice(1, "INV-001", datePtr(2026, 1, 10), "100.00"))
	svc := newTestService(repo)

	for _, amount := range []string{"0.00", "-10.00", "10.005", "0.001"} {
		_, err := svc.RecordPayment(context.Background(), RecordPaymentInput{
			InvoiceID: 1,
			Amount:    dec(amount),
			Mode:      ModeCash,
		})
		require.ErrorIs(t, err, ErrInvalidAmount)
	}
}

func TestServiceRecordPaymentTrailingZerosAccepted(t *testing.T) {
	repo := newMemoryLedgerRepo()
	repo.addInvoice(testInvoice(1, "INV-001", datePtr(2026, 1, 10), "100.00"))
	svc := newTestService(repo)

	payment, err := svc.RecordPayment(context.Background(), RecordPaymentInput{
		InvoiceID: 1,
		Amount:    dec("25.500"),
		Mode:      ModeCash,
	})
	require.NoError(t, err)
	require.Equal(t, "25.50", payment.Amount.StringFixed(2))
}

func TestServiceRecordPaymentInvalidMode(t *testing.T) {
	repo := newMemoryLedgerRepo()
	repo.addInvoice(testInvoice(1, "INV-001", datePtr(2026, 1, 10), "100.00"))
	svc := newTestService(repo)

	_, err := svc.RecordPayment(context.Background(), RecordPaymentInput{
		InvoiceID: 1,
		Amount:    dec("50.00"),
		Mode:      PaymentMode("BARTER"),
	})
	require.ErrorIs(t, err, ErrInvalidMode)
}

func TestServiceRecordPaymentOverpayAllowed(t *testing.T) {
	repo := newMemoryLedgerRepo()
	repo.addInvoice(testInvoice(1, "INV-001", datePtr(2026, 1, 10), "100.00"))
	svc := newTestService(repo)

	payment, err := svc.RecordPayment(context.Background(), RecordPaymentInput{
		InvoiceID: 1,
		Amount:    dec("150.00"),
		Mode:      ModeBankTransfer,
		PaidAt:    time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.True(t, payment.Amount.Equal(dec("150.00")))
	require.NotEqual(t, uuid.Nil, payment.PublicID)

	entries, err := svc.BuildLedger(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.True(t, entries[1].Balance.Equal(dec("-50.00")))
}

func TestServiceRecordPaymentUpdatesStatus(t *testing.T) {
	repo := newMemoryLedgerRepo()
	repo.addInvoice(testInvoice(1, "INV-001", datePtr(2026, 1, 10), "100.00"))
	svc := newTestService(repo)

	_, err := svc.RecordPayment(context.Background(), RecordPaymentInput{
		InvoiceID: 1,
		Amount:    dec("40.00"),
		Mode:      ModeCash,
		PaidAt:    time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Equal(t, invoices.StatusPartial, repo.invoices[1].Status)

	_, err = svc.RecordPayment(context.Background(), RecordPaymentInput{
		InvoiceID: 1,
		Amount:    dec("60.00"),
		Mode:      ModeCash,
		PaidAt:    time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Equal(t, invoices.StatusPaid, repo.invoices[1].Status)
}

func TestServiceRecordPaymentConcurrentSameInvoice(t *testing.T) {
	repo := newMemoryLedgerRepo()
	repo.addInvoice(testInvoice(1, "INV-001", datePtr(2026, 1, 10), "1000.00"))
	svc := newTestService(repo)

	const writers = 10
	errCh := make(chan error, writers)
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func() {
			defer wg.Done()
			_, err := svc.RecordPayment(context.Background(), RecordPaymentInput{
				InvoiceID: 1,
				Amount:    dec("10.00"),
				Mode:      ModeCash,
				PaidAt:    time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
			})
			errCh <- err
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		require.NoError(t, err)
	}

	require.Len(t, repo.payments, writers)
	payments, err := repo.PaymentsByAccount(context.Background(), 1)
	require.NoError(t, err)
	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(p.Amount)
	}
	require.True(t, total.Equal(dec("100.00")))
}

func TestServiceSummarizeLedger(t *testing.T) {
	repo := newMemoryLedgerRepo()
	inv := testInvoice(1, "INV-001", datePtr(2026, 1, 10), "1000.00")
	inv.DueDate = datePtr(2026, 1, 31)
	repo.addInvoice(inv)
	svc := newTestService(repo)

	_, err := svc.RecordPayment(context.Background(), RecordPaymentInput{
		InvoiceID: 1,
		Amount:    dec("400.00"),
		Mode:      ModeUPI,
		PaidAt:    time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	asOf := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	summary, err := svc.SummarizeLedger(context.Background(), 1, asOf)
	require.NoError(t, err)
	require.True(t, summary.NetBalance.Equal(dec("600.00")))
	require.Equal(t, 1, summary.OverdueCount)
	require.True(t, summary.OverdueAmount.Equal(dec("600.00")))
}
