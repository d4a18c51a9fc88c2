package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// MetricsRecorder counts recorded payments. Nil implementations are allowed.
type MetricsRecorder interface {
	PaymentRecorded()
}

// keyedMutex serialises writers per invoice without a global lock.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[int64]*invoiceLock
}

type invoiceLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: map[int64]*invoiceLock{}}
}

func (k *keyedMutex) lock(invoiceID int64) {
	k.mu.Lock()
	l, ok := k.locks[invoiceID]
	if !ok {
		l = &invoiceLock{}
		k.locks[invoiceID] = l
	}
	l.refs++
	k.mu.Unlock()
	l.mu.Lock()
}

func (k *keyedMutex) unlock(invoiceID int64) {
	k.mu.Lock()
	l := k.locks[invoiceID]
	l.refs--
	if l.refs == 0 {
		delete(k.locks, invoiceID)
	}
	k.mu.Unlock()
	l.mu.Unlock()
}

// Service exposes the reconciliation engine: statement builds, aggregate
// summaries and payment recording.
type Service struct {
	repo    RepositoryPort
	cache   *Cache
	logger  *slog.Logger
	locks   *keyedMutex
	group   singleflight.Group
	metrics MetricsRecorder
}

// NewService wires the ledger service.
func NewService(repo RepositoryPort, cache *Cache, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		cache:  cache,
		logger: logger,
		locks:  newKeyedMutex(),
	}
}

// SetMetrics attaches an optional payment counter.
func (s *Service) SetMetrics(m MetricsRecorder) {
	s.metrics = m
}

// BuildLedger returns the account's full date-ordered statement with running
// balances. Concurrent requests for the same account collapse into one build.
func (s *Service) BuildLedger(ctx context.Context, accountID int64) ([]Entry, error) {
	if accountID <= 0 {
		return nil, ErrInvalidAccount
	}
	ok, err := s.repo.AccountExists(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("ledger: check account: %w", err)
	}
	if !ok {
		return nil, ErrInvalidAccount
	}

	key, err := s.cache.BuildKey(ctx, accountID, keyEntries(accountID))
	if err != nil {
		return nil, err
	}
	result, err, _ := s.group.Do("entries:"+key, func() (interface{}, error) {
		var entries []Entry
		err := s.cache.FetchJSON(ctx, key, &entries, func(ctx context.Context) (interface{}, error) {
			return s.loadEntries(ctx, accountID)
		})
		return entries, err
	})
	if err != nil {
		return nil, err
	}
	return result.([]Entry), nil
}

// SummarizeLedger returns aggregate totals and overdue exposure for the
// account as of the given cutoff.
func (s *Service) SummarizeLedger(ctx context.Context, accountID int64, asOf time.Time) (*Summary, error) {
	if accountID <= 0 {
		return nil, ErrInvalidAccount
	}
	ok, err := s.repo.AccountExists(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("ledger: check account: %w", err)
	}
	if !ok {
		return nil, ErrInvalidAccount
	}

	key, err := s.cache.BuildKey(ctx, accountID, keySummary(accountID, asOf))
	if err != nil {
		return nil, err
	}
	result, err, _ := s.group.Do("summary:"+key, func() (interface{}, error) {
		var summary Summary
		err := s.cache.FetchJSON(ctx, key, &summary, func(ctx context.Context) (interface{}, error) {
			return s.loadSummary(ctx, accountID, asOf)
		})
		return &summary, err
	})
	if err != nil {
		return nil, err
	}
	return result.(*Summary), nil
}

// RecordPayment validates and persists one payment against an invoice.
// Writes against the same invoice are serialised; overpayment is accepted
// and logged rather than rejected.
func (s *Service) RecordPayment(ctx context.Context, input RecordPaymentInput) (*Payment, error) {
	if input.InvoiceID <= 0 {
		return nil, ErrInvoiceNotFound
	}
	if !input.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidAmount)
	}
	if !input.Amount.Equal(input.Amount.Round(2)) {
		return nil, fmt.Errorf("%w: amount must have at most two decimal places", ErrInvalidAmount)
	}
	if !input.Mode.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, input.Mode)
	}
	if input.PaidAt.IsZero() {
		input.PaidAt = time.Now().UTC()
	}
	input.Reference = strings.TrimSpace(input.Reference)
	// Value-preserving after the precision check, trims trailing zeros only.
	input.Amount = input.Amount.Round(2)
	if input.PublicID == uuid.Nil {
		input.PublicID = uuid.New()
	}

	s.locks.lock(input.InvoiceID)
	defer s.locks.unlock(input.InvoiceID)

	inv, err := s.repo.GetInvoice(ctx, input.InvoiceID)
	if err != nil {
		return nil, err
	}

	payments, err := s.repo.PaymentsByAccount(ctx, inv.AccountID)
	if err != nil {
		return nil, fmt.Errorf("ledger: load payments: %w", err)
	}
	paid := input.Amount
	for _, p := range payments {
		if p.InvoiceID == inv.ID {
			paid = paid.Add(p.Amount)
		}
	}
	if paid.GreaterThan(inv.Total) {
		s.logger.Warn("payment exceeds invoice total",
			slog.Int64("invoice_id", inv.ID),
			slog.String("invoice_number", inv.Number),
			slog.String("invoice_total", inv.Total.StringFixed(2)),
			slog.String("paid_to_date", paid.StringFixed(2)),
		)
	}

	payment, err := s.repo.CreatePayment(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("ledger: create payment: %w", err)
	}

	if s.metrics != nil {
		s.metrics.PaymentRecorded()
	}

	if err := s.cache.Bump(ctx, inv.AccountID); err != nil {
		s.logger.Warn("ledger cache bump failed",
			slog.Int64("account_id", inv.AccountID), slog.Any("error", err))
	}

	s.logger.Info("payment recorded",
		slog.Int64("payment_id", payment.ID),
		slog.Int64("invoice_id", inv.ID),
		slog.String("amount", payment.Amount.StringFixed(2)),
		slog.String("mode", string(payment.Mode)),
	)
	return payment, nil
}

func (s *Service) loadEntries(ctx context.Context, accountID int64) ([]Entry, error) {
	invs, err := s.repo.InvoicesByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("ledger: load invoices: %w", err)
	}
	payments, err := s.repo.PaymentsByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("ledger: load payments: %w", err)
	}
	return BuildEntries(invs, payments)
}

func (s *Service) loadSummary(ctx context.Context, accountID int64, asOf time.Time) (*Summary, error) {
	invs, err := s.repo.InvoicesByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("ledger: load invoices: %w", err)
	}
	payments, err := s.repo.PaymentsByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("ledger: load payments: %w", err)
	}
	entries, err := BuildEntries(invs, payments)
	if err != nil {
		return nil, err
	}
	summary := Summarize(invs, payments, entries, asOf)
	return &summary, nil
}
