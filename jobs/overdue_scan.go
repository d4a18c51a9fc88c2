package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ledgerline/ledgerline/internal/ledger"
)

// OverdueScanJob walks every active account, summarises its ledger and
// enqueues a reminder email for each account whose overdue exposure crosses
// the configured threshold.
type OverdueScanJob struct {
	Pool      *pgxpool.Pool
	Ledger    *ledger.Service
	Client    *Client
	Logger    *slog.Logger
	Recipient string
	Threshold decimal.Decimal
	clock     func() time.Time
}

// NewOverdueScanJob initialises the overdue scan handler. Recipient is the
// collections inbox that receives reminders.
func NewOverdueScanJob(pool *pgxpool.Pool, svc *ledger.Service, client *Client, logger *slog.Logger, recipient string, threshold decimal.Decimal) *OverdueScanJob {
	return &OverdueScanJob{
		Pool:      pool,
		Ledger:    svc,
		Client:    client,
		Logger:    logger,
		Recipient: recipient,
		Threshold: threshold,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the overdue exposure scan.
func (j *OverdueScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("overdue scan: handler not configured")
	}
	var payload OverdueScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	threshold := j.Threshold
	if payload.Threshold != "" {
		parsed, err := decimal.NewFromString(payload.Threshold)
		if err != nil {
			return asynq.SkipRetry
		}
		threshold = parsed
	}

	start := j.now()
	logger := j.logger().With(slog.String("threshold", threshold.StringFixed(2)))
	logger.Info("starting overdue scan")

	accounts, err := j.activeAccounts(ctx)
	if err != nil {
		logger.Error("scan failed", slog.Any("error", err))
		return err
	}

	flagged := 0
	for _, acc := range accounts {
		summary, err := j.Ledger.SummarizeLedger(ctx, acc.id, start)
		if err != nil {
			logger.Error("summarize failed", slog.Int64("account_id", acc.id), slog.Any("error", err))
			continue
		}
		if summary.OverdueCount == 0 || summary.OverdueAmount.LessThan(threshold) {
			continue
		}
		flagged++
		logger.Warn("overdue exposure detected",
			slog.Int64("account_id", acc.id),
			slog.String("account_code", acc.code),
			slog.String("overdue_amount", summary.OverdueAmount.StringFixed(2)),
			slog.Int("overdue_invoices", summary.OverdueCount),
		)
		if j.Client == nil || j.Recipient == "" {
			continue
		}
		_, err = j.Client.EnqueueSendEmail(ctx, SendEmailPayload{
			To:      j.Recipient,
			Subject: fmt.Sprintf("Overdue exposure on account %s", acc.code),
			Body: fmt.Sprintf("Account %s (%s) has %d overdue invoice(s) totalling %s as of %s.",
				acc.code, acc.name, summary.OverdueCount,
				summary.OverdueAmount.StringFixed(2), start.Format("2006-01-02")),
		})
		if err != nil {
			logger.Error("reminder enqueue failed", slog.Int64("account_id", acc.id), slog.Any("error", err))
		}
	}

	logger.Info("completed overdue scan",
		slog.Int("accounts", len(accounts)),
		slog.Int("flagged", flagged),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

type scanAccount struct {
	id   int64
	code string
	name string
}

func (j *OverdueScanJob) activeAccounts(ctx context.Context) ([]scanAccount, error) {
	if j.Pool == nil {
		return nil, errors.New("overdue scan: pool not configured")
	}
	rows, err := j.Pool.Query(ctx, `SELECT id, code, name FROM accounts WHERE is_active ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []scanAccount
	for rows.Next() {
		var acc scanAccount
		if err := rows.Scan(&acc.id, &acc.code, &acc.name); err != nil {
			return nil, err
		}
		out = append(out, acc)
	}
	return out, rows.Err()
}

func (j *OverdueScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskLedgerOverdueScan))
	}
	return slog.Default().With(slog.String("job", TaskLedgerOverdueScan))
}

func (j *OverdueScanJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
