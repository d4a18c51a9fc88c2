package ledger

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ledgerline/ledgerline/internal/invoices"
	"github.com/ledgerline/ledgerline/internal/platform/db"
)

// RepositoryPort defines data access methods for the reconciliation engine.
type RepositoryPort interface {
	AccountExists(ctx context.Context, accountID int64) (bool, error)
	InvoicesByAccount(ctx context.Context, accountID int64) ([]invoices.Invoice, error)
	PaymentsByAccount(ctx context.Context, accountID int64) ([]Payment, error)
	GetInvoice(ctx context.Context, invoiceID int64) (*invoices.Invoice, error)
	CreatePayment(ctx context.Context, input RecordPaymentInput) (*Payment, error)
}

// Repository provides PostgreSQL backed persistence for the ledger engine.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// AccountExists reports whether the account id resolves.
func (r *Repository) AccountExists(ctx context.Context, accountID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1)`, accountID).Scan(&exists)
	return exists, err
}

// InvoicesByAccount returns every invoice belonging to the account.
func (r *Repository) InvoicesByAccount(ctx context.Context, accountID int64) ([]invoices.Invoice, error) {
	query := `
		SELECT id, account_id, number, invoice_date, due_date, total, status, created_at, updated_at
		FROM invoices
		WHERE account_id = $1
		ORDER BY invoice_date NULLS FIRST, id`

	rows, err := r.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []invoices.Invoice
	for rows.Next() {
		var inv invoices.Invoice
		var invoiceDate, dueDate pgtype.Date
		var total pgtype.Numeric
		if err := rows.Scan(
			&inv.ID, &inv.AccountID, &inv.Number, &invoiceDate, &dueDate,
			&total, &inv.Status, &inv.CreatedAt, &inv.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if invoiceDate.Valid {
			t := invoiceDate.Time
			inv.InvoiceDate = &t
		}
		if dueDate.Valid {
			t := dueDate.Time
			inv.DueDate = &t
		}
		inv.Total = invoices.NumericToDecimal(total)
		out = append(out, inv)
	}
	return out, rows.Err()
}

// PaymentsByAccount returns every payment recorded against the account's
// invoices, in paid-at order.
func (r *Repository) PaymentsByAccount(ctx context.Context, accountID int64) ([]Payment, error) {
	query := `
		SELECT p.id, p.public_id, p.invoice_id, p.amount, p.paid_at, p.mode, p.reference, p.created_at
		FROM payments p
		JOIN invoices i ON i.id = p.invoice_id
		WHERE i.account_id = $1
		ORDER BY p.paid_at, p.id`

	rows, err := r.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Payment
	for rows.Next() {
		var p Payment
		var amount pgtype.Numeric
		var reference pgtype.Text
		if err := rows.Scan(&p.ID, &p.PublicID, &p.InvoiceID, &amount, &p.PaidAt, &p.Mode, &reference, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.Amount = invoices.NumericToDecimal(amount)
		if reference.Valid {
			p.Reference = reference.String
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetInvoice retrieves one invoice by id.
func (r *Repository) GetInvoice(ctx context.Context, invoiceID int64) (*invoices.Invoice, error) {
	query := `
		SELECT id, account_id, number, invoice_date, due_date, total, status, created_at, updated_at
		FROM invoices
		WHERE id = $1`

	var inv invoices.Invoice
	var invoiceDate, dueDate pgtype.Date
	var total pgtype.Numeric
	err := r.pool.QueryRow(ctx, query, invoiceID).Scan(
		&inv.ID, &inv.AccountID, &inv.Number, &invoiceDate, &dueDate,
		&total, &inv.Status, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInvoiceNotFound
	}
	if err != nil {
		return nil, err
	}
	if invoiceDate.Valid {
		t := invoiceDate.Time
		inv.InvoiceDate = &t
	}
	if dueDate.Valid {
		t := dueDate.Time
		inv.DueDate = &t
	}
	inv.Total = invoices.NumericToDecimal(total)
	return &inv, nil
}

// CreatePayment inserts the payment row and refreshes the owning invoice's
// advisory status inside one repeatable-read transaction. The payment either
// fully exists afterwards or does not.
func (r *Repository) CreatePayment(ctx context.Context, input RecordPaymentInput) (*Payment, error) {
	var payment Payment
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		insert := `
			INSERT INTO payments (public_id, invoice_id, amount, paid_at, mode, reference, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, NOW())
			RETURNING id, created_at`

		err := tx.QueryRow(ctx, insert,
			input.PublicID,
			input.InvoiceID,
			input.Amount.StringFixed(2),
			input.PaidAt,
			string(input.Mode),
			input.Reference,
		).Scan(&payment.ID, &payment.CreatedAt)
		if err != nil {
			return err
		}

		var total, paid pgtype.Numeric
		err = tx.QueryRow(ctx, `
			SELECT i.total, COALESCE(SUM(p.amount), 0)
			FROM invoices i
			LEFT JOIN payments p ON p.invoice_id = i.id
			WHERE i.id = $1
			GROUP BY i.id`, input.InvoiceID,
		).Scan(&total, &paid)
		if err != nil {
			return err
		}

		status := nextStatus(invoices.NumericToDecimal(total), invoices.NumericToDecimal(paid))
		_, err = tx.Exec(ctx, `UPDATE invoices SET status = $1, updated_at = NOW() WHERE id = $2`, string(status), input.InvoiceID)
		return err
	})
	if err != nil {
		return nil, err
	}

	payment.PublicID = input.PublicID
	payment.InvoiceID = input.InvoiceID
	payment.Amount = input.Amount
	payment.PaidAt = input.PaidAt
	payment.Mode = input.Mode
	payment.Reference = input.Reference
	return &payment, nil
}

// nextStatus derives the advisory payment status from recomputed paid-to-date.
func nextStatus(total, paid decimal.Decimal) invoices.PaymentStatus {
	switch {
	case paid.GreaterThanOrEqual(total) && total.IsPositive():
		return invoices.StatusPaid
	case paid.IsPositive():
		return invoices.StatusPartial
	default:
		return invoices.StatusUnpaid
	}
}
