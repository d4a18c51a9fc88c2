package invoices

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ErrNotFound indicates resource not found.
var ErrNotFound = errors.New("invoices: not found")

// RepositoryPort defines data access methods for invoices.
type RepositoryPort interface {
	Create(ctx context.Context, input CreateInvoiceInput) (*Invoice, error)
	Get(ctx context.Context, id int64) (*Invoice, error)
	List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, error)
}

// Repository provides PostgreSQL backed persistence for invoices.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new invoice in UNPAID status.
func (r *Repository) Create(ctx context.Context, input CreateInvoiceInput) (*Invoice, error) {
	query := `
		INSERT INTO invoices (account_id, number, invoice_date, due_date, total, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id, created_at, updated_at`

	var inv Invoice
	err := r.pool.QueryRow(ctx, query,
		input.AccountID,
		input.Number,
		dateParam(input.InvoiceDate),
		dateParam(input.DueDate),
		input.Total.StringFixed(2),
		StatusUnpaid,
	).Scan(&inv.ID, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}

	inv.AccountID = input.AccountID
	inv.Number = input.Number
	inv.InvoiceDate = input.InvoiceDate
	inv.DueDate = input.DueDate
	inv.Total = input.Total
	inv.Status = StatusUnpaid
	return &inv, nil
}

// Get retrieves an invoice by ID.
func (r *Repository) Get(ctx context.Context, id int64) (*Invoice, error) {
	query := `
		SELECT id, account_id, number, invoice_date, due_date, total, status, created_at, updated_at
		FROM invoices
		WHERE id = $1`

	inv, err := scanInvoice(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// List returns invoices with optional filtering, newest first.
func (r *Repository) List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, error) {
	query := `
		SELECT id, account_id, number, invoice_date, due_date, total, status, created_at, updated_at
		FROM invoices
		WHERE 1=1`

	args := []any{}
	argNum := 1

	if req.AccountID > 0 {
		query += fmt.Sprintf(" AND account_id = $%d", argNum)
		args = append(args, req.AccountID)
		argNum++
	}
	if req.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, string(req.Status))
		argNum++
	}

	query += " ORDER BY created_at DESC, id DESC"

	if req.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, req.Limit)
		argNum++
	}
	if req.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argNum)
		args = append(args, req.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *inv)
	}
	return out, rows.Err()
}

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	var invoiceDate, dueDate pgtype.Date
	var total pgtype.Numeric

	err := row.Scan(
		&inv.ID, &inv.AccountID, &inv.Number, &invoiceDate, &dueDate,
		&total, &inv.Status, &inv.CreatedAt, &inv.UpdatedAt,
	)
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
	inv.Total = NumericToDecimal(total)
	return &inv, nil
}

func dateParam(t *time.Time) pgtype.Date {
	if t == nil {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: *t, Valid: true}
}

// NumericToDecimal converts a Postgres numeric into a decimal amount.
func NumericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(new(big.Int).Set(n.Int), n.Exp)
}
