package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("accounts: not found")
	// ErrDuplicateCode indicates the account code is already taken.
	ErrDuplicateCode = errors.New("accounts: code already exists")
)

// RepositoryPort defines data access methods for accounts.
type RepositoryPort interface {
	Create(ctx context.Context, input CreateAccountInput) (*Account, error)
	Get(ctx context.Context, id int64) (*Account, error)
	List(ctx context.Context, req ListAccountsRequest) ([]Account, int, error)
}

// Repository provides PostgreSQL backed persistence for accounts.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new active account.
func (r *Repository) Create(ctx context.Context, input CreateAccountInput) (*Account, error) {
	query := `
		INSERT INTO accounts (code, name, is_active, created_at, updated_at)
		VALUES ($1, $2, TRUE, NOW(), NOW())
		RETURNING id, created_at, updated_at`

	var acc Account
	err := r.pool.QueryRow(ctx, query, input.Code, input.Name).Scan(&acc.ID, &acc.CreatedAt, &acc.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicateCode
		}
		return nil, err
	}

	acc.Code = input.Code
	acc.Name = input.Name
	acc.IsActive = true
	return &acc, nil
}

// Get retrieves an account by ID.
func (r *Repository) Get(ctx context.Context, id int64) (*Account, error) {
	query := `SELECT id, code, name, is_active, created_at, updated_at FROM accounts WHERE id = $1`

	var acc Account
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&acc.ID, &acc.Code, &acc.Name, &acc.IsActive, &acc.CreatedAt, &acc.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

// List returns accounts with optional filtering plus the unpaged total.
func (r *Repository) List(ctx context.Context, req ListAccountsRequest) ([]Account, int, error) {
	where := " WHERE 1=1"
	args := []any{}
	argNum := 1

	if req.Search != "" {
		where += fmt.Sprintf(" AND (code ILIKE $%d OR name ILIKE $%d)", argNum, argNum)
		args = append(args, "%"+req.Search+"%")
		argNum++
	}
	if req.IsActive != nil {
		where += fmt.Sprintf(" AND is_active = $%d", argNum)
		args = append(args, *req.IsActive)
		argNum++
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM accounts"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := "SELECT id, code, name, is_active, created_at, updated_at FROM accounts" + where + " ORDER BY code"
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
		return nil, 0, err
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		var acc Account
		if err := rows.Scan(&acc.ID, &acc.Code, &acc.Name, &acc.IsActive, &acc.CreatedAt, &acc.UpdatedAt); err != nil {
			return nil, 0, err
		}
		accounts = append(accounts, acc)
	}
	return accounts, total, rows.Err()
}
