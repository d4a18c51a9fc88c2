package accounts

import "time"

// Account identifies the counterparty being reconciled.
type Account struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateAccountInput for creating accounts.
type CreateAccountInput struct {
	Code string
	Name string
}

// ListAccountsRequest filters account listings.
type ListAccountsRequest struct {
	Search   string
	IsActive *bool
	Limit    int
	Offset   int
}
