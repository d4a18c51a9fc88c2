package invoices

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus enumerates invoice payment statuses. The status column is
// advisory bookkeeping; overdue exposure is always recomputed from dates.
type PaymentStatus string

const (
	StatusUnpaid  PaymentStatus = "UNPAID"
	StatusPartial PaymentStatus = "PARTIAL"
	StatusPaid    PaymentStatus = "PAID"
	StatusOverdue PaymentStatus = "OVERDUE"
)

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case StatusUnpaid, StatusPartial, StatusPaid, StatusOverdue:
		return true
	}
	return false
}

// Invoice model. InvoiceDate and DueDate are nullable; a missing invoice date
// still participates in ledger ordering via a defined fallback.
type Invoice struct {
	ID          int64           `json:"id"`
	AccountID   int64           `json:"account_id"`
	Number      string          `json:"number"`
	InvoiceDate *time.Time      `json:"invoice_date,omitempty"`
	DueDate     *time.Time      `json:"due_date,omitempty"`
	Total       decimal.Decimal `json:"total"`
	Status      PaymentStatus   `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// CreateInvoiceInput for creating invoices.
type CreateInvoiceInput struct {
	AccountID   int64
	Number      string
	InvoiceDate *time.Time
	DueDate     *time.Time
	Total       decimal.Decimal
}

// ListInvoicesRequest filters invoice listings.
type ListInvoicesRequest struct {
	AccountID int64
	Status    PaymentStatus
	Limit     int
	Offset    int
}
