package ledger

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Error kinds surfaced by the reconciliation engine. All are recoverable
// by the caller; the engine never partially commits.
var (
	// ErrInvalidAccount indicates the account id does not resolve.
	ErrInvalidAccount = errors.New("ledger: account not found")
	// ErrInvoiceNotFound indicates a payment references a non-existent invoice.
	ErrInvoiceNotFound = errors.New("ledger: invoice not found")
	// ErrInvalidAmount indicates a non-positive payment amount.
	ErrInvalidAmount = errors.New("ledger: amount must be positive")
	// ErrInvalidMode indicates an unknown payment mode.
	ErrInvalidMode = errors.New("ledger: unknown payment mode")
	// ErrDataIntegrity indicates a payment whose invoice does not belong to
	// the account being reconciled. Upstream corruption; never dropped.
	ErrDataIntegrity = errors.New("ledger: payment references invoice outside account")
)

// PaymentMode enumerates accepted payment modes. Closed set; unknown values
// fail validation rather than being passed through.
type PaymentMode string

const (
	ModeCash         PaymentMode = "CASH"
	ModeCheque       PaymentMode = "CHEQUE"
	ModeUPI          PaymentMode = "UPI"
	ModeBankTransfer PaymentMode = "BANK_TRANSFER"
	ModeCreditCard   PaymentMode = "CREDIT_CARD"
	ModeNEFT         PaymentMode = "NEFT"
	ModeRTGS         PaymentMode = "RTGS"
)

// Valid reports whether m is a known payment mode.
func (m PaymentMode) Valid() bool {
	switch m {
	case ModeCash, ModeCheque, ModeUPI, ModeBankTransfer, ModeCreditCard, ModeNEFT, ModeRTGS:
		return true
	}
	return false
}

// Payment is a credit applied against exactly one invoice. Immutable once
// written; corrections are new rows, never edits.
type Payment struct {
	ID        int64           `json:"id"`
	PublicID  uuid.UUID       `json:"public_id"`
	InvoiceID int64           `json:"invoice_id"`
	Amount    decimal.Decimal `json:"amount"`
	PaidAt    time.Time       `json:"paid_at"`
	Mode      PaymentMode     `json:"mode"`
	Reference string          `json:"reference,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// RecordPaymentInput for recording payments.
type RecordPaymentInput struct {
	InvoiceID int64
	PublicID  uuid.UUID
	Amount    decimal.Decimal
	PaidAt    time.Time
	Mode      PaymentMode
	Reference string
}

// EntryKind distinguishes the two ledger entry sources.
type EntryKind string

const (
	KindInvoice EntryKind = "INVOICE"
	KindPayment EntryKind = "PAYMENT"
)

// Entry is one row of the reconciled timeline. Derived, never persisted:
// every read rebuilds the ledger from its source invoices and payments, so
// entries can never drift from the record store.
type Entry struct {
	SourceID      int64           `json:"source_id"`
	InvoiceNumber string          `json:"invoice_number"`
	Description   string          `json:"description"`
	Date          time.Time       `json:"date"`
	Kind          EntryKind       `json:"kind"`
	Debit         decimal.Decimal `json:"debit"`
	Credit        decimal.Decimal `json:"credit"`
	Balance       decimal.Decimal `json:"balance"`
}

// Summary aggregates the reconciled ledger at a reference time.
type Summary struct {
	TotalDebit    decimal.Decimal `json:"total_debit"`
	TotalCredit   decimal.Decimal `json:"total_credit"`
	NetBalance    decimal.Decimal `json:"net_balance"`
	OverdueAmount decimal.Decimal `json:"overdue_amount"`
	OverdueCount  int             `json:"overdue_count"`
	AsOf          time.Time       `json:"as_of"`
}
