package invoices

import (
	"errors"
	"strings"
)

func validateCreate(input CreateInvoiceInput) error {
	if input.AccountID <= 0 {
		return errors.New("account is required")
	}
	if strings.TrimSpace(input.Number) == "" {
		return errors.New("invoice number is required")
	}
	if input.Total.IsNegative() {
		return errors.New("total must not be negative")
	}
	if input.InvoiceDate != nil && input.DueDate != nil && input.DueDate.Before(*input.InvoiceDate) {
		return errors.New("due date must not precede invoice date")
	}
	return nil
}
