package ledger

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgerline/ledgerline/internal/invoices"
)

// BuildEntries merges an account's invoices and payments into one
// date-ordered timeline with running balances. Pure function of its inputs.
//
// Ordering: ascending by date. When two entries share a date, invoice
// entries sort before payment entries (a payment cannot precede the invoice
// it settles); remaining ties keep insertion order. The sort is stable, so
// re-running on unchanged input yields identical output.
//
// An invoice without an invoice date is assigned the zero time so it still
// participates in ordering instead of being dropped.
func BuildEntries(invs []invoices.Invoice, payments []Payment) ([]Entry, error) {
	if len(invs) == 0 && len(payments) == 0 {
		return []Entry{}, nil
	}

	numbers := make(map[int64]string, len(invs))
	for _, inv := range invs {
		numbers[inv.ID] = inv.Number
	}

	entries := make([]Entry, 0, len(invs)+len(payments))
	for _, inv := range invs {
		date := time.Time{}
		if inv.InvoiceDate != nil {
			date = *inv.InvoiceDate
		}
		entries = append(entries, Entry{
			SourceID:      inv.ID,
			InvoiceNumber: inv.Number,
			Description:   "Invoice " + inv.Number,
			Date:          date,
			Kind:          KindInvoice,
			Debit:         inv.Total,
			Credit:        decimal.Zero,
		})
	}

	for _, p := range payments {
		number, ok := numbers[p.InvoiceID]
		if !ok {
			return nil, fmt.Errorf("%w: payment %d invoice %d", ErrDataIntegrity, p.ID, p.InvoiceID)
		}
		desc := "Payment " + string(p.Mode)
		if p.Reference != "" {
			desc += " ref " + p.Reference
		}
		entries = append(entries, Entry{
			SourceID:      p.ID,
			InvoiceNumber: number,
			Description:   desc,
			Date:          p.PaidAt,
			Kind:          KindPayment,
			Debit:         decimal.Zero,
			Credit:        p.Amount,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date) {
			return entries[i].Date.Before(entries[j].Date)
		}
		return kindRank(entries[i].Kind) < kindRank(entries[j].Kind)
	})

	balance := decimal.Zero
	for i := range entries {
		balance = balance.Add(entries[i].Debit).Sub(entries[i].Credit)
		entries[i].Balance = balance
	}

	return entries, nil
}

func kindRank(k EntryKind) int {
	if k == KindInvoice {
		return 0
	}
	return 1
}
