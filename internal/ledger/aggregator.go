package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgerline/ledgerline/internal/invoices"
)

// Summarize derives aggregate totals and overdue exposure from the same
// invoice and payment set the entries were built from. asOf is explicit so
// the computation is deterministic and testable.
//
// An invoice is overdue when its due date is set, falls before asOf, and its
// recorded status is not PAID. The unpaid portion uses paid-to-date
// recomputed from payments, never a cached column.
func Summarize(invs []invoices.Invoice, payments []Payment, entries []Entry, asOf time.Time) Summary {
	summary := Summary{
		TotalDebit:    decimal.Zero,
		TotalCredit:   decimal.Zero,
		NetBalance:    decimal.Zero,
		OverdueAmount: decimal.Zero,
		AsOf:          asOf,
	}

	for _, e := range entries {
		summary.TotalDebit = summary.TotalDebit.Add(e.Debit)
		summary.TotalCredit = summary.TotalCredit.Add(e.Credit)
	}
	summary.NetBalance = summary.TotalDebit.Sub(summary.TotalCredit)

	paidByInvoice := make(map[int64]decimal.Decimal, len(invs))
	for _, p := range payments {
		prev, ok := paidByInvoice[p.InvoiceID]
		if !ok {
			prev = decimal.Zero
		}
		paidByInvoice[p.InvoiceID] = prev.Add(p.Amount)
	}

	for _, inv := range invs {
		if inv.DueDate == nil || !inv.DueDate.Before(asOf) {
			continue
		}
		if inv.Status == invoices.StatusPaid {
			continue
		}
		paid, ok := paidByInvoice[inv.ID]
		if !ok {
			paid = decimal.Zero
		}
		summary.OverdueAmount = summary.OverdueAmount.Add(inv.Total.Sub(paid))
		summary.OverdueCount++
	}

	return summary
}
