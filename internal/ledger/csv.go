package ledger

import (
	"encoding/csv"
	"io"
	"time"

	"github.com/shopspring/decimal"
)

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

// WriteLedgerCSV serialises a statement to CSV, one row per entry plus a
// trailing totals row.
func WriteLedgerCSV(w io.Writer, entries []Entry) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Date", "Invoice No", "Description", "Type", "Debit", "Credit", "Running Balance"}); err != nil {
		return err
	}

	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	closing := decimal.Zero
	for _, entry := range entries {
		if err := writer.Write([]string{
			formatDate(entry.Date),
			entry.InvoiceNumber,
			entry.Description,
			string(entry.Kind),
			entry.Debit.StringFixed(2),
			entry.Credit.StringFixed(2),
			entry.Balance.StringFixed(2),
		}); err != nil {
			return err
		}
		totalDebit = totalDebit.Add(entry.Debit)
		totalCredit = totalCredit.Add(entry.Credit)
		closing = entry.Balance
	}

	if err := writer.Write([]string{
		"", "", "Totals", "",
		totalDebit.StringFixed(2),
		totalCredit.StringFixed(2),
		closing.StringFixed(2),
	}); err != nil {
		return err
	}

	writer.Flush()
	return writer.Error()
}
