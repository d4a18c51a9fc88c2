package ledger

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestWriteLedgerCSV(t *testing.T) {
	entries := []Entry{
		{
			SourceID:      1,
			InvoiceNumber: "INV-001",
			Description:   "Invoice INV-001",
			Date:          time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
			Kind:          KindInvoice,
			Debit:         dec("1000.00"),
			Credit:        decimal.Zero,
			Balance:       dec("1000.00"),
		},
		{
			SourceID:      10,
			InvoiceNumber: "INV-001",
			Description:   "Payment CASH",
			Date:          time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC),
			Kind:          KindPayment,
			Debit:         decimal.Zero,
			Credit:        dec("400.00"),
			Balance:       dec("600.00"),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteLedgerCSV(&buf, entries))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)

	require.Equal(t, []string{"Date", "Invoice No", "Description", "Type", "Debit", "Credit", "Running Balance"}, records[0])
	require.Equal(t, []string{"2026-01-10", "INV-001", "Invoice INV-001", "INVOICE", "1000.00", "0.00", "1000.00"}, records[1])
	require.Equal(t, []string{"2026-01-20", "INV-001", "Payment CASH", "PAYMENT", "0.00", "400.00", "600.00"}, records[2])
	require.Equal(t, []string{"", "", "Totals", "", "1000.00", "400.00", "600.00"}, records[3])
}

func TestWriteLedgerCSVEmptyStatement(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteLedgerCSV(&buf, nil))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, []string{"", "", "Totals", "", "0.00", "0.00", "0.00"}, records[1])
}

func TestWriteLedgerCSVUndatedEntry(t *testing.T) {
	entries := []Entry{
		{
			InvoiceNumber: "INV-UNDATED",
			Description:   "Invoice INV-UNDATED",
			Kind:          KindInvoice,
			Debit:         dec("40.00"),
			Credit:        decimal.Zero,
			Balance:       dec("40.00"),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteLedgerCSV(&buf, entries))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Equal(t, "", records[1][0])
}
