package services

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-invoice-service/internal/models"
)

// ExportFormat selects the serialization used by ExportInvoiceData
type ExportFormat string

const (
	ExportJSON ExportFormat = "json"
	ExportCSV  ExportFormat = "csv"
)

// ErrUnsupportedFormat is returned for export formats other than json and csv
var ErrUnsupportedFormat = errors.New("unsupported export format")

// csvHeader is the fixed column set of the CSV export
var csvHeader = []string{"Invoice Number", "Customer Name", "Status", "Issue Date", "Due Date", "Total", "Currency"}

// ExportInvoiceData serializes invoices as a pretty-printed JSON array or as CSV
func ExportInvoiceData(invoices []models.Invoice, format ExportFormat) (string, error) {
	if invoices == nil {
		invoices = []models.Invoice{}
	}

	switch ExportFormat(strings.ToLower(string(format))) {
	case ExportJSON:
		data, err := json.MarshalIndent(invoices, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to encode invoices as JSON: %w", err)
		}
		return string(data), nil
	case ExportCSV:
		return exportCSV(invoices)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// exportCSV writes RFC 4180 CSV; fields containing commas or quotes are quoted
func exportCSV(invoices []models.Invoice) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return "", fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, inv := range invoices {
		record := []string{
			inv.InvoiceNumber,
			inv.Customer.Name,
			string(inv.Status),
			formatISODate(inv.IssueDate),
			formatISODate(inv.DueDate),
			inv.Total.StringFixed(moneyPlaces),
			inv.Currency,
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("failed to write CSV row for %s: %w", inv.InvoiceNumber, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush CSV: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func formatISODate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

// ExportFileName returns the download name for an export, e.g. invoices-2026-10-15.csv
func ExportFileName(format ExportFormat, now time.Time) string {
	return fmt.Sprintf("invoices-%s.%s", now.Format("2006-01-02"), strings.ToLower(string(format)))
}
