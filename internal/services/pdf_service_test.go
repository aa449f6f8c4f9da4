package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go-invoice-service/internal/config"
	"go-invoice-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// uncompressed output keeps page text searchable
func newTestPDFService() *PDFService {
	svc := NewPDFService(config.PDFConfig{}, nil, nil)
	svc.now = func() time.Time { return time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC) }
	return svc
}

func TestGenerateInvoicePDF_AllLayouts(t *testing.T) {
	svc := newTestPDFService()
	invoice := sampleInvoice()

	for _, layout := range models.AllLayouts {
		t.Run(string(layout), func(t *testing.T) {
			pdfBytes, err := svc.GenerateInvoicePDF(context.Background(), invoice, sampleTemplate(layout))
			require.NoError(t, err)
			require.True(t, len(pdfBytes) > 4)
			assert.Equal(t, "%PDF", string(pdfBytes[:4]))

			content := string(pdfBytes)
			for _, text := range []string{"INV-123456-001", "Acme Corp", "Design work", "$19.99", "$59.97", "$5.10", "$65.07", "March 31, 2026"} {
				assert.Contains(t, content, text)
			}
		})
	}
}

func TestGenerateInvoicePDF_Compressed(t *testing.T) {
	svc := NewPDFService(config.PDFConfig{Compress: true, PaperSize: "Letter"}, nil, nil)

	pdfBytes, err := svc.GenerateInvoicePDF(context.Background(), sampleInvoice(), sampleTemplate(models.LayoutClassic))
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(pdfBytes[:4]))
}

func TestGenerateInvoicePDF_ManyItemsSpansPages(t *testing.T) {
	invoice := sampleInvoice()
	invoice.Items = nil
	for i := 1; i <= 60; i++ {
		invoice.Items = append(invoice.Items, models.InvoiceItem{
			Description: fmt.Sprintf("Consulting block %d with a description long enough to wrap onto a second line in the table", i),
			Quantity:    i,
			UnitPrice:   dec("12.50"),
		})
	}
	RecalculateInvoice(invoice)

	pdfBytes, err := newTestPDFService().GenerateInvoicePDF(context.Background(), invoice, sampleTemplate(models.LayoutProfessional))
	require.NoError(t, err)
	assert.Contains(t, string(pdfBytes), "Page 2/")
	assert.Contains(t, string(pdfBytes), "Consulting block 60")
}

func TestGenerateInvoicePDF_PaymentCodeAndLogo(t *testing.T) {
	dir := t.TempDir()
	logo, err := NewBarcodeService().GenerateQRCode("logo", 64)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "logo.png"), logo, 0644))

	invoice := sampleInvoice()
	invoice.Company.LogoPath = strPtr("logo.png")

	tmpl := sampleTemplate(models.LayoutModern)
	tmpl.IncludePaymentCode = true

	svc := newTestPDFService()
	svc.pdfConfig.AssetDir = dir
	pdfBytes, err := svc.GenerateInvoicePDF(context.Background(), invoice, tmpl)
	require.NoError(t, err)
	assert.Contains(t, string(pdfBytes), "Scan to pay $65.07")
	assert.Contains(t, string(pdfBytes), "/Subtype /Image")
}

func TestGenerateInvoicePDF_MissingLogoFallsBackToMonogram(t *testing.T) {
	invoice := sampleInvoice()
	missing := filepath.Join(t.TempDir(), "missing.png")
	invoice.Company.LogoPath = &missing

	pdfBytes, err := newTestPDFService().GenerateInvoicePDF(context.Background(), invoice, sampleTemplate(models.LayoutClassic))
	require.NoError(t, err)
	assert.Contains(t, string(pdfBytes), "(NS)")
}

func TestGenerateInvoicePDF_LogoOutsideAssetsIsNotEmbedded(t *testing.T) {
	logo, err := NewBarcodeService().GenerateQRCode("logo", 64)
	require.NoError(t, err)
	private := filepath.Join(t.TempDir(), "private.png")
	require.NoError(t, os.WriteFile(private, logo, 0644))

	invoice := sampleInvoice()
	invoice.Company.LogoPath = &private

	svc := newTestPDFService()
	svc.pdfConfig.AssetDir = t.TempDir()
	pdfBytes, err := svc.GenerateInvoicePDF(context.Background(), invoice, sampleTemplate(models.LayoutClassic))
	require.NoError(t, err)
	assert.NotContains(t, string(pdfBytes), "/Subtype /Image")
	assert.Contains(t, string(pdfBytes), "(NS)")
}

func TestGenerateInvoicePDF_CurrencySymbolOutsideCodePage(t *testing.T) {
	invoice := sampleInvoice()
	invoice.Currency = "INR"

	pdfBytes, err := newTestPDFService().GenerateInvoicePDF(context.Background(), invoice, sampleTemplate(models.LayoutModern))
	require.NoError(t, err)
	content := string(pdfBytes)
	for _, text := range []string{"INR 19.99", "INR 59.97", "INR 5.10", "INR 65.07"} {
		assert.Contains(t, content, text)
	}
	assert.NotContains(t, content, ".65.07")

	// the HTML keeps the symbol
	page, err := RenderHTML(context.Background(), invoice, sampleTemplate(models.LayoutModern), "")
	require.NoError(t, err)
	assert.Contains(t, page, "₹65.07")

	invoice.Currency = "CNY"
	pdfBytes, err = newTestPDFService().GenerateInvoicePDF(context.Background(), invoice, sampleTemplate(models.LayoutModern))
	require.NoError(t, err)
	assert.Contains(t, string(pdfBytes), "CN\xa565.07")
}

func TestGenerateInvoicePDF_Errors(t *testing.T) {
	svc := newTestPDFService()

	empty := sampleInvoice()
	empty.Items = nil
	pdfBytes, err := svc.GenerateInvoicePDF(context.Background(), empty, sampleTemplate(models.LayoutModern))
	assert.Nil(t, pdfBytes)
	assert.ErrorIs(t, err, ErrEmptyItems)

	var renderErr *RenderError
	require.True(t, errors.As(err, &renderErr))
	assert.Equal(t, "content", renderErr.Stage)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pdfBytes, err = svc.GenerateInvoicePDF(ctx, sampleInvoice(), sampleTemplate(models.LayoutModern))
	assert.Nil(t, pdfBytes)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerateReportPDF(t *testing.T) {
	second := *sampleInvoice()
	second.InvoiceNumber = "INV-123456-002"
	second.Currency = "EUR"

	pdfBytes, err := newTestPDFService().GenerateReportPDF(context.Background(), []models.Invoice{*sampleInvoice(), second})
	require.NoError(t, err)

	content := string(pdfBytes)
	assert.Equal(t, "%PDF", content[:4])
	assert.Contains(t, content, "Invoice Report")
	assert.Contains(t, content, "INV-123456-001")
	assert.Contains(t, content, "INV-123456-002")
	assert.Contains(t, content, "Total (USD): $65.07")
}

func TestGenerateReportPDF_Empty(t *testing.T) {
	pdfBytes, err := newTestPDFService().GenerateReportPDF(context.Background(), nil)
	require.NoError(t, err)
	assert.Contains(t, string(pdfBytes), "0 invoices")
}

func TestGenerateAnalyticsPDF(t *testing.T) {
	now := time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC)
	invoices := []models.Invoice{
		paidInvoice("INV-1", "Acme Corp", "a@acme.test", "100.00", now.AddDate(0, 0, -10), 5),
	}
	analytics := GetInvoiceAnalyticsAt(invoices, ParseTimeRange("30days", now), now)

	pdfBytes, err := newTestPDFService().GenerateAnalyticsPDF(context.Background(), analytics, "Last 30 days", "USD")
	require.NoError(t, err)

	content := string(pdfBytes)
	assert.Contains(t, content, "Invoice Analytics")
	assert.Contains(t, content, "Period: Last 30 days")
	assert.Contains(t, content, "$100.00")
	assert.Contains(t, content, "Acme Corp")

	empty, err := newTestPDFService().GenerateAnalyticsPDF(context.Background(), GetInvoiceAnalyticsAt(nil, AllTime(), now), "All time", "")
	require.NoError(t, err)
	assert.Contains(t, string(empty), "No data for this period")
}

func TestReportFileNames(t *testing.T) {
	now := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, "invoice-report-2026-10-15.pdf", ReportFileName(now))
	assert.Equal(t, "invoice-analytics-2026-10-15.pdf", AnalyticsFileName(now))
}
