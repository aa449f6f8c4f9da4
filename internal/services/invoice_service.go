package services

import (
	"context"
	"fmt"
	"time"

	"go-invoice-service/internal/logger"
	"go-invoice-service/internal/models"
)

// InvoiceService ties a provider to the renderers, exporters and aggregators
type InvoiceService struct {
	provider InvoiceProvider
	pdf      *PDFService
	logger   *logger.StructuredLogger
	now      func() time.Time
}

func NewInvoiceService(provider InvoiceProvider, pdf *PDFService, log *logger.StructuredLogger) *InvoiceService {
	if log == nil {
		log = logger.Nop()
	}
	return &InvoiceService{
		provider: provider,
		pdf:      pdf,
		logger:   log,
		now:      time.Now,
	}
}

// Provider returns the underlying data provider
func (s *InvoiceService) Provider() InvoiceProvider {
	return s.provider
}

func (s *InvoiceService) load(ctx context.Context, number, templateKey string) (*models.Invoice, *models.InvoiceTemplate, error) {
	invoice, err := s.provider.GetInvoiceByNumber(ctx, number)
	if err != nil {
		return nil, nil, err
	}
	tmpl, err := s.provider.GetTemplate(ctx, templateKey)
	if err != nil {
		return nil, nil, err
	}
	return invoice, tmpl, nil
}

// InvoicePDF renders the invoice with the selected template and returns the PDF and its file name
func (s *InvoiceService) InvoicePDF(ctx context.Context, number, templateKey string) ([]byte, string, error) {
	invoice, tmpl, err := s.load(ctx, number, templateKey)
	if err != nil {
		return nil, "", err
	}

	pdfBytes, err := s.pdf.GenerateInvoicePDF(ctx, invoice, tmpl)
	if err != nil {
		return nil, "", err
	}

	s.logger.LogBusinessEvent("Invoice PDF generated", "invoice", "render", map[string]interface{}{
		"invoice_number": invoice.InvoiceNumber,
		"template":       tmpl.ID,
		"layout":         string(tmpl.Layout),
	})
	return pdfBytes, InvoiceFileName(invoice.InvoiceNumber), nil
}

// InvoiceHTML renders the on-screen preview of an invoice
func (s *InvoiceService) InvoiceHTML(ctx context.Context, number, templateKey string) (string, error) {
	invoice, tmpl, err := s.load(ctx, number, templateKey)
	if err != nil {
		return "", err
	}
	return RenderHTML(ctx, invoice, tmpl, s.pdf.Assets())
}

// Export serializes the invoices matching filter
func (s *InvoiceService) Export(ctx context.Context, filter models.InvoiceFilter, format ExportFormat) (string, string, error) {
	invoices, err := s.provider.ListInvoices(ctx, filter)
	if err != nil {
		return "", "", err
	}

	data, err := ExportInvoiceData(invoices, format)
	if err != nil {
		return "", "", err
	}

	s.logger.LogBusinessEvent("Invoices exported", "invoice", "export", map[string]interface{}{
		"format": string(format),
		"count":  len(invoices),
	})
	return data, ExportFileName(format, s.now()), nil
}

// ReportPDF renders the batch report of the invoices matching filter
func (s *InvoiceService) ReportPDF(ctx context.Context, filter models.InvoiceFilter) ([]byte, string, error) {
	invoices, err := s.provider.ListInvoices(ctx, filter)
	if err != nil {
		return nil, "", err
	}

	pdfBytes, err := s.pdf.GenerateReportPDF(ctx, invoices)
	if err != nil {
		return nil, "", err
	}
	return pdfBytes, ReportFileName(s.now()), nil
}

// Analytics aggregates every invoice issued within period
func (s *InvoiceService) Analytics(ctx context.Context, period string) (models.InvoiceAnalytics, TimeRange, error) {
	now := s.now()
	r := ParseTimeRange(period, now)

	invoices, err := s.provider.ListInvoices(ctx, models.InvoiceFilter{})
	if err != nil {
		return models.InvoiceAnalytics{}, r, fmt.Errorf("failed to load invoices: %w", err)
	}
	return GetInvoiceAnalyticsAt(invoices, r, now), r, nil
}

// AnalyticsPDF renders the analytics of period as a PDF report
func (s *InvoiceService) AnalyticsPDF(ctx context.Context, period, currency string) ([]byte, string, error) {
	analytics, r, err := s.Analytics(ctx, period)
	if err != nil {
		return nil, "", err
	}

	pdfBytes, err := s.pdf.GenerateAnalyticsPDF(ctx, analytics, r.Label(), currency)
	if err != nil {
		return nil, "", err
	}
	return pdfBytes, AnalyticsFileName(s.now()), nil
}
