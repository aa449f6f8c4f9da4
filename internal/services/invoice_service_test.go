package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go-invoice-service/internal/logger"
	"go-invoice-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeProvider struct {
	invoices  []models.Invoice
	templates []models.InvoiceTemplate
	err       error
}

func (p *fakeProvider) ListInvoices(_ context.Context, filter models.InvoiceFilter) ([]models.Invoice, error) {
	if p.err != nil {
		return nil, p.err
	}
	var out []models.Invoice
	for i := range p.invoices {
		if MatchesFilter(&p.invoices[i], filter, time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)) {
			out = append(out, p.invoices[i])
		}
	}
	return Paginate(out, filter), nil
}

func (p *fakeProvider) GetInvoiceByNumber(_ context.Context, number string) (*models.Invoice, error) {
	for i := range p.invoices {
		if p.invoices[i].InvoiceNumber == number {
			return &p.invoices[i], nil
		}
	}
	return nil, ErrInvoiceNotFound
}

func (p *fakeProvider) ListTemplates(context.Context) ([]models.InvoiceTemplate, error) {
	return p.templates, nil
}

func (p *fakeProvider) GetTemplate(_ context.Context, key string) (*models.InvoiceTemplate, error) {
	for i := range p.templates {
		t := &p.templates[i]
		if (key == "" && t.IsDefault) || t.ID == key || string(t.Layout) == key {
			return t, nil
		}
	}
	return nil, ErrTemplateNotFound
}

func newTestInvoiceService(t *testing.T) (*InvoiceService, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.InfoLevel)

	modern := *sampleTemplate(models.LayoutModern)
	modern.IsDefault = true
	provider := &fakeProvider{
		invoices: []models.Invoice{
			*sampleInvoice(),
			paidInvoice("INV-123456-002", "Globex", "ap@globex.test", "250.00", time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), 4),
		},
		templates: []models.InvoiceTemplate{modern, *sampleTemplate(models.LayoutClassic)},
	}

	svc := NewInvoiceService(provider, newTestPDFService(), logger.NewFromZap(zap.New(core)))
	svc.now = func() time.Time { return time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC) }
	return svc, logs
}

func TestInvoiceService_InvoicePDF(t *testing.T) {
	svc, logs := newTestInvoiceService(t)

	pdfBytes, name, err := svc.InvoicePDF(context.Background(), "INV-123456-001", "classic")
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(pdfBytes[:4]))
	assert.Equal(t, "invoice-INV-123456-001.pdf", name)

	entries := logs.FilterMessage("Invoice PDF generated").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "classic", entries[0].ContextMap()["layout"])

	_, _, err = svc.InvoicePDF(context.Background(), "INV-missing", "")
	assert.ErrorIs(t, err, ErrInvoiceNotFound)

	_, _, err = svc.InvoicePDF(context.Background(), "INV-123456-001", "does-not-exist")
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestInvoiceService_InvoiceHTML(t *testing.T) {
	svc, _ := newTestInvoiceService(t)

	html, err := svc.InvoiceHTML(context.Background(), "INV-123456-001", "")
	require.NoError(t, err)
	assert.Contains(t, html, "layout-modern")
}

func TestInvoiceService_Export(t *testing.T) {
	svc, _ := newTestInvoiceService(t)

	data, name, err := svc.Export(context.Background(), models.InvoiceFilter{Status: models.StatusPaid}, ExportCSV)
	require.NoError(t, err)
	assert.Equal(t, "invoices-2026-10-15.csv", name)
	assert.Len(t, strings.Split(data, "\n"), 2)
	assert.Contains(t, data, "INV-123456-002")

	_, _, err = svc.Export(context.Background(), models.InvoiceFilter{}, ExportFormat("xml"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestInvoiceService_ReportAndAnalytics(t *testing.T) {
	svc, _ := newTestInvoiceService(t)

	report, name, err := svc.ReportPDF(context.Background(), models.InvoiceFilter{})
	require.NoError(t, err)
	assert.Equal(t, "invoice-report-2026-10-15.pdf", name)
	assert.Contains(t, string(report), "INV-123456-002")

	analytics, r, err := svc.Analytics(context.Background(), "30days")
	require.NoError(t, err)
	assert.Equal(t, "30days", r.Period)
	assert.Equal(t, 1, analytics.TotalInvoices)
	assert.Equal(t, "250.00", analytics.TotalRevenue.StringFixed(2))

	pdfBytes, name, err := svc.AnalyticsPDF(context.Background(), "all", "USD")
	require.NoError(t, err)
	assert.Equal(t, "invoice-analytics-2026-10-15.pdf", name)
	assert.Contains(t, string(pdfBytes), "Period: All time")
}

func TestInvoiceService_ProviderFailure(t *testing.T) {
	svc := NewInvoiceService(&fakeProvider{err: errors.New("db down")}, newTestPDFService(), nil)

	_, _, err := svc.Analytics(context.Background(), "7days")
	assert.ErrorContains(t, err, "db down")

	_, _, err = svc.Export(context.Background(), models.InvoiceFilter{}, ExportJSON)
	assert.ErrorContains(t, err, "db down")
}

func TestMatchesFilterAndPaginate(t *testing.T) {
	now := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	invoice := sampleInvoice()

	assert.True(t, MatchesFilter(invoice, models.InvoiceFilter{}, now))
	assert.True(t, MatchesFilter(invoice, models.InvoiceFilter{SearchTerm: "acme"}, now))
	assert.True(t, MatchesFilter(invoice, models.InvoiceFilter{CustomerKey: "BILLING@acme.test"}, now))
	assert.True(t, MatchesFilter(invoice, models.InvoiceFilter{OverdueOnly: true}, now))
	assert.False(t, MatchesFilter(invoice, models.InvoiceFilter{Status: models.StatusPaid}, now))
	after := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	assert.False(t, MatchesFilter(invoice, models.InvoiceFilter{StartDate: &after}, now))

	list := make([]models.Invoice, 5)
	assert.Len(t, Paginate(list, models.InvoiceFilter{}), 5)
	assert.Len(t, Paginate(list, models.InvoiceFilter{Page: 2, PageSize: 2}), 2)
	assert.Len(t, Paginate(list, models.InvoiceFilter{Page: 3, PageSize: 2}), 1)
	assert.Empty(t, Paginate(list, models.InvoiceFilter{Page: 4, PageSize: 2}))
}
