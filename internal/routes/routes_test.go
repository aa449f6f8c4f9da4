package routes

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-invoice-service/internal/config"
	"go-invoice-service/internal/models"
	"go-invoice-service/internal/repository"
	"go-invoice-service/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{SlowRequestThreshold: time.Minute},
		Invoice: config.InvoiceConfig{
			DefaultTaxRate:      8.5,
			DefaultPaymentTerms: 30,
			InvoiceNumberPrefix: "INV",
			CurrencyCode:        "USD",
			DefaultTemplate:     "modern",
		},
		PDF: config.PDFConfig{PaperSize: "A4", Orientation: "P", MarginMM: 20},
	}
}

func testInvoices() []models.Invoice {
	paidAt := time.Date(2026, 9, 11, 0, 0, 0, 0, time.UTC)
	return []models.Invoice{
		{
			InvoiceNumber: "INV-100000-001",
			Status:        models.StatusPaid,
			Customer:      models.Party{Name: "Acme Corp", Email: "billing@acme.test"},
			Company:       models.Party{Name: "Northwind Studio", Email: "hello@northwind.test"},
			Items: []models.InvoiceItem{
				{Description: "Design work", Quantity: 3, UnitPrice: decimal.RequireFromString("19.99")},
			},
			TaxRate:     decimal.RequireFromString("8.5"),
			Currency:    "USD",
			IssueDate:   time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
			DueDate:     time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
			PaymentDate: &paidAt,
		},
		{
			InvoiceNumber: "INV-100000-002",
			Status:        models.StatusDraft,
			Customer:      models.Party{Name: "Globex", Email: "ap@globex.test"},
			Company:       models.Party{Name: "Northwind Studio", Email: "hello@northwind.test"},
			Items: []models.InvoiceItem{
				{Description: "Support", Quantity: 1, UnitPrice: decimal.RequireFromString("100")},
			},
			Currency:  "USD",
			IssueDate: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
			DueDate:   time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		},
	}
}

func newTestRouter(provider services.InvoiceProvider) *gin.Engine {
	cfg := testConfig()
	barcodes := services.NewBarcodeService()
	pdf := services.NewPDFService(cfg.PDF, barcodes, nil)
	return SetupRoutes(Dependencies{
		Config:   cfg,
		Invoices: services.NewInvoiceService(provider, pdf, nil),
		Barcodes: barcodes,
	})
}

func perform(r *gin.Engine, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func jsonBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

type brokenProvider struct {
	services.InvoiceProvider
}

func (brokenProvider) ListInvoices(ctx context.Context, filter models.InvoiceFilter) ([]models.Invoice, error) {
	return nil, errors.New("connection refused")
}

func TestHealthAndUnknownRoutes(t *testing.T) {
	r := newTestRouter(repository.NewStaticSource(testInvoices(), nil))

	w := perform(r, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", jsonBody(t, w)["status"])
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))

	w = perform(r, http.MethodGet, "/api/nope", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "/api/nope", jsonBody(t, w)["path"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestInvoiceRoutes(t *testing.T) {
	r := newTestRouter(repository.NewStaticSource(testInvoices(), nil))

	w := perform(r, http.MethodGet, "/api/invoices?status=paid", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, jsonBody(t, w)["count"])

	w = perform(r, http.MethodGet, "/api/invoices/INV-100000-002", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Draft", jsonBody(t, w)["statusLabel"])

	w = perform(r, http.MethodGet, "/api/invoices/INV-100000-001/pdf?template=professional", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))

	w = perform(r, http.MethodGet, "/api/invoices/INV-100000-001/barcode", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

	w = perform(r, http.MethodGet, "/api/invoices/report/pdf", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "invoice-report-")

	w = perform(r, http.MethodGet, "/api/invoices/export?format=csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "INV-100000-002")

	w = perform(r, http.MethodPost, "/api/invoices/calculate", []byte(`{"items":[{"description":"A","quantity":2,"unitPrice":"10.005"}],"taxRate":"10"}`))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "20.01", jsonBody(t, w)["subtotal"])
}

func TestAnalyticsRoutes(t *testing.T) {
	r := newTestRouter(repository.NewStaticSource(testInvoices(), nil))

	w := perform(r, http.MethodGet, "/api/analytics?period=all", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := jsonBody(t, w)
	assert.Equal(t, "all", body["period"])
	analytics := body["analytics"].(map[string]interface{})
	assert.EqualValues(t, 2, analytics["totalInvoices"])
	assert.EqualValues(t, 1, analytics["paidInvoices"])
	assert.Equal(t, "65.07", analytics["totalRevenue"])
	assert.EqualValues(t, 50, analytics["paymentRate"])
	assert.EqualValues(t, 10, analytics["averagePaymentTime"])

	w = perform(r, http.MethodGet, "/api/analytics/pdf?period=all", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "invoice-analytics-")
}

func TestTemplateRoutes(t *testing.T) {
	r := newTestRouter(repository.NewStaticSource(testInvoices(), nil))

	w := perform(r, http.MethodGet, "/api/templates", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := jsonBody(t, w)
	assert.Len(t, body["templates"], 4)
	assert.Len(t, body["layouts"], 4)

	w = perform(r, http.MethodGet, "/api/templates/minimal", nil)
	require.Equal(t, http.StatusOK, w.Code)
	tmpl := jsonBody(t, w)["template"].(map[string]interface{})
	assert.Equal(t, "minimal", tmpl["id"])

	w = perform(r, http.MethodGet, "/api/templates/fancy", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestScanPaymentCode(t *testing.T) {
	invoices := testInvoices()
	source := repository.NewStaticSource(invoices, nil)
	r := newTestRouter(source)

	invoice, err := source.GetInvoiceByNumber(context.Background(), "INV-100000-001")
	require.NoError(t, err)
	png, err := services.NewBarcodeService().GeneratePaymentQR(invoice)
	require.NoError(t, err)

	payload, _ := json.Marshal(map[string]interface{}{
		"imageData": base64.StdEncoding.EncodeToString(png),
	})
	w := perform(r, http.MethodPost, "/api/invoices/scan", payload)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := jsonBody(t, w)
	assert.Equal(t, true, body["amountMatches"])
	assert.Equal(t, false, body["duplicate"])
	reference := body["reference"].(map[string]interface{})
	assert.Equal(t, "INV-100000-001", reference["invoiceNumber"])

	w = perform(r, http.MethodPost, "/api/invoices/scan", payload)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, jsonBody(t, w)["duplicate"])

	w = perform(r, http.MethodPost, "/api/invoices/scan", []byte(`{}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	unknown, err := services.NewBarcodeService().GenerateQRCode("INVOICE:INV-999999-999|1.00 USD", 256)
	require.NoError(t, err)
	payload, _ = json.Marshal(map[string]interface{}{
		"imageData": base64.StdEncoding.EncodeToString(unknown),
	})
	w = perform(r, http.MethodPost, "/api/invoices/scan", payload)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "INVOICE_NOT_FOUND", jsonBody(t, w)["error"])

	other, err := services.NewBarcodeService().GenerateQRCode("https://example.test", 256)
	require.NoError(t, err)
	payload, _ = json.Marshal(map[string]interface{}{
		"imageData": base64.StdEncoding.EncodeToString(other),
	})
	w = perform(r, http.MethodPost, "/api/invoices/scan", payload)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "INVALID_PAYMENT_CODE", jsonBody(t, w)["error"])
}

func TestProviderFailureIsTracked(t *testing.T) {
	r := newTestRouter(brokenProvider{InvoiceProvider: repository.NewStaticSource(nil, nil)})

	w := perform(r, http.MethodGet, "/api/invoices/export", nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to export invoices", jsonBody(t, w)["error"])
	assert.NotContains(t, w.Body.String(), "connection refused")

	w = perform(r, http.MethodGet, "/api/errors", nil)
	require.Equal(t, http.StatusOK, w.Code)
	tracked := jsonBody(t, w)["errors"].([]interface{})
	require.Len(t, tracked, 1)
	assert.Contains(t, tracked[0].(map[string]interface{})["error"], "connection refused")

	w = perform(r, http.MethodGet, "/api/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, jsonBody(t, w)["request_count"])

	fingerprint := tracked[0].(map[string]interface{})["fingerprint"].(string)
	w = perform(r, http.MethodPost, "/api/errors/"+fingerprint+"/resolve", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = perform(r, http.MethodGet, "/api/errors", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, jsonBody(t, w)["errors"])
}

func TestWriteRoutesOnReadOnlyStorage(t *testing.T) {
	r := newTestRouter(repository.NewStaticSource(testInvoices(), nil))

	w := perform(r, http.MethodDelete, "/api/invoices/INV-100000-001", nil)
	assert.Equal(t, http.StatusNotImplemented, w.Code)

	w = perform(r, http.MethodPut, "/api/templates/brand", []byte(`{"name":"Brand","layout":"classic"}`))
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}
