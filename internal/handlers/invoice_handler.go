package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go-invoice-service/internal/config"
	"go-invoice-service/internal/logger"
	"go-invoice-service/internal/models"
	"go-invoice-service/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// InvoiceStore is implemented by providers that accept new invoices, status changes and deletions
type InvoiceStore interface {
	CreateInvoice(ctx context.Context, invoice *models.Invoice) error
	UpdateStatus(ctx context.Context, number string, status models.InvoiceStatus) (*models.Invoice, error)
	DeleteInvoice(ctx context.Context, number string) error
}

type InvoiceHandler struct {
	invoices *services.InvoiceService
	barcodes *services.BarcodeService
	cfg      config.InvoiceConfig
	logger   *logger.StructuredLogger
	now      func() time.Time
}

func NewInvoiceHandler(invoices *services.InvoiceService, barcodes *services.BarcodeService, cfg config.InvoiceConfig, log *logger.StructuredLogger) *InvoiceHandler {
	if barcodes == nil {
		barcodes = services.NewBarcodeService()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &InvoiceHandler{
		invoices: invoices,
		barcodes: barcodes,
		cfg:      cfg,
		logger:   log,
		now:      time.Now,
	}
}

// calculateRequest carries the parts of an invoice the totals depend on
type calculateRequest struct {
	Items    []models.InvoiceItem `json:"items" binding:"required"`
	TaxRate  *decimal.Decimal     `json:"taxRate"`
	Currency string               `json:"currency"`
}

// createInvoiceRequest lets the tax rate be omitted to pick up the configured default
type createInvoiceRequest struct {
	models.Invoice
	TaxRate *decimal.Decimal `json:"taxRate"`
}

type statusRequest struct {
	Status models.InvoiceStatus `json:"status" binding:"required"`
}

// CalculateInvoice returns line totals, subtotal, tax and total for the posted items
func (h *InvoiceHandler) CalculateInvoice(c *gin.Context) {
	var request calculateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input data", "details": err.Error()})
		return
	}

	invoice := models.Invoice{
		Items:    request.Items,
		TaxRate:  h.taxRateOrDefault(request.TaxRate),
		Currency: h.currencyOrDefault(request.Currency),
	}
	services.RecalculateInvoice(&invoice)

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"items":     invoice.Items,
		"subtotal":  invoice.Subtotal,
		"taxRate":   invoice.TaxRate,
		"taxAmount": invoice.TaxAmount,
		"total":     invoice.Total,
		"currency":  invoice.Currency,
		"formatted": gin.H{
			"subtotal":  services.FormatCurrency(invoice.Subtotal, invoice.Currency),
			"taxAmount": services.FormatCurrency(invoice.TaxAmount, invoice.Currency),
			"total":     services.FormatCurrency(invoice.Total, invoice.Currency),
		},
	})
}

// ValidateInvoice reports every problem with the posted invoice
func (h *InvoiceHandler) ValidateInvoice(c *gin.Context) {
	var invoice models.Invoice
	if err := c.ShouldBindJSON(&invoice); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input data", "details": err.Error()})
		return
	}

	if errs := services.ValidateInvoiceData(&invoice); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"valid": false, "errors": errs})
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true, "errors": []string{}})
}

// CreateInvoice stores a new invoice when the provider is writable
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	store, ok := h.invoices.Provider().(InvoiceStore)
	if !ok {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "Invoice storage is read-only"})
		return
	}

	var request createInvoiceRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input data", "details": err.Error()})
		return
	}

	invoice := request.Invoice
	invoice.TaxRate = h.taxRateOrDefault(request.TaxRate)
	invoice.Currency = h.currencyOrDefault(invoice.Currency)
	if invoice.IssueDate.IsZero() {
		invoice.IssueDate = h.now()
	}
	if invoice.DueDate.IsZero() && h.cfg.DefaultPaymentTerms > 0 {
		invoice.DueDate = invoice.IssueDate.AddDate(0, 0, h.cfg.DefaultPaymentTerms)
	}

	if err := store.CreateInvoice(c.Request.Context(), &invoice); err != nil {
		respondError(c, h.logger, "Failed to create invoice", err)
		return
	}

	h.logger.LogBusinessEvent("Invoice created", "invoice", "create", map[string]interface{}{
		"invoice_number": invoice.InvoiceNumber,
		"total":          invoice.Total.StringFixed(2),
	})
	c.JSON(http.StatusCreated, gin.H{"success": true, "invoice": invoice})
}

// UpdateInvoiceStatus moves an invoice to a new status
func (h *InvoiceHandler) UpdateInvoiceStatus(c *gin.Context) {
	store, ok := h.invoices.Provider().(InvoiceStore)
	if !ok {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "Invoice storage is read-only"})
		return
	}

	var request statusRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input data", "details": err.Error()})
		return
	}
	if !request.Status.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown invoice status"})
		return
	}

	invoice, err := store.UpdateStatus(c.Request.Context(), c.Param("number"), request.Status)
	if err != nil {
		respondError(c, h.logger, "Failed to update invoice status", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "invoice": invoice})
}

// DeleteInvoice removes an invoice; its audit trail is kept
func (h *InvoiceHandler) DeleteInvoice(c *gin.Context) {
	store, ok := h.invoices.Provider().(InvoiceStore)
	if !ok {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "Invoice storage is read-only"})
		return
	}

	number := c.Param("number")
	if err := store.DeleteInvoice(c.Request.Context(), number); err != nil {
		respondError(c, h.logger, "Failed to delete invoice", err)
		return
	}

	h.logger.LogBusinessEvent("Invoice deleted", "invoice", "delete", map[string]interface{}{
		"invoice_number": number,
	})
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Invoice deleted successfully"})
}

// ListInvoices returns the invoices matching the query filter
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	var filter models.InvoiceFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	invoices, err := h.invoices.Provider().ListInvoices(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, "Failed to load invoices", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"invoices": invoices,
		"count":    len(invoices),
		"filter":   filter,
	})
}

// GetInvoice returns one invoice with its due-date state
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	invoice, err := h.invoices.Provider().GetInvoiceByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		respondError(c, h.logger, "Failed to load invoice", err)
		return
	}

	now := h.now()
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"invoice":      invoice,
		"overdue":      services.IsInvoiceOverdueAt(invoice, now),
		"daysUntilDue": services.GetDaysUntilDueAt(invoice.DueDate, now),
		"statusLabel":  services.StatusLabel(invoice.Status),
	})
}

// GenerateInvoicePDF downloads the invoice rendered with ?template=
func (h *InvoiceHandler) GenerateInvoicePDF(c *gin.Context) {
	pdfBytes, filename, err := h.invoices.InvoicePDF(c.Request.Context(), c.Param("number"), h.templateKey(c))
	if err != nil {
		respondError(c, h.logger, "Failed to generate PDF", err)
		return
	}
	sendFile(c, "application/pdf", filename, pdfBytes)
}

// PreviewInvoice serves the HTML rendering of the invoice
func (h *InvoiceHandler) PreviewInvoice(c *gin.Context) {
	html, err := h.invoices.InvoiceHTML(c.Request.Context(), c.Param("number"), h.templateKey(c))
	if err != nil {
		respondError(c, h.logger, "Failed to render invoice preview", err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

// GetPaymentQR serves the payment QR code of an invoice as PNG
func (h *InvoiceHandler) GetPaymentQR(c *gin.Context) {
	invoice, err := h.invoices.Provider().GetInvoiceByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		respondError(c, h.logger, "Failed to load invoice", err)
		return
	}

	png, err := h.barcodes.GeneratePaymentQR(invoice)
	if err != nil {
		respondError(c, h.logger, "Failed to generate payment code", err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// GetInvoiceBarcode serves the Code128 barcode of an invoice number as PNG
func (h *InvoiceHandler) GetInvoiceBarcode(c *gin.Context) {
	invoice, err := h.invoices.Provider().GetInvoiceByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		respondError(c, h.logger, "Failed to load invoice", err)
		return
	}

	png, err := h.barcodes.GenerateInvoiceBarcode(invoice.InvoiceNumber)
	if err != nil {
		respondError(c, h.logger, "Failed to generate barcode", err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// ExportInvoices downloads the filtered invoices as ?format=json or csv
func (h *InvoiceHandler) ExportInvoices(c *gin.Context) {
	var filter models.InvoiceFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	format := services.ExportFormat(strings.ToLower(c.DefaultQuery("format", string(services.ExportJSON))))
	data, filename, err := h.invoices.Export(c.Request.Context(), filter, format)
	if err != nil {
		respondError(c, h.logger, "Failed to export invoices", err)
		return
	}

	contentType := "application/json"
	if format == services.ExportCSV {
		contentType = "text/csv; charset=utf-8"
	}
	sendFile(c, contentType, filename, []byte(data))
}

// GenerateReportPDF downloads the batch report of the filtered invoices
func (h *InvoiceHandler) GenerateReportPDF(c *gin.Context) {
	var filter models.InvoiceFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pdfBytes, filename, err := h.invoices.ReportPDF(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, "Failed to generate report", err)
		return
	}
	sendFile(c, "application/pdf", filename, pdfBytes)
}

// GenerateNumber proposes a fresh invoice number for ?prefix=
func (h *InvoiceHandler) GenerateNumber(c *gin.Context) {
	prefix := c.DefaultQuery("prefix", h.cfg.InvoiceNumberPrefix)
	c.JSON(http.StatusOK, gin.H{"invoiceNumber": services.GenerateInvoiceNumber(prefix)})
}

func (h *InvoiceHandler) templateKey(c *gin.Context) string {
	if key := c.Query("template"); key != "" {
		return key
	}
	return h.cfg.DefaultTemplate
}

func (h *InvoiceHandler) taxRateOrDefault(rate *decimal.Decimal) decimal.Decimal {
	if rate != nil {
		return *rate
	}
	return decimal.NewFromFloat(h.cfg.DefaultTaxRate)
}

func (h *InvoiceHandler) currencyOrDefault(code string) string {
	if code = strings.ToUpper(strings.TrimSpace(code)); code != "" {
		return code
	}
	if h.cfg.CurrencyCode != "" {
		return h.cfg.CurrencyCode
	}
	return "USD"
}
