package handlers

import (
	"net/http"

	"go-invoice-service/internal/logger"
	"go-invoice-service/internal/services"

	"github.com/gin-gonic/gin"
)

type AnalyticsHandler struct {
	invoices *services.InvoiceService
	currency string
	logger   *logger.StructuredLogger
}

func NewAnalyticsHandler(invoices *services.InvoiceService, currency string, log *logger.StructuredLogger) *AnalyticsHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &AnalyticsHandler{invoices: invoices, currency: currency, logger: log}
}

// GetAnalytics returns the invoice analytics for ?period= (7days, 30days, 90days, 1year, all)
func (h *AnalyticsHandler) GetAnalytics(c *gin.Context) {
	analytics, r, err := h.invoices.Analytics(c.Request.Context(), c.DefaultQuery("period", "30days"))
	if err != nil {
		respondError(c, h.logger, "Failed to compute analytics", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"period":    r.Period,
		"label":     r.Label(),
		"analytics": analytics,
	})
}

// ExportAnalyticsPDF downloads the analytics of ?period= as a PDF report
func (h *AnalyticsHandler) ExportAnalyticsPDF(c *gin.Context) {
	currency := c.DefaultQuery("currency", h.currency)

	pdfBytes, filename, err := h.invoices.AnalyticsPDF(c.Request.Context(), c.DefaultQuery("period", "30days"), currency)
	if err != nil {
		respondError(c, h.logger, "Failed to generate analytics report", err)
		return
	}
	sendFile(c, "application/pdf", filename, pdfBytes)
}
