package routes

import (
	"errors"
	"net/http"
	"time"

	"go-invoice-service/internal/logger"
	"go-invoice-service/internal/scan"
	"go-invoice-service/internal/services"

	"github.com/gin-gonic/gin"
)

// repeated uploads of the same code inside this window are flagged as duplicates
const scanCooldown = 3 * time.Second

// ScanHandler resolves an uploaded photo of an invoice payment code to the invoice it names
type ScanHandler struct {
	decoder  *scan.ServerDecoder
	recent   *scan.DedupeCache
	provider services.InvoiceProvider
	logger   *logger.StructuredLogger
}

func NewScanHandler(provider services.InvoiceProvider, log *logger.StructuredLogger) *ScanHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &ScanHandler{
		decoder:  scan.NewServerDecoder(),
		recent:   scan.NewDedupeCache(scanCooldown),
		provider: provider,
		logger:   log,
	}
}

// ScanPaymentCode decodes the image, parses the payment reference and looks the invoice up
func (h *ScanHandler) ScanPaymentCode(c *gin.Context) {
	var req scan.DecodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "INVALID_REQUEST",
			"message": err.Error(),
		})
		return
	}

	response := h.decoder.Decode(&req)
	if !response.Success {
		// valid request, but nothing readable in the image
		c.JSON(http.StatusUnprocessableEntity, response)
		return
	}

	ref, err := services.ParsePaymentPayload(response.Result.Text)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "INVALID_PAYMENT_CODE",
			"message": err.Error(),
			"decoded": response.Result,
		})
		return
	}

	invoice, err := h.provider.GetInvoiceByNumber(c.Request.Context(), ref.InvoiceNumber)
	if err != nil {
		if errors.Is(err, services.ErrInvoiceNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":     "INVOICE_NOT_FOUND",
				"reference": ref,
			})
			return
		}
		h.logger.WithRequestContext(c).Error("Scan lookup failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve payment code"})
		return
	}

	amountMatches := !ref.HasAmount || (ref.Amount.Equal(invoice.Total) && ref.Currency == invoice.Currency)
	duplicate := h.recent.Seen(response.Result)
	if !duplicate {
		h.logger.LogBusinessEvent("Payment code scanned", "invoice", "scan", map[string]interface{}{
			"invoice_number": invoice.InvoiceNumber,
			"format":         response.Result.Format,
			"amount_matches": amountMatches,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"decoded":       response.Result,
		"reference":     ref,
		"invoice":       invoice,
		"amountMatches": amountMatches,
		"duplicate":     duplicate,
	})
}
