package handlers

import (
	"context"
	"net/http"

	"go-invoice-service/internal/compliance"
	"go-invoice-service/internal/logger"
	"go-invoice-service/internal/services"

	"github.com/gin-gonic/gin"
)

// InvoiceAuditor is implemented by providers that keep an audit chain of invoice changes
type InvoiceAuditor interface {
	AuditTrail(ctx context.Context, number string) ([]compliance.AuditEvent, error)
	VerifyAuditChain(ctx context.Context) (*compliance.ChainStatus, error)
}

type AuditHandler struct {
	provider services.InvoiceProvider
	logger   *logger.StructuredLogger
}

func NewAuditHandler(provider services.InvoiceProvider, log *logger.StructuredLogger) *AuditHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &AuditHandler{provider: provider, logger: log}
}

func (h *AuditHandler) auditor(c *gin.Context) (InvoiceAuditor, bool) {
	auditor, ok := h.provider.(InvoiceAuditor)
	if !ok {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "Audit trail is not available for this storage"})
	}
	return auditor, ok
}

// GetInvoiceAudit returns the recorded changes of one invoice
func (h *AuditHandler) GetInvoiceAudit(c *gin.Context) {
	auditor, ok := h.auditor(c)
	if !ok {
		return
	}

	events, err := auditor.AuditTrail(c.Request.Context(), c.Param("number"))
	if err != nil {
		respondError(c, h.logger, "Failed to load audit trail", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "events": events, "count": len(events)})
}

// VerifyAuditChain recomputes the audit chain; a broken chain answers 409
func (h *AuditHandler) VerifyAuditChain(c *gin.Context) {
	auditor, ok := h.auditor(c)
	if !ok {
		return
	}

	status, err := auditor.VerifyAuditChain(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "Failed to verify audit chain", err)
		return
	}

	if !status.Intact {
		h.logger.WithRequestContext(c).Warn("Audit chain broken", map[string]interface{}{
			"broken_at": status.BrokenAt,
			"problem":   status.Problem,
		})
		c.JSON(http.StatusConflict, gin.H{"success": false, "chain": status})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "chain": status})
}
