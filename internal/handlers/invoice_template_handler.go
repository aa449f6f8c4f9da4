package handlers

import (
	"context"
	"net/http"
	"strings"

	"go-invoice-service/internal/logger"
	"go-invoice-service/internal/models"
	"go-invoice-service/internal/services"

	"github.com/gin-gonic/gin"
)

// TemplateStore is implemented by providers that accept template changes
type TemplateStore interface {
	SaveTemplate(ctx context.Context, tmpl *models.InvoiceTemplate) error
}

type InvoiceTemplateHandler struct {
	provider services.InvoiceProvider
	logger   *logger.StructuredLogger
}

func NewInvoiceTemplateHandler(provider services.InvoiceProvider, log *logger.StructuredLogger) *InvoiceTemplateHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &InvoiceTemplateHandler{provider: provider, logger: log}
}

// ListTemplates returns the available templates and the supported layouts
func (h *InvoiceTemplateHandler) ListTemplates(c *gin.Context) {
	templates, err := h.provider.ListTemplates(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "Failed to load templates", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"templates": templates,
		"layouts":   models.AllLayouts,
	})
}

// GetTemplate returns one template by ID or layout name
func (h *InvoiceTemplateHandler) GetTemplate(c *gin.Context) {
	tmpl, err := h.provider.GetTemplate(c.Request.Context(), c.Param("key"))
	if err != nil {
		respondError(c, h.logger, "Failed to load template", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "template": tmpl})
}

// SaveTemplate creates or replaces the template with the given ID
func (h *InvoiceTemplateHandler) SaveTemplate(c *gin.Context) {
	store, ok := h.provider.(TemplateStore)
	if !ok {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "Template storage is read-only"})
		return
	}

	var tmpl models.InvoiceTemplate
	if err := c.ShouldBindJSON(&tmpl); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input data", "details": err.Error()})
		return
	}
	tmpl.ID = c.Param("key")
	tmpl.Name = strings.TrimSpace(tmpl.Name)
	if tmpl.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Template name is required"})
		return
	}

	if err := store.SaveTemplate(c.Request.Context(), &tmpl); err != nil {
		respondError(c, h.logger, "Failed to save template", err)
		return
	}

	h.logger.LogBusinessEvent("Invoice template saved", "template", "save", map[string]interface{}{
		"template_id": tmpl.ID,
		"layout":      string(tmpl.Layout),
		"default":     tmpl.IsDefault,
	})
	c.JSON(http.StatusOK, gin.H{"success": true, "template": tmpl})
}
