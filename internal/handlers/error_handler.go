package handlers

import (
	"context"
	"errors"
	"net/http"

	"go-invoice-service/internal/logger"
	"go-invoice-service/internal/models"
	"go-invoice-service/internal/repository"
	"go-invoice-service/internal/services"

	"github.com/gin-gonic/gin"
)

// respondError maps service errors to status codes. Anything unexpected becomes a 500
// carrying only failMessage; the cause is attached to the context for the error tracker.
func respondError(c *gin.Context, log *logger.StructuredLogger, failMessage string, err error) {
	var validationErr *repository.ValidationError

	switch {
	case errors.Is(err, services.ErrInvoiceNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Invoice not found"})
	case errors.Is(err, services.ErrTemplateNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Template not found"})
	case errors.Is(err, services.ErrUnsupportedFormat):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported export format"})
	case errors.Is(err, repository.ErrDuplicateInvoiceNumber):
		c.JSON(http.StatusConflict, gin.H{"error": "Invoice number already exists"})
	case errors.Is(err, repository.ErrUnknownLayout):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown template layout", "layouts": models.AllLayouts})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "errors": validationErr.Messages})
	case errors.Is(err, context.Canceled):
		// client went away; nobody reads the body
		c.Status(499)
	default:
		log.WithRequestContext(c).Error(failMessage, err)
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": failMessage})
	}
}

// NotFoundHandler answers unknown routes with a JSON 404
func NotFoundHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Resource not found",
			"path":  c.Request.URL.Path,
		})
	}
}

// sendFile writes a download with an attachment disposition
func sendFile(c *gin.Context, contentType, filename string, data []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, data)
}
