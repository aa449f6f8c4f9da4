package routes

import (
	"time"

	"go-invoice-service/internal/config"
	"go-invoice-service/internal/handlers"
	"go-invoice-service/internal/logger"
	"go-invoice-service/internal/middleware"
	"go-invoice-service/internal/monitoring"
	"go-invoice-service/internal/services"

	"github.com/gin-gonic/gin"
)

const (
	maxScanUploadBytes = 8 << 20
	scanRequestsPerMin = 60
	maxTrackedErrors   = 500
	errorRetention     = 24 * time.Hour
)

// Dependencies is everything the router needs to build its handlers
type Dependencies struct {
	Config   *config.Config
	Invoices *services.InvoiceService
	Barcodes *services.BarcodeService
	Logger   *logger.StructuredLogger
}

// SetupRoutes builds the gin engine with the middleware chain and every API route
func SetupRoutes(deps Dependencies) *gin.Engine {
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}

	r := gin.New()

	tracker := monitoring.NewErrorTracker(maxTrackedErrors, errorRetention, log)
	monitor := middleware.NewPerformanceMonitor(deps.Config.Server.SlowRequestThreshold, log)

	r.Use(tracker.ErrorTrackingMiddleware())
	r.Use(log.LoggingMiddleware())
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(monitor.PerformanceMiddleware())

	r.NoRoute(handlers.NotFoundHandler())

	invoiceHandler := handlers.NewInvoiceHandler(deps.Invoices, deps.Barcodes, deps.Config.Invoice, log)
	analyticsHandler := handlers.NewAnalyticsHandler(deps.Invoices, deps.Config.Invoice.CurrencyCode, log)
	templateHandler := handlers.NewInvoiceTemplateHandler(deps.Invoices.Provider(), log)
	auditHandler := handlers.NewAuditHandler(deps.Invoices.Provider(), log)
	scanHandler := NewScanHandler(deps.Invoices.Provider(), log)

	r.GET("/health", monitor.HealthHandler)

	api := r.Group("/api")
	{
		api.GET("/metrics", monitor.MetricsHandler)
		api.GET("/errors", tracker.ErrorsHandler)
		api.POST("/errors/:fingerprint/resolve", tracker.ResolveHandler)

		invoices := api.Group("/invoices")
		{
			invoices.GET("", invoiceHandler.ListInvoices)
			invoices.POST("", invoiceHandler.CreateInvoice)
			invoices.POST("/calculate", invoiceHandler.CalculateInvoice)
			invoices.POST("/validate", invoiceHandler.ValidateInvoice)
			invoices.GET("/export", invoiceHandler.ExportInvoices)
			invoices.GET("/number", invoiceHandler.GenerateNumber)
			invoices.GET("/report/pdf", invoiceHandler.GenerateReportPDF)
			invoices.POST("/scan",
				middleware.RateLimitMiddleware(scanRequestsPerMin),
				middleware.RequestSizeLimitMiddleware(maxScanUploadBytes),
				scanHandler.ScanPaymentCode,
			)

			invoices.GET("/:number", invoiceHandler.GetInvoice)
			invoices.DELETE("/:number", invoiceHandler.DeleteInvoice)
			invoices.PUT("/:number/status", invoiceHandler.UpdateInvoiceStatus)
			invoices.GET("/:number/pdf", invoiceHandler.GenerateInvoicePDF)
			invoices.GET("/:number/preview", invoiceHandler.PreviewInvoice)
			invoices.GET("/:number/qr", invoiceHandler.GetPaymentQR)
			invoices.GET("/:number/barcode", invoiceHandler.GetInvoiceBarcode)
			invoices.GET("/:number/audit", auditHandler.GetInvoiceAudit)
		}

		api.GET("/audit/verify", auditHandler.VerifyAuditChain)

		analytics := api.Group("/analytics")
		{
			analytics.GET("", analyticsHandler.GetAnalytics)
			analytics.GET("/pdf", analyticsHandler.ExportAnalyticsPDF)
		}

		templates := api.Group("/templates")
		{
			templates.GET("", templateHandler.ListTemplates)
			templates.GET("/:key", templateHandler.GetTemplate)
			templates.PUT("/:key", templateHandler.SaveTemplate)
		}
	}

	return r
}
