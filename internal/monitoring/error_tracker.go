package monitoring

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"go-invoice-service/internal/logger"
	"go-invoice-service/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ErrErrorNotFound is returned when no error group has the given fingerprint
var ErrErrorNotFound = errors.New("error not found")

// ErrorSeverity represents error severity levels
type ErrorSeverity int

const (
	LOW ErrorSeverity = iota
	MEDIUM
	HIGH
	CRITICAL
)

// String returns string representation of error severity
func (es ErrorSeverity) String() string {
	switch es {
	case LOW:
		return "LOW"
	case MEDIUM:
		return "MEDIUM"
	case HIGH:
		return "HIGH"
	case CRITICAL:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// ErrorDetails is one deduplicated error group
type ErrorDetails struct {
	ID          string                 `json:"id"`
	Message     string                 `json:"message"`
	Error       string                 `json:"error"`
	Severity    string                 `json:"severity"`
	Component   string                 `json:"component"`
	Operation   string                 `json:"operation"`
	RequestID   string                 `json:"request_id,omitempty"`
	Method      string                 `json:"method,omitempty"`
	Path        string                 `json:"path,omitempty"`
	Context     map[string]interface{} `json:"context,omitempty"`
	Fingerprint string                 `json:"fingerprint"`
	Count       int                    `json:"count"`
	FirstSeen   time.Time              `json:"first_seen"`
	LastSeen    time.Time              `json:"last_seen"`
	Resolved    bool                   `json:"resolved"`
	ResolvedAt  *time.Time             `json:"resolved_at,omitempty"`
}

// ErrorTracker groups request failures so recurring render problems surface as one entry
type ErrorTracker struct {
	errors    map[string]*ErrorDetails
	mutex     sync.RWMutex
	maxErrors int
	retention time.Duration
	logger    *logger.StructuredLogger
	now       func() time.Time
}

func NewErrorTracker(maxErrors int, retention time.Duration, log *logger.StructuredLogger) *ErrorTracker {
	if log == nil {
		log = logger.Nop()
	}
	return &ErrorTracker{
		errors:    make(map[string]*ErrorDetails),
		maxErrors: maxErrors,
		retention: retention,
		logger:    log,
		now:       time.Now,
	}
}

// CaptureError records err under component/operation; a services.RenderError contributes its stage
func (et *ErrorTracker) CaptureError(component, operation, message string, err error, severity ErrorSeverity, context map[string]interface{}) *ErrorDetails {
	var renderErr *services.RenderError
	if errors.As(err, &renderErr) {
		component = "renderer"
		operation = renderErr.Document + ":" + renderErr.Stage
	}

	now := et.now().UTC()
	details := &ErrorDetails{
		ID:        uuid.NewString(),
		Message:   message,
		Severity:  severity.String(),
		Component: component,
		Operation: operation,
		Context:   context,
		Count:     1,
		FirstSeen: now,
		LastSeen:  now,
	}
	if err != nil {
		details.Error = err.Error()
	}
	details.Fingerprint = fingerprint(details)

	et.storeError(details)

	fields := map[string]interface{}{
		"component":   component,
		"operation":   operation,
		"severity":    details.Severity,
		"fingerprint": details.Fingerprint,
	}
	if severity >= HIGH {
		et.logger.Error(message, err, fields)
	} else {
		et.logger.Warn(message, fields)
	}
	return details
}

// CaptureRequestError records an error raised while serving c
func (et *ErrorTracker) CaptureRequestError(c *gin.Context, message string, err error, severity ErrorSeverity, context map[string]interface{}) *ErrorDetails {
	details := et.CaptureError("http", c.Request.Method+" "+c.FullPath(), message, err, severity, context)

	et.mutex.Lock()
	if stored, ok := et.errors[details.Fingerprint]; ok {
		stored.RequestID = c.GetString("request_id")
		stored.Method = c.Request.Method
		stored.Path = c.Request.URL.Path
	}
	et.mutex.Unlock()
	return details
}

// GetErrors returns error groups, most recent first
func (et *ErrorTracker) GetErrors(resolved bool, limit int) []ErrorDetails {
	et.mutex.RLock()
	defer et.mutex.RUnlock()

	list := make([]ErrorDetails, 0, len(et.errors))
	for _, details := range et.errors {
		if details.Resolved == resolved {
			list = append(list, *details)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].LastSeen.After(list[j].LastSeen)
	})

	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}

// ResolveError marks an error group as resolved
func (et *ErrorTracker) ResolveError(fingerprint string) error {
	et.mutex.Lock()
	defer et.mutex.Unlock()

	if details, exists := et.errors[fingerprint]; exists {
		now := et.now().UTC()
		details.Resolved = true
		details.ResolvedAt = &now
		return nil
	}
	return fmt.Errorf("%w: %s", ErrErrorNotFound, fingerprint)
}

func (et *ErrorTracker) storeError(details *ErrorDetails) {
	et.mutex.Lock()
	defer et.mutex.Unlock()

	et.pruneLocked(details.LastSeen)

	if existing, exists := et.errors[details.Fingerprint]; exists {
		existing.Count++
		existing.LastSeen = details.LastSeen
		existing.Context = details.Context
		existing.Resolved = false
		existing.ResolvedAt = nil
		return
	}

	et.errors[details.Fingerprint] = details
	if et.maxErrors > 0 && len(et.errors) > et.maxErrors {
		et.evictOldestLocked()
	}
}

// pruneLocked drops resolved groups older than the retention window
func (et *ErrorTracker) pruneLocked(now time.Time) {
	if et.retention <= 0 {
		return
	}
	cutoff := now.Add(-et.retention)
	for key, details := range et.errors {
		if details.Resolved && details.LastSeen.Before(cutoff) {
			delete(et.errors, key)
		}
	}
}

func (et *ErrorTracker) evictOldestLocked() {
	var oldest *ErrorDetails
	var oldestKey string
	for key, details := range et.errors {
		if oldest == nil || details.FirstSeen.Before(oldest.FirstSeen) {
			oldest = details
			oldestKey = key
		}
	}
	if oldestKey != "" {
		delete(et.errors, oldestKey)
	}
}

// fingerprint identifies an error group
func fingerprint(details *ErrorDetails) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(details.Message+"|"+details.Component+"|"+details.Operation+"|"+details.Error)).String()
}

// ErrorTrackingMiddleware recovers panics and captures the errors handlers attach with c.Error
func (et *ErrorTracker) ErrorTrackingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if recovered := recover(); recovered != nil {
				et.CaptureRequestError(c, "Application panic", fmt.Errorf("%v", recovered), CRITICAL, map[string]interface{}{
					"panic": true,
				})
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			}
		}()

		c.Next()

		for _, ginErr := range c.Errors {
			severity := MEDIUM
			if c.Writer.Status() >= http.StatusInternalServerError {
				severity = HIGH
			}
			et.CaptureRequestError(c, "Request error", ginErr.Err, severity, nil)
		}
	}
}

// ErrorsHandler lists the open error groups
func (et *ErrorTracker) ErrorsHandler(c *gin.Context) {
	resolved := c.Query("resolved") == "true"
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"errors":  et.GetErrors(resolved, 50),
	})
}

// ResolveHandler marks the error group named by the fingerprint parameter as resolved
func (et *ErrorTracker) ResolveHandler(c *gin.Context) {
	fingerprint := c.Param("fingerprint")
	if err := et.ResolveError(fingerprint); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Error group not found"})
		return
	}

	et.logger.Info("Error group resolved", map[string]interface{}{"fingerprint": fingerprint})
	c.JSON(http.StatusOK, gin.H{"success": true, "fingerprint": fingerprint})
}
