package logger

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  LogLevel
	}{
		{"debug", DEBUG},
		{"INFO", INFO},
		{"warning", WARN},
		{"error", ERROR},
		{"fatal", FATAL},
		{"", INFO},
		{"bogus", INFO},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.input))
		})
	}
}

func TestLogLevelString(t *testing.T) {
	assert.Equal(t, "WARN", WARN.String())
	assert.Equal(t, "UNKNOWN", LogLevel(42).String())
}

func TestNewStructuredLogger_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "invoicer.log")

	sl, err := NewStructuredLogger(LoggerConfig{
		Level:       INFO,
		Service:     "invoicer",
		Version:     "test",
		Environment: "test",
		OutputPath:  path,
	})
	require.NoError(t, err)

	sl.Debug("hidden")
	sl.Info("invoice rendered", map[string]interface{}{"invoice_number": "INV-000001-001"})
	require.NoError(t, sl.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"invoice rendered"`)
	assert.Contains(t, string(data), `"invoice_number":"INV-000001-001"`)
	assert.Contains(t, string(data), `"service":"invoicer"`)
	assert.NotContains(t, string(data), "hidden")
}

func TestError_AttachesError(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	sl := NewFromZap(zap.New(core))

	sl.Error("render failed", errors.New("boom"), map[string]interface{}{"layout": "modern"})

	entries := recorded.FilterMessage("render failed").All()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "boom", ctx["error"])
	assert.Equal(t, "modern", ctx["layout"])
}

func TestLogBusinessEvent(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	sl := NewFromZap(zap.New(core))

	sl.LogBusinessEvent("Invoice exported", "invoice", "export", map[string]interface{}{"count": 3})

	entries := recorded.All()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "business", ctx["component"])
	assert.Equal(t, "export", ctx["operation"])
	assert.Equal(t, "invoice", ctx["resource"])
}

func TestLoggingMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	core, recorded := observer.New(zapcore.InfoLevel)
	sl := NewFromZap(zap.New(core))

	router := gin.New()
	router.Use(sl.LoggingMiddleware())
	router.GET("/api/invoices", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"invoices": []string{}})
	})
	router.GET("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/invoices", nil)
	req.Header.Set("X-Request-ID", "req-123")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/health", nil)
	router.ServeHTTP(w, req)

	logs := recorded.FilterMessage("HTTP Request").All()
	require.Len(t, logs, 1)
	ctx := logs[0].ContextMap()
	assert.Equal(t, "req-123", ctx["request_id"])
	assert.Equal(t, "/api/invoices", ctx["path"])
	assert.EqualValues(t, http.StatusOK, ctx["status_code"])
}

func TestLogRequest_ServerErrorLevel(t *testing.T) {
	gin.SetMode(gin.TestMode)

	core, recorded := observer.New(zapcore.InfoLevel)
	sl := NewFromZap(zap.New(core))

	router := gin.New()
	router.Use(sl.LoggingMiddleware())
	router.GET("/fail", func(c *gin.Context) {
		c.Status(http.StatusInternalServerError)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/fail", nil)
	router.ServeHTTP(w, req)

	logs := recorded.FilterMessage("HTTP Request").All()
	require.Len(t, logs, 1)
	assert.Equal(t, zapcore.ErrorLevel, logs[0].Level)
}

func TestNewStructuredLogger_CallerIsTheCallSite(t *testing.T) {
	gin.SetMode(gin.TestMode)
	path := filepath.Join(t.TempDir(), "caller.log")

	sl, err := NewStructuredLogger(LoggerConfig{Level: INFO, OutputPath: path, EnableCaller: true})
	require.NoError(t, err)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/api/invoices", nil)

	sl.Info("direct")
	sl.WithRequestContext(c).Warn("with request")
	require.NoError(t, sl.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		assert.Contains(t, line, `"caller":"logger/structured_logger_test.go:`)
	}
}
