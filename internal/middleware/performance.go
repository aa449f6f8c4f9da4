package middleware

import (
	"fmt"
	"net/http"
	"runtime"
	"sort"
	"sync"
	"time"

	"go-invoice-service/internal/logger"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// PerformanceMetrics stores request performance metrics
type PerformanceMetrics struct {
	RequestCount  int64            `json:"request_count"`
	ErrorRate     float64          `json:"error_rate"`
	MemoryUsage   MemoryStats      `json:"memory_usage"`
	EndpointStats map[string]Stats `json:"endpoint_stats"`
}

// MemoryStats represents memory usage statistics
type MemoryStats struct {
	Allocated uint64 `json:"allocated"`
	Sys       uint64 `json:"sys"`
	GCRuns    uint32 `json:"gc_runs"`
	HeapInUse uint64 `json:"heap_in_use"`
}

// Stats represents endpoint-specific statistics
type Stats struct {
	Count         int64         `json:"count"`
	TotalDuration time.Duration `json:"total_duration"`
	AverageTime   time.Duration `json:"average_time"`
	ErrorCount    int64         `json:"error_count"`
	SlowCount     int64         `json:"slow_count"`
}

// EndpointSummary represents endpoint performance summary
type EndpointSummary struct {
	Endpoint    string        `json:"endpoint"`
	AverageTime time.Duration `json:"average_time"`
	Count       int64         `json:"count"`
	ErrorRate   float64       `json:"error_rate"`
	SlowRate    float64       `json:"slow_rate"`
}

// PerformanceMonitor tracks per-endpoint latency, mostly to spot slow document renders
type PerformanceMonitor struct {
	mu            sync.Mutex
	requestCount  int64
	errorCount    int64
	endpoints     map[string]Stats
	slowThreshold time.Duration
	startTime     time.Time
	logger        *logger.StructuredLogger
}

func NewPerformanceMonitor(slowThreshold time.Duration, log *logger.StructuredLogger) *PerformanceMonitor {
	if log == nil {
		log = logger.Nop()
	}
	return &PerformanceMonitor{
		endpoints:     make(map[string]Stats),
		slowThreshold: slowThreshold,
		startTime:     time.Now(),
		logger:        log,
	}
}

// PerformanceMiddleware tracks request performance
func (pm *PerformanceMonitor) PerformanceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" || path == "/health" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()
		pm.record(c.Request.Method+" "+path, duration, status >= http.StatusBadRequest)

		if pm.slowThreshold > 0 && duration > pm.slowThreshold {
			pm.logger.Warn("Slow request", map[string]interface{}{
				"method":      c.Request.Method,
				"path":        c.Request.URL.Path,
				"status_code": status,
				"duration":    duration.String(),
			})
		}
	}
}

func (pm *PerformanceMonitor) record(endpoint string, duration time.Duration, isError bool) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.requestCount++
	stats := pm.endpoints[endpoint]
	stats.Count++
	stats.TotalDuration += duration
	stats.AverageTime = stats.TotalDuration / time.Duration(stats.Count)
	if isError {
		stats.ErrorCount++
		pm.errorCount++
	}
	if pm.slowThreshold > 0 && duration > pm.slowThreshold {
		stats.SlowCount++
	}
	pm.endpoints[endpoint] = stats
}

// GetMetrics returns a snapshot of the current metrics
func (pm *PerformanceMonitor) GetMetrics() PerformanceMetrics {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	metrics := PerformanceMetrics{
		RequestCount:  pm.requestCount,
		MemoryUsage:   readMemoryStats(),
		EndpointStats: make(map[string]Stats, len(pm.endpoints)),
	}
	for endpoint, stats := range pm.endpoints {
		metrics.EndpointStats[endpoint] = stats
	}
	if pm.requestCount > 0 {
		metrics.ErrorRate = float64(pm.errorCount) / float64(pm.requestCount) * 100
	}
	return metrics
}

// GetTopSlowEndpoints returns the slowest endpoints by average time
func (pm *PerformanceMonitor) GetTopSlowEndpoints(limit int) []EndpointSummary {
	metrics := pm.GetMetrics()

	endpoints := make([]EndpointSummary, 0, len(metrics.EndpointStats))
	for endpoint, stats := range metrics.EndpointStats {
		endpoints = append(endpoints, EndpointSummary{
			Endpoint:    endpoint,
			AverageTime: stats.AverageTime,
			Count:       stats.Count,
			ErrorRate:   float64(stats.ErrorCount) / float64(stats.Count) * 100,
			SlowRate:    float64(stats.SlowCount) / float64(stats.Count) * 100,
		})
	}
	sort.Slice(endpoints, func(i, j int) bool {
		if endpoints[i].AverageTime != endpoints[j].AverageTime {
			return endpoints[i].AverageTime > endpoints[j].AverageTime
		}
		return endpoints[i].Endpoint < endpoints[j].Endpoint
	})

	if limit > 0 && limit < len(endpoints) {
		endpoints = endpoints[:limit]
	}
	return endpoints
}

// HealthHandler reports liveness with a coarse status derived from the error rate
func (pm *PerformanceMonitor) HealthHandler(c *gin.Context) {
	metrics := pm.GetMetrics()

	status := "healthy"
	if metrics.ErrorRate > 10 {
		status = "degraded"
	}
	if metrics.ErrorRate > 25 {
		status = "unhealthy"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     status,
		"timestamp":  time.Now(),
		"uptime":     time.Since(pm.startTime).String(),
		"requests":   metrics.RequestCount,
		"error_rate": fmt.Sprintf("%.2f%%", metrics.ErrorRate),
		"memory": gin.H{
			"allocated": formatBytes(metrics.MemoryUsage.Allocated),
			"sys":       formatBytes(metrics.MemoryUsage.Sys),
			"gc_runs":   metrics.MemoryUsage.GCRuns,
		},
	})
}

// MetricsHandler exposes the slowest endpoints
func (pm *PerformanceMonitor) MetricsHandler(c *gin.Context) {
	metrics := pm.GetMetrics()
	c.JSON(http.StatusOK, gin.H{
		"request_count": metrics.RequestCount,
		"error_rate":    metrics.ErrorRate,
		"slowest":       pm.GetTopSlowEndpoints(10),
	})
}

func readMemoryStats() MemoryStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return MemoryStats{
		Allocated: m.Alloc,
		Sys:       m.Sys,
		GCRuns:    m.NumGC,
		HeapInUse: m.HeapInuse,
	}
}

// SecurityHeadersMiddleware sets the response hardening headers
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}

// RequestSizeLimitMiddleware limits request body size
func RequestSizeLimitMiddleware(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxSize {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Request entity too large"})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}

// ClientRateLimiter keeps one token bucket per client IP. Buckets idle for longer
// than a full refill are dropped, since a fresh bucket behaves the same.
type ClientRateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*clientBucket
	limit     rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewClientRateLimiter allows requestsPerMinute requests per client, bursting up to the same count
func NewClientRateLimiter(requestsPerMinute int) *ClientRateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 1
	}
	return &ClientRateLimiter{
		clients: make(map[string]*clientBucket),
		limit:   rate.Every(time.Minute / time.Duration(requestsPerMinute)),
		burst:   requestsPerMinute,
		idleTTL: time.Minute,
		now:     time.Now,
	}
}

// Allow takes a token from the bucket of clientIP
func (rl *ClientRateLimiter) Allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) >= rl.idleTTL {
		rl.sweepLocked(now)
	}

	bucket, ok := rl.clients[clientIP]
	if !ok {
		bucket = &clientBucket{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[clientIP] = bucket
	}
	bucket.lastSeen = now
	return bucket.limiter.AllowN(now, 1)
}

// Clients is the number of tracked client buckets
func (rl *ClientRateLimiter) Clients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

func (rl *ClientRateLimiter) sweepLocked(now time.Time) {
	for ip, bucket := range rl.clients {
		if now.Sub(bucket.lastSeen) > rl.idleTTL {
			delete(rl.clients, ip)
		}
	}
	rl.lastSweep = now
}

// Middleware rejects requests over the limit with 429
func (rl *ClientRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}
		c.Next()
	}
}

// RateLimitMiddleware allows requestsPerMinute requests per client IP
func RateLimitMiddleware(requestsPerMinute int) gin.HandlerFunc {
	return NewClientRateLimiter(requestsPerMinute).Middleware()
}

// formatBytes formats byte count as human readable string
func formatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
