package monitoring

import (
	"context"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const healthCheckTimeout = 3 * time.Second

type Metrics struct {
	mu sync.RWMutex

	RequestCount    int64
	RequestDuration time.Duration
	ActiveRequests  int64
	ErrorCount      int64
	StatusCodes     map[string]int64
	Endpoints       map[string]int64
	StartTime       time.Time
	LastRequest     time.Time

	totalDuration time.Duration
}

// MetricsSnapshot is a copy of the counters safe to hand out.
type MetricsSnapshot struct {
	RequestCount        int64            `json:"request_count"`
	AverageResponseTime string           `json:"average_response_time"`
	ActiveRequests      int64            `json:"active_requests"`
	ErrorCount          int64            `json:"error_count"`
	ErrorRate           float64          `json:"error_rate"`
	StatusCodes         map[string]int64 `json:"status_codes"`
	Endpoints           map[string]int64 `json:"endpoints"`
	StartTime           time.Time        `json:"start_time"`
	LastRequest         time.Time        `json:"last_request"`
}

type SystemMetrics struct {
	Uptime         time.Duration `json:"uptime"`
	GoroutineCount int           `json:"goroutine_count"`
	CPUCount       int           `json:"cpu_count"`
	GoVersion      string        `json:"go_version"`
	MemoryUsage    MemoryStats   `json:"memory_usage"`
}

// MemoryStats values are in MB except NumGC.
type MemoryStats struct {
	Alloc      uint64 `json:"alloc_mb"`
	TotalAlloc uint64 `json:"total_alloc_mb"`
	Sys        uint64 `json:"sys_mb"`
	NumGC      uint32 `json:"num_gc"`
}

type CheckFunc func(ctx context.Context) error

type HealthCheck struct {
	Name  string
	Check CheckFunc
}

type CheckResult struct {
	Name     string `json:"name"`
	Status   string `json:"status"`
	Message  string `json:"message,omitempty"`
	Duration string `json:"duration"`
}

type HealthChecker struct {
	mu     sync.RWMutex
	checks map[string]HealthCheck
}

var (
	globalMetrics = &Metrics{
		StatusCodes: make(map[string]int64),
		Endpoints:   make(map[string]int64),
		StartTime:   time.Now(),
	}
	globalHealthChecker = &HealthChecker{checks: make(map[string]HealthCheck)}
)

// MetricsMiddleware counts requests by status text and by route pattern, so
// /volunteers/1 and /volunteers/2 share the "GET /volunteers/:id" bucket.
// It must sit outside the recovery middleware; a panic that still reaches it
// is counted as a 500 and re-raised.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		globalMetrics.mu.Lock()
		globalMetrics.ActiveRequests++
		globalMetrics.mu.Unlock()

		defer func() {
			status := c.Writer.Status()
			r := recover()
			if r != nil {
				status = http.StatusInternalServerError
			}
			recordRequest(c, status, time.Since(start))
			if r != nil {
				panic(r)
			}
		}()

		c.Next()
	}
}

func recordRequest(c *gin.Context, status int, duration time.Duration) {
	route := c.FullPath()
	if route == "" {
		route = "unmatched"
	}

	globalMetrics.mu.Lock()
	defer globalMetrics.mu.Unlock()

	globalMetrics.ActiveRequests--
	globalMetrics.RequestCount++
	globalMetrics.totalDuration += duration
	globalMetrics.RequestDuration = globalMetrics.totalDuration / time.Duration(globalMetrics.RequestCount)
	globalMetrics.LastRequest = time.Now()
	globalMetrics.StatusCodes[http.StatusText(status)]++
	globalMetrics.Endpoints[c.Request.Method+" "+route]++
	if status >= http.StatusInternalServerError {
		globalMetrics.ErrorCount++
	}
}

func GetMetrics() MetricsSnapshot {
	globalMetrics.mu.RLock()
	defer globalMetrics.mu.RUnlock()

	snap := MetricsSnapshot{
		RequestCount:        globalMetrics.RequestCount,
		AverageResponseTime: globalMetrics.RequestDuration.String(),
		ActiveRequests:      globalMetrics.ActiveRequests,
		ErrorCount:          globalMetrics.ErrorCount,
		StatusCodes:         make(map[string]int64, len(globalMetrics.StatusCodes)),
		Endpoints:           make(map[string]int64, len(globalMetrics.Endpoints)),
		StartTime:           globalMetrics.StartTime,
		LastRequest:         globalMetrics.LastRequest,
	}
	if snap.RequestCount > 0 {
		snap.ErrorRate = float64(snap.ErrorCount) / float64(snap.RequestCount)
	}
	for k, v := range globalMetrics.StatusCodes {
		snap.StatusCodes[k] = v
	}
	for k, v := range globalMetrics.Endpoints {
		snap.Endpoints[k] = v
	}
	return snap
}

func GetSystemMetrics() SystemMetrics {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	globalMetrics.mu.RLock()
	uptime := time.Since(globalMetrics.StartTime)
	globalMetrics.mu.RUnlock()

	return SystemMetrics{
		Uptime:         uptime,
		GoroutineCount: runtime.NumGoroutine(),
		CPUCount:       runtime.NumCPU(),
		GoVersion:      runtime.Version(),
		MemoryUsage: MemoryStats{
			Alloc:      bToMb(m.Alloc),
			TotalAlloc: bToMb(m.TotalAlloc),
			Sys:        bToMb(m.Sys),
			NumGC:      m.NumGC,
		},
	}
}

func bToMb(b uint64) uint64 {
	return b / 1024 / 1024
}

// RegisterHealthCheck adds or replaces a named check.
func RegisterHealthCheck(name string, check CheckFunc) {
	globalHealthChecker.mu.Lock()
	defer globalHealthChecker.mu.Unlock()
	globalHealthChecker.checks[name] = HealthCheck{Name: name, Check: check}
}

// RunHealthChecks runs every registered check concurrently, each bounded by
// its own timeout.
func RunHealthChecks() map[string]CheckResult {
	return runHealthChecks(context.Background())
}

func runHealthChecks(ctx context.Context) map[string]CheckResult {
	globalHealthChecker.mu.RLock()
	checks := make([]HealthCheck, 0, len(globalHealthChecker.checks))
	for _, hc := range globalHealthChecker.checks {
		checks = append(checks, hc)
	}
	globalHealthChecker.mu.RUnlock()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = make(map[string]CheckResult, len(checks))
	)
	for _, hc := range checks {
		wg.Add(1)
		go func(hc HealthCheck) {
			defer wg.Done()

			cctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
			defer cancel()

			start := time.Now()
			res := CheckResult{Name: hc.Name, Status: "healthy"}
			if err := hc.Check(cctx); err != nil {
				res.Status = "unhealthy"
				res.Message = err.Error()
			}
			res.Duration = time.Since(start).String()

			mu.Lock()
			results[hc.Name] = res
			mu.Unlock()
		}(hc)
	}
	wg.Wait()
	return results
}

func allHealthy(results map[string]CheckResult) bool {
	for _, r := range results {
		if r.Status != "healthy" {
			return false
		}
	}
	return true
}

func MetricsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"application": GetMetrics(),
			"system":      GetSystemMetrics(),
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func HealthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		results := runHealthChecks(c.Request.Context())

		status, code := "healthy", http.StatusOK
		if !allHealthy(results) {
			status, code = "unhealthy", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":    status,
			"checks":    results,
			"uptime":    GetSystemMetrics().Uptime.String(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func ReadinessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		results := runHealthChecks(c.Request.Context())
		if !allHealthy(results) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "checks": results})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}

func LivenessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "alive",
			"uptime": GetSystemMetrics().Uptime.String(),
		})
	}
}
