package health

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Status is the state of the service or one of its components
type Status string

const (
	StatusUp   Status = "UP"
	StatusDown Status = "DOWN"
)

const checkTimeout = 2 * time.Second

// Component is the reported state of one dependency
type Component struct {
	Status     Status                 `json:"status"`
	Details    string                 `json:"details"`
	Count      *int                   `json:"count,omitempty"`
	Info       map[string]interface{} `json:"info,omitempty"`
	DurationMs int64                  `json:"duration_ms"`
}

// Report is the body of both health endpoints
type Report struct {
	Status        Status               `json:"status"`
	IsHealthy     bool                 `json:"is_healthy"`
	Components    map[string]Component `json:"components"`
	Timestamp     int64                `json:"timestamp"`
	UptimeSeconds int64                `json:"uptime_seconds"`
}

// CheckFunc probes a dependency; a non-nil error marks it DOWN
type CheckFunc func(ctx context.Context) error

// CountFunc returns the row count of a table
type CountFunc func(ctx context.Context) (int, error)

type namedCheck struct {
	name string
	fn   CheckFunc
}

type namedCount struct {
	table string
	fn    CountFunc
}

// Handler serves /health and /health/detail
type Handler struct {
	mu        sync.RWMutex
	checks    []namedCheck
	tables    []namedCount
	logger    *zap.Logger
	startTime time.Time
	now       func() time.Time
}

// NewHandler creates a health handler with no registered checks
func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{
		logger:    logger,
		startTime: time.Now(),
		now:       time.Now,
	}
}

// RegisterCheck adds a dependency probe reported by both endpoints
func (h *Handler) RegisterCheck(name string, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks = append(h.checks, namedCheck{name: name, fn: fn})
}

// RegisterTable adds a table whose row count is reported by /health/detail
func (h *Handler) RegisterTable(table string, fn CountFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.tables = append(h.tables, namedCount{table: table, fn: fn})
}

// RegisterRoutes mounts the health endpoints
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.Basic)
	r.Get("/health/detail", h.Detail)
}

// Basic reports dependency probes, API status and memory figures
func (h *Handler) Basic(w http.ResponseWriter, r *http.Request) {
	report := h.report(r.Context(), false)
	h.write(w, report)
}

// Detail adds table row counts and runtime information
func (h *Handler) Detail(w http.ResponseWriter, r *http.Request) {
	report := h.report(r.Context(), true)
	h.write(w, report)
}

func (h *Handler) report(ctx context.Context, detailed bool) Report {
	h.mu.RLock()
	checks := append([]namedCheck(nil), h.checks...)
	tables := append([]namedCount(nil), h.tables...)
	h.mu.RUnlock()

	components := make(map[string]Component, len(checks)+len(tables)+2)
	healthy := true

	for _, c := range checks {
		comp := runCheck(ctx, c.fn)
		if comp.Status == StatusDown {
			healthy = false
			h.logger.Warn("Health check failed", zap.String("component", c.name), zap.String("details", comp.Details))
		}
		components[c.name] = comp
	}

	components["api"] = Component{Status: StatusUp, Details: "API service running normally"}
	components["memory"] = Component{Status: StatusUp, Info: memoryInfo()}

	// Table counts are skipped once a dependency is down
	if detailed && healthy {
		for _, t := range tables {
			comp := runCount(ctx, t.table, t.fn)
			if comp.Status == StatusDown {
				healthy = false
			}
			components[t.table+"_table"] = comp
		}
	}
	if detailed {
		components["system"] = Component{Status: StatusUp, Info: systemInfo()}
	}

	status := StatusUp
	if !healthy {
		status = StatusDown
	}

	return Report{
		Status:        status,
		IsHealthy:     healthy,
		Components:    components,
		Timestamp:     h.now().UnixMilli(),
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
	}
}

func (h *Handler) write(w http.ResponseWriter, report Report) {
	statusCode := http.StatusOK
	if !report.IsHealthy {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(report)
}

func runCheck(ctx context.Context, fn CheckFunc) Component {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)
	duration := time.Since(start).Milliseconds()

	if err != nil {
		return Component{Status: StatusDown, Details: err.Error(), DurationMs: duration}
	}
	return Component{Status: StatusUp, Details: "connection normal", DurationMs: duration}
}

func runCount(ctx context.Context, table string, fn CountFunc) Component {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	start := time.Now()
	n, err := fn(ctx)
	duration := time.Since(start).Milliseconds()

	if err != nil {
		return Component{Status: StatusDown, Details: table + " table access failed: " + err.Error(), DurationMs: duration}
	}
	return Component{Status: StatusUp, Details: table + " table accessible", Count: &n, DurationMs: duration}
}

const mb = 1024 * 1024

func memoryInfo() map[string]interface{} {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return map[string]interface{}{
		"alloc_mb":       m.Alloc / mb,
		"heap_in_use_mb": m.HeapInuse / mb,
		"sys_mb":         m.Sys / mb,
		"num_gc":         m.NumGC,
	}
}

func systemInfo() map[string]interface{} {
	return map[string]interface{}{
		"goroutines": runtime.NumGoroutine(),
		"cpus":       runtime.NumCPU(),
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
	}
}
