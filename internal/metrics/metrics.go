// Package metrics exposes Prometheus collectors for HTTP traffic and checkout activity.
package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Mutation results
const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// Metrics groups the collectors registered by New
type Metrics struct {
	ReqTotal        *prometheus.CounterVec
	ReqDur          *prometheus.HistogramVec
	InFlight        prometheus.Gauge
	CartMutations   *prometheus.CounterVec
	DiscountApplied *prometheus.CounterVec
	StockRejections prometheus.Counter

	gatherer prometheus.Gatherer
}

// New registers the collectors with reg. A nil reg uses a fresh registry.
func New(namespace string, reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		ReqTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests handled by the server.",
		}, []string{"method", "route", "status"}),
		ReqDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency distribution in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		}, []string{"method", "route"}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_in_flight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),
		CartMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_mutations_total",
			Help:      "Count of cart mutations by operation and outcome.",
		}, []string{"operation", "result"}),
		DiscountApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discounts_applied_total",
			Help:      "Count of product groups that received a discount, by discount type.",
		}, []string{"type"}),
		StockRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_rejections_total",
			Help:      "Number of cart mutations rejected for insufficient stock.",
		}),
		gatherer: reg,
	}

	for _, c := range []prometheus.Collector{
		m.ReqTotal, m.ReqDur, m.InFlight, m.CartMutations, m.DiscountApplied, m.StockRejections,
	} {
		if err := reg.Register(c); err != nil {
			panic(fmt.Errorf("register metric: %w", err))
		}
	}

	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// CartMutation counts one cart mutation outcome. Safe on a nil receiver.
func (m *Metrics) CartMutation(operation, result string) {
	if m == nil {
		return
	}
	m.CartMutations.WithLabelValues(operation, result).Inc()
}

// DiscountsApplied counts one applied discount of the given type. Safe on a nil receiver.
func (m *Metrics) DiscountsApplied(discountType string) {
	if m == nil {
		return
	}
	m.DiscountApplied.WithLabelValues(discountType).Inc()
}

// StockRejected counts a mutation refused for lack of stock. Safe on a nil receiver.
func (m *Metrics) StockRejected() {
	if m == nil {
		return
	}
	m.StockRejections.Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// Middleware instruments request/response lifecycle with counters and histograms.
// Route labels use the chi route pattern so ids do not explode cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		m.InFlight.Inc()
		start := time.Now()
		next.ServeHTTP(recorder, r)
		m.InFlight.Dec()

		route := ""
		if rc := chi.RouteContext(r.Context()); rc != nil {
			route = rc.RoutePattern()
		}
		if route == "" {
			route = "unknown"
		}
		status := strconv.Itoa(recorder.status)
		m.ReqTotal.WithLabelValues(r.Method, route, status).Inc()
		m.ReqDur.WithLabelValues(r.Method, route).Observe(float64(time.Since(start)) / float64(time.Millisecond))
	})
}
