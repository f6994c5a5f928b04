package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors registered for one service.
type Metrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewMetrics registers request-count and latency collectors under service.
// Registration errors (e.g. collectors already registered because the
// router is built more than once) are ignored: the returned Metrics is
// never nil, and in that case it records into collectors that /metrics
// does not export.
func NewMetrics(service string) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests processed, labeled by route/method/status.",
			ConstLabels: prometheus.Labels{"service": service},
		}, []string{"path", "method", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "HTTP request latency in seconds, labeled by route/method.",
			ConstLabels: prometheus.Labels{"service": service},
			Buckets: prometheus.DefBuckets,
		}, []string{"path", "method"}),
	}
	_ = prometheus.Register(m.requests)
	_ = prometheus.Register(m.latency)
	return m
}

// Middleware records request count and latency for every request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		m.latency.WithLabelValues(r.URL.Path, r.Method).Observe(time.Since(start).Seconds())
		m.requests.WithLabelValues(r.URL.Path, r.Method, strconv.Itoa(wrapped.statusCode)).Inc()
	})
}
