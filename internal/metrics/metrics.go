// Package metrics exposes Prometheus collectors for audit runs.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Upstream labels of outbound requests.
const (
	UpstreamProxy          = "proxy"
	UpstreamPageSpeed      = "pagespeed"
	UpstreamMobileFriendly = "mobile-friendly"
	UpstreamOther          = "other"
)

var (
	auditRunsTotal             *prometheus.CounterVec
	auditChecksTotal           *prometheus.CounterVec
	auditCheckDurationSeconds  *prometheus.HistogramVec
	upstreamRequestsTotal      *prometheus.CounterVec
	upstreamRetriesTotal       *prometheus.CounterVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec
	auditActiveRuns            prometheus.Gauge

	once sync.Once
)

// Init initializes the Prometheus collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		auditRunsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seoaudit_runs_total",
				Help: "Total number of audit runs, labeled by final state.",
			},
			[]string{"state"},
		)

		auditChecksTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seoaudit_checks_total",
				Help: "Total number of checks executed, labeled by check, category and outcome.",
			},
			[]string{"check", "category", "outcome"},
		)

		auditCheckDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "seoaudit_check_duration_seconds",
				Help:    "Histogram of check latencies.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"check"},
		)

		upstreamRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seoaudit_upstream_requests_total",
				Help: "Total number of outbound requests, labeled by upstream and status code.",
			},
			[]string{"upstream", "code"},
		)

		upstreamRetriesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seoaudit_upstream_retries_total",
				Help: "Total number of retried outbound requests, labeled by upstream.",
			},
			[]string{"upstream"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of API requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of API request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)

		auditActiveRuns = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "seoaudit_active_runs",
				Help: "Number of audit runs currently in progress.",
			},
		)
	})
}

// SanitizeHost extracts a lowercase hostname from a URL.
// It returns "unknown" if the URL is invalid.
func SanitizeHost(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	Init()
	return promhttp.Handler()
}

// ObserveRun counts a finished run.
func ObserveRun(state string) {
	Init()
	auditRunsTotal.WithLabelValues(state).Inc()
}

// RunStarted increments the active runs gauge.
func RunStarted() {
	Init()
	auditActiveRuns.Inc()
}

// RunFinished decrements the active runs gauge.
func RunFinished() {
	Init()
	auditActiveRuns.Dec()
}

// ObserveCheck records the outcome and latency of one check.
func ObserveCheck(check, category, outcome string, duration time.Duration) {
	Init()
	auditChecksTotal.WithLabelValues(check, category, outcome).Inc()
	auditCheckDurationSeconds.WithLabelValues(check).Observe(duration.Seconds())
}

// UpstreamLabel returns name when it is a known upstream and UpstreamOther
// otherwise, so audited hosts never become label values.
func UpstreamLabel(name string) string {
	switch name {
	case UpstreamProxy, UpstreamPageSpeed, UpstreamMobileFriendly:
		return name
	default:
		return UpstreamOther
	}
}

// ObserveUpstream counts an outbound request. A zero code means the request
// failed before a response arrived.
func ObserveUpstream(upstream string, code int) {
	Init()
	upstreamRequestsTotal.WithLabelValues(UpstreamLabel(upstream), strconv.Itoa(code)).Inc()
}

// ObserveRetry counts a retried outbound request.
func ObserveRetry(upstream string) {
	Init()
	upstreamRetriesTotal.WithLabelValues(UpstreamLabel(upstream)).Inc()
}

// ObserveHTTPRequest records an API request.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Middleware is a chi middleware that records API request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)

		routePattern := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			routePattern = rctx.RoutePattern()
		}

		ObserveHTTPRequest(r.Method, routePattern, ww.status, time.Since(start))
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
