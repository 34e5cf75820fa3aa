package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "netmon"

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.005, .01, .05, .1, .5, 1, 5, 15, 30, 60, 120, 300},
		},
		[]string{"method", "path", "status"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being served",
		},
	)

	// Pipeline metrics
	cyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "cycles_total",
			Help:      "Total number of collection cycles by outcome",
		},
		[]string{"pipeline", "status"},
	)

	cycleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a collection cycle in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"pipeline"},
	)

	collectorFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "failures_total",
			Help:      "Upstream calls that failed and were isolated to their source",
		},
		[]string{"source"},
	)

	collectorCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "call_duration_seconds",
			Help:      "Duration of a single upstream list or query call",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"source"},
	)

	recordsCollected = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "records_collected",
			Help:      "Records produced by the latest cycle per collection",
		},
		[]string{"collection"},
	)

	// Document store metrics
	batchCommitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "docstore",
			Name:      "batch_commits_total",
			Help:      "Batch commits by collection and outcome",
		},
		[]string{"collection", "status"},
	)

	batchCommitDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "docstore",
			Name:      "batch_commit_duration_seconds",
			Help:      "Batch commit duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"collection"},
	)
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware returns a middleware that records Prometheus metrics
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		routePattern := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			routePattern = rctx.RoutePattern()
		}

		status := strconv.Itoa(wrapped.statusCode)
		httpRequestsTotal.WithLabelValues(r.Method, routePattern, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, routePattern, status).Observe(time.Since(start).Seconds())
	})
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordCycle records the outcome and duration of a pipeline cycle
func RecordCycle(pipeline, status string, duration time.Duration) {
	cyclesTotal.WithLabelValues(pipeline, status).Inc()
	cycleDuration.WithLabelValues(pipeline).Observe(duration.Seconds())
}

// RecordCollectorFailure counts an isolated upstream failure
func RecordCollectorFailure(source string) {
	collectorFailuresTotal.WithLabelValues(source).Inc()
}

// RecordCollectorCall records the duration of one upstream call
func RecordCollectorCall(source string, duration time.Duration) {
	collectorCallDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// SetRecordsCollected sets the gauge for records produced in the latest cycle
func SetRecordsCollected(collection string, count int) {
	recordsCollected.WithLabelValues(collection).Set(float64(count))
}

// RecordBatchCommit records a batch commit outcome
func RecordBatchCommit(collection string, err error, duration time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	batchCommitsTotal.WithLabelValues(collection, status).Inc()
	batchCommitDuration.WithLabelValues(collection).Observe(duration.Seconds())
}
