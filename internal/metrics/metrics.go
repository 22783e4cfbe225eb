// Package metrics holds the Prometheus collectors for the API client and the
// sandbox server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Client request outcomes.
const (
	OutcomeOK        = "ok"
	OutcomeRejected  = "rejected"
	OutcomeHTTPError = "http_error"
	OutcomeTransport = "transport_error"
	OutcomeCancelled = "cancelled"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	clientRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bizops",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "API requests issued by the client, by outcome.",
		},
		[]string{"method", "outcome"},
	)

	clientDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bizops",
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "Latency of API requests issued by the client.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		},
		[]string{"method"},
	)

	cacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bizops",
			Subsystem: "query_cache",
			Name:      "events_total",
			Help:      "Query cache hits, misses and invalidations.",
		},
		[]string{"event"},
	)

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "bizops",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bizops",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "status"},
	)
)

func init() {
	Registry.MustRegister(
		clientRequests,
		clientDuration,
		cacheEvents,
		httpInFlight,
		httpRequests,
	)
}

// ObserveClientRequest records one settled client request.
func ObserveClientRequest(method, outcome string, d time.Duration) {
	clientRequests.WithLabelValues(method, outcome).Inc()
	clientDuration.WithLabelValues(method).Observe(d.Seconds())
}

// CacheEvent counts a query cache event ("hit", "miss", "stale", "invalidate").
func CacheEvent(event string) {
	cacheEvents.WithLabelValues(event).Inc()
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		httpRequests.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Inc()
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
