package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Session-API Metrics
var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chatcart",
			Subsystem: "session_api",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "chatcart",
			Subsystem: "session_api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// Messages appended to live logs
	MessagesAppended = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chatcart",
			Subsystem: "session_api",
			Name:      "messages_appended_total",
			Help:      "Total messages appended across all sessions",
		},
	)

	// Messages moved to the backing store by archival
	MessagesArchived = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chatcart",
			Subsystem: "session_api",
			Name:      "messages_archived_total",
			Help:      "Total messages moved to the backing store",
		},
	)

	// Best-effort message copies written by the persist workers
	MessagesPersisted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chatcart",
			Subsystem: "session_api",
			Name:      "messages_persisted_total",
			Help:      "Total message copies written to the backing store",
		},
	)

	// Throttle decisions per domain
	ThrottleDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chatcart",
			Subsystem: "session_api",
			Name:      "throttle_decisions_total",
			Help:      "Token bucket admission decisions",
		},
		[]string{"domain", "outcome"},
	)

	// Caller ceiling rejections
	CallerLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chatcart",
			Subsystem: "session_api",
			Name:      "caller_rate_limited_total",
			Help:      "Requests rejected by the per-actor caller ceiling",
		},
		[]string{"endpoint"},
	)

	// Backing store failures by operation
	BackingFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chatcart",
			Subsystem: "session_api",
			Name:      "backing_store_failures_total",
			Help:      "Swallowed backing store failures",
		},
		[]string{"operation"},
	)

	// Live actor gauges per runtime
	LiveActors = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "chatcart",
			Subsystem: "session_api",
			Name:      "live_actors",
			Help:      "Live actor mailboxes per runtime",
		},
		[]string{"runtime"},
	)

	// Persist queue depth
	PersistQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "chatcart",
			Subsystem: "session_api",
			Name:      "persist_queue_depth",
			Help:      "Messages waiting for their backing store copy",
		},
	)
)

// RecordRequest records an HTTP request.
func RecordRequest(method, endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint).Observe(durationSec)
}

// RecordThrottleDecision records a token bucket admission outcome.
func RecordThrottleDecision(domain string, allowed bool) {
	outcome := "allowed"
	if !allowed {
		outcome = "denied"
	}
	ThrottleDecisions.WithLabelValues(domain, outcome).Inc()
}

// RecordBackingFailure counts a swallowed backing store failure.
func RecordBackingFailure(operation string) {
	BackingFailures.WithLabelValues(operation).Inc()
}

// RecordMessagePersisted counts one successful backing store message copy.
func RecordMessagePersisted() {
	MessagesPersisted.Inc()
}

// SetLiveActors sets the live mailbox gauge for one runtime.
func SetLiveActors(runtime string, count int) {
	LiveActors.WithLabelValues(runtime).Set(float64(count))
}

// SetPersistQueueDepth sets the persist queue depth gauge.
func SetPersistQueueDepth(depth int) {
	PersistQueueDepth.Set(float64(depth))
}
