package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the storefront core.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	externalErrors  *prometheus.CounterVec
	fallbacks       *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	sessionEvents   *prometheus.CounterVec
}

// DataSnapshot is a point-in-time readback of the data-path counters,
// consumed by the CLI status command.
type DataSnapshot struct {
	FallbacksServed float64 `json:"fallbacks_served"`
	FallbacksFailed float64 `json:"fallbacks_failed"`
	CacheHitRate    float64 `json:"cache_hit_rate"`
	SessionTimeouts float64 `json:"session_timeouts"`
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "storefront_request_duration_seconds",
				Help:    "Duration of operations by name.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		fallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_fallbacks_total",
				Help: "Fallback activations by operation and outcome.",
			},
			[]string{"operation", "outcome"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		sessionEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_session_events_total",
				Help: "Session state transitions by kind.",
			},
			[]string{"kind"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrFallback records a fallback activation. outcome is "served" when the
// secondary path answered, "failed" when both paths failed.
func (m *Metrics) IncrFallback(operation, outcome string) {
	m.fallbacks.WithLabelValues(operation, outcome).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrSessionEvent counts a session transition: "signin", "signout",
// "role_resolved", "role_unresolved", "timeout".
func (m *Metrics) IncrSessionEvent(kind string) {
	m.sessionEvents.WithLabelValues(kind).Inc()
}

// GetDataSnapshot gathers current counter values for the status readout.
func (m *Metrics) GetDataSnapshot() *DataSnapshot {
	hits := getCounterValue(m.cacheHits, "categories")
	misses := getCounterValue(m.cacheMisses, "categories")

	hitRate := float64(0)
	if hits+misses > 0 {
		hitRate = hits / (hits + misses)
	}

	served := float64(0)
	failed := float64(0)
	for _, op := range []string{"products.list", "products.create", "products.quantity", "reports.sales"} {
		served += getCounterValue(m.fallbacks, op, "served")
		failed += getCounterValue(m.fallbacks, op, "failed")
	}

	return &DataSnapshot{
		FallbacksServed: served,
		FallbacksFailed: failed,
		CacheHitRate:    hitRate,
		SessionTimeouts: getCounterValue(m.sessionEvents, "timeout"),
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for the
// given labels.
func getCounterValue(cv *prometheus.CounterVec, labels ...string) float64 {
	counter := cv.WithLabelValues(labels...)
	metric := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(metric); err != nil {
		return 0
	}
	if metric.Counter != nil && metric.Counter.Value != nil {
		return *metric.Counter.Value
	}
	return 0
}
