// Package metrics provides Prometheus metrics for the housecup service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the housecup service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Snapshot / cache
	snapshotsApplied prometheus.Counter
	snapshotFailures prometheus.Counter
	snapshotEvents   prometheus.Gauge
	snapshotVersion  prometheus.Gauge
	cacheStale       prometheus.Gauge
	subscribers      prometheus.Gauge

	// Mutations
	mutations       *prometheus.CounterVec
	mutationLatency *prometheus.HistogramVec

	// Standings
	standingsComputed prometheus.Counter
	standingsLatency  prometheus.Histogram
	houseScore        *prometheus.GaugeVec
	houseRank         *prometheus.GaugeVec

	// Feed and relay
	feedPublished prometheus.Counter
	feedCoalesced prometheus.Counter
	feedDropped   prometheus.Counter
	relayHandled  prometheus.Counter
	relayErrors   prometheus.Counter

	// Exports and idempotency
	exports             *prometheus.CounterVec
	idempotentDuplicate prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "housecup",
		subsystem:        "events",
		histogramBuckets: []float64{0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		ConstLabels: m.customLabels,
	})
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.snapshotsApplied = m.counter("snapshots_applied_total", "Total number of full-collection snapshots applied to the cache")
	m.snapshotFailures = m.counter("snapshot_failures_total", "Total number of subscription failures reported by the store")
	m.snapshotEvents = m.gauge("snapshot_events", "Number of events in the current snapshot")
	m.snapshotVersion = m.gauge("snapshot_version", "Version of the current cache snapshot")
	m.cacheStale = m.gauge("cache_stale", "1 when the cache is disconnected from the store, 0 otherwise")
	m.subscribers = m.gauge("store_subscribers", "Number of active store subscriptions")

	m.mutations = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "mutations_total",
		Help:        "Mutation requests by operation and outcome",
		ConstLabels: m.customLabels,
	}, []string{"op", "outcome"})

	m.mutationLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "mutation_latency_milliseconds",
		Help:        "Latency of store round-trips for mutations",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}, []string{"op"})

	m.standingsComputed = m.counter("standings_computed_total", "Total number of full standings recomputations")
	m.standingsLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "standings_latency_milliseconds",
		Help:        "Time to recompute standings from a snapshot",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	})

	m.houseScore = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "house_score",
		Help:        "Current aggregate score per house",
		ConstLabels: m.customLabels,
	}, []string{"house"})

	m.houseRank = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "house_rank",
		Help:        "Current 1-based rank per house",
		ConstLabels: m.customLabels,
	}, []string{"house"})

	m.feedPublished = m.counter("feed_published_total", "Views published to cache watchers")
	m.feedCoalesced = m.counter("feed_coalesced_total", "Views replaced before a slow watcher read them")
	m.feedDropped = m.counter("feed_dropped_total", "Views dropped because the feed was closed")
	m.relayHandled = m.counter("relay_handled_total", "Views handled by relays")
	m.relayErrors = m.counter("relay_errors_total", "Relay sink failures")

	m.exports = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "exports_total",
		Help:        "Result exports by format",
		ConstLabels: m.customLabels,
	}, []string{"format"})

	m.idempotentDuplicate = m.counter("idempotent_duplicates_total", "Create requests short-circuited by a repeated idempotency key")

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_requests_total",
		Help:        "Total number of HTTP requests by endpoint and status",
		ConstLabels: m.customLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "errors_by_component_total",
		Help:        "Errors by component and type",
		ConstLabels: m.customLabels,
	}, []string{"component", "error_type"})

	m.errorRateByType = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "errors_by_type_total",
		Help:        "Errors by type and severity",
		ConstLabels: m.customLabels,
	}, []string{"error_type", "severity"})

	m.errorRateByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "errors_by_endpoint_total",
		Help:        "Errors by endpoint, method and type",
		ConstLabels: m.customLabels,
	}, []string{"endpoint", "method", "error_type"})

	m.errorLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "error_latency_milliseconds",
		Help:        "Latency of operations that ended in an error",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}, []string{"component", "error_type"})

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
}

// Snapshot metrics.

// RecordSnapshotApplied records a snapshot swap into the cache.
func RecordSnapshotApplied(version uint64, events int) {
	globalManager.snapshotsApplied.Inc()
	globalManager.snapshotVersion.Set(float64(version))
	globalManager.snapshotEvents.Set(float64(events))
	globalManager.cacheStale.Set(0)
}

// RecordSnapshotFailure records a subscription failure and flags the cache stale.
func RecordSnapshotFailure() {
	globalManager.snapshotFailures.Inc()
	globalManager.cacheStale.Set(1)
}

// UpdateSubscribers sets the number of live store subscriptions.
func UpdateSubscribers(count int) {
	globalManager.subscribers.Set(float64(count))
}

// Mutation metrics.

// RecordMutation records one mutation outcome ("ok", "invalid", "store_error", "not_found").
func RecordMutation(op, outcome string, latencyMs float64) {
	globalManager.mutations.WithLabelValues(op, outcome).Inc()
	globalManager.mutationLatency.WithLabelValues(op).Observe(latencyMs)
}

// Standings metrics.

// RecordStandingsComputed records a full standings recomputation.
func RecordStandingsComputed(latencyMs float64) {
	globalManager.standingsComputed.Inc()
	globalManager.standingsLatency.Observe(latencyMs)
}

// UpdateHouseStanding sets the score and rank gauges for a house.
func UpdateHouseStanding(house string, score, rank int) {
	globalManager.houseScore.WithLabelValues(house).Set(float64(score))
	globalManager.houseRank.WithLabelValues(house).Set(float64(rank))
}

// Feed and relay metrics.

// RecordFeedPublish increments the published views counter.
func RecordFeedPublish() { globalManager.feedPublished.Inc() }

// RecordFeedCoalesced increments the coalesced views counter.
func RecordFeedCoalesced() { globalManager.feedCoalesced.Inc() }

// RecordFeedDropped increments the dropped views counter.
func RecordFeedDropped() { globalManager.feedDropped.Inc() }

// RecordRelayHandled increments the relay handled counter.
func RecordRelayHandled() { globalManager.relayHandled.Inc() }

// RecordRelayError increments the relay error counter.
func RecordRelayError() { globalManager.relayErrors.Inc() }

// Export and idempotency metrics.

// RecordExport increments the export counter for a format.
func RecordExport(format string) {
	globalManager.exports.WithLabelValues(format).Inc()
}

// RecordIdempotentDuplicate increments the duplicate idempotency key counter.
func RecordIdempotentDuplicate() { globalManager.idempotentDuplicate.Inc() }

// HTTP metrics.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Error metrics.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// System metrics.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
