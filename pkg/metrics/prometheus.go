// Package metrics provides Prometheus metrics for the venue map service.
package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	DefaultNamespace = "venuemap"
	subsystem        = "dashboard"
)

// Fetch outcomes used as the "outcome" label.
const (
	FetchHit    = "hit"
	FetchMiss   = "miss"
	FetchError  = "error"
	FetchStatus = "status"
)

// Manager manages all Prometheus metrics for the venue map service.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Upstream datasets
	fetchRequests *prometheus.CounterVec
	fetchLatency  prometheus.Histogram
	cacheEntries  prometheus.Gauge
	cacheEvicted  prometheus.Counter
	decodeErrors  *prometheus.CounterVec

	// Render pipeline
	renders          *prometheus.CounterVec
	markersPerRender prometheus.Histogram
	joinMisses       *prometheus.CounterVec
	renderLatency    prometheus.Histogram

	// Sessions
	activeSessions   prometheus.Gauge
	sessionsEvicted  prometheus.Counter
	selectionChanges *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

type global struct {
	manager  *Manager
	registry *prometheus.Registry
}

// Process-wide manager and the registry it registers on. Default Go
// collectors are never added to it.
var active atomic.Pointer[global] //nolint:gochecknoglobals // intentional global for singleton metrics manager

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	Configure()
}

// Configure replaces the process-wide manager with one built from opts on a
// fresh registry. Call it before handlers capture GetRegistry.
func Configure(opts ...Option) *Manager {
	reg := prometheus.NewRegistry()
	m := NewManager(append(opts, WithPrometheusRegistry(reg))...)
	active.Store(&global{manager: m, registry: reg})
	return m
}

func current() *Manager {
	return active.Load().manager
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        DefaultNamespace,
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every series
	auto := promauto.With(m.registry)

	m.fetchRequests = auto.NewCounterVec(
		m.counterOpts("fetch_requests_total", "Dataset fetches by outcome (hit, miss, error, status)"),
		[]string{"outcome"},
	)
	m.fetchLatency = auto.NewHistogram(
		m.histogramOpts("fetch_latency_milliseconds", "Upstream round trip latency in milliseconds", m.histogramBuckets),
	)
	m.cacheEntries = auto.NewGauge(m.gaugeOpts("cache_entries", "Documents currently held in the fetch cache"))
	m.cacheEvicted = auto.NewCounter(m.counterOpts("cache_evicted_total", "Expired documents purged from the fetch cache"))
	m.decodeErrors = auto.NewCounterVec(
		m.counterOpts("decode_errors_total", "Datasets that failed to decode, by dataset"),
		[]string{"dataset"},
	)

	m.renders = auto.NewCounterVec(
		m.counterOpts("renders_total", "Render passes by resulting selection stage"),
		[]string{"stage"},
	)
	m.markersPerRender = auto.NewHistogram(
		m.histogramOpts("markers_per_render", "Markers emitted per render pass", []float64{0, 1, 5, 10, 20, 40, 80, 160, 320}),
	)
	m.joinMisses = auto.NewCounterVec(
		m.counterOpts("join_misses_total", "Teams dropped from a render, by reason"),
		[]string{"reason"},
	)
	m.renderLatency = auto.NewHistogram(
		m.histogramOpts("render_latency_milliseconds", "Render pass latency in milliseconds", m.histogramBuckets),
	)

	m.activeSessions = auto.NewGauge(m.gaugeOpts("active_sessions", "Sessions held in the session store"))
	m.sessionsEvicted = auto.NewCounter(m.counterOpts("sessions_evicted_total", "Sessions evicted for capacity or age"))
	m.selectionChanges = auto.NewCounterVec(
		m.counterOpts("selection_changes_total", "Accepted selection events by stage"),
		[]string{"stage"},
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByType = auto.NewCounterVec(
		m.counterOpts("errors_by_type_total", "Errors by type and severity"),
		[]string{"error_type", "severity"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Errors by endpoint, method and type"),
		[]string{"endpoint", "method", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(
		m.histogramOpts("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
			[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}),
	)
}

// RecordFetch counts one Fetch call by outcome.
func RecordFetch(outcome string) {
	m := current()
	if !m.enabled || !ValidOutcome(outcome) {
		return
	}
	m.fetchRequests.WithLabelValues(outcome).Inc()
}

// RecordFetchLatency records an upstream round trip in milliseconds.
func RecordFetchLatency(latencyMs float64) {
	m := current()
	if !m.enabled {
		return
	}
	m.fetchLatency.Observe(latencyMs)
}

// UpdateCacheEntries sets the fetch cache size.
func UpdateCacheEntries(count int) {
	m := current()
	if !m.enabled {
		return
	}
	m.cacheEntries.Set(float64(count))
}

// RecordCacheEvicted adds n purged cache entries.
func RecordCacheEvicted(n int) {
	m := current()
	if !m.enabled {
		return
	}
	m.cacheEvicted.Add(float64(n))
}

// RecordDecodeError counts a dataset that could not be decoded.
func RecordDecodeError(dataset string) {
	m := current()
	if !m.enabled {
		return
	}
	m.decodeErrors.WithLabelValues(dataset).Inc()
}

// RecordRender counts a render pass and its marker count.
func RecordRender(stage string, markers int, latencyMs float64) {
	m := current()
	if !m.enabled {
		return
	}
	m.renders.WithLabelValues(stage).Inc()
	m.markersPerRender.Observe(float64(markers))
	m.renderLatency.Observe(latencyMs)
}

// RecordJoinMisses adds n teams dropped for reason.
func RecordJoinMisses(reason string, n int) {
	m := current()
	if !m.enabled || n <= 0 {
		return
	}
	m.joinMisses.WithLabelValues(reason).Add(float64(n))
}

// UpdateActiveSessions sets the session store size.
func UpdateActiveSessions(count int) {
	m := current()
	if !m.enabled {
		return
	}
	m.activeSessions.Set(float64(count))
}

// RecordSessionEvicted counts an evicted session.
func RecordSessionEvicted() {
	m := current()
	if !m.enabled {
		return
	}
	m.sessionsEvicted.Inc()
}

// RecordSelectionChange counts an accepted selection event.
func RecordSelectionChange(stage string) {
	m := current()
	if !m.enabled {
		return
	}
	m.selectionChanges.WithLabelValues(stage).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	m := current()
	if !m.enabled {
		return
	}
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	m := current()
	if !m.enabled {
		return
	}
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	m := current()
	if !m.enabled {
		return
	}
	m.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	m := current()
	if !m.enabled {
		return
	}
	m.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	m := current()
	if !m.enabled {
		return
	}
	m.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	m := current()
	if !m.enabled {
		return
	}
	m.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	m := current()
	if !m.enabled {
		return
	}
	m.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return active.Load().registry
}
