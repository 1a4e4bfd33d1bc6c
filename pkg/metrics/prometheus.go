// Package metrics provides Prometheus metrics for the ctfboard service.
package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const subsystem = "rankings"

// Manager manages all Prometheus metrics for the ctfboard service.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// View metrics: one build per request and view.
	viewBuilds       *prometheus.CounterVec
	viewBuildLatency *prometheus.HistogramVec
	viewRows         *prometheus.GaugeVec
	viewMatchedRows  *prometheus.HistogramVec
	viewErrors       *prometheus.CounterVec

	// Dataset metrics.
	datasetTeams        prometheus.Gauge
	datasetEvents       prometheus.Gauge
	datasetLoads        prometheus.Counter
	datasetLoadErrors   prometheus.Counter
	datasetLoadDuration prometheus.Histogram
	datasetLastLoadUnix prometheus.Gauge

	// HTTP metrics.
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpRateLimited     *prometheus.CounterVec

	// Error metrics.
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System metrics, sampled on /stats.
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// global pairs the process-wide manager with the registry it registers on.
type global struct {
	manager  *Manager
	registry *prometheus.Registry
}

var current atomic.Pointer[global] //nolint:gochecknoglobals // intentional global for singleton metrics manager

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	Configure()
}

// Configure replaces the global manager with one built from opts on a fresh
// registry. Call it at startup, before the metrics handler is created.
func Configure(opts ...Option) {
	registry := prometheus.NewRegistry()
	opts = append(opts[:len(opts):len(opts)], WithPrometheusRegistry(registry))
	current.Store(&global{manager: NewManager(opts...), registry: registry})
}

func currentManager() *Manager { return current.Load().manager }

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "ctfboard",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: subsystem, Name: name, Help: help, Buckets: buckets, ConstLabels: m.constLabels}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.viewBuilds = auto.NewCounterVec(
		m.counterOpts("view_builds_total", "Total number of view model builds"),
		[]string{"view"},
	)
	m.viewBuildLatency = auto.NewHistogramVec(
		m.histogramOpts("view_build_latency_milliseconds", "View build plus filter, sort and paginate latency in milliseconds", m.histogramBuckets),
		[]string{"view"},
	)
	m.viewRows = auto.NewGaugeVec(
		m.gaugeOpts("view_rows", "Number of rows in the last built view model"),
		[]string{"view"},
	)
	m.viewMatchedRows = auto.NewHistogramVec(
		m.histogramOpts("view_matched_rows", "Rows left after the global filter", prometheus.ExponentialBuckets(1, 4, 8)),
		[]string{"view"},
	)
	m.viewErrors = auto.NewCounterVec(
		m.counterOpts("view_errors_total", "Total number of failed view builds"),
		[]string{"view", "error_type"},
	)

	m.datasetTeams = auto.NewGauge(m.gaugeOpts("dataset_teams", "Teams in the loaded dataset"))
	m.datasetEvents = auto.NewGauge(m.gaugeOpts("dataset_events", "Events in the loaded dataset"))
	m.datasetLoads = auto.NewCounter(m.counterOpts("dataset_loads_total", "Total number of successful dataset loads"))
	m.datasetLoadErrors = auto.NewCounter(m.counterOpts("dataset_load_errors_total", "Total number of failed dataset loads"))
	m.datasetLoadDuration = auto.NewHistogram(
		m.histogramOpts("dataset_load_duration_milliseconds", "Dataset decode duration in milliseconds", m.histogramBuckets),
	)
	m.datasetLastLoadUnix = auto.NewGauge(m.gaugeOpts("dataset_last_load_unix", "Unix timestamp of the last successful dataset load"))

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRateLimited = auto.NewCounterVec(
		m.counterOpts("http_rate_limited_total", "Total number of requests rejected by the rate limiter"),
		[]string{"endpoint"},
	)

	m.errorRateByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Total number of errors by component"),
		[]string{"component", "error_type"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Total number of errors by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap memory in use in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
}

// RecordViewBuild records one successful view build.
func (m *Manager) RecordViewBuild(view string, latencyMs float64, rows, matched int) {
	m.viewBuilds.WithLabelValues(view).Inc()
	m.viewBuildLatency.WithLabelValues(view).Observe(latencyMs)
	m.viewRows.WithLabelValues(view).Set(float64(rows))
	m.viewMatchedRows.WithLabelValues(view).Observe(float64(matched))
}

// RecordViewError records a failed view build.
func (m *Manager) RecordViewError(view, errorType string) {
	m.viewErrors.WithLabelValues(view, errorType).Inc()
}

// RecordDatasetLoad records a successful dataset load.
func (m *Manager) RecordDatasetLoad(teams, events int, durationMs float64, unix int64) {
	m.datasetLoads.Inc()
	m.datasetTeams.Set(float64(teams))
	m.datasetEvents.Set(float64(events))
	m.datasetLoadDuration.Observe(durationMs)
	m.datasetLastLoadUnix.Set(float64(unix))
}

// RecordDatasetLoadError records a failed dataset load.
func (m *Manager) RecordDatasetLoadError() {
	m.datasetLoadErrors.Inc()
}

// Global wrappers over the default manager.

// RecordViewBuild records one successful view build.
func RecordViewBuild(view string, latencyMs float64, rows, matched int) {
	currentManager().RecordViewBuild(view, latencyMs, rows, matched)
}

// RecordViewError records a failed view build.
func RecordViewError(view, errorType string) {
	currentManager().RecordViewError(view, errorType)
}

// RecordDatasetLoad records a successful dataset load.
func RecordDatasetLoad(teams, events int, durationMs float64, unix int64) {
	currentManager().RecordDatasetLoad(teams, events, durationMs, unix)
}

// RecordDatasetLoadError records a failed dataset load.
func RecordDatasetLoadError() {
	currentManager().RecordDatasetLoadError()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	currentManager().httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	currentManager().httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordRateLimited increments the rate-limited counter for an endpoint.
func RecordRateLimited(endpoint string) {
	currentManager().httpRateLimited.WithLabelValues(endpoint).Inc()
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	currentManager().errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	currentManager().errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the heap memory in use in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	currentManager().systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	currentManager().systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the registry of the current global manager.
func GetRegistry() *prometheus.Registry {
	return current.Load().registry
}
