// Package metrics provides Prometheus metrics for the satfinder service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cache names used as label values.
const (
	CacheDataset = "dataset"
	CachePath    = "path"
)

// Manager manages all Prometheus metrics for the satfinder service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error Metrics
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec

	// Cache Metrics
	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec

	// Dataset Metrics
	datasetFetches      *prometheus.CounterVec
	datasetFetchLatency prometheus.Histogram
	datasetSatellites   *prometheus.GaugeVec
	datasetAgeSeconds   prometheus.Gauge

	// Aggregation Metrics
	predictorLatency *prometheus.HistogramVec
	predictorErrors  *prometheus.CounterVec
	lookupMisses     *prometheus.CounterVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "satfinder",
		subsystem:        "api",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // flat list of metric definitions
	auto := promauto.With(m.registry)

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByType = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_type_total",
			Help:      "Errors by type and severity",
		},
		[]string{"error_type", "severity"},
	)

	m.errorRateByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_endpoint_total",
			Help:      "Errors by endpoint, method and type",
		},
		[]string{"endpoint", "method", "error_type"},
	)

	m.cacheHits = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Reads served from a fresh cache entry",
		},
		[]string{"cache"},
	)

	m.cacheMisses = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Reads that found the cache entry stale or empty",
		},
		[]string{"cache"},
	)

	m.datasetFetches = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: "dataset",
			Name:      "fetches_total",
			Help:      "Remote TLE dataset fetches by outcome",
		},
		[]string{"outcome", "forced"},
	)

	m.datasetFetchLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "dataset",
		Name:      "fetch_latency_milliseconds",
		Help:      "Remote TLE dataset fetch latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.datasetSatellites = auto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: m.namespace,
			Subsystem: "dataset",
			Name:      "satellites",
			Help:      "Satellites in the cached dataset",
		},
		[]string{"state"},
	)

	m.datasetAgeSeconds = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "dataset",
		Name:      "age_seconds",
		Help:      "Seconds since the cached dataset was fetched",
	})

	m.predictorLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: "predictor",
			Name:      "latency_milliseconds",
			Help:      "Predictor call latency in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"routine"},
	)

	m.predictorErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: "predictor",
			Name:      "errors_total",
			Help:      "Predictor calls that failed",
		},
		[]string{"routine"},
	)

	m.lookupMisses = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "satellite_lookup_misses_total",
			Help:      "Requested satellite ids absent from the dataset",
		},
		[]string{"query"},
	)

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "memory_usage_bytes",
		Help:      "Current memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "goroutine_count",
		Help:      "Current number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "gc_pause_milliseconds",
		Help:      "Average GC pause time in milliseconds",
		Buckets:   m.histogramBuckets,
	})
}

// HTTP Metrics Functions.

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// Cache Metrics Functions.

// RecordCacheHit counts a read served from a fresh entry of cache.
func RecordCacheHit(cache string) {
	globalManager.cacheHits.WithLabelValues(cache).Inc()
}

// RecordCacheMiss counts a read that had to recompute cache.
func RecordCacheMiss(cache string) {
	globalManager.cacheMisses.WithLabelValues(cache).Inc()
}

// Dataset Metrics Functions.

// RecordDatasetFetch counts a remote fetch attempt. outcome is "ok" or "error".
func RecordDatasetFetch(outcome string, forced bool) {
	f := "false"
	if forced {
		f = "true"
	}
	globalManager.datasetFetches.WithLabelValues(outcome, f).Inc()
}

// RecordDatasetFetchLatency records remote fetch latency.
func RecordDatasetFetchLatency(latencyMs float64) {
	globalManager.datasetFetchLatency.Observe(latencyMs)
}

// UpdateDatasetSatellites sets the total and active satellite gauges.
func UpdateDatasetSatellites(total, active int) {
	globalManager.datasetSatellites.WithLabelValues("total").Set(float64(total))
	globalManager.datasetSatellites.WithLabelValues("active").Set(float64(active))
}

// UpdateDatasetAge sets the cached dataset age.
func UpdateDatasetAge(seconds float64) {
	globalManager.datasetAgeSeconds.Set(seconds)
}

// Aggregation Metrics Functions.

// RecordPredictorLatency records the latency of one predictor call.
func RecordPredictorLatency(routine string, latencyMs float64) {
	globalManager.predictorLatency.WithLabelValues(routine).Observe(latencyMs)
}

// RecordPredictorError counts a failed predictor call.
func RecordPredictorError(routine string) {
	globalManager.predictorErrors.WithLabelValues(routine).Inc()
}

// RecordLookupMiss counts a requested satellite id that was not in the dataset.
func RecordLookupMiss(query string) {
	globalManager.lookupMisses.WithLabelValues(query).Inc()
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// Init replaces the global manager with one built from opts on a fresh
// registry. Call it once at startup, before metrics are recorded or
// GetRegistry is handed to an exporter. A registry passed in opts is ignored.
func Init(opts ...Option) {
	registry := prometheus.NewRegistry()
	globalManager = NewManager(append(opts, WithPrometheusRegistry(registry))...)
	customRegistry = registry
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
