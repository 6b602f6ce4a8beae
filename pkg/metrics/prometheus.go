// Package metrics provides Prometheus metrics for the radar scoring service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result label values.
const (
	ResultOK       = "ok"
	ResultError    = "error"
	ResultNoData   = "no_data"
	ResultNotFound = "not_found"
	ResultTimeout  = "timeout"
	ResultOpen     = "breaker_open"
)

// Manager owns every collector for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Aggregation
	aggregations       *prometheus.CounterVec
	aggregationLatency prometheus.Histogram
	batchSize          prometheus.Histogram
	batchFailures      prometheus.Counter

	// Source adapters
	adapterCalls   *prometheus.CounterVec
	adapterLatency *prometheus.HistogramVec
	breakerState   *prometheus.GaugeVec
	sceneCache     *prometheus.CounterVec

	// Ingestion
	eventsIngested  *prometheus.CounterVec
	eventsDuplicate prometheus.Counter
	eventsPublished *prometheus.CounterVec

	// Store
	storeLatency *prometheus.HistogramVec
	storeErrors  *prometheus.CounterVec
	trackedTotal prometheus.Gauge

	// Queue / workers
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueUtilization prometheus.Gauge
	queueRejected    *prometheus.CounterVec
	workerCount      prometheus.Gauge
	jobLatency       prometheus.Histogram
	jobErrors        prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // registry without default Go collectors

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "radar",
		subsystem:        "signals",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	if buckets == nil {
		buckets = m.histogramBuckets
	}
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets, ConstLabels: m.constLabels}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.aggregations = auto.NewCounterVec(m.counterOpts("aggregations_total", "Entity aggregations by result"), []string{"result"})
	m.aggregationLatency = auto.NewHistogram(m.histogramOpts("aggregation_latency_seconds", "End-to-end latency of one entity aggregation", nil))
	m.batchSize = auto.NewHistogram(m.histogramOpts("batch_size", "Entities accepted per batch aggregation",
		[]float64{1, 5, 10, 25, 50, 100, 250, 500, 1000}))
	m.batchFailures = auto.NewCounter(m.counterOpts("batch_entity_failures_total", "Entities excluded from batch results"))

	m.adapterCalls = auto.NewCounterVec(m.counterOpts("adapter_calls_total", "Source adapter calls by adapter and result"), []string{"adapter", "result"})
	m.adapterLatency = auto.NewHistogramVec(m.histogramOpts("adapter_latency_seconds", "Source adapter call latency", nil), []string{"adapter"})
	m.breakerState = auto.NewGaugeVec(m.gaugeOpts("adapter_breaker_state", "Circuit breaker state per adapter (0 closed, 1 half-open, 2 open)"), []string{"adapter"})
	m.sceneCache = auto.NewCounterVec(m.counterOpts("scene_cache_total", "Scene hotness cache lookups by outcome"), []string{"outcome"})

	m.eventsIngested = auto.NewCounterVec(m.counterOpts("events_ingested_total", "Events appended by source"), []string{"source"})
	m.eventsDuplicate = auto.NewCounter(m.counterOpts("events_duplicate_total", "Upstream facts skipped because they were already ingested"))
	m.eventsPublished = auto.NewCounterVec(m.counterOpts("events_published_total", "Events published to the event stream by result"), []string{"result"})

	m.storeLatency = auto.NewHistogramVec(m.histogramOpts("store_latency_seconds", "Radar store operation latency", nil), []string{"op"})
	m.storeErrors = auto.NewCounterVec(m.counterOpts("store_errors_total", "Radar store infrastructure errors by operation"), []string{"op"})
	m.trackedTotal = auto.NewGauge(m.gaugeOpts("tracked_entities", "Entities with persisted signals"))

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Pending aggregation jobs"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Aggregation job queue capacity"))
	m.queueUtilization = auto.NewGauge(m.gaugeOpts("queue_utilization_ratio", "Queue utilization (size / capacity)"))
	m.queueRejected = auto.NewCounterVec(m.counterOpts("queue_rejected_total", "Rejected enqueue attempts by reason"), []string{"reason"})
	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count", "Aggregation workers running"))
	m.jobLatency = auto.NewHistogram(m.histogramOpts("job_latency_seconds", "Aggregation job processing latency", nil))
	m.jobErrors = auto.NewCounter(m.counterOpts("job_errors_total", "Aggregation jobs that failed"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total", "HTTP requests by endpoint, method and status"),
		[]string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_seconds", "HTTP request duration", nil),
		[]string{"endpoint", "method", "status_code"})
}

// RecordAggregation records one entity aggregation outcome.
func RecordAggregation(result string, seconds float64) {
	globalManager.aggregations.WithLabelValues(result).Inc()
	globalManager.aggregationLatency.Observe(seconds)
}

// RecordBatch records the accepted size of a batch and how many entities failed.
func RecordBatch(size, failed int) {
	globalManager.batchSize.Observe(float64(size))
	globalManager.batchFailures.Add(float64(failed))
}

// RecordAdapterCall records a source adapter call.
func RecordAdapterCall(adapter, result string, seconds float64) {
	globalManager.adapterCalls.WithLabelValues(adapter, result).Inc()
	globalManager.adapterLatency.WithLabelValues(adapter).Observe(seconds)
}

// UpdateBreakerState publishes a circuit breaker state.
func UpdateBreakerState(adapter string, state int) {
	globalManager.breakerState.WithLabelValues(adapter).Set(float64(state))
}

// RecordSceneCache records a scene cache hit, miss or error.
func RecordSceneCache(outcome string) {
	globalManager.sceneCache.WithLabelValues(outcome).Inc()
}

// RecordEventsIngested adds n appended events for a source.
func RecordEventsIngested(source string, n int) {
	globalManager.eventsIngested.WithLabelValues(source).Add(float64(n))
}

// RecordEventDuplicate counts a skipped duplicate fact.
func RecordEventDuplicate() {
	globalManager.eventsDuplicate.Inc()
}

// RecordEventPublished counts an event stream publish.
func RecordEventPublished(result string) {
	globalManager.eventsPublished.WithLabelValues(result).Inc()
}

// RecordStoreOp records the latency of a store operation.
func RecordStoreOp(op string, seconds float64) {
	globalManager.storeLatency.WithLabelValues(op).Observe(seconds)
}

// RecordStoreError counts an infrastructure failure in the store.
func RecordStoreError(op string) {
	globalManager.storeErrors.WithLabelValues(op).Inc()
}

// UpdateTrackedEntities sets the number of entities with persisted signals.
func UpdateTrackedEntities(n int) {
	globalManager.trackedTotal.Set(float64(n))
}

// UpdateQueue publishes queue size and utilization.
func UpdateQueue(size, capacity int) {
	globalManager.queueSize.Set(float64(size))
	globalManager.queueCapacity.Set(float64(capacity))
	if capacity > 0 {
		globalManager.queueUtilization.Set(float64(size) / float64(capacity))
	}
}

// RecordQueueRejected counts an enqueue that was refused.
func RecordQueueRejected(reason string) {
	globalManager.queueRejected.WithLabelValues(reason).Inc()
}

// UpdateWorkerCount sets the number of running workers.
func UpdateWorkerCount(n int) {
	globalManager.workerCount.Set(float64(n))
}

// RecordJob records one processed aggregation job.
func RecordJob(seconds float64, failed bool) {
	globalManager.jobLatency.Observe(seconds)
	if failed {
		globalManager.jobErrors.Inc()
	}
}

// RecordHTTPRequest records an HTTP request and its duration.
func RecordHTTPRequest(endpoint, method, statusCode string, seconds float64) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(seconds)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
