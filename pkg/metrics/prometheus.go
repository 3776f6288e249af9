// Package metrics provides Prometheus metrics for the mnemo monitoring service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Pipeline metrics
	assessmentsScored       prometheus.Counter
	assessmentParseErrors   prometheus.Counter
	recordsDuplicate        prometheus.Counter
	progressionAnalyses     prometheus.Counter
	progressionInsufficient prometheus.Counter
	pipelineLatency         prometheus.Histogram

	// Semantic store metrics
	chunksStored      prometheus.Gauge
	chunksIngested    prometheus.Counter
	embeddingFailures prometheus.Counter
	embeddingLatency  prometheus.Histogram
	queriesTotal      prometheus.Counter
	queryLatency      prometheus.Histogram

	// History repository metrics
	patientsTracked  prometheus.Gauge
	historyAppends   prometheus.Counter
	repositoryErrors prometheus.Counter

	// Queue metrics
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueues      prometheus.Counter
	queueDequeues      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Worker metrics
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error breakdown
	errorsByComponent *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry avoids the default Go collectors registering twice.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // singleton registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "mnemo",
		subsystem:        "pipeline",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.assessmentsScored = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "assessments_scored_total",
		Help:      "Total number of risk assessments computed",
	})

	m.assessmentParseErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "assessment_parse_errors_total",
		Help:      "Total number of records rejected for unparseable cognitive fields",
	})

	m.recordsDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "records_duplicate_total",
		Help:      "Total number of duplicate record submissions detected",
	})

	m.progressionAnalyses = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "progression_analyses_total",
		Help:      "Total number of longitudinal analyses completed",
	})

	m.progressionInsufficient = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "progression_insufficient_total",
		Help:      "Total number of analyses returning insufficient_data",
	})

	m.pipelineLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pipeline_latency_milliseconds",
		Help:      "End-to-end latency of score, analyze and ingest per record",
		Buckets:   m.histogramBuckets,
	})

	m.chunksStored = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "chunks_stored",
		Help:      "Current number of chunks held by the semantic store",
	})

	m.chunksIngested = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "chunks_ingested_total",
		Help:      "Total number of chunks embedded and stored",
	})

	m.embeddingFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "embedding_failures_total",
		Help:      "Total number of ingests aborted by embedding failures",
	})

	m.embeddingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "embedding_latency_milliseconds",
		Help:      "Latency of embedding a single chunk",
		Buckets:   m.histogramBuckets,
	})

	m.queriesTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queries_total",
		Help:      "Total number of similarity queries served",
	})

	m.queryLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "query_latency_milliseconds",
		Help:      "Latency of the linear-scan similarity query",
		Buckets:   m.histogramBuckets,
	})

	m.patientsTracked = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "patients_tracked",
		Help:      "Number of patients with stored history",
	})

	m.historyAppends = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "history_appends_total",
		Help:      "Total number of records appended to patient histories",
	})

	m.repositoryErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "repository_errors_total",
		Help:      "Total number of history repository errors",
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_size",
		Help:      "Current size of the backfill queue",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_capacity",
		Help:      "Configured capacity of the backfill queue",
	})

	m.queueUtilization = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_utilization",
		Help:      "Queue fill level as a percentage of capacity",
	})

	m.queueEnqueues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_enqueues_total",
		Help:      "Total number of records enqueued for backfill",
	})

	m.queueDequeues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_dequeues_total",
		Help:      "Total number of records handed to workers",
	})

	m.queueEnqueueErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_enqueue_errors_total",
		Help:      "Total number of rejected enqueues (closed or full)",
	})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_count",
		Help:      "Number of running pipeline workers",
	})

	m.workerProcessingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_processing_latency_milliseconds",
		Help:      "Latency of a full pipeline run inside a worker",
		Buckets:   m.histogramBuckets,
	})

	m.workerErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_errors_total",
		Help:      "Total number of failed pipeline runs inside workers",
	})

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

	m.errorsByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_component_total",
			Help:      "Errors broken down by component and kind",
		},
		[]string{"component", "kind"},
	)

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "memory_usage_bytes",
		Help:      "Current heap allocation in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "goroutine_count",
		Help:      "Current number of goroutines",
	})
}

// GetRegistry returns the registry backing the global manager, for serving
// the /metrics endpoint.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Package-level helpers on the global manager.

func RecordAssessmentScored()     { globalManager.assessmentsScored.Inc() }
func RecordAssessmentParseError() { globalManager.assessmentParseErrors.Inc() }
func RecordRecordDuplicate()      { globalManager.recordsDuplicate.Inc() }
func RecordProgressionAnalysis()  { globalManager.progressionAnalyses.Inc() }
func RecordProgressionInsufficient() {
	globalManager.progressionInsufficient.Inc()
}
func RecordPipelineLatency(ms float64) { globalManager.pipelineLatency.Observe(ms) }

func UpdateChunksStored(n int)          { globalManager.chunksStored.Set(float64(n)) }
func RecordChunksIngested(n int)        { globalManager.chunksIngested.Add(float64(n)) }
func RecordEmbeddingFailure()           { globalManager.embeddingFailures.Inc() }
func RecordEmbeddingLatency(ms float64) { globalManager.embeddingLatency.Observe(ms) }
func RecordQuery()                      { globalManager.queriesTotal.Inc() }
func RecordQueryLatency(ms float64)     { globalManager.queryLatency.Observe(ms) }

func UpdatePatientsTracked(n int) { globalManager.patientsTracked.Set(float64(n)) }
func RecordHistoryAppend()        { globalManager.historyAppends.Inc() }
func RecordRepositoryError()      { globalManager.repositoryErrors.Inc() }

func UpdateQueueSize(n int)            { globalManager.queueSize.Set(float64(n)) }
func UpdateQueueCapacity(n int)        { globalManager.queueCapacity.Set(float64(n)) }
func UpdateQueueUtilization(r float64) { globalManager.queueUtilization.Set(r) }
func RecordQueueEnqueue()              { globalManager.queueEnqueues.Inc() }
func RecordQueueDequeue()              { globalManager.queueDequeues.Inc() }
func RecordQueueEnqueueError()         { globalManager.queueEnqueueErrors.Inc() }

func UpdateWorkerCount(n int) { globalManager.workerCount.Set(float64(n)) }
func RecordWorkerProcessingLatency(ms float64) {
	globalManager.workerProcessingLatency.Observe(ms)
}
func RecordWorkerError() { globalManager.workerErrors.Inc() }

func RecordHTTPRequest(endpoint, method, status string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

func RecordHTTPRequestDuration(endpoint, method, status string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, status).Observe(ms)
}

func RecordErrorByComponent(component, kind string) {
	globalManager.errorsByComponent.WithLabelValues(component, kind).Inc()
}

func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

func UpdateSystemGoroutineCount(n int) {
	globalManager.systemGoroutineCount.Set(float64(n))
}
