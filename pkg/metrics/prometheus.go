package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// scoreBuckets partition the 0-100 final score range in tenths.
var scoreBuckets = prometheus.LinearBuckets(10, 10, 10) //nolint:gochecknoglobals // fixed bucket layout

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Scoring
	institutionsScored prometheus.Counter
	scoringLatency     prometheus.Histogram
	scoringErrors      prometheus.Counter
	finalScores        prometheus.Histogram
	invalidSubScores   *prometheus.CounterVec
	overrides          *prometheus.CounterVec

	// Submissions
	submissionsAccepted  prometheus.Counter
	submissionsDuplicate prometheus.Counter
	submissionsRejected  prometheus.Counter

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Workers
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// Repository
	institutionsRanked      prometheus.Gauge
	repositoryUpdateLatency prometheus.Histogram
	repositoryQueryLatency  prometheus.Histogram
	repositoryStaleUpdates  prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorsByComponent *prometheus.CounterVec

	systemMemoryBytes prometheus.Gauge
	systemGoroutines  prometheus.Gauge
	systemGCPause     prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "instrank",
		subsystem:        "scoring",
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

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: buckets,
	})
}

func (m *Manager) initializeMetrics() {
	m.institutionsScored = m.counter("institutions_scored_total", "Total number of institutions scored")
	m.scoringLatency = m.histogram("scoring_latency_milliseconds", "Scoring pipeline latency in milliseconds", m.histogramBuckets)
	m.scoringErrors = m.counter("scoring_errors_total", "Total number of scoring failures")
	m.finalScores = m.histogram("final_score", "Distribution of computed final scores", scoreBuckets)
	m.invalidSubScores = m.counterVec("invalid_subscores_total", "Sub-scores zeroed by a validity rule", "subscore")
	m.overrides = m.counterVec("overrides_total", "Manual score overrides applied", "category")

	m.submissionsAccepted = m.counter("submissions_accepted_total", "Submissions accepted for scoring")
	m.submissionsDuplicate = m.counter("submissions_duplicate_total", "Submissions dropped as duplicates")
	m.submissionsRejected = m.counter("submissions_rejected_total", "Submissions rejected because the queue was full")

	m.queueSize = m.gauge("queue_size", "Current number of queued submissions")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum queue capacity")
	m.queueEnqueued = m.counter("queue_enqueue_total", "Total number of submissions enqueued")
	m.queueDequeued = m.counter("queue_dequeue_total", "Total number of submissions dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Total number of enqueue failures")

	m.workerCount = m.gauge("worker_count", "Configured number of scoring workers")
	m.workerActiveCount = m.gauge("worker_active_count", "Workers currently scoring a submission")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "End-to-end submission processing latency", m.histogramBuckets)
	m.workerErrors = m.counter("worker_errors_total", "Total number of worker failures")

	m.institutionsRanked = m.gauge("institutions_ranked", "Number of institutions on the leaderboard")
	m.repositoryUpdateLatency = m.histogram("repository_update_latency_milliseconds", "Leaderboard upsert latency", m.histogramBuckets)
	m.repositoryQueryLatency = m.histogram("repository_query_latency_milliseconds", "Leaderboard query latency", m.histogramBuckets)
	m.repositoryStaleUpdates = m.counter("repository_stale_updates_total", "Upserts ignored because a newer submission was stored")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by route, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name:    "http_request_duration_milliseconds",
		Help:    "HTTP request duration in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")

	m.systemMemoryBytes = m.gauge("system_memory_bytes", "Heap bytes allocated by the process")
	m.systemGoroutines = m.gauge("system_goroutines", "Number of running goroutines")
	m.systemGCPause = m.histogram("system_gc_pause_milliseconds", "Average GC pause in milliseconds", m.histogramBuckets)
}

// RecordInstitutionScored counts a completed scoring run and its final score.
func RecordInstitutionScored(finalScore float64) {
	globalManager.institutionsScored.Inc()
	globalManager.finalScores.Observe(finalScore)
}

// RecordScoringLatency records scoring latency in milliseconds.
func RecordScoringLatency(latencyMs float64) {
	globalManager.scoringLatency.Observe(latencyMs)
}

// RecordScoringError increments the scoring errors counter.
func RecordScoringError() {
	globalManager.scoringErrors.Inc()
}

// RecordInvalidSubScore counts a sub-score zeroed by a validity rule.
func RecordInvalidSubScore(name string) {
	globalManager.invalidSubScores.WithLabelValues(name).Inc()
}

// RecordOverride counts a manual override in a category.
func RecordOverride(category string) {
	globalManager.overrides.WithLabelValues(category).Inc()
}

// RecordSubmissionAccepted counts an accepted submission.
func RecordSubmissionAccepted() {
	globalManager.submissionsAccepted.Inc()
}

// RecordSubmissionDuplicate counts a duplicate submission.
func RecordSubmissionDuplicate() {
	globalManager.submissionsDuplicate.Inc()
}

// RecordSubmissionRejected counts a submission refused for lack of capacity.
func RecordSubmissionRejected() {
	globalManager.submissionsRejected.Inc()
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// UpdateWorkerActiveCount sets the number of busy workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// UpdateInstitutionsRanked sets the leaderboard size.
func UpdateInstitutionsRanked(count int) {
	globalManager.institutionsRanked.Set(float64(count))
}

// RecordRepositoryUpdateLatency records repository update latency.
func RecordRepositoryUpdateLatency(latencyMs float64) {
	globalManager.repositoryUpdateLatency.Observe(latencyMs)
}

// RecordRepositoryQueryLatency records repository query latency.
func RecordRepositoryQueryLatency(latencyMs float64) {
	globalManager.repositoryQueryLatency.Observe(latencyMs)
}

// RecordRepositoryStaleUpdate counts an upsert older than the stored entry.
func RecordRepositoryStaleUpdate() {
	globalManager.repositoryStaleUpdates.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// UpdateSystemMemoryUsage sets the allocated heap size.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryBytes.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutines.Set(float64(count))
}

// RecordSystemGCPauseTime observes an average GC pause.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPause.Observe(pauseMs)
}
