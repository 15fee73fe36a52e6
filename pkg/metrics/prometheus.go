// Package metrics provides Prometheus metrics for the timeclock kiosk.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const defaultRefreshInterval = 10 * time.Second

// defaultLatencyBuckets are millisecond bounds. Every latency in this
// package is observed in milliseconds.
var defaultLatencyBuckets = []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000} //nolint:gochecknoglobals // read-only defaults

// Manager manages all Prometheus metrics for the kiosk.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Session Metrics - employee loads and lifetimes
	employeeLoads       *prometheus.CounterVec
	employeeLoadLatency prometheus.Histogram
	employeeRefreshes   *prometheus.CounterVec
	sessionsActive      prometheus.Gauge
	logouts             *prometheus.CounterVec

	// Punch Metrics - submissions and the reasons they were refused
	punches          *prometheus.CounterVec
	punchRejections  *prometheus.CounterVec
	punchLatency     prometheus.Histogram
	punchesInFlight  prometheus.Gauge
	unsyncedPunches  prometheus.Gauge
	upstreamOnline   *prometheus.GaugeVec
	confirmationWait prometheus.Histogram

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Queue Metrics - log entry queue
	queueSize              prometheus.Gauge
	queueCapacity          prometheus.Gauge
	queueUtilization       prometheus.Gauge
	queueEnqueueRate       prometheus.Counter
	queueDequeueRate       prometheus.Counter
	queueEnqueueErrors     prometheus.Counter
	queueProcessingLatency prometheus.Histogram

	// Worker Metrics - log shipping
	workerActiveCount       prometheus.Gauge
	workerMessagesPerSecond prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrorRate         prometheus.Counter
	logsShipped             prometheus.Counter

	// Error Metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "timeclock",
		subsystem:        "kiosk",
		histogramBuckets: defaultLatencyBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// Configure replaces the package manager with one built from opts on a
// fresh registry. Call it once at startup, before anything records.
func Configure(opts ...Option) {
	registry := prometheus.NewRegistry()
	customRegistry = registry
	globalManager = NewManager(append([]Option{WithPrometheusRegistry(registry)}, opts...)...)
}

// RefreshInterval is how often sampled gauges should be refreshed.
func RefreshInterval() time.Duration {
	return globalManager.refreshInterval
}

// Enabled reports whether the package helpers record anything.
func Enabled() bool {
	return globalManager.enabled
}

// NewMetricsManager is an alias of NewManager.
func NewMetricsManager(opts ...Option) *Manager {
	return NewManager(opts...)
}

// name applies the configured metric prefix.
func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	// Session Metrics
	m.employeeLoads = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("employee_loads_total"),
		Help:        "Total number of employee loads by outcome",
		ConstLabels: labels,
	}, []string{"outcome"})

	m.employeeLoadLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("employee_load_latency_milliseconds"),
		Help:        "Latency of employee fetch plus aggregation in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	})

	m.employeeRefreshes = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("employee_refreshes_total"),
		Help:        "Total number of session refreshes by outcome",
		ConstLabels: labels,
	}, []string{"outcome"})

	m.sessionsActive = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("sessions_active"),
		Help:        "Number of live employee sessions",
		ConstLabels: labels,
	})

	m.logouts = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("logouts_total"),
		Help:        "Total number of logouts by kind (explicit or timeout)",
		ConstLabels: labels,
	}, []string{"kind"})

	// Punch Metrics
	m.punches = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("punches_total"),
		Help:        "Total number of punch attempts by outcome",
		ConstLabels: labels,
	}, []string{"outcome", "type"})

	m.punchRejections = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("punch_rejections_total"),
		Help:        "Total number of punch attempts refused before submission by reason",
		ConstLabels: labels,
	}, []string{"reason"})

	m.punchLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("punch_latency_milliseconds"),
		Help:        "Latency of punch submission to the time-clock backend in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	})

	m.punchesInFlight = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("punches_in_flight"),
		Help:        "Number of punches currently being submitted",
		ConstLabels: labels,
	})

	m.unsyncedPunches = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("unsynced_punches"),
		Help:        "Punches recorded by the time-clock backend but not yet synced upstream",
		ConstLabels: labels,
	})

	m.upstreamOnline = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("upstream_online"),
		Help:        "Availability flags reported with the last employee fetch (1 online, 0 offline)",
		ConstLabels: labels,
	}, []string{"subsystem"})

	m.confirmationWait = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("confirmation_wait_milliseconds"),
		Help:        "Time spent waiting on double-punch confirmations in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	})

	// HTTP Performance Metrics
	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("http_requests_total"),
			Help:        "Total number of HTTP requests by endpoint and method",
			ConstLabels: labels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("http_request_duration_milliseconds"),
			Help:        "HTTP request duration in milliseconds",
			Buckets:     m.histogramBuckets,
			ConstLabels: labels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	// Queue Metrics
	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("log_queue_size"),
		Help:        "Current number of log entries waiting to be shipped",
		ConstLabels: labels,
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("log_queue_capacity"),
		Help:        "Maximum capacity of the log entry queue",
		ConstLabels: labels,
	})

	m.queueUtilization = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("log_queue_utilization_ratio"),
		Help:        "Log queue utilization ratio (0.0 to 1.0)",
		ConstLabels: labels,
	})

	m.queueEnqueueRate = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("log_queue_enqueue_total"),
		Help:        "Total number of log entries enqueued",
		ConstLabels: labels,
	})

	m.queueDequeueRate = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("log_queue_dequeue_total"),
		Help:        "Total number of log entries dequeued",
		ConstLabels: labels,
	})

	m.queueEnqueueErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("log_queue_enqueue_errors_total"),
		Help:        "Total number of log entries dropped at enqueue",
		ConstLabels: labels,
	})

	m.queueProcessingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("log_queue_processing_latency_milliseconds"),
		Help:        "Log queue enqueue latency in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	})

	// Worker Metrics
	m.workerActiveCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("log_worker_active_count"),
		Help:        "Number of log shipping workers",
		ConstLabels: labels,
	})

	m.workerMessagesPerSecond = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("log_worker_messages_per_second"),
		Help:        "Average log entries shipped per second",
		ConstLabels: labels,
	})

	m.workerProcessingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("log_worker_processing_latency_milliseconds"),
		Help:        "Time to ship one log entry in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	})

	m.workerErrorRate = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("log_worker_errors_total"),
		Help:        "Total number of log entries that failed to ship",
		ConstLabels: labels,
	})

	m.logsShipped = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("logs_shipped_total"),
		Help:        "Total number of log entries delivered to the backend",
		ConstLabels: labels,
	})

	// Error Metrics
	m.errorRateByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("errors_by_component_total"),
			Help:        "Total number of errors by component and type",
			ConstLabels: labels,
		},
		[]string{"component", "error_type"},
	)

	m.errorRateByType = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("errors_by_type_total"),
			Help:        "Total number of errors by type and severity",
			ConstLabels: labels,
		},
		[]string{"error_type", "severity"},
	)

	m.errorRateByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("errors_by_endpoint_total"),
			Help:        "Total number of errors by endpoint, method and type",
			ConstLabels: labels,
		},
		[]string{"endpoint", "method", "error_type"},
	)

	m.errorLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("error_latency_milliseconds"),
			Help:        "Latency of operations that resulted in errors",
			Buckets:     m.histogramBuckets,
			ConstLabels: labels,
		},
		[]string{"component", "error_type"},
	)

	// System Performance Metrics
	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_memory_usage_bytes"),
		Help:        "Current system memory usage in bytes",
		ConstLabels: labels,
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_goroutine_count"),
		Help:        "Current number of goroutines",
		ConstLabels: labels,
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_gc_pause_time_milliseconds"),
		Help:        "Average garbage collection pause time in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	})
}

// Session metrics

// RecordEmployeeLoad counts an employee load with its outcome (ok, not_found, unreachable, ...).
func RecordEmployeeLoad(outcome string) {
	if !globalManager.enabled {
		return
	}
	globalManager.employeeLoads.WithLabelValues(outcome).Inc()
}

// RecordEmployeeLoadLatency records load latency in milliseconds.
func RecordEmployeeLoadLatency(latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.employeeLoadLatency.Observe(latencyMs)
}

// RecordEmployeeRefresh counts a session refresh with its outcome.
func RecordEmployeeRefresh(outcome string) {
	if !globalManager.enabled {
		return
	}
	globalManager.employeeRefreshes.WithLabelValues(outcome).Inc()
}

// UpdateSessionsActive adjusts the live session gauge by delta.
func UpdateSessionsActive(delta int) {
	if !globalManager.enabled {
		return
	}
	globalManager.sessionsActive.Add(float64(delta))
}

// RecordLogout counts a logout; kind is "explicit" or "timeout".
func RecordLogout(kind string) {
	if !globalManager.enabled {
		return
	}
	globalManager.logouts.WithLabelValues(kind).Inc()
}

// Punch metrics

// RecordPunch counts a punch attempt that reached a terminal outcome.
func RecordPunch(outcome, clockEventType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.punches.WithLabelValues(outcome, clockEventType).Inc()
}

// RecordPunchRejection counts an attempt refused before anything was sent.
func RecordPunchRejection(reason string) {
	if !globalManager.enabled {
		return
	}
	globalManager.punchRejections.WithLabelValues(reason).Inc()
}

// RecordPunchLatency records submission latency in milliseconds.
func RecordPunchLatency(latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.punchLatency.Observe(latencyMs)
}

// UpdatePunchesInFlight adjusts the in-flight punch gauge by delta.
func UpdatePunchesInFlight(delta int) {
	if !globalManager.enabled {
		return
	}
	globalManager.punchesInFlight.Add(float64(delta))
}

// UpdateUnsyncedPunches sets the unsynced punch count reported upstream.
func UpdateUnsyncedPunches(count int) {
	if !globalManager.enabled {
		return
	}
	globalManager.unsyncedPunches.Set(float64(count))
}

// UpdateUpstreamOnline records an availability flag.
func UpdateUpstreamOnline(subsystem string, online bool) {
	if !globalManager.enabled {
		return
	}
	v := 0.0
	if online {
		v = 1
	}
	globalManager.upstreamOnline.WithLabelValues(subsystem).Set(v)
}

// RecordConfirmationWait records how long a confirmation took in milliseconds.
func RecordConfirmationWait(latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.confirmationWait.Observe(latencyMs)
}

// HTTP metrics

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Queue metrics

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	if !globalManager.enabled {
		return
	}
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	if !globalManager.enabled {
		return
	}
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	if !globalManager.enabled {
		return
	}
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	if !globalManager.enabled {
		return
	}
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	if !globalManager.enabled {
		return
	}
	globalManager.queueEnqueueErrors.Inc()
}

// RecordQueueProcessingLatency records queue processing latency.
func RecordQueueProcessingLatency(latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.queueProcessingLatency.Observe(latencyMs)
}

// Worker metrics

// UpdateWorkerActiveCount sets the number of active workers.
func UpdateWorkerActiveCount(count int) {
	if !globalManager.enabled {
		return
	}
	globalManager.workerActiveCount.Set(float64(count))
}

// UpdateWorkerMessagesPerSecond sets the average messages processed per second.
func UpdateWorkerMessagesPerSecond(rate float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.workerMessagesPerSecond.Set(rate)
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	if !globalManager.enabled {
		return
	}
	globalManager.workerErrorRate.Inc()
}

// RecordLogShipped increments the shipped log counter.
func RecordLogShipped() {
	if !globalManager.enabled {
		return
	}
	globalManager.logsShipped.Inc()
}

// Error metrics

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// System metrics

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	if !globalManager.enabled {
		return
	}
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	if !globalManager.enabled {
		return
	}
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
