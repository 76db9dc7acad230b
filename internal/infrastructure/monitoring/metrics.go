package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Run metrics
	RunsTotal      *prometheus.CounterVec
	RunDuration    *prometheus.HistogramVec
	RunIterations  prometheus.Histogram
	TestsTotal     *prometheus.CounterVec
	RunsActive     prometheus.Gauge
	RunsRejected   *prometheus.CounterVec
	SnippetOps     *prometheus.CounterVec
	SnippetsStored prometheus.Gauge

	// Transport metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec
	NATSMessages  *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.GaugeFunc
	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot MetricsSnapshot

	mu sync.RWMutex
}

// MetricsSnapshot holds current metric values for JSON API
type MetricsSnapshot struct {
	TotalRequests int64   `json:"totalRequests"`
	TotalErrors   int64   `json:"totalErrors"`
	TotalRuns     int64   `json:"totalRuns"`
	FailedRuns    int64   `json:"failedRuns"`
	ActiveRuns    int64   `json:"activeRuns"`
	TotalDuration float64 `json:"totalDurationSeconds"` // sum of all request durations
	RequestCount  int64   `json:"requestCount"`         // count for averaging
}

// NewMetrics creates a metrics collector registered on reg. A nil reg uses
// the default Prometheus registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	m := &Metrics{
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "testrunner_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "testrunner_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "testrunner_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "testrunner_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),

		// Run metrics
		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "testrunner_runs_total",
				Help: "Total number of sandbox runs by source and outcome",
			},
			[]string{"source", "outcome"},
		),
		RunDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "testrunner_run_duration_seconds",
				Help:    "Sandbox run duration in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"outcome"},
		),
		RunIterations: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "testrunner_run_iterations",
				Help:    "Loop guard calls per run",
				Buckets: prometheus.ExponentialBuckets(1, 10, 8),
			},
		),
		TestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "testrunner_tests_total",
				Help: "Total number of test() calls by result",
			},
			[]string{"result"},
		),
		RunsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "testrunner_runs_active",
				Help: "Number of runs currently executing",
			},
		),
		RunsRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "testrunner_runs_rejected_total",
				Help: "Requests rejected before execution",
			},
			[]string{"source", "reason"},
		),
		SnippetOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "testrunner_snippet_operations_total",
				Help: "Snippet store operations",
			},
			[]string{"operation", "status"},
		),
		SnippetsStored: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "testrunner_snippets_stored",
				Help: "Number of stored snippets",
			},
		),

		// Transport metrics
		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "testrunner_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "testrunner_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),
		NATSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "testrunner_nats_messages_total",
				Help: "Total number of NATS run requests by status",
			},
			[]string{"status"},
		),
	}

	m.Uptime = factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "testrunner_uptime_seconds",
			Help: "Service uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.TotalDuration += duration.Seconds()
	m.snapshot.RequestCount++
	if len(status) > 0 && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordRun records a finished run
func (m *Metrics) RecordRun(source, outcome string, duration time.Duration, iterations int64, passed, failed int) {
	m.RunsTotal.WithLabelValues(source, outcome).Inc()
	m.RunDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	m.RunIterations.Observe(float64(iterations))
	if passed > 0 {
		m.TestsTotal.WithLabelValues("passed").Add(float64(passed))
	}
	if failed > 0 {
		m.TestsTotal.WithLabelValues("failed").Add(float64(failed))
	}

	m.mu.Lock()
	m.snapshot.TotalRuns++
	if outcome != "completed" {
		m.snapshot.FailedRuns++
	}
	m.mu.Unlock()
}

// RecordRejected records a request refused before execution
func (m *Metrics) RecordRejected(source, reason string) {
	m.RunsRejected.WithLabelValues(source, reason).Inc()
}

// RunStarted marks a run as executing
func (m *Metrics) RunStarted() {
	m.RunsActive.Inc()
	m.mu.Lock()
	m.snapshot.ActiveRuns++
	m.mu.Unlock()
}

// RunFinished marks a run as no longer executing
func (m *Metrics) RunFinished() {
	m.RunsActive.Dec()
	m.mu.Lock()
	m.snapshot.ActiveRuns--
	m.mu.Unlock()
}

// RecordSnippetOp records a snippet store operation
func (m *Metrics) RecordSnippetOp(operation, status string) {
	m.SnippetOps.WithLabelValues(operation, status).Inc()
}

// SetSnippetsStored sets the number of stored snippets
func (m *Metrics) SetSnippetsStored(count int) {
	m.SnippetsStored.Set(float64(count))
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// RecordNATSMessage records a NATS request
func (m *Metrics) RecordNATSMessage(status string) {
	m.NATSMessages.WithLabelValues(status).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
}

// Snapshot returns current values for the JSON API
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

// UptimeDuration returns time since the collector was created
func (m *Metrics) UptimeDuration() time.Duration {
	return time.Since(m.startTime)
}
