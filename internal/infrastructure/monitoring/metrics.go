package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type HTTPMetrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

type DBMetrics struct {
	QueryDuration *prometheus.HistogramVec
}

type IntakeMetrics struct {
	SubmissionsTotal *prometheus.CounterVec
}

type DecisionMetrics struct {
	DecisionsTotal     *prometheus.CounterVec
	ProcessingDuration prometheus.Histogram
}

type WorkerMetrics struct {
	MessagesTotal     *prometheus.CounterVec
	ContainmentsTotal prometheus.Counter
}

type QueueMetrics struct {
	EnqueuedTotal      prometheus.Counter
	DequeuedTotal      prometheus.Counter
	OpenConversations  prometheus.Gauge
	OldestPendingAgeMs prometheus.Gauge
}

var (
	HTTP = HTTPMetrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "origination_engine_http_requests_total",
				Help: "Total number of HTTP requests received.",
			},
			[]string{"method", "path", "code"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "origination_engine_http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "code"},
		),
	}

	DB = DBMetrics{
		QueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "origination_engine_db_query_duration_seconds",
				Help:    "Histogram of database query latencies.",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"query_name", "status"},
		),
	}

	Intake = IntakeMetrics{
		SubmissionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "origination_engine_submissions_total",
				Help: "Total number of application submissions by outcome.",
			},
			[]string{"outcome"},
		),
	}

	Decision = DecisionMetrics{
		DecisionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "origination_engine_decisions_total",
				Help: "Total number of application decisions by outcome.",
			},
			[]string{"outcome"},
		),
		ProcessingDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "origination_engine_processing_duration_seconds",
				Help:    "Histogram of end-to-end message processing latencies.",
				Buckets: prometheus.DefBuckets,
			},
		),
	}

	Worker = WorkerMetrics{
		MessagesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "origination_engine_worker_messages_total",
				Help: "Total number of queue messages handled by workers.",
			},
			[]string{"type", "outcome"},
		),
		ContainmentsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "origination_engine_worker_containments_total",
				Help: "Total number of processing failures contained by forcing a rejection.",
			},
		),
	}

	Queue = QueueMetrics{
		EnqueuedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "origination_engine_queue_enqueued_total",
				Help: "Total number of messages enqueued.",
			},
		),
		DequeuedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "origination_engine_queue_dequeued_total",
				Help: "Total number of messages dequeued.",
			},
		),
		OpenConversations: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "origination_engine_queue_open_conversations",
				Help: "Number of conversations currently open.",
			},
		),
		OldestPendingAgeMs: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "origination_engine_queue_oldest_pending_age_milliseconds",
				Help: "Age of the oldest pending queue message.",
			},
		),
	}
)

func RecordHTTPRequest(method, path, code string, duration time.Duration) {
	HTTP.RequestsTotal.WithLabelValues(method, path, code).Inc()
	HTTP.RequestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
}

func RecordDBQuery(queryName, status string, duration time.Duration) {
	DB.QueryDuration.WithLabelValues(queryName, status).Observe(duration.Seconds())
}

func RecordSubmission(outcome string) {
	Intake.SubmissionsTotal.WithLabelValues(outcome).Inc()
}

func RecordDecision(outcome string, duration time.Duration) {
	Decision.DecisionsTotal.WithLabelValues(outcome).Inc()
	Decision.ProcessingDuration.Observe(duration.Seconds())
}

func RecordWorkerMessage(messageType, outcome string) {
	Worker.MessagesTotal.WithLabelValues(messageType, outcome).Inc()
}

func RecordContainment() {
	Worker.ContainmentsTotal.Inc()
}

func RecordEnqueue() {
	Queue.EnqueuedTotal.Inc()
}

func RecordDequeue() {
	Queue.DequeuedTotal.Inc()
}

func SetOpenConversations(n int64) {
	Queue.OpenConversations.Set(float64(n))
}

func SetOldestPendingAge(age time.Duration) {
	Queue.OldestPendingAgeMs.Set(float64(age.Milliseconds()))
}
