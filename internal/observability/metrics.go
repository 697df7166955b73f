package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "compost_norms"

// Metrics holds the Prometheus counters, histograms, and gauges for the
// dispatch pipeline and the report endpoint.
type Metrics struct {
	MessagesConsumed  prometheus.Counter
	DecodeErrors      prometheus.Counter
	ReadingsEvaluated prometheus.Counter
	SnapshotErrors    prometheus.Counter
	Violations        *prometheus.CounterVec // labels: param
	IntentsProduced   prometheus.Counter
	NotificationsSent *prometheus.CounterVec // labels: sink, outcome={success,error}
	PipelineRunning   prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Report metrics.
	ReportRequests     *prometheus.CounterVec // labels: outcome={success,not_found,error}
	ReportCache        *prometheus.CounterVec // labels: result={hit,miss,error}
	ReportCacheEnabled prometheus.Gauge
}

func newMetrics() *Metrics {
	return &Metrics{
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_consumed_total",
			Help:      "Total reading events read from the source topic.",
		}),
		DecodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_errors_total",
			Help:      "Reading events skipped because they could not be decoded or validated.",
		}),
		ReadingsEvaluated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "readings_evaluated_total",
			Help:      "Readings evaluated against their compost norms.",
		}),
		SnapshotErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_errors_total",
			Help:      "Readings skipped because norms or assignees could not be loaded.",
		}),
		Violations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "violations_total",
			Help:      "Norm violations detected, by parameter.",
		}, []string{"param"}),
		IntentsProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_intents_total",
			Help:      "Notification intents produced by the dispatcher.",
		}),
		NotificationsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_deliveries_total",
			Help:      "Notification deliveries by sink and outcome.",
		}, []string{"sink", "outcome"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of reading events per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete extract-evaluate-deliver cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		ReportRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_requests_total",
			Help:      "Compost report requests by outcome.",
		}, []string{"outcome"}),
		ReportCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_cache_total",
			Help:      "Report cache lookups by result.",
		}, []string{"result"}),
		ReportCacheEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "report_cache_enabled",
			Help:      "1 when the Redis report cache is enabled, 0 otherwise.",
		}),
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.MessagesConsumed,
		m.DecodeErrors,
		m.ReadingsEvaluated,
		m.SnapshotErrors,
		m.Violations,
		m.IntentsProduced,
		m.NotificationsSent,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.ReportRequests,
		m.ReportCache,
		m.ReportCacheEnabled,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
