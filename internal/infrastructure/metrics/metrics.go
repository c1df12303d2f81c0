package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Ledger metrics
	TransfersCompleted prometheus.Counter
	EntriesRecorded    prometheus.Counter
	AccountsCreated    prometheus.Counter
	LedgerErrors       *prometheus.CounterVec

	// Payment metrics
	PaymentsCreated          *prometheus.CounterVec
	PaymentsCompleted        prometheus.Counter
	PaymentsFailed           prometheus.Counter
	PaymentsCancelled        prometheus.Counter
	PaymentsFlaggedForReview prometheus.Counter
	PaymentDuration          prometheus.Histogram

	// Scheduler metrics
	SchedulerTicks    prometheus.Counter
	SchedulerExecuted prometheus.Counter
	SchedulerSkipped  prometheus.Counter

	// Event metrics
	EventsPublished prometheus.Counter
	EventsDeferred  prometheus.Counter
	EventsConsumed  *prometheus.CounterVec
	EventsDeduped   prometheus.Counter

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers all metrics on the given registerer.
func NewWith(reg prometheus.Registerer) *Metrics {
	auto := promauto.With(reg)

	return &Metrics{
		TransfersCompleted: auto.NewCounter(prometheus.CounterOpts{
			Name: "payflow_transfers_completed_total",
			Help: "Total number of transfers completed",
		}),
		EntriesRecorded: auto.NewCounter(prometheus.CounterOpts{
			Name: "payflow_entries_recorded_total",
			Help: "Total number of single-leg ledger entries recorded",
		}),
		AccountsCreated: auto.NewCounter(prometheus.CounterOpts{
			Name: "payflow_accounts_created_total",
			Help: "Total number of accounts created",
		}),
		LedgerErrors: auto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payflow_ledger_errors_total",
				Help: "Total number of ledger errors by type",
			},
			[]string{"error_type"},
		),

		PaymentsCreated: auto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payflow_payments_created_total",
				Help: "Total number of payments created by initial status",
			},
			[]string{"status"},
		),
		PaymentsCompleted: auto.NewCounter(prometheus.CounterOpts{
			Name: "payflow_payments_completed_total",
			Help: "Total number of payments completed",
		}),
		PaymentsFailed: auto.NewCounter(prometheus.CounterOpts{
			Name: "payflow_payments_failed_total",
			Help: "Total number of payments failed",
		}),
		PaymentsCancelled: auto.NewCounter(prometheus.CounterOpts{
			Name: "payflow_payments_cancelled_total",
			Help: "Total number of payments cancelled",
		}),
		PaymentsFlaggedForReview: auto.NewCounter(prometheus.CounterOpts{
			Name: "payflow_payments_flagged_for_review_total",
			Help: "Total number of payments flagged for manual review",
		}),
		PaymentDuration: auto.NewHistogram(prometheus.HistogramOpts{
			Name:    "payflow_payment_execution_duration_seconds",
			Help:    "Duration of payment execution",
			Buckets: prometheus.DefBuckets,
		}),

		SchedulerTicks: auto.NewCounter(prometheus.CounterOpts{
			Name: "payflow_scheduler_ticks_total",
			Help: "Total number of scheduler sweeps",
		}),
		SchedulerExecuted: auto.NewCounter(prometheus.CounterOpts{
			Name: "payflow_scheduler_executed_total",
			Help: "Total number of due payments executed by the scheduler",
		}),
		SchedulerSkipped: auto.NewCounter(prometheus.CounterOpts{
			Name: "payflow_scheduler_skipped_total",
			Help: "Total number of due payments skipped because another tick claimed them",
		}),

		EventsPublished: auto.NewCounter(prometheus.CounterOpts{
			Name: "payflow_events_published_total",
			Help: "Total number of outbox events published",
		}),
		EventsDeferred: auto.NewCounter(prometheus.CounterOpts{
			Name: "payflow_events_deferred_total",
			Help: "Total number of event publications deferred by channel unavailability",
		}),
		EventsConsumed: auto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payflow_events_consumed_total",
				Help: "Total number of events consumed by type",
			},
			[]string{"event_type"},
		),
		EventsDeduped: auto.NewCounter(prometheus.CounterOpts{
			Name: "payflow_events_deduped_total",
			Help: "Total number of redelivered events dropped by consumer dedupe",
		}),

		HTTPRequests: auto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payflow_http_requests_total",
				Help: "Total HTTP requests by method, path and status",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: auto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "payflow_http_request_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}
}
