package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Posting metrics
	EntriesPosted       *prometheus.CounterVec
	PostingRejections   *prometheus.CounterVec
	PostingDuration     prometheus.Histogram
	DepreciationPosted  prometheus.Counter
	PostingLockFailures prometheus.Counter

	// Schedule metrics
	SchedulesBuilt prometheus.Counter
	ScheduleCache  *prometheus.CounterVec

	// Payables metrics
	InvoiceDecisions  *prometheus.CounterVec
	PaymentsScheduled prometheus.Counter
	PaymentsExecuted  prometheus.Counter

	// Projects metrics
	ItemApprovals *prometheus.CounterVec
	BillingLines  *prometheus.CounterVec

	// Outbox metrics
	EventsPublished prometheus.Counter
	PublishErrors   prometheus.Counter
}

// New creates all metrics and registers them with reg. A nil reg uses the
// default Prometheus registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		// Posting metrics
		EntriesPosted: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assetledger_journal_entries_posted_total",
				Help: "Total journal entries appended by kind",
			},
			[]string{"kind"},
		),
		PostingRejections: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assetledger_posting_rejections_total",
				Help: "Posting requests rejected by reason",
			},
			[]string{"reason"},
		),
		PostingDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "assetledger_posting_duration_seconds",
			Help:    "Duration of depreciation posting runs",
			Buckets: prometheus.DefBuckets,
		}),
		DepreciationPosted: f.NewCounter(prometheus.CounterOpts{
			Name: "assetledger_depreciation_posted_amount_total",
			Help: "Depreciation posted in reporting currency",
		}),
		PostingLockFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "assetledger_posting_lock_failures_total",
			Help: "Posting requests that could not acquire the entity period lock",
		}),

		// Schedule metrics
		SchedulesBuilt: f.NewCounter(prometheus.CounterOpts{
			Name: "assetledger_schedules_built_total",
			Help: "Depreciation schedules computed",
		}),
		ScheduleCache: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assetledger_schedule_cache_total",
				Help: "Schedule cache lookups by result",
			},
			[]string{"result"},
		),

		// Payables metrics
		InvoiceDecisions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assetledger_invoice_decisions_total",
				Help: "Invoice status transitions by target status",
			},
			[]string{"status"},
		),
		PaymentsScheduled: f.NewCounter(prometheus.CounterOpts{
			Name: "assetledger_payments_scheduled_total",
			Help: "Invoices scheduled for payment",
		}),
		PaymentsExecuted: f.NewCounter(prometheus.CounterOpts{
			Name: "assetledger_payments_executed_total",
			Help: "Scheduled payments marked paid",
		}),

		// Projects metrics
		ItemApprovals: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assetledger_project_item_approvals_total",
				Help: "Timesheet and expense approval outcomes",
			},
			[]string{"item", "outcome"},
		),
		BillingLines: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assetledger_billing_lines_total",
				Help: "Billing run lines by outcome",
			},
			[]string{"outcome"},
		),

		// Outbox metrics
		EventsPublished: f.NewCounter(prometheus.CounterOpts{
			Name: "assetledger_outbox_events_published_total",
			Help: "Outbox events published",
		}),
		PublishErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "assetledger_outbox_publish_errors_total",
			Help: "Outbox events that failed to publish",
		}),
	}
}
