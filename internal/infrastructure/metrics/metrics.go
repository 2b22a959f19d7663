package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Ledger mutation metrics
	EntriesCreated *prometheus.CounterVec
	EntriesUpdated prometheus.Counter
	EntriesDeleted prometheus.Counter
	EntryErrors    *prometheus.CounterVec
	EntryAmount    prometheus.Histogram

	// Balance engine metrics
	RecomputeDuration  prometheus.Histogram
	ProjectionRebuilds prometheus.Counter

	// Debtor list metrics
	DebtorListRequests *prometheus.CounterVec

	// Database metrics
	DBConnections prometheus.Gauge
	DBErrors      *prometheus.CounterVec

	// Outbox metrics
	EventsPublished prometheus.Counter
	EventsPending   prometheus.Gauge
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		EntriesCreated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "receivables_entries_created_total",
				Help: "Total number of ledger entries created, by transaction type",
			},
			[]string{"transaction_type"},
		),
		EntriesUpdated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "receivables_entries_updated_total",
			Help: "Total number of ledger entries updated",
		}),
		EntriesDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "receivables_entries_deleted_total",
			Help: "Total number of ledger entries deleted",
		}),
		EntryErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "receivables_entry_errors_total",
				Help: "Total number of rejected ledger mutations by reason",
			},
			[]string{"reason"},
		),
		EntryAmount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "receivables_entry_amount",
			Help:    "Absolute entry amounts in the smallest currency unit",
			Buckets: []float64{1000, 10000, 100000, 1000000, 10000000, 100000000},
		}),

		RecomputeDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "receivables_recompute_duration_seconds",
			Help:    "Duration of full-sequence balance recomputation",
			Buckets: prometheus.DefBuckets,
		}),
		ProjectionRebuilds: promauto.NewCounter(prometheus.CounterOpts{
			Name: "receivables_projection_rebuilds_total",
			Help: "Total number of explicit projection rebuilds",
		}),

		DebtorListRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "receivables_debtor_list_requests_total",
				Help: "Total debtor list reads by source",
			},
			[]string{"source"},
		),

		DBConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "receivables_db_connections",
			Help: "Number of open database connections",
		}),
		DBErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "receivables_db_errors_total",
				Help: "Total database errors by operation",
			},
			[]string{"operation"},
		),

		EventsPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "receivables_events_published_total",
			Help: "Total outbox events published",
		}),
		EventsPending: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "receivables_events_pending",
			Help: "Outbox events awaiting publication",
		}),
	}
}
