// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ingestion metrics
	PagesFetched        prometheus.Counter
	TransactionsStored  prometheus.Counter
	DuplicatesSkipped   prometheus.Counter
	IngestErrors        *prometheus.CounterVec

	// Replay metrics
	ReplayRuns          *prometheus.CounterVec
	ReplayDuration      prometheus.Histogram
	PriceLookupFailures prometheus.Counter

	// Feed metrics
	FeedReconnects prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "zklite_ledger"
	}

	return &Metrics{
		PagesFetched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "pages_fetched_total",
			Help:      "Total number of remote transaction pages fetched",
		}),
		TransactionsStored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "transactions_stored_total",
			Help:      "Total number of new transaction rows persisted",
		}),
		DuplicatesSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "duplicates_skipped_total",
			Help:      "Total number of already-stored records absorbed by upsert",
		}),
		IngestErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "errors_total",
			Help:      "Total number of ingestion errors by stage",
		}, []string{"stage"}),
		ReplayRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "replay",
			Name:      "runs_total",
			Help:      "Total number of balance replay runs by status",
		}, []string{"status"}),
		ReplayDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "replay",
			Name:      "duration_seconds",
			Help:      "Balance replay duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		PriceLookupFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "replay",
			Name:      "price_lookup_failures_total",
			Help:      "Total number of price lookups degraded to unpriced balances",
		}),
		FeedReconnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "reconnects_total",
			Help:      "Total number of live feed reconnections",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordPageFetched increments the pages fetched counter.
func RecordPageFetched() {
	DefaultMetrics.PagesFetched.Inc()
}

// RecordTransactionsStored adds to the stored transactions counter.
func RecordTransactionsStored(n int) {
	DefaultMetrics.TransactionsStored.Add(float64(n))
}

// RecordDuplicatesSkipped adds to the duplicates skipped counter.
func RecordDuplicatesSkipped(n int) {
	if n > 0 {
		DefaultMetrics.DuplicatesSkipped.Add(float64(n))
	}
}

// RecordIngestError records an ingestion error for a pipeline stage.
func RecordIngestError(stage string) {
	DefaultMetrics.IngestErrors.WithLabelValues(stage).Inc()
}

// RecordReplayRun records a balance replay run.
func RecordReplayRun(status string, durationSeconds float64) {
	DefaultMetrics.ReplayRuns.WithLabelValues(status).Inc()
	DefaultMetrics.ReplayDuration.Observe(durationSeconds)
}

// RecordPriceLookupFailure increments the price failure counter.
func RecordPriceLookupFailure() {
	DefaultMetrics.PriceLookupFailures.Inc()
}

// RecordFeedReconnect increments the feed reconnect counter.
func RecordFeedReconnect() {
	DefaultMetrics.FeedReconnects.Inc()
}
