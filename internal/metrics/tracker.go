package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Ledger status distribution
	trackerLedgerStatusTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "ousd",
			Subsystem: "tracker",
			Name:      "ledger_status_total",
			Help:      "Total number of ledger entries by status",
		},
		[]string{"status"}, // pending/mined/failed/lost
	)

	trackerLostTransactionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ousd",
			Subsystem: "tracker",
			Name:      "lost_transactions_total",
			Help:      "Total number of transactions marked lost",
		},
	)

	// Reconciliation iteration metrics
	trackerProcessingDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "ousd",
			Subsystem: "tracker",
			Name:      "processing_duration_seconds",
			Help:      "Duration of reconciliation iterations",
			Buckets:   prometheus.DefBuckets,
		},
	)

	trackerLastProcessingTimestamp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ousd",
			Subsystem: "tracker",
			Name:      "last_processing_timestamp",
			Help:      "Timestamp of last successful reconciliation iteration",
		},
	)
)

// TrackerMetrics provides methods to update reconciliation metrics
type TrackerMetrics struct{}

// NewTrackerMetrics creates a new instance of TrackerMetrics
func NewTrackerMetrics() *TrackerMetrics {
	return &TrackerMetrics{}
}

// UpdateLedgerStatus updates the ledger status counts
func (tm *TrackerMetrics) UpdateLedgerStatus(status string, count int) {
	trackerLedgerStatusTotal.WithLabelValues(status).Set(float64(count))
}

// RecordLostTransaction counts a transaction marked lost
func (tm *TrackerMetrics) RecordLostTransaction() {
	trackerLostTransactionsTotal.Inc()
}

// RecordProcessingIteration records metrics for one reconciliation pass
func (tm *TrackerMetrics) RecordProcessingIteration(duration time.Duration) {
	trackerProcessingDuration.Observe(duration.Seconds())
	trackerLastProcessingTimestamp.Set(float64(time.Now().Unix()))
}
