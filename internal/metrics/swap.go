package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Swap execution metrics by venue
	swapExecutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ousd",
			Subsystem: "swap",
			Name:      "executions_total",
			Help:      "Total number of swap executions",
		},
		[]string{"venue", "direction", "status"}, // status: success/cancelled/error
	)

	swapExecutionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "ousd",
			Subsystem: "swap",
			Name:      "execution_duration_seconds",
			Help:      "Time taken to drive one intent to a terminal state",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// Quote fan-out metrics by venue
	swapQuotesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ousd",
			Subsystem: "swap",
			Name:      "quotes_total",
			Help:      "Total number of venue quote attempts",
		},
		[]string{"venue", "status"}, // success, error
	)

	swapApprovalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ousd",
			Subsystem: "swap",
			Name:      "approvals_total",
			Help:      "Total number of allowance approvals",
		},
		[]string{"coin", "status"}, // success, cancelled, error
	)

	swapLastExecutionTimestamp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ousd",
			Subsystem: "swap",
			Name:      "last_execution_timestamp",
			Help:      "Timestamp of last swap execution",
		},
	)
)

// Execution status labels.
const (
	StatusSuccess   = "success"
	StatusCancelled = "cancelled"
	StatusError     = "error"
)

// SwapMetrics provides methods to update swap-related metrics
type SwapMetrics struct{}

// NewSwapMetrics creates a new instance of SwapMetrics
func NewSwapMetrics() *SwapMetrics {
	return &SwapMetrics{}
}

// RecordExecution records one intent reaching a terminal state
func (sm *SwapMetrics) RecordExecution(venue, direction, status string, duration time.Duration) {
	swapExecutionsTotal.WithLabelValues(venue, direction, status).Inc()
	swapExecutionDuration.Observe(duration.Seconds())
	swapLastExecutionTimestamp.Set(float64(time.Now().Unix()))
}

// RecordQuote records one venue quote attempt
func (sm *SwapMetrics) RecordQuote(venue string, success bool) {
	status := StatusSuccess
	if !success {
		status = StatusError
	}
	swapQuotesTotal.WithLabelValues(venue, status).Inc()
}

// RecordApproval records one allowance approval outcome
func (sm *SwapMetrics) RecordApproval(coin, status string) {
	swapApprovalsTotal.WithLabelValues(coin, status).Inc()
}
