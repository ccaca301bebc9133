package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
)

// Service names for metrics registration
const (
	ServiceSwap    = "swap"
	ServiceTracker = "tracker"
)

// RegisterMetrics registers metrics for the specified services
func RegisterMetrics(services []string, logger *logrus.Logger) {
	// Always register Go and process metrics
	registerIfNotExists(collectors.NewGoCollector(), "go_collector", logger)
	registerIfNotExists(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}), "process_collector", logger)

	for _, service := range services {
		switch service {
		case ServiceSwap:
			registerSwapMetrics(logger)
		case ServiceTracker:
			registerTrackerMetrics(logger)
		default:
			logger.Warnf("Unknown service type for metrics registration: %s", service)
		}
	}
}

// registerIfNotExists registers a collector if it's not already registered
func registerIfNotExists(collector prometheus.Collector, name string, logger *logrus.Logger) {
	if err := prometheus.Register(collector); err != nil {
		var alreadyRegErr prometheus.AlreadyRegisteredError
		if errors.As(err, &alreadyRegErr) {
			logger.Debugf("%s already registered", name)
		} else {
			logger.Errorf("Failed to register %s: %v", name, err)
		}
	}
}

func registerSwapMetrics(logger *logrus.Logger) {
	registerIfNotExists(swapExecutionsTotal, "swap_executions_total", logger)
	registerIfNotExists(swapExecutionDuration, "swap_execution_duration", logger)
	registerIfNotExists(swapQuotesTotal, "swap_quotes_total", logger)
	registerIfNotExists(swapApprovalsTotal, "swap_approvals_total", logger)
	registerIfNotExists(swapLastExecutionTimestamp, "swap_last_execution_timestamp", logger)
}

func registerTrackerMetrics(logger *logrus.Logger) {
	registerIfNotExists(trackerLedgerStatusTotal, "tracker_ledger_status_total", logger)
	registerIfNotExists(trackerLostTransactionsTotal, "tracker_lost_transactions_total", logger)
	registerIfNotExists(trackerProcessingDuration, "tracker_processing_duration", logger)
	registerIfNotExists(trackerLastProcessingTimestamp, "tracker_last_processing_timestamp", logger)
}
