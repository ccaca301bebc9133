// Package telemetry reports swap funnel events (category, label, value)
// to a metrics sink. Emission never blocks or fails a flow.
package telemetry

import (
	"github.com/DataDog/datadog-go/statsd"
	"github.com/sirupsen/logrus"
)

// Event categories emitted by the flows.
const (
	CategorySwap     = "swap"
	CategoryApproval = "approval"
)

// Emitter publishes one funnel event.
type Emitter interface {
	Emit(category, action, label string, value int64)
}

// Statsd emits events to a DataDog statsd agent as counters tagged with
// the event fields.
type Statsd struct {
	logger *logrus.Logger
	client statsd.ClientInterface
}

func NewStatsd(logger *logrus.Logger, client statsd.ClientInterface) *Statsd {
	return &Statsd{
		logger: logger.WithField("pkg", "telemetry.Statsd").Logger,
		client: client,
	}
}

func (s *Statsd) Emit(category, action, label string, value int64) {
	tags := []string{
		"category:" + category,
		"action:" + action,
		"label:" + label,
	}
	if err := s.client.Count("ousd.swap.event", value, tags, 1); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"category": category,
			"action":   action,
			"label":    label,
		}).Warn("failed to emit telemetry event")
	}
}

// Noop discards every event.
type Noop struct{}

func (Noop) Emit(string, string, string, int64) {}

// Recorder captures events in memory for tests.
type Recorder struct {
	Events []RecordedEvent
}

type RecordedEvent struct {
	Category string
	Action   string
	Label    string
	Value    int64
}

func (r *Recorder) Emit(category, action, label string, value int64) {
	r.Events = append(r.Events, RecordedEvent{
		Category: category,
		Action:   action,
		Label:    label,
		Value:    value,
	})
}
