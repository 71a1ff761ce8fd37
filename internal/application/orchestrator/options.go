package orchestrator

import (
	"github.com/aescanero/dagsys/pkg/ports"
	"go.uber.org/zap"
)

// DefaultEventTopic is the topic lifecycle events are published on.
const DefaultEventTopic = "system.events"

// Option configures a System.
type Option func(*System)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(s *System) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(metrics ports.MetricsCollector) Option {
	return func(s *System) {
		if metrics != nil {
			s.metrics = metrics
		}
	}
}

// WithEventBus publishes lifecycle events on topic. Publishing is best
// effort: a failed publish is logged and never fails the operation.
func WithEventBus(bus ports.EventBus, topic string) Option {
	return func(s *System) {
		s.eventBus = bus
		if topic != "" {
			s.eventTopic = topic
		}
	}
}

// WithRollback makes Start stop every role it already started, in reverse,
// when a later role fails. The system still ends up Failed.
func WithRollback(enabled bool) Option {
	return func(s *System) {
		s.rollback = enabled
	}
}

// WithConcurrency runs the roles of one dependency level concurrently with
// at most n in flight. Values below 2 keep the sequential mode.
func WithConcurrency(n int) Option {
	return func(s *System) {
		s.concurrency = n
	}
}
