package ports

import "time"

// MetricsCollector records orchestrator and worker metrics.
type MetricsCollector interface {
	// RecordTransition records a system state change.
	RecordTransition(from, to string)

	// RecordRoleOperation records the outcome of inject, start or stop on a
	// role.
	RecordRoleOperation(role, op, result string, duration time.Duration)

	// RecordWorkerPoolStatus records the current worker distribution.
	RecordWorkerPoolStatus(idle, busy, stopped int)
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) RecordTransition(string, string) {}
func (NopMetrics) RecordRoleOperation(string, string, string, time.Duration) {}
func (NopMetrics) RecordWorkerPoolStatus(int, int, int) {}
