package prometheus

import (
	"time"

	"github.com/aescanero/dagsys/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// stateValues maps state names to the value of the system state gauge.
var stateValues = map[string]float64{
	domain.StateNotStarted.String(): float64(domain.StateNotStarted),
	domain.StateStarting.String():   float64(domain.StateStarting),
	domain.StateStarted.String():    float64(domain.StateStarted),
	domain.StateStopping.String():   float64(domain.StateStopping),
	domain.StateStopped.String():    float64(domain.StateStopped),
	domain.StateFailed.String():     float64(domain.StateFailed),
}

// Collector implements MetricsCollector using Prometheus
type Collector struct {
	transitions       *prometheus.CounterVec
	systemState       prometheus.Gauge
	roleOperations    *prometheus.CounterVec
	roleDuration      *prometheus.HistogramVec
	workerPoolIdle    prometheus.Gauge
	workerPoolBusy    prometheus.Gauge
	workerPoolStopped prometheus.Gauge
}

// NewCollector creates a new Prometheus metrics collector registered with
// reg. A nil reg uses the default registerer.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Collector{
		transitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dagsys_system_transitions_total",
				Help: "Total number of system state transitions",
			},
			[]string{"from", "to"},
		),
		systemState: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "dagsys_system_state",
				Help: "Current system state (0=not_started, 1=starting, 2=started, 3=stopping, 4=stopped, 5=failed)",
			},
		),
		roleOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dagsys_role_operations_total",
				Help: "Total number of role lifecycle operations",
			},
			[]string{"role", "op", "result"},
		),
		roleDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dagsys_role_operation_duration_seconds",
				Help:    "Role lifecycle operation duration in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
			},
			[]string{"op"},
		),
		workerPoolIdle: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "dagsys_worker_pool_idle",
				Help: "Number of idle workers",
			},
		),
		workerPoolBusy: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "dagsys_worker_pool_busy",
				Help: "Number of busy workers",
			},
		),
		workerPoolStopped: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "dagsys_worker_pool_stopped",
				Help: "Number of stopped workers",
			},
		),
	}
}

// RecordTransition records a system state transition
func (c *Collector) RecordTransition(from, to string) {
	c.transitions.WithLabelValues(from, to).Inc()
	if v, ok := stateValues[to]; ok {
		c.systemState.Set(v)
	}
}

// RecordRoleOperation records an inject, start or stop call on a role
func (c *Collector) RecordRoleOperation(role, op, result string, duration time.Duration) {
	c.roleOperations.WithLabelValues(role, op, result).Inc()
	c.roleDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordWorkerPoolStatus records worker pool status
func (c *Collector) RecordWorkerPoolStatus(idle, busy, stopped int) {
	c.workerPoolIdle.Set(float64(idle))
	c.workerPoolBusy.Set(float64(busy))
	c.workerPoolStopped.Set(float64(stopped))
}
