package workers

import (
	"sync"
	"time"

	"github.com/aescanero/dagsys/pkg/domain"
	"github.com/aescanero/dagsys/pkg/ports"
	"go.uber.org/zap"
)

// StatusSource exposes a system status snapshot
type StatusSource interface {
	Status() domain.SystemStatus
}

// HealthMonitor periodically reports system and worker health
type HealthMonitor struct {
	source   StatusSource
	pool     *Pool
	interval time.Duration
	metrics  ports.MetricsCollector
	logger   *zap.Logger

	mu      sync.RWMutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// HealthStatus represents the health status of the system
type HealthStatus struct {
	State          string
	TotalRoles     int
	StartedRoles   int
	PendingRoles   int
	FailedRoles    int
	PoolActive     bool // worker counts are only sampled while the pool runs
	IdleWorkers    int
	BusyWorkers    int
	StoppedWorkers int
	Healthy        bool
	Timestamp      time.Time
}

// NewHealthMonitor creates a new health monitor. pool may be nil when the
// system runs sequentially.
func NewHealthMonitor(source StatusSource, pool *Pool, interval time.Duration, metrics ports.MetricsCollector, logger *zap.Logger) *HealthMonitor {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealthMonitor{
		source:   source,
		pool:     pool,
		interval: interval,
		metrics:  metrics,
		logger:   logger,
	}
}

// Start starts the health monitor
func (h *HealthMonitor) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.stopCh = make(chan struct{})
	h.doneCh = make(chan struct{})
	h.mu.Unlock()

	go h.run(h.stopCh, h.doneCh)
}

// Stop stops the health monitor and waits for the loop to exit
func (h *HealthMonitor) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	stopCh, doneCh := h.stopCh, h.doneCh
	h.mu.Unlock()

	close(stopCh)
	<-doneCh
}

// run is the main health monitoring loop
func (h *HealthMonitor) run(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			h.checkHealth()
		}
	}
}

// checkHealth checks system health and logs status
func (h *HealthMonitor) checkHealth() {
	status := h.GetStatus()

	h.logger.Info("system health check",
		zap.String("state", status.State),
		zap.Int("roles", status.TotalRoles),
		zap.Int("started", status.StartedRoles),
		zap.Int("pending", status.PendingRoles),
		zap.Int("failed", status.FailedRoles),
		zap.Bool("healthy", status.Healthy))

	if status.PoolActive {
		h.metrics.RecordWorkerPoolStatus(
			status.IdleWorkers,
			status.BusyWorkers,
			status.StoppedWorkers,
		)
	}

	if !status.Healthy {
		h.logger.Warn("system is unhealthy",
			zap.String("state", status.State),
			zap.Int("failed", status.FailedRoles))
	}
}

// GetStatus returns the current health status
func (h *HealthMonitor) GetStatus() *HealthStatus {
	sys := h.source.Status()

	status := &HealthStatus{
		State:        sys.State,
		TotalRoles:   len(sys.Roles),
		StartedRoles: sys.Count(domain.RolePhaseStarted),
		PendingRoles: sys.Count(domain.RolePhasePending),
		FailedRoles:  sys.Count(domain.RolePhaseFailed),
		Timestamp:    time.Now(),
	}

	if h.pool != nil && h.pool.Running() {
		status.PoolActive = true
		for _, ws := range h.pool.GetStatus() {
			switch ws {
			case WorkerStatusIdle:
				status.IdleWorkers++
			case WorkerStatusBusy:
				status.BusyWorkers++
			case WorkerStatusStopped:
				status.StoppedWorkers++
			}
		}
	}

	status.Healthy = sys.State == domain.StateStarted.String() && status.FailedRoles == 0
	return status
}

// IsHealthy returns true if the system is healthy
func (h *HealthMonitor) IsHealthy() bool {
	return h.GetStatus().Healthy
}
