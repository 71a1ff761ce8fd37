package workers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aescanero/dagsys/pkg/ports"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ErrPoolNotRunning is returned by RunBatch when the pool is not started.
var ErrPoolNotRunning = errors.New("worker pool is not running")

// Job is a named unit of work run by the pool.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// Pool manages a pool of worker goroutines
type Pool struct {
	size    int
	metrics ports.MetricsCollector
	logger  *zap.Logger

	mu      sync.RWMutex
	running bool
	workers []*worker
	tasks   chan task
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

// task is a job bound to the batch it belongs to
type task struct {
	job  Job
	ctx  context.Context
	done func(error)
}

// worker represents a single worker goroutine
type worker struct {
	id      string
	pool    *Pool
	status  WorkerStatus
	mu      sync.RWMutex
	lastJob time.Time
}

// WorkerStatus represents worker status
type WorkerStatus string

const (
	WorkerStatusIdle    WorkerStatus = "idle"
	WorkerStatusBusy    WorkerStatus = "busy"
	WorkerStatusStopped WorkerStatus = "stopped"
)

// NewPool creates a new worker pool
func NewPool(size int, metrics ports.MetricsCollector, logger *zap.Logger) *Pool {
	if size < 1 {
		size = 1
	}
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Pool{
		size:    size,
		metrics: metrics,
		logger:  logger,
	}
}

// Size returns the number of workers
func (p *Pool) Size() int {
	return p.size
}

// Running reports whether the pool is between Start and Shutdown. The
// system keeps it running only while a level walk is in flight.
func (p *Pool) Running() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.running
}

// Start starts the worker pool. A pool that was shut down can be started
// again.
func (p *Pool) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return fmt.Errorf("worker pool already running")
	}

	p.logger.Debug("starting worker pool", zap.Int("size", p.size))

	p.ctx, p.cancel = context.WithCancel(context.Background())
	p.tasks = make(chan task)
	p.workers = make([]*worker, p.size)

	for i := 0; i < p.size; i++ {
		w := &worker{
			id:      fmt.Sprintf("worker-%d", i),
			pool:    p,
			status:  WorkerStatusIdle,
			lastJob: time.Now(),
		}
		p.workers[i] = w

		p.wg.Add(1)
		go w.run(p.ctx, p.tasks)
	}

	p.running = true
	p.metrics.RecordWorkerPoolStatus(p.size, 0, 0)
	return nil
}

// Shutdown gracefully shuts down the worker pool
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	cancel := p.cancel
	p.mu.Unlock()

	p.logger.Debug("shutting down worker pool")

	// Cancel context to signal workers to stop
	cancel()

	// Wait for all workers to finish with timeout
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.metrics.RecordWorkerPoolStatus(0, 0, p.size)
		p.logger.Debug("worker pool shut down complete")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown timeout")
	}
}

// RunBatch runs jobs on the pool and waits for all of them. Every job runs
// even when others fail; the returned error combines the failures in job
// order.
func (p *Pool) RunBatch(ctx context.Context, jobs []Job) error {
	p.mu.RLock()
	if !p.running {
		p.mu.RUnlock()
		return ErrPoolNotRunning
	}
	tasks, poolCtx := p.tasks, p.ctx
	p.mu.RUnlock()

	results := make([]error, len(jobs))
	var wg sync.WaitGroup
	wg.Add(len(jobs))

	for i, job := range jobs {
		i := i
		t := task{
			job: job,
			ctx: ctx,
			done: func(err error) {
				results[i] = err
				wg.Done()
			},
		}

		select {
		case tasks <- t:
		case <-poolCtx.Done():
			t.done(fmt.Errorf("job %s: %w", job.Name, ErrPoolNotRunning))
		}
	}

	wg.Wait()
	return multierr.Combine(results...)
}

// GetStatus returns the status of all workers
func (p *Pool) GetStatus() map[string]WorkerStatus {
	p.mu.RLock()
	workers := p.workers
	p.mu.RUnlock()

	status := make(map[string]WorkerStatus)
	for _, w := range workers {
		w.mu.RLock()
		status[w.id] = w.status
		w.mu.RUnlock()
	}
	return status
}

// run is the main worker loop
func (w *worker) run(ctx context.Context, tasks <-chan task) {
	defer w.pool.wg.Done()

	for {
		select {
		case <-ctx.Done():
			w.setStatus(WorkerStatusStopped)
			return
		case t := <-tasks:
			w.execute(t)
		}
	}
}

// execute runs a single task
func (w *worker) execute(t task) {
	w.mu.Lock()
	w.status = WorkerStatusBusy
	w.lastJob = time.Now()
	w.mu.Unlock()

	defer w.setStatus(WorkerStatusIdle)

	w.pool.logger.Debug("running job",
		zap.String("worker_id", w.id),
		zap.String("job", t.job.Name))

	t.done(t.job.Run(t.ctx))
}

func (w *worker) setStatus(status WorkerStatus) {
	w.mu.Lock()
	w.status = status
	w.mu.Unlock()
}
