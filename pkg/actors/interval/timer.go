package interval

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/aescanero/dagsys/pkg/domain"
	"github.com/aescanero/dagsys/pkg/ports"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultTopic is the topic tick events are published on.
	DefaultTopic = "ticks"

	DefaultClockRole domain.Role = "clock"
	DefaultBusRole   domain.Role = "bus"
)

// Config configures a Timer
type Config struct {
	Interval  time.Duration
	Topic     string
	Source    domain.Role // Role reported on tick events
	ClockRole domain.Role
	BusRole   domain.Role
}

// Timer is an actor that publishes a tick event on every interval. It
// depends on a clock and an event bus.
type Timer struct {
	cfg    Config
	logger *zap.Logger
	deps   domain.Dependencies
	run    *runner
}

type runner struct {
	cancel context.CancelFunc
	done   chan struct{}
	ticks  atomic.Uint64
}

// New creates a stopped timer
func New(cfg Config, logger *zap.Logger) (Timer, error) {
	if cfg.Interval <= 0 {
		return Timer{}, fmt.Errorf("interval must be positive, got %s", cfg.Interval)
	}
	if cfg.Topic == "" {
		cfg.Topic = DefaultTopic
	}
	if cfg.ClockRole == "" {
		cfg.ClockRole = DefaultClockRole
	}
	if cfg.BusRole == "" {
		cfg.BusRole = DefaultBusRole
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return Timer{cfg: cfg, logger: logger}, nil
}

// Inject accepts the clock and bus roles
func (t Timer) Inject(role domain.Role, dep domain.Component) (domain.Actor, error) {
	switch role {
	case t.cfg.ClockRole:
		if _, ok := dep.(domain.Clock); !ok {
			return nil, &domain.DependencyError{Role: role, Reason: fmt.Sprintf("%T is not a clock", dep)}
		}
	case t.cfg.BusRole:
		if _, ok := dep.(ports.EventBus); !ok {
			return nil, &domain.DependencyError{Role: role, Reason: fmt.Sprintf("%T is not an event bus", dep)}
		}
	default:
		return nil, fmt.Errorf("interval timer does not depend on %s", role)
	}

	next := t
	next.deps = t.deps.With(role, dep)
	return next, nil
}

// Start launches the tick goroutine
func (t Timer) Start(ctx context.Context) (domain.Actor, error) {
	if t.run != nil {
		return nil, fmt.Errorf("interval timer already started")
	}
	clock, err := domain.Lookup[domain.Clock](t.deps, t.cfg.ClockRole)
	if err != nil {
		return nil, err
	}
	bus, err := domain.Lookup[ports.EventBus](t.deps, t.cfg.BusRole)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	r := &runner{cancel: cancel, done: make(chan struct{})}
	go t.loop(runCtx, r, clock, bus)

	t.logger.Info("interval timer started",
		zap.Duration("interval", t.cfg.Interval),
		zap.String("topic", t.cfg.Topic))

	next := t
	next.run = r
	return next, nil
}

// Stop cancels the tick goroutine and waits for it, bounded by ctx
func (t Timer) Stop(ctx context.Context) (domain.Actor, error) {
	next := t
	if t.run == nil {
		return next, nil
	}

	t.run.cancel()
	select {
	case <-t.run.done:
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for tick loop: %w", ctx.Err())
	}

	t.logger.Info("interval timer stopped", zap.Uint64("ticks", t.run.ticks.Load()))
	next.run = nil
	return next, nil
}

// Ticks returns the number of ticks published since Start
func (t Timer) Ticks() uint64 {
	if t.run == nil {
		return 0
	}
	return t.run.ticks.Load()
}

// Running reports whether the tick goroutine is running
func (t Timer) Running() bool {
	return t.run != nil
}

func (t Timer) loop(ctx context.Context, r *runner, clock domain.Clock, bus ports.EventBus) {
	defer close(r.done)

	ticker := time.NewTicker(t.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			seq := r.ticks.Add(1)
			event := domain.Event{
				ID:        uuid.New().String(),
				Type:      domain.EventTypeTick,
				Timestamp: clock.Now(),
				Role:      t.cfg.Source,
				Data: map[string]interface{}{
					"seq": seq,
				},
			}
			if err := bus.Publish(ctx, t.cfg.Topic, event); err != nil {
				t.logger.Warn("failed to publish tick",
					zap.Uint64("seq", seq),
					zap.Error(err))
			}
		}
	}
}
