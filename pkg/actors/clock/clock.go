package clock

import (
	"context"
	"fmt"
	"time"

	"github.com/aescanero/dagsys/pkg/domain"
	"go.uber.org/zap"
)

// Clock is a time source actor. It has no dependencies.
type Clock struct {
	now       func() time.Time
	logger    *zap.Logger
	startedAt time.Time
	running   bool
}

// New creates a clock backed by time.Now
func New(logger *zap.Logger) Clock {
	return NewWithSource(time.Now, logger)
}

// NewWithSource creates a clock backed by now
func NewWithSource(now func() time.Time, logger *zap.Logger) Clock {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return Clock{now: now, logger: logger}
}

// Inject always fails; a clock depends on nothing.
func (c Clock) Inject(role domain.Role, dep domain.Component) (domain.Actor, error) {
	return nil, fmt.Errorf("clock takes no dependencies, got %s", role)
}

// Start stamps the start time
func (c Clock) Start(ctx context.Context) (domain.Actor, error) {
	if c.running {
		return nil, fmt.Errorf("clock already started")
	}
	next := c
	next.running = true
	next.startedAt = c.now()

	c.logger.Info("clock started", zap.Time("started_at", next.startedAt))
	return next, nil
}

// Stop clears the start time
func (c Clock) Stop(ctx context.Context) (domain.Actor, error) {
	next := c
	next.running = false
	next.startedAt = time.Time{}

	c.logger.Info("clock stopped", zap.Duration("uptime", c.Uptime()))
	return next, nil
}

// Now returns the current time
func (c Clock) Now() time.Time {
	return c.now()
}

// StartedAt returns when the clock started, or the zero time.
func (c Clock) StartedAt() time.Time {
	return c.startedAt
}

// Running reports whether the clock is started
func (c Clock) Running() bool {
	return c.running
}

// Uptime returns the time since start, or zero when stopped.
func (c Clock) Uptime() time.Duration {
	if !c.running {
		return 0
	}
	return c.now().Sub(c.startedAt)
}
