package pubsub

import (
	"context"
	"errors"
	"fmt"

	"github.com/aescanero/dagsys/pkg/adapters/events/memory"
	redisevents "github.com/aescanero/dagsys/pkg/adapters/events/redis"
	"github.com/aescanero/dagsys/pkg/domain"
	"github.com/aescanero/dagsys/pkg/ports"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrNotStarted is returned by bus operations before Start.
var ErrNotStarted = errors.New("pub/sub bus is not started")

// RedisConfig selects the Redis Streams backend
type RedisConfig struct {
	Client        *redis.Client
	ConsumerGroup string
	ConsumerName  string
	MaxLen        int64
}

// Bus is an event bus actor. Started, it satisfies ports.EventBus by
// delegating to the backend it opened.
type Bus struct {
	redis  *RedisConfig
	logger *zap.Logger
	bus    ports.EventBus
}

var _ ports.EventBus = Bus{}

// NewMemory creates a bus actor backed by the in-memory event bus
func NewMemory(logger *zap.Logger) Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return Bus{logger: logger}
}

// NewRedis creates a bus actor backed by Redis Streams
func NewRedis(cfg RedisConfig, logger *zap.Logger) Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return Bus{redis: &cfg, logger: logger}
}

// Inject always fails; a bus depends on nothing.
func (b Bus) Inject(role domain.Role, dep domain.Component) (domain.Actor, error) {
	return nil, fmt.Errorf("pub/sub bus takes no dependencies, got %s", role)
}

// Start opens the backend
func (b Bus) Start(ctx context.Context) (domain.Actor, error) {
	if b.bus != nil {
		return nil, fmt.Errorf("pub/sub bus already started")
	}

	next := b
	if b.redis != nil {
		eb, err := redisevents.NewStreamsEventBus(
			b.redis.Client,
			b.redis.ConsumerGroup,
			b.redis.ConsumerName,
			b.redis.MaxLen,
			b.logger,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create streams bus: %w", err)
		}
		if err := eb.Ping(ctx); err != nil {
			return nil, err
		}
		next.bus = eb
	} else {
		next.bus = memory.NewInMemoryEventBus(b.logger)
	}

	b.logger.Info("pub/sub bus started", zap.String("backend", b.Backend()))
	return next, nil
}

// Stop closes the backend
func (b Bus) Stop(ctx context.Context) (domain.Actor, error) {
	next := b
	if b.bus == nil {
		return next, nil
	}
	if err := b.bus.Close(); err != nil {
		return nil, fmt.Errorf("failed to close event bus: %w", err)
	}
	next.bus = nil

	b.logger.Info("pub/sub bus stopped", zap.String("backend", b.Backend()))
	return next, nil
}

// Backend names the backend, "redis" or "memory"
func (b Bus) Backend() string {
	if b.redis != nil {
		return "redis"
	}
	return "memory"
}

// Running reports whether the backend is open
func (b Bus) Running() bool {
	return b.bus != nil
}

func (b Bus) Publish(ctx context.Context, topic string, event domain.Event) error {
	if b.bus == nil {
		return ErrNotStarted
	}
	return b.bus.Publish(ctx, topic, event)
}

func (b Bus) Subscribe(ctx context.Context, topic string, handler ports.EventHandler) error {
	if b.bus == nil {
		return ErrNotStarted
	}
	return b.bus.Subscribe(ctx, topic, handler)
}

func (b Bus) Unsubscribe(ctx context.Context, topic string) error {
	if b.bus == nil {
		return ErrNotStarted
	}
	return b.bus.Unsubscribe(ctx, topic)
}

// Close closes the backend without changing the actor value. Prefer Stop.
func (b Bus) Close() error {
	if b.bus == nil {
		return nil
	}
	return b.bus.Close()
}
