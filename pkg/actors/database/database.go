package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aescanero/dagsys/pkg/adapters/storage/file"
	"github.com/aescanero/dagsys/pkg/adapters/storage/memory"
	redisstore "github.com/aescanero/dagsys/pkg/adapters/storage/redis"
	"github.com/aescanero/dagsys/pkg/domain"
	"github.com/aescanero/dagsys/pkg/ports"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrNotStarted is returned by store operations before Start.
var ErrNotStarted = errors.New("database is not started")

// Opener opens the backing store
type Opener func(ctx context.Context) (ports.KeyValueStore, error)

// Database is a key-value store actor. It optionally depends on a clock,
// which then stamps every write.
type Database struct {
	backend   string
	open      Opener
	clockRole domain.Role
	logger    *zap.Logger
	deps      domain.Dependencies
	store     ports.KeyValueStore
}

// New creates a stopped database over an arbitrary store
func New(backend string, open Opener, logger *zap.Logger) Database {
	if logger == nil {
		logger = zap.NewNop()
	}
	return Database{backend: backend, open: open, logger: logger}
}

// NewMemory creates a database backed by the in-memory store
func NewMemory(logger *zap.Logger) Database {
	return New("memory", func(ctx context.Context) (ports.KeyValueStore, error) {
		return memory.NewInMemoryStore(), nil
	}, logger)
}

// NewRedis creates a database backed by Redis
func NewRedis(client *redis.Client, ttl time.Duration, logger *zap.Logger) Database {
	return New("redis", func(ctx context.Context) (ports.KeyValueStore, error) {
		s := redisstore.NewStore(client, ttl, logger)
		if err := s.Ping(ctx); err != nil {
			return nil, err
		}
		return s, nil
	}, logger)
}

// NewFile creates a database backed by a JSON file at path
func NewFile(path string, logger *zap.Logger) Database {
	return New("file", func(ctx context.Context) (ports.KeyValueStore, error) {
		return file.Open(path, logger)
	}, logger)
}

// WithClock returns a copy that accepts a clock injected under role
func (d Database) WithClock(role domain.Role) Database {
	d.clockRole = role
	return d
}

// Inject accepts the configured clock role
func (d Database) Inject(role domain.Role, dep domain.Component) (domain.Actor, error) {
	if d.clockRole == "" || role != d.clockRole {
		return nil, fmt.Errorf("database does not depend on %s", role)
	}
	if _, ok := dep.(domain.Clock); !ok {
		return nil, &domain.DependencyError{Role: role, Reason: fmt.Sprintf("%T is not a clock", dep)}
	}

	next := d
	next.deps = d.deps.With(role, dep)
	return next, nil
}

// Start opens the store
func (d Database) Start(ctx context.Context) (domain.Actor, error) {
	if d.store != nil {
		return nil, fmt.Errorf("database already started")
	}
	if d.open == nil {
		return nil, fmt.Errorf("database has no store opener")
	}

	store, err := d.open(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", d.backend, err)
	}

	d.logger.Info("database started", zap.String("backend", d.backend))

	next := d
	next.store = store
	return next, nil
}

// Stop closes the store
func (d Database) Stop(ctx context.Context) (domain.Actor, error) {
	next := d
	if d.store == nil {
		return next, nil
	}
	if err := d.store.Close(); err != nil {
		return nil, fmt.Errorf("failed to close %s store: %w", d.backend, err)
	}

	d.logger.Info("database stopped", zap.String("backend", d.backend))
	next.store = nil
	return next, nil
}

// Backend names the store backend
func (d Database) Backend() string {
	return d.backend
}

// Running reports whether the store is open
func (d Database) Running() bool {
	return d.store != nil
}

// Put writes value under key, stamped with the injected clock's time
func (d Database) Put(ctx context.Context, key, value string) (ports.Record, error) {
	if d.store == nil {
		return ports.Record{}, ErrNotStarted
	}
	rec := ports.Record{
		Key:       key,
		Value:     value,
		UpdatedAt: d.now(),
	}
	if err := d.store.Put(ctx, rec); err != nil {
		return ports.Record{}, err
	}
	return rec, nil
}

// Get reads the record stored under key
func (d Database) Get(ctx context.Context, key string) (ports.Record, error) {
	if d.store == nil {
		return ports.Record{}, ErrNotStarted
	}
	return d.store.Get(ctx, key)
}

// Delete removes key
func (d Database) Delete(ctx context.Context, key string) error {
	if d.store == nil {
		return ErrNotStarted
	}
	return d.store.Delete(ctx, key)
}

// List returns all keys
func (d Database) List(ctx context.Context) ([]string, error) {
	if d.store == nil {
		return nil, ErrNotStarted
	}
	return d.store.List(ctx)
}

func (d Database) now() time.Time {
	if d.clockRole != "" {
		if clock, err := domain.Lookup[domain.Clock](d.deps, d.clockRole); err == nil {
			return clock.Now()
		}
	}
	return time.Now()
}
