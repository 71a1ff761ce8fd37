package main

import (
	"fmt"
	"os"

	"github.com/aescanero/dagsys/internal/config"
	"github.com/aescanero/dagsys/pkg/actors/clock"
	"github.com/aescanero/dagsys/pkg/actors/database"
	"github.com/aescanero/dagsys/pkg/actors/interval"
	"github.com/aescanero/dagsys/pkg/actors/pubsub"
	"github.com/aescanero/dagsys/pkg/api/grpc"
	"github.com/aescanero/dagsys/pkg/api/http"
	"github.com/aescanero/dagsys/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	RoleConfig domain.Role = "config"
	RoleClock  domain.Role = "clock"
	RoleBus    domain.Role = "bus"
	RoleDB     domain.Role = "db"
	RoleTicker domain.Role = "ticker"
	RoleWeb    domain.Role = "web"
	RoleGRPC   domain.Role = "grpc"
)

// wiring carries what the blueprint needs beyond the config
type wiring struct {
	redis    *goredis.Client // nil runs the bus and store in memory
	status   http.StatusFunc
	gatherer prometheus.Gatherer
	topics   []string
	logger   *zap.Logger
}

// buildBlueprint declares the process roles and their dependencies
func buildBlueprint(cfg *config.Config, w wiring) (*domain.Blueprint, error) {
	ticker, err := interval.New(interval.Config{
		Interval:  cfg.Timers.TickInterval,
		Source:    RoleTicker,
		ClockRole: RoleClock,
		BusRole:   RoleBus,
	}, w.logger.Named("ticker"))
	if err != nil {
		return nil, fmt.Errorf("failed to create ticker: %w", err)
	}

	var status http.StatusSource
	if w.status != nil {
		status = w.status
	}

	roles := map[domain.Role]string{
		RoleConfig: "process configuration",
		RoleClock:  "time source",
		RoleBus:    "event bus",
		RoleDB:     "key-value database",
		RoleTicker: "periodic tick publisher",
		RoleWeb:    "HTTP API",
		RoleGRPC:   "gRPC health API",
	}

	specs := map[domain.Role]domain.RoleSpec{
		RoleConfig: {Initial: cfg},
		RoleClock:  {Initial: clock.New(w.logger.Named("clock"))},
		RoleBus: {
			Producer: func() (domain.Component, error) {
				return newBus(cfg, w), nil
			},
		},
		RoleDB: {
			Producer: func() (domain.Component, error) {
				return newDatabase(cfg, w)
			},
			DependsOn: []domain.Role{RoleClock},
		},
		RoleTicker: {
			Initial:   ticker,
			DependsOn: []domain.Role{RoleClock, RoleBus},
		},
		RoleWeb: {
			Initial: http.NewServer(http.Config{
				Port:         cfg.HTTPPort,
				DatabaseRole: RoleDB,
				BusRole:      RoleBus,
				EventTopics:  w.topics,
				Status:       status,
				Gatherer:     w.gatherer,
				Logger:       w.logger.Named("http"),
			}),
			DependsOn: []domain.Role{RoleDB, RoleBus},
		},
		RoleGRPC: {
			Initial: grpc.NewServer(grpc.Config{
				Port:   cfg.GRPCPort,
				Status: status,
				Logger: w.logger.Named("grpc"),
			}),
		},
	}

	return domain.Build(roles, specs)
}

func newBus(cfg *config.Config, w wiring) pubsub.Bus {
	logger := w.logger.Named("bus")
	if w.redis == nil {
		return pubsub.NewMemory(logger)
	}
	return pubsub.NewRedis(pubsub.RedisConfig{
		Client:        w.redis,
		ConsumerGroup: cfg.Redis.ConsumerGroup,
		ConsumerName:  fmt.Sprintf("dagsys-%d", os.Getpid()),
		MaxLen:        cfg.Redis.StreamMaxLen,
	}, logger)
}

func newDatabase(cfg *config.Config, w wiring) (database.Database, error) {
	logger := w.logger.Named("db")

	var db database.Database
	switch cfg.Store.Backend {
	case config.StoreRedis:
		if w.redis == nil {
			return database.Database{}, fmt.Errorf("redis store requested without a redis client")
		}
		db = database.NewRedis(w.redis, cfg.Store.TTL, logger)
	case config.StoreFile:
		db = database.NewFile(cfg.Store.FilePath, logger)
	default:
		db = database.NewMemory(logger)
	}
	return db.WithClock(RoleClock), nil
}
