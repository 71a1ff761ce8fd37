package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aescanero/dagsys/internal/application/orchestrator"
	"github.com/aescanero/dagsys/internal/application/workers"
	"github.com/aescanero/dagsys/internal/config"
	"github.com/aescanero/dagsys/pkg/actors/interval"
	"github.com/aescanero/dagsys/pkg/actors/pubsub"
	"github.com/aescanero/dagsys/pkg/adapters/events/memory"
	"github.com/aescanero/dagsys/pkg/adapters/metrics/prometheus"
	"github.com/aescanero/dagsys/pkg/domain"
	"github.com/aescanero/dagsys/pkg/ports"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Version is set by build flags
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("starting dagsys",
		zap.String("version", Version),
		zap.String("build_time", BuildTime))

	var redisClient *goredis.Client
	if cfg.Redis.Enabled() {
		redisClient = goredis.NewClient(&goredis.Options{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   cfg.Redis.MaxRetries,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})

		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Fatal("failed to connect to Redis", zap.Error(err))
		}
		logger.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr))
	}

	registry := promclient.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metricsCollector := prometheus.NewCollector(registry)

	// Lifecycle events go to a process-local bus; the forwarder below copies
	// them onto the bus role while it runs.
	lifecycleBus := memory.NewInMemoryEventBus(logger.Named("lifecycle"))
	defer lifecycleBus.Close()

	var system *orchestrator.System
	status := func() domain.SystemStatus {
		if system == nil {
			return domain.SystemStatus{State: domain.StateNotStarted.String()}
		}
		return system.Status()
	}

	bp, err := buildBlueprint(cfg, wiring{
		redis:    redisClient,
		status:   status,
		gatherer: registry,
		topics:   []string{orchestrator.DefaultEventTopic, interval.DefaultTopic},
		logger:   logger,
	})
	if err != nil {
		logger.Fatal("invalid blueprint", zap.Error(err))
	}

	system, err = orchestrator.NewSystem(bp,
		orchestrator.WithLogger(logger.Named("system")),
		orchestrator.WithMetrics(metricsCollector),
		orchestrator.WithEventBus(lifecycleBus, orchestrator.DefaultEventTopic),
		orchestrator.WithRollback(cfg.System.Rollback),
		orchestrator.WithConcurrency(cfg.System.Concurrency),
	)
	if err != nil {
		logger.Fatal("failed to create system", zap.Error(err))
	}

	logger.Info("system order resolved",
		zap.Any("order", system.Order()),
		zap.Int("levels", len(system.Levels())))

	// Forward lifecycle events onto the bus role once it is running
	forwardCtx, stopForward := context.WithCancel(context.Background())
	defer stopForward()
	if err := lifecycleBus.Subscribe(forwardCtx, orchestrator.DefaultEventTopic, forwarder(system, logger)); err != nil {
		logger.Warn("failed to forward lifecycle events", zap.Error(err))
	}

	startCtx, cancelStart := context.WithTimeout(context.Background(), cfg.Timeouts.StartTimeout)
	err = system.Start(startCtx)
	cancelStart()
	if err != nil {
		logger.Fatal("failed to start system", zap.Error(err))
	}

	healthMonitor := workers.NewHealthMonitor(
		system,
		system.Pool(),
		cfg.Timers.HealthCheckInterval,
		metricsCollector,
		logger.Named("health"),
	)
	healthMonitor.Start()

	logger.Info("dagsys started",
		zap.Int("http_port", cfg.HTTPPort),
		zap.Int("grpc_port", cfg.GRPCPort),
		zap.Int("concurrency", cfg.System.Concurrency))

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("received shutdown signal")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeouts.ShutdownTimeout)
	defer cancel()

	healthMonitor.Stop()

	if err := system.Stop(shutdownCtx); err != nil {
		logger.Error("system shutdown error", zap.Error(err))
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("Redis close error", zap.Error(err))
		}
	}

	logger.Info("dagsys shut down complete")
}

// forwarder republishes lifecycle events on the bus role while it is running
func forwarder(system *orchestrator.System, logger *zap.Logger) ports.EventHandler {
	return func(ctx context.Context, event domain.Event) error {
		comp, ok := system.Component(RoleBus)
		if !ok {
			return nil
		}
		bus, ok := comp.(pubsub.Bus)
		if !ok || !bus.Running() {
			return nil
		}
		if err := bus.Publish(ctx, orchestrator.DefaultEventTopic, event); err != nil {
			logger.Debug("failed to forward lifecycle event", zap.Error(err))
		}
		return nil
	}
}

// initLogger initializes the logger based on log level
func initLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapLevel)
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}

	return logger
}
