package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Store backends
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreFile   = "file"
)

// Config holds all configuration for the dagsys process
type Config struct {
	// Server configuration
	HTTPPort int    `env:"DAGSYS_HTTP_PORT" envDefault:"8080"`
	GRPCPort int    `env:"DAGSYS_GRPC_PORT" envDefault:"9090"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Redis configuration
	Redis RedisConfig

	// System configuration
	System SystemConfig

	// Store configuration
	Store StoreConfig

	// Timers
	Timers TimerConfig

	// Timeouts
	Timeouts TimeoutConfig
}

// RedisConfig holds Redis connection configuration. An empty Addr runs the
// bus and store on their in-memory backends.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASS"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`

	// Connection pool settings
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	MaxRetries   int           `env:"REDIS_MAX_RETRIES" envDefault:"3"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`

	// Streams settings
	ConsumerGroup string `env:"REDIS_CONSUMER_GROUP" envDefault:"dagsys"`
	StreamMaxLen  int64  `env:"REDIS_STREAM_MAXLEN" envDefault:"10000"`
}

// Enabled reports whether a Redis address is configured
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// SystemConfig holds orchestrator configuration
type SystemConfig struct {
	Concurrency int  `env:"SYSTEM_CONCURRENCY" envDefault:"1"`
	Rollback    bool `env:"SYSTEM_ROLLBACK" envDefault:"false"`
}

// StoreConfig selects the database backend
type StoreConfig struct {
	Backend  string        `env:"STORE_BACKEND" envDefault:"memory"`
	FilePath string        `env:"STORE_FILE_PATH" envDefault:"dagsys-store.json"`
	TTL      time.Duration `env:"STORE_TTL" envDefault:"0s"`
}

// TimerConfig holds periodic task intervals
type TimerConfig struct {
	TickInterval        time.Duration `env:"TICK_INTERVAL" envDefault:"10s"`
	HealthCheckInterval time.Duration `env:"HEALTH_CHECK_INTERVAL" envDefault:"30s"`
}

// TimeoutConfig holds various timeout configurations
type TimeoutConfig struct {
	StartTimeout    time.Duration `env:"TIMEOUT_START" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"TIMEOUT_SHUTDOWN" envDefault:"30s"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	return load(env.Options{})
}

// LoadFrom reads configuration from environ instead of the process
// environment
func LoadFrom(environ map[string]string) (*Config, error) {
	return load(env.Options{Environment: environ})
}

func load(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Port 0 picks a free port
	if c.HTTPPort < 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.GRPCPort < 0 || c.GRPCPort > 65535 {
		return fmt.Errorf("invalid gRPC port: %d", c.GRPCPort)
	}

	if c.System.Concurrency < 1 {
		return fmt.Errorf("system concurrency must be at least 1")
	}

	switch c.Store.Backend {
	case StoreMemory:
	case StoreRedis:
		if !c.Redis.Enabled() {
			return fmt.Errorf("store backend %q requires REDIS_ADDR", c.Store.Backend)
		}
	case StoreFile:
		if c.Store.FilePath == "" {
			return fmt.Errorf("store backend %q requires STORE_FILE_PATH", c.Store.Backend)
		}
	default:
		return fmt.Errorf("unsupported store backend: %s (must be memory, redis, or file)", c.Store.Backend)
	}

	if c.Timers.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive")
	}
	if c.Timers.HealthCheckInterval <= 0 {
		return fmt.Errorf("health check interval must be positive")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// GetGRPCAddr returns the gRPC server address
func (c *Config) GetGRPCAddr() string {
	return fmt.Sprintf(":%d", c.GRPCPort)
}
