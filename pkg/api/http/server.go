package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/aescanero/dagsys/pkg/api/websocket"
	"github.com/aescanero/dagsys/pkg/domain"
	"github.com/aescanero/dagsys/pkg/ports"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	DefaultDatabaseRole domain.Role = "db"
	DefaultBusRole      domain.Role = "bus"
)

// StatusSource exposes a system status snapshot
type StatusSource interface {
	Status() domain.SystemStatus
}

// StatusFunc adapts a function to StatusSource
type StatusFunc func() domain.SystemStatus

func (f StatusFunc) Status() domain.SystemStatus { return f() }

// KeyValue is what the server needs from its database dependency
type KeyValue interface {
	Put(ctx context.Context, key, value string) (ports.Record, error)
	Get(ctx context.Context, key string) (ports.Record, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]string, error)
}

// Config holds HTTP server configuration
type Config struct {
	Host         string
	Port         int // 0 picks a free port
	DatabaseRole domain.Role
	BusRole      domain.Role
	EventTopics  []string // topics streamed over the websocket
	Status       StatusSource
	Gatherer     prometheus.Gatherer // nil serves the default registry
	Logger       *zap.Logger
}

// Server is the HTTP API actor. It depends on a database and an event bus.
type Server struct {
	cfg    Config
	logger *zap.Logger
	deps   domain.Dependencies
	run    *running
}

type running struct {
	server   *http.Server
	listener net.Listener
	ws       *websocket.Handler
	done     chan error
}

// NewServer creates a stopped HTTP server
func NewServer(cfg Config) Server {
	gin.SetMode(gin.ReleaseMode)

	if cfg.DatabaseRole == "" {
		cfg.DatabaseRole = DefaultDatabaseRole
	}
	if cfg.BusRole == "" {
		cfg.BusRole = DefaultBusRole
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return Server{cfg: cfg, logger: cfg.Logger}
}

// Inject accepts the database and bus roles
func (s Server) Inject(role domain.Role, dep domain.Component) (domain.Actor, error) {
	switch role {
	case s.cfg.DatabaseRole:
		if _, ok := dep.(KeyValue); !ok {
			return nil, &domain.DependencyError{Role: role, Reason: fmt.Sprintf("%T is not a key-value database", dep)}
		}
	case s.cfg.BusRole:
		if _, ok := dep.(ports.EventBus); !ok {
			return nil, &domain.DependencyError{Role: role, Reason: fmt.Sprintf("%T is not an event bus", dep)}
		}
	default:
		return nil, fmt.Errorf("http server does not depend on %s", role)
	}

	next := s
	next.deps = s.deps.With(role, dep)
	return next, nil
}

// Start binds the listener and serves in the background
func (s Server) Start(ctx context.Context) (domain.Actor, error) {
	if s.run != nil {
		return nil, fmt.Errorf("http server already started")
	}
	db, err := domain.Lookup[KeyValue](s.deps, s.cfg.DatabaseRole)
	if err != nil {
		return nil, err
	}
	bus, err := domain.Lookup[ports.EventBus](s.deps, s.cfg.BusRole)
	if err != nil {
		return nil, err
	}

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port))
	if err != nil {
		return nil, fmt.Errorf("failed to create listener: %w", err)
	}

	ws := websocket.NewHandler(bus, s.cfg.EventTopics, s.logger)
	router := newRouter(&handlers{
		db:       db,
		status:   s.cfg.Status,
		gatherer: s.cfg.Gatherer,
		logger:   s.logger,
	}, ws, s.logger)

	r := &running{
		server: &http.Server{
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		listener: listener,
		ws:       ws,
		done:     make(chan error, 1),
	}

	s.logger.Info("starting HTTP server", zap.String("addr", listener.Addr().String()))

	go func() {
		err := r.server.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server failed", zap.Error(err))
			r.done <- err
			return
		}
		r.done <- nil
	}()

	next := s
	next.run = r
	return next, nil
}

// Stop gracefully shuts down the server
func (s Server) Stop(ctx context.Context) (domain.Actor, error) {
	next := s
	if s.run == nil {
		return next, nil
	}

	s.logger.Info("shutting down HTTP server")

	s.run.ws.Close()
	if err := s.run.server.Shutdown(ctx); err != nil {
		return nil, fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}
	if err := <-s.run.done; err != nil {
		s.logger.Warn("HTTP server exited with error", zap.Error(err))
	}

	s.logger.Info("HTTP server shut down complete")
	next.run = nil
	return next, nil
}

// Addr returns the bound address, or "" when stopped
func (s Server) Addr() string {
	if s.run == nil {
		return ""
	}
	return s.run.listener.Addr().String()
}

// newRouter configures API routes
func newRouter(h *handlers, ws *websocket.Handler, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))
	router.Use(corsMiddleware())

	router.GET("/health", h.handleHealth)

	if h.gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))
	} else {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	v1 := router.Group("/api/v1")
	{
		v1.GET("/system", h.handleSystemStatus)

		v1.GET("/kv", h.handleListKeys)
		v1.GET("/kv/:key", h.handleGetKey)
		v1.PUT("/kv/:key", h.handlePutKey)
		v1.DELETE("/kv/:key", h.handleDeleteKey)

		if ws != nil {
			v1.GET("/events/ws", ws.HandleStream)
		}
	}

	return router
}
