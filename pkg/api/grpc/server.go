package grpc

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/aescanero/dagsys/pkg/domain"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// SystemService is the health service name that tracks the system state.
const SystemService = "dagsys.System"

// StatusSource exposes a system status snapshot
type StatusSource interface {
	Status() domain.SystemStatus
}

// Config holds gRPC server configuration
type Config struct {
	Host         string
	Port         int // 0 picks a free port
	Status       StatusSource
	PollInterval time.Duration
	Logger       *zap.Logger
}

// Server is the gRPC API actor. It serves the standard health service and
// has no dependencies.
type Server struct {
	cfg    Config
	logger *zap.Logger
	run    *running
}

type running struct {
	server   *grpc.Server
	health   *health.Server
	listener net.Listener
	cancel   context.CancelFunc
	done     chan struct{}
	served   chan error
}

// NewServer creates a stopped gRPC server
func NewServer(cfg Config) Server {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return Server{cfg: cfg, logger: cfg.Logger}
}

// Inject always fails; the gRPC server depends on nothing.
func (s Server) Inject(role domain.Role, dep domain.Component) (domain.Actor, error) {
	return nil, fmt.Errorf("grpc server takes no dependencies, got %s", role)
}

// Start listens and serves in the background
func (s Server) Start(ctx context.Context) (domain.Actor, error) {
	if s.run != nil {
		return nil, fmt.Errorf("grpc server already started")
	}

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port))
	if err != nil {
		return nil, fmt.Errorf("failed to create listener: %w", err)
	}

	grpcServer := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)
	reflection.Register(grpcServer)

	pollCtx, cancel := context.WithCancel(context.Background())
	r := &running{
		server:   grpcServer,
		health:   hs,
		listener: listener,
		cancel:   cancel,
		done:     make(chan struct{}),
		served:   make(chan error, 1),
	}

	s.syncHealth(hs)
	go s.watch(pollCtx, r)

	s.logger.Info("starting gRPC server", zap.String("addr", listener.Addr().String()))

	go func() {
		if err := grpcServer.Serve(listener); err != nil {
			s.logger.Error("gRPC server failed", zap.Error(err))
			r.served <- err
			return
		}
		r.served <- nil
	}()

	next := s
	next.run = r
	return next, nil
}

// Stop marks every service not serving and stops gracefully. If ctx ends
// first the server is stopped hard.
func (s Server) Stop(ctx context.Context) (domain.Actor, error) {
	next := s
	if s.run == nil {
		return next, nil
	}

	s.logger.Info("shutting down gRPC server")

	s.run.cancel()
	<-s.run.done
	s.run.health.Shutdown()

	stopped := make(chan struct{})
	go func() {
		s.run.server.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-ctx.Done():
		s.run.server.Stop()
		<-stopped
	}
	<-s.run.served

	s.logger.Info("gRPC server shut down complete")
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

// watch keeps the health status in line with the system state
func (s Server) watch(ctx context.Context, r *running) {
	defer close(r.done)

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.syncHealth(r.health)
		}
	}
}

func (s Server) syncHealth(hs *health.Server) {
	status := healthpb.HealthCheckResponse_SERVING
	if s.cfg.Status != nil {
		switch s.cfg.Status.Status().State {
		case domain.StateStarted.String(), domain.StateStarting.String():
		default:
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	hs.SetServingStatus("", status)
	hs.SetServingStatus(SystemService, status)
}
