// Package listener serves HTTP and gRPC from a single TCP port. The gRPC side
// only carries the standard grpc.health.v1 service so load balancers and
// orchestrators can probe the process natively; everything else is HTTP.
package listener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/soheilhy/cmux"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Server multiplexes one listener between an *http.Server and a *grpc.Server.
type Server struct {
	HTTP   *http.Server
	GRPC   *grpc.Server
	Health *health.Server

	logger *slog.Logger
}

// New wraps handler in an *http.Server with the given timeouts and registers
// the health service on a fresh *grpc.Server.
func New(handler http.Handler, logger *slog.Logger) *Server {
	hs := health.NewServer()
	gs := grpc.NewServer()
	healthpb.RegisterHealthServer(gs, hs)

	return &Server{
		HTTP: &http.Server{
			Handler:      handler,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		GRPC:   gs,
		Health: hs,
		logger: logger,
	}
}

// Serve accepts on l until ctx is cancelled, then drains both servers within
// shutdownTimeout. It returns nil after a clean shutdown.
func (s *Server) Serve(ctx context.Context, l net.Listener, shutdownTimeout time.Duration) error {
	m := cmux.New(l)
	grpcL := m.MatchWithWriters(cmux.HTTP2MatchHeaderFieldSendSettings("content-type", "application/grpc"))
	httpL := m.Match(cmux.Any())

	s.Health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	errc := make(chan error, 3)
	go func() {
		if err := s.GRPC.Serve(grpcL); err != nil && !errors.Is(err, grpc.ErrServerStopped) && !errors.Is(err, cmux.ErrListenerClosed) {
			errc <- fmt.Errorf("grpc: %w", err)
		}
	}()
	go func() {
		if err := s.HTTP.Serve(httpL); err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, cmux.ErrListenerClosed) {
			errc <- fmt.Errorf("http: %w", err)
		}
	}()
	go func() {
		if err := m.Serve(); err != nil && !isClosedConn(err) {
			errc <- fmt.Errorf("cmux: %w", err)
		}
	}()

	s.logger.Info("server listening", "addr", l.Addr().String())

	// Block until either a signal arrives or a server dies unexpectedly.
	var serveErr error
	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case serveErr = <-errc:
	}

	s.Health.Shutdown() // probes flip to NOT_SERVING while we drain

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.HTTP.Shutdown(shutdownCtx); err != nil {
		serveErr = errors.Join(serveErr, fmt.Errorf("http shutdown: %w", err))
	}
	stopped := make(chan struct{})
	go func() {
		s.GRPC.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-shutdownCtx.Done():
		s.GRPC.Stop()
	}
	m.Close()

	return serveErr
}

func isClosedConn(err error) bool {
	return errors.Is(err, net.ErrClosed) || errors.Is(err, cmux.ErrListenerClosed)
}
