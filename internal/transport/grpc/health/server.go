// Package health exposes migration progress over the standard gRPC health
// checking protocol. Each kind is a service name; the empty service name
// reflects the run as a whole.
package health

import (
	"context"
	"net"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/nzb155/nomulus/internal/app/migration/usecases/init_sql"
)

const stopTimeout = 5 * time.Second

type Server struct {
	hs *health.Server
}

// NewServer starts every kind as NOT_SERVING until a report says otherwise.
func NewServer(kinds []string) *Server {
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	for _, k := range kinds {
		hs.SetServingStatus(k, healthpb.HealthCheckResponse_NOT_SERVING)
	}
	return &Server{hs: hs}
}

// Track publishes the outcome of every kind of r.
func (s *Server) Track(r init_sql.Report) {
	for _, o := range r.Outcomes {
		s.hs.SetServingStatus(o.Kind, outcomeStatus(o))
	}
	s.hs.SetServingStatus("", overallStatus(r))
}

func (s *Server) Register(srv *grpc.Server) {
	healthpb.RegisterHealthServer(srv, s.hs)
}

// Serve runs a gRPC server with only the health service on lis until ctx is
// done, then stops it gracefully.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer()
	s.Register(srv)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", lis.Addr().String()).Msg("gRPC health service listening")
		errCh <- srv.Serve(lis)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.hs.Shutdown()
	stopped := make(chan struct{})
	go func() {
		srv.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(stopTimeout):
		srv.Stop()
	}
	return nil
}
