// Package telemetry serves the process-wide Prometheus registry and
// publishes build-info, mirroring
// controlplane/controller/internal/controller's BuildInfo gauge and its
// promhttp.Handler()-on-/metrics wiring in Controller.Run.
package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// BuildInfoMetric mirrors controller.BuildInfo: a gauge vector whose value
// is always 1, labeled with the running build's version/commit/date.
var BuildInfoMetric = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "meshrib_build_info",
		Help: "Build information, value is always 1.",
	},
	[]string{"version", "commit", "date"},
)

// PublishBuildInfo sets the build-info gauge once at startup.
func PublishBuildInfo(version, commit, date string) {
	BuildInfoMetric.WithLabelValues(version, commit, date).Set(1)
}

// Server serves /metrics, plus any debug routes registered via Handle, over
// addr until ctx is cancelled.
type Server struct {
	addr string
	log  *slog.Logger
	mux  *http.ServeMux
}

func NewServer(addr string, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &Server{addr: addr, log: log, mux: mux}
}

// Handle registers an additional debug route (e.g. /snapshot, /ribstate) on
// this server's mux. Must be called before Run.
func (s *Server) Handle(pattern string, handler http.Handler) {
	s.mux.Handle(pattern, handler)
}

// Run listens on addr and serves the registered routes, shutting down
// gracefully when ctx is cancelled. Mirrors the serve-in-goroutine +
// ctx.Done()/errChan select used by transport.Server.Run.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	httpServer := &http.Server{Handler: s.mux}

	errChan := make(chan error, 1)
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		return httpServer.Close()
	case err := <-errChan:
		return err
	}
}
