package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marmos91/dittosync/internal/logger"
)

// Server exposes the registry over HTTP for the duration of a sync run.
//
// Endpoints:
//   - GET /metrics: Prometheus metrics in text format
//   - GET /healthz: liveness probe, always 200
type Server struct {
	server       *http.Server
	listener     net.Listener
	shutdownOnce sync.Once
	done         chan error
}

// ServerConfig configures the metrics HTTP server.
type ServerConfig struct {
	// Port to listen on. Zero picks a free port.
	Port int

	// Gatherer to expose. Defaults to the global registry.
	Gatherer prometheus.Gatherer
}

// NewServer creates a metrics server bound to the configured port.
//
// Binding happens here so a port conflict is reported before the run starts;
// Start only begins serving.
func NewServer(config ServerConfig) (*Server, error) {
	gatherer := config.Gatherer
	if gatherer == nil {
		if !IsEnabled() {
			return nil, errors.New("metrics server requires an initialized registry")
		}
		gatherer = GetRegistry()
	}

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", config.Port))
	if err != nil {
		return nil, fmt.Errorf("metrics server listen on port %d: %w", config.Port, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = fmt.Fprintln(w, "ok")
	})

	return &Server{
		server: &http.Server{
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		listener: listener,
		done:     make(chan error, 1),
	}, nil
}

// Start serves requests in the background until Stop is called.
func (s *Server) Start() {
	logger.Info("Metrics server listening on port %d", s.Port())
	logger.Debug("Metrics endpoint available at http://localhost:%d/metrics", s.Port())

	go func() {
		err := s.server.Serve(s.listener)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		s.done <- err
	}()
}

// Stop gracefully shuts the server down.
//
// Stop is safe to call multiple times; only the first call has effect.
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		logger.Debug("Metrics server shutdown initiated")

		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("metrics server shutdown error: %w", err)
			logger.Error("Metrics server shutdown error: %v", err)
			return
		}

		select {
		case err := <-s.done:
			if err != nil {
				shutdownErr = fmt.Errorf("metrics server failed: %w", err)
			}
		case <-ctx.Done():
			shutdownErr = ctx.Err()
		}
		logger.Debug("Metrics server stopped")
	})
	return shutdownErr
}

// Port returns the TCP port the server is listening on.
func (s *Server) Port() int {
	return s.listener.Addr().(*net.TCPAddr).Port
}
