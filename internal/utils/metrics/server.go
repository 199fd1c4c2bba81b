// internal/utils/metrics/server.go
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server отдает /metrics для Prometheus
type Server struct {
	addr      string
	collector *Collector
	logger    *zap.Logger
	srv       *http.Server
}

func NewServer(addr string, collector *Collector, logger *zap.Logger) *Server {
	return &Server{
		addr:      addr,
		collector: collector,
		logger:    logger.Named("metrics-server"),
	}
}

// Handler is exposed separately so tests can hit it without a listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.collector.Registry(), promhttp.HandlerOpts{}))
	return mux
}

// Run блокируется до отмены контекста, затем останавливает сервер
func (s *Server) Run(ctx context.Context) error {
	s.srv = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("📊 Starting Prometheus metrics server", zap.String("addr", s.addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			s.logger.Error("Metrics server failed", zap.Error(err))
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	}
}

// Stop gracefully stops the metrics server
func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	s.logger.Info("Stopping metrics server")
	return s.srv.Shutdown(ctx)
}
