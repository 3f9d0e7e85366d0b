// Package observability exposes the client's prometheus metrics over an
// optional local HTTP endpoint.
package observability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/catalinamedinaleal/store/internal/version"
	"github.com/catalinamedinaleal/store/pkg/config"
)

// Service runs the metrics endpoint when metrics are enabled.
type Service interface {
	// Start brings up the metrics HTTP server. A no-op when disabled.
	Start(ctx context.Context) error

	// Stop shuts the server down gracefully.
	Stop() error
}

// Compile-time interface compliance check.
var _ Service = (*service)(nil)

type service struct {
	log logrus.FieldLogger
	cfg config.ObservabilityConfig

	mu        sync.Mutex
	server    *http.Server
	startedAt time.Time
}

// NewService creates the observability service.
func NewService(log logrus.FieldLogger, cfg config.ObservabilityConfig) Service {
	return &service{
		log: log.WithField("component", "observability"),
		cfg: cfg,
	}
}

func (s *service) Start(_ context.Context) error {
	if !s.cfg.MetricsEnabled {
		s.log.Debug("Metrics disabled, not starting metrics server")

		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return errors.New("metrics server already started")
	}

	addr := fmt.Sprintf("127.0.0.1:%d", s.cfg.MetricsPort)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", s.handleHealth)

	s.startedAt = time.Now()
	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	go func() {
		s.log.WithField("address", addr).Info("Metrics server listening")

		if serveErr := s.server.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			s.log.WithError(serveErr).Error("Metrics server failed")
		}
	}()

	return nil
}

func (s *service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server == nil {
		return nil
	}

	s.log.Info("Stopping metrics server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down metrics server: %w", err)
	}

	s.server = nil

	return nil
}

func (s *service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	uptime := time.Since(s.startedAt).Round(time.Second)
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"version": version.Version,
		"uptime":  uptime.String(),
	})
}
