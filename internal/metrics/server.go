package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rickgao/tickersense/internal/scheduler"
	"github.com/rickgao/tickersense/internal/version"
)

// Health is the /health response body.
type Health struct {
	Status     string               `json:"status"`
	Version    version.Info         `json:"version"`
	Components map[string]string    `json:"components,omitempty"`
	Jobs       []scheduler.JobState `json:"jobs,omitempty"`
}

// CheckFunc reports whether a dependency is reachable.
type CheckFunc func(ctx context.Context) error

// Server serves /metrics and /health.
type Server struct {
	srv    *http.Server
	logger *slog.Logger

	mu     sync.Mutex
	addr   string
	checks map[string]CheckFunc
	wg     sync.WaitGroup
}

// NewServer builds a server on addr. metricsPath defaults to /metrics.
func NewServer(addr, metricsPath string, m *Metrics, jobs interface{ States() []scheduler.JobState }, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if metricsPath == "" {
		metricsPath = "/metrics"
	}

	s := &Server{
		logger: logger.With("component", "metrics_server"),
		addr:   addr,
		checks: make(map[string]CheckFunc),
	}

	mux := http.NewServeMux()
	mux.Handle(metricsPath, promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{Registry: m.Registry()}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		h := s.health(ctx)
		if jobs != nil {
			h.Jobs = jobs.States()
		}
		w.Header().Set("Content-Type", "application/json")
		if h.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(h)
	})

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// AddCheck registers a dependency check reported under name.
func (s *Server) AddCheck(name string, fn CheckFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks[name] = fn
}

func (s *Server) health(ctx context.Context) Health {
	s.mu.Lock()
	checks := make(map[string]CheckFunc, len(s.checks))
	for k, v := range s.checks {
		checks[k] = v
	}
	s.mu.Unlock()

	h := Health{Status: "ok", Version: version.Get()}
	if len(checks) == 0 {
		return h
	}
	h.Components = make(map[string]string, len(checks))
	for name, check := range checks {
		if err := check(ctx); err != nil {
			h.Status = "unhealthy"
			h.Components[name] = "error: " + err.Error()
			continue
		}
		h.Components[name] = "connected"
	}
	return h
}

// Start binds the listener and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	ln, err := (&net.ListenConfig{}).Listen(ctx, "tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.srv.Addr, err)
	}

	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("metrics server failed", "error", err)
		}
	}()

	s.logger.Info("metrics server started", "addr", s.Addr())
	return nil
}

// Addr returns the bound address once started.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	err := s.srv.Shutdown(ctx)
	s.wg.Wait()
	return err
}
