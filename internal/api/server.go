package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path"
	"sync"
	"time"

	"golang.org/x/net/netutil"

	"grimm.is/dvr/internal/ctlplane"
	"grimm.is/dvr/internal/events"
	"grimm.is/dvr/internal/logging"
	"grimm.is/dvr/internal/metrics"
)

// ServerConfig holds HTTP server limits.
type ServerConfig struct {
	ReadHeaderTimeout time.Duration // Slowloris prevention
	ReadTimeout       time.Duration // Body read limit
	WriteTimeout      time.Duration // Response timeout
	IdleTimeout       time.Duration // Keep-alive timeout
	MaxHeaderBytes    int           // Header size limit
	MaxBodyBytes      int64         // Request body size limit
	MaxConnections    int           // Concurrent connection cap, 0 for none
}

// DefaultServerConfig returns the default server limits.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
		MaxBodyBytes:      1 << 20,
		MaxConnections:    512,
	}
}

// ServerOptions holds dependencies for the API server
type ServerOptions struct {
	ControlPlane *ctlplane.ControlPlane
	Logger       *logging.Logger
	Metrics      *metrics.Registry // Optional
	Config       *ServerConfig     // Optional: DefaultServerConfig() when nil
}

// Server serves the route API for one control plane.
type Server struct {
	cp      *ctlplane.ControlPlane
	hub     *events.Hub
	logger  *logging.Logger
	metrics *metrics.Registry
	cfg     *ServerConfig
	mux     *http.ServeMux

	mu      sync.Mutex
	srv     *http.Server
	closing chan struct{}
	closed  bool

	// watchers tracks hijacked WebSocket connections, which http.Server.Shutdown does not wait for.
	watchers sync.WaitGroup
}

// NewServer creates a new API server with the provided options
func NewServer(opts ServerOptions) (*Server, error) {
	if opts.ControlPlane == nil {
		return nil, errors.New("api: control plane is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = DefaultServerConfig()
	}

	s := &Server{
		cp:      opts.ControlPlane,
		hub:     opts.ControlPlane.Hub(),
		logger:  logger.WithComponent("api"),
		metrics: opts.Metrics,
		cfg:     cfg,
		mux:     http.NewServeMux(),
		closing: make(chan struct{}),
	}
	s.initRoutes()
	return s, nil
}

// initRoutes registers handlers by path only. Each handler switches on the
// method itself so that a mismatch is a 404 instead of the mux's 405.
func (s *Server) initRoutes() {
	s.mux.HandleFunc("/routes", s.handleRoutes)
	s.mux.HandleFunc("/routes/watch", s.handleWatch)
	s.mux.HandleFunc("/stats", s.handleStats)
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		notFound(w)
	})
}

// Handler returns the HTTP handler with middleware applied.
func (s *Server) Handler() http.Handler {
	// Chain: requestCounter -> accessLog -> exactPaths -> Mux
	return s.requestCounter(s.accessLog(exactPaths(s.mux)))
}

// exactPaths answers 404 for paths ServeMux would redirect to their
// cleaned form, such as "//routes" or "/routes/../routes".
func exactPaths(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p := r.URL.Path; p != "" && p != "*" && path.Clean(p) != p {
			notFound(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Serve accepts connections on ln until Shutdown. It returns nil after a
// clean shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return http.ErrServerClosed
	}
	s.srv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		IdleTimeout:       s.cfg.IdleTimeout,
		MaxHeaderBytes:    s.cfg.MaxHeaderBytes,
	}
	srv := s.srv
	s.mu.Unlock()

	if s.cfg.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, s.cfg.MaxConnections)
	}

	s.logger.Info("API server listening", "addr", ln.Addr().String())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ln)
}

// Shutdown stops accepting requests, closes watch streams and waits for
// in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.closing)
	}
	srv := s.srv
	s.mu.Unlock()

	var err error
	if srv != nil {
		err = srv.Shutdown(ctx)
	}

	done := make(chan struct{})
	go func() {
		s.watchers.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		if err == nil {
			err = ctx.Err()
		}
	}

	s.logger.Info("API server stopped")
	return err
}
