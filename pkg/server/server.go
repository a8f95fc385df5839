package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/clausetree/pkg/pipeline"
)

const (
	// DefaultAddr is the listen address used when none is configured.
	DefaultAddr = "127.0.0.1:8080"

	// DefaultMaxBodyBytes bounds request bodies.
	DefaultMaxBodyBytes = 1 << 20

	// shutdownTimeout bounds graceful shutdown.
	shutdownTimeout = 10 * time.Second
)

// Config configures the HTTP server.
type Config struct {
	Addr          string
	MaxBodyBytes  int64
	RenderTimeout time.Duration // zero uses the pipeline default

	// Metrics, when set, is served at GET /metrics.
	Metrics http.Handler
}

func (c *Config) setDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
}

// Server serves the conversion API.
type Server struct {
	runner *pipeline.Runner
	logger *log.Logger
	cfg    Config
	router chi.Router
}

// New creates a server backed by runner. A nil logger uses log.Default().
func New(runner *pipeline.Runner, logger *log.Logger, cfg Config) *Server {
	if logger == nil {
		logger = log.Default()
	}
	cfg.setDefaults()
	s := &Server{runner: runner, logger: logger, cfg: cfg}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/version", s.handleVersion)
	if s.cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.cfg.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(limitBody(s.cfg.MaxBodyBytes))
		r.Post("/convert", s.handleConvert)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{
			Code:      "NOT_FOUND",
			Message:   fmt.Sprintf("no route for %s %s", r.Method, r.URL.Path),
			RequestID: RequestIDFrom(r.Context()),
		})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{
			Code:      "METHOD_NOT_ALLOWED",
			Message:   fmt.Sprintf("%s not allowed on %s", r.Method, r.URL.Path),
			RequestID: RequestIDFrom(r.Context()),
		})
	})
	return r
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.cfg.Addr
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
