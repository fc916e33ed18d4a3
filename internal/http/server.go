package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/davidbz/kiln/internal/config"
	"github.com/davidbz/kiln/internal/http/middleware"
	"github.com/davidbz/kiln/internal/observability"
)

const shutdownGrace = 10 * time.Second

// Server represents the HTTP server.
type Server struct {
	config      *config.ServerConfig
	handler     *Handler
	middlewares middleware.Set

	mu  sync.Mutex
	srv *http.Server
}

// NewServer creates a new HTTP server.
func NewServer(
	cfg *config.ServerConfig,
	handler *Handler,
	middlewares middleware.Set,
) *Server {
	return &Server{
		config:      cfg,
		handler:     handler,
		middlewares: middlewares,
		mu:          sync.Mutex{},
		srv:         nil,
	}
}

// Routes builds the routing table. Completion routes exist only for the
// completion types with a registered generator.
func (s *Server) Routes(ctx context.Context) (http.Handler, error) {
	active, err := s.handler.generators.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list completion types: %w", err)
	}

	enabled := make(map[string]bool, len(active))
	for _, completionType := range active {
		enabled[string(completionType)] = true
	}

	logger := observability.FromContext(ctx)
	mux := http.NewServeMux()

	for _, route := range completionRoutes {
		if !enabled[string(route.completionType)] {
			continue
		}
		handler := s.wrap(s.middlewares.Completion, s.handler.HandleCompletion(route))
		for _, path := range route.paths {
			mux.Handle("POST "+path, handler)
			logger.Info("route registered",
				observability.String("path", path),
				observability.String("completion_type", string(route.completionType)))
		}
	}

	getFeedback := s.wrap(s.middlewares.Feedback, http.HandlerFunc(s.handler.HandleGetFeedback))
	postFeedback := s.wrap(s.middlewares.Feedback, http.HandlerFunc(s.handler.HandlePostFeedback))
	for _, path := range []string{"/feedback", "/feedback/{$}"} {
		mux.Handle("GET "+path, getFeedback)
		mux.Handle("POST "+path, postFeedback)
	}

	mux.HandleFunc("GET /health", s.handler.HandleHealth)

	return s.wrap(s.middlewares.Global, mux), nil
}

func (s *Server) wrap(mw middleware.Middleware, handler http.Handler) http.Handler {
	if mw == nil {
		return handler
	}
	return mw(handler)
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start(ctx context.Context) error {
	routes, err := s.Routes(ctx)
	if err != nil {
		return err
	}

	// Create server with timeouts.
	srv := &http.Server{
		Addr:              s.config.Addr(),
		Handler:           routes,
		ReadHeaderTimeout: time.Duration(s.config.ReadTimeout) * time.Second,
		ReadTimeout:       time.Duration(s.config.ReadTimeout) * time.Second,
		WriteTimeout:      time.Duration(s.config.WriteTimeout) * time.Second,
	}

	s.mu.Lock()
	s.srv = srv
	s.mu.Unlock()

	if ctx.Err() != nil {
		return nil
	}

	logger := observability.FromContext(ctx)
	logger.Info("starting HTTP server",
		observability.String("addr", s.config.Addr()),
		observability.Bool("tls", s.config.TLSEnabled()))

	if s.config.TLSEnabled() {
		err = srv.ListenAndServeTLS(s.config.TLSCertFile, s.config.TLSKeyFile)
	} else {
		err = srv.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	observability.FromContext(ctx).Info("shutting down HTTP server")

	s.mu.Lock()
	srv := s.srv
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, shutdownGrace)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}
