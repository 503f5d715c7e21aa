// Package httpapi exposes the translation pipeline over HTTP.
//
// Routes:
//
//	POST /query    body: IR JSON → {"sql", "explanation"}
//	GET  /schema   tables, columns with declared types, foreign keys
//	GET  /healthz  liveness
//
// Validation failures are 400 with {"detail", "code"}; catalog failures are
// 500. Every response carries X-Request-ID; /query responses also carry
// X-IR-Fingerprint.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/roach88/irgate/internal/catalog"
	"github.com/roach88/irgate/internal/translate"
)

const defaultMaxBodyBytes = 1 << 20

// Options configures the handler.
type Options struct {
	Logger       *slog.Logger
	CORSOrigins  []string // empty disables CORS headers
	MaxBodyBytes int64    // 0 means 1 MiB
}

// Server routes HTTP requests to the translation service.
type Server struct {
	svc     *translate.Service
	schema  catalog.Schema
	logger  *slog.Logger
	maxBody int64
	router  chi.Router
}

// NewServer builds the router. schema backs GET /schema and is usually the
// same catalog the service validates against.
func NewServer(svc *translate.Service, schema catalog.Schema, opts Options) *Server {
	s := &Server{
		svc:     svc,
		schema:  schema,
		logger:  opts.Logger,
		maxBody: opts.MaxBodyBytes,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.maxBody <= 0 {
		s.maxBody = defaultMaxBodyBytes
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(accessLog(s.logger))
	r.Use(chimw.Recoverer)
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", RequestIDHeader},
			ExposedHeaders: []string{RequestIDHeader, FingerprintHeader},
			MaxAge:         300,
		}))
	}

	r.Post("/query", s.handleQuery)
	r.Get("/schema", s.handleSchema)
	r.Get("/healthz", s.handleHealth)

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully, waiting up to 10 seconds for in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context, addr string, readTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: readTimeout,
		ReadTimeout:       readTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
