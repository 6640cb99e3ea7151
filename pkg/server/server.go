// Package server exposes layout resolution over HTTP.
//
// # Endpoints
//
//	POST  /v1/resolve                                   schema → layout JSON
//	POST  /v1/render?format=svg|html|json|png|pdf       schema → artifact
//	POST  /v1/lint                                      schema → issues and findings
//	PUT   /v1/schemas/{name}                            validate and store a snapshot
//	GET   /v1/schemas/{name}                            latest stored schema
//	GET   /v1/schemas/{name}/snapshots                  snapshot history, newest first
//	GET   /v1/schemas/{name}/layout                     resolve the latest snapshot
//	PATCH /v1/schemas/{name}/layers/{layer}/viewport    replace one layer's viewport
//	PATCH /v1/schemas/{name}/layers/{layer}/cells/{cell} patch one cell
//	GET   /healthz
//	GET   /version
//
// Request bodies are JSON unless Content-Type names YAML or TOML. Errors
// are JSON objects of the form
//
//	{"code": "CELL_BOUNDS", "message": "...", "issues": [{"code", "layer", "cell", "field", "message"}]}
//
// Validation failures (SCHEMA_STRUCTURE, VIEWPORT, CELL_BOUNDS) are reported
// with status 422 and list every problem found.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/gridlookout/pkg/content"
	"github.com/matzehuels/gridlookout/pkg/pipeline"
	"github.com/matzehuels/gridlookout/pkg/store"
)

// MaxBodyBytes caps request bodies.
const MaxBodyBytes = 4 << 20

// ShutdownTimeout bounds graceful shutdown in [Server.ListenAndServe].
const ShutdownTimeout = 10 * time.Second

// Server serves the HTTP API. Create it with [New].
type Server struct {
	runner *pipeline.Runner
	store  store.Store
	logger *log.Logger
	base   pipeline.Options
	router chi.Router
	locks  sync.Map // schema name → *sync.Mutex
}

// Option configures a Server.
type Option func(*Server)

// WithStore sets the snapshot store. The default is an in-memory store.
func WithStore(st store.Store) Option { return func(s *Server) { s.store = st } }

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option { return func(s *Server) { s.logger = l } }

// WithContent sets the registry used to render cell content.
func WithContent(reg content.Registry) Option {
	return func(s *Server) { s.base.Content = reg }
}

// WithDefaults sets the pipeline options every request starts from. Query
// parameters override them per request.
func WithDefaults(o pipeline.Options) Option { return func(s *Server) { s.base = o } }

// New creates a server around runner. A nil runner uses an uncached one.
func New(runner *pipeline.Runner, opts ...Option) (*Server, error) {
	s := &Server{runner: runner}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	if s.runner == nil {
		s.runner = pipeline.NewRunner(nil, nil, s.logger)
	}
	if s.store == nil {
		s.store = store.NewMemoryStore()
	}
	if s.base.Logger == nil {
		s.base.Logger = s.logger
	}
	if err := pipeline.PrepareContent(&s.base); err != nil {
		return nil, err
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Get("/version", s.handleVersion)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/resolve", s.handleResolve)
		r.Post("/render", s.handleRender)
		r.Post("/lint", s.handleLint)

		r.Route("/schemas/{name}", func(r chi.Router) {
			r.Put("/", s.handlePutSchema)
			r.Get("/", s.handleGetSchema)
			r.Get("/snapshots", s.handleListSnapshots)
			r.Get("/layout", s.handleSchemaLayout)
			r.Patch("/layers/{layer}/viewport", s.handlePatchViewport)
			r.Patch("/layers/{layer}/cells/{cell}", s.handlePatchCell)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, notFound("no route for %s %s", r.Method, r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{
			Code:    "METHOD_NOT_ALLOWED",
			Message: r.Method + " is not allowed on " + r.URL.Path,
		})
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close releases the store and the runner's cache.
func (s *Server) Close(ctx context.Context) error {
	return errors.Join(s.store.Close(ctx), s.runner.Close())
}
