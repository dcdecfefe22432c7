package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/me-e6/pengine/internal/history"
	"github.com/me-e6/pengine/internal/knowledge"
	"github.com/me-e6/pengine/internal/logging"
	"github.com/me-e6/pengine/internal/reasoning"
	"github.com/me-e6/pengine/internal/render"
)

// Config holds server configuration.
type Config struct {
	Port           int
	AllowedOrigins []string // CORS origins; "*" allows all
	PersistDir     string   // where the knowledge store is saved after uploads
}

// Deps are the feature components the server exposes. History and the
// knowledge fields are optional; their routes are skipped when nil.
type Deps struct {
	Engine    *reasoning.Engine
	History   *history.Store
	Store     knowledge.Store
	Retriever *knowledge.Retriever
	Tagger    knowledge.Tagger
}

// Server is the pengine HTTP API.
type Server struct {
	cfg        Config
	deps       Deps
	logger     *zap.Logger
	router     chi.Router
	httpServer *http.Server
}

// New creates a server with every feature route mounted.
func New(cfg Config, deps Deps, logger *zap.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		deps:   deps,
		logger: logging.OrNop(logger),
	}

	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	// CORS
	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: !containsWildcard(origins),
		MaxAge:           300,
	}))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		datasets := 0
		if s.deps.Store != nil {
			datasets = s.deps.Store.Count()
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"ok","datasets":%d}`, datasets)
	})

	var recorder reasoning.Recorder
	if s.deps.History != nil {
		recorder = s.deps.History
		history.RegisterRoutes(r, s.deps.History)
	}

	if s.deps.Engine != nil {
		reasoning.RegisterRoutes(r, reasoning.RouteDeps{
			Engine:   s.deps.Engine,
			Recorder: recorder,
			Render:   func(res *reasoning.Result) any { return render.FromResult(res) },
			Logger:   s.logger,
		})
	}

	if s.deps.Store != nil && s.deps.Retriever != nil {
		// The query stream is long-lived, so the timeout is scoped to this group.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))
			knowledge.RegisterRoutes(r, knowledge.RouteDeps{
				Store:      s.deps.Store,
				Retriever:  s.deps.Retriever,
				Tagger:     s.deps.Tagger,
				PersistDir: s.cfg.PersistDir,
				Logger:     s.logger,
			})
		})
	}

	return r
}

// Router returns the chi router for registering additional routes.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("pengine server listening", zap.String("addr", addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// requestLogger logs one line per request with its status and latency.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
