// Package server provides the HTTP server and routing for the decay-dynamics service.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/kimkyngt/decay-dynamics/internal/config"
	"github.com/kimkyngt/decay-dynamics/internal/database"
	"github.com/kimkyngt/decay-dynamics/internal/modules/coupling"
	couplinghandlers "github.com/kimkyngt/decay-dynamics/internal/modules/coupling/handlers"
	"github.com/kimkyngt/decay-dynamics/internal/modules/geometry"
	geometryhandlers "github.com/kimkyngt/decay-dynamics/internal/modules/geometry/handlers"
	"github.com/kimkyngt/decay-dynamics/internal/modules/operators"
	operatorshandlers "github.com/kimkyngt/decay-dynamics/internal/modules/operators/handlers"
)

// Config holds server configuration
type Config struct {
	Log             zerolog.Logger
	DB              *database.DB
	Config          *config.Config
	Port            int
	DevMode         bool
	OperatorService *operators.Service
	GeometryService *geometry.Service
	CouplingService *coupling.Service
}

// Server represents the HTTP server
type Server struct {
	router          *chi.Mux
	server          *http.Server
	log             zerolog.Logger
	db              *database.DB
	cfg             *config.Config
	operatorService *operators.Service
	geometryService *geometry.Service
	couplingService *coupling.Service
	systemHandlers  *SystemHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:          chi.NewRouter(),
		log:             cfg.Log.With().Str("component", "server").Logger(),
		db:              cfg.DB,
		cfg:             cfg.Config,
		operatorService: cfg.OperatorService,
		geometryService: cfg.GeometryService,
		couplingService: cfg.CouplingService,
	}

	s.systemHandlers = NewSystemHandlers(cfg.Log, cfg.DB, cfg.CouplingService)

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// Timeout
	s.router.Use(middleware.Timeout(60 * time.Second))

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	// Health check
	s.router.Get("/health", s.handleHealth)

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		// System monitoring and maintenance
		r.Route("/system", func(r chi.Router) {
			r.Get("/status", s.systemHandlers.HandleSystemStatus)
			r.Get("/database/stats", s.systemHandlers.HandleDatabaseStats)

			r.Route("/maintenance", func(r chi.Router) {
				r.Post("/cache-cleanup", s.systemHandlers.HandleCacheCleanup)
				r.Post("/prune-runs", s.systemHandlers.HandlePruneRuns)
				r.Post("/wal-checkpoint", s.systemHandlers.HandleWALCheckpoint)
			})
		})

		// Operator construction
		operatorsHandler := operatorshandlers.NewHandler(s.operatorService, s.log)
		operatorsHandler.RegisterRoutes(r)

		// Geometry sampling
		geometryHandler := geometryhandlers.NewHandler(s.geometryService, s.log)
		geometryHandler.RegisterRoutes(r)

		// Coupling matrices and runs
		couplingHandler := couplinghandlers.NewHandler(s.couplingService, s.log)
		couplingHandler.RegisterRoutes(r)
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// Router exposes the router for tests.
func (s *Server) Router() chi.Router {
	return s.router
}

// loggingMiddleware logs each request with its status and timing
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
