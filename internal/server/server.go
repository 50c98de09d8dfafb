// Package server provides the HTTP server and routing for PortfolioDB.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/portfoliodb/portfoliodb/internal/di"
	developmentshandlers "github.com/portfoliodb/portfoliodb/internal/modules/developments/handlers"
	investmentshandlers "github.com/portfoliodb/portfoliodb/internal/modules/investments/handlers"
	ledgerhandlers "github.com/portfoliodb/portfoliodb/internal/modules/ledger/handlers"
	priceshandlers "github.com/portfoliodb/portfoliodb/internal/modules/prices/handlers"
	quoteshandlers "github.com/portfoliodb/portfoliodb/internal/modules/quotes/handlers"
	settingshandlers "github.com/portfoliodb/portfoliodb/internal/modules/settings/handlers"
	"github.com/portfoliodb/portfoliodb/internal/scheduler"
)

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	Addr      string
	DevMode   bool
	Container *di.Container // DI container with all services
}

// Server represents the HTTP server
type Server struct {
	router    *chi.Mux
	server    *http.Server
	log       zerolog.Logger
	container *di.Container
	jobs      map[string]scheduler.Job
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		container: cfg.Container,
		jobs:      make(map[string]scheduler.Job),
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes(cfg.Log)

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // batch quote syncs can be slow
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// SetJobs registers job instances for manual triggering via API
func (s *Server) SetJobs(jobs ...scheduler.Job) {
	for _, job := range jobs {
		if job != nil {
			s.jobs[job.Name()] = job
		}
	}
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

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
	s.router.Use(middleware.Timeout(110 * time.Second))

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

func (s *Server) setupRoutes(log zerolog.Logger) {
	s.router.Get("/health", s.handleHealth)

	c := s.container
	s.router.Route("/api", func(r chi.Router) {
		ledgerhandlers.NewHandler(c.MovementRepo, log).RegisterRoutes(r)
		investmentshandlers.NewHandler(c.InvestmentRepo, log).RegisterRoutes(r)
		priceshandlers.NewHandler(c.PriceStore, log).RegisterRoutes(r)
		settingshandlers.NewHandler(c.SettingsRepo, log).RegisterRoutes(r)
		developmentshandlers.NewHandler(c.DevelopmentCalculator, log).RegisterRoutes(r)
		quoteshandlers.NewHandler(c.QuoteFetcher, c.InvestmentRepo, c.PriceStore, log).RegisterRoutes(r)

		r.Get("/jobs", s.handleListJobs)
		r.Post("/jobs/{name}/run", s.handleRunJob)
	})
}

// Start starts the HTTP server. It blocks until the server stops.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

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
