// Package server provides the HTTP server and routing for Wheelhouse.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/wheelhouse-labs/wheelhouse/internal/config"
	"github.com/wheelhouse-labs/wheelhouse/internal/modules/history"
	historyhandlers "github.com/wheelhouse-labs/wheelhouse/internal/modules/history/handlers"
	"github.com/wheelhouse-labs/wheelhouse/internal/modules/portfolio"
	portfoliohandlers "github.com/wheelhouse-labs/wheelhouse/internal/modules/portfolio/handlers"
	"github.com/wheelhouse-labs/wheelhouse/internal/modules/scanner"
	scannerhandlers "github.com/wheelhouse-labs/wheelhouse/internal/modules/scanner/handlers"
	"github.com/wheelhouse-labs/wheelhouse/internal/modules/sentiment"
	sentimenthandlers "github.com/wheelhouse-labs/wheelhouse/internal/modules/sentiment/handlers"
	"github.com/wheelhouse-labs/wheelhouse/internal/modules/stocks"
	stockshandlers "github.com/wheelhouse-labs/wheelhouse/internal/modules/stocks/handlers"
	"github.com/wheelhouse-labs/wheelhouse/internal/scheduler"
)

// Config holds server dependencies.
type Config struct {
	Log              zerolog.Logger
	Config           *config.Config
	ScannerService   *scanner.Service
	PortfolioService *portfolio.Service
	StocksService    *stocks.Service
	SentimentService *sentiment.Service
	HistoryRepo      *history.Repository
	Scheduler        *scheduler.Scheduler
}

// Server represents the HTTP server.
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            *config.Config
	systemHandlers *SystemHandlers
	deps           Config
}

// New creates a new HTTP server.
func New(cfg Config) *Server {
	s := &Server{
		router:         chi.NewRouter(),
		log:            cfg.Log.With().Str("component", "server").Logger(),
		cfg:            cfg.Config,
		systemHandlers: NewSystemHandlers(cfg.Config.DataDir, cfg.Scheduler, cfg.Log),
		deps:           cfg,
	}

	s.setupMiddleware(cfg.Config.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(120 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/system", func(r chi.Router) {
			r.Get("/status", s.systemHandlers.HandleSystemStatus)
			r.Get("/jobs", s.systemHandlers.HandleJobsStatus)
			r.Post("/jobs/{name}", s.systemHandlers.HandleTriggerJob)
			r.Get("/database/stats", s.systemHandlers.HandleDatabaseStats)
		})

		scannerHandler := scannerhandlers.NewHandler(s.deps.ScannerService, s.cfg.Symbols, s.log)
		scannerHandler.RegisterRoutes(r)

		portfolioHandler := portfoliohandlers.NewHandler(s.deps.PortfolioService, s.cfg.Symbols, s.cfg.MaxGroupSymbols, s.log)
		portfolioHandler.RegisterRoutes(r)

		stocksHandler := stockshandlers.NewHandler(s.deps.StocksService, s.cfg.Symbols, s.log)
		stocksHandler.RegisterRoutes(r)

		sentimentHandler := sentimenthandlers.NewHandler(s.deps.SentimentService, s.log)
		sentimentHandler.RegisterRoutes(r)

		historyHandler := historyhandlers.NewHandler(s.deps.HistoryRepo, s.log)
		historyHandler.RegisterRoutes(r)
	})
}

// handleHealth is a minimal liveness check.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
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
