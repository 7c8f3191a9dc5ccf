// Package server provides the HTTP server and routing for Watchtower.
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

	"github.com/skylease/watchtower/internal/config"
	"github.com/skylease/watchtower/internal/database"
	"github.com/skylease/watchtower/internal/di"
)

// Config holds server configuration.
type Config struct {
	Log         zerolog.Logger
	FleetDB     *database.DB
	PortfolioDB *database.DB
	CacheDB     *database.DB
	Config      *config.Config
	Port        int
	Container   *di.Container
}

// Server represents the HTTP server.
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            *config.Config
	container      *di.Container
	systemHandlers *SystemHandlers
}

// New creates a new HTTP server.
func New(cfg Config) *Server {
	systemHandlers := NewSystemHandlers(cfg.Log, cfg.Config.DataDir, cfg.FleetDB, cfg.PortfolioDB, cfg.CacheDB)

	s := &Server{
		router:         chi.NewRouter(),
		log:            cfg.Log.With().Str("component", "server").Logger(),
		cfg:            cfg.Config,
		container:      cfg.Container,
		systemHandlers: systemHandlers,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

// SystemHandlers exposes the system handlers for job registration.
func (s *Server) SystemHandlers() *SystemHandlers {
	return s.systemHandlers
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		s.container.RiskHandler.RegisterRoutes(r)
		s.container.PortfolioHandler.RegisterRoutes(r)

		r.Route("/system", func(r chi.Router) {
			r.Get("/health", s.systemHandlers.HandleHealth)
			r.Get("/resources", s.systemHandlers.HandleResources)
		})

		r.Route("/jobs", func(r chi.Router) {
			r.Post("/snapshot-refresh", s.systemHandlers.HandleTriggerSnapshotRefresh)
			r.Post("/fleet-sync", s.systemHandlers.HandleTriggerFleetSync)
			r.Post("/backup", s.systemHandlers.HandleTriggerBackup)
		})
	})
}

// Start begins listening for HTTP requests. Blocks until shutdown.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// Router exposes the chi router (used by tests).
func (s *Server) Router() http.Handler {
	return s.router
}
