package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/me/reel/internal/config"
	"github.com/me/reel/internal/scenario"
	"github.com/me/reel/internal/script"
	"github.com/me/reel/internal/session"
	"github.com/me/reel/internal/store"
)

// Server is the reel REST API server.
type Server struct {
	router    chi.Router
	logger    *slog.Logger
	config    config.ServerConfig
	startTime time.Time
	parser    *scenario.Parser
	validator *scenario.Validator
	store     store.Store
	sessions  *session.Manager
}

// New creates a new Server with all routes registered. eval is shared
// with the session manager's builder so programs compiled during
// validation are reused when a session is built.
func New(cfg config.ServerConfig, st store.Store, sessions *session.Manager, eval *script.Evaluator, logger *slog.Logger) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		logger:    logger.With("component", "server"),
		config:    cfg,
		startTime: time.Now(),
		parser:    scenario.NewParser(logger),
		validator: scenario.NewValidator(eval, logger),
		store:     st,
		sessions:  sessions,
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.logger))

	// API routes (JSON)
	r.Route("/api/v1", func(r chi.Router) {
		// Discovery
		r.Get("/", s.handleDiscovery)

		// Health
		r.Get("/health", s.handleHealth)

		// Scenario catalog
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", s.handleListScenarios)
			r.Post("/", s.handleCreateScenario)
			r.Post("/validate", s.handleValidateScenario)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetScenario)
				r.Put("/", s.handleUpdateScenario)
				r.Delete("/", s.handleDeleteScenario)
			})
		})

		// Live sessions
		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", s.handleListSessions)
			r.Post("/", s.handleCreateSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Post("/ctl", s.handleControlSession)
				r.Delete("/", s.handleDeleteSession)
			})
		})

		// SSE endpoints for real-time updates
		r.Route("/sse", func(r chi.Router) {
			r.Get("/sessions/{id}", s.handleSSESession)
		})
	})
}
