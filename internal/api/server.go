// Package api exposes the projection engine and the per-user planning
// workspaces over HTTP.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rpgo/lifedash/internal/config"
	"github.com/rpgo/lifedash/internal/identity"
	"github.com/rpgo/lifedash/internal/planning"
	"go.uber.org/zap"
)

// Options tune the router.
type Options struct {
	CORSOrigins []string
	// MetricsPath serves Gatherer when both are set.
	MetricsPath string
	Gatherer    prometheus.Gatherer
}

// Server holds the handlers' collaborators.
type Server struct {
	sessions *planning.Sessions
	tokens   *identity.TokenVerifier
	params   *config.InputParser
	logger   *zap.Logger
	opts     Options
}

// NewServer returns a server over the user workspaces in sessions.
func NewServer(sessions *planning.Sessions, tokens *identity.TokenVerifier, logger *zap.Logger, opts Options) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		sessions: sessions,
		tokens:   tokens,
		params:   config.NewInputParser(),
		logger:   logger,
		opts:     opts,
	}
}

// Handler configures all routes and middleware.
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(RequestLogger(s.logger))

	origins := s.opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	router.Get("/health", s.healthCheck)
	if s.opts.MetricsPath != "" && s.opts.Gatherer != nil {
		router.Handle(s.opts.MetricsPath, promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Post("/projection", s.projection)
		r.Get("/social-security", s.socialSecurity)
		r.Post("/budget/summary", s.budgetSummary)

		r.Group(func(r chi.Router) {
			r.Use(Authenticate(s.tokens))
			r.Get("/planning", s.getPlanning)
			r.Post("/planning/recompute", s.recompute)
			r.Get("/planning/history", s.history)
			r.Get("/budget", s.getBudget)
			r.Put("/budget", s.putBudget)
		})
	})
	return router
}

func (s *Server) healthCheck(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// workspace returns the authenticated user's workspace.
func (s *Server) workspace(r *http.Request) (*planning.Workspace, string, bool) {
	uid, ok := UserFromContext(r.Context())
	if !ok {
		return nil, "", false
	}
	return s.sessions.For(uid), uid, true
}
