package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hongminglow/horoscope-be/internal/auth"
	"github.com/hongminglow/horoscope-be/internal/config"
	"github.com/hongminglow/horoscope-be/internal/gate"
	"github.com/hongminglow/horoscope-be/internal/http/handlers"
	"github.com/hongminglow/horoscope-be/internal/middleware"
	"github.com/hongminglow/horoscope-be/internal/profile"
	"github.com/hongminglow/horoscope-be/internal/reading"
	"github.com/hongminglow/horoscope-be/internal/session"
)

// Deps are the services the HTTP surface is built on.
type Deps struct {
	Profiles *profile.Store
	Sessions *session.Manager
	Readings *reading.Service
	Gate     *gate.Gate
	Tokens   *auth.TokenManager
	Identity handlers.IdentityFetcher
}

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, deps Deps) *Server {
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           Routes(cfg, deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// completion calls may take up to the configured timeout
		WriteTimeout: cfg.Completion.Timeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return &Server{inner: httpServer}
}

// Routes builds the router.
func Routes(cfg config.Config, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins()))

	handlers.NewHealthHandler(time.Now(), cfg.Platform, cfg.Storage.Backend).Register(r)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	authn := middleware.Authenticate(deps.Tokens)
	handlers.NewAuthHandler(deps.Identity, deps.Tokens, deps.Sessions, deps.Readings).Register(r, authn)

	r.Group(func(r chi.Router) {
		r.Use(authn)
		handlers.NewProfileHandler(deps.Sessions, cfg.CORSOrigins()).Register(r)
		handlers.NewFeaturesHandler(deps.Sessions, deps.Gate).Register(r)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(cfg.RateLimitPerMinute))
			handlers.NewReadingsHandler(deps.Sessions, deps.Readings, deps.Gate).Register(r)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdminKey(cfg.AdminAPIKey))
		handlers.NewAdminHandler(deps.Profiles, deps.Sessions).Register(r)
	})

	return r
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
