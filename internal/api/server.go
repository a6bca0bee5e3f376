// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package api wires together the HTTP router, middleware chain, and all
domain handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It acts as the central composition root for the HTTP transport framework (chi router).
  - Only this package and cmd/api are allowed to import net/http server primitives.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/taibuivan/crewdesk/internal/core/event"
	"github.com/taibuivan/crewdesk/internal/platform/config"
	"github.com/taibuivan/crewdesk/internal/platform/constants"
	"github.com/taibuivan/crewdesk/internal/platform/metrics"
	"github.com/taibuivan/crewdesk/internal/platform/middleware"
	"github.com/taibuivan/crewdesk/internal/users/account"
	"github.com/taibuivan/crewdesk/internal/users/auth"
	"github.com/taibuivan/crewdesk/internal/users/role"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main.go with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// Handlers groups all domain-specific HTTP handler sets.
type Handlers struct {
	Health HealthHandlers

	// Auth serves the sign-in pages and the OAuth callback.
	Auth *auth.Handler

	// Account is the caller's profile, password and sessions.
	Account *account.Handler

	// Events manages events and their teams.
	Events *event.Handler

	// Roles grants and revokes roles.
	Roles *role.Handler
}

// Dependencies are the cross-cutting services the middleware chain needs.
type Dependencies struct {
	Config   *config.Config
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Resolver middleware.IdentityResolver
	Sessions middleware.SessionLookup
	Limiter  middleware.Limiter

	// Bypass admits local debug identities past the gate. May be nil.
	Bypass middleware.Bypass

	// Proxies whose forwarding headers are believed. The zero value trusts none.
	Proxies middleware.TrustedProxies
}

// # Server Initialization

/*
NewServer constructs the chi router with the full middleware chain and
registers all route groups.

ctx bounds the background work of the middleware (the API throttle cleanup).
*/
func NewServer(ctx context.Context, deps Dependencies, h Handlers) *Server {
	r := chi.NewRouter()

	// # Middleware Chain
	// Global middleware applied in order of execution. The gate runs last so
	// every page handler sees a trusted X-Pathname.
	r.Use(middleware.RequestID())
	r.Use(middleware.ClientIP(deps.Proxies))
	r.Use(middleware.StructuredLogger(deps.Logger))
	r.Use(deps.Metrics.Instrument)
	r.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	r.Use(middleware.PanicRecovery(deps.Logger))
	r.Use(middleware.CORS(deps.Config))
	r.Use(chimw.CleanPath)
	r.Use(middleware.Gate(middleware.GateConfig{
		Sessions:    deps.Sessions,
		Limiter:     deps.Limiter,
		Bypass:      deps.Bypass,
		PublicPages: h.Auth.PublicPages(),
	}))

	// # Infrastructure Endpoints
	// Unauthenticated probes for container orchestration and scraping.
	r.Get("/health", h.Health.Liveness)
	r.Get("/ready", h.Health.Readiness)
	r.Handle("/metrics", deps.Metrics.Handler())

	// # Pages
	h.Auth.RegisterPages(r)
	registerPages(r, deps.Resolver)

	// # Application API
	// The gate lets /api through; each handler authorises its own callers.
	r.Route(constants.PathAPIPrefix, func(api chi.Router) {
		api.Use(middleware.Throttle(ctx, constants.DefaultRateLimitRPS, constants.DefaultRateLimitBurst))

		api.Get("/ping", h.Health.Ping)
		api.Get("/me", me(deps.Resolver))
		api.Mount("/auth", h.Auth.APIRoutes())
		api.With(middleware.RequireIdentity(deps.Resolver)).Mount("/account", h.Account.Routes())
		api.Mount("/users", h.Roles.Routes())
		api.Mount("/events", h.Events.Routes())
	})

	return &Server{
		router: r,
		log:    deps.Logger,
		httpServer: &http.Server{
			Addr:              ":" + deps.Config.ServerPort,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// Handler exposes the router. Used by tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server_starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
