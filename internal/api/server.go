// Copyright (c) 2026 SignOn. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package api composes the HTTP server.

It assembles the middleware chain, mounts the auth flows under /api, and
exposes the operational endpoints (/health, /ready, /metrics) outside the
CORS guard.
*/
package api

import (
	stdctx "context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/signon/internal/platform/constants"
	"github.com/taibuivan/signon/internal/platform/metrics"
	"github.com/taibuivan/signon/internal/platform/middleware"
	"github.com/taibuivan/signon/internal/users/auth"
)

// Server is the composed HTTP server.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// Options carries the composition inputs for [NewServer].
type Options struct {
	Port           string
	AllowedOrigins []string
	IsDevelopment  bool
	AuthHandler    *auth.Handler
	Pool           *pgxpool.Pool
	Redis          *redis.Client
	Logger         *slog.Logger
}

// NewServer assembles the router and middleware chain.
func NewServer(options Options) *Server {
	router := chi.NewRouter()

	router.Use(middleware.RequestID())
	router.Use(middleware.StructuredLogger(options.Logger))
	router.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	router.Use(middleware.PanicRecovery(options.Logger))
	router.Use(metrics.Instrument)

	// Operational endpoints sit outside the CORS guard: probes and scrapers
	// send no Origin header anyway, and must never be origin-gated.
	router.Get("/health", handleHealth)
	router.Get("/ready", handleReady(options.Pool, options.Redis))
	router.Method(http.MethodGet, "/metrics", metrics.Handler())

	router.Group(func(guarded chi.Router) {
		guarded.Use(middleware.CORS(options.AllowedOrigins, options.IsDevelopment))
		guarded.Mount("/api", options.AuthHandler.Routes())
	})

	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + options.Port,
			Handler:           router,
			ReadTimeout:       constants.DefaultReadTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
		},
		logger: options.Logger,
	}
}

// ListenAndServe starts accepting connections. It blocks until the server
// stops and returns [http.ErrServerClosed] on clean shutdown.
func (server *Server) ListenAndServe() error {
	server.logger.Info("http_server_started", slog.String("addr", server.httpServer.Addr))
	return server.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the server.
func (server *Server) Shutdown(context stdctx.Context) error {
	server.logger.Info("http_server_stopping")
	return server.httpServer.Shutdown(context)
}
