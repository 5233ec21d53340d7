// Package http assembles the API surface of the marketplace: identity
// sync, the dashboard redirect bridge, checkout and subscription reads.
package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"signalmarket/internal/config"
	"signalmarket/internal/http/middlewarectx"
)

// Handlers carries the wired endpoint handlers.
type Handlers struct {
	AuthSync     http.Handler
	AuthCallback http.Handler
	Checkout     http.Handler
	SubsCurrent  http.Handler
}

func NewRouter(cfg config.APIServerConfig, logger *slog.Logger, h Handlers) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middlewarectx.MetricsMiddleware)
	r.Use(middlewarectx.RateLimitMiddleware(logger, cfg.RateLimitRPS, cfg.RateBurst))

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/sync", h.AuthSync.ServeHTTP)
		r.Get("/auth/callback", h.AuthCallback.ServeHTTP)
		r.Post("/payments/checkout", h.Checkout.ServeHTTP)
		r.Get("/subscriptions/current", h.SubsCurrent.ServeHTTP)
	})

	return r
}
