// Geowatch - Live Telemetry Fusion and Geographic Visualization
// Copyright 2026 Geowatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geowatch/geowatch

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/geowatch/geowatch/internal/config"
	"github.com/geowatch/geowatch/internal/middleware"
)

// NewRouter builds the full HTTP surface around the handler.
func NewRouter(cfg *config.Config, handler *Handler) http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.API.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.PrometheusMetrics)

		// Health probes get permissive rate limiting so monitors can
		// poll freely.
		r.Route("/health", func(r chi.Router) {
			r.Use(httprate.LimitByIP(1000, cfg.API.RateLimitWindow))
			r.Get("/", handler.Health)
			r.Get("/live", handler.HealthLive)
			r.Get("/ready", handler.HealthReady)
		})

		r.Group(func(r chi.Router) {
			r.Use(httprate.LimitByIP(cfg.API.RateLimitReqs, cfg.API.RateLimitWindow))
			r.Use(middleware.Compression)

			r.Route("/geo", func(r chi.Router) {
				r.Get("/flights", handler.Flights)
				r.Get("/vessels", handler.Vessels)
				r.Get("/tiles/{z}/{x}/{y}", handler.TileDocument)
				r.Get("/index", handler.TileIndex)
				r.Get("/segment", handler.Segment)
				r.Post("/analyze-upload", handler.AnalyzeUpload)
			})
		})

		// The websocket route skips compression; the hijacked connection
		// must not be wrapped.
		r.Get("/ws", handler.WebSocket)
	})

	return r
}
