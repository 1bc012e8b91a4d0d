// Tidewatch - Live Maritime Conditions Map
// Copyright 2026 Tidewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tidewatch/tidewatch

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tidewatch/tidewatch/internal/middleware"
)

// NewRouter builds the chi router. Middleware order matters: request ID
// first so every later log line carries it, recoverer before anything that
// can panic, CORS globally, rate limits only on the API group.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Prometheus)
		r.Use(httprate.LimitByIP(120, time.Minute))

		r.Get("/vessels", h.Vessels)
		r.Get("/aqi", h.AQI)
		r.Get("/waves", h.Waves)
		r.Get("/cyclones", h.Cyclones)
	})

	return r
}
