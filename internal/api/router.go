// Surveyor Tracking Backend - Field Surveyor Presence and Live Location
// Copyright 2026 NeoGeo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/neogeo/surveyor-tracking

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/neogeo/surveyor-tracking/internal/auth"
	"github.com/neogeo/surveyor-tracking/internal/middleware"
	"github.com/neogeo/surveyor-tracking/internal/models"
)

// Router assembles the HTTP routes.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
	jwtManager    *auth.JWTManager
}

// NewRouter creates the router. jwtManager may be nil when auth mode is
// "none"; dashboard routes are then served without authentication.
func NewRouter(handler *Handler, chiMw *ChiMiddleware, jwtManager *auth.JWTManager) *Router {
	return &Router{
		handler:       handler,
		chiMiddleware: chiMw,
		jwtManager:    jwtManager,
	}
}

// chiMiddleware adapts http.HandlerFunc middleware to Chi's
// func(http.Handler) http.Handler signature.
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// Setup configures all routes and returns the root handler.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global stack, applied to every route in order.
	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())

	// Health probes: permissive rate limit, no auth.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	// Login: strict per-IP limit against brute force.
	r.With(
		router.chiMiddleware.RateLimitLogin(),
		chiMiddleware(middleware.PrometheusMetrics),
	).Post("/api/v1/surveyors/login", router.handler.Login)

	// Live location ingest: Basic credentials per request, verified
	// inside the ingest pipeline rather than by session middleware.
	r.With(
		router.chiMiddleware.RateLimitIngest(),
		chiMiddleware(middleware.PrometheusMetrics),
	).Post("/api/v1/live/location", router.handler.LiveUpdate)

	// Live feed: no PrometheusMetrics wrapper. The upgrade needs the
	// raw http.Hijacker, which wrapped writers do not implement.
	r.With(router.chiMiddleware.RateLimit()).
		Get("/api/v1/live/ws", router.handler.LiveFeed)

	// Dashboard routes: JWT session required.
	r.Route("/api/v1/surveyors", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(auth.RequireJWT(router.jwtManager))

		r.Get("/", router.handler.ListSurveyors)
		r.Get("/status", router.handler.SurveyorStatuses)
		r.Get("/check-username", router.handler.CheckUsername)
		r.Post("/filter", router.handler.FilterSurveyors)
		r.Post("/{id}/activity", router.handler.SurveyorActivity)

		// Roster writes are admin only.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(models.RoleAdmin))
			r.Post("/", router.handler.CreateSurveyor)
			r.Put("/{id}", router.handler.UpdateSurveyor)
		})
	})

	r.Route("/api/v1/location", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(auth.RequireJWT(router.jwtManager))

		r.Get("/{id}/latest", router.handler.LatestLocation)
		r.Get("/{id}/track", router.handler.TrackHistory)
	})

	// Prometheus scrape endpoint.
	r.Handle("/metrics", promhttp.Handler())

	return r
}
