// Surveyor Tracking Backend - Field Surveyor Presence and Live Location
// Copyright 2026 NeoGeo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/neogeo/surveyor-tracking

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/neogeo/surveyor-tracking/internal/config"
)

// ChiMiddleware bundles CORS and rate limiting configuration for the
// router. Rate limits are keyed by IP; the surveyor-level ingest limiter
// in ratelimit.go is separate.
type ChiMiddleware struct {
	cfg  config.SecurityConfig
	cors func(http.Handler) http.Handler
}

// NewChiMiddleware builds the middleware bundle from security settings.
func NewChiMiddleware(cfg config.SecurityConfig) *ChiMiddleware {
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	})

	return &ChiMiddleware{cfg: cfg, cors: corsHandler}
}

// CORS returns the CORS middleware. Global so OPTIONS preflight works on
// every route.
func (m *ChiMiddleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

// RateLimit returns the general API rate limit from configuration.
func (m *ChiMiddleware) RateLimit() func(http.Handler) http.Handler {
	if m.cfg.RateLimitDisabled {
		return passthrough
	}
	reqs := m.cfg.RateLimitReqs
	if reqs <= 0 {
		reqs = 100
	}
	window := m.cfg.RateLimitWindow
	if window <= 0 {
		window = time.Minute
	}
	return httprate.LimitByIP(reqs, window)
}

// RateLimitLogin returns the strict limit for the login endpoint.
// Brute-force protection: 5 attempts per 5 minutes per IP.
func (m *ChiMiddleware) RateLimitLogin() func(http.Handler) http.Handler {
	if m.cfg.RateLimitDisabled {
		return passthrough
	}
	return httprate.LimitByIP(5, 5*time.Minute)
}

// RateLimitIngest returns the per-IP limit for live location updates.
// Generous because several devices can share a NAT address.
func (m *ChiMiddleware) RateLimitIngest() func(http.Handler) http.Handler {
	if m.cfg.RateLimitDisabled {
		return passthrough
	}
	return httprate.LimitByIP(600, time.Minute)
}

// RateLimitHealth returns the permissive limit for health probes.
func (m *ChiMiddleware) RateLimitHealth() func(http.Handler) http.Handler {
	if m.cfg.RateLimitDisabled {
		return passthrough
	}
	return httprate.LimitByIP(1000, time.Minute)
}

func passthrough(next http.Handler) http.Handler {
	return next
}
