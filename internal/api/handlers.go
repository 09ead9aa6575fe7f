// Surveyor Tracking Backend - Field Surveyor Presence and Live Location
// Copyright 2026 NeoGeo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/neogeo/surveyor-tracking

package api

import (
	"net/http"
	"time"

	"github.com/neogeo/surveyor-tracking/internal/auth"
	"github.com/neogeo/surveyor-tracking/internal/broadcast"
	"github.com/neogeo/surveyor-tracking/internal/config"
	"github.com/neogeo/surveyor-tracking/internal/database"
	"github.com/neogeo/surveyor-tracking/internal/ingest"
	"github.com/neogeo/surveyor-tracking/internal/presence"
)

// Handler processes HTTP requests. Route methods are split across
// handlers_surveyors.go, handlers_location.go and handlers_live.go.
type Handler struct {
	db         *database.DB
	cfg        *config.Config
	jwtManager *auth.JWTManager
	verifier   *auth.CredentialVerifier
	clock      *presence.Clock
	resolver   *presence.Resolver
	ingestor   *ingest.Ingestor
	hub        *broadcast.Hub
	limiter    *surveyorLimiter
	startTime  time.Time
}

// NewHandler creates the API handler with all required dependencies.
// jwtManager may be nil when auth mode is "none".
func NewHandler(
	db *database.DB,
	cfg *config.Config,
	jwtManager *auth.JWTManager,
	verifier *auth.CredentialVerifier,
	clock *presence.Clock,
	resolver *presence.Resolver,
	ingestor *ingest.Ingestor,
	hub *broadcast.Hub,
) *Handler {
	return &Handler{
		db:         db,
		cfg:        cfg,
		jwtManager: jwtManager,
		verifier:   verifier,
		clock:      clock,
		resolver:   resolver,
		ingestor:   ingestor,
		hub:        hub,
		limiter:    newSurveyorLimiter(defaultIngestRate, defaultIngestBurst),
		startTime:  time.Now(),
	}
}

// Health reports overall service health including the store.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	code := http.StatusOK

	dbStatus := "up"
	if err := h.db.Ping(r.Context()); err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
		dbStatus = "down"
	}

	respondData(w, code, map[string]interface{}{
		"status":         status,
		"database":       dbStatus,
		"append_breaker": h.db.AppendBreakerState(),
		"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
	}, 0)
}

// HealthLive is the liveness probe. Always succeeds while the process
// serves requests.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondData(w, http.StatusOK, map[string]string{"status": "alive"}, 0)
}

// HealthReady is the readiness probe. Fails while the store is
// unreachable so load balancers stop routing here.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "store not ready", err)
		return
	}
	respondData(w, http.StatusOK, map[string]string{"status": "ready"}, 0)
}
