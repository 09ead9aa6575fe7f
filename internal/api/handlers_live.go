// Surveyor Tracking Backend - Field Surveyor Presence and Live Location
// Copyright 2026 NeoGeo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/neogeo/surveyor-tracking

package api

import (
	"errors"
	"net/http"

	"github.com/neogeo/surveyor-tracking/internal/auth"
	"github.com/neogeo/surveyor-tracking/internal/ingest"
	"github.com/neogeo/surveyor-tracking/internal/logging"
	"github.com/neogeo/surveyor-tracking/internal/models"
	ws "github.com/neogeo/surveyor-tracking/internal/websocket"
)

// LiveUpdate accepts a location update from a field device. Each request
// carries Basic credentials; devices do not hold sessions.
func (h *Handler) LiveUpdate(w http.ResponseWriter, r *http.Request) {
	username, password, err := auth.ParseBasicAuth(r.Header.Get("Authorization"))
	if err != nil {
		w.Header().Set("WWW-Authenticate", auth.WWWAuthenticateHeader)
		respondError(w, http.StatusUnauthorized, "AUTHENTICATION_ERROR", "basic credentials required", nil)
		return
	}

	var update models.LiveLocationMessage
	if err := decodeJSONBody(w, r, &update); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body", err)
		return
	}

	if !h.limiter.Allow(update.SurveyorID) {
		respondError(w, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "too many updates for surveyor", nil)
		return
	}

	ack, err := h.ingestor.Ingest(r.Context(), update, ingest.Credential{
		Username: username,
		Password: password,
	})
	if err != nil {
		switch {
		case errors.Is(err, ingest.ErrUnauthorized):
			w.Header().Set("WWW-Authenticate", auth.WWWAuthenticateHeader)
			respondError(w, http.StatusUnauthorized, "AUTHENTICATION_ERROR", "invalid credentials or identity mismatch", nil)
		case errors.Is(err, ingest.ErrInvalidInput):
			respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		case errors.Is(err, ingest.ErrStoreFailure):
			respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "failed to persist location", err)
		default:
			respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "ingest failed", err)
		}
		return
	}

	respondData(w, http.StatusAccepted, ack, 0)
}

// LiveFeed upgrades the connection and streams one surveyor's accepted
// updates until the client disconnects or the hub shuts down.
//
// The route must not sit behind response-wrapping middleware: the
// upgrade needs the raw http.Hijacker.
func (h *Handler) LiveFeed(w http.ResponseWriter, r *http.Request) {
	surveyorID := r.URL.Query().Get("surveyor_id")
	if surveyorID == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "surveyor_id query parameter required", nil)
		return
	}

	conn, err := ws.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		logging.Debug().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client, err := ws.NewClient(h.hub, conn, surveyorID)
	if err != nil {
		// Hub is shutting down; close the fresh connection.
		_ = conn.Close()
		return
	}

	client.Run()
}
