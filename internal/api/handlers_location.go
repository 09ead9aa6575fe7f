// Surveyor Tracking Backend - Field Surveyor Presence and Live Location
// Copyright 2026 NeoGeo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/neogeo/surveyor-tracking

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/neogeo/surveyor-tracking/internal/config"
)

// LatestLocation returns the most recent sample for a surveyor, or 404
// when no samples exist.
func (h *Handler) LatestLocation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	start := time.Now()

	sample, err := h.db.LatestLocation(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "failed to query latest location", err)
		return
	}
	if sample == nil {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "no location samples for surveyor", nil)
		return
	}

	respondData(w, http.StatusOK, sample, time.Since(start))
}

// TrackHistory returns a surveyor's track. With both start and end query
// parameters it returns the inclusive range in ascending order; with one
// or neither it returns the full history. Optional limit/offset query
// parameters page the result.
func (h *Handler) TrackHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	limit, offset, err := parsePageParams(r, h.cfg.API)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	startBound, err := parseTimeParam(r, "start")
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	endBound, err := parseTimeParam(r, "end")
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	if startBound != nil && endBound != nil {
		if endBound.Before(*startBound) {
			respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "end must not be before start", nil)
			return
		}
		if maxRange := h.cfg.Tracking.HistoryMaxRange; maxRange > 0 {
			if endBound.Sub(*startBound) > maxRange {
				respondError(w, http.StatusBadRequest, "VALIDATION_ERROR",
					fmt.Sprintf("requested range exceeds maximum of %s", maxRange), nil)
				return
			}
		}
	}

	queryStart := time.Now()
	samples, err := h.db.TrackHistory(r.Context(), id, startBound, endBound, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "failed to query track history", err)
		return
	}

	respondData(w, http.StatusOK, map[string]interface{}{
		"surveyorId": id,
		"count":      len(samples),
		"samples":    samples,
	}, time.Since(queryStart))
}

// parsePageParams reads the optional limit and offset query parameters.
// Absent parameters leave the result unpaged; an explicit limit is
// capped at the configured maximum, and an offset without a limit gets
// the default page size.
func parsePageParams(r *http.Request, cfg config.APIConfig) (limit, offset int, err error) {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return 0, 0, fmt.Errorf("limit must be a positive integer")
		}
		if cfg.MaxPageSize > 0 && limit > cfg.MaxPageSize {
			limit = cfg.MaxPageSize
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		offset, err = strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return 0, 0, fmt.Errorf("offset must be a non-negative integer")
		}
		if limit == 0 {
			limit = cfg.DefaultPageSize
		}
	}
	return limit, offset, nil
}

// parseTimeParam reads an optional RFC3339 query parameter. Returns nil
// when the parameter is absent.
func parseTimeParam(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be RFC3339 (e.g. 2026-03-14T09:30:00Z)", name)
	}
	return &t, nil
}
