// Surveyor Tracking Backend - Field Surveyor Presence and Live Location
// Copyright 2026 NeoGeo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/neogeo/surveyor-tracking

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/neogeo/surveyor-tracking/internal/auth"
	"github.com/neogeo/surveyor-tracking/internal/database"
	"github.com/neogeo/surveyor-tracking/internal/logging"
	"github.com/neogeo/surveyor-tracking/internal/models"
	"github.com/neogeo/surveyor-tracking/internal/validation"
)

// ListSurveyors returns the roster with a computed online flag per
// surveyor. All flags are evaluated against a single instant and a
// single latest-sample snapshot.
func (h *Handler) ListSurveyors(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	surveyors, err := h.db.ListSurveyors(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "failed to list surveyors", err)
		return
	}

	flags, err := h.resolver.OnlineFlags(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "failed to resolve presence", err)
		return
	}

	result := make([]models.SurveyorWithStatus, 0, len(surveyors))
	for _, s := range surveyors {
		result = append(result, models.SurveyorWithStatus{
			Surveyor: s,
			Online:   flags[s.ID],
		})
	}

	respondData(w, http.StatusOK, result, time.Since(start))
}

// CreateSurveyor registers a new surveyor. Admin only; the id and
// username must both be unused.
func (h *Handler) CreateSurveyor(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSurveyorRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body", err)
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidationError(w, verr)
		return
	}

	ctx := r.Context()
	if _, err := h.db.GetSurveyor(ctx, req.ID); err == nil {
		respondError(w, http.StatusConflict, "CONFLICT", "surveyor id already exists", nil)
		return
	} else if !errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "failed to check surveyor", err)
		return
	}

	taken, err := h.db.UsernameExists(ctx, req.Username)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "failed to check username", err)
		return
	}
	if taken {
		respondError(w, http.StatusConflict, "CONFLICT", "username already exists", nil)
		return
	}

	surveyor, err := surveyorFromRequest(&req)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to hash password", err)
		return
	}
	if err := h.db.UpsertSurveyor(ctx, surveyor); err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "failed to create surveyor", err)
		return
	}

	logging.Info().Str("surveyor_id", surveyor.ID).Msg("Surveyor created")
	respondData(w, http.StatusCreated, surveyor, 0)
}

// UpdateSurveyor replaces a surveyor record. Admin only. An empty
// password keeps the stored credential.
func (h *Handler) UpdateSurveyor(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req models.CreateSurveyorRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body", err)
		return
	}
	req.ID = id

	// Updates may omit the password to keep the stored credential. The
	// empty hash tells the upsert to preserve the existing one.
	passwordProvided := req.Password != ""
	if !passwordProvided {
		req.Password = "credential-unchanged"
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidationError(w, verr)
		return
	}

	ctx := r.Context()
	existing, err := h.db.GetSurveyor(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "surveyor not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "failed to load surveyor", err)
		return
	}

	surveyor := &models.Surveyor{
		ID:          id,
		Name:        req.Name,
		City:        req.City,
		ProjectName: req.ProjectName,
		Username:    req.Username,
		Role:        req.Role,
	}
	if surveyor.Role == "" {
		surveyor.Role = existing.Role
	}
	if passwordProvided {
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to hash password", err)
			return
		}
		surveyor.PasswordHash = hash
	}

	if err := h.db.UpsertSurveyor(ctx, surveyor); err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "failed to update surveyor", err)
		return
	}

	logging.Info().Str("surveyor_id", id).Msg("Surveyor updated")
	respondData(w, http.StatusOK, surveyor, 0)
}

// FilterSurveyors returns surveyors matching the requested city and
// project name. An omitted field matches any value, so an empty filter
// returns the full roster.
func (h *Handler) FilterSurveyors(w http.ResponseWriter, r *http.Request) {
	var filter models.SurveyorFilter
	if err := decodeJSONBody(w, r, &filter); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body", err)
		return
	}

	start := time.Now()
	surveyors, err := h.db.FilterSurveyors(r.Context(), filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "failed to filter surveyors", err)
		return
	}

	respondData(w, http.StatusOK, surveyors, time.Since(start))
}

// SurveyorStatuses returns the presence map: surveyor id to "Online" or
// "Offline".
func (h *Handler) SurveyorStatuses(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	statuses, err := h.resolver.Statuses(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "failed to resolve statuses", err)
		return
	}

	respondData(w, http.StatusOK, statuses, time.Since(start))
}

// CheckUsername reports whether a username is still available.
func (h *Handler) CheckUsername(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "username query parameter required", nil)
		return
	}

	taken, err := h.db.UsernameExists(r.Context(), username)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "failed to check username", err)
		return
	}

	respondData(w, http.StatusOK, map[string]interface{}{
		"username":  username,
		"available": !taken,
	}, 0)
}

// Login verifies a credential, marks the surveyor active and returns a
// session token with the surveyor record.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body", err)
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidationError(w, verr)
		return
	}

	surveyor, err := h.verifier.Verify(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			respondError(w, http.StatusUnauthorized, "AUTHENTICATION_ERROR", "invalid credentials", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "failed to verify credentials", err)
		return
	}

	// Logging in counts as activity.
	h.clock.Touch(surveyor.ID)

	var token string
	if h.jwtManager != nil {
		token, err = h.jwtManager.GenerateToken(surveyor)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to issue token", err)
			return
		}
	}

	logging.Info().Str("surveyor_id", surveyor.ID).Msg("Surveyor logged in")
	respondData(w, http.StatusOK, models.LoginResponse{
		Token:    token,
		Surveyor: *surveyor,
	}, 0)
}

// SurveyorActivity records an explicit activity ping for a surveyor.
// The caller must be that surveyor or an admin.
func (h *Handler) SurveyorActivity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if claims := auth.ClaimsFromContext(r.Context()); claims != nil {
		if claims.SurveyorID != id && claims.Role != models.RoleAdmin {
			respondError(w, http.StatusForbidden, "AUTHORIZATION_ERROR", "cannot report activity for another surveyor", nil)
			return
		}
	}

	if _, err := h.db.GetSurveyor(r.Context(), id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "surveyor not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "failed to load surveyor", err)
		return
	}

	h.clock.Touch(id)
	respondData(w, http.StatusOK, map[string]interface{}{
		"surveyorId": id,
		"touchedAt":  time.Now(),
	}, 0)
}

func surveyorFromRequest(req *models.CreateSurveyorRequest) (*models.Surveyor, error) {
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	role := req.Role
	if role == "" {
		role = models.RoleSurveyor
	}
	return &models.Surveyor{
		ID:           req.ID,
		Name:         req.Name,
		City:         req.City,
		ProjectName:  req.ProjectName,
		Username:     req.Username,
		PasswordHash: hash,
		Role:         role,
	}, nil
}
