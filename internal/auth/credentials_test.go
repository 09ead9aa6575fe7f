// Surveyor Tracking Backend - Field Surveyor Presence and Live Location
// Copyright 2026 NeoGeo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/neogeo/surveyor-tracking

package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/neogeo/surveyor-tracking/internal/database"
	"github.com/neogeo/surveyor-tracking/internal/models"
)

type fakeLookup struct {
	surveyors map[string]*models.Surveyor
	err       error
}

func (f *fakeLookup) GetSurveyorByUsername(_ context.Context, username string) (*models.Surveyor, error) {
	if f.err != nil {
		return nil, f.err
	}
	if s, ok := f.surveyors[username]; ok {
		return s, nil
	}
	return nil, database.ErrNotFound
}

func newVerifierWithUser(t *testing.T, username, password string) *CredentialVerifier {
	t.Helper()
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	return NewCredentialVerifier(&fakeLookup{surveyors: map[string]*models.Surveyor{
		username: {ID: "SURV001", Username: username, PasswordHash: hash, Role: models.RoleSurveyor},
	}})
}

func basicHeader(username, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}

func TestVerifyAcceptsValidCredentials(t *testing.T) {
	v := newVerifierWithUser(t, "asha.v", "asha1234")

	s, err := v.Verify(context.Background(), "asha.v", "asha1234")
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if s.ID != "SURV001" {
		t.Errorf("expected SURV001, got %s", s.ID)
	}
}

func TestVerifyRejectsWrongPassword(t *testing.T) {
	v := newVerifierWithUser(t, "asha.v", "asha1234")

	if _, err := v.Verify(context.Background(), "asha.v", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestVerifyRejectsUnknownUsername(t *testing.T) {
	v := newVerifierWithUser(t, "asha.v", "asha1234")

	// Unknown usernames produce the same error as wrong passwords.
	if _, err := v.Verify(context.Background(), "nobody", "asha1234"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestVerifyPropagatesLookupError(t *testing.T) {
	storeErr := errors.New("store down")
	v := NewCredentialVerifier(&fakeLookup{err: storeErr})

	if _, err := v.Verify(context.Background(), "asha.v", "asha1234"); !errors.Is(err, storeErr) {
		t.Errorf("expected wrapped store error, got %v", err)
	}
}

func TestVerifyBasic(t *testing.T) {
	v := newVerifierWithUser(t, "asha.v", "asha1234")

	s, err := v.VerifyBasic(context.Background(), basicHeader("asha.v", "asha1234"))
	if err != nil {
		t.Fatalf("VerifyBasic failed: %v", err)
	}
	if s.Username != "asha.v" {
		t.Errorf("unexpected surveyor: %+v", s)
	}
}

func TestParseBasicAuthMalformed(t *testing.T) {
	tests := []string{
		"",
		"Bearer abc",
		"Basic not-base64!!!",
		"Basic " + base64.StdEncoding.EncodeToString([]byte("nocolon")),
	}
	for _, header := range tests {
		if _, _, err := ParseBasicAuth(header); err == nil {
			t.Errorf("expected parse failure for %q", header)
		}
	}
}

func TestHashPasswordRejectsShort(t *testing.T) {
	if _, err := HashPassword("short"); err == nil {
		t.Error("expected error for password under 8 characters")
	}
}

func TestRequireJWTMiddleware(t *testing.T) {
	m, _ := NewJWTManager(testSecret, time.Hour)
	token, err := m.GenerateToken(testSurveyor())
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	var gotClaims *Claims
	handler := RequireJWT(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClaims = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	// Valid token passes and attaches claims.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 with valid token, got %d", rec.Code)
	}
	if gotClaims == nil || gotClaims.SurveyorID != "SURV001" {
		t.Errorf("expected claims in context, got %+v", gotClaims)
	}

	// Missing token is rejected.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", rec.Code)
	}

	// Tampered token is rejected.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token+"x")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with tampered token, got %d", rec.Code)
	}
}

func TestRequireRoleMiddleware(t *testing.T) {
	handler := RequireRole(models.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	adminCtx := ContextWithClaims(context.Background(), &Claims{SurveyorID: "ADMIN001", Role: models.RoleAdmin})
	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(adminCtx)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for admin, got %d", rec.Code)
	}

	userCtx := ContextWithClaims(context.Background(), &Claims{SurveyorID: "SURV001", Role: models.RoleSurveyor})
	req = httptest.NewRequest(http.MethodGet, "/", nil).WithContext(userCtx)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for non-admin, got %d", rec.Code)
	}
}
