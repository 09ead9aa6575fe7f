// Surveyor Tracking Backend - Field Surveyor Presence and Live Location
// Copyright 2026 NeoGeo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/neogeo/surveyor-tracking

package auth

import (
	"testing"
	"time"

	"github.com/neogeo/surveyor-tracking/internal/models"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func testSurveyor() *models.Surveyor {
	return &models.Surveyor{ID: "SURV001", Username: "asha.v", Role: models.RoleSurveyor}
}

func TestGenerateAndValidateToken(t *testing.T) {
	m, err := NewJWTManager(testSecret, time.Hour)
	if err != nil {
		t.Fatalf("NewJWTManager failed: %v", err)
	}

	token, err := m.GenerateToken(testSurveyor())
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.SurveyorID != "SURV001" || claims.Username != "asha.v" || claims.Role != models.RoleSurveyor {
		t.Errorf("unexpected claims: %+v", claims)
	}
	if claims.Subject != "SURV001" {
		t.Errorf("expected subject SURV001, got %s", claims.Subject)
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	m1, _ := NewJWTManager(testSecret, time.Hour)
	m2, _ := NewJWTManager("another-secret-that-is-long-enough", time.Hour)

	token, err := m1.GenerateToken(testSurveyor())
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if _, err := m2.ValidateToken(token); err == nil {
		t.Error("expected validation failure with wrong secret")
	}
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	m, _ := NewJWTManager(testSecret, time.Hour)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := m.GenerateToken(testSurveyor())
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if _, err := m.ValidateToken(token); err == nil {
		t.Error("expected validation failure for expired token")
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	m, _ := NewJWTManager(testSecret, time.Hour)
	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := m.ValidateToken(token); err == nil {
			t.Errorf("expected failure for token %q", token)
		}
	}
}

func TestNewJWTManagerRequiresSecret(t *testing.T) {
	if _, err := NewJWTManager("", time.Hour); err == nil {
		t.Error("expected error for empty secret")
	}
}

func TestGenerateEphemeralSecret(t *testing.T) {
	s1, err := GenerateEphemeralSecret()
	if err != nil {
		t.Fatalf("GenerateEphemeralSecret failed: %v", err)
	}
	s2, _ := GenerateEphemeralSecret()
	if len(s1) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(s1))
	}
	if s1 == s2 {
		t.Error("expected distinct secrets")
	}
}
