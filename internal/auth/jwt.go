// Surveyor Tracking Backend - Field Surveyor Presence and Live Location
// Copyright 2026 NeoGeo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/neogeo/surveyor-tracking

// Package auth implements credential verification and session tokens.
//
// Surveyors authenticate with HTTP Basic credentials (verified against
// bcrypt hashes in the roster) on the ingest path, and with short-lived
// JWT session tokens issued by the login endpoint on the dashboard path.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/neogeo/surveyor-tracking/internal/models"
)

// Claims are the JWT session claims. SurveyorID is the subject used for
// ingest authorization.
type Claims struct {
	SurveyorID string `json:"surveyor_id"`
	Username   string `json:"username"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

// JWTManager creates and validates HMAC-SHA256 session tokens.
// Tokens are stateless and cannot be revoked before expiry.
type JWTManager struct {
	secret  []byte
	timeout time.Duration
	now     func() time.Time
}

// NewJWTManager creates a token manager. The secret must be non-empty;
// production deployments should use 32+ characters (enforced at config
// validation).
func NewJWTManager(secret string, timeout time.Duration) (*JWTManager, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT secret is required but was empty")
	}
	if timeout <= 0 {
		timeout = 24 * time.Hour
	}
	return &JWTManager{
		secret:  []byte(secret),
		timeout: timeout,
		now:     time.Now,
	}, nil
}

// GenerateEphemeralSecret returns a random secret for development
// deployments that configure none. Sessions issued with it do not
// survive a restart.
func GenerateEphemeralSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate ephemeral secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// GenerateToken issues a signed session token for an authenticated
// surveyor.
func (m *JWTManager) GenerateToken(s *models.Surveyor) (string, error) {
	now := m.now()
	claims := &Claims{
		SurveyorID: s.ID,
		Username:   s.Username,
		Role:       s.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.timeout)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signedToken, nil
}

// ValidateToken verifies the signature, algorithm, and time claims of a
// session token and returns its claims. The algorithm check rejects
// anything but HMAC to prevent algorithm confusion attacks.
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}
