// Surveyor Tracking Backend - Field Surveyor Presence and Live Location
// Copyright 2026 NeoGeo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/neogeo/surveyor-tracking

package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/neogeo/surveyor-tracking/internal/database"
	"github.com/neogeo/surveyor-tracking/internal/models"
)

// ErrInvalidCredentials is returned for any credential failure. The
// message deliberately does not distinguish unknown usernames from wrong
// passwords.
var ErrInvalidCredentials = errors.New("invalid username or password")

// bcryptCost balances hashing time against login latency.
const bcryptCost = 12

// SurveyorLookup resolves usernames to surveyor records. The database
// package implements it.
type SurveyorLookup interface {
	GetSurveyorByUsername(ctx context.Context, username string) (*models.Surveyor, error)
}

// CredentialVerifier checks surveyor credentials against the roster.
type CredentialVerifier struct {
	lookup SurveyorLookup
}

// NewCredentialVerifier creates a verifier backed by the given roster.
func NewCredentialVerifier(lookup SurveyorLookup) *CredentialVerifier {
	return &CredentialVerifier{lookup: lookup}
}

// Verify checks a username/password pair and returns the surveyor record
// on success. Unknown usernames still run a bcrypt comparison against a
// dummy hash so response timing does not reveal which usernames exist.
func (v *CredentialVerifier) Verify(ctx context.Context, username, password string) (*models.Surveyor, error) {
	s, err := v.lookup.GetSurveyorByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("credential lookup failed: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(s.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return s, nil
}

// VerifyBasic parses an HTTP Basic Authorization header and verifies the
// embedded credentials.
func (v *CredentialVerifier) VerifyBasic(ctx context.Context, authHeader string) (*models.Surveyor, error) {
	username, password, err := ParseBasicAuth(authHeader)
	if err != nil {
		return nil, err
	}
	return v.Verify(ctx, username, password)
}

// ParseBasicAuth decodes an HTTP Basic Authorization header into its
// username and password parts.
func ParseBasicAuth(authHeader string) (username, password string, err error) {
	if !strings.HasPrefix(authHeader, "Basic ") {
		return "", "", fmt.Errorf("invalid authorization header format")
	}

	encoded := strings.TrimPrefix(authHeader, "Basic ")
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", "", fmt.Errorf("failed to decode credentials")
	}

	parts := strings.SplitN(string(decoded), ":", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid credentials format")
	}
	return parts[0], parts[1], nil
}

// HashPassword hashes a plaintext credential for storage.
func HashPassword(password string) (string, error) {
	if len(password) < 8 {
		return "", fmt.Errorf("password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// WWWAuthenticateHeader is sent with 401 responses per the HTTP spec.
const WWWAuthenticateHeader = `Basic realm="surveyor-tracking", charset="UTF-8"`

// dummyHash is a valid bcrypt hash of an unguessable value, used to keep
// unknown-username verification on the same timing path as known users.
var dummyHash = func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("surveyor-tracking-dummy"), bcryptCost)
	if err != nil {
		panic(err)
	}
	return h
}()
