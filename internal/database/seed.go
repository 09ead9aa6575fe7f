// Surveyor Tracking Backend - Field Surveyor Presence and Live Location
// Copyright 2026 NeoGeo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/neogeo/surveyor-tracking

package database

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/neogeo/surveyor-tracking/internal/logging"
	"github.com/neogeo/surveyor-tracking/internal/models"
)

// demoSurveyors is the development bootstrap roster, enabled by
// database.seed_demo_data. Passwords match the usernames with a "123"
// suffix; never enable seeding in production.
var demoSurveyors = []struct {
	surveyor models.Surveyor
	password string
}{
	{
		surveyor: models.Surveyor{
			ID: "SURV001", Name: "Asha Verma", City: "Bengaluru",
			ProjectName: "Metro Line Survey", Username: "asha.v", Role: models.RoleSurveyor,
		},
		password: "asha123",
	},
	{
		surveyor: models.Surveyor{
			ID: "SURV002", Name: "Ravi Kumar", City: "Bengaluru",
			ProjectName: "Metro Line Survey", Username: "ravi.k", Role: models.RoleSurveyor,
		},
		password: "ravi123",
	},
	{
		surveyor: models.Surveyor{
			ID: "SURV003", Name: "Meera Iyer", City: "Chennai",
			ProjectName: "Coastal Road Survey", Username: "meera.i", Role: models.RoleSurveyor,
		},
		password: "meera123",
	},
	{
		surveyor: models.Surveyor{
			ID: "ADMIN001", Name: "Site Admin", City: "Bengaluru",
			ProjectName: "Operations", Username: "admin", Role: models.RoleAdmin,
		},
		password: "admin123",
	},
}

// SeedDemoData inserts the demo roster. Existing records with the same
// ids are overwritten so repeated startups converge on the same state.
func (db *DB) SeedDemoData(ctx context.Context) error {
	for _, entry := range demoSurveyors {
		hash, err := bcrypt.GenerateFromPassword([]byte(entry.password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash demo credential for %s: %w", entry.surveyor.ID, err)
		}

		s := entry.surveyor
		s.PasswordHash = string(hash)
		if err := db.UpsertSurveyor(ctx, &s); err != nil {
			return fmt.Errorf("failed to seed surveyor %s: %w", s.ID, err)
		}
	}

	logging.Info().Int("surveyors", len(demoSurveyors)).Msg("Demo data seeded")
	return nil
}
