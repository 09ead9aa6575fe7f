// Surveyor Tracking Backend - Field Surveyor Presence and Live Location
// Copyright 2026 NeoGeo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/neogeo/surveyor-tracking

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/neogeo/surveyor-tracking/internal/models"
)

const surveyorColumns = "id, name, city, project_name, username, password_hash, role"

// UpsertSurveyor inserts a surveyor or updates an existing record with the
// same id. The password hash is only overwritten when non-empty, so
// profile updates don't clear credentials.
func (db *DB) UpsertSurveyor(ctx context.Context, s *models.Surveyor) error {
	stmt, err := db.getStmt(ctx, `
		INSERT INTO surveyors (id, name, city, project_name, username, password_hash, role)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			city = excluded.city,
			project_name = excluded.project_name,
			username = excluded.username,
			password_hash = CASE WHEN excluded.password_hash = '' THEN surveyors.password_hash ELSE excluded.password_hash END,
			role = excluded.role,
			updated_at = now()`)
	if err != nil {
		return err
	}

	role := s.Role
	if role == "" {
		role = models.RoleSurveyor
	}
	if _, err := stmt.ExecContext(ctx, s.ID, s.Name, s.City, s.ProjectName, s.Username, s.PasswordHash, role); err != nil {
		return fmt.Errorf("failed to upsert surveyor %s: %w", s.ID, err)
	}
	return nil
}

// GetSurveyor returns one surveyor by id, or ErrNotFound.
func (db *DB) GetSurveyor(ctx context.Context, id string) (*models.Surveyor, error) {
	stmt, err := db.getStmt(ctx, `SELECT `+surveyorColumns+` FROM surveyors WHERE id = ?`)
	if err != nil {
		return nil, err
	}
	return scanSurveyor(stmt.QueryRowContext(ctx, id))
}

// GetSurveyorByUsername returns one surveyor by username, or ErrNotFound.
func (db *DB) GetSurveyorByUsername(ctx context.Context, username string) (*models.Surveyor, error) {
	stmt, err := db.getStmt(ctx, `SELECT `+surveyorColumns+` FROM surveyors WHERE username = ?`)
	if err != nil {
		return nil, err
	}
	return scanSurveyor(stmt.QueryRowContext(ctx, username))
}

// ListSurveyors returns the full roster ordered by id.
func (db *DB) ListSurveyors(ctx context.Context) ([]models.Surveyor, error) {
	stmt, err := db.getStmt(ctx, `SELECT `+surveyorColumns+` FROM surveyors ORDER BY id`)
	if err != nil {
		return nil, err
	}
	rows, err := stmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list surveyors: %w", err)
	}
	defer closeQuietly(rows)
	return collectSurveyors(rows)
}

// FilterSurveyors returns surveyors matching the given city and project
// name. An empty filter field means "any value", so a city-only filter
// spans every project and an empty filter returns the full roster.
func (db *DB) FilterSurveyors(ctx context.Context, filter models.SurveyorFilter) ([]models.Surveyor, error) {
	var (
		query string
		args  []interface{}
	)
	switch {
	case filter.City != "" && filter.ProjectName != "":
		query = `WHERE city = ? AND project_name = ?`
		args = []interface{}{filter.City, filter.ProjectName}
	case filter.City != "":
		query = `WHERE city = ?`
		args = []interface{}{filter.City}
	case filter.ProjectName != "":
		query = `WHERE project_name = ?`
		args = []interface{}{filter.ProjectName}
	default:
		return db.ListSurveyors(ctx)
	}

	stmt, err := db.getStmt(ctx, `
		SELECT `+surveyorColumns+`
		FROM surveyors
		`+query+`
		ORDER BY id`)
	if err != nil {
		return nil, err
	}
	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to filter surveyors: %w", err)
	}
	defer closeQuietly(rows)
	return collectSurveyors(rows)
}

// UsernameExists reports whether a username is taken.
func (db *DB) UsernameExists(ctx context.Context, username string) (bool, error) {
	stmt, err := db.getStmt(ctx, `SELECT COUNT(*) FROM surveyors WHERE username = ?`)
	if err != nil {
		return false, err
	}
	var count int
	if err := stmt.QueryRowContext(ctx, username).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return count > 0, nil
}

func scanSurveyor(row *sql.Row) (*models.Surveyor, error) {
	var s models.Surveyor
	err := row.Scan(&s.ID, &s.Name, &s.City, &s.ProjectName, &s.Username, &s.PasswordHash, &s.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan surveyor: %w", err)
	}
	return &s, nil
}

func collectSurveyors(rows *sql.Rows) ([]models.Surveyor, error) {
	var surveyors []models.Surveyor
	for rows.Next() {
		var s models.Surveyor
		if err := rows.Scan(&s.ID, &s.Name, &s.City, &s.ProjectName, &s.Username, &s.PasswordHash, &s.Role); err != nil {
			return nil, fmt.Errorf("failed to scan surveyor: %w", err)
		}
		surveyors = append(surveyors, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("surveyor iteration failed: %w", err)
	}
	return surveyors, nil
}
