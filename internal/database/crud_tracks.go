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
	"time"

	"github.com/neogeo/surveyor-tracking/internal/models"
)

// InsertLocationSample appends a sample to the track table. The insert
// runs through the append circuit breaker; when the breaker is open the
// returned error wraps gobreaker.ErrOpenState and the store is untouched.
func (db *DB) InsertLocationSample(ctx context.Context, sample *models.LocationSample) error {
	_, err := db.appendBreaker.Execute(func() (any, error) {
		stmt, err := db.getStmt(ctx, `
			INSERT INTO location_tracks (surveyor_id, latitude, longitude, ts)
			VALUES (?, ?, ?, ?)`)
		if err != nil {
			return nil, err
		}
		_, err = stmt.ExecContext(ctx, sample.SurveyorID, sample.Latitude, sample.Longitude, sample.Timestamp)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("failed to insert location sample: %w", err)
	}
	return nil
}

// LatestLocation returns the most recent sample for one surveyor, or nil
// when the surveyor has no samples. Timestamp ties are broken by the
// insertion sequence, so the answer is deterministic.
func (db *DB) LatestLocation(ctx context.Context, surveyorID string) (*models.LocationSample, error) {
	stmt, err := db.getStmt(ctx, `
		SELECT seq, surveyor_id, latitude, longitude, ts
		FROM location_tracks
		WHERE surveyor_id = ?
		ORDER BY ts DESC, seq DESC
		LIMIT 1`)
	if err != nil {
		return nil, err
	}

	var s models.LocationSample
	err = stmt.QueryRowContext(ctx, surveyorID).
		Scan(&s.Sequence, &s.SurveyorID, &s.Latitude, &s.Longitude, &s.Timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest location: %w", err)
	}
	return &s, nil
}

// LatestLocations returns the most recent sample per surveyor in a single
// query, giving roster-wide presence sweeps one consistent snapshot.
func (db *DB) LatestLocations(ctx context.Context) (map[string]models.LocationSample, error) {
	stmt, err := db.getStmt(ctx, `
		SELECT seq, surveyor_id, latitude, longitude, ts
		FROM location_tracks
		QUALIFY ROW_NUMBER() OVER (PARTITION BY surveyor_id ORDER BY ts DESC, seq DESC) = 1`)
	if err != nil {
		return nil, err
	}

	rows, err := stmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest locations: %w", err)
	}
	defer closeQuietly(rows)

	latest := make(map[string]models.LocationSample)
	for rows.Next() {
		var s models.LocationSample
		if err := rows.Scan(&s.Sequence, &s.SurveyorID, &s.Latitude, &s.Longitude, &s.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan latest location: %w", err)
		}
		latest[s.SurveyorID] = s
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("latest locations iteration failed: %w", err)
	}
	return latest, nil
}

// TrackHistory returns a surveyor's samples ascending by timestamp.
//
// Bounds semantics:
//   - both start and end set: inclusive range [start, end]
//   - exactly one bound set: FULL history. This mirrors the long-standing
//     behavior clients depend on; a single bound is treated as an
//     incomplete range rather than a half-open one.
//   - neither set: full history
//
// A limit > 0 pages the result (LIMIT/OFFSET applied after ordering);
// limit <= 0 returns everything and ignores offset.
func (db *DB) TrackHistory(ctx context.Context, surveyorID string, start, end *time.Time, limit, offset int) ([]models.LocationSample, error) {
	bounded := start != nil && end != nil

	query := `
		SELECT seq, surveyor_id, latitude, longitude, ts
		FROM location_tracks
		WHERE surveyor_id = ?`
	args := []interface{}{surveyorID}
	if bounded {
		query += ` AND ts >= ? AND ts <= ?`
		args = append(args, *start, *end)
	}
	query += ` ORDER BY ts ASC, seq ASC`
	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}

	stmt, err := db.getStmt(ctx, query)
	if err != nil {
		return nil, err
	}
	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query track history: %w", err)
	}
	defer closeQuietly(rows)

	var samples []models.LocationSample
	for rows.Next() {
		var s models.LocationSample
		if err := rows.Scan(&s.Sequence, &s.SurveyorID, &s.Latitude, &s.Longitude, &s.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan track sample: %w", err)
		}
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("track history iteration failed: %w", err)
	}
	return samples, nil
}

// TrackCount returns the number of stored samples for a surveyor.
func (db *DB) TrackCount(ctx context.Context, surveyorID string) (int64, error) {
	stmt, err := db.getStmt(ctx, `SELECT COUNT(*) FROM location_tracks WHERE surveyor_id = ?`)
	if err != nil {
		return 0, err
	}
	var count int64
	if err := stmt.QueryRowContext(ctx, surveyorID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count track samples: %w", err)
	}
	return count, nil
}
