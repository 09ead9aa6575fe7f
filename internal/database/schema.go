// Surveyor Tracking Backend - Field Surveyor Presence and Live Location
// Copyright 2026 NeoGeo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/neogeo/surveyor-tracking

package database

import (
	"context"
	"fmt"
	"time"
)

// schemaStatements creates the roster table and the append-only track
// table. location_tracks.seq is a monotonic insertion sequence: it breaks
// timestamp ties so latest-location queries stay deterministic.
var schemaStatements = []string{
	`CREATE SEQUENCE IF NOT EXISTS location_tracks_seq START 1`,

	`CREATE TABLE IF NOT EXISTS surveyors (
		id           VARCHAR PRIMARY KEY,
		name         VARCHAR NOT NULL,
		city         VARCHAR NOT NULL DEFAULT '',
		project_name VARCHAR NOT NULL DEFAULT '',
		username     VARCHAR NOT NULL UNIQUE,
		password_hash VARCHAR NOT NULL,
		role         VARCHAR NOT NULL DEFAULT 'surveyor',
		created_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS location_tracks (
		seq         BIGINT PRIMARY KEY DEFAULT nextval('location_tracks_seq'),
		surveyor_id VARCHAR NOT NULL,
		latitude    DOUBLE NOT NULL,
		longitude   DOUBLE NOT NULL,
		ts          TIMESTAMP NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_tracks_surveyor_ts
		ON location_tracks (surveyor_id, ts)`,
}

// initialize bootstraps the schema. Idempotent.
func (db *DB) initialize() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, stmt := range schemaStatements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema bootstrap failed: %w", err)
		}
	}
	return nil
}
