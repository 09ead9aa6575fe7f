// Surveyor Tracking Backend - Field Surveyor Presence and Live Location
// Copyright 2026 NeoGeo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/neogeo/surveyor-tracking

package presence

import (
	"context"
	"fmt"
	"time"

	"github.com/neogeo/surveyor-tracking/internal/models"
)

// DefaultLivenessWindow is how recently a surveyor must have reported to
// be considered online when no window is configured.
const DefaultLivenessWindow = 5 * time.Minute

// TrackSource supplies the persisted location signal for presence
// decisions. The track store implements it.
type TrackSource interface {
	// LatestLocation returns the most recent sample for one surveyor, or
	// nil when the surveyor has no samples.
	LatestLocation(ctx context.Context, surveyorID string) (*models.LocationSample, error)

	// LatestLocations returns the most recent sample per surveyor in a
	// single query, so a roster-wide status sweep sees one consistent
	// store snapshot.
	LatestLocations(ctx context.Context) (map[string]models.LocationSample, error)
}

// SurveyorSource supplies the roster for roster-wide status sweeps.
type SurveyorSource interface {
	ListSurveyors(ctx context.Context) ([]models.Surveyor, error)
}

// Resolver decides whether surveyors are online by combining the activity
// clock with the latest persisted sample.
type Resolver struct {
	clock     *Clock
	tracks    TrackSource
	surveyors SurveyorSource
	window    time.Duration
}

// NewResolver creates a presence resolver. A zero or negative window
// falls back to DefaultLivenessWindow.
func NewResolver(clock *Clock, tracks TrackSource, surveyors SurveyorSource, window time.Duration) *Resolver {
	if window <= 0 {
		window = DefaultLivenessWindow
	}
	return &Resolver{
		clock:     clock,
		tracks:    tracks,
		surveyors: surveyors,
		window:    window,
	}
}

// Window returns the configured liveness window.
func (r *Resolver) Window() time.Duration {
	return r.window
}

// IsOnline reports whether the surveyor has a fresh signal at the given
// instant: a fresh activity-clock entry OR a fresh latest sample. The
// freshness comparison is inclusive, so a signal exactly one window old
// still counts as online.
func (r *Resolver) IsOnline(ctx context.Context, surveyorID string, now time.Time) (bool, error) {
	if t, ok := r.clock.LastActivity(surveyorID); ok && r.fresh(now, t) {
		return true, nil
	}

	sample, err := r.tracks.LatestLocation(ctx, surveyorID)
	if err != nil {
		return false, fmt.Errorf("latest location for %s: %w", surveyorID, err)
	}
	if sample == nil {
		return false, nil
	}
	return r.fresh(now, sample.Timestamp), nil
}

// Statuses evaluates the whole roster against a single instant and a
// single latest-sample query, returning "Online"/"Offline" keyed by
// surveyor id. Using one now and one store snapshot keeps the map
// internally consistent: no surveyor flips state mid-sweep.
func (r *Resolver) Statuses(ctx context.Context) (map[string]string, error) {
	roster, err := r.surveyors.ListSurveyors(ctx)
	if err != nil {
		return nil, fmt.Errorf("list surveyors: %w", err)
	}

	latest, err := r.tracks.LatestLocations(ctx)
	if err != nil {
		return nil, fmt.Errorf("latest locations: %w", err)
	}

	now := r.clock.Now()
	statuses := make(map[string]string, len(roster))
	for _, s := range roster {
		statuses[s.ID] = models.StatusOffline
		if t, ok := r.clock.LastActivity(s.ID); ok && r.fresh(now, t) {
			statuses[s.ID] = models.StatusOnline
			continue
		}
		if sample, ok := latest[s.ID]; ok && r.fresh(now, sample.Timestamp) {
			statuses[s.ID] = models.StatusOnline
		}
	}
	return statuses, nil
}

// OnlineFlags is Statuses with boolean values, used when annotating
// surveyor list responses.
func (r *Resolver) OnlineFlags(ctx context.Context) (map[string]bool, error) {
	statuses, err := r.Statuses(ctx)
	if err != nil {
		return nil, err
	}
	flags := make(map[string]bool, len(statuses))
	for id, status := range statuses {
		flags[id] = status == models.StatusOnline
	}
	return flags, nil
}

// fresh reports whether a signal at t is within the liveness window of
// now, inclusive at the boundary.
func (r *Resolver) fresh(now, t time.Time) bool {
	return now.Sub(t) <= r.window
}
