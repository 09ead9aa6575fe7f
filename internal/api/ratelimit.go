// Surveyor Tracking Backend - Field Surveyor Presence and Live Location
// Copyright 2026 NeoGeo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/neogeo/surveyor-tracking

package api

import (
	"sync"

	"golang.org/x/time/rate"
)

const (
	// defaultIngestRate allows one update per second sustained per
	// surveyor, which is well above real field reporting intervals.
	defaultIngestRate  = rate.Limit(1)
	defaultIngestBurst = 10
)

// surveyorLimiter rate-limits location updates per surveyor id. This is
// distinct from the per-IP HTTP limits: several devices behind one NAT
// share an IP, and one misconfigured device must not starve the rest or
// flood the track store.
type surveyorLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	r        rate.Limit
	burst    int
}

func newSurveyorLimiter(r rate.Limit, burst int) *surveyorLimiter {
	return &surveyorLimiter{
		limiters: make(map[string]*rate.Limiter),
		r:        r,
		burst:    burst,
	}
}

// Allow reports whether an update for the surveyor may proceed now.
func (l *surveyorLimiter) Allow(surveyorID string) bool {
	l.mu.Lock()
	lim, ok := l.limiters[surveyorID]
	if !ok {
		lim = rate.NewLimiter(l.r, l.burst)
		l.limiters[surveyorID] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}
