// Surveyor Tracking Backend - Field Surveyor Presence and Live Location
// Copyright 2026 NeoGeo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/neogeo/surveyor-tracking

package presence

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestClockTouchAndLastActivity(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	clock := NewClockWithNow(func() time.Time { return now })

	if _, ok := clock.LastActivity("SURV001"); ok {
		t.Fatal("expected no activity before first touch")
	}

	clock.Touch("SURV001")
	got, ok := clock.LastActivity("SURV001")
	if !ok {
		t.Fatal("expected activity after touch")
	}
	if !got.Equal(now) {
		t.Errorf("expected activity at %s, got %s", now, got)
	}
}

func TestClockTouchOverwritesOlderInstant(t *testing.T) {
	current := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	clock := NewClockWithNow(func() time.Time { return current })

	clock.Touch("SURV001")
	current = current.Add(3 * time.Minute)
	clock.Touch("SURV001")

	got, _ := clock.LastActivity("SURV001")
	if !got.Equal(current) {
		t.Errorf("expected latest touch to win, got %s", got)
	}
}

func TestClockIsolatesSurveyors(t *testing.T) {
	clock := NewClock()
	clock.Touch("SURV001")

	if _, ok := clock.LastActivity("SURV002"); ok {
		t.Error("touching one surveyor must not affect another")
	}
	if clock.Len() != 1 {
		t.Errorf("expected 1 tracked surveyor, got %d", clock.Len())
	}
}

func TestClockConcurrentTouches(t *testing.T) {
	clock := NewClock()
	const workers = 16
	const touches = 200

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			id := fmt.Sprintf("SURV%03d", w)
			for i := 0; i < touches; i++ {
				clock.Touch(id)
				clock.LastActivity(id)
			}
		}(w)
	}
	wg.Wait()

	if clock.Len() != workers {
		t.Errorf("expected %d tracked surveyors, got %d", workers, clock.Len())
	}
	for w := 0; w < workers; w++ {
		if _, ok := clock.LastActivity(fmt.Sprintf("SURV%03d", w)); !ok {
			t.Errorf("missing activity for worker %d", w)
		}
	}
}
