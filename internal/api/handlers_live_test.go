// Surveyor Tracking Backend - Field Surveyor Presence and Live Location
// Copyright 2026 NeoGeo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/neogeo/surveyor-tracking

package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/neogeo/surveyor-tracking/internal/models"
)

func basicHeader(username, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}

// postUpdate sends a live location update with Basic credentials.
func (env *testEnv) postUpdate(t *testing.T, username, password string, update models.LiveLocationMessage) (*httptest.ResponseRecorder, *models.APIResponse) {
	t.Helper()

	data, err := json.Marshal(update)
	if err != nil {
		t.Fatalf("failed to marshal update: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/live/location", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", basicHeader(username, password))

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	var envelope models.APIResponse
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
			t.Fatalf("failed to decode envelope: %v", err)
		}
	}
	return rec, &envelope
}

func TestLiveUpdateAccepted(t *testing.T) {
	env := newTestEnv(t)

	rec, envelope := env.postUpdate(t, "asha.v", "asha123", models.LiveLocationMessage{
		SurveyorID: "SURV001",
		Latitude:   12.9716,
		Longitude:  77.5946,
		Timestamp:  time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var ack models.IngestAck
	decodeData(t, envelope, &ack)
	if ack.AckID == "" {
		t.Error("expected ack id")
	}
	if ack.SurveyorID != "SURV001" {
		t.Errorf("ack surveyor = %q, want SURV001", ack.SurveyorID)
	}

	// The update is persisted and visible over the history API.
	rec, latestEnv := env.do(t, http.MethodGet, "/api/v1/location/SURV001/latest", env.token(t, "SURV001"), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("latest: status = %d", rec.Code)
	}
	var sample models.LocationSample
	decodeData(t, latestEnv, &sample)
	if sample.Latitude != 12.9716 || sample.Longitude != 77.5946 {
		t.Errorf("latest = (%v, %v), want ingested coordinates", sample.Latitude, sample.Longitude)
	}

	// And the surveyor is now online.
	if _, ok := env.clock.LastActivity("SURV001"); !ok {
		t.Error("ingest did not touch the presence clock")
	}
}

func TestLiveUpdateRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)

	rec, envelope := env.postUpdate(t, "asha.v", "wrong", models.LiveLocationMessage{
		SurveyorID: "SURV001",
		Latitude:   10,
		Longitude:  10,
		Timestamp:  time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if rec.Header().Get("WWW-Authenticate") == "" {
		t.Error("expected WWW-Authenticate header")
	}
	if envelope.Error == nil || envelope.Error.Code != "AUTHENTICATION_ERROR" {
		t.Errorf("error = %+v", envelope.Error)
	}

	// Nothing was stored.
	sample, err := env.db.LatestLocation(context.Background(), "SURV001")
	if err != nil {
		t.Fatal(err)
	}
	if sample != nil {
		t.Error("rejected update reached the store")
	}
}

func TestLiveUpdateRejectsIdentityMismatch(t *testing.T) {
	env := newTestEnv(t)

	// asha.v reporting for SURV002 is refused before any mutation.
	rec, _ := env.postUpdate(t, "asha.v", "asha123", models.LiveLocationMessage{
		SurveyorID: "SURV002",
		Latitude:   10,
		Longitude:  10,
		Timestamp:  time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if _, ok := env.clock.LastActivity("SURV001"); ok {
		t.Error("mismatched update touched the presence clock")
	}
}

func TestLiveUpdateAdminOnBehalf(t *testing.T) {
	env := newTestEnv(t)

	rec, envelope := env.postUpdate(t, "admin", "admin123", models.LiveLocationMessage{
		SurveyorID: "SURV003",
		Latitude:   13.0827,
		Longitude:  80.2707,
		Timestamp:  time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var ack models.IngestAck
	decodeData(t, envelope, &ack)
	if ack.SurveyorID != "SURV003" {
		t.Errorf("ack surveyor = %q, want SURV003", ack.SurveyorID)
	}
}

func TestLiveUpdateRejectsInvalidCoordinates(t *testing.T) {
	env := newTestEnv(t)

	rec, envelope := env.postUpdate(t, "asha.v", "asha123", models.LiveLocationMessage{
		SurveyorID: "SURV001",
		Latitude:   91,
		Longitude:  0,
		Timestamp:  time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if envelope.Error == nil || envelope.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("error = %+v", envelope.Error)
	}
}

func TestLiveUpdateRejectsMissingTimestamp(t *testing.T) {
	env := newTestEnv(t)

	rec, envelope := env.postUpdate(t, "asha.v", "asha123", models.LiveLocationMessage{
		SurveyorID: "SURV001",
		Latitude:   12.9716,
		Longitude:  77.5946,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if envelope.Error == nil || envelope.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("error = %+v", envelope.Error)
	}

	// The server never substitutes receipt time for a missing fix time.
	sample, err := env.db.LatestLocation(context.Background(), "SURV001")
	if err != nil {
		t.Fatal(err)
	}
	if sample != nil {
		t.Error("timestampless update reached the store")
	}
}

func TestLiveUpdateMissingCredentials(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/live/location", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestLatestLocationNotFound(t *testing.T) {
	env := newTestEnv(t)

	rec, envelope := env.do(t, http.MethodGet, "/api/v1/location/SURV002/latest", env.token(t, "SURV002"), nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if envelope.Error == nil || envelope.Error.Code != "NOT_FOUND" {
		t.Errorf("error = %+v", envelope.Error)
	}
}

func TestTrackHistoryRange(t *testing.T) {
	env := newTestEnv(t)
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		rec, _ := env.postUpdate(t, "asha.v", "asha123", models.LiveLocationMessage{
			SurveyorID: "SURV001",
			Latitude:   12.9,
			Longitude:  77.5,
			Timestamp:  base.Add(time.Duration(i) * time.Minute),
		})
		if rec.Code != http.StatusAccepted {
			t.Fatalf("sample %d: status = %d", i, rec.Code)
		}
	}

	token := env.token(t, "SURV001")

	type trackData struct {
		SurveyorID string                  `json:"surveyorId"`
		Count      int                     `json:"count"`
		Samples    []models.LocationSample `json:"samples"`
	}

	// Inclusive bounded range.
	path := fmt.Sprintf("/api/v1/location/SURV001/track?start=%s&end=%s",
		base.Add(time.Minute).Format(time.RFC3339),
		base.Add(3*time.Minute).Format(time.RFC3339))
	rec, envelope := env.do(t, http.MethodGet, path, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("bounded: status = %d", rec.Code)
	}
	var track trackData
	decodeData(t, envelope, &track)
	if track.Count != 3 {
		t.Errorf("bounded count = %d, want 3 (inclusive bounds)", track.Count)
	}

	// A single bound returns the full history.
	rec, envelope = env.do(t, http.MethodGet,
		"/api/v1/location/SURV001/track?start="+base.Add(2*time.Minute).Format(time.RFC3339), token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("single bound: status = %d", rec.Code)
	}
	decodeData(t, envelope, &track)
	if track.Count != 5 {
		t.Errorf("single-bound count = %d, want full history of 5", track.Count)
	}

	// No bounds: full history too.
	rec, envelope = env.do(t, http.MethodGet, "/api/v1/location/SURV001/track", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("unbounded: status = %d", rec.Code)
	}
	decodeData(t, envelope, &track)
	if track.Count != 5 {
		t.Errorf("unbounded count = %d, want 5", track.Count)
	}

	// limit/offset page the ordered result.
	rec, envelope = env.do(t, http.MethodGet, "/api/v1/location/SURV001/track?limit=2&offset=1", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("paged: status = %d", rec.Code)
	}
	decodeData(t, envelope, &track)
	if track.Count != 2 {
		t.Fatalf("paged count = %d, want 2", track.Count)
	}
	if !track.Samples[0].Timestamp.Equal(base.Add(time.Minute)) {
		t.Errorf("paged first sample at %s, want second-oldest", track.Samples[0].Timestamp)
	}
}

func TestTrackHistoryRejectsBadParams(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "SURV001")

	rec, _ := env.do(t, http.MethodGet, "/api/v1/location/SURV001/track?start=yesterday", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed start: status = %d, want 400", rec.Code)
	}

	// end before start
	start := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	path := fmt.Sprintf("/api/v1/location/SURV001/track?start=%s&end=%s",
		start.Format(time.RFC3339), start.Add(-time.Hour).Format(time.RFC3339))
	rec, _ = env.do(t, http.MethodGet, path, token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("inverted range: status = %d, want 400", rec.Code)
	}

	// range beyond the configured cap (30 days in the test env)
	path = fmt.Sprintf("/api/v1/location/SURV001/track?start=%s&end=%s",
		start.Format(time.RFC3339), start.Add(31*24*time.Hour).Format(time.RFC3339))
	rec, _ = env.do(t, http.MethodGet, path, token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("oversized range: status = %d, want 400", rec.Code)
	}

	rec, _ = env.do(t, http.MethodGet, "/api/v1/location/SURV001/track?limit=all", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("non-numeric limit: status = %d, want 400", rec.Code)
	}

	rec, _ = env.do(t, http.MethodGet, "/api/v1/location/SURV001/track?offset=-1", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative offset: status = %d, want 400", rec.Code)
	}
}

func TestSurveyorRateLimiter(t *testing.T) {
	limiter := newSurveyorLimiter(1, 2)

	if !limiter.Allow("SURV001") || !limiter.Allow("SURV001") {
		t.Fatal("burst of 2 should be allowed")
	}
	if limiter.Allow("SURV001") {
		t.Error("third immediate update should be limited")
	}

	// Other surveyors have their own budget.
	if !limiter.Allow("SURV002") {
		t.Error("separate surveyor should not share the limit")
	}
}

func TestLiveFeedRequiresSurveyorID(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/live/ws", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
