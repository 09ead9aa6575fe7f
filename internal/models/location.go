// Surveyor Tracking Backend - Field Surveyor Presence and Live Location
// Copyright 2026 NeoGeo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/neogeo/surveyor-tracking

package models

import (
	"time"
)

// LocationSample is a persisted position report for a surveyor.
//
// Sequence is the monotonic insertion order assigned by the track store.
// It breaks ties between samples that share a timestamp, which keeps
// latest-location queries deterministic.
type LocationSample struct {
	Sequence   int64     `json:"-"`
	SurveyorID string    `json:"surveyorId" validate:"required,max=64"`
	Latitude   float64   `json:"latitude" validate:"latitude"`
	Longitude  float64   `json:"longitude" validate:"longitude"`
	Timestamp  time.Time `json:"timestamp"`
}

// LiveLocationMessage is the wire format for a live position update, both
// inbound (POST /api/v1/live/location) and outbound (websocket fan-out,
// event stream).
//
// Timestamp is the client's fix time and is required: the reporting
// device timestamps the position, the server never substitutes receipt
// time.
type LiveLocationMessage struct {
	SurveyorID string    `json:"surveyorId" validate:"required,max=64"`
	Latitude   float64   `json:"latitude" validate:"latitude"`
	Longitude  float64   `json:"longitude" validate:"longitude"`
	Timestamp  time.Time `json:"timestamp" validate:"required"`
}

// Sample converts a live message to its persisted form.
func (m *LiveLocationMessage) Sample() LocationSample {
	return LocationSample{
		SurveyorID: m.SurveyorID,
		Latitude:   m.Latitude,
		Longitude:  m.Longitude,
		Timestamp:  m.Timestamp,
	}
}

// IngestAck acknowledges an accepted live location update.
type IngestAck struct {
	AckID      string    `json:"ackId"`
	SurveyorID string    `json:"surveyorId"`
	ReceivedAt time.Time `json:"receivedAt"`
	Delivered  int       `json:"delivered"` // local fan-out deliveries
}

// LocationEvent is the event-stream envelope for an accepted update.
// ServerID identifies the originating instance so consumers can skip
// events they published themselves.
type LocationEvent struct {
	EventID    string              `json:"event_id"`
	ServerID   string              `json:"server_id"`
	OccurredAt time.Time           `json:"occurred_at"`
	Message    LiveLocationMessage `json:"message"`
}
