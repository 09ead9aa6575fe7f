// Surveyor Tracking Backend - Field Surveyor Presence and Live Location
// Copyright 2026 NeoGeo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/neogeo/surveyor-tracking

package eventstream

import (
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/neogeo/surveyor-tracking/internal/models"
)

// NewLocationEvent wraps an accepted update in a stream envelope stamped
// with the publishing instance's identity.
func NewLocationEvent(serverID string, msg models.LiveLocationMessage, occurredAt time.Time) models.LocationEvent {
	return models.LocationEvent{
		EventID:    uuid.New().String(),
		ServerID:   serverID,
		OccurredAt: occurredAt,
		Message:    msg,
	}
}

// EncodeEvent serializes an event for the wire.
func EncodeEvent(event models.LocationEvent) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode location event: %w", err)
	}
	return data, nil
}

// DecodeEvent deserializes an event from the wire. Events missing an
// event ID or a surveyor ID are rejected as malformed.
func DecodeEvent(data []byte) (models.LocationEvent, error) {
	var event models.LocationEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return models.LocationEvent{}, fmt.Errorf("decode location event: %w", err)
	}
	if event.EventID == "" {
		return models.LocationEvent{}, fmt.Errorf("decode location event: missing event_id")
	}
	if event.Message.SurveyorID == "" {
		return models.LocationEvent{}, fmt.Errorf("decode location event: missing surveyor id")
	}
	return event, nil
}

// ShouldBridge reports whether an event received from the stream should
// be re-published into the local broadcast hub. Events that originated
// on this instance were already fanned out during ingest.
func ShouldBridge(event models.LocationEvent, localServerID string) bool {
	return event.ServerID != localServerID
}
