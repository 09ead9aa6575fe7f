// Surveyor Tracking Backend - Field Surveyor Presence and Live Location
// Copyright 2026 NeoGeo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/neogeo/surveyor-tracking

//go:build !nats

package eventstream

import (
	"context"
	"fmt"

	"github.com/neogeo/surveyor-tracking/internal/models"
)

// LocalFeed is the sink the bridge re-publishes foreign events into.
// *broadcast.Hub satisfies it.
type LocalFeed interface {
	Publish(surveyorID string, msg models.LiveLocationMessage) int
}

// Bridge is a stub when NATS dependencies are not compiled in.
// Build with -tags=nats to enable cross-instance delivery.
type Bridge struct{}

// NewBridge returns an error when NATS dependencies are not compiled in.
func NewBridge(cfg Config, feed LocalFeed) (*Bridge, error) {
	return nil, fmt.Errorf("event stream not available: build with -tags=nats")
}

// Serve is a stub that returns an error.
func (b *Bridge) Serve(ctx context.Context) error {
	return fmt.Errorf("event stream not available: build with -tags=nats")
}

// Close is a no-op stub.
func (b *Bridge) Close() error {
	return nil
}

// String identifies the bridge in supervisor logs.
func (b *Bridge) String() string {
	return "eventstream-bridge"
}
