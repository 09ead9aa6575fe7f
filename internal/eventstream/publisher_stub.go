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

// Publisher is a stub when NATS dependencies are not compiled in.
// Build with -tags=nats to enable event stream publishing.
type Publisher struct{}

// NewPublisher returns an error when NATS dependencies are not compiled in.
func NewPublisher(cfg Config) (*Publisher, error) {
	return nil, fmt.Errorf("event stream not available: build with -tags=nats")
}

// PublishLocation is a stub that returns an error.
func (p *Publisher) PublishLocation(ctx context.Context, msg models.LiveLocationMessage) error {
	return fmt.Errorf("event stream not available: build with -tags=nats")
}

// Close is a no-op stub.
func (p *Publisher) Close() error {
	return nil
}
