// Surveyor Tracking Backend - Field Surveyor Presence and Live Location
// Copyright 2026 NeoGeo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/neogeo/surveyor-tracking

package main

import (
	"context"
	"time"

	"github.com/neogeo/surveyor-tracking/internal/eventstream"
	"github.com/neogeo/surveyor-tracking/internal/logging"
)

// EventStreamComponents holds the wired event stream pieces for
// lifecycle management. Publisher is nil when the stream is disabled.
type EventStreamComponents struct {
	Publisher *eventstream.Publisher

	server *eventstream.EmbeddedServer
	bridge *eventstream.Bridge
}

// Close shuts the components down in reverse dependency order. The
// bridge itself is stopped by the supervision tree; its subscriber
// connection is closed here.
func (c *EventStreamComponents) Close() {
	if c == nil {
		return
	}
	if c.bridge != nil {
		if err := c.bridge.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event stream bridge")
		}
	}
	if c.Publisher != nil {
		if err := c.Publisher.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event stream publisher")
		}
	}
	if c.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.server.Shutdown(ctx); err != nil {
			logging.Error().Err(err).Msg("Error shutting down embedded NATS server")
		}
	}
}
