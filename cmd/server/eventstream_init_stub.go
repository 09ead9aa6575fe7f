// Surveyor Tracking Backend - Field Surveyor Presence and Live Location
// Copyright 2026 NeoGeo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/neogeo/surveyor-tracking

//go:build !nats

package main

import (
	"context"
	"fmt"

	"github.com/neogeo/surveyor-tracking/internal/broadcast"
	"github.com/neogeo/surveyor-tracking/internal/config"
	"github.com/neogeo/surveyor-tracking/internal/supervisor"
)

// setupEventStream rejects an enabled event stream when the binary was
// built without NATS support. Returns nil when the stream is disabled.
func setupEventStream(_ context.Context, cfg *config.Config, _ *broadcast.Hub, _ *supervisor.Tree) (*EventStreamComponents, error) {
	if !cfg.NATS.Enabled {
		return nil, nil
	}
	return nil, fmt.Errorf("event stream enabled but binary built without NATS support: rebuild with -tags=nats")
}
