// Surveyor Tracking Backend - Field Surveyor Presence and Live Location
// Copyright 2026 NeoGeo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/neogeo/surveyor-tracking

//go:build nats

package main

import (
	"context"
	"fmt"

	"github.com/neogeo/surveyor-tracking/internal/broadcast"
	"github.com/neogeo/surveyor-tracking/internal/config"
	"github.com/neogeo/surveyor-tracking/internal/eventstream"
	"github.com/neogeo/surveyor-tracking/internal/logging"
	"github.com/neogeo/surveyor-tracking/internal/supervisor"
)

// setupEventStream wires the NATS event stream when enabled: optional
// embedded server, stream provisioning, publisher and the bridge that
// feeds foreign events into the local hub. Returns nil when the stream
// is disabled in configuration.
func setupEventStream(ctx context.Context, cfg *config.Config, hub *broadcast.Hub, tree *supervisor.Tree) (*EventStreamComponents, error) {
	if !cfg.NATS.Enabled {
		return nil, nil
	}

	escfg := eventstream.FromAppConfig(cfg.NATS)
	components := &EventStreamComponents{}

	if escfg.EmbeddedServer {
		server, err := eventstream.NewEmbeddedServer(escfg)
		if err != nil {
			return nil, fmt.Errorf("start embedded NATS server: %w", err)
		}
		components.server = server
		escfg.URL = server.ClientURL()
	}

	if err := eventstream.EnsureStream(ctx, escfg); err != nil {
		components.Close()
		return nil, fmt.Errorf("provision location event stream: %w", err)
	}

	publisher, err := eventstream.NewPublisher(escfg)
	if err != nil {
		components.Close()
		return nil, err
	}
	components.Publisher = publisher

	bridge, err := eventstream.NewBridge(escfg, hub)
	if err != nil {
		components.Close()
		return nil, err
	}
	components.bridge = bridge
	tree.AddMessagingService(bridge)

	logging.Info().
		Str("server_id", escfg.ServerID).
		Str("url", escfg.URL).
		Bool("embedded", escfg.EmbeddedServer).
		Msg("Event stream initialized")

	return components, nil
}
