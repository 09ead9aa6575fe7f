// Surveyor Tracking Backend - Field Surveyor Presence and Live Location
// Copyright 2026 NeoGeo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/neogeo/surveyor-tracking

//go:build !nats

package eventstream

import (
	"context"
	"fmt"
)

// EmbeddedServer is a stub when NATS dependencies are not compiled in.
// Build with -tags=nats to enable the embedded JetStream server.
type EmbeddedServer struct{}

// NewEmbeddedServer returns an error when NATS dependencies are not compiled in.
func NewEmbeddedServer(cfg Config) (*EmbeddedServer, error) {
	return nil, fmt.Errorf("event stream not available: build with -tags=nats")
}

// ClientURL returns an empty string for the stub.
func (s *EmbeddedServer) ClientURL() string {
	return ""
}

// Shutdown is a no-op stub.
func (s *EmbeddedServer) Shutdown(ctx context.Context) error {
	return nil
}

// EnsureStream is a stub that returns an error.
func EnsureStream(ctx context.Context, cfg Config) error {
	return fmt.Errorf("event stream not available: build with -tags=nats")
}
