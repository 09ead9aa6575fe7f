// Surveyor Tracking Backend - Field Surveyor Presence and Live Location
// Copyright 2026 NeoGeo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/neogeo/surveyor-tracking

package services

import (
	"context"
	"fmt"
)

// Fanout matches the broadcast hub's supervised lifecycle.
type Fanout interface {
	RunWithContext(ctx context.Context) error
	fmt.Stringer
}

// FanoutService runs the broadcast hub under supervision. When the
// context is canceled the hub closes every subscription, which ends the
// attached websocket clients.
type FanoutService struct {
	hub Fanout
}

// NewFanoutService wraps the broadcast hub as a supervised service.
func NewFanoutService(hub Fanout) *FanoutService {
	return &FanoutService{hub: hub}
}

// Serve implements suture.Service.
func (s *FanoutService) Serve(ctx context.Context) error {
	return s.hub.RunWithContext(ctx)
}

// String identifies the service in supervisor logs.
func (s *FanoutService) String() string {
	return s.hub.String()
}
