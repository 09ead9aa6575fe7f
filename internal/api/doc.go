// Surveyor Tracking Backend - Field Surveyor Presence and Live Location
// Copyright 2026 NeoGeo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/neogeo/surveyor-tracking

// Package api provides the HTTP surface on the Chi router: surveyor
// management, presence status, track history, live location ingest and
// the websocket live feed.
//
// All responses use the models.APIResponse envelope. Dashboard routes
// require a JWT session; the live update endpoint authenticates each
// request with Basic credentials because field devices do not hold
// sessions.
package api
