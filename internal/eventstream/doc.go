// Surveyor Tracking Backend - Field Surveyor Presence and Live Location
// Copyright 2026 NeoGeo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/neogeo/surveyor-tracking

// Package eventstream distributes accepted location updates across
// server instances over NATS JetStream via Watermill.
//
// Every accepted update is wrapped in a LocationEvent stamped with the
// publishing instance's server ID. A bridge subscriber on each instance
// consumes the stream and re-publishes foreign events into the local
// broadcast hub, so dashboard clients see updates regardless of which
// instance ingested them. Events carrying the local server ID are
// skipped because the ingest path already delivered them locally.
//
// The NATS dependencies are gated behind the "nats" build tag. Without
// the tag the package compiles to stubs that return errors from every
// constructor, and single-instance deployments run with the stream
// disabled.
package eventstream
