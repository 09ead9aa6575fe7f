// Surveyor Tracking Backend - Field Surveyor Presence and Live Location
// Copyright 2026 NeoGeo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/neogeo/surveyor-tracking

package eventstream

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	appconfig "github.com/neogeo/surveyor-tracking/internal/config"
)

const (
	// TopicLocationUpdates is the subject accepted location updates are
	// published on.
	TopicLocationUpdates = "location.updates"

	// StreamName is the JetStream stream that retains location events.
	StreamName = "LOCATION_EVENTS"
)

// Config holds the connection and consumer settings for the event
// stream layer. Build one with FromAppConfig rather than by hand so the
// server ID and defaults are filled in consistently.
type Config struct {
	URL      string
	ServerID string

	// DurableName and QueueGroup are prefixes for the bridge consumer
	// identity. Each instance derives its own consumer from these plus
	// ServerID (see BridgeDurable, BridgeQueueGroup): every event must
	// reach every instance, so instances must NOT share one consumer.
	DurableName string
	QueueGroup  string

	// Embedded server settings, used only when EmbeddedServer is true.
	EmbeddedServer bool
	StoreDir       string
	MaxMemory      int64
	MaxStore       int64

	// StreamMaxAge is how long location events are retained.
	StreamMaxAge time.Duration

	MaxReconnects int
	ReconnectWait time.Duration
	CloseTimeout  time.Duration
}

// FromAppConfig derives the eventstream configuration from the
// application NATS section. A missing server ID is replaced with a
// generated one so origin filtering always has an identity to compare
// against.
func FromAppConfig(cfg appconfig.NATSConfig) Config {
	serverID := cfg.ServerID
	if serverID == "" {
		serverID = uuid.New().String()
	}

	durable := cfg.DurableName
	if durable == "" {
		durable = "location-bridge"
	}
	queueGroup := cfg.QueueGroup
	if queueGroup == "" {
		queueGroup = "bridges"
	}

	retention := time.Duration(cfg.StreamRetentionDays) * 24 * time.Hour
	if retention <= 0 {
		retention = 7 * 24 * time.Hour
	}

	closeTimeout := cfg.CloseTimeout
	if closeTimeout <= 0 {
		closeTimeout = 30 * time.Second
	}

	return Config{
		URL:            cfg.URL,
		ServerID:       serverID,
		DurableName:    durable,
		QueueGroup:     queueGroup,
		EmbeddedServer: cfg.EmbeddedServer,
		StoreDir:       cfg.StoreDir,
		MaxMemory:      cfg.MaxMemory,
		MaxStore:       cfg.MaxStore,
		StreamMaxAge:   retention,
		MaxReconnects:  -1,
		ReconnectWait:  2 * time.Second,
		CloseTimeout:   closeTimeout,
	}
}

// BridgeDurable returns this instance's durable consumer name. Suffixing
// the server ID gives each instance its own stream cursor; a shared
// durable would deliver each event to exactly one instance in the fleet.
func (c Config) BridgeDurable() string {
	return c.DurableName + "-" + c.ServerID
}

// BridgeQueueGroup returns this instance's queue group, unique for the
// same reason as BridgeDurable.
func (c Config) BridgeQueueGroup() string {
	return c.QueueGroup + "-" + c.ServerID
}

// Validate checks that the configuration is usable for connecting.
func (c Config) Validate() error {
	if c.URL == "" && !c.EmbeddedServer {
		return fmt.Errorf("eventstream: URL required when embedded server is disabled")
	}
	if c.ServerID == "" {
		return fmt.Errorf("eventstream: server ID required")
	}
	return nil
}
