// Surveyor Tracking Backend - Field Surveyor Presence and Live Location
// Copyright 2026 NeoGeo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/neogeo/surveyor-tracking

// Package config loads and validates application configuration from
// layered sources: built-in defaults, an optional YAML file, and
// environment variables (highest priority).
package config

import (
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Tracking TrackingConfig `koanf:"tracking"`
	NATS     NATSConfig     `koanf:"nats"`
	API      APIConfig      `koanf:"api"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"` // "development", "staging", "production"
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	Path                   string `koanf:"path"`
	MaxMemory              string `koanf:"max_memory"`
	Threads                int    `koanf:"threads"` // 0 = use NumCPU
	PreserveInsertionOrder bool   `koanf:"preserve_insertion_order"`
	SeedDemoData           bool   `koanf:"seed_demo_data"` // Seed demo surveyors and tracks on startup
}

// TrackingConfig holds presence and live-location settings.
type TrackingConfig struct {
	// LivenessWindow is how recently a surveyor must have reported
	// (location or any tracked activity) to be considered online.
	// Default: 5m
	LivenessWindow time.Duration `koanf:"liveness_window"`

	// HistoryMaxRange caps the span of a single track-history query.
	// Zero disables the cap.
	HistoryMaxRange time.Duration `koanf:"history_max_range"`

	// BroadcastBuffer is the per-subscriber channel depth for live
	// location fan-out. Subscribers that fall behind are dropped.
	BroadcastBuffer int `koanf:"broadcast_buffer"`
}

// NATSConfig holds event streaming settings.
// When enabled, accepted location updates are published to NATS JetStream
// and remote-origin events are bridged into the local fan-out, allowing
// multiple instances to share live traffic.
type NATSConfig struct {
	// Enabled controls whether event streaming is active.
	Enabled bool `koanf:"enabled"`

	// URL is the NATS server connection URL.
	URL string `koanf:"url"`

	// EmbeddedServer enables an in-process NATS server.
	// If false, expects an external NATS server at URL.
	EmbeddedServer bool `koanf:"embedded_server"`

	// ServerID identifies this instance in published events. Events
	// carrying our own ServerID are not re-broadcast locally.
	// Auto-generated if empty.
	ServerID string `koanf:"server_id"`

	// StoreDir is the JetStream storage directory.
	StoreDir string `koanf:"store_dir"`

	// MaxMemory is the maximum memory for JetStream in bytes.
	MaxMemory int64 `koanf:"max_memory"`

	// MaxStore is the maximum disk storage for JetStream in bytes.
	MaxStore int64 `koanf:"max_store"`

	// StreamRetentionDays is how long to keep location events.
	StreamRetentionDays int `koanf:"stream_retention_days"`

	// DurableName is the durable-consumer name prefix for the location
	// bridge; each instance appends its server ID.
	DurableName string `koanf:"durable_name"`

	// QueueGroup is the queue-group prefix for bridge subscribers, also
	// suffixed per instance.
	QueueGroup string `koanf:"queue_group"`

	// CloseTimeout bounds graceful shutdown of the messaging layer.
	CloseTimeout time.Duration `koanf:"close_timeout"`
}

// APIConfig holds API pagination and response settings.
type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

// SecurityConfig holds authentication settings.
type SecurityConfig struct {
	// AuthMode selects how dashboard routes authenticate: "jwt" (Bearer
	// tokens issued at login) or "none" (development only). The live
	// ingest endpoint always uses HTTP Basic device credentials,
	// regardless of mode.
	AuthMode string `koanf:"auth_mode"`

	// JWTSecret signs session tokens. Required when AuthMode is "jwt"
	// in production environments.
	JWTSecret string `koanf:"jwt_secret"`

	// SessionTimeout is the JWT token lifetime.
	SessionTimeout time.Duration `koanf:"session_timeout"`

	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	// Default: json
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	Caller bool `koanf:"caller"`
}
