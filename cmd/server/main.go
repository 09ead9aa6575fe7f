// Surveyor Tracking Backend - Field Surveyor Presence and Live Location
// Copyright 2026 NeoGeo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/neogeo/surveyor-tracking

// Package main is the entry point for the surveyor tracking server.
//
// The server initializes components in order:
//
//  1. Configuration: Koanf v2 layered sources (env > file > defaults)
//  2. Database: DuckDB store for the roster and location tracks
//  3. Presence: activity clock and liveness resolver
//  4. Broadcast hub: live location fan-out to websocket subscribers
//  5. Event stream (optional, -tags=nats): JetStream cross-instance delivery
//  6. HTTP server: REST API plus websocket live feed
//
// Everything long-running sits under a suture supervision tree; the
// messaging layer (hub, event stream bridge) and the API layer restart
// independently.
//
// Build tags:
//
//	go build ./cmd/server              # single instance, no event stream
//	go build -tags=nats ./cmd/server   # multi-instance via NATS JetStream
//
// The server handles graceful shutdown on SIGINT and SIGTERM: the tree
// is canceled, the HTTP server drains for up to the shutdown timeout,
// the hub closes all live feeds and the store is checkpointed on close.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/neogeo/surveyor-tracking/internal/api"
	"github.com/neogeo/surveyor-tracking/internal/auth"
	"github.com/neogeo/surveyor-tracking/internal/broadcast"
	"github.com/neogeo/surveyor-tracking/internal/config"
	"github.com/neogeo/surveyor-tracking/internal/database"
	"github.com/neogeo/surveyor-tracking/internal/ingest"
	"github.com/neogeo/surveyor-tracking/internal/logging"
	"github.com/neogeo/surveyor-tracking/internal/presence"
	"github.com/neogeo/surveyor-tracking/internal/supervisor"
	"github.com/neogeo/surveyor-tracking/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("auth_mode", cfg.Security.AuthMode).
		Dur("liveness_window", cfg.Tracking.LivenessWindow).
		Bool("event_stream", cfg.NATS.Enabled).
		Msg("Configuration loaded")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized")

	if cfg.Database.SeedDemoData {
		if err := db.SeedDemoData(context.Background()); err != nil {
			logging.Fatal().Err(err).Msg("Failed to seed demo data")
		}
		logging.Info().Msg("Demo surveyors seeded")
	}

	jwtManager, err := buildJWTManager(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to configure authentication")
	}

	// Presence and live fan-out.
	clock := presence.NewClock()
	resolver := presence.NewResolver(clock, db, db, cfg.Tracking.LivenessWindow)

	hubOpts := []broadcast.Option{}
	if cfg.Tracking.BroadcastBuffer > 0 {
		hubOpts = append(hubOpts, broadcast.WithBufferSize(cfg.Tracking.BroadcastBuffer))
	}
	hub := broadcast.NewHub(hubOpts...)

	// Supervision tree: messaging layer + API layer.
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddMessagingService(services.NewFanoutService(hub))

	// Optional event stream (build tag nats); see eventstream_init.go.
	verifier := auth.NewCredentialVerifier(db)
	ingestOpts := []ingest.Option{}
	eventStream, err := setupEventStream(context.Background(), cfg, hub, tree)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize event stream")
	}
	if eventStream != nil {
		defer eventStream.Close()
		if eventStream.Publisher != nil {
			ingestOpts = append(ingestOpts, ingest.WithEventPublisher(eventStream.Publisher))
		}
	}

	ingestor := ingest.New(verifier, clock, hub, db, ingestOpts...)

	handler := api.NewHandler(db, cfg, jwtManager, verifier, clock, resolver, ingestor, hub)
	router := api.NewRouter(handler, api.NewChiMiddleware(cfg.Security), jwtManager)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       120 * time.Second,
	}
	tree.AddAPIService(services.NewHTTPServerService(httpServer, 10*time.Second))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("addr", addr).Msg("Server starting")
	if err := tree.Serve(ctx); err != nil && ctx.Err() == nil {
		logging.Fatal().Err(err).Msg("Supervisor tree failed")
	}

	if report, err := tree.UnstoppedServiceReport(); err == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop in time")
		}
	}
	logging.Info().Msg("Server stopped")
}

// buildJWTManager configures session authentication per auth mode.
// Mode "none" returns nil, which disables the JWT middleware. In
// development an empty secret gets an ephemeral one so the server still
// starts; production requires an explicit secret (enforced by config
// validation).
func buildJWTManager(cfg *config.Config) (*auth.JWTManager, error) {
	if cfg.Security.AuthMode == "none" {
		logging.Warn().Msg("Authentication disabled (auth_mode=none)")
		return nil, nil
	}

	secret := cfg.Security.JWTSecret
	if secret == "" {
		var err error
		secret, err = auth.GenerateEphemeralSecret()
		if err != nil {
			return nil, fmt.Errorf("generate ephemeral JWT secret: %w", err)
		}
		logging.Warn().Msg("JWT_SECRET not set; using ephemeral secret, sessions will not survive restarts")
	}

	return auth.NewJWTManager(secret, cfg.Security.SessionTimeout)
}
