// Surveyor Tracking Backend - Field Surveyor Presence and Live Location
// Copyright 2026 NeoGeo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/neogeo/surveyor-tracking

// Package metrics registers Prometheus instrumentation for the ingest
// pipeline, the broadcast fan-out, websocket connections, the track
// store, and the HTTP API surface.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingest pipeline metrics
	IngestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_updates_total",
			Help: "Total live location updates by outcome",
		},
		[]string{"outcome"}, // "accepted", "unauthorized", "invalid", "store_failure"
	)

	IngestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ingest_duration_seconds",
			Help:    "End-to-end duration of the ingest pipeline",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Broadcast fan-out metrics
	BroadcastDeliveries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "broadcast_deliveries_total",
			Help: "Total messages delivered to subscribers",
		},
	)

	BroadcastDrops = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "broadcast_slow_subscriber_drops_total",
			Help: "Total subscribers dropped for falling behind",
		},
	)

	// WebSocket metrics
	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of live location websocket connections",
		},
	)

	// Track store metrics
	StoreAppendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "track_store_append_duration_seconds",
			Help:    "Duration of track store appends",
			Buckets: prometheus.DefBuckets,
		},
	)

	StoreAppendErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "track_store_append_errors_total",
			Help: "Total failed track store appends",
		},
	)

	// Event stream metrics
	EventsPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "location_events_published_total",
			Help: "Total location events published to the stream",
		},
	)

	EventsBridged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "location_events_bridged_total",
			Help: "Total remote-origin events bridged into local fan-out",
		},
	)

	// HTTP API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)
)

// RecordIngest records one ingest attempt and its outcome.
func RecordIngest(outcome string, duration time.Duration) {
	IngestTotal.WithLabelValues(outcome).Inc()
	IngestDuration.Observe(duration.Seconds())
}

// RecordStoreAppend records a track store append.
func RecordStoreAppend(duration time.Duration, err error) {
	StoreAppendDuration.Observe(duration.Seconds())
	if err != nil {
		StoreAppendErrors.Inc()
	}
}

// RecordAPIRequest records an API endpoint request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the in-flight request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
