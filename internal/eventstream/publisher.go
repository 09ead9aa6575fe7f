// Surveyor Tracking Backend - Field Surveyor Presence and Live Location
// Copyright 2026 NeoGeo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/neogeo/surveyor-tracking

//go:build nats

package eventstream

import (
	"context"
	"fmt"
	"sync"
	"time"

	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/neogeo/surveyor-tracking/internal/logging"
	"github.com/neogeo/surveyor-tracking/internal/metrics"
	"github.com/neogeo/surveyor-tracking/internal/models"
)

// Publisher sends location events to JetStream with circuit breaker
// protection and automatic reconnection. The event ID doubles as the
// Nats-Msg-Id so the stream's duplicate window deduplicates retries.
type Publisher struct {
	publisher message.Publisher
	breaker   *gobreaker.CircuitBreaker[any]
	serverID  string
	mu        sync.RWMutex
	closed    bool
}

// NewPublisher creates a JetStream publisher for location events.
// The stream itself must already exist; see EnsureStream.
func NewPublisher(cfg Config) (*Publisher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	wmLog := newWatermillLogger()

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logging.Warn().Err(err).Msg("Event stream publisher disconnected")
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logging.Info().Str("url", nc.ConnectedUrl()).Msg("Event stream publisher reconnected")
		}),
	}

	wmConfig := wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: false, // stream is provisioned by EnsureStream
			TrackMsgId:    true,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}

	pub, err := wmNats.NewPublisher(wmConfig, wmLog)
	if err != nil {
		return nil, fmt.Errorf("create event stream publisher: %w", err)
	}

	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:    "eventstream-publish",
		Timeout: 10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Event stream circuit breaker state change")
		},
	})

	return &Publisher{
		publisher: pub,
		breaker:   breaker,
		serverID:  cfg.ServerID,
	}, nil
}

// PublishLocation wraps an accepted update in a LocationEvent and
// publishes it on the location updates subject.
func (p *Publisher) PublishLocation(ctx context.Context, msg models.LiveLocationMessage) error {
	event := NewLocationEvent(p.serverID, msg, time.Now().UTC())
	return p.publishEvent(ctx, event)
}

func (p *Publisher) publishEvent(_ context.Context, event models.LocationEvent) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return fmt.Errorf("event stream publisher is closed")
	}
	p.mu.RUnlock()

	data, err := EncodeEvent(event)
	if err != nil {
		return err
	}

	wmMsg := message.NewMessage(event.EventID, data)
	wmMsg.Metadata.Set(natsgo.MsgIdHdr, event.EventID)
	wmMsg.Metadata.Set("server_id", event.ServerID)

	_, err = p.breaker.Execute(func() (any, error) {
		return nil, p.publisher.Publish(TopicLocationUpdates, wmMsg)
	})
	if err != nil {
		return fmt.Errorf("publish location event: %w", err)
	}

	metrics.EventsPublished.Inc()
	return nil
}

// Close shuts down the underlying connection. Safe to call twice.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.publisher.Close()
}
