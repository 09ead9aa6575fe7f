// Surveyor Tracking Backend - Field Surveyor Presence and Live Location
// Copyright 2026 NeoGeo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/neogeo/surveyor-tracking

//go:build nats

package eventstream

import (
	"context"
	"fmt"
	"time"

	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"

	"github.com/neogeo/surveyor-tracking/internal/logging"
	"github.com/neogeo/surveyor-tracking/internal/metrics"
	"github.com/neogeo/surveyor-tracking/internal/models"
)

// LocalFeed is the sink the bridge re-publishes foreign events into.
// *broadcast.Hub satisfies it.
type LocalFeed interface {
	Publish(surveyorID string, msg models.LiveLocationMessage) int
}

// Bridge consumes the location event stream and fans foreign events out
// to local websocket subscribers. It runs under the supervision tree.
type Bridge struct {
	subscriber message.Subscriber
	feed       LocalFeed
	serverID   string
	closeWait  time.Duration
}

// NewBridge creates this instance's stream consumer. Every instance gets
// its own durable and queue group (suffixed with the server ID) so the
// full fleet observes every event; origin filtering then discards the
// instance's own publications.
func NewBridge(cfg Config, feed LocalFeed) (*Bridge, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if feed == nil {
		return nil, fmt.Errorf("eventstream: local feed required")
	}

	wmLog := newWatermillLogger()

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logging.Warn().Err(err).Msg("Event stream bridge disconnected")
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logging.Info().Str("url", nc.ConnectedUrl()).Msg("Event stream bridge reconnected")
		}),
	}

	subOpts := []natsgo.SubOpt{
		natsgo.MaxDeliver(5),
		natsgo.MaxAckPending(1000),
		natsgo.AckWait(30 * time.Second),
		natsgo.BindStream(StreamName),
		// Live positions only; history is served from the track store.
		natsgo.DeliverNew(),
		// Per-instance consumers of retired server IDs are reaped by the
		// server instead of accumulating.
		natsgo.InactiveThreshold(24 * time.Hour),
	}

	wmConfig := wmNats.SubscriberConfig{
		URL:              cfg.URL,
		QueueGroupPrefix: cfg.BridgeQueueGroup(),
		SubscribersCount: 1,
		AckWaitTimeout:   30 * time.Second,
		CloseTimeout:     cfg.CloseTimeout,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:         false,
			AutoProvision:    false,
			AckAsync:         false,
			SubscribeOptions: subOpts,
			DurablePrefix:    cfg.BridgeDurable(),
		},
	}

	sub, err := wmNats.NewSubscriber(wmConfig, wmLog)
	if err != nil {
		return nil, fmt.Errorf("create event stream bridge: %w", err)
	}

	return &Bridge{
		subscriber: sub,
		feed:       feed,
		serverID:   cfg.ServerID,
		closeWait:  cfg.CloseTimeout,
	}, nil
}

// Serve consumes events until the context is canceled. It implements
// suture.Service.
func (b *Bridge) Serve(ctx context.Context) error {
	msgs, err := b.subscriber.Subscribe(ctx, TopicLocationUpdates)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", TopicLocationUpdates, err)
	}

	logging.Info().
		Str("topic", TopicLocationUpdates).
		Str("server_id", b.serverID).
		Msg("Location bridge consuming")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("event stream subscription closed")
			}
			b.handle(msg)
		}
	}
}

// handle decodes and fans out a single stream message. Malformed
// payloads are acked and dropped; redelivering them cannot help.
func (b *Bridge) handle(msg *message.Message) {
	event, err := DecodeEvent(msg.Payload)
	if err != nil {
		logging.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("Dropping malformed location event")
		msg.Ack()
		return
	}

	if !ShouldBridge(event, b.serverID) {
		msg.Ack()
		return
	}

	delivered := b.feed.Publish(event.Message.SurveyorID, event.Message)
	metrics.EventsBridged.Inc()
	logging.Trace().
		Str("event_id", event.EventID).
		Str("surveyor_id", event.Message.SurveyorID).
		Int("delivered", delivered).
		Msg("Bridged location event")
	msg.Ack()
}

// Close shuts down the subscriber.
func (b *Bridge) Close() error {
	return b.subscriber.Close()
}

// String identifies the bridge in supervisor logs.
func (b *Bridge) String() string {
	return "eventstream-bridge"
}
