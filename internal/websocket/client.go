// Surveyor Tracking Backend - Field Surveyor Presence and Live Location
// Copyright 2026 NeoGeo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/neogeo/surveyor-tracking

// Package websocket bridges broadcast subscriptions to gorilla/websocket
// connections. Each connection follows the standard two-pump shape:
// writePump forwards fan-out messages and pings, readPump watches for
// pongs and close frames.
package websocket

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/neogeo/surveyor-tracking/internal/broadcast"
	"github.com/neogeo/surveyor-tracking/internal/logging"
	"github.com/neogeo/surveyor-tracking/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024 // inbound frames are control traffic only
)

// ErrHubClosed is returned when a connection arrives after shutdown began.
var ErrHubClosed = errors.New("broadcast hub is closed")

// Upgrader upgrades HTTP requests to websocket connections. Origin
// enforcement happens in the CORS middleware ahead of the upgrade.
var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Client ties one websocket connection to one surveyor's live feed.
type Client struct {
	conn *websocket.Conn
	hub  *broadcast.Hub
	sub  *broadcast.Subscription
}

// NewClient subscribes the connection to the surveyor's feed.
func NewClient(hub *broadcast.Hub, conn *websocket.Conn, surveyorID string) (*Client, error) {
	sub := hub.Subscribe(surveyorID)
	if sub == nil {
		return nil, ErrHubClosed
	}
	return &Client{conn: conn, hub: hub, sub: sub}, nil
}

// Run services the connection until the peer disconnects, the feed
// closes, or the client falls behind and is dropped by the hub. It blocks
// the caller (the upgrade handler goroutine).
func (c *Client) Run() {
	metrics.WebSocketConnections.Inc()
	defer metrics.WebSocketConnections.Dec()

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.readPump()
	}()

	c.writePump(done)

	c.hub.Unsubscribe(c.sub)
	_ = c.conn.Close()
	<-done
}

// readPump consumes inbound frames. The feed is one-way; inbound data
// frames are discarded, but reading is required to process pong and
// close frames.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unsubscribe(c.sub)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				logging.Debug().Err(err).Str("surveyor_id", c.sub.SurveyorID()).Msg("websocket closed unexpectedly")
			}
			return
		}
	}
}

// writePump forwards fan-out messages and keepalive pings until the
// subscription closes or the peer goes away.
func (c *Client) writePump(done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.sub.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				// Feed closed: hub shutdown or this client was dropped
				// for falling behind.
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "feed closed"))
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				logging.Debug().Err(err).Str("surveyor_id", c.sub.SurveyorID()).Msg("websocket write failed")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-done:
			return
		}
	}
}
