// Surveyor Tracking Backend - Field Surveyor Presence and Live Location
// Copyright 2026 NeoGeo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/neogeo/surveyor-tracking

package websocket

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/neogeo/surveyor-tracking/internal/broadcast"
	"github.com/neogeo/surveyor-tracking/internal/logging"
	"github.com/neogeo/surveyor-tracking/internal/models"
)

func init() {
	logging.Init(logging.Config{Level: "error", Format: "json", Output: io.Discard})
}

// newFeedServer upgrades every request and bridges it to the hub feed for
// the surveyor named in the query string.
func newFeedServer(t *testing.T, hub *broadcast.Hub) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		client, err := NewClient(hub, conn, r.URL.Query().Get("surveyor_id"))
		if err != nil {
			_ = conn.Close()
			return
		}
		client.Run()
	}))
}

func dial(t *testing.T, server *httptest.Server, surveyorID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/?surveyor_id=" + surveyorID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	return conn
}

func TestClientReceivesPublishedLocations(t *testing.T) {
	hub := broadcast.NewHub()
	defer hub.Close()
	server := newFeedServer(t, hub)
	defer server.Close()

	conn := dial(t, server, "SURV001")
	defer func() { _ = conn.Close() }()

	// Wait for the subscription to register before publishing.
	deadline := time.Now().Add(2 * time.Second)
	for hub.SubscriberCount("SURV001") == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscription never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	sent := models.LiveLocationMessage{
		SurveyorID: "SURV001", Latitude: 12.97, Longitude: 77.59,
		Timestamp: time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC),
	}
	if delivered := hub.Publish("SURV001", sent); delivered != 1 {
		t.Fatalf("expected 1 delivery, got %d", delivered)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got models.LiveLocationMessage
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if got.SurveyorID != sent.SurveyorID || got.Latitude != sent.Latitude {
		t.Errorf("expected %+v, got %+v", sent, got)
	}
}

func TestClientUnsubscribesOnDisconnect(t *testing.T) {
	hub := broadcast.NewHub()
	defer hub.Close()
	server := newFeedServer(t, hub)
	defer server.Close()

	conn := dial(t, server, "SURV001")

	deadline := time.Now().Add(2 * time.Second)
	for hub.SubscriberCount("SURV001") == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscription never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	_ = conn.Close()

	deadline = time.Now().Add(2 * time.Second)
	for hub.SubscriberCount("SURV001") != 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscription not removed after disconnect")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestClientSeesCloseFrameOnHubShutdown(t *testing.T) {
	hub := broadcast.NewHub()
	server := newFeedServer(t, hub)
	defer server.Close()

	conn := dial(t, server, "SURV001")
	defer func() { _ = conn.Close() }()

	deadline := time.Now().Add(2 * time.Second)
	for hub.SubscriberCount("SURV001") == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscription never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	hub.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	if err == nil {
		t.Fatal("expected close after hub shutdown")
	}
	if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Errorf("expected going-away close frame, got %v", err)
	}
}

func TestNewClientAfterShutdown(t *testing.T) {
	hub := broadcast.NewHub()
	hub.Close()

	if _, err := NewClient(hub, nil, "SURV001"); err != ErrHubClosed {
		t.Errorf("expected ErrHubClosed, got %v", err)
	}
}
