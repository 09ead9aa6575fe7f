// Surveyor Tracking Backend - Field Surveyor Presence and Live Location
// Copyright 2026 NeoGeo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/neogeo/surveyor-tracking

package broadcast

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/neogeo/surveyor-tracking/internal/models"
)

func msgFor(id string, lat float64) models.LiveLocationMessage {
	return models.LiveLocationMessage{SurveyorID: id, Latitude: lat, Longitude: 77.59, Timestamp: time.Now()}
}

func TestPublishDeliversToAllSubscribers(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	sub1 := hub.Subscribe("SURV001")
	sub2 := hub.Subscribe("SURV001")

	delivered := hub.Publish("SURV001", msgFor("SURV001", 12.97))
	if delivered != 2 {
		t.Fatalf("expected 2 deliveries, got %d", delivered)
	}

	for i, sub := range []*Subscription{sub1, sub2} {
		select {
		case msg := <-sub.C:
			if msg.Latitude != 12.97 {
				t.Errorf("subscriber %d got wrong message: %+v", i, msg)
			}
		default:
			t.Errorf("subscriber %d received nothing", i)
		}
	}
}

func TestPublishIsolatesFeeds(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	other := hub.Subscribe("SURV002")

	if delivered := hub.Publish("SURV001", msgFor("SURV001", 1)); delivered != 0 {
		t.Errorf("expected 0 deliveries without subscribers, got %d", delivered)
	}
	select {
	case msg := <-other.C:
		t.Errorf("subscriber on another feed received %+v", msg)
	default:
	}
}

func TestLateSubscriberMissesEarlierPublishes(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	hub.Publish("SURV001", msgFor("SURV001", 1))
	sub := hub.Subscribe("SURV001")

	select {
	case msg := <-sub.C:
		t.Errorf("late subscriber must not receive replay, got %+v", msg)
	default:
	}

	hub.Publish("SURV001", msgFor("SURV001", 2))
	select {
	case msg := <-sub.C:
		if msg.Latitude != 2 {
			t.Errorf("expected only the later message, got %+v", msg)
		}
	default:
		t.Error("expected the later message to arrive")
	}
}

func TestSlowSubscriberDroppedWithoutAffectingOthers(t *testing.T) {
	var droppedFeeds []string
	hub := NewHub(WithBufferSize(1), WithDropHandler(func(id string) {
		droppedFeeds = append(droppedFeeds, id)
	}))
	defer hub.Close()

	slow := hub.Subscribe("SURV001")
	fast := hub.Subscribe("SURV001")

	// First publish fills both 1-slot buffers; drain only the fast one.
	hub.Publish("SURV001", msgFor("SURV001", 1))
	<-fast.C

	// Second publish overflows the slow subscriber.
	delivered := hub.Publish("SURV001", msgFor("SURV001", 2))
	if delivered != 1 {
		t.Errorf("expected 1 delivery on overflow publish, got %d", delivered)
	}

	// Slow subscriber keeps its buffered message, then sees close.
	if msg := <-slow.C; msg.Latitude != 1 {
		t.Errorf("expected buffered message before close, got %+v", msg)
	}
	if _, open := <-slow.C; open {
		t.Error("expected slow subscriber channel to be closed")
	}

	if hub.SubscriberCount("SURV001") != 1 {
		t.Errorf("expected 1 remaining subscriber, got %d", hub.SubscriberCount("SURV001"))
	}
	if len(droppedFeeds) != 1 || droppedFeeds[0] != "SURV001" {
		t.Errorf("expected one drop callback for SURV001, got %v", droppedFeeds)
	}

	// The surviving subscriber still receives subsequent publishes.
	<-fast.C
	if delivered := hub.Publish("SURV001", msgFor("SURV001", 3)); delivered != 1 {
		t.Errorf("expected surviving subscriber to receive, got %d deliveries", delivered)
	}
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	sub := hub.Subscribe("SURV001")
	hub.Unsubscribe(sub)
	hub.Unsubscribe(sub) // second call must not panic on a closed channel
	hub.Unsubscribe(nil)

	if hub.SubscriberCount("SURV001") != 0 {
		t.Errorf("expected 0 subscribers, got %d", hub.SubscriberCount("SURV001"))
	}
	if delivered := hub.Publish("SURV001", msgFor("SURV001", 1)); delivered != 0 {
		t.Errorf("expected 0 deliveries after unsubscribe, got %d", delivered)
	}
}

func TestRunWithContextClosesOnCancel(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe("SURV001")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.RunWithContext(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("RunWithContext did not return after cancel")
	}

	if _, open := <-sub.C; open {
		t.Error("expected subscription closed after shutdown")
	}
	if got := hub.Subscribe("SURV001"); got != nil {
		t.Error("expected Subscribe to return nil after shutdown")
	}
}

func TestConcurrentPublishAndSubscribe(t *testing.T) {
	hub := NewHub(WithBufferSize(64))
	defer hub.Close()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				hub.Publish("SURV001", msgFor("SURV001", float64(i)))
			}
		}()
		go func() {
			defer wg.Done()
			sub := hub.Subscribe("SURV001")
			for i := 0; i < 20; i++ {
				select {
				case <-sub.C:
				case <-time.After(10 * time.Millisecond):
				}
			}
			hub.Unsubscribe(sub)
		}()
	}
	wg.Wait()
}

func TestPublishDuringUnsubscribeChurn(t *testing.T) {
	hub := NewHub(WithBufferSize(1))
	defer hub.Close()

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			msg := msgFor("SURV001", 1)
			for {
				select {
				case <-stop:
					return
				default:
					hub.Publish("SURV001", msg)
				}
			}
		}()
	}

	// Subscriptions are never drained, so teardown happens both here and
	// on the slow-subscriber drop path while the publishers are
	// mid-flight. A send racing a channel close panics the test binary.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		sub := hub.Subscribe("SURV001")
		if sub == nil {
			t.Fatal("Subscribe returned nil on an open hub")
		}
		hub.Unsubscribe(sub)
	}
	close(stop)
	wg.Wait()
}
