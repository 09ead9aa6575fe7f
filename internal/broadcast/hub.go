// Surveyor Tracking Backend - Field Surveyor Presence and Live Location
// Copyright 2026 NeoGeo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/neogeo/surveyor-tracking

// Package broadcast fans live location messages out to in-process
// subscribers, keyed by surveyor id. It carries no replay buffer: a late
// subscriber sees only messages published after it subscribed.
package broadcast

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/neogeo/surveyor-tracking/internal/models"
)

// DefaultBufferSize is the per-subscriber channel depth when none is
// configured. A subscriber whose buffer fills is dropped rather than
// allowed to stall the publisher.
const DefaultBufferSize = 16

// Subscription is one subscriber's handle on a surveyor's live feed.
// Messages arrive on C until the subscription is closed, either by
// Unsubscribe, by hub shutdown, or by falling behind the publisher.
type Subscription struct {
	// C delivers published messages. Closed when the subscription ends.
	C <-chan models.LiveLocationMessage

	id         uint64
	surveyorID string
	ch         chan models.LiveLocationMessage
}

// SurveyorID returns the surveyor feed this subscription is attached to.
func (s *Subscription) SurveyorID() string {
	return s.surveyorID
}

// Hub is the fan-out registry. All methods are safe for concurrent use.
//
// DETERMINISM: Publish delivers to a snapshot of the subscriber set in
// ascending subscription-id order, so two publishes racing on different
// goroutines each see a consistent, ordered set. Subscription ids come
// from a process-wide atomic counter and are never reused.
type Hub struct {
	mu     sync.RWMutex
	feeds  map[string]map[uint64]*Subscription
	nextID atomic.Uint64
	closed bool

	bufferSize int
	onDrop     func(surveyorID string)
}

// Option configures a Hub.
type Option func(*Hub)

// WithBufferSize sets the per-subscriber channel depth.
func WithBufferSize(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.bufferSize = n
		}
	}
}

// WithDropHandler installs a callback invoked after a slow subscriber is
// dropped, used for metrics.
func WithDropHandler(fn func(surveyorID string)) Option {
	return func(h *Hub) {
		h.onDrop = fn
	}
}

// NewHub creates an empty fan-out hub.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		feeds:      make(map[string]map[uint64]*Subscription),
		bufferSize: DefaultBufferSize,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe attaches a new subscriber to the surveyor's feed. Returns nil
// if the hub has shut down.
func (h *Hub) Subscribe(surveyorID string) *Subscription {
	ch := make(chan models.LiveLocationMessage, h.bufferSize)
	sub := &Subscription{
		C:          ch,
		id:         h.nextID.Add(1),
		surveyorID: surveyorID,
		ch:         ch,
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	feed, ok := h.feeds[surveyorID]
	if !ok {
		feed = make(map[uint64]*Subscription)
		h.feeds[surveyorID] = feed
	}
	feed[sub.id] = sub
	return sub
}

// Unsubscribe detaches a subscriber and closes its channel. Safe to call
// for an already-removed subscription.
func (h *Hub) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	h.mu.Lock()
	if h.removeLocked(sub) {
		close(sub.ch)
	}
	h.mu.Unlock()
}

// Publish delivers a message to every current subscriber of the
// surveyor's feed and returns the number of deliveries. A subscriber
// whose buffer is full is dropped (channel closed, removed from the
// feed); other subscribers and the publisher are unaffected.
//
// LOCKING: sends happen under the read lock and every close(sub.ch)
// happens under the write lock, so a send can never race a concurrent
// Unsubscribe or Close into a closed channel. Sends are non-blocking,
// so the read lock is held only briefly.
func (h *Hub) Publish(surveyorID string, msg models.LiveLocationMessage) int {
	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return 0
	}
	feed := h.feeds[surveyorID]
	subs := make([]*Subscription, 0, len(feed))
	for _, sub := range feed {
		subs = append(subs, sub)
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].id < subs[j].id })

	delivered := 0
	var dropped []*Subscription
	for _, sub := range subs {
		select {
		case sub.ch <- msg:
			delivered++
		default:
			dropped = append(dropped, sub)
		}
	}
	h.mu.RUnlock()

	for _, sub := range dropped {
		h.mu.Lock()
		removed := h.removeLocked(sub)
		if removed {
			close(sub.ch)
		}
		h.mu.Unlock()
		if removed && h.onDrop != nil {
			h.onDrop(surveyorID)
		}
	}

	return delivered
}

// SubscriberCount returns the number of active subscribers on a feed.
func (h *Hub) SubscriberCount(surveyorID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.feeds[surveyorID])
}

// RunWithContext blocks until the context is cancelled, then closes every
// subscription. It satisfies the supervised-service contract; the hub
// itself is passive and needs no goroutine while running.
func (h *Hub) RunWithContext(ctx context.Context) error {
	<-ctx.Done()
	h.Close()
	return ctx.Err()
}

// Close shuts the hub down: all subscriptions are closed and further
// Subscribe calls return nil. Idempotent.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	for _, feed := range h.feeds {
		for _, sub := range feed {
			close(sub.ch)
		}
	}
	h.feeds = make(map[string]map[uint64]*Subscription)
	h.mu.Unlock()
}

// String identifies the hub in supervisor logs.
func (h *Hub) String() string {
	return "broadcast-hub"
}

// removeLocked detaches a subscription from its feed. Caller holds h.mu.
// Returns false if the subscription was already gone.
func (h *Hub) removeLocked(sub *Subscription) bool {
	feed, ok := h.feeds[sub.surveyorID]
	if !ok {
		return false
	}
	if _, ok := feed[sub.id]; !ok {
		return false
	}
	delete(feed, sub.id)
	if len(feed) == 0 {
		delete(h.feeds, sub.surveyorID)
	}
	return true
}
