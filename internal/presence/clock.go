// Surveyor Tracking Backend - Field Surveyor Presence and Live Location
// Copyright 2026 NeoGeo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/neogeo/surveyor-tracking

// Package presence tracks which surveyors are currently active.
//
// Two signals feed the online decision: the in-memory activity clock
// (touched on every authenticated interaction) and the persisted track
// store (most recent location sample). A surveyor is online when either
// signal is fresh within the configured liveness window.
//
// The activity clock is process-scoped and intentionally volatile: after a
// restart all surveyors read as offline until they next report, or until
// their latest stored sample is fresh enough on its own.
package presence

import (
	"hash/fnv"
	"sync"
	"time"
)

// clockShardCount is the number of independent shards in the activity
// clock. Power of two so the shard pick is a mask, not a modulo.
const clockShardCount = 32

// Clock records the last activity instant per surveyor id. Reads and
// writes for unrelated ids contend only within their shard; operations on
// a single id are linearizable under that shard's lock.
//
// Entries are never evicted. The map is bounded by the surveyor roster,
// which is small relative to memory.
type Clock struct {
	shards [clockShardCount]clockShard
	now    func() time.Time
}

type clockShard struct {
	mu sync.RWMutex
	m  map[string]time.Time
}

// NewClock creates an activity clock using time.Now.
func NewClock() *Clock {
	return NewClockWithNow(time.Now)
}

// NewClockWithNow creates an activity clock with an injected time source.
// Tests use this to make freshness decisions deterministic.
func NewClockWithNow(now func() time.Time) *Clock {
	c := &Clock{now: now}
	for i := range c.shards {
		c.shards[i].m = make(map[string]time.Time)
	}
	return c
}

// Touch records the current instant as the surveyor's last activity.
func (c *Clock) Touch(surveyorID string) {
	shard := c.shardFor(surveyorID)
	now := c.now()

	shard.mu.Lock()
	shard.m[surveyorID] = now
	shard.mu.Unlock()
}

// LastActivity returns the last recorded activity instant for the
// surveyor. The second return value is false if the surveyor has not been
// seen since process start.
func (c *Clock) LastActivity(surveyorID string) (time.Time, bool) {
	shard := c.shardFor(surveyorID)

	shard.mu.RLock()
	t, ok := shard.m[surveyorID]
	shard.mu.RUnlock()
	return t, ok
}

// Now reports the clock's current instant from its injected time source.
func (c *Clock) Now() time.Time {
	return c.now()
}

// Len returns the number of surveyors seen since process start.
func (c *Clock) Len() int {
	total := 0
	for i := range c.shards {
		c.shards[i].mu.RLock()
		total += len(c.shards[i].m)
		c.shards[i].mu.RUnlock()
	}
	return total
}

// shardFor picks the shard for a surveyor id by FNV-1a hash.
func (c *Clock) shardFor(surveyorID string) *clockShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(surveyorID))
	return &c.shards[h.Sum32()&(clockShardCount-1)]
}
