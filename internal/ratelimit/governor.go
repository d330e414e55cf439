// Trailfund - Strava Activity and Fundraising Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailfund

package ratelimit

import (
	"errors"
	"hash/maphash"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomtom215/trailfund/internal/metrics"
)

const numShards = 32

// Config configures one Governor.
type Config struct {
	// Name labels metrics and log lines, e.g. "api" or "refresh".
	Name string

	MaxRequests int
	Window      time.Duration

	// MaxClients caps tracked windows. At the cap a new client first evicts a
	// window with nothing left in it, else the least recently active one.
	// Zero means no cap.
	MaxClients int

	// Now overrides time.Now in tests.
	Now func() time.Time
}

// Decision is the outcome of one Check.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int

	// ResetAt is when the oldest counted request leaves the window.
	ResetAt time.Time

	// RetryAfter is set on denial: time until ResetAt.
	RetryAfter time.Duration
}

// window holds one client's request instants in ascending order.
type window struct {
	mu       sync.Mutex
	stamps   []time.Time
	lastSeen time.Time

	// dead is set when the window is removed from its shard. A Check that
	// raced with removal retries against a fresh window.
	dead bool
}

type shard struct {
	mu      sync.Mutex
	windows map[string]*window
}

// Governor is a sliding-window limiter keyed by client identity. Checks for
// different clients only share a shard lock for the map lookup; checks for the
// same client are serialized on that client's window.
type Governor struct {
	name       string
	max        int
	window     time.Duration
	maxClients int
	now        func() time.Time

	seed   maphash.Seed
	shards [numShards]shard
	count  atomic.Int64
}

// New creates a Governor.
func New(cfg Config) (*Governor, error) {
	if cfg.MaxRequests < 1 {
		return nil, errors.New("ratelimit: MaxRequests must be at least 1")
	}
	if cfg.Window <= 0 {
		return nil, errors.New("ratelimit: Window must be positive")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	g := &Governor{
		name:       cfg.Name,
		max:        cfg.MaxRequests,
		window:     cfg.Window,
		maxClients: cfg.MaxClients,
		now:        cfg.Now,
		seed:       maphash.MakeSeed(),
	}
	for i := range g.shards {
		g.shards[i].windows = make(map[string]*window)
	}
	return g, nil
}

// Name returns the configured class name.
func (g *Governor) Name() string { return g.name }

// Limit returns MaxRequests.
func (g *Governor) Limit() int { return g.max }

// Window returns the window length.
func (g *Governor) Window() time.Duration { return g.window }

// Check evicts instants older than the window for id, then admits the request
// and records it if fewer than MaxRequests remain, or denies it without
// recording.
func (g *Governor) Check(id string) Decision {
	now := g.now()
	for {
		w := g.getOrCreate(id, now)

		w.mu.Lock()
		if w.dead {
			w.mu.Unlock()
			continue
		}
		d := g.admit(w, now)
		w.mu.Unlock()

		metrics.RecordRateLimit(g.name, d.Allowed)
		return d
	}
}

// admit must be called with w.mu held.
func (g *Governor) admit(w *window, now time.Time) Decision {
	w.evict(now.Add(-g.window))
	w.lastSeen = now

	if len(w.stamps) >= g.max {
		reset := w.stamps[0].Add(g.window)
		return Decision{
			Allowed:    false,
			Limit:      g.max,
			Remaining:  0,
			ResetAt:    reset,
			RetryAfter: reset.Sub(now),
		}
	}

	w.stamps = append(w.stamps, now)
	return Decision{
		Allowed:   true,
		Limit:     g.max,
		Remaining: g.max - len(w.stamps),
		ResetAt:   w.stamps[0].Add(g.window),
	}
}

// evict drops instants at or before cutoff. Must be called with w.mu held.
func (w *window) evict(cutoff time.Time) {
	i := 0
	for i < len(w.stamps) && !w.stamps[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return
	}
	n := copy(w.stamps, w.stamps[i:])
	clear(w.stamps[n:])
	w.stamps = w.stamps[:n]
}

func (g *Governor) shardIndex(id string) int {
	return int(maphash.String(g.seed, id) % numShards)
}

func (g *Governor) getOrCreate(id string, now time.Time) *window {
	idx := g.shardIndex(id)
	s := &g.shards[idx]

	s.mu.Lock()
	w, ok := s.windows[id]
	s.mu.Unlock()
	if ok {
		return w
	}

	if g.maxClients > 0 && int(g.count.Load()) >= g.maxClients {
		g.evictForCapacity(idx, now)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if w, ok := s.windows[id]; ok {
		return w
	}
	w = &window{lastSeen: now}
	s.windows[id] = w
	g.count.Add(1)
	metrics.RateLimitTrackedClients.WithLabelValues(g.name).Set(float64(g.count.Load()))
	return w
}

// evictForCapacity frees one slot for a new client. A window whose instants
// have all left the window goes first, since dropping it costs no client any
// quota. Only when every tracked client is active does the least recently seen
// window of the nearest non-empty shard go. Shards are scanned from start and
// locked one at a time, so concurrent first requests from new clients can
// overshoot MaxClients by at most the number of racing callers.
func (g *Governor) evictForCapacity(start int, now time.Time) {
	cutoff := now.Add(-g.window)
	fallback := -1

	for i := 0; i < numShards; i++ {
		idx := (start + i) % numShards
		s := &g.shards[idx]
		s.mu.Lock()
		if fallback < 0 && len(s.windows) > 0 {
			fallback = idx
		}
		if id, ok := leastRecent(s, cutoff, true); ok {
			g.removeLocked(s, id)
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()
	}

	if fallback < 0 {
		return
	}
	s := &g.shards[fallback]
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := leastRecent(s, cutoff, false); ok {
		g.removeLocked(s, id)
	}
}

// leastRecent returns the window in s with the oldest lastSeen, restricted to
// windows with no instant after cutoff when idleOnly is set. Must be called
// with s.mu held.
func leastRecent(s *shard, cutoff time.Time, idleOnly bool) (string, bool) {
	var (
		victimID string
		found    bool
		oldest   time.Time
	)
	for id, w := range s.windows {
		w.mu.Lock()
		seen := w.lastSeen
		idle := len(w.stamps) == 0 || !w.stamps[len(w.stamps)-1].After(cutoff)
		w.mu.Unlock()

		if idleOnly && !idle {
			continue
		}
		if !found || seen.Before(oldest) {
			victimID, oldest, found = id, seen, true
		}
	}
	return victimID, found
}

// removeLocked drops id from s. Must be called with s.mu held.
func (g *Governor) removeLocked(s *shard, id string) {
	w, ok := s.windows[id]
	if !ok {
		return
	}
	w.mu.Lock()
	w.dead = true
	w.mu.Unlock()
	delete(s.windows, id)
	g.count.Add(-1)
	metrics.RateLimitEvictions.WithLabelValues(g.name, "capacity").Inc()
}

// Sweep removes windows with no instants left in the window and returns how
// many were removed. Run it periodically to bound memory.
func (g *Governor) Sweep() int {
	cutoff := g.now().Add(-g.window)
	removed := 0

	for i := range g.shards {
		s := &g.shards[i]
		s.mu.Lock()
		for id, w := range s.windows {
			w.mu.Lock()
			w.evict(cutoff)
			idle := len(w.stamps) == 0
			if idle {
				w.dead = true
			}
			w.mu.Unlock()

			if idle {
				delete(s.windows, id)
				removed++
			}
		}
		s.mu.Unlock()
	}

	if removed > 0 {
		g.count.Add(int64(-removed))
		metrics.RateLimitEvictions.WithLabelValues(g.name, "idle").Add(float64(removed))
	}
	metrics.RateLimitTrackedClients.WithLabelValues(g.name).Set(float64(g.count.Load()))
	return removed
}

// Len returns the number of tracked client windows.
func (g *Governor) Len() int {
	return int(g.count.Load())
}
