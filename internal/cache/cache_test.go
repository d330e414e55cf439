// Trailfund - Strava Activity and Fundraising Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailfund

package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestCacheBasicOperations(t *testing.T) {
	c := New[string](time.Minute)
	defer c.Close()

	c.Set("key1", "value1")
	value, exists := c.Get("key1")
	if !exists {
		t.Fatal("Expected key1 to exist")
	}
	if value != "value1" {
		t.Errorf("Expected value1, got %v", value)
	}

	if _, exists = c.Get("key2"); exists {
		t.Error("Expected key2 to not exist")
	}
}

func TestCacheExpiration(t *testing.T) {
	c := New[int](time.Minute)
	defer c.Close()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("key1", 1)
	if _, ok := c.Get("key1"); !ok {
		t.Fatal("Expected key1 to exist immediately after set")
	}

	now = now.Add(61 * time.Second)
	if _, ok := c.Get("key1"); ok {
		t.Error("Expected key1 to be expired")
	}
	if c.Len() != 0 {
		t.Errorf("Expected expired entry to be removed, have %d entries", c.Len())
	}

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Evictions != 1 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}

func TestCacheSetWithTTL(t *testing.T) {
	c := New[string](time.Hour)
	defer c.Close()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.SetWithTTL("short", "x", time.Second)
	c.Set("long", "y")

	now = now.Add(2 * time.Second)
	if _, ok := c.Get("short"); ok {
		t.Error("Expected short-lived entry to expire")
	}
	if _, ok := c.Get("long"); !ok {
		t.Error("Expected default TTL entry to remain")
	}
}

func TestCacheDeleteAndClear(t *testing.T) {
	c := New[int](time.Minute)
	defer c.Close()

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	c.Delete("a")
	c.Delete("missing")
	if _, ok := c.Get("a"); ok {
		t.Error("Expected a to be deleted")
	}
	if got := c.Stats().Evictions; got != 1 {
		t.Errorf("Expected 1 eviction after delete, got %d", got)
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Expected empty cache after Clear, got %d", c.Len())
	}
	stats := c.Stats()
	if stats.Evictions != 3 || stats.TotalKeys != 0 {
		t.Errorf("Unexpected stats after Clear: %+v", stats)
	}
}

func TestCacheCleanupLoop(t *testing.T) {
	c := NewWithCleanup[int](10*time.Millisecond, 5*time.Millisecond)
	defer c.Close()

	for i := 0; i < 10; i++ {
		c.Set(fmt.Sprintf("k%d", i), i)
	}

	deadline := time.Now().Add(2 * time.Second)
	for c.Len() > 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if c.Len() != 0 {
		t.Errorf("Expected background cleanup to remove expired entries, %d left", c.Len())
	}
	if c.Stats().LastCleanup.IsZero() {
		t.Error("Expected LastCleanup to be set")
	}
}

func TestCacheCloseIdempotent(t *testing.T) {
	c := New[int](time.Minute)
	c.Close()
	c.Close()
}

func TestCacheConcurrentAccess(t *testing.T) {
	c := New[int](time.Minute)
	defer c.Close()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("key%d", n%5)
			for j := 0; j < 100; j++ {
				c.Set(key, j)
				c.Get(key)
			}
		}(i)
	}
	wg.Wait()

	if c.Len() != 5 {
		t.Errorf("Expected 5 keys, got %d", c.Len())
	}
}

func TestStatsHitRate(t *testing.T) {
	if got := (Stats{}).HitRate(); got != 0 {
		t.Errorf("Expected 0 hit rate with no lookups, got %v", got)
	}
	if got := (Stats{Hits: 3, Misses: 1}).HitRate(); got != 75 {
		t.Errorf("Expected 75, got %v", got)
	}
}

func TestGenerateKey(t *testing.T) {
	k1 := GenerateKey("donations", map[string]int{"limit": 10})
	k2 := GenerateKey("donations", map[string]int{"limit": 10})
	k3 := GenerateKey("donations", map[string]int{"limit": 20})

	if k1 != k2 {
		t.Errorf("Expected identical keys, got %s and %s", k1, k2)
	}
	if k1 == k3 {
		t.Error("Expected different params to produce different keys")
	}
	if len(k1) != len("donations:")+32 {
		t.Errorf("Unexpected key length: %s", k1)
	}
}
