// Trailfund - Strava Activity and Fundraising Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailfund

package activitycache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tomtom215/trailfund/internal/models"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// stubFetcher serves a fixed set of pages and records each call.
type stubFetcher struct {
	mu      sync.Mutex
	pages   [][]models.Activity
	failAt  int // page number that fails, 0 for none
	calls   int
	sinces  []time.Time
	details map[int64]*models.Activity

	// gate, when set, blocks FetchPage until closed. started is closed on the
	// first blocked call.
	gate    chan struct{}
	started chan struct{}
	once    sync.Once
}

var errUpstream = errors.New("upstream returned 503")

func (f *stubFetcher) FetchPage(ctx context.Context, since time.Time, page int) (Page, error) {
	f.mu.Lock()
	f.calls++
	f.sinces = append(f.sinces, since)
	gate, started := f.gate, f.started
	pages, failAt := f.pages, f.failAt
	f.mu.Unlock()

	if gate != nil {
		f.once.Do(func() { close(started) })
		select {
		case <-gate:
		case <-ctx.Done():
			return Page{}, ctx.Err()
		}
	}

	if failAt != 0 && page == failAt {
		return Page{}, errUpstream
	}
	if page > len(pages) {
		return Page{}, nil
	}
	p := Page{Activities: append([]models.Activity(nil), pages[page-1]...)}
	if page < len(pages) {
		p.NextPage = page + 1
	}
	return p, nil
}

func (f *stubFetcher) FetchActivityDetail(_ context.Context, id int64) (*models.Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d, ok := f.details[id]; ok {
		return d, nil
	}
	return nil, errors.New("not found")
}

func (f *stubFetcher) set(pages ...[]models.Activity) {
	f.mu.Lock()
	f.pages = pages
	f.failAt = 0
	f.mu.Unlock()
}

func (f *stubFetcher) failOn(page int) {
	f.mu.Lock()
	f.failAt = page
	f.mu.Unlock()
}

func (f *stubFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *stubFetcher) lastSince() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sinces[len(f.sinces)-1]
}

func act(id int64, start time.Time, kind string) models.Activity {
	return models.Activity{
		ID:              id,
		Name:            kind + " session",
		Kind:            kind,
		StartTime:       start,
		DurationSeconds: 1800,
		DistanceMeters:  5000,
	}
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
func boolPtr(b bool) *bool    { return &b }

func newTestManager(t *testing.T, f Fetcher, clock *fakeClock, mutate ...func(*Options)) *Manager {
	t.Helper()
	opts := Options{
		Dir:          t.TempDir(),
		FileName:     "activities.json",
		TTL:          time.Hour,
		Overlap:      6 * time.Hour,
		FetchTimeout: 5 * time.Second,
		KeepBackups:  3,
		DefaultLimit: 10,
		MaxLimit:     50,
		MaxPages:     10,
		Now:          clock.Now,
	}
	for _, fn := range mutate {
		fn(&opts)
	}
	m, err := New(f, opts)
	require.NoError(t, err)
	require.NoError(t, m.Load())
	t.Cleanup(m.Close)
	return m
}

func ids(records []models.Activity) []int64 {
	out := make([]int64, len(records))
	for i := range records {
		out[i] = records[i].ID
	}
	return out
}
