// Trailfund - Strava Activity and Fundraising Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailfund

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/trailfund/internal/activitycache"
	"github.com/tomtom215/trailfund/internal/models"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

// fakeCache is an in-memory ActivityCache.
type fakeCache struct {
	mu sync.Mutex

	records     []models.Activity
	lastUpdated *time.Time
	fresh       bool
	err         error
	refreshErr  error

	gotLimit    int
	gotFilter   activitycache.Filter
	refreshes   []bool
	cleanupKeep int
}

func newFakeCache(records ...models.Activity) *fakeCache {
	lu := testNow
	return &fakeCache{records: records, lastUpdated: &lu, fresh: true}
}

func (c *fakeCache) Get(_ context.Context, limit int, f activitycache.Filter) (*activitycache.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gotLimit, c.gotFilter = limit, f
	if c.err != nil {
		return nil, c.err
	}
	var matched []models.Activity
	for i := range c.records {
		if f.Match(&c.records[i]) {
			matched = append(matched, c.records[i])
		}
	}
	total := len(matched)
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return &activitycache.Result{Records: matched, TotalMatches: total, IsFresh: c.fresh, LastUpdated: *c.lastUpdated}, nil
}

func (c *fakeCache) GetByID(_ context.Context, id int64) (*models.Activity, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, false, c.err
	}
	for i := range c.records {
		if c.records[i].ID == id {
			a := c.records[i]
			return &a, c.fresh, nil
		}
	}
	return nil, false, activitycache.ErrActivityNotFound
}

func (c *fakeCache) Summary(_ context.Context, f activitycache.Filter) ([]models.ActivitySummary, *activitycache.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, nil, c.err
	}
	byKind := map[string]*models.ActivitySummary{}
	for i := range c.records {
		a := &c.records[i]
		if !f.Match(a) {
			continue
		}
		s, ok := byKind[a.Kind]
		if !ok {
			s = &models.ActivitySummary{Kind: a.Kind}
			byKind[a.Kind] = s
		}
		s.Count++
		s.DistanceMeters += a.DistanceMeters
		s.DurationSeconds += a.DurationSeconds
	}
	out := make([]models.ActivitySummary, 0, len(byKind))
	for _, s := range byKind {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out, &activitycache.Snapshot{Records: c.records, LastUpdated: *c.lastUpdated}, nil
}

func (c *fakeCache) Refresh(_ context.Context, forceFull bool) (activitycache.RefreshResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refreshes = append(c.refreshes, forceFull)
	if c.refreshErr != nil {
		return activitycache.RefreshResult{}, c.refreshErr
	}
	mode := activitycache.ModeIncremental
	if forceFull {
		mode = activitycache.ModeFull
	}
	return activitycache.RefreshResult{Mode: mode, Total: len(c.records), LastUpdated: testNow}, nil
}

func (c *fakeCache) CleanupBackups(keep int) (activitycache.CleanupResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanupKeep = keep
	return activitycache.CleanupResult{Removed: []activitycache.Generation{}, Kept: keep}, nil
}

func (c *fakeCache) Stats() activitycache.Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := activitycache.Stats{Records: len(c.records), IsFresh: c.fresh, Backups: []activitycache.Generation{}}
	if c.lastUpdated != nil {
		lu := *c.lastUpdated
		st.LastUpdated = &lu
	}
	return st
}

// fakeFundraising is an in-memory FundraisingSource.
type fakeFundraising struct {
	page      *models.FundraisingPage
	donations []models.Donation
	err       error
	gotLimit  int
}

func (f *fakeFundraising) Enabled() bool { return true }

func (f *fakeFundraising) Summary(context.Context) (*models.FundraisingPage, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.page, nil
}

func (f *fakeFundraising) Donations(_ context.Context, limit int) ([]models.Donation, error) {
	f.gotLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.donations, nil
}

func activity(id int64, kind string, start time.Time, meters float64) models.Activity {
	return models.Activity{
		ID:              id,
		Name:            kind + " " + start.Format("Jan 2"),
		Kind:            kind,
		StartTime:       start,
		DurationSeconds: 1800,
		DistanceMeters:  meters,
		FetchedAt:       testNow,
	}
}

func sampleActivities() []models.Activity {
	return []models.Activity{
		activity(3, "Run", testNow.Add(-24*time.Hour), 10000),
		activity(2, "Ride", testNow.Add(-48*time.Hour), 40000),
		activity(1, "Run", testNow.Add(-72*time.Hour), 5000),
	}
}

// envelope is the decoded response body.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code      string                 `json:"code"`
		Message   string                 `json:"message"`
		Details   map[string]interface{} `json:"details"`
		RequestID string                 `json:"request_id"`
	} `json:"error"`
	Meta *struct {
		RequestID   string     `json:"request_id"`
		IsFresh     *bool      `json:"is_fresh"`
		LastUpdated *time.Time `json:"last_updated"`
		Pagination  *struct {
			Total   int  `json:"total"`
			Count   int  `json:"count"`
			Limit   int  `json:"limit"`
			HasMore bool `json:"has_more"`
		} `json:"pagination"`
	} `json:"meta"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %s)", err, rec.Body.String())
	}
	return env
}

// decodeData decodes the envelope's data field into out.
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) envelope {
	t.Helper()
	env := decodeEnvelope(t, rec)
	if err := json.Unmarshal(env.Data, out); err != nil {
		t.Fatalf("decode data: %v (body %s)", err, rec.Body.String())
	}
	return env
}

// errorCode returns the envelope's error code, failing if there is none.
func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	env := decodeEnvelope(t, rec)
	if env.Error == nil {
		t.Fatalf("expected an error envelope, got %s", rec.Body.String())
	}
	return env.Error.Code
}

func wantStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("Expected status %d, got %d (body %s)", want, rec.Code, rec.Body.String())
	}
}

func do(t *testing.T, h http.Handler, method, target string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(""))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}
