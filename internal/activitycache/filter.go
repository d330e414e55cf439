// Trailfund - Strava Activity and Fundraising Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailfund

package activitycache

import (
	"sort"
	"strings"
	"time"

	"github.com/tomtom215/trailfund/internal/models"
)

// Filter narrows a read. Zero values match everything.
type Filter struct {
	// After is inclusive, Before exclusive, both on StartTime.
	After  time.Time
	Before time.Time

	// Kinds matches case-insensitively against Activity.Kind.
	Kinds []string

	HasPhotos      *bool
	HasDescription *bool

	MinDistanceMeters float64
}

// IsZero reports whether the filter matches every record.
func (f *Filter) IsZero() bool {
	return f.After.IsZero() && f.Before.IsZero() && len(f.Kinds) == 0 &&
		f.HasPhotos == nil && f.HasDescription == nil && f.MinDistanceMeters == 0
}

// Match reports whether a passes every set criterion.
func (f *Filter) Match(a *models.Activity) bool {
	if !f.After.IsZero() && a.StartTime.Before(f.After) {
		return false
	}
	if !f.Before.IsZero() && !a.StartTime.Before(f.Before) {
		return false
	}
	if len(f.Kinds) > 0 && !containsFold(f.Kinds, a.Kind) {
		return false
	}
	if f.HasPhotos != nil && a.HasPhotos() != *f.HasPhotos {
		return false
	}
	if f.HasDescription != nil && a.HasDescription() != *f.HasDescription {
		return false
	}
	if f.MinDistanceMeters > 0 && a.DistanceMeters < f.MinDistanceMeters {
		return false
	}
	return true
}

// apply returns up to limit matching records in snapshot order, plus the total
// number of matches.
func (f *Filter) apply(records []models.Activity, limit int) ([]models.Activity, int) {
	if f.IsZero() {
		n := min(limit, len(records))
		out := make([]models.Activity, n)
		copy(out, records[:n])
		return out, len(records)
	}

	out := make([]models.Activity, 0, min(limit, len(records)))
	total := 0
	for i := range records {
		if !f.Match(&records[i]) {
			continue
		}
		total++
		if len(out) < limit {
			out = append(out, records[i])
		}
	}
	return out, total
}

func containsFold(set []string, s string) bool {
	for _, v := range set {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// summarize totals records per kind, largest count first.
func summarize(records []models.Activity, f *Filter) []models.ActivitySummary {
	byKind := make(map[string]*models.ActivitySummary)
	for i := range records {
		a := &records[i]
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
		if a.ElevationGainM != nil {
			s.ElevationGainM += *a.ElevationGainM
		}
	}

	out := make([]models.ActivitySummary, 0, len(byKind))
	for _, s := range byKind {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}
