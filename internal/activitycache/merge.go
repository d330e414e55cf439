// Trailfund - Strava Activity and Fundraising Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailfund

package activitycache

import (
	"cmp"
	"reflect"
	"slices"
	"time"

	"github.com/tomtom215/trailfund/internal/models"
)

// mergeActivities unions base and incoming by ID. A record present in both is
// combined with enrich(base, incoming). The result is sorted by start time
// descending, ties broken by ID descending. Neither input is modified.
func mergeActivities(base, incoming []models.Activity) (merged []models.Activity, added, updated int) {
	index := make(map[int64]int, len(base)+len(incoming))
	merged = make([]models.Activity, 0, len(base)+len(incoming))

	for i := range base {
		if at, dup := index[base[i].ID]; dup {
			merged[at] = enrich(merged[at], base[i])
			continue
		}
		index[base[i].ID] = len(merged)
		merged = append(merged, base[i])
	}

	for i := range incoming {
		in := incoming[i]
		at, ok := index[in.ID]
		if !ok {
			index[in.ID] = len(merged)
			merged = append(merged, in)
			added++
			continue
		}
		next := enrich(merged[at], in)
		if !sameContent(merged[at], next) {
			updated++
		}
		merged[at] = next
	}

	sortActivities(merged)
	return merged, added, updated
}

// enrich overlays newer onto older. Non-empty scalar fields and non-nil
// optional fields from newer win; anything newer leaves empty keeps the older
// value. Zero duration or distance counts as empty.
func enrich(older, newer models.Activity) models.Activity {
	out := older

	if newer.Name != "" {
		out.Name = newer.Name
	}
	if newer.Kind != "" {
		out.Kind = newer.Kind
	}
	if !newer.StartTime.IsZero() {
		out.StartTime = newer.StartTime
	}
	if newer.DurationSeconds != 0 {
		out.DurationSeconds = newer.DurationSeconds
	}
	if newer.DistanceMeters != 0 {
		out.DistanceMeters = newer.DistanceMeters
	}

	if newer.ElapsedSeconds != nil {
		out.ElapsedSeconds = newer.ElapsedSeconds
	}
	if newer.ElevationGainM != nil {
		out.ElevationGainM = newer.ElevationGainM
	}
	if newer.Description != nil {
		out.Description = newer.Description
	}
	if newer.PhotoCount != nil {
		out.PhotoCount = newer.PhotoCount
	}
	if newer.Photos != nil {
		out.Photos = newer.Photos
	}
	if newer.CommentCount != nil {
		out.CommentCount = newer.CommentCount
	}
	if newer.Comments != nil {
		out.Comments = newer.Comments
	}
	if newer.KudosCount != nil {
		out.KudosCount = newer.KudosCount
	}
	if newer.UpdatedAt != nil {
		out.UpdatedAt = newer.UpdatedAt
	}
	if newer.FetchedAt.After(out.FetchedAt) {
		out.FetchedAt = newer.FetchedAt
	}
	return out
}

// sameContent compares two records ignoring FetchedAt, so re-seeing an
// unchanged activity in the overlap window is not counted as an update.
func sameContent(a, b models.Activity) bool {
	a.FetchedAt, b.FetchedAt = time.Time{}, time.Time{}
	return reflect.DeepEqual(a, b)
}

func sortActivities(records []models.Activity) {
	slices.SortStableFunc(records, func(a, b models.Activity) int {
		if c := b.StartTime.Compare(a.StartTime); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
}
