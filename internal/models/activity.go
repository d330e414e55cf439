// Trailfund - Strava Activity and Fundraising Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailfund

package models

import "time"

// Activity is one cached upstream activity.
//
// Core fields (ID, StartTime, Kind, DurationSeconds, DistanceMeters) are
// always present in upstream list responses. The pointer and slice fields are
// optional: nil means "not known", which lets a later merge enrich a record
// without wiping values an earlier fetch already had.
type Activity struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name,omitempty"`
	Kind            string    `json:"kind"`
	StartTime       time.Time `json:"start_time"`
	DurationSeconds int64     `json:"duration_s"`
	DistanceMeters  float64   `json:"distance_m"`

	ElapsedSeconds *int64     `json:"elapsed_s,omitempty"`
	ElevationGainM *float64   `json:"elevation_gain_m,omitempty"`
	Description    *string    `json:"description,omitempty"`
	PhotoCount     *int       `json:"photo_count,omitempty"`
	Photos         []string   `json:"photos,omitempty"`
	CommentCount   *int       `json:"comment_count,omitempty"`
	Comments       []Comment  `json:"comments,omitempty"`
	KudosCount     *int       `json:"kudos_count,omitempty"`
	FetchedAt      time.Time  `json:"fetched_at"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

// Comment is a comment left on an activity.
type Comment struct {
	ID        int64     `json:"id"`
	Author    string    `json:"author,omitempty"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// HasPhotos reports whether the activity is known to have at least one photo.
func (a *Activity) HasPhotos() bool {
	if len(a.Photos) > 0 {
		return true
	}
	return a.PhotoCount != nil && *a.PhotoCount > 0
}

// HasDescription reports whether the activity has a non-empty description.
func (a *Activity) HasDescription() bool {
	return a.Description != nil && *a.Description != ""
}

// ActivitySummary aggregates cached activities of one kind.
type ActivitySummary struct {
	Kind            string  `json:"kind"`
	Count           int     `json:"count"`
	DistanceMeters  float64 `json:"distance_m"`
	DurationSeconds int64   `json:"duration_s"`
	ElevationGainM  float64 `json:"elevation_gain_m"`
}
