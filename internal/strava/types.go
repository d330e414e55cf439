// Trailfund - Strava Activity and Fundraising Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailfund

package strava

import (
	"sort"
	"time"

	"github.com/tomtom215/trailfund/internal/models"
)

// apiActivity covers the fields Trailfund reads from both SummaryActivity
// (list endpoint) and DetailedActivity.
type apiActivity struct {
	ID                 int64      `json:"id"`
	Name               string     `json:"name"`
	Type               string     `json:"type"`
	SportType          string     `json:"sport_type"`
	StartDate          time.Time  `json:"start_date"`
	MovingTime         int64      `json:"moving_time"`
	ElapsedTime        *int64     `json:"elapsed_time"`
	Distance           float64    `json:"distance"`
	TotalElevationGain *float64   `json:"total_elevation_gain"`
	Description        *string    `json:"description"`
	TotalPhotoCount    *int       `json:"total_photo_count"`
	CommentCount       *int       `json:"comment_count"`
	KudosCount         *int       `json:"kudos_count"`
	Photos             *apiPhotos `json:"photos"`
}

type apiPhotos struct {
	Count   int `json:"count"`
	Primary *struct {
		URLs map[string]string `json:"urls"`
	} `json:"primary"`
}

// toModel maps the wire shape. Fields the endpoint did not send stay nil so a
// later merge keeps what an earlier fetch found.
func (a *apiActivity) toModel() models.Activity {
	kind := a.SportType
	if kind == "" {
		kind = a.Type
	}

	out := models.Activity{
		ID:              a.ID,
		Name:            a.Name,
		Kind:            kind,
		StartTime:       a.StartDate.UTC(),
		DurationSeconds: a.MovingTime,
		DistanceMeters:  a.Distance,
		ElapsedSeconds:  a.ElapsedTime,
		ElevationGainM:  a.TotalElevationGain,
		Description:     a.Description,
		PhotoCount:      a.TotalPhotoCount,
		CommentCount:    a.CommentCount,
		KudosCount:      a.KudosCount,
	}

	if a.Photos != nil && a.Photos.Primary != nil && len(a.Photos.Primary.URLs) > 0 {
		sizes := make([]string, 0, len(a.Photos.Primary.URLs))
		for size := range a.Photos.Primary.URLs {
			sizes = append(sizes, size)
		}
		sort.Strings(sizes)
		out.Photos = make([]string, 0, len(sizes))
		for _, size := range sizes {
			out.Photos = append(out.Photos, a.Photos.Primary.URLs[size])
		}
		if out.PhotoCount == nil {
			count := a.Photos.Count
			out.PhotoCount = &count
		}
	}
	return out
}
