// Trailfund - Strava Activity and Fundraising Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailfund

package validation

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// DateOnly is the short form accepted for date filters.
const DateOnly = "2006-01-02"

// MaxQueryLimit bounds limit parameters before the cache applies its own cap.
const MaxQueryLimit = 1000

// ActivityQuery is the parsed query string of GET /api/v1/activities.
type ActivityQuery struct {
	Limit          int      `validate:"min=0,max=1000"`
	Kinds          []string `validate:"max=20,dive,min=1,max=40,activitykind"`
	After          string   `validate:"omitempty,datefilter"`
	Before         string   `validate:"omitempty,datefilter"`
	HasPhotos      string   `validate:"omitempty,boolean"`
	HasDescription string   `validate:"omitempty,boolean"`
	MinDistance    float64  `validate:"gte=0"`
}

// RefreshRequest is the query of POST /api/v1/cache/refresh.
type RefreshRequest struct {
	Full string `validate:"omitempty,boolean"`
}

// CleanupRequest is the query of POST /api/v1/cache/cleanup. A nil Keep means
// the configured retention.
type CleanupRequest struct {
	Keep *int `validate:"omitempty,min=0,max=1000"`
}

// DonationsQuery is the query of GET /api/v1/fundraising/donations.
type DonationsQuery struct {
	Limit int `validate:"min=0,max=500"`
}

// ParseDate accepts RFC3339 or YYYY-MM-DD (midnight UTC).
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t, nil
}

func validateDateFilter(fl validator.FieldLevel) bool {
	_, err := ParseDate(fl.Field().String())
	return err == nil
}

func validateActivityKind(fl validator.FieldLevel) bool {
	for _, r := range fl.Field().String() {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

// activityQueryStructLevel rejects an empty date range.
func activityQueryStructLevel(sl validator.StructLevel) {
	q := sl.Current().Interface().(ActivityQuery)
	if q.After == "" || q.Before == "" {
		return
	}
	after, errA := ParseDate(q.After)
	before, errB := ParseDate(q.Before)
	if errA != nil || errB != nil {
		return
	}
	if !before.After(after) {
		sl.ReportError(q.Before, "Before", "Before", "gtfield", "After")
	}
}
