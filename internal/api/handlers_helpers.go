// Trailfund - Strava Activity and Fundraising Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailfund

package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tomtom215/trailfund/internal/activitycache"
	"github.com/tomtom215/trailfund/internal/validation"
)

// respondValidation writes a 400 VALIDATION_ERROR for verr.
func respondValidation(w http.ResponseWriter, r *http.Request, verr *validation.RequestValidationError) {
	apiErr := verr.ToAPIError()
	NewResponseWriter(w, r).ErrorWithDetails(http.StatusBadRequest, ErrCodeValidation, apiErr.Message, apiErr.Details)
}

// intParam parses an optional integer parameter.
func intParam(q url.Values, key string) (int, bool, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("%s must be an integer", key)
	}
	return v, true, nil
}

func floatParam(q url.Values, key string) (float64, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number", key)
	}
	return v, nil
}

// boolPtr parses a value already checked by the boolean validator.
func boolPtr(raw string) *bool {
	if raw == "" {
		return nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &b
}

func parseCommaSeparated(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseActivityQuery reads and validates the activity filter parameters. On
// failure it has already written the 400 response.
func parseActivityQuery(w http.ResponseWriter, r *http.Request) (validation.ActivityQuery, activitycache.Filter, bool) {
	q := r.URL.Query()
	var query validation.ActivityQuery

	limit, _, err := intParam(q, "limit")
	if err != nil {
		NewResponseWriter(w, r).BadRequest(err.Error())
		return query, activitycache.Filter{}, false
	}
	minDistance, err := floatParam(q, "min_distance")
	if err != nil {
		NewResponseWriter(w, r).BadRequest(err.Error())
		return query, activitycache.Filter{}, false
	}

	query = validation.ActivityQuery{
		Limit:          limit,
		Kinds:          parseCommaSeparated(q.Get("kind")),
		After:          strings.TrimSpace(q.Get("after")),
		Before:         strings.TrimSpace(q.Get("before")),
		HasPhotos:      strings.TrimSpace(q.Get("has_photos")),
		HasDescription: strings.TrimSpace(q.Get("has_description")),
		MinDistance:    minDistance,
	}
	if verr := validation.ValidateStruct(&query); verr != nil {
		respondValidation(w, r, verr)
		return query, activitycache.Filter{}, false
	}

	f := activitycache.Filter{
		Kinds:             query.Kinds,
		HasPhotos:         boolPtr(query.HasPhotos),
		HasDescription:    boolPtr(query.HasDescription),
		MinDistanceMeters: query.MinDistance,
	}
	// Both dates passed the datefilter validator.
	if query.After != "" {
		f.After, _ = validation.ParseDate(query.After)
	}
	if query.Before != "" {
		f.Before, _ = validation.ParseDate(query.Before)
	}
	return query, f, true
}

// cacheStatusHeader reports whether cached data was served fresh or stale.
const cacheStatusHeader = "X-Cache-Status"

func setCacheStatus(w http.ResponseWriter, fresh bool) {
	if fresh {
		w.Header().Set(cacheStatusHeader, "fresh")
		return
	}
	w.Header().Set(cacheStatusHeader, "stale")
}
