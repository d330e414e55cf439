// Trailfund - Strava Activity and Fundraising Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailfund

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/trailfund/internal/models"
)

// Activities handles GET /api/v1/activities
//
// @Summary List cached activities
// @Description Returns cached activities newest first. Stale data is served immediately and refreshed in the background.
// @Tags Activities
// @Produce json
// @Param limit query int false "Maximum records (capped by CACHE_MAX_LIMIT)"
// @Param kind query string false "Comma separated activity kinds"
// @Param after query string false "Start time lower bound, inclusive (RFC3339 or YYYY-MM-DD)"
// @Param before query string false "Start time upper bound, exclusive (RFC3339 or YYYY-MM-DD)"
// @Param has_photos query bool false "Only activities with (or without) photos"
// @Param has_description query bool false "Only activities with (or without) a description"
// @Param min_distance query number false "Minimum distance in meters"
// @Success 200 {object} APIResponse{data=[]models.Activity}
// @Failure 400 {object} APIResponse
// @Failure 503 {object} APIResponse "No cached data and the initial fetch failed"
// @Router /activities [get]
func (h *Handler) Activities(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	query, filter, ok := parseActivityQuery(w, r)
	if !ok {
		return
	}

	res, err := h.cache.Get(r.Context(), query.Limit, filter)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	setCacheStatus(w, res.IsFresh)
	rw.SuccessWithMeta(res.Records, &APIMeta{
		IsFresh:     &res.IsFresh,
		LastUpdated: &res.LastUpdated,
		Pagination: &PaginationMeta{
			Total:   res.TotalMatches,
			Count:   len(res.Records),
			Limit:   query.Limit,
			HasMore: res.TotalMatches > len(res.Records),
		},
	})
}

// activitySummaryResponse is the body of GET /api/v1/activities/summary.
type activitySummaryResponse struct {
	Kinds                []models.ActivitySummary `json:"kinds"`
	TotalActivities      int                      `json:"total_activities"`
	TotalDistanceMeters  float64                  `json:"total_distance_m"`
	TotalDurationSeconds int64                    `json:"total_duration_s"`
}

// ActivitiesSummary handles GET /api/v1/activities/summary
//
// @Summary Totals per activity kind
// @Description Aggregates count, distance, duration and elevation per kind over cached activities. Accepts the same filters as /activities except limit.
// @Tags Activities
// @Produce json
// @Success 200 {object} APIResponse{data=activitySummaryResponse}
// @Router /activities/summary [get]
func (h *Handler) ActivitiesSummary(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	_, filter, ok := parseActivityQuery(w, r)
	if !ok {
		return
	}

	kinds, snap, err := h.cache.Summary(r.Context(), filter)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := activitySummaryResponse{Kinds: kinds}
	for _, k := range kinds {
		out.TotalActivities += k.Count
		out.TotalDistanceMeters += k.DistanceMeters
		out.TotalDurationSeconds += k.DurationSeconds
	}

	fresh := h.cache.Stats().IsFresh
	lastUpdated := snap.LastUpdated
	setCacheStatus(w, fresh)
	rw.SuccessWithMeta(out, &APIMeta{IsFresh: &fresh, LastUpdated: &lastUpdated})
}

// ActivityByID handles GET /api/v1/activities/{id}
//
// @Summary Get one cached activity
// @Tags Activities
// @Produce json
// @Param id path int true "Activity ID"
// @Success 200 {object} APIResponse{data=models.Activity}
// @Failure 404 {object} APIResponse
// @Router /activities/{id} [get]
func (h *Handler) ActivityByID(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		rw.BadRequest("id must be a positive integer")
		return
	}

	a, fresh, err := h.cache.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	setCacheStatus(w, fresh)
	rw.SuccessWithMeta(a, &APIMeta{IsFresh: &fresh, LastUpdated: h.cache.Stats().LastUpdated})
}
