// Trailfund - Strava Activity and Fundraising Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailfund

package api

import (
	"net/http"
	"strconv"

	"github.com/tomtom215/trailfund/internal/activitycache"
	"github.com/tomtom215/trailfund/internal/logging"
	"github.com/tomtom215/trailfund/internal/validation"
)

// cacheStatsResponse is the body of GET /api/v1/cache/stats.
type cacheStatsResponse struct {
	activitycache.Stats
	RateLimitClients map[string]int `json:"ratelimit_clients,omitempty"`
}

// CacheStats handles GET /api/v1/cache/stats
//
// @Summary Activity cache statistics
// @Description Snapshot age, record count, backup generations, refresh counters and tracked rate limit clients.
// @Tags Cache
// @Produce json
// @Success 200 {object} APIResponse{data=cacheStatsResponse}
// @Router /cache/stats [get]
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	out := cacheStatsResponse{Stats: h.cache.Stats()}
	if h.registry != nil && !h.registry.Disabled() {
		out.RateLimitClients = h.registry.Len()
	}
	WriteSuccess(w, r, out)
}

// CacheRefresh handles POST /api/v1/cache/refresh
//
// @Summary Force a cache refresh
// @Description Incremental by default; full=true refetches everything. Concurrent refreshes of the same mode share one upstream fetch. The refresh continues if the client disconnects.
// @Tags Cache
// @Produce json
// @Param full query bool false "Full refresh"
// @Security ApiKeyAuth
// @Success 200 {object} APIResponse{data=activitycache.RefreshResult}
// @Failure 401 {object} APIResponse
// @Failure 502 {object} APIResponse
// @Router /cache/refresh [post]
func (h *Handler) CacheRefresh(w http.ResponseWriter, r *http.Request) {
	req := validation.RefreshRequest{Full: r.URL.Query().Get("full")}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidation(w, r, verr)
		return
	}
	full := false
	if req.Full != "" {
		full, _ = strconv.ParseBool(req.Full)
	}

	res, err := h.cache.Refresh(r.Context(), full)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("mode", res.Mode).
		Int("added", res.Added).
		Int("updated", res.Updated).
		Bool("coalesced", res.Coalesced).
		Msg("Manual refresh completed")
	WriteSuccess(w, r, res)
}

// CacheCleanup handles POST /api/v1/cache/cleanup
//
// @Summary Delete old backup generations
// @Description Keeps the newest keep generations (default CACHE_KEEP_BACKUPS). Never touches the active snapshot.
// @Tags Cache
// @Produce json
// @Param keep query int false "Generations to keep"
// @Security ApiKeyAuth
// @Success 200 {object} APIResponse{data=activitycache.CleanupResult}
// @Router /cache/cleanup [post]
func (h *Handler) CacheCleanup(w http.ResponseWriter, r *http.Request) {
	keep, set, err := intParam(r.URL.Query(), "keep")
	if err != nil {
		NewResponseWriter(w, r).BadRequest(err.Error())
		return
	}

	req := validation.CleanupRequest{}
	if set {
		req.Keep = &keep
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidation(w, r, verr)
		return
	}
	if !set {
		keep = h.keepBackups
	}

	res, err := h.cache.CleanupBackups(keep)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Int("removed", len(res.Removed)).
		Int("kept", res.Kept).
		Msg("Backup cleanup completed")
	WriteSuccess(w, r, res)
}
