// Trailfund - Strava Activity and Fundraising Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailfund

package api

import (
	"net/http"
	"time"
)

// HealthStatus is the body of GET /api/v1/health.
type HealthStatus struct {
	Status           string            `json:"status"`
	Version          string            `json:"version"`
	Uptime           float64           `json:"uptime_seconds"`
	CacheRecords     int               `json:"cache_records"`
	CacheFresh       bool              `json:"cache_fresh"`
	LastUpdated      *time.Time        `json:"last_updated,omitempty"`
	LastRefreshError string            `json:"last_refresh_error,omitempty"`
	Breakers         map[string]string `json:"circuit_breakers"`
	RateLimitClients map[string]int    `json:"ratelimit_clients,omitempty"`
	Fundraising      bool              `json:"fundraising_enabled"`
}

// Health handles system health checks
//
// @Summary Get system health status
// @Description Returns cache freshness, circuit breaker states and uptime. degraded means the cache is empty or stale, or an upstream circuit is open.
// @Tags Core
// @Produce json
// @Success 200 {object} APIResponse{data=HealthStatus} "Health status retrieved successfully"
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	st := h.cache.Stats()

	health := HealthStatus{
		Status:           "healthy",
		Version:          h.version,
		Uptime:           time.Since(h.startTime).Seconds(),
		CacheRecords:     st.Records,
		CacheFresh:       st.IsFresh,
		LastUpdated:      st.LastUpdated,
		LastRefreshError: st.LastError,
		Breakers:         make(map[string]string, len(h.breakers)),
		Fundraising:      h.fundraising != nil && h.fundraising.Enabled(),
	}
	if st.LastUpdated == nil || !st.IsFresh {
		health.Status = "degraded"
	}
	for _, b := range h.breakers {
		state := b.State()
		health.Breakers[b.Name()] = state
		if state == "open" {
			health.Status = "degraded"
		}
	}
	if h.registry != nil && !h.registry.Disabled() {
		health.RateLimitClients = h.registry.Len()
	}

	WriteSuccess(w, r, health)
}

// HealthLive handles liveness probe requests
// Returns 200 OK if the process is alive, regardless of upstreams
//
// @Summary Liveness probe
// @Tags Core
// @Produce json
// @Success 200 {object} APIResponse "Service is alive"
// @Router /health/live [get]
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, r, map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles readiness probe requests
//
// @Summary Readiness probe
// @Description Returns 200 once an activity snapshot is loaded (fresh or stale). Returns 503 before the first successful fetch.
// @Tags Core
// @Produce json
// @Success 200 {object} APIResponse "Service is ready"
// @Failure 503 {object} APIResponse "Service is not ready"
// @Router /health/ready [get]
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	st := h.cache.Stats()
	ready := st.LastUpdated != nil

	data := map[string]interface{}{
		"ready_to_serve": ready,
		"cache_records":  st.Records,
		"cache_fresh":    st.IsFresh,
		"uptime":         time.Since(h.startTime).Seconds(),
	}
	if !ready {
		NewResponseWriter(w, r).ErrorWithDetails(http.StatusServiceUnavailable, ErrCodeServiceUnavailable,
			"No activity data loaded yet", data)
		return
	}
	WriteSuccess(w, r, data)
}
