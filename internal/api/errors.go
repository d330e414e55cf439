// Trailfund - Strava Activity and Fundraising Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailfund

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/trailfund/internal/activitycache"
	"github.com/tomtom215/trailfund/internal/justgiving"
	"github.com/tomtom215/trailfund/internal/logging"
	"github.com/tomtom215/trailfund/internal/strava"
	"github.com/tomtom215/trailfund/internal/upstream"
)

// errorMapping ties a domain error to its HTTP status and code. Order
// matters: the first match wins, so more specific errors come first.
type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

var errorMappings = []errorMapping{
	{activitycache.ErrActivityNotFound, http.StatusNotFound, ErrCodeNotFound, "Activity not found"},
	{activitycache.ErrRefreshInProgress, http.StatusConflict, ErrCodeRefreshInProgress, "A refresh is already in progress"},
	{activitycache.ErrNoDataAvailable, http.StatusServiceUnavailable, ErrCodeNoData, "No cached activities and the initial fetch failed"},
	{activitycache.ErrClosed, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Service is shutting down"},
	{justgiving.ErrDisabled, http.StatusNotFound, ErrCodeFundraisingDisabled, "Fundraising source is not configured"},
	{justgiving.ErrPageNotFound, http.StatusBadGateway, ErrCodeUpstreamUnavailable, "Fundraising page not found upstream"},
	{justgiving.ErrUpstreamUnavailable, http.StatusBadGateway, ErrCodeUpstreamUnavailable, "Fundraising provider unavailable"},
	{strava.ErrUnauthorized, http.StatusBadGateway, ErrCodeUpstreamUnavailable, "Activity provider rejected the access token"},
	{activitycache.ErrUpstreamUnavailable, http.StatusBadGateway, ErrCodeUpstreamUnavailable, "Activity provider unavailable"},
}

// writeDomainError renders err with the status from errorMappings. Circuit
// open takes precedence over upstream errors it is wrapped in, except for
// ErrNoDataAvailable which always reports 503 NO_DATA.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	rw := NewResponseWriter(w, r)
	log := logging.Ctx(r.Context())

	if upstream.IsCircuitOpen(err) && !errors.Is(err, activitycache.ErrNoDataAvailable) {
		log.Warn().Err(err).Msg("Upstream circuit open")
		rw.Error(http.StatusServiceUnavailable, ErrCodeCircuitOpen, "Upstream temporarily disabled after repeated failures")
		return
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			if m.status >= http.StatusInternalServerError {
				log.Warn().Err(err).Int("status", m.status).Msg("Request failed")
			}
			rw.Error(m.status, m.code, m.message)
			return
		}
	}

	var se *upstream.StatusError
	if errors.As(err, &se) {
		log.Warn().Err(err).Msg("Upstream request failed")
		rw.Error(http.StatusBadGateway, ErrCodeUpstreamUnavailable, "Upstream service unavailable: "+se.Upstream)
		return
	}

	if errors.Is(err, context.DeadlineExceeded) {
		log.Warn().Err(err).Msg("Request timed out")
		rw.Error(http.StatusGatewayTimeout, ErrCodeUpstreamUnavailable, "Upstream request timed out")
		return
	}
	if errors.Is(err, context.Canceled) {
		// Client went away; nobody reads this response.
		return
	}

	log.Error().Err(err).Msg("Unhandled API error")
	rw.InternalError("An internal error occurred")
}
