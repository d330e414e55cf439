// Trailfund - Strava Activity and Fundraising Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailfund

package activitycache

import "errors"

var (
	// ErrUpstreamUnavailable means a refresh could not fetch from upstream
	// (network failure, timeout, non-2xx, open circuit). The prior snapshot is
	// left untouched.
	ErrUpstreamUnavailable = errors.New("activitycache: upstream unavailable")

	// ErrNoDataAvailable means no snapshot has ever been stored and the
	// initial fetch failed.
	ErrNoDataAvailable = errors.New("activitycache: no data available")

	// ErrCorruptSnapshot means a snapshot file could not be decoded or failed
	// validation.
	ErrCorruptSnapshot = errors.New("activitycache: corrupt snapshot")

	// ErrIncompatibleSnapshot means a snapshot was written with a different
	// format version.
	ErrIncompatibleSnapshot = errors.New("activitycache: incompatible snapshot version")

	// ErrRefreshInProgress is returned by TryRefresh when another refresh holds
	// the writer lock.
	ErrRefreshInProgress = errors.New("activitycache: refresh already in progress")

	// ErrActivityNotFound is returned by GetByID.
	ErrActivityNotFound = errors.New("activitycache: activity not found")

	// ErrClosed is returned by reads, refreshes and backup cleanup once Close
	// has been called.
	ErrClosed = errors.New("activitycache: manager closed")
)
