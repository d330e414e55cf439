// Trailfund - Strava Activity and Fundraising Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailfund

// Package ratelimit implements per-client sliding-window admission control.
//
// Each route class (api, activities, refresh, fundraising) has its own
// Governor with independent limits. A Governor keeps, per client identity, the
// instants of admitted requests inside the trailing window; Check evicts
// expired instants before counting. Windows are spread over 32 shards so
// unrelated clients rarely contend, and Sweep drops windows that have gone
// idle. Chi's httprate still guards the health endpoints; this package covers
// the API routes where remaining quota and reset time are reported to callers.
package ratelimit
