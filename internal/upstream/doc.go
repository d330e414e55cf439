// Trailfund - Strava Activity and Fundraising Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailfund

// Package upstream holds the resilience plumbing shared by the Strava and
// JustGiving clients: a gobreaker circuit breaker with Prometheus state, and a
// JSON GET client with token-bucket pacing and retry on HTTP 429/5xx.
package upstream
