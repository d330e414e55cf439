// Trailfund - Strava Activity and Fundraising Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailfund

/*
Package api exposes the activity cache and fundraising data over HTTP using the
chi router.

Handler methods are split across files:
  - handlers.go: Handler struct, dependencies and constructor
  - handlers_health.go: liveness, readiness and aggregate health
  - handlers_activities.go: cached activity reads
  - handlers_cache.go: cache statistics, manual refresh and backup cleanup
  - handlers_fundraising.go: JustGiving page summary and donations

Every response uses the envelope in response.go:

	{"success": true, "data": {...}, "meta": {"request_id": "...", "timestamp": "...", "duration_ms": 3}}
	{"success": false, "error": {"code": "NO_DATA", "message": "...", "request_id": "..."}, "meta": {...}}

Domain errors are mapped to HTTP statuses in one place (errors.go). Each route
class has its own sliding window governor from the ratelimit package; a denied
request gets a 429 envelope whose details carry reset_at and retry_after.

Refresh and cleanup require an API key (X-API-Key or Authorization: Bearer).
*/
package api
