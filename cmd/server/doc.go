// Trailfund - Strava Activity and Fundraising Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailfund

/*
Package main is the entry point for the trailfund server.

Trailfund serves a Strava athlete's recent activities, and optionally a
JustGiving fundraising page, to a public website. Activities are cached on disk
so the site keeps working when Strava is slow, rate limited or down.

	RootSupervisor ("trailfund")
	├── DataSupervisor ("data-layer")
	│   ├── cache-refresh    incremental refresh every CACHE_REFRESH_INTERVAL
	│   └── ratelimit-sweep  drops idle client windows
	└── APISupervisor ("api-layer")
	    └── http-server      chi router on HTTP_HOST:HTTP_PORT

Startup order:

 1. Configuration: koanf v2 (defaults, optional config.yaml, environment)
 2. Logging: zerolog, JSON or console
 3. Strava client and activity cache (snapshot loaded from CACHE_DIR)
 4. JustGiving service (if JUSTGIVING_ENABLED)
 5. Rate limit registry, API key gate and router
 6. Supervisor tree; SIGINT or SIGTERM cancels it

On shutdown the HTTP server drains in-flight requests for
SHUTDOWN_TIMEOUT, the refresh loop stops, and any service that did not
stop in time is reported.

Minimal run:

	export STRAVA_ACCESS_TOKEN=...
	export API_KEYS=$(openssl rand -hex 24)
	./trailfund
*/
package main
