// Trailfund - Strava Activity and Fundraising Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailfund

/*
Package config loads Trailfund configuration from defaults, an optional YAML
file and environment variables (in increasing priority) using Koanf v2.

# Configuration Sources

LoadWithKoanf layers three providers:
  - Built-in defaults (defaultConfig, loaded through the structs provider)
  - A YAML file: CONFIG_PATH, or the first of DefaultConfigPaths that exists
  - Environment variables listed in envMappings

Environment variables not listed in envMappings are ignored. API_KEYS and
CORS_ORIGINS accept comma-separated lists.

# Configuration Structure

  - Server: listen address, HTTP timeouts, environment name
  - Strava: API base URL, access token, paging and retry budget
  - JustGiving: optional fundraising page lookup and its response cache TTL
  - Cache: snapshot directory, freshness TTL, refresh overlap, backup retention,
    read limits and the background refresh schedule
  - RateLimit: per-class request budgets (api, activities, refresh,
    fundraising) plus the idle sweep interval and client cap
  - Security: API keys for mutating endpoints, CORS origins
  - Logging: level, format, caller annotation

# Common Variables

	STRAVA_ACCESS_TOKEN   Strava bearer token
	HTTP_HOST, HTTP_PORT  listen address (default 0.0.0.0:8080)
	CACHE_DIR             snapshot directory (default /data/trailfund)
	CACHE_TTL             snapshot freshness window (default 1h)
	CACHE_KEEP_BACKUPS    backup generations kept (default 5)
	API_KEYS              keys accepted by POST /api/v1/cache/*
	JUSTGIVING_ENABLED    enable fundraising endpoints (default false)
	DISABLE_RATE_LIMIT    turn off the request governor
	LOG_LEVEL, LOG_FORMAT zerolog level and json|console output

# Validation

Validate runs after unmarshalling and reports the first problem using the
environment variable name, for example "HTTP_PORT must be between 1 and 65535".
Durations parse with time.ParseDuration syntax ("90s", "15m", "1h").

# Example

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}
	fmt.Println(cfg.Addr())
*/
package config
