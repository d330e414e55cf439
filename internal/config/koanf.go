// Trailfund - Strava Activity and Fundraising Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailfund

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/trailfund/config.yaml",
	"/etc/trailfund/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    2 * time.Minute, // synchronous first fetch can take a while
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Environment:     "development",
		},
		Strava: StravaConfig{
			BaseURL:          "https://www.strava.com/api/v3",
			PageSize:         100,
			MaxPages:         20,
			RequestTimeout:   30 * time.Second,
			MaxRetries:       3,
			RetryBaseDelay:   time.Second,
			RequestsPer15Min: 100,
		},
		JustGiving: JustGivingConfig{
			Enabled:           false,
			BaseURL:           "https://api.justgiving.com",
			DonationsPageSize: 25,
			RequestTimeout:    15 * time.Second,
			CacheTTL:          5 * time.Minute,
		},
		Cache: CacheConfig{
			Dir:              "/data/trailfund",
			FileName:         "activities.json",
			TTL:              time.Hour,
			Overlap:          6 * time.Hour,
			FetchTimeout:     90 * time.Second,
			KeepBackups:      5,
			DefaultLimit:     30,
			MaxLimit:         200,
			RefreshInterval:  time.Hour,
			WarmOnStart:      true,
			EnrichDetails:    false,
			MaxDetailFetches: 20,
		},
		RateLimit: RateLimitConfig{
			Disabled:      false,
			SweepInterval: time.Minute,
			MaxClients:    10000,
			API:           RateClass{Requests: 100, Window: 15 * time.Minute},
			Activities:    RateClass{Requests: 60, Window: time.Minute},
			Refresh:       RateClass{Requests: 5, Window: 15 * time.Minute},
			Fundraising:   RateClass{Requests: 30, Window: time.Minute},
		},
		Security: SecurityConfig{
			APIKeys:     []string{},
			CORSOrigins: []string{},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration in three layers:
//
//  1. Built-in defaults
//  2. Optional YAML file (CONFIG_PATH or DefaultConfigPaths)
//  3. Environment variables (see envMappings)
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sliceConfigPaths are accepted as comma-separated strings from the environment.
var sliceConfigPaths = []string{
	"security.api_keys",
	"security.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		raw, ok := k.Get(path).(string)
		if !ok || raw == "" {
			continue
		}
		var parts []string
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
// Unlisted variables are ignored so unrelated environment does not leak in.
var envMappings = map[string]string{
	// Server
	"http_host":        "server.host",
	"http_port":        "server.port",
	"read_timeout":     "server.read_timeout",
	"write_timeout":    "server.write_timeout",
	"idle_timeout":     "server.idle_timeout",
	"shutdown_timeout": "server.shutdown_timeout",
	"environment":      "server.environment",

	// Strava
	"strava_base_url":           "strava.base_url",
	"strava_access_token":       "strava.access_token",
	"strava_page_size":          "strava.page_size",
	"strava_max_pages":          "strava.max_pages",
	"strava_request_timeout":    "strava.request_timeout",
	"strava_max_retries":        "strava.max_retries",
	"strava_retry_base_delay":   "strava.retry_base_delay",
	"strava_requests_per_15min": "strava.requests_per_15min",

	// JustGiving
	"justgiving_enabled":             "justgiving.enabled",
	"justgiving_base_url":            "justgiving.base_url",
	"justgiving_app_id":              "justgiving.app_id",
	"justgiving_page_short_name":     "justgiving.page_short_name",
	"justgiving_donations_page_size": "justgiving.donations_page_size",
	"justgiving_request_timeout":     "justgiving.request_timeout",
	"justgiving_cache_ttl":           "justgiving.cache_ttl",

	// Activity cache
	"cache_dir":                "cache.dir",
	"cache_file_name":          "cache.file_name",
	"cache_ttl":                "cache.ttl",
	"cache_overlap":            "cache.overlap",
	"cache_fetch_timeout":      "cache.fetch_timeout",
	"cache_keep_backups":       "cache.keep_backups",
	"cache_default_limit":      "cache.default_limit",
	"cache_max_limit":          "cache.max_limit",
	"cache_refresh_interval":   "cache.refresh_interval",
	"cache_warm_on_start":      "cache.warm_on_start",
	"cache_enrich_details":     "cache.enrich_details",
	"cache_max_detail_fetches": "cache.max_detail_fetches",

	// Rate limiting
	"disable_rate_limit":              "ratelimit.disabled",
	"rate_limit_sweep_interval":       "ratelimit.sweep_interval",
	"rate_limit_max_clients":          "ratelimit.max_clients",
	"rate_limit_requests":             "ratelimit.api.requests",
	"rate_limit_window":               "ratelimit.api.window",
	"rate_limit_activities_requests":  "ratelimit.activities.requests",
	"rate_limit_activities_window":    "ratelimit.activities.window",
	"rate_limit_refresh_requests":     "ratelimit.refresh.requests",
	"rate_limit_refresh_window":       "ratelimit.refresh.window",
	"rate_limit_fundraising_requests": "ratelimit.fundraising.requests",
	"rate_limit_fundraising_window":   "ratelimit.fundraising.window",

	// Security
	"api_keys":     "security.api_keys",
	"cors_origins": "security.cors_origins",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps an environment variable name to its koanf path, or ""
// to skip it.
//
//   - STRAVA_ACCESS_TOKEN -> strava.access_token
//   - CACHE_TTL           -> cache.ttl
//   - HTTP_PORT           -> server.port
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
