// Trailfund - Strava Activity and Fundraising Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailfund

package config

import (
	"path/filepath"
	"time"
)

// Config is the root configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Strava     StravaConfig     `koanf:"strava"`
	JustGiving JustGivingConfig `koanf:"justgiving"`
	Cache      CacheConfig      `koanf:"cache"`
	RateLimit  RateLimitConfig  `koanf:"ratelimit"`
	Security   SecurityConfig   `koanf:"security"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// Environment is development or production. Production refuses to start
	// without API keys for the administrative endpoints.
	Environment string `koanf:"environment"`
}

// StravaConfig holds the upstream activity provider settings.
type StravaConfig struct {
	// BaseURL is the Strava v3 API root, e.g. https://www.strava.com/api/v3
	BaseURL string `koanf:"base_url"`

	// AccessToken is a bearer token obtained out of band. Token refresh is
	// handled outside this service.
	AccessToken string `koanf:"access_token"`

	// PageSize is per_page for /athlete/activities (Strava caps this at 200).
	PageSize int `koanf:"page_size"`

	// MaxPages bounds a single refresh. A full refresh of a long history needs
	// MaxPages*PageSize >= number of activities.
	MaxPages int `koanf:"max_pages"`

	RequestTimeout time.Duration `koanf:"request_timeout"`
	MaxRetries     int           `koanf:"max_retries"`
	RetryBaseDelay time.Duration `koanf:"retry_base_delay"`

	// RequestsPer15Min is the outbound budget enforced client side.
	RequestsPer15Min int `koanf:"requests_per_15min"`
}

// JustGivingConfig holds the fundraising page source settings.
type JustGivingConfig struct {
	Enabled           bool          `koanf:"enabled"`
	BaseURL           string        `koanf:"base_url"`
	AppID             string        `koanf:"app_id"`
	PageShortName     string        `koanf:"page_short_name"`
	DonationsPageSize int           `koanf:"donations_page_size"`
	RequestTimeout    time.Duration `koanf:"request_timeout"`
	CacheTTL          time.Duration `koanf:"cache_ttl"`
}

// CacheConfig holds activity snapshot settings.
type CacheConfig struct {
	// Dir holds the active snapshot; backups live in Dir/backups.
	Dir      string `koanf:"dir"`
	FileName string `koanf:"file_name"`

	// TTL is the age after which the snapshot is reported stale and a
	// background refresh is started on read.
	TTL time.Duration `koanf:"ttl"`

	// Overlap is subtracted from last_updated when asking upstream for new
	// activities, to pick up late uploads and tolerate clock skew.
	Overlap time.Duration `koanf:"overlap"`

	// FetchTimeout bounds a whole refresh (all pages).
	FetchTimeout time.Duration `koanf:"fetch_timeout"`

	// KeepBackups is the number of backup generations retained after each
	// successful refresh.
	KeepBackups int `koanf:"keep_backups"`

	DefaultLimit int `koanf:"default_limit"`
	MaxLimit     int `koanf:"max_limit"`

	// RefreshInterval drives the scheduled refresh service. Zero disables it.
	RefreshInterval time.Duration `koanf:"refresh_interval"`

	// WarmOnStart triggers a refresh when the service starts.
	WarmOnStart bool `koanf:"warm_on_start"`

	// EnrichDetails fetches the detail endpoint for newly seen activities to
	// fill description, photos and comment counts.
	EnrichDetails    bool `koanf:"enrich_details"`
	MaxDetailFetches int  `koanf:"max_detail_fetches"`
}

// SnapshotPath returns the full path of the active snapshot.
func (c CacheConfig) SnapshotPath() string {
	return filepath.Join(c.Dir, c.FileName)
}

// BackupDir returns the backup generations directory.
func (c CacheConfig) BackupDir() string {
	return filepath.Join(c.Dir, "backups")
}

// RateClass is a (requests, window) pair for one route class.
type RateClass struct {
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
}

// RateLimitConfig configures the per-route-class sliding window governors.
type RateLimitConfig struct {
	Disabled      bool          `koanf:"disabled"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
	MaxClients    int           `koanf:"max_clients"`

	API         RateClass `koanf:"api"`
	Activities  RateClass `koanf:"activities"`
	Refresh     RateClass `koanf:"refresh"`
	Fundraising RateClass `koanf:"fundraising"`
}

// Classes returns the configured classes keyed by name.
func (c RateLimitConfig) Classes() map[string]RateClass {
	return map[string]RateClass{
		"api":         c.API,
		"activities":  c.Activities,
		"refresh":     c.Refresh,
		"fundraising": c.Fundraising,
	}
}

// SecurityConfig holds the API key gate and CORS settings.
type SecurityConfig struct {
	// APIKeys are accepted for refresh and cleanup.
	APIKeys []string `koanf:"api_keys"`

	CORSOrigins []string `koanf:"cors_origins"`
}

// LoggingConfig configures zerolog.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load is the entry point used by main.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
