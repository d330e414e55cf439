// Trailfund - Strava Activity and Fundraising Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailfund

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/trailfund/internal/logging"
)

// Rate limit bounds per class.
const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
)

// Strava rejects per_page above 200.
const maxStravaPageSize = 200

// Validate checks that required configuration is present and within bounds.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateStrava(); err != nil {
		return err
	}
	if err := c.validateJustGiving(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validateRateLimits(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateStrava() error {
	if err := validateHTTPURL(c.Strava.BaseURL, "STRAVA_BASE_URL", true); err != nil {
		return err
	}
	if c.Strava.PageSize < 1 || c.Strava.PageSize > maxStravaPageSize {
		return fmt.Errorf("STRAVA_PAGE_SIZE must be between 1 and %d", maxStravaPageSize)
	}
	if c.Strava.MaxPages < 1 {
		return fmt.Errorf("STRAVA_MAX_PAGES must be at least 1")
	}
	if c.Strava.RequestTimeout <= 0 {
		return fmt.Errorf("STRAVA_REQUEST_TIMEOUT must be positive")
	}
	if c.Strava.MaxRetries < 0 {
		return fmt.Errorf("STRAVA_MAX_RETRIES must not be negative")
	}
	if c.Strava.RequestsPer15Min < 1 {
		return fmt.Errorf("STRAVA_REQUESTS_PER_15MIN must be at least 1")
	}
	return nil
}

func (c *Config) validateJustGiving() error {
	if !c.JustGiving.Enabled {
		return nil
	}
	if err := validateHTTPURL(c.JustGiving.BaseURL, "JUSTGIVING_BASE_URL", false); err != nil {
		return err
	}
	if c.JustGiving.AppID == "" {
		return fmt.Errorf("JUSTGIVING_APP_ID is required when JUSTGIVING_ENABLED=true")
	}
	if c.JustGiving.PageShortName == "" {
		return fmt.Errorf("JUSTGIVING_PAGE_SHORT_NAME is required when JUSTGIVING_ENABLED=true")
	}
	if c.JustGiving.DonationsPageSize < 1 || c.JustGiving.DonationsPageSize > 150 {
		return fmt.Errorf("JUSTGIVING_DONATIONS_PAGE_SIZE must be between 1 and 150")
	}
	return nil
}

func (c *Config) validateCache() error {
	if strings.TrimSpace(c.Cache.Dir) == "" {
		return fmt.Errorf("CACHE_DIR is required")
	}
	if c.Cache.FileName == "" || strings.ContainsAny(c.Cache.FileName, `/\`) {
		return fmt.Errorf("CACHE_FILE_NAME must be a plain file name")
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}
	if c.Cache.Overlap < 0 {
		return fmt.Errorf("CACHE_OVERLAP must not be negative")
	}
	if c.Cache.FetchTimeout <= 0 {
		return fmt.Errorf("CACHE_FETCH_TIMEOUT must be positive")
	}
	if c.Cache.KeepBackups < 1 {
		return fmt.Errorf("CACHE_KEEP_BACKUPS must be at least 1")
	}
	if c.Cache.DefaultLimit < 1 || c.Cache.MaxLimit < c.Cache.DefaultLimit {
		return fmt.Errorf("CACHE_DEFAULT_LIMIT must be at least 1 and not exceed CACHE_MAX_LIMIT")
	}
	if c.Cache.RefreshInterval < 0 {
		return fmt.Errorf("CACHE_REFRESH_INTERVAL must not be negative (0 disables)")
	}
	return nil
}

func (c *Config) validateRateLimits() error {
	if c.RateLimit.Disabled {
		return nil
	}
	if c.RateLimit.SweepInterval <= 0 {
		return fmt.Errorf("RATE_LIMIT_SWEEP_INTERVAL must be positive")
	}
	if c.RateLimit.MaxClients < 1 {
		return fmt.Errorf("RATE_LIMIT_MAX_CLIENTS must be at least 1")
	}
	for name, class := range c.RateLimit.Classes() {
		if err := validateRateClass(name, class); err != nil {
			return err
		}
	}
	return nil
}

func validateRateClass(name string, class RateClass) error {
	if class.Requests < minRateLimitRequests || class.Requests > maxRateLimitRequests {
		return fmt.Errorf("rate limit class %q: requests must be between %d and %d",
			name, minRateLimitRequests, maxRateLimitRequests)
	}
	if class.Window < minRateLimitWindow || class.Window > maxRateLimitWindow {
		return fmt.Errorf("rate limit class %q: window must be between %v and %v",
			name, minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	for _, key := range c.Security.APIKeys {
		if len(key) < 16 {
			return fmt.Errorf("API_KEYS entries must be at least 16 characters")
		}
	}
	if c.IsProduction() && len(c.Security.APIKeys) == 0 {
		return fmt.Errorf("API_KEYS is required when ENVIRONMENT=production")
	}
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" && c.IsProduction() {
			return fmt.Errorf("CORS_ORIGINS=* is not allowed when ENVIRONMENT=production")
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL %q is not a valid level", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
		return nil
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
}

// IsProduction reports whether ENVIRONMENT is production.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "production" || env == "prod"
}

// Addr returns host:port for http.Server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
