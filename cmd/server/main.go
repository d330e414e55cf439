// Trailfund - Strava Activity and Fundraising Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailfund

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/trailfund/internal/activitycache"
	"github.com/tomtom215/trailfund/internal/api"
	"github.com/tomtom215/trailfund/internal/config"
	"github.com/tomtom215/trailfund/internal/justgiving"
	"github.com/tomtom215/trailfund/internal/logging"
	"github.com/tomtom215/trailfund/internal/ratelimit"
	"github.com/tomtom215/trailfund/internal/strava"
	"github.com/tomtom215/trailfund/internal/supervisor"
	"github.com/tomtom215/trailfund/internal/supervisor/services"
	"github.com/tomtom215/trailfund/internal/upstream"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	})
	logging.Info().
		Str("version", version).
		Str("environment", cfg.Server.Environment).
		Str("cache_dir", cfg.Cache.Dir).
		Bool("fundraising", cfg.JustGiving.Enabled).
		Msg("Starting trailfund")

	// === DATA SOURCES ===

	stravaClient := strava.NewClient(&cfg.Strava, strava.StaticTokenSource(cfg.Strava.AccessToken))

	manager, err := activitycache.New(stravaClient, activitycache.OptionsFromConfig(cfg.Cache, cfg.Strava.MaxPages))
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create activity cache")
	}
	defer manager.Close()

	// A corrupt snapshot with no usable backup is not fatal: the first read
	// or the warm-up refresh fetches from scratch.
	if err := manager.Load(); err != nil {
		logging.Warn().Err(err).Msg("No usable activity snapshot on disk, starting empty")
	} else if snap := manager.Snapshot(); snap != nil {
		logging.Info().
			Int("records", len(snap.Records)).
			Time("last_updated", snap.LastUpdated).
			Msg("Activity snapshot loaded")
	}

	breakers := []*upstream.Breaker{stravaClient.Breaker()}

	var fundraising api.FundraisingSource
	if cfg.JustGiving.Enabled {
		jg := justgiving.NewService(&cfg.JustGiving)
		defer jg.Close()
		fundraising = jg
		breakers = append(breakers, jg.Client().Breaker())
		logging.Info().Str("page", cfg.JustGiving.PageShortName).Msg("Fundraising source enabled")
	}

	// === HTTP ===

	registry, err := ratelimit.NewRegistry(cfg.RateLimit, nil)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create rate limiters")
	}
	if registry.Disabled() {
		logging.Warn().Msg("Rate limiting is disabled")
	}
	if len(cfg.Security.APIKeys) == 0 {
		logging.Warn().Msg("No API keys configured, refresh and cleanup endpoints are disabled")
	}

	handler := api.NewHandler(api.Deps{
		Cache:       manager,
		Fundraising: fundraising,
		Registry:    registry,
		Breakers:    breakers,
		KeepBackups: cfg.Cache.KeepBackups,
		Version:     version,
	})

	mwConfig := api.DefaultChiMiddlewareConfig()
	mwConfig.CORSAllowedOrigins = cfg.Security.CORSOrigins
	router := api.NewRouter(handler, api.RouterOptions{
		Middleware: mwConfig,
		Registry:   registry,
		APIKeys:    cfg.Security.APIKeys,
	})

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router.Setup(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// === SUPERVISOR TREE ===

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddDataService(services.NewCacheRefreshService(manager, cfg.Cache.RefreshInterval, cfg.Cache.WarmOnStart))
	if !registry.Disabled() {
		tree.AddDataService(services.NewRateLimitSweepService(registry, cfg.RateLimit.SweepInterval))
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Addr(), cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("addr", cfg.Addr()).Msg("Serving")
	if err := tree.Run(ctx); err != nil {
		logging.Error().Err(err).Msg("Supervisor tree stopped with error")
	}
	stop()
	logging.Info().Msg("Supervisor tree stopped, releasing resources")

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
		}
	}

	logging.Info().Msg("Trailfund stopped")
}
