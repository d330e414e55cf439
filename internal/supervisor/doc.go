// Trailfund - Strava Activity and Fundraising Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailfund

/*
Package supervisor runs trailfund's long-lived services under a suture v4 tree.

	RootSupervisor ("trailfund")
	├── DataSupervisor ("data-layer")
	│   ├── cache-refresh    (services.NewCacheRefreshService)
	│   └── ratelimit-sweep  (services.NewRateLimitSweepService)
	└── APISupervisor ("api-layer")
	    └── http-server      (services.HTTPServerService)

Crashed services restart with backoff once FailureThreshold is crossed; the
two layers count failures independently. Supervisor events (start, stop,
failure, backoff) are logged through sutureslog using the zerolog-backed
slog.Logger from logging.NewSlogLogger.

Usage from main:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
	    ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddDataService(services.NewCacheRefreshService(manager, cfg.Cache.RefreshInterval, cfg.Cache.WarmOnStart))
	tree.AddAPIService(services.NewHTTPServerService(srv, cfg.Addr(), cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err = tree.Serve(ctx)
*/
package supervisor
