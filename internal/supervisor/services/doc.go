// Trailfund - Strava Activity and Fundraising Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailfund

/*
Package services provides suture.Service wrappers for trailfund components.

Each wrapper turns a component lifecycle into suture's context-aware Serve:

  - HTTPServerService drives an *http.Server (ListenAndServe plus graceful
    Shutdown on cancellation).
  - PeriodicService runs a task on a ticker. NewCacheRefreshService and
    NewRateLimitSweepService build the two periodic jobs the server needs.

Periodic task failures are logged and retried on the next tick. Only the HTTP
server returns errors to its supervisor, which restarts it with backoff.

Usage:

	tree.AddDataService(services.NewCacheRefreshService(manager, cfg.Cache.RefreshInterval, cfg.Cache.WarmOnStart))
	tree.AddDataService(services.NewRateLimitSweepService(registry, cfg.RateLimit.SweepInterval))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Addr(), cfg.Server.ShutdownTimeout))
*/
package services
