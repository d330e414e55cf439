// Trailfund - Strava Activity and Fundraising Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailfund

package services

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/trailfund/internal/activitycache"
	"github.com/tomtom215/trailfund/internal/logging"
)

// Task is one run of a periodic job. Errors are logged, not propagated: a
// failed run waits for the next tick instead of restarting the service.
type Task func(ctx context.Context) error

// PeriodicService runs a Task on a fixed interval until its context ends.
type PeriodicService struct {
	name       string
	interval   time.Duration
	runOnStart bool
	task       Task

	// quiet errors are logged at debug level.
	quiet func(error) bool
}

// NewPeriodicService creates a PeriodicService. A non-positive interval
// disables the ticker; with runOnStart the task still runs once.
func NewPeriodicService(name string, interval time.Duration, runOnStart bool, task Task) *PeriodicService {
	return &PeriodicService{
		name:       name,
		interval:   interval,
		runOnStart: runOnStart,
		task:       task,
	}
}

// Serve implements suture.Service.
func (p *PeriodicService) Serve(ctx context.Context) error {
	if p.runOnStart {
		p.run(ctx)
	}

	if p.interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.run(ctx)
		}
	}
}

func (p *PeriodicService) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	log := logging.WithComponent(p.name)

	err := p.task(ctx)
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled) && ctx.Err() != nil:
	case p.quiet != nil && p.quiet(err):
		log.Debug().Err(err).Msg("Periodic task skipped")
	default:
		log.Warn().Err(err).Msg("Periodic task failed")
	}
}

// String names the service in supervisor events.
func (p *PeriodicService) String() string {
	return p.name
}

// Refresher is implemented by *activitycache.Manager.
type Refresher interface {
	TryRefresh(ctx context.Context, forceFull bool) (activitycache.RefreshResult, error)
}

// NewCacheRefreshService keeps the activity snapshot warm with incremental
// refreshes. A tick that finds a refresh already running is skipped.
func NewCacheRefreshService(r Refresher, interval time.Duration, warmOnStart bool) *PeriodicService {
	p := NewPeriodicService("cache-refresh", interval, warmOnStart, func(ctx context.Context) error {
		res, err := r.TryRefresh(ctx, false)
		if err != nil {
			return err
		}
		log := logging.WithComponent("cache-refresh")
		log.Info().
			Str("mode", res.Mode).
			Int("fetched", res.Fetched).
			Int("added", res.Added).
			Int("updated", res.Updated).
			Int("total", res.Total).
			Dur("duration", res.Duration).
			Msg("Scheduled refresh completed")
		return nil
	})
	p.quiet = func(err error) bool { return errors.Is(err, activitycache.ErrRefreshInProgress) }
	return p
}

// Sweeper is implemented by *ratelimit.Registry.
type Sweeper interface {
	Sweep() int
}

// NewRateLimitSweepService drops idle client windows on every tick.
func NewRateLimitSweepService(s Sweeper, interval time.Duration) *PeriodicService {
	return NewPeriodicService("ratelimit-sweep", interval, false, func(context.Context) error {
		if n := s.Sweep(); n > 0 {
			log := logging.WithComponent("ratelimit-sweep")
			log.Debug().Int("removed", n).Msg("Swept idle rate limit windows")
		}
		return nil
	})
}
