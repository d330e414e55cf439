// Trailfund - Strava Activity and Fundraising Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailfund

package api

import (
	"context"
	"time"

	"github.com/tomtom215/trailfund/internal/activitycache"
	"github.com/tomtom215/trailfund/internal/models"
	"github.com/tomtom215/trailfund/internal/ratelimit"
	"github.com/tomtom215/trailfund/internal/upstream"
)

// ActivityCache is the subset of *activitycache.Manager the handlers use.
type ActivityCache interface {
	Get(ctx context.Context, limit int, f activitycache.Filter) (*activitycache.Result, error)
	GetByID(ctx context.Context, id int64) (*models.Activity, bool, error)
	Summary(ctx context.Context, f activitycache.Filter) ([]models.ActivitySummary, *activitycache.Snapshot, error)
	Refresh(ctx context.Context, forceFull bool) (activitycache.RefreshResult, error)
	CleanupBackups(keep int) (activitycache.CleanupResult, error)
	Stats() activitycache.Stats
}

// FundraisingSource is the subset of *justgiving.Service the handlers use.
type FundraisingSource interface {
	Enabled() bool
	Summary(ctx context.Context) (*models.FundraisingPage, error)
	Donations(ctx context.Context, limit int) ([]models.Donation, error)
}

// Deps are the Handler dependencies. Fundraising, Registry and Breakers are
// optional.
type Deps struct {
	Cache       ActivityCache
	Fundraising FundraisingSource
	Registry    *ratelimit.Registry
	Breakers    []*upstream.Breaker

	// KeepBackups is the retention used by cleanup when keep is omitted.
	KeepBackups int
	Version     string
}

// Handler serves the API endpoints.
type Handler struct {
	cache       ActivityCache
	fundraising FundraisingSource
	registry    *ratelimit.Registry
	breakers    []*upstream.Breaker
	keepBackups int
	version     string
	startTime   time.Time
}

// NewHandler creates a Handler.
func NewHandler(d Deps) *Handler {
	if d.Version == "" {
		d.Version = "dev"
	}
	return &Handler{
		cache:       d.Cache,
		fundraising: d.Fundraising,
		registry:    d.Registry,
		breakers:    d.Breakers,
		keepBackups: d.KeepBackups,
		version:     d.Version,
		startTime:   time.Now(),
	}
}
