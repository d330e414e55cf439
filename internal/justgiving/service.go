// Trailfund - Strava Activity and Fundraising Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailfund

// Package justgiving reads a JustGiving fundraising page and its donations,
// caching both for a short TTL.
package justgiving

import (
	"context"
	"errors"
	"math"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/trailfund/internal/cache"
	"github.com/tomtom215/trailfund/internal/config"
	"github.com/tomtom215/trailfund/internal/logging"
	"github.com/tomtom215/trailfund/internal/models"
)

// ErrDisabled is returned when the fundraising source is not configured.
var ErrDisabled = errors.New("justgiving: fundraising source disabled")

// MaxDonations bounds a single Donations call.
const MaxDonations = 500

const pageKey = "page"

// Service serves cached fundraising data.
type Service struct {
	enabled   bool
	client    *Client
	shortName string
	pageSize  int
	now       func() time.Time

	pages     *cache.Cache[*models.FundraisingPage]
	donations *cache.Cache[[]models.Donation]
	flight    singleflight.Group
}

// NewService creates a service. A disabled config yields a Service whose
// methods return ErrDisabled.
func NewService(cfg *config.JustGivingConfig) *Service {
	return newService(cfg, NewClient(cfg))
}

func newService(cfg *config.JustGivingConfig, client *Client) *Service {
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	pageSize := cfg.DonationsPageSize
	if pageSize <= 0 {
		pageSize = 25
	}
	return &Service{
		enabled:   cfg.Enabled,
		client:    client,
		shortName: cfg.PageShortName,
		pageSize:  pageSize,
		now:       time.Now,
		pages:     cache.New[*models.FundraisingPage](ttl),
		donations: cache.New[[]models.Donation](ttl),
	}
}

// Enabled reports whether the source is configured.
func (s *Service) Enabled() bool { return s.enabled }

// Client returns the underlying API client.
func (s *Service) Client() *Client { return s.client }

// Summary returns the page totals.
func (s *Service) Summary(ctx context.Context) (*models.FundraisingPage, error) {
	if !s.enabled {
		return nil, ErrDisabled
	}
	if p, ok := s.pages.Get(pageKey); ok {
		return p, nil
	}

	v, err, _ := s.flight.Do(pageKey, func() (interface{}, error) {
		return s.fetchSummary(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.FundraisingPage), nil
}

func (s *Service) fetchSummary(ctx context.Context) (*models.FundraisingPage, error) {
	raw, err := s.client.page(ctx)
	if err != nil {
		return nil, err
	}

	p := &models.FundraisingPage{
		ShortName:          raw.PageShortName,
		Title:              raw.Title,
		Owner:              raw.Owner,
		Currency:           raw.CurrencyCode,
		TargetAmount:       float64(raw.FundraisingTarget),
		TotalRaised:        float64(raw.GrandTotal),
		TotalRaisedOffline: float64(raw.TotalRaisedOffline),
		PercentOfTarget:    float64(raw.PercentOfTarget),
		PageURL:            "https://www.justgiving.com/fundraising/" + s.shortName,
		FetchedAt:          s.now().UTC(),
	}
	if p.ShortName == "" {
		p.ShortName = s.shortName
	}
	if p.TotalRaised == 0 {
		p.TotalRaised = float64(raw.TotalRaisedOnline) + p.TotalRaisedOffline
	}
	if p.PercentOfTarget == 0 && p.TargetAmount > 0 {
		p.PercentOfTarget = math.Round(p.TotalRaised/p.TargetAmount*10000) / 100
	}

	// The page resource has no donation count; the donations pagination does.
	if d, err := s.client.donations(ctx, 1, 1); err == nil {
		p.DonationCount = d.Pagination.TotalResults
	} else {
		logging.Ctx(ctx).Debug().Err(err).Msg("Donation count unavailable")
	}

	s.pages.Set(pageKey, p)
	return p, nil
}

// Donations returns up to limit of the most recent donations.
func (s *Service) Donations(ctx context.Context, limit int) ([]models.Donation, error) {
	if !s.enabled {
		return nil, ErrDisabled
	}
	if limit <= 0 {
		limit = s.pageSize
	}
	limit = min(limit, MaxDonations)

	key := cache.GenerateKey("donations", limit)
	if d, ok := s.donations.Get(key); ok {
		return d, nil
	}

	v, err, _ := s.flight.Do("donations:"+strconv.Itoa(limit), func() (interface{}, error) {
		return s.fetchDonations(ctx, limit)
	})
	if err != nil {
		return nil, err
	}
	out := v.([]models.Donation)
	s.donations.Set(key, out)
	return out, nil
}

func (s *Service) fetchDonations(ctx context.Context, limit int) ([]models.Donation, error) {
	out := make([]models.Donation, 0, limit)
	for pageNum := 1; len(out) < limit; pageNum++ {
		d, err := s.client.donations(ctx, s.pageSize, pageNum)
		if err != nil {
			return nil, err
		}
		for i := range d.Donations {
			if len(out) == limit {
				break
			}
			out = append(out, toDonation(&d.Donations[i]))
		}
		if len(d.Donations) < s.pageSize || pageNum >= d.Pagination.TotalPages {
			break
		}
	}
	return out, nil
}

func toDonation(d *apiDonation) models.Donation {
	name := d.DonorDisplayName
	if name == "" {
		name = "Anonymous"
	}
	return models.Donation{
		ID:                  d.ID,
		DonorDisplayName:    name,
		Amount:              float64(d.Amount),
		Currency:            d.CurrencyCode,
		Message:             d.Message,
		DonatedAt:           time.Time(d.DonationDate),
		EstimatedTaxReclaim: float64(d.EstimatedTaxReclaim),
	}
}

// CacheStats reports the page and donations cache counters.
func (s *Service) CacheStats() map[string]cache.Stats {
	return map[string]cache.Stats{
		"page":      s.pages.Stats(),
		"donations": s.donations.Stats(),
	}
}

// Close stops the cache sweepers.
func (s *Service) Close() {
	s.pages.Close()
	s.donations.Close()
}
