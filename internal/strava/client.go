// Trailfund - Strava Activity and Fundraising Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailfund

// Package strava reads the authenticated athlete's activities from the Strava
// v3 API and feeds them to the activity cache.
package strava

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/trailfund/internal/activitycache"
	"github.com/tomtom215/trailfund/internal/config"
	"github.com/tomtom215/trailfund/internal/models"
	"github.com/tomtom215/trailfund/internal/upstream"
)

// ErrUnauthorized means Strava rejected the access token.
var ErrUnauthorized = errors.New("strava: access token rejected")

// Client implements activitycache.Fetcher and activitycache.DetailFetcher.
type Client struct {
	baseURL  string
	pageSize int
	tokens   TokenSource
	http     *upstream.Client
}

var (
	_ activitycache.Fetcher       = (*Client)(nil)
	_ activitycache.DetailFetcher = (*Client)(nil)
)

// NewClient creates a client. The outbound budget is spread evenly over the
// 15 minute Strava window with a small burst.
func NewClient(cfg *config.StravaConfig, tokens TokenSource) *Client {
	return newClient(cfg, tokens, nil)
}

func newClient(cfg *config.StravaConfig, tokens TokenSource, transport http.RoundTripper) *Client {
	perRequest := 15 * time.Minute / time.Duration(max(cfg.RequestsPer15Min, 1))
	burst := min(max(cfg.RequestsPer15Min, 1), 10)

	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		pageSize: cfg.PageSize,
		tokens:   tokens,
		http: upstream.NewClient(upstream.Options{
			Name:           "strava",
			Timeout:        cfg.RequestTimeout,
			MaxRetries:     cfg.MaxRetries,
			RetryBaseDelay: cfg.RetryBaseDelay,
			Limiter:        rate.NewLimiter(rate.Every(perRequest), burst),
			Transport:      transport,
		}),
	}
}

// Breaker exposes the circuit breaker for health reporting.
func (c *Client) Breaker() *upstream.Breaker { return c.http.Breaker() }

// FetchPage returns one page of the athlete's activities started after since
// (all of them when since is zero). NextPage is 0 once a short page is seen.
func (c *Client) FetchPage(ctx context.Context, since time.Time, page int) (activitycache.Page, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(c.pageSize))
	if !since.IsZero() {
		q.Set("after", strconv.FormatInt(since.Unix(), 10))
	}

	var items []apiActivity
	if err := c.get(ctx, "/athlete/activities?"+q.Encode(), &items); err != nil {
		return activitycache.Page{}, err
	}

	out := activitycache.Page{Activities: make([]models.Activity, 0, len(items))}
	for i := range items {
		if items[i].ID <= 0 {
			continue
		}
		out.Activities = append(out.Activities, items[i].toModel())
	}
	if len(items) >= c.pageSize {
		out.NextPage = page + 1
	}
	return out, nil
}

// FetchActivityDetail returns the detailed view of one activity.
func (c *Client) FetchActivityDetail(ctx context.Context, id int64) (*models.Activity, error) {
	var item apiActivity
	if err := c.get(ctx, "/activities/"+strconv.FormatInt(id, 10), &item); err != nil {
		return nil, err
	}
	a := item.toModel()
	return &a, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}
	headers := http.Header{"Authorization": {"Bearer " + token}}

	err = c.http.GetJSON(ctx, c.baseURL+path, headers, out)
	var se *upstream.StatusError
	if errors.As(err, &se) && se.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	return err
}
