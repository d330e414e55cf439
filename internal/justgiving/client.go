// Trailfund - Strava Activity and Fundraising Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailfund

package justgiving

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tomtom215/trailfund/internal/config"
	"github.com/tomtom215/trailfund/internal/upstream"
)

var (
	// ErrPageNotFound means JustGiving has no page with the configured short name.
	ErrPageNotFound = errors.New("justgiving: fundraising page not found")

	// ErrUpstreamUnavailable wraps transport failures, non-2xx responses and
	// an open circuit.
	ErrUpstreamUnavailable = errors.New("justgiving: upstream unavailable")
)

// Client calls the JustGiving fundraising API.
type Client struct {
	baseURL   string
	shortName string
	http      *upstream.Client
}

// NewClient creates a client for the configured page.
func NewClient(cfg *config.JustGivingConfig) *Client {
	return newClient(cfg, nil)
}

func newClient(cfg *config.JustGivingConfig, transport http.RoundTripper) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/") + "/" + url.PathEscape(cfg.AppID) + "/v1"
	return &Client{
		baseURL:   base,
		shortName: cfg.PageShortName,
		http: upstream.NewClient(upstream.Options{
			Name:       "justgiving",
			Timeout:    cfg.RequestTimeout,
			MaxRetries: 2,
			Transport:  transport,
		}),
	}
}

// Breaker exposes the circuit breaker for health reporting.
func (c *Client) Breaker() *upstream.Breaker { return c.http.Breaker() }

func (c *Client) pagePath() string {
	return c.baseURL + "/fundraising/pages/" + url.PathEscape(c.shortName)
}

func (c *Client) page(ctx context.Context) (*apiPage, error) {
	var p apiPage
	if err := c.get(ctx, c.pagePath(), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) donations(ctx context.Context, pageSize, pageNum int) (*apiDonations, error) {
	q := url.Values{}
	q.Set("pageSize", strconv.Itoa(pageSize))
	q.Set("pageNum", strconv.Itoa(pageNum))

	var d apiDonations
	if err := c.get(ctx, c.pagePath()+"/donations?"+q.Encode(), &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) get(ctx context.Context, rawURL string, out any) error {
	err := c.http.GetJSON(ctx, rawURL, nil, out)
	var se *upstream.StatusError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &se) && se.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrPageNotFound, c.shortName)
	default:
		return fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}
}
