// Trailfund - Strava Activity and Fundraising Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailfund

package upstream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/trailfund/internal/logging"
	"github.com/tomtom215/trailfund/internal/metrics"
)

// maxErrorBodySize bounds how much of an error response is kept.
const maxErrorBodySize = 64 * 1024

// StatusError is a non-2xx upstream response.
type StatusError struct {
	Upstream   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned HTTP %d: %s", e.Upstream, e.StatusCode, e.Body)
}

// Retryable reports whether the status is worth retrying (429 or 5xx).
func (e *StatusError) Retryable() bool {
	return retryableStatus(e.StatusCode)
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// Options configures a Client.
type Options struct {
	// Name labels metrics and the circuit breaker.
	Name string

	Timeout        time.Duration
	MaxRetries     int
	RetryBaseDelay time.Duration

	// Limiter paces outbound requests. Nil means unpaced.
	Limiter *rate.Limiter

	// Breaker settings; zero values use the defaults.
	Breaker BreakerSettings

	// Transport overrides the HTTP transport in tests.
	Transport http.RoundTripper

	UserAgent string
}

// Client is a JSON-over-HTTP client with pacing, retry on 429/5xx with
// exponential backoff honoring Retry-After, and a circuit breaker around each
// logical call.
type Client struct {
	name       string
	http       *http.Client
	maxRetries int
	baseDelay  time.Duration
	limiter    *rate.Limiter
	breaker    *Breaker
	userAgent  string
}

// NewClient creates a Client.
func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RetryBaseDelay <= 0 {
		opts.RetryBaseDelay = time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "trailfund/1.0"
	}
	return &Client{
		name:       opts.Name,
		http:       &http.Client{Timeout: opts.Timeout, Transport: opts.Transport},
		maxRetries: opts.MaxRetries,
		baseDelay:  opts.RetryBaseDelay,
		limiter:    opts.Limiter,
		breaker:    NewBreaker(opts.Name, opts.Breaker),
		userAgent:  opts.UserAgent,
	}
}

// Breaker exposes the client's circuit breaker.
func (c *Client) Breaker() *Breaker { return c.breaker }

// GetJSON issues GET url with headers and decodes a 2xx body into out.
func (c *Client) GetJSON(ctx context.Context, url string, headers http.Header, out any) error {
	_, err := Execute(c.breaker, func() (struct{}, error) {
		return struct{}{}, c.getJSON(ctx, url, headers, out)
	})
	return err
}

func (c *Client) getJSON(ctx context.Context, url string, headers http.Header, out any) error {
	resp, err := c.doWithRetry(ctx, url, headers)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{
			Upstream:   c.name,
			StatusCode: resp.StatusCode,
			Body:       string(readBodyForError(resp.Body)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", c.name, err)
	}
	return nil
}

// doWithRetry returns the first response that is not 429/5xx, or the last
// such response once retries are exhausted. Transport errors are not retried.
func (c *Client) doWithRetry(ctx context.Context, url string, headers http.Header) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("%s: wait for request budget: %w", c.name, err)
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
		if err != nil {
			return nil, fmt.Errorf("%s: create request: %w", c.name, err)
		}
		for k, vs := range headers {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", c.userAgent)

		resp, err := c.http.Do(req)
		if err != nil {
			metrics.RecordUpstreamResponse(c.name, 0)
			return nil, fmt.Errorf("%s: request failed: %w", c.name, err)
		}
		metrics.RecordUpstreamResponse(c.name, resp.StatusCode)

		if !retryableStatus(resp.StatusCode) || attempt >= c.maxRetries {
			return resp, nil
		}

		delay := c.backoff(attempt, resp.Header.Get("Retry-After"))
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodySize))
		_ = resp.Body.Close()

		metrics.UpstreamRetries.WithLabelValues(c.name).Inc()
		logging.Ctx(ctx).Debug().
			Str("upstream", c.name).
			Int("status", resp.StatusCode).
			Int("attempt", attempt+1).
			Dur("delay", delay).
			Msg("Retrying upstream request")

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}
	}
}

// backoff is base * 2^attempt, replaced by Retry-After (seconds or HTTP date)
// when the server sends one.
func (c *Client) backoff(attempt int, retryAfter string) time.Duration {
	delay := c.baseDelay * time.Duration(1<<uint(attempt))
	if retryAfter == "" {
		return delay
	}
	if secs, err := strconv.Atoi(retryAfter); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(retryAfter); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
		return 0
	}
	return delay
}

func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}
