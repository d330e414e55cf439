// Trailfund - Strava Activity and Fundraising Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailfund

package ratelimit

import (
	"math"
	"net/http"
	"strconv"

	"github.com/tomtom215/trailfund/internal/logging"
)

// Response headers.
const (
	HeaderLimit      = "X-RateLimit-Limit"
	HeaderRemaining  = "X-RateLimit-Remaining"
	HeaderReset      = "X-RateLimit-Reset"
	HeaderRetryAfter = "Retry-After"
)

// LimitedHandler writes the throttling response. It receives the decision so
// it can report reset_at.
type LimitedHandler func(w http.ResponseWriter, r *http.Request, d Decision)

// Limit returns middleware that checks g for every request, sets the
// X-RateLimit-* headers and calls onLimited instead of next on denial. A nil
// governor passes requests through.
func Limit(g *Governor, identity IdentityFunc, onLimited LimitedHandler) func(http.Handler) http.Handler {
	if identity == nil {
		identity = ClientIdentity
	}
	if onLimited == nil {
		onLimited = defaultLimited
	}

	return func(next http.Handler) http.Handler {
		if g == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := g.Check(identity(r))
			SetHeaders(w.Header(), d)

			if !d.Allowed {
				logging.Ctx(r.Context()).Debug().
					Str("class", g.Name()).
					Time("reset_at", d.ResetAt).
					Msg("Request rate limited")
				onLimited(w, r, d)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SetHeaders writes the rate limit headers for d. Retry-After is only set on
// denial and is rounded up to whole seconds.
func SetHeaders(h http.Header, d Decision) {
	h.Set(HeaderLimit, strconv.Itoa(d.Limit))
	h.Set(HeaderRemaining, strconv.Itoa(d.Remaining))
	h.Set(HeaderReset, strconv.FormatInt(d.ResetAt.Unix(), 10))
	if !d.Allowed {
		h.Set(HeaderRetryAfter, strconv.Itoa(RetryAfterSeconds(d)))
	}
}

// RetryAfterSeconds rounds d.RetryAfter up, with a minimum of one second.
func RetryAfterSeconds(d Decision) int {
	secs := int(math.Ceil(d.RetryAfter.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}

func defaultLimited(w http.ResponseWriter, _ *http.Request, _ Decision) {
	http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
}
