// Trailfund - Strava Activity and Fundraising Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailfund

package api

import (
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/tomtom215/trailfund/internal/logging"
	"github.com/tomtom215/trailfund/internal/ratelimit"
)

// maxRequestIDLength bounds client supplied X-Request-ID values.
const maxRequestIDLength = 128

// ChiMiddlewareConfig configures the chi ecosystem middleware.
type ChiMiddlewareConfig struct {
	CORSAllowedOrigins []string
	CORSAllowedMethods []string
	CORSAllowedHeaders []string
	CORSExposedHeaders []string
	CORSMaxAge         int // seconds

	// HealthRequests per HealthWindow per IP on the health endpoints.
	HealthRequests int
	HealthWindow   time.Duration
	HealthDisabled bool
}

// DefaultChiMiddlewareConfig allows no cross-origin callers until origins are
// configured.
func DefaultChiMiddlewareConfig() *ChiMiddlewareConfig {
	return &ChiMiddlewareConfig{
		CORSAllowedOrigins: []string{},
		CORSAllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		CORSAllowedHeaders: []string{"Content-Type", "Authorization", ratelimit.HeaderAPIKey},
		CORSExposedHeaders: []string{
			"X-Request-ID",
			ratelimit.HeaderLimit,
			ratelimit.HeaderRemaining,
			ratelimit.HeaderReset,
			ratelimit.HeaderRetryAfter,
		},
		CORSMaxAge:     86400,
		HealthRequests: 1000,
		HealthWindow:   time.Minute,
	}
}

// ChiMiddleware builds the go-chi/cors and go-chi/httprate middleware.
type ChiMiddleware struct {
	config *ChiMiddlewareConfig
	cors   func(http.Handler) http.Handler
}

// NewChiMiddleware creates the middleware set; nil uses the defaults.
func NewChiMiddleware(config *ChiMiddlewareConfig) *ChiMiddleware {
	if config == nil {
		config = DefaultChiMiddlewareConfig()
	}
	return &ChiMiddleware{
		config: config,
		cors: cors.Handler(cors.Options{
			AllowedOrigins: config.CORSAllowedOrigins,
			AllowedMethods: config.CORSAllowedMethods,
			AllowedHeaders: config.CORSAllowedHeaders,
			ExposedHeaders: config.CORSExposedHeaders,
			MaxAge:         config.CORSMaxAge,
		}),
	}
}

// CORS returns the go-chi/cors handler. It must be global so OPTIONS
// preflights are answered before routing.
func (m *ChiMiddleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

// RateLimitHealth is a permissive per-IP limit for probes (httprate).
func (m *ChiMiddleware) RateLimitHealth() func(http.Handler) http.Handler {
	if m.config.HealthDisabled {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.LimitByIP(m.config.HealthRequests, m.config.HealthWindow)
}

// RequestIDWithLogging wraps chi's RequestID middleware and stores the id in
// the logging context together with a fresh correlation id. A client supplied
// X-Request-ID is kept unless it is oversized. The id is echoed in the
// response header.
func RequestIDWithLogging() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		chiRequestID := chimiddleware.RequestID(next)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(chimiddleware.RequestIDHeader)
			if requestID == "" || len(requestID) > maxRequestIDLength {
				requestID = logging.GenerateRequestID()
				r.Header.Set(chimiddleware.RequestIDHeader, requestID)
			}
			w.Header().Set(chimiddleware.RequestIDHeader, requestID)

			ctx := logging.ContextWithRequestID(r.Context(), requestID)
			ctx = logging.ContextWithNewCorrelationID(ctx)
			chiRequestID.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// APISecurityHeaders sets nosniff, frame denial and referrer policy on every
// response, HSTS behind TLS, and Cache-Control: no-store when noStore is set
// (administrative routes).
func APISecurityHeaders(noStore bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if noStore {
				h.Set("Cache-Control", "no-store")
			}
			if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeRateLimited renders the 429 envelope for a denied request. Headers
// were already set by ratelimit.Limit.
func writeRateLimited(w http.ResponseWriter, r *http.Request, d ratelimit.Decision) {
	NewResponseWriter(w, r).ErrorWithDetails(
		http.StatusTooManyRequests,
		ErrCodeTooManyRequests,
		"Rate limit exceeded, retry later",
		map[string]interface{}{
			"limit":       d.Limit,
			"remaining":   d.Remaining,
			"reset_at":    d.ResetAt.UTC().Format(time.RFC3339),
			"retry_after": ratelimit.RetryAfterSeconds(d),
		},
	)
}
