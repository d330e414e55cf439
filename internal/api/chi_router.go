// Trailfund - Strava Activity and Fundraising Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailfund

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/trailfund/internal/middleware"
	"github.com/tomtom215/trailfund/internal/ratelimit"
)

// DefaultSlowRequestThreshold marks requests logged at warn level.
const DefaultSlowRequestThreshold = 2 * time.Second

// RouterOptions configures a Router.
type RouterOptions struct {
	Middleware *ChiMiddlewareConfig
	Registry   *ratelimit.Registry
	APIKeys    []string

	// Identity overrides the default, which keys on the client address plus
	// the API key once the key gate has verified it.
	Identity ratelimit.IdentityFunc

	SlowRequestThreshold time.Duration
}

// Router wires handlers to routes.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
	registry      *ratelimit.Registry
	gate          *APIKeyGate
	identity      ratelimit.IdentityFunc
	slow          time.Duration
}

// NewRouter creates a Router.
func NewRouter(handler *Handler, opts RouterOptions) *Router {
	gate := NewAPIKeyGate(opts.APIKeys)
	if opts.Identity == nil {
		opts.Identity = ratelimit.KeyedIdentity(gate.VerifiedKey)
	}
	if opts.SlowRequestThreshold <= 0 {
		opts.SlowRequestThreshold = DefaultSlowRequestThreshold
	}
	return &Router{
		handler:       handler,
		chiMiddleware: NewChiMiddleware(opts.Middleware),
		registry:      opts.Registry,
		gate:          gate,
		identity:      opts.Identity,
		slow:          opts.SlowRequestThreshold,
	}
}

// limit returns the sliding window middleware for a route class.
func (router *Router) limit(class string) func(http.Handler) http.Handler {
	return ratelimit.Limit(router.registry.Get(class), router.identity, writeRateLimited)
}

// Setup configures all HTTP routes.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied in order
	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())
	r.Use(middleware.AccessLog(router.slow))
	r.Use(middleware.Compression)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		NewResponseWriter(w, req).NotFound("Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		NewResponseWriter(w, req).Error(http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed")
	})

	r.Handle("/metrics", promhttp.Handler())

	// Health: permissive per-IP limit, separate from the API classes
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Use(APISecurityHeaders(false))
		r.Use(middleware.PrometheusMetrics)
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(APISecurityHeaders(false))
		r.Use(middleware.PrometheusMetrics)

		r.Group(func(r chi.Router) {
			r.Use(router.limit(ratelimit.ClassActivities))
			r.Get("/activities", router.handler.Activities)
			r.Get("/activities/summary", router.handler.ActivitiesSummary)
			r.Get("/activities/{id}", router.handler.ActivityByID)
		})

		r.Group(func(r chi.Router) {
			r.Use(router.limit(ratelimit.ClassAPI))
			r.Get("/cache/stats", router.handler.CacheStats)
		})

		// Mutating endpoints: strict limit, then the API key. Rejected keys
		// share the caller's address window, so key guessing spends the
		// refresh budget.
		r.Group(func(r chi.Router) {
			r.Use(router.limit(ratelimit.ClassRefresh))
			r.Use(APISecurityHeaders(true))
			r.Use(router.gate.RequireAPIKey)
			r.Post("/cache/refresh", router.handler.CacheRefresh)
			r.Post("/cache/cleanup", router.handler.CacheCleanup)
		})

		r.Group(func(r chi.Router) {
			r.Use(router.limit(ratelimit.ClassFundraising))
			r.Get("/fundraising", router.handler.Fundraising)
			r.Get("/fundraising/donations", router.handler.Donations)
		})
	})

	return r
}
