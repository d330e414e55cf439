// Trailfund - Strava Activity and Fundraising Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailfund

/*
Package middleware holds the router-independent HTTP middleware: gzip
compression, Prometheus request instrumentation and the zerolog access log.

All middleware has the chi signature func(http.Handler) http.Handler and is
mounted by the api package:

	r.Use(middleware.AccessLog(time.Second))
	r.Use(middleware.Compression)
	r.With(middleware.PrometheusMetrics).Get("/api/v1/activities", h.Activities)

PrometheusMetrics labels requests by chi route pattern ("/api/v1/activities/{id}")
rather than raw path, so label cardinality is bounded by the route table.
*/
package middleware
