// Trailfund - Strava Activity and Fundraising Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailfund

// Package logging provides the process-wide zerolog logger.
//
// JSON output is the default; console output is for local development.
// Request-scoped loggers carry request_id and correlation_id:
//
//	logging.Init(logging.Config{Level: "info", Format: "json", Timestamp: true})
//
//	ctx = logging.ContextWithRequestID(ctx, id)
//	logging.Ctx(ctx).Info().Int("records", n).Msg("Snapshot written")
//
// Long-lived components tag their logger once:
//
//	log := logging.WithComponent("activitycache")
//
// NewSlogLogger adapts the global logger to log/slog for libraries that
// expect it, such as the suture supervisor event hook.
//
// Secrets must never reach a log line unmasked; use SanitizeToken for keys and
// tokens, and SanitizeLogValue for client supplied strings.
package logging
