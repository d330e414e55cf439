// Trailfund - Strava Activity and Fundraising Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailfund

package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/trailfund/internal/logging"
)

// quietPrefixes are probed often enough that they only log at debug.
var quietPrefixes = []string{"/metrics", "/api/v1/health"}

// AccessLog writes one zerolog line per request. Requests slower than slow
// log at warn; a zero slow disables the warning.
func AccessLog(slow time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			elapsed := time.Since(start)

			logger := logging.Ctx(r.Context())
			var event *zerolog.Event
			switch {
			case slow > 0 && elapsed > slow:
				event = logger.Warn().Dur("threshold", slow)
			case sw.status >= http.StatusInternalServerError:
				event = logger.Error()
			case isQuiet(r.URL.Path):
				event = logger.Debug()
			default:
				event = logger.Info()
			}

			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", sw.status).
				Int("bytes", sw.bytes).
				Int64("duration_ms", elapsed.Milliseconds()).
				Str("remote_ip", r.RemoteAddr).
				Str("user_agent", r.UserAgent()).
				Msg(accessMessage(slow, elapsed))
		})
	}
}

func accessMessage(slow, elapsed time.Duration) string {
	if slow > 0 && elapsed > slow {
		return "Slow request"
	}
	return "Request completed"
}

func isQuiet(path string) bool {
	for _, p := range quietPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
