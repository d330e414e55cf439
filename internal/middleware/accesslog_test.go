// Trailfund - Strava Activity and Fundraising Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailfund

package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/trailfund/internal/logging"
)

// captureLogs swaps the global logger; callers must not run in parallel.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	prev, prevLevel := logging.Logger(), zerolog.GlobalLevel()
	var buf bytes.Buffer
	logging.SetLogger(logging.NewTestLogger(&buf))
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	t.Cleanup(func() {
		logging.SetLogger(prev)
		zerolog.SetGlobalLevel(prevLevel)
	})
	return &buf
}

func lastLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	return entry
}

func TestAccessLog_Levels(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		status    int
		sleep     time.Duration
		slow      time.Duration
		wantLevel string
		wantMsg   string
	}{
		{"ok request", "/api/v1/activities", http.StatusOK, 0, time.Hour, "info", "Request completed"},
		{"server error", "/api/v1/activities", http.StatusBadGateway, 0, time.Hour, "error", "Request completed"},
		{"health probe", "/api/v1/health/live", http.StatusOK, 0, time.Hour, "debug", "Request completed"},
		{"slow request", "/api/v1/activities", http.StatusOK, 20 * time.Millisecond, time.Millisecond, "warn", "Slow request"},
		{"slow disabled", "/api/v1/activities", http.StatusOK, 5 * time.Millisecond, 0, "info", "Request completed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureLogs(t)
			handler := AccessLog(tt.slow)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				time.Sleep(tt.sleep)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("hello"))
			}))

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req = req.WithContext(logging.ContextWithRequestID(req.Context(), "req-1"))
			handler.ServeHTTP(httptest.NewRecorder(), req)

			entry := lastLine(t, buf)
			if entry["level"] != tt.wantLevel {
				t.Errorf("level = %v, want %s", entry["level"], tt.wantLevel)
			}
			if entry["message"] != tt.wantMsg {
				t.Errorf("message = %v, want %s", entry["message"], tt.wantMsg)
			}
			if entry["status"] != float64(tt.status) {
				t.Errorf("status = %v, want %d", entry["status"], tt.status)
			}
			if entry["bytes"] != float64(5) {
				t.Errorf("bytes = %v, want 5", entry["bytes"])
			}
			if entry["request_id"] != "req-1" {
				t.Errorf("request_id = %v, want req-1", entry["request_id"])
			}
		})
	}
}
