// Trailfund - Strava Activity and Fundraising Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailfund

package logging

import (
	"context"
	"fmt"
	"strings"
)

// SecurityEvent is an audit record for the API key gate.
type SecurityEvent struct {
	// Event names what happened, e.g. "api_key_rejected".
	Event     string
	Success   bool
	IPAddress string
	Path      string
	UserAgent string

	// Credential is the presented key or token; it is masked before logging.
	Credential string
	Reason     string
}

// LogSecurityEvent writes e with component=security. Failures log at warn,
// successes at debug.
func LogSecurityEvent(ctx context.Context, e *SecurityEvent) {
	l := Ctx(ctx).With().Str("component", "security").Logger()

	ev := l.Debug()
	status := "success"
	if !e.Success {
		ev = l.Warn()
		status = "failed"
	}

	ev = ev.Str("event", e.Event).Str("status", status)
	if e.IPAddress != "" {
		ev = ev.Str("ip", e.IPAddress)
	}
	if e.Path != "" {
		ev = ev.Str("path", SanitizeLogValue(e.Path))
	}
	if e.UserAgent != "" {
		ev = ev.Str("user_agent", truncateString(SanitizeLogValue(e.UserAgent), 100))
	}
	if e.Credential != "" {
		ev = ev.Str("credential", SanitizeToken(e.Credential))
	}
	if e.Reason != "" {
		ev = ev.Str("reason", e.Reason)
	}
	ev.Msg("Security event")
}

// SanitizeToken masks a secret, keeping the first and last 4 characters.
//
//	"tf_live_0123456789abcdef" -> "tf_l...cdef"
func SanitizeToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 12 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// SanitizeLogValue escapes control characters so client supplied strings
// cannot forge log lines.
func SanitizeLogValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&b, "\\x%02x", r)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
