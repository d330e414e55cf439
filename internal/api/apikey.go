// Trailfund - Strava Activity and Fundraising Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailfund

package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/tomtom215/trailfund/internal/logging"
	"github.com/tomtom215/trailfund/internal/ratelimit"
)

// APIKeyGate checks administrative requests against the configured keys.
// Keys are held only as blake2b digests; comparison is constant time over the
// fixed-size digests, so neither key length nor content leaks through timing.
type APIKeyGate struct {
	digests [][blake2b.Size256]byte
}

// NewAPIKeyGate hashes keys. Empty entries are ignored.
func NewAPIKeyGate(keys []string) *APIKeyGate {
	g := &APIKeyGate{}
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			g.digests = append(g.digests, blake2b.Sum256([]byte(k)))
		}
	}
	return g
}

// Configured reports whether any key is set.
func (g *APIKeyGate) Configured() bool {
	return len(g.digests) > 0
}

// Valid reports whether key matches a configured key. Every configured digest
// is compared even after a match.
func (g *APIKeyGate) Valid(key string) bool {
	if key == "" {
		return false
	}
	sum := blake2b.Sum256([]byte(key))
	match := 0
	for i := range g.digests {
		match |= subtle.ConstantTimeCompare(sum[:], g.digests[i][:])
	}
	return match == 1
}

// VerifiedKey returns the presented key when it is valid, else "". The rate
// governor uses it so only authenticated callers get a window of their own.
func (g *APIKeyGate) VerifiedKey(r *http.Request) string {
	if k := presentedKey(r); g.Valid(k) {
		return k
	}
	return ""
}

// presentedKey returns the X-API-Key header, else a Bearer token.
func presentedKey(r *http.Request) string {
	if k := strings.TrimSpace(r.Header.Get(ratelimit.HeaderAPIKey)); k != "" {
		return k
	}
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return ""
}

// RequireAPIKey rejects requests without a valid key: 401 when the key is
// missing or wrong, 503 API_KEY_NOT_CONFIGURED when no keys exist.
func (g *APIKeyGate) RequireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.Configured() {
			WriteError(w, r, http.StatusServiceUnavailable, ErrCodeAPIKeyNotConfigured,
				"Administrative endpoints are disabled until API_KEYS is configured")
			return
		}

		key := presentedKey(r)
		if g.Valid(key) {
			next.ServeHTTP(w, r)
			return
		}

		reason := "invalid_key"
		if key == "" {
			reason = "missing_key"
		}
		logging.LogSecurityEvent(r.Context(), &logging.SecurityEvent{
			Event:      "api_key_rejected",
			IPAddress:  r.RemoteAddr,
			Path:       r.URL.Path,
			UserAgent:  r.UserAgent(),
			Credential: key,
			Reason:     reason,
		})
		NewResponseWriter(w, r).Unauthorized("A valid API key is required")
	})
}
