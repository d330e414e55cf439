// Trailfund - Strava Activity and Fundraising Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailfund

package ratelimit

import (
	"encoding/hex"
	"net/http"

	"github.com/go-chi/httprate"
	"golang.org/x/crypto/blake2b"
)

// HeaderAPIKey carries the administrative API key.
const HeaderAPIKey = "X-API-Key"

// IdentityFunc derives a client identity from a request.
type IdentityFunc func(r *http.Request) string

// CredentialFunc returns the request's credential only after it has been
// verified, or "" when none was presented or it was rejected.
type CredentialFunc func(r *http.Request) string

// ClientIdentity keys on the client address only (honoring True-Client-IP,
// X-Real-IP and X-Forwarded-For). Headers a caller can change freely never
// select a window.
func ClientIdentity(r *http.Request) string {
	return identity(clientIP(r), "")
}

// KeyedIdentity gives callers holding a verified credential their own window
// per address and credential. Requests with a missing or rejected credential
// share the address window, so rotating guesses does not buy fresh quota.
func KeyedIdentity(verified CredentialFunc) IdentityFunc {
	if verified == nil {
		return ClientIdentity
	}
	return func(r *http.Request) string {
		return identity(clientIP(r), verified(r))
	}
}

func clientIP(r *http.Request) string {
	ip, err := httprate.KeyByRealIP(r)
	if err != nil || ip == "" {
		return r.RemoteAddr
	}
	return ip
}

// identity hashes ip and credential so raw keys never end up in limiter
// state.
func identity(ip, credential string) string {
	buf := make([]byte, 0, len(ip)+1+len(credential))
	buf = append(buf, ip...)
	buf = append(buf, 0)
	buf = append(buf, credential...)
	sum := blake2b.Sum256(buf)
	return hex.EncodeToString(sum[:16])
}
