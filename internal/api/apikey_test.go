// Trailfund - Strava Activity and Fundraising Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailfund

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAPIKeyGate_Valid(t *testing.T) {
	g := NewAPIKeyGate([]string{" first ", "", "second"})

	if !g.Configured() {
		t.Fatal("gate with keys should be configured")
	}
	tests := []struct {
		key  string
		want bool
	}{
		{"first", true},
		{"second", true},
		{"third", false},
		{"", false},
		{"firs", false},
	}
	for _, tt := range tests {
		if got := g.Valid(tt.key); got != tt.want {
			t.Errorf("Valid(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestAPIKeyGate_NotConfigured(t *testing.T) {
	g := NewAPIKeyGate(nil)
	if g.Configured() {
		t.Error("gate without keys should not be configured")
	}
	if g.Valid("anything") {
		t.Error("no key is valid on an unconfigured gate")
	}
}

func TestAPIKeyGate_VerifiedKey(t *testing.T) {
	g := NewAPIKeyGate([]string{"k"})

	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"valid header", map[string]string{"X-API-Key": "k"}, "k"},
		{"valid bearer", map[string]string{"Authorization": "Bearer k"}, "k"},
		{"wrong key", map[string]string{"X-API-Key": "guess"}, ""},
		{"none", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := g.VerifiedKey(req); got != tt.want {
				t.Errorf("VerifiedKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPresentedKey(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"x-api-key", map[string]string{"X-API-Key": "k1"}, "k1"},
		{"bearer", map[string]string{"Authorization": "Bearer k2"}, "k2"},
		{"bearer lowercase", map[string]string{"Authorization": "bearer k3"}, "k3"},
		{"header wins", map[string]string{"X-API-Key": "k1", "Authorization": "Bearer k2"}, "k1"},
		{"basic ignored", map[string]string{"Authorization": "Basic Zm9vOmJhcg=="}, ""},
		{"none", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := presentedKey(req); got != tt.want {
				t.Errorf("presentedKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRequireAPIKey(t *testing.T) {
	called := 0
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called++
		w.WriteHeader(http.StatusNoContent)
	})
	h := NewAPIKeyGate([]string{"k"}).RequireAPIKey(next)

	rec := do(t, h, http.MethodPost, "/", map[string]string{"Authorization": "Bearer k"})
	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected status %d, got %d", http.StatusNoContent, rec.Code)
	}

	rec = do(t, h, http.MethodPost, "/", map[string]string{"Authorization": "Bearer nope"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
	if called != 1 {
		t.Errorf("next called %d times, want 1", called)
	}
}
