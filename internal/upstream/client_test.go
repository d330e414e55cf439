// Trailfund - Strava Activity and Fundraising Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailfund

package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Value string `json:"value"`
}

func newTestClient(t *testing.T, maxRetries int) *Client {
	t.Helper()
	return NewClient(Options{
		Name:           "test-" + strings.ReplaceAll(t.Name(), "/", "-"),
		Timeout:        5 * time.Second,
		MaxRetries:     maxRetries,
		RetryBaseDelay: time.Millisecond,
	})
}

func TestGetJSON_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"value":"ok"}`))
	}))
	defer server.Close()

	c := newTestClient(t, 0)
	var out payload
	err := c.GetJSON(context.Background(), server.URL, http.Header{"Authorization": {"Bearer abc"}}, &out)
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Value)
}

func TestGetJSON_RetriesOn429ThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) <= 2 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"value":"late"}`))
	}))
	defer server.Close()

	c := newTestClient(t, 3)
	var out payload
	require.NoError(t, c.GetJSON(context.Background(), server.URL, nil, &out))
	assert.Equal(t, "late", out.Value)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGetJSON_RetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := newTestClient(t, 2)
	err := c.GetJSON(context.Background(), server.URL, nil, &payload{})

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
	assert.Contains(t, se.Body, "unavailable")
	assert.Equal(t, int32(3), calls.Load())
}

func TestGetJSON_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "no such page", http.StatusNotFound)
	}))
	defer server.Close()

	c := newTestClient(t, 3)
	for i := 0; i < 15; i++ {
		err := c.GetJSON(context.Background(), server.URL, nil, &payload{})
		var se *StatusError
		require.True(t, errors.As(err, &se))
		assert.False(t, se.Retryable())
	}
	assert.Equal(t, int32(15), calls.Load())
	assert.Equal(t, "closed", c.Breaker().State(), "4xx must not trip the breaker")
}

func TestGetJSON_DecodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"value":`))
	}))
	defer server.Close()

	err := newTestClient(t, 0).GetJSON(context.Background(), server.URL, nil, &payload{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestGetJSON_ContextCancelledDuringBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := newTestClient(t, 3).GetJSON(ctx, server.URL, nil, &payload{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestBreaker_OpensAfterFailures(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := newTestClient(t, 0)
	for i := 0; i < 10; i++ {
		err := c.GetJSON(context.Background(), server.URL, nil, &payload{})
		require.Error(t, err)
		require.False(t, IsCircuitOpen(err), "request %d", i+1)
	}

	err := c.GetJSON(context.Background(), server.URL, nil, &payload{})
	assert.True(t, IsCircuitOpen(err))
	assert.Equal(t, "open", c.Breaker().State())
	assert.Equal(t, int32(10), calls.Load(), "open circuit must not reach upstream")
}

func TestExecute_ReturnsTypedResult(t *testing.T) {
	b := NewBreaker("test-execute", BreakerSettings{})
	got, err := Execute(b, func() (*payload, error) { return &payload{Value: "v"}, nil })
	require.NoError(t, err)
	assert.Equal(t, "v", got.Value)

	got, err = Execute(b, func() (*payload, error) { return nil, fmt.Errorf("boom") })
	assert.Error(t, err)
	assert.Nil(t, got)
}

func TestBackoff(t *testing.T) {
	c := &Client{baseDelay: time.Second}
	assert.Equal(t, time.Second, c.backoff(0, ""))
	assert.Equal(t, 4*time.Second, c.backoff(2, ""))
	assert.Equal(t, 7*time.Second, c.backoff(0, "7"))
	assert.Equal(t, 2*time.Second, c.backoff(1, "soon"))
	assert.Equal(t, time.Duration(0), c.backoff(0, time.Now().Add(-time.Hour).UTC().Format(http.TimeFormat)))
}

func TestReadBodyForError_Truncates(t *testing.T) {
	body := readBodyForError(strings.NewReader(strings.Repeat("x", maxErrorBodySize+10)))
	assert.True(t, strings.HasSuffix(string(body), "(truncated)"))
}
