// Trailfund - Strava Activity and Fundraising Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailfund

package ratelimit

import (
	"fmt"
	"sort"
	"time"

	"github.com/tomtom215/trailfund/internal/config"
)

// Route classes.
const (
	ClassAPI         = "api"
	ClassActivities  = "activities"
	ClassRefresh     = "refresh"
	ClassFundraising = "fundraising"
)

// Registry holds one independent Governor per route class.
type Registry struct {
	governors map[string]*Governor
	disabled  bool
}

// NewRegistry builds a Governor for every configured class. now may be nil.
func NewRegistry(cfg config.RateLimitConfig, now func() time.Time) (*Registry, error) {
	r := &Registry{
		governors: make(map[string]*Governor),
		disabled:  cfg.Disabled,
	}
	if cfg.Disabled {
		return r, nil
	}

	for name, class := range cfg.Classes() {
		g, err := New(Config{
			Name:        name,
			MaxRequests: class.Requests,
			Window:      class.Window,
			MaxClients:  cfg.MaxClients,
			Now:         now,
		})
		if err != nil {
			return nil, fmt.Errorf("rate limit class %q: %w", name, err)
		}
		r.governors[name] = g
	}
	return r, nil
}

// Get returns the governor for class, or nil when limiting is disabled or the
// class is unknown.
func (r *Registry) Get(class string) *Governor {
	if r == nil || r.disabled {
		return nil
	}
	return r.governors[class]
}

// Disabled reports whether rate limiting is off.
func (r *Registry) Disabled() bool {
	return r == nil || r.disabled
}

// Classes returns the configured class names, sorted.
func (r *Registry) Classes() []string {
	names := make([]string, 0, len(r.governors))
	for name := range r.governors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Sweep sweeps every governor and returns the total windows removed.
func (r *Registry) Sweep() int {
	total := 0
	for _, g := range r.governors {
		total += g.Sweep()
	}
	return total
}

// Len returns tracked windows per class.
func (r *Registry) Len() map[string]int {
	out := make(map[string]int, len(r.governors))
	for name, g := range r.governors {
		out[name] = g.Len()
	}
	return out
}
