// Trailfund - Strava Activity and Fundraising Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailfund

package activitycache

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/trailfund/internal/models"
)

// SnapshotVersion marks the on-disk format. Files carrying any other value are
// ignored.
const SnapshotVersion = "trailfund.activities/v2"

// Snapshot is the persisted set of cached activities. A *Snapshot published by
// the Manager is never modified afterwards.
type Snapshot struct {
	Records     []models.Activity `json:"records"`
	LastUpdated time.Time         `json:"last_updated"`
	Version     string            `json:"version"`
}

// Age returns how long ago the snapshot was fetched.
func (s *Snapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.LastUpdated)
}

func encodeSnapshot(s *Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return append(data, '\n'), nil
}

// decodeSnapshot parses and validates snapshot bytes. Errors wrap
// ErrCorruptSnapshot or ErrIncompatibleSnapshot.
func decodeSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptSnapshot, err)
	}
	if s.Version != SnapshotVersion {
		return nil, fmt.Errorf("%w: got %q, want %q", ErrIncompatibleSnapshot, s.Version, SnapshotVersion)
	}
	if s.LastUpdated.IsZero() {
		return nil, fmt.Errorf("%w: missing last_updated", ErrCorruptSnapshot)
	}

	seen := make(map[int64]struct{}, len(s.Records))
	for i := range s.Records {
		id := s.Records[i].ID
		if id <= 0 {
			return nil, fmt.Errorf("%w: record %d has invalid id %d", ErrCorruptSnapshot, i, id)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: duplicate id %d", ErrCorruptSnapshot, id)
		}
		seen[id] = struct{}{}
	}
	if s.Records == nil {
		s.Records = []models.Activity{}
	}
	return &s, nil
}
