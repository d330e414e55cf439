// Trailfund - Strava Activity and Fundraising Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailfund

package activitycache

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"sync"
	"time"
)

// Generation is one backup file. Numbers increase monotonically and are never
// reused, even after cleanup.
type Generation struct {
	Number    uint64    `json:"generation"`
	CreatedAt time.Time `json:"created_at"`
	Path      string    `json:"path"`
	Size      int64     `json:"size_bytes"`
}

// backupStore manages <dir>/<stem>-<generation>-<unix>.json files.
type backupStore struct {
	dir     string
	stem    string
	pattern *regexp.Regexp

	mu   sync.Mutex
	next uint64
}

func newBackupStore(dir, snapshotFile string) *backupStore {
	stem := snapshotFile[:len(snapshotFile)-len(filepath.Ext(snapshotFile))]
	return &backupStore{
		dir:     dir,
		stem:    stem,
		pattern: regexp.MustCompile(`^` + regexp.QuoteMeta(stem) + `-(\d+)-(\d+)\.json$`),
		next:    1,
	}
}

// init creates the directory and seeds the generation counter from the
// highest generation already on disk.
func (b *backupStore) init() error {
	if err := os.MkdirAll(b.dir, dirPerm); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}
	gens, err := b.List()
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if n := len(gens); n > 0 && gens[n-1].Number >= b.next {
		b.next = gens[n-1].Number + 1
	}
	return nil
}

// Save writes data as a new generation.
func (b *backupStore) Save(data []byte, now time.Time) (Generation, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	gen := b.next
	name := fmt.Sprintf("%s-%06d-%d.json", b.stem, gen, now.Unix())
	path := filepath.Join(b.dir, name)
	if err := writeFileAtomic(path, data); err != nil {
		return Generation{}, fmt.Errorf("write backup generation %d: %w", gen, err)
	}
	b.next++

	return Generation{
		Number:    gen,
		CreatedAt: time.Unix(now.Unix(), 0).UTC(),
		Path:      path,
		Size:      int64(len(data)),
	}, nil
}

// List returns backup generations ordered oldest first.
func (b *backupStore) List() ([]Generation, error) {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read backup dir: %w", err)
	}

	gens := make([]Generation, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := b.pattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		num, err := strconv.ParseUint(m[1], 10, 64)
		if err != nil {
			continue
		}
		ts, err := strconv.ParseInt(m[2], 10, 64)
		if err != nil {
			continue
		}
		var size int64
		if info, err := e.Info(); err == nil {
			size = info.Size()
		}
		gens = append(gens, Generation{
			Number:    num,
			CreatedAt: time.Unix(ts, 0).UTC(),
			Path:      filepath.Join(b.dir, e.Name()),
			Size:      size,
		})
	}

	sort.Slice(gens, func(i, j int) bool { return gens[i].Number < gens[j].Number })
	return gens, nil
}

// Cleanup deletes all but the newest keep generations and returns what was
// removed. It never touches the active snapshot.
func (b *backupStore) Cleanup(keep int) (removed []Generation, kept int, err error) {
	if keep < 0 {
		return nil, 0, fmt.Errorf("keep must not be negative, got %d", keep)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	gens, err := b.List()
	if err != nil {
		return nil, 0, err
	}
	if len(gens) <= keep {
		return nil, len(gens), nil
	}

	excess := gens[:len(gens)-keep]
	for _, g := range excess {
		if rmErr := os.Remove(g.Path); rmErr != nil && !os.IsNotExist(rmErr) {
			return removed, len(gens) - len(removed), fmt.Errorf("remove generation %d: %w", g.Number, rmErr)
		}
		removed = append(removed, g)
	}
	return removed, keep, nil
}
