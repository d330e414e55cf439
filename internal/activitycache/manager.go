// Trailfund - Strava Activity and Fundraising Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailfund

package activitycache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/trailfund/internal/config"
	"github.com/tomtom215/trailfund/internal/logging"
	"github.com/tomtom215/trailfund/internal/metrics"
	"github.com/tomtom215/trailfund/internal/models"
)

// Refresh modes, also used as metric labels.
const (
	ModeIncremental = "incremental"
	ModeFull        = "full"
)

// Page is one batch returned by a Fetcher. NextPage is 0 when there are no
// further pages.
type Page struct {
	Activities []models.Activity
	NextPage   int
}

// Fetcher reads activities from upstream. A zero since means "everything".
// Pages are numbered from 1.
type Fetcher interface {
	FetchPage(ctx context.Context, since time.Time, page int) (Page, error)
}

// DetailFetcher is optionally implemented by a Fetcher to return the full
// record for one activity (description, photos, comments).
type DetailFetcher interface {
	FetchActivityDetail(ctx context.Context, id int64) (*models.Activity, error)
}

// DefaultFailureCooldown spaces background refresh attempts while upstream
// keeps failing.
const DefaultFailureCooldown = 30 * time.Second

// Options configures a Manager.
type Options struct {
	Dir      string
	FileName string

	TTL          time.Duration
	Overlap      time.Duration
	FetchTimeout time.Duration
	KeepBackups  int

	DefaultLimit int
	MaxLimit     int

	// MaxPages bounds the pages read in one refresh.
	MaxPages int

	EnrichDetails    bool
	MaxDetailFetches int

	// FailureCooldown is how long stale reads wait after a failed refresh
	// before starting another background attempt.
	FailureCooldown time.Duration

	// Now overrides time.Now in tests.
	Now func() time.Time
}

// OptionsFromConfig builds Options from the cache section and the upstream
// page bound.
func OptionsFromConfig(c config.CacheConfig, maxPages int) Options {
	return Options{
		Dir:              c.Dir,
		FileName:         c.FileName,
		TTL:              c.TTL,
		Overlap:          c.Overlap,
		FetchTimeout:     c.FetchTimeout,
		KeepBackups:      c.KeepBackups,
		DefaultLimit:     c.DefaultLimit,
		MaxLimit:         c.MaxLimit,
		MaxPages:         maxPages,
		EnrichDetails:    c.EnrichDetails,
		MaxDetailFetches: c.MaxDetailFetches,
	}
}

func (o *Options) setDefaults() {
	if o.FileName == "" {
		o.FileName = "activities.json"
	}
	if o.TTL <= 0 {
		o.TTL = time.Hour
	}
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = 90 * time.Second
	}
	if o.KeepBackups < 1 {
		o.KeepBackups = 5
	}
	if o.DefaultLimit < 1 {
		o.DefaultLimit = 30
	}
	if o.MaxLimit < o.DefaultLimit {
		o.MaxLimit = o.DefaultLimit
	}
	if o.MaxPages < 1 {
		o.MaxPages = 20
	}
	if o.FailureCooldown <= 0 {
		o.FailureCooldown = DefaultFailureCooldown
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// Result is returned by Get.
type Result struct {
	Records      []models.Activity `json:"records"`
	TotalMatches int               `json:"total_matches"`
	IsFresh      bool              `json:"is_fresh"`
	LastUpdated  time.Time         `json:"last_updated"`
}

// RefreshResult describes a completed refresh.
type RefreshResult struct {
	Mode             string        `json:"mode"`
	Fetched          int           `json:"fetched"`
	Added            int           `json:"added"`
	Updated          int           `json:"updated"`
	Total            int           `json:"total"`
	Duration         time.Duration `json:"duration_ns"`
	LastUpdated      time.Time     `json:"last_updated"`
	BackupGeneration uint64        `json:"backup_generation,omitempty"`

	// Coalesced is true when the result was shared with other concurrent
	// callers of the same refresh.
	Coalesced bool `json:"coalesced"`
}

// CleanupResult is returned by CleanupBackups.
type CleanupResult struct {
	Removed []Generation `json:"removed"`
	Kept    int          `json:"kept"`
}

// Stats is a point-in-time view of the cache.
type Stats struct {
	Records           int          `json:"records"`
	LastUpdated       *time.Time   `json:"last_updated,omitempty"`
	AgeSeconds        float64      `json:"age_seconds"`
	IsFresh           bool         `json:"is_fresh"`
	TTLSeconds        float64      `json:"ttl_seconds"`
	SnapshotBytes     int64        `json:"snapshot_bytes"`
	Backups           []Generation `json:"backups"`
	BackupCount       int          `json:"backup_count"`
	NewestBackup      uint64       `json:"newest_backup_generation,omitempty"`
	RefreshInProgress bool         `json:"refresh_in_progress"`
	Refreshes         int64        `json:"refreshes"`
	RefreshFailures   int64        `json:"refresh_failures"`
	Recoveries        int64        `json:"recoveries"`
	Hits              int64        `json:"hits"`
	StaleHits         int64        `json:"stale_hits"`
	Misses            int64        `json:"misses"`
	LastRefreshAt     *time.Time   `json:"last_refresh_at,omitempty"`
	LastError         string       `json:"last_error,omitempty"`
}

// Manager owns the activity snapshot. Readers never block on refreshes: the
// current snapshot is published through an atomic pointer and replaced only
// after the new file is durably on disk.
type Manager struct {
	opts    Options
	path    string
	fetcher Fetcher
	details DetailFetcher
	backups *backupStore
	logger  zerolog.Logger

	snap atomic.Pointer[Snapshot]

	// refreshMu serializes fetch, merge, write and publish.
	refreshMu  sync.Mutex
	flight     singleflight.Group
	refreshing atomic.Bool

	loadOnce sync.Once
	loadErr  error

	bgMu      sync.Mutex
	bgWG      sync.WaitGroup
	bgPending atomic.Bool
	closed    atomic.Bool

	refreshes       atomic.Int64
	refreshFailures atomic.Int64
	recoveries      atomic.Int64
	hits            atomic.Int64
	staleHits       atomic.Int64
	misses          atomic.Int64

	statusMu      sync.Mutex
	lastRefreshAt time.Time
	lastErr       string
}

// New creates a Manager. Call Load before serving, or let the first read do it.
func New(fetcher Fetcher, opts Options) (*Manager, error) {
	if fetcher == nil {
		return nil, errors.New("activitycache: fetcher is required")
	}
	if opts.Dir == "" {
		return nil, errors.New("activitycache: cache directory is required")
	}
	opts.setDefaults()

	m := &Manager{
		opts:    opts,
		path:    filepath.Join(opts.Dir, opts.FileName),
		fetcher: fetcher,
		backups: newBackupStore(filepath.Join(opts.Dir, "backups"), opts.FileName),
		logger:  logging.WithComponent("activitycache"),
	}
	if d, ok := fetcher.(DetailFetcher); ok && opts.EnrichDetails {
		m.details = d
	}
	return m, nil
}

// Load reads the persisted snapshot once. A corrupt file is replaced by the
// newest valid backup generation if there is one; otherwise, and for a file of
// another format version, the manager starts empty and the first read fetches
// synchronously.
func (m *Manager) Load() error {
	m.loadOnce.Do(func() {
		m.loadErr = m.load()
	})
	return m.loadErr
}

func (m *Manager) load() error {
	if err := os.MkdirAll(m.opts.Dir, dirPerm); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	if err := m.backups.init(); err != nil {
		return err
	}

	data, err := readFileIfExists(m.path)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	if data == nil {
		m.logger.Info().Str("path", m.path).Msg("No activity snapshot on disk, first read will fetch")
		m.updateBackupGauge()
		return nil
	}

	snap, err := decodeSnapshot(data)
	if err == nil {
		m.publish(snap)
		m.updateBackupGauge()
		m.logger.Info().
			Int("records", len(snap.Records)).
			Time("last_updated", snap.LastUpdated).
			Msg("Loaded activity snapshot")
		return nil
	}

	if errors.Is(err, ErrIncompatibleSnapshot) {
		m.logger.Warn().Err(err).Str("path", m.path).Msg("Ignoring snapshot written by another format version, first read will fetch")
		m.updateBackupGauge()
		return nil
	}

	m.logger.Warn().Err(err).Str("path", m.path).Msg("Active snapshot unusable, trying backups")
	if recErr := m.recoverFromBackup(); recErr != nil {
		m.logger.Warn().Err(recErr).Msg("No usable backup generation, starting empty")
	}
	m.updateBackupGauge()
	return nil
}

// recoverFromBackup restores the newest backup that decodes cleanly. The
// unusable active file is kept alongside as <file>.corrupt for inspection.
func (m *Manager) recoverFromBackup() error {
	gens, err := m.backups.List()
	if err != nil {
		return err
	}

	for i := len(gens) - 1; i >= 0; i-- {
		g := gens[i]
		data, err := os.ReadFile(g.Path)
		if err != nil {
			m.logger.Warn().Err(err).Uint64("generation", g.Number).Msg("Cannot read backup generation")
			continue
		}
		snap, err := decodeSnapshot(data)
		if err != nil {
			m.logger.Warn().Err(err).Uint64("generation", g.Number).Msg("Skipping invalid backup generation")
			continue
		}

		if err := os.Rename(m.path, m.path+".corrupt"); err != nil && !os.IsNotExist(err) {
			m.logger.Warn().Err(err).Msg("Could not set aside unusable snapshot")
		}
		if err := writeFileAtomic(m.path, data); err != nil {
			return fmt.Errorf("restore generation %d: %w", g.Number, err)
		}

		m.publish(snap)
		m.recoveries.Add(1)
		metrics.CacheRecoveries.Inc()
		m.logger.Warn().
			Uint64("generation", g.Number).
			Int("records", len(snap.Records)).
			Time("last_updated", snap.LastUpdated).
			Msg("Restored activity snapshot from backup")
		return nil
	}
	return errors.New("no valid backup generation")
}

// Get returns up to limit records matching f. With no snapshot it fetches
// synchronously and returns ErrNoDataAvailable if that fails. A stale snapshot
// is returned immediately with IsFresh=false and a background refresh is
// started.
func (m *Manager) Get(ctx context.Context, limit int, f Filter) (*Result, error) {
	snap, err := m.current(ctx)
	if err != nil {
		return nil, err
	}

	records, total := f.apply(snap.Records, m.clampLimit(limit))
	return &Result{
		Records:      records,
		TotalMatches: total,
		IsFresh:      m.isFresh(snap),
		LastUpdated:  snap.LastUpdated,
	}, nil
}

// GetByID returns a single cached activity.
func (m *Manager) GetByID(ctx context.Context, id int64) (*models.Activity, bool, error) {
	snap, err := m.current(ctx)
	if err != nil {
		return nil, false, err
	}
	for i := range snap.Records {
		if snap.Records[i].ID == id {
			a := snap.Records[i]
			return &a, m.isFresh(snap), nil
		}
	}
	return nil, false, fmt.Errorf("%w: %d", ErrActivityNotFound, id)
}

// Summary totals cached activities matching f per kind.
func (m *Manager) Summary(ctx context.Context, f Filter) ([]models.ActivitySummary, *Snapshot, error) {
	snap, err := m.current(ctx)
	if err != nil {
		return nil, nil, err
	}
	return summarize(snap.Records, &f), snap, nil
}

// current returns the published snapshot, fetching synchronously if there is
// none yet and scheduling a background refresh if it is stale.
func (m *Manager) current(ctx context.Context) (*Snapshot, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}
	if err := m.Load(); err != nil {
		return nil, err
	}

	snap := m.snap.Load()
	if snap == nil {
		m.misses.Add(1)
		metrics.CacheReads.WithLabelValues("miss").Inc()
		if _, err := m.Refresh(ctx, false); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNoDataAvailable, err)
		}
		if snap = m.snap.Load(); snap == nil {
			return nil, ErrNoDataAvailable
		}
		return snap, nil
	}

	if m.isFresh(snap) {
		m.hits.Add(1)
		metrics.CacheReads.WithLabelValues("hit").Inc()
		return snap, nil
	}

	m.staleHits.Add(1)
	metrics.CacheReads.WithLabelValues("stale").Inc()
	m.refreshInBackground()
	return snap, nil
}

func (m *Manager) isFresh(s *Snapshot) bool {
	return s.Age(m.opts.Now()) < m.opts.TTL
}

func (m *Manager) clampLimit(limit int) int {
	if limit <= 0 {
		return m.opts.DefaultLimit
	}
	return min(limit, m.opts.MaxLimit)
}

// Refresh fetches from upstream and replaces the snapshot. Concurrent calls
// for the same mode share one fetch; a call for the other mode runs after the
// current one finishes. The fetch is detached from ctx cancellation (a client
// disconnect does not abort it) and bounded by FetchTimeout; ctx only bounds
// how long this caller waits.
func (m *Manager) Refresh(ctx context.Context, forceFull bool) (RefreshResult, error) {
	if m.closed.Load() {
		return RefreshResult{}, ErrClosed
	}
	return m.runRefresh(ctx, forceFull)
}

func (m *Manager) runRefresh(ctx context.Context, forceFull bool) (RefreshResult, error) {
	if err := m.Load(); err != nil {
		return RefreshResult{}, err
	}

	mode := ModeIncremental
	if forceFull {
		mode = ModeFull
	}

	detached := context.WithoutCancel(ctx)
	ch := m.flight.DoChan(mode, func() (interface{}, error) {
		return m.refresh(detached, forceFull)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return RefreshResult{}, res.Err
		}
		out := *(res.Val.(*RefreshResult))
		out.Coalesced = res.Shared
		if res.Shared {
			metrics.CacheRefreshTotal.WithLabelValues(mode, "coalesced").Inc()
		}
		return out, nil
	case <-ctx.Done():
		return RefreshResult{}, ctx.Err()
	}
}

// TryRefresh is Refresh that returns ErrRefreshInProgress instead of waiting
// when a refresh is already running. Used by scheduled and stale-read
// triggers.
func (m *Manager) TryRefresh(ctx context.Context, forceFull bool) (RefreshResult, error) {
	if m.closed.Load() {
		return RefreshResult{}, ErrClosed
	}
	return m.tryRefresh(ctx, forceFull)
}

// tryRefresh skips the closed check: background refreshes started before
// Close run to completion while Close waits for them.
func (m *Manager) tryRefresh(ctx context.Context, forceFull bool) (RefreshResult, error) {
	if m.refreshing.Load() {
		return RefreshResult{}, ErrRefreshInProgress
	}
	return m.runRefresh(ctx, forceFull)
}

// IsRefreshing reports whether a refresh currently holds the writer lock.
func (m *Manager) IsRefreshing() bool {
	return m.refreshing.Load()
}

func (m *Manager) refresh(ctx context.Context, forceFull bool) (*RefreshResult, error) {
	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()
	m.refreshing.Store(true)
	defer m.refreshing.Store(false)

	mode := ModeIncremental
	if forceFull {
		mode = ModeFull
	}
	log := logging.Ctx(ctx).With().Str("component", "activitycache").Str("mode", mode).Logger()

	ctx, cancel := context.WithTimeout(ctx, m.opts.FetchTimeout)
	defer cancel()

	start := m.opts.Now()
	prev := m.snap.Load()

	var since time.Time
	if !forceFull && prev != nil {
		since = prev.LastUpdated.Add(-m.opts.Overlap)
	}

	res, err := m.doRefresh(ctx, &log, mode, start, since, prev)
	elapsed := m.opts.Now().Sub(start)
	metrics.RecordCacheRefresh(mode, elapsed, err)
	m.recordOutcome(start, err)

	if err != nil {
		log.Warn().Err(err).Dur("elapsed", elapsed).Msg("Activity refresh failed, keeping previous snapshot")
		return nil, err
	}

	res.Duration = elapsed
	log.Info().
		Int("fetched", res.Fetched).
		Int("added", res.Added).
		Int("updated", res.Updated).
		Int("total", res.Total).
		Dur("elapsed", elapsed).
		Msg("Activity refresh complete")
	return res, nil
}

func (m *Manager) doRefresh(ctx context.Context, log *zerolog.Logger, mode string, start, since time.Time, prev *Snapshot) (*RefreshResult, error) {
	batch, err := m.fetchAll(ctx, log, since, start)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}

	var base []models.Activity
	if mode == ModeIncremental && prev != nil {
		base = prev.Records
	}
	if m.details != nil {
		m.enrichNew(ctx, log, base, batch)
	}

	merged, added, updated := mergeActivities(base, batch)
	next := &Snapshot{
		Records:     merged,
		LastUpdated: start,
		Version:     SnapshotVersion,
	}
	data, err := encodeSnapshot(next)
	if err != nil {
		return nil, err
	}

	var backupGen uint64
	prevBytes, err := readFileIfExists(m.path)
	if err != nil {
		return nil, fmt.Errorf("read current snapshot for backup: %w", err)
	}
	if prevBytes != nil {
		gen, err := m.backups.Save(prevBytes, start)
		switch {
		case err == nil:
			backupGen = gen.Number
		case mode == ModeFull:
			return nil, fmt.Errorf("back up snapshot before full refresh: %w", err)
		default:
			log.Warn().Err(err).Msg("Backup of previous snapshot failed, continuing")
		}
	}

	if err := writeFileAtomic(m.path, data); err != nil {
		return nil, fmt.Errorf("write snapshot: %w", err)
	}
	m.publish(next)

	if _, _, err := m.backups.Cleanup(m.opts.KeepBackups); err != nil {
		log.Warn().Err(err).Msg("Backup cleanup failed")
	}
	m.updateBackupGauge()

	return &RefreshResult{
		Mode:             mode,
		Fetched:          len(batch),
		Added:            added,
		Updated:          updated,
		Total:            len(merged),
		LastUpdated:      next.LastUpdated,
		BackupGeneration: backupGen,
	}, nil
}

// fetchAll reads pages until the fetcher reports no more or MaxPages is hit.
// Any page error discards the whole batch.
func (m *Manager) fetchAll(ctx context.Context, log *zerolog.Logger, since, fetchedAt time.Time) ([]models.Activity, error) {
	var out []models.Activity
	page := 1
	for n := 0; n < m.opts.MaxPages; n++ {
		p, err := m.fetcher.FetchPage(ctx, since, page)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}
		for i := range p.Activities {
			if p.Activities[i].FetchedAt.IsZero() {
				p.Activities[i].FetchedAt = fetchedAt
			}
		}
		out = append(out, p.Activities...)
		if p.NextPage == 0 {
			return out, nil
		}
		page = p.NextPage
	}

	log.Warn().Int("max_pages", m.opts.MaxPages).Int("fetched", len(out)).
		Msg("Stopped at page limit, older activities not fetched")
	return out, nil
}

// enrichNew replaces records in batch that are not yet in base with their
// detail view. Failures leave the summary record in place.
func (m *Manager) enrichNew(ctx context.Context, log *zerolog.Logger, base, batch []models.Activity) {
	known := make(map[int64]struct{}, len(base))
	for i := range base {
		known[base[i].ID] = struct{}{}
	}

	fetched := 0
	for i := range batch {
		if fetched >= m.opts.MaxDetailFetches {
			return
		}
		if _, ok := known[batch[i].ID]; ok {
			continue
		}
		if ctx.Err() != nil {
			return
		}
		fetched++

		detail, err := m.details.FetchActivityDetail(ctx, batch[i].ID)
		if err != nil {
			log.Debug().Err(err).Int64("activity_id", batch[i].ID).Msg("Detail fetch failed")
			continue
		}
		batch[i] = enrich(batch[i], *detail)
	}
}

func (m *Manager) publish(s *Snapshot) {
	m.snap.Store(s)
	metrics.CacheRecords.Set(float64(len(s.Records)))
}

func (m *Manager) recordOutcome(at time.Time, err error) {
	m.statusMu.Lock()
	defer m.statusMu.Unlock()
	m.lastRefreshAt = at
	if err != nil {
		m.refreshFailures.Add(1)
		m.lastErr = err.Error()
		return
	}
	m.refreshes.Add(1)
	m.lastErr = ""
}

func (m *Manager) updateBackupGauge() {
	if gens, err := m.backups.List(); err == nil {
		metrics.CacheBackups.Set(float64(len(gens)))
	}
}

// refreshInBackground starts at most one stale-read refresh at a time, and
// none within FailureCooldown of a failed attempt.
func (m *Manager) refreshInBackground() {
	if m.coolingDown() {
		return
	}

	m.bgMu.Lock()
	defer m.bgMu.Unlock()
	if m.closed.Load() || !m.bgPending.CompareAndSwap(false, true) {
		return
	}

	m.bgWG.Add(1)
	go func() {
		defer m.bgWG.Done()
		defer m.bgPending.Store(false)

		ctx := logging.ContextWithNewCorrelationID(context.Background())
		if _, err := m.tryRefresh(ctx, false); err != nil && !errors.Is(err, ErrRefreshInProgress) {
			m.logger.Debug().Err(err).Msg("Background refresh failed")
		}
	}()
}

func (m *Manager) coolingDown() bool {
	m.statusMu.Lock()
	defer m.statusMu.Unlock()
	if m.lastErr == "" || m.lastRefreshAt.IsZero() {
		return false
	}
	return m.opts.Now().Sub(m.lastRefreshAt) < m.opts.FailureCooldown
}

// CleanupBackups keeps the newest keep generations.
func (m *Manager) CleanupBackups(keep int) (CleanupResult, error) {
	if m.closed.Load() {
		return CleanupResult{}, ErrClosed
	}
	if err := m.Load(); err != nil {
		return CleanupResult{}, err
	}
	removed, kept, err := m.backups.Cleanup(keep)
	m.updateBackupGauge()
	if err != nil {
		return CleanupResult{Removed: removed, Kept: kept}, err
	}
	if removed == nil {
		removed = []Generation{}
	}
	m.logger.Info().Int("removed", len(removed)).Int("kept", kept).Msg("Backup cleanup complete")
	return CleanupResult{Removed: removed, Kept: kept}, nil
}

// Backups lists backup generations, oldest first.
func (m *Manager) Backups() ([]Generation, error) {
	return m.backups.List()
}

// Stats reports the cache state. Safe to call at any time.
func (m *Manager) Stats() Stats {
	st := Stats{
		TTLSeconds:        m.opts.TTL.Seconds(),
		RefreshInProgress: m.refreshing.Load(),
		Refreshes:         m.refreshes.Load(),
		RefreshFailures:   m.refreshFailures.Load(),
		Recoveries:        m.recoveries.Load(),
		Hits:              m.hits.Load(),
		StaleHits:         m.staleHits.Load(),
		Misses:            m.misses.Load(),
		Backups:           []Generation{},
	}

	if snap := m.snap.Load(); snap != nil {
		lu := snap.LastUpdated
		st.Records = len(snap.Records)
		st.LastUpdated = &lu
		st.AgeSeconds = snap.Age(m.opts.Now()).Seconds()
		st.IsFresh = m.isFresh(snap)
	}
	if info, err := os.Stat(m.path); err == nil {
		st.SnapshotBytes = info.Size()
	}
	if gens, err := m.backups.List(); err == nil && len(gens) > 0 {
		st.Backups = gens
		st.BackupCount = len(gens)
		st.NewestBackup = gens[len(gens)-1].Number
	}

	m.statusMu.Lock()
	if !m.lastRefreshAt.IsZero() {
		at := m.lastRefreshAt
		st.LastRefreshAt = &at
	}
	st.LastError = m.lastErr
	m.statusMu.Unlock()

	return st
}

// Snapshot returns the published snapshot, or nil.
func (m *Manager) Snapshot() *Snapshot {
	return m.snap.Load()
}

// Close stops new background refreshes and waits for running ones. Reads,
// refreshes and cleanups return ErrClosed afterwards; Stats and Snapshot keep
// working. Safe to call more than once.
func (m *Manager) Close() {
	m.bgMu.Lock()
	m.closed.Store(true)
	m.bgMu.Unlock()
	m.bgWG.Wait()
}
