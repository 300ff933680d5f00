package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alorle/iptv-player/internal/playlist"
	"github.com/alorle/iptv-player/internal/port/driven"
	"github.com/alorle/iptv-player/logging"
	"github.com/alorle/iptv-player/metrics"
)

const (
	// DefaultPlaylistTTL is how long a synced catalog stays fresh.
	DefaultPlaylistTTL = 24 * time.Hour

	// DefaultRetryDelay is the pause between failed sync attempts.
	DefaultRetryDelay = 10 * time.Second
)

// SyncState is the state of the playlist sync engine.
type SyncState int

// Sync engine states.
const (
	SyncIdle SyncState = iota
	SyncSyncing
	SyncRetryWaiting
)

// String returns the string representation of a SyncState.
func (s SyncState) String() string {
	switch s {
	case SyncIdle:
		return "idle"
	case SyncSyncing:
		return "syncing"
	case SyncRetryWaiting:
		return "retry_waiting"
	default:
		return "unknown"
	}
}

// SyncErrorKind classifies why a sync attempt failed.
type SyncErrorKind string

// Sync failure kinds.
const (
	KindFetch       SyncErrorKind = "fetch"
	KindParse       SyncErrorKind = "parse"
	KindPersistence SyncErrorKind = "persistence"
)

// SyncError is the failure result of a single sync attempt.
type SyncError struct {
	Kind    SyncErrorKind
	Attempt int
	Err     error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("%s failed on attempt %d: %v", e.Kind, e.Attempt, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// PlaylistPreset is a named playlist URL offered for selection.
type PlaylistPreset struct {
	Name string
	URL  string
}

// PlaylistSyncConfig configures a PlaylistSyncService. Zero durations fall back
// to DefaultPlaylistTTL and DefaultRetryDelay.
type PlaylistSyncConfig struct {
	URL        string
	TTL        time.Duration
	RetryDelay time.Duration
	BuiltIn    []PlaylistPreset
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// attemptResult is the success result of a single sync attempt.
type attemptResult struct {
	channels   int
	changed    bool
	persistErr error
}

// PlaylistSyncService keeps the channel catalog fresh: it fetches the remote
// playlist, parses it into its canonical form, persists and announces it when
// it changed, and retries while the cached copy is stale.
//
// At most one attempt sequence runs at a time. A sequence holds a guard token
// from the moment RequestSync accepts it until its retry loop exits.
type PlaylistSyncService struct {
	source     driven.PlaylistSource
	store      driven.PlaylistStore
	logger     *slog.Logger
	defaultURL string
	ttl        time.Duration
	retryDelay time.Duration
	builtIn    []PlaylistPreset
	now        func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	token    uuid.UUID
	state    SyncState
	updating bool
	done     chan struct{}
	catalog  *playlist.Catalog

	changeListeners listeners[*playlist.Catalog]
	stateListeners  listeners[bool]
}

// NewPlaylistSyncService creates a new playlist sync service.
func NewPlaylistSyncService(source driven.PlaylistSource, store driven.PlaylistStore, cfg PlaylistSyncConfig, logger *slog.Logger) *PlaylistSyncService {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultPlaylistTTL
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &PlaylistSyncService{
		source:     source,
		store:      store,
		logger:     logger,
		defaultURL: cfg.URL,
		ttl:        cfg.TTL,
		retryDelay: cfg.RetryDelay,
		builtIn:    append([]PlaylistPreset(nil), cfg.BuiltIn...),
		now:        cfg.Now,
		ctx:        ctx,
		cancel:     cancel,
		catalog:    playlist.Empty(),
	}
}

// OnPlaylistChange registers fn to receive every new catalog. fn runs on the
// sync goroutine. The returned function unregisters it.
func (s *PlaylistSyncService) OnPlaylistChange(fn func(*playlist.Catalog)) func() {
	return s.changeListeners.add(fn)
}

// OnSyncStateChange registers fn to receive isSyncing transitions. fn runs on
// the sync goroutine. The returned function unregisters it.
func (s *PlaylistSyncService) OnSyncStateChange(fn func(bool)) func() {
	return s.stateListeners.add(fn)
}

// BuiltInPlaylists returns the playlists offered for selection.
func (s *PlaylistSyncService) BuiltInPlaylists() []PlaylistPreset {
	return append([]PlaylistPreset(nil), s.builtIn...)
}

// PlaylistURL returns the URL the next sync fetches: the persisted one when
// set, the configured one otherwise.
func (s *PlaylistSyncService) PlaylistURL(ctx context.Context) string {
	if url := s.store.PlaylistURL(ctx); url != "" {
		return url
	}
	return s.defaultURL
}

// SetPlaylistURL persists a new playlist URL, marks the catalog stale and
// requests a sync.
func (s *PlaylistSyncService) SetPlaylistURL(ctx context.Context, url string) error {
	if err := s.store.SetPlaylistURL(ctx, url); err != nil {
		return fmt.Errorf("saving playlist url: %w", err)
	}
	if err := s.store.SetLastUpdate(ctx, 0); err != nil {
		return fmt.Errorf("resetting last update: %w", err)
	}
	s.RequestSync()
	return nil
}

// SetLastUpdate records the last successful sync time. Setting 0 marks the
// catalog stale. If requestSync is true a sync is requested afterwards.
func (s *PlaylistSyncService) SetLastUpdate(ctx context.Context, epochMillis int64, requestSync bool) error {
	if err := s.store.SetLastUpdate(ctx, epochMillis); err != nil {
		return fmt.Errorf("saving last update: %w", err)
	}
	if requestSync {
		s.RequestSync()
	}
	return nil
}

// LastUpdate returns the time of the last successful sync, or zero if unknown.
func (s *PlaylistSyncService) LastUpdate(ctx context.Context) time.Time {
	millis := s.store.LastUpdate(ctx)
	if millis <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(millis)
}

// Catalog returns the most recently loaded or synced catalog.
func (s *PlaylistSyncService) Catalog() *playlist.Catalog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog
}

// State returns the current engine state.
func (s *PlaylistSyncService) State() SyncState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsSyncing reports whether an attempt sequence has started fetching and has
// not finished yet.
func (s *PlaylistSyncService) IsSyncing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updating
}

// LoadCatalog returns the persisted catalog. If it is missing or unreadable,
// the catalog is marked stale and the built-in empty catalog is returned.
// A sync is requested in every case.
func (s *PlaylistSyncService) LoadCatalog(ctx context.Context) *playlist.Catalog {
	defer s.RequestSync()

	cat, err := s.readCatalog(ctx)
	if err != nil {
		s.logger.Warn("Cannot load playlist, using built-in catalog", "reason", err.Error())
		if err := s.store.SetLastUpdate(ctx, 0); err != nil {
			s.logger.Warn("Failed to reset last update", "error", err)
		}
		cat = playlist.Empty()
	}

	s.mu.Lock()
	s.catalog = cat
	s.mu.Unlock()
	metrics.SetPlaylistChannels(cat.Len())

	return cat
}

func (s *PlaylistSyncService) readCatalog(ctx context.Context) (*playlist.Catalog, error) {
	text, ok := s.store.Read(ctx)
	if !ok {
		return nil, errors.New("no persisted catalog")
	}
	return playlist.FromJSON([]byte(text))
}

// RequestSync starts an attempt sequence in the background unless one is
// already running. It reports whether a new sequence was started.
// A sequence whose catalog is still fresh ends without fetching.
func (s *PlaylistSyncService) RequestSync() bool {
	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		return false
	}
	if s.token != uuid.Nil {
		s.mu.Unlock()
		logging.SyncRejected(s.logger)
		return false
	}

	token := uuid.New()
	done := make(chan struct{})
	s.token = token
	s.done = done
	s.wg.Add(1)
	s.mu.Unlock()

	go s.run(token, done)
	return true
}

// Wait blocks until the running attempt sequence, if any, has finished.
func (s *PlaylistSyncService) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Close cancels any running sequence, including its retry wait, and waits for
// it to exit. RequestSync is a no-op afterwards.
func (s *PlaylistSyncService) Close() {
	s.cancel()
	s.wg.Wait()
}

func (s *PlaylistSyncService) run(token uuid.UUID, done chan struct{}) {
	defer s.wg.Done()

	started := false
	defer func() {
		s.mu.Lock()
		if s.token == token {
			s.token = uuid.Nil
		}
		s.state = SyncIdle
		s.updating = false
		s.mu.Unlock()

		if started {
			metrics.SetSyncInProgress(false)
			s.stateListeners.notify(false)
		}
		close(done)
	}()

	ctx := s.ctx
	attempt := 0

	for s.isStale(ctx) {
		if ctx.Err() != nil {
			return
		}

		attempt++
		if !started {
			started = true
			s.mu.Lock()
			s.updating = true
			s.mu.Unlock()
			metrics.SetSyncInProgress(true)
			s.stateListeners.notify(true)
		}
		s.setState(SyncSyncing)

		url := s.PlaylistURL(ctx)
		logging.SyncAttempt(s.logger, url, attempt)
		start := s.now()

		result, err := s.attempt(ctx, url, attempt)
		if err == nil {
			elapsed := s.now().Sub(start)
			if result.persistErr != nil {
				metrics.RecordSyncFailure(string(KindPersistence))
				s.logger.Warn("Failed to persist catalog",
					"event", logging.EventSyncFailed,
					"kind", KindPersistence,
					"attempt", attempt,
					"error", result.persistErr.Error(),
				)
			}
			metrics.RecordSyncSuccess(elapsed)
			logging.SyncSucceeded(s.logger, attempt, result.channels, result.changed, elapsed)
			return
		}

		kind := string(KindFetch)
		var syncErr *SyncError
		if errors.As(err, &syncErr) {
			kind = string(syncErr.Kind)
		}
		metrics.RecordSyncFailure(kind)

		if ctx.Err() != nil {
			return
		}

		stale := s.isStale(ctx)
		logging.SyncFailed(s.logger, kind, attempt, err, stale, s.retryDelay)
		if !stale {
			return
		}

		s.setState(SyncRetryWaiting)
		timer := time.NewTimer(s.retryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// attempt runs one fetch, parse, compare, persist and notify cycle.
func (s *PlaylistSyncService) attempt(ctx context.Context, url string, n int) (attemptResult, error) {
	text, err := s.source.Fetch(ctx, url)
	if err != nil {
		return attemptResult{}, &SyncError{Kind: KindFetch, Attempt: n, Err: err}
	}

	cat := playlist.Parse(text)
	canonical, err := cat.MarshalCanonical()
	if err != nil {
		return attemptResult{}, &SyncError{Kind: KindParse, Attempt: n, Err: err}
	}

	result := attemptResult{channels: cat.Len()}

	previous, _ := s.store.Read(ctx)
	if string(canonical) != previous {
		result.changed = true
		if err := s.store.Write(ctx, string(canonical)); err != nil {
			result.persistErr = err
		}

		s.mu.Lock()
		s.catalog = cat
		s.mu.Unlock()
		metrics.RecordPlaylistChange(cat.Len())
		s.changeListeners.notify(cat)
	}

	now := s.now()
	if err := s.store.SetLastUpdate(ctx, now.UnixMilli()); err != nil {
		result.persistErr = errors.Join(result.persistErr, err)
	}
	metrics.SetLastSync(now)

	return result, nil
}

func (s *PlaylistSyncService) isStale(ctx context.Context) bool {
	return s.now().UnixMilli()-s.store.LastUpdate(ctx) > s.ttl.Milliseconds()
}

func (s *PlaylistSyncService) setState(state SyncState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}
