package application

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alorle/iptv-player/internal/playlist"
	"github.com/alorle/iptv-player/logging"
)

const samplePlaylist = "China,#genre#\nCCTV-1,http://a/x\nCCTV-1,http://a/y\nNews,#genre#\nVOA,http://b/z\n"

// mockPlaylistSource is a mock implementation of driven.PlaylistSource for testing.
type mockPlaylistSource struct {
	fetchFunc func(ctx context.Context, url string) (string, error)
	calls     atomic.Int32

	mu   sync.Mutex
	urls []string
}

func (m *mockPlaylistSource) Fetch(ctx context.Context, url string) (string, error) {
	m.calls.Add(1)
	m.mu.Lock()
	m.urls = append(m.urls, url)
	m.mu.Unlock()
	if m.fetchFunc != nil {
		return m.fetchFunc(ctx, url)
	}
	return samplePlaylist, nil
}

func (m *mockPlaylistSource) fetchedURLs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.urls...)
}

// memPlaylistStore is an in-memory implementation of driven.PlaylistStore for testing.
type memPlaylistStore struct {
	mu         sync.Mutex
	text       string
	hasText    bool
	lastUpdate int64
	url        string
	writes     int
	writeErr   error
}

func (m *memPlaylistStore) Read(ctx context.Context) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text, m.hasText
}

func (m *memPlaylistStore) Write(ctx context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	if m.writeErr != nil {
		return m.writeErr
	}
	m.text = text
	m.hasText = true
	return nil
}

func (m *memPlaylistStore) LastUpdate(ctx context.Context) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastUpdate
}

func (m *memPlaylistStore) SetLastUpdate(ctx context.Context, epochMillis int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastUpdate = epochMillis
	return nil
}

func (m *memPlaylistStore) PlaylistURL(ctx context.Context) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.url
}

func (m *memPlaylistStore) SetPlaylistURL(ctx context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.url = url
	return nil
}

func (m *memPlaylistStore) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

func newTestSyncService(t *testing.T, source *mockPlaylistSource, store *memPlaylistStore, retryDelay time.Duration) *PlaylistSyncService {
	t.Helper()
	svc := NewPlaylistSyncService(source, store, PlaylistSyncConfig{
		URL:        "http://example.com/list.txt",
		TTL:        time.Hour,
		RetryDelay: retryDelay,
	}, logging.Discard())
	t.Cleanup(svc.Close)
	return svc
}

func staleMillis() int64 {
	return time.Now().Add(-2 * time.Hour).UnixMilli()
}

func canonicalText(t *testing.T, raw string) string {
	t.Helper()
	data, err := playlist.Parse(raw).MarshalCanonical()
	if err != nil {
		t.Fatalf("MarshalCanonical() error = %v", err)
	}
	return string(data)
}

func TestSyncState_String(t *testing.T) {
	tests := []struct {
		state SyncState
		want  string
	}{
		{SyncIdle, "idle"},
		{SyncSyncing, "syncing"},
		{SyncRetryWaiting, "retry_waiting"},
		{SyncState(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("SyncState(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestSyncError(t *testing.T) {
	cause := errors.New("connection refused")
	err := error(&SyncError{Kind: KindFetch, Attempt: 2, Err: cause})

	if !errors.Is(err, cause) {
		t.Error("expected SyncError to unwrap to its cause")
	}
	if got := err.Error(); got != "fetch failed on attempt 2: connection refused" {
		t.Errorf("Error() = %q", got)
	}
}

func TestPlaylistSyncService_Staleness(t *testing.T) {
	t.Run("fresh catalog does not fetch", func(t *testing.T) {
		source := &mockPlaylistSource{}
		store := &memPlaylistStore{lastUpdate: time.Now().UnixMilli()}
		svc := newTestSyncService(t, source, store, time.Millisecond)

		var transitions []bool
		svc.OnSyncStateChange(func(syncing bool) { transitions = append(transitions, syncing) })

		if !svc.RequestSync() {
			t.Fatal("expected RequestSync to start a sequence")
		}
		svc.Wait()

		if got := source.calls.Load(); got != 0 {
			t.Errorf("expected no fetch, got %d", got)
		}
		if len(transitions) != 0 {
			t.Errorf("expected no sync state transitions, got %v", transitions)
		}
		if svc.State() != SyncIdle {
			t.Errorf("expected idle state, got %s", svc.State())
		}
	})

	t.Run("stale catalog fetches once", func(t *testing.T) {
		source := &mockPlaylistSource{}
		store := &memPlaylistStore{lastUpdate: staleMillis()}
		svc := newTestSyncService(t, source, store, time.Millisecond)

		var transitions []bool
		svc.OnSyncStateChange(func(syncing bool) { transitions = append(transitions, syncing) })

		before := time.Now().UnixMilli()
		svc.RequestSync()
		svc.Wait()

		if got := source.calls.Load(); got != 1 {
			t.Errorf("expected 1 fetch, got %d", got)
		}
		if store.LastUpdate(context.Background()) < before {
			t.Error("expected last update to advance")
		}
		if len(transitions) != 2 || !transitions[0] || transitions[1] {
			t.Errorf("expected [true false], got %v", transitions)
		}
		if svc.IsSyncing() {
			t.Error("expected IsSyncing to be false after the sequence")
		}
	})

	t.Run("never synced counts as stale", func(t *testing.T) {
		source := &mockPlaylistSource{}
		svc := newTestSyncService(t, source, &memPlaylistStore{}, time.Millisecond)

		svc.RequestSync()
		svc.Wait()

		if got := source.calls.Load(); got != 1 {
			t.Errorf("expected 1 fetch, got %d", got)
		}
	})
}

func TestPlaylistSyncService_SingleFlight(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	source := &mockPlaylistSource{
		fetchFunc: func(ctx context.Context, url string) (string, error) {
			started <- struct{}{}
			<-release
			return samplePlaylist, nil
		},
	}
	store := &memPlaylistStore{}
	svc := newTestSyncService(t, source, store, time.Millisecond)

	if !svc.RequestSync() {
		t.Fatal("expected first request to start a sequence")
	}
	<-started

	if !svc.IsSyncing() {
		t.Error("expected IsSyncing while fetching")
	}
	if svc.State() != SyncSyncing {
		t.Errorf("expected syncing state, got %s", svc.State())
	}
	for i := 0; i < 3; i++ {
		if svc.RequestSync() {
			t.Error("expected concurrent request to be rejected")
		}
	}

	close(release)
	svc.Wait()

	if got := source.calls.Load(); got != 1 {
		t.Errorf("expected 1 fetch, got %d", got)
	}

	// The catalog is fresh now, so a new sequence starts but does not fetch.
	if !svc.RequestSync() {
		t.Fatal("expected request after completion to be accepted")
	}
	svc.Wait()
	if got := source.calls.Load(); got != 1 {
		t.Errorf("expected still 1 fetch, got %d", got)
	}
}

func TestPlaylistSyncService_ChangeDetection(t *testing.T) {
	t.Run("new content is written and announced", func(t *testing.T) {
		source := &mockPlaylistSource{}
		store := &memPlaylistStore{}
		svc := newTestSyncService(t, source, store, time.Millisecond)

		var got []*playlist.Catalog
		svc.OnPlaylistChange(func(c *playlist.Catalog) { got = append(got, c) })

		svc.RequestSync()
		svc.Wait()

		if store.writeCount() != 1 {
			t.Errorf("expected 1 write, got %d", store.writeCount())
		}
		if text, _ := store.Read(context.Background()); text != canonicalText(t, samplePlaylist) {
			t.Errorf("persisted text is not canonical: %s", text)
		}
		if len(got) != 1 {
			t.Fatalf("expected 1 change notification, got %d", len(got))
		}
		if got[0].Len() != 2 {
			t.Errorf("expected 2 channels, got %d", got[0].Len())
		}
		if svc.Catalog() != got[0] {
			t.Error("expected Catalog() to return the announced catalog")
		}
	})

	t.Run("identical content is not rewritten but last update advances", func(t *testing.T) {
		source := &mockPlaylistSource{}
		store := &memPlaylistStore{
			text:       canonicalText(t, samplePlaylist),
			hasText:    true,
			lastUpdate: staleMillis(),
		}
		svc := newTestSyncService(t, source, store, time.Millisecond)

		notified := 0
		svc.OnPlaylistChange(func(*playlist.Catalog) { notified++ })

		before := time.Now().UnixMilli()
		svc.RequestSync()
		svc.Wait()

		if store.writeCount() != 0 {
			t.Errorf("expected no write, got %d", store.writeCount())
		}
		if notified != 0 {
			t.Errorf("expected no change notification, got %d", notified)
		}
		if store.LastUpdate(context.Background()) < before {
			t.Error("expected last update to advance")
		}
	})

	t.Run("differently formatted but equivalent text is not a change", func(t *testing.T) {
		source := &mockPlaylistSource{
			fetchFunc: func(ctx context.Context, url string) (string, error) {
				return "\r\nChina,#genre#\r\n  CCTV-1 , http://a/x \r\nCCTV-1,http://a/y\r\nNews,#genre#\r\nVOA,http://b/z", nil
			},
		}
		store := &memPlaylistStore{text: canonicalText(t, samplePlaylist), hasText: true}
		svc := newTestSyncService(t, source, store, time.Millisecond)

		svc.RequestSync()
		svc.Wait()

		if store.writeCount() != 0 {
			t.Errorf("expected no write, got %d", store.writeCount())
		}
	})

	t.Run("write failure still announces the catalog", func(t *testing.T) {
		source := &mockPlaylistSource{}
		store := &memPlaylistStore{writeErr: errors.New("disk full")}
		svc := newTestSyncService(t, source, store, time.Millisecond)

		notified := 0
		svc.OnPlaylistChange(func(*playlist.Catalog) { notified++ })

		svc.RequestSync()
		svc.Wait()

		if notified != 1 {
			t.Errorf("expected 1 change notification, got %d", notified)
		}
		if got := source.calls.Load(); got != 1 {
			t.Errorf("expected no retry after a persistence failure, got %d fetches", got)
		}
	})

	t.Run("unsubscribed listener is not called", func(t *testing.T) {
		source := &mockPlaylistSource{}
		svc := newTestSyncService(t, source, &memPlaylistStore{}, time.Millisecond)

		notified := 0
		unsubscribe := svc.OnPlaylistChange(func(*playlist.Catalog) { notified++ })
		unsubscribe()
		unsubscribe()

		svc.RequestSync()
		svc.Wait()

		if notified != 0 {
			t.Errorf("expected no notification, got %d", notified)
		}
	})
}

func TestPlaylistSyncService_Retry(t *testing.T) {
	t.Run("retries until success", func(t *testing.T) {
		var failures atomic.Int32
		failures.Store(2)
		source := &mockPlaylistSource{
			fetchFunc: func(ctx context.Context, url string) (string, error) {
				if failures.Add(-1) >= 0 {
					return "", errors.New("connection refused")
				}
				return samplePlaylist, nil
			},
		}
		store := &memPlaylistStore{}
		svc := newTestSyncService(t, source, store, 5*time.Millisecond)

		var transitions []bool
		svc.OnSyncStateChange(func(syncing bool) { transitions = append(transitions, syncing) })

		svc.RequestSync()
		svc.Wait()

		if got := source.calls.Load(); got != 3 {
			t.Errorf("expected 3 fetches, got %d", got)
		}
		if store.writeCount() != 1 {
			t.Errorf("expected 1 write, got %d", store.writeCount())
		}
		if len(transitions) != 2 {
			t.Errorf("expected a single true/false pair across retries, got %v", transitions)
		}
	})

	t.Run("abandons when catalog became fresh", func(t *testing.T) {
		store := &memPlaylistStore{}
		source := &mockPlaylistSource{
			fetchFunc: func(ctx context.Context, url string) (string, error) {
				_ = store.SetLastUpdate(ctx, time.Now().UnixMilli())
				return "", errors.New("timeout")
			},
		}
		svc := newTestSyncService(t, source, store, time.Hour)

		svc.RequestSync()
		svc.Wait()

		if got := source.calls.Load(); got != 1 {
			t.Errorf("expected 1 fetch, got %d", got)
		}
	})

	t.Run("enters retry waiting between attempts", func(t *testing.T) {
		source := &mockPlaylistSource{
			fetchFunc: func(ctx context.Context, url string) (string, error) {
				return "", errors.New("unreachable")
			},
		}
		svc := newTestSyncService(t, source, &memPlaylistStore{}, time.Hour)

		svc.RequestSync()
		deadline := time.Now().Add(2 * time.Second)
		for svc.State() != SyncRetryWaiting {
			if time.Now().After(deadline) {
				t.Fatalf("expected retry waiting state, got %s", svc.State())
			}
			time.Sleep(time.Millisecond)
		}
		if !svc.IsSyncing() {
			t.Error("expected IsSyncing during retry wait")
		}
		if svc.RequestSync() {
			t.Error("expected request during retry wait to be rejected")
		}
	})
}

func TestPlaylistSyncService_Close(t *testing.T) {
	source := &mockPlaylistSource{
		fetchFunc: func(ctx context.Context, url string) (string, error) {
			return "", errors.New("unreachable")
		},
	}
	svc := NewPlaylistSyncService(source, &memPlaylistStore{}, PlaylistSyncConfig{
		URL:        "http://example.com/list.txt",
		RetryDelay: time.Hour,
	}, logging.Discard())

	var transitions []bool
	var mu sync.Mutex
	svc.OnSyncStateChange(func(syncing bool) {
		mu.Lock()
		transitions = append(transitions, syncing)
		mu.Unlock()
	})

	svc.RequestSync()
	deadline := time.Now().Add(2 * time.Second)
	for svc.State() != SyncRetryWaiting {
		if time.Now().After(deadline) {
			t.Fatalf("expected retry waiting state, got %s", svc.State())
		}
		time.Sleep(time.Millisecond)
	}

	closed := make(chan struct{})
	go func() {
		svc.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not cancel the retry wait")
	}

	if svc.RequestSync() {
		t.Error("expected RequestSync after Close to be rejected")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(transitions) != 2 || transitions[1] {
		t.Errorf("expected sequence to report not syncing on exit, got %v", transitions)
	}
}

func TestPlaylistSyncService_LoadCatalog(t *testing.T) {
	t.Run("returns persisted catalog", func(t *testing.T) {
		source := &mockPlaylistSource{}
		store := &memPlaylistStore{
			text:       canonicalText(t, samplePlaylist),
			hasText:    true,
			lastUpdate: time.Now().UnixMilli(),
		}
		svc := newTestSyncService(t, source, store, time.Millisecond)

		cat := svc.LoadCatalog(context.Background())
		svc.Wait()

		if cat.Len() != 2 {
			t.Errorf("expected 2 channels, got %d", cat.Len())
		}
		if svc.Catalog() != cat {
			t.Error("expected Catalog() to return the loaded catalog")
		}
		if got := source.calls.Load(); got != 0 {
			t.Errorf("expected no fetch for a fresh catalog, got %d", got)
		}
	})

	tests := []struct {
		name  string
		store *memPlaylistStore
	}{
		{"missing snapshot", &memPlaylistStore{lastUpdate: time.Now().UnixMilli()}},
		{"corrupt snapshot", &memPlaylistStore{text: "{not json", hasText: true, lastUpdate: time.Now().UnixMilli()}},
		{"null snapshot", &memPlaylistStore{text: "null", hasText: true, lastUpdate: time.Now().UnixMilli()}},
	}
	for _, tt := range tests {
		t.Run(tt.name+" falls back to empty catalog and syncs", func(t *testing.T) {
			source := &mockPlaylistSource{}
			svc := newTestSyncService(t, source, tt.store, time.Millisecond)

			cat := svc.LoadCatalog(context.Background())

			if cat.Len() != 0 {
				t.Errorf("expected empty catalog, got %d channels", cat.Len())
			}
			if cat.Name() != playlist.DefaultName {
				t.Errorf("expected built-in catalog name, got %q", cat.Name())
			}

			svc.Wait()
			if got := source.calls.Load(); got != 1 {
				t.Errorf("expected reset last update to force a fetch, got %d", got)
			}
		})
	}
}

func TestPlaylistSyncService_PlaylistURL(t *testing.T) {
	t.Run("defaults to configured url", func(t *testing.T) {
		svc := newTestSyncService(t, &mockPlaylistSource{}, &memPlaylistStore{}, time.Millisecond)
		if got := svc.PlaylistURL(context.Background()); got != "http://example.com/list.txt" {
			t.Errorf("PlaylistURL() = %q", got)
		}
	})

	t.Run("set url persists, marks stale and syncs from it", func(t *testing.T) {
		source := &mockPlaylistSource{}
		store := &memPlaylistStore{lastUpdate: time.Now().UnixMilli()}
		svc := newTestSyncService(t, source, store, time.Millisecond)

		if err := svc.SetPlaylistURL(context.Background(), "http://mirror/list.txt"); err != nil {
			t.Fatalf("SetPlaylistURL() error = %v", err)
		}
		svc.Wait()

		if got := svc.PlaylistURL(context.Background()); got != "http://mirror/list.txt" {
			t.Errorf("PlaylistURL() = %q", got)
		}
		urls := source.fetchedURLs()
		if len(urls) != 1 || urls[0] != "http://mirror/list.txt" {
			t.Errorf("expected fetch from new url, got %v", urls)
		}
	})
}

func TestPlaylistSyncService_SetLastUpdate(t *testing.T) {
	source := &mockPlaylistSource{}
	store := &memPlaylistStore{lastUpdate: time.Now().UnixMilli()}
	svc := newTestSyncService(t, source, store, time.Millisecond)

	if err := svc.SetLastUpdate(context.Background(), 0, false); err != nil {
		t.Fatalf("SetLastUpdate() error = %v", err)
	}
	svc.Wait()
	if got := source.calls.Load(); got != 0 {
		t.Errorf("expected no sync without request, got %d fetches", got)
	}
	if !svc.LastUpdate(context.Background()).IsZero() {
		t.Error("expected zero last update")
	}

	if err := svc.SetLastUpdate(context.Background(), 0, true); err != nil {
		t.Fatalf("SetLastUpdate() error = %v", err)
	}
	svc.Wait()
	if got := source.calls.Load(); got != 1 {
		t.Errorf("expected 1 fetch, got %d", got)
	}
}

func TestPlaylistSyncService_BuiltInPlaylists(t *testing.T) {
	svc := newTestSyncService(t, &mockPlaylistSource{}, &memPlaylistStore{}, time.Millisecond)
	if got := svc.BuiltInPlaylists(); len(got) != 0 {
		t.Errorf("expected no built-in playlists, got %v", got)
	}

	presets := []PlaylistPreset{{Name: "mirror", URL: "http://mirror/list.txt"}}
	svc = NewPlaylistSyncService(&mockPlaylistSource{}, &memPlaylistStore{}, PlaylistSyncConfig{BuiltIn: presets}, logging.Discard())
	t.Cleanup(svc.Close)

	got := svc.BuiltInPlaylists()
	got[0].Name = "changed"
	if svc.BuiltInPlaylists()[0].Name != "mirror" {
		t.Error("expected BuiltInPlaylists to return a copy")
	}
}
