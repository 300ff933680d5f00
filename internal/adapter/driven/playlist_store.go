package driven

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"

	port "github.com/alorle/iptv-player/internal/port/driven"
)

// PlaylistStore implements the PlaylistStore port by combining a catalog file
// for the snapshot text with the settings repository for sync metadata.
// Read failures are logged and reported as cache misses.
type PlaylistStore struct {
	file     *CatalogFile
	settings port.SettingsRepository
	logger   *slog.Logger
}

// NewPlaylistStore creates a new PlaylistStore.
func NewPlaylistStore(file *CatalogFile, settings port.SettingsRepository, logger *slog.Logger) (*PlaylistStore, error) {
	if file == nil {
		return nil, errors.New("catalog file cannot be nil")
	}
	if settings == nil {
		return nil, errors.New("settings repository cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PlaylistStore{file: file, settings: settings, logger: logger}, nil
}

// Read returns the persisted catalog text, or false if there is none.
func (s *PlaylistStore) Read(ctx context.Context) (string, bool) {
	text, err := s.file.Read(ctx)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("failed to read catalog snapshot", "path", s.file.Path(), "error", err)
		}
		return "", false
	}
	return text, true
}

// Write persists the catalog text.
func (s *PlaylistStore) Write(ctx context.Context, text string) error {
	return s.file.Write(ctx, text)
}

// LastUpdate returns the last successful sync time, or 0 if unknown.
func (s *PlaylistStore) LastUpdate(ctx context.Context) int64 {
	millis, err := s.settings.LastUpdate(ctx)
	if err != nil {
		if !errors.Is(err, port.ErrSettingNotFound) {
			s.logger.Warn("failed to read last update time", "error", err)
		}
		return 0
	}
	return millis
}

// SetLastUpdate records the last successful sync time.
func (s *PlaylistStore) SetLastUpdate(ctx context.Context, epochMillis int64) error {
	return s.settings.SetLastUpdate(ctx, epochMillis)
}

// PlaylistURL returns the persisted playlist URL, or "" if unset.
func (s *PlaylistStore) PlaylistURL(ctx context.Context) string {
	url, err := s.settings.PlaylistURL(ctx)
	if err != nil {
		if !errors.Is(err, port.ErrSettingNotFound) {
			s.logger.Warn("failed to read playlist url", "error", err)
		}
		return ""
	}
	return url
}

// SetPlaylistURL persists the playlist URL.
func (s *PlaylistStore) SetPlaylistURL(ctx context.Context, url string) error {
	return s.settings.SetPlaylistURL(ctx, url)
}
