package driven

import (
	"context"
	"errors"
)

// ErrSettingNotFound is returned when a setting was never written.
var ErrSettingNotFound = errors.New("setting not found")

// SettingsRepository defines the interface for scalar application settings.
// This is a driven port that will be implemented by concrete adapters (e.g., BoltDB).
type SettingsRepository interface {
	// PlaylistURL returns the configured remote playlist URL.
	// Returns ErrSettingNotFound if it was never set.
	PlaylistURL(ctx context.Context) (string, error)

	// SetPlaylistURL stores the remote playlist URL.
	SetPlaylistURL(ctx context.Context, url string) error

	// LastUpdate returns the epoch-millis time of the last successful sync.
	// Returns ErrSettingNotFound if it was never set.
	LastUpdate(ctx context.Context) (int64, error)

	// SetLastUpdate stores the epoch-millis time of the last successful sync.
	SetLastUpdate(ctx context.Context, epochMillis int64) error

	// TouchThroughEnabled reports whether touch input goes straight to the
	// rendering surface. Defaults to false when never set.
	TouchThroughEnabled(ctx context.Context) (bool, error)

	// SetTouchThroughEnabled stores the touch-through flag.
	SetTouchThroughEnabled(ctx context.Context, enabled bool) error

	// Ping checks if the repository (database) is accessible and operational.
	Ping(ctx context.Context) error
}
