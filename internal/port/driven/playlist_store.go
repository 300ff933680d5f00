package driven

import "context"

// PlaylistStore defines the interface for durable persistence of the latest
// known-good catalog snapshot and its sync metadata.
// The store is single-writer: only the sync engine writes to it.
type PlaylistStore interface {
	// Read returns the persisted canonical catalog text. The second result is
	// false when nothing was ever written or the snapshot cannot be read;
	// callers treat that as a cache miss.
	Read(ctx context.Context) (string, bool)

	// Write persists the canonical catalog text. It returns only once the
	// text is durable; a later Read never observes a partial write.
	Write(ctx context.Context, text string) error

	// LastUpdate returns the epoch-millis time of the last successful sync,
	// or 0 if unknown.
	LastUpdate(ctx context.Context) int64

	// SetLastUpdate records the epoch-millis time of the last successful sync.
	// Setting 0 marks the snapshot as stale.
	SetLastUpdate(ctx context.Context, epochMillis int64) error

	// PlaylistURL returns the persisted remote playlist URL, or "" if unset.
	PlaylistURL(ctx context.Context) string

	// SetPlaylistURL persists the remote playlist URL.
	SetPlaylistURL(ctx context.Context, url string) error
}
