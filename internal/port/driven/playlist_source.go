package driven

import "context"

// PlaylistSource defines the interface for retrieving raw playlist text from
// a remote location. This is a driven port implemented by concrete adapters
// (e.g., an HTTP client).
type PlaylistSource interface {
	// Fetch retrieves the playlist text found at url. Network failures,
	// timeouts and non-2xx responses are reported as errors.
	Fetch(ctx context.Context, url string) (string, error)
}
