package driven

import (
	"context"
	"errors"
)

// Rendering surface errors.
var (
	ErrElementNotFound = errors.New("element not found")
	ErrSurfaceClosed   = errors.New("surface closed")
)

// BlankURL is loaded to clear the surface.
const BlankURL = "about:blank"

// KeyEvent describes a synthetic key press dispatched to a page.
type KeyEvent struct {
	Key     string // DOM KeyboardEvent.key, e.g. "f"
	Code    string // DOM KeyboardEvent.code, e.g. "KeyF"
	KeyCode int    // legacy keyCode, e.g. 70
}

// Navigation identifies one completed page load. ID is unique per navigation,
// so repeated load events for the same navigation share it.
type Navigation struct {
	ID  string
	URL string
}

// VideoRatio is the aspect ratio the surface renders video at.
type VideoRatio int

// Supported video ratios.
const (
	Ratio16x9 VideoRatio = iota
	Ratio4x3
)

// String returns the string representation of a VideoRatio.
func (r VideoRatio) String() string {
	switch r {
	case Ratio16x9:
		return "16:9"
	case Ratio4x3:
		return "4:3"
	default:
		return "unknown"
	}
}

// Surface defines the embeddable browser the player renders pages in.
// This is a driven port implemented by concrete adapters (e.g., a CDP client).
type Surface interface {
	// LoadURL navigates the surface to url.
	LoadURL(ctx context.Context, url string) error

	// EvaluateScript runs script in the context of the current page.
	EvaluateScript(ctx context.Context, script string) error

	// RequestElementFullscreen asks the first element matching selector to
	// enter native fullscreen. Returns ErrElementNotFound if nothing matches.
	RequestElementFullscreen(ctx context.Context, selector string) error

	// DispatchKey sends a key-down followed by a key-up to the page.
	DispatchKey(ctx context.Context, key KeyEvent) error

	// SetVideoRatio changes the aspect ratio video is rendered at.
	SetVideoRatio(ctx context.Context, ratio VideoRatio) error
}

// SurfaceListener receives events from a Surface. Events are delivered one at
// a time from the surface's event-delivery goroutine.
type SurfaceListener interface {
	OnPageFinished(nav Navigation)
	OnFullscreenStateChanged(fullscreen bool)
	OnWaitingStateChanged(waiting bool)
	OnVideoRatioChanged(ratio VideoRatio)
}
