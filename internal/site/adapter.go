// Package site describes how to enter fullscreen playback on the streaming
// websites the player renders. Each site is an Adapter record: a URL
// predicate, an optional script injected after load, and an activation
// protocol. A Registry resolves a URL to exactly one adapter.
package site

import (
	"context"
	"strings"

	"github.com/alorle/iptv-player/internal/port/driven"
)

// ProtocolKind names an activation protocol.
type ProtocolKind string

// Activation protocol kinds.
const (
	KindNoOp      ProtocolKind = "noop"
	KindDOMTarget ProtocolKind = "dom-target"
	KindKeyPress  ProtocolKind = "key-press"
)

// Well-known keys.
var (
	KeyF     = driven.KeyEvent{Key: "f", Code: "KeyF", KeyCode: 70}
	KeyEnter = driven.KeyEvent{Key: "Enter", Code: "Enter", KeyCode: 13}

	// DefaultFullscreenKey is pressed by KeyPress when no key is given.
	// It is the remote-control OK button most players bind to toggle fullscreen.
	DefaultFullscreenKey = KeyEnter
)

// Protocol is the mechanism an adapter uses to put the page's player in
// fullscreen.
type Protocol interface {
	Kind() ProtocolKind
	EnterFullscreen(ctx context.Context, surface driven.Surface) error
}

// NoOp never activates anything. Used for browser-internal and debug pages.
type NoOp struct{}

// Kind implements Protocol.
func (NoOp) Kind() ProtocolKind { return KindNoOp }

// EnterFullscreen implements Protocol.
func (NoOp) EnterFullscreen(context.Context, driven.Surface) error { return nil }

// DOMTarget requests native fullscreen on the element matching Selector.
type DOMTarget struct {
	Selector string
}

// Kind implements Protocol.
func (DOMTarget) Kind() ProtocolKind { return KindDOMTarget }

// EnterFullscreen implements Protocol.
func (p DOMTarget) EnterFullscreen(ctx context.Context, surface driven.Surface) error {
	return surface.RequestElementFullscreen(ctx, p.Selector)
}

// KeyPress simulates a key press on the page. A zero Key means
// DefaultFullscreenKey.
type KeyPress struct {
	Key driven.KeyEvent
}

// Kind implements Protocol.
func (KeyPress) Kind() ProtocolKind { return KindKeyPress }

// EnterFullscreen implements Protocol.
func (p KeyPress) EnterFullscreen(ctx context.Context, surface driven.Surface) error {
	key := p.Key
	if key == (driven.KeyEvent{}) {
		key = DefaultFullscreenKey
	}
	return surface.DispatchKey(ctx, key)
}

// Matcher reports whether an adapter handles url.
type Matcher func(url string) bool

// Contains matches URLs containing any of subs. Matching is case-sensitive.
func Contains(subs ...string) Matcher {
	return func(url string) bool {
		for _, s := range subs {
			if strings.Contains(url, s) {
				return true
			}
		}
		return false
	}
}

// HasPrefix matches URLs starting with any of prefixes.
func HasPrefix(prefixes ...string) Matcher {
	return func(url string) bool {
		for _, p := range prefixes {
			if strings.HasPrefix(url, p) {
				return true
			}
		}
		return false
	}
}

// Any matches every URL.
func Any() Matcher {
	return func(string) bool { return true }
}

// Adapter is the static description of one site. Adapters are never mutated
// after construction and are safe to share.
type Adapter struct {
	Name     string
	Match    Matcher
	Script   string
	Protocol Protocol

	// DisablePlayStateCheck turns off play/stall monitoring for sites whose
	// player does not report reliable state.
	DisablePlayStateCheck bool
}

// IsAdaptedURL reports whether the adapter handles url.
func (a Adapter) IsAdaptedURL(url string) bool {
	return a.Match != nil && a.Match(url)
}

// InjectedScript returns the script to run after load, "" for none.
func (a Adapter) InjectedScript() string {
	return a.Script
}

// PlayStateCheckEnabled reports whether play/stall state should be monitored.
func (a Adapter) PlayStateCheckEnabled() bool {
	return !a.DisablePlayStateCheck
}

// ProtocolKind returns the kind of the adapter's activation protocol.
func (a Adapter) ProtocolKind() ProtocolKind {
	if a.Protocol == nil {
		return KindNoOp
	}
	return a.Protocol.Kind()
}

// EnterFullscreen runs the adapter's activation protocol against surface.
func (a Adapter) EnterFullscreen(ctx context.Context, surface driven.Surface) error {
	if a.Protocol == nil {
		return nil
	}
	return a.Protocol.EnterFullscreen(ctx, surface)
}
