package application

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/alorle/iptv-player/internal/port/driven"
	"github.com/alorle/iptv-player/internal/site"
	"github.com/alorle/iptv-player/logging"
	"github.com/alorle/iptv-player/metrics"
)

// DefaultActivationTimeout bounds one script injection plus fullscreen request.
const DefaultActivationTimeout = 5 * time.Second

// Activation steps reported in ActivationResult.Step.
const (
	StepScript     = "script"
	StepFullscreen = "fullscreen"
)

// ActivationResult is the outcome of activating a site adapter for one
// navigation.
type ActivationResult struct {
	NavigationID string
	URL          string
	Adapter      string
	Protocol     site.ProtocolKind
	// Skipped is true when the navigation was already activated.
	Skipped bool
	// Step names the failing step when Err is set.
	Step string
	Err  error
}

// OK reports whether the activation completed without error.
func (r ActivationResult) OK() bool {
	return r.Err == nil
}

// FullscreenService drives the site adapters from surface events: when a page
// finishes loading it injects the adapter's script and enters fullscreen, once
// per navigation. It also relays playback state events to subscribers.
type FullscreenService struct {
	registry *site.Registry
	surface  driven.Surface
	timeout  time.Duration
	logger   *slog.Logger

	mu        sync.Mutex
	lastNavID string
	current   site.Adapter

	waitingListeners    listeners[bool]
	fullscreenListeners listeners[bool]
	ratioListeners      listeners[driven.VideoRatio]
}

// NewFullscreenService creates a new fullscreen activation service.
// A zero timeout falls back to DefaultActivationTimeout.
func NewFullscreenService(registry *site.Registry, surface driven.Surface, timeout time.Duration, logger *slog.Logger) *FullscreenService {
	if timeout <= 0 {
		timeout = DefaultActivationTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FullscreenService{
		registry: registry,
		surface:  surface,
		timeout:  timeout,
		logger:   logger,
		current:  registry.Resolve(""),
	}
}

// OnWaitingChange registers fn to receive buffering state changes of pages
// whose adapter monitors play state. The returned function unregisters it.
func (s *FullscreenService) OnWaitingChange(fn func(bool)) func() {
	return s.waitingListeners.add(fn)
}

// OnFullscreenChange registers fn to receive fullscreen state changes.
// The returned function unregisters it.
func (s *FullscreenService) OnFullscreenChange(fn func(bool)) func() {
	return s.fullscreenListeners.add(fn)
}

// OnRatioChange registers fn to receive video ratio changes.
// The returned function unregisters it.
func (s *FullscreenService) OnRatioChange(fn func(driven.VideoRatio)) func() {
	return s.ratioListeners.add(fn)
}

// CurrentAdapter returns the adapter resolved for the last finished page.
func (s *FullscreenService) CurrentAdapter() site.Adapter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Activate resolves the adapter for nav, injects its script and runs its
// fullscreen protocol. A navigation that was already activated is skipped.
// A script failure does not prevent the fullscreen attempt.
func (s *FullscreenService) Activate(ctx context.Context, nav driven.Navigation) ActivationResult {
	adapter := s.registry.Resolve(nav.URL)
	result := ActivationResult{
		NavigationID: nav.ID,
		URL:          nav.URL,
		Adapter:      adapter.Name,
		Protocol:     adapter.ProtocolKind(),
	}

	s.mu.Lock()
	s.current = adapter
	if nav.ID != "" && nav.ID == s.lastNavID {
		s.mu.Unlock()
		result.Skipped = true
		return result
	}
	s.lastNavID = nav.ID
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if script := adapter.InjectedScript(); script != "" {
		if err := s.surface.EvaluateScript(ctx, script); err != nil {
			result.Step = StepScript
			result.Err = err
		}
	}

	if err := adapter.EnterFullscreen(ctx, s.surface); err != nil {
		result.Step = StepFullscreen
		result.Err = errors.Join(result.Err, err)
	}

	return result
}

// OnPageFinished implements driven.SurfaceListener. Activation failures are
// logged and counted, never returned.
func (s *FullscreenService) OnPageFinished(nav driven.Navigation) {
	result := s.Activate(context.Background(), nav)
	if result.Skipped {
		return
	}

	metrics.RecordActivation(result.Adapter, result.OK())
	if !result.OK() {
		logging.ActivationFailed(s.logger, result.Adapter, result.URL, result.Step, result.Err)
		return
	}
	s.logger.Debug("Fullscreen activated",
		"adapter", result.Adapter,
		"protocol", result.Protocol,
		"url", result.URL,
	)
}

// OnFullscreenStateChanged implements driven.SurfaceListener.
func (s *FullscreenService) OnFullscreenStateChanged(fullscreen bool) {
	s.fullscreenListeners.notify(fullscreen)
}

// OnWaitingStateChanged implements driven.SurfaceListener. Events are dropped
// for pages whose adapter disables the play-state check.
func (s *FullscreenService) OnWaitingStateChanged(waiting bool) {
	if !s.CurrentAdapter().PlayStateCheckEnabled() {
		return
	}
	s.waitingListeners.notify(waiting)
}

// OnVideoRatioChanged implements driven.SurfaceListener.
func (s *FullscreenService) OnVideoRatioChanged(ratio driven.VideoRatio) {
	s.ratioListeners.notify(ratio)
}
