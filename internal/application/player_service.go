package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/alorle/iptv-player/internal/channel"
	"github.com/alorle/iptv-player/internal/playlist"
	"github.com/alorle/iptv-player/internal/port/driven"
)

// Player errors
var (
	ErrChannelNotFound = errors.New("channel not found")
	ErrNoPlayableURL   = errors.New("channel has no playable url")
)

// CatalogProvider returns the current channel catalog.
type CatalogProvider interface {
	Catalog() *playlist.Catalog
}

// PlayerService controls what the rendering surface shows.
type PlayerService struct {
	surface  driven.Surface
	catalog  CatalogProvider
	settings driven.SettingsRepository
	logger   *slog.Logger

	mu      sync.Mutex
	current channel.Channel
	url     string
}

// NewPlayerService creates a new player service. surface may be nil when no
// rendering surface is attached, in which case playback calls fail with
// driven.ErrSurfaceClosed.
func NewPlayerService(surface driven.Surface, catalog CatalogProvider, settings driven.SettingsRepository, logger *slog.Logger) *PlayerService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PlayerService{
		surface:  surface,
		catalog:  catalog,
		settings: settings,
		logger:   logger,
	}
}

// Play loads the first playable URL of the named channel.
func (s *PlayerService) Play(ctx context.Context, name string) (channel.Channel, error) {
	ch, ok := s.catalog.Catalog().Channel(name)
	if !ok {
		return channel.Channel{}, fmt.Errorf("%w: %s", ErrChannelNotFound, name)
	}
	if err := s.PlayChannel(ctx, ch); err != nil {
		return channel.Channel{}, err
	}
	return ch, nil
}

// PlayChannel loads the first playable URL of ch.
func (s *PlayerService) PlayChannel(ctx context.Context, ch channel.Channel) error {
	url := ch.URL()
	if url == "" {
		return fmt.Errorf("%w: %s", ErrNoPlayableURL, ch.Name())
	}
	if s.surface == nil {
		return driven.ErrSurfaceClosed
	}
	if err := s.surface.LoadURL(ctx, url); err != nil {
		return fmt.Errorf("loading %s: %w", ch.Name(), err)
	}

	s.mu.Lock()
	s.current = ch
	s.url = url
	s.mu.Unlock()

	s.logger.Info("Playing channel", "channel", ch.Name(), "group", ch.GroupName(), "url", url)
	return nil
}

// Stop clears the surface.
func (s *PlayerService) Stop(ctx context.Context) error {
	if s.surface == nil {
		return driven.ErrSurfaceClosed
	}
	if err := s.surface.LoadURL(ctx, driven.BlankURL); err != nil {
		return fmt.Errorf("stopping playback: %w", err)
	}

	s.mu.Lock()
	s.current = channel.Channel{}
	s.url = ""
	s.mu.Unlock()
	return nil
}

// Refresh reloads the current channel. It does nothing when stopped.
func (s *PlayerService) Refresh(ctx context.Context) error {
	s.mu.Lock()
	url := s.url
	s.mu.Unlock()

	if url == "" {
		return nil
	}
	if s.surface == nil {
		return driven.ErrSurfaceClosed
	}
	if err := s.surface.LoadURL(ctx, url); err != nil {
		return fmt.Errorf("reloading %s: %w", url, err)
	}
	return nil
}

// Current returns the playing channel and whether one is playing.
func (s *PlayerService) Current() (channel.Channel, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.url != ""
}

// TouchThroughEnabled reports whether touch input goes straight to the page.
func (s *PlayerService) TouchThroughEnabled(ctx context.Context) (bool, error) {
	enabled, err := s.settings.TouchThroughEnabled(ctx)
	if err != nil {
		return false, fmt.Errorf("reading touch-through setting: %w", err)
	}
	return enabled, nil
}

// SetTouchThroughEnabled stores the touch-through flag.
func (s *PlayerService) SetTouchThroughEnabled(ctx context.Context, enabled bool) error {
	if err := s.settings.SetTouchThroughEnabled(ctx, enabled); err != nil {
		return fmt.Errorf("saving touch-through setting: %w", err)
	}
	return nil
}
