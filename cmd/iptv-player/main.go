package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.etcd.io/bbolt"

	"github.com/alorle/iptv-player/config"
	"github.com/alorle/iptv-player/internal/adapter/driven"
	"github.com/alorle/iptv-player/internal/adapter/driver"
	"github.com/alorle/iptv-player/internal/application"
	"github.com/alorle/iptv-player/internal/playlist"
	port "github.com/alorle/iptv-player/internal/port/driven"
	"github.com/alorle/iptv-player/internal/site"
	"github.com/alorle/iptv-player/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Create structured logger
	logger := logging.New(os.Stdout, logging.ParseLevel(cfg.Log.Level), cfg.Log.Format)
	slog.SetDefault(logger)

	logger.Info("starting iptv-player",
		"playlist_url", cfg.Playlist.URL,
		"playlist_file", cfg.Playlist.File,
		"db_path", cfg.Storage.DBPath,
		"devtools_url", cfg.Surface.DevToolsURL,
		"http_port", cfg.HTTP.Port,
		"log_level", cfg.Log.Level,
	)

	// Open BoltDB
	if err := os.MkdirAll(filepath.Dir(cfg.Storage.DBPath), 0o755); err != nil {
		log.Fatalf("failed to create database directory: %v", err)
	}
	db, err := bbolt.Open(cfg.Storage.DBPath, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("error closing database: %v", err)
		}
	}()

	// Create driven adapters
	settingsRepo, err := driven.NewSettingsBoltDBRepository(db)
	if err != nil {
		log.Fatalf("failed to create settings repository: %v", err)
	}

	catalogFile, err := driven.NewCatalogFile(cfg.Playlist.File)
	if err != nil {
		log.Fatalf("failed to create catalog file: %v", err)
	}

	store, err := driven.NewPlaylistStore(catalogFile, settingsRepo, logger)
	if err != nil {
		log.Fatalf("failed to create playlist store: %v", err)
	}

	source := driven.NewPlaylistHTTPSource(driven.PlaylistHTTPSourceOptions{
		ConnectTimeout: cfg.Fetch.ConnectTimeout,
		ReadTimeout:    cfg.Fetch.ReadTimeout,
		UserAgent:      cfg.Fetch.UserAgent,
	})

	// Create application services
	syncService := application.NewPlaylistSyncService(source, store, application.PlaylistSyncConfig{
		URL:        cfg.Playlist.URL,
		TTL:        cfg.Playlist.TTL,
		RetryDelay: cfg.Playlist.RetryDelay,
	}, logger)
	defer syncService.Close()

	syncService.OnPlaylistChange(func(c *playlist.Catalog) {
		logger.Info("playlist changed", "channels", c.Len(), "groups", len(c.Groups()))
	})
	syncService.OnSyncStateChange(func(syncing bool) {
		logger.Debug("playlist sync state changed", "syncing", syncing)
	})

	catalog := syncService.LoadCatalog(context.Background())
	logger.Info("catalog loaded", "channels", catalog.Len())

	// Attach the rendering surface when configured
	var (
		surface       *driven.CDPSurface
		playerSurface port.Surface
		surfaceStatus application.SurfaceStatus
		surfaceDone   <-chan struct{}
	)
	if cfg.Surface.DevToolsURL != "" {
		surface = driven.NewCDPSurface(cfg.Surface.DevToolsURL, logger)
		fullscreenService := application.NewFullscreenService(site.DefaultRegistry(), surface, cfg.Surface.ActivationTimeout, logger)

		fullscreenService.OnFullscreenChange(func(fullscreen bool) {
			logger.Debug("fullscreen state changed", "fullscreen", fullscreen)
		})
		fullscreenService.OnWaitingChange(func(waiting bool) {
			logger.Debug("playback waiting state changed", "waiting", waiting)
		})
		fullscreenService.OnRatioChange(func(ratio port.VideoRatio) {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.Surface.ActivationTimeout)
			defer cancel()
			if err := surface.SetVideoRatio(ctx, ratio); err != nil {
				logger.Warn("failed to apply video ratio", "ratio", ratio.String(), "error", err)
			}
		})

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := surface.Connect(ctx, fullscreenService)
		cancel()
		if err != nil {
			log.Fatalf("failed to connect to rendering surface: %v", err)
		}
		defer func() {
			if err := surface.Close(); err != nil {
				logger.Warn("error closing rendering surface", "error", err)
			}
		}()

		playerSurface = surface
		surfaceStatus = surface
		surfaceDone = surface.Done()
	}

	playerService := application.NewPlayerService(playerSurface, syncService, settingsRepo, logger)
	healthService := application.NewHealthService(settingsRepo, surfaceStatus)

	if surface != nil {
		startPlayback(playerService, catalog, cfg.Surface.StartChannel, logger)
		syncService.OnPlaylistChange(func(c *playlist.Catalog) {
			if _, playing := playerService.Current(); !playing {
				startPlayback(playerService, c, cfg.Surface.StartChannel, logger)
			}
		})
	}

	// Create HTTP status API
	var server *http.Server
	if cfg.HTTP.Port != "" {
		mux := http.NewServeMux()
		channelHandler := driver.NewChannelHTTPHandler(syncService, logger)
		playlistHandler := driver.NewPlaylistHTTPHandler(syncService, logger)
		playerHandler := driver.NewPlayerHTTPHandler(playerService, logger)
		mux.Handle("/api/channels", channelHandler)
		mux.Handle("/api/channels/", channelHandler)
		mux.Handle("/api/playlist", playlistHandler)
		mux.Handle("/api/playlist/", playlistHandler)
		mux.Handle("/api/player", playerHandler)
		mux.Handle("/api/player/", playerHandler)
		mux.Handle("/api/settings/", driver.NewSettingsHTTPHandler(playerService, logger))
		mux.Handle("/health", driver.NewHealthHTTPHandler(healthService, logger))
		mux.Handle("/metrics", promhttp.Handler())

		server = &http.Server{
			Addr:         net.JoinHostPort(cfg.HTTP.Address, cfg.HTTP.Port),
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		go func() {
			logger.Info("http server listening", "addr", server.Addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatalf("server error: %v", err)
			}
		}()
	}

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigChan:
		logger.Info("shutdown signal received, shutting down gracefully")
	case <-surfaceDone:
		logger.Warn("rendering surface disconnected, shutting down")
	}

	if server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
	}

	logger.Info("player stopped")
}

// startPlayback plays the configured start channel, or the first channel of
// the catalog when none is configured or it is missing.
func startPlayback(player *application.PlayerService, c *playlist.Catalog, name string, logger *slog.Logger) {
	channels := c.Channels()
	if len(channels) == 0 {
		return
	}

	ch, ok := c.Channel(name)
	if !ok {
		ch = channels[0]
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := player.PlayChannel(ctx, ch); err != nil {
		logger.Warn("failed to start playback", "channel", ch.Name(), "error", err)
	}
}
