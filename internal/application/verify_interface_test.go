package application

import (
	"github.com/alorle/iptv-player/internal/port/driven"
)

// Compile-time check that FullscreenService implements SurfaceListener interface
var _ driven.SurfaceListener = (*FullscreenService)(nil)

// Compile-time check that PlaylistSyncService implements CatalogProvider interface
var _ CatalogProvider = (*PlaylistSyncService)(nil)
