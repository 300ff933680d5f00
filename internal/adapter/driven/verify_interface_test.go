package driven

import (
	port "github.com/alorle/iptv-player/internal/port/driven"
)

// Compile-time check that PlaylistHTTPSource implements PlaylistSource interface
var _ port.PlaylistSource = (*PlaylistHTTPSource)(nil)

// Compile-time check that PlaylistStore implements PlaylistStore interface
var _ port.PlaylistStore = (*PlaylistStore)(nil)

// Compile-time check that SettingsBoltDBRepository implements SettingsRepository interface
var _ port.SettingsRepository = (*SettingsBoltDBRepository)(nil)

// Compile-time check that CDPSurface implements Surface interface
var _ port.Surface = (*CDPSurface)(nil)
