package application

import (
	"context"

	"github.com/alorle/iptv-player/internal/port/driven"
	"github.com/alorle/iptv-player/metrics"
)

// SurfaceStatus reports whether the rendering surface is attached.
type SurfaceStatus interface {
	Connected() bool
}

// HealthService orchestrates health checks for the application and its dependencies.
type HealthService struct {
	db      driven.SettingsRepository
	surface SurfaceStatus
}

// NewHealthService creates a new health check service.
// surface may be nil when the player runs without a rendering surface.
func NewHealthService(db driven.SettingsRepository, surface SurfaceStatus) *HealthService {
	return &HealthService{
		db:      db,
		surface: surface,
	}
}

// ComponentHealth represents the health status of a single component.
type ComponentHealth struct {
	Status string // "ok", "error" or "disabled"
	Error  string // empty unless status is "error"
}

// HealthStatus represents the overall health status of the application.
type HealthStatus struct {
	Status  string          // "ok" if all components are healthy, "degraded" otherwise
	DB      ComponentHealth // settings database health
	Surface ComponentHealth // rendering surface health
}

// Check performs health checks on all dependencies.
// Returns the overall health status and individual component statuses.
func (s *HealthService) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status: "ok",
	}

	if err := s.db.Ping(ctx); err != nil {
		status.DB = ComponentHealth{
			Status: "error",
			Error:  err.Error(),
		}
		status.Status = "degraded"
	} else {
		status.DB = ComponentHealth{
			Status: "ok",
		}
	}

	switch {
	case s.surface == nil:
		status.Surface = ComponentHealth{Status: "disabled"}
	case s.surface.Connected():
		status.Surface = ComponentHealth{Status: "ok"}
	default:
		status.Surface = ComponentHealth{
			Status: "error",
			Error:  driven.ErrSurfaceClosed.Error(),
		}
		status.Status = "degraded"
	}

	if status.Status != "ok" {
		metrics.RecordHealthCheckFailure()
	}

	return status
}
