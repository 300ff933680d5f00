package driver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alorle/iptv-player/internal/application"
	"github.com/alorle/iptv-player/logging"
)

type fakeSurfaceStatus bool

func (f fakeSurfaceStatus) Connected() bool {
	return bool(f)
}

func TestHealthHTTPHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name        string
		pingErr     error
		surface     application.SurfaceStatus
		wantCode    int
		wantStatus  string
		wantDB      string
		wantSurface string
	}{
		{"all healthy", nil, fakeSurfaceStatus(true), http.StatusOK, "ok", "ok", "ok"},
		{"headless", nil, nil, http.StatusOK, "ok", "ok", "disabled"},
		{"database unavailable", errors.New("database connection failed"), fakeSurfaceStatus(true), http.StatusServiceUnavailable, "degraded", "error", "ok"},
		{"surface disconnected", nil, fakeSurfaceStatus(false), http.StatusServiceUnavailable, "degraded", "ok", "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := &mockSettingsRepository{
				pingFunc: func(ctx context.Context) error { return tt.pingErr },
			}
			service := application.NewHealthService(db, tt.surface)
			handler := NewHealthHTTPHandler(service, logging.Discard())

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Errorf("expected status %d, got %d", tt.wantCode, rec.Code)
			}

			var resp healthResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Status != tt.wantStatus {
				t.Errorf("expected status %q, got %q", tt.wantStatus, resp.Status)
			}
			if resp.DB != tt.wantDB {
				t.Errorf("expected db %q, got %q", tt.wantDB, resp.DB)
			}
			if resp.Surface != tt.wantSurface {
				t.Errorf("expected surface %q, got %q", tt.wantSurface, resp.Surface)
			}
		})
	}

	t.Run("POST /health returns 405", func(t *testing.T) {
		service := application.NewHealthService(&mockSettingsRepository{}, nil)
		handler := NewHealthHTTPHandler(service, logging.Discard())

		req := httptest.NewRequest(http.MethodPost, "/health", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected status 405, got %d", rec.Code)
		}
	})
}
