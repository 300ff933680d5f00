package driver

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alorle/iptv-player/internal/application"
	"github.com/alorle/iptv-player/internal/playlist"
	"github.com/alorle/iptv-player/logging"
)

func newTestSettingsHandler(settings *mockSettingsRepository) *SettingsHTTPHandler {
	svc := application.NewPlayerService(&mockSurface{}, staticCatalog{playlist.Empty()}, settings, logging.Discard())
	return NewSettingsHTTPHandler(svc, logging.Discard())
}

func TestSettingsHTTPHandler_TouchThrough(t *testing.T) {
	t.Run("GET returns default false", func(t *testing.T) {
		handler := newTestSettingsHandler(&mockSettingsRepository{})

		req := httptest.NewRequest(http.MethodGet, "/api/settings/touch-through", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		if body := strings.TrimSpace(rec.Body.String()); body != `{"enabled":false}` {
			t.Errorf("unexpected body %s", body)
		}
	})

	t.Run("PUT stores the flag", func(t *testing.T) {
		settings := &mockSettingsRepository{}
		handler := newTestSettingsHandler(settings)

		req := httptest.NewRequest(http.MethodPut, "/api/settings/touch-through", strings.NewReader(`{"enabled":true}`))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		if !settings.touchThrough {
			t.Error("expected touch-through to be stored")
		}
	})

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		err        error
		wantStatus int
	}{
		{"PUT without flag", http.MethodPut, "/api/settings/touch-through", `{}`, nil, http.StatusBadRequest},
		{"PUT invalid json", http.MethodPut, "/api/settings/touch-through", `{`, nil, http.StatusBadRequest},
		{"PUT repository failure", http.MethodPut, "/api/settings/touch-through", `{"enabled":true}`, errors.New("db closed"), http.StatusInternalServerError},
		{"GET repository failure", http.MethodGet, "/api/settings/touch-through", "", errors.New("db closed"), http.StatusInternalServerError},
		{"DELETE not allowed", http.MethodDelete, "/api/settings/touch-through", "", nil, http.StatusMethodNotAllowed},
		{"unknown setting", http.MethodGet, "/api/settings/volume", "", nil, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newTestSettingsHandler(&mockSettingsRepository{err: tt.err})

			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}
}
