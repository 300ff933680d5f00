package driver

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/alorle/iptv-player/internal/application"
)

// SettingsHTTPHandler handles HTTP requests for player settings.
type SettingsHTTPHandler struct {
	service *application.PlayerService
	logger  *slog.Logger
}

// NewSettingsHTTPHandler creates a new HTTP handler for settings.
func NewSettingsHTTPHandler(service *application.PlayerService, logger *slog.Logger) *SettingsHTTPHandler {
	return &SettingsHTTPHandler{service: service, logger: logger}
}

// touchThroughBody is both the request and response body of the touch-through setting.
type touchThroughBody struct {
	Enabled *bool `json:"enabled"`
}

// ServeHTTP handles GET and PUT /api/settings/touch-through
func (h *SettingsHTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/api/settings/touch-through" {
		writeError(w, h.logger, r, http.StatusNotFound, "not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		enabled, err := h.service.TouchThroughEnabled(r.Context())
		if err != nil {
			writeError(w, h.logger, r, http.StatusInternalServerError, "internal server error")
			return
		}
		writeJSON(w, h.logger, http.StatusOK, touchThroughBody{Enabled: &enabled})

	case http.MethodPut:
		var req touchThroughBody
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
			writeError(w, h.logger, r, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := h.service.SetTouchThroughEnabled(r.Context(), *req.Enabled); err != nil {
			writeError(w, h.logger, r, http.StatusInternalServerError, "internal server error")
			return
		}
		writeJSON(w, h.logger, http.StatusOK, req)

	default:
		writeError(w, h.logger, r, http.StatusMethodNotAllowed, "method not allowed")
	}
}
