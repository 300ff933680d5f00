package driver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/alorle/iptv-player/internal/application"
	"github.com/alorle/iptv-player/internal/port/driven"
)

// PlayerHTTPHandler handles HTTP requests that control the rendering surface.
type PlayerHTTPHandler struct {
	service *application.PlayerService
	logger  *slog.Logger
}

// NewPlayerHTTPHandler creates a new HTTP handler for the player.
func NewPlayerHTTPHandler(service *application.PlayerService, logger *slog.Logger) *PlayerHTTPHandler {
	return &PlayerHTTPHandler{service: service, logger: logger}
}

type playRequest struct {
	Channel string `json:"channel"`
}

type playerStatusResponse struct {
	Playing bool             `json:"playing"`
	Channel *channelResponse `json:"channel,omitempty"`
}

// ServeHTTP routes the request to the appropriate handler based on method and path.
func (h *PlayerHTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/player")

	switch path {
	case "", "/":
		if r.Method != http.MethodGet {
			writeError(w, h.logger, r, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		h.handleStatus(w, r)
	case "/play", "/stop", "/refresh":
		if r.Method != http.MethodPost {
			writeError(w, h.logger, r, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		switch path {
		case "/play":
			h.handlePlay(w, r)
		case "/stop":
			h.handleControl(w, r, h.service.Stop)
		default:
			h.handleControl(w, r, h.service.Refresh)
		}
	default:
		writeError(w, h.logger, r, http.StatusNotFound, "not found")
	}
}

func (h *PlayerHTTPHandler) status() playerStatusResponse {
	ch, playing := h.service.Current()
	resp := playerStatusResponse{Playing: playing}
	if playing {
		c := toChannelResponse(ch)
		resp.Channel = &c
	}
	return resp
}

// handleStatus handles GET /api/player
func (h *PlayerHTTPHandler) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.logger, http.StatusOK, h.status())
}

// handlePlay handles POST /api/player/play
func (h *PlayerHTTPHandler) handlePlay(w http.ResponseWriter, r *http.Request) {
	var req playRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Channel) == "" {
		writeError(w, h.logger, r, http.StatusBadRequest, "channel is required")
		return
	}

	if _, err := h.service.Play(r.Context(), req.Channel); err != nil {
		h.writePlayerError(w, r, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, h.status())
}

// handleControl handles POST /api/player/stop and /api/player/refresh
func (h *PlayerHTTPHandler) handleControl(w http.ResponseWriter, r *http.Request, action func(context.Context) error) {
	if err := action(r.Context()); err != nil {
		h.writePlayerError(w, r, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, h.status())
}

func (h *PlayerHTTPHandler) writePlayerError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, application.ErrChannelNotFound):
		writeError(w, h.logger, r, http.StatusNotFound, err.Error())
	case errors.Is(err, application.ErrNoPlayableURL):
		writeError(w, h.logger, r, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, driven.ErrSurfaceClosed):
		writeError(w, h.logger, r, http.StatusServiceUnavailable, "rendering surface unavailable")
	default:
		writeError(w, h.logger, r, http.StatusBadGateway, "rendering surface error")
	}
}
