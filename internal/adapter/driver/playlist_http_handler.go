package driver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alorle/iptv-player/internal/application"
)

// PlaylistHTTPHandler handles HTTP requests for the catalog and its sync.
type PlaylistHTTPHandler struct {
	service *application.PlaylistSyncService
	logger  *slog.Logger
}

// NewPlaylistHTTPHandler creates a new HTTP handler for the playlist.
func NewPlaylistHTTPHandler(service *application.PlaylistSyncService, logger *slog.Logger) *PlaylistHTTPHandler {
	return &PlaylistHTTPHandler{service: service, logger: logger}
}

type groupResponse struct {
	Name     string            `json:"name"`
	Channels []channelResponse `json:"channels"`
}

type presetResponse struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// playlistResponse represents the catalog and sync status in JSON format.
type playlistResponse struct {
	Name       string           `json:"name"`
	URL        string           `json:"url"`
	State      string           `json:"state"`
	Syncing    bool             `json:"syncing"`
	LastUpdate string           `json:"last_update,omitempty"`
	Channels   int              `json:"channels"`
	Groups     []groupResponse  `json:"groups"`
	BuiltIn    []presetResponse `json:"built_in"`
}

type syncResponse struct {
	Started bool `json:"started"`
}

type playlistURLRequest struct {
	URL string `json:"url"`
}

// ServeHTTP routes the request to the appropriate handler based on method and path.
func (h *PlaylistHTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/playlist")

	switch {
	// GET /api/playlist - catalog and sync status
	case path == "" && r.Method == http.MethodGet:
		h.handleGet(w, r)

	// POST /api/playlist/sync - request a sync
	case path == "/sync" && r.Method == http.MethodPost:
		h.handleSync(w, r)

	// PUT /api/playlist/url - change the remote playlist URL
	case path == "/url" && r.Method == http.MethodPut:
		h.handleSetURL(w, r)

	case path == "" || path == "/sync" || path == "/url":
		writeError(w, h.logger, r, http.StatusMethodNotAllowed, "method not allowed")

	default:
		writeError(w, h.logger, r, http.StatusNotFound, "not found")
	}
}

// handleGet handles GET /api/playlist
func (h *PlaylistHTTPHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	cat := h.service.Catalog()

	resp := playlistResponse{
		Name:     cat.Name(),
		URL:      h.service.PlaylistURL(r.Context()),
		State:    h.service.State().String(),
		Syncing:  h.service.IsSyncing(),
		Channels: cat.Len(),
		Groups:   make([]groupResponse, 0, len(cat.Groups())),
		BuiltIn:  make([]presetResponse, 0),
	}
	if last := h.service.LastUpdate(r.Context()); !last.IsZero() {
		resp.LastUpdate = last.UTC().Format(time.RFC3339)
	}
	for _, g := range cat.Groups() {
		resp.Groups = append(resp.Groups, groupResponse{
			Name:     g.Name(),
			Channels: toChannelResponses(g.Channels()),
		})
	}
	for _, p := range h.service.BuiltInPlaylists() {
		resp.BuiltIn = append(resp.BuiltIn, presetResponse{Name: p.Name, URL: p.URL})
	}

	writeJSON(w, h.logger, http.StatusOK, resp)
}

// handleSync handles POST /api/playlist/sync
func (h *PlaylistHTTPHandler) handleSync(w http.ResponseWriter, r *http.Request) {
	if h.service.RequestSync() {
		writeJSON(w, h.logger, http.StatusAccepted, syncResponse{Started: true})
		return
	}
	writeJSON(w, h.logger, http.StatusConflict, syncResponse{Started: false})
}

// handleSetURL handles PUT /api/playlist/url
func (h *PlaylistHTTPHandler) handleSetURL(w http.ResponseWriter, r *http.Request) {
	var req playlistURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, r, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := url.Parse(strings.TrimSpace(req.URL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		writeError(w, h.logger, r, http.StatusBadRequest, "url must be an absolute http(s) url")
		return
	}

	if err := h.service.SetPlaylistURL(r.Context(), u.String()); err != nil {
		writeError(w, h.logger, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, h.logger, http.StatusAccepted, playlistURLRequest{URL: u.String()})
}
