package driver

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/alorle/iptv-player/internal/application"
	"github.com/alorle/iptv-player/internal/channel"
	"github.com/alorle/iptv-player/logging"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, data any) {
	if data == nil {
		w.WriteHeader(status)
		return
	}
	logging.WriteJSONSuccess(w, logger, status, data)
}

// writeError writes a JSON error response. Server errors are logged.
func writeError(w http.ResponseWriter, logger *slog.Logger, r *http.Request, status int, message string) {
	if status < http.StatusInternalServerError {
		logger = nil
	}
	logging.WriteJSONError(w, logger, message, status, "method", r.Method, "path", r.URL.Path)
}

// channelResponse represents a channel in JSON format.
type channelResponse struct {
	Name  string   `json:"name"`
	Group string   `json:"group"`
	URLs  []string `json:"urls"`
}

// toChannelResponse converts a channel domain object to an API response.
func toChannelResponse(ch channel.Channel) channelResponse {
	return channelResponse{
		Name:  ch.Name(),
		Group: ch.GroupName(),
		URLs:  ch.URLs(),
	}
}

func toChannelResponses(channels []channel.Channel) []channelResponse {
	out := make([]channelResponse, len(channels))
	for i, ch := range channels {
		out[i] = toChannelResponse(ch)
	}
	return out
}

// ChannelHTTPHandler handles HTTP requests for channel lookup.
type ChannelHTTPHandler struct {
	catalog application.CatalogProvider
	logger  *slog.Logger
}

// NewChannelHTTPHandler creates a new HTTP handler for channels.
func NewChannelHTTPHandler(catalog application.CatalogProvider, logger *slog.Logger) *ChannelHTTPHandler {
	return &ChannelHTTPHandler{catalog: catalog, logger: logger}
}

// ServeHTTP routes the request to the appropriate handler based on method and path.
func (h *ChannelHTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, h.logger, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/channels")

	// GET /api/channels?q= - list or search channels
	if path == "" || path == "/" {
		h.handleList(w, r)
		return
	}

	// GET /api/channels/{name} - get a specific channel
	h.handleGet(w, r, strings.TrimPrefix(path, "/"))
}

// handleList handles GET /api/channels
func (h *ChannelHTTPHandler) handleList(w http.ResponseWriter, r *http.Request) {
	cat := h.catalog.Catalog()

	channels := cat.Channels()
	if q := r.URL.Query().Get("q"); strings.TrimSpace(q) != "" {
		channels = cat.Search(q)
	}

	writeJSON(w, h.logger, http.StatusOK, toChannelResponses(channels))
}

// handleGet handles GET /api/channels/{name}
func (h *ChannelHTTPHandler) handleGet(w http.ResponseWriter, r *http.Request, name string) {
	ch, ok := h.catalog.Catalog().Channel(name)
	if !ok {
		writeError(w, h.logger, r, http.StatusNotFound, application.ErrChannelNotFound.Error())
		return
	}

	writeJSON(w, h.logger, http.StatusOK, toChannelResponse(ch))
}
