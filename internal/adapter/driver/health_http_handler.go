package driver

import (
	"log/slog"
	"net/http"

	"github.com/alorle/iptv-player/internal/application"
)

// HealthHTTPHandler handles HTTP requests for health checks.
type HealthHTTPHandler struct {
	service *application.HealthService
	logger  *slog.Logger
}

// NewHealthHTTPHandler creates a new HTTP handler for health checks.
func NewHealthHTTPHandler(service *application.HealthService, logger *slog.Logger) *HealthHTTPHandler {
	return &HealthHTTPHandler{service: service, logger: logger}
}

// healthResponse represents the JSON response for health check endpoint.
type healthResponse struct {
	Status  string `json:"status"`
	DB      string `json:"db"`
	Surface string `json:"surface"`
}

// ServeHTTP handles GET /health
func (h *HealthHTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Only GET method is allowed
	if r.Method != http.MethodGet {
		writeError(w, h.logger, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	status := h.service.Check(r.Context())

	resp := healthResponse{
		Status:  status.Status,
		DB:      status.DB.Status,
		Surface: status.Surface.Status,
	}

	httpStatus := http.StatusOK
	if status.Status != "ok" {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, h.logger, httpStatus, resp)
}
