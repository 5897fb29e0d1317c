package handlers

import (
	"log/slog"
	"net/http"
	"time"

	ferrors "git.home.luguber.info/inful/latexd/internal/foundation/errors"
	"git.home.luguber.info/inful/latexd/internal/server/responses"
	"git.home.luguber.info/inful/latexd/internal/version"
)

// MonitoringHandlers contains monitoring-related HTTP handlers.
type MonitoringHandlers struct {
	startTime    time.Time
	errorAdapter *ferrors.HTTPErrorAdapter
}

// NewMonitoringHandlers creates a new monitoring handlers instance.
func NewMonitoringHandlers(startTime time.Time, logger *slog.Logger) *MonitoringHandlers {
	return &MonitoringHandlers{
		startTime:    startTime,
		errorAdapter: ferrors.NewHTTPErrorAdapter(logger),
	}
}

// HandleHealthCheck handles the health check endpoint.
func (h *MonitoringHandlers) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		err := ferrors.ValidationError("invalid HTTP method").
			WithContext("method", r.Method).
			WithContext("allowed_method", "GET").
			Build()
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	health := &responses.HealthResponse{
		Status:    "healthy",
		Version:   version.String(),
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.startTime).Seconds(),
	}

	if err := writeJSONPretty(w, r, http.StatusOK, health); err != nil {
		internalErr := ferrors.WrapError(err, ferrors.CategoryInternal, "failed to write health response").
			Build()
		h.errorAdapter.WriteErrorResponse(w, r, internalErr)
	}
}
