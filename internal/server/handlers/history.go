package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	ferrors "git.home.luguber.info/inful/latexd/internal/foundation/errors"
	"git.home.luguber.info/inful/latexd/internal/history"
	"git.home.luguber.info/inful/latexd/internal/server/responses"
)

// maxHistoryLimit caps ?limit on the history endpoint.
const maxHistoryLimit = 500

// HistoryHandlers serves the compilation history API.
type HistoryHandlers struct {
	store        history.Store
	errorAdapter *ferrors.HTTPErrorAdapter
}

// NewHistoryHandlers creates the history handlers.
func NewHistoryHandlers(store history.Store, logger *slog.Logger) *HistoryHandlers {
	if store == nil {
		store = history.NoopStore{}
	}
	return &HistoryHandlers{store: store, errorAdapter: ferrors.NewHTTPErrorAdapter(logger)}
}

// HandleHistory lists recent compilations, newest first.
func (h *HistoryHandlers) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		err := ferrors.ValidationError("invalid HTTP method").
			WithContext("method", r.Method).
			WithContext("allowed_method", "GET").
			Build()
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	limit := history.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxHistoryLimit {
			verr := ferrors.ValidationError("limit must be an integer between 1 and 500").
				WithContext("limit", raw).
				Build()
			h.errorAdapter.WriteErrorResponse(w, r, verr)
			return
		}
		limit = n
	}

	records, err := h.store.Recent(r.Context(), limit)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	if records == nil {
		records = []history.Record{}
	}

	resp := responses.HistoryResponse{Count: len(records), Compilations: records}
	if err := writeJSONPretty(w, r, http.StatusOK, resp); err != nil {
		internalErr := ferrors.WrapError(err, ferrors.CategoryInternal, "failed to write history response").Build()
		h.errorAdapter.WriteErrorResponse(w, r, internalErr)
	}
}
