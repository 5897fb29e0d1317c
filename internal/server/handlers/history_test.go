package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/latexd/internal/foundation/errors"
	"git.home.luguber.info/inful/latexd/internal/history"
	"git.home.luguber.info/inful/latexd/internal/server/responses"
)

type memoryStore struct {
	records []history.Record
	limit   int
	err     error
}

func (m *memoryStore) Append(_ context.Context, rec history.Record) error {
	m.records = append(m.records, rec)
	return nil
}

func (m *memoryStore) Recent(_ context.Context, limit int) ([]history.Record, error) {
	m.limit = limit
	if m.err != nil {
		return nil, m.err
	}
	if limit < len(m.records) {
		return m.records[:limit], nil
	}
	return m.records, nil
}

func (m *memoryStore) Close() error { return nil }

func TestHandleHistory(t *testing.T) {
	store := &memoryStore{records: []history.Record{
		{ID: "b", RequestID: "req-2", Success: false, Category: "compilation", Timestamp: time.Now()},
		{ID: "a", RequestID: "req-1", Success: true, Passes: 2, Timestamp: time.Now()},
	}}
	h := NewHistoryHandlers(store, nil)

	rec := httptest.NewRecorder()
	h.HandleHistory(rec, httptest.NewRequest(http.MethodGet, "/api/history?limit=1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp responses.HistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "req-2", resp.Compilations[0].RequestID)
	assert.Equal(t, 1, store.limit)
}

func TestHandleHistoryDefaultsAndEmpty(t *testing.T) {
	h := NewHistoryHandlers(nil, nil)

	rec := httptest.NewRecorder()
	h.HandleHistory(rec, httptest.NewRequest(http.MethodGet, "/api/history", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count":0,"compilations":[]}`, rec.Body.String())
}

func TestHandleHistoryRejectsBadLimit(t *testing.T) {
	h := NewHistoryHandlers(&memoryStore{}, nil)
	for _, q := range []string{"0", "-3", "abc", "501"} {
		rec := httptest.NewRecorder()
		h.HandleHistory(rec, httptest.NewRequest(http.MethodGet, "/api/history?limit="+q, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, "limit=%s", q)
	}
}

func TestHandleHistoryStoreError(t *testing.T) {
	store := &memoryStore{err: ferrors.EventsError("history query failed").Build()}
	h := NewHistoryHandlers(store, nil)

	rec := httptest.NewRecorder()
	h.HandleHistory(rec, httptest.NewRequest(http.MethodGet, "/api/history", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
