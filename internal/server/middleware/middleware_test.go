package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/latexd/internal/foundation/errors"
)

func newChain(buf *bytes.Buffer, h http.Handler) http.Handler {
	logger := slog.New(slog.NewTextHandler(buf, nil))
	return Chain(logger, ferrors.NewHTTPErrorAdapter(logger), Options{})(h)
}

func TestChainSetsRequestIDAndCORS(t *testing.T) {
	var seen string
	h := newChain(&bytes.Buffer{}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/compile", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type, Accept", rec.Header().Get("Access-Control-Allow-Headers"))
}

func TestChainHonorsInboundRequestID(t *testing.T) {
	h := newChain(&bytes.Buffer{}, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "has space")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.NotEqual(t, "has space", rec.Header().Get(RequestIDHeader))
}

func TestChainRecoversPanics(t *testing.T) {
	var buf bytes.Buffer
	h := newChain(&buf, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() {
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal server error")
	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.True(t, strings.Contains(buf.String(), "HTTP handler panic"))
	assert.Contains(t, buf.String(), "status=500")
}
