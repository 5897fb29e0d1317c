package compiler

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/latexd/internal/foundation/errors"
)

func TestReadArtifact(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		_, err := ReadArtifact(newWorkspace(t))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrArtifactMissing)
		assert.True(t, ferrors.HasCategory(err, ferrors.CategoryArtifact))
	})

	t.Run("empty", func(t *testing.T) {
		ws := newWorkspace(t)
		require.NoError(t, os.WriteFile(ws.ArtifactPath(), nil, 0o600))
		_, err := ReadArtifact(ws)
		assert.ErrorIs(t, err, ErrArtifactEmpty)
		assert.True(t, ferrors.HasCategory(err, ferrors.CategoryArtifact))
	})

	t.Run("present", func(t *testing.T) {
		ws := newWorkspace(t)
		require.NoError(t, os.WriteFile(ws.ArtifactPath(), []byte("%PDF-1.4"), 0o600))
		data, err := ReadArtifact(ws)
		require.NoError(t, err)
		assert.Equal(t, []byte("%PDF-1.4"), data)
	})
}

func TestReadLog(t *testing.T) {
	ws := newWorkspace(t)
	assert.Empty(t, ReadLog(ws, nil))

	require.NoError(t, os.WriteFile(ws.LogPath(), []byte("ok \xff done"), 0o600))
	assert.Equal(t, "ok \uFFFD done", ReadLog(ws, nil))
}
