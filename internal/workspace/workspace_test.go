package workspace

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_AcquireRelease(t *testing.T) {
	base := t.TempDir()
	mgr := NewManager(base, "", nil)

	ws, err := mgr.Acquire(context.Background())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(filepath.Base(ws.Dir()), "latexd-"), "unexpected name %s", ws.Dir())
	assert.Equal(t, base, filepath.Dir(ws.Dir()))
	assert.DirExists(t, ws.Dir())

	assert.Equal(t, filepath.Join(ws.Dir(), "document.tex"), ws.SourcePath())
	assert.Equal(t, filepath.Join(ws.Dir(), "document.pdf"), ws.ArtifactPath())
	assert.Equal(t, filepath.Join(ws.Dir(), "document.log"), ws.LogPath())
	assert.Equal(t, filepath.Join(ws.Dir(), "document.aux"), ws.AuxPath())

	require.NoError(t, os.WriteFile(ws.SourcePath(), []byte("x"), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(ws.Dir(), "nested"), 0o750))

	require.NoError(t, ws.Release())
	assert.NoDirExists(t, ws.Dir())

	// Second release is a no-op.
	require.NoError(t, ws.Release())
}

func TestManager_CustomJobName(t *testing.T) {
	mgr := NewManager(t.TempDir(), "tex", nil).WithJobName("main")
	ws, err := mgr.Acquire(context.Background())
	require.NoError(t, err)
	defer func() { _ = ws.Release() }()

	assert.Equal(t, "main", ws.JobName())
	assert.Equal(t, filepath.Join(ws.Dir(), "main.pdf"), ws.ArtifactPath())
	assert.True(t, strings.HasPrefix(filepath.Base(ws.Dir()), "tex-"))
}

func TestManager_ConcurrentAcquireIsUnique(t *testing.T) {
	mgr := NewManager(t.TempDir(), "", nil)

	const n = 32
	dirs := make(chan string, n)
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ws, err := mgr.Acquire(context.Background())
			if err != nil {
				t.Error(err)
				return
			}
			dirs <- ws.Dir()
		}()
	}
	wg.Wait()
	close(dirs)

	seen := map[string]bool{}
	for d := range dirs {
		assert.False(t, seen[d], "duplicate workspace %s", d)
		seen[d] = true
	}
	assert.Len(t, seen, n)
}

func TestManager_AcquireCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewManager(t.TempDir(), "", nil).Acquire(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestManager_Sweep(t *testing.T) {
	base := t.TempDir()
	mgr := NewManager(base, "latexd", nil)

	stale, err := mgr.Acquire(context.Background())
	require.NoError(t, err)
	fresh, err := mgr.Acquire(context.Background())
	require.NoError(t, err)
	foreign := filepath.Join(base, "other-dir")
	require.NoError(t, os.Mkdir(foreign, 0o750))

	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(stale.Dir(), old, old))
	require.NoError(t, os.Chtimes(foreign, old, old))

	removed, err := mgr.Sweep(time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.NoDirExists(t, stale.Dir())
	assert.DirExists(t, fresh.Dir())
	assert.DirExists(t, foreign)
}

func TestManager_SweepMissingBase(t *testing.T) {
	mgr := NewManager(filepath.Join(t.TempDir(), "absent"), "", nil)
	removed, err := mgr.Sweep(time.Minute)
	require.NoError(t, err)
	assert.Zero(t, removed)
}
