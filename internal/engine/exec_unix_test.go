//go:build unix

package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecRunner_CapturesOutputAndExitCode(t *testing.T) {
	r := NewExecRunner(nil)
	dir := t.TempDir()

	res, err := r.Run(context.Background(), Command{
		Binary: "sh",
		Args:   []string{"-c", "pwd; echo err >&2; exit 3"},
		Dir:    dir,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
	assert.False(t, res.Succeeded())
	assert.Contains(t, res.Stdout, dir)
	assert.Equal(t, "err\n", res.Stderr)
}

func TestExecRunner_Success(t *testing.T) {
	res, err := NewExecRunner(nil).Run(context.Background(), Command{Binary: "sh", Args: []string{"-c", "printf ok"}})
	require.NoError(t, err)
	assert.True(t, res.Succeeded())
	assert.Equal(t, "ok", res.Stdout)
}

func TestExecRunner_BinaryNotFound(t *testing.T) {
	res, err := NewExecRunner(nil).Run(context.Background(), Command{Binary: "latexd-no-such-engine"})
	require.ErrorIs(t, err, ErrBinaryNotFound)
	assert.Nil(t, res)
}

func TestExecRunner_SpawnFailureInMissingDir(t *testing.T) {
	_, err := NewExecRunner(nil).Run(context.Background(), Command{
		Binary: "sh",
		Args:   []string{"-c", "true"},
		Dir:    "/nonexistent/latexd/dir",
	})
	require.ErrorIs(t, err, ErrSpawn)
}

func TestExecRunner_TimeoutKillsProcessGroup(t *testing.T) {
	start := time.Now()
	res, err := NewExecRunner(nil).Run(context.Background(), Command{
		Binary:  "sh",
		Args:    []string{"-c", "echo started; sleep 30 & wait"},
		Timeout: 200 * time.Millisecond,
	})
	require.ErrorIs(t, err, ErrTimeout)
	require.NotNil(t, res)
	assert.Equal(t, "started\n", res.Stdout)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestExecRunner_ParentCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	_, err := NewExecRunner(nil).Run(ctx, Command{Binary: "sleep", Args: []string{"30"}, Timeout: time.Minute})
	require.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrTimeout)
}

func TestLaTeXArgs(t *testing.T) {
	assert.Equal(t, []string{"-interaction=nonstopmode", "-halt-on-error", "/w/document.tex"}, LaTeXArgs("/w/document.tex"))
}
