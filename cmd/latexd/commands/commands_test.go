package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/latexd/internal/compiler"
	"git.home.luguber.info/inful/latexd/internal/engine"
	ferrors "git.home.luguber.info/inful/latexd/internal/foundation/errors"
	"git.home.luguber.info/inful/latexd/internal/server/responses"
)

func fakeLaTeX() engine.RunnerFunc {
	return func(_ context.Context, cmd engine.Command) (*engine.PassResult, error) {
		src := cmd.Args[len(cmd.Args)-1]
		body, err := os.ReadFile(src)
		if err != nil {
			return nil, err
		}
		job := strings.TrimSuffix(src, filepath.Ext(src))
		if strings.Contains(string(body), `\undefinedmacro`) {
			_ = os.WriteFile(job+".log", []byte("! Undefined control sequence.\n"), 0o600)
			return &engine.PassResult{ExitCode: 1, Stdout: "! Undefined control sequence."}, nil
		}
		_ = os.WriteFile(job+".log", []byte("Output written\n"), 0o600)
		_ = os.WriteFile(job+".pdf", append([]byte("%PDF-1.4\n"), body...), 0o600)
		return &engine.PassResult{}, nil
	}
}

type testEnv struct {
	dir    string
	global *Global
	cli    *CLI
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "latexd.yaml")
	cfg := "version: \"1.0\"\n" +
		"workspace:\n  base_dir: " + filepath.Join(dir, "work") + "\n" +
		"history:\n  enabled: true\n  path: " + filepath.Join(dir, "history.db") + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))

	env := &testEnv{dir: dir, stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}}
	env.global = &Global{Stdout: env.stdout, Stderr: env.stderr}
	env.cli = &CLI{Config: cfgPath}
	require.NoError(t, env.cli.AfterApply(env.global))
	return env
}

func TestCompileWritesPDF(t *testing.T) {
	env := newTestEnv(t)
	src := filepath.Join(env.dir, "paper.tex")
	require.NoError(t, os.WriteFile(src, []byte("Hello"), 0o600))

	cmd := &CompileCmd{File: src, runner: fakeLaTeX()}
	require.NoError(t, cmd.Run(env.global, env.cli))

	pdf, err := os.ReadFile(filepath.Join(env.dir, "paper.pdf"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))
	assert.Contains(t, string(pdf), `\begin{document}`)
}

func TestCompileJSONFromStdin(t *testing.T) {
	env := newTestEnv(t)

	cmd := &CompileCmd{File: "-", JSON: true, runner: fakeLaTeX(), input: strings.NewReader("Hello")}
	require.NoError(t, cmd.Run(env.global, env.cli))

	var resp responses.CompileSuccess
	require.NoError(t, json.Unmarshal(env.stdout.Bytes(), &resp))
	assert.True(t, resp.Success)
	pdf, err := compiler.Decode(resp.PDF)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))
}

func TestCompileFailureReturnsClassifiedError(t *testing.T) {
	env := newTestEnv(t)
	src := filepath.Join(env.dir, "broken.tex")
	require.NoError(t, os.WriteFile(src, []byte(`\undefinedmacro`), 0o600))

	cmd := &CompileCmd{File: src, runner: fakeLaTeX()}
	err := cmd.Run(env.global, env.cli)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryCompilation))
	assert.Equal(t, 11, ferrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
	assert.Contains(t, env.stderr.String(), "Undefined control sequence")
	assert.NoFileExists(t, filepath.Join(env.dir, "broken.pdf"))
}

func TestCompileMissingFile(t *testing.T) {
	env := newTestEnv(t)

	cmd := &CompileCmd{File: filepath.Join(env.dir, "absent.tex"), runner: fakeLaTeX()}
	err := cmd.Run(env.global, env.cli)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryIO))
}

func TestHistoryListsCompilations(t *testing.T) {
	env := newTestEnv(t)
	src := filepath.Join(env.dir, "paper.tex")
	require.NoError(t, os.WriteFile(src, []byte("Hello"), 0o600))
	require.NoError(t, (&CompileCmd{File: src, runner: fakeLaTeX()}).Run(env.global, env.cli))

	env.stdout.Reset()
	require.NoError(t, (&HistoryCmd{Limit: 5}).Run(env.global, env.cli))

	out := env.stdout.String()
	assert.Contains(t, out, "REQUEST")
	assert.Contains(t, out, "cli-")
	assert.Contains(t, out, "ok")
}

func TestHistoryRejectsBadLimit(t *testing.T) {
	env := newTestEnv(t)
	err := (&HistoryCmd{Limit: 0}).Run(env.global, env.cli)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
}

func TestInitWritesConfig(t *testing.T) {
	env := newTestEnv(t)
	env.cli.Config = filepath.Join(env.dir, "fresh.yaml")

	require.NoError(t, (&InitCmd{}).Run(env.global, env.cli))
	assert.FileExists(t, env.cli.Config)
	assert.Contains(t, env.stdout.String(), "initialized successfully")

	require.Error(t, (&InitCmd{}).Run(env.global, env.cli))
	require.NoError(t, (&InitCmd{Force: true}).Run(env.global, env.cli))
}

func TestAfterApplyLogging(t *testing.T) {
	g := &Global{Stderr: &bytes.Buffer{}}
	require.NoError(t, (&CLI{Verbose: true}).AfterApply(g))
	assert.Equal(t, slog.LevelDebug, g.LogLevel.Level())

	require.Error(t, (&CLI{LogFormat: "xml"}).AfterApply(&Global{}))
}

type fakeLifecycle struct {
	startErr error
	stopped  bool
}

func (f *fakeLifecycle) Start(ctx context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	<-ctx.Done()
	return nil
}

func (f *fakeLifecycle) Stop(context.Context) error {
	f.stopped = true
	return nil
}

func TestRunUntilSignalStopsDaemon(t *testing.T) {
	g := &Global{Logger: slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	d := &fakeLifecycle{}
	require.NoError(t, runUntilSignal(ctx, d, g))
	assert.True(t, d.stopped)

	failing := &fakeLifecycle{startErr: ferrors.DaemonError("failed to bind HTTP listener").Build()}
	require.Error(t, runUntilSignal(context.Background(), failing, g))
	assert.True(t, failing.stopped)
}
