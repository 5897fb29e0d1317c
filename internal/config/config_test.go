package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/latexd/internal/foundation/errors"
	"git.home.luguber.info/inful/latexd/internal/retry"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "latexd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 2, cfg.Engine.Passes)
	assert.Equal(t, "pdflatex", cfg.Engine.Binary)
	assert.True(t, cfg.History.Enabled)
	assert.False(t, cfg.Events.Enabled)
}

func TestLoadOverridesAndKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
version: "1.0"
server:
  addr: ":9090"
engine:
  passes: 3
  timeout: 90s
history:
  enabled: false
monitoring:
  logging:
    level: DEBUG
    format: Json
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 6*time.Minute, cfg.Server.WriteTimeout)
	assert.Equal(t, 3, cfg.Engine.Passes)
	assert.Equal(t, 90*time.Second, cfg.Engine.Timeout)
	assert.Equal(t, 4, cfg.Engine.MaxConcurrent)
	assert.False(t, cfg.History.Enabled)
	assert.Equal(t, LogLevelDebug, cfg.Monitoring.Logging.Level)
	assert.Equal(t, LogFormatJSON, cfg.Monitoring.Logging.Format)
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("LATEXD_TEST_BINARY", "/opt/texlive/bin/pdflatex")
	path := writeConfig(t, "version: \"1.0\"\nengine:\n  binary: ${LATEXD_TEST_BINARY}\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/texlive/bin/pdflatex", cfg.Engine.Binary)
}

func TestLoadRejectsUnsupportedVersion(t *testing.T) {
	_, err := Load(writeConfig(t, "version: \"2.0\"\n"))
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
	assert.Contains(t, err.Error(), "unsupported configuration version")
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "version: [\n"))
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"too many passes", "engine: {passes: 9}", "engine.passes"},
		{"negative passes", "engine: {passes: -1}", "engine.passes"},
		{"job name with slash", "engine: {job_name: ../x}", "engine.job_name"},
		{"relative metrics path", "monitoring: {metrics: {path: metrics}}", "monitoring.metrics.path"},
		{"events without url", "events: {enabled: true, nats_url: \"\"}", "events.nats_url"},
		{"negative timeout", "engine: {timeout: -5s}", "engine.timeout"},
		{"write timeout below compile budget", "server: {write_timeout: 100s}", "server.write_timeout"},
		{"passes outgrow write timeout", "engine: {passes: 5, timeout: 2m}", "server.write_timeout"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, "version: \"1.0\"\n"+tc.body+"\n"))
			require.Error(t, err)
			assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestCompileBudget(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 150*time.Second, CompileBudget(cfg.Engine))
	assert.GreaterOrEqual(t, cfg.Server.WriteTimeout,
		CompileBudget(EngineConfig{Passes: MaxPasses, Timeout: cfg.Engine.Timeout, QueueTimeout: cfg.Engine.QueueTimeout})+WriteMargin)
}

func TestNormalizeConfig(t *testing.T) {
	cfg := Default()
	cfg.Monitoring.Logging.Level = "Warning"
	cfg.Monitoring.Logging.Format = "pretty"
	cfg.Events.RetryBackoff = "LINEAR"
	cfg.Events.MaxRetries = -3

	res := NormalizeConfig(cfg)
	assert.Equal(t, LogLevelWarn, cfg.Monitoring.Logging.Level)
	assert.Equal(t, LogFormatText, cfg.Monitoring.Logging.Format)
	assert.Equal(t, retry.ModeLinear, cfg.Events.RetryBackoff)
	assert.Zero(t, cfg.Events.MaxRetries)
	assert.Len(t, res.Warnings, 3)
}

func TestDefaultsAreValid(t *testing.T) {
	cfg := Default()
	cfg.Events.Enabled = true
	assert.NoError(t, ValidateConfig(cfg))
}

func TestInitWritesLoadableExample(t *testing.T) {
	t.Setenv("NATS_URL", "nats://broker:4222")
	path := filepath.Join(t.TempDir(), "latexd.yaml")

	require.NoError(t, Init(path, false))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "nats://broker:4222", cfg.Events.NATSURL)
	assert.Equal(t, 60*time.Second, cfg.Engine.Timeout)

	err = Init(path, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force")
	assert.NoError(t, Init(path, true))
}

func TestEventsRetryPolicy(t *testing.T) {
	p := Default().Events.RetryPolicy()
	assert.Equal(t, retry.ModeExponential, p.Mode)
	assert.Equal(t, 2, p.MaxRetries)
	assert.Equal(t, 200*time.Millisecond, p.Initial)
}

func TestLogLevelSlog(t *testing.T) {
	assert.Equal(t, "DEBUG", LogLevelDebug.SlogLevel().String())
	assert.Equal(t, "INFO", LogLevel("").SlogLevel().String())
	assert.Equal(t, "ERROR", LogLevelError.SlogLevel().String())
}

func TestRestartRequired(t *testing.T) {
	old := Default()

	reloadable := Default()
	reloadable.Engine.Passes = 3
	reloadable.Engine.Timeout = time.Minute * 5
	reloadable.Engine.QueueTimeout = time.Second
	reloadable.Monitoring.Logging.Level = LogLevelDebug
	assert.Empty(t, RestartRequired(old, reloadable))

	restart := Default()
	restart.Server.Addr = ":1"
	restart.Engine.Binary = "xelatex"
	restart.Events.Enabled = true
	assert.ElementsMatch(t, []string{"server", "engine", "events"}, RestartRequired(old, restart))
}
