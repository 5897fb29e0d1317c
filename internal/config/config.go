package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/latexd/internal/foundation/errors"
	"git.home.luguber.info/inful/latexd/internal/retry"
)

// CurrentVersion is the only configuration format version Load accepts.
const CurrentVersion = "1.0"

// Config is the latexd configuration file.
type Config struct {
	Version    string           `yaml:"version"`
	Server     ServerConfig     `yaml:"server"`
	Engine     EngineConfig     `yaml:"engine"`
	Workspace  WorkspaceConfig  `yaml:"workspace"`
	History    HistoryConfig    `yaml:"history"`
	Events     EventsConfig     `yaml:"events"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
}

// ServerConfig represents HTTP server configuration.
type ServerConfig struct {
	Addr              string        `yaml:"addr"`
	ReadTimeout       time.Duration `yaml:"read_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	MaxBodyBytes      int64         `yaml:"max_body_bytes"`
	MaxConnections    int           `yaml:"max_connections"` // 0 = unlimited
	CORSAllowedOrigin string        `yaml:"cors_allowed_origin"`
}

// EngineConfig controls how the typesetting engine is invoked.
type EngineConfig struct {
	Binary        string        `yaml:"binary"`
	Passes        int           `yaml:"passes"`
	Timeout       time.Duration `yaml:"timeout"` // per pass
	MaxConcurrent int           `yaml:"max_concurrent"`
	QueueTimeout  time.Duration `yaml:"queue_timeout"` // wait for a free slot
	JobName       string        `yaml:"job_name"`
}

// WorkspaceConfig controls where request workspaces live and how stale ones are swept.
type WorkspaceConfig struct {
	BaseDir       string        `yaml:"base_dir"` // empty = system temp dir
	Prefix        string        `yaml:"prefix"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
	MaxAge        time.Duration `yaml:"max_age"`
}

// HistoryConfig controls the SQLite compilation history.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// EventsConfig controls NATS completion events.
type EventsConfig struct {
	Enabled           bool          `yaml:"enabled"`
	NATSURL           string        `yaml:"nats_url"`
	Subject           string        `yaml:"subject"`
	Stream            string        `yaml:"stream"`
	MaxRetries        int           `yaml:"max_retries"`
	RetryBackoff      retry.Mode    `yaml:"retry_backoff"`
	RetryInitialDelay time.Duration `yaml:"retry_initial_delay"`
	RetryMaxDelay     time.Duration `yaml:"retry_max_delay"`
}

// RetryPolicy builds the publish retry policy.
func (e EventsConfig) RetryPolicy() retry.Policy {
	return retry.NewPolicy(e.RetryBackoff, e.RetryInitialDelay, e.RetryMaxDelay, e.MaxRetries)
}

// MonitoringConfig represents monitoring and observability configuration.
type MonitoringConfig struct {
	Metrics MonitoringMetrics `yaml:"metrics"`
	Health  MonitoringHealth  `yaml:"health"`
	Logging MonitoringLogging `yaml:"logging"`
}

// MonitoringMetrics represents metrics configuration.
type MonitoringMetrics struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// MonitoringHealth represents health check configuration.
type MonitoringHealth struct {
	Path string `yaml:"path"`
}

// MonitoringLogging represents logging configuration.
type MonitoringLogging struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// Load reads the configuration at configPath. A missing file yields the
// defaults, so the service runs with zero configuration.
func Load(configPath string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		slog.Debug("No .env file loaded", slog.String("error", err.Error()))
	}

	cfg := Default()

	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		slog.Debug("Configuration file not found, using defaults", slog.String("path", configPath))
	case err != nil:
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read config file").
			WithContext("path", configPath).
			Build()
	default:
		// Expand environment variables in the YAML content
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to parse config file").
				WithContext("path", configPath).
				Build()
		}
	}

	if cfg.Version != CurrentVersion {
		return nil, ferrors.ConfigError(fmt.Sprintf("unsupported configuration version: %s (expected %s)", cfg.Version, CurrentVersion)).Build()
	}

	// Normalization pass (case-fold enumerations, bounds, early coercions)
	res := NormalizeConfig(cfg)
	for _, w := range res.Warnings {
		slog.Warn("config normalization", slog.String("warning", w))
	}

	// Apply defaults (after normalization so canonical values drive defaults)
	applyDefaults(cfg)

	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return ferrors.ConfigError(fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", configPath)).Build()
	}

	example := Default()
	example.Events.NATSURL = "${NATS_URL}"

	data, err := yaml.Marshal(example)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "failed to marshal config").Build()
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "failed to write config file").
			WithContext("path", configPath).
			Build()
	}
	return nil
}
