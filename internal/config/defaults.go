package config

import (
	"time"

	"git.home.luguber.info/inful/latexd/internal/retry"
)

// Default returns a configuration populated with every default.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Server: ServerConfig{
			Addr:              ":8080",
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      6 * time.Minute,
			MaxBodyBytes:      5 << 20,
			MaxConnections:    256,
			CORSAllowedOrigin: "*",
		},
		Engine: EngineConfig{
			Binary:        "pdflatex",
			Passes:        2,
			Timeout:       60 * time.Second,
			MaxConcurrent: 4,
			QueueTimeout:  30 * time.Second,
			JobName:       "document",
		},
		Workspace: WorkspaceConfig{
			Prefix:        "latexd",
			SweepInterval: 10 * time.Minute,
			MaxAge:        time.Hour,
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    "./latexd-history.db",
		},
		Events: EventsConfig{
			Enabled:           false,
			NATSURL:           "nats://127.0.0.1:4222",
			Subject:           "latexd.compilations",
			Stream:            "LATEXD",
			MaxRetries:        2,
			RetryBackoff:      retry.ModeExponential,
			RetryInitialDelay: 200 * time.Millisecond,
			RetryMaxDelay:     2 * time.Second,
		},
		Monitoring: MonitoringConfig{
			Metrics: MonitoringMetrics{Enabled: true, Path: "/metrics"},
			Health:  MonitoringHealth{Path: "/health"},
			Logging: MonitoringLogging{Level: LogLevelInfo, Format: LogFormatText},
		},
	}
}

// applyDefaults fills fields the file explicitly emptied. Zero passes,
// timeouts and limits are treated as unset rather than as "none".
func applyDefaults(cfg *Config) {
	d := Default()

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = d.Server.Addr
	}
	if cfg.Server.ReadTimeout <= 0 {
		cfg.Server.ReadTimeout = d.Server.ReadTimeout
	}
	if cfg.Server.WriteTimeout <= 0 {
		cfg.Server.WriteTimeout = d.Server.WriteTimeout
	}
	if cfg.Server.MaxBodyBytes <= 0 {
		cfg.Server.MaxBodyBytes = d.Server.MaxBodyBytes
	}
	if cfg.Server.CORSAllowedOrigin == "" {
		cfg.Server.CORSAllowedOrigin = d.Server.CORSAllowedOrigin
	}

	if cfg.Engine.Binary == "" {
		cfg.Engine.Binary = d.Engine.Binary
	}
	if cfg.Engine.Passes == 0 {
		cfg.Engine.Passes = d.Engine.Passes
	}
	if cfg.Engine.Timeout == 0 {
		cfg.Engine.Timeout = d.Engine.Timeout
	}
	if cfg.Engine.MaxConcurrent == 0 {
		cfg.Engine.MaxConcurrent = d.Engine.MaxConcurrent
	}
	if cfg.Engine.QueueTimeout == 0 {
		cfg.Engine.QueueTimeout = d.Engine.QueueTimeout
	}
	if cfg.Engine.JobName == "" {
		cfg.Engine.JobName = d.Engine.JobName
	}

	if cfg.Workspace.Prefix == "" {
		cfg.Workspace.Prefix = d.Workspace.Prefix
	}
	if cfg.Workspace.SweepInterval == 0 {
		cfg.Workspace.SweepInterval = d.Workspace.SweepInterval
	}
	if cfg.Workspace.MaxAge == 0 {
		cfg.Workspace.MaxAge = d.Workspace.MaxAge
	}

	if cfg.History.Path == "" {
		cfg.History.Path = d.History.Path
	}

	if cfg.Events.Subject == "" {
		cfg.Events.Subject = d.Events.Subject
	}
	if cfg.Events.Stream == "" {
		cfg.Events.Stream = d.Events.Stream
	}
	if cfg.Events.RetryBackoff == "" {
		cfg.Events.RetryBackoff = d.Events.RetryBackoff
	}
	if cfg.Events.RetryInitialDelay == 0 {
		cfg.Events.RetryInitialDelay = d.Events.RetryInitialDelay
	}
	if cfg.Events.RetryMaxDelay == 0 {
		cfg.Events.RetryMaxDelay = d.Events.RetryMaxDelay
	}

	if cfg.Monitoring.Metrics.Path == "" {
		cfg.Monitoring.Metrics.Path = d.Monitoring.Metrics.Path
	}
	if cfg.Monitoring.Health.Path == "" {
		cfg.Monitoring.Health.Path = d.Monitoring.Health.Path
	}
	if cfg.Monitoring.Logging.Level == "" {
		cfg.Monitoring.Logging.Level = d.Monitoring.Logging.Level
	}
	if cfg.Monitoring.Logging.Format == "" {
		cfg.Monitoring.Logging.Format = d.Monitoring.Logging.Format
	}
}
