// Package daemon runs latexd as a long-lived HTTP service: it wires the
// compiler, history, events, metrics and HTTP server from configuration and
// owns their lifecycle.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/latexd/internal/compiler"
	"git.home.luguber.info/inful/latexd/internal/config"
	"git.home.luguber.info/inful/latexd/internal/engine"
	"git.home.luguber.info/inful/latexd/internal/events"
	ferrors "git.home.luguber.info/inful/latexd/internal/foundation/errors"
	"git.home.luguber.info/inful/latexd/internal/history"
	"git.home.luguber.info/inful/latexd/internal/logfields"
	"git.home.luguber.info/inful/latexd/internal/metrics"
	"git.home.luguber.info/inful/latexd/internal/server/httpserver"
	"git.home.luguber.info/inful/latexd/internal/workspace"
)

// Status represents the current state of the daemon
type Status string

const (
	StatusStopped  Status = "stopped"
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	StatusStopping Status = "stopping"
	StatusError    Status = "error"
)

// Options carries runtime dependencies that do not come from the config file.
type Options struct {
	Logger *slog.Logger

	// LogLevel, when set, is adjusted on config reload.
	LogLevel *slog.LevelVar

	// Runner replaces the exec runner.
	Runner engine.ProcessRunner

	// Publisher replaces the NATS client when events are enabled.
	Publisher events.Publisher
}

// Daemon represents the main daemon service
type Daemon struct {
	config         *config.Config
	configFilePath string
	opts           Options
	logger         *slog.Logger
	status         atomic.Value // Status
	startTime      time.Time
	mu             sync.RWMutex

	registry      *prom.Registry
	recorder      metrics.Recorder
	workspaces    *workspace.Manager
	service       *compiler.Service
	store         history.Store
	natsClient    *events.NATSClient
	emitter       *events.Emitter
	httpServer    *httpserver.Server
	scheduler     *Scheduler
	configWatcher *ConfigWatcher
	sweepMaxAge   time.Duration
	closed        bool
}

// New creates a daemon from cfg. configFilePath enables config file watching
// when non-empty. ctx bounds the NATS connection setup only.
func New(ctx context.Context, cfg *config.Config, configFilePath string, opts Options) (*Daemon, error) {
	if cfg == nil {
		return nil, ferrors.ConfigError("configuration is required").Build()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	d := &Daemon{
		config:         cfg,
		configFilePath: configFilePath,
		opts:           opts,
		logger:         opts.Logger,
		registry:       metrics.NewRegistry(),
		sweepMaxAge:    cfg.Workspace.MaxAge,
	}
	d.status.Store(StatusStopped)
	d.recorder = metrics.NewPrometheusRecorder(d.registry)
	d.workspaces = NewWorkspaceManager(cfg, d.logger)

	var observers []compiler.Observer

	d.store = history.NoopStore{}
	if cfg.History.Enabled {
		store, err := history.NewSQLiteStore(cfg.History.Path)
		if err != nil {
			return nil, err
		}
		d.store = store
		observers = append(observers, history.NewObserver(store, d.logger))
	}

	if cfg.Events.Enabled {
		pub := opts.Publisher
		if pub == nil {
			client, err := events.NewNATSClient(ctx, events.ClientConfig{
				URL:     cfg.Events.NATSURL,
				Subject: cfg.Events.Subject,
				Stream:  cfg.Events.Stream,
			}, d.logger)
			if err != nil {
				d.closeStores(ctx)
				return nil, err
			}
			d.natsClient = client
			pub = client
		}
		d.emitter = events.NewEmitter(pub, cfg.Events.Subject, cfg.Events.RetryPolicy(), d.logger, d.recorder)
		observers = append(observers, d.emitter)
	}

	d.service = NewCompilerService(cfg, d.workspaces, opts.Runner, d.recorder, d.logger, observers...)

	d.httpServer = httpserver.New(cfg, httpserver.Options{
		Compiler:          d.service,
		History:           d.store,
		PrometheusHandler: metrics.HTTPHandler(d.registry),
		Logger:            d.logger,
	})

	scheduler, err := NewScheduler(d.logger)
	if err != nil {
		d.closeStores(ctx)
		return nil, err
	}
	d.scheduler = scheduler
	if _, err := scheduler.ScheduleEvery("workspace-sweep", cfg.Workspace.SweepInterval, d.sweepWorkspaces); err != nil {
		d.closeStores(ctx)
		return nil, err
	}

	if configFilePath != "" {
		watcher, err := NewConfigWatcher(configFilePath, d, d.logger)
		if err != nil {
			d.logger.Warn("Config file watching disabled", logfields.Error(err))
		} else {
			d.configWatcher = watcher
		}
	}

	return d, nil
}

// Start brings up the HTTP server, scheduler and config watcher, then blocks
// until ctx is done.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.closed || d.GetStatus() != StatusStopped {
		d.mu.Unlock()
		return ferrors.DaemonError("daemon is not in stopped state").
			WithContext("status", string(d.GetStatus())).
			Build()
	}

	d.status.Store(StatusStarting)
	d.startTime = time.Now()
	d.logger.Info("Starting latexd daemon")

	if err := d.httpServer.Start(ctx); err != nil {
		d.status.Store(StatusError)
		d.mu.Unlock()
		return err
	}

	d.scheduler.Start()

	if d.configWatcher != nil {
		if err := d.configWatcher.Start(ctx); err != nil {
			d.logger.Error("Failed to start config watcher", logfields.Error(err))
		}
	}

	d.status.Store(StatusRunning)
	d.logger.Info("latexd daemon started",
		slog.String("addr", d.httpServer.Addr()),
		logfields.Binary(d.config.Engine.Binary),
		logfields.Passes(d.config.Engine.Passes),
		slog.Int("max_concurrent", d.config.Engine.MaxConcurrent),
		slog.Bool("history", d.config.History.Enabled),
		slog.Bool("events", d.config.Events.Enabled))
	d.mu.Unlock()

	<-ctx.Done()
	d.logger.Info("Shutdown signal received, daemon stopping")
	return nil
}

// Stop gracefully shuts down the daemon and releases its resources. It may be
// called on a daemon that was never started.
func (d *Daemon) Stop(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed || d.GetStatus() == StatusStopping {
		return nil
	}
	d.closed = true
	d.status.Store(StatusStopping)
	d.logger.Info("Stopping latexd daemon")

	var errs []error
	if d.configWatcher != nil {
		if err := d.configWatcher.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("config watcher: %w", err))
		}
	}
	if err := d.httpServer.Stop(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := d.scheduler.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("scheduler: %w", err))
	}
	errs = append(errs, d.closeStores(ctx)...)

	d.status.Store(StatusStopped)
	d.logger.Info("latexd daemon stopped", slog.Duration("uptime", time.Since(d.startTime)))

	if len(errs) > 0 {
		return ferrors.WrapError(errors.Join(errs...), ferrors.CategoryDaemon, "daemon shutdown incomplete").Build()
	}
	return nil
}

// closeStores drains the event queue, then releases the NATS connection and
// the history database.
func (d *Daemon) closeStores(ctx context.Context) []error {
	var errs []error
	if d.emitter != nil {
		if err := d.emitter.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("event queue: %w", err))
		}
		d.emitter = nil
	}
	if d.natsClient != nil {
		if err := d.natsClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("nats: %w", err))
		}
		d.natsClient = nil
	}
	if d.store != nil {
		if err := d.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("history: %w", err))
		}
		d.store = nil
	}
	return errs
}

// GetStatus returns the current daemon status
func (d *Daemon) GetStatus() Status {
	status, ok := d.status.Load().(Status)
	if !ok {
		return StatusError
	}
	return status
}

// GetStartTime returns when the daemon last started.
func (d *Daemon) GetStartTime() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.startTime
}

// Addr returns the bound HTTP address while running.
func (d *Daemon) Addr() string {
	return d.httpServer.Addr()
}

// Service returns the compilation service.
func (d *Daemon) Service() *compiler.Service {
	return d.service
}

// GetConfig returns the configuration currently in effect.
func (d *Daemon) GetConfig() *config.Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.config
}

// ReloadConfig applies the reloadable parts of newConfig: engine passes,
// engine timeout, queue timeout and log level. A reload that would let a
// compilation outlast the running server's write timeout is rejected. Changes to any other section are logged and
// take effect after a restart.
func (d *Daemon) ReloadConfig(_ context.Context, newConfig *config.Config) error {
	if newConfig == nil {
		return ferrors.ConfigError("configuration is required").Build()
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	old := d.config
	if sections := config.RestartRequired(old, newConfig); len(sections) > 0 {
		d.logger.Warn("Configuration changes require a restart to take effect",
			slog.Any("sections", sections))
	}

	effective := *old
	effective.Engine.Passes = newConfig.Engine.Passes
	effective.Engine.Timeout = newConfig.Engine.Timeout
	effective.Engine.QueueTimeout = newConfig.Engine.QueueTimeout
	effective.Monitoring.Logging.Level = newConfig.Monitoring.Logging.Level
	if err := config.ValidateConfig(&effective); err != nil {
		return err
	}

	d.service.UpdateSettings(EngineSettings(effective.Engine))
	if d.opts.LogLevel != nil {
		d.opts.LogLevel.Set(effective.Monitoring.Logging.Level.SlogLevel())
	}
	d.config = &effective

	d.logger.Info("Configuration reloaded",
		logfields.Passes(effective.Engine.Passes),
		slog.Duration("timeout", effective.Engine.Timeout),
		slog.String("log_level", string(effective.Monitoring.Logging.Level)))
	return nil
}

// sweepWorkspaces removes workspaces left behind by crashed or killed requests.
// It must not take d.mu: Stop holds it while waiting for running jobs.
func (d *Daemon) sweepWorkspaces() {
	maxAge := d.sweepMaxAge
	n, err := d.workspaces.Sweep(maxAge)
	if n > 0 {
		d.recorder.AddWorkspacesSwept(n)
		d.logger.Info("Swept stale workspaces", slog.Int("removed", n), slog.Duration("max_age", maxAge))
	}
	if err != nil {
		d.logger.Warn("Workspace sweep incomplete", logfields.Error(err))
	}
}
