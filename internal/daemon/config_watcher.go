package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/latexd/internal/config"
	"git.home.luguber.info/inful/latexd/internal/logfields"
)

const defaultDebounce = 2 * time.Second

// Reloader applies a freshly loaded configuration.
type Reloader interface {
	ReloadConfig(ctx context.Context, cfg *config.Config) error
}

// ConfigWatcher monitors configuration file changes and triggers reloads.
type ConfigWatcher struct {
	configPath   string
	reloader     Reloader
	logger       *slog.Logger
	watcher      *fsnotify.Watcher
	mu           sync.Mutex
	stopChan     chan struct{}
	stopped      bool
	reloadChan   chan struct{}
	debounceTime time.Duration
}

// NewConfigWatcher creates a new configuration file watcher.
func NewConfigWatcher(configPath string, reloader Reloader, logger *slog.Logger) (*ConfigWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Resolve absolute path for consistent watching
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}

	return &ConfigWatcher{
		configPath:   absPath,
		reloader:     reloader,
		logger:       logger,
		watcher:      watcher,
		stopChan:     make(chan struct{}),
		reloadChan:   make(chan struct{}, 1),
		debounceTime: defaultDebounce,
	}, nil
}

// WithDebounce overrides how long the watcher waits for writes to settle.
func (cw *ConfigWatcher) WithDebounce(d time.Duration) *ConfigWatcher {
	if d > 0 {
		cw.debounceTime = d
	}
	return cw
}

// Start begins monitoring the configuration file.
func (cw *ConfigWatcher) Start(ctx context.Context) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	// Editors replace files on save, so watch the directory rather than the file.
	configDir := filepath.Dir(cw.configPath)
	if err := cw.watcher.Add(configDir); err != nil {
		return fmt.Errorf("failed to watch config directory %s: %w", configDir, err)
	}

	cw.logger.Info("Starting configuration watcher", logfields.Path(cw.configPath))

	go cw.watchLoop(ctx)
	go cw.reloadLoop(ctx)
	return nil
}

// Stop stops the configuration watcher. It is safe to call more than once.
func (cw *ConfigWatcher) Stop() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	if cw.stopped {
		return nil
	}
	cw.stopped = true

	cw.logger.Info("Stopping configuration watcher")
	close(cw.stopChan)
	return cw.watcher.Close()
}

// watchLoop monitors file system events
func (cw *ConfigWatcher) watchLoop(ctx context.Context) {
	configFile := filepath.Base(cw.configPath)

	for {
		select {
		case <-ctx.Done():
			return
		case <-cw.stopChan:
			return
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != configFile {
				continue
			}

			switch {
			case event.Has(fsnotify.Write), event.Has(fsnotify.Create), event.Has(fsnotify.Rename):
				cw.logger.Debug("Config file change detected", logfields.File(event.Name), slog.String("op", event.Op.String()))
				cw.triggerReload()
			case event.Has(fsnotify.Remove):
				cw.logger.Warn("Config file removed", logfields.File(event.Name))
			}

		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.logger.Error("Config watcher error", logfields.Error(err))
		}
	}
}

// reloadLoop handles debounced configuration reloads
func (cw *ConfigWatcher) reloadLoop(ctx context.Context) {
	var reloadTimer *time.Timer
	stopTimer := func() {
		if reloadTimer != nil {
			reloadTimer.Stop()
		}
	}

	for {
		select {
		case <-ctx.Done():
			stopTimer()
			return
		case <-cw.stopChan:
			stopTimer()
			return
		case <-cw.reloadChan:
			stopTimer()
			reloadTimer = time.AfterFunc(cw.debounceTime, func() {
				if err := cw.performReload(ctx); err != nil {
					cw.logger.Error("Failed to reload configuration", logfields.Error(err))
				}
			})
		}
	}
}

// triggerReload triggers a debounced configuration reload
func (cw *ConfigWatcher) triggerReload() {
	select {
	case cw.reloadChan <- struct{}{}:
	default:
		// reload already pending
	}
}

// performReload loads and applies the new configuration. A file that fails
// to load or validate leaves the running configuration untouched.
func (cw *ConfigWatcher) performReload(ctx context.Context) error {
	cw.logger.Info("Reloading configuration", logfields.Path(cw.configPath))

	newConfig, err := config.Load(cw.configPath)
	if err != nil {
		return fmt.Errorf("failed to load new configuration: %w", err)
	}
	if err := cw.reloader.ReloadConfig(ctx, newConfig); err != nil {
		return fmt.Errorf("failed to apply new configuration: %w", err)
	}
	return nil
}
