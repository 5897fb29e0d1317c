package daemon

import (
	"log/slog"

	"git.home.luguber.info/inful/latexd/internal/compiler"
	"git.home.luguber.info/inful/latexd/internal/config"
	"git.home.luguber.info/inful/latexd/internal/engine"
	"git.home.luguber.info/inful/latexd/internal/metrics"
	"git.home.luguber.info/inful/latexd/internal/workspace"
)

// EngineSettings converts the engine section into compiler settings.
func EngineSettings(cfg config.EngineConfig) compiler.Settings {
	return compiler.Settings{
		Binary:       cfg.Binary,
		Passes:       cfg.Passes,
		Timeout:      cfg.Timeout,
		QueueTimeout: cfg.QueueTimeout,
	}
}

// NewWorkspaceManager builds the workspace manager described by cfg.
func NewWorkspaceManager(cfg *config.Config, logger *slog.Logger) *workspace.Manager {
	return workspace.NewManager(cfg.Workspace.BaseDir, cfg.Workspace.Prefix, logger).
		WithJobName(cfg.Engine.JobName)
}

// NewCompilerService wires a compilation service from cfg. A nil runner
// selects the exec runner; a nil recorder disables metrics.
func NewCompilerService(
	cfg *config.Config,
	workspaces compiler.WorkspaceProvider,
	runner engine.ProcessRunner,
	recorder metrics.Recorder,
	logger *slog.Logger,
	observers ...compiler.Observer,
) *compiler.Service {
	if runner == nil {
		runner = engine.NewExecRunner(logger)
	}
	return compiler.NewService(workspaces, runner, EngineSettings(cfg.Engine),
		compiler.WithLogger(logger),
		compiler.WithRecorder(recorder),
		compiler.WithMaxConcurrent(cfg.Engine.MaxConcurrent),
		compiler.WithObservers(observers...),
	)
}
