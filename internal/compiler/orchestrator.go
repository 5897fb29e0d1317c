package compiler

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	"git.home.luguber.info/inful/latexd/internal/engine"
	ferrors "git.home.luguber.info/inful/latexd/internal/foundation/errors"
	"git.home.luguber.info/inful/latexd/internal/logfields"
	"git.home.luguber.info/inful/latexd/internal/metrics"
)

// DefaultPasses is the number of engine passes per compilation.
const DefaultPasses = 2

// rerunMarkers are log lines the engine prints when another pass would change the output.
var rerunMarkers = []string{
	"Rerun to get cross-references right",
	"Label(s) may have changed",
}

// Settings controls how the engine is invoked.
type Settings struct {
	Binary       string
	Passes       int
	Timeout      time.Duration // per pass; zero means unbounded
	QueueTimeout time.Duration // wait for a free slot; zero means unbounded
}

func (s Settings) withDefaults() Settings {
	if s.Binary == "" {
		s.Binary = "pdflatex"
	}
	if s.Passes < 1 {
		s.Passes = DefaultPasses
	}
	return s
}

// RunResult summarizes a completed orchestration.
type RunResult struct {
	Passes         int
	Log            string
	RerunSuggested bool
}

// Orchestrator writes a prepared document into a workspace and runs the engine
// over it the configured number of times.
type Orchestrator struct {
	runner   engine.ProcessRunner
	settings Settings
	logger   *slog.Logger
	recorder metrics.Recorder
}

// NewOrchestrator creates an orchestrator. A nil recorder disables metrics.
func NewOrchestrator(runner engine.ProcessRunner, settings Settings, logger *slog.Logger, recorder metrics.Recorder) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Orchestrator{runner: runner, settings: settings.withDefaults(), logger: logger, recorder: recorder}
}

// Run executes every pass in order and stops at the first one that fails.
// The log is re-read after each pass so a failure reports the log of the pass
// that failed. Context cancellation is returned unclassified.
func (o *Orchestrator) Run(ctx context.Context, source string, ws Workspace) (*RunResult, error) {
	if err := os.WriteFile(ws.SourcePath(), []byte(source), 0o600); err != nil {
		return nil, ferrors.IOError("Failed to write LaTeX file").WithCause(err).
			WithContext("path", ws.SourcePath()).
			Build()
	}

	cmd := engine.Command{
		Binary:  o.settings.Binary,
		Args:    engine.LaTeXArgs(ws.SourcePath()),
		Dir:     ws.Dir(),
		Timeout: o.settings.Timeout,
	}

	result := &RunResult{}
	for pass := 1; pass <= o.settings.Passes; pass++ {
		res, err := o.runner.Run(ctx, cmd)
		if res != nil {
			o.recorder.ObservePassDuration(pass, res.Duration)
		}
		if err != nil {
			return nil, o.classifyRunError(ctx, err, res, ws, pass)
		}
		res.Pass = pass
		result.Passes = pass
		result.Log = ReadLog(ws, o.logger)

		o.logger.Debug("Engine pass finished",
			logfields.Workspace(ws.Dir()),
			logfields.Pass(pass),
			logfields.ExitCode(res.ExitCode),
			logfields.Duration(res.Duration))

		if !res.Succeeded() {
			output := res.Stdout
			if output == "" {
				output = res.Stderr
			}
			return nil, ferrors.CompilationError("LaTeX compilation failed").
				WithContext(ContextLog, result.Log).
				WithContext(ContextOutput, output).
				WithContext("pass", pass).
				WithContext("exit_code", res.ExitCode).
				Build()
		}
	}

	result.RerunSuggested = needsRerun(result.Log)
	if result.RerunSuggested {
		o.logger.Warn("Engine log asks for another pass; references may be stale",
			logfields.Workspace(ws.Dir()),
			logfields.Passes(result.Passes))
	}
	return result, nil
}

func (o *Orchestrator) classifyRunError(ctx context.Context, err error, res *engine.PassResult, ws Workspace, pass int) error {
	if ctx.Err() != nil {
		return err
	}
	if errors.Is(err, engine.ErrTimeout) {
		var partial string
		if res != nil {
			partial = res.Stdout
		}
		return ferrors.EngineError("LaTeX compilation timed out").WithCause(err).
			WithContext(ContextLog, ReadLog(ws, o.logger)).
			WithContext(ContextOutput, partial).
			WithContext("pass", pass).
			WithContext("timeout", o.settings.Timeout.String()).
			Build()
	}
	return ferrors.EngineError("Failed to run pdflatex").WithCause(err).
		WithContext("binary", o.settings.Binary).
		WithContext("pass", pass).
		Build()
}

func needsRerun(log string) bool {
	for _, m := range rerunMarkers {
		if strings.Contains(log, m) {
			return true
		}
	}
	return false
}
