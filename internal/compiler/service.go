package compiler

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"git.home.luguber.info/inful/latexd/internal/engine"
	ferrors "git.home.luguber.info/inful/latexd/internal/foundation/errors"
	"git.home.luguber.info/inful/latexd/internal/logfields"
	"git.home.luguber.info/inful/latexd/internal/metrics"
	"git.home.luguber.info/inful/latexd/internal/texsource"
	"git.home.luguber.info/inful/latexd/internal/workspace"
)

// WorkspaceProvider hands out fresh workspaces.
type WorkspaceProvider interface {
	Acquire(ctx context.Context) (*workspace.Workspace, error)
}

// Request is one compilation request.
type Request struct {
	ID     string
	Source string
}

// Report describes a finished compilation for observers.
type Report struct {
	RequestID      string
	Success        bool
	Category       ferrors.ErrorCategory
	Message        string
	Duration       time.Duration
	Passes         int
	ArtifactBytes  int
	RerunSuggested bool
	Repairs        texsource.Repairs
	Timestamp      time.Time
}

// Observer is notified after every compilation that produced an Outcome.
// Observers run synchronously on the request path and must not block for long.
type Observer interface {
	ObserveCompilation(ctx context.Context, report Report)
}

// Service runs the full compilation pipeline. It is safe for concurrent use;
// each request gets its own workspace.
type Service struct {
	workspaces WorkspaceProvider
	runner     engine.ProcessRunner
	settings   atomic.Pointer[Settings]
	slots      chan struct{}
	logger     *slog.Logger
	recorder   metrics.Recorder
	observers  []Observer
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithMaxConcurrent bounds how many compilations run at once. Zero or less means unbounded.
func WithMaxConcurrent(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.slots = make(chan struct{}, n)
		}
	}
}

// WithObservers registers compilation observers.
func WithObservers(obs ...Observer) Option {
	return func(s *Service) {
		for _, o := range obs {
			if o != nil {
				s.observers = append(s.observers, o)
			}
		}
	}
}

// NewService creates a compilation service.
func NewService(workspaces WorkspaceProvider, runner engine.ProcessRunner, settings Settings, opts ...Option) *Service {
	s := &Service{
		workspaces: workspaces,
		runner:     runner,
		logger:     slog.Default(),
		recorder:   metrics.NoopRecorder{},
	}
	s.UpdateSettings(settings)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Settings returns the engine settings currently in effect.
func (s *Service) Settings() Settings {
	return *s.settings.Load()
}

// UpdateSettings swaps the engine settings. Compilations already running keep
// the settings they started with.
func (s *Service) UpdateSettings(settings Settings) {
	settings = settings.withDefaults()
	s.settings.Store(&settings)
}

// Compile runs one request through the pipeline.
//
// Every expected failure is reported as a failure Outcome with a nil error.
// An error is returned only when no outcome could be produced: the context
// was canceled, no compilation slot freed up within the queue timeout, or no
// workspace could be created.
func (s *Service) Compile(ctx context.Context, req Request) (outcome *Outcome, err error) {
	start := time.Now()
	logger := s.logger.With(logfields.RequestID(req.ID))

	s.recorder.AddInFlight(1)
	defer s.recorder.AddInFlight(-1)

	report := Report{RequestID: req.ID}
	defer func() {
		report.Duration = time.Since(start)
		report.Timestamp = start.UTC()
		s.finish(ctx, logger, report, outcome, err)
	}()

	source, repairs, err := texsource.Prepare(req.Source)
	if err != nil {
		return NewFailure(err, "", ""), nil
	}
	report.Repairs = repairs
	if repairs.Any() {
		logger.Debug("Repaired document structure",
			slog.Bool("declaration", repairs.Declaration),
			slog.Bool("begin_document", repairs.BeginDocument),
			slog.Bool("end_document", repairs.EndDocument))
	}

	release, err := s.acquireSlot(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	ws, err := s.workspaces.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if rerr := ws.Release(); rerr != nil {
			logger.Warn("Workspace cleanup failed", logfields.Workspace(ws.Dir()), logfields.Error(rerr))
		}
	}()

	orch := NewOrchestrator(s.runner, s.Settings(), logger, s.recorder)
	run, err := orch.Run(ctx, source, ws)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return failureFrom(err, ""), nil
	}
	report.Passes = run.Passes
	report.RerunSuggested = run.RerunSuggested

	artifact, err := ReadArtifact(ws)
	if err != nil {
		return failureFrom(err, run.Log), nil
	}
	encoded, err := Encode(artifact)
	if err != nil {
		return failureFrom(err, run.Log), nil
	}
	report.ArtifactBytes = len(artifact)

	return NewSuccess(artifact, encoded, ReadLog(ws, logger)), nil
}

func (s *Service) acquireSlot(ctx context.Context) (func(), error) {
	if s.slots == nil {
		return func() {}, nil
	}
	var expired <-chan time.Time
	if wait := s.Settings().QueueTimeout; wait > 0 {
		t := time.NewTimer(wait)
		defer t.Stop()
		expired = t.C
	}
	select {
	case s.slots <- struct{}{}:
		return func() { <-s.slots }, nil
	case <-expired:
		return nil, ferrors.NewError(ferrors.CategoryRuntime, "timed out waiting for a compilation slot").
			Retryable().
			WithContext("max_concurrent", cap(s.slots)).
			Build()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Service) finish(ctx context.Context, logger *slog.Logger, report Report, outcome *Outcome, err error) {
	s.recorder.ObserveCompileDuration(report.Duration)

	if outcome == nil {
		s.recorder.IncCompileOutcome(metrics.OutcomeError, string(ferrors.GetCategory(err)))
		logger.Error("Compilation aborted", logfields.Error(err), logfields.Duration(report.Duration))
		return
	}

	report.Success = outcome.Success()
	report.Category = outcome.Category()
	report.Message = outcome.Message()

	if outcome.Success() {
		s.recorder.IncCompileOutcome(metrics.OutcomeSuccess, "")
		s.recorder.ObserveArtifactBytes(report.ArtifactBytes)
		logger.Info("Compilation succeeded",
			logfields.Passes(report.Passes),
			logfields.Bytes(report.ArtifactBytes),
			logfields.Duration(report.Duration))
	} else {
		s.recorder.IncCompileOutcome(metrics.OutcomeFailure, string(report.Category))
		logger.Info("Compilation failed",
			logfields.Category(string(report.Category)),
			slog.String("message", report.Message),
			logfields.Duration(report.Duration))
	}

	for _, o := range s.observers {
		o.ObserveCompilation(context.WithoutCancel(ctx), report)
	}
}
