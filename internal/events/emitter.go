package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"git.home.luguber.info/inful/latexd/internal/compiler"
	"git.home.luguber.info/inful/latexd/internal/logfields"
	"git.home.luguber.info/inful/latexd/internal/metrics"
	"git.home.luguber.info/inful/latexd/internal/retry"
)

const (
	// publishTimeout bounds one publish attempt.
	publishTimeout = 5 * time.Second

	// DefaultQueueSize is the number of reports buffered for publishing.
	DefaultQueueSize = 256
)

// Emitter publishes a CompilationEvent for every compiler report. Reports are
// queued and published by a background goroutine, so a slow or unreachable
// broker never delays a compilation. Reports arriving while the queue is full
// are dropped.
type Emitter struct {
	pub      Publisher
	subject  string
	policy   retry.Policy
	logger   *slog.Logger
	recorder metrics.Recorder

	mu     sync.RWMutex
	closed bool
	queue  chan compiler.Report
	done   chan struct{}

	// ctx is canceled when Close gives up waiting for the queue to drain.
	ctx    context.Context
	cancel context.CancelFunc
}

// NewEmitter creates an emitter and starts its publishing goroutine. A nil
// recorder disables metrics. Close must be called to release the goroutine.
func NewEmitter(pub Publisher, subject string, policy retry.Policy, logger *slog.Logger, recorder metrics.Recorder) *Emitter {
	return NewEmitterWithQueue(pub, subject, policy, logger, recorder, DefaultQueueSize)
}

// NewEmitterWithQueue is NewEmitter with an explicit queue capacity.
func NewEmitterWithQueue(pub Publisher, subject string, policy retry.Policy, logger *slog.Logger, recorder metrics.Recorder, size int) *Emitter {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	if size < 1 {
		size = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	e := &Emitter{
		pub:      pub,
		subject:  subject,
		policy:   policy,
		logger:   logger,
		recorder: recorder,
		queue:    make(chan compiler.Report, size),
		done:     make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
	go e.run()
	return e
}

// ObserveCompilation implements compiler.Observer. It only enqueues the
// report and never blocks.
func (e *Emitter) ObserveCompilation(_ context.Context, report compiler.Report) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		e.drop(report, "emitter closed")
		return
	}
	select {
	case e.queue <- report:
	default:
		e.drop(report, "event queue full")
	}
}

// Close stops accepting reports and waits until queued events are published
// or ctx ends. Pending publishes are abandoned when ctx ends first.
func (e *Emitter) Close(ctx context.Context) error {
	e.mu.Lock()
	if !e.closed {
		e.closed = true
		close(e.queue)
	}
	e.mu.Unlock()

	select {
	case <-e.done:
		e.cancel()
		return nil
	case <-ctx.Done():
		e.cancel()
		<-e.done
		return ctx.Err()
	}
}

func (e *Emitter) run() {
	defer close(e.done)
	for report := range e.queue {
		if e.ctx.Err() != nil {
			e.drop(report, "emitter closed")
			continue
		}
		e.publish(report)
	}
}

func (e *Emitter) publish(report compiler.Report) {
	data, err := json.Marshal(FromReport(report))
	if err != nil {
		e.logger.Warn("Failed to marshal compilation event", logfields.Error(err))
		e.recorder.IncEventPublishFailure()
		return
	}

	err = e.policy.Do(e.ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, publishTimeout)
		defer cancel()
		return e.pub.Publish(ctx, e.subject, data)
	})
	if err != nil {
		e.recorder.IncEventPublishFailure()
		e.logger.Warn("Dropped compilation event",
			logfields.RequestID(report.RequestID),
			logfields.Subject(e.subject),
			logfields.Error(err))
		return
	}
	e.logger.Debug("Published compilation event",
		logfields.RequestID(report.RequestID),
		logfields.Subject(e.subject))
}

func (e *Emitter) drop(report compiler.Report, reason string) {
	e.recorder.IncEventPublishFailure()
	e.logger.Warn("Dropped compilation event",
		logfields.RequestID(report.RequestID),
		logfields.Subject(e.subject),
		slog.String("reason", reason))
}
