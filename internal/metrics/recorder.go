package metrics

import "time"

// OutcomeLabel enumerates compilation outcome categories for counters.
type OutcomeLabel string

const (
	OutcomeSuccess OutcomeLabel = "success"
	OutcomeFailure OutcomeLabel = "failure"
	OutcomeError   OutcomeLabel = "error" // unexpected fault, no outcome produced
)

// Recorder defines observability hooks for compilation metrics.
type Recorder interface {
	ObserveCompileDuration(d time.Duration)
	ObservePassDuration(pass int, d time.Duration)
	IncCompileOutcome(outcome OutcomeLabel, category string)
	ObserveArtifactBytes(n int)
	AddInFlight(delta int)
	AddWorkspacesSwept(n int)
	IncEventPublishFailure()
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveCompileDuration(time.Duration)   {}
func (NoopRecorder) ObservePassDuration(int, time.Duration) {}
func (NoopRecorder) IncCompileOutcome(OutcomeLabel, string) {}
func (NoopRecorder) ObserveArtifactBytes(int)               {}
func (NoopRecorder) AddInFlight(int)                        {}
func (NoopRecorder) AddWorkspacesSwept(int)                 {}
func (NoopRecorder) IncEventPublishFailure()                {}
