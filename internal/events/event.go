package events

import (
	"time"

	"git.home.luguber.info/inful/latexd/internal/compiler"
)

// CompilationEvent is the JSON payload published for every finished compilation.
type CompilationEvent struct {
	RequestID      string    `json:"request_id"`
	Success        bool      `json:"success"`
	Category       string    `json:"category,omitempty"`
	DurationMS     int64     `json:"duration_ms"`
	Passes         int       `json:"passes"`
	ArtifactBytes  int       `json:"artifact_bytes"`
	RerunSuggested bool      `json:"rerun_suggested"`
	Timestamp      time.Time `json:"timestamp"`
}

// FromReport builds an event from a compiler report.
func FromReport(r compiler.Report) CompilationEvent {
	ts := r.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return CompilationEvent{
		RequestID:      r.RequestID,
		Success:        r.Success,
		Category:       string(r.Category),
		DurationMS:     r.Duration.Milliseconds(),
		Passes:         r.Passes,
		ArtifactBytes:  r.ArtifactBytes,
		RerunSuggested: r.RerunSuggested,
		Timestamp:      ts,
	}
}
