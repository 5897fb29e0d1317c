package history

import (
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/latexd/internal/compiler"
)

// Record is one finished compilation.
type Record struct {
	ID             string    `json:"id"`
	RequestID      string    `json:"request_id"`
	Success        bool      `json:"success"`
	Category       string    `json:"category,omitempty"`
	Message        string    `json:"message,omitempty"`
	DurationMS     int64     `json:"duration_ms"`
	Passes         int       `json:"passes"`
	ArtifactBytes  int       `json:"artifact_bytes"`
	RerunSuggested bool      `json:"rerun_suggested"`
	Repaired       bool      `json:"repaired"`
	Timestamp      time.Time `json:"timestamp"`
}

// FromReport converts a compiler report into a record with a fresh ID.
func FromReport(r compiler.Report) Record {
	rec := Record{
		ID:             uuid.NewString(),
		RequestID:      r.RequestID,
		Success:        r.Success,
		Category:       string(r.Category),
		DurationMS:     r.Duration.Milliseconds(),
		Passes:         r.Passes,
		ArtifactBytes:  r.ArtifactBytes,
		RerunSuggested: r.RerunSuggested,
		Repaired:       r.Repairs.Any(),
		Timestamp:      r.Timestamp,
	}
	if !r.Success {
		rec.Message = r.Message
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	return rec
}
