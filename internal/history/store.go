package history

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/latexd/internal/compiler"
	"git.home.luguber.info/inful/latexd/internal/logfields"
)

// DefaultLimit caps Recent when the caller passes a non-positive limit.
const DefaultLimit = 50

// Store persists and lists compilation records.
type Store interface {
	// Append adds a record.
	Append(ctx context.Context, rec Record) error

	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]Record, error)

	// Close releases resources.
	Close() error
}

// NoopStore discards records. It backs the service when history is disabled.
type NoopStore struct{}

func (NoopStore) Append(context.Context, Record) error          { return nil }
func (NoopStore) Recent(context.Context, int) ([]Record, error) { return nil, nil }
func (NoopStore) Close() error                                  { return nil }

// Observer appends a record for every compilation report.
type Observer struct {
	store  Store
	logger *slog.Logger
}

// NewObserver wraps store as a compiler.Observer.
func NewObserver(store Store, logger *slog.Logger) *Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Observer{store: store, logger: logger}
}

// ObserveCompilation implements compiler.Observer. Failures are logged, never returned.
func (o *Observer) ObserveCompilation(ctx context.Context, report compiler.Report) {
	if err := o.store.Append(ctx, FromReport(report)); err != nil {
		o.logger.Warn("Failed to record compilation history",
			logfields.RequestID(report.RequestID),
			logfields.Error(err))
	}
}
