package history

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"git.home.luguber.info/inful/latexd/internal/foundation/errors"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens or creates the history database.
// Use ":memory:" for an in-memory database, or a file path for persistent storage.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryEvents, ErrDatabaseOpenFailed.Message()).
			WithContext("path", dbPath).
			Build()
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, errors.WrapError(err, errors.CategoryEvents, ErrInitializeSchemaFailed.Message()).
			WithContext("path", dbPath).
			Build()
	}

	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS compilations (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		request_id TEXT NOT NULL,
		success INTEGER NOT NULL,
		category TEXT,
		message TEXT,
		duration_ms INTEGER NOT NULL,
		passes INTEGER NOT NULL,
		artifact_bytes INTEGER NOT NULL,
		rerun_suggested INTEGER NOT NULL,
		repaired INTEGER NOT NULL,
		timestamp INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_compilations_request_id ON compilations(request_id);
	CREATE INDEX IF NOT EXISTS idx_compilations_timestamp ON compilations(timestamp);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append adds a record to the store.
func (s *SQLiteStore) Append(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO compilations
		(id, request_id, success, category, message, duration_ms, passes, artifact_bytes, rerun_suggested, repaired, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.RequestID, rec.Success, rec.Category, rec.Message, rec.DurationMS,
		rec.Passes, rec.ArtifactBytes, rec.RerunSuggested, rec.Repaired, rec.Timestamp.UnixMilli(),
	)
	if err != nil {
		return errors.WrapError(err, errors.CategoryEvents, ErrAppendFailed.Message()).
			WithContext("request_id", rec.RequestID).
			Build()
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, request_id, success, category, message, duration_ms, passes, artifact_bytes, rerun_suggested, repaired, timestamp
		FROM compilations ORDER BY seq DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryEvents, ErrQueryFailed.Message()).Build()
	}
	defer rows.Close()

	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var records []Record
	for rows.Next() {
		var r Record
		var category, message sql.NullString
		var ts int64

		err := rows.Scan(&r.ID, &r.RequestID, &r.Success, &category, &message, &r.DurationMS,
			&r.Passes, &r.ArtifactBytes, &r.RerunSuggested, &r.Repaired, &ts)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		r.Category = category.String
		r.Message = message.String
		r.Timestamp = time.UnixMilli(ts).UTC()
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return records, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
