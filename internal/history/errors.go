package history

import (
	"git.home.luguber.info/inful/latexd/internal/foundation/errors"
)

var (
	// ErrDatabaseOpenFailed indicates the SQLite database could not be opened.
	ErrDatabaseOpenFailed = errors.EventsError("could not open history database").Build()

	// ErrInitializeSchemaFailed indicates the database schema could not be initialized.
	ErrInitializeSchemaFailed = errors.EventsError("failed to initialize history schema").Build()

	// ErrAppendFailed indicates inserting a record failed.
	ErrAppendFailed = errors.EventsError("failed to append history record").Build()

	// ErrQueryFailed indicates reading records failed.
	ErrQueryFailed = errors.EventsError("failed to query history").Build()
)
