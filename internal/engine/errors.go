package engine

import "errors"

var (
	// ErrBinaryNotFound indicates the engine executable was not found on PATH.
	ErrBinaryNotFound = errors.New("engine binary not found")
	// ErrSpawn indicates the engine process could not be started.
	ErrSpawn = errors.New("engine process could not be started")
	// ErrTimeout indicates the engine exceeded its time budget and was killed.
	ErrTimeout = errors.New("engine timed out")
)
