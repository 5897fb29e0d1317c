package compiler

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	ferrors "git.home.luguber.info/inful/latexd/internal/foundation/errors"
	"git.home.luguber.info/inful/latexd/internal/logfields"
)

// Workspace is the view of a request workspace the compiler needs.
type Workspace interface {
	Dir() string
	SourcePath() string
	ArtifactPath() string
	LogPath() string
}

// ReadArtifact returns the compiled PDF. A missing or empty file is a failure
// even when every engine pass exited with status zero.
func ReadArtifact(ws Workspace) ([]byte, error) {
	data, err := os.ReadFile(ws.ArtifactPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ferrors.ArtifactError("PDF file was not generated").WithCause(ErrArtifactMissing).
				WithContext("path", ws.ArtifactPath()).
				Build()
		}
		return nil, ferrors.IOError("Failed to read PDF file").WithCause(err).
			WithContext("path", ws.ArtifactPath()).
			Build()
	}
	if len(data) == 0 {
		return nil, ferrors.ArtifactError("Generated PDF file is empty").WithCause(ErrArtifactEmpty).
			WithContext("path", ws.ArtifactPath()).
			Build()
	}
	return data, nil
}

// ReadLog returns the engine log, or "" when it is missing or unreadable.
// Invalid UTF-8 is replaced rather than rejected.
func ReadLog(ws Workspace, logger *slog.Logger) string {
	data, err := os.ReadFile(ws.LogPath())
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) && logger != nil {
			logger.Warn("Failed to read log file", logfields.Path(ws.LogPath()), logfields.Error(err))
		}
		return ""
	}
	return strings.ToValidUTF8(string(data), "�")
}
