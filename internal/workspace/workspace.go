package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	ferrors "git.home.luguber.info/inful/latexd/internal/foundation/errors"
	"git.home.luguber.info/inful/latexd/internal/logfields"
)

const (
	defaultPrefix  = "latexd"
	defaultJobName = "document"
)

// Manager creates and sweeps request-scoped workspaces.
type Manager struct {
	baseDir string
	prefix  string
	jobName string
	logger  *slog.Logger
}

// NewManager creates a workspace manager rooted at baseDir (os.TempDir() when empty).
func NewManager(baseDir, prefix string, logger *slog.Logger) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	if prefix == "" {
		prefix = defaultPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		baseDir: baseDir,
		prefix:  prefix,
		jobName: defaultJobName,
		logger:  logger,
	}
}

// WithJobName sets the base name shared by the source, artifact, log and aux files.
func (m *Manager) WithJobName(name string) *Manager {
	if name != "" {
		m.jobName = name
	}
	return m
}

// BaseDir returns the directory workspaces are created in.
func (m *Manager) BaseDir() string {
	return m.baseDir
}

// Acquire creates a fresh, uniquely named workspace directory.
func (m *Manager) Acquire(ctx context.Context) (*Workspace, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(m.baseDir, 0o750); err != nil {
		return nil, ferrors.IOError("failed to create workspace base directory").WithCause(err).
			WithContext("base_dir", m.baseDir).
			Build()
	}

	timestamp := time.Now().Format("20060102-150405")
	dir := filepath.Join(m.baseDir, fmt.Sprintf("%s-%s-%s", m.prefix, timestamp, uuid.NewString()))

	// Mkdir rather than MkdirAll: an existing directory must never be adopted.
	if err := os.Mkdir(dir, 0o750); err != nil {
		return nil, ferrors.IOError("failed to create workspace directory").WithCause(err).
			WithContext("workspace", dir).
			Build()
	}

	m.logger.Debug("Created workspace", logfields.Workspace(dir))
	return &Workspace{dir: dir, jobName: m.jobName, logger: m.logger}, nil
}

// Sweep removes workspaces owned by this manager's prefix that are older than maxAge.
// It returns the number of directories removed.
func (m *Manager) Sweep(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(m.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read workspace base directory: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	var errs []error
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), m.prefix+"-") {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(m.baseDir, e.Name())
		if err := os.RemoveAll(path); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
		m.logger.Info("Swept stale workspace", logfields.Workspace(path))
	}
	if len(errs) > 0 {
		return removed, fmt.Errorf("sweep workspaces: %d failures, first: %w", len(errs), errs[0])
	}
	return removed, nil
}

// Workspace is one request's working directory.
type Workspace struct {
	dir     string
	jobName string
	logger  *slog.Logger

	once       sync.Once
	releaseErr error
}

// Dir returns the workspace directory.
func (w *Workspace) Dir() string { return w.dir }

// JobName returns the shared base name of the workspace files.
func (w *Workspace) JobName() string { return w.jobName }

func (w *Workspace) SourcePath() string   { return w.file(".tex") }
func (w *Workspace) ArtifactPath() string { return w.file(".pdf") }
func (w *Workspace) LogPath() string      { return w.file(".log") }
func (w *Workspace) AuxPath() string      { return w.file(".aux") }

func (w *Workspace) file(ext string) string {
	return filepath.Join(w.dir, w.jobName+ext)
}

// Release removes the workspace directory recursively. It is safe to call more than once.
func (w *Workspace) Release() error {
	w.once.Do(func() {
		if err := os.RemoveAll(w.dir); err != nil {
			w.releaseErr = ferrors.IOError("failed to cleanup workspace").WithCause(err).
				WithContext("workspace", w.dir).
				Build()
			return
		}
		w.logger.Debug("Cleaned up workspace", logfields.Workspace(w.dir))
	})
	return w.releaseErr
}
