package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Manager allocates isolated scratch directories for submissions.
// Every directory lives under a single root so a crashed service can be
// cleaned up by wiping the root.
type Manager struct {
	root string
}

// NewManager creates the workspace root if it does not exist.
func NewManager(root string) (*Manager, error) {
	if root == "" {
		return nil, fmt.Errorf("workspace root cannot be empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create workspace root: %w", err)
	}
	return &Manager{root: abs}, nil
}

// Root returns the absolute workspace root.
func (m *Manager) Root() string {
	return m.root
}

// Acquire creates a fresh uniquely-named directory. The prefix keeps
// directories attributable when inspecting a live host.
func (m *Manager) Acquire(prefix string) (*Workspace, error) {
	if prefix == "" {
		prefix = "job"
	}
	id := prefix + "-" + uuid.NewString()
	dir := filepath.Join(m.root, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create workspace %s: %w", id, err)
	}
	return &Workspace{id: id, dir: dir}, nil
}

// Workspace is one scratch directory. Release is idempotent and safe to
// defer immediately after Acquire.
type Workspace struct {
	id  string
	dir string

	releaseOnce sync.Once
	releaseErr  error
}

// ID returns the unique workspace identifier.
func (w *Workspace) ID() string {
	return w.id
}

// Dir returns the absolute directory path.
func (w *Workspace) Dir() string {
	return w.dir
}

// Path joins rel onto the workspace directory, rejecting traversal
// outside of it.
func (w *Workspace) Path(rel string) (string, error) {
	joined := filepath.Clean(filepath.Join(w.dir, rel))
	if joined != w.dir && !strings.HasPrefix(joined, w.dir+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes workspace", rel)
	}
	return joined, nil
}

// Subdir creates and returns a subdirectory inside the workspace.
func (w *Workspace) Subdir(name string) (string, error) {
	path, err := w.Path(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", fmt.Errorf("failed to create subdir %s: %w", name, err)
	}
	return path, nil
}

// Release removes the workspace directory recursively.
func (w *Workspace) Release() error {
	w.releaseOnce.Do(func() {
		w.releaseErr = os.RemoveAll(w.dir)
	})
	return w.releaseErr
}
