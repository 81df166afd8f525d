// Package workspace manages the scoped temporary directory a run clones
// gists into.
package workspace

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Workspace is a temporary directory owned by one run.
type Workspace struct {
	root string
}

// New creates a fresh directory under parent (the system temp dir when
// parent is empty).
func New(parent string) (*Workspace, error) {
	if parent != "" {
		if err := os.MkdirAll(parent, 0o755); err != nil {
			return nil, fmt.Errorf("creating work dir parent %s: %w", parent, err)
		}
	}

	root, err := os.MkdirTemp(parent, "gist-migrator-")
	if err != nil {
		return nil, fmt.Errorf("creating work dir: %w", err)
	}
	return &Workspace{root: root}, nil
}

// Root returns the workspace directory.
func (w *Workspace) Root() string {
	return w.root
}

// Path joins elem onto the workspace root.
func (w *Workspace) Path(elem ...string) string {
	return filepath.Join(append([]string{w.root}, elem...)...)
}

// FS returns a read-only view of a subdirectory.
func (w *Workspace) FS(dir string) fs.FS {
	return os.DirFS(w.Path(dir))
}

// ReadFile reads name from the subdirectory dir. name must be a plain
// relative path; anything escaping dir is rejected.
func (w *Workspace) ReadFile(dir, name string) ([]byte, error) {
	if !fs.ValidPath(name) || name == "." {
		return nil, fmt.Errorf("invalid file name %q", name)
	}
	return fs.ReadFile(w.FS(dir), name)
}

// Close removes the workspace recursively. It is safe to call twice.
func (w *Workspace) Close() error {
	if w.root == "" {
		return nil
	}
	if err := os.RemoveAll(w.root); err != nil {
		return fmt.Errorf("removing work dir %s: %w", w.root, err)
	}
	w.root = ""
	return nil
}
