// Package path confines tool paths to the workspace root.
package path

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Resolver maps model-supplied relative paths to absolute paths inside the
// workspace. Absolute paths, ".." escapes and symlinks leading outside the
// root are rejected.
type Resolver struct {
	workspaceRoot string
}

// NewResolver creates a resolver for a canonical workspace root.
func NewResolver(workspaceRoot string) *Resolver {
	return &Resolver{workspaceRoot: workspaceRoot}
}

// Root returns the workspace root.
func (r *Resolver) Root() string { return r.workspaceRoot }

// CanonicaliseRoot makes root absolute, resolves symlinks and checks that it
// is a directory.
func CanonicaliseRoot(root string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", &WorkspaceRootError{Root: root, Cause: err}
	}
	resolved, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return "", &WorkspaceRootError{Root: absRoot, Cause: err}
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", &WorkspaceRootError{Root: resolved, Cause: err}
	}
	if !info.IsDir() {
		return "", &WorkspaceRootError{Root: resolved, Cause: fmt.Errorf("%w: %s", ErrNotADirectory, resolved)}
	}
	return resolved, nil
}

// Abs resolves a workspace-relative path to an absolute one.
func (r *Resolver) Abs(path string) (string, error) {
	if r.workspaceRoot == "" {
		return "", ErrWorkspaceRootNotSet
	}
	if filepath.IsAbs(path) || strings.HasPrefix(path, "/") || strings.HasPrefix(path, `\`) {
		return "", &RejectedPathError{Path: path, Reason: "absolute path"}
	}
	if strings.HasPrefix(path, "~") {
		return "", &RejectedPathError{Path: path, Reason: "home directory expansion"}
	}

	abs := filepath.Clean(filepath.Join(r.workspaceRoot, path))
	if !r.inside(abs) {
		return "", &RejectedPathError{Path: path, Reason: "escapes workspace"}
	}

	// The deepest existing ancestor must also stay inside once symlinks are
	// followed.
	existing := abs
	for {
		if _, err := os.Lstat(existing); err == nil {
			break
		}
		parent := filepath.Dir(existing)
		if parent == existing {
			break
		}
		existing = parent
	}
	if real, err := filepath.EvalSymlinks(existing); err == nil && !r.inside(real) {
		return "", &RejectedPathError{Path: path, Reason: "symlink escapes workspace"}
	}
	return abs, nil
}

// Rel resolves path and returns it relative to the root with forward
// slashes. The root itself is ".".
func (r *Resolver) Rel(path string) (string, error) {
	abs, err := r.Abs(path)
	if err != nil {
		return "", err
	}
	return r.RelOf(abs), nil
}

// RelOf converts an absolute path already known to be inside the root.
func (r *Resolver) RelOf(abs string) string {
	rel, err := filepath.Rel(r.workspaceRoot, abs)
	if err != nil {
		return abs
	}
	return filepath.ToSlash(rel)
}

func (r *Resolver) inside(abs string) bool {
	return abs == r.workspaceRoot || strings.HasPrefix(abs, r.workspaceRoot+string(filepath.Separator))
}
