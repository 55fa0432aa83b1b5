package filesystem

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// ErrForbiddenPath is returned when a requested path escapes the shared root.
var ErrForbiddenPath = errors.New("forbidden path")

// Resolver maps untrusted relative paths onto the shared root.
type Resolver struct {
	root string
}

// NewResolver canonicalizes root (absolute, symlinks resolved). The root must
// exist and be a directory.
func NewResolver(root string) (*Resolver, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %q: %w", root, err)
	}
	canon, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("resolve root %q: %w", root, err)
	}
	info, err := os.Stat(canon)
	if err != nil {
		return nil, fmt.Errorf("stat root %q: %w", canon, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %q is not a directory", canon)
	}
	return &Resolver{root: canon}, nil
}

// Root returns the canonical shared root.
func (r *Resolver) Root() string {
	return r.root
}

// Resolve joins rel onto the root and returns the canonical absolute path.
// Leading separators are ignored, so "/a/b" is treated as "a/b". The result
// is the root itself or a strict descendant of it after symlink resolution;
// anything else yields ErrForbiddenPath. The target need not exist, and a
// component that is not a directory (photo.jpg/child) is not an escape.
func (r *Resolver) Resolve(rel string) (string, error) {
	cleaned := strings.ReplaceAll(rel, `\`, "/")
	cleaned = strings.TrimLeft(cleaned, "/")

	joined := filepath.Join(r.root, filepath.FromSlash(cleaned))
	canon, err := canonicalize(joined)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", rel, err)
	}
	if !r.contains(canon) {
		return "", fmt.Errorf("%w: %q", ErrForbiddenPath, rel)
	}
	return canon, nil
}

// Rel returns the slash-separated path of abs relative to the root.
func (r *Resolver) Rel(abs string) (string, error) {
	if !r.contains(abs) {
		return "", fmt.Errorf("%w: %q", ErrForbiddenPath, abs)
	}
	rel, err := filepath.Rel(r.root, abs)
	if err != nil {
		return "", err
	}
	if rel == "." {
		return "", nil
	}
	return filepath.ToSlash(rel), nil
}

func (r *Resolver) contains(p string) bool {
	if p == r.root {
		return true
	}
	prefix := r.root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(p, prefix)
}

// canonicalize resolves symlinks in the longest resolvable prefix of p and
// appends the remaining components lexically. Containment is checked by the
// caller on the result.
func canonicalize(p string) (string, error) {
	p = filepath.Clean(p)
	var tail []string
	cur := p
	for {
		resolved, err := filepath.EvalSymlinks(cur)
		if err == nil {
			parts := append([]string{resolved}, tail...)
			return filepath.Clean(filepath.Join(parts...)), nil
		}
		if !unresolvable(err) {
			return "", err
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return "", err
		}
		tail = append([]string{filepath.Base(cur)}, tail...)
		cur = parent
	}
}

// unresolvable reports errors after which the prefix can still be walked up:
// a missing component, a file used as a directory, or an unreadable directory.
func unresolvable(err error) bool {
	return errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, syscall.ENOTDIR) ||
		errors.Is(err, os.ErrPermission)
}
