// Package security validates file paths and names that come from user
// input before anything is written to disk.
package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot is returned when a path resolves outside every allowed
// directory.
var ErrOutsideRoot = errors.New("path escapes allowed directories")

// canonical returns the absolute, symlink-resolved form of path. For a
// path that does not exist yet the deepest existing ancestor is resolved
// and the remainder joined back on, so a symlinked parent cannot redirect
// a new file.
func canonical(path string) (string, error) {
	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	for dir := filepath.Dir(abs); ; dir = filepath.Dir(dir) {
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			rest, _ := filepath.Rel(dir, abs)
			return filepath.Join(resolved, rest), nil
		}
		if dir == filepath.Dir(dir) {
			return abs, nil
		}
	}
}

// WithinDir returns an error unless path resolves inside dir. dir must
// exist.
func WithinDir(path, dir string) error {
	p, err := canonical(path)
	if err != nil {
		return err
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve directory: %w", err)
	}
	root, err := filepath.EvalSymlinks(absDir)
	if err != nil {
		return fmt.Errorf("failed to resolve directory symlinks: %w", err)
	}
	rel, err := filepath.Rel(root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return fmt.Errorf("%w: %s is outside %s", ErrOutsideRoot, path, dir)
	}
	return nil
}

// WithinAny returns nil if path lies inside at least one of dirs.
func WithinAny(path string, dirs ...string) error {
	if len(dirs) == 0 {
		return errors.New("no allowed directories specified")
	}
	for _, d := range dirs {
		if WithinDir(path, d) == nil {
			return nil
		}
	}
	return fmt.Errorf("%w: %s must be within one of %v", ErrOutsideRoot, path, dirs)
}

// OutputPath validates a path the CLI is about to write: it must lie in
// the working directory or the OS temp directory.
func OutputPath(path string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}
	return WithinAny(path, cwd, os.TempDir())
}

// maxFilenameLen bounds SanitizeFilename results.
const maxFilenameLen = 128

// SanitizeFilename turns an arbitrary label into a file name of ASCII
// letters, digits, dot, underscore and dash. Runs of other characters
// become one underscore; leading and trailing dots and underscores are
// trimmed. An empty result is "unknown".
func SanitizeFilename(s string) string {
	var b strings.Builder
	under := false
	for _, r := range s {
		if b.Len() >= maxFilenameLen {
			break
		}
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
			under = false
		case !under:
			b.WriteByte('_')
			under = true
		}
	}
	if out := strings.Trim(b.String(), "._"); out != "" {
		return out
	}
	return "unknown"
}
