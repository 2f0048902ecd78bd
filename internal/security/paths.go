// Package security guards the file paths and names that come from users.
package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrPathOutsideAllowed is returned when an output path escapes every
// allowed directory.
var ErrPathOutsideAllowed = errors.New("path outside allowed directories")

// canonical resolves p to an absolute path with symlinks evaluated. For paths
// that do not exist yet, the nearest existing ancestor is resolved and the
// remainder appended, so /tmp/link/new.png with link -> /etc maps into /etc.
func canonical(p string) (string, error) {
	abs, err := filepath.Abs(filepath.Clean(p))
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	for dir := filepath.Dir(abs); ; dir = filepath.Dir(dir) {
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			rel, _ := filepath.Rel(dir, abs)
			return filepath.Join(resolved, rel), nil
		}
		if dir == filepath.Dir(dir) {
			return abs, nil
		}
	}
}

// WithinDirectory checks that filePath resolves inside dir.
func WithinDirectory(filePath, dir string) error {
	target, err := canonical(filePath)
	if err != nil {
		return err
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve directory path: %w", err)
	}
	root, err := filepath.EvalSymlinks(absDir)
	if err != nil {
		return fmt.Errorf("failed to resolve directory symlinks: %w", err)
	}

	rel, err := filepath.Rel(root, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return fmt.Errorf("%w: %s escapes %s", ErrPathOutsideAllowed, filePath, dir)
	}
	return nil
}

// ValidateOutputPath checks that filePath lands inside one of allowedDirs.
// With no directories given, the temp directory and the working directory
// are allowed.
func ValidateOutputPath(filePath string, allowedDirs ...string) error {
	if len(allowedDirs) == 0 {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
		allowedDirs = []string{os.TempDir(), cwd}
	}
	for _, dir := range allowedDirs {
		if WithinDirectory(filePath, dir) == nil {
			return nil
		}
	}
	return fmt.Errorf("%w: %s must be within one of %v", ErrPathOutsideAllowed, filePath, allowedDirs)
}

const maxNameLen = 128

// SanitizeName makes a safe dataset or file name from an arbitrary string.
// Anything other than ASCII letters, digits, dot, underscore or dash becomes
// a single underscore. The result is trimmed of leading and trailing dots
// and underscores and capped at 128 bytes. An empty result yields fallback.
func SanitizeName(s, fallback string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		if b.Len() >= maxNameLen {
			break
		}
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'),
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
			lastUnderscore = r == '_'
		case !lastUnderscore:
			b.WriteRune('_')
			lastUnderscore = true
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return fallback
	}
	return out
}

// DatasetNameFromFilename derives a dataset name from an uploaded file name
// by dropping any directory and the .json extension.
func DatasetNameFromFilename(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return SanitizeName(base, "upload")
}
