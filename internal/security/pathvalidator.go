package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrPathEscape is returned when a path resolves outside its base directory
var ErrPathEscape = errors.New("path escapes base directory")

// PathValidator checks that a folder is safe to reorganize
type PathValidator struct {
	protectedPaths []string
}

// NewPathValidator creates a new PathValidator with default protected paths
func NewPathValidator() *PathValidator {
	return &PathValidator{
		protectedPaths: []string{
			// Unix system directories
			"/",
			"/bin",
			"/boot",
			"/dev",
			"/etc",
			"/lib",
			"/lib64",
			"/proc",
			"/root",
			"/sbin",
			"/sys",
			"/usr",
			"/var",
			// macOS system directories
			"/System",
			"/Applications",
			"/Library",
		},
	}
}

// ValidateRoot checks that root exists, is a directory and is neither a
// protected path nor inside one
func (pv *PathValidator) ValidateRoot(root string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("failed to resolve path %s: %w", root, err)
	}

	// SECURITY: resolve symlinks so a link into /etc is treated as /etc
	resolved, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return fmt.Errorf("failed to resolve symlinks: %w", err)
	}
	resolved = filepath.Clean(resolved)

	info, err := os.Stat(resolved)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", root)
	}

	if pv.IsProtectedPath(resolved) {
		return fmt.Errorf("refusing to reorganize protected path: %s", resolved)
	}

	return nil
}

// IsProtectedPath checks if a path is a protected system path or sits
// directly under one. Deeper paths (/usr/local/share/inbox) are allowed.
// The filesystem root protects only itself, so /data or /mnt may be sorted.
func (pv *PathValidator) IsProtectedPath(path string) bool {
	cleanPath := filepath.Clean(path)
	for _, protected := range pv.protectedPaths {
		if cleanPath == protected {
			return true
		}
		if protected == string(filepath.Separator) {
			continue
		}
		rel, err := filepath.Rel(protected, cleanPath)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		if !strings.Contains(rel, string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// AddProtectedPath adds a custom protected path
func (pv *PathValidator) AddProtectedPath(path string) {
	cleanPath := filepath.Clean(path)
	pv.protectedPaths = append(pv.protectedPaths, cleanPath)
}

// JoinWithin joins name onto base and rejects results outside base. Archive
// entry names are untrusted and may contain ".." or absolute paths.
func JoinWithin(base, name string) (string, error) {
	cleanBase := filepath.Clean(base)
	target := filepath.Join(cleanBase, name)

	if target == cleanBase {
		return target, nil
	}
	if !strings.HasPrefix(target, cleanBase+string(filepath.Separator)) {
		return "", fmt.Errorf("%s: %w", name, ErrPathEscape)
	}
	return target, nil
}

// ValidateGlobPattern validates that a glob pattern is safe
func ValidateGlobPattern(pattern string) error {
	// Check for dangerous characters
	if strings.Contains(pattern, "..") {
		return fmt.Errorf("glob pattern contains directory traversal: %s", pattern)
	}

	// Try to match the pattern to ensure it's valid
	_, err := filepath.Match(pattern, "test")
	if err != nil {
		return fmt.Errorf("invalid glob pattern: %w", err)
	}

	return nil
}
