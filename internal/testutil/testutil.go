// Package testutil provides test helpers and fixtures for sortdir tests.
// All file operations use t.TempDir() for safe, isolated testing.
package testutil

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

// TestFixture holds the root of a disposable directory tree
type TestFixture struct {
	T       *testing.T
	RootDir string // Root temp directory (auto-cleaned)
}

// NewFixture creates a new test fixture rooted in a fresh temp directory
func NewFixture(t *testing.T) *TestFixture {
	t.Helper()

	return &TestFixture{
		T:       t,
		RootDir: t.TempDir(),
	}
}

// =============================================================================
// File Creation Helpers
// =============================================================================

// CreateFile creates a file with specified content and returns its path
func (f *TestFixture) CreateFile(relPath string, content []byte) string {
	f.T.Helper()

	fullPath := filepath.Join(f.RootDir, relPath)
	dir := filepath.Dir(fullPath)

	if err := os.MkdirAll(dir, 0755); err != nil {
		f.T.Fatalf("failed to create directory %s: %v", dir, err)
	}

	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		f.T.Fatalf("failed to create file %s: %v", fullPath, err)
	}

	return fullPath
}

// CreateFiles creates empty-content files named after themselves
func (f *TestFixture) CreateFiles(relPaths ...string) []string {
	f.T.Helper()

	paths := make([]string, 0, len(relPaths))
	for _, rel := range relPaths {
		paths = append(paths, f.CreateFile(rel, []byte(rel)))
	}
	return paths
}

// CreateDir creates a directory (and parents) and returns its path
func (f *TestFixture) CreateDir(relPath string) string {
	f.T.Helper()

	fullPath := filepath.Join(f.RootDir, relPath)
	if err := os.MkdirAll(fullPath, 0755); err != nil {
		f.T.Fatalf("failed to create directory %s: %v", fullPath, err)
	}

	return fullPath
}

// CreateSymlink creates a symlink at linkPath pointing to target
func (f *TestFixture) CreateSymlink(target, linkPath string) string {
	f.T.Helper()

	fullLink := filepath.Join(f.RootDir, linkPath)
	if err := os.MkdirAll(filepath.Dir(fullLink), 0755); err != nil {
		f.T.Fatalf("failed to create directory for symlink: %v", err)
	}
	if err := os.Symlink(target, fullLink); err != nil {
		f.T.Fatalf("failed to create symlink %s -> %s: %v", fullLink, target, err)
	}

	return fullLink
}

// CreateNoPermissionDir creates a directory with mode 0000 and restores
// its mode on cleanup so t.TempDir can remove it
func (f *TestFixture) CreateNoPermissionDir(relPath string) string {
	f.T.Helper()

	fullPath := f.CreateDir(relPath)
	if err := os.Chmod(fullPath, 0000); err != nil {
		f.T.Fatalf("failed to chmod %s: %v", fullPath, err)
	}
	f.T.Cleanup(func() { _ = os.Chmod(fullPath, 0755) })

	return fullPath
}

// =============================================================================
// Archive Helpers
// =============================================================================

// CreateZip writes a zip archive holding the given entries
func (f *TestFixture) CreateZip(relPath string, entries map[string]string) string {
	f.T.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range sortedKeys(entries) {
		w, err := zw.Create(name)
		if err != nil {
			f.T.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(entries[name])); err != nil {
			f.T.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		f.T.Fatalf("zip close: %v", err)
	}

	return f.CreateFile(relPath, buf.Bytes())
}

// CreateTar writes an uncompressed tar archive holding the given entries
func (f *TestFixture) CreateTar(relPath string, entries map[string]string) string {
	f.T.Helper()
	return f.CreateFile(relPath, f.tarBytes(entries))
}

// CreateTarGz writes a gzip-compressed tar archive holding the given entries
func (f *TestFixture) CreateTarGz(relPath string, entries map[string]string) string {
	f.T.Helper()
	return f.CreateFile(relPath, f.gzipBytes(f.tarBytes(entries)))
}

// CreateGz writes content as a single gzip stream
func (f *TestFixture) CreateGz(relPath string, content string) string {
	f.T.Helper()
	return f.CreateFile(relPath, f.gzipBytes([]byte(content)))
}

// CreateCorruptArchive writes bytes that no archive reader accepts
func (f *TestFixture) CreateCorruptArchive(relPath string) string {
	f.T.Helper()
	return f.CreateFile(relPath, []byte("this is definitely not an archive"))
}

func (f *TestFixture) tarBytes(entries map[string]string) []byte {
	f.T.Helper()

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, name := range sortedKeys(entries) {
		body := entries[name]
		hdr := &tar.Header{Name: name, Mode: 0644, Size: int64(len(body)), Typeflag: tar.TypeReg}
		if err := tw.WriteHeader(hdr); err != nil {
			f.T.Fatalf("tar header %s: %v", name, err)
		}
		if _, err := tw.Write([]byte(body)); err != nil {
			f.T.Fatalf("tar write %s: %v", name, err)
		}
	}
	if err := tw.Close(); err != nil {
		f.T.Fatalf("tar close: %v", err)
	}
	return buf.Bytes()
}

func (f *TestFixture) gzipBytes(data []byte) []byte {
	f.T.Helper()

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(data); err != nil {
		f.T.Fatalf("gzip write: %v", err)
	}
	if err := gw.Close(); err != nil {
		f.T.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// =============================================================================
// Path Helpers
// =============================================================================

// Path returns the absolute path for a relative path within the fixture
func (f *TestFixture) Path(relPath ...string) string {
	return filepath.Join(append([]string{f.RootDir}, relPath...)...)
}

// =============================================================================
// Assertion Helpers
// =============================================================================

// FileExists checks if a file exists (does not follow symlinks)
func (f *TestFixture) FileExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// AssertFileExists fails the test if the file doesn't exist
func (f *TestFixture) AssertFileExists(path string) {
	f.T.Helper()
	if !f.FileExists(path) {
		f.T.Errorf("expected file to exist: %s", path)
	}
}

// AssertFileNotExists fails the test if the file exists
func (f *TestFixture) AssertFileNotExists(path string) {
	f.T.Helper()
	if f.FileExists(path) {
		f.T.Errorf("expected file to not exist: %s", path)
	}
}

// AssertFileContent fails the test if the file content differs
func (f *TestFixture) AssertFileContent(path, want string) {
	f.T.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		f.T.Errorf("failed to read %s: %v", path, err)
		return
	}
	if string(data) != want {
		f.T.Errorf("content of %s = %q, want %q", path, data, want)
	}
}

// =============================================================================
// Tree Helpers
// =============================================================================

// ListFiles returns every non-directory path under the fixture root,
// relative to it and sorted
func (f *TestFixture) ListFiles() []string {
	f.T.Helper()

	var files []string
	err := filepath.WalkDir(f.RootDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(f.RootDir, path)
		if err != nil {
			return err
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		f.T.Fatalf("failed to walk fixture: %v", err)
	}
	sort.Strings(files)
	return files
}

// IsRoot reports whether tests run with uid 0
func IsRoot() bool {
	return os.Getuid() == 0
}

// SkipIfRoot skips tests that rely on permission checks
func SkipIfRoot(t *testing.T) {
	t.Helper()
	if IsRoot() {
		t.Skip("skipping test when running as root")
	}
}
