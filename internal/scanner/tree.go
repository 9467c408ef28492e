package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fenilsonani/sortdir/internal/classifier"
	"github.com/fenilsonani/sortdir/internal/progress"
	"github.com/fenilsonani/sortdir/internal/security"
)

// Scanner walks a root directory and classifies every file below it
type Scanner struct {
	excludePatterns  []string
	progressReporter *progress.Reporter
}

// New creates a new Scanner. Patterns are glob patterns matched against
// entry base names.
func New(excludePatterns []string) (*Scanner, error) {
	for _, pattern := range excludePatterns {
		if err := security.ValidateGlobPattern(pattern); err != nil {
			return nil, err
		}
	}
	return &Scanner{excludePatterns: excludePatterns}, nil
}

// SetProgressReporter sets the reporter that receives scan updates
func (s *Scanner) SetProgressReporter(pr *progress.Reporter) {
	s.progressReporter = pr
}

// Scan visits every entry under root without mutating the filesystem.
// Reserved category roots are skipped at any depth. Directories are walked
// from an explicit stack so depth is not bounded by the goroutine stack;
// popping children in reverse keeps the recursive pre-order. Read errors
// abort the scan.
func (s *Scanner) Scan(ctx context.Context, root string) (*ScanState, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %s: %w", root, err)
	}

	state := newScanState(absRoot)
	startTime := time.Now()

	stack := []string{absRoot}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if dir != absRoot {
			state.Directories = append(state.Directories, dir)
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("read directory %s: %w", dir, err)
		}

		var subdirs []string
		for _, entry := range entries {
			path := filepath.Join(dir, entry.Name())

			if s.excluded(entry.Name()) {
				state.Excluded = append(state.Excluded, path)
				continue
			}

			if entry.IsDir() {
				if classifier.IsReservedRoot(entry.Name()) {
					continue
				}
				subdirs = append(subdirs, path)
				continue
			}

			info, err := entry.Info()
			if err != nil {
				return nil, fmt.Errorf("stat %s: %w", path, err)
			}
			state.addFile(path, info.Size())
		}

		for i := len(subdirs) - 1; i >= 0; i-- {
			stack = append(stack, subdirs[i])
		}

		s.progressReporter.Publish(&progress.Update{
			Phase:     progress.PhaseScanning,
			Current:   dir,
			Done:      state.FileCount(),
			StartTime: startTime,
		})
	}

	return state, nil
}

func (s *Scanner) excluded(name string) bool {
	for _, pattern := range s.excludePatterns {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
	}
	return false
}
