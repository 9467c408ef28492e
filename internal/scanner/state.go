package scanner

import (
	"sort"

	"github.com/fenilsonani/sortdir/internal/classifier"
)

// ScanState accumulates the result of one scan pass. It is owned by a single
// organize run and never reused.
type ScanState struct {
	Root string

	// Registry holds classified files per known extension.
	Registry *classifier.Registry

	// Directories lists plain directories in pre-order (outer before inner).
	Directories []string

	// Unclassified holds files with an unknown or missing extension.
	Unclassified []string

	// Excluded holds entries skipped by exclude patterns.
	Excluded []string

	TotalSize int64

	unknown map[string]struct{}
	sizes   map[string]int64
}

func newScanState(root string) *ScanState {
	return &ScanState{
		Root:     root,
		Registry: classifier.NewRegistry(),
		unknown:  make(map[string]struct{}),
		sizes:    make(map[string]int64),
	}
}

func (s *ScanState) addFile(path string, size int64) {
	s.sizes[path] = size
	s.TotalSize += size

	ext, known := classifier.Classify(path)
	if known {
		s.Registry.Add(ext, path)
		return
	}
	if ext != "" {
		s.unknown[ext] = struct{}{}
	}
	s.Unclassified = append(s.Unclassified, path)
}

// UnknownExtensions returns the distinct unregistered extensions, sorted
func (s *ScanState) UnknownExtensions() []string {
	out := make([]string, 0, len(s.unknown))
	for ext := range s.unknown {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Size returns the size recorded for a scanned file
func (s *ScanState) Size(path string) int64 {
	return s.sizes[path]
}

// FileCount returns the number of files recorded, classified or not
func (s *ScanState) FileCount() int {
	return s.Registry.Len() + len(s.Unclassified)
}
