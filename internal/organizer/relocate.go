package organizer

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fenilsonani/sortdir/internal/naming"
	lru "github.com/hashicorp/golang-lru/v2"
)

const dirCacheSize = 256

// dirMaker creates destination directories, remembering the ones it has
// already ensured during a run
type dirMaker struct {
	ensured *lru.Cache[string, struct{}]
	dryRun  bool
}

func newDirMaker(dryRun bool) (*dirMaker, error) {
	cache, err := lru.New[string, struct{}](dirCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create directory cache: %w", err)
	}
	return &dirMaker{ensured: cache, dryRun: dryRun}, nil
}

// Ensure creates dir and its missing ancestors. It is a no-op in dry-run mode.
func (d *dirMaker) Ensure(dir string) error {
	if d.dryRun || d.ensured.Contains(dir) {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return CategorizeError(OpMkdir, dir, err)
	}
	d.ensured.Add(dir, struct{}{})
	return nil
}

// Relocator moves files into category directories under normalized names
type Relocator struct {
	resolver *naming.CollisionResolver
	dirs     *dirMaker
	dryRun   bool
	logger   *slog.Logger
}

// NewRelocator creates a relocator that resolves name collisions with resolver
func NewRelocator(resolver *naming.CollisionResolver, dryRun bool, logger *slog.Logger) (*Relocator, error) {
	dirs, err := newDirMaker(dryRun)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Relocator{
		resolver: resolver,
		dirs:     dirs,
		dryRun:   dryRun,
		logger:   logger,
	}, nil
}

// Relocate creates destinationDir if needed and moves file into it under its
// normalized base name. It returns the final path. A collision under the
// error policy returns an OpError with ErrorExists and leaves file in place.
func (r *Relocator) Relocate(file, destinationDir string) (string, error) {
	if err := r.dirs.Ensure(destinationDir); err != nil {
		return "", err
	}

	target := filepath.Join(destinationDir, naming.Normalize(filepath.Base(file)))
	if target == file {
		return target, nil
	}

	final, err := r.resolver.Resolve(file, target)
	if err != nil {
		return "", CategorizeError(OpMove, file, err)
	}

	if r.dryRun {
		return final, nil
	}

	if r.resolver.Policy() == naming.PolicyOverwrite {
		if _, err := os.Lstat(final); err == nil {
			r.logger.Warn("overwriting existing file", "path", final, "source", file)
		}
	}

	if err := os.Rename(file, final); err != nil {
		return "", CategorizeError(OpMove, file, err)
	}

	r.logger.Debug("relocated file", "from", file, "to", final)
	return final, nil
}
