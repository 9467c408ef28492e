package organizer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fenilsonani/sortdir/internal/naming"
	"github.com/fenilsonani/sortdir/internal/security"
	"github.com/mholt/archives"
)

// errEmptyArchive rejects zero-byte files, which some readers treat as an
// archive with no entries
var errEmptyArchive = errors.New("empty file")

// Extraction is one attempt at unpacking an archive
type Extraction struct {
	Archive string
	Target  string

	createdTarget bool
	written       []string // files and directories created by this attempt
}

// entryWriteError marks a failure writing extracted output, as opposed to
// a failure reading the archive
type entryWriteError struct {
	err error
}

func (e *entryWriteError) Error() string { return e.err.Error() }
func (e *entryWriteError) Unwrap() error { return e.err }

// Extractor unpacks archives into per-archive directories
type Extractor struct {
	dirs   *dirMaker
	dryRun bool
	logger *slog.Logger
}

// NewExtractor creates an archive extractor
func NewExtractor(dryRun bool, logger *slog.Logger) (*Extractor, error) {
	dirs, err := newDirMaker(dryRun)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{dirs: dirs, dryRun: dryRun, logger: logger}, nil
}

// TargetDir returns the directory an archive is unpacked into
func TargetDir(archive, destinationDir string) string {
	stem := naming.StripExtension(filepath.Base(archive))
	return filepath.Join(destinationDir, naming.Normalize(stem))
}

// Extract unpacks archive into TargetDir(archive, destinationDir). The
// archive itself is never touched. An unreadable archive yields an
// *ArchiveCorruptError; any other error is an *OpError or a context error.
// On failure everything this attempt created has already been removed.
func (e *Extractor) Extract(ctx context.Context, archive, destinationDir string) (*Extraction, error) {
	x := &Extraction{
		Archive: archive,
		Target:  TargetDir(archive, destinationDir),
	}
	if e.dryRun {
		return x, nil
	}

	if err := e.dirs.Ensure(destinationDir); err != nil {
		return x, err
	}
	if _, err := os.Lstat(x.Target); errors.Is(err, fs.ErrNotExist) {
		x.createdTarget = true
	}
	if err := os.MkdirAll(x.Target, 0755); err != nil {
		return x, CategorizeError(OpMkdir, x.Target, err)
	}

	if err := e.unpack(ctx, x); err != nil {
		e.rollback(x)

		var opErr *OpError
		var writeErr *entryWriteError
		switch {
		case ctx.Err() != nil:
			return x, ctx.Err()
		case errors.As(err, &opErr):
			return x, opErr
		case errors.As(err, &writeErr):
			return x, CategorizeError(OpExtract, x.Target, writeErr.err)
		}
		return x, err
	}

	e.logger.Debug("extracted archive", "archive", archive, "target", x.Target, "entries", len(x.written))
	return x, nil
}

func (e *Extractor) unpack(ctx context.Context, x *Extraction) error {
	file, err := os.Open(x.Archive)
	if err != nil {
		return CategorizeError(OpExtract, x.Archive, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return CategorizeError(OpExtract, x.Archive, err)
	}
	if info.Size() == 0 {
		return &ArchiveCorruptError{Path: x.Archive, Err: errEmptyArchive}
	}

	format, stream, err := archives.Identify(ctx, filepath.Base(x.Archive), file)
	if err != nil {
		return &ArchiveCorruptError{Path: x.Archive, Err: err}
	}

	switch f := format.(type) {
	case archives.Extractor:
		if err := f.Extract(ctx, stream, e.entryHandler(x)); err != nil {
			var writeErr *entryWriteError
			if errors.As(err, &writeErr) {
				return writeErr
			}
			return &ArchiveCorruptError{Path: x.Archive, Format: format.Extension(), Err: err}
		}
		return nil

	case archives.Decompressor:
		rc, err := f.OpenReader(stream)
		if err != nil {
			return &ArchiveCorruptError{Path: x.Archive, Format: format.Extension(), Err: err}
		}
		defer rc.Close()

		name := naming.Normalize(naming.StripExtension(filepath.Base(x.Archive)))
		if err := x.writeFile(filepath.Join(x.Target, name), rc, 0644); err != nil {
			var writeErr *entryWriteError
			if errors.As(err, &writeErr) {
				return writeErr
			}
			return &ArchiveCorruptError{Path: x.Archive, Format: format.Extension(), Err: err}
		}
		return nil
	}

	return &ArchiveCorruptError{
		Path:   x.Archive,
		Format: format.Extension(),
		Err:    fmt.Errorf("format cannot be extracted"),
	}
}

func (e *Extractor) entryHandler(x *Extraction) archives.FileHandler {
	return func(ctx context.Context, f archives.FileInfo) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		path, err := security.JoinWithin(x.Target, f.NameInArchive)
		if err != nil {
			e.logger.Warn("skipping archive entry outside target", "archive", x.Archive, "entry", f.NameInArchive)
			return nil
		}
		if path == x.Target {
			return nil
		}

		if f.IsDir() {
			return x.mkdirAll(path)
		}
		if !f.Mode().IsRegular() {
			e.logger.Debug("skipping non-regular archive entry", "archive", x.Archive, "entry", f.NameInArchive)
			return nil
		}

		if err := x.mkdirAll(filepath.Dir(path)); err != nil {
			return err
		}

		rc, err := f.Open()
		if err != nil {
			return err
		}
		defer rc.Close()

		perm := f.Mode().Perm()
		if perm == 0 {
			perm = 0644
		}
		return x.writeFile(path, rc, perm|0200)
	}
}

// mkdirAll creates dir and any missing parents below the target, recording
// each one it creates
func (x *Extraction) mkdirAll(dir string) error {
	var missing []string
	for d := dir; d != x.Target && d != filepath.Dir(d); d = filepath.Dir(d) {
		if _, err := os.Lstat(d); err == nil {
			break
		}
		missing = append(missing, d)
	}

	for i := len(missing) - 1; i >= 0; i-- {
		if err := os.Mkdir(missing[i], 0755); err != nil {
			if errors.Is(err, fs.ErrExist) {
				continue
			}
			return &entryWriteError{err: err}
		}
		x.written = append(x.written, missing[i])
	}
	return nil
}

// writeFile copies r into path. Read failures are returned as-is so the
// caller can treat them as archive corruption.
func (x *Extraction) writeFile(path string, r io.Reader, perm fs.FileMode) error {
	_, statErr := os.Lstat(path)
	existed := statErr == nil

	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return &entryWriteError{err: err}
	}
	if !existed {
		x.written = append(x.written, path)
	}

	w := &recordingWriter{w: out}
	if _, err := io.Copy(w, r); err != nil {
		out.Close()
		if w.err != nil {
			return &entryWriteError{err: w.err}
		}
		return err
	}
	if err := out.Close(); err != nil {
		return &entryWriteError{err: err}
	}
	return nil
}

type recordingWriter struct {
	w   io.Writer
	err error
}

func (rw *recordingWriter) Write(p []byte) (int, error) {
	n, err := rw.w.Write(p)
	if err != nil {
		rw.err = err
	}
	return n, err
}

// rollback removes everything the attempt created, newest first
func (e *Extractor) rollback(x *Extraction) {
	for i := len(x.written) - 1; i >= 0; i-- {
		if err := os.Remove(x.written[i]); err != nil && !errors.Is(err, fs.ErrNotExist) {
			e.logger.Warn("failed to remove partial extraction output", "path", x.written[i], "error", err)
		}
	}
	x.written = nil

	if x.createdTarget {
		if err := os.Remove(x.Target); err != nil && !errors.Is(err, fs.ErrNotExist) {
			e.logger.Warn("failed to remove extraction directory", "path", x.Target, "error", err)
		}
	}
}

// Discard deletes an archive that failed to extract. The path is logged
// before deletion since the archive cannot be recovered afterwards.
func (e *Extractor) Discard(x *Extraction) error {
	e.logger.Warn("deleting unreadable archive", "path", x.Archive)
	return e.removeArchive(x)
}

// Consume deletes a successfully extracted archive
func (e *Extractor) Consume(x *Extraction) error {
	e.logger.Info("deleting extracted archive", "path", x.Archive, "target", x.Target)
	return e.removeArchive(x)
}

func (e *Extractor) removeArchive(x *Extraction) error {
	if e.dryRun {
		return nil
	}
	if err := os.Remove(x.Archive); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return CategorizeError(OpDelete, x.Archive, err)
	}
	return nil
}
