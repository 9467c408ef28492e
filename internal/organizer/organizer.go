package organizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fenilsonani/sortdir/internal/classifier"
	"github.com/fenilsonani/sortdir/internal/config"
	"github.com/fenilsonani/sortdir/internal/naming"
	"github.com/fenilsonani/sortdir/internal/progress"
	"github.com/fenilsonani/sortdir/internal/scanner"
	"github.com/fenilsonani/sortdir/internal/security"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Recorder receives run statistics. metrics.Recorder implements it.
type Recorder interface {
	FileRelocated(category string)
	UnknownFile()
	ArchiveProcessed(status string)
	DirPruned(status string)
	ObserveRun(d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) FileRelocated(string) {}
func (nopRecorder) UnknownFile() {}
func (nopRecorder) ArchiveProcessed(string) {}
func (nopRecorder) DirPruned(string) {}
func (nopRecorder) ObserveRun(time.Duration) {}

// Move records one relocated file
type Move struct {
	From     string `json:"from" yaml:"from"`
	To       string `json:"to" yaml:"to"`
	Category string `json:"category" yaml:"category"`
	Size     int64  `json:"size" yaml:"size"`
}

// Report is the outcome of one organize run
type Report struct {
	RunID         string              `json:"run_id" yaml:"run_id"`
	Root          string              `json:"root" yaml:"root"`
	DryRun        bool                `json:"dry_run" yaml:"dry_run"`
	StartedAt     time.Time           `json:"started_at" yaml:"started_at"`
	Duration      time.Duration       `json:"duration" yaml:"duration"`
	Extensions    map[string][]string `json:"extensions" yaml:"extensions"`
	Unknown       []string            `json:"unknown" yaml:"unknown"`
	Unclassified  []string            `json:"unclassified,omitempty" yaml:"unclassified,omitempty"`
	Excluded      []string            `json:"excluded,omitempty" yaml:"excluded,omitempty"`
	Moves         []Move              `json:"moves,omitempty" yaml:"moves,omitempty"`
	Extracted     []string            `json:"extracted,omitempty" yaml:"extracted,omitempty"`
	Corrupt       []string            `json:"corrupt,omitempty" yaml:"corrupt,omitempty"`
	Pruned        []string            `json:"pruned,omitempty" yaml:"pruned,omitempty"`
	PruneFailures []PruneFailure      `json:"prune_failures,omitempty" yaml:"prune_failures,omitempty"`
	Errors        []*OpError          `json:"errors,omitempty" yaml:"errors,omitempty"`
	TotalBytes    int64               `json:"total_bytes" yaml:"total_bytes"`
}

// FileCount returns the number of classified files in the report
func (r *Report) FileCount() int {
	n := 0
	for _, files := range r.Extensions {
		n += len(files)
	}
	return n
}

// NewScanReport builds a dry-run report from a scan without planned moves
func NewScanReport(state *scanner.ScanState) *Report {
	return &Report{
		Root:         state.Root,
		DryRun:       true,
		StartedAt:    time.Now(),
		Extensions:   state.Registry.NonEmpty(),
		Unknown:      state.UnknownExtensions(),
		Unclassified: state.Unclassified,
		Excluded:     state.Excluded,
		TotalBytes:   state.TotalSize,
	}
}

// Organizer sorts a directory tree into category folders
type Organizer struct {
	config           *config.Config
	policy           naming.Policy
	validator        *security.PathValidator
	logger           *slog.Logger
	progressReporter *progress.Reporter
	metrics          Recorder
}

// New creates a new Organizer
func New(cfg *config.Config, logger *slog.Logger) (*Organizer, error) {
	policy, err := naming.ParsePolicy(cfg.Collision)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	validator := security.NewPathValidator()
	for _, path := range cfg.ProtectedPaths {
		validator.AddProtectedPath(path)
	}

	return &Organizer{
		config:    cfg,
		policy:    policy,
		validator: validator,
		logger:    logger,
		metrics:   nopRecorder{},
	}, nil
}

// SetProgressReporter sets the reporter that receives run updates
func (o *Organizer) SetProgressReporter(pr *progress.Reporter) {
	o.progressReporter = pr
}

// SetMetrics sets the recorder for run statistics
func (o *Organizer) SetMetrics(m Recorder) {
	if m == nil {
		m = nopRecorder{}
	}
	o.metrics = m
}

// Scan validates root and classifies its tree without changing anything
func (o *Organizer) Scan(ctx context.Context, root string) (*scanner.ScanState, error) {
	if err := o.validator.ValidateRoot(root); err != nil {
		return nil, err
	}
	return o.scan(ctx, root)
}

func (o *Organizer) scan(ctx context.Context, root string) (*scanner.ScanState, error) {
	s, err := scanner.New(o.config.ExcludePatterns)
	if err != nil {
		return nil, err
	}
	s.SetProgressReporter(o.progressReporter)
	return s.Scan(ctx, root)
}

// Organize scans root, relocates media and unclassified files, extracts
// archives and prunes the directories left empty. Unknown extensions,
// corrupt archives, destination collisions under the error policy and
// non-empty directories are recorded on the report. Any other filesystem
// error aborts the run and is returned with the partial report.
func (o *Organizer) Organize(ctx context.Context, root string) (*Report, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %s: %w", root, err)
	}

	report := &Report{
		RunID:     uuid.NewString(),
		Root:      absRoot,
		DryRun:    o.config.DryRun,
		StartedAt: time.Now(),
	}
	logger := o.logger.With("run_id", report.RunID, "root", absRoot)
	logger.Info("organize started", "dry_run", report.DryRun)

	finish := func(err error) (*Report, error) {
		report.Duration = time.Since(report.StartedAt)
		o.metrics.ObserveRun(report.Duration)
		if err != nil {
			logger.Error("organize failed", "error", err)
			o.progressReporter.Publish(&progress.Update{Phase: progress.PhaseError, StartTime: report.StartedAt, Error: err})
			return report, err
		}
		logger.Info("organize finished",
			"files", report.FileCount(),
			"extracted", len(report.Extracted),
			"corrupt", len(report.Corrupt),
			"pruned", len(report.Pruned),
			"duration", report.Duration)
		o.progressReporter.Publish(&progress.Update{Phase: progress.PhaseComplete, StartTime: report.StartedAt})
		return report, nil
	}

	if err := o.preflight(absRoot); err != nil {
		return finish(fmt.Errorf("preflight: %w", err))
	}

	state, err := o.scan(ctx, absRoot)
	if err != nil {
		return finish(fmt.Errorf("scan: %w", err))
	}
	report.Extensions = state.Registry.NonEmpty()
	report.Unknown = state.UnknownExtensions()
	report.Unclassified = state.Unclassified
	report.Excluded = state.Excluded
	report.TotalBytes = state.TotalSize

	relocator, err := NewRelocator(naming.NewCollisionResolver(o.policy), o.config.DryRun, logger)
	if err != nil {
		return finish(err)
	}
	if err := o.relocateAll(ctx, absRoot, state, relocator, report); err != nil {
		return finish(err)
	}

	if err := o.extractAll(ctx, absRoot, state, report, logger); err != nil {
		return finish(err)
	}

	if err := ctx.Err(); err != nil {
		return finish(fmt.Errorf("organize cancelled: %w", err))
	}
	if !o.config.DryRun {
		o.progressReporter.Publish(&progress.Update{
			Phase:     progress.PhasePruning,
			Total:     len(state.Directories),
			StartTime: report.StartedAt,
		})
		pruned, failures, err := Prune(ctx, state.Directories, logger)
		report.Pruned = pruned
		report.PruneFailures = failures
		for range pruned {
			o.metrics.DirPruned("removed")
		}
		for range failures {
			o.metrics.DirPruned("failed")
		}
		if err != nil {
			return finish(fmt.Errorf("organize cancelled: %w", err))
		}
	}

	return finish(nil)
}

// preflight refuses roots that are missing, protected or, unless this is a
// dry run, not writable
func (o *Organizer) preflight(root string) error {
	if err := o.validator.ValidateRoot(root); err != nil {
		return err
	}
	if o.config.DryRun {
		return nil
	}
	return checkWritable(root)
}

type relocation struct {
	file     string
	dest     string
	category classifier.Category
}

// relocateAll moves media in category order, then unclassified files
func (o *Organizer) relocateAll(ctx context.Context, root string, state *scanner.ScanState, r *Relocator, report *Report) error {
	var plan []relocation
	for _, cat := range classifier.MediaCategories {
		for _, ext := range classifier.Extensions(cat) {
			dest := filepath.Join(root, classifier.Destination(ext))
			for _, file := range state.Registry.Files(ext) {
				plan = append(plan, relocation{file: file, dest: dest, category: cat})
			}
		}
	}
	unclassifiedDir := filepath.Join(root, string(classifier.Unclassified))
	for _, file := range state.Unclassified {
		plan = append(plan, relocation{file: file, dest: unclassifiedDir, category: classifier.Unclassified})
	}

	for i, item := range plan {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("organize cancelled: %w", err)
		}

		o.progressReporter.Publish(&progress.Update{
			Phase:     progress.PhaseRelocating,
			Current:   item.file,
			Done:      i,
			Total:     len(plan),
			StartTime: report.StartedAt,
		})

		to, err := r.Relocate(item.file, item.dest)
		if err != nil {
			var opErr *OpError
			if errors.As(err, &opErr) && opErr.Reason == ErrorExists {
				report.Errors = append(report.Errors, opErr)
				continue
			}
			return fmt.Errorf("relocate %s: %w", item.file, err)
		}

		report.Moves = append(report.Moves, Move{
			From:     item.file,
			To:       to,
			Category: string(item.category),
			Size:     state.Size(item.file),
		})
		if item.category == classifier.Unclassified {
			o.metrics.UnknownFile()
		} else {
			o.metrics.FileRelocated(string(item.category))
		}
	}
	return nil
}

type archiveJob struct {
	index   int
	archive string
	dest    string
}

type archiveOutcome struct {
	target  string
	corrupt bool
	errs    []*OpError
}

// extractAll unpacks archives in ZIP, GZ, TAR order. Archives sharing a
// target directory are handled by one goroutine, in order; distinct targets
// run in parallel up to the configured worker count.
func (o *Organizer) extractAll(ctx context.Context, root string, state *scanner.ScanState, report *Report, logger *slog.Logger) error {
	var jobs []archiveJob
	groups := make(map[string][]archiveJob)
	var groupOrder []string
	for _, ext := range classifier.Extensions(classifier.Archives) {
		dest := filepath.Join(root, classifier.Destination(ext))
		for _, archive := range state.Registry.Files(ext) {
			job := archiveJob{index: len(jobs), archive: archive, dest: dest}
			jobs = append(jobs, job)

			target := TargetDir(archive, dest)
			if _, ok := groups[target]; !ok {
				groupOrder = append(groupOrder, target)
			}
			groups[target] = append(groups[target], job)
		}
	}
	if len(jobs) == 0 {
		return nil
	}

	extractor, err := NewExtractor(o.config.DryRun, logger)
	if err != nil {
		return err
	}

	outcomes := make([]archiveOutcome, len(jobs))
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(o.config.ExtractWorkers, 1))
	for _, target := range groupOrder {
		group := groups[target]
		g.Go(func() error {
			for _, job := range group {
				if err := gctx.Err(); err != nil {
					return err
				}

				o.progressReporter.Publish(&progress.Update{
					Phase:     progress.PhaseExtracting,
					Current:   job.archive,
					Done:      int(done.Load()),
					Total:     len(jobs),
					StartTime: report.StartedAt,
				})

				outcome, err := o.extractOne(gctx, extractor, job)
				if err != nil {
					return fmt.Errorf("extract %s: %w", job.archive, err)
				}
				outcomes[job.index] = outcome
				done.Add(1)
			}
			return nil
		})
	}

	waitErr := g.Wait()

	for _, outcome := range outcomes {
		switch {
		case outcome.corrupt:
			report.Corrupt = append(report.Corrupt, outcome.target)
		case outcome.target != "":
			report.Extracted = append(report.Extracted, outcome.target)
		}
		report.Errors = append(report.Errors, outcome.errs...)
	}

	if waitErr != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("organize cancelled: %w", ctx.Err())
		}
		return waitErr
	}
	return nil
}

// extractOne runs a single extraction. Corruption is recovered here by
// discarding the archive; only fatal errors are returned.
func (o *Organizer) extractOne(ctx context.Context, extractor *Extractor, job archiveJob) (archiveOutcome, error) {
	x, err := extractor.Extract(ctx, job.archive, job.dest)

	var corrupt *ArchiveCorruptError
	switch {
	case err == nil:
		o.metrics.ArchiveProcessed("extracted")
		outcome := archiveOutcome{target: x.Target}
		if o.config.DeleteArchiveOnSuccess {
			if err := extractor.Consume(x); err != nil {
				outcome.errs = append(outcome.errs, asOpError(OpDelete, job.archive, err))
			}
		}
		return outcome, nil

	case errors.As(err, &corrupt):
		o.metrics.ArchiveProcessed("corrupt")
		outcome := archiveOutcome{target: job.archive, corrupt: true}
		if err := extractor.Discard(x); err != nil {
			outcome.errs = append(outcome.errs, asOpError(OpDelete, job.archive, err))
		}
		return outcome, nil
	}

	return archiveOutcome{}, err
}

func asOpError(op, path string, err error) *OpError {
	var opErr *OpError
	if errors.As(err, &opErr) {
		return opErr
	}
	return CategorizeError(op, path, err)
}
