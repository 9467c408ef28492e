package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fenilsonani/sortdir/internal/config"
	"github.com/fenilsonani/sortdir/internal/organizer"
	"golang.org/x/sys/unix"
)

// ErrAlreadyRunning is returned when another daemon holds the lock file
var ErrAlreadyRunning = errors.New("daemon already running")

// ReportHandler receives the outcome of every scheduled run
type ReportHandler func(job string, report *organizer.Report, err error)

// Daemon runs scheduled organize jobs until stopped
type Daemon struct {
	config       *config.Config
	scheduler    *Scheduler
	logger       *slog.Logger
	metrics      organizer.Recorder
	onReport     ReportHandler
	downloadsDir string
	running      bool
	cancelFunc   context.CancelFunc
	mu           sync.RWMutex
}

// New creates a new daemon instance. downloadsDir is the folder used by
// schedules that do not name one.
func New(cfg *config.Config, downloadsDir string, logger *slog.Logger) (*Daemon, error) {
	if !cfg.Daemon.Enabled {
		return nil, fmt.Errorf("daemon not enabled in configuration")
	}
	if len(cfg.Daemon.Schedules) == 0 {
		return nil, fmt.Errorf("no daemon schedules configured")
	}
	if logger == nil {
		logger = slog.Default()
	}

	d := &Daemon{
		config:       cfg,
		logger:       logger.With("component", "daemon"),
		downloadsDir: downloadsDir,
	}
	d.scheduler = NewScheduler(d, cfg.Daemon.Schedules)
	return d, nil
}

// SetMetrics sets the recorder handed to every organizer run
func (d *Daemon) SetMetrics(m organizer.Recorder) {
	d.metrics = m
}

// SetReportHandler sets the callback invoked after each run
func (d *Daemon) SetReportHandler(h ReportHandler) {
	d.onReport = h
}

// Scheduler returns the daemon's scheduler
func (d *Daemon) Scheduler() *Scheduler {
	return d.scheduler
}

// Start runs the scheduler until ctx is cancelled, Stop is called or the
// process receives SIGINT or SIGTERM. Running jobs are cancelled and
// waited for before Start returns.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return ErrAlreadyRunning
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	ctx, cancel := context.WithCancel(ctx)
	d.cancelFunc = cancel
	d.running = true
	d.mu.Unlock()

	defer func() {
		cancel()
		stop()
		d.mu.Lock()
		d.running = false
		d.mu.Unlock()
	}()

	d.logger.Info("starting daemon", "schedules", len(d.config.Daemon.Schedules))

	if err := d.acquireLock(); err != nil {
		return err
	}
	defer d.releaseLock()

	if err := d.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer d.scheduler.Stop()

	<-ctx.Done()
	d.logger.Info("daemon shutting down")
	return nil
}

// Stop stops the daemon
func (d *Daemon) Stop() {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.cancelFunc != nil {
		d.cancelFunc()
	}
}

// RunSortJob organizes the job's folder once
func (d *Daemon) RunSortJob(ctx context.Context, job *SortJob) (*organizer.Report, error) {
	folder := d.folderFor(job)
	if folder == "" {
		return nil, fmt.Errorf("job %s: no folder configured", job.Name)
	}

	logger := d.logger.With("job", job.Name)
	logger.Info("running sort job", "folder", folder, "dry_run", job.DryRun)

	org, err := organizer.New(d.createJobConfig(job), logger)
	if err != nil {
		return nil, err
	}
	org.SetMetrics(d.metrics)

	report, err := org.Organize(ctx, folder)
	if d.onReport != nil {
		d.onReport(job.Name, report, err)
	}
	if err != nil {
		return report, fmt.Errorf("job %s: %w", job.Name, err)
	}

	logger.Info("sort job completed",
		"files", report.FileCount()+len(report.Unclassified),
		"extracted", len(report.Extracted),
		"corrupt", len(report.Corrupt),
		"errors", len(report.Errors),
		"duration", report.Duration.Round(time.Millisecond))
	return report, nil
}

// folderFor returns the folder a job sorts, defaulting to Downloads
func (d *Daemon) folderFor(job *SortJob) string {
	if job.Folder != "" {
		return job.Folder
	}
	return d.downloadsDir
}

// createJobConfig creates a config for a specific job
func (d *Daemon) createJobConfig(job *SortJob) *config.Config {
	cfg := *d.config
	if job.DryRun {
		cfg.DryRun = true
	}
	return &cfg
}

// acquireLock creates the lock file holding our pid. A lock left by a
// process that no longer exists is replaced.
func (d *Daemon) acquireLock() error {
	lockFile := d.config.Daemon.LockFile
	if lockFile == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(lockFile), 0755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	for attempt := 0; attempt < 2; attempt++ {
		file, err := os.OpenFile(lockFile, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0644)
		if err == nil {
			_, err = fmt.Fprintf(file, "%d\n", os.Getpid())
			if closeErr := file.Close(); err == nil {
				err = closeErr
			}
			return err
		}
		if !errors.Is(err, os.ErrExist) {
			return fmt.Errorf("failed to acquire lock: %w", err)
		}
		if !staleLock(lockFile) {
			return fmt.Errorf("%w (lock file %s)", ErrAlreadyRunning, lockFile)
		}
		d.logger.Warn("removing stale lock file", "path", lockFile)
		if err := os.Remove(lockFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove stale lock: %w", err)
		}
	}
	return fmt.Errorf("%w (lock file %s)", ErrAlreadyRunning, lockFile)
}

func (d *Daemon) releaseLock() {
	if d.config.Daemon.LockFile == "" {
		return
	}
	if err := os.Remove(d.config.Daemon.LockFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		d.logger.Warn("failed to remove lock file", "path", d.config.Daemon.LockFile, "error", err)
	}
}

// staleLock reports whether the pid in lockFile names a dead process
func staleLock(lockFile string) bool {
	data, err := os.ReadFile(lockFile)
	if err != nil {
		return false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return true
	}
	return unix.Kill(pid, 0) == unix.ESRCH
}
