package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fenilsonani/sortdir/internal/config"
	"github.com/fenilsonani/sortdir/internal/organizer"
	"github.com/robfig/cron/v3"
)

const stopTimeout = 30 * time.Second

// SortJob is a scheduled organize run of one folder
type SortJob struct {
	Name       string
	Schedule   string
	Folder     string
	DryRun     bool
	SkipIfBusy bool
}

func newSortJob(s config.SortSchedule) *SortJob {
	return &SortJob{
		Name:       s.Name,
		Schedule:   s.Schedule,
		Folder:     s.Folder,
		DryRun:     s.DryRun,
		SkipIfBusy: s.SkipIfBusy,
	}
}

// Scheduler manages scheduled sort jobs
type Scheduler struct {
	daemon    *Daemon
	cron      *cron.Cron
	logger    cron.Logger
	jobs      map[string]cron.EntryID
	defs      map[string]*SortJob
	order     []string
	jobsMu    sync.RWMutex
	running   bool
	ctx       context.Context
	schedules []config.SortSchedule
}

// NewScheduler creates a new scheduler
func NewScheduler(daemon *Daemon, schedules []config.SortSchedule) *Scheduler {
	parser := cron.NewParser(
		cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
	)
	logger := cronLogger{daemon.logger}

	c := cron.New(cron.WithParser(parser), cron.WithLogger(logger), cron.WithChain(
		cron.Recover(logger),
	))

	return &Scheduler{
		daemon:    daemon,
		cron:      c,
		logger:    logger,
		jobs:      make(map[string]cron.EntryID),
		defs:      make(map[string]*SortJob),
		ctx:       context.Background(),
		schedules: schedules,
	}
}

// Prepare registers the configured schedules without starting the cron
// loop. Schedules already registered are left alone.
func (s *Scheduler) Prepare() error {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	return s.prepare()
}

func (s *Scheduler) prepare() error {
	for _, schedule := range s.schedules {
		if _, exists := s.jobs[schedule.Name]; exists {
			continue
		}
		if err := s.addJob(schedule); err != nil {
			return fmt.Errorf("failed to add schedule %s: %w", schedule.Name, err)
		}
	}
	return nil
}

// Start registers the configured schedules and starts the cron loop. Jobs
// run with ctx and are cancelled with it.
func (s *Scheduler) Start(ctx context.Context) error {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}
	s.ctx = ctx

	if err := s.prepare(); err != nil {
		return err
	}

	s.cron.Start()
	s.running = true

	s.daemon.logger.Info("scheduler started", "jobs", len(s.jobs))
	return nil
}

// Stop stops the cron loop and waits for running jobs
func (s *Scheduler) Stop() {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	if !s.running {
		return
	}

	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(stopTimeout):
		s.daemon.logger.Warn("scheduler stop timed out")
	}

	s.running = false
	s.daemon.logger.Info("scheduler stopped")
}

// addJob registers one schedule; the caller holds jobsMu
func (s *Scheduler) addJob(schedule config.SortSchedule) error {
	if _, exists := s.jobs[schedule.Name]; exists {
		return fmt.Errorf("job %s already exists", schedule.Name)
	}

	job := newSortJob(schedule)

	// Overlapping runs of one job are skipped or queued; they never sort
	// the same folder concurrently.
	wrapper := cron.DelayIfStillRunning(s.logger)
	if job.SkipIfBusy {
		wrapper = cron.SkipIfStillRunning(s.logger)
	}
	run := cron.NewChain(wrapper).Then(cron.FuncJob(func() {
		if _, err := s.daemon.RunSortJob(s.ctx, job); err != nil {
			s.daemon.logger.Error("job failed", "job", job.Name, "error", err)
		}
	}))

	id, err := s.cron.AddJob(schedule.Schedule, run)
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.jobs[schedule.Name] = id
	s.defs[schedule.Name] = job
	s.order = append(s.order, schedule.Name)

	s.daemon.logger.Debug("added job", "job", schedule.Name, "schedule", schedule.Schedule)
	return nil
}

// nextRun returns the entry's next activation. Before the cron loop starts
// it is computed from the schedule.
func nextRun(entry cron.Entry, now time.Time) time.Time {
	if !entry.Next.IsZero() || entry.Schedule == nil {
		return entry.Next
	}
	return entry.Schedule.Next(now)
}

// GetNextRun returns the next run time for a job
func (s *Scheduler) GetNextRun(name string) (time.Time, error) {
	s.jobsMu.RLock()
	defer s.jobsMu.RUnlock()

	id, exists := s.jobs[name]
	if !exists {
		return time.Time{}, fmt.Errorf("job %s not found", name)
	}

	return nextRun(s.cron.Entry(id), time.Now()), nil
}

// ListJobs returns the registered jobs in configuration order
func (s *Scheduler) ListJobs() []JobInfo {
	s.jobsMu.RLock()
	defer s.jobsMu.RUnlock()

	now := time.Now()
	jobs := make([]JobInfo, 0, len(s.order))
	for _, name := range s.order {
		entry := s.cron.Entry(s.jobs[name])
		def := s.defs[name]
		jobs = append(jobs, JobInfo{
			Name:     name,
			Schedule: def.Schedule,
			Folder:   s.daemon.folderFor(def),
			NextRun:  nextRun(entry, now),
			PrevRun:  entry.Prev,
		})
	}

	return jobs
}

// TriggerJob runs a job immediately, outside its schedule
func (s *Scheduler) TriggerJob(ctx context.Context, name string) (*organizer.Report, error) {
	s.jobsMu.RLock()
	job, exists := s.defs[name]
	s.jobsMu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("job %s not found", name)
	}

	s.daemon.logger.Info("manually triggering job", "job", name)
	return s.daemon.RunSortJob(ctx, job)
}

// JobInfo contains information about a scheduled job
type JobInfo struct {
	Name     string
	Schedule string
	Folder   string
	NextRun  time.Time
	PrevRun  time.Time
}

// cronLogger adapts slog to cron.Logger
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
