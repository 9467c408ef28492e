package daemon

import (
	"context"
	"testing"
	"time"

	"github.com/fenilsonani/sortdir/internal/config"
	"github.com/fenilsonani/sortdir/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler(t *testing.T, folder string) *Scheduler {
	t.Helper()
	d, err := New(testConfig(t, folder), "", nil)
	require.NoError(t, err)
	return d.Scheduler()
}

// ============================================================================
// Scheduler Tests
// ============================================================================

func TestSchedulerPrepare(t *testing.T) {
	d, err := New(testConfig(t, ""), "/home/u/Downloads", nil)
	require.NoError(t, err)
	d.config.Daemon.Schedules = append(d.config.Daemon.Schedules,
		config.SortSchedule{Name: "nightly", Schedule: "0 2 * * *", Folder: "/srv/inbox"})
	s := NewScheduler(d, d.config.Daemon.Schedules)

	before := time.Now()
	require.NoError(t, s.Prepare())
	require.NoError(t, s.Prepare(), "registered schedules are skipped")

	jobs := s.ListJobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, "inbox", jobs[0].Name)
	assert.Equal(t, "@every 1h", jobs[0].Schedule)
	assert.Equal(t, "/home/u/Downloads", jobs[0].Folder)
	assert.Equal(t, "nightly", jobs[1].Name)
	assert.Equal(t, "/srv/inbox", jobs[1].Folder)

	next, err := s.GetNextRun("nightly")
	require.NoError(t, err)
	assert.True(t, next.After(before))
	assert.Equal(t, 2, next.Hour())
	assert.Equal(t, 0, next.Minute())

	_, err = s.GetNextRun("missing")
	assert.Error(t, err)
}

func TestSchedulerPrepareRejectsBadSchedule(t *testing.T) {
	d, err := New(testConfig(t, t.TempDir()), "", nil)
	require.NoError(t, err)

	s := NewScheduler(d, []config.SortSchedule{{Name: "broken", Schedule: "every tuesday"}})
	assert.Error(t, s.Prepare())
	assert.Empty(t, s.ListJobs())
}

func TestSchedulerStartTwice(t *testing.T) {
	s := newTestScheduler(t, t.TempDir())

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()
	assert.Error(t, s.Start(context.Background()))

	jobs := s.ListJobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "inbox", jobs[0].Name)
}

func TestSchedulerStopWithoutStart(t *testing.T) {
	s := newTestScheduler(t, t.TempDir())
	s.Stop()
}

func TestSchedulerTriggerJob(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateFile("movie.mkv", []byte("mkv"))

	s := newTestScheduler(t, f.RootDir)
	require.NoError(t, s.Prepare())

	report, err := s.TriggerJob(context.Background(), "inbox")
	require.NoError(t, err)
	assert.Equal(t, []string{f.Path("movie.mkv")}, report.Extensions["MKV"])
	f.AssertFileExists(f.Path("video", "MKV", "movie.mkv"))

	_, err = s.TriggerJob(context.Background(), "missing")
	assert.Error(t, err)
}
