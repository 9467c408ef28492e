package journal

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fenilsonani/sortdir/internal/organizer"
	"github.com/google/uuid"
)

// ErrNoRuns is returned by Latest when the journal is empty
var ErrNoRuns = errors.New("no runs recorded")

// Journal persists organize reports as one JSON file per run
type Journal struct {
	dir string
}

// New opens the journal in dir, creating it if needed
func New(dir string) (*Journal, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}
	return &Journal{dir: dir}, nil
}

// Dir returns the journal directory
func (j *Journal) Dir() string {
	return j.dir
}

// Save writes report to <dir>/<run id>.json
func (j *Journal) Save(report *organizer.Report) error {
	if _, err := uuid.Parse(report.RunID); err != nil {
		return fmt.Errorf("invalid run id %q: %w", report.RunID, err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	tmp := j.path(report.RunID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write journal entry: %w", err)
	}
	if err := os.Rename(tmp, j.path(report.RunID)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write journal entry: %w", err)
	}
	return nil
}

// Load reads one run by id. A unique id prefix is accepted.
func (j *Journal) Load(id string) (*organizer.Report, error) {
	if _, err := uuid.Parse(id); err != nil {
		resolved, rErr := j.resolvePrefix(id)
		if rErr != nil {
			return nil, rErr
		}
		id = resolved
	}

	data, err := os.ReadFile(j.path(id))
	if err != nil {
		return nil, fmt.Errorf("failed to read journal entry: %w", err)
	}

	var report organizer.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal journal entry: %w", err)
	}
	return &report, nil
}

func (j *Journal) resolvePrefix(prefix string) (string, error) {
	if prefix == "" || strings.ContainsAny(prefix, `/\.`) {
		return "", fmt.Errorf("invalid run id %q", prefix)
	}

	ids, err := j.ids()
	if err != nil {
		return "", err
	}

	var match string
	for _, id := range ids {
		if strings.HasPrefix(id, prefix) {
			if match != "" {
				return "", fmt.Errorf("run id prefix %q is ambiguous", prefix)
			}
			match = id
		}
	}
	if match == "" {
		return "", fmt.Errorf("no run with id %q", prefix)
	}
	return match, nil
}

// List returns every recorded run, newest first. Unreadable entries are skipped.
func (j *Journal) List() ([]*organizer.Report, error) {
	ids, err := j.ids()
	if err != nil {
		return nil, err
	}

	var reports []*organizer.Report
	for _, id := range ids {
		report, err := j.Load(id)
		if err != nil {
			continue
		}
		reports = append(reports, report)
	}

	sort.Slice(reports, func(a, b int) bool {
		return reports[a].StartedAt.After(reports[b].StartedAt)
	})
	return reports, nil
}

// Latest returns the most recent run
func (j *Journal) Latest() (*organizer.Report, error) {
	reports, err := j.List()
	if err != nil {
		return nil, err
	}
	if len(reports) == 0 {
		return nil, ErrNoRuns
	}
	return reports[0], nil
}

// Delete removes a run by id
func (j *Journal) Delete(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid run id %q: %w", id, err)
	}
	if err := os.Remove(j.path(id)); err != nil {
		return fmt.Errorf("failed to delete journal entry: %w", err)
	}
	return nil
}

// Expire removes runs that started more than maxAge ago and returns how many
// were removed
func (j *Journal) Expire(maxAge time.Duration) (int, error) {
	reports, err := j.List()
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, report := range reports {
		if report.StartedAt.Before(cutoff) {
			if err := j.Delete(report.RunID); err != nil {
				continue
			}
			removed++
		}
	}
	return removed, nil
}

func (j *Journal) ids() ([]string, error) {
	entries, err := os.ReadDir(j.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read journal directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	return ids, nil
}

func (j *Journal) path(id string) string {
	return filepath.Join(j.dir, id+".json")
}
