package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder collects organize statistics on a private registry
type Recorder struct {
	registry *prometheus.Registry

	relocated   *prometheus.CounterVec
	unknown     prometheus.Counter
	archives    *prometheus.CounterVec
	pruned      *prometheus.CounterVec
	runDuration prometheus.Histogram
	lastRun     prometheus.Gauge
}

// NewRecorder creates a Recorder with its own registry
func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()

	relocated := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sortdir",
			Name:      "files_relocated_total",
			Help:      "Files moved into a category directory.",
		},
		[]string{"category"},
	)
	unknown := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "sortdir",
			Name:      "unknown_files_total",
			Help:      "Files with an unknown or missing extension moved to not_defined.",
		},
	)
	archives := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sortdir",
			Name:      "archives_total",
			Help:      "Archives processed by outcome.",
		},
		[]string{"status"},
	)
	pruned := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sortdir",
			Name:      "dirs_pruned_total",
			Help:      "Directory removal attempts by outcome.",
		},
		[]string{"status"},
	)
	runDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "sortdir",
			Name:      "run_duration_seconds",
			Help:      "Wall time of organize runs.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
		},
	)
	lastRun := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "sortdir",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last organize run finished.",
		},
	)

	registry.MustRegister(relocated, unknown, archives, pruned, runDuration, lastRun)

	return &Recorder{
		registry:    registry,
		relocated:   relocated,
		unknown:     unknown,
		archives:    archives,
		pruned:      pruned,
		runDuration: runDuration,
		lastRun:     lastRun,
	}
}

// FileRelocated counts a file moved into category
func (r *Recorder) FileRelocated(category string) {
	r.relocated.WithLabelValues(category).Inc()
}

// UnknownFile counts a file moved to not_defined
func (r *Recorder) UnknownFile() {
	r.unknown.Inc()
}

// ArchiveProcessed counts an archive by outcome
func (r *Recorder) ArchiveProcessed(status string) {
	r.archives.WithLabelValues(status).Inc()
}

// DirPruned counts a directory removal attempt by outcome
func (r *Recorder) DirPruned(status string) {
	r.pruned.WithLabelValues(status).Inc()
}

// ObserveRun records a finished run's duration and completion time
func (r *Recorder) ObserveRun(d time.Duration) {
	r.runDuration.Observe(d.Seconds())
	r.lastRun.SetToCurrentTime()
}

// Gatherer exposes the registry, mainly for tests
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes the current metrics in the node_exporter textfile
// format. The write is atomic.
func (r *Recorder) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
