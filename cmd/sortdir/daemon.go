package main

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/fenilsonani/sortdir/internal/daemon"
	"github.com/fenilsonani/sortdir/internal/metrics"
	"github.com/fenilsonani/sortdir/internal/organizer"
	"github.com/fenilsonani/sortdir/internal/reporter"
	"github.com/spf13/cobra"
)

func newDaemonCmd(global *globalOptions) *cobra.Command {
	var (
		testConfig bool
		runJob     string
	)

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run scheduled sorts in the foreground",
		Long: `Runs the schedules configured under daemon.schedules until interrupted.
Schedules without a folder sort the user's Downloads directory.

Use --test-config to check the schedules and print their next runs, or
--run <name> to run one schedule immediately and exit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			out := cmd.OutOrStdout()

			cfg, logger, closer, err := global.setup()
			if err != nil {
				return err
			}
			defer closer.Close()

			if !cfg.Daemon.Enabled {
				return errors.New(`daemon not enabled in configuration; add:
daemon:
  enabled: true
  schedules:
    - name: daily
      schedule: "0 2 * * *"`)
			}
			if len(cfg.Daemon.Schedules) == 0 {
				return errors.New("no schedules configured, add at least one schedule")
			}

			var downloads string
			if info := applyPlatform(cfg, logger); info != nil {
				downloads = info.DownloadsDir
			}

			d, err := daemon.New(cfg, downloads, logger)
			if err != nil {
				return err
			}
			scheduler := d.Scheduler()
			if err := scheduler.Prepare(); err != nil {
				return err
			}

			if testConfig {
				jobs := scheduler.ListJobs()
				fmt.Fprintln(out, "Configuration is valid")
				fmt.Fprintf(out, "Schedules: %d\n", len(jobs))
				for _, job := range jobs {
					folder := job.Folder
					if folder == "" {
						folder = "(no folder)"
					}
					fmt.Fprintf(out, "  - %s: %s -> %s (next run %s)\n",
						job.Name, job.Schedule, folder, job.NextRun.Format(time.RFC3339))
				}
				return nil
			}

			// One recorder for the daemon's lifetime so the textfile holds
			// cumulative counters.
			rec := metrics.NewRecorder()
			d.SetMetrics(rec)
			d.SetReportHandler(func(job string, report *organizer.Report, err error) {
				if report == nil {
					return
				}
				recordRun(cfg, rec, report, logger.With("job", job))
			})

			if runJob != "" {
				ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()

				report, err := scheduler.TriggerJob(ctx, runJob)
				if report != nil {
					if outErr := reporter.New(out, reporter.FormatSummary).Report(report); outErr != nil && err == nil {
						err = outErr
					}
				}
				return err
			}

			fmt.Fprintf(out, "Starting sortdir daemon with %d schedules...\n", len(cfg.Daemon.Schedules))
			if err := d.Start(cmd.Context()); err != nil {
				return fmt.Errorf("daemon failed: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&testConfig, "test-config", false, "validate the daemon configuration and exit")
	cmd.Flags().StringVar(&runJob, "run", "", "run the named schedule once and exit")

	return cmd
}
