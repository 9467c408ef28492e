package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fenilsonani/sortdir/internal/config"
	"github.com/fenilsonani/sortdir/internal/journal"
	"github.com/fenilsonani/sortdir/internal/metrics"
	"github.com/fenilsonani/sortdir/internal/organizer"
	"github.com/fenilsonani/sortdir/internal/progress"
	"github.com/fenilsonani/sortdir/internal/reporter"
	"github.com/fenilsonani/sortdir/internal/ui"
	"github.com/spf13/cobra"
)

type sortOptions struct {
	outputFmt      string
	outputFile     string
	dryRun         bool
	collision      string
	workers        int
	deleteArchives bool
	noProgress     bool
}

func newSortCmd(global *globalOptions) *cobra.Command {
	opts := &sortOptions{}

	cmd := &cobra.Command{
		Use:     "sort <folder>",
		Aliases: []string{"organize"},
		Short:   "Sort a folder into category folders",
		Long: `Moves every file under <folder> into images/, audio/, video/, documents/
or not_defined/, extracts archives under archives/ and removes directories
left empty. Use --dry-run to see the plan without changing anything.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			cfg, logger, closer, err := global.setup()
			if err != nil {
				return err
			}
			defer closer.Close()

			opts.applyOverrides(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			format, err := reporter.ParseFormat(cfg.Output)
			if err != nil {
				return err
			}
			applyPlatform(cfg, logger)

			org, err := organizer.New(cfg, logger)
			if err != nil {
				return err
			}
			rec := metrics.NewRecorder()
			org.SetMetrics(rec)
			pr := progress.NewReporter()
			org.SetProgressReporter(pr)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			var report *organizer.Report
			run := func(ctx context.Context) error {
				var runErr error
				report, runErr = org.Organize(ctx, args[0])
				return runErr
			}

			title := "Sorting " + args[0]
			if cfg.DryRun {
				title = "Planning " + args[0]
			}
			if opts.noProgress {
				err = run(ctx)
			} else {
				err = ui.RunWithSpinner(ctx, os.Stderr, title, pr, run)
			}

			if report != nil {
				recordRun(cfg, rec, report, logger)
				if outErr := writeReport(cmd, report, format, opts.outputFile); outErr != nil && err == nil {
					err = outErr
				}
			}
			if err != nil {
				return fmt.Errorf("sort failed: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.outputFmt, "output", "", "output format (summary, table, json, yaml)")
	cmd.Flags().StringVar(&opts.outputFile, "file", "", "save report to file")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "show the plan without moving anything")
	cmd.Flags().StringVar(&opts.collision, "collision", "", "name collision policy (suffix, error, overwrite)")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "parallel archive extractions")
	cmd.Flags().BoolVar(&opts.deleteArchives, "delete-archives", false, "delete archives after successful extraction")
	cmd.Flags().BoolVar(&opts.noProgress, "no-progress", false, "disable the progress display")

	return cmd
}

// applyOverrides copies explicitly set flags onto cfg
func (o *sortOptions) applyOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.Output = o.outputFmt
	}
	if flags.Changed("dry-run") {
		cfg.DryRun = o.dryRun
	}
	if flags.Changed("collision") {
		cfg.Collision = o.collision
	}
	if flags.Changed("workers") {
		cfg.ExtractWorkers = o.workers
	}
	if flags.Changed("delete-archives") {
		cfg.DeleteArchiveOnSuccess = o.deleteArchives
	}
}

// recordRun writes the metrics textfile and, for real runs, the journal
// entry. Failures are logged; the run itself already happened.
func recordRun(cfg *config.Config, rec *metrics.Recorder, report *organizer.Report, logger *slog.Logger) {
	if cfg.Metrics.Textfile != "" {
		if err := rec.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logger.Warn("failed to write metrics", "path", cfg.Metrics.Textfile, "error", err)
		}
	}

	if !cfg.Journal.Enabled || report.DryRun {
		return
	}
	j, err := journal.New(cfg.Journal.Dir)
	if err == nil {
		err = j.Save(report)
	}
	if err != nil {
		logger.Warn("failed to save run history", "run_id", report.RunID, "error", err)
	}
}

func writeReport(cmd *cobra.Command, report *organizer.Report, format reporter.OutputFormat, outputFile string) error {
	if outputFile != "" {
		if err := reporter.SaveToFile(report, outputFile, format); err != nil {
			return fmt.Errorf("failed to save report: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Report saved to: %s\n", outputFile)
		return nil
	}

	if err := reporter.New(cmd.OutOrStdout(), format).Report(report); err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}
	return nil
}

type scanOptions struct {
	outputFmt  string
	outputFile string
}

func newScanCmd(global *globalOptions) *cobra.Command {
	opts := &scanOptions{}

	cmd := &cobra.Command{
		Use:   "scan <folder>",
		Short: "Classify a folder without changing it",
		Long:  `Scans <folder> and reports how its files would be classified.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			cfg, logger, closer, err := global.setup()
			if err != nil {
				return err
			}
			defer closer.Close()

			if cmd.Flags().Changed("output") {
				cfg.Output = opts.outputFmt
			}
			format, err := reporter.ParseFormat(cfg.Output)
			if err != nil {
				return err
			}
			applyPlatform(cfg, logger)

			org, err := organizer.New(cfg, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			state, err := org.Scan(ctx, args[0])
			if err != nil {
				return fmt.Errorf("scan failed: %w", err)
			}
			return writeReport(cmd, organizer.NewScanReport(state), format, opts.outputFile)
		},
	}

	cmd.Flags().StringVar(&opts.outputFmt, "output", "", "output format (summary, table, json, yaml)")
	cmd.Flags().StringVar(&opts.outputFile, "file", "", "save report to file")

	return cmd
}
