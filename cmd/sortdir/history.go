package main

import (
	"fmt"
	"time"

	"github.com/fenilsonani/sortdir/internal/journal"
	"github.com/fenilsonani/sortdir/internal/organizer"
	"github.com/fenilsonani/sortdir/internal/progress"
	"github.com/fenilsonani/sortdir/internal/reporter"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

type historyOptions struct {
	outputFmt string
	expire    time.Duration
}

func newHistoryCmd(global *globalOptions) *cobra.Command {
	opts := &historyOptions{}

	cmd := &cobra.Command{
		Use:   "history [id]",
		Short: "List past sort runs or show one",
		Long: `Without arguments lists recorded runs, newest first. With a run id (or a
unique prefix of one) prints that run's report; "last" prints the newest.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			cfg, err := global.loadConfig()
			if err != nil {
				return err
			}
			j, err := journal.New(cfg.Journal.Dir)
			if err != nil {
				return err
			}

			if opts.expire > 0 {
				removed, err := j.Expire(opts.expire)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d runs older than %s\n", removed, opts.expire)
				return nil
			}

			if len(args) == 1 {
				var report *organizer.Report
				if args[0] == "last" {
					report, err = j.Latest()
				} else {
					report, err = j.Load(args[0])
				}
				if err != nil {
					return err
				}
				if cmd.Flags().Changed("output") {
					cfg.Output = opts.outputFmt
				}
				format, err := reporter.ParseFormat(cfg.Output)
				if err != nil {
					return err
				}
				return reporter.New(cmd.OutOrStdout(), format).Report(report)
			}

			reports, err := j.List()
			if err != nil {
				return err
			}
			if len(reports) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No runs recorded in %s\n", j.Dir())
				return nil
			}
			printHistory(cmd, reports)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.outputFmt, "output", "", "output format for a single run (summary, table, json, yaml)")
	cmd.Flags().DurationVar(&opts.expire, "expire", 0, "remove runs older than this duration (e.g. 720h)")

	return cmd
}

func printHistory(cmd *cobra.Command, reports []*organizer.Report) {
	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"ID", "Started", "Root", "Files", "Corrupt", "Errors", "Duration"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)

	for _, r := range reports {
		table.Append([]string{
			r.RunID[:8],
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Root,
			fmt.Sprintf("%d", r.FileCount()+len(r.Unclassified)),
			fmt.Sprintf("%d", len(r.Corrupt)),
			fmt.Sprintf("%d", len(r.Errors)),
			progress.FormatDuration(r.Duration),
		})
	}
	table.Render()
}
