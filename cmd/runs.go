package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ynput/ayon-jira/internal/cli"
	"github.com/ynput/ayon-jira/internal/journal"
)

var (
	runsFlags cli.CommandFlags
	runsLimit int
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect the run journal",
	Long: `Every run that changed Jira or AYON is recorded in the run journal with the
epics, issues, links and tasks it created or updated.`,
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the most recent runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withJournal(cmd, func(ctx context.Context, printer *cli.Printer, j *journal.Journal) error {
			runs, err := j.ListRuns(ctx, runsLimit)
			if err != nil {
				return err
			}
			return printer.PrintRuns(runs)
		})
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show RUN_ID",
	Short: "Show the changes made by a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withJournal(cmd, func(ctx context.Context, printer *cli.Printer, j *journal.Journal) error {
			entries, err := j.Entries(ctx, args[0])
			if err != nil {
				return err
			}
			if len(entries) == 0 && runsFlags.OutputFormat == string(cli.OutputFormatTable) && !runsFlags.Quiet {
				fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatWarning("no changes recorded for run "+args[0]))
			}
			return printer.PrintEntries(entries)
		})
	},
}

// withJournal opens the configured run journal for the duration of fn.
func withJournal(cmd *cobra.Command, fn func(context.Context, *cli.Printer, *journal.Journal) error) error {
	printer, err := runsFlags.Printer(cmd)
	if err != nil {
		return err
	}
	overrides, err := newOverrides(cmd, map[string]string{"journal": "journalPath"})
	if err != nil {
		return err
	}
	settings, err := loadSettings(cmd, &runsFlags, overrides)
	if err != nil {
		return err
	}

	j, err := journal.Open(settings.JournalPath)
	if err != nil {
		return err
	}
	defer j.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(ctx, printer, j)
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsListCmd, runsShowCmd)

	cli.RegisterCommonFlags(runsCmd, &runsFlags)
	runsCmd.PersistentFlags().String("journal", "", "Run journal database (overrides journalPath)")
	runsListCmd.Flags().IntVar(&runsLimit, "limit", 20, "Maximum number of runs to list, 0 for all")
}
