package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"jobwatch/internal/poll"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Scrape once, update the ledger and notify",
	Long: `Runs one cycle: scrape every (source, search term) pair, reconcile with the
history ledger, save it, then record the run in the journal, mirror the ledger
to Google Sheets and send the digest of new and reopened postings.

Only a failure to save the ledger makes the command fail; sink failures are
logged and reported in the summary.`,
	RunE: runOnceCmd,
}

var (
	runDryRun     bool
	runAllowEmpty bool
)

func init() {
	runCommand.Flags().BoolVar(&runDryRun, "dry-run", false, "Scrape and reconcile but write nothing and notify no one")
	runCommand.Flags().BoolVar(&runAllowEmpty, "allow-empty", false, "Let an empty scrape close every open posting")
	rootCmd.AddCommand(runCommand)
}

func runOnceCmd(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	if runAllowEmpty {
		cfg.Guard.AllowEmptySnapshot = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, closeDeps := poll.BuildDeps(ctx, cfg, log)
	defer closeDeps()
	deps.DryRun = runDryRun

	rep, err := poll.RunOnce(ctx, deps, cfg)
	if poll.IsLocked(err) {
		return errors.New("another jobwatch run is in progress")
	}
	if err != nil {
		return err
	}
	printReport(cmd.OutOrStdout(), rep)
	return nil
}

func printReport(w io.Writer, rep poll.Report) {
	mode := ""
	if rep.DryRun {
		mode = " (dry run)"
	}
	fmt.Fprintf(w, "Run %s on %s%s\n", rep.RunID, rep.Day, mode)
	fmt.Fprintf(w, "  observed:   %d (fetch failures: %d)\n", rep.Observed, rep.Failures)
	fmt.Fprintf(w, "  new:        %d\n", rep.Opened)
	fmt.Fprintf(w, "  reopened:   %d\n", rep.Reopened)
	fmt.Fprintf(w, "  closed:     %d\n", rep.Closed)
	if rep.Suppressed > 0 {
		fmt.Fprintf(w, "  held open:  %d (%s)\n", rep.Suppressed, guardReason(rep))
	}
	if rep.Load.Dropped+rep.Load.Repaired > 0 {
		fmt.Fprintf(w, "  ledger rows dropped/repaired on load: %d/%d\n", rep.Load.Dropped, rep.Load.Repaired)
	}
	fmt.Fprintf(w, "  ledger:     %d postings\n", rep.Total)
	sinks := []struct {
		name string
		err  error
	}{{"journal", rep.JournalErr}, {"sheets", rep.SheetsErr}, {"notify", rep.NotifyErr}}
	for _, s := range sinks {
		if s.err != nil {
			fmt.Fprintf(w, "  %s failed: %v\n", s.name, s.err)
		}
	}
	for _, r := range rep.Delta {
		fmt.Fprintf(w, "  + [%s] %s | %s\n    %s\n", r.Status, r.Title, r.Source, r.Identifier)
	}
}

func guardReason(rep poll.Report) string {
	if rep.Guard.Reason != "" {
		return rep.Guard.Reason
	}
	return fmt.Sprintf("failed sources: %v", rep.FailedSources)
}
