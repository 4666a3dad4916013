package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"jobwatch/internal/store"
)

var journalCommand = &cobra.Command{
	Use:   "journal [identifier]",
	Short: "List recent runs, or the lifecycle of one posting",
	Args:  cobra.MaximumNArgs(1),
	RunE:  journalCmd,
}

var journalLimit int

func init() {
	journalCommand.Flags().IntVarP(&journalLimit, "limit", "n", 20, "Number of runs to show")
	rootCmd.AddCommand(journalCommand)
}

func journalCmd(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Journal.Enabled {
		return errors.New("journal is disabled (journal.enabled: false)")
	}
	db, err := store.Open(cfg.Journal.Path)
	if err != nil {
		return err
	}
	defer db.Close()
	ctx := context.Background()

	if len(args) == 1 {
		trs, err := db.ListTransitions(ctx, args[0])
		if err != nil {
			return err
		}
		printTransitions(cmd.OutOrStdout(), trs)
		return nil
	}

	runs, err := db.ListRuns(ctx, journalLimit)
	if err != nil {
		return err
	}
	printRuns(cmd.OutOrStdout(), runs)
	return nil
}

func printRuns(w io.Writer, runs []store.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "no runs recorded")
		return
	}
	for _, r := range runs {
		fmt.Fprintf(w, "%s  %-7s  observed=%d new=%d reopened=%d closed=%d held=%d failures=%d  %s\n",
			r.StartedAt.Local().Format("2006-01-02 15:04"), r.Status,
			r.Observed, r.Opened, r.Reopened, r.Closed, r.Suppressed, r.Failures, r.ID)
		if r.Error != "" {
			fmt.Fprintf(w, "    error: %s\n", r.Error)
		}
	}
}

func printTransitions(w io.Writer, trs []store.Transition) {
	if len(trs) == 0 {
		fmt.Fprintln(w, "no transitions recorded")
		return
	}
	for _, t := range trs {
		fmt.Fprintf(w, "%s  %-8s  %s | %s\n", t.OnDate, t.Kind, t.Title, t.Source)
	}
}
