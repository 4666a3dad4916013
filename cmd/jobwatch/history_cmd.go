package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"jobwatch/internal/domain"
	"jobwatch/internal/history"
)

var historyCommand = &cobra.Command{
	Use:   "history",
	Short: "Summarize the ledger and list open postings",
	RunE:  historyCmd,
}

var historyAll bool

func init() {
	historyCommand.Flags().BoolVar(&historyAll, "all", false, "List closed postings too")
	rootCmd.AddCommand(historyCommand)
}

func historyCmd(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	recs, rep, err := history.Load(cfg.History.Path)
	if err != nil {
		return err
	}
	for _, is := range rep.Issues {
		log.Warn("[history] row issue", "line", is.Line, "identifier", is.Identifier, "problem", is.Problem)
	}
	printHistory(cmd.OutOrStdout(), recs, historyAll)
	return nil
}

func printHistory(w io.Writer, recs []domain.Record, all bool) {
	counts := map[domain.Status]int{}
	for _, r := range recs {
		counts[r.Status]++
	}
	fmt.Fprintf(w, "%d postings: %d active, %d reopened, %d closed\n",
		len(recs), counts[domain.StatusActive], counts[domain.StatusReopened], counts[domain.StatusClosed])

	for _, r := range recs {
		if !all && !r.Status.IsOpen() {
			continue
		}
		line := fmt.Sprintf("%-8s %s  %s | %s", r.Status, r.OpenedOn, r.Title, r.Source)
		if domain.HasDate(r.ClosedOn) {
			line += fmt.Sprintf(" (closed %s)", r.ClosedOn)
		}
		fmt.Fprintf(w, "%s\n  %s\n", line, r.Identifier)
	}
}
