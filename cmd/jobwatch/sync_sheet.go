package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"jobwatch/internal/history"
	"jobwatch/internal/sheets"
)

var syncSheetCommand = &cobra.Command{
	Use:   "sync-sheet",
	Short: "Push the current ledger to Google Sheets without scraping",
	RunE:  syncSheetCmd,
}

func init() {
	rootCmd.AddCommand(syncSheetCommand)
}

func syncSheetCmd(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	ctx := context.Background()

	sink, err := sheets.FromConfig(ctx, cfg, log)
	if errors.Is(err, sheets.ErrDisabled) {
		return errors.New("sheets not configured: set sheets.spreadsheet_id and GOOGLE_SERVICE_ACCOUNT_CREDENTIALS or GOOGLE_APPLICATION_CREDENTIALS")
	}
	if err != nil {
		return err
	}

	recs, _, err := history.Load(cfg.History.Path)
	if err != nil {
		return err
	}
	if err := sink.Push(ctx, recs); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Pushed %d postings to %s\n", len(recs), cfg.Sheets.Tab)
	return nil
}
