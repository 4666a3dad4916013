package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"jobwatch/internal/poll"
	"jobwatch/internal/scheduler"
)

var watchCommand = &cobra.Command{
	Use:   "watch",
	Short: "Run on the configured cron schedule until interrupted",
	Long: `Runs the cycle on schedule.cron (default @daily, in the configured time
zone). A tick that arrives while the previous run is still going is skipped.`,
	RunE: watchCmd,
}

var watchNow bool

func init() {
	watchCommand.Flags().BoolVar(&watchNow, "now", false, "Also run immediately (overrides schedule.run_on_start)")
	rootCmd.AddCommand(watchCommand)
}

func watchCmd(_ *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, closeDeps := poll.BuildDeps(ctx, cfg, log)
	defer closeDeps()

	p := poll.NewPoller(deps, cfg)
	s := scheduler.New(cfg.Schedule.Cron, cfg.Location(), "poll", p.Run, log)
	if err := s.Run(ctx, cfg.Schedule.RunOnStart || watchNow); err != nil {
		return err
	}

	st := p.Status()
	log.Info("[watch] stopped", "runs", st.Runs, "last_ok", st.LastOkAt, "last_error", st.LastError)
	return nil
}
