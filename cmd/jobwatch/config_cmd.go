package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"jobwatch/internal/config"
)

var configCommand = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCommand = &cobra.Command{
	Use:   "init",
	Short: "Write the default jobwatch.yml into the data dir if it is missing",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, err := config.EnsureUserConfig(resolveDataDir(), defaultConfigPath)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "config: %s\n", path)
		return nil
	},
}

var configCheckCommand = &cobra.Command{
	Use:   "check",
	Short: "Load and validate the configuration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "ok: %d sources, %d search terms, history %s\n",
			len(cfg.Sources), len(cfg.SearchTerms), cfg.History.Path)
		return nil
	},
}

func init() {
	configCommand.AddCommand(configInitCommand, configCheckCommand)
	rootCmd.AddCommand(configCommand)
}
