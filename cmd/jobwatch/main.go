// Command jobwatch watches career boards, keeps a ledger of when each posting
// opened and closed, and reports the new ones.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "jobwatch",
	Short: "Track job postings on Gupy career boards",
	Long: `jobwatch scrapes the configured career boards, reconciles what it sees with
the history ledger (new, reopened and closed postings) and pushes the result
to the CSV ledger, a Google Sheet, an email digest and Telegram.`,
	SilenceUsage: true,
}

var (
	configPath string
	dataDir    string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to jobwatch.yml (default: <data-dir>/jobwatch.yml, created on first use)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Directory for config, history and journal (default: $JOBWATCH_DATA_DIR or .)")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
