package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"jobwatch/internal/secrets"
)

var secretsCommand = &cobra.Command{
	Use:   "secrets",
	Short: "Store credentials in the OS keychain",
	Long: "Known names: " + strings.Join(secrets.Known, ", ") + `.
Environment variables with the same name take precedence over the keychain.`,
}

var secretsSetCommand = &cobra.Command{
	Use:   "set NAME [VALUE]",
	Short: "Store a secret (reads VALUE from stdin when omitted)",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		value := ""
		if len(args) == 2 {
			value = args[1]
		} else {
			// service-account JSON spans lines, so read everything
			var b strings.Builder
			sc := bufio.NewScanner(os.Stdin)
			sc.Buffer(make([]byte, 64*1024), 1<<20)
			for sc.Scan() {
				b.WriteString(sc.Text())
				b.WriteByte('\n')
			}
			if err := sc.Err(); err != nil {
				return err
			}
			value = strings.TrimSpace(b.String())
		}
		if err := secrets.Set(args[0], value); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "stored %s\n", args[0])
		return nil
	},
}

var secretsDeleteCommand = &cobra.Command{
	Use:   "delete NAME",
	Short: "Remove a secret from the keychain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := secrets.Delete(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
		return nil
	},
}

func init() {
	secretsCommand.AddCommand(secretsSetCommand, secretsDeleteCommand)
	rootCmd.AddCommand(secretsCommand)
}
