// Package cmd provides the CLI commands of the reconciliation server.
package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ellvinib/lifeOS-sub004/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "reconciliation-server",
	Short: "Matches invoices against bank transactions",
	Long: `reconciliation-server pairs open invoices with imported bank
transactions. It scores candidates on amount, date and description
similarity, queues uncertain matches for review and keeps every
transaction's reconciliation state consistent with its matches.

Example:
  reconciliation-server migrate
  reconciliation-server seed
  reconciliation-server serve --config config.yaml`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := godotenv.Load(); err != nil {
			// No .env file is fine; the environment still applies.
			return
		}
	},
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML; environment variables override)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
}

// loadConfig resolves the effective configuration for a command run.
func loadConfig() (*config.Config, error) {
	return config.LoadOrEnv(cfgFile)
}

func exitOnError(err error, msg string) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
		os.Exit(1)
	}
}
