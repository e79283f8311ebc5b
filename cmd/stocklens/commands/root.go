package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	env        string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "stocklens",
	Short: "stocklens - AI stock research backend",
	Long: `stocklens unified CLI

Versioned committee reports, a denormalized stock registry and
guru-signal sentiment, all over one Postgres store.

Usage:
  go run ./cmd/stocklens [command]

Examples:
  go run ./cmd/stocklens api
  go run ./cmd/stocklens analyze 600519
  go run ./cmd/stocklens ingest
  go run ./cmd/stocklens test-db`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "development", "environment (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
