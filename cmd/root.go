// Package cmd implements the testguard CLI commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/testguard/testguard/internal/config"
)

var (
	verbose     bool
	projectRoot string

	rootCmd = &cobra.Command{
		Use:   "testguard",
		Short: "Testguard - test result capture for coding agents",
		Long: `Testguard captures test results from framework reporters, normalizes them
into a single canonical shape, and persists the outcome of the latest run so
that tooling can gate on it.

Pipe a framework's machine-readable output through a reporter subcommand
(gotest, cargotest, pytest, vitest, phpunit), or let testguard spawn the test
command itself with "run".`,
	}
)

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Load .env file if it exists
	_ = godotenv.Load()

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&projectRoot, "project-root", "", "project root (defaults to the working directory)")
}

// loadConfig resolves the effective configuration for the current invocation.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	return cfg, nil
}
