package cmd

import (
	"github.com/spf13/cobra"

	"github.com/testguard/testguard/internal/framework/vitest"
)

var vitestCmd = &cobra.Command{
	Use:   "vitest",
	Short: "Record results from a Vitest or Jest JSON report on stdin",
	Long: `Reads the Jest-compatible JSON report document from stdin, records the
results, and echoes the document to stdout unchanged. Storybook interaction
tests running through Vitest use the same shape and the same command.

Examples:
  vitest run --reporter=json | testguard vitest
  jest --json | testguard vitest`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runReporter(cmd, vitest.Name)
	},
}

func init() {
	rootCmd.AddCommand(vitestCmd)
}
