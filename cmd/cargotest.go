package cmd

import (
	"github.com/spf13/cobra"

	"github.com/testguard/testguard/internal/framework/cargotest"
)

var cargotestCmd = &cobra.Command{
	Use:   "cargotest",
	Short: "Record results from a cargo test JSON stream on stdin",
	Long: `Reads libtest JSON lines from stdin, records the results, and echoes the
stream to stdout unchanged. Compiler output interleaved with the JSON is
passed through as-is.

Example:
  cargo test -- -Z unstable-options --format json | testguard cargotest`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runReporter(cmd, cargotest.Name)
	},
}

func init() {
	rootCmd.AddCommand(cargotestCmd)
}
