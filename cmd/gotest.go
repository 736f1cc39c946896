package cmd

import (
	"github.com/spf13/cobra"

	"github.com/testguard/testguard/internal/framework/gotest"
)

var gotestCmd = &cobra.Command{
	Use:   "gotest",
	Short: "Record results from a `go test -json` stream on stdin",
	Long: `Reads the NDJSON event stream produced by "go test -json" from stdin,
records the results, and echoes the stream to stdout unchanged.

Example:
  go test -json ./... | testguard gotest`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runReporter(cmd, gotest.Name)
	},
}

func init() {
	rootCmd.AddCommand(gotestCmd)
}
