package cmd

import (
	"github.com/spf13/cobra"

	"github.com/testguard/testguard/internal/framework/pytest"
)

var pytestCmd = &cobra.Command{
	Use:   "pytest",
	Short: "Record results from a pytest report-log stream on stdin",
	Long: `Reads the JSONL stream produced by pytest's --report-log option from
stdin, records the results, and echoes the stream to stdout unchanged.

Example:
  pytest --report-log=/dev/stdout -q 2>/dev/null | testguard pytest`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runReporter(cmd, pytest.Name)
	},
}

func init() {
	rootCmd.AddCommand(pytestCmd)
}
