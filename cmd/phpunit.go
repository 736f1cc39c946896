package cmd

import (
	"github.com/spf13/cobra"

	"github.com/testguard/testguard/internal/framework/phpunit"
)

var phpunitCmd = &cobra.Command{
	Use:   "phpunit",
	Short: "Record results from a PHPUnit JUnit XML report on stdin",
	Long: `Reads a JUnit XML report from stdin, records the results, and echoes the
document to stdout unchanged.

Example:
  phpunit --log-junit /dev/stdout --no-output | testguard phpunit`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runReporter(cmd, phpunit.Name)
	},
}

func init() {
	rootCmd.AddCommand(phpunitCmd)
}
