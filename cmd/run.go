package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/testguard/testguard/internal/framework"
	"github.com/testguard/testguard/internal/session"
)

var runFramework string

var runCmd = &cobra.Command{
	Use:   "run -- <test command> [args...]",
	Short: "Run a test command and record its results",
	Long: `Spawns the test command, injects the machine-readable output flag where
the framework supports it, records the results from stdout, and exits with
the test command's own exit code.

The framework is detected from the command line; use --framework or the
default_framework config key when detection fails.

Examples:
  testguard run -- go test ./...
  testguard run -- cargo test
  testguard run --framework pytest -- python -m pytest --report-log=/dev/stdout`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		log := newLogger(cfg)

		name := runFramework
		if name == "" {
			name = framework.Detect(args)
		}
		if name == "" {
			name = cfg.DefaultFramework
		}
		if name == "" {
			return fmt.Errorf("cannot detect test framework from %q; use --framework (one of: %s)",
				strings.Join(args, " "), strings.Join(framework.Names(), ", "))
		}

		s, err := session.New(cfg, name, log)
		if err != nil {
			return fmt.Errorf("starting %s session: %w", name, err)
		}

		code, err := s.Exec(cmd.Context(), args, os.Stdout, os.Stderr)
		if closeErr := s.Close(); closeErr != nil {
			log.WithError(closeErr).Warn("failed to close result store")
		}
		if err != nil {
			return err
		}

		if code != 0 {
			os.Exit(code)
		}

		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runFramework, "framework", "", "test framework (overrides detection)")
	rootCmd.AddCommand(runCmd)
}
