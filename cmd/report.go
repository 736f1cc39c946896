package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/testguard/testguard/internal/session"
)

// runReporter reads a framework's native report from stdin, echoes it to
// stdout, and persists the canonical run output. All five reporter
// subcommands funnel through here.
func runReporter(cmd *cobra.Command, frameworkName string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log := newLogger(cfg)

	s, err := session.New(cfg, frameworkName, log)
	if err != nil {
		return fmt.Errorf("starting %s session: %w", frameworkName, err)
	}
	defer func() {
		if closeErr := s.Close(); closeErr != nil {
			log.WithError(closeErr).Warn("failed to close result store")
		}
	}()

	if err := s.Report(cmd.Context(), os.Stdin, os.Stdout); err != nil {
		return fmt.Errorf("recording %s results: %w", frameworkName, err)
	}

	return nil
}
