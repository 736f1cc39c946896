package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/testguard/testguard/internal/config"
	"github.com/testguard/testguard/internal/report"
	"github.com/testguard/testguard/internal/session"
	"github.com/testguard/testguard/internal/storage"
)

var watchStatus bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the outcome of the latest recorded test run",
	Long: `Prints a summary of the latest persisted run output: per-module counts,
failing tests with their messages, and the overall status.

A run with no observed tests is reported as such, not as passing.

With --watch, the summary is re-rendered whenever a new run is recorded.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		log := newLogger(cfg)

		if err := printStatus(cmd.Context(), cfg, log); err != nil {
			return err
		}

		if watchStatus {
			return watchForRuns(cmd.Context(), cfg, log)
		}

		return nil
	},
}

func init() {
	statusCmd.Flags().BoolVarP(&watchStatus, "watch", "w", false, "re-render when a new run is recorded")
	rootCmd.AddCommand(statusCmd)
}

func printStatus(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) error {
	store, err := session.OpenStore(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			log.WithError(closeErr).Warn("failed to close result store")
		}
	}()

	data, err := store.LoadTest(ctx)
	if errors.Is(err, storage.ErrNoResults) {
		color.Yellow("No test results recorded yet.")

		return nil
	}
	if err != nil {
		return fmt.Errorf("loading results: %w", err)
	}

	out, err := report.Unmarshal(data)
	if err != nil {
		return fmt.Errorf("parsing results: %w", err)
	}

	renderStatus(out)

	return nil
}

func renderStatus(out *report.RunOutput) {
	var passed, failed, skipped int

	for _, m := range out.TestModules {
		for _, t := range m.Tests {
			switch t.State {
			case report.StatePassed:
				passed++
			case report.StateFailed:
				failed++
			case report.StateSkipped:
				skipped++
			}
		}
	}

	fmt.Printf("Modules: %d  Passed: %s  Failed: %s  Skipped: %d\n",
		len(out.TestModules),
		color.GreenString("%d", passed),
		color.RedString("%d", failed),
		skipped,
	)

	for _, m := range out.TestModules {
		for _, t := range m.Tests {
			if t.State != report.StateFailed {
				continue
			}

			color.Red("  FAIL %s", t.FullName)
			for _, e := range t.Errors {
				fmt.Printf("       %s\n", firstLine(e.Message))
			}
		}
	}

	for _, u := range out.UnhandledErrors {
		color.Red("  ERROR %s", firstLine(u.Message))
	}

	switch out.Reason {
	case report.ReasonPassed:
		color.Green("Status: passed")
	case report.ReasonFailed:
		color.Red("Status: failed")
	case report.ReasonInterrupted:
		color.Yellow("Status: interrupted")
	default:
		color.Yellow("Status: no tests were observed")
	}
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}

	return s
}

// watchForRuns blocks and re-renders the summary whenever the storage
// directory changes.
func watchForRuns(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) error {
	dir := cfg.DataDir()
	if cfg.StorageBackend == config.BackendBadger {
		dir = cfg.BadgerDir()
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer func() {
		if closeErr := watcher.Close(); closeErr != nil {
			log.WithError(closeErr).Warn("failed to close watcher")
		}
	}()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	log.WithField("dir", dir).Info("watching for new runs")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			fmt.Println()
			if err := printStatus(ctx, cfg, log); err != nil {
				log.WithError(err).Warn("failed to render status")
			}
		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WithError(watchErr).Warn("watch error")
		}
	}
}
