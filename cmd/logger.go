package cmd

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/testguard/testguard/internal/config"
)

// newLogger creates a logger honoring the configured level. The --verbose
// flag wins and forces DebugLevel. Logging goes to stderr so reporter
// commands can echo the test stream on stdout untouched.
func newLogger(cfg *config.Config) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)

	if verbose {
		log.SetLevel(logrus.DebugLevel)

		return log
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	return log
}
