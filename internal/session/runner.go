package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"golang.org/x/sync/errgroup"

	"github.com/testguard/testguard/internal/framework/gotest"
	"github.com/testguard/testguard/internal/framework/vitest"
)

// ErrEmptyCommand indicates Exec was called with no command.
var ErrEmptyCommand = errors.New("no test command given")

// Exec spawns the test command and streams its stdout through the session's
// consumer while forwarding stderr, then performs the terminal write.
// Returns the child's exit code; a failing test suite is a normal outcome,
// not an error.
func (s *Session) Exec(ctx context.Context, args []string, stdout, stderr io.Writer) (int, error) {
	if len(args) == 0 {
		return 0, ErrEmptyCommand
	}

	args = injectFormatArgs(s.consumer.Name(), args)
	s.log.WithField("command", args).Debug("spawning test command")

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)

	outPipe, err := cmd.StdoutPipe()
	if err != nil {
		return 0, fmt.Errorf("piping stdout: %w", err)
	}

	errPipe, err := cmd.StderrPipe()
	if err != nil {
		return 0, fmt.Errorf("piping stderr: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("starting %s: %w", args[0], err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.Report(gctx, outPipe, stdout)
	})
	g.Go(func() error {
		_, copyErr := io.Copy(stderr, errPipe)

		return copyErr
	})

	reportErr := g.Wait()
	waitErr := cmd.Wait()

	if reportErr != nil {
		s.log.WithError(reportErr).Warn("result capture incomplete")
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return exitErr.ExitCode(), nil
		}

		return 0, fmt.Errorf("running %s: %w", args[0], waitErr)
	}

	return 0, nil
}

// injectFormatArgs adds the machine-readable output flag for frameworks
// whose report goes to stdout anyway. Other frameworks must already be
// invoked with their report enabled; their human output simply falls through
// the parser as noise.
func injectFormatArgs(frameworkName string, args []string) []string {
	switch frameworkName {
	case gotest.Name:
		return injectAfter(args, "test", "-json")
	case vitest.Name:
		for _, a := range args {
			if a == "--reporter=json" || a == "--json" {
				return args
			}
		}

		base := args[0]
		if base == "jest" {
			return append(args, "--json")
		}

		return append(args, "--reporter=json")
	default:
		return args
	}
}

// injectAfter inserts flag right after the first occurrence of marker,
// unless it is already present anywhere.
func injectAfter(args []string, marker, flag string) []string {
	for _, a := range args {
		if a == flag {
			return args
		}
	}

	for i, a := range args {
		if a == marker {
			out := make([]string, 0, len(args)+1)
			out = append(out, args[:i+1]...)
			out = append(out, flag)
			out = append(out, args[i+1:]...)

			return out
		}
	}

	return args
}
