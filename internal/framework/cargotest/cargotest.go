// Package cargotest adapts Rust libtest JSON output (`cargo test --
// -Z unstable-options --format json`) to the canonical test model.
//
// libtest emits one JSON object per line. Test names are "::"-separated
// paths; the prefix up to the last segment is the enclosing Rust module and
// becomes the canonical module ID, so all tests of one source module group
// together the way file-based frameworks group by file.
package cargotest

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/testguard/testguard/internal/collector"
	"github.com/testguard/testguard/internal/report"
)

// Name is the framework identifier.
const Name = "cargotest"

// crateModuleID groups tests declared at the crate root (no "::" path).
const crateModuleID = "crate"

type event struct {
	Type   string `json:"type"`
	Event  string `json:"event"`
	Name   string `json:"name"`
	Stdout string `json:"stdout"`
}

// Reporter consumes one libtest JSON stream. It is single-run-scoped.
type Reporter struct {
	c         *collector.Collector
	log       logrus.FieldLogger
	malformed int
}

// New creates a reporter recording onto c.
func New(c *collector.Collector, log logrus.FieldLogger) *Reporter {
	return &Reporter{
		c:   c,
		log: log.WithField("component", "cargotest_reporter"),
	}
}

// Name returns the framework identifier.
func (r *Reporter) Name() string {
	return Name
}

// Consume reads the stream until EOF or context cancellation.
func (r *Reporter) Consume(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" || !strings.HasPrefix(line, "{") {
			// cargo interleaves compiler progress with libtest JSON.
			continue
		}

		var e event
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			r.malformed++
			continue
		}
		r.processEvent(e)
	}

	if r.malformed > 0 {
		r.log.WithField("lines", r.malformed).Debug("skipped malformed test events")
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanning cargo test output: %w", err)
	}

	return nil
}

func (r *Reporter) processEvent(e event) {
	if e.Type != "test" {
		return
	}

	moduleID, name := splitName(e.Name)
	test := report.Test{
		Name:     name,
		FullName: strings.ReplaceAll(e.Name, "::", " > "),
	}

	switch e.Event {
	case "ok":
		test.State = report.StatePassed
	case "ignored":
		test.State = report.StateSkipped
	case "failed", "timeout":
		test.State = report.StateFailed
		message := strings.TrimSpace(e.Stdout)
		if message == "" {
			message = fmt.Sprintf("test %s failed", e.Name)
		}
		test.Errors = []report.ErrorDetail{{Message: message}}
	default:
		// "started" and anything future.
		return
	}

	r.c.Record(moduleID, test)
}

// splitName separates the enclosing module path from the leaf test name.
func splitName(name string) (moduleID, leaf string) {
	idx := strings.LastIndex(name, "::")
	if idx < 0 {
		return crateModuleID, name
	}

	return name[:idx], name[idx+2:]
}
