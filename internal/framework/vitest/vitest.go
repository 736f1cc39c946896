// Package vitest adapts the Jest-compatible JSON report that Vitest and Jest
// produce (`--reporter=json` / `--json`) to the canonical test model.
//
// Unlike the streaming frameworks this is one JSON document emitted at the
// end of the run: a testResults entry per source file, each with its
// assertionResults. Storybook interaction tests execute through Vitest and
// arrive in the same shape; stories without an interaction function come
// through as todo/disabled entries, which carry no test intent and are
// excluded from the canonical output entirely.
package vitest

import (
	"bytes"
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
const Name = "vitest"

const scopeSeparator = " > "

type document struct {
	TestResults []fileResult `json:"testResults"`
}

type fileResult struct {
	Name             string            `json:"name"`
	Status           string            `json:"status"`
	Message          string            `json:"message"`
	AssertionResults []assertionResult `json:"assertionResults"`
}

type assertionResult struct {
	AncestorTitles  []string `json:"ancestorTitles"`
	Title           string   `json:"title"`
	FullName        string   `json:"fullName"`
	Status          string   `json:"status"`
	FailureMessages []string `json:"failureMessages"`
}

// Reporter consumes one JSON report document. It is single-run-scoped.
type Reporter struct {
	c   *collector.Collector
	log logrus.FieldLogger
}

// New creates a reporter recording onto c.
func New(c *collector.Collector, log logrus.FieldLogger) *Reporter {
	return &Reporter{
		c:   c,
		log: log.WithField("component", "vitest_reporter"),
	}
}

// Name returns the framework identifier.
func (r *Reporter) Name() string {
	return Name
}

// Consume reads the whole document from in. Test runners print the JSON on
// stdout after any human-readable output, so decoding starts at the first
// opening brace.
func (r *Reporter) Consume(ctx context.Context, in io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("reading vitest report: %w", err)
	}

	data = trimLeadingNoise(data)

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing vitest report: %w", err)
	}

	for _, file := range doc.TestResults {
		r.processFile(file)
	}

	return nil
}

// trimLeadingNoise drops banner lines printed ahead of the JSON document.
// The document itself starts at the beginning of a line, so a brace buried
// inside a banner line (spinner frames, progress bars) is not a candidate.
func trimLeadingNoise(data []byte) []byte {
	rest := data
	for len(rest) > 0 {
		line := rest
		if nl := bytes.IndexByte(rest, '\n'); nl >= 0 {
			line = rest[:nl]
		}

		trimmed := bytes.TrimLeft(line, " \t\r")
		if len(trimmed) > 0 && trimmed[0] == '{' {
			return rest[len(line)-len(trimmed):]
		}

		if len(line) == len(rest) {
			break
		}
		rest = rest[len(line)+1:]
	}

	return data
}

func (r *Reporter) processFile(file fileResult) {
	recorded := 0

	for _, a := range file.AssertionResults {
		test, ok := r.mapAssertion(a)
		if !ok {
			continue
		}
		r.c.Record(file.Name, test)
		recorded++
	}

	// A failed file with nothing recorded never reached its assertions:
	// an import error, a transform error, or a component that crashed
	// during render. That is red evidence and must not vanish.
	if recorded == 0 && (file.Status == "failed" || file.Message != "") {
		message := file.Message
		if message == "" {
			message = fmt.Sprintf("test file %s failed before any test ran", file.Name)
		}

		r.c.Record(file.Name, report.Test{
			Name:     "suite error",
			FullName: file.Name + scopeSeparator + "suite error",
			State:    report.StateFailed,
			Errors:   []report.ErrorDetail{{Message: message}},
		})
	}
}

// mapAssertion maps one assertion result, returning ok=false for entries
// that carry no test intent.
func (r *Reporter) mapAssertion(a assertionResult) (report.Test, bool) {
	test := report.Test{
		Name:     a.Title,
		FullName: canonicalFullName(a),
	}

	switch a.Status {
	case "passed", "focused":
		test.State = report.StatePassed
	case "failed":
		test.State = report.StateFailed
		test.Errors = failureDetails(a)
	case "pending", "skipped":
		test.State = report.StateSkipped
	case "todo", "disabled":
		// Declared but never meant to run — not a test.
		return report.Test{}, false
	default:
		r.log.WithFields(logrus.Fields{
			"status": a.Status,
			"test":   a.FullName,
		}).Debug("unknown assertion status, treating as skipped")
		test.State = report.StateSkipped
	}

	return test, true
}

// canonicalFullName joins the describe-block scopes with the canonical
// separator rather than trusting the framework's space-joined fullName.
func canonicalFullName(a assertionResult) string {
	if len(a.AncestorTitles) == 0 {
		if a.FullName != "" {
			return a.FullName
		}

		return a.Title
	}

	return strings.Join(append(append([]string(nil), a.AncestorTitles...), a.Title), scopeSeparator)
}

// failureDetails converts Jest-style failure messages, which embed the stack
// trace in the message text, into message/stack pairs.
func failureDetails(a assertionResult) []report.ErrorDetail {
	if len(a.FailureMessages) == 0 {
		return []report.ErrorDetail{{Message: fmt.Sprintf("%s failed", a.Title)}}
	}

	details := make([]report.ErrorDetail, 0, len(a.FailureMessages))
	for _, msg := range a.FailureMessages {
		details = append(details, splitMessageStack(msg))
	}

	return details
}

func splitMessageStack(msg string) report.ErrorDetail {
	lines := strings.Split(msg, "\n")
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimLeft(line, " "), "at ") {
			return report.ErrorDetail{
				Message: strings.TrimRight(strings.Join(lines[:i], "\n"), "\n"),
				Stack:   strings.Join(lines[i:], "\n"),
			}
		}
	}

	return report.ErrorDetail{Message: msg}
}
