// Package pytest adapts pytest-reportlog JSONL output to the canonical test
// model.
//
// Each line is one report object tagged by "$report_type". A test goes
// through setup/call/teardown phases, each with its own TestReport; exactly
// one canonical result is recorded per test whichever phase decides it. A
// CollectReport failure means the file could not even be imported, which
// surfaces as the single synthetic failed test for that module.
package pytest

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
const Name = "pytest"

const scopeSeparator = " > "

type record struct {
	ReportType string          `json:"$report_type"`
	NodeID     string          `json:"nodeid"`
	When       string          `json:"when"`
	Outcome    string          `json:"outcome"`
	Longrepr   json.RawMessage `json:"longrepr"`
}

// Reporter consumes one pytest-reportlog stream. It is single-run-scoped.
type Reporter struct {
	c         *collector.Collector
	log       logrus.FieldLogger
	recorded  map[string]bool
	malformed int
}

// New creates a reporter recording onto c.
func New(c *collector.Collector, log logrus.FieldLogger) *Reporter {
	return &Reporter{
		c:        c,
		log:      log.WithField("component", "pytest_reporter"),
		recorded: make(map[string]bool),
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

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec record
		if err := json.Unmarshal(line, &rec); err != nil {
			r.malformed++
			continue
		}
		r.processRecord(rec)
	}

	if r.malformed > 0 {
		r.log.WithField("lines", r.malformed).Debug("skipped malformed report lines")
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanning pytest report log: %w", err)
	}

	return nil
}

func (r *Reporter) processRecord(rec record) {
	switch rec.ReportType {
	case "TestReport":
		r.processTestReport(rec)
	case "CollectReport":
		if rec.Outcome == "failed" {
			r.processCollectFailure(rec)
		}
	}
}

func (r *Reporter) processTestReport(rec record) {
	moduleID, name, full := splitNodeID(rec.NodeID)

	var test report.Test

	switch {
	case rec.When == "call":
		test = report.Test{Name: name, FullName: full, State: mapOutcome(rec.Outcome)}
		if test.State == report.StateFailed {
			test.Errors = []report.ErrorDetail{r.failureDetail(rec)}
		}

	case rec.When == "setup" && rec.Outcome == "skipped":
		// Skip markers raise during setup; the call phase never happens.
		test = report.Test{Name: name, FullName: full, State: report.StateSkipped}

	case rec.When == "setup" && rec.Outcome == "failed":
		// Fixture errors fail the test before its body runs.
		test = report.Test{
			Name:     name,
			FullName: full,
			State:    report.StateFailed,
			Errors:   []report.ErrorDetail{r.failureDetail(rec)},
		}

	case rec.When == "teardown" && rec.Outcome == "failed":
		if r.recorded[rec.NodeID] {
			// The test itself already has a result; a dying fixture is
			// out-of-band evidence, not a second test.
			detail := r.failureDetail(rec)
			r.c.RecordUnhandled(report.UnhandledError{
				Name:    "teardown failure: " + rec.NodeID,
				Message: detail.Message,
				Stack:   detail.Stack,
			})
		}

		return

	default:
		return
	}

	if r.recorded[rec.NodeID] {
		return
	}
	r.recorded[rec.NodeID] = true
	r.c.Record(moduleID, test)
}

// processCollectFailure synthesizes the single failed test for a file that
// could not be collected (import error, syntax error).
func (r *Reporter) processCollectFailure(rec record) {
	moduleID := rec.NodeID
	if idx := strings.Index(moduleID, "::"); idx >= 0 {
		moduleID = moduleID[:idx]
	}
	if moduleID == "" {
		moduleID = "collection"
	}

	r.c.Record(moduleID, report.Test{
		Name:     "collection error",
		FullName: moduleID + scopeSeparator + "collection error",
		State:    report.StateFailed,
		Errors:   []report.ErrorDetail{r.failureDetail(rec)},
	})
}

// mapOutcome translates a call-phase outcome. pytest.skip() raised inside
// the test body reports "skipped" here rather than at setup. Outcomes
// introduced by plugins degrade to skipped instead of failing the parse.
func mapOutcome(outcome string) report.TestState {
	switch outcome {
	case "passed":
		return report.StatePassed
	case "failed":
		return report.StateFailed
	default:
		return report.StateSkipped
	}
}

func (r *Reporter) failureDetail(rec record) report.ErrorDetail {
	message := longreprMessage(rec.Longrepr)
	if message == "" {
		// Degrade to a string rendering of the raw record rather than drop
		// the failure.
		message = fmt.Sprintf("%s %s failed", rec.NodeID, rec.When)
	}

	return report.ErrorDetail{Message: message}
}

// longreprMessage extracts a human-readable message from pytest's longrepr,
// which is a plain string for collection errors and a structured object
// (with a reprcrash summary) for test failures.
func longreprMessage(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var structured struct {
		Reprcrash struct {
			Message string `json:"message"`
			Path    string `json:"path"`
			Lineno  int    `json:"lineno"`
		} `json:"reprcrash"`
	}
	if err := json.Unmarshal(raw, &structured); err == nil && structured.Reprcrash.Message != "" {
		if structured.Reprcrash.Path != "" {
			return fmt.Sprintf("%s (%s:%d)",
				structured.Reprcrash.Message, structured.Reprcrash.Path, structured.Reprcrash.Lineno)
		}

		return structured.Reprcrash.Message
	}

	return ""
}

// splitNodeID breaks "tests/test_auth.py::TestLogin::test_ok" into the file
// module ID, the leaf test name, and the canonical full name.
func splitNodeID(nodeID string) (moduleID, name, fullName string) {
	parts := strings.Split(nodeID, "::")
	moduleID = parts[0]

	if len(parts) == 1 {
		return moduleID, nodeID, nodeID
	}

	scopes := parts[1:]
	name = scopes[len(scopes)-1]
	fullName = strings.Join(scopes, scopeSeparator)

	return moduleID, name, fullName
}
