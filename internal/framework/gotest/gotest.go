// Package gotest adapts `go test -json` output to the canonical test model.
//
// The stream is NDJSON, one event per line, delivered in package order but
// with test output interleaved. Terminal actions (pass, fail, skip) on a
// named test map directly to canonical results; a package-level fail with no
// failed test recorded is a build error or a crash that never emitted a
// per-test fail, which surfaces as exactly one synthetic failed test so a
// module whose run died still produces red evidence.
package gotest

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/testguard/testguard/internal/collector"
	"github.com/testguard/testguard/internal/report"
)

// Name is the framework identifier.
const Name = "gotest"

// scopeSeparator joins subtest scopes in canonical full names.
const scopeSeparator = " > "

// event is a single `go test -json` record.
type event struct {
	Time    time.Time `json:"Time"`
	Action  string    `json:"Action"`
	Package string    `json:"Package"`
	Test    string    `json:"Test"`
	Elapsed float64   `json:"Elapsed"`
	Output  string    `json:"Output"`
}

// pkgState tracks one package while its events stream in.
type pkgState struct {
	failed    int
	outputBuf map[string][]string
	panicked  bool
}

// Reporter consumes one `go test -json` stream. It is single-run-scoped.
type Reporter struct {
	c         *collector.Collector
	log       logrus.FieldLogger
	packages  map[string]*pkgState
	malformed int
}

// New creates a reporter recording onto c.
func New(c *collector.Collector, log logrus.FieldLogger) *Reporter {
	return &Reporter{
		c:        c,
		log:      log.WithField("component", "gotest_reporter"),
		packages: make(map[string]*pkgState),
	}
}

// Name returns the framework identifier.
func (r *Reporter) Name() string {
	return Name
}

// Consume reads the stream until EOF or context cancellation. Malformed
// lines are counted and skipped, never raised.
func (r *Reporter) Consume(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	// Allow large lines for verbose test output.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var e event
		if err := json.Unmarshal(line, &e); err != nil {
			r.malformed++
			continue
		}
		r.processEvent(e)
	}

	if r.malformed > 0 {
		r.log.WithField("lines", r.malformed).Debug("skipped malformed test events")
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanning go test output: %w", err)
	}

	return nil
}

func (r *Reporter) processEvent(e event) {
	pkg := r.getOrCreate(e.Package)

	switch e.Action {
	case "output":
		output := strings.TrimRight(e.Output, "\n")
		if output == "" {
			return
		}
		pkg.outputBuf[e.Test] = append(pkg.outputBuf[e.Test], output)

		if strings.Contains(output, "panic:") {
			pkg.panicked = true
		}

	case "pass":
		if e.Test == "" {
			return
		}
		r.c.Record(e.Package, report.Test{
			Name:     leafName(e.Test),
			FullName: fullName(e.Test),
			State:    report.StatePassed,
		})

	case "skip":
		// A package-level skip means "no test files" — not a test.
		if e.Test == "" {
			return
		}
		r.c.Record(e.Package, report.Test{
			Name:     leafName(e.Test),
			FullName: fullName(e.Test),
			State:    report.StateSkipped,
		})

	case "fail":
		if e.Test == "" {
			r.failPackage(e.Package, pkg)
			return
		}
		pkg.failed++
		r.c.Record(e.Package, report.Test{
			Name:     leafName(e.Test),
			FullName: fullName(e.Test),
			State:    report.StateFailed,
			Errors:   []report.ErrorDetail{failureDetail(pkg.outputBuf[e.Test], e)},
		})
	}
}

// failPackage handles a package-level fail event. A failing package with no
// failed test recorded either never ran (build error) or crashed without a
// per-test fail event, as a panic mid-test does; it synthesizes the single
// failed test so the module still produces red evidence.
func (r *Reporter) failPackage(name string, pkg *pkgState) {
	if pkg.failed > 0 {
		// The failing tests were already recorded.
		return
	}

	message := strings.Join(pkg.outputBuf[""], "\n")
	if message == "" && pkg.panicked {
		message = pkg.panicOutput()
	}
	if message == "" {
		message = fmt.Sprintf("package %s failed with no test output", name)
	}

	label := "build failure"
	if pkg.panicked {
		label = "panic"
	}

	r.c.Record(name, report.Test{
		Name:     label,
		FullName: name + scopeSeparator + label,
		State:    report.StateFailed,
		Errors:   []report.ErrorDetail{{Message: message}},
	})
}

// panicOutput returns the buffered output of the test that panicked, since
// test2json attributes the panic lines to that test rather than the package.
func (p *pkgState) panicOutput() string {
	for _, lines := range p.outputBuf {
		if panicIndex(lines) >= 0 {
			return strings.Join(lines, "\n")
		}
	}

	return ""
}

func (r *Reporter) getOrCreate(name string) *pkgState {
	if pkg, ok := r.packages[name]; ok {
		return pkg
	}
	pkg := &pkgState{outputBuf: make(map[string][]string)}
	r.packages[name] = pkg

	return pkg
}

// failureDetail builds the error for a failed test from its buffered output.
// go test exposes no structured expected/actual, so only message (and the
// goroutine dump as stack, when the test panicked) are populated.
func failureDetail(output []string, e event) report.ErrorDetail {
	detail := report.ErrorDetail{Message: strings.Join(output, "\n")}
	if detail.Message == "" {
		detail.Message = fmt.Sprintf("%s failed", e.Test)
	}

	if idx := panicIndex(output); idx >= 0 {
		detail.Message = strings.Join(output[:idx+1], "\n")
		detail.Stack = strings.Join(output[idx+1:], "\n")
	}

	return detail
}

func panicIndex(output []string) int {
	for i, line := range output {
		if strings.HasPrefix(line, "panic:") {
			return i
		}
	}

	return -1
}

// leafName returns the last subtest segment: "TestAdd/negative" → "negative".
func leafName(test string) string {
	if idx := strings.LastIndex(test, "/"); idx >= 0 {
		return test[idx+1:]
	}

	return test
}

// fullName joins subtest scopes canonically: "TestAdd/negative" →
// "TestAdd > negative".
func fullName(test string) string {
	return strings.ReplaceAll(test, "/", scopeSeparator)
}
