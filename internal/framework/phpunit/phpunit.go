// Package phpunit adapts PHPUnit's JUnit XML report (`--log-junit`) to the
// canonical test model.
//
// The document nests testsuite elements arbitrarily deep, with testcase
// leaves. The source file attribute groups cases into canonical modules; a
// suite that errored before producing any testcase (a fatal during class
// loading) surfaces as the single synthetic failed test for that suite.
package phpunit

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/testguard/testguard/internal/collector"
	"github.com/testguard/testguard/internal/report"
)

// Name is the framework identifier.
const Name = "phpunit"

const scopeSeparator = " > "

// suite models both the <testsuites> root and nested <testsuite> elements.
type suite struct {
	Name   string  `xml:"name,attr"`
	File   string  `xml:"file,attr"`
	Suites []suite `xml:"testsuite"`
	Cases  []tcase `xml:"testcase"`
	Errors []fault `xml:"error"`
}

type tcase struct {
	Name      string  `xml:"name,attr"`
	Class     string  `xml:"class,attr"`
	ClassName string  `xml:"classname,attr"`
	File      string  `xml:"file,attr"`
	Failures  []fault `xml:"failure"`
	Errors    []fault `xml:"error"`
	Skipped   *struct{} `xml:"skipped"`
}

type fault struct {
	Type    string `xml:"type,attr"`
	Message string `xml:"message,attr"`
	Text    string `xml:",chardata"`
}

// Reporter consumes one JUnit XML document. It is single-run-scoped.
type Reporter struct {
	c   *collector.Collector
	log logrus.FieldLogger
}

// New creates a reporter recording onto c.
func New(c *collector.Collector, log logrus.FieldLogger) *Reporter {
	return &Reporter{
		c:   c,
		log: log.WithField("component", "phpunit_reporter"),
	}
}

// Name returns the framework identifier.
func (r *Reporter) Name() string {
	return Name
}

// Consume reads the whole XML document from in.
func (r *Reporter) Consume(ctx context.Context, in io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("reading phpunit report: %w", err)
	}

	var root suite
	if err := xml.Unmarshal(data, &root); err != nil {
		return fmt.Errorf("parsing phpunit report: %w", err)
	}

	r.processSuite(root)

	return nil
}

func (r *Reporter) processSuite(s suite) {
	for _, c := range s.Cases {
		r.processCase(s, c)
	}

	for _, child := range s.Suites {
		r.processSuite(child)
	}

	if len(s.Errors) == 0 {
		return
	}

	// A suite-level error with no cases means the suite never got to run:
	// class not found, fatal during loading. One synthetic failed test.
	if len(s.Cases) == 0 && len(s.Suites) == 0 {
		moduleID := s.File
		if moduleID == "" {
			moduleID = s.Name
		}
		if moduleID == "" {
			moduleID = "phpunit"
		}

		r.c.Record(moduleID, report.Test{
			Name:     "suite error",
			FullName: moduleID + scopeSeparator + "suite error",
			State:    report.StateFailed,
			Errors:   []report.ErrorDetail{faultDetail(s.Errors[0], s.Name)},
		})

		return
	}

	// The suite ran its cases and still carries an error of its own, such
	// as a failing tearDownAfterClass. Not a test, but evidence that must
	// survive.
	for _, f := range s.Errors {
		detail := faultDetail(f, s.Name)
		r.c.RecordUnhandled(report.UnhandledError{
			Name:    "suite error: " + s.Name,
			Message: detail.Message,
		})
	}
}

func (r *Reporter) processCase(s suite, c tcase) {
	moduleID := c.File
	if moduleID == "" {
		moduleID = s.File
	}
	if moduleID == "" {
		moduleID = s.Name
	}

	scope := c.Class
	if scope == "" {
		scope = c.ClassName
	}
	if scope == "" {
		scope = s.Name
	}

	test := report.Test{
		Name:     c.Name,
		FullName: c.Name,
	}
	if scope != "" {
		test.FullName = scope + scopeSeparator + c.Name
	}

	faults := append(append([]fault(nil), c.Failures...), c.Errors...)

	switch {
	case len(faults) > 0:
		test.State = report.StateFailed
		for _, f := range faults {
			test.Errors = append(test.Errors, faultDetail(f, c.Name))
		}
	case c.Skipped != nil:
		test.State = report.StateSkipped
	default:
		test.State = report.StatePassed
	}

	r.c.Record(moduleID, test)
}

// faultDetail prefers the element text, which PHPUnit fills with the full
// assertion message and source location; the message attribute is a
// fallback. JUnit XML exposes no structured expected/actual.
func faultDetail(f fault, context string) report.ErrorDetail {
	message := strings.TrimSpace(f.Text)
	if message == "" {
		message = f.Message
	}
	if message == "" && f.Type != "" {
		message = f.Type
	}
	if message == "" {
		message = fmt.Sprintf("%s failed", context)
	}

	return report.ErrorDetail{Message: message}
}
