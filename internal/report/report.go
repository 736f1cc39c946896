// Package report defines the canonical, framework-agnostic test-run model.
// Every framework adapter produces this shape and every downstream consumer
// (the gating validator, the status command) reads it, so the JSON wire
// format here must stay byte-compatible with reporters in other languages.
package report

import (
	"encoding/json"
	"fmt"
)

// TestState is the outcome of a single test case. The enumeration is closed:
// adapters must map every native outcome onto one of these three values.
type TestState string

const (
	// StatePassed indicates the test ran and passed.
	StatePassed TestState = "passed"
	// StateFailed indicates the test ran and failed, or never got to run
	// (collection/render failures surface as a synthetic failed test).
	StateFailed TestState = "failed"
	// StateSkipped indicates the test was deliberately not run.
	StateSkipped TestState = "skipped"
)

// Reason is the overall outcome of a run.
type Reason string

const (
	// ReasonPassed indicates tests were observed and none failed.
	ReasonPassed Reason = "passed"
	// ReasonFailed indicates at least one test failed.
	ReasonFailed Reason = "failed"
	// ReasonInterrupted indicates the run was cut short before its normal
	// completion hook fired. Only the interruption path sets this; the
	// reducer never derives it from test states.
	ReasonInterrupted Reason = "interrupted"
	// ReasonNone is the zero value: no tests were observed. Serialized as an
	// absent "reason" field, which consumers must treat as distinct from
	// "passed" — no evidence is not green evidence.
	ReasonNone Reason = ""
)

// ErrorDetail carries one failure's detail. Message is always a plain string,
// never a serialized exception object. Stack, Expected and Actual are present
// only when the originating framework exposes them; adapters must not
// fabricate them.
type ErrorDetail struct {
	Message  string `json:"message" validate:"required"`
	Stack    string `json:"stack,omitempty"`
	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual,omitempty"`
}

// Test is one reportable test case.
type Test struct {
	// Name is the short human label, e.g. the leaf subtest name.
	Name string `json:"name" validate:"required"`
	// FullName qualifies Name by its enclosing scope, joined with " > ".
	FullName string `json:"fullName" validate:"required"`
	State    TestState `json:"state" validate:"required,oneof=passed failed skipped"`
	// Errors is present only for failed tests, in the order the framework
	// reported them. Synthetic failures carry exactly one entry.
	Errors []ErrorDetail `json:"errors,omitempty" validate:"dive"`
}

// Module groups the tests of one source file (or equivalent execution unit).
type Module struct {
	// ModuleID is a stable path-like identifier, unique within the run.
	ModuleID string `json:"moduleId" validate:"required"`
	Tests    []Test `json:"tests" validate:"dive"`
}

// UnhandledError is an out-of-band error that could not be attributed to any
// test. The shape is framework-specific; consumers should treat it as opaque.
type UnhandledError struct {
	Name    string `json:"name,omitempty"`
	Message string `json:"message" validate:"required"`
	Stack   string `json:"stack,omitempty"`
}

// RunOutput is the unit written to the result store: one run's modules in
// first-seen order, any unhandled errors, and the overall reason.
type RunOutput struct {
	TestModules     []Module         `json:"testModules" validate:"dive"`
	UnhandledErrors []UnhandledError `json:"unhandledErrors" validate:"dive"`
	Reason          Reason           `json:"reason,omitempty" validate:"omitempty,oneof=passed failed interrupted"`
}

// Marshal serializes the run output to the canonical wire format. The
// testModules and unhandledErrors arrays are always present (never null) so
// the bytes stay identical across reporter implementations.
func (r *RunOutput) Marshal() ([]byte, error) {
	out := *r
	if out.TestModules == nil {
		out.TestModules = []Module{}
	}
	if out.UnhandledErrors == nil {
		out.UnhandledErrors = []UnhandledError{}
	}

	data, err := json.Marshal(&out)
	if err != nil {
		return nil, fmt.Errorf("marshaling run output: %w", err)
	}

	return data, nil
}

// Unmarshal parses a serialized run output.
func Unmarshal(data []byte) (*RunOutput, error) {
	var out RunOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("unmarshaling run output: %w", err)
	}

	return &out, nil
}
