package report

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrDuplicateModule indicates two modules share the same moduleId.
	ErrDuplicateModule = errors.New("duplicate module id")
	// ErrReasonWithoutEvidence indicates a reason is set on a run with no
	// modules and no unhandled errors.
	ErrReasonWithoutEvidence = errors.New("reason set on empty run output")
	// ErrErrorsOnNonFailure indicates a passed or skipped test carries errors.
	ErrErrorsOnNonFailure = errors.New("errors present on non-failed test")
)

var structValidator = validator.New(validator.WithRequiredStructEnabled())

// Validate checks a run output against the canonical-model invariants before
// it is handed to the result store. Structural constraints (required fields,
// the closed state enumeration) are enforced via struct tags; the cross-field
// invariants are checked by hand.
func (r *RunOutput) Validate() error {
	if err := structValidator.Struct(r); err != nil {
		return fmt.Errorf("run output structure: %w", err)
	}

	if r.Reason != ReasonNone && len(r.TestModules) == 0 && len(r.UnhandledErrors) == 0 {
		return ErrReasonWithoutEvidence
	}

	seen := make(map[string]bool, len(r.TestModules))
	for _, m := range r.TestModules {
		if seen[m.ModuleID] {
			return fmt.Errorf("%w: %s", ErrDuplicateModule, m.ModuleID)
		}
		seen[m.ModuleID] = true

		for _, t := range m.Tests {
			if t.State != StateFailed && len(t.Errors) > 0 {
				return fmt.Errorf("%w: %s", ErrErrorsOnNonFailure, t.FullName)
			}
		}
	}

	return nil
}
