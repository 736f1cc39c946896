// Package collector accumulates canonical test results for one run and
// performs the single terminal write to the result store. One Collector
// instance is scoped to exactly one run; workers reporting in parallel
// processes each own their own instance and meet only at the store.
package collector

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/testguard/testguard/internal/report"
	"github.com/testguard/testguard/internal/storage"
)

// unknownModuleID groups events whose native context carried no usable
// source-file reference. Malformed input must degrade, never raise.
const unknownModuleID = "unknown"

// Collector owns the in-memory accumulation map for one run. Module and test
// order is first-seen order; two records referencing the same module ID
// always converge on the same module.
type Collector struct {
	log   logrus.FieldLogger
	store storage.Store
	runID string

	mu          sync.Mutex
	modules     map[string]*moduleAcc
	order       []string
	unhandled   []report.UnhandledError
	interrupted bool
}

type moduleAcc struct {
	id    string
	tests []report.Test
}

// New creates a collector writing its terminal output to store.
func New(store storage.Store, log logrus.FieldLogger) *Collector {
	runID := uuid.NewString()

	return &Collector{
		log:     log.WithField("component", "collector").WithField("run", runID),
		store:   store,
		runID:   runID,
		modules: make(map[string]*moduleAcc),
	}
}

// RunID returns the identifier assigned to this run.
func (c *Collector) RunID() string {
	return c.runID
}

// Record appends one observed test outcome to the module identified by
// moduleID, creating the module lazily on first reference. Accumulation is
// synchronous and serialized; events arrive in whatever order the native
// framework delivers them.
//
// Record sanitizes rather than rejects: an empty module ID lands in a shared
// "unknown" module, missing names are derived from whatever is present, and
// errors attached to a non-failed test are dropped so the canonical
// invariants hold at completion time.
func (c *Collector) Record(moduleID string, test report.Test) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if moduleID == "" {
		moduleID = unknownModuleID
	}

	if test.Name == "" && test.FullName != "" {
		test.Name = test.FullName
	}
	if test.FullName == "" && test.Name != "" {
		test.FullName = test.Name
	}
	if test.Name == "" {
		test.Name = moduleID
		test.FullName = moduleID
	}
	if test.State != report.StateFailed {
		test.Errors = nil
	}

	mod, ok := c.modules[moduleID]
	if !ok {
		mod = &moduleAcc{id: moduleID}
		c.modules[moduleID] = mod
		c.order = append(c.order, moduleID)
	}
	mod.tests = append(mod.tests, test)

	c.log.WithFields(logrus.Fields{
		"module": moduleID,
		"test":   test.FullName,
		"state":  test.State,
	}).Debug("recorded test result")
}

// RecordUnhandled appends an out-of-band error that could not be attributed
// to any test.
func (c *Collector) RecordUnhandled(e report.UnhandledError) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e.Message == "" {
		e.Message = "unknown error"
	}
	c.unhandled = append(c.unhandled, e)
}

// Snapshot builds the canonical run output from the current accumulated
// state, including the reduced reason. The result shares no memory with the
// collector's live state.
func (c *Collector) Snapshot() *report.RunOutput {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.snapshotLocked()
}

func (c *Collector) snapshotLocked() *report.RunOutput {
	out := &report.RunOutput{
		TestModules:     make([]report.Module, 0, len(c.order)),
		UnhandledErrors: append([]report.UnhandledError(nil), c.unhandled...),
	}

	for _, id := range c.order {
		mod := c.modules[id]
		out.TestModules = append(out.TestModules, report.Module{
			ModuleID: mod.id,
			Tests:    append([]report.Test(nil), mod.tests...),
		})
	}

	out.Reason = report.ComputeReason(out.TestModules)
	if c.interrupted {
		// An interrupted run's "passed" cannot be trusted as complete
		// evidence, so interruption overrides the reducer. An empty
		// interrupted run still reports no reason at all.
		if out.Reason != report.ReasonNone || len(out.UnhandledErrors) > 0 {
			out.Reason = report.ReasonInterrupted
		}
	}

	return out
}

// Complete derives the final run output and writes it to the result store.
// Calling it again re-derives from the unchanged accumulated state and
// overwrites the store with identical bytes, so frameworks that fire their
// completion hook more than once per process converge on the same persisted
// content. A store failure propagates to the caller.
func (c *Collector) Complete(ctx context.Context) error {
	c.mu.Lock()
	out := c.snapshotLocked()
	c.mu.Unlock()

	if err := out.Validate(); err != nil {
		return fmt.Errorf("completing run: %w", err)
	}

	data, err := out.Marshal()
	if err != nil {
		return fmt.Errorf("completing run: %w", err)
	}

	if err := c.store.SaveTest(ctx, data); err != nil {
		return fmt.Errorf("writing run output: %w", err)
	}

	c.log.WithFields(logrus.Fields{
		"modules": len(out.TestModules),
		"reason":  string(out.Reason),
	}).Debug("run output persisted")

	return nil
}

// Interrupt force-completes the run with reason "interrupted". It is the
// best-effort path for abnormal termination: it never panics and a store
// failure is logged and dropped so it cannot mask the original crash.
func (c *Collector) Interrupt(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			c.log.WithField("panic", r).Debug("interrupt handler recovered")
		}
	}()

	c.mu.Lock()
	c.interrupted = true
	c.mu.Unlock()

	if err := c.Complete(ctx); err != nil {
		c.log.WithError(err).Debug("dropping interrupted run output")
	}
}
