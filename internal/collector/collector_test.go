package collector

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/testguard/testguard/internal/report"
	"github.com/testguard/testguard/internal/storage"
)

func newTestLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetLevel(logrus.DebugLevel)
	log.SetOutput(os.Stderr)

	return log
}

func persisted(t *testing.T, store *storage.MemoryStore) *report.RunOutput {
	t.Helper()

	data, err := store.LoadTest(context.Background())
	require.NoError(t, err)

	out, err := report.Unmarshal(data)
	require.NoError(t, err)

	return out
}

func TestComplete_SinglePass(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore()
	c := New(store, newTestLogger())

	c.Record("src/calc.test.ts", report.Test{
		Name:     "adds numbers",
		FullName: "Calculator > adds numbers",
		State:    report.StatePassed,
	})
	require.NoError(t, c.Complete(context.Background()))

	out := persisted(t, store)
	require.Len(t, out.TestModules, 1)
	require.Len(t, out.TestModules[0].Tests, 1)
	assert.Equal(t, report.StatePassed, out.TestModules[0].Tests[0].State)
	assert.Equal(t, report.ReasonPassed, out.Reason)
}

func TestComplete_SingleFail(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore()
	c := New(store, newTestLogger())

	c.Record("src/calc.test.ts", report.Test{
		Name:     "adds numbers",
		FullName: "Calculator > adds numbers",
		State:    report.StateFailed,
		Errors:   []report.ErrorDetail{{Message: "expected 5 to be 6"}},
	})
	require.NoError(t, c.Complete(context.Background()))

	out := persisted(t, store)
	assert.Equal(t, report.ReasonFailed, out.Reason)
	require.Len(t, out.TestModules[0].Tests[0].Errors, 1)
	assert.Contains(t, out.TestModules[0].Tests[0].Errors[0].Message, "expected 5 to be 6")
}

func TestComplete_EmptyRun(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore()
	c := New(store, newTestLogger())

	require.NoError(t, c.Complete(context.Background()))

	data, err := store.LoadTest(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"testModules":[],"unhandledErrors":[]}`, string(data))
}

func TestComplete_TwiceWritesIdenticalContent(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore()
	c := New(store, newTestLogger())

	c.Record("pkg/a", report.Test{Name: "TestA", FullName: "TestA", State: report.StatePassed})

	ctx := context.Background()
	require.NoError(t, c.Complete(ctx))
	require.NoError(t, c.Complete(ctx))

	writes := store.Writes()
	require.Len(t, writes, 2)
	assert.Equal(t, writes[0], writes[1])
}

func TestRecord_GroupsByModuleID(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore()
	c := New(store, newTestLogger())

	c.Record("pkg/b", report.Test{Name: "TestB1", FullName: "TestB1", State: report.StatePassed})
	c.Record("pkg/a", report.Test{Name: "TestA1", FullName: "TestA1", State: report.StatePassed})
	c.Record("pkg/b", report.Test{Name: "TestB2", FullName: "TestB2", State: report.StateSkipped})

	require.NoError(t, c.Complete(context.Background()))

	out := persisted(t, store)
	require.Len(t, out.TestModules, 2)

	// First-seen order for modules and tests.
	assert.Equal(t, "pkg/b", out.TestModules[0].ModuleID)
	assert.Equal(t, "pkg/a", out.TestModules[1].ModuleID)
	require.Len(t, out.TestModules[0].Tests, 2)
	assert.Equal(t, "TestB1", out.TestModules[0].Tests[0].Name)
	assert.Equal(t, "TestB2", out.TestModules[0].Tests[1].Name)
}

func TestRecord_CountPreserved(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore()
	c := New(store, newTestLogger())

	const n = 57
	for i := 0; i < n; i++ {
		c.Record("pkg/a", report.Test{Name: "T", FullName: "T", State: report.StatePassed})
	}
	require.NoError(t, c.Complete(context.Background()))

	out := persisted(t, store)

	total := 0
	for _, m := range out.TestModules {
		total += len(m.Tests)
	}
	assert.Equal(t, n, total)
}

func TestRecord_SanitizesMalformedInput(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore()
	c := New(store, newTestLogger())

	// No module, no names, errors on a passed test: everything degrades,
	// nothing is dropped or raised.
	c.Record("", report.Test{State: report.StatePassed, Errors: []report.ErrorDetail{{Message: "stray"}}})

	require.NoError(t, c.Complete(context.Background()))

	out := persisted(t, store)
	require.Len(t, out.TestModules, 1)
	assert.Equal(t, "unknown", out.TestModules[0].ModuleID)
	test := out.TestModules[0].Tests[0]
	assert.NotEmpty(t, test.Name)
	assert.NotEmpty(t, test.FullName)
	assert.Empty(t, test.Errors)
}

func TestInterrupt_OverridesPassed(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore()
	c := New(store, newTestLogger())

	c.Record("pkg/a", report.Test{Name: "TestA", FullName: "TestA", State: report.StatePassed})
	c.Interrupt(context.Background())

	out := persisted(t, store)
	assert.Equal(t, report.ReasonInterrupted, out.Reason)
	require.Len(t, out.TestModules, 1)
}

func TestInterrupt_EmptyRunStaysUnset(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore()
	c := New(store, newTestLogger())

	c.Interrupt(context.Background())

	out := persisted(t, store)
	assert.Equal(t, report.ReasonNone, out.Reason)
	assert.Empty(t, out.TestModules)
}

func TestInterrupt_SwallowsStoreFailure(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore()
	require.NoError(t, store.Close())

	c := New(store, newTestLogger())
	c.Record("pkg/a", report.Test{Name: "TestA", FullName: "TestA", State: report.StatePassed})

	// Must not panic or propagate; the interruption path is best-effort.
	c.Interrupt(context.Background())
}

func TestComplete_PropagatesStoreFailure(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore()
	require.NoError(t, store.Close())

	c := New(store, newTestLogger())
	err := c.Complete(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, storage.ErrClosed))
}

func TestRecordUnhandled(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore()
	c := New(store, newTestLogger())

	c.RecordUnhandled(report.UnhandledError{Name: "TypeError", Message: "boom"})
	c.RecordUnhandled(report.UnhandledError{})

	require.NoError(t, c.Complete(context.Background()))

	out := persisted(t, store)
	require.Len(t, out.UnhandledErrors, 2)
	assert.Equal(t, "boom", out.UnhandledErrors[0].Message)
	assert.NotEmpty(t, out.UnhandledErrors[1].Message)
}

func TestSnapshot_SharesNoState(t *testing.T) {
	t.Parallel()

	c := New(storage.NewMemoryStore(), newTestLogger())
	c.Record("pkg/a", report.Test{Name: "TestA", FullName: "TestA", State: report.StatePassed})

	snap := c.Snapshot()
	snap.TestModules[0].Tests[0].Name = "mutated"

	again := c.Snapshot()
	assert.Equal(t, "TestA", again.TestModules[0].Tests[0].Name)
}
