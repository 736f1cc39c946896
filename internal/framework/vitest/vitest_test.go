package vitest

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/testguard/testguard/internal/collector"
	"github.com/testguard/testguard/internal/report"
)

func newTestLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetLevel(logrus.DebugLevel)
	log.SetOutput(os.Stderr)

	return log
}

func consume(t *testing.T, doc string) *report.RunOutput {
	t.Helper()

	c := collector.New(nil, newTestLogger())
	r := New(c, newTestLogger())
	require.NoError(t, r.Consume(context.Background(), strings.NewReader(doc)))

	return c.Snapshot()
}

func TestConsume_BasicOutcomes(t *testing.T) {
	t.Parallel()

	doc := `{
		"success": false,
		"testResults": [
			{
				"name": "/work/src/calc.test.ts",
				"status": "failed",
				"assertionResults": [
					{ "ancestorTitles": ["Calculator"], "title": "adds numbers",
					  "fullName": "Calculator adds numbers", "status": "passed", "failureMessages": [] },
					{ "ancestorTitles": ["Calculator"], "title": "subtracts numbers",
					  "fullName": "Calculator subtracts numbers", "status": "failed",
					  "failureMessages": ["AssertionError: expected 5 to be 6\n    at /work/src/calc.test.ts:12:20"] },
					{ "ancestorTitles": ["Calculator"], "title": "divides numbers",
					  "fullName": "Calculator divides numbers", "status": "pending", "failureMessages": [] }
				]
			}
		]
	}`

	out := consume(t, doc)
	require.Len(t, out.TestModules, 1)
	assert.Equal(t, "/work/src/calc.test.ts", out.TestModules[0].ModuleID)

	tests := out.TestModules[0].Tests
	require.Len(t, tests, 3)

	assert.Equal(t, "adds numbers", tests[0].Name)
	assert.Equal(t, "Calculator > adds numbers", tests[0].FullName)
	assert.Equal(t, report.StatePassed, tests[0].State)

	assert.Equal(t, report.StateFailed, tests[1].State)
	require.Len(t, tests[1].Errors, 1)
	assert.Equal(t, "AssertionError: expected 5 to be 6", tests[1].Errors[0].Message)
	assert.Contains(t, tests[1].Errors[0].Stack, "calc.test.ts:12:20")

	assert.Equal(t, report.StateSkipped, tests[2].State)
	assert.Equal(t, report.ReasonFailed, out.Reason)
}

func TestConsume_TodoAndDisabledAreExcluded(t *testing.T) {
	t.Parallel()

	doc := `{
		"testResults": [
			{
				"name": "/work/src/wip.test.ts",
				"status": "passed",
				"assertionResults": [
					{ "title": "implement later", "status": "todo", "failureMessages": [] },
					{ "title": "old behavior", "status": "disabled", "failureMessages": [] }
				]
			}
		]
	}`

	out := consume(t, doc)
	// Entries without test intent must not even create the module.
	assert.Empty(t, out.TestModules)
	assert.Equal(t, report.ReasonNone, out.Reason)
}

func TestConsume_RenderCrashSynthesizesOneFailedTest(t *testing.T) {
	t.Parallel()

	doc := `{
		"testResults": [
			{
				"name": "/work/src/Button.stories.tsx",
				"status": "failed",
				"message": "Error: Cannot read properties of undefined (reading 'label')\n    at render (/work/src/Button.tsx:8:30)",
				"assertionResults": []
			}
		]
	}`

	out := consume(t, doc)
	require.Len(t, out.TestModules, 1)

	tests := out.TestModules[0].Tests
	require.Len(t, tests, 1)
	assert.Equal(t, "suite error", tests[0].Name)
	assert.Equal(t, report.StateFailed, tests[0].State)
	require.Len(t, tests[0].Errors, 1)
	assert.Contains(t, tests[0].Errors[0].Message, "Cannot read properties of undefined")
	assert.Equal(t, report.ReasonFailed, out.Reason)
}

func TestConsume_FailedFileWithRecordedTestsGetsNoSynthetic(t *testing.T) {
	t.Parallel()

	doc := `{
		"testResults": [
			{
				"name": "/work/src/calc.test.ts",
				"status": "failed",
				"message": "1 test failed",
				"assertionResults": [
					{ "title": "fails", "status": "failed", "failureMessages": ["boom"] }
				]
			}
		]
	}`

	out := consume(t, doc)
	require.Len(t, out.TestModules[0].Tests, 1)
	assert.Equal(t, "fails", out.TestModules[0].Tests[0].Name)
}

func TestConsume_LeadingRunnerNoiseBeforeJSON(t *testing.T) {
	t.Parallel()

	doc := ` RUN  v3.0.0 /work
{"testResults":[{"name":"/work/a.test.ts","status":"passed","assertionResults":[{"title":"ok","status":"passed","failureMessages":[]}]}]}`

	out := consume(t, doc)
	require.Len(t, out.TestModules, 1)
	assert.Equal(t, report.ReasonPassed, out.Reason)
}

func TestConsume_BannerContainingBraceBeforeJSON(t *testing.T) {
	t.Parallel()

	// The brace inside the banner line must not be mistaken for the start
	// of the document.
	doc := ` RUN  v3.0.0 /work {mode: watch}
 some spinner {25%} frame
{"testResults":[{"name":"/work/a.test.ts","status":"passed","assertionResults":[{"title":"ok","status":"passed","failureMessages":[]}]}]}`

	out := consume(t, doc)
	require.Len(t, out.TestModules, 1)
	assert.Equal(t, report.ReasonPassed, out.Reason)
}

func TestConsume_GarbageInput(t *testing.T) {
	t.Parallel()

	c := collector.New(nil, newTestLogger())
	r := New(c, newTestLogger())
	err := r.Consume(context.Background(), strings.NewReader("not a json document"))
	require.Error(t, err)

	// Nothing recorded: stream-level failure, not fabricated evidence.
	assert.Empty(t, c.Snapshot().TestModules)
}
