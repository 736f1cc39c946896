package phpunit

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

func TestConsume_MixedOutcomes(t *testing.T) {
	t.Parallel()

	doc := `<?xml version="1.0" encoding="UTF-8"?>
<testsuites>
  <testsuite name="CalcTest" file="/work/tests/CalcTest.php" tests="3" failures="1" skipped="1">
    <testcase name="testAdd" class="CalcTest" file="/work/tests/CalcTest.php" time="0.001"/>
    <testcase name="testSub" class="CalcTest" file="/work/tests/CalcTest.php" time="0.002">
      <failure type="PHPUnit\Framework\ExpectationFailedException">CalcTest::testSub
Failed asserting that 5 matches expected 6.

/work/tests/CalcTest.php:17</failure>
    </testcase>
    <testcase name="testDiv" class="CalcTest" file="/work/tests/CalcTest.php" time="0">
      <skipped/>
    </testcase>
  </testsuite>
</testsuites>`

	out := consume(t, doc)
	require.Len(t, out.TestModules, 1)
	assert.Equal(t, "/work/tests/CalcTest.php", out.TestModules[0].ModuleID)

	tests := out.TestModules[0].Tests
	require.Len(t, tests, 3)

	assert.Equal(t, "testAdd", tests[0].Name)
	assert.Equal(t, "CalcTest > testAdd", tests[0].FullName)
	assert.Equal(t, report.StatePassed, tests[0].State)

	assert.Equal(t, report.StateFailed, tests[1].State)
	require.Len(t, tests[1].Errors, 1)
	assert.Contains(t, tests[1].Errors[0].Message, "Failed asserting that 5 matches expected 6")

	assert.Equal(t, report.StateSkipped, tests[2].State)
	assert.Empty(t, tests[2].Errors)

	assert.Equal(t, report.ReasonFailed, out.Reason)
}

func TestConsume_NestedSuites(t *testing.T) {
	t.Parallel()

	doc := `<?xml version="1.0"?>
<testsuites>
  <testsuite name="App">
    <testsuite name="CalcTest" file="/work/tests/CalcTest.php">
      <testcase name="testAdd" class="CalcTest" file="/work/tests/CalcTest.php"/>
    </testsuite>
    <testsuite name="AuthTest" file="/work/tests/AuthTest.php">
      <testcase name="testLogin" class="AuthTest" file="/work/tests/AuthTest.php"/>
    </testsuite>
  </testsuite>
</testsuites>`

	out := consume(t, doc)
	require.Len(t, out.TestModules, 2)
	assert.Equal(t, "/work/tests/CalcTest.php", out.TestModules[0].ModuleID)
	assert.Equal(t, "/work/tests/AuthTest.php", out.TestModules[1].ModuleID)
	assert.Equal(t, report.ReasonPassed, out.Reason)
}

func TestConsume_ErrorElementFailsTest(t *testing.T) {
	t.Parallel()

	doc := `<?xml version="1.0"?>
<testsuites>
  <testsuite name="DbTest" file="/work/tests/DbTest.php">
    <testcase name="testQuery" class="DbTest" file="/work/tests/DbTest.php">
      <error type="Error">Call to undefined method Db::connect()</error>
    </testcase>
  </testsuite>
</testsuites>`

	out := consume(t, doc)
	test := out.TestModules[0].Tests[0]
	assert.Equal(t, report.StateFailed, test.State)
	assert.Contains(t, test.Errors[0].Message, "undefined method")
}

func TestConsume_SuiteErrorWithoutCasesSynthesizesOneFailedTest(t *testing.T) {
	t.Parallel()

	doc := `<?xml version="1.0"?>
<testsuites>
  <testsuite name="BrokenTest" file="/work/tests/BrokenTest.php" tests="0" errors="1">
    <error type="ParseError">syntax error, unexpected token "}" in /work/tests/BrokenTest.php on line 12</error>
  </testsuite>
</testsuites>`

	out := consume(t, doc)
	require.Len(t, out.TestModules, 1)

	tests := out.TestModules[0].Tests
	require.Len(t, tests, 1)
	assert.Equal(t, "suite error", tests[0].Name)
	assert.Equal(t, report.StateFailed, tests[0].State)
	assert.Contains(t, tests[0].Errors[0].Message, "syntax error")
	assert.Equal(t, report.ReasonFailed, out.Reason)
}

func TestConsume_SuiteErrorAlongsideCasesRecordsUnhandledError(t *testing.T) {
	t.Parallel()

	doc := `<?xml version="1.0"?>
<testsuites>
  <testsuite name="CalcTest" file="/work/tests/CalcTest.php" tests="1" errors="1">
    <testcase name="testAdd" class="CalcTest" file="/work/tests/CalcTest.php" time="0.001"/>
    <error type="Error">Call to undefined function in tearDownAfterClass()</error>
  </testsuite>
</testsuites>`

	out := consume(t, doc)
	require.Len(t, out.TestModules, 1)
	require.Len(t, out.TestModules[0].Tests, 1)
	assert.Equal(t, report.StatePassed, out.TestModules[0].Tests[0].State)

	require.Len(t, out.UnhandledErrors, 1)
	assert.Contains(t, out.UnhandledErrors[0].Message, "tearDownAfterClass")
}

func TestConsume_EmptyDocument(t *testing.T) {
	t.Parallel()

	out := consume(t, `<?xml version="1.0"?><testsuites/>`)
	assert.Empty(t, out.TestModules)
	assert.Equal(t, report.ReasonNone, out.Reason)
}

func TestConsume_InvalidXML(t *testing.T) {
	t.Parallel()

	c := collector.New(nil, newTestLogger())
	r := New(c, newTestLogger())
	err := r.Consume(context.Background(), strings.NewReader("this is not xml"))
	require.Error(t, err)
	assert.Empty(t, c.Snapshot().TestModules)
}
