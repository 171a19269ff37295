package runner

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunAllStepsPass(t *testing.T) {
	steps := []Step{
		{Name: "format-check", Run: "true"},
		{Name: "lint", Run: "true"},
		{Name: "tests:unit", Run: "true"},
		{Name: "tests:serial-db", Run: "true"},
	}

	run := (&Runner{}).Run(context.Background(), steps)

	assert.True(t, run.Success())
	assert.Equal(t, 0, run.ExitCode())
	assert.Equal(t, "success", run.Status())
	assert.Equal(t, 3, run.Cursor)
	for _, res := range run.Steps {
		assert.Equal(t, StatusPassed, res.Outcome.Status)
	}
}

func TestRunHaltsAtFirstFailure(t *testing.T) {
	steps := []Step{
		{Name: "format-check", Run: "true"},
		{Name: "lint", Run: "exit 1"},
		{Name: "tests:unit", Run: "true"},
		{Name: "tests:serial-db", Run: "true"},
	}

	run := (&Runner{}).Run(context.Background(), steps)

	assert.False(t, run.Success())
	assert.Equal(t, 1, run.Cursor)

	res, ok := run.Halted()
	require.True(t, ok)
	assert.Equal(t, "lint", res.Step.Name)
	assert.Equal(t, FailNonZeroExit, res.Outcome.Kind)
	assert.Equal(t, 1, res.Outcome.ExitCode)

	// Steps before the failure passed; steps after never ran, even
	// though they would have succeeded.
	assert.Equal(t, StatusPassed, run.Steps[0].Outcome.Status)
	assert.Equal(t, StatusNotRun, run.Steps[2].Outcome.Status)
	assert.Equal(t, StatusNotRun, run.Steps[3].Outcome.Status)
}

func TestRunFailureAtFirstStep(t *testing.T) {
	steps := []Step{
		{Name: "format-check", Run: "exit 1"},
		{Name: "lint", Run: "true"},
		{Name: "tests:unit", Run: "true"},
		{Name: "tests:serial-db", Run: "true"},
	}

	run := (&Runner{}).Run(context.Background(), steps)

	res, ok := run.Halted()
	require.True(t, ok)
	assert.Equal(t, "format-check", res.Step.Name)
	assert.Equal(t, 0, run.Cursor)
	for _, later := range run.Steps[1:] {
		assert.Equal(t, StatusNotRun, later.Outcome.Status)
	}
}

func TestRunPropagatesExitCode(t *testing.T) {
	run := (&Runner{}).Run(context.Background(), []Step{
		{Name: "failing", Run: "exit 42"},
	})

	assert.Equal(t, 42, run.ExitCode())
}

func TestRunCapturesCombinedOutput(t *testing.T) {
	run := (&Runner{}).Run(context.Background(), []Step{
		{Name: "noisy", Run: "echo to-stdout; echo to-stderr 1>&2"},
	})

	require.True(t, run.Success())
	out := run.Steps[0].Outcome.Output
	assert.Contains(t, out, "to-stdout")
	assert.Contains(t, out, "to-stderr")
}

func TestRunStreamsOutput(t *testing.T) {
	var stream bytes.Buffer
	run := (&Runner{Stream: &stream}).Run(context.Background(), []Step{
		{Name: "echo", Run: "echo hello"},
	})

	require.True(t, run.Success())
	assert.Contains(t, stream.String(), "hello")
	assert.Contains(t, run.Steps[0].Outcome.Output, "hello")
}

func TestRunCommandNotFound(t *testing.T) {
	run := (&Runner{}).Run(context.Background(), []Step{
		{Name: "missing", Run: "definitely-not-a-real-command-xyz"},
	})

	res, ok := run.Halted()
	require.True(t, ok)
	assert.Equal(t, FailNotFound, res.Outcome.Kind)
	assert.Equal(t, 127, res.Outcome.ExitCode)
	assert.NotZero(t, run.ExitCode())
}

func TestRunStepTimeout(t *testing.T) {
	run := (&Runner{}).Run(context.Background(), []Step{
		{Name: "slow", Run: "sleep 5", Timeout: 100 * time.Millisecond},
		{Name: "after", Run: "true"},
	})

	res, ok := run.Halted()
	require.True(t, ok)
	assert.Equal(t, "slow", res.Step.Name)
	assert.Equal(t, FailTimedOut, res.Outcome.Kind)
	assert.Equal(t, StatusNotRun, run.Steps[1].Outcome.Status)
	assert.Equal(t, 1, run.ExitCode())
}

func TestRunCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	run := (&Runner{}).Run(ctx, []Step{
		{Name: "never", Run: "sleep 5"},
		{Name: "after", Run: "true"},
	})

	res, ok := run.Halted()
	require.True(t, ok)
	assert.Equal(t, FailCancelled, res.Outcome.Kind)
	assert.Equal(t, StatusNotRun, run.Steps[1].Outcome.Status)
}

func TestRunEnvOverride(t *testing.T) {
	run := (&Runner{}).Run(context.Background(), []Step{
		{
			Name: "env-check",
			Run:  `test "$VERIGO_TEST_VALUE" = expected`,
			Env:  map[string]string{"VERIGO_TEST_VALUE": "expected"},
		},
	})

	assert.True(t, run.Success())
}

func TestRunWorkingDirectory(t *testing.T) {
	dir := t.TempDir()

	run := (&Runner{Dir: dir}).Run(context.Background(), []Step{
		{Name: "pwd-check", Run: `test "$(pwd)" = "$VERIGO_WANT"`, Env: map[string]string{"VERIGO_WANT": dir}},
	})

	assert.True(t, run.Success(), run.Steps[0].Outcome.Output)
}

func TestRunEmptyStepsIsNotSuccess(t *testing.T) {
	run := (&Runner{}).Run(context.Background(), nil)

	assert.False(t, run.Success())
	assert.Equal(t, -1, run.Cursor)
	assert.Equal(t, 1, run.ExitCode())

	// nothing was attempted, so nothing failed either
	_, halted := run.Halted()
	assert.False(t, halted)
}

func TestRunDeterministicOrder(t *testing.T) {
	steps := []Step{
		{Name: "a", Run: "true"},
		{Name: "b", Run: "exit 7"},
		{Name: "c", Run: "true"},
	}

	first := (&Runner{}).Run(context.Background(), steps)
	second := (&Runner{}).Run(context.Background(), steps)

	require.Equal(t, len(first.Steps), len(second.Steps))
	for i := range first.Steps {
		assert.Equal(t, first.Steps[i].Outcome.Status, second.Steps[i].Outcome.Status)
		assert.Equal(t, first.Steps[i].Outcome.ExitCode, second.Steps[i].Outcome.ExitCode)
	}
	assert.Equal(t, first.Cursor, second.Cursor)
	assert.Equal(t, first.ExitCode(), second.ExitCode())
}

func TestRunStepHooksFireInOrder(t *testing.T) {
	var events []string
	r := &Runner{
		OnStepStart: func(i int, step Step) {
			events = append(events, "start:"+step.Name)
		},
		OnStepDone: func(i int, res StepResult) {
			events = append(events, "done:"+res.Step.Name)
		},
	}

	r.Run(context.Background(), []Step{
		{Name: "a", Run: "true"},
		{Name: "b", Run: "exit 1"},
		{Name: "c", Run: "true"},
	})

	assert.Equal(t, []string{"start:a", "done:a", "start:b", "done:b"}, events)
}
