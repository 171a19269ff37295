package runner

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"time"
)

// shell exit code for "command not found"
const exitNotFound = 127

// Runner executes verification pipelines: strictly sequential, fail-fast,
// no retries. Step failures are data on the returned PipelineRun, never
// errors; Run itself cannot fail.
type Runner struct {
	// Dir is the working directory for every step; empty means the
	// caller's current directory.
	Dir string

	// Stream, when set, receives each step's output live in addition to
	// the captured copy on the outcome.
	Stream io.Writer

	// OnStepStart and OnStepDone are optional hooks for progress
	// reporting. They run synchronously between steps, so the next step
	// never starts before the hook for the previous one has returned.
	OnStepStart func(i int, step Step)
	OnStepDone  func(i int, res StepResult)
}

// Run executes steps in declaration order and stops at the first failure.
// Steps after the failing one stay NotRun. Cancelling ctx terminates the
// currently running step's process and halts the run as on any failure.
func (r *Runner) Run(ctx context.Context, steps []Step) *PipelineRun {
	start := time.Now()
	run := &PipelineRun{
		Steps:  make([]StepResult, len(steps)),
		Cursor: -1,
	}
	for i := range steps {
		run.Steps[i] = StepResult{
			Step:    steps[i],
			Outcome: Outcome{Status: StatusNotRun, ExitCode: -1},
		}
	}

	for i := range steps {
		run.Cursor = i
		if r.OnStepStart != nil {
			r.OnStepStart(i, steps[i])
		}
		res := r.runStep(ctx, steps[i])
		run.Steps[i] = res
		if r.OnStepDone != nil {
			r.OnStepDone(i, res)
		}
		if res.Outcome.Status == StatusFailed {
			break
		}
	}

	run.Duration = time.Since(start)
	return run
}

func (r *Runner) runStep(ctx context.Context, step Step) StepResult {
	start := time.Now()

	cmdCtx := ctx
	if step.Timeout > 0 {
		var cancel context.CancelFunc
		cmdCtx, cancel = context.WithTimeout(ctx, step.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(cmdCtx, "sh", "-c", step.Run)
	cmd.Dir = r.Dir
	if len(step.Env) > 0 {
		env := os.Environ()
		for k, v := range step.Env {
			env = append(env, k+"="+v)
		}
		cmd.Env = env
	}

	var buf bytes.Buffer
	out := io.Writer(&buf)
	if r.Stream != nil {
		out = io.MultiWriter(&buf, r.Stream)
	}
	cmd.Stdout = out
	cmd.Stderr = out

	err := cmd.Run()

	res := StepResult{
		Step:     step,
		Duration: time.Since(start),
		Outcome:  Outcome{Status: StatusPassed, Output: buf.String()},
	}
	if err != nil {
		res.Outcome.Status = StatusFailed
		res.Outcome.ExitCode = exitCode(err)
		res.Outcome.Kind = classify(ctx, cmdCtx, err, res.Outcome.ExitCode)
	}
	return res
}

// exitCode extracts the process exit code, or -1 when there is none
// (command never started, or the process was killed by a signal).
func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// classify maps a step failure to its reporting kind. Cancellation of the
// caller's context wins over a per-step deadline, since the deadline is
// derived from it.
func classify(ctx, cmdCtx context.Context, err error, code int) FailureKind {
	switch {
	case ctx.Err() != nil && errors.Is(ctx.Err(), context.Canceled):
		return FailCancelled
	case errors.Is(cmdCtx.Err(), context.DeadlineExceeded):
		return FailTimedOut
	case isNotFound(err, code):
		return FailNotFound
	default:
		return FailNonZeroExit
	}
}

// isNotFound covers both resolution failures: the shell itself missing
// (exec.Error before the process starts) and the shell reporting an
// unresolvable command with exit 127.
func isNotFound(err error, code int) bool {
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		return true
	}
	return code == exitNotFound
}
