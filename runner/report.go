package runner

import (
	"fmt"
	"strings"
	"time"
)

// Report renders a human-readable summary of a finished run. On success it
// confirms all steps passed; on a halt it names the failing step, its exit
// code, and echoes its captured output verbatim so the failure can be
// diagnosed without re-running anything.
func Report(run *PipelineRun) string {
	if len(run.Steps) == 0 {
		return "no steps to run"
	}
	if run.Success() {
		return fmt.Sprintf("all %d steps passed in %s", len(run.Steps), run.Duration.Round(time.Millisecond))
	}

	res, ok := run.Halted()
	if !ok {
		// A non-success run with no failed step can only mean it was
		// never attempted.
		return fmt.Sprintf("no steps attempted (%d declared)", len(run.Steps))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "halted at step %d of %d: %q %s\n",
		run.Cursor+1, len(run.Steps), res.Step.Name, describeFailure(res))
	b.WriteString("--- output ---\n")
	b.WriteString(res.Outcome.Output)
	if !strings.HasSuffix(res.Outcome.Output, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("--------------")
	return b.String()
}

func describeFailure(res *StepResult) string {
	switch res.Outcome.Kind {
	case FailNotFound:
		return "(command not found)"
	case FailTimedOut:
		return fmt.Sprintf("(timed out after %s)", res.Step.Timeout)
	case FailCancelled:
		return "(cancelled)"
	default:
		return fmt.Sprintf("(exit code %d)", res.Outcome.ExitCode)
	}
}
