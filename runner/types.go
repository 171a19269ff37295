package runner

import "time"

// StepStatus is the terminal state of a single step.
type StepStatus string

const (
	StatusNotRun StepStatus = "not_run"
	StatusPassed StepStatus = "passed"
	StatusFailed StepStatus = "failed"
)

// FailureKind says why a failed step failed. Every kind halts the run the
// same way; the distinction exists for reporting only.
type FailureKind string

const (
	FailNonZeroExit FailureKind = "non_zero_exit"
	FailNotFound    FailureKind = "not_found"
	FailTimedOut    FailureKind = "timed_out"
	FailCancelled   FailureKind = "cancelled"
)

// Step is one ordered unit of the verification pipeline. Run is an opaque
// shell command owned by the external tool; the runner never parses it.
// Env entries are merged over the inherited environment.
type Step struct {
	Name    string            `json:"name"`
	Run     string            `json:"run"`
	Env     map[string]string `json:"env,omitempty"`
	Timeout time.Duration     `json:"timeout,omitempty"`
}

// Outcome is the result of attempting one step. ExitCode is -1 when the
// process never produced one (not found, killed on timeout or cancel).
type Outcome struct {
	Status   StepStatus  `json:"status"`
	Kind     FailureKind `json:"kind,omitempty"`
	ExitCode int         `json:"exit_code"`
	Output   string      `json:"output"`
}

// StepResult pairs a step with its outcome.
type StepResult struct {
	Step     Step          `json:"step"`
	Outcome  Outcome       `json:"outcome"`
	Duration time.Duration `json:"duration"`
}

// PipelineRun is one complete fail-fast pass over an ordered step list.
// Cursor is the index of the last attempted step, -1 if none ran. A run is
// constructed fresh per invocation; the runner keeps no state across runs.
type PipelineRun struct {
	Steps    []StepResult  `json:"steps"`
	Cursor   int           `json:"cursor"`
	Duration time.Duration `json:"duration"`
}

// Success reports whether every step passed. An empty run is not a success.
func (r *PipelineRun) Success() bool {
	if len(r.Steps) == 0 {
		return false
	}
	for i := range r.Steps {
		if r.Steps[i].Outcome.Status != StatusPassed {
			return false
		}
	}
	return true
}

// Halted returns the failing step of a halted run.
func (r *PipelineRun) Halted() (*StepResult, bool) {
	for i := range r.Steps {
		if r.Steps[i].Outcome.Status == StatusFailed {
			return &r.Steps[i], true
		}
	}
	return nil, false
}

// Status returns "success" or "halted" for recording and API responses.
func (r *PipelineRun) Status() string {
	if r.Success() {
		return "success"
	}
	return "halted"
}

// ExitCode maps the run to a process exit code: 0 on success, the failing
// step's exit code when the step produced one, and 1 otherwise.
func (r *PipelineRun) ExitCode() int {
	if r.Success() {
		return 0
	}
	if res, ok := r.Halted(); ok && res.Outcome.ExitCode > 0 {
		return res.Outcome.ExitCode
	}
	return 1
}
