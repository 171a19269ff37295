package history

import "time"

// Run is a recorded pipeline run.
type Run struct {
	ID         int        `json:"id"`
	Status     string     `json:"status"` // "running", "success", "halted"
	ConfigPath string     `json:"config_path"`
	Workspace  string     `json:"workspace,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Duration   *string    `json:"duration,omitempty"`
}

// StepRecord is the recorded outcome of one step of a run. NotRun steps
// are recorded too, so a halted run shows what never got attempted.
type StepRecord struct {
	ID          int     `json:"id"`
	RunID       int     `json:"run_id"`
	Position    int     `json:"position"`
	Name        string  `json:"name"`
	Status      string  `json:"status"` // "not_run", "passed", "failed"
	FailureKind string  `json:"failure_kind,omitempty"`
	ExitCode    int     `json:"exit_code"`
	Command     string  `json:"command"`
	Output      string  `json:"output,omitempty"`
	Duration    *string `json:"duration,omitempty"`
}
