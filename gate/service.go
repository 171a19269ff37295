// Package gate ties the pipeline runner to its surroundings: config
// loading, optional run history, and lifecycle events. The runner core
// stays pure; everything stateful lives here.
package gate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"path/filepath"
	"time"

	"verigo/events"
	"verigo/runner"
	"verigo/runner/history"
)

// Service runs verification pipelines for config paths or workspaces.
// Store and Broker are optional; Stream, when set, gets live progress and
// step output.
type Service struct {
	Store  *history.Store
	Broker *events.Broker
	Stream io.Writer
}

// Verify loads the pipeline definition at configPath (falling back to the
// built-in default when the file does not exist), executes it in the
// config's directory, records and broadcasts the result, and returns the
// finished run. Step failures live on the run; the returned error covers
// setup problems only (unreadable or invalid config). History recording
// is best-effort: a failing store is logged and never masks the run's
// result or its exit code.
func (s *Service) Verify(ctx context.Context, configPath, workspace string) (*runner.PipelineRun, error) {
	cfg, dir, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	steps, err := cfg.Pipeline()
	if err != nil {
		return nil, err
	}

	var runID int
	if s.Store != nil {
		rec, err := s.Store.CreateRun(configPath, workspace)
		if err != nil {
			log.Printf("⚠️  history unavailable, run will not be recorded: %v", err)
		} else {
			runID = rec.ID
		}
	}
	s.publish(events.RunStarted, map[string]any{
		"run_id":    runID,
		"workspace": workspace,
		"steps":     len(steps),
	})

	r := &runner.Runner{
		Dir:    dir,
		Stream: s.Stream,
		OnStepStart: func(i int, step runner.Step) {
			s.printf("→ %s\n", step.Name)
		},
		OnStepDone: func(i int, res runner.StepResult) {
			if res.Outcome.Status == runner.StatusPassed {
				s.printf("✅ %s (%s)\n", res.Step.Name, res.Duration.Round(time.Millisecond))
			} else {
				s.printf("❌ %s failed\n", res.Step.Name)
			}
			s.publish(events.StepFinished, map[string]any{
				"run_id": runID,
				"step":   res.Step.Name,
				"status": res.Outcome.Status,
			})
		},
	}
	run := r.Run(ctx, steps)

	if s.Store != nil && runID != 0 {
		if err := s.Store.RecordResult(runID, run); err != nil {
			log.Printf("⚠️  failed to record run %d: %v", runID, err)
		}
	}
	s.publish(events.RunFinished, map[string]any{
		"run_id":    runID,
		"workspace": workspace,
		"status":    run.Status(),
	})
	return run, nil
}

// VerifyWorkspace runs the pipeline of a registered workspace.
func (s *Service) VerifyWorkspace(ctx context.Context, w *runner.Workspace, baseDir string) (*runner.PipelineRun, error) {
	if err := w.Validate(baseDir); err != nil {
		return nil, err
	}
	return s.Verify(ctx, w.ConfigPath(baseDir), w.Name)
}

// loadConfig resolves the pipeline definition and the directory the steps
// run in. A missing file means the built-in default gate in the config's
// directory; an empty path means the default gate in the current one.
func loadConfig(configPath string) (*runner.Config, string, error) {
	if configPath == "" {
		return runner.DefaultConfig(), "", nil
	}
	dir := filepath.Dir(configPath)
	cfg, err := runner.LoadConfig(configPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return runner.DefaultConfig(), dir, nil
		}
		return nil, "", err
	}
	return cfg, dir, nil
}

func (s *Service) publish(event string, payload any) {
	if s.Broker != nil {
		s.Broker.Publish(event, payload)
	}
}

func (s *Service) printf(format string, args ...any) {
	if s.Stream != nil {
		fmt.Fprintf(s.Stream, format, args...)
	}
}
