package history

import (
	"database/sql"
	"fmt"

	"verigo/runner"
)

// RecordResult persists a finished run: its terminal status plus one row
// per declared step, NotRun steps included.
func (s *Store) RecordResult(runID int, run *runner.PipelineRun) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i, res := range run.Steps {
		var duration any
		if res.Outcome.Status != runner.StatusNotRun {
			duration = res.Duration.String()
		}
		_, err := tx.Exec(
			`INSERT INTO step_results (run_id, position, name, status, failure_kind, exit_code, command, output, duration)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, i, res.Step.Name, string(res.Outcome.Status), string(res.Outcome.Kind),
			res.Outcome.ExitCode, res.Step.Run, res.Outcome.Output, duration,
		)
		if err != nil {
			return fmt.Errorf("failed to record step %q: %w", res.Step.Name, err)
		}
	}

	_, err = tx.Exec(
		"UPDATE runs SET status = ?, finished_at = datetime('now'), duration = ? WHERE id = ?",
		run.Status(), run.Duration.String(), runID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}

	return tx.Commit()
}

// GetStepRecords retrieves all step rows for a run in pipeline order.
func (s *Store) GetStepRecords(runID int) ([]*StepRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, run_id, position, name, status, failure_kind, exit_code, command, output, duration
		 FROM step_results WHERE run_id = ? ORDER BY position ASC`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query step results: %w", err)
	}
	defer rows.Close()

	var steps []*StepRecord
	for rows.Next() {
		var rec StepRecord
		var output sql.NullString
		var duration sql.NullString

		err := rows.Scan(&rec.ID, &rec.RunID, &rec.Position, &rec.Name, &rec.Status,
			&rec.FailureKind, &rec.ExitCode, &rec.Command, &output, &duration)
		if err != nil {
			return nil, fmt.Errorf("failed to scan step result: %w", err)
		}
		if output.Valid {
			rec.Output = output.String
		}
		if duration.Valid {
			d := duration.String
			rec.Duration = &d
		}
		steps = append(steps, &rec)
	}
	return steps, rows.Err()
}
