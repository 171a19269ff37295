package history

import (
	"database/sql"
	"fmt"
	"time"
)

// CreateRun records the start of a pipeline run.
func (s *Store) CreateRun(configPath, workspace string) (*Run, error) {
	now := time.Now()
	result, err := s.db.Exec(
		"INSERT INTO runs (status, config_path, workspace, started_at) VALUES (?, ?, ?, ?)",
		"running", configPath, workspace, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get run ID: %w", err)
	}

	return &Run{
		ID:         int(id),
		Status:     "running",
		ConfigPath: configPath,
		Workspace:  workspace,
		StartedAt:  now,
	}, nil
}

// FinishRun records the terminal status and duration of a run.
func (s *Store) FinishRun(runID int, status string, duration time.Duration) error {
	_, err := s.db.Exec(
		"UPDATE runs SET status = ?, finished_at = ?, duration = ? WHERE id = ?",
		status, time.Now(), duration.String(), runID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return nil
}

// GetRuns retrieves recent runs, most recent first.
func (s *Store) GetRuns(limit int) ([]*Run, error) {
	rows, err := s.db.Query(
		"SELECT id, status, config_path, workspace, started_at, finished_at, duration FROM runs ORDER BY started_at DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows.Scan)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun retrieves a single run by ID.
func (s *Store) GetRun(runID int) (*Run, error) {
	row := s.db.QueryRow(
		"SELECT id, status, config_path, workspace, started_at, finished_at, duration FROM runs WHERE id = ?",
		runID,
	)
	r, err := scanRun(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %d not found", runID)
	}
	return r, err
}

func scanRun(scan func(...any) error) (*Run, error) {
	var r Run
	var finishedAt sql.NullTime
	var duration sql.NullString

	if err := scan(&r.ID, &r.Status, &r.ConfigPath, &r.Workspace, &r.StartedAt, &finishedAt, &duration); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	if finishedAt.Valid {
		r.FinishedAt = &finishedAt.Time
	}
	if duration.Valid {
		d := duration.String
		r.Duration = &d
	}
	return &r, nil
}
