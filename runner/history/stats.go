package history

import (
	"database/sql"
	"fmt"
)

// WorkspaceStats summarizes one recorded run of a workspace.
type WorkspaceStats struct {
	RunID     int     `json:"run_id"`
	Status    string  `json:"status"`
	Duration  *string `json:"duration,omitempty"`
	StartedAt string  `json:"started_at"`
	StepCount int     `json:"step_count"`
}

// LatestRuns returns the most recent runs of a workspace with their step
// counts, newest first.
func (s *Store) LatestRuns(workspace string, limit int) ([]WorkspaceStats, error) {
	query := `
		SELECT r.id, r.status, r.duration, r.started_at, COUNT(sr.id) AS step_count
		FROM runs r
		LEFT JOIN step_results sr ON r.id = sr.run_id
		WHERE r.workspace = ?
		GROUP BY r.id, r.status, r.duration, r.started_at
		ORDER BY r.started_at DESC
		LIMIT ?
	`

	rows, err := s.db.Query(query, workspace, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest runs: %w", err)
	}
	defer rows.Close()

	stats := make([]WorkspaceStats, 0)
	for rows.Next() {
		var stat WorkspaceStats
		var duration sql.NullString

		err := rows.Scan(&stat.RunID, &stat.Status, &duration, &stat.StartedAt, &stat.StepCount)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run stats: %w", err)
		}
		if duration.Valid {
			d := duration.String
			stat.Duration = &d
		}
		stats = append(stats, stat)
	}
	return stats, rows.Err()
}
