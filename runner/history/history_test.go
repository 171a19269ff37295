package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"verigo/runner"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "verigo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func haltedRun() *runner.PipelineRun {
	return &runner.PipelineRun{
		Cursor:   1,
		Duration: 3 * time.Second,
		Steps: []runner.StepResult{
			{
				Step:     runner.Step{Name: "format-check", Run: "true"},
				Outcome:  runner.Outcome{Status: runner.StatusPassed},
				Duration: time.Second,
			},
			{
				Step: runner.Step{Name: "lint", Run: "exit 1"},
				Outcome: runner.Outcome{
					Status:   runner.StatusFailed,
					Kind:     runner.FailNonZeroExit,
					ExitCode: 1,
					Output:   "warning treated as error\n",
				},
				Duration: 2 * time.Second,
			},
			{
				Step:    runner.Step{Name: "tests:unit", Run: "true"},
				Outcome: runner.Outcome{Status: runner.StatusNotRun, ExitCode: -1},
			},
		},
	}
}

func TestRecordAndGetRun(t *testing.T) {
	store := newTestStore(t)

	rec, err := store.CreateRun("/src/indexer/verigo.yml", "indexer")
	require.NoError(t, err)
	assert.Equal(t, "running", rec.Status)

	require.NoError(t, store.RecordResult(rec.ID, haltedRun()))

	got, err := store.GetRun(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "halted", got.Status)
	assert.Equal(t, "indexer", got.Workspace)
	require.NotNil(t, got.Duration)
	assert.Equal(t, "3s", *got.Duration)
	assert.NotNil(t, got.FinishedAt)
}

func TestStepRecordsKeepPipelineOrder(t *testing.T) {
	store := newTestStore(t)

	rec, err := store.CreateRun("verigo.yml", "")
	require.NoError(t, err)
	require.NoError(t, store.RecordResult(rec.ID, haltedRun()))

	steps, err := store.GetStepRecords(rec.ID)
	require.NoError(t, err)
	require.Len(t, steps, 3)

	assert.Equal(t, "format-check", steps[0].Name)
	assert.Equal(t, "passed", steps[0].Status)

	assert.Equal(t, "lint", steps[1].Name)
	assert.Equal(t, "failed", steps[1].Status)
	assert.Equal(t, "non_zero_exit", steps[1].FailureKind)
	assert.Equal(t, 1, steps[1].ExitCode)
	assert.Equal(t, "warning treated as error\n", steps[1].Output)

	// the step after the halt is recorded as never attempted
	assert.Equal(t, "tests:unit", steps[2].Name)
	assert.Equal(t, "not_run", steps[2].Status)
	assert.Nil(t, steps[2].Duration)
}

func TestGetRunsMostRecentFirst(t *testing.T) {
	store := newTestStore(t)

	for i := 0; i < 3; i++ {
		_, err := store.CreateRun("verigo.yml", "indexer")
		require.NoError(t, err)
	}

	runs, err := store.GetRuns(2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestGetRunNotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetRun(999)
	assert.ErrorContains(t, err, "not found")
}

func TestFinishRun(t *testing.T) {
	store := newTestStore(t)

	rec, err := store.CreateRun("verigo.yml", "")
	require.NoError(t, err)
	require.NoError(t, store.FinishRun(rec.ID, "success", 90*time.Second))

	got, err := store.GetRun(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "success", got.Status)
}

func TestLatestRunsByWorkspace(t *testing.T) {
	store := newTestStore(t)

	rec, err := store.CreateRun("verigo.yml", "indexer")
	require.NoError(t, err)
	require.NoError(t, store.RecordResult(rec.ID, haltedRun()))

	other, err := store.CreateRun("verigo.yml", "client")
	require.NoError(t, err)
	require.NoError(t, store.FinishRun(other.ID, "success", time.Second))

	stats, err := store.LatestRuns("indexer", 10)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, rec.ID, stats[0].RunID)
	assert.Equal(t, "halted", stats[0].Status)
	assert.Equal(t, 3, stats[0].StepCount)
}
