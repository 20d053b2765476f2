package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daydream-data/domainwatch/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLite_CreateAndGetRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, model.RunSourceCSV, 25)
	require.NoError(t, err)
	require.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusQueued, run.Status)

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, model.RunSourceCSV, got.Source)
	assert.Equal(t, 25, got.DomainsTotal)
	assert.Nil(t, got.Result)
}

func TestSQLite_GetRun_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetRun(context.Background(), "no-such-run")
	assert.Error(t, err)
}

func TestSQLite_UpdateRunStatus(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, model.RunSourceFeed, 3)
	require.NoError(t, err)

	require.NoError(t, st.UpdateRunStatus(ctx, run.ID, model.RunStatusRunning))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusRunning, got.Status)
}

func TestSQLite_UpdateRunStatus_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	err := st.UpdateRunStatus(context.Background(), "missing", model.RunStatusRunning)
	assert.Error(t, err)
}

func TestSQLite_CompleteRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, model.RunSourceCSV, 2)
	require.NoError(t, err)

	result := &model.RunResult{DomainsProcessed: 2, DurationMS: 1500}
	result.Add("registration", model.StageSuccess)
	result.Add("registration", model.StageFailed)

	require.NoError(t, st.CompleteRun(ctx, run.ID, model.RunStatusComplete, result))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, got.Status)
	require.NotNil(t, got.Result)
	assert.Equal(t, 2, got.Result.DomainsProcessed)
	assert.Equal(t, 1, got.Result.StageCounts["registration"].Success)
	assert.Equal(t, 1, got.Result.StageCounts["registration"].Failed)
}

func TestSQLite_ListRuns_Filtering(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	csvRun, err := st.CreateRun(ctx, model.RunSourceCSV, 1)
	require.NoError(t, err)
	_, err = st.CreateRun(ctx, model.RunSourceFeed, 1)
	require.NoError(t, err)
	require.NoError(t, st.UpdateRunStatus(ctx, csvRun.ID, model.RunStatusComplete))

	all, err := st.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	complete, err := st.ListRuns(ctx, RunFilter{Status: model.RunStatusComplete})
	require.NoError(t, err)
	require.Len(t, complete, 1)
	assert.Equal(t, csvRun.ID, complete[0].ID)

	feeds, err := st.ListRuns(ctx, RunFilter{Source: model.RunSourceFeed})
	require.NoError(t, err)
	assert.Len(t, feeds, 1)
}

func TestSQLite_SaveAndListRecords(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, model.RunSourceCSV, 2)
	require.NoError(t, err)

	recA := model.NewDomainRecord("beta.example")
	recA.Apply("registration", model.StageResult{
		Status:   model.StageSuccess,
		Fields:   model.Fields{"registrar_name": "Example Registrar"},
		Attempts: 1,
	})
	recB := model.NewDomainRecord("alpha.example")
	recB.Apply("registration", model.StageResult{
		Status:   model.StageFailed,
		Error:    "not_found",
		Attempts: 1,
	})

	require.NoError(t, st.SaveRecords(ctx, run.ID, []*model.DomainRecord{recA, recB}))

	records, err := st.ListRecords(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Ordered by domain.
	assert.Equal(t, "alpha.example", records[0].Domain)
	assert.Equal(t, "beta.example", records[1].Domain)

	assert.Equal(t, model.StageFailed, records[0].Stages["registration"].Status)
	assert.Equal(t, "Example Registrar", records[1].Stages["registration"].Fields["registrar_name"])
}

func TestSQLite_ListRecords_EmptyRun(t *testing.T) {
	st := newTestSQLiteStore(t)

	records, err := st.ListRecords(context.Background(), "empty-run")
	require.NoError(t, err)
	assert.Empty(t, records)
}
