package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ynput/ayon-jira/internal/api"
	"github.com/ynput/ayon-jira/internal/reconciler"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "nested", "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestJournal_RunLifecycle(t *testing.T) {
	ctx := context.Background()
	j := openTestJournal(t)
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, j.Begin(ctx, api.RunRecord{
		RunID: "run-1", Actor: "jdoe", ProjectName: "Demo", TemplateName: "Tier_1_Outfit", StartedAt: started,
	}))
	require.NoError(t, j.Record(ctx, "run-1", reconciler.ChangeEvent{
		Kind: reconciler.KindIssue, Operation: reconciler.OperationCreate,
		Scope: "Character1", Name: "RIG", Key: "KAN-2", Timestamp: started.Add(time.Second),
	}))
	require.NoError(t, j.Record(ctx, "run-1", reconciler.ChangeEvent{
		Kind: reconciler.KindTask, Operation: reconciler.OperationCreate,
		Scope: "Character1", Location: "Characters/Character1", Name: "Rigging", Key: "t1",
	}))

	runs, err := j.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, api.RunStatusRunning, runs[0].Status)
	assert.Nil(t, runs[0].FinishedAt)
	assert.Equal(t, 2, runs[0].Entries)
	assert.True(t, started.Equal(runs[0].StartedAt))

	finished := started.Add(time.Minute)
	require.NoError(t, j.Finish(ctx, "run-1", api.RunStatusPartial, "boom", finished))

	runs, err = j.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, api.RunStatusPartial, runs[0].Status)
	assert.Equal(t, "boom", runs[0].Error)
	require.NotNil(t, runs[0].FinishedAt)
	assert.True(t, finished.Equal(*runs[0].FinishedAt))

	entries, err := j.Entries(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, reconciler.KindIssue, entries[0].Kind)
	assert.Equal(t, "KAN-2", entries[0].Key)
	assert.Equal(t, "Characters/Character1", entries[1].Location)
	assert.False(t, entries[1].At.IsZero())
}

func TestJournal_ListRunsNewestFirstWithLimit(t *testing.T) {
	ctx := context.Background()
	j := openTestJournal(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, j.Begin(ctx, api.RunRecord{
			RunID: id, ProjectName: "Demo", TemplateName: "T", StartedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	runs, err := j.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].RunID)
	assert.Equal(t, "b", runs[1].RunID)
}

func TestJournal_FinishUnknownRun(t *testing.T) {
	j := openTestJournal(t)
	err := j.Finish(context.Background(), "missing", api.RunStatusSucceeded, "", time.Now())
	assert.Error(t, err)
}

func TestJournal_DuplicateBegin(t *testing.T) {
	ctx := context.Background()
	j := openTestJournal(t)
	run := api.RunRecord{RunID: "dup", ProjectName: "Demo", TemplateName: "T", StartedAt: time.Now()}
	require.NoError(t, j.Begin(ctx, run))
	assert.Error(t, j.Begin(ctx, run))
}

func TestJournal_ReopenKeepsRuns(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "journal.db")

	j, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, j.Begin(ctx, api.RunRecord{RunID: "r", ProjectName: "Demo", TemplateName: "T", StartedAt: time.Now()}))
	require.NoError(t, j.Close())

	j, err = Open(path)
	require.NoError(t, err)
	defer j.Close()
	runs, err := j.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
