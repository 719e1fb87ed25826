package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"jobharvest/internal/domain"
)

func TestRunLifecycle(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	started := time.Now()

	require.NoError(t, db.BeginRun(ctx, "run-1", started, []string{"a", "b"}))

	got, err := db.GetRun(ctx, "run-1")
	require.NoError(t, err)
	require.Equal(t, domain.RunRunning, got.Status)
	require.Len(t, got.Sources, 2)
	require.Equal(t, domain.SourcePending, got.Sources[0].Status)

	require.NoError(t, db.FinishRunSource(ctx, domain.RunSource{
		RunID: "run-1", SourceID: "a", Status: domain.SourceOK, NewCount: 3,
	}))
	require.NoError(t, db.FinishRunSource(ctx, domain.RunSource{
		RunID: "run-1", SourceID: "b", Status: domain.SourceFailed, ErrorDetail: "boom",
	}))

	ended := started.Add(time.Minute)
	require.NoError(t, db.FinishRun(ctx, domain.HarvestRun{
		RunID: "run-1", Status: domain.RunPartial, NewCount: 3,
		EndedAt: &ended, ErrorDetail: "b: boom",
	}))

	got, err = db.GetRun(ctx, "run-1")
	require.NoError(t, err)
	require.Equal(t, domain.RunPartial, got.Status)
	require.Equal(t, 3, got.NewCount)
	require.NotNil(t, got.EndedAt)
	require.Equal(t, "b: boom", got.ErrorDetail)
}

func TestFinishRunOnlyOnce(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.BeginRun(ctx, "run-1", time.Now(), []string{"a"}))
	require.NoError(t, db.FinishRun(ctx, domain.HarvestRun{RunID: "run-1", Status: domain.RunSuccess}))

	err := db.FinishRun(ctx, domain.HarvestRun{RunID: "run-1", Status: domain.RunFailed})
	require.Error(t, err, "a finalized run is immutable")

	got, err := db.GetRun(ctx, "run-1")
	require.NoError(t, err)
	require.Equal(t, domain.RunSuccess, got.Status)
}

func TestReconcileStaleRuns(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	now := time.Now()

	// abandoned run, started an hour ago, still "running"
	require.NoError(t, db.BeginRun(ctx, "stale", now.Add(-time.Hour), []string{"a"}))
	// fresh run that must be left alone
	require.NoError(t, db.BeginRun(ctx, "fresh", now, []string{"b"}))

	n, err := db.ReconcileStaleRuns(ctx, now.Add(-30*time.Minute))
	require.NoError(t, err)
	require.Equal(t, 1, n)

	stale, err := db.GetRun(ctx, "stale")
	require.NoError(t, err)
	require.Equal(t, domain.RunFailed, stale.Status)
	require.NotNil(t, stale.EndedAt)
	require.Equal(t, domain.SourceFailed, stale.Sources[0].Status)

	fresh, err := db.GetRun(ctx, "fresh")
	require.NoError(t, err)
	require.Equal(t, domain.RunRunning, fresh.Status)
}

func TestLastRunStartPerSource(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, db.BeginRun(ctx, "r1", now.Add(-2*time.Hour), []string{"a", "b"}))
	require.NoError(t, db.BeginRun(ctx, "r2", now.Add(-time.Hour), []string{"a"}))

	starts, err := db.LastRunStartPerSource(ctx)
	require.NoError(t, err)
	require.Len(t, starts, 2)
	require.WithinDuration(t, now.Add(-time.Hour), starts["a"], time.Second)
	require.WithinDuration(t, now.Add(-2*time.Hour), starts["b"], time.Second)
}

func TestListRunsNewestFirst(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, db.BeginRun(ctx, "old", now.Add(-time.Hour), []string{"a"}))
	require.NoError(t, db.BeginRun(ctx, "new", now, []string{"a"}))

	runs, err := db.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.Equal(t, "new", runs[0].RunID)
	require.Len(t, runs[0].Sources, 1)
}
