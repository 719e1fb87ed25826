package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"jobharvest/internal/domain"
)

func TestStats(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	now := time.Now()

	_, err := db.InsertPostingIfNew(ctx, testPosting("a", "1", now.Add(-72*time.Hour)))
	require.NoError(t, err)
	_, err = db.InsertPostingIfNew(ctx, testPosting("a", "2", now))
	require.NoError(t, err)
	_, err = db.InsertPostingIfNew(ctx, testPosting("b", "1", now))
	require.NoError(t, err)

	require.NoError(t, db.BeginRun(ctx, "r1", now.Add(-time.Hour), []string{"a", "b"}))
	require.NoError(t, db.FinishRunSource(ctx, domain.RunSource{
		RunID: "r1", SourceID: "a", Status: domain.SourceOK, NewCount: 1,
	}))
	require.NoError(t, db.FinishRunSource(ctx, domain.RunSource{
		RunID: "r1", SourceID: "b", Status: domain.SourceOK, NewCount: 1,
	}))
	require.NoError(t, db.FinishRun(ctx, domain.HarvestRun{RunID: "r1", Status: domain.RunSuccess, NewCount: 2}))

	require.NoError(t, db.BeginRun(ctx, "r2", now, []string{"a"}))
	require.NoError(t, db.FinishRunSource(ctx, domain.RunSource{
		RunID: "r2", SourceID: "a", Status: domain.SourceFailed, ErrorDetail: "timeout",
	}))
	require.NoError(t, db.FinishRun(ctx, domain.HarvestRun{RunID: "r2", Status: domain.RunFailed, ErrorDetail: "a: timeout"}))

	stats, err := db.Stats(ctx)
	require.NoError(t, err)

	require.Equal(t, 3, stats.TotalPostings)
	require.Equal(t, 2, stats.NewPostings)
	require.Equal(t, map[string]int{"a": 2, "b": 1}, stats.PostingsPerSource)

	// stats keep reporting known-good data after a failed run
	require.Equal(t, "r2", stats.LastRunPerSource["a"].RunID)
	require.Equal(t, domain.SourceFailed, stats.LastRunPerSource["a"].Status)
	require.Equal(t, "r1", stats.LastRunPerSource["b"].RunID)
	require.Equal(t, domain.SourceOK, stats.LastRunPerSource["b"].Status)
}

func TestStatsExpiringSoon(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	now := time.Now()

	insert := func(extID string, deadline *time.Time) {
		_, err := db.InsertPostingIfNew(ctx, domain.NewPosting("a", domain.Listing{
			ExternalID: extID,
			Title:      "Data Analyst",
			Company:    "Acme",
			URL:        "https://example.com/" + extID,
			Deadline:   deadline,
		}, now))
		require.NoError(t, err)
	}

	soon := now.Add(3 * 24 * time.Hour)
	far := now.Add(30 * 24 * time.Hour)
	past := now.Add(-24 * time.Hour)
	insert("soon", &soon)
	insert("far", &far)
	insert("past", &past)
	insert("open", nil)

	stats, err := db.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 4, stats.TotalPostings)
	require.Equal(t, 1, stats.ExpiringSoon, "only deadlines inside the next 7 days count")
}
