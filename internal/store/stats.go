package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"jobharvest/internal/domain"
)

// NewWindow is how long a posting counts as "new" after first sighting.
const NewWindow = 48 * time.Hour

// ExpiringWindow is how far ahead a deadline counts as expiring soon.
const ExpiringWindow = 7 * 24 * time.Hour

type SourceRunInfo struct {
	RunID     string              `json:"runId"`
	StartedAt time.Time           `json:"startedAt"`
	Status    domain.SourceStatus `json:"status"`
	NewCount  int                 `json:"newCount"`
}

type Stats struct {
	TotalPostings     int                      `json:"totalPostings"`
	NewPostings       int                      `json:"newPostings"`
	ExpiringSoon      int                      `json:"expiringSoon"`
	PostingsPerSource map[string]int           `json:"postingsPerSource"`
	LastRunPerSource  map[string]SourceRunInfo `json:"lastRunPerSource"`
}

// Stats aggregates read-only counters for the dashboard and the CLI.
// It reads whatever is persisted, so a failed latest run still reports
// the last known-good data.
func (d *DB) Stats(ctx context.Context) (Stats, error) {
	s := Stats{
		PostingsPerSource: map[string]int{},
		LastRunPerSource:  map[string]SourceRunInfo{},
	}

	if err := d.Pool.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM postings;`).Scan(&s.TotalPostings); err != nil {
		return s, fmt.Errorf("stats total: %w", err)
	}

	now := time.Now()
	since := encodeTime(now.Add(-NewWindow))
	if err := d.Pool.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM postings WHERE first_seen_at >= ?;`, since).Scan(&s.NewPostings); err != nil {
		return s, fmt.Errorf("stats new: %w", err)
	}

	if err := d.Pool.QueryRowContext(ctx, `
SELECT COUNT(*) FROM postings
WHERE deadline IS NOT NULL AND deadline >= ? AND deadline < ?;`,
		encodeTime(now), encodeTime(now.Add(ExpiringWindow))).Scan(&s.ExpiringSoon); err != nil {
		return s, fmt.Errorf("stats expiring: %w", err)
	}

	rows, err := d.Pool.QueryContext(ctx,
		`SELECT source_id, COUNT(*) FROM postings GROUP BY source_id;`)
	if err != nil {
		return s, fmt.Errorf("stats per source: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var sid string
		var n int
		if err := rows.Scan(&sid, &n); err != nil {
			return s, err
		}
		s.PostingsPerSource[sid] = n
	}
	if err := rows.Err(); err != nil {
		return s, err
	}

	runRows, err := d.Pool.QueryContext(ctx, `
SELECT rs.source_id, rs.run_id, r.started_at, rs.status, rs.new_count
FROM harvest_run_sources rs
JOIN harvest_runs r ON r.run_id = rs.run_id
JOIN (
  SELECT rs2.source_id AS sid, MAX(r2.started_at) AS latest
  FROM harvest_run_sources rs2
  JOIN harvest_runs r2 ON r2.run_id = rs2.run_id
  GROUP BY rs2.source_id
) last ON last.sid = rs.source_id AND last.latest = r.started_at;`)
	if err != nil {
		return s, fmt.Errorf("stats last runs: %w", err)
	}
	defer runRows.Close()
	for runRows.Next() {
		var sid, runID, started, status string
		var newCount int
		if err := runRows.Scan(&sid, &runID, &started, &status, &newCount); err != nil {
			return s, err
		}
		s.LastRunPerSource[sid] = SourceRunInfo{
			RunID:     runID,
			StartedAt: decodeTime(started),
			Status:    domain.SourceStatus(status),
			NewCount:  newCount,
		}
	}
	return s, runRows.Err()
}

// CountPostings is a cheap existence/count helper used by tests and the
// exporter summary.
func (d *DB) CountPostings(ctx context.Context, sourceID string) (int, error) {
	var n int
	var err error
	if sourceID == "" {
		err = d.Pool.QueryRowContext(ctx, `SELECT COUNT(*) FROM postings;`).Scan(&n)
	} else {
		err = d.Pool.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM postings WHERE source_id = ?;`, sourceID).Scan(&n)
	}
	if err != nil && err != sql.ErrNoRows {
		return 0, err
	}
	return n, nil
}
