package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"jobharvest/internal/domain"
)

// BeginRun records a run in `running` state with a pending row per source,
// so a crash mid-run leaves evidence that reconciliation can clean up.
func (d *DB) BeginRun(ctx context.Context, runID string, startedAt time.Time, sourceIDs []string) error {
	tx, err := d.Pool.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO harvest_runs (run_id, started_at, status) VALUES (?, ?, ?);`,
		runID, encodeTime(startedAt), string(domain.RunRunning),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, sid := range sourceIDs {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO harvest_run_sources (run_id, source_id, status) VALUES (?, ?, ?);`,
			runID, sid, string(domain.SourcePending),
		); err != nil {
			return fmt.Errorf("insert run source %s: %w", sid, err)
		}
	}

	return tx.Commit()
}

// FinishRunSource records the terminal per-source outcome inside a run.
func (d *DB) FinishRunSource(ctx context.Context, rs domain.RunSource) error {
	_, err := d.Pool.ExecContext(ctx, `
UPDATE harvest_run_sources
SET status = ?, new_count = ?, duplicate_count = ?, error_detail = ?
WHERE run_id = ? AND source_id = ?;`,
		string(rs.Status), rs.NewCount, rs.DuplicateCount, rs.ErrorDetail,
		rs.RunID, rs.SourceID,
	)
	if err != nil {
		return fmt.Errorf("finish run source %s: %w", rs.SourceID, err)
	}
	return nil
}

// FinishRun finalizes the run row exactly once; it refuses to touch a run
// that already reached a terminal status.
func (d *DB) FinishRun(ctx context.Context, run domain.HarvestRun) error {
	ended := time.Now()
	if run.EndedAt != nil {
		ended = *run.EndedAt
	}
	res, err := d.Pool.ExecContext(ctx, `
UPDATE harvest_runs
SET ended_at = ?, status = ?, new_count = ?, duplicate_count = ?, error_detail = ?
WHERE run_id = ? AND status = ?;`,
		encodeTime(ended), string(run.Status), run.NewCount, run.DuplicateCount,
		run.ErrorDetail, run.RunID, string(domain.RunRunning),
	)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", run.RunID, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("finish run %s: run not in running state", run.RunID)
	}
	return nil
}

// ReconcileStaleRuns flips runs that are still `running` but started before
// the cutoff to `failed` (and their pending sources likewise). Called before
// a new run starts so an aborted process never blocks scheduling forever.
func (d *DB) ReconcileStaleRuns(ctx context.Context, cutoff time.Time) (int, error) {
	tx, err := d.Pool.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin reconcile: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := encodeTime(time.Now())

	if _, err := tx.ExecContext(ctx, `
UPDATE harvest_run_sources
SET status = ?, error_detail = 'run abandoned'
WHERE status = ? AND run_id IN (
  SELECT run_id FROM harvest_runs WHERE status = ? AND started_at < ?
);`,
		string(domain.SourceFailed), string(domain.SourcePending),
		string(domain.RunRunning), encodeTime(cutoff),
	); err != nil {
		return 0, fmt.Errorf("reconcile run sources: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
UPDATE harvest_runs
SET status = ?, ended_at = ?, error_detail = 'reconciled: run abandoned'
WHERE status = ? AND started_at < ?;`,
		string(domain.RunFailed), now, string(domain.RunRunning), encodeTime(cutoff),
	)
	if err != nil {
		return 0, fmt.Errorf("reconcile runs: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// LastRunStartPerSource returns when each source last started a run,
// regardless of outcome. The scheduler derives due times from this.
func (d *DB) LastRunStartPerSource(ctx context.Context) (map[string]time.Time, error) {
	rows, err := d.Pool.QueryContext(ctx, `
SELECT rs.source_id, MAX(r.started_at)
FROM harvest_run_sources rs
JOIN harvest_runs r ON r.run_id = rs.run_id
GROUP BY rs.source_id;`)
	if err != nil {
		return nil, fmt.Errorf("last run per source: %w", err)
	}
	defer rows.Close()

	out := map[string]time.Time{}
	for rows.Next() {
		var sid, started string
		if err := rows.Scan(&sid, &started); err != nil {
			return nil, err
		}
		out[sid] = decodeTime(started)
	}
	return out, rows.Err()
}

// ListRuns returns the most recent runs, newest first, with their
// per-source outcomes attached.
func (d *DB) ListRuns(ctx context.Context, limit int) ([]domain.HarvestRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.Pool.QueryContext(ctx, `
SELECT run_id, started_at, ended_at, status, new_count, duplicate_count, error_detail
FROM harvest_runs
ORDER BY started_at DESC
LIMIT ?;`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []domain.HarvestRun
	for rows.Next() {
		var r domain.HarvestRun
		var started string
		var ended sql.NullString
		var status string
		if err := rows.Scan(&r.RunID, &started, &ended, &status,
			&r.NewCount, &r.DuplicateCount, &r.ErrorDetail); err != nil {
			return nil, err
		}
		r.StartedAt = decodeTime(started)
		r.EndedAt = decodeTimePtr(ended)
		r.Status = domain.RunStatus(status)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		srcs, err := d.runSources(ctx, out[i].RunID)
		if err != nil {
			return nil, err
		}
		out[i].Sources = srcs
	}
	return out, nil
}

// GetRun fetches one run with its per-source outcomes.
func (d *DB) GetRun(ctx context.Context, runID string) (domain.HarvestRun, error) {
	var r domain.HarvestRun
	var started string
	var ended sql.NullString
	var status string
	err := d.Pool.QueryRowContext(ctx, `
SELECT run_id, started_at, ended_at, status, new_count, duplicate_count, error_detail
FROM harvest_runs WHERE run_id = ?;`, runID).Scan(
		&r.RunID, &started, &ended, &status, &r.NewCount, &r.DuplicateCount, &r.ErrorDetail)
	if err != nil {
		return domain.HarvestRun{}, fmt.Errorf("get run %s: %w", runID, err)
	}
	r.StartedAt = decodeTime(started)
	r.EndedAt = decodeTimePtr(ended)
	r.Status = domain.RunStatus(status)
	r.Sources, err = d.runSources(ctx, runID)
	return r, err
}

func (d *DB) runSources(ctx context.Context, runID string) ([]domain.RunSource, error) {
	rows, err := d.Pool.QueryContext(ctx, `
SELECT run_id, source_id, status, new_count, duplicate_count, error_detail
FROM harvest_run_sources
WHERE run_id = ?
ORDER BY source_id;`, runID)
	if err != nil {
		return nil, fmt.Errorf("run sources: %w", err)
	}
	defer rows.Close()

	var out []domain.RunSource
	for rows.Next() {
		var rs domain.RunSource
		var status string
		if err := rows.Scan(&rs.RunID, &rs.SourceID, &status,
			&rs.NewCount, &rs.DuplicateCount, &rs.ErrorDetail); err != nil {
			return nil, err
		}
		rs.Status = domain.SourceStatus(status)
		out = append(out, rs)
	}
	return out, rows.Err()
}
