package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"jobharvest/internal/domain"
)

// InsertPostingIfNew persists p unless its identity key is already known.
// Check-and-record is a single transaction: either the posting lands and the
// key is marked seen, or nothing happens beyond a fetched_at touch. Relies
// on the unique index on identity_key, so concurrent writers for the same
// key serialize inside sqlite and exactly one insert wins.
func (d *DB) InsertPostingIfNew(ctx context.Context, p domain.Posting) (added bool, err error) {
	tx, err := d.Pool.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin insert posting: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
INSERT OR IGNORE INTO postings
  (identity_key, source_id, external_id, title, company, location, url,
   experience, posted_at, deadline, first_seen_at, fetched_at, content_hash)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		p.IdentityKey, p.SourceID, p.ExternalID, p.Title, p.Company, p.Location, p.URL,
		p.Experience, encodeTimePtr(p.PostedAt), encodeTimePtr(p.Deadline),
		encodeTime(p.FirstSeenAt), encodeTime(p.FetchedAt), p.ContentHash,
	); err != nil {
		return false, fmt.Errorf("insert posting: %w", err)
	}

	var changes int
	if err := tx.QueryRowContext(ctx, `SELECT changes();`).Scan(&changes); err != nil {
		return false, fmt.Errorf("insert posting changes: %w", err)
	}

	if changes == 0 {
		// Re-sighting: only fetched_at moves.
		if _, err := tx.ExecContext(ctx, `
UPDATE postings SET fetched_at = ? WHERE identity_key = ?;`,
			encodeTime(p.FetchedAt), p.IdentityKey,
		); err != nil {
			return false, fmt.Errorf("touch posting: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit insert posting: %w", err)
	}
	return changes > 0, nil
}

type ListPostingsOpts struct {
	SourceID  string
	NewWithin time.Duration // only postings first seen within this window
	Limit     int
}

// ListPostings is a read-only query; safe and cheap to re-run.
func (d *DB) ListPostings(ctx context.Context, opts ListPostingsOpts) ([]domain.Posting, error) {
	var where []string
	var args []any

	if opts.SourceID != "" {
		where = append(where, "source_id = ?")
		args = append(args, opts.SourceID)
	}
	if opts.NewWithin > 0 {
		where = append(where, "first_seen_at >= ?")
		args = append(args, encodeTime(time.Now().Add(-opts.NewWithin)))
	}

	q := `
SELECT id, identity_key, source_id, external_id, title, company, location, url,
       experience, posted_at, deadline, first_seen_at, fetched_at, content_hash
FROM postings`
	if len(where) > 0 {
		q += "\nWHERE " + strings.Join(where, " AND ")
	}
	q += "\nORDER BY first_seen_at DESC, id DESC"
	if opts.Limit > 0 {
		q += "\nLIMIT ?"
		args = append(args, opts.Limit)
	}
	q += ";"

	rows, err := d.Pool.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list postings: %w", err)
	}
	defer rows.Close()

	var out []domain.Posting
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetPosting fetches a single posting by identity key.
func (d *DB) GetPosting(ctx context.Context, identityKey string) (domain.Posting, error) {
	row := d.Pool.QueryRowContext(ctx, `
SELECT id, identity_key, source_id, external_id, title, company, location, url,
       experience, posted_at, deadline, first_seen_at, fetched_at, content_hash
FROM postings WHERE identity_key = ?;`, identityKey)
	return scanPosting(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPosting(r rowScanner) (domain.Posting, error) {
	var p domain.Posting
	var postedAt, deadline sql.NullString
	var firstSeen, fetched string
	if err := r.Scan(
		&p.ID, &p.IdentityKey, &p.SourceID, &p.ExternalID, &p.Title, &p.Company,
		&p.Location, &p.URL, &p.Experience, &postedAt, &deadline,
		&firstSeen, &fetched, &p.ContentHash,
	); err != nil {
		return domain.Posting{}, fmt.Errorf("scan posting: %w", err)
	}
	p.PostedAt = decodeTimePtr(postedAt)
	p.Deadline = decodeTimePtr(deadline)
	p.FirstSeenAt = decodeTime(firstSeen)
	p.FetchedAt = decodeTime(fetched)
	return p, nil
}
