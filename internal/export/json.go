// Package export writes the posting set to a JSON file for static
// consumption (CI artifacts, static dashboards).
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"jobharvest/internal/domain"
	"jobharvest/internal/store"
)

type document struct {
	GeneratedAt time.Time        `json:"generatedAt"`
	Count       int              `json:"count"`
	Postings    []domain.Posting `json:"postings"`
}

// WriteJSON dumps all active postings to path (atomically, via rename).
// Postings whose deadline already passed are left out of the export, the
// way the dashboard hides them, but they stay in the store untouched.
func WriteJSON(ctx context.Context, db *store.DB, path string) (int, error) {
	postings, err := db.ListPostings(ctx, store.ListPostingsOpts{})
	if err != nil {
		return 0, fmt.Errorf("export: %w", err)
	}

	now := time.Now()
	active := postings[:0]
	for _, p := range postings {
		if p.Deadline != nil && p.Deadline.Before(now) {
			continue
		}
		active = append(active, p)
	}

	doc := document{GeneratedAt: now.UTC(), Count: len(active), Postings: active}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("export marshal: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return 0, fmt.Errorf("export write: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return 0, fmt.Errorf("export rename: %w", err)
	}
	return len(active), nil
}
