package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"jobharvest/internal/domain"
	"jobharvest/internal/events"
	"jobharvest/internal/store"
)

func newTestServer(t *testing.T) (*Server, *store.DB) {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return &Server{DB: db, Hub: events.NewHub(), Log: zerolog.Nop()}, db
}

func seedPostings(t *testing.T, db *store.DB) {
	t.Helper()
	ctx := context.Background()
	now := time.Now()
	for _, p := range []struct {
		source, extID string
		seen          time.Time
	}{
		{"a", "1", now.Add(-72 * time.Hour)},
		{"a", "2", now},
		{"b", "1", now},
	} {
		_, err := db.InsertPostingIfNew(ctx, domain.NewPosting(p.source, domain.Listing{
			ExternalID: p.extID,
			Title:      "Data Analyst",
			Company:    "Acme",
			URL:        "https://example.com/" + p.source + "/" + p.extID,
		}, p.seen))
		require.NoError(t, err)
	}
}

func getJSON(t *testing.T, srv *httptest.Server, path string, v any) *http.Response {
	t.Helper()
	res, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer res.Body.Close()
	if v != nil && res.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(res.Body).Decode(v))
	}
	return res
}

func TestHandleHealth(t *testing.T) {
	s, _ := newTestServer(t)
	srv := httptest.NewServer(s.routes())
	defer srv.Close()

	var body map[string]any
	res := getJSON(t, srv, "/health", &body)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, true, body["ok"])
}

func TestHandlePostings(t *testing.T) {
	s, db := newTestServer(t)
	seedPostings(t, db)
	srv := httptest.NewServer(s.routes())
	defer srv.Close()

	var body struct {
		Count    int              `json:"count"`
		Postings []domain.Posting `json:"postings"`
	}

	res := getJSON(t, srv, "/postings", &body)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, 3, body.Count)

	res = getJSON(t, srv, "/postings?source=a", &body)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, 2, body.Count)
	for _, p := range body.Postings {
		require.Equal(t, "a", p.SourceID)
	}

	res = getJSON(t, srv, "/postings?view=new", &body)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, 2, body.Count, "72h-old posting is not in the new view")

	res = getJSON(t, srv, "/postings?limit=1", &body)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, 1, body.Count)
}

func TestHandlePostingsBadLimit(t *testing.T) {
	s, _ := newTestServer(t)
	srv := httptest.NewServer(s.routes())
	defer srv.Close()

	for _, q := range []string{"limit=0", "limit=-1", "limit=9999", "limit=abc"} {
		res := getJSON(t, srv, "/postings?"+q, nil)
		require.Equal(t, http.StatusBadRequest, res.StatusCode, q)
	}
}

func TestHandleStats(t *testing.T) {
	s, db := newTestServer(t)
	seedPostings(t, db)
	srv := httptest.NewServer(s.routes())
	defer srv.Close()

	var stats store.Stats
	res := getJSON(t, srv, "/stats", &stats)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, 3, stats.TotalPostings)
	require.Equal(t, map[string]int{"a": 2, "b": 1}, stats.PostingsPerSource)
}

func TestHandleRuns(t *testing.T) {
	s, db := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, db.BeginRun(ctx, "r1", time.Now(), []string{"a"}))
	require.NoError(t, db.FinishRun(ctx, domain.HarvestRun{RunID: "r1", Status: domain.RunSuccess, NewCount: 2}))

	srv := httptest.NewServer(s.routes())
	defer srv.Close()

	var body struct {
		Count int                 `json:"count"`
		Runs  []domain.HarvestRun `json:"runs"`
	}
	res := getJSON(t, srv, "/runs", &body)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, 1, body.Count)
	require.Equal(t, "r1", body.Runs[0].RunID)
	require.Equal(t, domain.RunSuccess, body.Runs[0].Status)

	res = getJSON(t, srv, "/runs?limit=0", nil)
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestMutatingMethodsRejected(t *testing.T) {
	s, _ := newTestServer(t)
	srv := httptest.NewServer(s.routes())
	defer srv.Close()

	res, err := http.Post(srv.URL+"/postings", "application/json", nil)
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, res.StatusCode)
}

func TestHandleEventsStream(t *testing.T) {
	s, _ := newTestServer(t)
	srv := httptest.NewServer(s.routes())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	require.NoError(t, err)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, "text/event-stream", res.Header.Get("Content-Type"))

	// the ping arrives immediately, then a published event follows
	buf := make([]byte, 256)
	n, err := res.Body.Read(buf)
	require.NoError(t, err)
	require.Contains(t, string(buf[:n]), "ping")

	s.Hub.Publish(events.New(events.TypeRunFinished, map[string]int{"new": 1}))
	n, err = res.Body.Read(buf)
	require.NoError(t, err)
	require.Contains(t, string(buf[:n]), "run_finished")
}
