// Package harvest orchestrates one collection pass: fetch every enabled
// source, filter, dedup, persist, and finalize exactly one run record.
package harvest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"jobharvest/internal/config"
	"jobharvest/internal/domain"
	"jobharvest/internal/source"
	"jobharvest/internal/store"
)

type Coordinator struct {
	db     *store.DB
	log    zerolog.Logger
	filter Filter

	adapters map[string]source.Adapter

	sourceTimeout time.Duration
	maxParallel   int
	staleAfter    time.Duration

	now func() time.Time

	// OnNewPosting, when set, fires for every newly persisted posting
	// (dashboard SSE). Duplicates never trigger it.
	OnNewPosting func(domain.Posting)
}

// New wires adapters for every enabled source. An invalid source config is
// logged and skipped; it never takes the coordinator down.
func New(db *store.DB, cfg config.Config, log zerolog.Logger) *Coordinator {
	limiter := source.NewHostLimiter(cfg.Crawler.PerHostRPS, cfg.Crawler.PerHostBurst)
	client := source.NewClient(cfg.RequestTimeout(), limiter, cfg.Crawler.UserAgent)

	adapters := make(map[string]source.Adapter)
	for _, sc := range cfg.Sources {
		if !sc.Enabled {
			continue
		}
		a, err := source.New(sc, client)
		if err != nil {
			log.Warn().Err(err).Str("source", sc.ID).Msg("skipping misconfigured source")
			continue
		}
		adapters[a.SourceID()] = a
	}

	return &Coordinator{
		db:            db,
		log:           log.With().Str("comp", "harvest").Logger(),
		filter:        NewFilter(cfg.Filters),
		adapters:      adapters,
		sourceTimeout: cfg.SourceTimeout(),
		maxParallel:   cfg.MaxParallelSources(),
		staleAfter:    cfg.StaleRunAfter(),
		now:           time.Now,
	}
}

// SourceIDs lists the sources this coordinator can harvest, sorted.
func (c *Coordinator) SourceIDs() []string {
	out := make([]string, 0, len(c.adapters))
	for id := range c.adapters {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// RunAll harvests every enabled source once, synchronously.
func (c *Coordinator) RunAll(ctx context.Context) (domain.HarvestRun, error) {
	return c.Run(ctx, c.SourceIDs())
}

// Run harvests the named sources as one HarvestRun. One source failing
// never aborts the others; the aggregate status reflects the mix. The
// returned error covers infrastructure problems only (run bookkeeping),
// not per-source fetch failures.
func (c *Coordinator) Run(ctx context.Context, sourceIDs []string) (domain.HarvestRun, error) {
	if len(sourceIDs) == 0 {
		return domain.HarvestRun{}, fmt.Errorf("harvest: no sources to run")
	}
	for _, id := range sourceIDs {
		if _, ok := c.adapters[id]; !ok {
			return domain.HarvestRun{}, fmt.Errorf("harvest: unknown source %q", id)
		}
	}

	startedAt := c.now()

	// Runs abandoned by a dead process must not look in-flight forever.
	if n, err := c.db.ReconcileStaleRuns(ctx, startedAt.Add(-c.staleAfter)); err != nil {
		return domain.HarvestRun{}, fmt.Errorf("harvest: reconcile stale runs: %w", err)
	} else if n > 0 {
		c.log.Warn().Int("count", n).Msg("reconciled stale runs to failed")
	}

	lastStarts, err := c.db.LastRunStartPerSource(ctx)
	if err != nil {
		return domain.HarvestRun{}, fmt.Errorf("harvest: last run starts: %w", err)
	}

	run := domain.HarvestRun{
		RunID:     uuid.NewString(),
		StartedAt: startedAt,
		Status:    domain.RunRunning,
	}
	if err := c.db.BeginRun(ctx, run.RunID, startedAt, sourceIDs); err != nil {
		return domain.HarvestRun{}, fmt.Errorf("harvest: begin run: %w", err)
	}
	c.log.Info().Str("run_id", run.RunID).Strs("sources", sourceIDs).Msg("run started")

	results := make([]domain.RunSource, len(sourceIDs))

	var g errgroup.Group
	g.SetLimit(c.maxParallel)
	for i, id := range sourceIDs {
		var since *time.Time
		if t, ok := lastStarts[id]; ok {
			t := t
			since = &t
		}
		g.Go(func() error {
			results[i] = c.harvestSource(ctx, run.RunID, c.adapters[id], since)
			return nil
		})
	}
	_ = g.Wait()

	for _, rs := range results {
		run.NewCount += rs.NewCount
		run.DuplicateCount += rs.DuplicateCount
	}
	run.Sources = results
	run.Status = domain.AggregateStatus(results)
	run.ErrorDetail = joinSourceErrors(results)
	ended := c.now()
	run.EndedAt = &ended

	if err := c.db.FinishRun(ctx, run); err != nil {
		return run, fmt.Errorf("harvest: finish run: %w", err)
	}

	c.log.Info().
		Str("run_id", run.RunID).
		Str("status", string(run.Status)).
		Int("new", run.NewCount).
		Int("duplicates", run.DuplicateCount).
		Dur("took", ended.Sub(startedAt)).
		Msg("run finished")

	return run, nil
}

// harvestSource fetches and persists one source. Every failure is absorbed
// into the RunSource outcome; nothing propagates past this boundary.
func (c *Coordinator) harvestSource(ctx context.Context, runID string, a source.Adapter, since *time.Time) domain.RunSource {
	rs := domain.RunSource{RunID: runID, SourceID: a.SourceID()}
	log := c.log.With().Str("source", a.SourceID()).Logger()

	fctx, cancel := context.WithTimeout(ctx, c.sourceTimeout)
	defer cancel()

	listings, err := a.Fetch(fctx, since)
	if err != nil {
		log.Warn().Err(err).Msg("fetch failed")
		rs.Status = domain.SourceFailed
		rs.ErrorDetail = err.Error()
		c.finishSource(ctx, rs)
		return rs
	}

	skipped := 0
	for _, l := range listings {
		keep, why := c.filter.Keep(l)
		if !keep {
			skipped++
			log.Debug().Str("reason", why).Str("title", l.Title).Msg("listing filtered")
			continue
		}

		p := domain.NewPosting(a.SourceID(), l, c.now())
		added, ierr := c.db.InsertPostingIfNew(ctx, p)
		if ierr != nil {
			// Storage failure aborts this source; postings already
			// persisted this run stay put.
			log.Error().Err(ierr).Str("identity_key", p.IdentityKey).Msg("persist failed")
			rs.Status = domain.SourceFailed
			rs.ErrorDetail = ierr.Error()
			c.finishSource(ctx, rs)
			return rs
		}
		if added {
			rs.NewCount++
			if c.OnNewPosting != nil {
				c.OnNewPosting(p)
			}
		} else {
			rs.DuplicateCount++
		}
	}

	rs.Status = domain.SourceOK
	c.finishSource(ctx, rs)
	log.Info().
		Int("fetched", len(listings)).
		Int("skipped", skipped).
		Int("new", rs.NewCount).
		Int("duplicates", rs.DuplicateCount).
		Msg("source harvested")
	return rs
}

func (c *Coordinator) finishSource(ctx context.Context, rs domain.RunSource) {
	if err := c.db.FinishRunSource(ctx, rs); err != nil {
		c.log.Error().Err(err).Str("source", rs.SourceID).Msg("record source outcome failed")
	}
}

func joinSourceErrors(sources []domain.RunSource) string {
	var parts []string
	for _, rs := range sources {
		if rs.ErrorDetail != "" {
			parts = append(parts, rs.SourceID+": "+rs.ErrorDetail)
		}
	}
	return strings.Join(parts, "; ")
}
