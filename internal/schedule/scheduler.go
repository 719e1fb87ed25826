// Package schedule drives recurring harvests: a single cooperative timer
// loop that fires the coordinator per source when its interval elapses.
package schedule

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"jobharvest/internal/config"
	"jobharvest/internal/domain"
)

// Runner is the slice of the harvest coordinator the scheduler needs.
type Runner interface {
	Run(ctx context.Context, sourceIDs []string) (domain.HarvestRun, error)
}

// DefaultTick is how often due times are re-checked. Intervals are minutes
// to hours, so a coarse tick is plenty.
const DefaultTick = 15 * time.Second

type sourceState struct {
	id       string
	schedule cron.Schedule

	lastStart time.Time
	running   bool
}

type Scheduler struct {
	clock  Clock
	log    zerolog.Logger
	runner Runner
	tick   time.Duration

	mu      sync.Mutex
	sources map[string]*sourceState
	wg      sync.WaitGroup
}

// New builds a scheduler for the enabled sources in cfg. lastStarts seeds
// due times from persisted run history so restarts don't re-crawl
// everything immediately.
func New(runner Runner, cfg config.Config, lastStarts map[string]time.Time, clock Clock, log zerolog.Logger) *Scheduler {
	if clock == nil {
		clock = RealClock
	}
	s := &Scheduler{
		clock:   clock,
		log:     log.With().Str("comp", "schedule").Logger(),
		runner:  runner,
		tick:    DefaultTick,
		sources: map[string]*sourceState{},
	}
	s.Reload(cfg, lastStarts)
	return s
}

// Reload swaps in a new source set (config hot-reload). In-flight runs keep
// their running flag; removed sources simply stop being scheduled.
func (s *Scheduler) Reload(cfg config.Config, lastStarts map[string]time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := map[string]*sourceState{}
	for _, sc := range cfg.Sources {
		if !sc.Enabled {
			continue
		}
		interval := sc.FetchInterval
		if interval == "" {
			interval = "1h"
		}
		sched, err := config.ParseInterval(interval)
		if err != nil {
			s.log.Warn().Err(err).Str("source", sc.ID).Msg("skipping source with bad interval")
			continue
		}
		st := &sourceState{id: sc.ID, schedule: sched}
		if prev, ok := s.sources[sc.ID]; ok {
			st.lastStart = prev.lastStart
			st.running = prev.running
		} else if t, ok := lastStarts[sc.ID]; ok {
			st.lastStart = t
		}
		next[sc.ID] = st
	}
	s.sources = next
}

// Run blocks until ctx is cancelled, firing due sources as their intervals
// elapse. A source whose previous run is still going is skipped on its due
// tick, never queued.
func (s *Scheduler) Run(ctx context.Context) {
	s.log.Info().Int("sources", len(s.sources)).Msg("scheduler started")
	for {
		s.fireDue(ctx)
		select {
		case <-ctx.Done():
			s.wg.Wait()
			s.log.Info().Msg("scheduler stopped")
			return
		case <-s.clock.After(s.tick):
		}
	}
}

func (s *Scheduler) fireDue(ctx context.Context) {
	now := s.clock.Now()

	s.mu.Lock()
	var due []string
	for id, st := range s.sources {
		if st.running {
			continue
		}
		if st.lastStart.IsZero() || !now.Before(st.schedule.Next(st.lastStart)) {
			st.running = true
			st.lastStart = now
			due = append(due, id)
		}
	}
	s.mu.Unlock()

	for _, id := range due {
		id := id
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.markDone(id)

			run, err := s.runner.Run(ctx, []string{id})
			if err != nil {
				s.log.Error().Err(err).Str("source", id).Msg("scheduled run failed")
				return
			}
			s.log.Info().
				Str("source", id).
				Str("run_id", run.RunID).
				Str("status", string(run.Status)).
				Int("new", run.NewCount).
				Msg("scheduled run done")
		}()
	}
}

func (s *Scheduler) markDone(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.sources[id]; ok {
		st.running = false
	}
}
