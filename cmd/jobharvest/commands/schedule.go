package commands

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"jobharvest/internal/config"
	"jobharvest/internal/domain"
	"jobharvest/internal/events"
	"jobharvest/internal/harvest"
	"jobharvest/internal/httpapi"
	"jobharvest/internal/schedule"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run recurring harvests plus the dashboard server",
	RunE: func(cmd *cobra.Command, args []string) error {
		lock, err := acquireWriteLock()
		if err != nil {
			return err
		}
		defer lock.Unlock()

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		hub := events.NewHub()

		coord := harvest.New(db, app.cfg, app.log)
		coord.OnNewPosting = func(p domain.Posting) {
			hub.Publish(events.New(events.TypePostingCreated, map[string]any{
				"identityKey": p.IdentityKey,
				"sourceId":    p.SourceID,
				"title":       p.Title,
				"company":     p.Company,
			}))
		}
		if len(coord.SourceIDs()) == 0 {
			return fmt.Errorf("no enabled sources; check %s", app.cfgPath)
		}

		lastStarts, err := db.LastRunStartPerSource(ctx)
		if err != nil {
			return err
		}
		sched := schedule.New(coord, app.cfg, lastStarts, schedule.RealClock, app.log)

		// Config edits take effect without a restart; the coordinator keeps
		// its adapter set for the process lifetime, so new sources still
		// need one.
		err = config.Watch(ctx, app.cfgPath, app.log, func(cfg config.Config) {
			starts, lerr := db.LastRunStartPerSource(ctx)
			if lerr != nil {
				app.log.Warn().Err(lerr).Msg("config reload: last run starts unavailable")
				starts = map[string]time.Time{}
			}
			sched.Reload(cfg, starts)
		})
		if err != nil {
			app.log.Warn().Err(err).Msg("config watch unavailable")
		}

		srv := &httpapi.Server{
			DB:   db,
			Hub:  hub,
			Log:  app.log,
			Addr: fmt.Sprintf("127.0.0.1:%d", app.cfg.App.Port),
		}

		var g errgroup.Group
		g.Go(func() error { sched.Run(ctx); return nil })
		g.Go(func() error { return srv.Start(ctx) })
		return g.Wait()
	},
}
