package commands

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"jobharvest/internal/events"
	"jobharvest/internal/httpapi"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard API server (read-only, no crawling)",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		srv := &httpapi.Server{
			DB:   db,
			Hub:  events.NewHub(),
			Log:  app.log,
			Addr: fmt.Sprintf("127.0.0.1:%d", app.cfg.App.Port),
		}
		return srv.Start(ctx)
	},
}
