package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Bootstrap the data directory, default config, and database",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Config was already materialized by the pre-run hook; opening the
		// database runs migrations.
		db, err := openDB()
		if err != nil {
			return fmt.Errorf("init database: %w", err)
		}
		defer db.Close()

		app.log.Info().Str("config", app.cfgPath).Str("data_dir", app.dataDir).Msg("installed")
		fmt.Printf("config:   %s\n", app.cfgPath)
		fmt.Printf("database: %s\n", app.dataDir+"/jobharvest.db")
		fmt.Println("edit the config, then run `jobharvest crawl` or `jobharvest schedule`")
		return nil
	},
}
