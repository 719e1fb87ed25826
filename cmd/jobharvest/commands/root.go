// Package commands wires the CLI surface: install, crawl, serve, schedule,
// stats, list, export.
package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"jobharvest/internal/config"
	"jobharvest/internal/logging"
	"jobharvest/internal/store"
)

var (
	flagDataDir  string
	flagLogLevel string
)

// app is the per-invocation state commands share after PersistentPreRunE.
var app struct {
	cfg     config.Config
	cfgPath string
	dataDir string
	log     zerolog.Logger
}

var rootCmd = &cobra.Command{
	Use:   "jobharvest",
	Short: "Scheduled job-posting harvesting and deduplication engine",
	Long: `jobharvest collects job postings from configured sources on a schedule,
deduplicates them, and serves the result to a local dashboard and the CLI.

Examples:
  jobharvest install          # bootstrap data dir, config, and database
  jobharvest crawl            # harvest all enabled sources once
  jobharvest schedule         # recurring harvests + dashboard server
  jobharvest stats            # collection statistics
  jobharvest list --source wanted --limit 10`,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		dataDir := flagDataDir
		if dataDir == "" {
			dataDir = os.Getenv("JOBHARVEST_DATA_DIR")
		}
		if dataDir == "" {
			dataDir = "data"
		}
		app.dataDir = dataDir

		cfgPath, err := config.EnsureUserConfig(dataDir)
		if err != nil {
			return fmt.Errorf("config bootstrap: %w", err)
		}
		app.cfgPath = cfgPath

		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("config load (%s): %w", cfgPath, err)
		}

		level := cfg.App.LogLevel
		if flagLogLevel != "" {
			level = flagLogLevel
		}
		app.log = logging.New(level, isatty.IsTerminal(os.Stderr.Fd()))

		norm, res := config.NormalizeAndValidate(cfg)
		for _, w := range res.Warnings {
			app.log.Warn().Msg(w)
		}
		if !res.OK() {
			for _, e := range res.Errors {
				app.log.Error().Msg(e)
			}
			return fmt.Errorf("invalid config: %s", cfgPath)
		}
		app.cfg = norm
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default $JOBHARVEST_DATA_DIR or ./data)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "override configured log level")

	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(crawlCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(exportCmd)
}

func openDB() (*store.DB, error) {
	return store.Open(filepath.Join(app.dataDir, "jobharvest.db"))
}

// acquireWriteLock keeps crawl/schedule down to one writing process per
// data directory. Readers don't take it.
func acquireWriteLock() (*flock.Flock, error) {
	fl := flock.New(filepath.Join(app.dataDir, "jobharvest.lock"))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("another jobharvest writer is running (lock: %s)", fl.Path())
	}
	return fl, nil
}
