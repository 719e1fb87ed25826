package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"jobharvest/internal/domain"
	"jobharvest/internal/harvest"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Harvest all enabled sources once, synchronously",
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

		coord := harvest.New(db, app.cfg, app.log)
		if len(coord.SourceIDs()) == 0 {
			return fmt.Errorf("no enabled sources; check %s", app.cfgPath)
		}

		run, err := coord.RunAll(cmd.Context())
		if err != nil {
			return err
		}

		for _, rs := range run.Sources {
			marker := "ok"
			if rs.Status != domain.SourceOK {
				marker = "FAILED: " + rs.ErrorDetail
			}
			fmt.Printf("  %-12s new=%-4d duplicates=%-4d %s\n",
				rs.SourceID, rs.NewCount, rs.DuplicateCount, marker)
		}
		fmt.Printf("run %s: %s (new=%d duplicates=%d)\n",
			run.RunID, run.Status, run.NewCount, run.DuplicateCount)

		if run.Status == domain.RunFailed {
			return fmt.Errorf("all sources failed")
		}
		return nil
	},
}
