package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"jobharvest/internal/export"
)

var flagExportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write collected postings to a JSON file",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		out := flagExportOut
		if out == "" {
			out = filepath.Join(app.dataDir, "postings.json")
		}

		n, err := export.WriteJSON(cmd.Context(), db, out)
		if err != nil {
			return err
		}
		fmt.Printf("wrote %d postings to %s\n", n, out)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&flagExportOut, "out", "", "output path (default <data-dir>/postings.json)")
}
