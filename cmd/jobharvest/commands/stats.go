package commands

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show collection statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.Stats(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("total postings: %d\n", stats.TotalPostings)
		fmt.Printf("new (48h):      %d\n", stats.NewPostings)
		fmt.Printf("expiring (7d):  %d\n\n", stats.ExpiringSoon)

		var sources []string
		for sid := range stats.PostingsPerSource {
			sources = append(sources, sid)
		}
		for sid := range stats.LastRunPerSource {
			if _, ok := stats.PostingsPerSource[sid]; !ok {
				sources = append(sources, sid)
			}
		}
		sort.Strings(sources)

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SOURCE\tPOSTINGS\tLAST RUN\tSTATUS\tNEW")
		for _, sid := range sources {
			last, ok := stats.LastRunPerSource[sid]
			lastStr, status, newCount := "-", "-", "-"
			if ok {
				lastStr = last.StartedAt.Local().Format("2006-01-02 15:04")
				status = string(last.Status)
				newCount = fmt.Sprint(last.NewCount)
			}
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n",
				sid, stats.PostingsPerSource[sid], lastStr, status, newCount)
		}
		return tw.Flush()
	},
}
