package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"jobharvest/internal/store"
)

var (
	flagListSource string
	flagListLimit  int
	flagListNew    bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List collected postings",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		opts := store.ListPostingsOpts{
			SourceID: flagListSource,
			Limit:    flagListLimit,
		}
		if flagListNew {
			opts.NewWithin = store.NewWindow
		}

		postings, err := db.ListPostings(cmd.Context(), opts)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "COMPANY\tTITLE\tEXPERIENCE\tDEADLINE\tSOURCE")
		for _, p := range postings {
			deadline := "open"
			if p.Deadline != nil {
				deadline = p.Deadline.Local().Format("2006-01-02")
			}
			exp := p.Experience
			if exp == "" {
				exp = "-"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				truncate(p.Company, 20), truncate(p.Title, 40), exp, deadline, p.SourceID)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Printf("\n%d postings\n", len(postings))
		return nil
	},
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}

func init() {
	listCmd.Flags().StringVar(&flagListSource, "source", "", "filter by source id")
	listCmd.Flags().IntVar(&flagListLimit, "limit", 20, "max postings to show")
	listCmd.Flags().BoolVar(&flagListNew, "new", false, "only postings first seen in the last 48h")
}
