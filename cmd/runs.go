package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/dorinvancea/pricewatch/internal/model"
	"github.com/dorinvancea/pricewatch/internal/store"
)

var (
	runsCategory string
	runsLimit    int
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List reconciliation run history",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		runs, err := st.ListRuns(ctx, store.RunFilter{
			Category: runsCategory,
			Limit:    runsLimit,
		})
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(os.Stdout, runs)
		return nil
	},
}

func formatRunsList(out io.Writer, runs []model.RunSummary) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tCATEGORY\tSTATUS\tCHECKED\tHITS\tALERTED\tMISSING\tDURATION")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%dms\n",
			r.StartedAt.Format(time.RFC3339), r.Category, r.Status,
			r.Checked, r.Hits, r.Alerted, r.Missing, r.DurationMS)
	}
	w.Flush()
}

func init() {
	runsCmd.Flags().StringVar(&runsCategory, "category", "", "filter by category label")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum rows to show")
	rootCmd.AddCommand(runsCmd)
}
