package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dorinvancea/pricewatch/internal/model"
)

var checkCategory string

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Reconcile live listings against the baseline catalogs",
	Long:  "Fetches every configured category's live listing, pairs it against the stored baseline, classifies price drops and reports surviving hits.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("check"); err != nil {
			return err
		}

		categories, err := selectCategories(checkCategory)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		summaries := initRunner(st).Run(ctx, categories)
		printSummaries(summaries)
		return nil
	},
}

func printSummaries(summaries []model.RunSummary) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CATEGORY\tSTATUS\tCHECKED\tBASELINE\tHITS\tALERTED\tMISSING\tDURATION")
	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%dms\n",
			s.Category, s.Status, s.Checked, s.Baseline, s.Hits, s.Alerted, s.Missing, s.DurationMS)
	}
	w.Flush()
}

func init() {
	checkCmd.Flags().StringVar(&checkCategory, "category", "", "run a single category by label")
	rootCmd.AddCommand(checkCmd)
}
