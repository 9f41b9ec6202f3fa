package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dorinvancea/pricewatch/internal/model"
)

var (
	baselineCategory string
	baselineDiff     bool
)

var baselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Capture or diff the baseline catalogs",
	Long:  "Fetches the current live listing for each configured category and overwrites its baseline file. With --diff, compares the live catalog against the stored baseline instead of rewriting it.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("baseline"); err != nil {
			return err
		}

		categories, err := selectCategories(baselineCategory)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		r := initRunner(nil)

		for _, cat := range categories {
			if baselineDiff {
				diff, err := r.DiffBaseline(ctx, cat)
				if err != nil {
					zap.L().Error("baseline diff failed",
						zap.String("category", cat.Label),
						zap.Error(err),
					)
					continue
				}
				fmt.Printf("%s: %d unchanged, %d changed, %d new, %d missing\n",
					cat.Label, diff.Unchanged, diff.Changed, diff.New, diff.Missing)
				continue
			}

			result, err := r.CaptureBaseline(ctx, cat)
			if err != nil {
				zap.L().Error("baseline capture failed",
					zap.String("category", cat.Label),
					zap.Error(err),
				)
				continue
			}
			if result.Status == model.FetchBlocked || result.Status == model.FetchEmptyAPI {
				fmt.Printf("%s: fetch %s, baseline left untouched\n", cat.Label, result.Status)
				continue
			}
			fmt.Printf("%s: captured %d items (%s)\n", cat.Label, len(result.Items), result.Status)
		}
		return nil
	},
}

func init() {
	baselineCmd.Flags().StringVar(&baselineCategory, "category", "", "capture a single category by label")
	baselineCmd.Flags().BoolVar(&baselineDiff, "diff", false, "compare live catalog against the stored baseline without rewriting it")
	rootCmd.AddCommand(baselineCmd)
}
