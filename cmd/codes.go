package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dorinvancea/pricewatch/internal/codes"
	"github.com/dorinvancea/pricewatch/internal/report"
)

var codesThreshold int

var codesCmd = &cobra.Command{
	Use:   "codes",
	Short: "Check the voucher page for discount codes",
	Long:  "Fetches the configured voucher aggregator page, extracts advertised discount percents and reports the ones above the threshold.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("codes"); err != nil {
			return err
		}

		threshold := cfg.Codes.Threshold
		if codesThreshold > 0 {
			threshold = codesThreshold
		}

		checker := codes.NewChecker(threshold, codes.WithURL(cfg.Codes.URL))

		ctx := cmd.Context()
		res, err := checker.Check(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("found: %v\n", res.Found)
		fmt.Printf("above %d%%: %v\n", threshold, res.Above)

		reporters := report.Multi{report.LogReporter{}}
		if cfg.Report.WebhookURL != "" {
			reporters = append(reporters, report.NewWebhookReporter(cfg.Report.WebhookURL))
		}
		return checker.ReportAbove(ctx, reporters, res)
	},
}

func init() {
	codesCmd.Flags().IntVar(&codesThreshold, "threshold", 0, "alert threshold percent (default from config)")
	rootCmd.AddCommand(codesCmd)
}
