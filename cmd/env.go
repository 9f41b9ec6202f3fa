package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/dorinvancea/pricewatch/internal/classify"
	"github.com/dorinvancea/pricewatch/internal/config"
	"github.com/dorinvancea/pricewatch/internal/cooldown"
	"github.com/dorinvancea/pricewatch/internal/fetch"
	"github.com/dorinvancea/pricewatch/internal/match"
	"github.com/dorinvancea/pricewatch/internal/report"
	"github.com/dorinvancea/pricewatch/internal/runner"
	"github.com/dorinvancea/pricewatch/internal/store"
	"github.com/dorinvancea/pricewatch/pkg/trendyol"
)

// initStore opens the run-history database and applies migrations.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// initSource builds the listing-source client from configuration.
func initSource() fetch.Source {
	var opts []trendyol.Option
	if cfg.Source.BaseURL != "" {
		opts = append(opts, trendyol.WithBaseURL(cfg.Source.BaseURL))
	}
	if cfg.Source.StorefrontURL != "" {
		opts = append(opts, trendyol.WithStorefrontURL(cfg.Source.StorefrontURL))
	}
	if cfg.Source.UserAgent != "" {
		opts = append(opts, trendyol.WithUserAgent(cfg.Source.UserAgent))
	}
	if cfg.Source.RateIntervalMS > 0 {
		opts = append(opts, trendyol.WithRateLimit(time.Duration(cfg.Source.RateIntervalMS)*time.Millisecond))
	}
	return trendyol.NewClient(opts...)
}

// initRunner wires the full per-category cycle from configuration.
func initRunner(st store.Store) *runner.Runner {
	trackedSizes := make(map[string]bool, len(cfg.Classify.TrackedSizes))
	for _, s := range cfg.Classify.TrackedSizes {
		trackedSizes[s] = true
	}

	reporters := report.Multi{report.LogReporter{}}
	if cfg.Report.WebhookURL != "" {
		reporters = append(reporters, report.NewWebhookReporter(cfg.Report.WebhookURL))
	}

	return runner.New(initSource(), runner.Options{
		OutputDir:   cfg.Output.Dir,
		CooldownDir: cfg.Cooldown.Dir,
		Cooldown: cooldown.Options{
			Window:    time.Duration(cfg.Cooldown.WindowHours) * time.Hour,
			Retention: time.Duration(cfg.Cooldown.RetentionHours) * time.Hour,
			Epsilon:   decimal.NewFromFloat(cfg.Cooldown.Epsilon),
		},
		Fetch: fetch.Options{
			MaxPages:         cfg.Fetch.MaxPages,
			OverBudgetStreak: cfg.Fetch.OverBudgetStreak,
			MinAcceptable:    cfg.Fetch.MinAcceptable,
			Schedule:         cfg.Fetch.Schedule(),
		},
		Classify: classify.Config{
			DiscountPercent: cfg.Classify.DiscountPercent,
			MinDropPercent:  cfg.Classify.MinDropPercent,
			TrackedSizes:    trackedSizes,
		},
		Denylist: match.NewDenylist(cfg.Classify.ExcludedKeywords),
		Reporter: reporters,
		Store:    st,
	})
}

// selectCategories loads the category list, optionally narrowed to one label.
func selectCategories(label string) ([]runner.Category, error) {
	categories, err := config.LoadCategories(cfg.CategoriesFile)
	if err != nil {
		return nil, err
	}
	if label == "" {
		return categories, nil
	}
	for _, cat := range categories {
		if cat.Label == label {
			return []runner.Category{cat}, nil
		}
	}
	return nil, eris.Errorf("unknown category %q", label)
}
