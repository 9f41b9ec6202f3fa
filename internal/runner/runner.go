// Package runner orchestrates the per-category reconciliation cycle:
// baseline load, live fetch, pairing, classification, persistence, cooldown
// filtering and reporting. Categories run strictly one after another and
// never share failure state.
package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/dorinvancea/pricewatch/internal/classify"
	"github.com/dorinvancea/pricewatch/internal/cooldown"
	"github.com/dorinvancea/pricewatch/internal/fetch"
	"github.com/dorinvancea/pricewatch/internal/match"
	"github.com/dorinvancea/pricewatch/internal/model"
	"github.com/dorinvancea/pricewatch/internal/normalize"
	"github.com/dorinvancea/pricewatch/internal/report"
	"github.com/dorinvancea/pricewatch/internal/store"
)

// Category is one tracked listing: static configuration, not engine logic.
type Category struct {
	Label        string
	Listing      string
	PriceMax     decimal.Decimal
	Target       int
	BaselineFile string
}

// Options configure a Runner. Zero values fall back to the component
// defaults.
type Options struct {
	// OutputDir receives the per-category result and missing files.
	OutputDir string
	// CooldownDir receives the per-category cooldown cache files.
	CooldownDir string
	Cooldown    cooldown.Options
	// Fetch holds the shared fetch options; the per-category ceiling and
	// target are filled in from each Category.
	Fetch    fetch.Options
	Classify classify.Config
	Denylist *match.Denylist
	Reporter report.Reporter
	// Store persists run summaries; nil disables run history.
	Store store.Store
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Runner drives reconciliation runs over a listing source.
type Runner struct {
	src  fetch.Source
	opts Options
}

// New creates a Runner over the given source.
func New(src fetch.Source, opts Options) *Runner {
	if opts.Reporter == nil {
		opts.Reporter = report.LogReporter{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Runner{src: src, opts: opts}
}

// Run reconciles every category sequentially and returns one summary per
// category. A category's failure never stops the others.
func (r *Runner) Run(ctx context.Context, categories []Category) []model.RunSummary {
	summaries := make([]model.RunSummary, 0, len(categories))
	for _, cat := range categories {
		summary := r.RunCategory(ctx, cat)
		summaries = append(summaries, summary)

		zap.L().Info("category run finished",
			zap.String("category", summary.Category),
			zap.String("status", string(summary.Status)),
			zap.Int("checked", summary.Checked),
			zap.Int("baseline", summary.Baseline),
			zap.Int("hits", summary.Hits),
			zap.Int("alerted", summary.Alerted),
			zap.Int("missing", summary.Missing),
			zap.Int64("duration_ms", summary.DurationMS),
		)
	}
	return summaries
}

// RunCategory runs the full cycle for one category. It never returns an
// error: every failure is folded into the summary so the caller can keep
// going with the next category.
func (r *Runner) RunCategory(ctx context.Context, cat Category) model.RunSummary {
	started := r.opts.Now()
	summary := model.RunSummary{
		Category:  cat.Label,
		StartedAt: started.UTC(),
	}
	defer func() {
		summary.DurationMS = r.opts.Now().Sub(started).Milliseconds()
		r.persistSummary(ctx, &summary)
	}()

	baseline, err := LoadBaseline(cat.BaselineFile)
	if err != nil {
		zap.L().Error("baseline unavailable, category blocked",
			zap.String("category", cat.Label),
			zap.String("file", cat.BaselineFile),
			zap.Error(err),
		)
		summary.Status = model.FetchBlocked
		return summary
	}
	summary.Baseline = len(baseline)

	result := fetch.New(r.src, r.fetchOptions(cat)).Fetch(ctx, cat.Listing)

	summary.Status = result.Status
	summary.Checked = len(result.Items)
	if result.Status == model.FetchBlocked {
		return summary
	}

	live := match.ReduceBestVariant(result.Items)
	paired := match.Pair(baseline, live, r.opts.Denylist)
	summary.Missing = len(paired.Missing)

	classifyCfg := r.opts.Classify
	classifyCfg.PriceCeiling = cat.PriceMax
	classifier := classify.New(classifyCfg)

	entries := make([]model.ClassifiedEntry, 0, len(paired.Pairs))
	var hits []model.ClassifiedEntry
	for _, pair := range paired.Pairs {
		entry, ok := classifier.Classify(pair)
		if !ok {
			continue
		}
		entries = append(entries, entry)
		if entry.Status == model.StatusHit {
			hits = append(hits, entry)
		}
	}
	summary.Hits = len(hits)

	if err := r.writeResults(cat.Label, entries, paired.Missing); err != nil {
		zap.L().Error("result persistence failed",
			zap.String("category", cat.Label),
			zap.Error(err),
		)
		summary.Status = model.FetchBlocked
		return summary
	}

	alerted, err := r.filterCooldown(cat.Label, hits)
	if err != nil {
		zap.L().Error("cooldown cache failed, suppressing alerts",
			zap.String("category", cat.Label),
			zap.Error(err),
		)
		return summary
	}
	summary.Alerted = len(alerted)

	if len(alerted) > 0 {
		if err := r.opts.Reporter.Report(ctx, cat.Label, cat.PriceMax, alerted); err != nil {
			zap.L().Warn("report delivery failed",
				zap.String("category", cat.Label),
				zap.Error(err),
			)
		}
	}
	return summary
}

// fetchOptions fills the shared fetch options with the category's budget.
// The fetcher applies the same discount as the classifier so budget
// tracking and hit classification agree on what a price means.
func (r *Runner) fetchOptions(cat Category) fetch.Options {
	opts := r.opts.Fetch
	opts.PriceCeiling = cat.PriceMax
	opts.Target = cat.Target
	if opts.DiscountPercent == 0 {
		opts.DiscountPercent = r.opts.Classify.DiscountPercent
	}
	return opts
}

// LoadBaseline reads a baseline catalog file. Records are either raw
// listing-source dumps, normalized on load, or entries written by our own
// baseline capture, taken as-is.
func LoadBaseline(path string) ([]model.BaselineEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "runner: read baseline %s", path)
	}

	var rows []json.RawMessage
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, eris.Wrapf(err, "runner: parse baseline %s", path)
	}

	entries := make([]model.BaselineEntry, 0, len(rows))
	for i, row := range rows {
		var raw model.RawProduct
		if err := json.Unmarshal(row, &raw); err != nil {
			return nil, eris.Wrapf(err, "runner: parse baseline %s record %d", path, i)
		}
		if raw.Get("model_id") != nil {
			var entry model.BaselineEntry
			if err := json.Unmarshal(row, &entry); err != nil {
				return nil, eris.Wrapf(err, "runner: parse baseline %s record %d", path, i)
			}
			entries = append(entries, entry)
			continue
		}
		entries = append(entries, normalize.Product(raw))
	}
	return entries, nil
}

// writeResults overwrites the category's result and missing files in full.
func (r *Runner) writeResults(label string, entries []model.ClassifiedEntry, missing []model.MissingProduct) error {
	if entries == nil {
		entries = []model.ClassifiedEntry{}
	}
	if missing == nil {
		missing = []model.MissingProduct{}
	}

	if err := writeJSON(ResultsPath(r.opts.OutputDir, label), entries); err != nil {
		return err
	}
	return writeJSON(MissingPath(r.opts.OutputDir, label), missing)
}

func (r *Runner) filterCooldown(label string, hits []model.ClassifiedEntry) ([]model.ClassifiedEntry, error) {
	if len(hits) == 0 {
		return nil, nil
	}

	opts := r.opts.Cooldown
	if opts.Now == nil {
		opts.Now = r.opts.Now
	}
	cache, err := cooldown.Open(CooldownPath(r.opts.CooldownDir, label), opts)
	if err != nil {
		return nil, err
	}
	return cache.Filter(hits)
}

func (r *Runner) persistSummary(ctx context.Context, summary *model.RunSummary) {
	if r.opts.Store == nil {
		return
	}
	recorded, err := r.opts.Store.RecordRun(ctx, *summary)
	if err != nil {
		zap.L().Warn("run summary not recorded",
			zap.String("category", summary.Category),
			zap.Error(err),
		)
		return
	}
	*summary = recorded
}

// ResultsPath is the per-category result file location.
func ResultsPath(dir, label string) string {
	return filepath.Join(dir, fmt.Sprintf("price_changes_%s.json", label))
}

// MissingPath is the per-category missing-products file location.
func MissingPath(dir, label string) string {
	return filepath.Join(dir, fmt.Sprintf("missing_%s.json", label))
}

// CooldownPath is the per-category cooldown cache location.
func CooldownPath(dir, label string) string {
	return filepath.Join(dir, fmt.Sprintf("cooldown_%s.json", label))
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrapf(err, "runner: marshal %s", path)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "runner: write %s", path)
	}
	return nil
}
