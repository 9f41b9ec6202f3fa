package runner

import (
	"context"

	"go.uber.org/zap"

	"github.com/dorinvancea/pricewatch/internal/fetch"
	"github.com/dorinvancea/pricewatch/internal/model"
)

// CaptureBaseline fetches the current live catalog for one category and
// overwrites its baseline file with the normalized snapshot.
func (r *Runner) CaptureBaseline(ctx context.Context, cat Category) (model.FetchResult, error) {
	result := fetch.New(r.src, r.fetchOptions(cat)).Fetch(ctx, cat.Listing)

	if result.Status == model.FetchBlocked || result.Status == model.FetchEmptyAPI {
		// Never clobber a good snapshot with a failed one.
		return result, nil
	}

	if err := writeJSON(cat.BaselineFile, result.Items); err != nil {
		return result, err
	}
	zap.L().Info("baseline captured",
		zap.String("category", cat.Label),
		zap.String("file", cat.BaselineFile),
		zap.Int("items", len(result.Items)),
		zap.String("status", string(result.Status)),
	)
	return result, nil
}

// BaselineDiff summarizes how a fresh catalog differs from the stored
// baseline, keyed by cleaned product URL.
type BaselineDiff struct {
	Unchanged int `json:"unchanged"`
	Changed   int `json:"changed"`
	New       int `json:"new"`
	Missing   int `json:"missing"`
}

// DiffBaseline fetches the live catalog and compares it against the
// category's existing baseline file without touching it.
func (r *Runner) DiffBaseline(ctx context.Context, cat Category) (BaselineDiff, error) {
	baseline, err := LoadBaseline(cat.BaselineFile)
	if err != nil {
		return BaselineDiff{}, err
	}

	result := fetch.New(r.src, r.fetchOptions(cat)).Fetch(ctx, cat.Listing)
	return diffCatalogs(baseline, result.Items), nil
}

func diffCatalogs(baseline []model.BaselineEntry, live []model.Product) BaselineDiff {
	old := make(map[string]model.BaselineEntry, len(baseline))
	for _, entry := range baseline {
		if entry.URL != "" {
			old[entry.URL] = entry
		}
	}

	var diff BaselineDiff
	seen := make(map[string]bool, len(live))
	for _, p := range live {
		if p.URL == "" || seen[p.URL] {
			continue
		}
		seen[p.URL] = true

		prev, ok := old[p.URL]
		if !ok {
			diff.New++
			continue
		}
		if samePrice(prev, p) {
			diff.Unchanged++
		} else {
			diff.Changed++
		}
	}

	for u := range old {
		if !seen[u] {
			diff.Missing++
		}
	}
	return diff
}

func samePrice(a, b model.Product) bool {
	if !a.HasPrice() || !b.HasPrice() {
		return a.HasPrice() == b.HasPrice()
	}
	return a.Price.Equal(*b.Price)
}
