// Package fetch retrieves one category's live catalog page by page, with a
// bounded retry schedule around the whole pagination state machine.
package fetch

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/dorinvancea/pricewatch/internal/classify"
	"github.com/dorinvancea/pricewatch/internal/model"
	"github.com/dorinvancea/pricewatch/internal/normalize"
	"github.com/dorinvancea/pricewatch/internal/resilience"
)

// Page is one page of raw listing records from the source.
type Page struct {
	// StatusCode is the HTTP status of the page request.
	StatusCode int
	Items      []model.RawProduct
	HasNext    bool
}

// Source is the listing-source boundary. Implementations own the browser or
// HTTP session; WarmUp must establish a fresh session context (cookies,
// headers) and is called once per retry attempt, so it also serves as the
// session reset.
type Source interface {
	WarmUp(ctx context.Context) error
	FetchPage(ctx context.Context, query string, pageIndex int) (Page, error)
}

// Options bound one category's fetch.
type Options struct {
	// MaxPages caps pagination regardless of HasNext.
	MaxPages int
	// Target stops accumulation once this many in-budget items were
	// collected. 0 means enumerate everything.
	Target int
	// PriceCeiling is the category budget, compared against the
	// discounted price. Zero disables budget tracking.
	PriceCeiling decimal.Decimal
	// DiscountPercent is applied before the ceiling comparison.
	DiscountPercent float64
	// OverBudgetStreak stops pagination after this many consecutive
	// over-ceiling items, provided at least one in-budget item was
	// already collected. Price-ascending listings make everything after
	// such a streak over budget too; on other sort orders this is a
	// heuristic and may cause false "missing" entries.
	OverBudgetStreak int
	// MinAcceptable triggers a retry when an ok fetch yields fewer items.
	MinAcceptable int
	// Schedule is the outer retry backoff schedule.
	Schedule resilience.Schedule
}

// Fetcher runs the WARMUP → FETCH_PAGE → (MORE_PAGES | DONE | BLOCKED)
// state machine for one category at a time.
type Fetcher struct {
	src  Source
	opts Options
}

// New creates a Fetcher over the given source.
func New(src Source, opts Options) *Fetcher {
	if opts.MaxPages <= 0 {
		opts.MaxPages = 80
	}
	if opts.OverBudgetStreak <= 0 {
		opts.OverBudgetStreak = 5
	}
	if opts.Schedule == nil {
		opts.Schedule = resilience.DefaultSchedule()
	}
	return &Fetcher{src: src, opts: opts}
}

// Fetch retrieves the live catalog for the listing query. It never returns
// an error: failures surface as a non-ok status so one category's outcome
// can't poison another's.
func (f *Fetcher) Fetch(ctx context.Context, query string) model.FetchResult {
	var result model.FetchResult

	accepted := f.opts.Schedule.Do(ctx, func(ctx context.Context, attempt int) bool {
		result = f.attempt(ctx, query)
		result.Diagnostics.Attempts = attempt

		if result.Status != model.FetchOK {
			zap.L().Warn("listing fetch attempt failed",
				zap.String("query", query),
				zap.Int("attempt", attempt),
				zap.String("status", string(result.Status)),
				zap.Int("items", len(result.Items)),
			)
			return false
		}
		if len(result.Items) < f.opts.MinAcceptable {
			zap.L().Warn("listing fetch returned too few items",
				zap.String("query", query),
				zap.Int("attempt", attempt),
				zap.Int("items", len(result.Items)),
				zap.Int("min_acceptable", f.opts.MinAcceptable),
			)
			return false
		}
		return true
	})

	if !accepted {
		result.Diagnostics.LastStatus = result.Status
		result.Status = model.FetchBlocked
	}
	return result
}

// attempt runs the state machine once over a fresh session.
func (f *Fetcher) attempt(ctx context.Context, query string) model.FetchResult {
	var res model.FetchResult

	if err := f.src.WarmUp(ctx); err != nil {
		zap.L().Warn("listing warm-up failed", zap.String("query", query), zap.Error(err))
		res.Status = model.FetchHTTPError
		return res
	}

	var (
		inBudget   int
		overStreak int
	)

	for pageIndex := 1; pageIndex <= f.opts.MaxPages; pageIndex++ {
		page, err := f.src.FetchPage(ctx, query, pageIndex)
		if err != nil {
			// Partial results from earlier pages are kept.
			zap.L().Warn("page fetch failed",
				zap.String("query", query),
				zap.Int("page", pageIndex),
				zap.Bool("transient", resilience.IsTransient(err)),
				zap.Error(err),
			)
			res.Status = model.FetchHTTPError
			return res
		}
		res.Diagnostics.PagesFetched++
		res.Diagnostics.LastHTTPCode = page.StatusCode

		if page.StatusCode < 200 || page.StatusCode >= 300 {
			zap.L().Warn("page returned non-success status",
				zap.String("query", query),
				zap.Int("page", pageIndex),
				zap.Int("status_code", page.StatusCode),
				zap.Bool("transient", resilience.IsTransientHTTPStatus(page.StatusCode)),
			)
			res.Status = model.FetchHTTPError
			return res
		}

		if pageIndex == 1 && len(page.Items) == 0 {
			res.Status = model.FetchEmptyAPI
			return res
		}

		res.Diagnostics.RawItems += len(page.Items)

		for _, raw := range page.Items {
			p := normalize.Product(raw)
			if p.ModelID == "" || !p.HasPrice() {
				res.Diagnostics.Skipped++
				continue
			}
			res.Items = append(res.Items, p)

			if f.opts.PriceCeiling.IsPositive() {
				discounted := classify.ApplyDiscount(*p.Price, f.opts.DiscountPercent)
				if discounted.GreaterThan(f.opts.PriceCeiling) {
					overStreak++
					if inBudget > 0 && overStreak >= f.opts.OverBudgetStreak {
						res.Status = f.terminalStatus(res)
						return res
					}
					continue
				}
				overStreak = 0
				inBudget++
				if f.opts.Target > 0 && inBudget >= f.opts.Target {
					res.Status = f.terminalStatus(res)
					return res
				}
			}
		}

		if !page.HasNext {
			break
		}
	}

	res.Status = f.terminalStatus(res)
	return res
}

// terminalStatus distinguishes a successful fetch from one whose raw pages
// held records that all failed normalization or budget filtering.
func (f *Fetcher) terminalStatus(res model.FetchResult) model.FetchStatus {
	if len(res.Items) == 0 {
		return model.FetchFilteredEmpty
	}
	return model.FetchOK
}
