// Package classify labels matched baseline/live pairs with their price
// movement.
package classify

import (
	"github.com/shopspring/decimal"

	"github.com/dorinvancea/pricewatch/internal/model"
	"github.com/dorinvancea/pricewatch/internal/normalize"
)

// Config holds the classification thresholds for one category run.
type Config struct {
	// DiscountPercent is the promotional code applied to live prices
	// before comparison (0 disables it).
	DiscountPercent float64
	// MinDropPercent is the minimum drop percentage for a hit.
	MinDropPercent float64
	// PriceCeiling is the category threshold a hit's new price must not
	// exceed. Zero disables the ceiling condition.
	PriceCeiling decimal.Decimal
	// TrackedSizes enables the per-size side-channel for these size
	// tokens.
	TrackedSizes map[string]bool
}

// ApplyDiscount returns price reduced by pct percent, rounded to 2 decimal
// places.
func ApplyDiscount(price decimal.Decimal, pct float64) decimal.Decimal {
	if pct <= 0 {
		return price.Round(2)
	}
	factor := decimal.NewFromFloat(1 - pct/100)
	return price.Mul(factor).Round(2)
}

// Classifier assigns drop statuses to matched pairs.
type Classifier struct {
	cfg Config
}

// New creates a Classifier with the given thresholds.
func New(cfg Config) *Classifier {
	return &Classifier{cfg: cfg}
}

// Classify computes the discounted new price, drop magnitude and status for
// a matched pair. Returns false when either side lacks a price; such pairs
// are skipped, not errors.
func (c *Classifier) Classify(pair model.MatchedPair) (model.ClassifiedEntry, bool) {
	if pair.Live == nil || !pair.Live.HasPrice() || !pair.Baseline.HasPrice() {
		return model.ClassifiedEntry{}, false
	}

	oldPrice := pair.Baseline.Price.Round(2)
	newPrice := ApplyDiscount(*pair.Live.Price, c.cfg.DiscountPercent)

	drop := oldPrice.Sub(newPrice)
	dropPercent := decimal.Zero
	if drop.IsPositive() {
		dropPercent = drop.Div(oldPrice).Mul(decimal.NewFromInt(100)).Round(2)
	}

	minDrop := decimal.NewFromFloat(c.cfg.MinDropPercent)

	var status model.Status
	switch {
	case newPrice.LessThan(oldPrice):
		status = model.StatusDrop
		withinCeiling := !c.cfg.PriceCeiling.IsPositive() || newPrice.LessThanOrEqual(c.cfg.PriceCeiling)
		if dropPercent.GreaterThanOrEqual(minDrop) && withinCeiling {
			status = model.StatusHit
		}
	case newPrice.GreaterThan(oldPrice):
		status = model.StatusIncrease
	default:
		status = model.StatusNoChange
	}

	// Brand preferably from the live record, baseline as fallback.
	brand := pair.Live.Brand
	if brand == "" || brand == "Unknown" {
		if pair.Baseline.Brand != "" {
			brand = pair.Baseline.Brand
		}
	}

	entry := model.ClassifiedEntry{
		Brand:            brand,
		Name:             pair.Baseline.Name,
		URL:              pair.Baseline.URL,
		ImageURL:         pair.Live.ImageURL,
		ModelID:          pair.Baseline.ModelID,
		OldPrice:         oldPrice,
		NewPrice:         newPrice,
		DropAmount:       drop.Round(2),
		DropPercent:      dropPercent,
		Status:           status,
		OldPricesPerSize: map[string]model.SizeQuote{},
		NewPricesPerSize: map[string]model.SizeQuote{},
	}
	c.recordSize(entry.OldPricesPerSize, pair.Baseline, oldPrice, entry.URL)
	c.recordSize(entry.NewPricesPerSize, *pair.Live, newPrice, entry.URL)

	return entry, true
}

// recordSize adds a size→(price, url) entry when the product carries a
// tracked size token. Informational only.
func (c *Classifier) recordSize(dst map[string]model.SizeQuote, p model.Product, price decimal.Decimal, baseURL string) {
	if p.Size == "" || !c.cfg.TrackedSizes[p.Size] {
		return
	}
	selector := p.VariantID
	if selector == "" {
		selector = p.Size
	}
	dst[p.Size] = model.SizeQuote{
		Price: price,
		URL:   normalize.SizeURL(baseURL, selector),
	}
}
