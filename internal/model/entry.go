package model

import "github.com/shopspring/decimal"

// Status classifies the price movement of a matched pair.
type Status string

const (
	// StatusHit means the drop cleared both the minimum drop percentage
	// and the category price ceiling.
	StatusHit      Status = "hit"
	StatusDrop     Status = "drop"
	StatusIncrease Status = "increase"
	StatusNoChange Status = "no_change"
)

// MatchedPair joins a baseline entry with its live counterpart.
// A nil Live means the baseline product was not found this run.
type MatchedPair struct {
	Baseline BaselineEntry
	Live     *Product
}

// SizeQuote records the price and size-selecting URL for one tracked size.
type SizeQuote struct {
	Price decimal.Decimal `json:"price"`
	URL   string          `json:"url"`
}

// ClassifiedEntry is the engine's output row for one matched product.
// NewPrice already includes the configured discount code.
type ClassifiedEntry struct {
	Brand       string          `json:"brand"`
	Name        string          `json:"name"`
	URL         string          `json:"url"`
	ImageURL    string          `json:"image,omitempty"`
	ModelID     string          `json:"model_id"`
	OldPrice    decimal.Decimal `json:"old_price"`
	NewPrice    decimal.Decimal `json:"new_price"`
	DropAmount  decimal.Decimal `json:"drop_amount"`
	DropPercent decimal.Decimal `json:"drop_percent"`
	Status      Status          `json:"status"`

	// Informational size side-channel; never affects Status.
	OldPricesPerSize map[string]SizeQuote `json:"old_prices_per_size"`
	NewPricesPerSize map[string]SizeQuote `json:"new_prices_per_size"`
}

// AlertKey identifies the entry for cooldown purposes: model identity when
// present, cleaned URL otherwise.
func (e ClassifiedEntry) AlertKey() string {
	if e.ModelID != "" {
		return e.ModelID
	}
	return e.URL
}

// MissingProduct is one baseline entry with no live counterpart this run.
type MissingProduct struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	URL  string `json:"url"`
}
