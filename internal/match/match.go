// Package match pairs baseline catalog entries with their live
// counterparts, keyed by model identity. URLs carry volatile merchant
// parameters and are never used as match keys.
package match

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/dorinvancea/pricewatch/internal/model"
)

// foldTransformer strips diacritics so "șlapi" and "slapi" compare equal.
var foldTransformer = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// fold lowercases and removes diacritics for denylist comparison.
func fold(s string) string {
	folded, _, err := transform.String(foldTransformer, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return folded
}

// Denylist drops baseline entries whose display name contains any of the
// configured keywords. Matching is case-insensitive and diacritic-folded
// substring containment.
type Denylist struct {
	keywords []string
}

// NewDenylist builds a Denylist from raw keywords. Empty keywords are
// ignored.
func NewDenylist(keywords []string) *Denylist {
	d := &Denylist{}
	for _, k := range keywords {
		if k = strings.TrimSpace(k); k != "" {
			d.keywords = append(d.keywords, fold(k))
		}
	}
	return d
}

// Excluded reports whether the product name hits a denylist keyword.
func (d *Denylist) Excluded(name string) bool {
	if d == nil || len(d.keywords) == 0 {
		return false
	}
	folded := fold(name)
	for _, k := range d.keywords {
		if strings.Contains(folded, k) {
			return true
		}
	}
	return false
}

// ReduceBestVariant keeps, per model identity, only the live item with the
// lowest price. Ties keep the first-seen item. A live listing often exposes
// several sellers or sizes for one product; the relevant comparison price
// is the cheapest currently obtainable. Records without identity or price
// are dropped.
func ReduceBestVariant(items []model.Product) map[string]model.Product {
	best := make(map[string]model.Product, len(items))
	for _, item := range items {
		if item.ModelID == "" || !item.HasPrice() {
			continue
		}
		current, ok := best[item.ModelID]
		if !ok || item.Price.LessThan(*current.Price) {
			best[item.ModelID] = item
		}
	}
	return best
}

// Result is the outcome of pairing a baseline catalog against a reduced
// live map.
type Result struct {
	Pairs    []model.MatchedPair
	Missing  []model.MissingProduct
	Excluded int
}

// Pair matches each baseline entry to its live counterpart by model
// identity. Denylisted entries are dropped before pairing and never appear
// in any output. Baseline entries without identity are skipped; entries
// with no live counterpart are recorded as missing, not classified.
func Pair(baseline []model.BaselineEntry, live map[string]model.Product, denylist *Denylist) Result {
	var res Result
	for _, entry := range baseline {
		if entry.ModelID == "" {
			continue
		}
		if denylist.Excluded(entry.Name) {
			res.Excluded++
			continue
		}

		liveItem, ok := live[entry.ModelID]
		if !ok {
			res.Missing = append(res.Missing, model.MissingProduct{
				Key:  entry.ModelID,
				Name: entry.Name,
				URL:  entry.URL,
			})
			continue
		}

		res.Pairs = append(res.Pairs, model.MatchedPair{
			Baseline: entry,
			Live:     &liveItem,
		})
	}
	return res
}
