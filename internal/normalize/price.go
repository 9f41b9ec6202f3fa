// Package normalize turns heterogeneous raw listing records into canonical
// products. Every function is pure: parsing failure yields an absent value,
// never an error.
package normalize

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dorinvancea/pricewatch/internal/model"
)

// currencySuffix is stripped from locale-formatted price strings.
const currencySuffix = "Lei"

// ParsePrice converts a raw price value into a decimal. String inputs have
// the currency suffix and internal spaces removed; when both "." and ","
// appear, "." is a thousands separator and "," the decimal mark, otherwise
// a lone "," is the decimal mark. Returns false for anything that does not
// parse to a finite positive number.
func ParsePrice(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case nil:
		return decimal.Decimal{}, false
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.Decimal{}, false
		}
		return positive(decimal.NewFromFloat(n))
	case float32:
		return ParsePrice(float64(n))
	case int:
		return positive(decimal.NewFromInt(int64(n)))
	case int64:
		return positive(decimal.NewFromInt(n))
	case json.Number:
		return parsePriceString(n.String())
	case string:
		return parsePriceString(n)
	case decimal.Decimal:
		return positive(n)
	default:
		return decimal.Decimal{}, false
	}
}

func parsePriceString(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), currencySuffix))
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return decimal.Decimal{}, false
	}

	if strings.Contains(s, ",") && strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	} else {
		s = strings.ReplaceAll(s, ",", ".")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return positive(d)
}

func positive(d decimal.Decimal) (decimal.Decimal, bool) {
	if !d.IsPositive() {
		return decimal.Decimal{}, false
	}
	return d, true
}

// EffectivePrice extracts the product's comparison price by trying an
// ordered list of candidate fields and returning the first that parses.
// The order mirrors the source payload's precedence: promotion price,
// discounted price, locale-formatted sale strings, retail fallback, then
// the generic current price.
func EffectivePrice(p model.RawProduct) (decimal.Decimal, bool) {
	rrp := p.Child("recommendedRetailPrice")
	price := p.Child("price")
	single := p.Child("singlePrice")
	binary := p.Child("binaryPrice")

	candidates := []any{
		rrp.Get("discountedPromotionPriceNumerized"),
		price.Get("discountedPrice"),
		single.First("salePriceWihoutCurrency", "salePrice"),
		binary.First("salePriceWihoutCurrency", "salePrice"),
		rrp.Get("sellingPriceNumerized"),
		price.Get("current"),
	}

	for _, c := range candidates {
		if c == nil {
			continue
		}
		if d, ok := ParsePrice(c); ok {
			return d, true
		}
	}
	return decimal.Decimal{}, false
}
