package model

import "github.com/shopspring/decimal"

// RawProduct is one opaque record from the live listing source. Field names
// and nesting vary across source versions, so access goes through the
// tolerant lookup helpers rather than a fixed struct.
type RawProduct map[string]any

// Get returns the value for key, or nil if the key is absent.
func (p RawProduct) Get(key string) any {
	if p == nil {
		return nil
	}
	return p[key]
}

// Child returns the nested object under key, or nil if the value is absent
// or not an object.
func (p RawProduct) Child(key string) RawProduct {
	switch v := p.Get(key).(type) {
	case map[string]any:
		return RawProduct(v)
	case RawProduct:
		return v
	default:
		return nil
	}
}

// Str returns the string value for key, or "" if absent or not a string.
func (p RawProduct) Str(key string) string {
	s, _ := p.Get(key).(string)
	return s
}

// First returns the first non-nil value among the given keys.
func (p RawProduct) First(keys ...string) any {
	for _, k := range keys {
		if v := p.Get(k); v != nil {
			return v
		}
	}
	return nil
}

// Product is a normalized live listing item. Immutable once built.
type Product struct {
	ModelID  string           `json:"model_id"`
	Name     string           `json:"name"`
	Brand    string           `json:"brand"`
	Price    *decimal.Decimal `json:"price,omitempty"`
	Size     string           `json:"size,omitempty"`
	URL      string           `json:"url"`
	ImageURL string           `json:"image,omitempty"`

	// VariantID is the source's size-variant selector, used to build
	// size-specific URLs. Falls back to the size token when absent.
	VariantID string `json:"variant_id,omitempty"`
}

// HasPrice reports whether a normalized price was extracted.
func (p Product) HasPrice() bool {
	return p.Price != nil
}

// BaselineEntry is one row of the previously captured catalog snapshot.
// Same shape as Product; loaded once per run and treated as read-only.
type BaselineEntry = Product
