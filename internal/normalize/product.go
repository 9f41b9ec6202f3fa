package normalize

import (
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dorinvancea/pricewatch/internal/model"
)

// storefrontBase prefixes relative product and image URLs.
const storefrontBase = "https://www.trendyol.com"

// volatileParams carry merchant or boutique routing and break identity
// comparisons between runs, so they are stripped from product URLs.
var volatileParams = []string{"merchantId", "boutiqueId"}

var titleCaser = cases.Title(language.Und)

// ModelID returns the product's stable identity key, or "" when the record
// carries none. Numeric identifiers are rendered as integer strings.
func ModelID(p model.RawProduct) string {
	v := p.First("contentId", "id", "groupId")
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(id)
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case int:
		return strconv.Itoa(id)
	case int64:
		return strconv.FormatInt(id, 10)
	default:
		return ""
	}
}

// Brand extracts the brand name, falling back to the first path segment of
// the product URL, then to "Unknown".
func Brand(p model.RawProduct, productURL string) string {
	for _, key := range []string{"brand", "brandName"} {
		switch b := p.Get(key).(type) {
		case string:
			if s := strings.TrimSpace(b); s != "" {
				return titleCaser.String(s)
			}
		case map[string]any:
			if s := strings.TrimSpace(model.RawProduct(b).Str("name")); s != "" {
				return titleCaser.String(s)
			}
		}
	}

	if productURL != "" {
		parts := strings.Split(productURL, "/")
		if len(parts) > 3 && parts[3] != "" {
			return titleCaser.String(strings.ReplaceAll(parts[3], "-", " "))
		}
	}

	return "Unknown"
}

// Size normalizes a size token: trimmed, comma decimal mark replaced with a
// dot. Returns "" for absent sizes.
func Size(v any) string {
	var s string
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		s = t
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
	s = strings.TrimSpace(s)
	return strings.ReplaceAll(s, ",", ".")
}

// AbsoluteURL makes a product URL absolute against the storefront host.
func AbsoluteURL(u string) string {
	if u == "" || strings.HasPrefix(u, "http") {
		return u
	}
	return storefrontBase + u
}

// CleanProductURL strips volatile merchant and boutique query parameters so
// the same product compares equal across runs.
func CleanProductURL(raw string) string {
	if raw == "" {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	for _, key := range volatileParams {
		q.Del(key)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// SizeURL appends a size-selector parameter to a product URL.
func SizeURL(base, sizeParam string) string {
	if sizeParam == "" {
		return base
	}
	if strings.Contains(base, "?") {
		return base + "&v=" + url.QueryEscape(sizeParam)
	}
	return base + "?v=" + url.QueryEscape(sizeParam)
}

// ImageURL extracts and normalizes the product image URL. Only https URLs
// are accepted; relative and protocol-less forms are upgraded first.
func ImageURL(p model.RawProduct) string {
	var candidates []string

	for _, key := range []string{"imageUrl", "image", "thumbnailUrl"} {
		switch v := p.Get(key).(type) {
		case string:
			candidates = append(candidates, v)
		case map[string]any:
			obj := model.RawProduct(v)
			if s, ok := obj.First("url", "imageUrl", "path").(string); ok {
				candidates = append(candidates, s)
			}
		}
	}

	if imgs, ok := p.First("images", "imageUrls").([]any); ok && len(imgs) > 0 {
		switch first := imgs[0].(type) {
		case string:
			candidates = append(candidates, first)
		case map[string]any:
			obj := model.RawProduct(first)
			if s, ok := obj.First("url", "imageUrl", "path").(string); ok {
				candidates = append(candidates, s)
			}
		}
	}

	for _, c := range candidates {
		if u := normalizeImageURL(c); strings.HasPrefix(u, "https://") {
			return u
		}
	}
	return ""
}

func normalizeImageURL(u string) string {
	u = strings.TrimSpace(u)
	switch {
	case u == "":
		return ""
	case strings.HasPrefix(u, "//"):
		return "https:" + u
	case strings.HasPrefix(u, "http://"):
		return "https://" + strings.TrimPrefix(u, "http://")
	case strings.HasPrefix(u, "/"):
		return storefrontBase + u
	default:
		return u
	}
}

// VariantID returns the size-selector value for building size URLs,
// preferring the source's variant identifier over the raw size token.
func VariantID(p model.RawProduct) string {
	if v := p.First("variantId", "variantValue"); v != nil {
		return Size(v)
	}
	return ""
}

// Product builds a normalized product from a raw record. Records without a
// model identity or price still produce a Product; callers decide whether
// such records are usable (ModelID == "" or Price == nil).
func Product(raw model.RawProduct) model.Product {
	u := CleanProductURL(AbsoluteURL(raw.Str("url")))

	prod := model.Product{
		ModelID:   ModelID(raw),
		Name:      raw.Str("name"),
		Brand:     Brand(raw, u),
		Size:      Size(raw.Get("variantValue")),
		URL:       u,
		ImageURL:  ImageURL(raw),
		VariantID: VariantID(raw),
	}
	if d, ok := EffectivePrice(raw); ok {
		prod.Price = &d
	}
	return prod
}
