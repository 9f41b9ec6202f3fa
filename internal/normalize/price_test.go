package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dorinvancea/pricewatch/internal/model"
)

func TestParsePrice_Strings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input any
		want  string
		ok    bool
	}{
		{"currency suffix with comma decimal", "199,99 Lei", "199.99", true},
		{"thousands dot with comma decimal", "1.299,50", "1299.5", true},
		{"plain dot decimal", "199.99", "199.99", true},
		{"internal spaces", "1 299,50 Lei", "1299.5", true},
		{"integer string", "130", "130", true},
		{"float64", 149.9, "149.9", true},
		{"int", 200, "200", true},
		{"zero is not a price", "0", "", false},
		{"negative is not a price", "-10,50", "", false},
		{"garbage", "N/A", "", false},
		{"empty string", "", "", false},
		{"nil", nil, "", false},
		{"unsupported type", []string{"199"}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := ParsePrice(tt.input)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, got.String())
			}
		})
	}
}

func TestEffectivePrice_CandidateOrder(t *testing.T) {
	t.Parallel()

	raw := model.RawProduct{
		"recommendedRetailPrice": map[string]any{
			"discountedPromotionPriceNumerized": 99.5,
			"sellingPriceNumerized":             250.0,
		},
		"price": map[string]any{
			"discountedPrice": 120.0,
			"current":         300.0,
		},
	}

	got, ok := EffectivePrice(raw)
	require.True(t, ok)
	assert.Equal(t, "99.5", got.String())
}

func TestEffectivePrice_FallsThroughUnparsable(t *testing.T) {
	t.Parallel()

	raw := model.RawProduct{
		"price": map[string]any{
			"discountedPrice": "not a price",
		},
		"singlePrice": map[string]any{
			"salePriceWihoutCurrency": "214,90",
		},
	}

	got, ok := EffectivePrice(raw)
	require.True(t, ok)
	assert.Equal(t, "214.9", got.String())
}

func TestEffectivePrice_SalePriceFallback(t *testing.T) {
	t.Parallel()

	raw := model.RawProduct{
		"singlePrice": map[string]any{
			"salePrice": "189,99 Lei",
		},
	}

	got, ok := EffectivePrice(raw)
	require.True(t, ok)
	assert.Equal(t, "189.99", got.String())
}

func TestEffectivePrice_AbsentEverywhere(t *testing.T) {
	t.Parallel()

	_, ok := EffectivePrice(model.RawProduct{"name": "shoe"})
	assert.False(t, ok)

	_, ok = EffectivePrice(nil)
	assert.False(t, ok)
}
