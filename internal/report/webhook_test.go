package report

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dorinvancea/pricewatch/internal/model"
)

func sampleHits() []model.ClassifiedEntry {
	price := func(s string) decimal.Decimal {
		d, _ := decimal.NewFromString(s)
		return d
	}
	return []model.ClassifiedEntry{{
		Brand:       "Nike",
		Name:        "Air Zoom",
		ModelID:     "555",
		URL:         "https://t.ro/air-zoom-p-555",
		OldPrice:    price("200"),
		NewPrice:    price("140"),
		DropAmount:  price("60"),
		DropPercent: price("30"),
		Status:      model.StatusHit,
	}}
}

func TestWebhookReporter_PostsPayload(t *testing.T) {
	t.Parallel()

	var got WebhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := NewWebhookReporter(srv.URL)
	err := r.Report(context.Background(), "boots", decimal.NewFromInt(150), sampleHits())
	require.NoError(t, err)

	assert.Equal(t, "boots", got.Category)
	assert.Equal(t, "150", got.Threshold.String())
	require.Len(t, got.Hits, 1)
	assert.Equal(t, model.StatusHit, got.Hits[0].Status)
	assert.Equal(t, "140", got.Hits[0].NewPrice.String())
}

func TestWebhookReporter_EmptyHitsNotSent(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected request for empty hits")
	}))
	defer srv.Close()

	r := NewWebhookReporter(srv.URL)
	assert.NoError(t, r.Report(context.Background(), "boots", decimal.NewFromInt(150), nil))
}

func TestWebhookReporter_ServerErrorReturned(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	r := NewWebhookReporter(srv.URL)
	err := r.Report(context.Background(), "boots", decimal.NewFromInt(150), sampleHits())
	assert.Error(t, err)
}

func TestMulti_ContinuesPastFailures(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	var okCalls int
	okSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		okCalls++
		w.WriteHeader(http.StatusOK)
	}))
	defer okSrv.Close()

	m := Multi{NewWebhookReporter(srv.URL), NewWebhookReporter(okSrv.URL)}
	err := m.Report(context.Background(), "boots", decimal.NewFromInt(150), sampleHits())
	assert.Error(t, err)
	assert.Equal(t, 1, okCalls)
}
