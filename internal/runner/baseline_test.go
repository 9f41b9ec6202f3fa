package runner

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dorinvancea/pricewatch/internal/model"
)

func TestCaptureBaselineWritesSnapshot(t *testing.T) {
	t.Parallel()

	src := &fakeSource{pages: map[string][]model.RawProduct{
		"wc=104": {rawItem(1, "Sneaker One", 100), rawItem(2, "Sneaker Two", 120)},
	}}
	r, dir := newTestRunner(t, src, &recordingReporter{})

	cat := Category{
		Label:        "sneakers",
		Listing:      "wc=104",
		BaselineFile: filepath.Join(dir, "baseline.json"),
	}

	result, err := r.CaptureBaseline(context.Background(), cat)
	require.NoError(t, err)
	assert.Equal(t, model.FetchOK, result.Status)

	entries, err := LoadBaseline(cat.BaselineFile)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "1", entries[0].ModelID)
	require.True(t, entries[0].HasPrice())
	assert.True(t, entries[0].Price.Equal(decimal.NewFromInt(100)))
}

func TestCaptureBaselineKeepsSnapshotOnFailure(t *testing.T) {
	t.Parallel()

	src := &fakeSource{fail: map[string]bool{"wc=104": true}}
	r, dir := newTestRunner(t, src, &recordingReporter{})

	cat := Category{
		Label:        "sneakers",
		Listing:      "wc=104",
		BaselineFile: filepath.Join(dir, "baseline.json"),
	}
	writeBaseline(t, cat.BaselineFile, []model.RawProduct{rawItem(1, "Keep Me", 50)})

	result, err := r.CaptureBaseline(context.Background(), cat)
	require.NoError(t, err)
	assert.Equal(t, model.FetchBlocked, result.Status)

	entries, err := LoadBaseline(cat.BaselineFile)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Keep Me", entries[0].Name)
}

func TestDiffBaseline(t *testing.T) {
	t.Parallel()

	src := &fakeSource{pages: map[string][]model.RawProduct{
		"wc=104": {
			rawItem(1, "Same", 100),
			rawItem(2, "Cheaper", 80),
			rawItem(4, "Brand New", 60),
		},
	}}
	r, dir := newTestRunner(t, src, &recordingReporter{})

	cat := Category{
		Label:        "sneakers",
		Listing:      "wc=104",
		BaselineFile: filepath.Join(dir, "baseline.json"),
	}
	writeBaseline(t, cat.BaselineFile, []model.RawProduct{
		rawItem(1, "Same", 100),
		rawItem(2, "Cheaper", 120),
		rawItem(3, "Gone", 90),
	})

	diff, err := r.DiffBaseline(context.Background(), cat)
	require.NoError(t, err)
	assert.Equal(t, BaselineDiff{Unchanged: 1, Changed: 1, New: 1, Missing: 1}, diff)
}

func TestDiffBaselineMissingFile(t *testing.T) {
	t.Parallel()

	r, dir := newTestRunner(t, &fakeSource{}, &recordingReporter{})

	_, err := r.DiffBaseline(context.Background(), Category{
		Label:        "sneakers",
		BaselineFile: filepath.Join(dir, "nope.json"),
	})
	require.Error(t, err)
}
