package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dorinvancea/pricewatch/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewSQLite(filepath.Join(t.TempDir(), "pricewatch.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestRecordRunAssignsID(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)

	run, err := s.RecordRun(context.Background(), model.RunSummary{
		Category: "swim-shorts",
		Status:   model.FetchOK,
		Checked:  120,
		Baseline: 115,
		Hits:     3,
		Alerted:  2,
		Missing:  1,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.False(t, run.StartedAt.IsZero())
}

func TestListRunsNewestFirst(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		_, err := s.RecordRun(ctx, model.RunSummary{
			Category:  "sneakers",
			Status:    model.FetchOK,
			Checked:   i,
			StartedAt: base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}

	runs, err := s.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, 2, runs[0].Checked)
	assert.Equal(t, 0, runs[2].Checked)
}

func TestListRunsFiltersAndLimits(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	for _, category := range []string{"sneakers", "sneakers", "swim-shorts"} {
		_, err := s.RecordRun(ctx, model.RunSummary{Category: category, Status: model.FetchOK})
		require.NoError(t, err)
	}

	runs, err := s.ListRuns(ctx, RunFilter{Category: "sneakers"})
	require.NoError(t, err)
	assert.Len(t, runs, 2)

	runs, err = s.ListRuns(ctx, RunFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestListRunsRoundTripsStatus(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.RecordRun(ctx, model.RunSummary{Category: "boots", Status: model.FetchBlocked})
	require.NoError(t, err)

	runs, err := s.ListRuns(ctx, RunFilter{Category: "boots"})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.FetchBlocked, runs[0].Status)
}

func TestListCategories(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	for _, category := range []string{"swim-shorts", "sneakers", "sneakers"} {
		_, err := s.RecordRun(ctx, model.RunSummary{Category: category, Status: model.FetchOK})
		require.NoError(t, err)
	}

	categories, err := s.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"sneakers", "swim-shorts"}, categories)
}
