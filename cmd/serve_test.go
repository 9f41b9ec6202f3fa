package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dorinvancea/pricewatch/internal/model"
	"github.com/dorinvancea/pricewatch/internal/runner"
	"github.com/dorinvancea/pricewatch/internal/store"
)

func newServerFixture(t *testing.T) (http.Handler, store.Store, string) {
	t.Helper()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	outputDir := t.TempDir()
	return newRouter(st, outputDir), st, outputDir
}

func TestServeHealthz(t *testing.T) {
	t.Parallel()

	router, _, _ := newServerFixture(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServeListRuns(t *testing.T) {
	t.Parallel()

	router, st, _ := newServerFixture(t)

	_, err := st.RecordRun(context.Background(), model.RunSummary{
		Category: "sneakers",
		Status:   model.FetchOK,
		Checked:  42,
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs?category=sneakers", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var runs []model.RunSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, 42, runs[0].Checked)
}

func TestServeListRunsEmpty(t *testing.T) {
	t.Parallel()

	router, _, _ := newServerFixture(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestServeListCategories(t *testing.T) {
	t.Parallel()

	router, st, _ := newServerFixture(t)

	for _, category := range []string{"walking", "running"} {
		_, err := st.RecordRun(context.Background(), model.RunSummary{Category: category, Status: model.FetchOK})
		require.NoError(t, err)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/categories", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var categories []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &categories))
	assert.Equal(t, []string{"running", "walking"}, categories)
}

func TestServeCategoryResults(t *testing.T) {
	t.Parallel()

	router, _, outputDir := newServerFixture(t)

	results := `[{"name":"Sneaker One","status":"hit"}]`
	require.NoError(t, os.WriteFile(runner.ResultsPath(outputDir, "sneakers"), []byte(results), 0o644))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/categories/sneakers/results", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, results, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestServeCategoryResultsNotFound(t *testing.T) {
	t.Parallel()

	router, _, _ := newServerFixture(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/categories/nope/results", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
