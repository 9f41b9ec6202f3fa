package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chTempDir(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chTempDir(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "pricewatch.db", cfg.Store.Path)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 80, cfg.Fetch.MaxPages)
	assert.Equal(t, 5, cfg.Fetch.OverBudgetStreak)
	assert.Equal(t, []int{0, 8, 20, 45}, cfg.Fetch.ScheduleSecs)
	assert.InDelta(t, 30, cfg.Classify.DiscountPercent, 0.001)
	assert.InDelta(t, 25, cfg.Classify.MinDropPercent, 0.001)
	assert.Contains(t, cfg.Classify.TrackedSizes, "42.5")
	assert.Contains(t, cfg.Classify.ExcludedKeywords, "sandale")
	assert.Equal(t, 6, cfg.Cooldown.WindowHours)
	assert.Equal(t, 336, cfg.Cooldown.RetentionHours)
	assert.InDelta(t, 0.01, cfg.Cooldown.Epsilon, 0.0001)
	assert.Equal(t, 40, cfg.Codes.Threshold)
	assert.Equal(t, "categories.yaml", cfg.CategoriesFile)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chTempDir(t)

	yaml := `
log:
  level: debug
  format: console
server:
  port: 9090
classify:
  min_drop_percent: 35
cooldown:
  window_hours: 12
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.InDelta(t, 35, cfg.Classify.MinDropPercent, 0.001)
	assert.Equal(t, 12, cfg.Cooldown.WindowHours)
	// Defaults still apply for unset values
	assert.Equal(t, 80, cfg.Fetch.MaxPages)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chTempDir(t)

	yaml := `
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("PRICEWATCH_LOG_LEVEL", "warn")
	t.Setenv("PRICEWATCH_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestFetchConfigSchedule(t *testing.T) {
	f := FetchConfig{ScheduleSecs: []int{0, 8, 20, 45}}
	assert.Equal(t, []time.Duration{0, 8 * time.Second, 20 * time.Second, 45 * time.Second}, f.Schedule())
}

func TestLoadCategories(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "categories.yaml")

	yaml := `
categories:
  - label: walking
    listing: "https://www.trendyol.com/ro/sr?wc=101429&sst=PRICE_BY_ASC"
    price_max: 150
    target: 500
    baseline_file: products_ro_walking.json
  - label: running
    listing: "https://www.trendyol.com/en/sr?wc=101426&sst=PRICE_BY_ASC"
    price_max: 180.50
    baseline_file: products_ro_running.json
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	categories, err := LoadCategories(path)
	require.NoError(t, err)
	require.Len(t, categories, 2)

	assert.Equal(t, "walking", categories[0].Label)
	assert.Equal(t, 500, categories[0].Target)
	assert.True(t, categories[0].PriceMax.Equal(decimal.NewFromInt(150)))
	assert.True(t, categories[1].PriceMax.Equal(decimal.NewFromFloat(180.50)))
	assert.Equal(t, "products_ro_running.json", categories[1].BaselineFile)
}

func TestLoadCategoriesMissingFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "categories.yaml")

	yaml := `
categories:
  - label: walking
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	_, err := LoadCategories(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "walking")
}

func TestLoadCategoriesEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "categories.yaml")
	require.NoError(t, os.WriteFile(path, []byte("categories: []"), 0644))

	_, err := LoadCategories(path)
	require.Error(t, err)
}

func TestLoadCategoriesMissingFile(t *testing.T) {
	_, err := LoadCategories(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func validDefaults() *Config {
	return &Config{
		Fetch:    FetchConfig{MaxPages: 80, OverBudgetStreak: 5},
		Classify: ClassifyConfig{DiscountPercent: 30, MinDropPercent: 25},
		Cooldown: CooldownConfig{WindowHours: 6, RetentionHours: 336},
		Codes:    CodesConfig{URL: "https://www.evoucher.ro/magazin/trendyol/", Threshold: 40},
		Server:   ServerConfig{Port: 8080},
		Store:    StoreConfig{Path: "pricewatch.db"},
	}
}

func TestValidateCheck(t *testing.T) {
	cfg := validDefaults()
	cfg.CategoriesFile = "categories.yaml"
	assert.NoError(t, cfg.Validate("check"))

	cfg.CategoriesFile = ""
	err := cfg.Validate("check")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "categories_file")
}

func TestValidateServe(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("serve"))

	cfg.Server.Port = 0
	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateThresholdBounds(t *testing.T) {
	cfg := validDefaults()
	cfg.CategoriesFile = "categories.yaml"

	cfg.Classify.DiscountPercent = 100
	err := cfg.Validate("check")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "discount_percent")

	cfg.Classify.DiscountPercent = 30
	cfg.Cooldown.RetentionHours = 1
	err = cfg.Validate("check")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "retention_hours")
}

func TestValidateUnknownMode(t *testing.T) {
	err := validDefaults().Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}
