// Package config loads the application configuration from file, environment
// and defaults, and owns global logger setup.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/dorinvancea/pricewatch/internal/runner"
)

// Config holds the full application configuration.
type Config struct {
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Source   SourceConfig   `yaml:"source" mapstructure:"source"`
	Fetch    FetchConfig    `yaml:"fetch" mapstructure:"fetch"`
	Classify ClassifyConfig `yaml:"classify" mapstructure:"classify"`
	Cooldown CooldownConfig `yaml:"cooldown" mapstructure:"cooldown"`
	Report   ReportConfig   `yaml:"report" mapstructure:"report"`
	Codes    CodesConfig    `yaml:"codes" mapstructure:"codes"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Output   OutputConfig   `yaml:"output" mapstructure:"output"`
	// CategoriesFile points at the standalone category list.
	CategoriesFile string `yaml:"categories_file" mapstructure:"categories_file"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// StoreConfig configures the run-history database.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// SourceConfig configures the listing-source client.
type SourceConfig struct {
	BaseURL        string `yaml:"base_url" mapstructure:"base_url"`
	StorefrontURL  string `yaml:"storefront_url" mapstructure:"storefront_url"`
	UserAgent      string `yaml:"user_agent" mapstructure:"user_agent"`
	RateIntervalMS int    `yaml:"rate_interval_ms" mapstructure:"rate_interval_ms"`
}

// FetchConfig configures pagination and retry behavior.
type FetchConfig struct {
	MaxPages         int   `yaml:"max_pages" mapstructure:"max_pages"`
	OverBudgetStreak int   `yaml:"over_budget_streak" mapstructure:"over_budget_streak"`
	MinAcceptable    int   `yaml:"min_acceptable" mapstructure:"min_acceptable"`
	ScheduleSecs     []int `yaml:"schedule_secs" mapstructure:"schedule_secs"`
}

// ClassifyConfig configures drop classification thresholds.
type ClassifyConfig struct {
	DiscountPercent  float64  `yaml:"discount_percent" mapstructure:"discount_percent"`
	MinDropPercent   float64  `yaml:"min_drop_percent" mapstructure:"min_drop_percent"`
	TrackedSizes     []string `yaml:"tracked_sizes" mapstructure:"tracked_sizes"`
	ExcludedKeywords []string `yaml:"excluded_keywords" mapstructure:"excluded_keywords"`
}

// CooldownConfig configures alert suppression.
type CooldownConfig struct {
	WindowHours    int     `yaml:"window_hours" mapstructure:"window_hours"`
	RetentionHours int     `yaml:"retention_hours" mapstructure:"retention_hours"`
	Epsilon        float64 `yaml:"epsilon" mapstructure:"epsilon"`
	Dir            string  `yaml:"dir" mapstructure:"dir"`
}

// ReportConfig configures alert delivery.
type ReportConfig struct {
	WebhookURL string `yaml:"webhook_url" mapstructure:"webhook_url"`
}

// CodesConfig configures the voucher code checker.
type CodesConfig struct {
	URL       string `yaml:"url" mapstructure:"url"`
	Threshold int    `yaml:"threshold" mapstructure:"threshold"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// OutputConfig configures where result files land.
type OutputConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PRICEWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("store.path", "pricewatch.db")
	v.SetDefault("source.base_url", "")
	v.SetDefault("source.rate_interval_ms", 400)
	v.SetDefault("fetch.max_pages", 80)
	v.SetDefault("fetch.over_budget_streak", 5)
	v.SetDefault("fetch.min_acceptable", 0)
	v.SetDefault("fetch.schedule_secs", []int{0, 8, 20, 45})
	v.SetDefault("classify.discount_percent", 30)
	v.SetDefault("classify.min_drop_percent", 25)
	v.SetDefault("classify.tracked_sizes", []string{
		"41", "41.5", "42", "42.5", "43", "43.5", "44", "44.5", "45",
	})
	v.SetDefault("classify.excluded_keywords", []string{
		"șlapi", "slapi", "sandale", "sandala", "flip", "flip-flops",
		"papuci", "papuci de casa",
	})
	v.SetDefault("cooldown.window_hours", 6)
	v.SetDefault("cooldown.retention_hours", 336)
	v.SetDefault("cooldown.epsilon", 0.01)
	v.SetDefault("cooldown.dir", ".")
	v.SetDefault("codes.url", "https://www.evoucher.ro/magazin/trendyol/")
	v.SetDefault("codes.threshold", 40)
	v.SetDefault("server.port", 8080)
	v.SetDefault("output.dir", ".")
	v.SetDefault("categories_file", "categories.yaml")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the fields required for a given run mode.
func (c *Config) Validate(mode string) error {
	var problems []string

	check := func(ok bool, msg string) {
		if !ok {
			problems = append(problems, msg)
		}
	}

	check(c.Fetch.MaxPages > 0, "fetch.max_pages must be > 0")
	check(c.Fetch.OverBudgetStreak > 0, "fetch.over_budget_streak must be > 0")
	check(c.Classify.DiscountPercent >= 0 && c.Classify.DiscountPercent < 100,
		"classify.discount_percent must be in [0, 100)")
	check(c.Classify.MinDropPercent >= 0, "classify.min_drop_percent must be >= 0")
	check(c.Cooldown.WindowHours > 0, "cooldown.window_hours must be > 0")
	check(c.Cooldown.RetentionHours >= c.Cooldown.WindowHours,
		"cooldown.retention_hours must be >= cooldown.window_hours")

	switch mode {
	case "check", "baseline":
		check(c.CategoriesFile != "", "categories_file is required")
	case "serve":
		check(c.Server.Port > 0, "server.port must be > 0")
		check(c.Store.Path != "", "store.path is required")
	case "codes":
		check(c.Codes.URL != "", "codes.url is required")
		check(c.Codes.Threshold > 0 && c.Codes.Threshold <= 100,
			"codes.threshold must be in (0, 100]")
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// Schedule converts the configured backoff seconds into durations.
func (f FetchConfig) Schedule() []time.Duration {
	out := make([]time.Duration, 0, len(f.ScheduleSecs))
	for _, s := range f.ScheduleSecs {
		out = append(out, time.Duration(s)*time.Second)
	}
	return out
}

// categoryFile is the on-disk shape of the category list.
type categoryFile struct {
	Categories []categoryEntry `yaml:"categories"`
}

type categoryEntry struct {
	Label        string  `yaml:"label"`
	Listing      string  `yaml:"listing"`
	PriceMax     float64 `yaml:"price_max"`
	Target       int     `yaml:"target"`
	BaselineFile string  `yaml:"baseline_file"`
}

// LoadCategories reads the category list from its YAML file.
func LoadCategories(path string) ([]runner.Category, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "config: read categories %s", path)
	}

	var file categoryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, eris.Wrapf(err, "config: parse categories %s", path)
	}
	if len(file.Categories) == 0 {
		return nil, eris.Errorf("config: no categories in %s", path)
	}

	categories := make([]runner.Category, 0, len(file.Categories))
	for _, entry := range file.Categories {
		if entry.Label == "" || entry.Listing == "" || entry.BaselineFile == "" {
			return nil, eris.Errorf("config: category %q needs label, listing and baseline_file", entry.Label)
		}
		categories = append(categories, runner.Category{
			Label:        entry.Label,
			Listing:      entry.Listing,
			PriceMax:     decimal.NewFromFloat(entry.PriceMax),
			Target:       entry.Target,
			BaselineFile: entry.BaselineFile,
		})
	}
	return categories, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
