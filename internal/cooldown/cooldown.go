// Package cooldown suppresses repeat alerts for a key until its cooldown
// window elapses or its price moves, backed by a JSON file rewritten
// atomically on every filter pass.
package cooldown

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/dorinvancea/pricewatch/internal/model"
)

// Record is the persisted last-alert state for one key.
type Record struct {
	Timestamp time.Time       `json:"timestamp"`
	LastPrice decimal.Decimal `json:"last_price"`
}

// Options configure a cache.
type Options struct {
	// Window is the minimum elapsed time before a key may re-alert at an
	// unchanged price.
	Window time.Duration
	// Retention bounds cache growth: records older than this are dropped
	// on every save.
	Retention time.Duration
	// Epsilon is the minimal price difference that counts as a change.
	Epsilon decimal.Decimal
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Cache is a persisted key→Record store for one category. Not safe for
// concurrent use; categories run sequentially by construction.
type Cache struct {
	path    string
	opts    Options
	records map[string]Record
}

// Open loads the cache file at path. A missing file yields an empty cache;
// a corrupt file is an error so a half-written state is never silently
// discarded.
func Open(path string, opts Options) (*Cache, error) {
	if opts.Window <= 0 {
		opts.Window = 6 * time.Hour
	}
	if opts.Retention <= 0 {
		opts.Retention = 14 * 24 * time.Hour
	}
	if opts.Epsilon.IsZero() {
		opts.Epsilon = decimal.New(1, -2) // 0.01
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	c := &Cache{path: path, opts: opts, records: map[string]Record{}}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "cooldown: read %s", path)
	}
	if err := json.Unmarshal(data, &c.records); err != nil {
		return nil, eris.Wrapf(err, "cooldown: parse %s", path)
	}
	return c, nil
}

// Len returns the number of live records.
func (c *Cache) Len() int {
	return len(c.records)
}

// Filter returns the hits that are allowed to alert now, records each
// survivor immediately, and atomically rewrites the cache file. Recording
// before returning means a key alerts at most once per run no matter how
// many classified entries share it.
func (c *Cache) Filter(hits []model.ClassifiedEntry) ([]model.ClassifiedEntry, error) {
	now := c.opts.Now()

	var surviving []model.ClassifiedEntry
	for _, hit := range hits {
		key := hit.AlertKey()
		if key == "" {
			continue
		}
		if !c.allowed(key, hit.NewPrice, now) {
			zap.L().Debug("alert suppressed by cooldown",
				zap.String("key", key),
				zap.String("price", hit.NewPrice.String()),
			)
			continue
		}
		c.records[key] = Record{Timestamp: now, LastPrice: hit.NewPrice}
		surviving = append(surviving, hit)
	}

	if err := c.save(now); err != nil {
		return nil, err
	}
	return surviving, nil
}

// allowed implements the survival rule: no prior record, cooldown elapsed,
// or price moved by at least epsilon.
func (c *Cache) allowed(key string, price decimal.Decimal, now time.Time) bool {
	rec, ok := c.records[key]
	if !ok {
		return true
	}
	if now.Sub(rec.Timestamp) >= c.opts.Window {
		return true
	}
	return price.Sub(rec.LastPrice).Abs().GreaterThanOrEqual(c.opts.Epsilon)
}

// save sweeps expired records and rewrites the file via temp-and-rename so
// an interrupted write leaves the previous state intact.
func (c *Cache) save(now time.Time) error {
	for key, rec := range c.records {
		if now.Sub(rec.Timestamp) > c.opts.Retention {
			delete(c.records, key)
		}
	}

	data, err := json.MarshalIndent(c.records, "", "  ")
	if err != nil {
		return eris.Wrap(err, "cooldown: marshal")
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "cooldown: mkdir %s", dir)
	}

	tmp, err := os.CreateTemp(dir, ".cooldown-*")
	if err != nil {
		return eris.Wrap(err, "cooldown: create temp")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return eris.Wrap(err, "cooldown: write temp")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return eris.Wrap(err, "cooldown: close temp")
	}
	if err := os.Rename(tmpName, c.path); err != nil {
		os.Remove(tmpName)
		return eris.Wrapf(err, "cooldown: rename to %s", c.path)
	}
	return nil
}
