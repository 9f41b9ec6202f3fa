// Package codes checks a voucher aggregator page for Trendyol discount
// codes and surfaces the advertised percents.
package codes

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/dorinvancea/pricewatch/internal/model"
	"github.com/dorinvancea/pricewatch/internal/report"
)

const defaultVoucherURL = "https://www.evoucher.ro/magazin/trendyol/"

// cardSelectors target the percent badge inside each voucher card. Tried in
// order; the page's markup has shifted between these classes before.
var cardSelectors = []string{
	"div.font150.sale_letter",
	"div.sale_letter",
	"div.font150",
	"span.font150.sale_letter",
}

// fallbackSelector scopes the regexp sweep to offer cards only, never the
// whole body, to avoid picking up unrelated percents from page chrome.
const fallbackSelector = ".hr_grid_img, .deal_string, a[href*='cupon-trendyol']"

var percentRE = regexp.MustCompile(`(\d{1,3})\s*%`)

// Result holds the extracted voucher percents.
type Result struct {
	// Found is every distinct percent on the page, ascending.
	Found []int `json:"found"`
	// Above is the subset strictly greater than the threshold.
	Above []int `json:"above"`
}

// Option configures the checker.
type Option func(*Checker)

// WithURL overrides the voucher page URL.
func WithURL(u string) Option {
	return func(c *Checker) {
		c.url = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Checker) {
		c.http = hc
	}
}

// Checker fetches the voucher page and extracts discount percents.
type Checker struct {
	url       string
	threshold int
	http      *http.Client
}

// NewChecker creates a checker alerting on percents above threshold.
func NewChecker(threshold int, opts ...Option) *Checker {
	c := &Checker{
		url:       defaultVoucherURL,
		threshold: threshold,
		http:      &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check fetches the voucher page and returns the percents found on it.
func (c *Checker) Check(ctx context.Context) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return Result{}, eris.Wrap(err, "codes: create request")
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, eris.Wrap(err, "codes: fetch voucher page")
	}
	body, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return Result{}, eris.Wrap(readErr, "codes: read voucher page")
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, eris.Errorf("codes: voucher page status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Result{}, eris.Wrap(err, "codes: parse voucher page")
	}
	return c.extract(doc), nil
}

// extract pulls percents from the card badges, falling back to a regexp
// sweep over the offer-card text when no badge matches.
func (c *Checker) extract(doc *goquery.Document) Result {
	seen := map[int]bool{}

	for _, sel := range cardSelectors {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			if p, ok := parsePercent(s.Text()); ok {
				seen[p] = true
			}
		})
	}

	if len(seen) == 0 {
		doc.Find(fallbackSelector).Each(func(_ int, s *goquery.Selection) {
			for _, m := range percentRE.FindAllStringSubmatch(s.Text(), -1) {
				if p, ok := validPercent(m[1]); ok {
					seen[p] = true
				}
			}
		})
	}

	var res Result
	for p := range seen {
		res.Found = append(res.Found, p)
	}
	sort.Ints(res.Found)
	for _, p := range res.Found {
		if p > c.threshold {
			res.Above = append(res.Above, p)
		}
	}
	return res
}

func parsePercent(text string) (int, bool) {
	m := percentRE.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	return validPercent(m[1])
}

func validPercent(digits string) (int, bool) {
	p, err := strconv.Atoi(digits)
	if err != nil || p < 1 || p > 100 {
		return 0, false
	}
	return p, true
}

// ReportAbove sends the above-threshold percents through a reporter, one
// entry per percent.
func (c *Checker) ReportAbove(ctx context.Context, r report.Reporter, res Result) error {
	if len(res.Above) == 0 {
		return nil
	}

	hits := make([]model.ClassifiedEntry, 0, len(res.Above))
	for _, p := range res.Above {
		hits = append(hits, model.ClassifiedEntry{
			Brand:       "Trendyol",
			Name:        "voucher " + strconv.Itoa(p) + "%",
			URL:         c.url,
			DropPercent: decimal.NewFromInt(int64(p)),
			Status:      model.StatusHit,
		})
	}
	return r.Report(ctx, "voucher-codes", decimal.NewFromInt(int64(c.threshold)), hits)
}
