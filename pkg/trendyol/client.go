// Package trendyol provides a client for the Trendyol storefront search API.
package trendyol

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/dorinvancea/pricewatch/internal/fetch"
	"github.com/dorinvancea/pricewatch/internal/model"
	"github.com/dorinvancea/pricewatch/internal/resilience"
)

const (
	defaultAPIBase       = "https://apigw.trendyol.com/discovery-sfint-search-service/api/search/products"
	defaultStorefrontURL = "https://www.trendyol.com"
	defaultUserAgent     = "Mozilla/5.0"
)

// defaultParams are appended to every search request. The storefront id and
// culture pin results to the Romanian store.
var defaultParams = map[string]string{
	"culture":      "ro-RO",
	"storefrontId": "29",
	"channelId":    "1",
	"pathModel":    "sr",
}

// Option configures the client.
type Option func(*Client)

// WithBaseURL sets a custom search API base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithStorefrontURL sets a custom storefront root for session warm-up.
func WithStorefrontURL(u string) Option {
	return func(c *Client) {
		c.storefrontURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithRateLimit sets the minimum interval between API requests.
func WithRateLimit(interval time.Duration) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Every(interval), 1)
	}
}

// WithUserAgent overrides the request User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// Client fetches listing pages from the Trendyol search API. It implements
// fetch.Source: WarmUp establishes a fresh cookie session against the
// storefront root, FetchPage retrieves one page of products.
type Client struct {
	baseURL       string
	storefrontURL string
	userAgent     string
	http          *http.Client
	limiter       *rate.Limiter
}

var _ fetch.Source = (*Client)(nil)

// NewClient creates a Trendyol search client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:       defaultAPIBase,
		storefrontURL: defaultStorefrontURL,
		userAgent:     defaultUserAgent,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Every(400*time.Millisecond), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WarmUp discards any previous session and loads the storefront root to
// collect fresh cookies. The search API rejects cookieless requests.
func (c *Client) WarmUp(ctx context.Context) error {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return eris.Wrap(err, "trendyol: create cookie jar")
	}
	c.http.Jar = jar

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.storefrontURL, nil)
	if err != nil {
		return eris.Wrap(err, "trendyol: create warm-up request")
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(resilience.NewTransientError(err, 0), "trendyol: warm-up request")
	}
	body, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	_ = resp.Body.Close()
	if readErr != nil {
		return eris.Wrap(readErr, "trendyol: read warm-up response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return eris.Errorf("trendyol: warm-up status %d", resp.StatusCode)
	}
	if blocked(resp, body) {
		return eris.New("trendyol: warm-up blocked by anti-bot challenge")
	}
	return nil
}

// searchResponse is the subset of the search API response we consume.
type searchResponse struct {
	Products []model.RawProduct `json:"products"`
	Links    struct {
		Next json.RawMessage `json:"next"`
	} `json:"_links"`
}

// FetchPage retrieves one page of the listing. The query is the listing URL
// (or a bare query string) whose parameters are forwarded to the search API
// alongside the storefront defaults and the page index.
func (c *Client) FetchPage(ctx context.Context, query string, pageIndex int) (fetch.Page, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return fetch.Page{}, eris.Wrap(err, "trendyol: rate limiter")
	}

	reqURL, err := c.pageURL(query, pageIndex)
	if err != nil {
		return fetch.Page{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fetch.Page{}, eris.Wrap(err, "trendyol: create page request")
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fetch.Page{}, eris.Wrap(resilience.NewTransientError(err, 0), "trendyol: page request")
	}
	body, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return fetch.Page{}, eris.Wrap(readErr, "trendyol: read page response")
	}

	page := fetch.Page{StatusCode: resp.StatusCode}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return page, nil
	}
	if blocked(resp, body) {
		return page, eris.New("trendyol: page blocked by anti-bot challenge")
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return page, eris.Wrap(err, "trendyol: unmarshal page response")
	}
	page.Items = parsed.Products
	page.HasNext = len(parsed.Links.Next) > 0 && string(parsed.Links.Next) != "null"
	return page, nil
}

// pageURL merges the listing's own query parameters with the storefront
// defaults and the page index.
func (c *Client) pageURL(query string, pageIndex int) (string, error) {
	raw := query
	if parsed, err := url.Parse(query); err == nil && parsed.RawQuery != "" {
		raw = parsed.RawQuery
	}
	params, err := url.ParseQuery(raw)
	if err != nil {
		return "", eris.Wrapf(err, "trendyol: parse listing query %q", query)
	}
	for k, v := range defaultParams {
		params.Set(k, v)
	}
	params.Set("pi", strconv.Itoa(pageIndex))
	return c.baseURL + "?" + params.Encode(), nil
}

// blocked checks a successful-looking response for anti-bot challenge
// markers. Cloudflare interstitials and captcha walls come back with 2xx
// often enough that the status code alone is not trustworthy.
func blocked(resp *http.Response, body []byte) bool {
	if resp.Header.Get("cf-ray") != "" && resp.Header.Get("cf-mitigated") != "" {
		return true
	}

	lower := strings.ToLower(string(body))
	if strings.Contains(lower, "captcha") || strings.Contains(lower, "recaptcha") {
		return true
	}
	if strings.Contains(lower, "checking your browser") ||
		strings.Contains(lower, "cf-browser-verification") {
		return true
	}
	return false
}
