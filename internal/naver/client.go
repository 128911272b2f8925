// Package naver is a client for the Naver news search API.
package naver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/jonesrussell/north-cloud/market-classifier/internal/domain"
	"github.com/jonesrussell/north-cloud/market-classifier/internal/logger"
	"github.com/jonesrussell/north-cloud/market-classifier/internal/retry"
)

// Defaults and API limits.
const (
	DefaultEndpoint    = "https://openapi.naver.com/v1/search/news.json"
	DefaultTimeout     = 12 * time.Second
	DefaultMaxRetries  = 3
	DefaultBackoff     = 250 * time.Millisecond
	DefaultDays        = 30
	DefaultMaxItems    = 200
	MaxDisplay         = 100
	MaxStart           = 1000
	sortByDate         = "date"
	errorBodyPreview   = 300
	maxResponseBytes   = 4 << 20
	headerClientID     = "X-Naver-Client-Id"
	headerClientSecret = "X-Naver-Client-Secret"
)

var (
	// ErrMissingCredentials is returned when the client id or secret is empty.
	ErrMissingCredentials = errors.New("naver client id and secret are required")
	// ErrAPIStatus wraps a non-200 response.
	ErrAPIStatus = errors.New("naver api error")
)

// Limiter spaces out API calls.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Metrics counts API calls.
type Metrics interface {
	RecordNewsAPICall(success bool)
}

// Config holds client settings.
type Config struct {
	ClientID     string
	ClientSecret string
	Endpoint     string
	Timeout      time.Duration
	MaxRetries   int
	Backoff      time.Duration
}

// SearchOptions bound one search.
type SearchOptions struct {
	// Days drops items older than now minus Days. Results are newest first,
	// so the first older item ends the search.
	Days     int
	MaxItems int
	Display  int
}

// Client searches Naver news.
type Client struct {
	cfg      Config
	http     *http.Client
	limiter  Limiter
	metrics  Metrics
	logger   logger.Logger
	sanitize *bluemonday.Policy
	now      func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithLimiter spaces calls with l.
func WithLimiter(l Limiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

// WithMetrics attaches API call metrics.
func WithMetrics(m Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// WithClock replaces time.Now for the cutoff computation.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// NewClient creates a Client. Missing credentials are an error.
func NewClient(cfg Config, log logger.Logger, opts ...Option) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, ErrMissingCredentials
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = DefaultBackoff
	}
	if log == nil {
		log = logger.NewNop()
	}

	c := &Client{
		cfg:      cfg,
		http:     &http.Client{Timeout: cfg.Timeout},
		logger:   log,
		sanitize: bluemonday.StrictPolicy(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type searchResponse struct {
	Total int          `json:"total"`
	Start int          `json:"start"`
	Items []searchItem `json:"items"`
}

type searchItem struct {
	Title        string `json:"title"`
	OriginalLink string `json:"originallink"`
	Link         string `json:"link"`
	Description  string `json:"description"`
	PubDate      string `json:"pubDate"`
	Publisher    string `json:"publisher"`
}

// SearchNews pages through results for query, newest first, and returns up
// to opts.MaxItems deduplicated items tagged with company.
func (c *Client) SearchNews(ctx context.Context, company, query string, opts SearchOptions) ([]domain.NewsItem, error) {
	opts = normalizeOptions(opts)
	if opts.MaxItems <= 0 {
		return []domain.NewsItem{}, nil
	}

	cutoff := c.now().UTC().AddDate(0, 0, -opts.Days)
	out := make([]domain.NewsItem, 0, opts.MaxItems)
	seen := make(map[string]struct{})

	for start := 1; start <= MaxStart && len(out) < opts.MaxItems; start += opts.Display {
		resp, err := c.fetchPage(ctx, query, start, opts.Display)
		if err != nil {
			return out, err
		}
		if len(resp.Items) == 0 {
			break
		}

		stop := false
		for _, raw := range resp.Items {
			item, ok := c.convert(company, raw)
			if !ok {
				continue
			}
			if item.PubDate.UTC().Before(cutoff) {
				stop = true
				break
			}
			if _, dup := seen[item.UID]; dup {
				continue
			}
			seen[item.UID] = struct{}{}
			out = append(out, item)
			if len(out) >= opts.MaxItems {
				break
			}
		}
		if stop {
			break
		}
	}

	c.logger.Debug("Naver search complete",
		logger.String("company", company),
		logger.String("query", query),
		logger.Int("items", len(out)),
	)
	return out, nil
}

func normalizeOptions(opts SearchOptions) SearchOptions {
	if opts.Days <= 0 {
		opts.Days = DefaultDays
	}
	if opts.Display <= 0 || opts.Display > MaxDisplay {
		opts.Display = MaxDisplay
	}
	return opts
}

func (c *Client) fetchPage(ctx context.Context, query string, start, display int) (*searchResponse, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("display", strconv.Itoa(display))
	params.Set("start", strconv.Itoa(start))
	params.Set("sort", sortByDate)
	target := c.cfg.Endpoint + "?" + params.Encode()

	var page searchResponse
	err := retry.Do(ctx, retry.Config{
		MaxAttempts:  c.cfg.MaxRetries,
		InitialDelay: c.cfg.Backoff,
		MaxDelay:     c.cfg.Backoff * time.Duration(c.cfg.MaxRetries),
		Linear:       true,
		IsRetryable:  retry.RetryAll,
	}, func(ctx context.Context) error {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return retry.Permanent(err)
			}
		}
		err := c.get(ctx, target, &page)
		c.record(err == nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("naver search %q start=%d: %w", query, start, err)
	}
	return &page, nil
}

func (c *Client) get(ctx context.Context, target string, into *searchResponse) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return retry.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set(headerClientID, c.cfg.ClientID)
	req.Header.Set(headerClientSecret, c.cfg.ClientSecret)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		statusErr := fmt.Errorf("%w: HTTP %d: %s", ErrAPIStatus, resp.StatusCode, preview(string(body)))
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return retry.Permanent(statusErr)
		}
		return statusErr
	}

	if err := json.Unmarshal(body, into); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) record(success bool) {
	if c.metrics != nil {
		c.metrics.RecordNewsAPICall(success)
	}
}

func (c *Client) convert(company string, raw searchItem) (domain.NewsItem, bool) {
	pub, err := time.Parse(time.RFC1123Z, strings.TrimSpace(raw.PubDate))
	if err != nil {
		return domain.NewsItem{}, false
	}

	title := c.clean(raw.Title)
	original := strings.TrimSpace(raw.OriginalLink)
	link := strings.TrimSpace(raw.Link)

	base := original
	if base == "" {
		base = link
	}

	return domain.NewsItem{
		Company:      company,
		Title:        title,
		Description:  c.clean(raw.Description),
		Press:        press(raw.Publisher, original),
		PubDate:      pub,
		OriginalLink: original,
		Link:         link,
		UID:          UID(base, pub, title),
	}, true
}

func (c *Client) clean(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(c.sanitize.Sanitize(s)))
}

// UID is the deduplication key: lower-cased url|yyyy-mm-dd|title with the
// date taken in UTC.
func UID(link string, pub time.Time, title string) string {
	return strings.ToLower(link + "|" + pub.UTC().Format(time.DateOnly) + "|" + title)
}

// press prefers the publisher field and falls back to the article host.
func press(publisher, originalLink string) string {
	if p := strings.TrimSpace(publisher); p != "" {
		return p
	}
	u, err := url.Parse(originalLink)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

func preview(s string) string {
	if len(s) > errorBodyPreview {
		return s[:errorBodyPreview]
	}
	return s
}
