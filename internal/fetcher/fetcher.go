// Package fetcher downloads a news page and extracts its article body as
// plain text. It is used to enrich short workbook descriptions.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/jonesrussell/north-cloud/market-classifier/internal/logger"
	"github.com/jonesrussell/north-cloud/market-classifier/internal/retry"
)

// Defaults for article fetches.
const (
	DefaultTimeout   = 5 * time.Second
	DefaultUserAgent = "Mozilla/5.0"
	DefaultMaxChars  = 4000

	maxBodyBytes  = 5 << 20
	fetchAttempts = 2
	retryDelay    = 200 * time.Millisecond
)

// Fetch outcomes reported to Metrics.
const (
	ResultOK    = "ok"
	ResultEmpty = "empty"
	ResultError = "error"
)

var errUnexpectedStatus = errors.New("unexpected status")

// noiseSelectors are removed before extraction.
var noiseSelectors = []string{
	"header", "nav", "footer", "aside", "script", "style",
	".sidebar", ".breadcrumbs", ".breadcrumb", ".related", ".recommend", ".ad", ".ads",
}

// contentSelectors are tried in order; the first one that matches wins.
var contentSelectors = []string{
	"article",
	".article",
	"#articleBody",
	"#articeBody",
	"#news_body",
	".news_body",
	".article_body",
	".article-body",
	".content",
	"#content",
	".post-content",
	".entry-content",
	".post_body",
	".post-body",
}

// Metrics receives one outcome per fetch.
type Metrics interface {
	RecordArticleFetch(result string)
}

// Config controls the fetcher.
type Config struct {
	Timeout   time.Duration
	UserAgent string
	MaxChars  int
}

// Fetcher extracts article text over HTTP.
type Fetcher struct {
	client    *http.Client
	userAgent string
	maxChars  int
	logger    logger.Logger
	metrics   Metrics
}

// New creates a Fetcher. metrics may be nil.
func New(cfg Config, log logger.Logger, metrics Metrics) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = DefaultMaxChars
	}
	if log == nil {
		log = logger.NewNop()
	}

	return &Fetcher{
		client:    &http.Client{Timeout: cfg.Timeout},
		userAgent: cfg.UserAgent,
		maxChars:  cfg.MaxChars,
		logger:    log,
		metrics:   metrics,
	}
}

// FetchText returns the article body of rawURL, or "" when the URL is not
// http(s), the page is unreachable, or nothing readable was found. It never
// returns an error; failures are logged at Debug.
func (f *Fetcher) FetchText(ctx context.Context, rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ""
	}

	var text string
	err = retry.Do(ctx, retry.Config{
		MaxAttempts:  fetchAttempts,
		InitialDelay: retryDelay,
		IsRetryable:  retry.DefaultIsRetryable,
	}, func(ctx context.Context) error {
		var fetchErr error
		text, fetchErr = f.fetch(ctx, u)
		return fetchErr
	})
	if err != nil {
		f.logger.Debug("Article fetch failed",
			logger.String("url", u.String()),
			logger.Error(err),
		)
		f.record(ResultError)
		return ""
	}

	if text == "" {
		f.record(ResultEmpty)
		return ""
	}
	f.record(ResultOK)
	return text
}

func (f *Fetcher) record(result string) {
	if f.metrics != nil {
		f.metrics.RecordArticleFetch(result)
	}
}

func (f *Fetcher) fetch(ctx context.Context, u *url.URL) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return "", retry.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("get %s: %w", u.Host, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", retry.Permanent(fmt.Errorf("%w: %d", errUnexpectedStatus, resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	return Extract(string(body), u, f.maxChars), nil
}

// Extract pulls article text out of an HTML document: noise is stripped,
// then the content selectors are tried, then readability, then the whole
// body. The result is whitespace-collapsed and cut to maxChars runes.
func Extract(html string, pageURL *url.URL, maxChars int) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	for _, sel := range noiseSelectors {
		doc.Find(sel).Remove()
	}

	if text := selectorText(doc); text != "" {
		return truncate(text, maxChars)
	}

	if text := readabilityText(html, pageURL); text != "" {
		return truncate(text, maxChars)
	}

	return truncate(collapse(doc.Find("body").Text()), maxChars)
}

func selectorText(doc *goquery.Document) string {
	for _, sel := range contentSelectors {
		nodes := doc.Find(sel)
		if nodes.Length() == 0 {
			continue
		}
		parts := make([]string, 0, nodes.Length())
		nodes.Each(func(_ int, s *goquery.Selection) {
			if t := collapse(s.Text()); t != "" {
				parts = append(parts, t)
			}
		})
		if len(parts) > 0 {
			return strings.Join(parts, " ")
		}
	}
	return ""
}

func readabilityText(html string, pageURL *url.URL) string {
	if pageURL == nil {
		pageURL = &url.URL{}
	}
	article, err := readability.FromReader(strings.NewReader(html), pageURL)
	if err != nil {
		return ""
	}
	return collapse(article.TextContent)
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
