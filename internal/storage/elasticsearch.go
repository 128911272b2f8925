// Package storage indexes collected news into Elasticsearch.
package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	es "github.com/elastic/go-elasticsearch/v8"

	"github.com/jonesrussell/north-cloud/market-classifier/internal/domain"
	"github.com/jonesrussell/north-cloud/market-classifier/internal/logger"
	"github.com/jonesrussell/north-cloud/market-classifier/internal/retry"
)

const (
	defaultURL         = "http://localhost:9200"
	defaultIndex       = "market_news"
	defaultPingTimeout = 5 * time.Second
	pingAttempts       = 3
)

// ErrBulkFailures is returned when some documents in a bulk request failed.
var ErrBulkFailures = errors.New("bulk request had item failures")

// Config holds Elasticsearch connection settings.
type Config struct {
	URL        string
	Username   string
	Password   string //nolint:gosec // ES connection config
	Index      string
	MaxRetries int
}

// NewClient creates a client and verifies the cluster answers a ping,
// retrying with backoff.
func NewClient(ctx context.Context, cfg Config, log logger.Logger) (*es.Client, error) {
	url := normalizeURL(cfg.URL)

	clientConfig := es.Config{
		Addresses:  []string{url},
		MaxRetries: cfg.MaxRetries,
	}
	if cfg.Username != "" && cfg.Password != "" {
		clientConfig.Username = cfg.Username
		clientConfig.Password = cfg.Password
	}

	client, err := es.NewClient(clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	log.Info("Verifying Elasticsearch connection", logger.String("url", url))

	err = retry.Do(ctx, retry.Config{MaxAttempts: pingAttempts, IsRetryable: retry.RetryAll}, func(ctx context.Context) error {
		return ping(ctx, client)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Elasticsearch after retries: %w", err)
	}

	log.Info("Elasticsearch connection established", logger.String("url", url))
	return client, nil
}

func normalizeURL(url string) string {
	if url == "" {
		return defaultURL
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return "http://" + url
	}
	return url
}

func ping(ctx context.Context, client *es.Client) error {
	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()

	res, err := client.Ping(client.Ping.WithContext(pingCtx))
	if err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("ping: %s", res.Status())
	}
	return nil
}

// NewsDocument is the indexed form of a collected news row.
type NewsDocument struct {
	Company         string    `json:"company"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Press           string    `json:"press"`
	PubDate         time.Time `json:"pub_date"`
	OriginalLink    string    `json:"originallink"`
	Link            string    `json:"naver_link"`
	KeywordCategory string    `json:"keyword_category"`
	KeywordScore    int       `json:"keyword_score"`
	MatchedKeywords []string  `json:"matched_keywords"`
	MarketCategory  string    `json:"market_category"`
	MarketReason    string    `json:"market_reason"`
	IndexedAt       time.Time `json:"indexed_at"`
}

// newsMapping keeps categories and reason codes as keywords for
// aggregations.
const newsMapping = `{
  "mappings": {
    "properties": {
      "company":          {"type": "keyword"},
      "title":            {"type": "text"},
      "description":      {"type": "text"},
      "press":            {"type": "keyword"},
      "pub_date":         {"type": "date"},
      "originallink":     {"type": "keyword"},
      "naver_link":       {"type": "keyword"},
      "keyword_category": {"type": "keyword"},
      "keyword_score":    {"type": "integer"},
      "matched_keywords": {"type": "keyword"},
      "market_category":  {"type": "keyword"},
      "market_reason":    {"type": "keyword"},
      "indexed_at":       {"type": "date"}
    }
  }
}`

// NewsIndexer writes collected news rows to one index.
type NewsIndexer struct {
	client *es.Client
	index  string
	logger logger.Logger
	now    func() time.Time
}

// NewNewsIndexer creates an indexer for index (default market_news).
func NewNewsIndexer(client *es.Client, index string, log logger.Logger) *NewsIndexer {
	if index == "" {
		index = defaultIndex
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &NewsIndexer{client: client, index: index, logger: log, now: time.Now}
}

// Index returns the target index name.
func (n *NewsIndexer) Index() string {
	return n.index
}

// EnsureIndex creates the index with its mapping when it does not exist.
func (n *NewsIndexer) EnsureIndex(ctx context.Context) error {
	res, err := n.client.Indices.Exists([]string{n.index}, n.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index %s: %w", n.index, err)
	}
	res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = n.client.Indices.Create(n.index,
		n.client.Indices.Create.WithContext(ctx),
		n.client.Indices.Create.WithBody(strings.NewReader(newsMapping)),
	)
	if err != nil {
		return fmt.Errorf("create index %s: %w", n.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("create index %s: %s", n.index, res.String())
	}

	n.logger.Info("Created news index", logger.String("index", n.index))
	return nil
}

// DocumentID derives a stable id from the news uid so re-collected items
// overwrite instead of duplicating.
func DocumentID(uid string) string {
	sum := sha256.Sum256([]byte(uid))
	return hex.EncodeToString(sum[:])
}

// IndexRows bulk-indexes rows. Item failures are counted and reported as
// ErrBulkFailures.
func (n *NewsIndexer) IndexRows(ctx context.Context, rows []domain.NewsRow) error {
	if len(rows) == 0 {
		return nil
	}

	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	indexedAt := n.now().UTC()

	for _, r := range rows {
		meta := map[string]any{"index": map[string]any{"_index": n.index, "_id": DocumentID(r.UID)}}
		if err := enc.Encode(meta); err != nil {
			return fmt.Errorf("encode bulk meta: %w", err)
		}
		if err := enc.Encode(toDocument(r, indexedAt)); err != nil {
			return fmt.Errorf("encode bulk document: %w", err)
		}
	}

	res, err := n.client.Bulk(&body, n.client.Bulk.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("bulk index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("bulk index: %s", res.String())
	}

	var result struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			Status int `json:"status"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode bulk response: %w", err)
	}

	if result.Errors {
		failed := 0
		for _, item := range result.Items {
			for _, op := range item {
				if op.Status >= http.StatusBadRequest {
					failed++
				}
			}
		}
		return fmt.Errorf("%w: %d of %d", ErrBulkFailures, failed, len(rows))
	}

	n.logger.Debug("Indexed news rows",
		logger.String("index", n.index),
		logger.Int("count", len(rows)),
	)
	return nil
}

func toDocument(r domain.NewsRow, indexedAt time.Time) NewsDocument {
	return NewsDocument{
		Company:         r.Company,
		Title:           r.Title,
		Description:     r.Description,
		Press:           r.Press,
		PubDate:         r.PubDate,
		OriginalLink:    r.OriginalLink,
		Link:            r.Link,
		KeywordCategory: r.Category,
		KeywordScore:    r.Score,
		MatchedKeywords: r.MatchedKeywords,
		MarketCategory:  r.MarketCategory,
		MarketReason:    string(r.MarketReason),
		IndexedAt:       indexedAt,
	}
}
