// Package news collects company news from the search API, classifies every
// article twice (keyword report category and market category) and turns the
// result into a downloadable report.
package news

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/jonesrussell/north-cloud/market-classifier/internal/domain"
	"github.com/jonesrussell/north-cloud/market-classifier/internal/logger"
	"github.com/jonesrussell/north-cloud/market-classifier/internal/naver"
	"github.com/jonesrussell/north-cloud/market-classifier/internal/reportcache"
	"github.com/jonesrussell/north-cloud/market-classifier/internal/workbook"
)

// Collection limits.
const (
	DefaultMaxPerCompany = 200
	MinPerCompany        = 10
	MaxPerCompany        = 500
	DefaultReportTTL     = 30 * time.Minute
	DefaultConcurrency   = 2
	DefaultSearchDays    = 30

	// Source is the keyword-rule scope name for collected news.
	Source = "naver"

	dateLayout     = "2006-01-02"
	filenameLayout = "20060102_1504"
	jobIDLength    = 12
	tracerName     = "market-classifier"
)

var (
	// ErrNoCompanies is returned when the company list is blank.
	ErrNoCompanies = errors.New("at least one company is required")
	// ErrInvalidDate is returned for dates not in YYYY-MM-DD form.
	ErrInvalidDate = errors.New("dates must be YYYY-MM-DD")
	// ErrInvalidPeriod is returned when start is after end.
	ErrInvalidPeriod = errors.New("start date must not be after end date")
)

var jobIDPattern = regexp.MustCompile(`^[0-9a-f]{12}$`)

// Searcher finds news for one company.
type Searcher interface {
	SearchNews(ctx context.Context, company, query string, opts naver.SearchOptions) ([]domain.NewsItem, error)
}

// KeywordScorer assigns the report category.
type KeywordScorer interface {
	Classify(title, description, source string) domain.KeywordResult
}

// MarketClassifier assigns the market category.
type MarketClassifier interface {
	Classify(in domain.ClassificationInput) domain.ClassificationResult
	Locale() domain.Locale
}

// Indexer stores collected rows for search.
type Indexer interface {
	IndexRows(ctx context.Context, rows []domain.NewsRow) error
}

// Recorder persists market classifications.
type Recorder interface {
	Record(ctx context.Context, in domain.ClassificationInput, res domain.ClassificationResult) error
}

// Metrics counts collected items.
type Metrics interface {
	RecordNewsItems(company string, n int)
}

// Config tunes collection.
type Config struct {
	DefaultMaxPerCompany int
	MinPerCompany        int
	MaxPerCompany        int
	ReportTTL            time.Duration
	Concurrency          int
	SearchDays           int

	// PageSize is the number of results requested per search call.
	PageSize int
}

func (c *Config) setDefaults() {
	if c.DefaultMaxPerCompany <= 0 {
		c.DefaultMaxPerCompany = DefaultMaxPerCompany
	}
	if c.MinPerCompany <= 0 {
		c.MinPerCompany = MinPerCompany
	}
	if c.MaxPerCompany <= 0 {
		c.MaxPerCompany = MaxPerCompany
	}
	if c.ReportTTL <= 0 {
		c.ReportTTL = DefaultReportTTL
	}
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.SearchDays <= 0 {
		c.SearchDays = DefaultSearchDays
	}
	if c.PageSize <= 0 || c.PageSize > naver.MaxDisplay {
		c.PageSize = naver.MaxDisplay
	}
}

// Request is one collection job.
type Request struct {
	Companies     string `form:"companies"       json:"companies"`
	StartDate     string `form:"start_date"      json:"start_date"`
	EndDate       string `form:"end_date"        json:"end_date"`
	MaxPerCompany int    `form:"max_per_company" json:"max_per_company"`
}

// Meta echoes the request in the stats.
type Meta struct {
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
	Companies []string `json:"companies"`
	TotalRows int      `json:"total_rows"`
}

// Stats summarizes a collection.
type Stats struct {
	CompanyTotal    map[string]int            `json:"company_total"`
	CompanyCategory map[string]map[string]int `json:"company_category"`
	Meta            Meta                      `json:"meta"`
}

// Result is a finished collection.
type Result struct {
	JobID string
	Stats Stats
	Rows  []domain.NewsRow
}

// Collector runs collections.
type Collector struct {
	cfg      Config
	searcher Searcher
	keywords KeywordScorer
	market   MarketClassifier
	store    reportcache.Store
	indexer  Indexer
	recorder Recorder
	metrics  Metrics
	logger   logger.Logger
	tracer   trace.Tracer
	now      func() time.Time
}

// Option configures a Collector.
type Option func(*Collector)

// WithIndexer indexes rows after each collection.
func WithIndexer(i Indexer) Option {
	return func(c *Collector) {
		c.indexer = i
	}
}

// WithRecorder records every market classification.
func WithRecorder(r Recorder) Option {
	return func(c *Collector) {
		c.recorder = r
	}
}

// WithMetrics attaches item counters.
func WithMetrics(m Metrics) Option {
	return func(c *Collector) {
		c.metrics = m
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Collector) {
		c.now = now
	}
}

// NewCollector creates a Collector.
func NewCollector(
	cfg Config,
	searcher Searcher,
	keywords KeywordScorer,
	market MarketClassifier,
	store reportcache.Store,
	log logger.Logger,
	opts ...Option,
) *Collector {
	cfg.setDefaults()
	if log == nil {
		log = logger.NewNop()
	}

	c := &Collector{
		cfg:      cfg,
		searcher: searcher,
		keywords: keywords,
		market:   market,
		store:    store,
		logger:   log,
		tracer:   otel.Tracer(tracerName),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ParseCompanies splits on commas and newlines, trims, and drops blanks and
// repeats while keeping order.
func ParseCompanies(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r'
	})

	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		name := strings.TrimSpace(f)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// ParsePeriod returns [start 00:00:00, end 23:59:59] in UTC.
func ParsePeriod(startRaw, endRaw string) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(dateLayout, strings.TrimSpace(startRaw), time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start %q", ErrInvalidDate, startRaw)
	}
	end, err := time.ParseInLocation(dateLayout, strings.TrimSpace(endRaw), time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end %q", ErrInvalidDate, endRaw)
	}
	end = end.Add(24*time.Hour - time.Second)

	if start.After(end) {
		return time.Time{}, time.Time{}, ErrInvalidPeriod
	}
	return start, end, nil
}

// ClampMaxPerCompany applies the default and the configured bounds.
func (c *Collector) ClampMaxPerCompany(n int) int {
	if n <= 0 {
		n = c.cfg.DefaultMaxPerCompany
	}
	return min(max(n, c.cfg.MinPerCompany), c.cfg.MaxPerCompany)
}

// Collect searches every company, filters to the period, classifies, builds
// the report and stores it under a new job id.
func (c *Collector) Collect(ctx context.Context, req Request) (*Result, error) {
	companies := ParseCompanies(req.Companies)
	if len(companies) == 0 {
		return nil, ErrNoCompanies
	}
	start, end, err := ParsePeriod(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	maxItems := c.ClampMaxPerCompany(req.MaxPerCompany)

	ctx, span := c.tracer.Start(ctx, "news.collect", trace.WithAttributes(
		attribute.Int("companies", len(companies)),
		attribute.Int("max_per_company", maxItems),
	))
	defer span.End()

	perCompany, err := c.search(ctx, companies, start, maxItems)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	rows, stats := c.classify(ctx, companies, perCompany, start, end)
	stats.Meta = Meta{
		StartDate: strings.TrimSpace(req.StartDate),
		EndDate:   strings.TrimSpace(req.EndDate),
		Companies: companies,
		TotalRows: len(rows),
	}

	data, err := workbook.BuildNewsReport(rows)
	if err != nil {
		return nil, fmt.Errorf("build report: %w", err)
	}

	jobID := NewJobID()
	if err := c.store.Put(ctx, jobID, reportcache.Report{Data: data, CreatedAt: c.now().UTC()}, c.cfg.ReportTTL); err != nil {
		return nil, fmt.Errorf("store report: %w", err)
	}

	if c.indexer != nil {
		if err := c.indexer.IndexRows(ctx, rows); err != nil {
			c.logger.Warn("Failed to index collected news", logger.String("job_id", jobID), logger.Error(err))
		}
	}

	span.SetAttributes(attribute.Int("rows", len(rows)), attribute.String("job_id", jobID))
	c.logger.Info("News collection complete",
		logger.String("job_id", jobID),
		logger.Int("companies", len(companies)),
		logger.Int("rows", len(rows)),
	)

	return &Result{JobID: jobID, Stats: stats, Rows: rows}, nil
}

// search fans out one search per company, bounded by Concurrency.
func (c *Collector) search(ctx context.Context, companies []string, start time.Time, maxItems int) ([][]domain.NewsItem, error) {
	days := max(c.cfg.SearchDays, int(c.now().Sub(start).Hours()/24)+1)
	perCompany := make([][]domain.NewsItem, len(companies))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Concurrency)
	for i, company := range companies {
		g.Go(func() error {
			items, err := c.searcher.SearchNews(gctx, company, company, naver.SearchOptions{
				Days:     days,
				MaxItems: maxItems,
				Display:  c.cfg.PageSize,
			})
			if err != nil {
				return fmt.Errorf("search %s: %w", company, err)
			}
			perCompany[i] = items
			if c.metrics != nil {
				c.metrics.RecordNewsItems(company, len(items))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return perCompany, nil
}

func (c *Collector) classify(
	ctx context.Context, companies []string, perCompany [][]domain.NewsItem, start, end time.Time,
) ([]domain.NewsRow, Stats) {
	stats := Stats{
		CompanyTotal:    make(map[string]int, len(companies)),
		CompanyCategory: make(map[string]map[string]int, len(companies)),
	}
	var rows []domain.NewsRow
	locale := c.market.Locale()

	for _, items := range perCompany {
		for _, it := range items {
			pub := it.PubDate.UTC()
			if pub.Before(start) || pub.After(end) {
				continue
			}

			kw := c.keywords.Classify(it.Title, it.Description, Source)
			in := domain.ClassificationInput{Text: it.Title + " " + it.Description}
			market := c.market.Classify(in)
			if c.recorder != nil {
				if err := c.recorder.Record(ctx, in, market); err != nil {
					c.logger.Warn("Failed to record classification", logger.Error(err))
				}
			}

			stats.CompanyTotal[it.Company]++
			if stats.CompanyCategory[it.Company] == nil {
				stats.CompanyCategory[it.Company] = map[string]int{}
			}
			stats.CompanyCategory[it.Company][kw.Category]++

			rows = append(rows, domain.NewsRow{
				NewsItem:       it,
				KeywordResult:  kw,
				MarketCategory: market.Category.Label(locale),
				MarketReason:   market.Reason,
			})
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].PubDate.After(rows[j].PubDate)
	})
	if rows == nil {
		rows = []domain.NewsRow{}
	}
	return rows, stats
}

// NewJobID returns 12 lowercase hex characters.
func NewJobID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:jobIDLength]
}

// Download returns a stored report and its attachment file name.
func (c *Collector) Download(ctx context.Context, jobID string) ([]byte, string, error) {
	if !jobIDPattern.MatchString(jobID) {
		return nil, "", reportcache.ErrNotFound
	}
	r, err := c.store.Get(ctx, jobID)
	if err != nil {
		return nil, "", err
	}
	return r.Data, ReportFilename(c.now(), jobID), nil
}

// ReportFilename is naver_news_{yyyymmdd_hhmm}_{job_id}.xlsx.
func ReportFilename(at time.Time, jobID string) string {
	return fmt.Sprintf("naver_news_%s_%s.xlsx", at.Format(filenameLayout), jobID)
}
