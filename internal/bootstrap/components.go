package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/north-cloud/market-classifier/internal/api"
	"github.com/jonesrussell/north-cloud/market-classifier/internal/classifier"
	"github.com/jonesrussell/north-cloud/market-classifier/internal/config"
	"github.com/jonesrussell/north-cloud/market-classifier/internal/database"
	"github.com/jonesrussell/north-cloud/market-classifier/internal/domain"
	"github.com/jonesrussell/north-cloud/market-classifier/internal/fetcher"
	"github.com/jonesrussell/north-cloud/market-classifier/internal/logger"
	"github.com/jonesrussell/north-cloud/market-classifier/internal/naver"
	"github.com/jonesrussell/north-cloud/market-classifier/internal/news"
	"github.com/jonesrussell/north-cloud/market-classifier/internal/processor"
	"github.com/jonesrussell/north-cloud/market-classifier/internal/reportcache"
	"github.com/jonesrussell/north-cloud/market-classifier/internal/storage"
	"github.com/jonesrussell/north-cloud/market-classifier/internal/telemetry"
	"github.com/jonesrussell/north-cloud/market-classifier/internal/workbook"
)

// ErrNewsUnavailable is returned by NewsCollector when no search credentials
// are configured.
var ErrNewsUnavailable = errors.New("news collection requires naver.client_id and naver.client_secret")

// Components holds every wired service part. Optional backends are nil when
// disabled.
type Components struct {
	Config    *config.Config
	Logger    logger.Logger
	Telemetry *telemetry.Provider

	Classifier *classifier.Classifier
	Keywords   *classifier.KeywordClassifier
	Batch      *processor.BatchProcessor
	Filler     *workbook.Filler
	Collector  *news.Collector

	DB      *sqlx.DB
	History *database.HistoryRepository
	Rules   *database.KeywordRuleRepository
	Redis   *redis.Client
	Indexer *storage.NewsIndexer
}

// Options select which optional backends New may connect to. The offline CLI
// commands turn them all off.
type Options struct {
	Database      bool
	Redis         bool
	Elasticsearch bool
	News          bool
}

// AllBackends enables every backend that the configuration enables.
func AllBackends() Options {
	return Options{Database: true, Redis: true, Elasticsearch: true, News: true}
}

// New wires the components. Backends that fail to connect are fatal; a
// backend that is disabled in config is skipped.
func New(ctx context.Context, cfg *config.Config, log logger.Logger, opts Options) (*Components, error) {
	c := &Components{Config: cfg, Logger: log, Telemetry: telemetry.NewProvider()}

	if err := c.setupEngines(); err != nil {
		return nil, err
	}
	if opts.Database && cfg.Database.Enabled {
		if err := c.setupDatabase(ctx); err != nil {
			return nil, err
		}
	}
	c.setupBatch()
	if err := c.setupFiller(); err != nil {
		c.Close()
		return nil, err
	}
	if opts.News {
		if err := c.setupNews(ctx, opts); err != nil {
			c.Close()
			return nil, err
		}
	}

	return c, nil
}

func (c *Components) setupEngines() error {
	cc := c.Config.Classification
	engine, err := classifier.New(classifier.Config{
		ForceDisplay:   cc.ForceDisplay,
		DisplaySources: cc.DisplaySources,
		MaxTextLength:  cc.MaxTextLength,
		Locale:         domain.ParseLocale(cc.LabelLocale),
		Gaps: classifier.Gaps{
			GeoMarket:     cc.Gaps.GeoMarket,
			ExplicitLead:  cc.Gaps.ExplicitLead,
			ExplicitTrail: cc.Gaps.ExplicitTrail,
			DomainMarket:  cc.Gaps.DomainMarket,
		},
	}, c.Logger, classifier.WithObserver(c.Telemetry))
	if err != nil {
		return fmt.Errorf("create classifier: %w", err)
	}
	c.Classifier = engine
	c.Keywords = classifier.NewKeywordClassifier(classifier.DefaultKeywordRules(), c.Logger)
	return nil
}

func (c *Components) setupDatabase(ctx context.Context) error {
	d := c.Config.Database
	db, err := database.NewPostgresConnection(ctx, database.Config{
		Host:            d.Host,
		Port:            d.Port,
		User:            d.User,
		Password:        d.Password,
		DBName:          d.Database,
		SSLMode:         d.SSLMode,
		MaxOpenConns:    d.MaxConnections,
		MaxIdleConns:    d.MaxIdleConns,
		ConnMaxLifetime: d.ConnMaxLifetime,
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if err := database.Migrate(ctx, db, c.Logger); err != nil {
		_ = db.Close()
		return fmt.Errorf("migrate database: %w", err)
	}

	c.DB = db
	c.History = database.NewHistoryRepository(db)
	c.Rules = database.NewKeywordRuleRepository(db)

	if err := api.ReloadRules(ctx, c.Rules, c.Keywords); err != nil {
		c.Logger.Warn("Using built-in keyword rules", logger.Error(err))
	}
	c.Logger.Info("Database connected",
		logger.String("host", d.Host),
		logger.String("database", d.Database),
	)
	return nil
}

// recorder returns the history recorder when history recording is on.
func (c *Components) recorder() processor.Recorder {
	if c.History == nil || !c.Config.Classification.RecordHistory {
		return nil
	}
	return c.History
}

func (c *Components) setupBatch() {
	opts := []processor.Option{processor.WithMetrics(c.Telemetry)}
	if r := c.recorder(); r != nil {
		opts = append(opts, processor.WithRecorder(r))
	}
	c.Batch = processor.NewBatchProcessor(c.Classifier, c.Config.Classification.Workers, c.Logger, opts...)
}

func (c *Components) setupFiller() error {
	w := c.Config.Workbook
	opts := []workbook.FillerOption{workbook.WithFillMetrics(c.Telemetry)}
	if w.FetchArticles {
		f := c.Config.Fetcher
		opts = append(opts, workbook.WithFetcher(fetcher.New(fetcher.Config{
			Timeout:   f.Timeout,
			UserAgent: f.UserAgent,
			MaxChars:  f.MaxChars,
		}, c.Logger, c.Telemetry)))
	}

	filler, err := workbook.NewFiller(workbook.FillerConfig{
		Layout: workbook.Layout{
			StartRow:          w.StartRow,
			LastRow:           w.MaxRows,
			NumberColumn:      w.NumberColumn,
			DescriptionColumn: w.DescriptionColumn,
			URLColumn:         w.URLColumn,
			CategoryColumn:    w.CategoryColumn,
			ReasonColumn:      w.ReasonColumn,
		},
		Sheets:          w.Sheets,
		EnrichMinLength: c.Config.Classification.EnrichMinLength,
		FetchArticles:   w.FetchArticles,
		Locale:          c.Classifier.Locale(),
		Tracking:        w.Tracking,
	}, c.Batch, c.Logger, opts...)
	if err != nil {
		return fmt.Errorf("create workbook filler: %w", err)
	}
	c.Filler = filler
	return nil
}

func (c *Components) setupNews(ctx context.Context, opts Options) error {
	n := c.Config.Naver
	client, err := naver.NewClient(naver.Config{
		ClientID:     n.ClientID,
		ClientSecret: n.ClientSecret,
		Endpoint:     n.Endpoint,
		Timeout:      n.Timeout,
		MaxRetries:   n.MaxRetries,
		Backoff:      n.Backoff,
	}, c.Logger,
		naver.WithLimiter(processor.NewRateLimiter(n.MinInterval, 1, c.Logger)),
		naver.WithMetrics(c.Telemetry),
	)
	if errors.Is(err, naver.ErrMissingCredentials) {
		c.Logger.Warn("News collection disabled: no search credentials")
		return nil
	}
	if err != nil {
		return fmt.Errorf("create news client: %w", err)
	}

	store, err := c.reportStore(ctx, opts.Redis)
	if err != nil {
		return err
	}

	collectorOpts := []news.Option{news.WithMetrics(c.Telemetry)}
	if r := c.recorder(); r != nil {
		collectorOpts = append(collectorOpts, news.WithRecorder(r))
	}
	if opts.Elasticsearch && c.Config.Elasticsearch.Enabled && c.Config.News.IndexResults {
		indexer, indexErr := c.newsIndexer(ctx)
		if indexErr != nil {
			return indexErr
		}
		collectorOpts = append(collectorOpts, news.WithIndexer(indexer))
	}

	nc := c.Config.News
	c.Collector = news.NewCollector(news.Config{
		DefaultMaxPerCompany: nc.DefaultMaxPerCompany,
		MinPerCompany:        nc.MinPerCompany,
		MaxPerCompany:        nc.MaxPerCompany,
		ReportTTL:            nc.ReportTTL,
		Concurrency:          nc.Concurrency,
		SearchDays:           n.Days,
		PageSize:             n.Display,
	}, client, c.Keywords, c.Classifier, store, c.Logger, collectorOpts...)
	return nil
}

func (c *Components) reportStore(ctx context.Context, useRedis bool) (reportcache.Store, error) {
	r := c.Config.Redis
	if !useRedis || !r.Enabled {
		return reportcache.NewMemoryStore(), nil
	}

	client, err := reportcache.NewRedisClient(ctx, reportcache.RedisConfig{
		Address:  r.URL,
		Password: r.Password,
		DB:       r.Database,
	})
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	c.Redis = client
	c.Logger.Info("Report cache on redis", logger.String("address", r.URL))
	return reportcache.NewRedisStore(client, r.KeyPrefix), nil
}

func (c *Components) newsIndexer(ctx context.Context) (*storage.NewsIndexer, error) {
	e := c.Config.Elasticsearch
	client, err := storage.NewClient(ctx, storage.Config{
		URL:        e.URL,
		Username:   e.Username,
		Password:   e.Password,
		Index:      e.Index,
		MaxRetries: e.MaxRetries,
	}, c.Logger)
	if err != nil {
		return nil, fmt.Errorf("connect elasticsearch: %w", err)
	}

	indexer := storage.NewNewsIndexer(client, e.Index, c.Logger)
	if err := indexer.EnsureIndex(ctx); err != nil {
		return nil, fmt.Errorf("ensure news index: %w", err)
	}
	c.Indexer = indexer
	return indexer, nil
}

// NewsCollector returns the collector or ErrNewsUnavailable.
func (c *Components) NewsCollector() (*news.Collector, error) {
	if c.Collector == nil {
		return nil, ErrNewsUnavailable
	}
	return c.Collector, nil
}

// Close releases backend connections.
func (c *Components) Close() {
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			c.Logger.Warn("Failed to close database", logger.Error(err))
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.Logger.Warn("Failed to close redis", logger.Error(err))
		}
	}
}
