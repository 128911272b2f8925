// Package config loads the market classifier configuration from YAML, .env
// files and environment variables.
package config

import (
	"time"

	"github.com/jonesrussell/north-cloud/market-classifier/internal/logger"
)

const (
	defaultServiceName    = "market-classifier"
	defaultServiceVersion = "1.0.0"
	defaultServicePort    = 8075
	defaultShutdownSec    = 15

	defaultMaxTextLength   = 4000
	defaultEnrichMinLength = 100
	defaultWorkers         = 8
	defaultLabelLocale     = "en"
	defaultGeoMarketGap    = 20
	defaultExplicitLeadGap = 30
	defaultExplicitTrail   = 10
	defaultDomainMarketGap = 15

	defaultWorkbookStartRow  = 5
	defaultWorkbookMaxRows   = 800
	defaultNumberColumn      = "B"
	defaultDescriptionColumn = "E"
	defaultURLColumn         = "F"
	defaultCategoryColumn    = "G"
	defaultReasonColumn      = "H"

	defaultFetchTimeoutSec = 5
	defaultFetchUserAgent  = "Mozilla/5.0"
	defaultFetchMaxChars   = 4000

	defaultNaverEndpoint      = "https://openapi.naver.com/v1/search/news.json"
	defaultNaverTimeoutSec    = 12
	defaultNaverMaxRetries    = 3
	defaultNaverMinIntervalMS = 120
	defaultNaverBackoffMS     = 250
	defaultNaverDays          = 30
	defaultNaverDisplay       = 100

	defaultNewsMaxPerCompany = 200
	defaultNewsMinPerCompany = 10
	defaultNewsCapPerCompany = 500
	defaultNewsReportTTLMin  = 30
	defaultNewsConcurrency   = 2

	defaultDBHost         = "localhost"
	defaultDBPort         = 5432
	defaultDBUser         = "postgres"
	defaultDBName         = "market_classifier"
	defaultDBSSLMode      = "disable"
	defaultDBMaxConns     = 10
	defaultDBMaxIdleConns = 2

	defaultRedisURL       = "localhost:6379"
	defaultRedisKeyPrefix = "news_xlsx:"

	defaultESURL        = "http://localhost:9200"
	defaultESIndex      = "market_news"
	defaultESMaxRetries = 3

	defaultLogLevel  = "info"
	defaultLogFormat = "json"
)

// defaultSheets are the monthly working-file sheets; the sheet name doubles as
// the source hint handed to the classifier.
var defaultSheets = []string{"CP", "IDC", "OmdiaTV", "DSCC"}

var defaultDisplaySources = []string{"OmdiaTV", "DSCC"}

// Config holds all configuration for the market classifier.
type Config struct {
	Service        ServiceConfig        `yaml:"service"`
	Logging        logger.Config        `yaml:"logging"`
	Classification ClassificationConfig `yaml:"classification"`
	Workbook       WorkbookConfig       `yaml:"workbook"`
	Fetcher        FetcherConfig        `yaml:"fetcher"`
	Naver          NaverConfig          `yaml:"naver"`
	News           NewsConfig           `yaml:"news"`
	Database       DatabaseConfig       `yaml:"database"`
	Redis          RedisConfig          `yaml:"redis"`
	Elasticsearch  ElasticsearchConfig  `yaml:"elasticsearch"`
	Auth           AuthConfig           `yaml:"auth"`
}

// ServiceConfig holds HTTP service settings.
type ServiceConfig struct {
	Name            string        `yaml:"name"`
	Version         string        `yaml:"version"`
	Port            int           `env:"MARKET_CLASSIFIER_PORT" yaml:"port"`
	Debug           bool          `env:"APP_DEBUG"              yaml:"debug"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORSOrigins     []string      `env:"CORS_ORIGINS"           yaml:"cors_origins"`
}

// ClassificationConfig tunes the category engine.
type ClassificationConfig struct {
	// ForceDisplay enables the pre-filter that maps any TV/OLED/LCD/monitor
	// mention straight to Display.
	ForceDisplay    bool      `env:"CLASSIFIER_FORCE_DISPLAY" yaml:"force_display"`
	DisplaySources  []string  `yaml:"display_sources"`
	LabelLocale     string    `env:"CLASSIFIER_LABEL_LOCALE"  yaml:"label_locale"`
	MaxTextLength   int       `yaml:"max_text_length"`
	EnrichMinLength int       `yaml:"enrich_min_length"`
	Workers         int       `env:"CLASSIFIER_WORKERS"       yaml:"workers"`
	RecordHistory   bool      `env:"CLASSIFIER_HISTORY"       yaml:"record_history"`
	Gaps            GapConfig `yaml:"gaps"`
}

// GapConfig holds the bounded character distances used by proximity patterns.
type GapConfig struct {
	GeoMarket     int `yaml:"geo_market"`
	ExplicitLead  int `yaml:"explicit_lead"`
	ExplicitTrail int `yaml:"explicit_trail"`
	DomainMarket  int `yaml:"domain_market"`
}

// WorkbookConfig describes where the filler reads and writes cells.
type WorkbookConfig struct {
	Sheets            []string `yaml:"sheets"`
	StartRow          int      `yaml:"start_row"`
	MaxRows           int      `yaml:"max_rows"`
	NumberColumn      string   `yaml:"number_column"`
	DescriptionColumn string   `yaml:"description_column"`
	URLColumn         string   `yaml:"url_column"`
	CategoryColumn    string   `yaml:"category_column"`
	ReasonColumn      string   `yaml:"reason_column"`
	FetchArticles     bool     `env:"WORKBOOK_FETCH_ARTICLES" yaml:"fetch_articles"`

	// Tracking adds a category summary sheet with a pie chart.
	Tracking bool `env:"WORKBOOK_TRACKING" yaml:"tracking"`
}

// FetcherConfig holds article fetch settings.
type FetcherConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
	MaxChars  int           `yaml:"max_chars"`
}

// NaverConfig holds Naver news search API settings.
type NaverConfig struct {
	ClientID     string        `env:"NAVER_CLIENT_ID"     yaml:"client_id"`
	ClientSecret string        `env:"NAVER_CLIENT_SECRET" yaml:"client_secret"`
	Endpoint     string        `yaml:"endpoint"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxRetries   int           `yaml:"max_retries"`
	MinInterval  time.Duration `yaml:"min_interval"`
	Backoff      time.Duration `yaml:"backoff"`
	Days         int           `yaml:"days"`
	Display      int           `yaml:"display"`
}

// NewsConfig holds news collection settings.
type NewsConfig struct {
	DefaultMaxPerCompany int           `yaml:"default_max_per_company"`
	MinPerCompany        int           `yaml:"min_per_company"`
	MaxPerCompany        int           `yaml:"max_per_company"`
	ReportTTL            time.Duration `yaml:"report_ttl"`
	Concurrency          int           `yaml:"concurrency"`
	IndexResults         bool          `env:"NEWS_INDEX_RESULTS" yaml:"index_results"`
}

// DatabaseConfig holds Postgres settings. Persistence is optional.
type DatabaseConfig struct {
	Enabled         bool          `env:"POSTGRES_ENABLED"  yaml:"enabled"`
	Host            string        `env:"POSTGRES_HOST"     yaml:"host"`
	Port            int           `env:"POSTGRES_PORT"     yaml:"port"`
	User            string        `env:"POSTGRES_USER"     yaml:"user"`
	Password        string        `env:"POSTGRES_PASSWORD" yaml:"password"`
	Database        string        `env:"POSTGRES_DB"       yaml:"database"`
	SSLMode         string        `env:"POSTGRES_SSLMODE"  yaml:"sslmode"`
	MaxConnections  int           `yaml:"max_connections"`
	MaxIdleConns    int           `yaml:"max_idle_connections"`
	ConnMaxLifetime time.Duration `yaml:"connection_max_lifetime"`
}

// RedisConfig holds report cache settings. When disabled an in-process cache
// is used instead.
type RedisConfig struct {
	Enabled   bool   `env:"REDIS_ENABLED"  yaml:"enabled"`
	URL       string `env:"REDIS_URL"      yaml:"url"`
	Password  string `env:"REDIS_PASSWORD" yaml:"password"`
	Database  int    `yaml:"database"`
	KeyPrefix string `yaml:"key_prefix"`
}

// ElasticsearchConfig holds news index settings.
type ElasticsearchConfig struct {
	Enabled    bool   `env:"ELASTICSEARCH_ENABLED" yaml:"enabled"`
	URL        string `env:"ELASTICSEARCH_URL"     yaml:"url"`
	Username   string `yaml:"username"`
	Password   string `env:"ELASTICSEARCH_PASSWORD" yaml:"password"`
	Index      string `yaml:"index"`
	MaxRetries int    `yaml:"max_retries"`
}

// AuthConfig holds API authentication settings. An empty secret disables auth.
type AuthConfig struct {
	JWTSecret string `env:"AUTH_JWT_SECRET" yaml:"jwt_secret"`
}

// Load loads configuration from path, falling back to defaults.
func Load(path string) (*Config, error) {
	return LoadWithDefaults[Config](path, setDefaults)
}

// Default returns a configuration with every default applied and no file or
// environment input. Tests and the offline CLI paths use it.
func Default() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	return cfg
}

func setDefaults(cfg *Config) {
	setServiceDefaults(&cfg.Service)
	setLoggingDefaults(&cfg.Logging)
	setClassificationDefaults(&cfg.Classification)
	setWorkbookDefaults(&cfg.Workbook)
	setFetcherDefaults(&cfg.Fetcher)
	setNaverDefaults(&cfg.Naver)
	setNewsDefaults(&cfg.News)
	setDatabaseDefaults(&cfg.Database)
	setRedisDefaults(&cfg.Redis)
	setElasticsearchDefaults(&cfg.Elasticsearch)
}

func setServiceDefaults(s *ServiceConfig) {
	if s.Name == "" {
		s.Name = defaultServiceName
	}
	if s.Version == "" {
		s.Version = defaultServiceVersion
	}
	if s.Port == 0 {
		s.Port = defaultServicePort
	}
	if s.ShutdownTimeout == 0 {
		s.ShutdownTimeout = defaultShutdownSec * time.Second
	}
}

func setLoggingDefaults(l *logger.Config) {
	if l.Level == "" {
		l.Level = defaultLogLevel
	}
	if l.Format == "" {
		l.Format = defaultLogFormat
	}
}

func setClassificationDefaults(c *ClassificationConfig) {
	if len(c.DisplaySources) == 0 {
		c.DisplaySources = append([]string(nil), defaultDisplaySources...)
	}
	if c.LabelLocale == "" {
		c.LabelLocale = defaultLabelLocale
	}
	if c.MaxTextLength == 0 {
		c.MaxTextLength = defaultMaxTextLength
	}
	if c.EnrichMinLength == 0 {
		c.EnrichMinLength = defaultEnrichMinLength
	}
	if c.Workers == 0 {
		c.Workers = defaultWorkers
	}
	if c.Gaps.GeoMarket == 0 {
		c.Gaps.GeoMarket = defaultGeoMarketGap
	}
	if c.Gaps.ExplicitLead == 0 {
		c.Gaps.ExplicitLead = defaultExplicitLeadGap
	}
	if c.Gaps.ExplicitTrail == 0 {
		c.Gaps.ExplicitTrail = defaultExplicitTrail
	}
	if c.Gaps.DomainMarket == 0 {
		c.Gaps.DomainMarket = defaultDomainMarketGap
	}
}

func setWorkbookDefaults(w *WorkbookConfig) {
	if len(w.Sheets) == 0 {
		w.Sheets = append([]string(nil), defaultSheets...)
	}
	if w.StartRow == 0 {
		w.StartRow = defaultWorkbookStartRow
	}
	if w.MaxRows == 0 {
		w.MaxRows = defaultWorkbookMaxRows
	}
	if w.NumberColumn == "" {
		w.NumberColumn = defaultNumberColumn
	}
	if w.DescriptionColumn == "" {
		w.DescriptionColumn = defaultDescriptionColumn
	}
	if w.URLColumn == "" {
		w.URLColumn = defaultURLColumn
	}
	if w.CategoryColumn == "" {
		w.CategoryColumn = defaultCategoryColumn
	}
	if w.ReasonColumn == "" {
		w.ReasonColumn = defaultReasonColumn
	}
}

func setFetcherDefaults(f *FetcherConfig) {
	if f.Timeout == 0 {
		f.Timeout = defaultFetchTimeoutSec * time.Second
	}
	if f.UserAgent == "" {
		f.UserAgent = defaultFetchUserAgent
	}
	if f.MaxChars == 0 {
		f.MaxChars = defaultFetchMaxChars
	}
}

func setNaverDefaults(n *NaverConfig) {
	if n.Endpoint == "" {
		n.Endpoint = defaultNaverEndpoint
	}
	if n.Timeout == 0 {
		n.Timeout = defaultNaverTimeoutSec * time.Second
	}
	if n.MaxRetries == 0 {
		n.MaxRetries = defaultNaverMaxRetries
	}
	if n.MinInterval == 0 {
		n.MinInterval = defaultNaverMinIntervalMS * time.Millisecond
	}
	if n.Backoff == 0 {
		n.Backoff = defaultNaverBackoffMS * time.Millisecond
	}
	if n.Days == 0 {
		n.Days = defaultNaverDays
	}
	if n.Display == 0 {
		n.Display = defaultNaverDisplay
	}
}

func setNewsDefaults(n *NewsConfig) {
	if n.DefaultMaxPerCompany == 0 {
		n.DefaultMaxPerCompany = defaultNewsMaxPerCompany
	}
	if n.MinPerCompany == 0 {
		n.MinPerCompany = defaultNewsMinPerCompany
	}
	if n.MaxPerCompany == 0 {
		n.MaxPerCompany = defaultNewsCapPerCompany
	}
	if n.ReportTTL == 0 {
		n.ReportTTL = defaultNewsReportTTLMin * time.Minute
	}
	if n.Concurrency == 0 {
		n.Concurrency = defaultNewsConcurrency
	}
}

func setDatabaseDefaults(d *DatabaseConfig) {
	if d.Host == "" {
		d.Host = defaultDBHost
	}
	if d.Port == 0 {
		d.Port = defaultDBPort
	}
	if d.User == "" {
		d.User = defaultDBUser
	}
	if d.Database == "" {
		d.Database = defaultDBName
	}
	if d.SSLMode == "" {
		d.SSLMode = defaultDBSSLMode
	}
	if d.MaxConnections == 0 {
		d.MaxConnections = defaultDBMaxConns
	}
	if d.MaxIdleConns == 0 {
		d.MaxIdleConns = defaultDBMaxIdleConns
	}
	if d.ConnMaxLifetime == 0 {
		d.ConnMaxLifetime = time.Hour
	}
}

func setRedisDefaults(r *RedisConfig) {
	if r.URL == "" {
		r.URL = defaultRedisURL
	}
	if r.KeyPrefix == "" {
		r.KeyPrefix = defaultRedisKeyPrefix
	}
}

func setElasticsearchDefaults(e *ElasticsearchConfig) {
	if e.URL == "" {
		e.URL = defaultESURL
	}
	if e.Index == "" {
		e.Index = defaultESIndex
	}
	if e.MaxRetries == 0 {
		e.MaxRetries = defaultESMaxRetries
	}
}
