package api

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/north-cloud/market-classifier/internal/domain"
	"github.com/jonesrussell/north-cloud/market-classifier/internal/logger"
	"github.com/jonesrussell/north-cloud/market-classifier/internal/news"
	"github.com/jonesrussell/north-cloud/market-classifier/internal/processor"
	"github.com/jonesrussell/north-cloud/market-classifier/internal/workbook"
)

// MarketClassifier is the category engine.
type MarketClassifier interface {
	Classify(in domain.ClassificationInput) domain.ClassificationResult
	SimulateBatch(texts []string, sourceHint string) []domain.SimulationRow
	Locale() domain.Locale
}

// BatchProcessor classifies many inputs concurrently.
type BatchProcessor interface {
	Process(ctx context.Context, inputs []domain.ClassificationInput) ([]processor.ProcessResult, error)
}

// WorkbookFiller fills an uploaded workbook.
type WorkbookFiller interface {
	FillReader(ctx context.Context, r io.Reader, w io.Writer) (*workbook.FillReport, error)
}

// NewsCollector runs news collections and serves their reports.
type NewsCollector interface {
	Collect(ctx context.Context, req news.Request) (*news.Result, error)
	Download(ctx context.Context, jobID string) ([]byte, string, error)
}

// RuleStore persists keyword rules.
type RuleStore interface {
	List(ctx context.Context, enabledOnly bool) ([]domain.KeywordRule, error)
	Create(ctx context.Context, rule *domain.KeywordRule) error
	Delete(ctx context.Context, id int) error
}

// RuleReloader swaps the active keyword rule set.
type RuleReloader interface {
	Reload(rules []domain.KeywordRule)
}

// HistoryStore reads classification history.
type HistoryStore interface {
	List(ctx context.Context, limit, offset int) ([]domain.ClassificationHistory, error)
	Count(ctx context.Context) (int, error)
	CountByReason(ctx context.Context) ([]domain.ReasonCount, error)
}

// ReportMetrics counts served downloads.
type ReportMetrics interface {
	RecordReportServed()
}

// Handler serves the /api/v1 routes. Optional collaborators that are not
// configured make their routes answer 503.
type Handler struct {
	classifier MarketClassifier
	batch      BatchProcessor
	recorder   processor.Recorder
	filler     WorkbookFiller
	news       NewsCollector
	rules      RuleStore
	reloader   RuleReloader
	history    HistoryStore
	metrics    ReportMetrics
	logger     logger.Logger
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithRecorder records single classifications.
func WithRecorder(r processor.Recorder) HandlerOption {
	return func(h *Handler) {
		h.recorder = r
	}
}

// WithFiller enables POST /workbook/fill.
func WithFiller(f WorkbookFiller) HandlerOption {
	return func(h *Handler) {
		h.filler = f
	}
}

// WithNews enables the news routes.
func WithNews(n NewsCollector) HandlerOption {
	return func(h *Handler) {
		h.news = n
	}
}

// WithRules enables the keyword rule routes. Writes reload r.
func WithRules(s RuleStore, r RuleReloader) HandlerOption {
	return func(h *Handler) {
		h.rules = s
		h.reloader = r
	}
}

// WithHistory enables the history routes.
func WithHistory(s HistoryStore) HandlerOption {
	return func(h *Handler) {
		h.history = s
	}
}

// WithReportMetrics counts report downloads.
func WithReportMetrics(m ReportMetrics) HandlerOption {
	return func(h *Handler) {
		h.metrics = m
	}
}

// NewHandler creates a Handler.
func NewHandler(c MarketClassifier, batch BatchProcessor, log logger.Logger, opts ...HandlerOption) *Handler {
	if log == nil {
		log = logger.NewNop()
	}
	h := &Handler{classifier: c, batch: batch, logger: log}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// log returns the request-scoped logger set by RequestIDLoggerMiddleware,
// falling back to the handler logger.
func (h *Handler) log(c *gin.Context) logger.Logger {
	if _, ok := c.Get(requestIDKey); ok {
		return logger.FromContext(c.Request.Context())
	}
	return h.logger
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "BAD_REQUEST"})
}

func unavailable(c *gin.Context, feature string) {
	c.JSON(http.StatusServiceUnavailable, ErrorResponse{
		Error: feature + " is not configured",
		Code:  "NOT_CONFIGURED",
	})
}

func internalError(c *gin.Context, msg string) {
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: msg, Code: "INTERNAL_ERROR"})
}
