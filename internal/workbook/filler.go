package workbook

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/jonesrussell/north-cloud/market-classifier/internal/domain"
	"github.com/jonesrussell/north-cloud/market-classifier/internal/logger"
	"github.com/jonesrussell/north-cloud/market-classifier/internal/processor"
)

// Filler defaults.
const (
	DefaultStartRow         = 5
	DefaultLastRow          = 800
	DefaultEnrichMinLength  = 100
	defaultFetchConcurrency = 4
	tracerName              = "market-classifier"
)

// DefaultSheets are the monthly working-file sheets.
var DefaultSheets = []string{"CP", "IDC", "OmdiaTV", "DSCC"}

// monthSuffix matches the month number appended to a sheet name, as in CP_10.
var monthSuffix = regexp.MustCompile(`^(.+?)[_ -]?\d{1,2}$`)

// BatchClassifier classifies rows on a worker pool.
type BatchClassifier interface {
	Process(ctx context.Context, inputs []domain.ClassificationInput) ([]processor.ProcessResult, error)
}

// ArticleFetcher returns the body text of a page, or "".
type ArticleFetcher interface {
	FetchText(ctx context.Context, url string) string
}

// Metrics counts filled rows.
type Metrics interface {
	RecordWorkbookRows(sheet string, n int)
}

// Layout says where rows live on each sheet.
type Layout struct {
	StartRow int
	// LastRow is the last row inspected, inclusive.
	LastRow           int
	NumberColumn      string
	DescriptionColumn string
	URLColumn         string
	CategoryColumn    string
	ReasonColumn      string
}

// DefaultLayout is B number, E description, F URL, G category, H reason.
func DefaultLayout() Layout {
	return Layout{
		StartRow:          DefaultStartRow,
		LastRow:           DefaultLastRow,
		NumberColumn:      "B",
		DescriptionColumn: "E",
		URLColumn:         "F",
		CategoryColumn:    "G",
		ReasonColumn:      "H",
	}
}

func (l Layout) validate() error {
	for _, col := range []string{l.NumberColumn, l.DescriptionColumn, l.URLColumn, l.CategoryColumn, l.ReasonColumn} {
		if _, err := excelize.ColumnNameToNumber(col); err != nil {
			return fmt.Errorf("invalid column %q: %w", col, err)
		}
	}
	if l.StartRow < 1 || l.LastRow < l.StartRow {
		return fmt.Errorf("invalid row range %d..%d", l.StartRow, l.LastRow)
	}
	return nil
}

// FillerConfig configures a Filler.
type FillerConfig struct {
	Layout          Layout
	Sheets          []string
	EnrichMinLength int
	// FetchArticles enables replacing short descriptions with the article
	// body fetched from the row URL.
	FetchArticles    bool
	FetchConcurrency int
	Locale           domain.Locale
	// Tracking adds a tracking sheet summarizing every filled category.
	Tracking bool
}

// Filler writes a category and reason code next to every row of the
// configured sheets.
type Filler struct {
	cfg     FillerConfig
	batch   BatchClassifier
	fetcher ArticleFetcher
	logger  logger.Logger
	metrics Metrics
	tracer  trace.Tracer
}

// FillerOption configures a Filler.
type FillerOption func(*Filler)

// WithFetcher enables article enrichment.
func WithFetcher(a ArticleFetcher) FillerOption {
	return func(f *Filler) {
		f.fetcher = a
	}
}

// WithFillMetrics attaches row metrics.
func WithFillMetrics(m Metrics) FillerOption {
	return func(f *Filler) {
		f.metrics = m
	}
}

// WithTracer replaces the global tracer.
func WithTracer(t trace.Tracer) FillerOption {
	return func(f *Filler) {
		f.tracer = t
	}
}

// NewFiller validates the layout and returns a Filler.
func NewFiller(cfg FillerConfig, batch BatchClassifier, log logger.Logger, opts ...FillerOption) (*Filler, error) {
	if cfg.Layout == (Layout{}) {
		cfg.Layout = DefaultLayout()
	}
	if err := cfg.Layout.validate(); err != nil {
		return nil, err
	}
	if len(cfg.Sheets) == 0 {
		cfg.Sheets = DefaultSheets
	}
	if cfg.EnrichMinLength <= 0 {
		cfg.EnrichMinLength = DefaultEnrichMinLength
	}
	if cfg.FetchConcurrency <= 0 {
		cfg.FetchConcurrency = defaultFetchConcurrency
	}
	if cfg.Locale == "" {
		cfg.Locale = domain.LocaleEnglish
	}
	if log == nil {
		log = logger.NewNop()
	}

	f := &Filler{
		cfg:    cfg,
		batch:  batch,
		logger: log,
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// SheetReport describes one filled sheet.
type SheetReport struct {
	Sheet      string         `json:"sheet"`
	SourceHint string         `json:"source_hint"`
	Rows       int            `json:"rows"`
	Enriched   int            `json:"enriched"`
	Categories map[string]int `json:"categories"`
}

// FillReport summarizes a fill run.
type FillReport struct {
	Sheets []SheetReport `json:"sheets"`
	Rows   int           `json:"rows"`
}

type row struct {
	number int
	desc   string
	url    string
}

// FillReader reads a workbook from r, fills it and writes the result to w.
func (f *Filler) FillReader(ctx context.Context, r io.Reader, w io.Writer) (*FillReport, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidWorkbook, err)
	}
	defer wb.Close()

	report, err := f.Fill(ctx, wb)
	if err != nil {
		return nil, err
	}
	if err := wb.Write(w); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return report, nil
}

// Fill classifies every row of each configured sheet present in wb. Sheets
// that are absent are skipped; if none is present ErrSheetNotFound is
// returned.
func (f *Filler) Fill(ctx context.Context, wb *excelize.File) (*FillReport, error) {
	ctx, span := f.tracer.Start(ctx, "workbook.fill")
	defer span.End()

	sheets := f.matchSheets(wb.GetSheetList())
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: want one of %s", ErrSheetNotFound, strings.Join(f.cfg.Sheets, ", "))
	}

	report := &FillReport{Sheets: make([]SheetReport, 0, len(sheets))}
	var allCategories []string

	for _, s := range sheets {
		sr, categories, err := f.fillSheet(ctx, wb, s.name, s.hint)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		report.Sheets = append(report.Sheets, sr)
		report.Rows += sr.Rows
		allCategories = append(allCategories, categories...)
	}

	if f.cfg.Tracking {
		if err := WriteTracking(wb, CategorySummary(allCategories), f.cfg.Locale); err != nil {
			return nil, err
		}
	}

	span.SetAttributes(attribute.Int("rows", report.Rows), attribute.Int("sheets", len(report.Sheets)))
	f.logger.Info("Workbook filled",
		logger.Int("sheets", len(report.Sheets)),
		logger.Int("rows", report.Rows),
	)
	return report, nil
}

type sheetMatch struct {
	name string
	hint string
}

// matchSheets maps configured sheet names onto the workbook, accepting a
// trailing month number ("CP_10" for "CP") and keeping configured order.
func (f *Filler) matchSheets(available []string) []sheetMatch {
	var out []sheetMatch
	for _, want := range f.cfg.Sheets {
		for _, name := range available {
			if name == want || SourceHint(name) == want {
				out = append(out, sheetMatch{name: name, hint: want})
				break
			}
		}
	}
	return out
}

// SourceHint derives the classifier source hint from a sheet name by
// dropping a trailing month number.
func SourceHint(sheet string) string {
	if m := monthSuffix.FindStringSubmatch(sheet); m != nil {
		return m[1]
	}
	return sheet
}

func (f *Filler) fillSheet(ctx context.Context, wb *excelize.File, sheet, hint string) (SheetReport, []string, error) {
	rows, err := f.readRows(wb, sheet)
	if err != nil {
		return SheetReport{}, nil, err
	}

	texts, enriched, err := f.enrich(ctx, rows)
	if err != nil {
		return SheetReport{}, nil, err
	}

	inputs := make([]domain.ClassificationInput, len(rows))
	for i := range rows {
		inputs[i] = domain.ClassificationInput{Text: texts[i], SourceHint: hint}
	}

	results, err := f.batch.Process(ctx, inputs)
	if err != nil {
		return SheetReport{}, nil, fmt.Errorf("classify sheet %s: %w", sheet, err)
	}

	layout := f.cfg.Layout
	report := SheetReport{Sheet: sheet, SourceHint: hint, Enriched: enriched, Categories: map[string]int{}}
	categories := make([]string, 0, len(results))

	for _, res := range results {
		r := rows[res.Index]
		label := res.Result.Category.Label(f.cfg.Locale)
		if err := wb.SetCellStr(sheet, cellName(layout.CategoryColumn, r.number), label); err != nil {
			return SheetReport{}, nil, fmt.Errorf("write category %s!%d: %w", sheet, r.number, err)
		}
		if err := wb.SetCellStr(sheet, cellName(layout.ReasonColumn, r.number), string(res.Result.Reason)); err != nil {
			return SheetReport{}, nil, fmt.Errorf("write reason %s!%d: %w", sheet, r.number, err)
		}
		report.Categories[label]++
		categories = append(categories, label)
	}
	report.Rows = len(results)

	if f.metrics != nil {
		f.metrics.RecordWorkbookRows(sheet, report.Rows)
	}
	f.logger.Debug("Sheet filled",
		logger.String("sheet", sheet),
		logger.String("source_hint", hint),
		logger.Int("rows", report.Rows),
		logger.Int("enriched", enriched),
	)
	return report, categories, nil
}

// readRows stops at the first row whose number, description and URL cells
// are all blank.
func (f *Filler) readRows(wb *excelize.File, sheet string) ([]row, error) {
	layout := f.cfg.Layout
	var rows []row

	for n := layout.StartRow; n <= layout.LastRow; n++ {
		number, err := f.cell(wb, sheet, layout.NumberColumn, n)
		if err != nil {
			return nil, err
		}
		desc, err := f.cell(wb, sheet, layout.DescriptionColumn, n)
		if err != nil {
			return nil, err
		}
		link, err := f.cell(wb, sheet, layout.URLColumn, n)
		if err != nil {
			return nil, err
		}
		if number == "" && desc == "" && link == "" {
			break
		}
		rows = append(rows, row{number: n, desc: desc, url: link})
	}
	return rows, nil
}

func (f *Filler) cell(wb *excelize.File, sheet, col string, n int) (string, error) {
	v, err := wb.GetCellValue(sheet, cellName(col, n))
	if err != nil {
		return "", fmt.Errorf("read %s!%s%d: %w", sheet, col, n, err)
	}
	return strings.TrimSpace(v), nil
}

// enrich swaps short descriptions for fetched article text. Fetches run
// concurrently; a failed fetch keeps the description.
func (f *Filler) enrich(ctx context.Context, rows []row) ([]string, int, error) {
	texts := make([]string, len(rows))
	fetched := make([]bool, len(rows))
	for i, r := range rows {
		texts[i] = r.desc
	}

	if !f.cfg.FetchArticles || f.fetcher == nil {
		return texts, 0, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.cfg.FetchConcurrency)
	for i, r := range rows {
		if r.url == "" || utf8.RuneCountInString(r.desc) >= f.cfg.EnrichMinLength {
			continue
		}
		g.Go(func() error {
			if body := f.fetcher.FetchText(gctx, r.url); body != "" {
				texts[i] = body
				fetched[i] = true
			}
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, fmt.Errorf("enrich rows: %w", err)
	}

	enriched := 0
	for _, ok := range fetched {
		if ok {
			enriched++
		}
	}
	return texts, enriched, nil
}
