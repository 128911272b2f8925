package workbook

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/jonesrussell/north-cloud/market-classifier/internal/domain"
)

// Report sheet names.
const (
	NewsSheet    = "news_all"
	SummarySheet = "summary"

	pubDateLayout = "2006-01-02 15:04"
)

var newsHeader = []string{
	"company", "pub_date", "press", "category", "score", "matched_keywords",
	"title", "description", "originallink", "naver_link", "market_category", "market_reason",
}

var summaryHeader = []string{"company", "category", "count"}

// BuildNewsReport renders collected news rows into an xlsx workbook with a
// news_all sheet and a per-company category summary.
func BuildNewsReport(rows []domain.NewsRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(defaultSheet, NewsSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	newsRows := make([][]any, 0, len(rows))
	for _, r := range rows {
		newsRows = append(newsRows, []any{
			r.Company,
			r.PubDate.Format(pubDateLayout),
			r.Press,
			r.Category,
			r.Score,
			strings.Join(r.MatchedKeywords, ", "),
			r.Title,
			r.Description,
			r.OriginalLink,
			r.Link,
			r.MarketCategory,
			string(r.MarketReason),
		})
	}
	if err := writeTable(f, NewsSheet, newsHeader, newsRows); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(SummarySheet); err != nil {
		return nil, fmt.Errorf("create summary sheet: %w", err)
	}
	if err := writeTable(f, SummarySheet, summaryHeader, summaryRows(rows)); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write report: %w", err)
	}
	return buf.Bytes(), nil
}

type companyCategory struct {
	company  string
	category string
}

// summaryRows counts rows per (company, category), sorted by both.
func summaryRows(rows []domain.NewsRow) [][]any {
	counts := make(map[companyCategory]int)
	for _, r := range rows {
		counts[companyCategory{company: r.Company, category: r.Category}]++
	}

	keys := make([]companyCategory, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].company != keys[j].company {
			return keys[i].company < keys[j].company
		}
		return keys[i].category < keys[j].category
	})

	out := make([][]any, 0, len(keys))
	for _, k := range keys {
		out = append(out, []any{k.company, k.category, counts[k]})
	}
	return out
}
