package workbook

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jonesrussell/north-cloud/market-classifier/internal/domain"
)

// TrackingSheet is the sheet WriteTracking fills.
const TrackingSheet = "tracking"

// TopCategories is how many categories the chart shows before folding the
// rest into an "others" slice.
const TopCategories = 8

const periodLayout = "Jan-06"

var periodPattern = regexp.MustCompile(`^(?i)(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)-(\d{2})$`)

var othersLabel = map[domain.Locale]string{
	domain.LocaleEnglish: "others",
	domain.LocaleKorean:  "기타",
}

// ErrInvalidPeriod is returned for malformed month labels.
var ErrInvalidPeriod = errors.New("invalid period")

// CategoryCount is one category frequency.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// TrackingSummary is the category frequency table of a filled workbook.
type TrackingSummary struct {
	// Counts is sorted by count descending, then category name.
	Counts []CategoryCount `json:"counts"`
	Top    []CategoryCount `json:"top"`
	Others int             `json:"others"`
	Total  int             `json:"total"`
}

// CategorySummary counts non-blank categories.
func CategorySummary(categories []string) TrackingSummary {
	freq := make(map[string]int)
	total := 0
	for _, c := range categories {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		freq[c]++
		total++
	}

	counts := make([]CategoryCount, 0, len(freq))
	for c, n := range freq {
		counts = append(counts, CategoryCount{Category: c, Count: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Category < counts[j].Category
	})

	s := TrackingSummary{Counts: counts, Total: total}
	s.Top = counts[:min(TopCategories, len(counts))]
	for _, c := range counts[len(s.Top):] {
		s.Others += c.Count
	}
	return s
}

// WriteTracking replaces the tracking sheet with the full frequency table in
// columns A:B, the chart data (top categories plus others) in D:E and a pie
// chart over D:E.
func WriteTracking(f *excelize.File, s TrackingSummary, loc domain.Locale) error {
	if err := replaceSheet(f, TrackingSheet); err != nil {
		return err
	}

	rows := make([][]any, 0, len(s.Counts))
	for _, c := range s.Counts {
		rows = append(rows, []any{c.Category, c.Count})
	}
	if err := writeTable(f, TrackingSheet, []string{"category", "count"}, rows); err != nil {
		return err
	}

	chart := make([]CategoryCount, len(s.Top), len(s.Top)+1)
	copy(chart, s.Top)
	if s.Others > 0 {
		label, ok := othersLabel[loc]
		if !ok {
			label = othersLabel[domain.LocaleEnglish]
		}
		chart = append(chart, CategoryCount{Category: label, Count: s.Others})
	}

	header := []string{"top_category", "count"}
	if err := f.SetSheetRow(TrackingSheet, "D1", &header); err != nil {
		return fmt.Errorf("write chart header: %w", err)
	}
	for i, c := range chart {
		values := []any{c.Category, c.Count}
		if err := f.SetSheetRow(TrackingSheet, cellName("D", i+2), &values); err != nil {
			return fmt.Errorf("write chart row: %w", err)
		}
	}
	if err := f.SetColWidth(TrackingSheet, "D", "D", columnWidth(longestCategory(chart))); err != nil {
		return fmt.Errorf("size chart column: %w", err)
	}

	if len(chart) == 0 {
		return nil
	}

	last := len(chart) + 1
	if err := f.AddChart(TrackingSheet, "G2", &excelize.Chart{
		Type: excelize.Pie,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("%s!$E$1", TrackingSheet),
			Categories: fmt.Sprintf("%s!$D$2:$D$%d", TrackingSheet, last),
			Values:     fmt.Sprintf("%s!$E$2:$E$%d", TrackingSheet, last),
		}},
		Title: []excelize.RichTextRun{{Text: "Category share"}},
	}); err != nil {
		return fmt.Errorf("add tracking chart: %w", err)
	}
	return nil
}

func longestCategory(cs []CategoryCount) int {
	n := 0
	for _, c := range cs {
		n = max(n, len([]rune(c.Category)))
	}
	return n
}

// ParsePeriod parses a month label such as "Dec-25" into (2025, 12). The
// month name is case-insensitive and the year is always 20yy.
func ParsePeriod(label string) (int, time.Month, error) {
	m := periodPattern.FindStringSubmatch(strings.TrimSpace(label))
	if m == nil {
		return 0, 0, fmt.Errorf("%w: %q, want e.g. Dec-25", ErrInvalidPeriod, label)
	}
	t, err := time.Parse("Jan", strings.ToUpper(m[1][:1])+strings.ToLower(m[1][1:]))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidPeriod, label)
	}
	yy, _ := strconv.Atoi(m[2])
	return 2000 + yy, t.Month(), nil
}

// MonthLabel formats a year and month as "Dec-25".
func MonthLabel(year int, month time.Month) string {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Format(periodLayout)
}
