package workbook

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Master workbook sheets.
const (
	TierSheet     = "by Tier"
	CoverageSheet = "by Coverage"
)

// ErrMissingValue is returned when a summary cell the tier roll-up needs is
// empty.
var ErrMissingValue = errors.New("missing summary value")

const (
	// by Tier: Jan-25 is column O; each later month moves one column right.
	tierBaseYear   = 2025
	tierBaseColumn = 15

	workFirstRow    = 7
	workLastRow     = 50
	workCountCol    = "M"
	workCategoryCol = "N"

	coverageLabelCol = 1
	coverageCPCol    = 2  // B..G
	coverageIDCCol   = 8  // H..M
	coverageOmdiaCol = 14 // N
)

var summarySheetPattern = regexp.MustCompile(`^(\d{1,2})\s*월\s*총평$`)

// tierBlock copies summary row E/F/G into four by Tier rows: E, F-E, G and
// a SUM formula over the three.
type tierBlock struct {
	source    string
	summary   int
	firstDest int
}

var tierBlocks = []tierBlock{
	{"CP", 5, 3},
	{"IDC", 6, 8},
	{"OmdiaTV", 7, 13},
	{"DSCC", 8, 18},
}

// Coverage bucket tokens, matched case-insensitively against the category
// column of a *_work sheet. A row may count toward several buckets.
var (
	coverageSmartphone = []string{"스마트폰", "smartphone"}
	coverageAI         = []string{"ai"}
	coverageTVDisplay  = []string{"tv", "디스플레이", "display", "lcd", "led", "모니터", "monitor", "oled", "xr"}
	coverageSemi       = []string{"반도체", "semiconductor"}
	coverageAuto       = []string{"전기차", "electric vehicle"}
	coverageIoT        = []string{"iot"}
	omdiaTVTokens      = []string{"tv", "디스플레이", "display", "oled", "lcd"}
)

// Coverage is the six-bucket roll-up of one *_work sheet.
type Coverage struct {
	Smartphone    float64 `json:"smartphone"`
	AI            float64 `json:"ai"`
	TVDisplay     float64 `json:"tv_display"`
	Semiconductor float64 `json:"semiconductor"`
	Auto          float64 `json:"auto"`
	IoT           float64 `json:"iot"`
}

func (c Coverage) values() []any {
	return []any{c.Smartphone, c.AI, c.TVDisplay, c.Semiconductor, c.Auto, c.IoT}
}

// TierValues is one by Tier block as written.
type TierValues struct {
	Source  string  `json:"source"`
	E       float64 `json:"e"`
	FMinusE float64 `json:"f_minus_e"`
	G       float64 `json:"g"`
}

// MasterReport summarizes a master update.
type MasterReport struct {
	Period      string       `json:"period"`
	TierColumn  string       `json:"tier_column"`
	CoverageRow int          `json:"coverage_row"`
	Tiers       []TierValues `json:"tiers"`
	CP          Coverage     `json:"cp"`
	IDC         Coverage     `json:"idc"`
	OmdiaTV     float64      `json:"omdia_tv"`
}

// UpdateMasterReader reads the reviewed monthly workbook and the master
// workbook, applies UpdateMaster for period (e.g. "Dec-25") and writes the
// master to w.
func UpdateMasterReader(checked, master io.Reader, w io.Writer, period string) (*MasterReport, error) {
	year, month, err := ParsePeriod(period)
	if err != nil {
		return nil, err
	}

	cf, err := excelize.OpenReader(checked)
	if err != nil {
		return nil, fmt.Errorf("%w: reviewed workbook: %w", ErrInvalidWorkbook, err)
	}
	defer cf.Close()

	mf, err := excelize.OpenReader(master)
	if err != nil {
		return nil, fmt.Errorf("%w: master workbook: %w", ErrInvalidWorkbook, err)
	}
	defer mf.Close()

	report, err := UpdateMaster(cf, mf, year, month)
	if err != nil {
		return nil, err
	}
	if _, err := mf.WriteTo(w); err != nil {
		return nil, fmt.Errorf("write master workbook: %w", err)
	}
	return report, nil
}

// UpdateMaster rolls the reviewed workbook of one month into the master:
// the "{m}월 총평" summary rows feed the by Tier month column, and the
// CP_{m}_work and IDC_{m}_work sheets feed the by Coverage row labelled with
// the month. The summary sheet's month must equal month.
func UpdateMaster(checked, master *excelize.File, year int, month time.Month) (*MasterReport, error) {
	summary, found, err := findSummarySheet(checked)
	if err != nil {
		return nil, err
	}
	if found != month {
		return nil, fmt.Errorf("%w: summary sheet %q is for month %d, period is month %d",
			ErrInvalidPeriod, summary, found, month)
	}

	col, err := tierColumn(year, month)
	if err != nil {
		return nil, err
	}
	colName, err := excelize.ColumnNumberToName(col)
	if err != nil {
		return nil, err
	}

	report := &MasterReport{Period: MonthLabel(year, month), TierColumn: colName}

	if err := requireSheet(master, TierSheet); err != nil {
		return nil, err
	}
	for _, b := range tierBlocks {
		tv, err := writeTierBlock(checked, master, summary, colName, b)
		if err != nil {
			return nil, err
		}
		report.Tiers = append(report.Tiers, tv)
	}

	if err := requireSheet(master, CoverageSheet); err != nil {
		return nil, err
	}
	row, err := findCoverageRow(master, report.Period)
	if err != nil {
		return nil, err
	}
	report.CoverageRow = row

	cpSheet := fmt.Sprintf("CP_%d_work", month)
	if report.CP, err = coverageFromWorkSheet(checked, cpSheet); err != nil {
		return nil, err
	}
	idcSheet := fmt.Sprintf("IDC_%d_work", month)
	if report.IDC, err = coverageFromWorkSheet(checked, idcSheet); err != nil {
		return nil, err
	}
	if report.OmdiaTV, err = sumWorkSheet(checked, cpSheet, omdiaTVTokens); err != nil {
		return nil, err
	}

	for _, block := range []struct {
		col    int
		values []any
	}{
		{coverageCPCol, report.CP.values()},
		{coverageIDCCol, report.IDC.values()},
		{coverageOmdiaCol, []any{report.OmdiaTV}},
	} {
		cell, err := excelize.CoordinatesToCellName(block.col, row)
		if err != nil {
			return nil, err
		}
		if err := master.SetSheetRow(CoverageSheet, cell, &block.values); err != nil {
			return nil, fmt.Errorf("write %s row %d: %w", CoverageSheet, row, err)
		}
	}

	return report, nil
}

func findSummarySheet(f *excelize.File) (string, time.Month, error) {
	for _, name := range f.GetSheetList() {
		m := summarySheetPattern.FindStringSubmatch(strings.TrimSpace(name))
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		if n < 1 || n > 12 {
			continue
		}
		return name, time.Month(n), nil
	}
	return "", 0, fmt.Errorf("%w: no \"{m}월 총평\" sheet in reviewed workbook", ErrSheetNotFound)
}

// tierColumn is the 1-based by Tier column of a month.
func tierColumn(year int, month time.Month) (int, error) {
	if year < tierBaseYear {
		return 0, fmt.Errorf("%w: by Tier starts at Jan-%02d", ErrInvalidPeriod, tierBaseYear%100)
	}
	return tierBaseColumn + (year-tierBaseYear)*12 + int(month) - 1, nil
}

func requireSheet(f *excelize.File, sheet string) error {
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return fmt.Errorf("%w: %q", ErrSheetNotFound, sheet)
	}
	return nil
}

func writeTierBlock(checked, master *excelize.File, summary, col string, b tierBlock) (TierValues, error) {
	var efg [3]float64
	for i, c := range []string{"E", "F", "G"} {
		addr := cellName(c, b.summary)
		raw, err := checked.GetCellValue(summary, addr)
		if err != nil {
			return TierValues{}, fmt.Errorf("read %s!%s: %w", summary, addr, err)
		}
		if strings.TrimSpace(raw) == "" {
			return TierValues{}, fmt.Errorf("%w: %s!%s", ErrMissingValue, summary, addr)
		}
		efg[i] = parseNumber(raw)
	}

	tv := TierValues{Source: b.source, E: efg[0], FMinusE: efg[1] - efg[0], G: efg[2]}
	for i, v := range []float64{tv.E, tv.FMinusE, tv.G} {
		addr := cellName(col, b.firstDest+i)
		if err := master.SetCellValue(TierSheet, addr, v); err != nil {
			return TierValues{}, fmt.Errorf("write %s!%s: %w", TierSheet, addr, err)
		}
	}
	sumAddr := cellName(col, b.firstDest+3)
	formula := fmt.Sprintf("SUM(%s:%s)", cellName(col, b.firstDest), cellName(col, b.firstDest+2))
	if err := master.SetCellFormula(TierSheet, sumAddr, formula); err != nil {
		return TierValues{}, fmt.Errorf("write %s!%s: %w", TierSheet, sumAddr, err)
	}
	return tv, nil
}

// findCoverageRow finds the row whose column A shows label. Date cells are
// compared by their month, whatever their number format.
func findCoverageRow(f *excelize.File, label string) (int, error) {
	rows, err := f.GetRows(CoverageSheet)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", CoverageSheet, err)
	}
	for i, r := range rows {
		if len(r) < coverageLabelCol {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(r[coverageLabelCol-1]), label) {
			return i + 1, nil
		}
		addr := cellName("A", i+1)
		raw, err := f.GetCellValue(CoverageSheet, addr, excelize.Options{RawCellValue: true})
		if err != nil {
			continue
		}
		serial, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			continue
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		if err == nil && MonthLabel(t.Year(), t.Month()) == label {
			return i + 1, nil
		}
	}
	return 0, fmt.Errorf("%w: no %q row in %s", ErrInvalidPeriod, label, CoverageSheet)
}

func coverageFromWorkSheet(f *excelize.File, sheet string) (Coverage, error) {
	var c Coverage
	err := eachWorkRow(f, sheet, func(count float64, category string) {
		if containsAny(category, coverageSmartphone) {
			c.Smartphone += count
		}
		if containsAny(category, coverageAI) {
			c.AI += count
		}
		if containsAny(category, coverageTVDisplay) {
			c.TVDisplay += count
		}
		if containsAny(category, coverageSemi) {
			c.Semiconductor += count
		}
		if containsAny(category, coverageAuto) {
			c.Auto += count
		}
		if containsAny(category, coverageIoT) {
			c.IoT += count
		}
	})
	return c, err
}

func sumWorkSheet(f *excelize.File, sheet string, tokens []string) (float64, error) {
	var total float64
	err := eachWorkRow(f, sheet, func(count float64, category string) {
		if containsAny(category, tokens) {
			total += count
		}
	})
	return total, err
}

// eachWorkRow visits rows 7..50 of a *_work sheet with the count in M and
// the category text in N.
func eachWorkRow(f *excelize.File, sheet string, fn func(count float64, category string)) error {
	if err := requireSheet(f, sheet); err != nil {
		return err
	}
	for r := workFirstRow; r <= workLastRow; r++ {
		count, err := f.GetCellValue(sheet, cellName(workCountCol, r))
		if err != nil {
			return fmt.Errorf("read %s!%s%d: %w", sheet, workCountCol, r, err)
		}
		category, err := f.GetCellValue(sheet, cellName(workCategoryCol, r))
		if err != nil {
			return fmt.Errorf("read %s!%s%d: %w", sheet, workCategoryCol, r, err)
		}
		fn(parseNumber(count), strings.TrimSpace(category))
	}
	return nil
}

func containsAny(s string, tokens []string) bool {
	s = strings.ToLower(s)
	for _, t := range tokens {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

// parseNumber reads a displayed cell value, tolerating thousands
// separators. Anything else that is not a number counts as zero.
func parseNumber(s string) float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
