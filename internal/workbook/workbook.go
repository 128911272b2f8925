// Package workbook reads and writes the Excel files the market classifier
// works on: the monthly category filler, the news report, the tracking
// summary and the master roll-up.
package workbook

import (
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// ErrSheetNotFound is returned when none of the requested sheets exist.
var ErrSheetNotFound = errors.New("sheet not found")

// ErrInvalidWorkbook is returned when the input cannot be read as xlsx.
var ErrInvalidWorkbook = errors.New("invalid workbook")

const (
	minColumnWidth = 10
	maxColumnWidth = 55
	widthPadding   = 2
	defaultSheet   = "Sheet1"
)

func cellName(col string, row int) string {
	return col + strconv.Itoa(row)
}

// columnWidth is max(10, longest)+2, capped at 55.
func columnWidth(longest int) float64 {
	return float64(min(max(minColumnWidth, longest)+widthPadding, maxColumnWidth))
}

// writeTable writes header and rows starting at A1, bolds and freezes the
// header, and sizes every column to its content.
func writeTable(f *excelize.File, sheet string, header []string, rows [][]any) error {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = utf8.RuneCountInString(h)
	}

	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+2, err)
		}
		for j, v := range row {
			if j < len(widths) {
				widths[j] = max(widths[j], utf8.RuneCountInString(fmt.Sprint(v)))
			}
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze %s header: %w", sheet, err)
	}

	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, columnWidth(w)); err != nil {
			return fmt.Errorf("size %s column %s: %w", sheet, col, err)
		}
	}
	return nil
}

// replaceSheet creates sheet, dropping any existing sheet of that name.
func replaceSheet(f *excelize.File, sheet string) error {
	if idx, err := f.GetSheetIndex(sheet); err == nil && idx >= 0 {
		if err := f.DeleteSheet(sheet); err != nil {
			return fmt.Errorf("delete sheet %s: %w", sheet, err)
		}
	}
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}
	return nil
}
