package workbook_test

import (
	"bytes"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jonesrussell/north-cloud/market-classifier/internal/workbook"
)

func checkedWorkbook(t *testing.T) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "12월 총평"))
	for _, s := range []string{"CP_12_work", "IDC_12_work"} {
		_, err := f.NewSheet(s)
		require.NoError(t, err)
	}

	// Summary rows 5..8 are CP, IDC, Omdia TV and DSCC.
	for i, efg := range [][3]any{
		{10, "1,250", 30},
		{20, 25, 40},
		{1, 2, 3},
		{0, 0, 0},
	} {
		row := 5 + i
		set(t, f, "12월 총평", "E"+strconv.Itoa(row), efg[0])
		set(t, f, "12월 총평", "F"+strconv.Itoa(row), efg[1])
		set(t, f, "12월 총평", "G"+strconv.Itoa(row), efg[2])
	}

	set(t, f, "CP_12_work", "M7", 3)
	set(t, f, "CP_12_work", "N7", "글로벌 스마트폰 시장")
	set(t, f, "CP_12_work", "M8", "1,200")
	set(t, f, "CP_12_work", "N8", "Korea Display market")
	set(t, f, "CP_12_work", "M9", 2)
	set(t, f, "CP_12_work", "N9", "Global AI Server market")
	set(t, f, "CP_12_work", "M10", 4)
	set(t, f, "CP_12_work", "N10", "한국 반도체 시장")
	// Row 51 is past the roll-up range.
	set(t, f, "CP_12_work", "M51", 100)
	set(t, f, "CP_12_work", "N51", "글로벌 스마트폰 시장")

	set(t, f, "IDC_12_work", "M7", 5)
	set(t, f, "IDC_12_work", "N7", "Global IoT market")
	set(t, f, "IDC_12_work", "M8", 1)
	set(t, f, "IDC_12_work", "N8", "Global Electric Vehicle market")
	return f
}

func masterWorkbook(t *testing.T) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", workbook.TierSheet))
	_, err := f.NewSheet(workbook.CoverageSheet)
	require.NoError(t, err)

	set(t, f, workbook.CoverageSheet, "A1", "Month")
	set(t, f, workbook.CoverageSheet, "A2", "Nov-25")
	set(t, f, workbook.CoverageSheet, "A3", time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC))
	set(t, f, workbook.CoverageSheet, "A4", "Jan-26")
	return f
}

func TestUpdateMaster(t *testing.T) {
	checked := checkedWorkbook(t)
	defer checked.Close()
	master := masterWorkbook(t)
	defer master.Close()

	report, err := workbook.UpdateMaster(checked, master, 2025, time.December)
	require.NoError(t, err)

	assert.Equal(t, "Dec-25", report.Period)
	assert.Equal(t, "Z", report.TierColumn)
	assert.Equal(t, 3, report.CoverageRow)
	require.Len(t, report.Tiers, 4)
	assert.Equal(t, workbook.TierValues{Source: "CP", E: 10, FMinusE: 1240, G: 30}, report.Tiers[0])

	tier := workbook.TierSheet
	assert.Equal(t, "10", cell(t, master, tier, "Z3"))
	assert.Equal(t, "1240", cell(t, master, tier, "Z4"))
	assert.Equal(t, "30", cell(t, master, tier, "Z5"))
	formula, err := master.GetCellFormula(tier, "Z6")
	require.NoError(t, err)
	assert.Equal(t, "SUM(Z3:Z5)", formula)

	assert.Equal(t, "20", cell(t, master, tier, "Z8"))
	assert.Equal(t, "5", cell(t, master, tier, "Z9"))
	assert.Equal(t, "40", cell(t, master, tier, "Z10"))
	formula, err = master.GetCellFormula(tier, "Z21")
	require.NoError(t, err)
	assert.Equal(t, "SUM(Z18:Z20)", formula)

	assert.Equal(t, workbook.Coverage{
		Smartphone: 3, AI: 2, TVDisplay: 1200, Semiconductor: 4,
	}, report.CP)
	assert.Equal(t, workbook.Coverage{Auto: 1, IoT: 5}, report.IDC)
	assert.Equal(t, 1200.0, report.OmdiaTV)

	cov := workbook.CoverageSheet
	for ref, want := range map[string]string{
		"B3": "3", "C3": "2", "D3": "1200", "E3": "4", "F3": "0", "G3": "0",
		"H3": "0", "K3": "0", "L3": "1", "M3": "5", "N3": "1200",
	} {
		assert.Equal(t, want, cell(t, master, cov, ref), ref)
	}
	assert.Empty(t, cell(t, master, cov, "B2"))
	assert.Empty(t, cell(t, master, cov, "B4"))
}

func TestUpdateMaster_Errors(t *testing.T) {
	tests := []struct {
		name    string
		year    int
		month   time.Month
		mutate  func(t *testing.T, checked *excelize.File)
		wantErr error
	}{
		{
			name:    "summary month differs from period",
			year:    2025,
			month:   time.November,
			wantErr: workbook.ErrInvalidPeriod,
		},
		{
			name:    "before the first tier column",
			year:    2024,
			month:   time.December,
			wantErr: workbook.ErrInvalidPeriod,
		},
		{
			name:    "no coverage row for the month",
			year:    2026,
			month:   time.December,
			wantErr: workbook.ErrInvalidPeriod,
		},
		{
			name:  "empty summary cell",
			year:  2025,
			month: time.December,
			mutate: func(t *testing.T, checked *excelize.File) {
				t.Helper()
				set(t, checked, "12월 총평", "G7", "")
			},
			wantErr: workbook.ErrMissingValue,
		},
		{
			name:  "missing work sheet",
			year:  2025,
			month: time.December,
			mutate: func(t *testing.T, checked *excelize.File) {
				t.Helper()
				require.NoError(t, checked.DeleteSheet("IDC_12_work"))
			},
			wantErr: workbook.ErrSheetNotFound,
		},
		{
			name:  "no summary sheet",
			year:  2025,
			month: time.December,
			mutate: func(t *testing.T, checked *excelize.File) {
				t.Helper()
				require.NoError(t, checked.SetSheetName("12월 총평", "notes"))
			},
			wantErr: workbook.ErrSheetNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checked := checkedWorkbook(t)
			defer checked.Close()
			master := masterWorkbook(t)
			defer master.Close()
			if tt.mutate != nil {
				tt.mutate(t, checked)
			}

			_, err := workbook.UpdateMaster(checked, master, tt.year, tt.month)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestUpdateMasterReader(t *testing.T) {
	checked := checkedWorkbook(t)
	defer checked.Close()
	master := masterWorkbook(t)
	defer master.Close()

	var checkedBuf, masterBuf, out bytes.Buffer
	_, err := checked.WriteTo(&checkedBuf)
	require.NoError(t, err)
	_, err = master.WriteTo(&masterBuf)
	require.NoError(t, err)

	report, err := workbook.UpdateMasterReader(&checkedBuf, &masterBuf, &out, "dec-25")
	require.NoError(t, err)
	assert.Equal(t, "Dec-25", report.Period)

	updated, err := excelize.OpenReader(&out)
	require.NoError(t, err)
	defer updated.Close()
	assert.Equal(t, "10", cell(t, updated, workbook.TierSheet, "Z3"))
	assert.Equal(t, "1200", cell(t, updated, workbook.CoverageSheet, "N3"))

	_, err = workbook.UpdateMasterReader(bytes.NewReader(nil), bytes.NewReader(nil), &out, "Dec-25")
	require.ErrorIs(t, err, workbook.ErrInvalidWorkbook)

	_, err = workbook.UpdateMasterReader(bytes.NewReader(nil), bytes.NewReader(nil), &out, "December")
	require.ErrorIs(t, err, workbook.ErrInvalidPeriod)
}
