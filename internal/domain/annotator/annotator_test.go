package annotator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/minwoo-dev/ota-recon/internal/domain/matcher"
)

func fixtureWorkbook(t *testing.T) *excelize.File {
	t.Helper()

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	data := [][]interface{}{
		{"고객명", "객실료", "합계", "거래처", "OTA번호"},
		{"Kim", 50000, 55000, "아고다", "1"},
		{"Lee", 90000, 99000, "아고다", "2"},
		{"Park", 30000, 33000, "부킹닷컴", "3"},
	}
	for i, row := range data {
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, v))
		}
	}
	return f
}

func TestApplyStylesRowsPerOutcome(t *testing.T) {
	f := fixtureWorkbook(t)
	sheet := f.GetSheetName(0)

	outcomes := map[int]matcher.Outcome{
		2: matcher.OutcomeMatchedGrouped,
		3: matcher.OutcomeMismatch,
		4: matcher.OutcomeNoSourceRecord,
	}

	require.NoError(t, New(nil).Apply(f, outcomes, nil))

	style2, err := f.GetCellStyle(sheet, "A2")
	require.NoError(t, err)
	style3, err := f.GetCellStyle(sheet, "A3")
	require.NoError(t, err)
	style4, err := f.GetCellStyle(sheet, "A4")
	require.NoError(t, err)

	assert.NotZero(t, style2, "matched rows are styled")
	assert.NotZero(t, style3, "mismatch rows are styled")
	assert.NotZero(t, style4, "no-record rows are styled")
	assert.NotEqual(t, style2, style3)
	assert.NotEqual(t, style2, style4)
	assert.NotEqual(t, style3, style4)

	// The whole header width is styled, not just column A
	style2e, err := f.GetCellStyle(sheet, "E2")
	require.NoError(t, err)
	assert.Equal(t, style2, style2e)

	// The header row itself is untouched
	header, err := f.GetCellStyle(sheet, "A1")
	require.NoError(t, err)
	assert.Zero(t, header)
}

func TestSiblingConsumedRowsAreNotStyled(t *testing.T) {
	f := fixtureWorkbook(t)
	sheet := f.GetSheetName(0)

	outcomes := map[int]matcher.Outcome{
		2: matcher.OutcomeSiblingConsumed,
	}
	require.NoError(t, New(nil).Apply(f, outcomes, nil))

	style, err := f.GetCellStyle(sheet, "A2")
	require.NoError(t, err)
	assert.Zero(t, style)
}

func TestLogSheetRebuild(t *testing.T) {
	f := fixtureWorkbook(t)

	// A stale sheet from a previous run must be fully replaced
	_, err := f.NewSheet(LogSheet)
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue(LogSheet, "A1", "stale"))
	require.NoError(t, f.SetCellValue(LogSheet, "A99", "stale tail"))

	diags := []matcher.Diagnostic{
		{Guest: "Lee", LedgerRow: 3, LedgerPrice: "99000", SourceFile: "Remittances_01.xlsx", SourceRow: "2", Compared: "90000", Raw: "90000"},
		{Guest: "Park", LedgerRow: 4, LedgerPrice: "33000", SourceFile: "-", SourceRow: "-", Compared: "-", Raw: "-"},
	}
	require.NoError(t, New(nil).Apply(f, nil, diags))

	rows, err := f.GetRows(LogSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3, "header plus one row per diagnostic, stale content gone")

	assert.Equal(t, []string{"고객명", "전체매출 행번호", "전체매출 가격", "파일명", "행번호", "비교 가격", "원가격"}, rows[0])
	assert.Equal(t, "Lee", rows[1][0])
	assert.Equal(t, "3", rows[1][1])
	assert.Equal(t, "Remittances_01.xlsx", rows[1][3])
	assert.Equal(t, "Park", rows[2][0])
	assert.Equal(t, "-", rows[2][3])
}
