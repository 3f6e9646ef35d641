package statement

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/minwoo-dev/ota-recon/internal/domain/ledger"
)

func writeRemittanceFixture(t *testing.T, path string, headers []string, rows [][]interface{}) {
	t.Helper()

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for j, h := range headers {
		cell, err := excelize.CoordinatesToCellName(j+1, 1)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue(sheet, cell, h))
	}
	for i, row := range rows {
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, v))
		}
	}
	require.NoError(t, f.SaveAs(path))
}

func writeCSV(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDiscoverSortsByName(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"Remittances_02.xlsx", "Remittances_01.xlsx", "other.csv"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	paths, err := Discover(dir, "Remittances*.xlsx")
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, "Remittances_01.xlsx", filepath.Base(paths[0]))
	assert.Equal(t, "Remittances_02.xlsx", filepath.Base(paths[1]))
}

func TestLoadAgodaKeywordColumns(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Remittances_01.xlsx")
	writeRemittanceFixture(t, path,
		[]string{"요청날짜", "통화", "지불ID", "고객명", "기간", "수수료", "처리금액", "비고"},
		[][]interface{}{
			{"2026-01-07", "KRW", "20251229-49798", "Kim Minji", "12월", "5%", "120,000", ""},
			{"2026-01-07", "KRW", "20251229-49799", "Lee Junho", "12월", "5%", "87,500", ""},
		})

	records, skipped := LoadAgoda([]string{path}, 1.0)
	require.Empty(t, skipped)
	require.Len(t, records, 2)

	assert.Equal(t, ledger.VendorAgoda, records[0].Vendor)
	assert.Equal(t, "Kim Minji", records[0].RawKey)
	assert.Equal(t, 120000.0, records[0].Amount)
	assert.Equal(t, 120000.0, records[0].Adjusted)
	assert.Equal(t, "Remittances_01.xlsx", records[0].SourceFile)
	assert.Equal(t, 2, records[0].SourceRow)
	assert.Equal(t, "2026-01-07", records[0].PayoutDate)
}

func TestLoadAgodaFallbackColumns(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Remittances_02.xlsx")
	// No amount-like header anywhere: the fixed G/H pair takes over
	writeRemittanceFixture(t, path,
		[]string{"A", "B", "C", "이름", "E", "F", "G", "H"},
		[][]interface{}{
			{"x", "x", "x", "Park Jiyeon", "x", "x", "70,000", "50,000"},
		})

	records, skipped := LoadAgoda([]string{path}, 1.0)
	require.Empty(t, skipped)
	require.Len(t, records, 2, "both fallback columns contribute independent amounts")
	assert.Equal(t, 70000.0, records[0].Amount)
	assert.Equal(t, 50000.0, records[1].Amount)
	assert.Equal(t, "Park Jiyeon", records[1].RawKey)
}

func TestLoadAgodaSkipsBadRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Remittances_03.xlsx")
	writeRemittanceFixture(t, path,
		[]string{"날짜", "통화", "ID", "고객명", "기간", "수수료", "처리금액"},
		[][]interface{}{
			{"2026-01-07", "KRW", "1", "", "", "", "120,000"},
			{"2026-01-07", "KRW", "2", "Choi Sooyoung", "", "", "합계없음"},
			{"2026-01-07", "KRW", "3", "Kang Daniel", "", "", "99,000"},
		})

	records, skipped := LoadAgoda([]string{path}, 1.0)
	require.Len(t, records, 1)
	assert.Equal(t, "Kang Daniel", records[0].RawKey)

	require.Len(t, skipped, 2)
	assert.Equal(t, 2, skipped[0].Row)
	assert.Contains(t, skipped[0].Reason, "empty guest name")
	assert.Contains(t, skipped[1].Reason, "no parseable amount")
}

func TestLoadAgodaMissingFile(t *testing.T) {
	records, skipped := LoadAgoda([]string{"/nonexistent/Remittances.xlsx"}, 1.0)
	assert.Empty(t, records)
	require.Len(t, skipped, 1)
	assert.Equal(t, 0, skipped[0].Row, "whole-file failures carry no row number")
}

func TestLoadBookingAppliesRatio(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "booking_jan.csv")
	writeCSV(t, path,
		"book_date,reference,guest,checkin,checkout,status,nights,commission,amount\n"+
			"2026-01-03,9876543210,Jane Doe,01-05,01-07,ok,2,x,100000\n"+
			"2026-01-04,1111222233,Bob Roe,01-06,01-08,ok,2,x,not-a-number\n")

	records, skipped := LoadBooking([]string{path}, 0.82)
	require.Len(t, records, 1)
	assert.Equal(t, "9876543210", records[0].RawKey)
	assert.Equal(t, 100000.0, records[0].Amount)
	assert.InDelta(t, 82000.0, records[0].Adjusted, 0.001)
	assert.Equal(t, 2, records[0].SourceRow)

	require.Len(t, skipped, 1)
	assert.Equal(t, 3, skipped[0].Row)
	assert.Contains(t, skipped[0].Reason, "unparseable amount")
}

func TestLoadExpediaStripsCurrencyPrefix(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "expedia_jan.csv")
	writeCSV(t, path,
		"reference,guest,checkin,checkout,status,amount\n"+
			"72233445,Lee Junho,01-05,01-07,paid,KRW 538000\n"+
			"88990011,Amy Tan,01-06,01-08,paid,\"KRW 1,250,000.50\"\n"+
			",Nobody,01-07,01-09,paid,KRW 10000\n")

	records, skipped := LoadExpedia([]string{path}, 1.0)
	require.Len(t, records, 2)
	assert.Equal(t, "72233445", records[0].RawKey)
	assert.Equal(t, 538000.0, records[0].Amount)
	assert.Equal(t, 538000.0, records[0].Adjusted, "no ratio adjustment for Expedia")
	assert.Equal(t, 1250000.50, records[1].Amount)

	require.Len(t, skipped, 1)
	assert.Contains(t, skipped[0].Reason, "empty reservation reference")
}
