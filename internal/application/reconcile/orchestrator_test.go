package reconcile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/minwoo-dev/ota-recon/internal/domain/annotator"
	"github.com/minwoo-dev/ota-recon/internal/infrastructure/config"
	"github.com/minwoo-dev/ota-recon/internal/infrastructure/storage"
)

// mockRepo captures run history in memory
type mockRepo struct {
	runs  []*storage.RunRecord
	diags map[string][]storage.RunDiagnostic
}

func newMockRepo() *mockRepo {
	return &mockRepo{diags: make(map[string][]storage.RunDiagnostic)}
}

func (m *mockRepo) SaveRun(run *storage.RunRecord) error { m.runs = append(m.runs, run); return nil }
func (m *mockRepo) SaveDiagnostics(runID string, diags []storage.RunDiagnostic) error {
	m.diags[runID] = append(m.diags[runID], diags...)
	return nil
}
func (m *mockRepo) GetRun(string) (*storage.RunRecord, error)                { return nil, nil }
func (m *mockRepo) ListRuns(int) ([]*storage.RunRecord, error)               { return m.runs, nil }
func (m *mockRepo) ListDiagnostics(string) ([]storage.RunDiagnostic, error)  { return nil, nil }
func (m *mockRepo) Close() error                                             { return nil }

func writeWorkbook(t *testing.T, path string, data [][]interface{}) {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range data {
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, v))
		}
	}
	require.NoError(t, f.SaveAs(path))
}

func setupFixture(t *testing.T) (*config.Config, string) {
	t.Helper()
	base := t.TempDir()
	t.Setenv("OTA_BASE_DIR", base)
	t.Setenv("OTA_DB_PATH", filepath.Join(base, "history.db"))
	cfg := config.LoadFromEnv()

	writeWorkbook(t, cfg.ResultPath(), [][]interface{}{
		{"고객명", "객실료", "합계", "거래처", "OTA번호"},
		{"Kim", "50000", "", "아고다", ""},
		{"Kim", "70000", "", "아고다", ""},
		{"Lee", "90000", "", "아고다", ""},
		{"Jane Doe", "", "82000", "부킹닷컴", "9876543210123"},
		{"Walk In", "70000", "", "워크인", ""},
	})

	stmtDir := cfg.StatementPath()
	require.NoError(t, os.MkdirAll(stmtDir, 0o755))
	writeWorkbook(t, filepath.Join(stmtDir, "Remittances_01.xlsx"), [][]interface{}{
		{"요청날짜", "통화", "지불ID", "고객명", "기간", "수수료", "처리금액"},
		{"2026-01-07", "KRW", "20251229-49798", "Kim", "", "", "120000"},
	})
	csv := "book_date,reference,guest,checkin,checkout,status,nights,commission,amount\n" +
		"2026-01-03,9876543210,Jane Doe,01-05,01-07,ok,2,x,100000\n"
	require.NoError(t, os.WriteFile(filepath.Join(stmtDir, "booking_jan.csv"), []byte(csv), 0o644))

	return cfg, base
}

func TestRunEndToEnd(t *testing.T) {
	cfg, _ := setupFixture(t)
	repo := newMockRepo()

	summary, err := New(cfg, repo, nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, summary.LedgerRows)
	assert.Equal(t, 3, summary.Counts["matched_grouped"], "Kim x2 grouped, Jane's single-row group settles against the payout total")
	assert.Equal(t, 1, summary.Counts["no_source_record"], "Lee has no remittance")
	assert.Equal(t, 0, summary.Counts["mismatch"])

	// The workbook got its rebuilt log sheet with exactly Lee's entry
	f, err := excelize.OpenFile(cfg.ResultPath())
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(annotator.LogSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Lee", rows[1][0])

	// Run history captured
	require.Len(t, repo.runs, 1)
	run := repo.runs[0]
	assert.Equal(t, summary.RunID, run.ID)
	assert.Equal(t, 3, run.MatchedGrouped)
	assert.Equal(t, 1, run.NoSourceRecord)
	assert.True(t, run.Success)

	require.Len(t, repo.diags[run.ID], 1)
	assert.Equal(t, "no_source_record", repo.diags[run.ID][0].Kind)
	assert.Equal(t, "agoda", repo.diags[run.ID][0].Vendor)
}

func TestRunIsRepeatable(t *testing.T) {
	// The log sheet is rebuilt, not appended: running twice over the same
	// inputs yields the same log size.
	cfg, _ := setupFixture(t)

	_, err := New(cfg, nil, nil).Run(context.Background())
	require.NoError(t, err)
	_, err = New(cfg, nil, nil).Run(context.Background())
	require.NoError(t, err)

	f, err := excelize.OpenFile(cfg.ResultPath())
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(annotator.LogSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestRunFatalWithoutLedgerSource(t *testing.T) {
	base := t.TempDir()
	t.Setenv("OTA_BASE_DIR", base)
	cfg := config.LoadFromEnv()

	_, err := New(cfg, nil, nil).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to reconcile")
	assert.NoFileExists(t, cfg.ResultPath(), "fatal errors stop before any output write")
}

func TestRunBootstrapsFromLatestCustomerList(t *testing.T) {
	base := t.TempDir()
	t.Setenv("OTA_BASE_DIR", base)
	cfg := config.LoadFromEnv()

	writeWorkbook(t, filepath.Join(base, "전체고객 목록_20260110.xlsx"), [][]interface{}{
		{"고객명", "객실료", "합계", "거래처", "OTA번호"},
		{"Kim", "50000", "", "아고다", ""},
	})
	require.NoError(t, os.MkdirAll(cfg.StatementPath(), 0o755))

	summary, err := New(cfg, nil, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.LedgerRows)
	assert.FileExists(t, cfg.ResultPath())
}
