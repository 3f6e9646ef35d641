// Package remittance folds downloaded Agoda remittance records into the
// payout summary workbook (매출 및 입금 결과.xlsx, sheet 아고다).
package remittance

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/minwoo-dev/ota-recon/internal/domain/ledger"
	"github.com/minwoo-dev/ota-recon/internal/infrastructure/config"
)

// SheetName is where Agoda remittances accumulate in the payout workbook
const SheetName = "아고다"

const (
	headerDate     = "요청날짜"
	headerAmount   = "처리금액"
	headerPayoutID = "지불ID"
)

// Record is one remittance line from the downloader's export
type Record struct {
	Date     string // normalized to YYYY-MM-DD when parseable
	Amount   float64
	PayoutID string
}

// Importer merges remittance records into the payout summary workbook.
// The merge is idempotent: records whose payout ID is already present are
// skipped, and the sheet is re-sorted on every import.
type Importer struct {
	cfg    *config.Config
	logger *slog.Logger
}

// New creates an importer
func New(cfg *config.Config, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{cfg: cfg, logger: logger}
}

// ReadCSV parses a downloader export. Columns are resolved from the header
// row by the same keywords the workbook sheet uses, so the export and the
// sheet stay one format.
func (im *Importer) ReadCSV(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header from %s: %w", path, err)
	}
	dateCol := ledger.ResolveColumn(header, headerDate)
	amountCol := ledger.ResolveColumn(header, headerAmount)
	idCol := ledger.ResolveColumn(header, headerPayoutID)
	if dateCol < 0 || amountCol < 0 || idCol < 0 {
		return nil, fmt.Errorf("%s is missing required columns %s/%s/%s", path, headerDate, headerAmount, headerPayoutID)
	}

	var records []Record
	for row := 2; ; row++ {
		fields, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s row %d: %w", path, row, err)
		}
		if idCol >= len(fields) || strings.TrimSpace(fields[idCol]) == "" {
			continue
		}
		amount, ok := ledger.ParsePrice(field(fields, amountCol))
		if !ok {
			im.logger.Warn("skipping remittance row with unparseable amount", "file", path, "row", row, "value", field(fields, amountCol))
			continue
		}
		records = append(records, Record{
			Date:     NormalizeDate(strings.TrimSpace(field(fields, dateCol))),
			Amount:   amount,
			PayoutID: strings.TrimSpace(fields[idCol]),
		})
	}
	return records, nil
}

// Import merges records into the payout workbook and returns how many rows
// were actually added. The workbook, sheet, and header are created when
// missing.
func (im *Importer) Import(records []Record) (int, error) {
	path := im.cfg.PayoutPath()

	f, created, err := openOrCreate(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	if err := ensureHeader(f); err != nil {
		return 0, err
	}

	rows, err := f.GetRows(SheetName)
	if err != nil {
		return 0, err
	}

	existing := make(map[string]bool)
	var data [][]string
	for i, row := range rows {
		if i == 0 {
			continue
		}
		data = append(data, row)
		if len(row) > 2 && strings.TrimSpace(row[2]) != "" {
			existing[strings.TrimSpace(row[2])] = true
		}
	}

	added := 0
	for _, rec := range records {
		if rec.PayoutID == "" || existing[rec.PayoutID] {
			continue
		}
		existing[rec.PayoutID] = true
		data = append(data, []string{rec.Date, formatAmount(rec.Amount), rec.PayoutID})
		added++
		im.logger.Info("adding remittance", "payout_id", rec.PayoutID, "date", rec.Date, "amount", rec.Amount)
	}

	// Newest request date first; the date strings sort lexicographically
	sort.SliceStable(data, func(i, j int) bool {
		return cell(data[i], 0) > cell(data[j], 0)
	})

	for i, row := range data {
		cellRef, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return 0, err
		}
		padded := make([]interface{}, 3)
		for j := 0; j < 3; j++ {
			padded[j] = cell(row, j)
		}
		if err := f.SetSheetRow(SheetName, cellRef, &padded); err != nil {
			return 0, err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return 0, fmt.Errorf("failed to save payout workbook: %w", err)
	}

	im.logger.Info("payout workbook updated",
		"path", path,
		"created", created,
		"received", len(records),
		"added", added,
		"total", len(data))
	return added, nil
}

// openOrCreate opens the payout workbook, creating it (with the 아고다
// sheet as the only sheet) when absent.
func openOrCreate(path string) (*excelize.File, bool, error) {
	f, err := excelize.OpenFile(path)
	if err == nil {
		return f, false, nil
	}
	if !os.IsNotExist(err) {
		return nil, false, fmt.Errorf("failed to open payout workbook %s: %w", path, err)
	}

	f = excelize.NewFile()
	if _, err := f.NewSheet(SheetName); err != nil {
		f.Close()
		return nil, false, err
	}
	defaultSheet := f.GetSheetName(0)
	if defaultSheet != SheetName {
		if err := f.DeleteSheet(defaultSheet); err != nil {
			f.Close()
			return nil, false, err
		}
	}
	return f, true, nil
}

// ensureHeader makes sure the sheet exists and row 1 carries the header
func ensureHeader(f *excelize.File) error {
	idx, err := f.GetSheetIndex(SheetName)
	if err != nil {
		return err
	}
	if idx == -1 {
		if _, err := f.NewSheet(SheetName); err != nil {
			return err
		}
	}
	a1, err := f.GetCellValue(SheetName, "A1")
	if err != nil {
		return err
	}
	if a1 != headerDate {
		header := []interface{}{headerDate, headerAmount, headerPayoutID}
		if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
			return err
		}
	}
	return nil
}

// NormalizeDate converts the remittance portal's "02-Jan-2026" form to
// "2026-01-02". Anything else passes through unchanged.
func NormalizeDate(s string) string {
	if t, err := time.Parse("02-Jan-2006", s); err == nil {
		return t.Format("2006-01-02")
	}
	return s
}

// formatAmount renders an integer amount with thousands separators, the way
// the workbook has always displayed it
func formatAmount(v float64) string {
	s := strconv.FormatInt(int64(v), 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, d := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

func field(fields []string, i int) string {
	if i < 0 || i >= len(fields) {
		return ""
	}
	return fields[i]
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return row[i]
}
