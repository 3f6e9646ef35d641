// Package annotator writes match outcomes back onto the review result
// workbook: row styling on the ledger sheet plus a rebuilt diagnostic log
// sheet. Styling only — cell values of the ledger sheet are never touched.
package annotator

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/minwoo-dev/ota-recon/internal/domain/matcher"
)

// LogSheet is the diagnostic sheet name. It is deleted and rebuilt on every
// run: outcomes must reflect the current input files only.
const LogSheet = "비교로그"

var logHeader = []string{"고객명", "전체매출 행번호", "전체매출 가격", "파일명", "행번호", "비교 가격", "원가격"}

// Visual treatment per outcome:
// matched rows get a yellow fill (and lose any earlier red font, since the
// style is replaced wholesale), mismatches get a red font, rows without a
// counterpart record get a light blue fill — "no OTA record, not
// necessarily wrong".
const (
	fillYellow = "FFFF00"
	fillBlue   = "ADD8E6"
	fontRed    = "FF0000"
)

// Annotator applies outcomes and diagnostics to a workbook
type Annotator struct {
	logger *slog.Logger
}

// New creates an annotator
func New(logger *slog.Logger) *Annotator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Annotator{logger: logger}
}

// Apply styles the ledger sheet per outcome and rebuilds the log sheet.
// The workbook is mutated in memory; saving is the caller's single
// workbook-wide write at the end of the run.
func (a *Annotator) Apply(f *excelize.File, outcomes map[int]matcher.Outcome, diags []matcher.Diagnostic) error {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return fmt.Errorf("workbook has no sheets")
	}
	sheet := sheets[0]

	width, err := sheetWidth(f, sheet)
	if err != nil {
		return err
	}

	matchedStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{fillYellow}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to build matched style: %w", err)
	}
	mismatchStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: fontRed},
	})
	if err != nil {
		return fmt.Errorf("failed to build mismatch style: %w", err)
	}
	noRecordStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{fillBlue}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to build no-record style: %w", err)
	}

	// Deterministic application order
	rows := make([]int, 0, len(outcomes))
	for idx := range outcomes {
		rows = append(rows, idx)
	}
	sort.Ints(rows)

	for _, idx := range rows {
		var style int
		switch outcomes[idx] {
		case matcher.OutcomeMatchedGrouped, matcher.OutcomeMatchedIndividual:
			style = matchedStyle
		case matcher.OutcomeMismatch:
			style = mismatchStyle
		case matcher.OutcomeNoSourceRecord:
			style = noRecordStyle
		default:
			// sibling-consumed rows keep whatever styling they had
			continue
		}
		if err := styleRow(f, sheet, idx, width, style); err != nil {
			return err
		}
	}

	if err := a.rebuildLogSheet(f, diags); err != nil {
		return err
	}

	a.logger.Info("annotated workbook", "rows", len(rows), "log_entries", len(diags))
	return nil
}

// rebuildLogSheet drops any previous 비교로그 sheet and writes a fresh one
func (a *Annotator) rebuildLogSheet(f *excelize.File, diags []matcher.Diagnostic) error {
	if idx, err := f.GetSheetIndex(LogSheet); err == nil && idx != -1 {
		if err := f.DeleteSheet(LogSheet); err != nil {
			return fmt.Errorf("failed to delete old log sheet: %w", err)
		}
	}
	if _, err := f.NewSheet(LogSheet); err != nil {
		return fmt.Errorf("failed to create log sheet: %w", err)
	}

	if err := writeLogRow(f, 1, logHeader); err != nil {
		return err
	}
	for i, d := range diags {
		values := []string{
			d.Guest,
			fmt.Sprintf("%d", d.LedgerRow),
			d.LedgerPrice,
			d.SourceFile,
			d.SourceRow,
			d.Compared,
			d.Raw,
		}
		if err := writeLogRow(f, i+2, values); err != nil {
			return err
		}
	}
	return nil
}

func writeLogRow(f *excelize.File, row int, values []string) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(LogSheet, cell, v); err != nil {
			return fmt.Errorf("failed to write log cell %s: %w", cell, err)
		}
	}
	return nil
}

func styleRow(f *excelize.File, sheet string, row, width, style int) error {
	start, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	end, err := excelize.CoordinatesToCellName(width, row)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, start, end, style); err != nil {
		return fmt.Errorf("failed to style row %d: %w", row, err)
	}
	return nil
}

// sheetWidth is the header row's column count; every annotated row is
// styled across the full header width.
func sheetWidth(f *excelize.File, sheet string) (int, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return 0, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 1, nil
	}
	return len(rows[0]), nil
}
