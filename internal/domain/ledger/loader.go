package ledger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/minwoo-dev/ota-recon/internal/infrastructure/config"
)

// Loader reads the review result workbook into Row records
type Loader struct {
	keywords config.LedgerConfig
	vendors  config.VendorsConfig
	logger   *slog.Logger
}

// NewLoader creates a ledger loader
func NewLoader(keywords config.LedgerConfig, vendors config.VendorsConfig, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{keywords: keywords, vendors: vendors, logger: logger}
}

// Bootstrap makes sure the review result workbook exists. When missing, the
// most recent dated full-customer-list file (by name, the names embed dates)
// is copied into place. With no source file either, reconciliation has
// nothing to work against and the run must stop before any write.
func Bootstrap(resultPath, baseDir, ledgerGlob string, logger *slog.Logger) error {
	if _, err := os.Stat(resultPath); err == nil {
		return nil
	}

	pattern := filepath.Join(baseDir, ledgerGlob)
	candidates, err := filepath.Glob(pattern)
	if err != nil {
		return fmt.Errorf("bad ledger glob %q: %w", pattern, err)
	}
	if len(candidates) == 0 {
		return fmt.Errorf("no result workbook at %s and no source files matching %s: nothing to reconcile", resultPath, pattern)
	}
	sort.Strings(candidates)
	latest := candidates[len(candidates)-1]

	if err := copyFile(latest, resultPath); err != nil {
		return fmt.Errorf("failed to bootstrap result workbook from %s: %w", latest, err)
	}
	if logger != nil {
		logger.Info("bootstrapped result workbook", "source", latest, "result", resultPath)
	}
	return nil
}

// Load reads the first sheet of the workbook into Row records.
// Row 1 is the header; data rows keep their 1-based spreadsheet index so the
// annotator can style the exact rows later.
func (l *Loader) Load(path string) ([]Row, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger workbook %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("ledger workbook %s has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	cols := Columns{
		Guest:     ResolveColumn(rows[0], l.keywords.GuestKeyword),
		Room:      ResolveColumn(rows[0], l.keywords.RoomKeyword),
		Total:     ResolveColumn(rows[0], l.keywords.TotalKeyword),
		Vendor:    ResolveColumn(rows[0], l.keywords.VendorKeyword),
		Reference: ResolveColumn(rows[0], l.keywords.ReferenceKeyword),
	}
	l.logger.Debug("resolved ledger columns",
		"guest", cols.Guest, "room", cols.Room, "total", cols.Total,
		"vendor", cols.Vendor, "reference", cols.Reference)

	out := make([]Row, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		r := Row{Index: i + 1}

		r.Guest = strings.TrimSpace(cell(rows[i], cols.Guest))
		r.Vendor = l.classifyVendor(cell(rows[i], cols.Vendor))
		// Numeric references picked up as floats leave a ".0" artifact
		r.Reference = strings.TrimSuffix(strings.TrimSpace(cell(rows[i], cols.Reference)), ".0")

		if v, ok := ParsePrice(cell(rows[i], cols.Room)); ok {
			r.RoomPrice, r.HasRoomPrice = v, true
		}
		if v, ok := ParsePrice(cell(rows[i], cols.Total)); ok {
			r.TotalPrice, r.HasTotalPrice = v, true
		}

		out = append(out, r)
	}

	l.logger.Info("loaded ledger", "path", path, "rows", len(out))
	return out, nil
}

// classifyVendor maps the ledger's vendor cell onto a Vendor. Labels are
// exact values the hotel staff enter (e.g. "아고다"); anything else is left
// unhandled.
func (l *Loader) classifyVendor(raw string) Vendor {
	switch strings.TrimSpace(raw) {
	case l.vendors.Agoda.Label:
		return VendorAgoda
	case l.vendors.Booking.Label:
		return VendorBooking
	case l.vendors.Expedia.Label:
		return VendorExpedia
	default:
		return VendorOther
	}
}

// cell returns column idx of a row, tolerating short rows.
// excelize trims trailing empty cells from GetRows output.
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
