package statement

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/minwoo-dev/ota-recon/internal/domain/ledger"
)

// Agoda remittance export layout. The guest name sits in the 4th column;
// the amount column naming is inconsistent between exports, so amounts are
// scanned across every candidate column, with a fixed G/H fallback.
const (
	agodaGuestCol = 3 // 0-based
)

var agodaAmountFallback = []int{6, 7}

// LoadAgoda reads Remittances*.xlsx exports into records.
// A row yields one record per candidate column that parses as a number: the
// export sometimes splits the payout across two amount columns and the
// matcher treats each value as independently claimable.
func LoadAgoda(paths []string, ratio float64) ([]Record, []Skipped) {
	var records []Record
	var skipped []Skipped

	for _, path := range paths {
		recs, sk := loadAgodaFile(path, ratio)
		records = append(records, recs...)
		skipped = append(skipped, sk...)
	}
	return records, skipped
}

func loadAgodaFile(path string, ratio float64) ([]Record, []Skipped) {
	base := filepath.Base(path)

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, []Skipped{{Vendor: ledger.VendorAgoda, File: base, Reason: fmt.Sprintf("open failed: %v", err)}}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, []Skipped{{Vendor: ledger.VendorAgoda, File: base, Reason: "workbook has no sheets"}}
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, []Skipped{{Vendor: ledger.VendorAgoda, File: base, Reason: fmt.Sprintf("read failed: %v", err)}}
	}
	if len(rows) < 2 {
		return nil, nil
	}

	amountCols := agodaAmountColumns(rows[0])

	var records []Record
	var skipped []Skipped
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		name := strings.TrimSpace(cellAt(row, agodaGuestCol))
		if name == "" {
			skipped = append(skipped, Skipped{
				Vendor: ledger.VendorAgoda, File: base, Row: i + 1,
				Reason: "empty guest name",
			})
			continue
		}

		found := false
		for _, col := range amountCols {
			amount, ok := ledger.ParsePrice(cellAt(row, col))
			if !ok {
				continue
			}
			found = true
			records = append(records, Record{
				Vendor:     ledger.VendorAgoda,
				RawKey:     name,
				Amount:     amount,
				Adjusted:   amount * ratio,
				SourceFile: base,
				SourceRow:  i + 1,
				PayoutDate: strings.TrimSpace(cellAt(row, 0)),
			})
		}
		if !found {
			skipped = append(skipped, Skipped{
				Vendor: ledger.VendorAgoda, File: base, Row: i + 1,
				Reason: "no parseable amount in candidate columns",
			})
		}
	}
	return records, skipped
}

// agodaAmountColumns picks the columns to scan for amounts: any header
// containing an amount-like keyword or an Unnamed pandas artifact, else the
// fixed G/H pair.
func agodaAmountColumns(headers []string) []int {
	var cols []int
	for i, h := range headers {
		if strings.Contains(h, "금액") || strings.Contains(h, "Amount") || strings.HasPrefix(h, "Unnamed") {
			cols = append(cols, i)
		}
	}
	if len(cols) == 0 {
		cols = append(cols, agodaAmountFallback...)
	}
	return cols
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
