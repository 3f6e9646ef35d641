package statement

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/minwoo-dev/ota-recon/internal/domain/ledger"
)

// Booking.com payout CSV layout (1-based): reservation reference in column
// 2, payout amount in column 9. The reported amount is in the OTA's payout
// currency; the ratio (0.82 in production) folds the currency/markup
// correction into the adjusted amount.
const (
	bookingRefCol    = 1 // 0-based
	bookingAmountCol = 8
)

// LoadBooking reads Booking.com payout CSV exports into records
func LoadBooking(paths []string, ratio float64) ([]Record, []Skipped) {
	var records []Record
	var skipped []Skipped

	for _, path := range paths {
		recs, sk := loadCSVFile(path, ledger.VendorBooking, func(row []string) (Record, error) {
			ref := strings.TrimSpace(cellAt(row, bookingRefCol))
			if ref == "" {
				return Record{}, fmt.Errorf("empty reservation reference")
			}
			amount, ok := ledger.ParsePrice(cellAt(row, bookingAmountCol))
			if !ok {
				return Record{}, fmt.Errorf("unparseable amount %q", cellAt(row, bookingAmountCol))
			}
			return Record{
				Vendor:   ledger.VendorBooking,
				RawKey:   ref,
				Amount:   amount,
				Adjusted: amount * ratio,
			}, nil
		})
		records = append(records, recs...)
		skipped = append(skipped, sk...)
	}
	return records, skipped
}

// loadCSVFile reads one CSV export, treating row 1 as the header. Rows that
// fail to parse are skipped with a diagnostic; the rest of the file still
// contributes.
func loadCSVFile(path string, vendor ledger.Vendor, parse func([]string) (Record, error)) ([]Record, []Skipped) {
	base := filepath.Base(path)

	f, err := os.Open(path)
	if err != nil {
		return nil, []Skipped{{Vendor: vendor, File: base, Reason: fmt.Sprintf("open failed: %v", err)}}
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, []Skipped{{Vendor: vendor, File: base, Reason: fmt.Sprintf("csv read failed: %v", err)}}
	}

	var records []Record
	var skipped []Skipped
	for i := 1; i < len(rows); i++ {
		rec, err := parse(rows[i])
		if err != nil {
			skipped = append(skipped, Skipped{Vendor: vendor, File: base, Row: i + 1, Reason: err.Error()})
			continue
		}
		rec.SourceFile = base
		rec.SourceRow = i + 1
		records = append(records, rec)
	}
	return records, skipped
}
