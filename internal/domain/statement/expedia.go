package statement

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/minwoo-dev/ota-recon/internal/domain/ledger"
)

// Expedia payout CSV layout (1-based): reservation reference in column 1,
// processed amount in column 6. Amounts arrive as "KRW 538,000"-style text;
// everything except digits and the decimal point is stripped before parsing.
// No ratio adjustment: the report is already in ledger currency.
const (
	expediaRefCol    = 0 // 0-based
	expediaAmountCol = 5
)

var nonNumeric = regexp.MustCompile(`[^0-9.]`)

// LoadExpedia reads Expedia payout CSV exports into records
func LoadExpedia(paths []string, ratio float64) ([]Record, []Skipped) {
	var records []Record
	var skipped []Skipped

	for _, path := range paths {
		recs, sk := loadCSVFile(path, ledger.VendorExpedia, func(row []string) (Record, error) {
			ref := strings.TrimSpace(cellAt(row, expediaRefCol))
			if ref == "" {
				return Record{}, fmt.Errorf("empty reservation reference")
			}
			amount, err := parseExpediaAmount(cellAt(row, expediaAmountCol))
			if err != nil {
				return Record{}, err
			}
			return Record{
				Vendor:   ledger.VendorExpedia,
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

func parseExpediaAmount(raw string) (float64, error) {
	cleaned := nonNumeric.ReplaceAllString(raw, "")
	if cleaned == "" {
		return 0, fmt.Errorf("unparseable amount %q", raw)
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable amount %q", raw)
	}
	return v, nil
}
