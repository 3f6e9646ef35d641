// Package statement loads per-vendor OTA payout exports into records the
// matcher can consume. One loader per vendor: each OTA's export uses a
// different layout, currency, and adjustment ratio.
package statement

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/minwoo-dev/ota-recon/internal/domain/ledger"
)

// Record is one OTA payout line.
// Adjusted is always derived from Amount and the vendor's fixed ratio,
// never set independently.
type Record struct {
	Vendor   ledger.Vendor
	RawKey   string  // guest name (Agoda) or reservation reference (Booking/Expedia), as exported
	Amount   float64 // native payout currency
	Adjusted float64 // Amount × vendor ratio

	SourceFile string // base name, for the diagnostic log
	SourceRow  int    // 1-based row in the source file, header included

	PayoutDate string // informational only; not used in matching
}

// Skipped describes one row or file the loader dropped. Partial data beats
// total failure here: a human audits the annotated workbook afterwards, so
// load problems surface as diagnostics instead of aborting the run.
type Skipped struct {
	Vendor ledger.Vendor
	File   string
	Row    int // 0 for whole-file failures
	Reason string
}

func (s Skipped) String() string {
	if s.Row == 0 {
		return fmt.Sprintf("%s %s: %s", s.Vendor, s.File, s.Reason)
	}
	return fmt.Sprintf("%s %s row %d: %s", s.Vendor, s.File, s.Row, s.Reason)
}

// Discover lists statement files matching the vendor's naming convention,
// sorted by name. The sort order fixes the file-concatenation order, which
// in turn fixes the matcher's greedy first-fit behavior.
func Discover(dir, glob string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, glob))
	if err != nil {
		return nil, fmt.Errorf("bad statement glob %q: %w", glob, err)
	}
	sort.Strings(paths)
	return paths, nil
}
