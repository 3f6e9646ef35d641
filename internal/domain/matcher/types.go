// Package matcher is the reconciliation core: it classifies every ledger
// row of a handled vendor against that vendor's payout statement records.
//
// Matching is greedy and order-dependent by design — first fit on whichever
// statement record appears first in file-concatenation order. The diagnostic
// log and the review workflow are built around the specific rows this
// flags, so a globally optimal assignment would be a behavior change, not
// an improvement.
package matcher

import (
	"strconv"

	"github.com/minwoo-dev/ota-recon/internal/domain/ledger"
	"github.com/minwoo-dev/ota-recon/internal/domain/normalize"
	"github.com/minwoo-dev/ota-recon/internal/domain/statement"
)

// Outcome is the terminal classification of one ledger row
type Outcome string

const (
	// OutcomeMatchedGrouped: the row's group sum matched one statement amount
	OutcomeMatchedGrouped Outcome = "matched_grouped"
	// OutcomeMatchedIndividual: the row's own price matched a statement amount
	OutcomeMatchedIndividual Outcome = "matched_individual"
	// OutcomeNoSourceRecord: no statement record shares the row's match key
	OutcomeNoSourceRecord Outcome = "no_source_record"
	// OutcomeMismatch: statement records exist for the key but none agree on amount
	OutcomeMismatch Outcome = "mismatch"
	// OutcomeSiblingConsumed: a sibling row already claimed the only matching
	// statement record; the row is skipped silently instead of being flagged
	OutcomeSiblingConsumed Outcome = "sibling_consumed"
)

// Grouping selects the Stage A strategy for a vendor
type Grouping int

const (
	// GroupNone skips Stage A entirely
	GroupNone Grouping = iota
	// GroupSumVsAny compares the group sum against each individual statement
	// amount for the key, consuming the first unused equal (Agoda)
	GroupSumVsAny
	// GroupSumVsTotal compares the group sum against the summed adjusted
	// statement amount for the key (Booking.com)
	GroupSumVsTotal
)

// Spec parametrizes the engine for one vendor. The three production specs
// collapse what used to be three near-duplicate matching scripts.
type Spec struct {
	Vendor       ledger.Vendor
	LedgerKey    func(ledger.Row) string
	StatementKey func(statement.Record) string
	Grouping     Grouping
	Tolerance    float64 // absolute band; 0 means exact after integer rounding
}

// AgodaSpec matches on normalized guest name; grouped sums are compared
// against each individual remittance amount for that guest.
func AgodaSpec() Spec {
	return Spec{
		Vendor:       ledger.VendorAgoda,
		LedgerKey:    func(r ledger.Row) string { return normalize.Key(r.Guest) },
		StatementKey: func(s statement.Record) string { return normalize.Key(s.RawKey) },
		Grouping:     GroupSumVsAny,
	}
}

// BookingRefPrefixLen is how much of a Booking.com reference is stable;
// longer references get truncated/padded inconsistently between exports.
const BookingRefPrefixLen = 10

// BookingSpec matches on the first 10 characters of the normalized
// reservation reference; grouped sums are compared against the summed
// adjusted payout for the prefix.
func BookingSpec() Spec {
	return Spec{
		Vendor:       ledger.VendorBooking,
		LedgerKey:    func(r ledger.Row) string { return normalize.KeyPrefix(r.Reference, BookingRefPrefixLen) },
		StatementKey: func(s statement.Record) string { return normalize.KeyPrefix(s.RawKey, BookingRefPrefixLen) },
		Grouping:     GroupSumVsTotal,
	}
}

// ExpediaSpec matches on the normalized reservation reference, individual
// rows only, within an absolute tolerance band: Expedia's reported amount
// and the ledger price routinely differ by small rounding/fee amounts.
func ExpediaSpec(tolerance float64) Spec {
	return Spec{
		Vendor:       ledger.VendorExpedia,
		LedgerKey:    func(r ledger.Row) string { return normalize.Key(r.Reference) },
		StatementKey: func(s statement.Record) string { return normalize.Key(s.RawKey) },
		Grouping:     GroupNone,
		Tolerance:    tolerance,
	}
}

// Diagnostic is one row of the 비교로그 sheet: produced for every Mismatch
// and NoSourceRecord outcome.
type Diagnostic struct {
	Vendor      ledger.Vendor
	Outcome     Outcome
	Guest       string
	LedgerRow   int
	LedgerPrice string // resolved comparison price, or "-" when absent
	SourceFile  string // "-" when no statement record was available
	SourceRow   string
	Compared    string // the adjusted amount that was compared, or "-"
	Raw         string // the statement's raw amount, or "-"
}

// Verdicts is the result of one engine pass over one vendor
type Verdicts struct {
	Outcomes    map[int]Outcome // ledger row index → outcome
	Diagnostics []Diagnostic
}

// Counts returns the number of rows per outcome
func (v *Verdicts) Counts() map[Outcome]int {
	counts := make(map[Outcome]int)
	for _, o := range v.Outcomes {
		counts[o]++
	}
	return counts
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
