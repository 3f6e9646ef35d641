package matcher

import (
	"log/slog"
	"math"

	"github.com/minwoo-dev/ota-recon/internal/domain/ledger"
	"github.com/minwoo-dev/ota-recon/internal/domain/statement"
)

// Engine runs the two-stage match for a single vendor
type Engine struct {
	spec   Spec
	logger *slog.Logger
}

// NewEngine creates an engine for the given vendor spec
func NewEngine(spec Spec, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{spec: spec, logger: logger}
}

// stmtEntry wraps a statement record with its consumption flag. A record
// consumed by a strict price match must not satisfy a second group or row.
type stmtEntry struct {
	rec  statement.Record
	used bool
}

// Run classifies every ledger row belonging to the engine's vendor.
// Rows of other vendors are ignored and stay unclassified.
func (e *Engine) Run(rows []ledger.Row, stmts []statement.Record) *Verdicts {
	v := &Verdicts{Outcomes: make(map[int]Outcome)}

	// Index statement records by match key, preserving file-concatenation
	// order within each key.
	byKey := make(map[string][]*stmtEntry)
	for _, s := range stmts {
		k := e.spec.StatementKey(s)
		if k == "" {
			continue
		}
		byKey[k] = append(byKey[k], &stmtEntry{rec: s})
	}

	var vendorRows []ledger.Row
	for _, r := range rows {
		if r.Vendor == e.spec.Vendor {
			vendorRows = append(vendorRows, r)
		}
	}

	resolved := make(map[int]bool)
	if e.spec.Grouping != GroupNone {
		e.runGroupStage(vendorRows, byKey, v, resolved)
	}
	e.runIndividualStage(vendorRows, byKey, v, resolved)

	e.logger.Info("vendor matching finished",
		"vendor", string(e.spec.Vendor),
		"rows", len(vendorRows),
		"statements", len(stmts),
		"diagnostics", len(v.Diagnostics))
	return v
}

// runGroupStage sums each key group's resolved prices and tries to settle
// the whole group against the vendor's statement amounts.
func (e *Engine) runGroupStage(vendorRows []ledger.Row, byKey map[string][]*stmtEntry, v *Verdicts, resolved map[int]bool) {
	var order []string
	groups := make(map[string][]ledger.Row)
	for _, r := range vendorRows {
		k := e.spec.LedgerKey(r)
		if k == "" {
			continue
		}
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], r)
	}

	for _, k := range order {
		group := groups[k]
		sum := 0.0
		for _, r := range group {
			if p, ok := r.ComparePrice(); ok {
				sum += p
			}
		}

		matched := false
		switch e.spec.Grouping {
		case GroupSumVsAny:
			// First unused equal wins; each statement amount is claimable
			// at most once across the whole run.
			for _, en := range byKey[k] {
				if en.used {
					continue
				}
				if e.amountsEqual(en.rec.Adjusted, sum) {
					en.used = true
					matched = true
					break
				}
			}
		case GroupSumVsTotal:
			entries := byKey[k]
			total := 0.0
			unused := false
			for _, en := range entries {
				if !en.used {
					total += en.rec.Adjusted
					unused = true
				}
			}
			if unused && e.amountsEqual(total, sum) {
				for _, en := range entries {
					en.used = true
				}
				matched = true
			}
		}

		if matched {
			e.logger.Debug("group matched", "vendor", string(e.spec.Vendor), "key", k, "sum", sum, "rows", len(group))
			for _, r := range group {
				v.Outcomes[r.Index] = OutcomeMatchedGrouped
				resolved[r.Index] = true
			}
		}
	}
}

// runIndividualStage settles each remaining row on its own price.
func (e *Engine) runIndividualStage(vendorRows []ledger.Row, byKey map[string][]*stmtEntry, v *Verdicts, resolved map[int]bool) {
	// Consumption credits: each individual match banks one credit on its
	// key so a sibling row that fails only because the record was already
	// claimed is skipped instead of flagged.
	credits := make(map[string]int)

	for _, r := range vendorRows {
		if resolved[r.Index] {
			continue
		}

		k := e.spec.LedgerKey(r)
		entries := byKey[k]
		if len(entries) == 0 {
			v.Outcomes[r.Index] = OutcomeNoSourceRecord
			v.Diagnostics = append(v.Diagnostics, e.noRecordDiagnostic(r))
			continue
		}

		price, hasPrice := r.ComparePrice()

		var matchedEntry *stmtEntry
		if hasPrice {
			for _, en := range entries {
				if en.used {
					continue
				}
				if e.amountsEqual(en.rec.Adjusted, price) {
					matchedEntry = en
					break
				}
			}
		}

		if matchedEntry != nil {
			matchedEntry.used = true
			credits[k]++
			v.Outcomes[r.Index] = OutcomeMatchedIndividual
			continue
		}

		if credits[k] > 0 {
			credits[k]--
			v.Outcomes[r.Index] = OutcomeSiblingConsumed
			e.logger.Debug("sibling already claimed the record, skipping",
				"vendor", string(e.spec.Vendor), "key", k, "row", r.Index)
			continue
		}

		v.Outcomes[r.Index] = OutcomeMismatch
		v.Diagnostics = append(v.Diagnostics, e.mismatchDiagnostic(r, price, hasPrice, entries[0]))
	}
}

// amountsEqual applies the vendor's equality policy: an absolute tolerance
// band when configured, exact equality after integer rounding otherwise.
func (e *Engine) amountsEqual(stmtAmount, ledgerAmount float64) bool {
	if e.spec.Tolerance > 0 {
		return math.Abs(stmtAmount-ledgerAmount) <= e.spec.Tolerance
	}
	return math.Round(stmtAmount) == math.Round(ledgerAmount)
}

func (e *Engine) noRecordDiagnostic(r ledger.Row) Diagnostic {
	return Diagnostic{
		Vendor:      e.spec.Vendor,
		Outcome:     OutcomeNoSourceRecord,
		Guest:       r.Guest,
		LedgerRow:   r.Index,
		LedgerPrice: priceText(r),
		SourceFile:  "-",
		SourceRow:   "-",
		Compared:    "-",
		Raw:         "-",
	}
}

// mismatchDiagnostic records the first compared candidate, mirroring the
// greedy order: the reviewer sees the same record the matcher saw first.
func (e *Engine) mismatchDiagnostic(r ledger.Row, price float64, hasPrice bool, first *stmtEntry) Diagnostic {
	d := Diagnostic{
		Vendor:      e.spec.Vendor,
		Outcome:     OutcomeMismatch,
		Guest:       r.Guest,
		LedgerRow:   r.Index,
		LedgerPrice: "-",
		SourceFile:  first.rec.SourceFile,
		SourceRow:   formatRow(first.rec.SourceRow),
		Compared:    formatAmount(first.rec.Adjusted),
		Raw:         formatAmount(first.rec.Amount),
	}
	if hasPrice {
		d.LedgerPrice = formatAmount(price)
	}
	return d
}

func priceText(r ledger.Row) string {
	if p, ok := r.ComparePrice(); ok {
		return formatAmount(p)
	}
	return "-"
}

func formatRow(n int) string {
	if n <= 0 {
		return "-"
	}
	return formatAmount(float64(n))
}
