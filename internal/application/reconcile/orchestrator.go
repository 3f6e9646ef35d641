// Package reconcile ties the loaders, matcher, and annotator into one
// sequential batch run over the review result workbook.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/minwoo-dev/ota-recon/internal/domain/annotator"
	"github.com/minwoo-dev/ota-recon/internal/domain/ledger"
	"github.com/minwoo-dev/ota-recon/internal/domain/matcher"
	"github.com/minwoo-dev/ota-recon/internal/domain/statement"
	"github.com/minwoo-dev/ota-recon/internal/infrastructure/config"
	"github.com/minwoo-dev/ota-recon/internal/infrastructure/storage"
)

// Orchestrator runs one full reconciliation pass.
// Single-threaded and synchronous: the workbook is opened, fully mutated
// in memory, and saved once. Concurrent runs against the same result file
// are unsafe and must be serialized by the caller.
type Orchestrator struct {
	cfg    *config.Config
	repo   storage.Repository // nil disables run history
	logger *slog.Logger
}

// New creates an orchestrator
func New(cfg *config.Config, repo storage.Repository, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{cfg: cfg, repo: repo, logger: logger}
}

// Summary reports one run's outcome counts
type Summary struct {
	RunID         string
	LedgerRows    int
	Counts        map[matcher.Outcome]int
	SkippedInputs int
}

// Run executes the full pass: bootstrap/load ledger, load statements,
// match per vendor, annotate, save once, record history.
// Only a missing ledger source is fatal; per-row and per-file problems
// become diagnostics.
func (o *Orchestrator) Run(ctx context.Context) (*Summary, error) {
	started := time.Now()
	resultPath := o.cfg.ResultPath()

	if err := ledger.Bootstrap(resultPath, o.cfg.Paths.BaseDir, o.cfg.Paths.LedgerGlob, o.logger); err != nil {
		return nil, err
	}

	loader := ledger.NewLoader(o.cfg.Ledger, o.cfg.Vendors, o.logger)
	rows, err := loader.Load(resultPath)
	if err != nil {
		return nil, err
	}

	outcomes := make(map[int]matcher.Outcome)
	var diags []matcher.Diagnostic
	var skipped []statement.Skipped

	for _, vr := range o.vendorRuns() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !vr.cfg.Enabled {
			o.logger.Info("vendor disabled, skipping", "vendor", string(vr.spec.Vendor))
			continue
		}

		stmts, sk := o.loadStatements(vr)
		skipped = append(skipped, sk...)

		v := matcher.NewEngine(vr.spec, o.logger).Run(rows, stmts)
		for idx, outcome := range v.Outcomes {
			outcomes[idx] = outcome
		}
		diags = append(diags, v.Diagnostics...)
	}

	f, err := excelize.OpenFile(resultPath)
	if err != nil {
		return nil, fmt.Errorf("failed to reopen result workbook: %w", err)
	}
	defer f.Close()

	if err := annotator.New(o.logger).Apply(f, outcomes, diags); err != nil {
		return nil, err
	}
	if err := f.Save(); err != nil {
		return nil, fmt.Errorf("failed to save result workbook: %w", err)
	}

	summary := &Summary{
		RunID:         uuid.New().String(),
		LedgerRows:    len(rows),
		Counts:        countOutcomes(outcomes),
		SkippedInputs: len(skipped),
	}

	o.logger.Info("reconciliation finished",
		"result", resultPath,
		"rows", summary.LedgerRows,
		"matched_grouped", summary.Counts[matcher.OutcomeMatchedGrouped],
		"matched_individual", summary.Counts[matcher.OutcomeMatchedIndividual],
		"mismatched", summary.Counts[matcher.OutcomeMismatch],
		"no_source_record", summary.Counts[matcher.OutcomeNoSourceRecord],
		"sibling_skipped", summary.Counts[matcher.OutcomeSiblingConsumed],
		"skipped_inputs", summary.SkippedInputs,
		"elapsed", time.Since(started).Round(time.Millisecond))

	if o.repo != nil {
		if err := o.recordRun(summary, resultPath, started, diags, skipped); err != nil {
			// History is advisory; the workbook is already saved
			o.logger.Warn("failed to record run history", "error", err)
		}
	}
	return summary, nil
}

// vendorRun pairs a matcher spec with its vendor config
type vendorRun struct {
	spec matcher.Spec
	cfg  config.VendorConfig
}

// Vendor order is fixed; with greedy matching the order is part of the
// observable behavior.
func (o *Orchestrator) vendorRuns() []vendorRun {
	return []vendorRun{
		{spec: matcher.AgodaSpec(), cfg: o.cfg.Vendors.Agoda},
		{spec: matcher.BookingSpec(), cfg: o.cfg.Vendors.Booking},
		{spec: matcher.ExpediaSpec(o.cfg.Vendors.Expedia.Tolerance), cfg: o.cfg.Vendors.Expedia},
	}
}

func (o *Orchestrator) loadStatements(vr vendorRun) ([]statement.Record, []statement.Skipped) {
	paths, err := statement.Discover(o.cfg.StatementPath(), vr.cfg.FileGlob)
	if err != nil {
		o.logger.Warn("statement discovery failed", "vendor", string(vr.spec.Vendor), "error", err)
		return nil, nil
	}
	if len(paths) == 0 {
		o.logger.Info("no statement files found", "vendor", string(vr.spec.Vendor), "glob", vr.cfg.FileGlob)
	}

	var stmts []statement.Record
	var skipped []statement.Skipped
	switch vr.spec.Vendor {
	case ledger.VendorAgoda:
		stmts, skipped = statement.LoadAgoda(paths, vr.cfg.Ratio)
	case ledger.VendorBooking:
		stmts, skipped = statement.LoadBooking(paths, vr.cfg.Ratio)
	case ledger.VendorExpedia:
		stmts, skipped = statement.LoadExpedia(paths, vr.cfg.Ratio)
	}

	for _, sk := range skipped {
		o.logger.Warn("skipped statement input", "vendor", string(sk.Vendor), "file", sk.File, "row", sk.Row, "reason", sk.Reason)
	}
	o.logger.Info("loaded statements", "vendor", string(vr.spec.Vendor), "files", len(paths), "records", len(stmts), "skipped", len(skipped))
	return stmts, skipped
}

// recordRun persists the run summary and its diagnostics
func (o *Orchestrator) recordRun(s *Summary, resultPath string, started time.Time, diags []matcher.Diagnostic, skipped []statement.Skipped) error {
	run := &storage.RunRecord{
		ID:                s.RunID,
		StartedAt:         started,
		FinishedAt:        time.Now(),
		LedgerPath:        resultPath,
		LedgerRows:        s.LedgerRows,
		MatchedGrouped:    s.Counts[matcher.OutcomeMatchedGrouped],
		MatchedIndividual: s.Counts[matcher.OutcomeMatchedIndividual],
		Mismatched:        s.Counts[matcher.OutcomeMismatch],
		NoSourceRecord:    s.Counts[matcher.OutcomeNoSourceRecord],
		SiblingSkipped:    s.Counts[matcher.OutcomeSiblingConsumed],
		SkippedInputs:     len(skipped),
		Success:           true,
	}
	if err := o.repo.SaveRun(run); err != nil {
		return err
	}

	records := make([]storage.RunDiagnostic, 0, len(diags)+len(skipped))
	for _, d := range diags {
		records = append(records, storage.RunDiagnostic{
			RunID:       s.RunID,
			Vendor:      string(d.Vendor),
			Kind:        string(d.Outcome),
			Guest:       d.Guest,
			LedgerRow:   d.LedgerRow,
			LedgerPrice: d.LedgerPrice,
			SourceFile:  d.SourceFile,
			SourceRow:   d.SourceRow,
			Compared:    d.Compared,
		})
	}
	for _, sk := range skipped {
		records = append(records, storage.RunDiagnostic{
			RunID:      s.RunID,
			Vendor:     string(sk.Vendor),
			Kind:       "skipped_input",
			SourceFile: sk.File,
			SourceRow:  fmt.Sprintf("%d", sk.Row),
			Detail:     sk.Reason,
		})
	}
	return o.repo.SaveDiagnostics(s.RunID, records)
}

func countOutcomes(outcomes map[int]matcher.Outcome) map[matcher.Outcome]int {
	counts := make(map[matcher.Outcome]int)
	for _, o := range outcomes {
		counts[o]++
	}
	return counts
}
