package api

import (
	"time"

	"github.com/minwoo-dev/ota-recon/internal/infrastructure/storage"
)

// RunResponse is one reconciliation run as served to the dashboard
type RunResponse struct {
	ID                string `json:"id"`
	StartedAt         string `json:"started_at"`
	FinishedAt        string `json:"finished_at"`
	LedgerPath        string `json:"ledger_path"`
	LedgerRows        int    `json:"ledger_rows"`
	MatchedGrouped    int    `json:"matched_grouped"`
	MatchedIndividual int    `json:"matched_individual"`
	Mismatched        int    `json:"mismatched"`
	NoSourceRecord    int    `json:"no_source_record"`
	SiblingSkipped    int    `json:"sibling_skipped"`
	SkippedInputs     int    `json:"skipped_inputs"`
	Success           bool   `json:"success"`
}

// DiagnosticResponse is one diagnostic line of a run
type DiagnosticResponse struct {
	Vendor      string `json:"vendor"`
	Kind        string `json:"kind"`
	Guest       string `json:"guest,omitempty"`
	LedgerRow   int    `json:"ledger_row,omitempty"`
	LedgerPrice string `json:"ledger_price,omitempty"`
	SourceFile  string `json:"source_file,omitempty"`
	SourceRow   string `json:"source_row,omitempty"`
	Compared    string `json:"compared,omitempty"`
	Detail      string `json:"detail,omitempty"`
}

// StatsResponse aggregates outcome totals over recent runs
type StatsResponse struct {
	TotalRuns         int          `json:"total_runs"`
	MatchedGrouped    int          `json:"matched_grouped"`
	MatchedIndividual int          `json:"matched_individual"`
	Mismatched        int          `json:"mismatched"`
	NoSourceRecord    int          `json:"no_source_record"`
	LatestRun         *RunResponse `json:"latest_run,omitempty"`
}

func toRunResponse(run *storage.RunRecord) RunResponse {
	return RunResponse{
		ID:                run.ID,
		StartedAt:         run.StartedAt.Format(time.RFC3339),
		FinishedAt:        run.FinishedAt.Format(time.RFC3339),
		LedgerPath:        run.LedgerPath,
		LedgerRows:        run.LedgerRows,
		MatchedGrouped:    run.MatchedGrouped,
		MatchedIndividual: run.MatchedIndividual,
		Mismatched:        run.Mismatched,
		NoSourceRecord:    run.NoSourceRecord,
		SiblingSkipped:    run.SiblingSkipped,
		SkippedInputs:     run.SkippedInputs,
		Success:           run.Success,
	}
}

func toDiagnosticResponse(d storage.RunDiagnostic) DiagnosticResponse {
	return DiagnosticResponse{
		Vendor:      d.Vendor,
		Kind:        d.Kind,
		Guest:       d.Guest,
		LedgerRow:   d.LedgerRow,
		LedgerPrice: d.LedgerPrice,
		SourceFile:  d.SourceFile,
		SourceRow:   d.SourceRow,
		Compared:    d.Compared,
		Detail:      d.Detail,
	}
}
