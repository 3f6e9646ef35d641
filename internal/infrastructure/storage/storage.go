// Package storage persists reconciliation run history to SQLite.
//
// The workbook itself is the system of record for match outcomes; this
// store keeps the run-over-run history (outcome counts, flagged rows,
// swallowed input problems) so runs can be compared and served over the
// reporting API.
package storage

import "time"

// RunRecord summarizes one reconciliation run
type RunRecord struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	LedgerPath string    `json:"ledger_path"`
	LedgerRows int       `json:"ledger_rows"`

	MatchedGrouped    int `json:"matched_grouped"`
	MatchedIndividual int `json:"matched_individual"`
	Mismatched        int `json:"mismatched"`
	NoSourceRecord    int `json:"no_source_record"`
	SiblingSkipped    int `json:"sibling_skipped"`
	SkippedInputs     int `json:"skipped_inputs"` // loader rows/files dropped

	Success      bool   `json:"success"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// RunDiagnostic is one flagged row or dropped input, tied to a run
type RunDiagnostic struct {
	RunID       string `json:"run_id"`
	Vendor      string `json:"vendor"`
	Kind        string `json:"kind"` // "mismatch", "no_source_record", "skipped_input"
	Guest       string `json:"guest,omitempty"`
	LedgerRow   int    `json:"ledger_row,omitempty"`
	LedgerPrice string `json:"ledger_price,omitempty"`
	SourceFile  string `json:"source_file,omitempty"`
	SourceRow   string `json:"source_row,omitempty"`
	Compared    string `json:"compared,omitempty"`
	Detail      string `json:"detail,omitempty"`
}

// Repository defines the run-history storage interface.
// Keeping it an interface makes the API handlers testable with mocks.
type Repository interface {
	SaveRun(run *RunRecord) error
	SaveDiagnostics(runID string, diags []RunDiagnostic) error
	GetRun(id string) (*RunRecord, error)
	ListRuns(limit int) ([]*RunRecord, error)
	ListDiagnostics(runID string) ([]RunDiagnostic, error)
	Close() error
}
