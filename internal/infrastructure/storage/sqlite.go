package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Storage provides SQLite-backed run history.
// It implements the Repository interface.
type Storage struct {
	db *sql.DB
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// NewStorage opens (and migrates) the run-history database
func NewStorage(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Storage{db: db}
	if err := s.runMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// SaveRun inserts or replaces a run summary
func (s *Storage) SaveRun(run *RunRecord) error {
	query := `
	INSERT OR REPLACE INTO runs
	(id, started_at, finished_at, ledger_path, ledger_rows,
	 matched_grouped, matched_individual, mismatched, no_source_record,
	 sibling_skipped, skipped_inputs, success, error_message)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query,
		run.ID,
		run.StartedAt.Format(time.RFC3339),
		run.FinishedAt.Format(time.RFC3339),
		run.LedgerPath,
		run.LedgerRows,
		run.MatchedGrouped,
		run.MatchedIndividual,
		run.Mismatched,
		run.NoSourceRecord,
		run.SiblingSkipped,
		run.SkippedInputs,
		run.Success,
		run.ErrorMessage,
	)
	return err
}

// SaveDiagnostics stores the run's flagged rows and dropped inputs
func (s *Storage) SaveDiagnostics(runID string, diags []RunDiagnostic) error {
	if len(diags) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
	INSERT INTO run_diagnostics
	(run_id, vendor, kind, guest, ledger_row, ledger_price, source_file, source_row, compared, detail)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, d := range diags {
		if _, err := stmt.Exec(runID, d.Vendor, d.Kind, d.Guest, d.LedgerRow,
			d.LedgerPrice, d.SourceFile, d.SourceRow, d.Compared, d.Detail); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetRun retrieves one run by ID
func (s *Storage) GetRun(id string) (*RunRecord, error) {
	row := s.db.QueryRow(`
	SELECT id, started_at, finished_at, ledger_path, ledger_rows,
	       matched_grouped, matched_individual, mismatched, no_source_record,
	       sibling_skipped, skipped_inputs, success, error_message
	FROM runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return run, err
}

// ListRuns returns the most recent runs, newest first
func (s *Storage) ListRuns(limit int) ([]*RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
	SELECT id, started_at, finished_at, ledger_path, ledger_rows,
	       matched_grouped, matched_individual, mismatched, no_source_record,
	       sibling_skipped, skipped_inputs, success, error_message
	FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ListDiagnostics returns all diagnostics for a run in insertion order
func (s *Storage) ListDiagnostics(runID string) ([]RunDiagnostic, error) {
	rows, err := s.db.Query(`
	SELECT run_id, vendor, kind, guest, ledger_row, ledger_price, source_file, source_row, compared, detail
	FROM run_diagnostics WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var diags []RunDiagnostic
	for rows.Next() {
		var d RunDiagnostic
		if err := rows.Scan(&d.RunID, &d.Vendor, &d.Kind, &d.Guest, &d.LedgerRow,
			&d.LedgerPrice, &d.SourceFile, &d.SourceRow, &d.Compared, &d.Detail); err != nil {
			return nil, err
		}
		diags = append(diags, d)
	}
	return diags, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(r rowScanner) (*RunRecord, error) {
	var run RunRecord
	var started, finished string
	if err := r.Scan(&run.ID, &started, &finished, &run.LedgerPath, &run.LedgerRows,
		&run.MatchedGrouped, &run.MatchedIndividual, &run.Mismatched, &run.NoSourceRecord,
		&run.SiblingSkipped, &run.SkippedInputs, &run.Success, &run.ErrorMessage); err != nil {
		return nil, err
	}
	if t, err := time.Parse(time.RFC3339, started); err == nil {
		run.StartedAt = t
	}
	if t, err := time.Parse(time.RFC3339, finished); err == nil {
		run.FinishedAt = t
	}
	return &run, nil
}
