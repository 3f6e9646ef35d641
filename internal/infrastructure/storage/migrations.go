package storage

import (
	"database/sql"
	"fmt"
)

// Migration represents a database schema migration
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.Tx) error
}

// allMigrations defines all migrations in order
var allMigrations = []Migration{
	{
		Version: 1,
		Name:    "create_runs",
		Up:      migration001CreateRuns,
	},
	{
		Version: 2,
		Name:    "create_run_diagnostics",
		Up:      migration002CreateRunDiagnostics,
	},
}

// runMigrations executes all pending migrations
func (s *Storage) runMigrations() error {
	if err := s.ensureMigrationsTable(); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := s.appliedMigrations()
	if err != nil {
		return fmt.Errorf("failed to read applied migrations: %w", err)
	}

	for _, m := range allMigrations {
		if applied[m.Version] {
			continue
		}
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		if err := m.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version, name) VALUES (?, ?)", m.Version, m.Name); err != nil {
			_ = tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Storage) ensureMigrationsTable() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	return err
}

func (s *Storage) appliedMigrations() (map[int]bool, error) {
	rows, err := s.db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

func migration001CreateRuns(tx *sql.Tx) error {
	_, err := tx.Exec(`
	CREATE TABLE runs (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		ledger_path TEXT NOT NULL,
		ledger_rows INTEGER NOT NULL DEFAULT 0,
		matched_grouped INTEGER NOT NULL DEFAULT 0,
		matched_individual INTEGER NOT NULL DEFAULT 0,
		mismatched INTEGER NOT NULL DEFAULT 0,
		no_source_record INTEGER NOT NULL DEFAULT 0,
		sibling_skipped INTEGER NOT NULL DEFAULT 0,
		skipped_inputs INTEGER NOT NULL DEFAULT 0,
		success INTEGER NOT NULL DEFAULT 0,
		error_message TEXT NOT NULL DEFAULT ''
	)`)
	return err
}

func migration002CreateRunDiagnostics(tx *sql.Tx) error {
	_, err := tx.Exec(`
	CREATE TABLE run_diagnostics (
		run_id TEXT NOT NULL REFERENCES runs(id),
		vendor TEXT NOT NULL,
		kind TEXT NOT NULL,
		guest TEXT NOT NULL DEFAULT '',
		ledger_row INTEGER NOT NULL DEFAULT 0,
		ledger_price TEXT NOT NULL DEFAULT '',
		source_file TEXT NOT NULL DEFAULT '',
		source_row TEXT NOT NULL DEFAULT '',
		compared TEXT NOT NULL DEFAULT '',
		detail TEXT NOT NULL DEFAULT ''
	)`)
	if err != nil {
		return err
	}
	_, err = tx.Exec(`CREATE INDEX idx_run_diagnostics_run ON run_diagnostics(run_id)`)
	return err
}
