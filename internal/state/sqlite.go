package state

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const schemaVersion = 1

// SQLiteManager is the durable Manager backend. One row per (step, item)
// pair; a completed row survives process restarts, which is what makes runs
// resumable.
type SQLiteManager struct {
	db *sql.DB
}

// NewSQLiteManager opens (creating if needed) the state database at dbPath.
func NewSQLiteManager(dbPath string) (*SQLiteManager, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open state db %s: %w", dbPath, err)
	}
	// A single writer keeps modernc/sqlite free of SQLITE_BUSY surprises
	// under the executor's worker pool.
	db.SetMaxOpenConns(1)

	m := &SQLiteManager{db: db}
	if err := m.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("state db migration failed: %w", err)
	}
	return m, nil
}

func (m *SQLiteManager) migrate() error {
	var current int
	if err := m.db.QueryRow("PRAGMA user_version").Scan(&current); err != nil {
		return err
	}
	if current >= schemaVersion {
		return nil
	}

	tx, err := m.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	schema := `
	CREATE TABLE IF NOT EXISTS step_states (
		step_name  TEXT NOT NULL,
		item_id    TEXT NOT NULL,
		status     TEXT NOT NULL,
		temp_paths TEXT NOT NULL DEFAULT '',
		updated_at TEXT NOT NULL,
		PRIMARY KEY (step_name, item_id)
	);
	CREATE INDEX IF NOT EXISTS idx_step_states_updated ON step_states(updated_at);
	`
	if _, err := tx.Exec(schema); err != nil {
		return err
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return err
	}
	return tx.Commit()
}

// IsStepCompleted implements Manager.
func (m *SQLiteManager) IsStepCompleted(ctx context.Context, stepName, itemID string) (bool, error) {
	var status string
	err := m.db.QueryRowContext(ctx,
		"SELECT status FROM step_states WHERE step_name = ? AND item_id = ?",
		stepName, itemID,
	).Scan(&status)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return status == "completed", nil
}

// MarkStepStarted implements Manager.
func (m *SQLiteManager) MarkStepStarted(ctx context.Context, stepName, itemID string, tempPaths ...string) error {
	query := `
	INSERT INTO step_states (step_name, item_id, status, temp_paths, updated_at)
	VALUES (?, ?, 'started', ?, ?)
	ON CONFLICT(step_name, item_id) DO UPDATE SET
		status = 'started',
		temp_paths = excluded.temp_paths,
		updated_at = excluded.updated_at
	`
	_, err := m.db.ExecContext(ctx, query,
		stepName, itemID, strings.Join(tempPaths, "\n"), time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// MarkStepCompleted implements Manager.
func (m *SQLiteManager) MarkStepCompleted(ctx context.Context, stepName, itemID string) error {
	query := `
	INSERT INTO step_states (step_name, item_id, status, temp_paths, updated_at)
	VALUES (?, ?, 'completed', '', ?)
	ON CONFLICT(step_name, item_id) DO UPDATE SET
		status = 'completed',
		temp_paths = '',
		updated_at = excluded.updated_at
	`
	_, err := m.db.ExecContext(ctx, query, stepName, itemID, time.Now().UTC().Format(time.RFC3339))
	return err
}

// Close releases the underlying database handle.
func (m *SQLiteManager) Close() error {
	return m.db.Close()
}
