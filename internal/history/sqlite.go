// Package history records hg runs in a local SQLite database.
package history

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"hg-go/internal/hg"
	"hg-go/internal/history/migrations"
)

// SQLiteHistory implements hg.History using SQLite.
type SQLiteHistory struct {
	db    *sql.DB
	clock hg.Clock
}

var _ hg.History = (*SQLiteHistory)(nil)

// NewSQLiteHistory opens the history database at path, applying pending
// migrations. path can be ":memory:".
func NewSQLiteHistory(path string, clock hg.Clock) (*SQLiteHistory, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating history database: %w", err)
	}
	return NewSQLiteHistoryFromDB(db, clock), nil
}

// NewSQLiteHistoryFromDB wraps an existing, migrated connection.
func NewSQLiteHistoryFromDB(db *sql.DB, clock hg.Clock) *SQLiteHistory {
	if clock == nil {
		clock = hg.RealClock{}
	}
	return &SQLiteHistory{db: db, clock: clock}
}

// OpenConnection opens and configures a SQLite connection.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// every connection to ":memory:" is a separate database
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	return db, nil
}

// CheckMigrations verifies that the schema is up to date.
func (h *SQLiteHistory) CheckMigrations() error {
	return migrations.CheckStatus(h.db)
}

func (h *SQLiteHistory) CreateOperation(operation, parameters string) (*hg.Operation, error) {
	started := h.clock.Now().UTC()
	res, err := h.db.Exec(
		`INSERT INTO operations (started_at, operation, parameters, status) VALUES (?, ?, ?, 'running')`,
		started, operation, parameters)
	if err != nil {
		return nil, fmt.Errorf("creating operation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("creating operation: %w", err)
	}
	return &hg.Operation{
		ID:         id,
		StartedAt:  started,
		Operation:  operation,
		Parameters: parameters,
		Status:     "running",
	}, nil
}

func (h *SQLiteHistory) FinishOperation(id int64, status string, added, removed, total int64) error {
	res, err := h.db.Exec(
		`UPDATE operations SET finished_at = ?, status = ?, added = ?, removed = ?, total = ? WHERE id = ?`,
		h.clock.Now().UTC(), status, added, removed, total, id)
	if err != nil {
		return fmt.Errorf("finishing operation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finishing operation: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finishing operation %d: %w", id, hg.ErrNotFound)
	}
	return nil
}

func (h *SQLiteHistory) ListOperations(limit int) ([]*hg.Operation, error) {
	rows, err := h.db.Query(
		`SELECT id, started_at, finished_at, operation, parameters, status, added, removed, total
		 FROM operations ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	defer rows.Close()

	var ops []*hg.Operation
	for rows.Next() {
		var op hg.Operation
		if err := rows.Scan(&op.ID, &op.StartedAt, &op.FinishedAt, &op.Operation, &op.Parameters,
			&op.Status, &op.Added, &op.Removed, &op.Total); err != nil {
			return nil, fmt.Errorf("scanning operation: %w", err)
		}
		ops = append(ops, &op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	return ops, nil
}

func (h *SQLiteHistory) Close() error {
	return h.db.Close()
}
