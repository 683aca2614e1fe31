// Package history persists a record of every dispatched door command.
//
// One SQLite table, append-mostly: each LOCK/UNLOCK (or rejected payload)
// becomes a row with its outcome and error text. The history exists for
// after-the-fact inspection of who-locked-what-when on a physical door;
// it is optional and the bridge runs fine without it.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// schema is the command history table. Created on startup; IF NOT EXISTS
// makes restarts idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS command_history (
	id         TEXT PRIMARY KEY,
	door       INTEGER NOT NULL,
	command    TEXT NOT NULL,
	outcome    TEXT NOT NULL,
	error      TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_command_history_created_at
	ON command_history(created_at DESC);
`

// Entry represents a single dispatched command.
type Entry struct {
	ID        string    `json:"id"`
	Door      uint8     `json:"door"`
	Command   string    `json:"command"`
	Outcome   string    `json:"outcome"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository reads and writes command history in SQLite.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a command history repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Init creates the history table if it does not exist.
func (r *Repository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating command_history table: %w", err)
	}
	return nil
}

// Record inserts a history entry. The ID and CreatedAt are generated if empty.
func (r *Repository) Record(ctx context.Context, entry *Entry) error {
	if entry.ID == "" {
		entry.ID = "cmd-" + uuid.NewString()[:8]
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO command_history (id, door, command, outcome, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Door, entry.Command, entry.Outcome, entry.Error, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting command history: %w", err)
	}
	return nil
}

// Recent returns the most recent entries, newest first.
func (r *Repository) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, door, command, outcome, error, created_at
		 FROM command_history
		 ORDER BY created_at DESC, id
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying command history: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only rows

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Door, &e.Command, &e.Outcome, &e.Error, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning command history row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating command history rows: %w", err)
	}

	return entries, nil
}
