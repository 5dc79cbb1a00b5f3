// Package ledger implements the Token Ledger: a small, durable,
// cross-run record of per-iteration token usage and outcomes, kept
// separate from the Progress Document. The progress document remains the
// agent's sole persistent memory; the ledger is operator-facing telemetry
// the engine never reads back into a decision.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/ralph-run/ralph/internal/stream"
)

const schema = `
CREATE TABLE IF NOT EXISTS iterations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	workspace_path TEXT NOT NULL,
	iteration INTEGER NOT NULL,
	outcome TEXT NOT NULL,
	tasks_completed INTEGER NOT NULL,
	input_tokens INTEGER NOT NULL,
	output_tokens INTEGER NOT NULL,
	cache_creation_tokens INTEGER NOT NULL,
	cache_read_tokens INTEGER NOT NULL,
	recorded_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_iterations_workspace ON iterations(workspace_path);
CREATE INDEX IF NOT EXISTS idx_iterations_run ON iterations(run_id);
`

// RunRecord is one row appended by RecordIteration. RunID ties every row
// written during one `ralph run`/`ralph once` invocation together, so an
// operator can distinguish "five iterations from one run" from "five
// separate single-iteration runs" when reading the ledger back.
type RunRecord struct {
	RunID          string
	WorkspacePath  string
	Iteration      int
	Outcome        string
	TasksCompleted int
	Usage          stream.TokenUsage
	RecordedAt     time.Time
}

// Ledger is a handle to the durable sqlite-backed token ledger.
type Ledger struct {
	db *sql.DB
}

// Open creates the ledger database (and its parent directory) if absent,
// and ensures the schema exists.
func Open(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ledger: create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("ledger: open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ledger: ping %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("ledger: init schema: %w", err)
	}

	return &Ledger{db: db}, nil
}

// Close releases the underlying database handle.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// RecordIteration appends one row. The ledger is append-only; it never
// updates or deletes a prior run's record.
func (l *Ledger) RecordIteration(ctx context.Context, rec RunRecord) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO iterations (
			run_id, workspace_path, iteration, outcome, tasks_completed,
			input_tokens, output_tokens, cache_creation_tokens, cache_read_tokens,
			recorded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.WorkspacePath, rec.Iteration, rec.Outcome, rec.TasksCompleted,
		rec.Usage.Input, rec.Usage.Output, rec.Usage.CacheCreationInput, rec.Usage.CacheReadInput,
		rec.RecordedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("ledger: record iteration: %w", err)
	}
	return nil
}

// Totals returns the running cross-session token total for a workspace,
// used for operator-facing cost reporting.
func (l *Ledger) Totals(ctx context.Context, workspacePath string) (stream.TokenUsage, error) {
	var total stream.TokenUsage
	row := l.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(input_tokens), 0),
			COALESCE(SUM(output_tokens), 0),
			COALESCE(SUM(cache_creation_tokens), 0),
			COALESCE(SUM(cache_read_tokens), 0)
		FROM iterations WHERE workspace_path = ?`, workspacePath)

	if err := row.Scan(&total.Input, &total.Output, &total.CacheCreationInput, &total.CacheReadInput); err != nil {
		return stream.TokenUsage{}, fmt.Errorf("ledger: totals for %s: %w", workspacePath, err)
	}
	return total, nil
}
