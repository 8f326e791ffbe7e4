// Package journal keeps a durable SQLite record of template runs and of every
// entity they created or updated, so a partial run can be diagnosed and
// resumed by a re-run.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Pure Go SQLite driver registered as "sqlite3".
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/ynput/ayon-jira/internal/api"
	"github.com/ynput/ayon-jira/internal/reconciler"
	"github.com/ynput/ayon-jira/pkg/logging"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id        TEXT PRIMARY KEY,
	actor         TEXT NOT NULL DEFAULT '',
	project_name  TEXT NOT NULL,
	template_name TEXT NOT NULL,
	status        TEXT NOT NULL,
	started_at    TEXT NOT NULL,
	finished_at   TEXT,
	error         TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS entries (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id     TEXT NOT NULL REFERENCES runs(run_id),
	kind       TEXT NOT NULL,
	operation  TEXT NOT NULL,
	scope      TEXT NOT NULL DEFAULT '',
	location   TEXT NOT NULL DEFAULT '',
	name       TEXT NOT NULL DEFAULT '',
	entity_key TEXT NOT NULL DEFAULT '',
	at         TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_entries_run ON entries(run_id);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
`

const timeLayout = time.RFC3339Nano

// Entry is one journaled change of a run.
type Entry struct {
	RunID     string                     `json:"run_id"`
	Kind      reconciler.EntityKind      `json:"kind"`
	Operation reconciler.ChangeOperation `json:"operation"`
	Scope     string                     `json:"scope"`
	Location  string                     `json:"location,omitempty"`
	Name      string                     `json:"name"`
	Key       string                     `json:"key,omitempty"`
	At        time.Time                  `json:"at"`
}

// Journal is a SQLite-backed run journal.
type Journal struct {
	db   *sql.DB
	path string
}

// Open opens or creates the journal database at path.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize journal %s: %w", path, err)
	}

	logging.Debug("Journal", "Opened run journal at %s", path)
	return &Journal{db: db, path: path}, nil
}

// Path returns the database file of the journal.
func (j *Journal) Path() string { return j.path }

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Begin records the start of a run.
func (j *Journal) Begin(ctx context.Context, run api.RunRecord) error {
	status := run.Status
	if status == "" {
		status = api.RunStatusRunning
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, actor, project_name, template_name, status, started_at) VALUES (?, ?, ?, ?, ?, ?)`,
		run.RunID, run.Actor, run.ProjectName, run.TemplateName, status, run.StartedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to journal start of run %s: %w", run.RunID, err)
	}
	return nil
}

// Record appends a change to a run.
func (j *Journal) Record(ctx context.Context, runID string, event reconciler.ChangeEvent) error {
	at := event.Timestamp
	if at.IsZero() {
		at = time.Now()
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO entries (run_id, kind, operation, scope, location, name, entity_key, at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, string(event.Kind), string(event.Operation), event.Scope, event.Location, event.Name, event.Key,
		at.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to journal %s %s of run %s: %w", event.Operation, event.Kind, runID, err)
	}
	return nil
}

// Finish records the outcome of a run.
func (j *Journal) Finish(ctx context.Context, runID, status, errMsg string, finishedAt time.Time) error {
	res, err := j.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error = ?, finished_at = ? WHERE run_id = ?`,
		status, errMsg, finishedAt.UTC().Format(timeLayout), runID)
	if err != nil {
		return fmt.Errorf("failed to journal outcome of run %s: %w", runID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %s is not in the journal", runID)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first. A limit of zero or
// less returns every run.
func (j *Journal) ListRuns(ctx context.Context, limit int) ([]api.RunRecord, error) {
	query := `
SELECT r.run_id, r.actor, r.project_name, r.template_name, r.status, r.started_at, r.finished_at, r.error,
       (SELECT COUNT(*) FROM entries e WHERE e.run_id = r.run_id)
FROM runs r
ORDER BY r.started_at DESC, r.run_id`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []api.RunRecord
	for rows.Next() {
		var (
			rec        api.RunRecord
			startedAt  string
			finishedAt sql.NullString
		)
		if err := rows.Scan(&rec.RunID, &rec.Actor, &rec.ProjectName, &rec.TemplateName, &rec.Status,
			&startedAt, &finishedAt, &rec.Error, &rec.Entries); err != nil {
			return nil, fmt.Errorf("failed to read run: %w", err)
		}
		if rec.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
			return nil, fmt.Errorf("run %s has an invalid start time: %w", rec.RunID, err)
		}
		if finishedAt.Valid {
			t, err := time.Parse(timeLayout, finishedAt.String)
			if err != nil {
				return nil, fmt.Errorf("run %s has an invalid finish time: %w", rec.RunID, err)
			}
			rec.FinishedAt = &t
		}
		runs = append(runs, rec)
	}
	return runs, rows.Err()
}

// Entries returns the changes of a run in the order they were recorded.
func (j *Journal) Entries(ctx context.Context, runID string) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT run_id, kind, operation, scope, location, name, entity_key, at FROM entries WHERE run_id = ? ORDER BY id`,
		runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries of run %s: %w", runID, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e                Entry
			kind, op, atText string
		)
		if err := rows.Scan(&e.RunID, &kind, &op, &e.Scope, &e.Location, &e.Name, &e.Key, &atText); err != nil {
			return nil, fmt.Errorf("failed to read entry: %w", err)
		}
		e.Kind = reconciler.EntityKind(kind)
		e.Operation = reconciler.ChangeOperation(op)
		if e.At, err = time.Parse(timeLayout, atText); err != nil {
			return nil, fmt.Errorf("entry of run %s has an invalid time: %w", runID, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
