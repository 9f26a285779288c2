// Package journal records emitted build instructions in SQLite so the output
// of past build-script runs can be inspected after cargo has consumed it.
package journal

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// Run is one build-script invocation.
type Run struct {
	ID        string
	Package   string
	StartedAt time.Time
}

// Entry is one recorded instruction line.
type Entry struct {
	RunID     string
	Seq       int64
	Line      string
	CreatedAt time.Time
}

// Journal defines methods for recording and reading emitted lines per run
type Journal interface {
	// Begin starts a new run for the named package
	Begin(pkg string) (Run, error)

	// Append records lines for a run, in order
	Append(runID string, lines []string) error

	// Lines returns the recorded lines of a run in emission order
	Lines(runID string) ([]Entry, error)

	// Runs returns the most recent runs first, at most limit (<= 0 means all)
	Runs(limit int) ([]Run, error)

	// Delete removes a run and its lines
	Delete(runID string) error

	// Close closes the journal and releases any resources
	Close() error
}

type sqliteJournal struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteJournal opens (creating if needed) a SQLite journal and runs migrations
func NewSQLiteJournal(dbPath string) (Journal, error) {
	// Ensure directory exists
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := ensureDir(dir); err != nil {
			return nil, fmt.Errorf("failed to create directory for journal: %w", err)
		}
	}

	// cargo runs build scripts in parallel, possibly against the same file
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &sqliteJournal{db: db, now: time.Now}, nil
}

//go:embed migrations/*.sql
var migrations embed.FS

// versionTable is where goose tracks the journal schema version.
const versionTable = "cargobuild_journal_version"

// migrate applies the embedded schema. goose keeps its settings in package
// state, so every one it reads is set here rather than assumed.
func migrate(db *sql.DB) error {
	goose.SetBaseFS(migrations)
	goose.SetTableName(versionTable)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (j *sqliteJournal) Begin(pkg string) (Run, error) {
	run := Run{ID: uuid.NewString(), Package: pkg, StartedAt: j.now()}
	_, err := j.db.Exec(
		`INSERT INTO runs (id, package, started_at) VALUES (?, ?, ?)`,
		run.ID, run.Package, run.StartedAt.UnixMilli())
	if err != nil {
		return Run{}, fmt.Errorf("failed to begin run: %w", err)
	}
	run.StartedAt = time.UnixMilli(run.StartedAt.UnixMilli())
	return run, nil
}

func (j *sqliteJournal) Append(runID string, lines []string) error {
	if len(lines) == 0 {
		return nil
	}
	tx, err := j.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to append lines: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var seq int64
	if err := tx.QueryRow(`SELECT COALESCE(MAX(seq), 0) FROM entries WHERE run_id = ?`, runID).Scan(&seq); err != nil {
		return fmt.Errorf("failed to append lines: %w", err)
	}
	now := j.now().UnixMilli()
	for _, ln := range lines {
		seq++
		if _, err := tx.Exec(
			`INSERT INTO entries (run_id, seq, line, created_at) VALUES (?, ?, ?, ?)`,
			runID, seq, ln, now); err != nil {
			return fmt.Errorf("failed to append lines: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to append lines: %w", err)
	}
	return nil
}

func (j *sqliteJournal) Lines(runID string) ([]Entry, error) {
	rows, err := j.db.Query(
		`SELECT seq, line, created_at FROM entries WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load lines: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		e := Entry{RunID: runID}
		var created int64
		if err := rows.Scan(&e.Seq, &e.Line, &created); err != nil {
			return nil, fmt.Errorf("failed to load lines: %w", err)
		}
		e.CreatedAt = time.UnixMilli(created)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (j *sqliteJournal) Runs(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1 // sqlite: no limit
	}
	rows, err := j.db.Query(
		`SELECT id, package, started_at FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		var r Run
		var started int64
		if err := rows.Scan(&r.ID, &r.Package, &started); err != nil {
			return nil, fmt.Errorf("failed to list runs: %w", err)
		}
		r.StartedAt = time.UnixMilli(started)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (j *sqliteJournal) Delete(runID string) error {
	if _, err := j.db.Exec(`DELETE FROM entries WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if _, err := j.db.Exec(`DELETE FROM runs WHERE id = ?`, runID); err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	return nil
}

func (j *sqliteJournal) Close() error {
	return j.db.Close()
}

// ensureDir makes sure a directory exists
func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}
