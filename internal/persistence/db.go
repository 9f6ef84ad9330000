// Package persistence records simulation runs in SQLite: run metadata,
// per-tick events and actions, and compressed state snapshots.
package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"

	"github.com/talgya/farmsim/internal/engine"
	"github.com/talgya/farmsim/internal/events"
	"github.com/talgya/farmsim/internal/state"
)

// ErrNoSnapshot is returned by LoadSnapshot for a run with no saved state.
var ErrNoSnapshot = errors.New("no snapshot")

// DB wraps a SQLite connection for run recording.
type DB struct {
	conn *sqlx.DB
	enc  *zstd.Encoder
	dec  *zstd.Decoder
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// modernc sqlite connections do not share an in-process write lock.
	conn.SetMaxOpenConns(1)

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		conn.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}

	db := &DB{conn: conn, enc: enc, dec: dec}
	if err := db.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	db.dec.Close()
	if err := db.enc.Close(); err != nil {
		db.conn.Close()
		return err
	}
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		persona TEXT NOT NULL,
		overrides_json TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		outcome TEXT,
		ticks INTEGER NOT NULL DEFAULT 0,
		final_minute INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		minute INTEGER NOT NULL,
		severity INTEGER NOT NULL,
		category TEXT NOT NULL,
		description TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS actions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		minute INTEGER NOT NULL,
		kind TEXT NOT NULL,
		target TEXT NOT NULL,
		screen TEXT NOT NULL,
		minutes INTEGER NOT NULL,
		score REAL NOT NULL,
		detail TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS snapshots (
		run_id TEXT NOT NULL,
		minute INTEGER NOT NULL,
		state_zst BLOB NOT NULL,
		PRIMARY KEY (run_id, minute)
	);

	CREATE INDEX IF NOT EXISTS idx_events_run ON events(run_id, minute);
	CREATE INDEX IF NOT EXISTS idx_actions_run ON actions(run_id, minute);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// RunMeta describes the configuration a run was started with.
type RunMeta struct {
	Seed      uint64
	Persona   string
	Overrides map[string]any
}

// Run is a recorded run row.
type Run struct {
	ID          string  `db:"id"`
	Seed        int64   `db:"seed"`
	Persona     string  `db:"persona"`
	StartedAt   string  `db:"started_at"`
	FinishedAt  *string `db:"finished_at"`
	Outcome     *string `db:"outcome"`
	Ticks       int     `db:"ticks"`
	FinalMinute int     `db:"final_minute"`
}

// BeginRun registers a new run and returns its id.
func (db *DB) BeginRun(meta RunMeta) (string, error) {
	overrides, err := json.Marshal(meta.Overrides)
	if err != nil {
		return "", fmt.Errorf("encode overrides: %w", err)
	}
	id := uuid.NewString()
	_, err = db.conn.Exec(
		"INSERT INTO runs (id, seed, persona, overrides_json, started_at) VALUES (?, ?, ?, ?, ?)",
		id, int64(meta.Seed), meta.Persona, string(overrides), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	slog.Info("run recorded", "run", id, "seed", meta.Seed, "persona", meta.Persona)
	return id, nil
}

// RecordTick appends the tick's events and executed actions.
func (db *DB) RecordTick(runID string, res engine.TickResult) error {
	if len(res.Events) == 0 && len(res.Executed) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range res.Events {
		_, err := tx.Exec(
			"INSERT INTO events (run_id, minute, severity, category, description) VALUES (?, ?, ?, ?, ?)",
			runID, e.Minute, int(e.Severity), e.Category, e.Description,
		)
		if err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
	}
	for _, a := range res.Executed {
		_, err := tx.Exec(
			`INSERT INTO actions (run_id, minute, kind, target, screen, minutes, score, detail)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, a.Minute, a.Kind.String(), a.Target, a.Screen.String(), a.Minutes, a.Score, a.Detail,
		)
		if err != nil {
			return fmt.Errorf("insert action: %w", err)
		}
	}
	return tx.Commit()
}

// SaveSnapshot stores s as zstd-compressed JSON keyed by its clock minute.
// Saving twice at the same minute replaces the earlier snapshot.
func (db *DB) SaveSnapshot(runID string, s *state.State) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	blob := db.enc.EncodeAll(raw, nil)
	_, err = db.conn.Exec(
		"INSERT OR REPLACE INTO snapshots (run_id, minute, state_zst) VALUES (?, ?, ?)",
		runID, s.Clock.Total, blob,
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	slog.Debug("snapshot saved", "run", runID, "minute", s.Clock.Total, "bytes", len(blob), "raw", len(raw))
	return nil
}

// LoadSnapshot returns the latest snapshot of a run.
func (db *DB) LoadSnapshot(runID string) (*state.State, error) {
	var blobs [][]byte
	err := db.conn.Select(&blobs,
		"SELECT state_zst FROM snapshots WHERE run_id = ? ORDER BY minute DESC LIMIT 1", runID)
	if err != nil {
		return nil, err
	}
	if len(blobs) == 0 {
		return nil, fmt.Errorf("%w for run %s", ErrNoSnapshot, runID)
	}
	raw, err := db.dec.DecodeAll(blobs[0], nil)
	if err != nil {
		return nil, fmt.Errorf("decompress snapshot: %w", err)
	}
	var s state.State
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return &s, nil
}

type eventRow struct {
	Minute      int    `db:"minute"`
	Severity    int    `db:"severity"`
	Category    string `db:"category"`
	Description string `db:"description"`
}

// RecentEvents returns the most recent events of a run at or above
// minSeverity, newest first.
func (db *DB) RecentEvents(runID string, minSeverity events.Severity, limit int) ([]events.Event, error) {
	var rows []eventRow
	err := db.conn.Select(&rows,
		`SELECT minute, severity, category, description FROM events
		WHERE run_id = ? AND severity >= ? ORDER BY id DESC LIMIT ?`,
		runID, int(minSeverity), limit,
	)
	if err != nil {
		return nil, err
	}
	out := make([]events.Event, len(rows))
	for i, r := range rows {
		out[i] = events.Event{
			Minute:      r.Minute,
			Severity:    events.Severity(r.Severity),
			Category:    r.Category,
			Description: r.Description,
		}
	}
	return out, nil
}

// ActionCounts returns how many actions of each kind a run executed.
func (db *DB) ActionCounts(runID string) (map[string]int, error) {
	var rows []struct {
		Kind  string `db:"kind"`
		Count int    `db:"n"`
	}
	err := db.conn.Select(&rows, "SELECT kind, COUNT(*) AS n FROM actions WHERE run_id = ? GROUP BY kind", runID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(rows))
	for _, r := range rows {
		out[r.Kind] = r.Count
	}
	return out, nil
}

// FinishRun stores the run's outcome.
func (db *DB) FinishRun(runID string, sum engine.Summary) error {
	final := 0
	if sum.Final != nil {
		final = sum.Final.Clock.Total
	}
	res, err := db.conn.Exec(
		"UPDATE runs SET finished_at = ?, outcome = ?, ticks = ?, final_minute = ? WHERE id = ?",
		time.Now().UTC().Format(time.RFC3339), string(sum.Outcome), sum.Ticks, final, runID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("unknown run %s", runID)
	}
	return nil
}

// GetRun retrieves a run row.
func (db *DB) GetRun(runID string) (Run, error) {
	var r Run
	err := db.conn.Get(&r,
		"SELECT id, seed, persona, started_at, finished_at, outcome, ticks, final_minute FROM runs WHERE id = ?",
		runID)
	return r, err
}
