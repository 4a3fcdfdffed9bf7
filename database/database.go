package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"imagededupe/logging"
	"imagededupe/types"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const schemaSQL = `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		directory TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		found INTEGER DEFAULT 0,
		decoded INTEGER DEFAULT 0,
		decode_failures INTEGER DEFAULT 0,
		removed INTEGER DEFAULT 0,
		delete_failures INTEGER DEFAULT 0,
		renamed INTEGER DEFAULT 0,
		rename_failures INTEGER DEFAULT 0,
		repaired INTEGER DEFAULT 0,
		repair_failures INTEGER DEFAULT 0
	);
	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER REFERENCES runs(id),
		recorded_at TEXT NOT NULL,
		level TEXT NOT NULL,
		event TEXT NOT NULL,
		path TEXT,
		fields TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_events_run ON events(run_id);
	CREATE INDEX IF NOT EXISTS idx_events_event ON events(event);`

// Journal is an append-only SQLite record of runs and their events.
// It implements logging.Reporter so it can sit next to the log file.
type Journal struct {
	db    *sql.DB
	runID int64
	now   func() time.Time

	mu      sync.Mutex
	lastErr error
}

// RunRecord is one row of the runs table
type RunRecord struct {
	ID int64
	types.RunSummary
}

// EventRecord is one row of the events table
type EventRecord struct {
	ID         int64
	RunID      int64
	RecordedAt string
	Level      string
	Event      string
	Path       string
	Fields     map[string]interface{}
}

// InitJournal opens (creating if needed) the journal database at dbPath
func InitJournal(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create journal schema in %s: %w", dbPath, err)
	}
	return &Journal{db: db, now: time.Now}, nil
}

// Close closes the underlying database
func (j *Journal) Close() error {
	return j.db.Close()
}

// BeginRun inserts a run row; later events are attached to it
func (j *Journal) BeginRun(directory string) (int64, error) {
	res, err := j.db.Exec(`INSERT INTO runs (directory, started_at) VALUES (?, ?)`,
		directory, j.now().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("cannot start run for %s: %w", directory, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	j.runID = id
	return id, nil
}

// FinishRun stores the final counters of the current run
func (j *Journal) FinishRun(s *types.RunSummary) error {
	if j.runID == 0 {
		return fmt.Errorf("no run in progress")
	}
	finished := s.FinishedAt
	if finished.IsZero() {
		finished = j.now()
	}
	_, err := j.db.Exec(`
		UPDATE runs SET finished_at = ?, found = ?, decoded = ?, decode_failures = ?,
			removed = ?, delete_failures = ?, renamed = ?, rename_failures = ?,
			repaired = ?, repair_failures = ?
		WHERE id = ?`,
		finished.Format(time.RFC3339Nano), s.Found, s.Decoded, s.DecodeFailures,
		s.Removed, s.DeleteFailures, s.Renamed, s.RenameFailures,
		s.Repaired, s.RepairFailures, j.runID)
	if err != nil {
		return fmt.Errorf("cannot finish run %d: %w", j.runID, err)
	}
	return nil
}

// Record appends an event row. Write errors are kept and returned by Sync.
func (j *Journal) Record(event string, fields ...zap.Field) {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range fields {
		f.AddTo(enc)
	}
	payload, err := json.Marshal(enc.Fields)
	if err != nil {
		j.keep(fmt.Errorf("encode %s fields: %w", event, err))
		return
	}
	path, _ := enc.Fields["path"].(string)

	var runID sql.NullInt64
	if j.runID != 0 {
		runID = sql.NullInt64{Int64: j.runID, Valid: true}
	}
	_, err = j.db.Exec(`INSERT INTO events (run_id, recorded_at, level, event, path, fields) VALUES (?, ?, ?, ?, ?, ?)`,
		runID, j.now().Format(time.RFC3339Nano), logging.LevelFor(event).String(), event, path, string(payload))
	if err != nil {
		j.keep(fmt.Errorf("cannot journal %s: %w", event, err))
	}
}

// Sync reports the first write error since the previous Sync
func (j *Journal) Sync() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	err := j.lastErr
	j.lastErr = nil
	return err
}

func (j *Journal) keep(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.lastErr == nil {
		j.lastErr = err
	}
}

// RecentRuns returns up to limit runs, newest first
func (j *Journal) RecentRuns(limit int) ([]RunRecord, error) {
	rows, err := j.db.Query(`
		SELECT id, directory, started_at, COALESCE(finished_at, ''), found, decoded, decode_failures,
			removed, delete_failures, renamed, rename_failures, repaired, repair_failures
		FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var r RunRecord
		var started, finished string
		if err := rows.Scan(&r.ID, &r.Directory, &started, &finished, &r.Found, &r.Decoded,
			&r.DecodeFailures, &r.Removed, &r.DeleteFailures, &r.Renamed, &r.RenameFailures,
			&r.Repaired, &r.RepairFailures); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		if finished != "" {
			r.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunEvents returns the events of one run in insertion order
func (j *Journal) RunEvents(runID int64) ([]EventRecord, error) {
	rows, err := j.db.Query(`
		SELECT id, run_id, recorded_at, level, event, COALESCE(path, ''), COALESCE(fields, '{}')
		FROM events WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query events of run %d: %w", runID, err)
	}
	defer rows.Close()

	var events []EventRecord
	for rows.Next() {
		var e EventRecord
		var payload string
		if err := rows.Scan(&e.ID, &e.RunID, &e.RecordedAt, &e.Level, &e.Event, &e.Path, &payload); err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &e.Fields); err != nil {
			return nil, fmt.Errorf("decode fields of event %d: %w", e.ID, err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
