package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS interactions (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at TEXT NOT NULL,
	session_id TEXT,
	user_id    INTEGER NOT NULL DEFAULT 0,
	utterance  TEXT NOT NULL,
	response   TEXT NOT NULL,
	rule_id    TEXT NOT NULL,
	fallback   INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_interactions_created_at ON interactions(created_at);
`

// SQLiteRecorder stores events in a SQLite table.
type SQLiteRecorder struct {
	db *sql.DB
}

// NewSQLiteRecorder opens the database at path and runs migrations.
func NewSQLiteRecorder(path string) (*SQLiteRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure db dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLiteRecorder{db: db}, nil
}

func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}

func (r *SQLiteRecorder) AppendInteraction(event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_, err := r.db.Exec(
		`INSERT INTO interactions (created_at, session_id, user_id, utterance, response, rule_id, fallback)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.Timestamp.UTC().Format(time.RFC3339Nano),
		nullIfEmpty(event.SessionID),
		event.UserID,
		event.Utterance,
		event.Response,
		event.RuleID,
		boolToInt(event.Fallback),
	)
	if err != nil {
		return fmt.Errorf("insert interaction: %w", err)
	}
	return nil
}

func (r *SQLiteRecorder) LoadInteractions() ([]Event, error) {
	rows, err := r.db.Query(
		`SELECT created_at, COALESCE(session_id, ''), user_id, utterance, response, rule_id, fallback
		 FROM interactions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query interactions: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			ev       Event
			created  string
			fallback int
		)
		if err := rows.Scan(&created, &ev.SessionID, &ev.UserID, &ev.Utterance, &ev.Response, &ev.RuleID, &fallback); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		ev.Timestamp, err = time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return nil, fmt.Errorf("parse created_at %q: %w", created, err)
		}
		ev.Fallback = fallback != 0
		events = append(events, ev)
	}
	return events, rows.Err()
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
