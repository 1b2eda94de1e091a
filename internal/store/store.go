// Package store persists relay state that must survive process restarts:
// the last known browser state blob and the task submission history.
package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store is the durable local state backing the relay.
type Store struct {
	sql *sql.DB
}

// TaskRecord is one row of task submission history.
type TaskRecord struct {
	ID          string    `json:"id"`
	TaskID      string    `json:"task_id"`
	TaskText    string    `json:"task_text"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Open opens (or creates) the SQLite database at path.
func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	conn.SetMaxOpenConns(1)
	if _, err := conn.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, err
	}
	if _, err := conn.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return nil, err
	}
	return &Store{sql: conn}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.sql.Close()
}

// Migrate creates the schema if it does not exist.
func (s *Store) Migrate() error {
	_, err := s.sql.Exec(`
		CREATE TABLE IF NOT EXISTS browser_state (
			id         INTEGER PRIMARY KEY CHECK (id = 1),
			state      TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create browser_state: %w", err)
	}

	_, err = s.sql.Exec(`
		CREATE TABLE IF NOT EXISTS task_history (
			id           TEXT PRIMARY KEY,
			task_id      TEXT NOT NULL,
			task_text    TEXT NOT NULL,
			submitted_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create task_history: %w", err)
	}

	if _, err := s.sql.Exec(`CREATE INDEX IF NOT EXISTS idx_task_history_submitted ON task_history(submitted_at DESC)`); err != nil {
		return fmt.Errorf("index task_history: %w", err)
	}

	return nil
}

// SaveBrowserState overwrites the persisted browser state wholesale.
func (s *Store) SaveBrowserState(state []byte) error {
	_, err := s.sql.Exec(`
		INSERT INTO browser_state (id, state, updated_at) VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at
	`, string(state), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("save browser state: %w", err)
	}
	return nil
}

// BrowserState returns the last persisted browser state, or nil if none
// has been saved yet.
func (s *Store) BrowserState() ([]byte, error) {
	var state string
	err := s.sql.QueryRow(`SELECT state FROM browser_state WHERE id = 1`).Scan(&state)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load browser state: %w", err)
	}
	return []byte(state), nil
}

// RecordTask appends a submitted task to the history.
func (s *Store) RecordTask(taskID, taskText string) error {
	_, err := s.sql.Exec(`
		INSERT INTO task_history (id, task_id, task_text, submitted_at) VALUES (?, ?, ?, ?)
	`, uuid.NewString(), taskID, taskText, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("record task: %w", err)
	}
	return nil
}

// RecentTasks returns up to limit most-recent task submissions, newest first.
func (s *Store) RecentTasks(limit int) ([]TaskRecord, error) {
	rows, err := s.sql.Query(`
		SELECT id, task_id, task_text, submitted_at
		FROM task_history
		ORDER BY submitted_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("load task history: %w", err)
	}
	defer rows.Close()

	var records []TaskRecord
	for rows.Next() {
		var r TaskRecord
		var ts int64
		if err := rows.Scan(&r.ID, &r.TaskID, &r.TaskText, &ts); err != nil {
			return nil, fmt.Errorf("scan task history: %w", err)
		}
		r.SubmittedAt = time.Unix(ts, 0)
		records = append(records, r)
	}
	return records, rows.Err()
}
