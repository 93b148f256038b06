// Package history persists completed transcriptions to a local SQLite
// database.
package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is one recorded transcription.
type Entry struct {
	ID        int64
	Text      string
	Language  string
	Duration  time.Duration
	CreatedAt time.Time
}

// Store is a durable transcription log. Safe for concurrent use.
type Store struct {
	db *sql.DB
}

const schema = `CREATE TABLE IF NOT EXISTS transcriptions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	text TEXT NOT NULL,
	language TEXT,
	duration_ms INTEGER,
	created_at TEXT NOT NULL
)`

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Append records a completed transcription.
func (s *Store) Append(text, language string, completedAt time.Time, duration time.Duration) error {
	_, err := s.db.Exec(
		`INSERT INTO transcriptions (text, language, duration_ms, created_at) VALUES (?, ?, ?, ?)`,
		text, language, duration.Milliseconds(), completedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("history: append: %w", err)
	}
	return nil
}

// Recent returns the newest entries, most recent first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	rows, err := s.db.Query(
		`SELECT id, text, language, duration_ms, created_at
		 FROM transcriptions ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: recent: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Search returns entries whose text contains the query, newest first.
func (s *Store) Search(query string) ([]Entry, error) {
	rows, err := s.db.Query(
		`SELECT id, text, language, duration_ms, created_at
		 FROM transcriptions WHERE text LIKE ? ORDER BY created_at DESC LIMIT 100`,
		"%"+query+"%")
	if err != nil {
		return nil, fmt.Errorf("history: search: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Delete removes an entry by id.
func (s *Store) Delete(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM transcriptions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("history: delete: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			language   sql.NullString
			durationMS sql.NullInt64
			createdAt  string
		)
		if err := rows.Scan(&e.ID, &e.Text, &language, &durationMS, &createdAt); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		e.Language = language.String
		e.Duration = time.Duration(durationMS.Int64) * time.Millisecond
		if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			e.CreatedAt = ts
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
