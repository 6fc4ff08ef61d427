package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a SQLite-backed Store, one file per process.
//
// Schema:
//   - search_events: one row per toolSearchTool invocation
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (creating if needed) a SQLite database at path and
// ensures its schema exists. Pass ":memory:" for an ephemeral store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("audit: open sqlite: %w", err)
	}

	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("audit: enable WAL: %w", err)
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.createTables(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) createTables(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS search_events (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id    TEXT NOT NULL,
		turn          INTEGER NOT NULL,
		query         TEXT NOT NULL,
		max_results   INTEGER NOT NULL,
		tool_names    TEXT NOT NULL,
		total_matches INTEGER NOT NULL,
		search_type   TEXT NOT NULL,
		created_at    DATETIME NOT NULL
	)`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("audit: create table: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "CREATE INDEX IF NOT EXISTS idx_search_events_session ON search_events(session_id)"); err != nil {
		return fmt.Errorf("audit: create index: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Record(ctx context.Context, event Event) error {
	names, err := json.Marshal(event.ToolNames)
	if err != nil {
		return fmt.Errorf("audit: marshal tool names: %w", err)
	}

	const query = `INSERT INTO search_events
		(session_id, turn, query, max_results, tool_names, total_matches, search_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, query,
		event.SessionID, event.Turn, event.Query, event.MaxResults,
		string(names), event.TotalMatches, event.SearchType, event.Timestamp)
	if err != nil {
		return fmt.Errorf("audit: insert event: %w", err)
	}
	return nil
}

func (s *SQLiteStore) History(ctx context.Context, sessionID string) ([]Event, error) {
	const query = `SELECT turn, query, max_results, tool_names, total_matches, search_type, created_at
		FROM search_events WHERE session_id = ? ORDER BY id ASC`
	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("audit: query history: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var names string
		var ts time.Time
		if err := rows.Scan(&e.Turn, &e.Query, &e.MaxResults, &names, &e.TotalMatches, &e.SearchType, &ts); err != nil {
			return nil, fmt.Errorf("audit: scan event: %w", err)
		}
		if err := json.Unmarshal([]byte(names), &e.ToolNames); err != nil {
			return nil, fmt.Errorf("audit: unmarshal tool names: %w", err)
		}
		e.SessionID = sessionID
		e.Timestamp = ts
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
