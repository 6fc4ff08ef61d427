package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLStore is a MySQL/MariaDB-backed Store, for deployments sharing a
// database across interceptor instances.
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore opens a connection pool against dsn and ensures the
// search_events table exists.
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("audit: open mysql: %w", err)
	}
	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("audit: ping mysql: %w", err)
	}

	s := &MySQLStore{db: db}
	if err := s.createTables(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *MySQLStore) createTables(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS search_events (
		id            BIGINT AUTO_INCREMENT PRIMARY KEY,
		session_id    VARCHAR(255) NOT NULL,
		turn          INT NOT NULL,
		query         TEXT NOT NULL,
		max_results   INT NOT NULL,
		tool_names    TEXT NOT NULL,
		total_matches INT NOT NULL,
		search_type   VARCHAR(32) NOT NULL,
		created_at    DATETIME NOT NULL,
		INDEX idx_search_events_session (session_id)
	) ENGINE=InnoDB`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("audit: create table: %w", err)
	}
	return nil
}

func (s *MySQLStore) Record(ctx context.Context, event Event) error {
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

func (s *MySQLStore) History(ctx context.Context, sessionID string) ([]Event, error) {
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

func (s *MySQLStore) Close() error {
	return s.db.Close()
}
