package audit

import (
	"context"
	"os"
	"testing"
	"time"
)

// getTestDSN returns the MySQL test DSN from the environment, or "" if
// unset. Example: "user:pass@tcp(localhost:3306)/test_db".
func getTestDSN(t *testing.T) string {
	dsn := os.Getenv("TEST_MYSQL_DSN")
	if dsn == "" {
		t.Logf("MySQL tests skipped: set TEST_MYSQL_DSN to run")
	}
	return dsn
}

func TestMySQLStore_InvalidDSN(t *testing.T) {
	_, err := NewMySQLStore("not a valid dsn")
	if err == nil {
		t.Fatal("expected an error for an invalid DSN")
	}
}

func TestMySQLStore_RecordAndHistory(t *testing.T) {
	dsn := getTestDSN(t)
	if dsn == "" {
		t.Skip("TEST_MYSQL_DSN not set")
	}

	ctx := context.Background()
	store, err := NewMySQLStore(dsn)
	if err != nil {
		t.Fatalf("NewMySQLStore: %v", err)
	}
	defer store.Close()

	event := Event{
		SessionID:    "sess-mysql-1",
		Turn:         1,
		Query:        "weather",
		MaxResults:   5,
		ToolNames:    []string{"weather"},
		TotalMatches: 1,
		SearchType:   "KEYWORD",
		Timestamp:    time.Now().UTC().Truncate(time.Second),
	}
	if err := store.Record(ctx, event); err != nil {
		t.Fatalf("Record: %v", err)
	}

	hist, err := store.History(ctx, "sess-mysql-1")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(hist) != 1 || hist[0].Query != "weather" {
		t.Fatalf("unexpected history: %+v", hist)
	}
}
