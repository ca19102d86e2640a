package logging

import (
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

// #region helpers
func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	_, err = db.Exec(`CREATE TABLE decision_log (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id   TEXT NOT NULL,
		request_type TEXT NOT NULL,
		action       TEXT NOT NULL,
		reason       TEXT,
		detail_json  TEXT,
		created_at   TEXT NOT NULL
	)`)
	if err != nil {
		t.Fatalf("create table: %v", err)
	}
	return db
}

// #endregion helpers

// #region log-decision-tests
func TestLogDecision_Success(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	entry := DecisionEntry{
		SessionID:   "s1",
		RequestType: "cartridge_content",
		Action:      "apply",
		Reason:      "state act2_play -> act2_play, 0 facts stored",
		DetailJSON:  `{"act":2}`,
		CreatedAt:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	err := LogDecision(db, entry)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var count int
	db.QueryRow("SELECT COUNT(*) FROM decision_log").Scan(&count)
	if count != 1 {
		t.Errorf("expected 1 row, got %d", count)
	}

	var sessionID, action string
	db.QueryRow("SELECT session_id, action FROM decision_log").Scan(&sessionID, &action)
	if sessionID != "s1" {
		t.Errorf("expected session_id 's1', got %q", sessionID)
	}
	if action != "apply" {
		t.Errorf("expected action 'apply', got %q", action)
	}
}

func TestLogDecision_ZeroCreatedAt(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	entry := DecisionEntry{
		SessionID:   "s2",
		RequestType: "fact_prompt",
		Action:      "apply",
	}

	before := time.Now().UTC()
	err := LogDecision(db, entry)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var createdAtStr string
	db.QueryRow("SELECT created_at FROM decision_log").Scan(&createdAtStr)
	createdAt, err := time.Parse(time.RFC3339Nano, createdAtStr)
	if err != nil {
		t.Fatalf("parse created_at: %v", err)
	}
	if createdAt.Before(before) {
		t.Error("expected auto-filled created_at to be >= test start time")
	}
}

func TestLogDecision_EmptyOptionalFields(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	entry := DecisionEntry{
		SessionID:   "s3",
		RequestType: "finale",
		Action:      "finished",
		Reason:      "",
		DetailJSON:  "",
		CreatedAt:   time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}

	err := LogDecision(db, entry)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var reason, detail sql.NullString
	db.QueryRow("SELECT reason, detail_json FROM decision_log").Scan(&reason, &detail)
	if reason.Valid {
		t.Error("expected NULL reason for empty string")
	}
	if detail.Valid {
		t.Error("expected NULL detail_json for empty string")
	}
}

func TestLogDecision_Error(t *testing.T) {
	db := setupDB(t)
	db.Close() // close to force error

	entry := DecisionEntry{
		SessionID:   "s4",
		RequestType: "fact_prompt",
		Action:      "apply",
	}

	err := LogDecision(db, entry)
	if err == nil {
		t.Fatal("expected error on closed db")
	}
}

// #endregion log-decision-tests

// #region list-tests
func TestListBySession(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	for i, action := range []string{"apply", "fallback", "finished"} {
		err := LogDecision(db, DecisionEntry{
			SessionID:   "s1",
			RequestType: "cartridge_content",
			Action:      action,
			CreatedAt:   time.Date(2026, 1, 1, 0, i, 0, 0, time.UTC),
		})
		if err != nil {
			t.Fatalf("log decision: %v", err)
		}
	}
	if err := LogDecision(db, DecisionEntry{SessionID: "other", RequestType: "finale", Action: "finished"}); err != nil {
		t.Fatalf("log decision: %v", err)
	}

	entries, err := ListBySession(db, "s1", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Action != "apply" || entries[2].Action != "finished" {
		t.Errorf("entries out of order: %v", entries)
	}
	if entries[1].Reason != "" {
		t.Errorf("expected empty reason, got %q", entries[1].Reason)
	}
}

// #endregion list-tests

// #region null-if-empty-tests
func TestNullIfEmpty_Empty(t *testing.T) {
	result := nullIfEmpty("")
	if result != nil {
		t.Errorf("expected nil for empty string, got %v", result)
	}
}

func TestNullIfEmpty_NonEmpty(t *testing.T) {
	result := nullIfEmpty("hello")
	if result != "hello" {
		t.Errorf("expected 'hello', got %v", result)
	}
}

// #endregion null-if-empty-tests
