// Package store persists session bundles. The local store is SQLite
// with a per-session version history; the active pointer per session
// always names the latest committed bundle.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/partygm/internal/session"
)

// #region errors

// ErrNotFound reports a session id with no saved bundle.
var ErrNotFound = errors.New("session not found")

// StorageError is a failed database operation, distinct from a simple
// not-found lookup.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// #endregion errors

// #region schema

const schema = `
CREATE TABLE IF NOT EXISTS bundle_versions (
	version_id    TEXT PRIMARY KEY,
	session_id    TEXT NOT NULL,
	bundle_json   TEXT NOT NULL,
	schema_ver    INTEGER NOT NULL,
	saved_at      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_bundle_versions_session
	ON bundle_versions (session_id, saved_at DESC);

CREATE TABLE IF NOT EXISTS active_sessions (
	session_id    TEXT PRIMARY KEY,
	version_id    TEXT NOT NULL,
	state         TEXT NOT NULL,
	act           INTEGER NOT NULL,
	player_count  INTEGER NOT NULL,
	saved_at      TEXT NOT NULL,
	FOREIGN KEY (version_id) REFERENCES bundle_versions(version_id)
);

CREATE TABLE IF NOT EXISTS decision_log (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id    TEXT NOT NULL,
	request_type  TEXT NOT NULL,
	action        TEXT NOT NULL,
	reason        TEXT,
	detail_json   TEXT,
	created_at    TEXT NOT NULL
);
`

// #endregion schema

// #region summary

// Summary is the listing row for a saved session.
type Summary struct {
	SessionID   string
	State       string
	Act         int
	PlayerCount int
	SavedAt     time.Time
}

// #endregion summary

// #region store

// Store manages bundle persistence in SQLite.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use by other packages.
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion store

// #region save

// SaveBundle commits a new bundle version and moves the session's
// active pointer to it atomically.
func (s *Store) SaveBundle(b session.Bundle) error {
	if b.Setup.SessionID == "" {
		return fmt.Errorf("bundle has no session id")
	}
	raw, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("marshal bundle: %w", err)
	}

	versionID := uuid.New().String()
	savedAt := b.LastSaved
	if savedAt.IsZero() {
		savedAt = time.Now().UTC()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return &StorageError{Op: "begin tx", Err: err}
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO bundle_versions (version_id, session_id, bundle_json, schema_ver, saved_at)
		 VALUES (?, ?, ?, ?, ?)`,
		versionID, b.Setup.SessionID, string(raw), b.Version, savedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return &StorageError{Op: "insert version", Err: err}
	}

	_, err = tx.Exec(
		`INSERT INTO active_sessions (session_id, version_id, state, act, player_count, saved_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET
		   version_id = excluded.version_id,
		   state = excluded.state,
		   act = excluded.act,
		   saved_at = excluded.saved_at`,
		b.Setup.SessionID, versionID, b.State, b.Act, len(b.Setup.Players),
		savedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return &StorageError{Op: "set active", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return &StorageError{Op: "commit", Err: err}
	}
	return nil
}

// Autosave persists the bundle, swallowing failures into a log line.
// Explicit saves go through SaveBundle so the caller sees the error.
func (s *Store) Autosave(b session.Bundle) bool {
	if err := s.SaveBundle(b); err != nil {
		s.logger.Error("autosave failed",
			zap.String("session_id", b.Setup.SessionID),
			zap.Error(err))
		return false
	}
	return true
}

// #endregion save

// #region load

// LoadBundle reads the latest bundle for a session. Older schema
// versions load with a warning, never a refusal.
func (s *Store) LoadBundle(sessionID string) (session.Bundle, error) {
	var raw string
	var schemaVer int
	err := s.db.QueryRow(
		`SELECT bv.bundle_json, bv.schema_ver
		 FROM active_sessions a
		 JOIN bundle_versions bv ON bv.version_id = a.version_id
		 WHERE a.session_id = ?`, sessionID,
	).Scan(&raw, &schemaVer)
	if errors.Is(err, sql.ErrNoRows) {
		return session.Bundle{}, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return session.Bundle{}, fmt.Errorf("load bundle %s: %w", sessionID, err)
	}

	if schemaVer < session.BundleVersion {
		s.logger.Warn("loading bundle with older schema version",
			zap.String("session_id", sessionID),
			zap.Int("found", schemaVer),
			zap.Int("current", session.BundleVersion))
	}

	var b session.Bundle
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		return session.Bundle{}, fmt.Errorf("unmarshal bundle %s: %w", sessionID, err)
	}
	return b, nil
}

// LoadVersion reads one historical bundle by its version id.
func (s *Store) LoadVersion(versionID string) (session.Bundle, error) {
	var raw string
	err := s.db.QueryRow(
		`SELECT bundle_json FROM bundle_versions WHERE version_id = ?`, versionID,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return session.Bundle{}, fmt.Errorf("version %s: %w", versionID, ErrNotFound)
	}
	if err != nil {
		return session.Bundle{}, fmt.Errorf("load version %s: %w", versionID, err)
	}
	var b session.Bundle
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		return session.Bundle{}, fmt.Errorf("unmarshal version %s: %w", versionID, err)
	}
	return b, nil
}

// #endregion load

// #region list

// ListSessions returns the most recently saved sessions.
func (s *Store) ListSessions(limit int) ([]Summary, error) {
	rows, err := s.db.Query(
		`SELECT session_id, state, act, player_count, saved_at
		 FROM active_sessions ORDER BY saved_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		var savedStr string
		if err := rows.Scan(&sum.SessionID, &sum.State, &sum.Act, &sum.PlayerCount, &savedStr); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		sum.SavedAt, _ = time.Parse(time.RFC3339Nano, savedStr)
		out = append(out, sum)
	}
	return out, rows.Err()
}

// ListVersions returns a session's save history, newest first.
func (s *Store) ListVersions(sessionID string, limit int) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT version_id FROM bundle_versions
		 WHERE session_id = ? ORDER BY saved_at DESC LIMIT ?`, sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// #endregion list
