package store

import (
	"encoding/json"
	"fmt"
	"time"

	supa "github.com/supabase-community/supabase-go"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/partygm/internal/session"
)

// #region remote

// remoteBundle matches the 'session_bundles' table in Supabase.
type remoteBundle struct {
	SessionID  string          `json:"session_id"`
	State      string          `json:"state"`
	Act        int             `json:"act"`
	BundleJSON json.RawMessage `json:"bundle_json"`
	SchemaVer  int             `json:"schema_ver"`
	SavedAt    time.Time       `json:"saved_at"`
}

// Remote mirrors bundles to a Supabase table so a session can move
// between devices. The local SQLite store stays authoritative; remote
// failures are the caller's to tolerate.
type Remote struct {
	client *supa.Client
	logger *zap.Logger
}

// NewRemote connects to Supabase with the project URL and anon key.
func NewRemote(url, key string, logger *zap.Logger) (*Remote, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	client, err := supa.NewClient(url, key, nil)
	if err != nil {
		return nil, fmt.Errorf("connect supabase: %w", err)
	}
	return &Remote{client: client, logger: logger}, nil
}

// #endregion remote

// #region remote-ops

// SaveBundle upserts the session's latest bundle.
func (r *Remote) SaveBundle(b session.Bundle) error {
	raw, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("marshal bundle: %w", err)
	}
	row := remoteBundle{
		SessionID:  b.Setup.SessionID,
		State:      b.State,
		Act:        b.Act,
		BundleJSON: raw,
		SchemaVer:  b.Version,
		SavedAt:    b.LastSaved,
	}

	var inserted []remoteBundle
	_, err = r.client.From("session_bundles").
		Upsert(row, "session_id", "", "").
		ExecuteTo(&inserted)
	if err != nil {
		return fmt.Errorf("upsert bundle: %w", err)
	}
	r.logger.Debug("bundle mirrored to remote",
		zap.String("session_id", b.Setup.SessionID))
	return nil
}

// LoadBundle fetches the session's latest bundle from Supabase.
func (r *Remote) LoadBundle(sessionID string) (session.Bundle, error) {
	var rows []remoteBundle
	_, err := r.client.From("session_bundles").
		Select("*", "exact", false).
		Eq("session_id", sessionID).
		Limit(1, "").
		ExecuteTo(&rows)
	if err != nil {
		return session.Bundle{}, fmt.Errorf("fetch bundle: %w", err)
	}
	if len(rows) == 0 {
		return session.Bundle{}, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}

	var b session.Bundle
	if err := json.Unmarshal(rows[0].BundleJSON, &b); err != nil {
		return session.Bundle{}, fmt.Errorf("unmarshal remote bundle: %w", err)
	}
	return b, nil
}

// #endregion remote-ops
