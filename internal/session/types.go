// Package session owns the per-session turn cycle: it recalculates
// pacing after every event, drives act transitions, selects the next
// cartridge at act boundaries, issues game master requests, and
// applies validated responses back onto the event log and facts DB.
// One session is one logical thread of control; the log and DB are
// values, so readers elsewhere never race with a turn in progress.
package session

import (
	"time"

	"github.com/danielpatrickdp/partygm/internal/eventlog"
	"github.com/danielpatrickdp/partygm/internal/facts"
	"github.com/danielpatrickdp/partygm/internal/gm"
	"github.com/danielpatrickdp/partygm/internal/pacing"
)

// #region player

// Player is one participant in a pass-and-play session.
type Player struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	JoinedAt time.Time `json:"joined_at"`
}

// #endregion player

// #region setup

// Setup is the immutable session configuration chosen in the lobby.
type Setup struct {
	SessionID        string   `json:"session_id"`
	Players          []Player `json:"players"`
	TargetDurationMs int64    `json:"target_duration_ms"`
	SafetyMode       string   `json:"safety_mode"` // "family" | "adult"
}

// #endregion setup

// #region decision

// Decision records what applying a response did, for provenance.
type Decision struct {
	Action string // "apply" | "fallback" | "finished"
	Reason string
}

// #endregion decision

// #region turn-result

// TurnResult is everything one Advance produced.
type TurnResult struct {
	RequestType gm.RequestType
	Response    gm.Response
	Guide       pacing.Guide
	Cartridge   string // id of the cartridge in play, if any
	Decision    Decision
}

// #endregion turn-result

// #region bundle

// BundleVersion is the current serialization schema version. Loads of
// older bundles are logged but not refused.
const BundleVersion = 2

// Bundle is the serialized session handed to the persistence layer.
// Scores are denormalized for display; the event log remains the
// score authority and the two must agree.
type Bundle struct {
	Setup     Setup          `json:"setup"`
	State     string         `json:"state"`
	Act       int            `json:"act"`
	ActiveIdx int            `json:"active_idx"`
	StartedAt time.Time      `json:"started_at"`
	EventLog  eventlog.Log   `json:"event_log"`
	FactsDB   facts.DB       `json:"facts_db"`
	Scores    map[string]int `json:"scores"`
	Version   int            `json:"version"`
	LastSaved time.Time      `json:"last_saved"`
}

// #endregion bundle
