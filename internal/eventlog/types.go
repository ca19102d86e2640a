// Package eventlog implements the append-only event log that is the
// single source of truth for derived session state (scores, turn
// counts, recency). A Log is a value: every mutation returns a new Log
// and never touches the receiver, so concurrent readers need no locks.
package eventlog

import "time"

// #region event-type

// Type categorizes a game event.
type Type string

const (
	TypeStateTransition    Type = "state_transition"
	TypePromptShown        Type = "prompt_shown"
	TypeAnswerSubmitted    Type = "answer_submitted"
	TypeScoreAwarded       Type = "score_awarded"
	TypeFactStored         Type = "fact_stored"
	TypeCartridgeStarted   Type = "cartridge_started"
	TypeCartridgeCompleted Type = "cartridge_completed"
)

// #endregion event-type

// #region event

// Event is an immutable record of one game action. Insertion order in
// the log, not Timestamp, is authoritative for "recent N" queries.
type Event struct {
	ID             string    `json:"id"`
	Type           Type      `json:"type"`
	Timestamp      time.Time `json:"timestamp"`
	ActNumber      int       `json:"act_number"`
	ActivePlayerID string    `json:"active_player_id,omitempty"`

	// Type-specific fields. Zero values mean "not applicable".
	FromState   string `json:"from_state,omitempty"`   // state_transition
	ToState     string `json:"to_state,omitempty"`     // state_transition
	PromptTitle string `json:"prompt_title,omitempty"` // prompt_shown
	Answer      string `json:"answer,omitempty"`       // answer_submitted
	Points      int    `json:"points,omitempty"`       // score_awarded
	FactID      string `json:"fact_id,omitempty"`      // fact_stored
	CartridgeID string `json:"cartridge_id,omitempty"` // cartridge_started/completed
}

// #endregion event

// #region log

// Log is the append-only event history for one session.
type Log struct {
	SessionID string  `json:"session_id"`
	Events    []Event `json:"events"`
}

// New creates an empty log owned by the given session.
func New(sessionID string) Log {
	return Log{SessionID: sessionID, Events: []Event{}}
}

// Len returns the number of recorded events.
func (l Log) Len() int {
	return len(l.Events)
}

// #endregion log
