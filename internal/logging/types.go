// Package logging records decision provenance: one row per applied
// model response, so a finished session can be audited or replayed
// turn by turn.
package logging

import "time"

// #region decision-entry

// DecisionEntry is a single row in the decision_log table.
type DecisionEntry struct {
	ID          int64
	SessionID   string
	RequestType string
	Action      string // "apply" | "fallback" | "finished"
	Reason      string
	DetailJSON  string
	CreatedAt   time.Time
}

// #endregion decision-entry

// #region turn-record

// TurnRecord captures the inputs and outcome of one turn. Serialized
// as JSON into decision_log.detail_json.
type TurnRecord struct {
	State         string   `json:"state"`
	Act           int      `json:"act"`
	Urgency       string   `json:"urgency"`
	ElapsedMs     int64    `json:"elapsed_ms"`
	RemainingMs   int64    `json:"remaining_ms"`
	PacingReasons []string `json:"pacing_reasons,omitempty"`
	CartridgeID   string   `json:"cartridge_id,omitempty"`
	NextState     string   `json:"next_state"`
	FactsStored   int      `json:"facts_stored"`
	ScreenTitle   string   `json:"screen_title"`
}

// #endregion turn-record
