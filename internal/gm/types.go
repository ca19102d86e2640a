// Package gm is the orchestration client around the external game
// master model: it shapes requests from session state, enforces a
// strict response contract, gates unsafe content behind a fixed
// fallback, and retries transient transport failures.
package gm

import (
	"fmt"

	"github.com/danielpatrickdp/partygm/internal/eventlog"
	"github.com/danielpatrickdp/partygm/internal/facts"
)

// #region request-type

// RequestType selects which system-prompt variant a request uses.
type RequestType string

const (
	RequestSessionStart     RequestType = "session_start"
	RequestFactPrompt       RequestType = "fact_prompt"
	RequestCartridgeContent RequestType = "cartridge_content"
	RequestScoreCommentary  RequestType = "score_commentary"
	RequestFinale           RequestType = "finale"
)

// #endregion request-type

// #region player-ref

// PlayerRef identifies a player inside a model request.
type PlayerRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// #endregion player-ref

// #region request

// Request is the structured payload sent to the model.
type Request struct {
	SessionID        string           `json:"session_id"`
	CurrentState     string           `json:"current_state"`
	CurrentAct       int              `json:"current_act"`
	Players          []PlayerRef      `json:"players"`
	ActivePlayerID   string           `json:"active_player_id,omitempty"`
	RecentEvents     []eventlog.Event `json:"recent_events"`
	Facts            []facts.Card     `json:"facts"`
	CurrentScores    map[string]int   `json:"current_scores"`
	TimeElapsedMs    int64            `json:"time_elapsed_ms"`
	TargetDurationMs int64            `json:"target_duration_ms"`
	Urgency          string           `json:"urgency"`
	CartridgeID      string           `json:"cartridge_id,omitempty"`
	RequestType      RequestType      `json:"request_type"`
	SafetyMode       string           `json:"safety_mode"`
}

// #endregion request

// #region response

// Screen is the content block handed to rendering.
type Screen struct {
	Title        string `json:"title"`
	Body         string `json:"body"`
	Modality     string `json:"modality"`
	Private      bool   `json:"private"`
	Instructions string `json:"instructions,omitempty"`
}

// InputModule describes the input control the next screen shows.
type InputModule struct {
	Kind           string   `json:"kind"` // "text" | "choice" | "vote"
	Prompt         string   `json:"prompt"`
	Choices        []string `json:"choices,omitempty"`
	TargetPlayerID string   `json:"target_player_id,omitempty"`
}

// FactToStore is a fact the model wants recorded.
type FactToStore struct {
	TargetPlayerID string `json:"target_player_id"`
	AuthorPlayerID string `json:"author_player_id"`
	Category       string `json:"category"`
	Question       string `json:"question"`
	Answer         string `json:"answer"`
	Private        bool   `json:"private"`
}

// SafetyFlags is the model's self-assessment of its own output. A
// response failing either flag is never forwarded to rendering.
type SafetyFlags struct {
	ContentAppropriate bool   `json:"content_appropriate"`
	AgeAppropriate     bool   `json:"age_appropriate"`
	WarningMessage     string `json:"warning_message,omitempty"`
}

// Meta carries non-gameplay annotations from the model.
type Meta struct {
	Tone  string `json:"tone,omitempty"`
	Notes string `json:"notes,omitempty"`
}

// Response is the validated model output applied to game state.
type Response struct {
	NextState    string        `json:"next_state"`
	Screen       Screen        `json:"screen"`
	InputModule  *InputModule  `json:"input_module,omitempty"`
	FactsToStore []FactToStore `json:"facts_to_store"`
	SafetyFlags  SafetyFlags   `json:"safety_flags"`
	Meta         Meta          `json:"meta"`
}

// #endregion response

// #region call-state

// CallState tracks one request through the client's state machine.
// Pending -> Succeeded | Retrying -> Pending | Failed. Succeeded and
// Failed are terminal.
type CallState string

const (
	StatePending   CallState = "pending"
	StateRetrying  CallState = "retrying"
	StateSucceeded CallState = "succeeded"
	StateFailed    CallState = "failed"
)

// #endregion call-state

// #region error

// Error is the typed failure surfaced at the orchestration boundary.
// Retryable distinguishes "explain and offer a retry" from "abort":
// it is false for contract violations and for exhausted retry budgets.
type Error struct {
	Op         string
	Retryable  bool
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("gm %s (status %d): %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("gm %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// #endregion error
