package gm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// #region decode

type wireResponse struct {
	NextState    *string       `json:"next_state"`
	Screen       *Screen       `json:"screen"`
	InputModule  *InputModule  `json:"input_module"`
	FactsToStore []FactToStore `json:"facts_to_store"`
	SafetyFlags  *SafetyFlags  `json:"safety_flags"`
	Meta         Meta          `json:"meta"`
}

// Decode parses raw model output against the response contract.
// Downstream code only ever sees a validated Response; any violation
// is a terminal *Error that is never retried automatically.
func Decode(raw string) (Response, error) {
	cleaned := stripFences(raw)

	var wire wireResponse
	if err := json.Unmarshal([]byte(cleaned), &wire); err != nil {
		return Response{}, &Error{
			Op:        "decode",
			Retryable: false,
			Err:       fmt.Errorf("response is not valid JSON: %w", err),
		}
	}

	var missing []string
	if wire.NextState == nil || *wire.NextState == "" {
		missing = append(missing, "next_state")
	}
	if wire.Screen == nil {
		missing = append(missing, "screen")
	} else {
		if wire.Screen.Title == "" {
			missing = append(missing, "screen.title")
		}
		if wire.Screen.Body == "" {
			missing = append(missing, "screen.body")
		}
	}
	if wire.SafetyFlags == nil {
		missing = append(missing, "safety_flags")
	}
	if len(missing) > 0 {
		return Response{}, &Error{
			Op:        "decode",
			Retryable: false,
			Err:       fmt.Errorf("response missing required fields: %s", strings.Join(missing, ", ")),
		}
	}

	facts := wire.FactsToStore
	if facts == nil {
		facts = []FactToStore{}
	}

	return Response{
		NextState:    *wire.NextState,
		Screen:       *wire.Screen,
		InputModule:  wire.InputModule,
		FactsToStore: facts,
		SafetyFlags:  *wire.SafetyFlags,
		Meta:         wire.Meta,
	}, nil
}

// stripFences removes a markdown code fence around the JSON body, a
// habit some models keep even when told not to.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// #endregion decode

// #region safety-gate

// Fallback payload constants. The screen content is fixed and generic;
// it replaces anything the model produced.
const (
	FallbackState = "safe_interlude"
	FallbackTitle = "Quick Intermission"
)

// SafeFallback is the fixed payload substituted for responses that
// fail the safety gate.
func SafeFallback() Response {
	return Response{
		NextState: FallbackState,
		Screen: Screen{
			Title:    FallbackTitle,
			Body:     "Let's shake things up! Everyone swap seats with the person across from you, then pass the device to the next player.",
			Modality: "all_players",
		},
		FactsToStore: []FactToStore{},
		SafetyFlags: SafetyFlags{
			ContentAppropriate: true,
			AgeAppropriate:     true,
		},
	}
}

// gate substitutes the safe fallback when either safety flag fails.
// The unsafe payload (facts included) is discarded entirely; this is a
// hard gate, not an error.
func gate(resp Response) (Response, bool) {
	if resp.SafetyFlags.ContentAppropriate && resp.SafetyFlags.AgeAppropriate {
		return resp, false
	}
	return SafeFallback(), true
}

// #endregion safety-gate
