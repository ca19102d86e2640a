package gm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validBody = `{
  "next_state": "act2_round",
  "screen": {"title": "Round One", "body": "Who said it?", "modality": "all_players"},
  "input_module": {"kind": "vote", "prompt": "Pick a player"},
  "facts_to_store": [],
  "safety_flags": {"content_appropriate": true, "age_appropriate": true}
}`

func TestDecodeValid(t *testing.T) {
	resp, err := Decode(validBody)
	require.NoError(t, err)
	assert.Equal(t, "act2_round", resp.NextState)
	assert.Equal(t, "Round One", resp.Screen.Title)
	require.NotNil(t, resp.InputModule)
	assert.Equal(t, "vote", resp.InputModule.Kind)
	assert.NotNil(t, resp.FactsToStore)
}

func TestDecodeStripsFences(t *testing.T) {
	fenced := "```json\n" + validBody + "\n```"
	resp, err := Decode(fenced)
	require.NoError(t, err)
	assert.Equal(t, "act2_round", resp.NextState)
}

func TestDecodeContractViolations(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "sorry, I can't do that"},
		{"missing next_state", `{"screen":{"title":"t","body":"b"},"safety_flags":{"content_appropriate":true,"age_appropriate":true}}`},
		{"empty next_state", `{"next_state":"","screen":{"title":"t","body":"b"},"safety_flags":{"content_appropriate":true,"age_appropriate":true}}`},
		{"missing screen", `{"next_state":"s","safety_flags":{"content_appropriate":true,"age_appropriate":true}}`},
		{"empty screen body", `{"next_state":"s","screen":{"title":"t","body":""},"safety_flags":{"content_appropriate":true,"age_appropriate":true}}`},
		{"missing safety_flags", `{"next_state":"s","screen":{"title":"t","body":"b"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.raw)
			var gmErr *Error
			require.True(t, errors.As(err, &gmErr))
			assert.False(t, gmErr.Retryable)
			assert.Equal(t, "decode", gmErr.Op)
		})
	}
}

func TestGateSubstitutesFallback(t *testing.T) {
	tests := []struct {
		name  string
		flags SafetyFlags
		want  bool
	}{
		{"both flags pass", SafetyFlags{ContentAppropriate: true, AgeAppropriate: true}, false},
		{"content flag fails", SafetyFlags{ContentAppropriate: false, AgeAppropriate: true}, true},
		{"age flag fails", SafetyFlags{ContentAppropriate: true, AgeAppropriate: false}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unsafe := Response{
				NextState: "spicy_state",
				Screen:    Screen{Title: "Too Spicy", Body: "..."},
				FactsToStore: []FactToStore{
					{TargetPlayerID: "p1", Answer: "should be dropped"},
				},
				SafetyFlags: tt.flags,
			}
			got, substituted := gate(unsafe)
			assert.Equal(t, tt.want, substituted)
			if tt.want {
				assert.Equal(t, FallbackState, got.NextState)
				assert.Equal(t, FallbackTitle, got.Screen.Title)
				assert.Empty(t, got.FactsToStore)
			} else {
				assert.Equal(t, "spicy_state", got.NextState)
			}
		})
	}
}
