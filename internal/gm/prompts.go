package gm

import (
	"fmt"
	"strings"
)

// #region contract

// responseContract is appended to every system prompt so the model
// always answers in the shape Decode validates.
const responseContract = `Respond with a single JSON object and nothing else:
{
  "next_state": "string, the state the session moves to",
  "screen": {
    "title": "string",
    "body": "string, what the group reads aloud or sees",
    "modality": "read_aloud | pass_device | all_players",
    "private": false,
    "instructions": "optional string for the device holder"
  },
  "input_module": {
    "kind": "text | choice | vote",
    "prompt": "string",
    "choices": ["only for choice/vote"],
    "target_player_id": "optional"
  },
  "facts_to_store": [
    {"target_player_id": "", "author_player_id": "", "category": "",
     "question": "", "answer": "", "private": false}
  ],
  "safety_flags": {"content_appropriate": true, "age_appropriate": true},
  "meta": {"tone": "optional", "notes": "optional"}
}
input_module may be null when no input is expected. Honestly set the
safety flags; flag anything crude, targeted, or not fit for the stated
safety mode.`

// #endregion contract

// #region system-prompts

var systemPrompts = map[RequestType]string{
	RequestSessionStart: `You are the game master of a pass-and-play party game.
Open the session: welcome the group warmly, explain that you will first
get to know everyone, and hand the device to the first player.`,

	RequestFactPrompt: `You are the game master of a pass-and-play party game in its
get-to-know-you act. Ask the active player one fresh, playful question
in one of the listed fact categories. Prefer categories with few facts
so the material stays varied. Store their eventual answer as a fact.`,

	RequestCartridgeContent: `You are the game master running the named mini-game
(cartridge_id). Build the next challenge from the supplied facts about
these specific players. Award points through the answers you judge;
reference the facts, never invent new ones about real players.`,

	RequestScoreCommentary: `You are the game master between rounds. Give a short,
punchy scoreboard moment: celebrate the leader, tease the trailing
players gently, and keep momentum. Match the stated urgency.`,

	RequestFinale: `You are the game master closing the session. Recap the best
moments from the recent events, crown the winner from current_scores,
and land a warm ending for the whole group.`,
}

// systemPrompt returns the variant for the request type plus the
// response contract. Unknown types fall back to the cartridge variant.
func systemPrompt(t RequestType) string {
	p, ok := systemPrompts[t]
	if !ok {
		p = systemPrompts[RequestCartridgeContent]
	}
	return p + "\n\n" + responseContract
}

// #endregion system-prompts

// #region selection-prompt

// selectionPrompt presents scored cartridge candidates for the
// model-assisted chooser. The reply must be a bare cartridge id.
func selectionPrompt(lines []string, recentIDs []string) string {
	var b strings.Builder
	b.WriteString("Pick the best next mini-game for this group.\n\nCandidates:\n")
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	if len(recentIDs) > 0 {
		fmt.Fprintf(&b, "\nPlayed recently (avoid repeats): %s\n", strings.Join(recentIDs, ", "))
	}
	b.WriteString("\nReply with exactly one candidate id and nothing else.")
	return b.String()
}

// #endregion selection-prompt
