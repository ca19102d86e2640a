package gm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/partygm/internal/config"
	"github.com/danielpatrickdp/partygm/internal/eventlog"
	"github.com/danielpatrickdp/partygm/internal/facts"
	"github.com/danielpatrickdp/partygm/internal/pacing"
	"github.com/danielpatrickdp/partygm/internal/random"
)

func TestBuildRequestBoundsContext(t *testing.T) {
	cfg := config.Default()
	cfg.RecentEventsCount = 3
	cfg.MaxFactsInContext = 2

	log := eventlog.New("s1")
	for i := 0; i < 6; i++ {
		log = log.Append(eventlog.Event{ID: string(rune('a' + i)), Type: eventlog.TypePromptShown})
	}
	log = log.Append(eventlog.Event{Type: eventlog.TypeScoreAwarded, ActivePlayerID: "p1", Points: 3})

	db := facts.New()
	for i := 0; i < 5; i++ {
		db = db.AddFact(facts.Card{
			ID:             string(rune('f' + i)),
			TargetPlayerID: "p1",
			AuthorPlayerID: "p2",
			Category:       facts.CategoryHobbies,
		})
	}

	req := BuildRequest(cfg, BuildInput{
		SessionID:        "s1",
		State:            "act2_round",
		Act:              2,
		Players:          []PlayerRef{{ID: "p1", Name: "Ana"}, {ID: "p2", Name: "Bo"}},
		ActivePlayerID:   "p1",
		Log:              log,
		DB:               db,
		ElapsedMs:        60000,
		TargetDurationMs: 900000,
		Urgency:          pacing.Steady,
		Type:             RequestCartridgeContent,
		SafetyMode:       "family",
		Src:              random.New(3),
	})

	assert.Len(t, req.RecentEvents, 3)
	assert.Len(t, req.Facts, 2)
	assert.Equal(t, map[string]int{"p1": 3}, req.CurrentScores)
	assert.Equal(t, "steady", req.Urgency)
	assert.Equal(t, RequestCartridgeContent, req.RequestType)

	payload, err := userPayload(req)
	require.NoError(t, err)
	assert.Contains(t, payload, `"session_id": "s1"`)
}

func TestSystemPromptVariants(t *testing.T) {
	seen := map[string]bool{}
	for _, rt := range []RequestType{RequestSessionStart, RequestFactPrompt, RequestCartridgeContent, RequestScoreCommentary, RequestFinale} {
		p := systemPrompt(rt)
		assert.Contains(t, p, "safety_flags", "every variant carries the contract")
		seen[p] = true
	}
	assert.Len(t, seen, 5, "variants are distinct")

	// Unknown types fall back to the cartridge variant.
	assert.Equal(t, systemPrompt(RequestCartridgeContent), systemPrompt(RequestType("mystery")))
}
