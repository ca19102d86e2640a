package gm

import (
	"context"
	"fmt"

	"github.com/danielpatrickdp/partygm/internal/cartridge"
	"github.com/danielpatrickdp/partygm/internal/codec"
)

// #region chooser

// Chooser implements cartridge.Chooser over the model transport. It
// makes a single attempt; the registry falls back to heuristic
// selection on any failure, so no retry budget is spent here.
type Chooser struct {
	client *Client
}

// NewChooser creates a model-assisted cartridge chooser.
func NewChooser(client *Client) *Chooser {
	return &Chooser{client: client}
}

// Choose presents the scored candidates and returns the model's raw
// reply for the registry to parse.
func (ch *Chooser) Choose(ctx context.Context, sctx cartridge.Context, candidates []cartridge.Scored, recentIDs []string) (string, error) {
	lines := make([]string, len(candidates))
	for i, c := range candidates {
		lines[i] = fmt.Sprintf("- %s (%s): relevance %.2f, about %ds, needs %d-%d players",
			c.Definition.ID, c.Definition.Name, c.Relevance,
			c.Definition.EstimatedDurationMs/1000,
			c.Definition.MinPlayers, c.Definition.MaxPlayers)
	}

	return ch.client.transport.Complete(ctx, codec.CompletionRequest{
		System:      "You choose the next mini-game for a pass-and-play party game.",
		User:        selectionPrompt(lines, recentIDs),
		Temperature: ch.client.cfg.Temperature,
		MaxTokens:   64,
		TopP:        ch.client.cfg.TopP,
	})
}

// #endregion chooser
