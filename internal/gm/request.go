package gm

import (
	"encoding/json"
	"fmt"

	"github.com/danielpatrickdp/partygm/internal/config"
	"github.com/danielpatrickdp/partygm/internal/eventlog"
	"github.com/danielpatrickdp/partygm/internal/facts"
	"github.com/danielpatrickdp/partygm/internal/pacing"
	"github.com/danielpatrickdp/partygm/internal/random"
)

// #region build-input

// BuildInput is everything request shaping reads from the session.
type BuildInput struct {
	SessionID           string
	State               string
	Act                 int
	Players             []PlayerRef
	ActivePlayerID      string
	Log                 eventlog.Log
	DB                  facts.DB
	PreferredCategories []facts.Category
	CartridgeID         string
	ElapsedMs           int64
	TargetDurationMs    int64
	Urgency             pacing.Urgency
	Type                RequestType
	SafetyMode          string
	Src                 *random.Source
}

// #endregion build-input

// #region build-request

// BuildRequest assembles the model payload: compacted recent events,
// the relevant fact subset, and current scores derived from the log.
func BuildRequest(cfg config.Config, in BuildInput) Request {
	return Request{
		SessionID:        in.SessionID,
		CurrentState:     in.State,
		CurrentAct:       in.Act,
		Players:          in.Players,
		ActivePlayerID:   in.ActivePlayerID,
		RecentEvents:     in.Log.CompactForContext(cfg.RecentEventsCount),
		Facts:            in.DB.RelevantForCartridge(in.PreferredCategories, cfg.MaxFactsInContext, in.Src),
		CurrentScores:    in.Log.AllScores(),
		TimeElapsedMs:    in.ElapsedMs,
		TargetDurationMs: in.TargetDurationMs,
		Urgency:          in.Urgency.String(),
		CartridgeID:      in.CartridgeID,
		RequestType:      in.Type,
		SafetyMode:       in.SafetyMode,
	}
}

// #endregion build-request

// #region user-payload

// userPayload serializes the request as the user message body.
func userPayload(req Request) (string, error) {
	raw, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal request payload: %w", err)
	}
	return string(raw), nil
}

// #endregion user-payload
