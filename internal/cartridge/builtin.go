package cartridge

import (
	"github.com/danielpatrickdp/partygm/internal/facts"
	"github.com/danielpatrickdp/partygm/internal/pacing"
)

// #region builtins

// Builtins returns the stock mini-game definitions. The cmd drivers
// register these at startup; tests build their own smaller sets.
func Builtins() []Definition {
	return []Definition{
		{
			ID:                  "trivia-showdown",
			Name:                "Trivia Showdown",
			MinPlayers:          2,
			MaxPlayers:          12,
			MinFacts:            4,
			EstimatedDurationMs: 120000,
			RelevanceScore: func(ctx Context) float64 {
				// Thrives on a broad spread of material.
				return 0.4 + 0.6*ctx.DB.CategoryDiversity()
			},
		},
		{
			ID:                  "hot-seat",
			Name:                "Hot Seat",
			MinPlayers:          3,
			MaxPlayers:          10,
			MinFacts:            3,
			EstimatedDurationMs: 90000,
			RelevanceScore: func(ctx Context) float64 {
				// Works best while everyone still has unrevealed material.
				if len(ctx.DB.Private()) > 0 {
					return 0.8
				}
				return 0.5
			},
		},
		{
			ID:                  "two-truths",
			Name:                "Two Truths and a Lie",
			MinPlayers:          3,
			MaxPlayers:          8,
			MinFacts:            6,
			RequiredCategories:  []facts.Category{facts.CategoryEmbarrassing},
			EstimatedDurationMs: 150000,
			RelevanceScore: func(ctx Context) float64 {
				n := len(ctx.DB.FactsByCategory(facts.CategoryEmbarrassing))
				if n >= 4 {
					return 0.9
				}
				return 0.3 + 0.15*float64(n)
			},
		},
		{
			ID:                  "speed-round",
			Name:                "Speed Round",
			MinPlayers:          2,
			MaxPlayers:          12,
			MinFacts:            2,
			EstimatedDurationMs: 45000,
			RelevanceScore: func(ctx Context) float64 {
				// The short format is the escape hatch when time is tight.
				if ctx.Urgency == pacing.Urgent {
					return 0.95
				}
				return 0.35
			},
		},
		{
			ID:                  "superlatives",
			Name:                "Superlatives",
			MinPlayers:          4,
			MaxPlayers:          12,
			MinFacts:            5,
			RequiredCategories:  []facts.Category{facts.CategoryOpinions},
			EstimatedDurationMs: 100000,
			RelevanceScore: func(ctx Context) float64 {
				return 0.4 + 0.05*float64(ctx.PlayerCount)
			},
		},
	}
}

// #endregion builtins
