// Package cartridge implements the registry of pluggable mini-games
// and the selection algorithm that picks which one runs next. The
// registry is an explicit instance handed to its consumers; it is
// populated at startup and read-only afterwards.
package cartridge

import (
	"context"

	"github.com/danielpatrickdp/partygm/internal/eventlog"
	"github.com/danielpatrickdp/partygm/internal/facts"
	"github.com/danielpatrickdp/partygm/internal/pacing"
)

// #region context

// Context carries the session snapshot cartridges inspect when
// deciding eligibility and relevance.
type Context struct {
	PlayerCount int
	CurrentAct  int
	RemainingMs int64
	Urgency     pacing.Urgency
	Log         eventlog.Log
	DB          facts.DB
}

// #endregion context

// #region definition

// Definition describes one registered mini-game.
type Definition struct {
	ID                  string
	Name                string
	MinPlayers          int
	MaxPlayers          int
	RequiredCategories  []facts.Category
	MinFacts            int
	EstimatedDurationMs int64

	// CanRun is an optional extra eligibility predicate beyond the
	// declarative bounds above. nil means always runnable.
	CanRun func(Context) bool

	// RelevanceScore rates fit for the current moment in [0, 1].
	// nil scores a neutral 0.5.
	RelevanceScore func(Context) float64
}

func (d Definition) relevance(ctx Context) float64 {
	if d.RelevanceScore == nil {
		return 0.5
	}
	s := d.RelevanceScore(ctx)
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}

// #endregion definition

// #region chooser

// Chooser asks the model to pick among scored candidates. Any failure
// is recovered by falling back to heuristic selection.
type Chooser interface {
	Choose(ctx context.Context, sctx Context, candidates []Scored, recentIDs []string) (string, error)
}

// Scored pairs a candidate with its precomputed relevance score.
type Scored struct {
	Definition Definition
	Relevance  float64
}

// #endregion chooser
