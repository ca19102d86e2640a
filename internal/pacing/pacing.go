// Package pacing converts elapsed time and content-gathering progress
// into act-transition recommendations and an urgency signal. Calculate
// is a pure function of its input; it holds no state of its own.
package pacing

import (
	"fmt"
	"math"
	"time"

	"github.com/danielpatrickdp/partygm/internal/config"
	"github.com/danielpatrickdp/partygm/internal/eventlog"
	"github.com/danielpatrickdp/partygm/internal/facts"
)

// #region urgency

// Urgency is a coarse time-pressure signal for downstream content
// generation. Ordered: relaxed < steady < urgent.
type Urgency int

const (
	Relaxed Urgency = iota
	Steady
	Urgent
)

func (u Urgency) String() string {
	switch u {
	case Relaxed:
		return "relaxed"
	case Steady:
		return "steady"
	default:
		return "urgent"
	}
}

// #endregion urgency

// #region input

// Input bundles everything the calculator reads for one evaluation.
// TargetDurationMs must be > 0; the caller guards this.
type Input struct {
	Now              time.Time
	StartedAt        time.Time
	TargetDurationMs int64
	CurrentAct       int
	PlayerCount      int
	Log              eventlog.Log
	DB               facts.DB
}

// #endregion input

// #region guide

// Guide is the derived pacing recommendation. It is recomputed on
// demand and never persisted.
type Guide struct {
	ElapsedMs       int64
	TargetMs        int64
	RemainingMs     int64
	ProgressPercent float64

	ShouldEndAct1 bool
	ShouldEndAct2 bool
	ShouldEndAct3 bool

	RecommendedRounds int
	RoundsCompleted   int

	Urgency Urgency
	Reasons []string
}

// #endregion guide

// #region calculate

// Calculate evaluates act-end conditions and urgency for the current
// moment. Multiple reasons may be recorded when several thresholds
// trip at once; each ShouldEndActN is the OR of its conditions.
func Calculate(cfg config.Config, in Input) Guide {
	elapsed := in.Now.Sub(in.StartedAt).Milliseconds()
	if elapsed < 0 {
		elapsed = 0
	}
	remaining := in.TargetDurationMs - elapsed
	progress := 100 * float64(elapsed) / float64(in.TargetDurationMs)

	g := Guide{
		ElapsedMs:       elapsed,
		TargetMs:        in.TargetDurationMs,
		RemainingMs:     remaining,
		ProgressPercent: progress,
		RoundsCompleted: roundsCompleted(in.Log),
	}

	evalAct1(cfg, in, elapsed, &g)
	evalAct2(cfg, in, elapsed, &g)
	evalAct3(cfg, in, elapsed, &g)

	switch {
	case progress < 33:
		g.Urgency = Relaxed
	case progress < 75:
		g.Urgency = Steady
	default:
		g.Urgency = Urgent
	}

	return g
}

// #endregion calculate

// #region act1

func evalAct1(cfg config.Config, in Input, elapsed int64, g *Guide) {
	factCount := in.DB.Len()
	threshold := int64(float64(in.TargetDurationMs) * cfg.Act1TargetPercent)

	if in.DB.HasSufficientFacts(in.PlayerCount, cfg.MinFacts, cfg.TargetFactsPerPlayer) {
		g.ShouldEndAct1 = true
		g.Reasons = append(g.Reasons, fmt.Sprintf("sufficient facts collected (%d)", factCount))
	}
	if elapsed >= threshold && factCount >= cfg.MinFacts {
		g.ShouldEndAct1 = true
		g.Reasons = append(g.Reasons, "act 1 time budget spent with minimum facts met")
	}
	if factCount >= cfg.MaxFacts {
		g.ShouldEndAct1 = true
		g.Reasons = append(g.Reasons, fmt.Sprintf("fact cap reached (%d)", factCount))
	}
}

// #endregion act1

// #region act2

func evalAct2(cfg config.Config, in Input, elapsed int64, g *Guide) {
	avgRoundMs := int64(cfg.AvgRoundSec) * 1000
	threshold := int64(float64(in.TargetDurationMs) * cfg.Act2TargetPercent)
	budget := threshold - elapsed

	recommended := cfg.MinRounds
	if avgRoundMs > 0 {
		recommended = int(budget / avgRoundMs)
	}
	if recommended < cfg.MinRounds {
		recommended = cfg.MinRounds
	}
	if recommended > cfg.MaxRounds {
		recommended = cfg.MaxRounds
	}
	g.RecommendedRounds = recommended

	rounds := g.RoundsCompleted
	if elapsed >= threshold && rounds >= cfg.MinRounds {
		g.ShouldEndAct2 = true
		g.Reasons = append(g.Reasons, "act 2 time budget spent with minimum rounds done")
	}
	if budget < avgRoundMs && rounds >= cfg.MinRounds {
		g.ShouldEndAct2 = true
		g.Reasons = append(g.Reasons, "not enough time left for another round")
	}
	if rounds >= cfg.MaxRounds {
		g.ShouldEndAct2 = true
		g.Reasons = append(g.Reasons, fmt.Sprintf("round cap reached (%d)", rounds))
	}
	if rounds >= recommended {
		g.ShouldEndAct2 = true
		g.Reasons = append(g.Reasons, fmt.Sprintf("recommended rounds completed (%d/%d)", rounds, recommended))
	}
}

func roundsCompleted(log eventlog.Log) int {
	n := 0
	for _, e := range log.Events {
		if e.Type == eventlog.TypeCartridgeCompleted {
			n++
		}
	}
	return n
}

// #endregion act2

// #region act3

func evalAct3(cfg config.Config, in Input, elapsed int64, g *Guide) {
	// Soft signal only; the session state machine is the real
	// termination authority.
	if elapsed >= int64(float64(in.TargetDurationMs)*cfg.Act3TargetPercent) {
		g.ShouldEndAct3 = true
		g.Reasons = append(g.Reasons, "finale time reached")
	}
}

// #endregion act3

// #region act-progress

// ActProgress maps overall session progress (percent) into a
// within-act percentage using the configured act boundaries, clamped
// to [0, 100].
func ActProgress(cfg config.Config, act int, overallPercent float64) float64 {
	b1 := cfg.Act1TargetPercent * 100
	b2 := cfg.Act2TargetPercent * 100
	b3 := cfg.Act3TargetPercent * 100

	var p float64
	switch act {
	case 1:
		p = 100 * overallPercent / b1
	case 2:
		p = 100 * (overallPercent - b1) / (b2 - b1)
	default:
		p = 100 * (overallPercent - b2) / (b3 - b2)
	}
	return math.Max(0, math.Min(100, p))
}

// #endregion act-progress
