package cartridge

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/partygm/internal/eventlog"
)

// #region constants

const (
	recencyWindow  = 2 // cartridge starts considered "recent"
	recencyPenalty = 0.3
	fitBonus       = 1.2
	fitRatioLow    = 0.3
	fitRatioHigh   = 0.7
	jitterLow      = 0.95
	jitterHigh     = 1.05
)

// #endregion constants

// #region select-next

// SelectNext picks the next cartridge to run, or nil when nothing is
// runnable (the caller skips the mini-game phase). With a non-nil
// chooser the model picks among the candidates; any chooser failure
// falls back to heuristic selection silently.
func (r *Registry) SelectNext(ctx context.Context, sctx Context, chooser Chooser) *Definition {
	candidates := r.Runnable(sctx)
	if len(candidates) == 0 {
		return nil
	}
	if len(candidates) == 1 {
		return &candidates[0]
	}

	if chooser != nil {
		if def := r.selectWithChooser(ctx, sctx, candidates, chooser); def != nil {
			return def
		}
	}

	def := r.selectHeuristic(sctx, candidates)
	return &def
}

// #endregion select-next

// #region heuristic

// selectHeuristic scores every candidate: relevance, a penalty for the
// two most recently started cartridges, a bonus when the estimated
// duration fits the remaining time, and a small random jitter to break
// ties.
func (r *Registry) selectHeuristic(sctx Context, candidates []Definition) Definition {
	recent := recentStarts(sctx.Log, recencyWindow)

	best := candidates[0]
	bestScore := -1.0
	for _, def := range candidates {
		score := def.relevance(sctx)
		if recent[def.ID] {
			score *= recencyPenalty
		}
		if sctx.RemainingMs > 0 {
			ratio := float64(def.EstimatedDurationMs) / float64(sctx.RemainingMs)
			if ratio > fitRatioLow && ratio < fitRatioHigh {
				score *= fitBonus
			}
		}
		score *= r.src.Jitter(jitterLow, jitterHigh)

		if score > bestScore {
			bestScore = score
			best = def
		}
	}
	return best
}

// recentStarts collects the ids named by the last n cartridge-start
// events. Repeat starts count against n, so a cartridge started twice
// in a row shields nothing older.
func recentStarts(log eventlog.Log, n int) map[string]bool {
	recent := make(map[string]bool, n)
	seen := 0
	for i := len(log.Events) - 1; i >= 0 && seen < n; i-- {
		e := log.Events[i]
		if e.Type == eventlog.TypeCartridgeStarted && e.CartridgeID != "" {
			recent[e.CartridgeID] = true
			seen++
		}
	}
	return recent
}

// #endregion heuristic

// #region llm-assisted

// selectWithChooser presents scored candidates to the model and parses
// its free-text reply for a candidate id. Returns nil when the call
// fails or the reply names no candidate.
func (r *Registry) selectWithChooser(ctx context.Context, sctx Context, candidates []Definition, chooser Chooser) *Definition {
	scored := make([]Scored, len(candidates))
	for i, def := range candidates {
		scored[i] = Scored{Definition: def, Relevance: def.relevance(sctx)}
	}
	recentIDs := []string{}
	for id := range recentStarts(sctx.Log, recencyWindow) {
		recentIDs = append(recentIDs, id)
	}

	reply, err := chooser.Choose(ctx, sctx, scored, recentIDs)
	if err != nil {
		r.logger.Warn("model-assisted selection failed, falling back to heuristic",
			zap.Error(err))
		return nil
	}

	if def := matchCandidate(reply, candidates); def != nil {
		return def
	}
	r.logger.Warn("model reply named no runnable cartridge, falling back to heuristic",
		zap.String("reply", reply))
	return nil
}

// matchCandidate looks for a candidate id in the reply: exact match
// after trimming first, then substring containment.
func matchCandidate(reply string, candidates []Definition) *Definition {
	cleaned := strings.ToLower(strings.TrimSpace(strings.Trim(reply, "\"'`.")))
	for i, def := range candidates {
		if cleaned == strings.ToLower(def.ID) {
			return &candidates[i]
		}
	}
	for i, def := range candidates {
		if strings.Contains(cleaned, strings.ToLower(def.ID)) {
			return &candidates[i]
		}
	}
	return nil
}

// #endregion llm-assisted
