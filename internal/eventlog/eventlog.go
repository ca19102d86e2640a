package eventlog

import "time"

// #region append

// Append returns a new log with the event added. The receiver is never
// mutated; the three-index slice keeps the old backing array from
// being shared with future appends.
func (l Log) Append(e Event) Log {
	events := append(l.Events[:len(l.Events):len(l.Events)], e)
	return Log{SessionID: l.SessionID, Events: events}
}

// AppendMany appends events in the given order.
func (l Log) AppendMany(events []Event) Log {
	out := l
	for _, e := range events {
		out = out.Append(e)
	}
	return out
}

// #endregion append

// #region queries

// ByType returns all events of the given type in insertion order.
func (l Log) ByType(t Type) []Event {
	out := []Event{}
	for _, e := range l.Events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// ByPlayer returns all events attributed to the given active player.
func (l Log) ByPlayer(playerID string) []Event {
	out := []Event{}
	for _, e := range l.Events {
		if e.ActivePlayerID == playerID {
			out = append(out, e)
		}
	}
	return out
}

// ByAct returns all events recorded during the given act.
func (l Log) ByAct(act int) []Event {
	out := []Event{}
	for _, e := range l.Events {
		if e.ActNumber == act {
			out = append(out, e)
		}
	}
	return out
}

// ByTimeRange returns events with from <= Timestamp <= to.
func (l Log) ByTimeRange(from, to time.Time) []Event {
	out := []Event{}
	for _, e := range l.Events {
		if !e.Timestamp.Before(from) && !e.Timestamp.After(to) {
			out = append(out, e)
		}
	}
	return out
}

// Recent returns the last n events in insertion order. n <= 0 yields
// an empty slice; n >= Len yields a copy of the whole log.
func (l Log) Recent(n int) []Event {
	if n <= 0 {
		return []Event{}
	}
	start := len(l.Events) - n
	if start < 0 {
		start = 0
	}
	out := make([]Event, len(l.Events)-start)
	copy(out, l.Events[start:])
	return out
}

// LastOfType returns the most recent event of the given type, or false
// if none exists.
func (l Log) LastOfType(t Type) (Event, bool) {
	for i := len(l.Events) - 1; i >= 0; i-- {
		if l.Events[i].Type == t {
			return l.Events[i], true
		}
	}
	return Event{}, false
}

// #endregion queries

// #region aggregations

// CountByType tallies events per type.
func (l Log) CountByType() map[Type]int {
	counts := make(map[Type]int)
	for _, e := range l.Events {
		counts[e.Type]++
	}
	return counts
}

// PlayerScore sums points from score_awarded events for one player.
// This is the single authoritative score computation; any cached score
// elsewhere must always equal it.
func (l Log) PlayerScore(playerID string) int {
	total := 0
	for _, e := range l.Events {
		if e.Type == TypeScoreAwarded && e.ActivePlayerID == playerID {
			total += e.Points
		}
	}
	return total
}

// AllScores computes every player's score in one pass.
func (l Log) AllScores() map[string]int {
	scores := make(map[string]int)
	for _, e := range l.Events {
		if e.Type == TypeScoreAwarded && e.ActivePlayerID != "" {
			scores[e.ActivePlayerID] += e.Points
		}
	}
	return scores
}

// TurnCounts counts, per player, the state transitions in which they
// became the active player.
func (l Log) TurnCounts() map[string]int {
	counts := make(map[string]int)
	for _, e := range l.Events {
		if e.Type == TypeStateTransition && e.ActivePlayerID != "" {
			counts[e.ActivePlayerID]++
		}
	}
	return counts
}

// #endregion aggregations

// #region compaction

// CompactForContext bounds the event history handed to the model: the
// most recent recentCount events verbatim when the log is longer,
// otherwise the whole log. Dropped older events are not summarized.
func (l Log) CompactForContext(recentCount int) []Event {
	if recentCount <= 0 {
		recentCount = 10
	}
	return l.Recent(recentCount)
}

// #endregion compaction
