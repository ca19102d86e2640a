package facts

import (
	"math"
	"time"

	"github.com/danielpatrickdp/partygm/internal/random"
)

// #region add

// AddFact returns a new DB with the card appended and both indexes
// updated. The receiver is never mutated.
func (db DB) AddFact(card Card) DB {
	out := DB{
		Facts:      append(db.Facts[:len(db.Facts):len(db.Facts)], card),
		ByPlayer:   cloneIndex(db.ByPlayer),
		ByCategory: cloneIndex(db.ByCategory),
	}
	out.ByPlayer[card.TargetPlayerID] = append(out.ByPlayer[card.TargetPlayerID], card.ID)
	out.ByCategory[card.Category] = append(out.ByCategory[card.Category], card.ID)
	return out
}

// AddFacts applies AddFact sequentially, preserving order.
func (db DB) AddFacts(cards []Card) DB {
	out := db
	for _, c := range cards {
		out = out.AddFact(c)
	}
	return out
}

func cloneIndex[K comparable](idx map[K][]string) map[K][]string {
	out := make(map[K][]string, len(idx))
	for k, ids := range idx {
		out[k] = ids[:len(ids):len(ids)]
	}
	return out
}

// #endregion add

// #region queries

// Get returns the card with the given id.
func (db DB) Get(id string) (Card, bool) {
	for _, f := range db.Facts {
		if f.ID == id {
			return f, true
		}
	}
	return Card{}, false
}

// FactsByPlayer returns the cards targeting a player, in insertion order.
func (db DB) FactsByPlayer(playerID string) []Card {
	return db.resolve(db.ByPlayer[playerID])
}

// FactsByCategory returns the cards in one category, in insertion order.
func (db DB) FactsByCategory(cat Category) []Card {
	return db.resolve(db.ByCategory[cat])
}

// FactsByCategories returns the union of several categories,
// de-duplicated by id, preserving per-category traversal order.
func (db DB) FactsByCategories(cats []Category) []Card {
	seen := make(map[string]bool)
	out := []Card{}
	for _, cat := range cats {
		for _, f := range db.resolve(db.ByCategory[cat]) {
			if !seen[f.ID] {
				seen[f.ID] = true
				out = append(out, f)
			}
		}
	}
	return out
}

// FactsByAuthor returns the cards written by a player. Authors are not
// indexed, so this is a linear scan.
func (db DB) FactsByAuthor(playerID string) []Card {
	out := []Card{}
	for _, f := range db.Facts {
		if f.AuthorPlayerID == playerID {
			out = append(out, f)
		}
	}
	return out
}

// Private returns private cards that have not been revealed yet.
func (db DB) Private() []Card {
	out := []Card{}
	for _, f := range db.Facts {
		if f.Privacy == PrivacyPrivateUntilReveal && f.RevealedAt == nil {
			out = append(out, f)
		}
	}
	return out
}

// Revealed returns cards whose reveal timestamp is set.
func (db DB) Revealed() []Card {
	out := []Card{}
	for _, f := range db.Facts {
		if f.RevealedAt != nil {
			out = append(out, f)
		}
	}
	return out
}

func (db DB) resolve(ids []string) []Card {
	out := []Card{}
	for _, id := range ids {
		if f, ok := db.Get(id); ok {
			out = append(out, f)
		}
	}
	return out
}

// #endregion queries

// #region sampling

// Sample returns count cards drawn uniformly without replacement via
// Fisher-Yates. When count >= len(cards) it returns a copy of the
// whole input, never a shared slice.
func Sample(cards []Card, count int, src *random.Source) []Card {
	out := make([]Card, len(cards))
	copy(out, cards)
	if count >= len(out) {
		return out
	}
	for i := len(out) - 1; i > 0; i-- {
		j := src.IntN(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out[:count:count]
}

// #endregion sampling

// #region reveal

// RevealFact marks one card revealed at now. Reveal is idempotent: a
// card that already carries a reveal timestamp keeps it.
func (db DB) RevealFact(id string, now time.Time) DB {
	return db.revealMatching(func(f Card) bool { return f.ID == id }, now)
}

// RevealFacts marks every matching id revealed at now.
func (db DB) RevealFacts(ids []string, now time.Time) DB {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	return db.revealMatching(func(f Card) bool { return want[f.ID] }, now)
}

// RevealAllPrivate reveals every still-private card.
func (db DB) RevealAllPrivate(now time.Time) DB {
	return db.revealMatching(func(f Card) bool {
		return f.Privacy == PrivacyPrivateUntilReveal
	}, now)
}

func (db DB) revealMatching(match func(Card) bool, now time.Time) DB {
	changed := false
	facts := make([]Card, len(db.Facts))
	copy(facts, db.Facts)
	for i, f := range facts {
		if match(f) && f.RevealedAt == nil {
			ts := now
			facts[i].RevealedAt = &ts
			changed = true
		}
	}
	if !changed {
		return db
	}
	return DB{Facts: facts, ByPlayer: db.ByPlayer, ByCategory: db.ByCategory}
}

// #endregion reveal

// #region sufficiency

// HasSufficientFacts reports whether enough facts exist to leave the
// gathering act: at least max(minFacts, ceil(playerCount*targetPerPlayer)).
func (db DB) HasSufficientFacts(playerCount, minFacts int, targetPerPlayer float64) bool {
	need := int(math.Ceil(float64(playerCount) * targetPerPlayer))
	if minFacts > need {
		need = minFacts
	}
	return len(db.Facts) >= need
}

// #endregion sufficiency

// #region diversity

// CategoryDiversity returns the normalized Shannon entropy of the
// category distribution in [0, 1]. An empty DB scores 0.
func (db DB) CategoryDiversity() float64 {
	total := len(db.Facts)
	if total == 0 {
		return 0
	}
	entropy := 0.0
	for _, ids := range db.ByCategory {
		if len(ids) == 0 {
			continue
		}
		p := float64(len(ids)) / float64(total)
		entropy -= p * math.Log2(p)
	}
	return entropy / math.Log2(float64(len(Categories)))
}

// #endregion diversity

// #region relevance

// RelevantForCartridge builds the fact subset handed to the model for
// a cartridge: the candidate pool is the preferred categories (or all
// facts when none are given); small pools pass through verbatim,
// larger ones mix the most recently added 40% with a random sample of
// the remainder. The pool keeps insertion order so the guaranteed
// block really is the most recently added facts.
func (db DB) RelevantForCartridge(preferred []Category, maxCount int, src *random.Source) []Card {
	if maxCount <= 0 {
		maxCount = 10
	}

	pool := db.Facts
	if len(preferred) > 0 {
		want := make(map[Category]bool, len(preferred))
		for _, cat := range preferred {
			want[cat] = true
		}
		filtered := []Card{}
		for _, f := range db.Facts {
			if want[f.Category] {
				filtered = append(filtered, f)
			}
		}
		pool = filtered
	}
	if len(pool) <= maxCount {
		out := make([]Card, len(pool))
		copy(out, pool)
		return out
	}

	recentCount := int(math.Ceil(float64(maxCount) * 0.4))
	recent := pool[len(pool)-recentCount:]
	rest := pool[:len(pool)-recentCount]

	out := make([]Card, 0, maxCount)
	out = append(out, recent...)
	out = append(out, Sample(rest, maxCount-recentCount, src)...)
	return out
}

// #endregion relevance
