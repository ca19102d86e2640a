// Package facts implements the indexed store of player-authored
// knowledge units collected during act 1 and consumed by later game
// content. A DB is a value: every mutation returns a new DB with
// indexes rebuilt atomically, so partial updates are never observable
// and concurrent readers need no locks.
package facts

import "time"

// #region category

// Category is one of the fixed fact categories.
type Category string

const (
	CategoryChildhood    Category = "childhood"
	CategoryHobbies      Category = "hobbies"
	CategoryEmbarrassing Category = "embarrassing"
	CategoryDreams       Category = "dreams"
	CategoryOpinions     Category = "opinions"
	CategoryTalents      Category = "hidden_talents"
	CategoryFavorites    Category = "favorites"
)

// Categories lists every category in declaration order.
var Categories = []Category{
	CategoryChildhood,
	CategoryHobbies,
	CategoryEmbarrassing,
	CategoryDreams,
	CategoryOpinions,
	CategoryTalents,
	CategoryFavorites,
}

// Valid reports whether c is one of the fixed categories.
func (c Category) Valid() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

// #endregion category

// #region privacy

// Privacy controls when a fact may be shown to other players.
type Privacy string

const (
	PrivacyPublic             Privacy = "public"
	PrivacyPrivateUntilReveal Privacy = "private_until_reveal"
)

// #endregion privacy

// #region fact-card

// Card is one collected fact. A card targets exactly one player and is
// authored by exactly one player (possibly the same). RevealedAt
// transitions only from nil to a timestamp, never back.
type Card struct {
	ID             string     `json:"id"`
	TargetPlayerID string     `json:"target_player_id"`
	AuthorPlayerID string     `json:"author_player_id"`
	Category       Category   `json:"category"`
	Question       string     `json:"question"`
	Answer         string     `json:"answer"`
	Privacy        Privacy    `json:"privacy"`
	CreatedAt      time.Time  `json:"created_at"`
	RevealedAt     *time.Time `json:"revealed_at,omitempty"`
}

// #endregion fact-card

// #region db

// DB holds every collected fact plus category and player indexes. The
// indexes hold card ids in insertion order; every indexed id maps to
// exactly one entry in Facts.
type DB struct {
	Facts      []Card                `json:"facts"`
	ByPlayer   map[string][]string   `json:"by_player"`
	ByCategory map[Category][]string `json:"by_category"`
}

// New creates an empty DB with every category bucket pre-initialized.
func New() DB {
	byCategory := make(map[Category][]string, len(Categories))
	for _, c := range Categories {
		byCategory[c] = []string{}
	}
	return DB{
		Facts:      []Card{},
		ByPlayer:   map[string][]string{},
		ByCategory: byCategory,
	}
}

// Len returns the number of stored facts.
func (db DB) Len() int {
	return len(db.Facts)
}

// #endregion db
