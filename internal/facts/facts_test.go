package facts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/partygm/internal/random"
)

func card(id, target string, cat Category) Card {
	return Card{
		ID:             id,
		TargetPlayerID: target,
		AuthorPlayerID: target,
		Category:       cat,
		Question:       "q-" + id,
		Answer:         "a-" + id,
		Privacy:        PrivacyPublic,
		CreatedAt:      time.Now(),
	}
}

func TestNewPreInitializesBuckets(t *testing.T) {
	db := New()
	require.Len(t, db.ByCategory, len(Categories))
	for _, c := range Categories {
		bucket, ok := db.ByCategory[c]
		require.True(t, ok)
		assert.Empty(t, bucket)
	}
}

func TestAddFactDoesNotMutateReceiver(t *testing.T) {
	db := New()
	db2 := db.AddFact(card("f1", "p1", CategoryHobbies))

	assert.Equal(t, 0, db.Len())
	assert.Equal(t, 1, db2.Len())
	assert.Empty(t, db.ByPlayer["p1"])
	assert.Empty(t, db.ByCategory[CategoryHobbies])

	// Two divergent additions from the same base must not interfere.
	a := db2.AddFact(card("fa", "p1", CategoryHobbies))
	b := db2.AddFact(card("fb", "p2", CategoryDreams))
	assert.Equal(t, []string{"f1", "fa"}, a.ByPlayer["p1"])
	assert.Equal(t, []string{"f1"}, b.ByPlayer["p1"])
	assert.Equal(t, []string{"fb"}, b.ByPlayer["p2"])
}

func TestIndexConsistency(t *testing.T) {
	db := New().AddFacts([]Card{
		card("f1", "p1", CategoryHobbies),
		card("f2", "p2", CategoryHobbies),
		card("f3", "p1", CategoryDreams),
		card("f4", "p3", CategoryFavorites),
	})

	// Every fact appears in exactly its own player and category bucket.
	for _, f := range db.Facts {
		hits := 0
		for player, ids := range db.ByPlayer {
			for _, id := range ids {
				if id == f.ID {
					hits++
					assert.Equal(t, f.TargetPlayerID, player)
				}
			}
		}
		assert.Equal(t, 1, hits, "player index for %s", f.ID)

		hits = 0
		for cat, ids := range db.ByCategory {
			for _, id := range ids {
				if id == f.ID {
					hits++
					assert.Equal(t, f.Category, cat)
				}
			}
		}
		assert.Equal(t, 1, hits, "category index for %s", f.ID)
	}
}

func TestQueries(t *testing.T) {
	db := New().AddFacts([]Card{
		card("f1", "p1", CategoryHobbies),
		card("f2", "p2", CategoryDreams),
		card("f3", "p1", CategoryDreams),
	})

	byPlayer := db.FactsByPlayer("p1")
	require.Len(t, byPlayer, 2)
	assert.Equal(t, "f1", byPlayer[0].ID)
	assert.Equal(t, "f3", byPlayer[1].ID)

	byCat := db.FactsByCategory(CategoryDreams)
	require.Len(t, byCat, 2)
	assert.Equal(t, "f2", byCat[0].ID)

	union := db.FactsByCategories([]Category{CategoryDreams, CategoryHobbies, CategoryDreams})
	require.Len(t, union, 3)
	assert.Equal(t, "f2", union[0].ID)
	assert.Equal(t, "f3", union[1].ID)
	assert.Equal(t, "f1", union[2].ID)

	assert.Len(t, db.FactsByAuthor("p1"), 2)
	assert.Empty(t, db.FactsByAuthor("nobody"))
}

func TestPrivateAndReveal(t *testing.T) {
	secret := card("f1", "p1", CategoryEmbarrassing)
	secret.Privacy = PrivacyPrivateUntilReveal
	db := New().AddFacts([]Card{secret, card("f2", "p2", CategoryHobbies)})

	require.Len(t, db.Private(), 1)
	assert.Empty(t, db.Revealed())

	t1 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	db2 := db.RevealFact("f1", t1)
	require.Len(t, db2.Revealed(), 1)
	assert.Empty(t, db2.Private())
	assert.Equal(t, t1, *db2.Revealed()[0].RevealedAt)

	// Original value untouched.
	assert.Nil(t, db.Facts[0].RevealedAt)

	// Reveal is idempotent: a later reveal keeps the first timestamp.
	t2 := t1.Add(time.Hour)
	db3 := db2.RevealFact("f1", t2)
	assert.Equal(t, t1, *db3.Revealed()[0].RevealedAt)
}

func TestRevealAllPrivate(t *testing.T) {
	a := card("f1", "p1", CategoryDreams)
	a.Privacy = PrivacyPrivateUntilReveal
	b := card("f2", "p2", CategoryDreams)
	b.Privacy = PrivacyPrivateUntilReveal
	db := New().AddFacts([]Card{a, b, card("f3", "p3", CategoryHobbies)})

	now := time.Now()
	db2 := db.RevealAllPrivate(now)
	assert.Empty(t, db2.Private())
	assert.Len(t, db2.Revealed(), 2)
}

func TestSample(t *testing.T) {
	src := random.New(42)
	cards := []Card{
		card("f1", "p1", CategoryHobbies),
		card("f2", "p2", CategoryHobbies),
		card("f3", "p3", CategoryHobbies),
		card("f4", "p4", CategoryHobbies),
		card("f5", "p5", CategoryHobbies),
	}

	// count >= len: same multiset, fresh slice.
	all := Sample(cards, 10, src)
	require.Len(t, all, 5)
	seen := map[string]bool{}
	for _, f := range all {
		seen[f.ID] = true
	}
	assert.Len(t, seen, 5)
	all[0].ID = "mutated"
	assert.Equal(t, "f1", cards[0].ID)

	// count < len: exactly count distinct cards from the input.
	sub := Sample(cards, 3, src)
	require.Len(t, sub, 3)
	distinct := map[string]bool{}
	for _, f := range sub {
		assert.True(t, f.ID == "f1" || f.ID == "f2" || f.ID == "f3" || f.ID == "f4" || f.ID == "f5")
		distinct[f.ID] = true
	}
	assert.Len(t, distinct, 3)
}

func TestHasSufficientFacts(t *testing.T) {
	tests := []struct {
		name      string
		factCount int
		want      bool
	}{
		{"five facts not enough for three players", 5, false},
		{"six facts exactly enough", 6, true},
		{"seven facts enough", 7, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := New()
			for i := 0; i < tt.factCount; i++ {
				db = db.AddFact(card(string(rune('a'+i)), "p1", CategoryHobbies))
			}
			// minFacts=5, 3 players at 2 per player => need 6
			assert.Equal(t, tt.want, db.HasSufficientFacts(3, 5, 2))
		})
	}
}

func TestCategoryDiversity(t *testing.T) {
	assert.Zero(t, New().CategoryDiversity())

	// All facts in one category: zero entropy.
	uniform := New().AddFacts([]Card{
		card("f1", "p1", CategoryHobbies),
		card("f2", "p2", CategoryHobbies),
	})
	assert.Zero(t, uniform.CategoryDiversity())

	// One fact per category: maximum diversity.
	spread := New()
	for i, cat := range Categories {
		spread = spread.AddFact(card(string(rune('a'+i)), "p1", cat))
	}
	assert.InDelta(t, 1.0, spread.CategoryDiversity(), 1e-9)
}

func TestRelevantForCartridge(t *testing.T) {
	src := random.New(7)
	db := New()
	for i := 0; i < 20; i++ {
		cat := CategoryHobbies
		if i%2 == 1 {
			cat = CategoryDreams
		}
		db = db.AddFact(card(string(rune('a'+i)), "p1", cat))
	}

	// Small pool passes through.
	few := db.RelevantForCartridge([]Category{CategoryFavorites}, 10, src)
	assert.Empty(t, few)

	// Large pool: ceil(10*0.4)=4 most recent plus 6 sampled, 10 total.
	got := db.RelevantForCartridge(nil, 10, src)
	require.Len(t, got, 10)
	ids := map[string]bool{}
	for _, f := range got {
		ids[f.ID] = true
	}
	require.Len(t, ids, 10)
	for _, recent := range []string{"q", "r", "s", "t"} {
		assert.True(t, ids[recent], "expected recent fact %s", recent)
	}
}

func TestRelevantForCartridgeRecencyAcrossCategories(t *testing.T) {
	src := random.New(7)

	// Facts alternate between the two preferred categories, so the
	// guaranteed block must follow insertion order, not category order.
	db := New()
	for i := 0; i < 20; i++ {
		cat := CategoryHobbies
		if i%2 == 1 {
			cat = CategoryDreams
		}
		db = db.AddFact(card(string(rune('a'+i)), "p1", cat))
	}

	got := db.RelevantForCartridge([]Category{CategoryHobbies, CategoryDreams}, 10, src)
	require.Len(t, got, 10)

	// The first ceil(10*0.4)=4 slots are the last four facts added,
	// regardless of which category each one landed in.
	for i, want := range []string{"q", "r", "s", "t"} {
		assert.Equal(t, want, got[i].ID)
	}
}
