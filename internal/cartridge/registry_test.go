package cartridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/partygm/internal/eventlog"
	"github.com/danielpatrickdp/partygm/internal/facts"
	"github.com/danielpatrickdp/partygm/internal/random"
)

func testRegistry(defs ...Definition) *Registry {
	r := NewRegistry(random.New(1), zap.NewNop())
	for _, d := range defs {
		r.Register(d)
	}
	return r
}

func def(id string, minPlayers, maxPlayers, minFacts int) Definition {
	return Definition{
		ID:                  id,
		Name:                id,
		MinPlayers:          minPlayers,
		MaxPlayers:          maxPlayers,
		MinFacts:            minFacts,
		EstimatedDurationMs: 60000,
	}
}

func ctxWithFacts(players, factCount int) Context {
	db := facts.New()
	for i := 0; i < factCount; i++ {
		db = db.AddFact(facts.Card{
			ID:             string(rune('a' + i)),
			TargetPlayerID: "p1",
			AuthorPlayerID: "p1",
			Category:       facts.CategoryHobbies,
		})
	}
	return Context{
		PlayerCount: players,
		CurrentAct:  2,
		RemainingMs: 300000,
		Log:         eventlog.New("s1"),
		DB:          db,
	}
}

func TestRegisterDuplicateOverwritesKeepingOrder(t *testing.T) {
	r := testRegistry(def("a", 1, 0, 0), def("b", 1, 0, 0))
	replacement := def("a", 1, 0, 0)
	replacement.Name = "replacement"
	r.Register(replacement)

	require.Equal(t, 2, r.Len())
	got, ok := r.Get("a")
	require.True(t, ok)
	assert.Equal(t, "replacement", got.Name)

	runnable := r.Runnable(ctxWithFacts(4, 0))
	require.Len(t, runnable, 2)
	assert.Equal(t, "a", runnable[0].ID)
	assert.Equal(t, "b", runnable[1].ID)
}

func TestRunnableFilters(t *testing.T) {
	needsCategory := def("needs-dreams", 2, 8, 0)
	needsCategory.RequiredCategories = []facts.Category{facts.CategoryDreams}

	vetoed := def("vetoed", 1, 0, 0)
	vetoed.CanRun = func(Context) bool { return false }

	r := testRegistry(
		def("small-party", 2, 4, 0),
		def("needs-facts", 2, 8, 5),
		needsCategory,
		vetoed,
	)

	tests := []struct {
		name    string
		ctx     Context
		wantIDs []string
	}{
		{"player count below minimum", ctxWithFacts(1, 10), []string{}},
		{"player count above maximum", ctxWithFacts(6, 10), []string{"needs-facts"}},
		{"too few facts", ctxWithFacts(3, 2), []string{"small-party"}},
		{"all declarative filters pass", ctxWithFacts(3, 6), []string{"small-party", "needs-facts"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Runnable(tt.ctx)
			ids := []string{}
			for _, d := range got {
				ids = append(ids, d.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestRunnableRequiredCategory(t *testing.T) {
	needsCategory := def("needs-dreams", 2, 8, 0)
	needsCategory.RequiredCategories = []facts.Category{facts.CategoryDreams}
	r := testRegistry(needsCategory)

	ctx := ctxWithFacts(3, 3) // hobbies only
	assert.Empty(t, r.Runnable(ctx))

	ctx.DB = ctx.DB.AddFact(facts.Card{
		ID:             "dream1",
		TargetPlayerID: "p1",
		AuthorPlayerID: "p1",
		Category:       facts.CategoryDreams,
	})
	assert.Len(t, r.Runnable(ctx), 1)
}

func TestBuiltinsRegister(t *testing.T) {
	r := testRegistry(Builtins()...)
	assert.Equal(t, 5, r.Len())
}
