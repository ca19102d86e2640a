package cartridge

import (
	"go.uber.org/zap"

	"github.com/danielpatrickdp/partygm/internal/random"
)

// #region registry

// Registry maps cartridge ids to definitions. Registration happens
// once at startup before concurrent reads begin; results of Runnable
// follow registration order.
type Registry struct {
	defs   map[string]Definition
	order  []string
	src    *random.Source
	logger *zap.Logger
}

// NewRegistry creates an empty registry. The random source feeds
// selection jitter; pass a fixed-seed source in tests.
func NewRegistry(src *random.Source, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		defs:   make(map[string]Definition),
		src:    src,
		logger: logger,
	}
}

// #endregion registry

// #region register

// Register adds a definition. A duplicate id overwrites the previous
// definition with a warning and keeps its original position.
func (r *Registry) Register(def Definition) {
	if _, exists := r.defs[def.ID]; exists {
		r.logger.Warn("cartridge id already registered, overwriting",
			zap.String("cartridge_id", def.ID))
	} else {
		r.order = append(r.order, def.ID)
	}
	r.defs[def.ID] = def
}

// Get returns a definition by id.
func (r *Registry) Get(id string) (Definition, bool) {
	def, ok := r.defs[id]
	return def, ok
}

// Len returns the number of registered definitions.
func (r *Registry) Len() int {
	return len(r.order)
}

// #endregion register

// #region runnable

// Runnable filters registered definitions by player bounds, fact
// minimum, required category presence, and the definition's own
// predicate. Order matches registration order.
func (r *Registry) Runnable(ctx Context) []Definition {
	out := []Definition{}
	for _, id := range r.order {
		def := r.defs[id]
		if !eligible(def, ctx) {
			continue
		}
		out = append(out, def)
	}
	return out
}

func eligible(def Definition, ctx Context) bool {
	if ctx.PlayerCount < def.MinPlayers {
		return false
	}
	if def.MaxPlayers > 0 && ctx.PlayerCount > def.MaxPlayers {
		return false
	}
	if ctx.DB.Len() < def.MinFacts {
		return false
	}
	for _, cat := range def.RequiredCategories {
		if len(ctx.DB.ByCategory[cat]) == 0 {
			return false
		}
	}
	if def.CanRun != nil && !def.CanRun(ctx) {
		return false
	}
	return true
}

// #endregion runnable
