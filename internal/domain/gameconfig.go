package domain

import "sort"

// ConfigState tracks a GameConfig through its load/edit/save lifecycle.
type ConfigState int

const (
	StateUnloaded ConfigState = iota
	StateLoaded
	StateDirty
	StateSaved
)

func (s ConfigState) String() string {
	switch s {
	case StateLoaded:
		return "loaded"
	case StateDirty:
		return "dirty"
	case StateSaved:
		return "saved"
	default:
		return "unloaded"
	}
}

// GameConfig is the per-game aggregate of mods, categories and the last load order.
type GameConfig struct {
	GameKey    string
	Mods       map[string]*Mod
	Categories []string // User categories in display order; Unassigned is implicit
	LoadOrder  []string // Enabled mod ids in application order
}

// NewGameConfig returns an empty config for the given game.
func NewGameConfig(gameKey string) *GameConfig {
	return &GameConfig{
		GameKey: gameKey,
		Mods:    make(map[string]*Mod),
	}
}

// HasCategory reports whether name is Unassigned or a user category.
func (c *GameConfig) HasCategory(name string) bool {
	if name == UnassignedCategory {
		return true
	}
	for _, cat := range c.Categories {
		if cat == name {
			return true
		}
	}
	return false
}

// AllCategories returns Unassigned followed by the user categories.
func (c *GameConfig) AllCategories() []string {
	out := make([]string, 0, len(c.Categories)+1)
	out = append(out, UnassignedCategory)
	return append(out, c.Categories...)
}

// ModsIn returns the mods of a category sorted by their order index (ties by id).
func (c *GameConfig) ModsIn(category string) []*Mod {
	var mods []*Mod
	for _, m := range c.Mods {
		if m.CategoryName() == category {
			mods = append(mods, m)
		}
	}
	sort.Slice(mods, func(i, j int) bool {
		if mods[i].Order != mods[j].Order {
			return mods[i].Order < mods[j].Order
		}
		return mods[i].ID < mods[j].ID
	})
	return mods
}

// SortedIDs returns every mod id in lexical order.
func (c *GameConfig) SortedIDs() []string {
	ids := make([]string, 0, len(c.Mods))
	for id := range c.Mods {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clone returns a deep copy safe to hand to another goroutine.
func (c *GameConfig) Clone() *GameConfig {
	out := &GameConfig{
		GameKey:    c.GameKey,
		Mods:       make(map[string]*Mod, len(c.Mods)),
		Categories: append([]string(nil), c.Categories...),
		LoadOrder:  append([]string(nil), c.LoadOrder...),
	}
	for id, m := range c.Mods {
		out.Mods[id] = m.Clone()
	}
	return out
}
