package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGameConfig_ModsInSortedByOrder(t *testing.T) {
	cfg := NewGameConfig("warhammer_3")
	cfg.Mods["b"] = &Mod{ID: "b", Order: 1}
	cfg.Mods["a"] = &Mod{ID: "a", Order: 0}
	cfg.Mods["c"] = &Mod{ID: "c", Order: 1}
	cfg.Mods["x"] = &Mod{ID: "x", Category: "Raids"}

	got := cfg.ModsIn(UnassignedCategory)
	ids := make([]string, len(got))
	for i, m := range got {
		ids[i] = m.ID
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
	assert.Len(t, cfg.ModsIn("Raids"), 1)
}

func TestGameConfig_HasCategory(t *testing.T) {
	cfg := NewGameConfig("warhammer_3")
	cfg.Categories = []string{"Raids"}

	assert.True(t, cfg.HasCategory(UnassignedCategory))
	assert.True(t, cfg.HasCategory("Raids"))
	assert.False(t, cfg.HasCategory("raids"))
	assert.Equal(t, []string{UnassignedCategory, "Raids"}, cfg.AllCategories())
}

func TestGameConfig_CloneIsIndependent(t *testing.T) {
	cfg := NewGameConfig("warhammer_3")
	cfg.Mods["a"] = &Mod{ID: "a"}
	cfg.Categories = []string{"Raids"}
	cfg.LoadOrder = []string{"a"}

	c := cfg.Clone()
	c.Mods["a"].Enabled = true
	c.Categories[0] = "Other"
	c.LoadOrder = append(c.LoadOrder, "b")

	assert.False(t, cfg.Mods["a"].Enabled)
	assert.Equal(t, []string{"Raids"}, cfg.Categories)
	assert.Equal(t, []string{"a"}, cfg.LoadOrder)
}
