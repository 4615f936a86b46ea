package main

import (
	"testing"

	"github.com/DonovanMods/twlm/internal/domain"
	"github.com/DonovanMods/twlm/internal/storage/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryCommands(t *testing.T) {
	root := resetGlobals(t)
	writeTestGame(t, root)

	_, err := execute(t, "mod", "scan", "-g", "warhammer_3")
	require.NoError(t, err)

	for _, name := range []string{"Units", "Maps", "Overhauls"} {
		out, err := execute(t, "category", "add", name)
		require.NoError(t, err)
		assert.Contains(t, out, "Added category: "+name)
	}

	_, err = execute(t, "category", "add", "Maps")
	assert.ErrorIs(t, err, domain.ErrDuplicateName)
	_, err = execute(t, "category", "add", domain.UnassignedCategory)
	assert.ErrorIs(t, err, domain.ErrReservedName)

	out, err := execute(t, "category", "move", "Overhauls", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "Moved category Overhauls to position 0")

	_, err = execute(t, "mod", "move", "local-my_mod.pack", "--category", "Maps")
	require.NoError(t, err)

	out, err = execute(t, "category", "rename", "Maps", "Campaign Maps")
	require.NoError(t, err)
	assert.Contains(t, out, "Renamed category: Maps -> Campaign Maps")

	cfg := config.NewGameConfigStore(configDir, nil).Load("warhammer_3")
	assert.Equal(t, []string{"Overhauls", "Units", "Campaign Maps"}, cfg.Categories)
	assert.Equal(t, "Campaign Maps", cfg.Mods["local-my_mod.pack"].CategoryName())

	_, err = execute(t, "category", "delete", "Campaign Maps")
	require.NoError(t, err)

	cfg = config.NewGameConfigStore(configDir, nil).Load("warhammer_3")
	assert.Equal(t, []string{"Overhauls", "Units"}, cfg.Categories)
	assert.Equal(t, domain.UnassignedCategory, cfg.Mods["local-my_mod.pack"].CategoryName())

	_, err = execute(t, "category", "delete", "Nope")
	assert.ErrorIs(t, err, domain.ErrCategoryNotFound)
}

func TestCategoryMove_InvalidIndex(t *testing.T) {
	resetGlobals(t)
	gameKey = "warhammer_3"

	_, err := execute(t, "category", "move", "Units", "first")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid index "first"`)
}

func TestModDisable(t *testing.T) {
	root := resetGlobals(t)
	writeTestGame(t, root)

	_, err := execute(t, "mod", "scan", "-g", "warhammer_3")
	require.NoError(t, err)
	_, err = execute(t, "mod", "enable", "local-my_mod.pack", "2789900000")
	require.NoError(t, err)

	out, err := execute(t, "mod", "disable", "local-my_mod.pack")
	require.NoError(t, err)
	assert.Contains(t, out, "Disabled: local-my_mod.pack")

	cfg := config.NewGameConfigStore(configDir, nil).Load("warhammer_3")
	assert.False(t, cfg.Mods["local-my_mod.pack"].Enabled)
	assert.Equal(t, []string{"2789900000"}, cfg.LoadOrder)
}
