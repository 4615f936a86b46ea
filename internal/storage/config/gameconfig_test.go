package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/DonovanMods/twlm/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleGameConfig() *domain.GameConfig {
	cfg := domain.NewGameConfig("warhammer_3")
	cfg.Categories = []string{"Raids"}
	cfg.Mods["111"] = &domain.Mod{
		ID: "111", Name: "Raiders", SteamID: "111", FilePath: "/ws/111/raiders.pack",
		FileSize: 2048, Enabled: true, Category: "Raids",
		Online: &domain.OnlineMetadata{Description: "raid things"},
	}
	cfg.Mods["local-ui.pack"] = &domain.Mod{
		ID: "local-ui.pack", FilePath: "/data/ui.pack", Enabled: false, Order: 0,
	}
	cfg.LoadOrder = []string{"111"}
	return cfg
}

func TestGameConfigStore_LoadMissingIsEmpty(t *testing.T) {
	store := NewGameConfigStore(t.TempDir(), nil)
	cfg := store.Load("warhammer_3")

	assert.Equal(t, "warhammer_3", cfg.GameKey)
	assert.Empty(t, cfg.Mods)
	assert.Empty(t, cfg.Categories)
}

func TestGameConfigStore_SaveLoadRoundTrip(t *testing.T) {
	store := NewGameConfigStore(t.TempDir(), nil)
	cfg := sampleGameConfig()
	require.NoError(t, store.Save(cfg))

	loaded := store.Load("warhammer_3")
	assert.Equal(t, cfg.Categories, loaded.Categories)
	assert.Equal(t, cfg.LoadOrder, loaded.LoadOrder)
	require.Contains(t, loaded.Mods, "111")
	assert.Equal(t, "Raids", loaded.Mods["111"].Category)
	assert.True(t, loaded.Mods["111"].Enabled)
	assert.Equal(t, "raid things", loaded.Mods["111"].Online.Description)
	assert.False(t, loaded.Mods["local-ui.pack"].Enabled)
}

func TestGameConfigStore_UnknownFieldsIgnored(t *testing.T) {
	dir := t.TempDir()
	store := NewGameConfigStore(dir, nil)
	content := `
version: 7
game_key: warhammer_3
future_feature: {enabled: true}
categories: [Raids]
load_order: ["111"]
mods:
  "111":
    file_path: /ws/111/raiders.pack
    enabled: true
    category: Raids
    order: 0
    sparkle: 11
`
	require.NoError(t, os.MkdirAll(filepath.Dir(store.Path("warhammer_3")), 0755))
	require.NoError(t, os.WriteFile(store.Path("warhammer_3"), []byte(content), 0644))

	cfg := store.Load("warhammer_3")
	assert.Equal(t, []string{"Raids"}, cfg.Categories)
	assert.Equal(t, []string{"111"}, cfg.LoadOrder)
	require.Contains(t, cfg.Mods, "111")
	assert.Equal(t, "/ws/111/raiders.pack", cfg.Mods["111"].FilePath)
}

func TestGameConfigStore_CorruptFileMovedAside(t *testing.T) {
	dir := t.TempDir()
	store := NewGameConfigStore(dir, nil)
	path := store.Path("warhammer_3")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("mods: [unterminated\n"), 0644))

	cfg := store.Load("warhammer_3")
	assert.Empty(t, cfg.Mods)

	_, err := os.Stat(path)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	matches, err := filepath.Glob(path + ".corrupt-*")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Equal(t, "mods: [unterminated\n", string(data))
}

func TestGameConfigStore_SanitizesOnLoad(t *testing.T) {
	dir := t.TempDir()
	store := NewGameConfigStore(dir, nil)
	content := `
categories: [Raids, Unassigned, Raids]
load_order: ["a", "a", "b", "ghost"]
mods:
  a: {file_path: /a.pack, enabled: true}
  b: {file_path: /b.pack, enabled: false}
  c: {file_path: /c.pack, enabled: true, category: Deleted}
`
	require.NoError(t, os.MkdirAll(filepath.Dir(store.Path("troy")), 0755))
	require.NoError(t, os.WriteFile(store.Path("troy"), []byte(content), 0644))

	cfg := store.Load("troy")
	assert.Equal(t, []string{"Raids"}, cfg.Categories)
	assert.Equal(t, []string{"a"}, cfg.LoadOrder)
	assert.Equal(t, domain.UnassignedCategory, cfg.Mods["c"].CategoryName())
}

func TestGameConfigStore_OrphanedModsAppendToUnassigned(t *testing.T) {
	dir := t.TempDir()
	store := NewGameConfigStore(dir, nil)
	content := `
categories: [Raids]
mods:
  C: {file_path: /c.pack, order: 0}
  X: {file_path: /x.pack, category: Gone, order: 5}
  W: {file_path: /w.pack, category: Gone, order: 2}
  A: {file_path: /a.pack, category: Raids, order: 0}
`
	require.NoError(t, os.MkdirAll(filepath.Dir(store.Path("troy")), 0755))
	require.NoError(t, os.WriteFile(store.Path("troy"), []byte(content), 0644))

	cfg := store.Load("troy")
	unassigned := cfg.ModsIn(domain.UnassignedCategory)
	require.Len(t, unassigned, 3)
	for i, id := range []string{"C", "W", "X"} {
		assert.Equal(t, id, unassigned[i].ID)
		assert.Equal(t, i, unassigned[i].Order)
	}
	assert.Equal(t, "Raids", cfg.Mods["A"].Category)
}

func TestGameConfigStore_CrashBeforeRenameKeepsPrevious(t *testing.T) {
	dir := t.TempDir()
	store := NewGameConfigStore(dir, nil)
	good := sampleGameConfig()
	require.NoError(t, store.Save(good))
	before, err := os.ReadFile(store.Path("warhammer_3"))
	require.NoError(t, err)

	crash := errors.New("simulated crash")
	store.beforeRename = func(string) error { return crash }

	changed := good.Clone()
	changed.Categories = append(changed.Categories, "Overhauls")
	err = store.Save(changed)
	require.ErrorIs(t, err, crash)

	var ioErr *domain.IOError
	assert.ErrorAs(t, err, &ioErr)

	after, err := os.ReadFile(store.Path("warhammer_3"))
	require.NoError(t, err)
	assert.Equal(t, before, after)

	store.beforeRename = nil
	assert.Equal(t, []string{"Raids"}, store.Load("warhammer_3").Categories)
}

func TestGameConfigStore_SaveFailurePropagates(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "game_config")
	require.NoError(t, os.WriteFile(blocker, []byte("not a dir"), 0644))

	store := NewGameConfigStore(dir, nil)
	err := store.Save(sampleGameConfig())
	assert.Error(t, err)
}
