package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/DonovanMods/twlm/internal/domain"
	"github.com/DonovanMods/twlm/internal/storage/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_DefaultValues(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, domain.LinkSymlink, cfg.DefaultLinkMethod)
	assert.Equal(t, "vim", cfg.Keybindings)
	assert.Equal(t, "rpfm_cli", cfg.RPFMPath)
	assert.Equal(t, 1.0, cfg.LaunchOptionsFor("warhammer_3").UnitMultiplier)
}

func TestLoadConfig_FromFile(t *testing.T) {
	dir := t.TempDir()
	content := `
default_link_method: hardlink
default_game: warhammer_3
launch:
  warhammer_3:
    enable_logging: true
    skip_intro: true
    unit_multiplier: 1.5
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644))

	cfg, err := config.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, domain.LinkHardlink, cfg.DefaultLinkMethod)
	assert.Equal(t, "warhammer_3", cfg.DefaultGame)
	opts := cfg.LaunchOptionsFor("warhammer_3")
	assert.True(t, opts.EnableLogging)
	assert.True(t, opts.SkipIntro)
	assert.False(t, opts.MergeAllMods)
	assert.Equal(t, 1.5, opts.UnitMultiplier)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("default_game: troy\n"), 0644))
	t.Setenv("TWLM_DEFAULT_GAME", "attila")

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "attila", cfg.DefaultGame)
}

func TestConfig_SaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.Load(dir)
	require.NoError(t, err)

	cfg.DefaultGame = "warhammer_2"
	cfg.DefaultLinkMethod = domain.LinkCopy
	cfg.SetLaunchOptions("warhammer_2", config.LaunchOptions{MergeAllMods: true, UnitMultiplier: 1})
	require.NoError(t, cfg.Save(dir))

	loaded, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "warhammer_2", loaded.DefaultGame)
	assert.Equal(t, domain.LinkCopy, loaded.DefaultLinkMethod)
	assert.True(t, loaded.LaunchOptionsFor("warhammer_2").MergeAllMods)
}

func TestLoadGames_Empty(t *testing.T) {
	games, err := config.LoadGames(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, games)
}

func TestLoadGames_FromFile(t *testing.T) {
	dir := t.TempDir()
	content := `
games:
  warhammer_3:
    name: Total War WARHAMMER III
    install_path: /games/wh3
    content_path: /steam/workshop/content/1142710
    executable: Warhammer3.exe
    steam_app_id: "1142710"
    vanilla_packs: [data.pack]
    hooks:
      launch:
        before_launch: /usr/local/bin/prep.sh
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "games.yaml"), []byte(content), 0644))

	games, err := config.LoadGames(dir)
	require.NoError(t, err)
	require.Len(t, games, 1)

	game := games["warhammer_3"]
	assert.Equal(t, "Total War WARHAMMER III", game.Name)
	assert.Equal(t, domain.FamilyWarhammer3, game.Family)
	assert.Equal(t, filepath.Join("/games/wh3", "data"), game.DataPath)
	assert.Equal(t, "/steam/workshop/content/1142710", game.ContentPath)
	assert.True(t, game.IsVanilla("data.pack"))
	assert.Equal(t, "/usr/local/bin/prep.sh", game.Hooks.Launch.BeforeLaunch)
	assert.False(t, game.LinkMethodExplicit)
}

func TestLoadGames_ExpandsTilde(t *testing.T) {
	dir := t.TempDir()
	content := `
games:
  troy:
    name: Troy
    install_path: ~/games/troy
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "games.yaml"), []byte(content), 0644))

	games, err := config.LoadGames(dir)
	require.NoError(t, err)

	home, _ := os.UserHomeDir()
	assert.Equal(t, filepath.Join(home, "games/troy"), games["troy"].InstallPath)
	assert.NotContains(t, games["troy"].DataPath, "~")
}

func TestSaveAndDeleteGame(t *testing.T) {
	dir := t.TempDir()
	game := &domain.Game{
		Key:                "attila",
		Name:               "Attila",
		Family:             domain.FamilyAttila,
		InstallPath:        "/games/attila",
		DataPath:           "/games/attila/data",
		LinkMethod:         domain.LinkCopy,
		LinkMethodExplicit: true,
	}
	require.NoError(t, config.SaveGame(dir, game))

	games, err := config.LoadGames(dir)
	require.NoError(t, err)
	require.Contains(t, games, "attila")
	assert.Equal(t, domain.LinkCopy, games["attila"].LinkMethod)
	assert.True(t, games["attila"].LinkMethodExplicit)

	require.NoError(t, config.DeleteGame(dir, "attila"))
	assert.ErrorIs(t, config.DeleteGame(dir, "attila"), domain.ErrGameNotFound)
}

func TestParseLoadOrderPath(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "order.txt")
	require.NoError(t, os.WriteFile(good, []byte("steam:1:1\n"), 0644))
	bad := filepath.Join(dir, "order.yaml")
	require.NoError(t, os.WriteFile(bad, nil, 0644))

	got, err := config.ParseLoadOrderPath(good)
	require.NoError(t, err)
	assert.Equal(t, good, got)

	upper := filepath.Join(dir, "ORDER.TXT")
	require.NoError(t, os.WriteFile(upper, nil, 0644))
	_, err = config.ParseLoadOrderPath(upper)
	assert.NoError(t, err)

	_, err = config.ParseLoadOrderPath("  ")
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	_, err = config.ParseLoadOrderPath(bad)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	sub := filepath.Join(dir, "shared.txt")
	require.NoError(t, os.Mkdir(sub, 0755))
	_, err = config.ParseLoadOrderPath(sub)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	_, err = config.ParseLoadOrderPath(filepath.Join(dir, "missing.txt"))
	var ioErr *domain.IOError
	require.ErrorAs(t, err, &ioErr)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
