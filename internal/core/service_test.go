package core_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/DonovanMods/twlm/internal/core"
	"github.com/DonovanMods/twlm/internal/domain"
	"github.com/DonovanMods/twlm/internal/pack"
	"github.com/DonovanMods/twlm/internal/pack/packtest"
	"github.com/DonovanMods/twlm/internal/storage/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLauncher struct {
	mu   sync.Mutex
	exe  string
	args []string
}

func (l *recordingLauncher) Launch(_ context.Context, exe string, args []string, _ string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.exe, l.args = exe, args
	return nil
}

type stubSource struct {
	records []domain.OnlineRecord
}

func (s *stubSource) ID() string   { return "steam" }
func (s *stubSource) Name() string { return "Stub Workshop" }
func (s *stubSource) Serves(game *domain.Game) bool {
	return game.SteamAppID != ""
}
func (s *stubSource) FetchRecords(context.Context, []string) ([]domain.OnlineRecord, error) {
	return s.records, nil
}

type serviceFixture struct {
	svc      *core.Service
	game     *domain.Game
	launcher *recordingLauncher
	codec    *packtest.Codec
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	t.Setenv("TWLM_STEAM_API_KEY", "")
	root := t.TempDir()
	configDir := filepath.Join(root, "config")
	install := filepath.Join(root, "Total War WARHAMMER III")

	game := &domain.Game{
		Key:          "warhammer_3",
		Name:         "Total War: WARHAMMER III",
		Family:       domain.FamilyWarhammer3,
		InstallPath:  install,
		DataPath:     filepath.Join(install, "data"),
		ContentPath:  filepath.Join(root, "workshop", "content", "1142710"),
		Executable:   "Warhammer3.exe",
		SteamAppID:   "1142710",
		VanillaPacks: []string{"data.pack"},
	}
	require.NoError(t, config.SaveGame(configDir, game))

	for _, p := range []string{
		filepath.Join(game.DataPath, "data.pack"),
		filepath.Join(game.DataPath, "my_mod.pack"),
		filepath.Join(game.ContentPath, "2789900000", "raids.pack"),
	} {
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, pack.EncodeHeader(domain.PackMod), 0644))
	}

	f := &serviceFixture{launcher: &recordingLauncher{}, codec: packtest.New()}
	svc, err := core.NewService(core.ServiceConfig{
		ConfigDir: configDir,
		DataDir:   filepath.Join(root, "data"),
		Launcher:  f.launcher,
		NewCodec:  func(*domain.Game) pack.Codec { return f.codec },
	})
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })

	f.svc = svc
	f.game, err = svc.GetGame("warhammer_3")
	require.NoError(t, err)
	return f
}

func (f *serviceFixture) rescan(t *testing.T) *domain.GameConfig {
	t.Helper()
	ch, err := f.svc.Rescan(context.Background(), "warhammer_3")
	require.NoError(t, err)
	value, err := core.Wait(ch)
	require.NoError(t, err)
	return value.(*domain.GameConfig)
}

func TestNewService(t *testing.T) {
	f := newServiceFixture(t)

	games := f.svc.ListGames()
	require.Len(t, games, 1)
	assert.Equal(t, domain.FamilyWarhammer3, games[0].Family)
	assert.NotNil(t, f.svc.Config())

	_, err := f.svc.GetGame("shogun_2")
	assert.ErrorIs(t, err, domain.ErrGameNotFound)
	_, err = f.svc.Rescan(context.Background(), "shogun_2")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_RescanAndLaunch(t *testing.T) {
	f := newServiceFixture(t)

	cfg := f.rescan(t)
	require.Len(t, cfg.Mods, 2)
	assert.Contains(t, cfg.Mods, "local-my_mod.pack")
	assert.Contains(t, cfg.Mods, "2789900000")
	assert.Empty(t, core.ResolveEnabledOrder(cfg), "scanned mods start disabled")
	assert.Equal(t, domain.StateDirty, f.svc.Controller().State("warhammer_3"))

	require.NoError(t, f.svc.Edit("warhammer_3", func(cfg *domain.GameConfig) error {
		if err := core.SetEnabled(cfg, "2789900000", true); err != nil {
			return err
		}
		return core.SetEnabled(cfg, "local-my_mod.pack", true)
	}))
	require.NoError(t, f.svc.Save("warhammer_3"))

	ch, err := f.svc.Launch(context.Background(), "warhammer_3")
	require.NoError(t, err)
	value, err := core.Wait(ch)
	require.NoError(t, err)
	asm := value.(*core.Assembly)

	assert.Len(t, asm.Packs, 2)
	assert.FileExists(t, asm.LoadOrderFile)
	assert.Equal(t, filepath.Join(f.game.InstallPath, "Warhammer3.exe"), f.launcher.exe)
	assert.Equal(t, []string{asm.LoadOrderFile + ";"}, f.launcher.args)

	snap, err := f.svc.GameConfig("warhammer_3")
	require.NoError(t, err)
	assert.Equal(t, []string{"2789900000", "local-my_mod.pack"}, snap.LoadOrder)
}

func TestService_RescanKeepsUserState(t *testing.T) {
	f := newServiceFixture(t)
	f.rescan(t)

	require.NoError(t, f.svc.Edit("warhammer_3", func(cfg *domain.GameConfig) error {
		if err := core.AddCategory(cfg, "Raids"); err != nil {
			return err
		}
		if err := core.MoveMod(cfg, "2789900000", "Raids", 0); err != nil {
			return err
		}
		return core.SetEnabled(cfg, "2789900000", true)
	}))

	cfg := f.rescan(t)
	m := cfg.Mods["2789900000"]
	assert.True(t, m.Enabled)
	assert.Equal(t, "Raids", m.Category)
}

func TestService_RefreshOnline(t *testing.T) {
	f := newServiceFixture(t)
	f.rescan(t)
	f.svc.Sources().Register(&stubSource{records: []domain.OnlineRecord{
		{ID: "2789900000", Title: "Better Raids", Creator: "modder", TimeUpdated: time.Now().Add(time.Hour)},
	}})

	ch, err := f.svc.RefreshOnline(context.Background(), "warhammer_3")
	require.NoError(t, err)
	value, err := core.Wait(ch)
	require.NoError(t, err)
	assert.Equal(t, 1, value.(core.MergeResult).Applied)

	cfg, err := f.svc.GameConfig("warhammer_3")
	require.NoError(t, err)
	m := cfg.Mods["2789900000"]
	assert.Equal(t, "Better Raids", m.DisplayName())
	assert.True(t, m.Outdated)
	assert.True(t, cfg.Mods["local-my_mod.pack"].LocalOnly)

	// A later rescan reapplies the cached record
	cfg = f.rescan(t)
	assert.Equal(t, "Better Raids", cfg.Mods["2789900000"].Name)
}

func TestService_Profiles(t *testing.T) {
	f := newServiceFixture(t)
	f.rescan(t)
	require.NoError(t, f.svc.Edit("warhammer_3", func(cfg *domain.GameConfig) error {
		return core.SetEnabled(cfg, "2789900000", true)
	}))

	_, err := f.svc.SaveProfile("warhammer_3", "raids-only")
	require.NoError(t, err)
	text, err := f.svc.ExportLoadOrder("warhammer_3")
	require.NoError(t, err)
	assert.Equal(t, "steam:2789900000:1\n", text)

	missing, err := f.svc.ImportLoadOrder("warhammer_3", "local:my_mod.pack:1\nsteam:42:1\n")
	require.NoError(t, err)
	require.Len(t, missing, 1)
	assert.Equal(t, "42", missing[0].Identifier)

	cfg, err := f.svc.GameConfig("warhammer_3")
	require.NoError(t, err)
	assert.Equal(t, []string{"local-my_mod.pack"}, core.ResolveEnabledOrder(cfg))

	missing, err = f.svc.LoadProfile("warhammer_3", "raids-only")
	require.NoError(t, err)
	assert.Empty(t, missing)
	cfg, err = f.svc.GameConfig("warhammer_3")
	require.NoError(t, err)
	assert.Equal(t, []string{"2789900000"}, core.ResolveEnabledOrder(cfg))

	_, err = f.svc.LoadProfile("warhammer_3", "nope")
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)
}

func TestService_APIKey(t *testing.T) {
	f := newServiceFixture(t)
	assert.False(t, f.svc.HasAPIKey())

	require.NoError(t, f.svc.SetAPIKey("secret"))
	assert.True(t, f.svc.HasAPIKey())

	require.NoError(t, f.svc.DeleteAPIKey())
	assert.False(t, f.svc.HasAPIKey())
}

func TestService_RemoveGame(t *testing.T) {
	f := newServiceFixture(t)
	require.NoError(t, f.svc.RemoveGame("warhammer_3"))
	assert.Empty(t, f.svc.ListGames())

	games, err := config.LoadGames(f.svc.ConfigDir())
	require.NoError(t, err)
	assert.Empty(t, games)
}

func TestService_LaunchOptions(t *testing.T) {
	f := newServiceFixture(t)
	f.svc.Config().SetLaunchOptions("warhammer_3", config.LaunchOptions{SkipIntro: true})

	opts := f.svc.LaunchOptions("warhammer_3")
	assert.True(t, opts.SkipIntro)
	assert.Equal(t, 1.0, opts.UnitMultiplier)
}
