package main

import (
	"bytes"
	"testing"

	"github.com/DonovanMods/twlm/internal/storage/config"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGameCmd_Structure(t *testing.T) {
	assert.Equal(t, "game", gameCmd.Use)
	assert.NotEmpty(t, gameCmd.Short)

	var subCmds []string
	for _, cmd := range gameCmd.Commands() {
		subCmds = append(subCmds, cmd.Name())
	}
	for _, want := range []string{"list", "detect", "add", "remove", "set-default", "show-default", "clear-default"} {
		assert.Contains(t, subCmds, want)
	}
}

func TestGameSetDefault_NoArgs(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	gameCmdCopy := &cobra.Command{Use: "game"}
	gameCmdCopy.AddCommand(&cobra.Command{
		Use:  "set-default <key>",
		Args: cobra.ExactArgs(1),
		RunE: runGameSetDefault,
	})
	cmd.AddCommand(gameCmdCopy)

	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"game", "set-default"})

	err := cmd.Execute()
	assert.Error(t, err)
}

func TestGameSetDefault_GameNotFound(t *testing.T) {
	resetGlobals(t)

	_, err := execute(t, "game", "set-default", "non-existent-game")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "game not found")
}

func TestGameDefault_SetShowClear(t *testing.T) {
	root := resetGlobals(t)
	writeTestGame(t, root)

	out, err := execute(t, "game", "show-default")
	require.NoError(t, err)
	assert.Contains(t, out, "No default game set")

	out, err = execute(t, "game", "set-default", "warhammer_3")
	require.NoError(t, err)
	assert.Contains(t, out, "Default game set to: Total War: WARHAMMER III (warhammer_3)")

	cfg, err := config.Load(configDir)
	require.NoError(t, err)
	assert.Equal(t, "warhammer_3", cfg.DefaultGame)

	out, err = execute(t, "game", "show-default")
	require.NoError(t, err)
	assert.Contains(t, out, "Default game: Total War: WARHAMMER III")

	out, err = execute(t, "game", "clear-default")
	require.NoError(t, err)
	assert.Contains(t, out, "Default game cleared")

	cfg, err = config.Load(configDir)
	require.NoError(t, err)
	assert.Empty(t, cfg.DefaultGame)
}

func TestGameShowDefault_NotConfigured(t *testing.T) {
	resetGlobals(t)
	require.NoError(t, (&config.Config{DefaultGame: "rome_2"}).Save(mkdir(t, configDir)))

	out, err := execute(t, "game", "show-default")
	require.NoError(t, err)
	assert.Contains(t, out, "rome_2 (not configured)")
}

func TestGameAdd(t *testing.T) {
	resetGlobals(t)

	out, err := execute(t, "game", "add", "attila", "--path", "/games/attila", "--link-method", "copy")
	require.NoError(t, err)
	assert.Contains(t, out, "Added: attila (attila)")

	games, err := config.LoadGames(configDir)
	require.NoError(t, err)
	require.Contains(t, games, "attila")
	assert.Equal(t, "/games/attila/data", games["attila"].DataPath)
	assert.True(t, games["attila"].LinkMethodExplicit)

	_, err = execute(t, "game", "remove", "attila")
	require.NoError(t, err)
	games, err = config.LoadGames(configDir)
	require.NoError(t, err)
	assert.NotContains(t, games, "attila")
}

func TestGameAdd_UnknownFamily(t *testing.T) {
	resetGlobals(t)

	_, err := execute(t, "game", "add", "skyrim", "--path", "/games/skyrim")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown game family")
}

func TestParseSelection(t *testing.T) {
	tests := []struct {
		in      string
		want    []int
		wantErr bool
	}{
		{"all\n", []int{1, 2, 3}, false},
		{"A", []int{1, 2, 3}, false},
		{"none", nil, false},
		{"\n", nil, false},
		{"1, 3", []int{1, 3}, false},
		{"2,2", []int{2}, false},
		{"4", nil, true},
		{"0", nil, true},
		{"x", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseSelection(tt.in, 3)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
