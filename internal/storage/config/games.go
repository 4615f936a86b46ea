package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/DonovanMods/twlm/internal/domain"

	"gopkg.in/yaml.v3"
)

// GameEntry is the YAML representation of a game
type GameEntry struct {
	Name         string           `yaml:"name"`
	Family       string           `yaml:"family,omitempty"`
	InstallPath  string           `yaml:"install_path"`
	DataPath     string           `yaml:"data_path,omitempty"`
	ContentPath  string           `yaml:"content_path,omitempty"`
	Executable   string           `yaml:"executable,omitempty"`
	SteamAppID   string           `yaml:"steam_app_id,omitempty"`
	VanillaPacks []string         `yaml:"vanilla_packs,omitempty"`
	LinkMethod   string           `yaml:"link_method,omitempty"`
	Hooks        domain.GameHooks `yaml:"hooks,omitempty"`
}

// GamesFile is the top-level games.yaml structure
type GamesFile struct {
	Games map[string]GameEntry `yaml:"games"`
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// LoadGames reads all game configurations from the config directory
func LoadGames(configDir string) (map[string]*domain.Game, error) {
	gamesPath := filepath.Join(configDir, "games.yaml")
	data, err := os.ReadFile(gamesPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return make(map[string]*domain.Game), nil
		}
		return nil, fmt.Errorf("reading games.yaml: %w", err)
	}

	var gamesFile GamesFile
	if err := yaml.Unmarshal(data, &gamesFile); err != nil {
		return nil, fmt.Errorf("parsing games.yaml: %w", err)
	}

	games := make(map[string]*domain.Game)
	for key, entry := range gamesFile.Games {
		games[key] = entryToGame(key, entry)
	}

	return games, nil
}

func entryToGame(key string, entry GameEntry) *domain.Game {
	family := entry.Family
	if family == "" {
		family = key
	}

	game := &domain.Game{
		Key:                key,
		Name:               entry.Name,
		Family:             domain.ParseFamily(family),
		InstallPath:        expandPath(entry.InstallPath),
		DataPath:           expandPath(entry.DataPath),
		ContentPath:        expandPath(entry.ContentPath),
		Executable:         entry.Executable,
		SteamAppID:         entry.SteamAppID,
		VanillaPacks:       entry.VanillaPacks,
		LinkMethod:         domain.ParseLinkMethod(entry.LinkMethod),
		LinkMethodExplicit: entry.LinkMethod != "",
		Hooks:              entry.Hooks,
	}

	if game.DataPath == "" && game.InstallPath != "" {
		game.DataPath = filepath.Join(game.InstallPath, "data")
	}

	return game
}

// SaveGame adds or updates a game in games.yaml
func SaveGame(configDir string, game *domain.Game) error {
	games, err := LoadGames(configDir)
	if err != nil {
		return err
	}

	games[game.Key] = game

	return saveGames(configDir, games)
}

func saveGames(configDir string, games map[string]*domain.Game) error {
	gamesFile := GamesFile{Games: make(map[string]GameEntry)}

	for key, game := range games {
		entry := GameEntry{
			Name:         game.Name,
			InstallPath:  game.InstallPath,
			DataPath:     game.DataPath,
			ContentPath:  game.ContentPath,
			Executable:   game.Executable,
			SteamAppID:   game.SteamAppID,
			VanillaPacks: game.VanillaPacks,
			Hooks:        game.Hooks,
		}
		if game.Family.String() != key {
			entry.Family = game.Family.String()
		}
		if game.LinkMethodExplicit {
			entry.LinkMethod = game.LinkMethod.String()
		}
		gamesFile.Games[key] = entry
	}

	data, err := yaml.Marshal(&gamesFile)
	if err != nil {
		return fmt.Errorf("marshaling games: %w", err)
	}

	if err := writeFileAtomic(filepath.Join(configDir, "games.yaml"), data, 0644, nil); err != nil {
		return fmt.Errorf("writing games.yaml: %w", err)
	}

	return nil
}

// DeleteGame removes a game from games.yaml
func DeleteGame(configDir string, gameKey string) error {
	games, err := LoadGames(configDir)
	if err != nil {
		return err
	}

	if _, exists := games[gameKey]; !exists {
		return domain.ErrGameNotFound
	}

	delete(games, gameKey)
	return saveGames(configDir, games)
}
