package steam

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed data/games.yaml
var defaultGamesFS embed.FS

const defaultGamesPath = "data/games.yaml"

// GameInfo describes a Total War game known to twlm, mapped from Steam App ID.
type GameInfo struct {
	Key          string // twlm game key, e.g. "warhammer_3"
	Name         string
	Executable   string // Relative to the install directory
	DataPath     string // Relative to the install directory; "data" when empty
	VanillaPacks []string
}

// gamesYAML is the on-disk format: Steam App ID -> game entry.
type gamesYAML map[string]struct {
	Key          string   `yaml:"key"`
	Name         string   `yaml:"name"`
	Executable   string   `yaml:"executable"`
	DataPath     string   `yaml:"data_path"`
	VanillaPacks []string `yaml:"vanilla_packs"`
}

func (y gamesYAML) mergeInto(out map[string]GameInfo) {
	for appID, e := range y {
		dataPath := e.DataPath
		if dataPath == "" {
			dataPath = "data"
		}
		out[appID] = GameInfo{
			Key:          e.Key,
			Name:         e.Name,
			Executable:   e.Executable,
			DataPath:     dataPath,
			VanillaPacks: e.VanillaPacks,
		}
	}
}

// LoadKnownGames returns the known Steam App ID -> GameInfo map. The embedded
// list is extended by configDir/steam-games.yaml when present.
func LoadKnownGames(configDir string) (map[string]GameInfo, error) {
	data, err := defaultGamesFS.ReadFile(defaultGamesPath)
	if err != nil {
		return nil, fmt.Errorf("reading embedded games: %w", err)
	}
	var y gamesYAML
	if err := yaml.Unmarshal(data, &y); err != nil {
		return nil, fmt.Errorf("parsing embedded games: %w", err)
	}
	out := make(map[string]GameInfo)
	y.mergeInto(out)

	overridePath := filepath.Join(configDir, "steam-games.yaml")
	overrideData, err := os.ReadFile(overridePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return out, nil
		}
		return nil, fmt.Errorf("reading %s: %w", overridePath, err)
	}
	var override gamesYAML
	if err := yaml.Unmarshal(overrideData, &override); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", overridePath, err)
	}
	override.mergeInto(out)
	return out, nil
}
