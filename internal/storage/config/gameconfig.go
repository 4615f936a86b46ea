package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/DonovanMods/twlm/internal/domain"
	"github.com/DonovanMods/twlm/internal/logger"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const gameConfigVersion = 1

// gameConfigFile is the on-disk layout of a game's config. Unknown keys are
// ignored on load so newer files stay readable.
type gameConfigFile struct {
	Version    int                      `yaml:"version"`
	GameKey    string                   `yaml:"game_key"`
	Categories []string                 `yaml:"categories"`
	LoadOrder  []string                 `yaml:"load_order"`
	Mods       map[string]modConfigFile `yaml:"mods"`
}

type modConfigFile struct {
	Name      string                 `yaml:"name,omitempty"`
	Creator   string                 `yaml:"creator,omitempty"`
	FilePath  string                 `yaml:"file_path"`
	FileSize  int64                  `yaml:"file_size"`
	Hash      string                 `yaml:"hash,omitempty"`
	PackType  string                 `yaml:"pack_type,omitempty"`
	ModTime   time.Time              `yaml:"mod_time,omitempty"`
	SteamID   string                 `yaml:"steam_id,omitempty"`
	Enabled   bool                   `yaml:"enabled"`
	Category  string                 `yaml:"category,omitempty"`
	Order     int                    `yaml:"order"`
	Online    *domain.OnlineMetadata `yaml:"online,omitempty"`
	LocalOnly bool                   `yaml:"local_only,omitempty"`
	Outdated  bool                   `yaml:"outdated,omitempty"`
}

// GameConfigStore persists one GameConfig per game under <configDir>/game_config.
type GameConfigStore struct {
	dir string
	log *zap.Logger

	// beforeRename is a test seam between the temp write and the rename.
	beforeRename func(tmp string) error
}

// NewGameConfigStore creates a store rooted at configDir.
func NewGameConfigStore(configDir string, log *zap.Logger) *GameConfigStore {
	log = logger.OrNop(log)
	return &GameConfigStore{
		dir: filepath.Join(configDir, "game_config"),
		log: log,
	}
}

// Path returns the config file of a game.
func (s *GameConfigStore) Path(gameKey string) string {
	return filepath.Join(s.dir, gameKey+".yaml")
}

// Load reads a game's config. It never fails: a missing file yields an empty
// config, and a corrupt one is renamed aside before an empty config is returned.
func (s *GameConfigStore) Load(gameKey string) *domain.GameConfig {
	path := s.Path(gameKey)
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.Warn("game config unreadable, starting empty", zap.String("game", gameKey), zap.String("path", path), zap.Error(err))
		}
		return domain.NewGameConfig(gameKey)
	}

	var file gameConfigFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		backup := fmt.Sprintf("%s.corrupt-%d", path, time.Now().UnixNano())
		if rerr := os.Rename(path, backup); rerr != nil {
			s.log.Error("game config corrupt and could not be moved aside", zap.String("path", path), zap.Error(rerr))
		} else {
			s.log.Warn("game config corrupt, moved aside", zap.String("path", path), zap.String("backup", backup), zap.Error(err))
		}
		return domain.NewGameConfig(gameKey)
	}

	return s.fromFile(gameKey, &file)
}

func (s *GameConfigStore) fromFile(gameKey string, file *gameConfigFile) *domain.GameConfig {
	cfg := domain.NewGameConfig(gameKey)

	seen := make(map[string]bool)
	for _, name := range file.Categories {
		if name == "" || name == domain.UnassignedCategory || seen[name] {
			continue
		}
		seen[name] = true
		cfg.Categories = append(cfg.Categories, name)
	}

	var orphaned []*domain.Mod
	for id, m := range file.Mods {
		mod := &domain.Mod{
			ID:        id,
			Name:      m.Name,
			Creator:   m.Creator,
			FilePath:  m.FilePath,
			FileSize:  m.FileSize,
			Hash:      m.Hash,
			PackType:  domain.ParsePackType(m.PackType),
			ModTime:   m.ModTime,
			SteamID:   m.SteamID,
			Enabled:   m.Enabled,
			Category:  m.Category,
			Order:     m.Order,
			Online:    m.Online,
			LocalOnly: m.LocalOnly,
			Outdated:  m.Outdated,
		}
		if !cfg.HasCategory(mod.CategoryName()) {
			s.log.Warn("mod references unknown category, moving to Unassigned",
				zap.String("mod", id), zap.String("category", mod.Category))
			orphaned = append(orphaned, mod)
			continue
		}
		cfg.Mods[id] = mod
	}

	// Orphans go after the existing Unassigned mods, keeping their old relative order.
	sort.Slice(orphaned, func(i, j int) bool {
		if orphaned[i].Order != orphaned[j].Order {
			return orphaned[i].Order < orphaned[j].Order
		}
		return orphaned[i].ID < orphaned[j].ID
	})
	unassigned := cfg.ModsIn(domain.UnassignedCategory)
	for _, mod := range orphaned {
		mod.SetCategory(domain.UnassignedCategory)
		cfg.Mods[mod.ID] = mod
		unassigned = append(unassigned, mod)
	}
	for i, mod := range unassigned {
		mod.SetOrder(i)
	}

	used := make(map[string]bool)
	for _, id := range file.LoadOrder {
		mod, ok := cfg.Mods[id]
		if !ok || !mod.Enabled || used[id] {
			s.log.Debug("dropping stale load order entry", zap.String("mod", id))
			continue
		}
		used[id] = true
		cfg.LoadOrder = append(cfg.LoadOrder, id)
	}

	return cfg
}

// Save writes a game's config atomically. Errors always propagate.
func (s *GameConfigStore) Save(cfg *domain.GameConfig) error {
	file := gameConfigFile{
		Version:    gameConfigVersion,
		GameKey:    cfg.GameKey,
		Categories: cfg.Categories,
		LoadOrder:  cfg.LoadOrder,
		Mods:       make(map[string]modConfigFile, len(cfg.Mods)),
	}
	for id, m := range cfg.Mods {
		file.Mods[id] = modConfigFile{
			Name:      m.Name,
			Creator:   m.Creator,
			FilePath:  m.FilePath,
			FileSize:  m.FileSize,
			Hash:      m.Hash,
			PackType:  m.PackType.String(),
			ModTime:   m.ModTime,
			SteamID:   m.SteamID,
			Enabled:   m.Enabled,
			Category:  m.Category,
			Order:     m.Order,
			Online:    m.Online,
			LocalOnly: m.LocalOnly,
			Outdated:  m.Outdated,
		}
	}

	data, err := yaml.Marshal(&file)
	if err != nil {
		return fmt.Errorf("marshaling game config: %w", err)
	}

	path := s.Path(cfg.GameKey)
	if err := writeFileAtomic(path, data, 0644, s.beforeRename); err != nil {
		return &domain.IOError{Op: "save", Path: path, Err: err}
	}

	s.log.Debug("game config saved", zap.String("game", cfg.GameKey), zap.Int("mods", len(cfg.Mods)))
	return nil
}
