// Package config provides configuration file parsing and persistence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/DonovanMods/twlm/internal/domain"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment overrides, e.g. TWLM_DEFAULT_GAME.
const EnvPrefix = "TWLM"

// LaunchOptions are the per-game pre-launch toggles.
type LaunchOptions struct {
	EnableLogging  bool    `mapstructure:"enable_logging" yaml:"enable_logging"`
	SkipIntro      bool    `mapstructure:"skip_intro" yaml:"skip_intro"`
	MergeAllMods   bool    `mapstructure:"merge_all_mods" yaml:"merge_all_mods"`
	UnitMultiplier float64 `mapstructure:"unit_multiplier" yaml:"unit_multiplier"`
}

// Config holds global application settings
type Config struct {
	DefaultLinkMethod domain.LinkMethod        `mapstructure:"-" yaml:"-"`
	LinkMethodStr     string                   `mapstructure:"default_link_method" yaml:"default_link_method"`
	DefaultGame       string                   `mapstructure:"default_game" yaml:"default_game,omitempty"`
	RPFMPath          string                   `mapstructure:"rpfm_path" yaml:"rpfm_path,omitempty"`
	SchemaPath        string                   `mapstructure:"schema_path" yaml:"schema_path,omitempty"`
	SteamAPIKey       string                   `mapstructure:"steam_api_key" yaml:"steam_api_key,omitempty"`
	Keybindings       string                   `mapstructure:"keybindings" yaml:"keybindings"`
	Launch            map[string]LaunchOptions `mapstructure:"launch" yaml:"launch,omitempty"`
}

// Load reads configuration from the given directory. A missing config.yaml
// yields defaults; TWLM_* environment variables override file values.
func Load(configDir string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(filepath.Join(configDir, "config.yaml"))
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("default_link_method", domain.LinkSymlink.String())
	v.SetDefault("default_game", "")
	v.SetDefault("rpfm_path", "rpfm_cli")
	v.SetDefault("schema_path", "")
	v.SetDefault("steam_api_key", "")
	v.SetDefault("keybindings", "vim")

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Launch == nil {
		cfg.Launch = make(map[string]LaunchOptions)
	}
	cfg.DefaultLinkMethod = domain.ParseLinkMethod(cfg.LinkMethodStr)

	return cfg, nil
}

// LaunchOptionsFor returns the launch toggles for a game. An unset unit
// multiplier means 1.0.
func (c *Config) LaunchOptionsFor(gameKey string) LaunchOptions {
	opts := c.Launch[gameKey]
	if opts.UnitMultiplier == 0 {
		opts.UnitMultiplier = 1.0
	}
	return opts
}

// SetLaunchOptions stores the launch toggles for a game.
func (c *Config) SetLaunchOptions(gameKey string, opts LaunchOptions) {
	if c.Launch == nil {
		c.Launch = make(map[string]LaunchOptions)
	}
	c.Launch[gameKey] = opts
}

// Save writes configuration to the given directory
func (c *Config) Save(configDir string) error {
	c.LinkMethodStr = c.DefaultLinkMethod.String()

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := writeFileAtomic(filepath.Join(configDir, "config.yaml"), data, 0600, nil); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}
