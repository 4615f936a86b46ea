package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/DonovanMods/twlm/internal/core"
	"github.com/DonovanMods/twlm/internal/domain"
	"github.com/DonovanMods/twlm/internal/logger"
	"github.com/DonovanMods/twlm/internal/storage/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// ErrCancelled is returned when the user declines a prompt.
// When returned from a command, Execute exits with code 2.
var ErrCancelled = errors.New("cancelled")

var (
	version = "0.4.0"

	// Global flags
	configDir  string
	dataDir    string
	gameKey    string
	verbose    bool
	jsonOutput bool
	noColor    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "twlm",
	Short: "Total War Launcher & Mod manager",
	Long: `twlm manages local and Steam Workshop mods for the Total War games on Linux:
categories and load order, shareable profiles, pre-launch tweaks and launching.

Run 'twlm game detect' first, then 'twlm mod scan'.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "config directory (default: ~/.config/twlm)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "data directory (default: ~/.local/share/twlm)")
	rootCmd.PersistentFlags().StringVarP(&gameKey, "game", "g", "", "game key to operate on, e.g. warhammer_3")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output and debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format (list commands)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// colorEnabled respects --no-color and NO_COLOR (https://no-color.org)
func colorEnabled() bool {
	if noColor {
		return false
	}
	return os.Getenv("NO_COLOR") == ""
}

const (
	ansiReset  = "\033[0m"
	ansiGreen  = "\033[32m"
	ansiRed    = "\033[31m"
	ansiYellow = "\033[33m"
)

func colorize(code, s string) string {
	if !colorEnabled() {
		return s
	}
	return code + s + ansiReset
}

func colorGreen(s string) string  { return colorize(ansiGreen, s) }
func colorRed(s string) string    { return colorize(ansiRed, s) }
func colorYellow(s string) string { return colorize(ansiYellow, s) }

// Execute runs the root command. Exit codes: 0 = success, 1 = error, 2 = user cancelled.
// With --json, errors are printed as {"error":"..."} on stdout.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, ErrCancelled) {
			os.Exit(2)
		}
		if jsonOutput {
			fmt.Printf(`{"error":%q}`+"\n", err.Error())
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// getServiceConfig returns the service configuration with defaults applied
func getServiceConfig() (core.ServiceConfig, error) {
	cfg := core.ServiceConfig{ConfigDir: configDir, DataDir: dataDir}
	if cfg.ConfigDir != "" && cfg.DataDir != "" {
		return cfg, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return core.ServiceConfig{}, fmt.Errorf("home directory: %w", err)
	}
	if cfg.ConfigDir == "" {
		cfg.ConfigDir = filepath.Join(homeDir, ".config", "twlm")
	}
	if cfg.DataDir == "" {
		cfg.DataDir = filepath.Join(homeDir, ".local", "share", "twlm")
	}
	return cfg, nil
}

// initService creates the core service with a file logger under the data dir
func initService() (*core.Service, error) {
	cfg, err := getServiceConfig()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.ConfigDir, 0755); err != nil {
		return nil, fmt.Errorf("creating config dir: %w", err)
	}

	log, err := logger.New(cfg.DataDir, verbose)
	if err != nil {
		return nil, err
	}
	cfg.Logger = log

	svc, err := core.NewService(cfg)
	if err != nil {
		_ = log.Sync()
		return nil, fmt.Errorf("initializing service: %w", err)
	}
	log.Debug("service started", zap.String("config", cfg.ConfigDir), zap.String("data", cfg.DataDir))
	return svc, nil
}

// requireGame ensures a game is specified, falling back to the configured default
func requireGame() error {
	if gameKey != "" {
		return nil
	}

	svcCfg, err := getServiceConfig()
	if err != nil {
		return err
	}
	cfg, err := config.Load(svcCfg.ConfigDir)
	if err == nil && cfg.DefaultGame != "" {
		gameKey = cfg.DefaultGame
		if verbose {
			fmt.Printf("Using default game: %s\n", gameKey)
		}
		return nil
	}

	return fmt.Errorf("no game specified; use --game or -g flag, or set a default with 'twlm game set-default <game>'")
}

// withGame runs fn with an initialized service for the selected game
func withGame(fn func(svc *core.Service) error) error {
	if err := requireGame(); err != nil {
		return err
	}
	svc, err := initService()
	if err != nil {
		return err
	}
	defer svc.Close()

	if _, err := svc.GetGame(gameKey); err != nil {
		return err
	}
	return fn(svc)
}

// editAndSave applies a mutation to the selected game's config and persists it
func editAndSave(svc *core.Service, fn func(cfg *domain.GameConfig) error) error {
	if err := svc.Edit(gameKey, fn); err != nil {
		return err
	}
	return svc.Save(gameKey)
}

// runJob waits for a background job and persists the config it produced
func runJob(svc *core.Service, start func(ctx context.Context, key string) (<-chan core.Result, error)) (any, error) {
	ch, err := start(context.Background(), gameKey)
	if err != nil {
		return nil, err
	}
	value, err := core.Wait(ch)
	if err != nil {
		return nil, err
	}
	if err := svc.Save(gameKey); err != nil {
		return nil, err
	}
	return value, nil
}

// printJSON writes v as indented JSON to stdout
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
