package core

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/DonovanMods/twlm/internal/domain"
	"github.com/DonovanMods/twlm/internal/linker"
	"github.com/DonovanMods/twlm/internal/logger"
	"github.com/DonovanMods/twlm/internal/pack"
	"github.com/DonovanMods/twlm/internal/source"
	"github.com/DonovanMods/twlm/internal/source/steam"
	"github.com/DonovanMods/twlm/internal/storage/config"
	"github.com/DonovanMods/twlm/internal/storage/db"
	"github.com/DonovanMods/twlm/internal/storage/staging"

	"go.uber.org/zap"
)

// Job names reported by Controller.Busy
const (
	JobRescan        = "rescan"
	JobRefreshOnline = "refresh"
	JobAssemble      = "assemble"
	JobLaunch        = "launch"
)

// hookTimeout bounds each launch hook script
const hookTimeout = 60 * time.Second

// ServiceConfig holds configuration for the core service
type ServiceConfig struct {
	ConfigDir  string // Directory for configuration files
	DataDir    string // Directory for the database, staging and log
	Logger     *zap.Logger
	HTTPClient *http.Client

	// Launcher starts games; defaults to an ExecLauncher
	Launcher Launcher
	// NewCodec builds the package codec of a game; defaults to rpfm_cli
	NewCodec func(game *domain.Game) pack.Codec
}

// Service is the main orchestrator: it owns every collaborator and exposes
// the operations the CLI and TUI need.
type Service struct {
	config     *config.Config
	db         *db.DB
	staging    *staging.Staging
	store      *config.GameConfigStore
	sources    *source.Registry
	workshop   *steam.Workshop
	profiles   *ProfileManager
	controller *Controller
	scanner    *Scanner
	hooks      *HookRunner
	launcher   Launcher
	games      map[string]*domain.Game
	log        *zap.Logger

	codecFor func(game *domain.Game) pack.Codec
	now      func() time.Time

	configDir string
	dataDir   string
}

// NewService creates a new core service instance
func NewService(cfg ServiceConfig) (*Service, error) {
	log := logger.OrNop(cfg.Logger)

	appConfig, err := config.Load(cfg.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	database, err := db.New(filepath.Join(cfg.DataDir, "twlm.db"))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	games, err := config.LoadGames(cfg.ConfigDir)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("loading games: %w", err)
	}

	store := config.NewGameConfigStore(cfg.ConfigDir, log.Named("config"))
	s := &Service{
		config:     appConfig,
		db:         database,
		staging:    staging.New(filepath.Join(cfg.DataDir, "temp_packs")),
		store:      store,
		sources:    source.NewRegistry(),
		profiles:   NewProfileManager(cfg.ConfigDir),
		controller: NewController(store, log.Named("controller")),
		scanner:    NewScanner(log.Named("scan")),
		hooks:      NewHookRunner(hookTimeout, log.Named("hooks")),
		launcher:   cfg.Launcher,
		codecFor:   cfg.NewCodec,
		games:      games,
		log:        log,
		now:        time.Now,
		configDir:  cfg.ConfigDir,
		dataDir:    cfg.DataDir,
	}
	if s.launcher == nil {
		s.launcher = NewExecLauncher(log.Named("launch"))
	}
	if s.codecFor == nil {
		s.codecFor = func(game *domain.Game) pack.Codec {
			return pack.NewRPFMCodec(appConfig.RPFMPath, game.Family, appConfig.SchemaPath, log.Named("rpfm"))
		}
	}

	s.workshop = steam.NewWorkshop(cfg.HTTPClient, s.resolveAPIKey())
	s.sources.Register(s.workshop)

	return s, nil
}

// resolveAPIKey prefers config (and so TWLM_STEAM_API_KEY) over the stored key
func (s *Service) resolveAPIKey() string {
	if s.config.SteamAPIKey != "" {
		return s.config.SteamAPIKey
	}
	stored, err := s.db.GetAPIKey(steam.SourceID)
	if err != nil {
		s.log.Warn("reading stored API key", zap.Error(err))
		return ""
	}
	if stored == nil {
		return ""
	}
	return stored.APIKey
}

// Close releases resources held by the service
func (s *Service) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Config returns the application settings
func (s *Service) Config() *config.Config {
	return s.config
}

// SaveConfig writes the application settings
func (s *Service) SaveConfig() error {
	return s.config.Save(s.configDir)
}

// ConfigDir returns the configuration directory
func (s *Service) ConfigDir() string {
	return s.configDir
}

// Controller returns the session controller
func (s *Service) Controller() *Controller {
	return s.controller
}

// Profiles returns the profile manager
func (s *Service) Profiles() *ProfileManager {
	return s.profiles
}

// Staging returns the staging manager
func (s *Service) Staging() *staging.Staging {
	return s.staging
}

// Sources returns the metadata source registry
func (s *Service) Sources() *source.Registry {
	return s.sources
}

// SetAPIKey stores the Steam Web API key and uses it from now on
func (s *Service) SetAPIKey(key string) error {
	if err := s.db.SaveAPIKey(steam.SourceID, key); err != nil {
		return err
	}
	s.workshop.SetAPIKey(key)
	return nil
}

// DeleteAPIKey forgets the stored Steam Web API key
func (s *Service) DeleteAPIKey() error {
	if err := s.db.DeleteAPIKey(steam.SourceID); err != nil {
		return err
	}
	s.workshop.SetAPIKey(s.config.SteamAPIKey)
	return nil
}

// HasAPIKey reports whether online refreshes can authenticate
func (s *Service) HasAPIKey() bool {
	return s.resolveAPIKey() != ""
}

// GetGame retrieves a game by key
func (s *Service) GetGame(gameKey string) (*domain.Game, error) {
	game, ok := s.games[gameKey]
	if !ok {
		return nil, fmt.Errorf("%s: %w", gameKey, domain.ErrGameNotFound)
	}
	return game, nil
}

// ListGames returns all configured games sorted by key
func (s *Service) ListGames() []*domain.Game {
	games := make([]*domain.Game, 0, len(s.games))
	for _, g := range s.games {
		games = append(games, g)
	}
	sort.Slice(games, func(i, j int) bool { return games[i].Key < games[j].Key })
	return games
}

// AddGame adds or replaces a game configuration
func (s *Service) AddGame(game *domain.Game) error {
	if err := config.SaveGame(s.configDir, game); err != nil {
		return err
	}
	s.games[game.Key] = game
	return nil
}

// RemoveGame deletes a game configuration. Its mod config is left on disk.
func (s *Service) RemoveGame(gameKey string) error {
	if err := s.controller.Close(gameKey); err != nil {
		return err
	}
	if err := config.DeleteGame(s.configDir, gameKey); err != nil {
		return err
	}
	delete(s.games, gameKey)
	return nil
}

// DetectGames finds installed Total War games in the Steam libraries and adds
// the ones not configured yet. It returns the newly added games.
func (s *Service) DetectGames() ([]*domain.Game, error) {
	detected, err := steam.DetectGames(s.configDir)
	if err != nil {
		return nil, err
	}

	var added []*domain.Game
	for _, d := range detected {
		if _, ok := s.games[d.Key]; ok {
			continue
		}
		game := GameFromDetected(d)
		if err := s.AddGame(game); err != nil {
			return added, err
		}
		s.log.Info("game detected", zap.String("game", game.Key), zap.String("path", game.InstallPath))
		added = append(added, game)
	}
	return added, nil
}

// GameFromDetected converts a Steam detection into a game configuration
func GameFromDetected(d steam.DetectedGame) *domain.Game {
	return &domain.Game{
		Key:          d.Key,
		Name:         d.Name,
		Family:       domain.ParseFamily(d.Key),
		InstallPath:  d.InstallPath,
		DataPath:     d.DataPath,
		ContentPath:  d.ContentPath,
		Executable:   d.Executable,
		SteamAppID:   d.SteamAppID,
		VanillaPacks: d.VanillaPacks,
	}
}

// GameConfig returns a snapshot of a game's mod configuration
func (s *Service) GameConfig(gameKey string) (*domain.GameConfig, error) {
	if _, err := s.GetGame(gameKey); err != nil {
		return nil, err
	}
	return s.controller.Snapshot(gameKey)
}

// Edit applies a foreground mutation to a game's configuration
func (s *Service) Edit(gameKey string, fn func(cfg *domain.GameConfig) error) error {
	if _, err := s.GetGame(gameKey); err != nil {
		return err
	}
	return s.controller.Edit(gameKey, fn)
}

// Save persists a game's configuration
func (s *Service) Save(gameKey string) error {
	return s.controller.Save(gameKey)
}

// LaunchOptions returns the transform toggles configured for a game
func (s *Service) LaunchOptions(gameKey string) Options {
	lo := s.config.LaunchOptionsFor(gameKey)
	return Options{
		ScriptLogging:  lo.EnableLogging,
		SkipIntro:      lo.SkipIntro,
		MergeAllMods:   lo.MergeAllMods,
		UnitMultiplier: lo.UnitMultiplier,
	}
}

// assembler builds the assembler for a game with its codec and link method
func (s *Service) assembler(game *domain.Game) *Assembler {
	method := s.config.DefaultLinkMethod
	if game.LinkMethodExplicit {
		method = game.LinkMethod
	}
	return NewAssembler(s.codecFor(game), s.staging, linker.New(method), s.log.Named("assembly"))
}

// Rescan scans the game's folders, reconciles the result with the current
// config and applies cached online metadata. The result value is the
// reconciled config.
func (s *Service) Rescan(ctx context.Context, gameKey string) (<-chan Result, error) {
	game, err := s.GetGame(gameKey)
	if err != nil {
		return nil, err
	}
	return s.controller.Do(ctx, gameKey, JobRescan, func(ctx context.Context, snapshot *domain.GameConfig) (*domain.GameConfig, any, error) {
		scanned, err := s.scanner.ScanLocal(ctx, game)
		if err != nil {
			return nil, nil, err
		}
		next := Reconcile(snapshot, scanned)
		if _, err := RefreshOnline(ctx, nil, s.db, next, s.now()); err != nil {
			s.log.Warn("applying cached metadata", zap.String("game", gameKey), zap.Error(err))
		}
		return next, next.Clone(), nil
	})
}

// RefreshOnline fetches Workshop metadata for the game's subscribed mods.
// The result value is a MergeResult.
func (s *Service) RefreshOnline(ctx context.Context, gameKey string) (<-chan Result, error) {
	game, err := s.GetGame(gameKey)
	if err != nil {
		return nil, err
	}
	src, err := s.sources.ForGame(game)
	if err != nil {
		return nil, err
	}
	return s.controller.Do(ctx, gameKey, JobRefreshOnline, func(ctx context.Context, snapshot *domain.GameConfig) (*domain.GameConfig, any, error) {
		res, err := RefreshOnline(ctx, src, s.db, snapshot, s.now())
		if err != nil {
			return nil, nil, err
		}
		return snapshot, res, nil
	})
}

// assemble resolves the enabled order of snapshot and stages it
func (s *Service) assemble(ctx context.Context, game *domain.Game, snapshot *domain.GameConfig) (*domain.GameConfig, *Assembly, error) {
	ids := ResolveEnabledOrder(snapshot)
	asm, err := s.assembler(game).Assemble(ctx, game, snapshot, ids, s.LaunchOptions(game.Key))
	if err != nil {
		return nil, nil, err
	}
	if err := s.hooks.Fire(ctx, domain.HookAfterAssemble, game, asm); err != nil {
		return nil, nil, err
	}
	snapshot.LoadOrder = ids
	return snapshot, asm, nil
}

// Assemble stages the game's enabled mods. The result value is an *Assembly.
func (s *Service) Assemble(ctx context.Context, gameKey string) (<-chan Result, error) {
	game, err := s.GetGame(gameKey)
	if err != nil {
		return nil, err
	}
	return s.controller.Do(ctx, gameKey, JobAssemble, func(ctx context.Context, snapshot *domain.GameConfig) (*domain.GameConfig, any, error) {
		next, asm, err := s.assemble(ctx, game, snapshot)
		if err != nil {
			return nil, nil, err
		}
		return next, asm, nil
	})
}

// Launch assembles the game's enabled mods and starts the game. The result
// value is the *Assembly that was launched.
func (s *Service) Launch(ctx context.Context, gameKey string) (<-chan Result, error) {
	game, err := s.GetGame(gameKey)
	if err != nil {
		return nil, err
	}
	return s.controller.Do(ctx, gameKey, JobLaunch, func(ctx context.Context, snapshot *domain.GameConfig) (*domain.GameConfig, any, error) {
		next, asm, err := s.assemble(ctx, game, snapshot)
		if err != nil {
			return nil, nil, err
		}
		if err := LaunchAssembly(ctx, game, asm, s.launcher, s.hooks); err != nil {
			return nil, nil, err
		}
		return next, asm, nil
	})
}

// SaveProfile stores the game's current enabled order under name
func (s *Service) SaveProfile(gameKey, name string) (*domain.Profile, error) {
	cfg, err := s.GameConfig(gameKey)
	if err != nil {
		return nil, err
	}
	return s.profiles.Save(cfg, name)
}

// LoadProfile applies a saved profile to the game's config and returns the
// entries that matched no installed mod
func (s *Service) LoadProfile(gameKey, name string) ([]domain.ShareableMod, error) {
	var missing []domain.ShareableMod
	err := s.Edit(gameKey, func(cfg *domain.GameConfig) error {
		var err error
		missing, err = s.profiles.Load(cfg, name)
		return err
	})
	return missing, err
}

// ExportLoadOrder renders the game's enabled order in the shareable format
func (s *Service) ExportLoadOrder(gameKey string) (string, error) {
	cfg, err := s.GameConfig(gameKey)
	if err != nil {
		return "", err
	}
	return ExportLoadOrder(cfg), nil
}

// ImportLoadOrder applies shareable text to the game's config
func (s *Service) ImportLoadOrder(gameKey, text string) ([]domain.ShareableMod, error) {
	var missing []domain.ShareableMod
	err := s.Edit(gameKey, func(cfg *domain.GameConfig) error {
		var err error
		missing, err = ImportLoadOrder(cfg, text)
		return err
	})
	return missing, err
}
