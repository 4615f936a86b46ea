package core

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"

	"github.com/DonovanMods/twlm/internal/domain"
	"github.com/DonovanMods/twlm/internal/logger"

	"go.uber.org/zap"
)

// BuildLaunchArgs returns the game arguments for an assembly. The games take
// the mod list file as a single semicolon-terminated argument.
func BuildLaunchArgs(game *domain.Game, asm *Assembly) []string {
	return []string{asm.LoadOrderFile + ";"}
}

// LaunchCommand resolves what to execute for a game: its own executable when
// configured, otherwise Steam's -applaunch for the game's app id.
func LaunchCommand(game *domain.Game, asm *Assembly) (string, []string, error) {
	if game.Executable != "" {
		exe := game.Executable
		if !filepath.IsAbs(exe) {
			exe = filepath.Join(game.InstallPath, exe)
		}
		return exe, asm.Args, nil
	}
	if game.SteamAppID != "" {
		args := append([]string{"-applaunch", game.SteamAppID}, asm.Args...)
		return "steam", args, nil
	}
	return "", nil, fmt.Errorf("game %s has no executable or Steam app id: %w", game.Key, domain.ErrInvalidConfig)
}

// Launcher starts a game process. The core never manages its lifetime.
type Launcher interface {
	Launch(ctx context.Context, exe string, args []string, dir string) error
}

// ExecLauncher starts the game as a detached child process
type ExecLauncher struct {
	log *zap.Logger
}

// NewExecLauncher creates a launcher backed by os/exec
func NewExecLauncher(log *zap.Logger) *ExecLauncher {
	return &ExecLauncher{log: logger.OrNop(log)}
}

// Launch starts exe and returns once the process is running. The context only
// bounds the start, never the game.
func (l *ExecLauncher) Launch(ctx context.Context, exe string, args []string, dir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cmd := exec.Command(exe, args...)
	cmd.Dir = dir
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", exe, err)
	}
	l.log.Info("game started", zap.String("exe", exe), zap.Strings("args", args), zap.Int("pid", cmd.Process.Pid))

	go func() {
		if err := cmd.Wait(); err != nil {
			l.log.Warn("game exited with error", zap.String("exe", exe), zap.Error(err))
		}
	}()
	return nil
}

// LaunchAssembly runs the before_launch hook and starts the game. A failing
// hook stops the launch.
func LaunchAssembly(ctx context.Context, game *domain.Game, asm *Assembly, launcher Launcher, hooks *HookRunner) error {
	if err := hooks.Fire(ctx, domain.HookBeforeLaunch, game, asm); err != nil {
		return err
	}

	exe, args, err := LaunchCommand(game, asm)
	if err != nil {
		return err
	}
	return launcher.Launch(ctx, exe, args, game.InstallPath)
}
