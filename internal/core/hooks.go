package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/DonovanMods/twlm/internal/domain"
	"github.com/DonovanMods/twlm/internal/logger"

	"go.uber.org/zap"
)

// HookEnv is what a hook script learns about the launch, via TWLM_* variables
type HookEnv struct {
	Hook          string
	GameKey       string
	Family        string
	GamePath      string
	DataPath      string
	StagingPath   string
	LoadOrderFile string
	PackCount     int
}

func newHookEnv(hook string, game *domain.Game, asm *Assembly) HookEnv {
	return HookEnv{
		Hook:          hook,
		GameKey:       game.Key,
		Family:        game.Family.String(),
		GamePath:      game.InstallPath,
		DataPath:      game.DataPath,
		StagingPath:   asm.Dir,
		LoadOrderFile: asm.LoadOrderFile,
		PackCount:     len(asm.Packs),
	}
}

// Environ returns the process environment extended with the hook variables
func (e HookEnv) Environ() []string {
	return append(os.Environ(),
		"TWLM_HOOK="+e.Hook,
		"TWLM_GAME="+e.GameKey,
		"TWLM_FAMILY="+e.Family,
		"TWLM_GAME_PATH="+e.GamePath,
		"TWLM_DATA_PATH="+e.DataPath,
		"TWLM_STAGING_PATH="+e.StagingPath,
		"TWLM_LOAD_ORDER="+e.LoadOrderFile,
		"TWLM_PACK_COUNT="+strconv.Itoa(e.PackCount),
	)
}

// HookResult contains the output from running a hook
type HookResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// HookRunner executes the user's launch hook scripts
type HookRunner struct {
	timeout time.Duration
	log     *zap.Logger
}

// NewHookRunner creates a hook runner that kills scripts after timeout
func NewHookRunner(timeout time.Duration, log *zap.Logger) *HookRunner {
	return &HookRunner{timeout: timeout, log: logger.OrNop(log)}
}

// Fire runs the script the game configures for hook, if any. A nil runner
// runs nothing.
func (r *HookRunner) Fire(ctx context.Context, hook string, game *domain.Game, asm *Assembly) error {
	script := game.Hooks.Script(hook)
	if r == nil || script == "" {
		return nil
	}

	res, err := r.Run(ctx, script, newHookEnv(hook, game, asm))
	fields := []zap.Field{zap.String("hook", hook), zap.String("script", script), zap.Duration("took", res.Duration)}
	if err != nil {
		r.log.Warn("hook failed", append(fields, zap.String("stderr", res.Stderr), zap.Error(err))...)
		return fmt.Errorf("%s hook: %w", hook, err)
	}
	r.log.Debug("hook finished", append(fields, zap.String("stdout", res.Stdout))...)
	return nil
}

// Run executes a script with env and returns its output
func (r *HookRunner) Run(ctx context.Context, script string, env HookEnv) (*HookResult, error) {
	result := &HookResult{}

	info, err := os.Stat(script)
	if errors.Is(err, os.ErrNotExist) {
		return result, fmt.Errorf("hook script not found: %s", script)
	}
	if err != nil {
		return result, fmt.Errorf("checking hook script: %w", err)
	}
	if info.Mode()&0111 == 0 {
		return result, fmt.Errorf("hook script not executable: %s", script)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, script)
	cmd.WaitDelay = 100 * time.Millisecond
	cmd.Env = env.Environ()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err = cmd.Run()
	result.Duration = time.Since(start)
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()

	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return result, fmt.Errorf("hook timed out after %v: %s", r.timeout, script)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, fmt.Errorf("hook failed with exit code %d: %s", result.ExitCode, script)
		}
		return result, fmt.Errorf("running hook: %w", err)
	}

	return result, nil
}
