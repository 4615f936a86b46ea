package core

import (
	"context"
	"fmt"
	"sync"

	"github.com/DonovanMods/twlm/internal/domain"
	"github.com/DonovanMods/twlm/internal/logger"

	"go.uber.org/zap"
)

// ConfigStore loads and saves GameConfigs
type ConfigStore interface {
	Load(gameKey string) *domain.GameConfig
	Save(cfg *domain.GameConfig) error
}

// Job is a slow operation run off the foreground. It receives a private
// snapshot and returns the config to install (nil keeps the current one)
// plus an operation-specific value.
type Job func(ctx context.Context, snapshot *domain.GameConfig) (*domain.GameConfig, any, error)

// Result is the response message of a background job
type Result struct {
	Value any
	Err   error
}

// session is the controller's state for one game
type session struct {
	cfg   *domain.GameConfig
	state domain.ConfigState
	busy  string // Name of the in-flight job, empty when idle
}

// Controller owns every open GameConfig. Mutations and queries are refused
// with ErrBusy while a background job runs for the same game, so at most
// one operation touches a game's config at a time.
type Controller struct {
	mu       sync.Mutex
	sessions map[string]*session
	store    ConfigStore
	log      *zap.Logger
}

// NewController creates a controller persisting through store
func NewController(store ConfigStore, log *zap.Logger) *Controller {
	log = logger.OrNop(log)
	return &Controller{
		sessions: make(map[string]*session),
		store:    store,
		log:      log,
	}
}

// session returns the game's session, loading it on first use. Caller holds mu.
func (c *Controller) session(gameKey string) *session {
	s, ok := c.sessions[gameKey]
	if !ok {
		s = &session{cfg: c.store.Load(gameKey), state: domain.StateLoaded}
		c.sessions[gameKey] = s
		c.log.Debug("game config loaded", zap.String("game", gameKey), zap.Int("mods", len(s.cfg.Mods)))
	}
	return s
}

// State returns the lifecycle state of a game's config
func (c *Controller) State(gameKey string) domain.ConfigState {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[gameKey]
	if !ok {
		return domain.StateUnloaded
	}
	return s.state
}

// Busy reports the running job of a game, or ""
func (c *Controller) Busy(gameKey string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.sessions[gameKey]; ok {
		return s.busy
	}
	return ""
}

// Snapshot returns a copy of a game's config
func (c *Controller) Snapshot(gameKey string) (*domain.GameConfig, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.session(gameKey)
	if s.busy != "" {
		return nil, fmt.Errorf("%s: %w", s.busy, domain.ErrBusy)
	}
	return s.cfg.Clone(), nil
}

// Edit applies a foreground mutation. The mutation runs on a copy which
// replaces the config only if it succeeds.
func (c *Controller) Edit(gameKey string, fn func(cfg *domain.GameConfig) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.session(gameKey)
	if s.busy != "" {
		return fmt.Errorf("%s: %w", s.busy, domain.ErrBusy)
	}

	next := s.cfg.Clone()
	if err := fn(next); err != nil {
		return err
	}
	s.cfg = next
	s.state = domain.StateDirty
	return nil
}

// Save persists a game's config. Errors always propagate and leave the
// config dirty.
func (c *Controller) Save(gameKey string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.session(gameKey)
	if s.busy != "" {
		return fmt.Errorf("%s: %w", s.busy, domain.ErrBusy)
	}
	if err := c.store.Save(s.cfg); err != nil {
		return err
	}
	s.state = domain.StateSaved
	return nil
}

// Reload discards in-memory state and reads the config from disk again
func (c *Controller) Reload(gameKey string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.sessions[gameKey]; ok && s.busy != "" {
		return fmt.Errorf("%s: %w", s.busy, domain.ErrBusy)
	}
	delete(c.sessions, gameKey)
	c.session(gameKey)
	return nil
}

// Close forgets a game's session. Unsaved changes are lost.
func (c *Controller) Close(gameKey string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.sessions[gameKey]; ok && s.busy != "" {
		return fmt.Errorf("%s: %w", s.busy, domain.ErrBusy)
	}
	delete(c.sessions, gameKey)
	return nil
}

// Do starts job on a background goroutine with a snapshot of the game's
// config and returns the channel its single Result will arrive on. A second
// Do for the same game fails with ErrBusy until the first one completes.
// Jobs are not cancelled once started.
func (c *Controller) Do(ctx context.Context, gameKey, name string, job Job) (<-chan Result, error) {
	c.mu.Lock()
	s := c.session(gameKey)
	if s.busy != "" {
		c.mu.Unlock()
		return nil, fmt.Errorf("%s: %w", s.busy, domain.ErrBusy)
	}
	s.busy = name
	snapshot := s.cfg.Clone()
	c.mu.Unlock()

	c.log.Debug("job started", zap.String("game", gameKey), zap.String("job", name))

	out := make(chan Result, 1)
	go func() {
		next, value, err := c.run(ctx, job, snapshot)

		c.mu.Lock()
		if err == nil && next != nil {
			s.cfg = next
			s.state = domain.StateDirty
		}
		s.busy = ""
		c.mu.Unlock()

		if err != nil {
			c.log.Warn("job failed", zap.String("game", gameKey), zap.String("job", name), zap.Error(err))
		} else {
			c.log.Debug("job finished", zap.String("game", gameKey), zap.String("job", name))
		}
		out <- Result{Value: value, Err: err}
		close(out)
	}()
	return out, nil
}

// run calls job, turning a panic into an error so the busy gate always reopens
func (c *Controller) run(ctx context.Context, job Job, snapshot *domain.GameConfig) (next *domain.GameConfig, value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return job(ctx, snapshot)
}

// Wait blocks for a job's result
func Wait(ch <-chan Result) (any, error) {
	r := <-ch
	return r.Value, r.Err
}
