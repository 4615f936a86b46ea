// Package staging manages the per-game directory that holds assembled packs.
package staging

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Staging manages one staging directory per game under a base path
type Staging struct {
	basePath string
	rename   func(oldpath, newpath string) error
}

// New creates a new staging manager
func New(basePath string) *Staging {
	return &Staging{basePath: basePath, rename: os.Rename}
}

// Path returns the committed staging directory of a game
func (s *Staging) Path(gameKey string) string {
	return filepath.Join(s.basePath, gameKey)
}

// Exists checks if a game has committed staged packs
func (s *Staging) Exists(gameKey string) bool {
	info, err := os.Stat(s.Path(gameKey))
	return err == nil && info.IsDir()
}

// Run is an in-progress staging build. Nothing is visible at Path until Commit.
type Run struct {
	staging *Staging
	gameKey string
	dir     string
	done    bool
}

// Begin starts a new staging run in a private sibling directory
func (s *Staging) Begin(gameKey string) (*Run, error) {
	dir := filepath.Join(s.basePath, fmt.Sprintf(".%s-%s", gameKey, uuid.NewString()))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating staging dir: %w", err)
	}
	return &Run{staging: s, gameKey: gameKey, dir: dir}, nil
}

// Dir returns the run's working directory
func (r *Run) Dir() string {
	return r.dir
}

// FinalPath maps a path inside the run to where it will live after Commit
func (r *Run) FinalPath(name string) string {
	return filepath.Join(r.staging.Path(r.gameKey), name)
}

// Store writes a file into the run
func (r *Run) Store(relativePath string, content []byte) error {
	fullPath := filepath.Join(r.dir, relativePath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("creating staging subdir: %w", err)
	}
	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		return fmt.Errorf("writing staged file: %w", err)
	}
	return nil
}

// Commit replaces the game's staging directory with this run. The previous
// directory is moved aside and only removed once the new one is in place.
func (r *Run) Commit() error {
	if r.done {
		return errors.New("staging run already finished")
	}
	final := r.staging.Path(r.gameKey)
	aside := ""
	if _, err := os.Lstat(final); err == nil {
		aside = filepath.Join(r.staging.basePath, fmt.Sprintf(".%s-old-%s", r.gameKey, uuid.NewString()))
		if err := r.staging.rename(final, aside); err != nil {
			return fmt.Errorf("moving previous staging aside: %w", err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking previous staging: %w", err)
	}

	if err := r.staging.rename(r.dir, final); err != nil {
		if aside != "" {
			if rerr := r.staging.rename(aside, final); rerr != nil {
				return errors.Join(fmt.Errorf("committing staging: %w", err), fmt.Errorf("restoring previous staging: %w", rerr))
			}
		}
		return fmt.Errorf("committing staging: %w", err)
	}
	r.done = true

	if aside != "" {
		if err := os.RemoveAll(aside); err != nil {
			return fmt.Errorf("removing previous staging: %w", err)
		}
	}
	return nil
}

// Abort discards the run. It is safe to call after Commit.
func (r *Run) Abort() error {
	if r.done {
		return nil
	}
	r.done = true
	if err := os.RemoveAll(r.dir); err != nil {
		return fmt.Errorf("discarding staging run: %w", err)
	}
	return nil
}

// Clear removes the committed staging directory of a game
func (s *Staging) Clear(gameKey string) error {
	if err := os.RemoveAll(s.Path(gameKey)); err != nil {
		return fmt.Errorf("clearing staging: %w", err)
	}
	return nil
}

// ListFiles returns all files staged for a game
func (s *Staging) ListFiles(gameKey string) ([]string, error) {
	root := s.Path(gameKey)

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, relPath)
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing staged files: %w", err)
	}

	return files, nil
}

// Size returns the total size of a game's staged files
func (s *Staging) Size(gameKey string) (int64, error) {
	var totalSize int64
	err := filepath.WalkDir(s.Path(gameKey), func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		totalSize += info.Size()
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return 0, fmt.Errorf("calculating staging size: %w", err)
	}

	return totalSize, nil
}
