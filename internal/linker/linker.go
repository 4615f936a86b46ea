// Package linker places mod packs into a game's staging directory.
package linker

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/DonovanMods/twlm/internal/domain"
)

// Linker puts the pack at src into staging at dst. Whatever already occupies
// dst is replaced. The source pack is never modified.
type Linker interface {
	Place(src, dst string) error
	Method() domain.LinkMethod
}

// New creates a linker for the given method. Unknown methods symlink.
func New(method domain.LinkMethod) Linker {
	switch method {
	case domain.LinkHardlink:
		return Hardlink{}
	case domain.LinkCopy:
		return Copy{}
	default:
		return Symlink{}
	}
}

// vacate makes sure dst's directory exists and nothing occupies dst
func vacate(dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("creating staging dir: %w", err)
	}
	if err := os.Remove(dst); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("replacing staged pack: %w", err)
	}
	return nil
}
