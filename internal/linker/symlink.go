package linker

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/DonovanMods/twlm/internal/domain"
)

// Symlink stages packs as links to the installed file. Cheapest, but the
// game must follow links into the Workshop folder.
type Symlink struct{}

// NewSymlink creates a symlink linker
func NewSymlink() Symlink { return Symlink{} }

// Place links dst to src. The target is made absolute because staging runs
// are built in a temp dir and renamed into place.
func (Symlink) Place(src, dst string) error {
	abs, err := filepath.Abs(src)
	if err != nil {
		return fmt.Errorf("resolving pack path: %w", err)
	}
	if err := vacate(dst); err != nil {
		return err
	}
	if err := os.Symlink(abs, dst); err != nil {
		return fmt.Errorf("linking %s: %w", filepath.Base(src), err)
	}
	return nil
}

func (Symlink) Method() domain.LinkMethod { return domain.LinkSymlink }
