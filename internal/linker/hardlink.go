package linker

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/DonovanMods/twlm/internal/domain"
)

// Hardlink stages packs as hard links, copying when staging lives on a
// different filesystem than the pack.
type Hardlink struct{}

// NewHardlink creates a hardlink linker
func NewHardlink() Hardlink { return Hardlink{} }

func (Hardlink) Place(src, dst string) error {
	if err := vacate(dst); err != nil {
		return err
	}
	err := os.Link(src, dst)
	if errors.Is(err, syscall.EXDEV) {
		return Copy{}.Place(src, dst)
	}
	if err != nil {
		return fmt.Errorf("hard linking %s: %w", filepath.Base(src), err)
	}
	return nil
}

func (Hardlink) Method() domain.LinkMethod { return domain.LinkHardlink }
