package linker

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/DonovanMods/twlm/internal/domain"
)

// Copy stages full copies of packs. The copy keeps the pack's modification
// time, since launchers compare it against Workshop timestamps.
type Copy struct{}

// NewCopy creates a copy linker
func NewCopy() Copy { return Copy{} }

// Place copies src to a temp file next to dst and renames it into place, so
// a failed copy never leaves a truncated pack behind.
func (Copy) Place(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening pack: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat pack: %w", err)
	}
	if err := vacate(dst); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".copy-*")
	if err != nil {
		return fmt.Errorf("creating staged pack: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = io.Copy(tmp, in); err != nil {
		return fmt.Errorf("copying %s: %w", filepath.Base(src), err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing staged pack: %w", err)
	}
	if err = os.Chmod(tmp.Name(), info.Mode().Perm()); err != nil {
		return fmt.Errorf("setting pack mode: %w", err)
	}
	if err = os.Chtimes(tmp.Name(), info.ModTime(), info.ModTime()); err != nil {
		return fmt.Errorf("setting pack time: %w", err)
	}
	if err = os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("placing staged pack: %w", err)
	}
	return nil
}

func (Copy) Method() domain.LinkMethod { return domain.LinkCopy }
