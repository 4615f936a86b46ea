package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/DonovanMods/twlm/internal/domain"
)

// ParseLoadOrderPath checks a shared load order file named on the command
// line and returns its absolute path. Load orders travel as .txt files, the
// same format profiles are stored in.
func ParseLoadOrderPath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("%w: load order path is empty", domain.ErrInvalidConfig)
	}
	if !strings.EqualFold(filepath.Ext(path), profileExt) {
		return "", fmt.Errorf("%w: load order file must have a %s extension", domain.ErrInvalidConfig, profileExt)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", &domain.IOError{Op: "stat", Path: abs, Err: err}
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", domain.ErrInvalidConfig, abs)
	}
	return abs, nil
}
