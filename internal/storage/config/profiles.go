package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/DonovanMods/twlm/internal/domain"
)

const profileExt = ".txt"

func profileDir(configDir, gameKey string) string {
	return filepath.Join(configDir, "profiles", gameKey)
}

// ValidateProfileName rejects names that cannot be used as a file name
func ValidateProfileName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: profile name cannot be empty", domain.ErrInvalidConfig)
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("%w: profile name %q contains a path separator", domain.ErrInvalidConfig, name)
	}
	return nil
}

// LoadProfile reads a profile from disk
func LoadProfile(configDir, gameKey, name string) (*domain.Profile, error) {
	if err := ValidateProfileName(name); err != nil {
		return nil, err
	}

	path := filepath.Join(profileDir(configDir, gameKey), name+profileExt)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrProfileNotFound, name)
		}
		return nil, &domain.IOError{Op: "read", Path: path, Err: err}
	}

	mods, err := UnmarshalShareable(string(data))
	if err != nil {
		return nil, fmt.Errorf("parsing profile %s: %w", name, err)
	}

	return &domain.Profile{Name: name, GameKey: gameKey, Mods: mods}, nil
}

// SaveProfile writes a profile to disk, replacing any profile with the same name
func SaveProfile(configDir string, profile *domain.Profile) error {
	if err := ValidateProfileName(profile.Name); err != nil {
		return err
	}

	path := filepath.Join(profileDir(configDir, profile.GameKey), profile.Name+profileExt)
	if err := writeFileAtomic(path, []byte(MarshalShareable(profile.Mods)), 0644, nil); err != nil {
		return &domain.IOError{Op: "save", Path: path, Err: err}
	}

	return nil
}

// ListProfiles returns all profile names for a game, sorted
func ListProfiles(configDir, gameKey string) ([]string, error) {
	entries, err := os.ReadDir(profileDir(configDir, gameKey))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading profiles dir: %w", err)
	}

	var profiles []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasSuffix(name, profileExt) {
			profiles = append(profiles, strings.TrimSuffix(name, profileExt))
		}
	}
	sort.Strings(profiles)

	return profiles, nil
}

// DeleteProfile removes a profile from disk
func DeleteProfile(configDir, gameKey, name string) error {
	if err := ValidateProfileName(name); err != nil {
		return err
	}

	path := filepath.Join(profileDir(configDir, gameKey), name+profileExt)
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", domain.ErrProfileNotFound, name)
		}
		return fmt.Errorf("deleting profile: %w", err)
	}
	return nil
}
