// Package steam finds Total War installs in Steam libraries and talks to the
// Steam Workshop Web API.
package steam

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DetectedGame is a Total War game found in a Steam library.
type DetectedGame struct {
	SteamAppID   string
	Key          string // twlm game key from the known games list
	Name         string
	InstallPath  string // e.g. .../steamapps/common/Total War WARHAMMER III
	DataPath     string
	ContentPath  string // Workshop content folder for the app id
	Executable   string
	VanillaPacks []string

	// WorkshopItems is the number of subscribed items Steam reports installed.
	WorkshopItems int
}

// FindSteamRoots returns candidate Steam installation roots in search order.
func FindSteamRoots() []string {
	home, _ := os.UserHomeDir()
	candidates := []string{
		filepath.Join(home, ".steam", "steam"),
		filepath.Join(home, ".local", "share", "Steam"),
		filepath.Join(home, ".var", "app", "com.valvesoftware.Steam", ".local", "share", "Steam"),
	}
	if p := os.Getenv("STEAM_ROOT"); p != "" {
		candidates = append([]string{p}, candidates...)
	}
	var out []string
	for _, p := range candidates {
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			continue
		}
		out = append(out, p)
	}
	return out
}

// GetLibraryPaths returns all Steam library paths of a Steam root.
func GetLibraryPaths(steamRoot string) ([]string, error) {
	data, err := os.ReadFile(filepath.Join(steamRoot, "steamapps", "libraryfolders.vdf"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{steamRoot}, nil
		}
		return nil, fmt.Errorf("reading libraryfolders: %w", err)
	}
	root, err := ParseVDF(strings.NewReader(string(data)))
	if err != nil {
		return nil, fmt.Errorf("parsing libraryfolders: %w", err)
	}
	paths := getLibraryPaths(root)
	if len(paths) == 0 {
		return []string{steamRoot}, nil
	}
	return paths, nil
}

// WorkshopContentPath returns where Steam keeps Workshop items of appID in a library.
func WorkshopContentPath(libraryPath, appID string) string {
	return filepath.Join(libraryPath, "steamapps", "workshop", "content", appID)
}

// DetectGames scans the local Steam libraries for known Total War games.
func DetectGames(configDir string) ([]DetectedGame, error) {
	known, err := LoadKnownGames(configDir)
	if err != nil {
		return nil, err
	}
	return DetectGamesIn(FindSteamRoots(), known), nil
}

// DetectGamesIn scans the libraries of the given Steam roots. A game present
// in several libraries is reported once, from the first library it is found in.
func DetectGamesIn(steamRoots []string, known map[string]GameInfo) []DetectedGame {
	var found []DetectedGame
	seen := make(map[string]bool)

	for _, steamRoot := range steamRoots {
		libraries, err := GetLibraryPaths(steamRoot)
		if err != nil {
			continue
		}
		for _, libPath := range libraries {
			for _, manifest := range readManifests(filepath.Join(libPath, "steamapps")) {
				info, ok := known[manifest.AppID]
				if !ok || seen[info.Key] {
					continue
				}
				installPath := filepath.Join(libPath, "steamapps", "common", manifest.InstallDir)
				if _, err := os.Stat(installPath); err != nil {
					continue
				}
				seen[info.Key] = true
				found = append(found, DetectedGame{
					SteamAppID:    manifest.AppID,
					Key:           info.Key,
					Name:          info.Name,
					InstallPath:   installPath,
					DataPath:      filepath.Join(installPath, info.DataPath),
					ContentPath:   WorkshopContentPath(libPath, manifest.AppID),
					Executable:    info.Executable,
					VanillaPacks:  info.VanillaPacks,
					WorkshopItems: countWorkshopItems(libPath, manifest.AppID),
				})
			}
		}
	}

	sort.Slice(found, func(i, j int) bool { return found[i].Key < found[j].Key })
	return found
}

// countWorkshopItems reads appworkshop_<appid>.acf of a library. A missing or
// unreadable manifest counts as zero.
func countWorkshopItems(libraryPath, appID string) int {
	data, err := os.ReadFile(filepath.Join(libraryPath, "steamapps", "workshop", "appworkshop_"+appID+".acf"))
	if err != nil {
		return 0
	}
	ids, err := ParseWorkshopManifest(string(data))
	if err != nil {
		return 0
	}
	return len(ids)
}

func readManifests(steamapps string) []AppManifest {
	entries, err := os.ReadDir(steamapps)
	if err != nil {
		return nil
	}
	var out []AppManifest
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, "appmanifest_") || !strings.HasSuffix(name, ".acf") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(steamapps, name))
		if err != nil {
			continue
		}
		manifest, err := ParseAppManifest(string(data))
		if err != nil || manifest.AppID == "" || manifest.InstallDir == "" {
			continue
		}
		out = append(out, manifest)
	}
	return out
}
